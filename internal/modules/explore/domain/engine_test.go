package domain_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavorlab/internal/modules/explore/domain"
	pairing "flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/platform/clock"
	apperrors "flavorlab/internal/platform/errors"
)

// fakeGraph is a tiny in-memory graph keyed by id.
type fakeGraph struct {
	nodes     map[string]pairing.Node
	neighbors map[string][]pairing.Neighbor
}

func (g fakeGraph) Node(id string) (pairing.Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return pairing.Node{}, fmt.Errorf("node %q: %w", id, apperrors.ErrNotFound)
	}
	return n, nil
}

func (g fakeGraph) Neighbors(id string) ([]pairing.Neighbor, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, fmt.Errorf("node %q: %w", id, apperrors.ErrNotFound)
	}
	return g.neighbors[id], nil
}

func (g fakeGraph) Resolve(query string) []pairing.Node {
	var out []pairing.Node
	for _, n := range g.nodes {
		if pairing.NormalizeName(n.Name) == pairing.NormalizeName(query) {
			out = append(out, n)
		}
	}
	return out
}

// capreseGraph is the k=2 reduction of Basil-Tomato 0.9, Basil-Mozzarella
// 0.8, Basil-Strawberry 0.3, Tomato-Mozzarella 0.7.
func capreseGraph() fakeGraph {
	return fakeGraph{
		nodes: map[string]pairing.Node{
			"Basil":      {ID: "Basil", Name: "Basil"},
			"Tomato":     {ID: "Tomato", Name: "Tomato"},
			"Mozzarella": {ID: "Mozzarella", Name: "Mozzarella"},
			"Strawberry": {ID: "Strawberry", Name: "Strawberry"},
		},
		neighbors: map[string][]pairing.Neighbor{
			"Basil":      {{ID: "Tomato", Score: 0.9}, {ID: "Mozzarella", Score: 0.8}},
			"Tomato":     {{ID: "Basil", Score: 0.9}, {ID: "Mozzarella", Score: 0.7}},
			"Mozzarella": {{ID: "Basil", Score: 0.8}, {ID: "Tomato", Score: 0.7}},
			"Strawberry": {{ID: "Basil", Score: 0.3}},
		},
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) AddNode(id, label string) { r.calls = append(r.calls, "add "+id) }
func (r *recorder) UpdateNodeOpacity(id string, v float64) {
	r.calls = append(r.calls, fmt.Sprintf("opacity %s %.2f", id, v))
}
func (r *recorder) RemoveNode(id string) { r.calls = append(r.calls, "remove "+id) }
func (r *recorder) AddEdge(a, b string, w float64) {
	r.calls = append(r.calls, fmt.Sprintf("edge %s-%s %.2f", a, b, w))
}
func (r *recorder) RemoveEdge(a, b string) { r.calls = append(r.calls, "unedge "+a+"-"+b) }

func (r *recorder) count(prefix string) int {
	n := 0
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// manualScheduler runs timers against simulated time.
type manualScheduler struct {
	now     time.Time
	seq     int
	pending []*pendingTick
	engine  *domain.Engine
}

type pendingTick struct {
	at      time.Time
	seq     int
	tick    domain.Tick
	stopped bool
}

func (p *pendingTick) Stop() bool {
	was := !p.stopped
	p.stopped = true
	return was
}

func (s *manualScheduler) Now() time.Time { return s.now }

func (s *manualScheduler) Schedule(d time.Duration, tick domain.Tick) clock.Timer {
	s.seq++
	p := &pendingTick{at: s.now.Add(d), seq: s.seq, tick: tick}
	s.pending = append(s.pending, p)
	return p
}

// Advance moves simulated time forward by d, firing due ticks in order.
func (s *manualScheduler) Advance(d time.Duration) {
	deadline := s.now.Add(d)
	for {
		sort.Slice(s.pending, func(i, j int) bool {
			if !s.pending[i].at.Equal(s.pending[j].at) {
				return s.pending[i].at.Before(s.pending[j].at)
			}
			return s.pending[i].seq < s.pending[j].seq
		})
		if len(s.pending) == 0 || s.pending[0].at.After(deadline) {
			break
		}
		next := s.pending[0]
		s.pending = s.pending[1:]
		s.now = next.at
		if !next.stopped {
			s.engine.Fire(next.tick)
		}
	}
	s.now = deadline
}

func (s *manualScheduler) live() int {
	n := 0
	for _, p := range s.pending {
		if !p.stopped {
			n++
		}
	}
	return n
}

type fixture struct {
	engine *domain.Engine
	sched  *manualScheduler
	render *recorder
}

func newFixture(t *testing.T, mutate func(*domain.Config)) fixture {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.K = 2
	if mutate != nil {
		mutate(&cfg)
	}
	g := capreseGraph()
	sched := &manualScheduler{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	render := &recorder{}
	e, err := domain.NewEngine(cfg, g, g, render, sched, sched)
	require.NoError(t, err)
	sched.engine = e
	return fixture{engine: e, sched: sched, render: render}
}

func ids(views []domain.NodeView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func edgeNames(edges []domain.EdgeView) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.A+"-"+e.B)
	}
	return out
}

func TestSelectRevealsTopK(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Select("Basil"))

	assert.Equal(t, []string{"Basil", "Mozzarella", "Tomato"}, ids(f.engine.Visible()))
	assert.Equal(t, []string{"Basil"}, f.engine.Trail())
	assert.Equal(t, domain.Active, f.engine.State("Basil"))
	assert.Equal(t, domain.JustRevealed, f.engine.State("Tomato"))
	assert.Equal(t, domain.Hidden, f.engine.State("Strawberry"))
	assert.Equal(t, []string{"Basil-Mozzarella", "Basil-Tomato"}, edgeNames(f.engine.Edges()))
}

func TestSelectNeighborAddsOnlyMissingEdge(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Select("Basil"))
	require.NoError(t, f.engine.Select("Tomato"))

	assert.Equal(t, []string{"Basil", "Tomato"}, f.engine.Trail())
	assert.Equal(t, []string{"Basil", "Mozzarella", "Tomato"}, ids(f.engine.Visible()))
	assert.Equal(t, []string{"Basil-Mozzarella", "Basil-Tomato", "Mozzarella-Tomato"}, edgeNames(f.engine.Edges()))
	assert.Equal(t, 3, f.render.count("add "))
	assert.Equal(t, 3, f.render.count("edge "))
	// Basil was Active and stays so when revealed again.
	assert.Equal(t, domain.Active, f.engine.State("Basil"))
}

func TestSelectIsIdempotentExceptTrail(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Select("Basil"))
	visible := ids(f.engine.Visible())
	edges := edgeNames(f.engine.Edges())
	calls := len(f.render.calls)

	require.NoError(t, f.engine.Select("Basil"))
	assert.Equal(t, visible, ids(f.engine.Visible()))
	assert.Equal(t, edges, edgeNames(f.engine.Edges()))
	assert.Equal(t, []string{"Basil", "Basil"}, f.engine.Trail())
	assert.Equal(t, calls, len(f.render.calls))
}

func TestUnknownNodeLeavesNoTrace(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Select("Basil"))
	before := len(f.render.calls)

	err := f.engine.Select("Saffron")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, []string{"Basil"}, f.engine.Trail())
	assert.Len(t, f.engine.Visible(), 3)
	assert.Equal(t, before, len(f.render.calls))
}

func TestUnclickedNodeFadesAfterGracePlusFade(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	cfg := f.engine.Config()
	start := f.sched.now
	require.NoError(t, f.engine.Select("Basil"))

	f.sched.Advance(cfg.GraceDelay - time.Millisecond)
	assert.Equal(t, domain.JustRevealed, f.engine.State("Tomato"))
	f.sched.Advance(time.Millisecond)
	assert.Equal(t, domain.Fading, f.engine.State("Tomato"))

	deadline := start.Add(cfg.GraceDelay + cfg.FadeDuration - time.Millisecond)
	for f.sched.now.Before(deadline) {
		step := min(100*time.Millisecond, deadline.Sub(f.sched.now))
		f.sched.Advance(step)
		require.Equal(t, domain.Fading, f.engine.State("Tomato"))
	}

	f.sched.Advance(time.Millisecond)
	assert.Equal(t, domain.Hidden, f.engine.State("Tomato"))
	assert.Equal(t, domain.Hidden, f.engine.State("Mozzarella"))
	assert.Equal(t, domain.Active, f.engine.State("Basil"))
	assert.Empty(t, f.engine.Edges())
	assert.Equal(t, []string{"Basil"}, ids(f.engine.Visible()))
	assert.Equal(t, 0, f.sched.live())
	assert.Equal(t, 2, f.render.count("remove "))
	assert.Equal(t, 2, f.render.count("unedge "))
}

func TestFadeLowersOpacityInSteps(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(c *domain.Config) {
		c.FadeSteps = 4
		c.FadeDuration = 400 * time.Millisecond
	})
	require.NoError(t, f.engine.Select("Strawberry"))
	f.sched.Advance(f.engine.Config().GraceDelay + 400*time.Millisecond)

	var opacity []string
	for _, c := range f.render.calls {
		if strings.HasPrefix(c, "opacity ") {
			opacity = append(opacity, c)
		}
	}
	assert.Equal(t, []string{"opacity Basil 0.75", "opacity Basil 0.50", "opacity Basil 0.25"}, opacity)
	assert.Equal(t, domain.Hidden, f.engine.State("Basil"))
}

func TestClickDuringFadeCancels(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	cfg := f.engine.Config()
	require.NoError(t, f.engine.Select("Basil"))
	f.sched.Advance(cfg.GraceDelay + cfg.FadeDuration/2)
	require.Equal(t, domain.Fading, f.engine.State("Tomato"))

	require.NoError(t, f.engine.Select("Tomato"))
	assert.Equal(t, domain.Active, f.engine.State("Tomato"))
	assert.Contains(t, f.render.calls, "opacity Tomato 1.00")

	// Mozzarella was fading too; Tomato's reveal restarts its grace.
	assert.Equal(t, domain.JustRevealed, f.engine.State("Mozzarella"))

	f.sched.Advance(10 * time.Minute)
	assert.Equal(t, domain.Active, f.engine.State("Tomato"))
	assert.Equal(t, domain.Hidden, f.engine.State("Mozzarella"))
	assert.Equal(t, []string{"Basil-Tomato"}, edgeNames(f.engine.Edges()))
}

func TestRevealRestartsGraceForFadingNeighbor(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	cfg := f.engine.Config()
	require.NoError(t, f.engine.Select("Strawberry"))
	f.sched.Advance(cfg.GraceDelay + cfg.FadeDuration/2)
	require.Equal(t, domain.Fading, f.engine.State("Basil"))

	require.NoError(t, f.engine.Select("Mozzarella"))
	assert.Equal(t, domain.JustRevealed, f.engine.State("Basil"))

	f.sched.Advance(cfg.GraceDelay + cfg.FadeDuration - time.Millisecond)
	assert.Equal(t, domain.Fading, f.engine.State("Basil"))
	f.sched.Advance(time.Millisecond)
	assert.Equal(t, domain.Hidden, f.engine.State("Basil"))
}

func TestStaleTicksAreIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Select("Basil"))
	stale := domain.Tick{NodeID: "Tomato", Epoch: 0, Kind: domain.GraceExpired}
	assert.False(t, f.engine.Fire(stale))
	assert.False(t, f.engine.Fire(domain.Tick{NodeID: "Nobody", Kind: domain.GraceExpired}))
	assert.Equal(t, domain.JustRevealed, f.engine.State("Tomato"))
}

func TestResetClearsEverything(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	require.NoError(t, f.engine.Select("Basil"))
	require.NoError(t, f.engine.Select("Tomato"))

	f.engine.Reset()
	assert.Empty(t, f.engine.Visible())
	assert.Empty(t, f.engine.Edges())
	assert.Empty(t, f.engine.Trail())
	assert.Equal(t, 0, f.sched.live())
	assert.Equal(t, 3, f.render.count("remove "))
	assert.Equal(t, 3, f.render.count("unedge "))

	f.sched.Advance(time.Hour)
	assert.Empty(t, f.engine.Visible())
}

func TestTrailDisplayKeepsMostRecent(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(c *domain.Config) { c.MaxTrailDisplay = 2 })
	for _, id := range []string{"Basil", "Tomato", "Mozzarella", "Basil"} {
		require.NoError(t, f.engine.Select(id))
	}
	assert.Equal(t, []string{"Basil", "Tomato", "Mozzarella", "Basil"}, f.engine.Trail())
	assert.Equal(t, []string{"Mozzarella", "Basil"}, f.engine.TrailDisplay())
}

func TestSearchSelectsBestCandidate(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	n, ok, err := f.engine.Search(" basil ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Basil", n.ID)
	assert.Equal(t, []string{"Basil"}, f.engine.Trail())

	_, ok, err = f.engine.Search("saffron")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"Basil"}, f.engine.Trail())
}

func TestVisibleRecordsInteraction(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	start := f.sched.now
	require.NoError(t, f.engine.Select("Basil"))
	f.sched.Advance(time.Second)
	require.NoError(t, f.engine.Select("Tomato"))

	views := map[string]domain.NodeView{}
	for _, v := range f.engine.Visible() {
		views[v.ID] = v
	}
	assert.True(t, views["Tomato"].WasClicked)
	assert.Equal(t, start, views["Tomato"].FirstShownAt)
	assert.Equal(t, start.Add(time.Second), views["Tomato"].LastInteractionAt)
	assert.False(t, views["Mozzarella"].WasClicked)
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()
	cfg := domain.DefaultConfig()
	cfg.FadeSteps = 0
	g := capreseGraph()
	_, err := domain.NewEngine(cfg, g, g, &recorder{}, &manualScheduler{}, &manualScheduler{})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
