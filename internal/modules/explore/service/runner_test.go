package service_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavorlab/internal/modules/explore/domain"
	"flavorlab/internal/modules/explore/service"
	graphdomain "flavorlab/internal/modules/graph/domain"
	pairing "flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/platform/clock"
	apperrors "flavorlab/internal/platform/errors"
)

type fakeTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	mu      *sync.Mutex
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeTimers hands out timers that fire only when the test advances time.
type fakeTimers struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTimer
}

func (f *fakeTimers) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) clock.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{at: f.now.Add(d), seq: f.seq, fn: fn, mu: &f.mu}
	f.pending = append(f.pending, t)
	return t
}

// advance fires due timers in order, syncing with the runner after each so
// timers it schedules in response are seen.
func (f *fakeTimers) advance(t *testing.T, r *service.Runner, d time.Duration) {
	t.Helper()
	f.mu.Lock()
	deadline := f.now.Add(d)
	f.mu.Unlock()
	for {
		f.mu.Lock()
		sort.Slice(f.pending, func(i, j int) bool {
			if !f.pending[i].at.Equal(f.pending[j].at) {
				return f.pending[i].at.Before(f.pending[j].at)
			}
			return f.pending[i].seq < f.pending[j].seq
		})
		if len(f.pending) == 0 || f.pending[0].at.After(deadline) {
			f.now = deadline
			f.mu.Unlock()
			return
		}
		next := f.pending[0]
		f.pending = f.pending[1:]
		f.now = next.at
		stopped := next.stopped
		f.mu.Unlock()
		if !stopped {
			next.fn()
			_, err := r.Snapshot(context.Background())
			require.NoError(t, err)
		}
	}
}

type nopRenderer struct{}

func (nopRenderer) AddNode(string, string)            {}
func (nopRenderer) UpdateNodeOpacity(string, float64) {}
func (nopRenderer) RemoveNode(string)                 {}
func (nopRenderer) AddEdge(string, string, float64)   {}
func (nopRenderer) RemoveEdge(string, string)         {}

func newRunner(t *testing.T) (*service.Runner, *fakeTimers) {
	t.Helper()
	idx, err := graphdomain.NewIndex(pairing.Artifact{
		K: 2,
		Nodes: []pairing.Node{
			{ID: "basil", Name: "Basil"},
			{ID: "mozzarella", Name: "Mozzarella"},
			{ID: "strawberry", Name: "Strawberry"},
			{ID: "tomato", Name: "Tomato"},
		},
		Neighbors: map[string][]pairing.Neighbor{
			"basil":      {{ID: "tomato", Score: 0.9}, {ID: "mozzarella", Score: 0.8}},
			"tomato":     {{ID: "basil", Score: 0.9}, {ID: "mozzarella", Score: 0.7}},
			"mozzarella": {{ID: "basil", Score: 0.8}, {ID: "tomato", Score: 0.7}},
			"strawberry": {{ID: "basil", Score: 0.3}},
		},
	})
	require.NoError(t, err)
	timers := &fakeTimers{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg := domain.DefaultConfig()
	cfg.K = 2
	r, err := service.NewRunner(cfg, idx, graphdomain.NewResolver(idx, 10), nopRenderer{}, timers, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, timers
}

func visibleIDs(snap service.Snapshot) []string {
	out := make([]string, 0, len(snap.Visible))
	for _, v := range snap.Visible {
		out = append(out, v.ID)
	}
	return out
}

func TestRunnerSelectAndSnapshot(t *testing.T) {
	t.Parallel()
	r, _ := newRunner(t)
	ctx := context.Background()

	node, ok, err := r.Search(ctx, "bas")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "basil", node.ID)
	require.NoError(t, r.Select(ctx, "tomato"))

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"basil", "tomato"}, snap.Trail)
	assert.Equal(t, []string{"basil", "mozzarella", "tomato"}, visibleIDs(snap))
	assert.Len(t, snap.Edges, 3)

	cands, err := r.Candidates(ctx, "o")
	require.NoError(t, err)
	assert.Len(t, cands, 2)
}

func TestRunnerTimersDriveFade(t *testing.T) {
	t.Parallel()
	r, timers := newRunner(t)
	ctx := context.Background()
	require.NoError(t, r.Select(ctx, "basil"))

	timers.advance(t, r, 5*time.Second-time.Millisecond)
	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Visible, 3)

	timers.advance(t, r, time.Millisecond)
	snap, err = r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"basil"}, visibleIDs(snap))
	assert.Empty(t, snap.Edges)
}

func TestRunnerUnknownNode(t *testing.T) {
	t.Parallel()
	r, _ := newRunner(t)
	err := r.Select(context.Background(), "saffron")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRunnerResetAndClose(t *testing.T) {
	t.Parallel()
	r, timers := newRunner(t)
	ctx := context.Background()
	require.NoError(t, r.Select(ctx, "basil"))
	require.NoError(t, r.Reset(ctx))
	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Visible)
	assert.Empty(t, snap.Trail)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Select(ctx, "basil"), apperrors.ErrClosed)

	timers.mu.Lock()
	defer timers.mu.Unlock()
	for _, p := range timers.pending {
		assert.True(t, p.stopped)
	}
}

func TestRunnerHonoursContext(t *testing.T) {
	t.Parallel()
	r, _ := newRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.Select(ctx, "basil")
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRunnerSnapshotAbandonedByCaller(t *testing.T) {
	t.Parallel()
	r, _ := newRunner(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Select(context.Background(), "basil")
		}()
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 500*time.Microsecond)
			defer cancel()
			snap, err := r.Snapshot(ctx)
			if err != nil {
				assert.ErrorIs(t, err, context.DeadlineExceeded)
				assert.Zero(t, snap)
			}
		}()
	}
	wg.Wait()

	snap, err := r.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Trail, 20)
}
