package domain

import (
	"fmt"
	"sort"
	"time"

	pairing "flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/platform/clock"
)

// visibleNode is the engine's record for a node on the render surface.
type visibleNode struct {
	id                string
	label             string
	state             State
	opacity           float64
	epoch             uint64
	timer             clock.Timer
	firstShownAt      time.Time
	wasClicked        bool
	lastInteractionAt time.Time
}

type edgeKey struct {
	a, b string
}

func keyFor(a, b string) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// NodeView is a read-only copy of a visible node.
type NodeView struct {
	ID                string
	Label             string
	State             State
	Opacity           float64
	FirstShownAt      time.Time
	WasClicked        bool
	LastInteractionAt time.Time
}

type EdgeView struct {
	A      string
	B      string
	Weight float64
}

// Engine is the exploration state machine. It is not safe for concurrent
// use: callers serialize Select, Fire and Reset on one goroutine.
type Engine struct {
	cfg      Config
	graph    Graph
	resolver Resolver
	render   Renderer
	sched    Scheduler
	clock    clock.Clock

	nodes map[string]*visibleNode
	edges map[edgeKey]float64
	trail []string
	epoch uint64
}

func NewEngine(cfg Config, graph Graph, resolver Resolver, render Renderer, sched Scheduler, clk clock.Clock) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if graph == nil || resolver == nil || render == nil || sched == nil || clk == nil {
		return nil, fmt.Errorf("explore engine: missing collaborator")
	}
	return &Engine{
		cfg:      cfg,
		graph:    graph,
		resolver: resolver,
		render:   render,
		sched:    sched,
		clock:    clk,
		nodes:    map[string]*visibleNode{},
		edges:    map[edgeKey]float64{},
	}, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Candidates resolves query without touching engine state.
func (e *Engine) Candidates(query string) []pairing.Node {
	return e.resolver.Resolve(query)
}

// Search selects the best candidate for query. ok is false when nothing
// matched, which is not an error.
func (e *Engine) Search(query string) (pairing.Node, bool, error) {
	found := e.resolver.Resolve(query)
	if len(found) == 0 {
		return pairing.Node{}, false, nil
	}
	if err := e.Select(found[0].ID); err != nil {
		return pairing.Node{}, false, err
	}
	return found[0], true, nil
}

// Select activates id, appends it to the trail and reveals its top K
// neighbors. Every lookup happens before the first mutation, so an unknown
// id leaves the engine untouched.
func (e *Engine) Select(id string) error {
	node, err := e.graph.Node(id)
	if err != nil {
		return err
	}
	neighbors, err := e.graph.Neighbors(id)
	if err != nil {
		return err
	}
	if len(neighbors) > e.cfg.K {
		neighbors = neighbors[:e.cfg.K]
	}
	revealed := make([]pairing.Node, 0, len(neighbors))
	for _, nb := range neighbors {
		n, err := e.graph.Node(nb.ID)
		if err != nil {
			return err
		}
		revealed = append(revealed, n)
	}

	now := e.clock.Now()
	e.activate(node, now)
	e.trail = append(e.trail, node.ID)
	for i, n := range revealed {
		e.reveal(n, now)
		e.addEdge(node.ID, n.ID, neighbors[i].Score)
	}
	return nil
}

func (e *Engine) activate(node pairing.Node, now time.Time) {
	rec, ok := e.nodes[node.ID]
	if !ok {
		rec = &visibleNode{id: node.ID, label: node.Name, opacity: 1, firstShownAt: now}
		e.nodes[node.ID] = rec
		e.render.AddNode(node.ID, node.Name)
	}
	e.cancel(rec)
	e.restoreOpacity(rec)
	rec.state = Active
	rec.wasClicked = true
	rec.lastInteractionAt = now
}

func (e *Engine) reveal(node pairing.Node, now time.Time) {
	rec, ok := e.nodes[node.ID]
	switch {
	case !ok:
		rec = &visibleNode{id: node.ID, label: node.Name, opacity: 1, firstShownAt: now}
		e.nodes[node.ID] = rec
		e.render.AddNode(node.ID, node.Name)
	case rec.state == Active:
		return
	default:
		e.cancel(rec)
		e.restoreOpacity(rec)
	}
	rec.state = JustRevealed
	e.arm(rec, e.cfg.GraceDelay, GraceExpired, 0)
}

func (e *Engine) addEdge(a, b string, weight float64) {
	k := keyFor(a, b)
	if _, ok := e.edges[k]; ok {
		return
	}
	e.edges[k] = weight
	e.render.AddEdge(k.a, k.b, weight)
}

// arm starts a new timer generation for rec.
func (e *Engine) arm(rec *visibleNode, d time.Duration, kind TickKind, step int) {
	if kind == GraceExpired {
		e.epoch++
		rec.epoch = e.epoch
	}
	rec.timer = e.sched.Schedule(d, Tick{NodeID: rec.id, Epoch: rec.epoch, Kind: kind, Step: step})
}

func (e *Engine) cancel(rec *visibleNode) {
	if rec.timer != nil {
		rec.timer.Stop()
		rec.timer = nil
	}
	e.epoch++
	rec.epoch = e.epoch
}

func (e *Engine) restoreOpacity(rec *visibleNode) {
	if rec.opacity != 1 {
		rec.opacity = 1
		e.render.UpdateNodeOpacity(rec.id, 1)
	}
}

// Fire applies a timer expiry. It reports false for stale ticks: the node
// is gone, was re-armed since, or is Active.
func (e *Engine) Fire(t Tick) bool {
	rec, ok := e.nodes[t.NodeID]
	if !ok || rec.epoch != t.Epoch || rec.state == Active {
		return false
	}
	rec.timer = nil
	switch t.Kind {
	case GraceExpired:
		if rec.state != JustRevealed {
			return false
		}
		rec.state = Fading
		e.arm(rec, e.cfg.fadeOffset(1), FadeStep, 1)
	case FadeStep:
		if rec.state != Fading {
			return false
		}
		if t.Step >= e.cfg.FadeSteps {
			e.remove(rec)
			return true
		}
		rec.opacity = 1 - float64(t.Step)/float64(e.cfg.FadeSteps)
		e.render.UpdateNodeOpacity(rec.id, rec.opacity)
		e.arm(rec, e.cfg.fadeOffset(t.Step+1)-e.cfg.fadeOffset(t.Step), FadeStep, t.Step+1)
	default:
		return false
	}
	return true
}

func (e *Engine) remove(rec *visibleNode) {
	for _, k := range e.sortedEdges() {
		if k.a == rec.id || k.b == rec.id {
			delete(e.edges, k)
			e.render.RemoveEdge(k.a, k.b)
		}
	}
	e.render.RemoveNode(rec.id)
	delete(e.nodes, rec.id)
}

// Reset cancels every timer and clears the render surface and the trail.
func (e *Engine) Reset() {
	for _, k := range e.sortedEdges() {
		e.render.RemoveEdge(k.a, k.b)
	}
	for _, id := range e.sortedNodeIDs() {
		rec := e.nodes[id]
		if rec.timer != nil {
			rec.timer.Stop()
		}
		e.render.RemoveNode(id)
	}
	e.nodes = map[string]*visibleNode{}
	e.edges = map[edgeKey]float64{}
	e.trail = nil
}

func (e *Engine) State(id string) State {
	if rec, ok := e.nodes[id]; ok {
		return rec.state
	}
	return Hidden
}

// Visible lists the visible nodes sorted by id.
func (e *Engine) Visible() []NodeView {
	out := make([]NodeView, 0, len(e.nodes))
	for _, id := range e.sortedNodeIDs() {
		rec := e.nodes[id]
		out = append(out, NodeView{
			ID:                rec.id,
			Label:             rec.label,
			State:             rec.state,
			Opacity:           rec.opacity,
			FirstShownAt:      rec.firstShownAt,
			WasClicked:        rec.wasClicked,
			LastInteractionAt: rec.lastInteractionAt,
		})
	}
	return out
}

// Edges lists visible edges with A < B, sorted.
func (e *Engine) Edges() []EdgeView {
	keys := e.sortedEdges()
	out := make([]EdgeView, 0, len(keys))
	for _, k := range keys {
		out = append(out, EdgeView{A: k.a, B: k.b, Weight: e.edges[k]})
	}
	return out
}

func (e *Engine) Trail() []string {
	return append([]string(nil), e.trail...)
}

// TrailDisplay returns the most recent MaxTrailDisplay trail entries.
func (e *Engine) TrailDisplay() []string {
	start := len(e.trail) - e.cfg.MaxTrailDisplay
	if start < 0 {
		start = 0
	}
	return append([]string(nil), e.trail[start:]...)
}

func (e *Engine) sortedNodeIDs() []string {
	ids := make([]string, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) sortedEdges() []edgeKey {
	keys := make([]edgeKey, 0, len(e.edges))
	for k := range e.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	return keys
}
