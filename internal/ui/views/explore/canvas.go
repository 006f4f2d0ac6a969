package explore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"flavorlab/internal/ui/theme"
)

// ─── render messages ─────────────────────────────────────────────────────────

type renderOp int

const (
	opAddNode renderOp = iota
	opOpacity
	opRemoveNode
	opAddEdge
	opRemoveEdge
)

// RenderMsg carries one drawing command from the engine to the canvas.
type RenderMsg struct {
	op     renderOp
	id     string
	label  string
	a, b   string
	value  float64
	weight float64
}

// ─── renderer ────────────────────────────────────────────────────────────────

// CanvasRenderer turns render calls into RenderMsg values posted to a running
// Bubble Tea program. Calls made before Attach are dropped.
type CanvasRenderer struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

func NewCanvasRenderer() *CanvasRenderer {
	return &CanvasRenderer{}
}

// Attach wires the renderer to a program, usually program.Send.
func (r *CanvasRenderer) Attach(send func(tea.Msg)) {
	r.mu.Lock()
	r.send = send
	r.mu.Unlock()
}

func (r *CanvasRenderer) post(msg RenderMsg) {
	r.mu.RLock()
	send := r.send
	r.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (r *CanvasRenderer) AddNode(id, label string) {
	r.post(RenderMsg{op: opAddNode, id: id, label: label, value: 1})
}

func (r *CanvasRenderer) UpdateNodeOpacity(id string, value float64) {
	r.post(RenderMsg{op: opOpacity, id: id, value: value})
}

func (r *CanvasRenderer) RemoveNode(id string) {
	r.post(RenderMsg{op: opRemoveNode, id: id})
}

func (r *CanvasRenderer) AddEdge(a, b string, weight float64) {
	r.post(RenderMsg{op: opAddEdge, a: a, b: b, weight: weight})
}

func (r *CanvasRenderer) RemoveEdge(a, b string) {
	r.post(RenderMsg{op: opRemoveEdge, a: a, b: b})
}

// Close detaches the program so late calls after shutdown are dropped.
func (r *CanvasRenderer) Close() error {
	r.Attach(nil)
	return nil
}

// ─── canvas ──────────────────────────────────────────────────────────────────

type canvasNode struct {
	label   string
	opacity float64
	order   int
}

type edgeKey struct{ a, b string }

func newEdgeKey(a, b string) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// Canvas is the UI-side copy of what the engine has drawn. It is only touched
// from the Bubble Tea update loop.
type Canvas struct {
	nodes map[string]*canvasNode
	edges map[edgeKey]float64
	seq   int
}

func NewCanvas() Canvas {
	return Canvas{
		nodes: make(map[string]*canvasNode),
		edges: make(map[edgeKey]float64),
	}
}

func (c *Canvas) Apply(msg RenderMsg) {
	switch msg.op {
	case opAddNode:
		if n, ok := c.nodes[msg.id]; ok {
			n.label = msg.label
			n.opacity = msg.value
			return
		}
		c.seq++
		c.nodes[msg.id] = &canvasNode{label: msg.label, opacity: msg.value, order: c.seq}
	case opOpacity:
		if n, ok := c.nodes[msg.id]; ok {
			n.opacity = msg.value
		}
	case opRemoveNode:
		delete(c.nodes, msg.id)
	case opAddEdge:
		c.edges[newEdgeKey(msg.a, msg.b)] = msg.weight
	case opRemoveEdge:
		delete(c.edges, newEdgeKey(msg.a, msg.b))
	}
}

func (c Canvas) Len() int { return len(c.nodes) }

// Opacity reports the drawn opacity of id.
func (c Canvas) Opacity(id string) (float64, bool) {
	n, ok := c.nodes[id]
	if !ok {
		return 0, false
	}
	return n.opacity, true
}

func (c Canvas) HasEdge(a, b string) bool {
	_, ok := c.edges[newEdgeKey(a, b)]
	return ok
}

// View lists nodes in the order they appeared, each followed by its drawn
// edges. Fading nodes are blended toward the background.
func (c Canvas) View(width int) string {
	if len(c.nodes) == 0 {
		return theme.Muted.Render("Nothing revealed yet. Search for an ingredient to start.")
	}
	ids := make([]string, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return c.nodes[ids[i]].order < c.nodes[ids[j]].order })

	adj := make(map[string][]string, len(ids))
	for k := range c.edges {
		adj[k.a] = append(adj[k.a], k.b)
		adj[k.b] = append(adj[k.b], k.a)
	}

	var sb strings.Builder
	for _, id := range ids {
		n := c.nodes[id]
		style := lipgloss.NewStyle().Foreground(shade(n.opacity))
		if n.opacity >= 1 {
			style = style.Bold(true)
		}
		sb.WriteString(style.Render("● " + n.label))
		links := adj[id]
		sort.Slice(links, func(i, j int) bool {
			return c.edges[newEdgeKey(id, links[i])] > c.edges[newEdgeKey(id, links[j])]
		})
		for _, other := range links {
			on, ok := c.nodes[other]
			if !ok || on.order < n.order {
				continue
			}
			w := c.edges[newEdgeKey(id, other)]
			sb.WriteString(theme.Edge.Render(fmt.Sprintf("\n    └─ %s (%.2f)", on.label, w)))
		}
		sb.WriteString("\n")
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.TrimRight(sb.String(), "\n"))
}

var (
	fullColor, _ = colorful.Hex(string(theme.NodeFull))
	goneColor, _ = colorful.Hex(string(theme.Mantle))
)

func shade(opacity float64) lipgloss.Color {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return lipgloss.Color(goneColor.BlendLab(fullColor, opacity).Clamped().Hex())
}
