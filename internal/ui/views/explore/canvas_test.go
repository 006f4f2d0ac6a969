package explore

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type msgSink struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (s *msgSink) send(msg tea.Msg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func TestCanvasRendererDropsUntilAttached(t *testing.T) {
	t.Parallel()
	r := NewCanvasRenderer()
	r.AddNode("b", "Basil")

	sink := &msgSink{}
	r.Attach(sink.send)
	r.AddNode("t", "Tomato")
	r.AddEdge("b", "t", 0.9)
	require.NoError(t, r.Close())
	r.RemoveNode("t")

	require.Len(t, sink.msgs, 2)
	assert.Equal(t, RenderMsg{op: opAddNode, id: "t", label: "Tomato", value: 1}, sink.msgs[0])
	assert.Equal(t, RenderMsg{op: opAddEdge, a: "b", b: "t", weight: 0.9}, sink.msgs[1])
}

func TestCanvasApply(t *testing.T) {
	t.Parallel()
	sink := &msgSink{}
	r := NewCanvasRenderer()
	r.Attach(sink.send)
	r.AddNode("b", "Basil")
	r.AddNode("t", "Tomato")
	r.AddEdge("t", "b", 0.9)
	r.UpdateNodeOpacity("t", 0.4)

	c := NewCanvas()
	for _, msg := range sink.msgs {
		c.Apply(msg.(RenderMsg))
	}
	require.Equal(t, 2, c.Len())
	assert.True(t, c.HasEdge("b", "t"))
	op, ok := c.Opacity("t")
	require.True(t, ok)
	assert.InDelta(t, 0.4, op, 1e-9)

	view := c.View(80)
	assert.Contains(t, view, "Basil")
	assert.Contains(t, view, "Tomato (0.90)")

	c.Apply(RenderMsg{op: opRemoveEdge, a: "b", b: "t"})
	c.Apply(RenderMsg{op: opRemoveNode, id: "t"})
	assert.Equal(t, 1, c.Len())
	assert.False(t, c.HasEdge("b", "t"))
	_, ok = c.Opacity("t")
	assert.False(t, ok)
}

func TestCanvasEmptyView(t *testing.T) {
	t.Parallel()
	c := NewCanvas()
	assert.Contains(t, c.View(80), "Nothing revealed yet")
}

func TestShadeBounds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, shade(-1), shade(0))
	assert.Equal(t, shade(2), shade(1))
	assert.NotEqual(t, shade(0), shade(1))
}
