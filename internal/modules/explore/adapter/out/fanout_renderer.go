package out

import (
	"errors"

	"flavorlab/internal/modules/explore/domain"
	exploreout "flavorlab/internal/modules/explore/port/out"
)

// Fanout forwards every call to each renderer in order.
type Fanout []domain.Renderer

var _ exploreout.RenderSink = Fanout(nil)

func (f Fanout) AddNode(id, label string) {
	for _, r := range f {
		r.AddNode(id, label)
	}
}

func (f Fanout) UpdateNodeOpacity(id string, value float64) {
	for _, r := range f {
		r.UpdateNodeOpacity(id, value)
	}
}

func (f Fanout) RemoveNode(id string) {
	for _, r := range f {
		r.RemoveNode(id)
	}
}

func (f Fanout) AddEdge(a, b string, weight float64) {
	for _, r := range f {
		r.AddEdge(a, b, weight)
	}
}

func (f Fanout) RemoveEdge(a, b string) {
	for _, r := range f {
		r.RemoveEdge(a, b)
	}
}

// Close closes every member that owns resources.
func (f Fanout) Close() error {
	var errs []error
	for _, r := range f {
		if c, ok := r.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
