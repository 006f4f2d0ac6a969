package out

import (
	hclog "github.com/hashicorp/go-hclog"

	exploreout "flavorlab/internal/modules/explore/port/out"
)

// LogRenderer writes each render call to a logger at debug level.
type LogRenderer struct {
	logger hclog.Logger
}

func NewLogRenderer(logger hclog.Logger) *LogRenderer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LogRenderer{logger: logger}
}

var _ exploreout.RenderSink = (*LogRenderer)(nil)

func (r *LogRenderer) AddNode(id, label string) {
	r.logger.Debug("add node", "id", id, "label", label)
}

func (r *LogRenderer) UpdateNodeOpacity(id string, value float64) {
	r.logger.Trace("node opacity", "id", id, "value", value)
}

func (r *LogRenderer) RemoveNode(id string) {
	r.logger.Debug("remove node", "id", id)
}

func (r *LogRenderer) AddEdge(a, b string, weight float64) {
	r.logger.Debug("add edge", "a", a, "b", b, "weight", weight)
}

func (r *LogRenderer) RemoveEdge(a, b string) {
	r.logger.Debug("remove edge", "a", a, "b", b)
}

func (r *LogRenderer) Close() error { return nil }
