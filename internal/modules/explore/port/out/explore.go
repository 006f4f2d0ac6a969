package out

import (
	"flavorlab/internal/modules/explore/domain"
)

// RenderSink is a renderer that owns resources and must be closed.
type RenderSink interface {
	domain.Renderer
	Close() error
}
