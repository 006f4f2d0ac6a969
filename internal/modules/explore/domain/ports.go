package domain

import (
	"time"

	pairing "flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/platform/clock"
)

// Graph is the read-only pairing graph the engine walks.
type Graph interface {
	Node(id string) (pairing.Node, error)
	Neighbors(id string) ([]pairing.Neighbor, error)
}

type Resolver interface {
	Resolve(query string) []pairing.Node
}

// Renderer receives drawing commands. Calls are fire-and-forget; the engine
// never waits for or inspects their effect.
type Renderer interface {
	AddNode(id, label string)
	UpdateNodeOpacity(id string, value float64)
	RemoveNode(id string)
	AddEdge(a, b string, weight float64)
	RemoveEdge(a, b string)
}

// Scheduler arranges for tick to be delivered back to Engine.Fire after d.
type Scheduler interface {
	Schedule(d time.Duration, tick Tick) clock.Timer
}

// Physics is the static layout configuration handed to renderers once.
type Physics struct {
	Solver                  string  `json:"solver"`
	GravitationalConstant   float64 `json:"gravitational_constant"`
	SpringLength            float64 `json:"spring_length"`
	SpringConstant          float64 `json:"spring_constant"`
	Damping                 float64 `json:"damping"`
	StabilizationIterations int     `json:"stabilization_iterations"`
}
