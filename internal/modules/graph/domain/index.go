package domain

import (
	"fmt"
	"sort"

	pairing "flavorlab/internal/modules/pairing/domain"
	apperrors "flavorlab/internal/platform/errors"
)

type (
	Node     = pairing.Node
	Neighbor = pairing.Neighbor
)

// Index is the immutable in-memory view of a reduced artifact. It has no
// mutating methods and hands out copies, so any number of goroutines may
// read it concurrently.
type Index struct {
	k         int
	nodes     []Node
	byID      map[string]int
	byName    map[string]int
	neighbors map[string][]Neighbor
}

// NewIndex validates the artifact and builds the lookup tables. Every
// neighbor reference must resolve to a node of the artifact.
func NewIndex(artifact pairing.Artifact) (*Index, error) {
	idx := &Index{
		k:         artifact.K,
		nodes:     make([]Node, len(artifact.Nodes)),
		byID:      make(map[string]int, len(artifact.Nodes)),
		byName:    make(map[string]int, len(artifact.Nodes)),
		neighbors: make(map[string][]Neighbor, len(artifact.Nodes)),
	}
	copy(idx.nodes, artifact.Nodes)
	sort.Slice(idx.nodes, func(i, j int) bool { return idx.nodes[i].ID < idx.nodes[j].ID })
	for i, n := range idx.nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("%w: node %d has an empty id", apperrors.ErrInvalidInput, i)
		}
		if i > 0 && idx.nodes[i-1].ID == n.ID {
			return nil, fmt.Errorf("%w: duplicate ingredient id %q", apperrors.ErrInvalidInput, n.ID)
		}
		name := pairing.NormalizeName(n.Name)
		if _, dup := idx.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate ingredient name %q", apperrors.ErrInvalidInput, n.Name)
		}
		idx.byID[n.ID] = i
		idx.byName[name] = i
	}
	for id, list := range artifact.Neighbors {
		if _, ok := idx.byID[id]; !ok {
			return nil, fmt.Errorf("%w: neighbor list for unknown ingredient %q", apperrors.ErrInvalidInput, id)
		}
		for _, nb := range list {
			if _, ok := idx.byID[nb.ID]; !ok {
				return nil, fmt.Errorf("%w: %q references unknown ingredient %q", apperrors.ErrInvalidInput, id, nb.ID)
			}
		}
		idx.neighbors[id] = append([]Neighbor(nil), list...)
	}
	for _, n := range idx.nodes {
		if idx.neighbors[n.ID] == nil {
			idx.neighbors[n.ID] = []Neighbor{}
		}
	}
	return idx, nil
}

func (x *Index) K() int   { return x.k }
func (x *Index) Len() int { return len(x.nodes) }

func (x *Index) Node(id string) (Node, error) {
	i, ok := x.byID[id]
	if !ok {
		return Node{}, &UnknownNodeError{Key: id}
	}
	return x.nodes[i], nil
}

func (x *Index) NodeByName(name string) (Node, error) {
	i, ok := x.byName[pairing.NormalizeName(name)]
	if !ok {
		return Node{}, &UnknownNodeError{Key: name, ByName: true}
	}
	return x.nodes[i], nil
}

// Neighbors returns a copy of the reduced neighbor list of id.
func (x *Index) Neighbors(id string) ([]Neighbor, error) {
	list, ok := x.neighbors[id]
	if !ok {
		return nil, &UnknownNodeError{Key: id}
	}
	out := make([]Neighbor, len(list))
	copy(out, list)
	return out, nil
}

// Nodes returns every node sorted by id.
func (x *Index) Nodes() []Node {
	out := make([]Node, len(x.nodes))
	copy(out, x.nodes)
	return out
}

// Artifact rebuilds the artifact the index was built from.
func (x *Index) Artifact() pairing.Artifact {
	neighbors := make(map[string][]Neighbor, len(x.neighbors))
	for id := range x.neighbors {
		neighbors[id], _ = x.Neighbors(id)
	}
	return pairing.Artifact{K: x.k, Nodes: x.Nodes(), Neighbors: neighbors}
}
