package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "flavorlab/internal/platform/errors"
)

const maxReportExamples = 5

// Report summarizes a best-effort reduction. Skipped edges and nodes never
// abort the run; the first few causes are kept as examples.
type Report struct {
	Nodes        int
	SkippedNodes int
	Edges        int
	Accepted     int
	Duplicates   int
	Malformed    int
	InvalidScore int
	Examples     []error
}

func (r Report) SkippedEdges() int {
	return r.Malformed + r.InvalidScore
}

func (r *Report) record(err error) {
	if len(r.Examples) < maxReportExamples {
		r.Examples = append(r.Examples, err)
	}
}

type pairKey struct {
	lo, hi string
}

func keyOf(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Candidates validates the node table and edges and returns, per node, every
// distinct partner with the best score seen for that pair, sorted by score
// descending then id ascending. Each accepted edge contributes to both of its
// endpoints. The accepted nodes are returned sorted by id.
func Candidates(nodes []Node, edges []Edge) (map[string][]Neighbor, []Node, Report) {
	report := Report{Edges: len(edges)}
	accepted := acceptNodes(nodes, &report)

	known := make(map[string]struct{}, len(accepted))
	for _, n := range accepted {
		known[n.ID] = struct{}{}
	}

	best := make(map[pairKey]float64, len(edges))
	for _, e := range edges {
		if e.A == e.B {
			report.Malformed++
			report.record(&MalformedEdgeError{Edge: e, Reason: "self pairing"})
			continue
		}
		if _, ok := known[e.A]; !ok {
			report.Malformed++
			report.record(&MalformedEdgeError{Edge: e, Reason: "unknown node " + e.A})
			continue
		}
		if _, ok := known[e.B]; !ok {
			report.Malformed++
			report.record(&MalformedEdgeError{Edge: e, Reason: "unknown node " + e.B})
			continue
		}
		if math.IsNaN(e.Score) || math.IsInf(e.Score, 0) {
			report.InvalidScore++
			report.record(&InvalidScoreError{Edge: e})
			continue
		}
		k := keyOf(e.A, e.B)
		if prev, dup := best[k]; dup {
			report.Duplicates++
			if e.Score <= prev {
				continue
			}
		}
		best[k] = e.Score
	}
	report.Accepted = len(best)

	candidates := make(map[string][]Neighbor, len(accepted))
	for _, n := range accepted {
		candidates[n.ID] = []Neighbor{}
	}
	for k, score := range best {
		candidates[k.lo] = append(candidates[k.lo], Neighbor{ID: k.hi, Score: score})
		candidates[k.hi] = append(candidates[k.hi], Neighbor{ID: k.lo, Score: score})
	}
	for id, list := range candidates {
		sort.Slice(list, func(i, j int) bool { return less(list[i], list[j]) })
		candidates[id] = list
	}
	return candidates, accepted, report
}

// Reduce keeps the k strongest partners of every node.
func Reduce(nodes []Node, edges []Edge, k int) (Artifact, Report, error) {
	if k < 1 {
		return Artifact{}, Report{}, fmt.Errorf("%w: k must be at least 1, got %d", apperrors.ErrInvalidInput, k)
	}
	candidates, accepted, report := Candidates(nodes, edges)
	for id, list := range candidates {
		if len(list) > k {
			trimmed := make([]Neighbor, k)
			copy(trimmed, list[:k])
			candidates[id] = trimmed
		}
	}
	return Artifact{K: k, Nodes: accepted, Neighbors: candidates}, report, nil
}

func acceptNodes(nodes []Node, report *Report) []Node {
	byID := make(map[string]struct{}, len(nodes))
	byName := make(map[string]struct{}, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		n.ID = strings.TrimSpace(n.ID)
		n.Name = strings.TrimSpace(n.Name)
		n.Category = strings.TrimSpace(n.Category)
		var err error
		switch {
		case n.ID == "":
			err = &MalformedNodeError{Node: n, Reason: "empty id"}
		case n.Name == "":
			err = &MalformedNodeError{Node: n, Reason: "empty name"}
		}
		if err == nil {
			if _, dup := byID[n.ID]; dup {
				err = &DuplicateNodeError{Node: n, Field: "id"}
			} else if _, dup := byName[NormalizeName(n.Name)]; dup {
				err = &DuplicateNodeError{Node: n, Field: "name"}
			}
		}
		if err != nil {
			report.SkippedNodes++
			report.record(err)
			continue
		}
		byID[n.ID] = struct{}{}
		byName[NormalizeName(n.Name)] = struct{}{}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	report.Nodes = len(out)
	return out
}
