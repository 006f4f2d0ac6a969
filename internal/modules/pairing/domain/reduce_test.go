package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavorlab/internal/modules/pairing/domain"
	apperrors "flavorlab/internal/platform/errors"
)

func capreseNodes() []domain.Node {
	return []domain.Node{
		{ID: "basil", Name: "Basil", Category: "herb"},
		{ID: "tomato", Name: "Tomato", Category: "vegetable"},
		{ID: "mozzarella", Name: "Mozzarella", Category: "dairy"},
		{ID: "strawberry", Name: "Strawberry", Category: "fruit"},
	}
}

func capreseEdges() []domain.Edge {
	return []domain.Edge{
		{A: "basil", B: "tomato", Score: 0.9},
		{A: "basil", B: "mozzarella", Score: 0.8},
		{A: "basil", B: "strawberry", Score: 0.3},
		{A: "tomato", B: "mozzarella", Score: 0.7},
	}
}

func TestReduceKeepsTopK(t *testing.T) {
	t.Parallel()
	artifact, report, err := domain.Reduce(capreseNodes(), capreseEdges(), 2)
	require.NoError(t, err)

	assert.Equal(t, 2, artifact.K)
	assert.Equal(t, []domain.Neighbor{{ID: "tomato", Score: 0.9}, {ID: "mozzarella", Score: 0.8}}, artifact.Neighbors["basil"])
	assert.Equal(t, []domain.Neighbor{{ID: "basil", Score: 0.9}, {ID: "mozzarella", Score: 0.7}}, artifact.Neighbors["tomato"])
	assert.Equal(t, []domain.Neighbor{{ID: "basil", Score: 0.8}, {ID: "tomato", Score: 0.7}}, artifact.Neighbors["mozzarella"])
	assert.Equal(t, []domain.Neighbor{{ID: "basil", Score: 0.3}}, artifact.Neighbors["strawberry"])

	ids := make([]string, 0, len(artifact.Nodes))
	for _, n := range artifact.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"basil", "mozzarella", "strawberry", "tomato"}, ids)
	assert.Equal(t, 4, report.Accepted)
	assert.Zero(t, report.SkippedEdges())
}

func TestReduceIsolatedNodeGetsEmptyList(t *testing.T) {
	t.Parallel()
	nodes := append(capreseNodes(), domain.Node{ID: "saffron", Name: "Saffron"})
	artifact, _, err := domain.Reduce(nodes, capreseEdges(), 3)
	require.NoError(t, err)
	list, ok := artifact.Neighbors["saffron"]
	require.True(t, ok)
	assert.Empty(t, list)
}

func TestReduceTiesBreakByID(t *testing.T) {
	t.Parallel()
	nodes := []domain.Node{
		{ID: "a", Name: "Anise"},
		{ID: "c", Name: "Clove"},
		{ID: "b", Name: "Bay"},
		{ID: "d", Name: "Dill"},
	}
	edges := []domain.Edge{
		{A: "a", B: "d", Score: 0.5},
		{A: "c", B: "a", Score: 0.5},
		{A: "a", B: "b", Score: 0.5},
	}
	artifact, _, err := domain.Reduce(nodes, edges, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.Neighbor{{ID: "b", Score: 0.5}, {ID: "c", Score: 0.5}}, artifact.Neighbors["a"])
}

func TestReduceDeduplicatesKeepingMaxScore(t *testing.T) {
	t.Parallel()
	edges := append(capreseEdges(),
		domain.Edge{A: "tomato", B: "basil", Score: 0.95},
		domain.Edge{A: "basil", B: "mozzarella", Score: 0.1},
	)
	artifact, report, err := domain.Reduce(capreseNodes(), edges, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Duplicates)
	assert.Equal(t, 4, report.Accepted)
	assert.Equal(t, []domain.Neighbor{
		{ID: "tomato", Score: 0.95},
		{ID: "mozzarella", Score: 0.8},
		{ID: "strawberry", Score: 0.3},
	}, artifact.Neighbors["basil"])
}

func TestReduceSkipsBadEdgesAndCounts(t *testing.T) {
	t.Parallel()
	edges := append(capreseEdges(),
		domain.Edge{A: "basil", B: "ghost", Score: 0.99},
		domain.Edge{A: "tomato", B: "tomato", Score: 0.5},
		domain.Edge{A: "basil", B: "strawberry", Score: math.NaN()},
		domain.Edge{A: "mozzarella", B: "strawberry", Score: math.Inf(1)},
	)
	artifact, report, err := domain.Reduce(capreseNodes(), edges, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Malformed)
	assert.Equal(t, 2, report.InvalidScore)
	assert.Equal(t, 4, report.SkippedEdges())
	assert.Equal(t, 4, report.Accepted)
	require.Len(t, report.Examples, 4)

	var malformed *domain.MalformedEdgeError
	require.True(t, errors.As(report.Examples[0], &malformed))
	assert.Equal(t, "ghost", malformed.Edge.B)
	var invalid *domain.InvalidScoreError
	require.True(t, errors.As(report.Examples[2], &invalid))
	for _, ex := range report.Examples {
		assert.ErrorIs(t, ex, apperrors.ErrInvalidInput)
	}
	for _, n := range artifact.Neighbors["basil"] {
		assert.NotEqual(t, "ghost", n.ID)
	}
}

func TestReduceReportKeepsFirstExamplesOnly(t *testing.T) {
	t.Parallel()
	edges := make([]domain.Edge, 0, 20)
	for i := 0; i < 20; i++ {
		edges = append(edges, domain.Edge{A: "basil", B: fmt.Sprintf("ghost-%d", i), Score: 1})
	}
	_, report, err := domain.Reduce(capreseNodes(), edges, 3)
	require.NoError(t, err)
	assert.Equal(t, 20, report.Malformed)
	assert.Len(t, report.Examples, 5)
}

func TestReduceSkipsInvalidNodes(t *testing.T) {
	t.Parallel()
	nodes := append(capreseNodes(),
		domain.Node{ID: "basil", Name: "Thai Basil"},
		domain.Node{ID: "tomato-2", Name: " tomato "},
		domain.Node{ID: "", Name: "Nameless"},
		domain.Node{ID: "x", Name: ""},
	)
	artifact, report, err := domain.Reduce(nodes, capreseEdges(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, report.SkippedNodes)
	assert.Equal(t, 4, report.Nodes)
	assert.Len(t, artifact.Nodes, 4)

	var dup *domain.DuplicateNodeError
	require.True(t, errors.As(report.Examples[0], &dup))
	assert.Equal(t, "id", dup.Field)
	require.True(t, errors.As(report.Examples[1], &dup))
	assert.Equal(t, "name", dup.Field)
	var malformed *domain.MalformedNodeError
	require.True(t, errors.As(report.Examples[2], &malformed))
}

func TestReduceRejectsNonPositiveK(t *testing.T) {
	t.Parallel()
	_, _, err := domain.Reduce(capreseNodes(), capreseEdges(), 0)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func randomGraph(seed uint64, nodeCount, edgeCount int) ([]domain.Node, []domain.Edge) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	nodes := make([]domain.Node, nodeCount)
	for i := range nodes {
		nodes[i] = domain.Node{ID: fmt.Sprintf("n%03d", i), Name: fmt.Sprintf("Ingredient %03d", i)}
	}
	edges := make([]domain.Edge, edgeCount)
	for i := range edges {
		a := rng.IntN(nodeCount)
		b := rng.IntN(nodeCount)
		// coarse scores force plenty of ties
		edges[i] = domain.Edge{A: nodes[a].ID, B: nodes[b].ID, Score: float64(rng.IntN(10)) / 10}
	}
	return nodes, edges
}

func TestReduceListsAreBoundedAndOrdered(t *testing.T) {
	t.Parallel()
	for seed := uint64(1); seed <= 5; seed++ {
		nodes, edges := randomGraph(seed, 60, 900)
		for _, k := range []int{1, 3, 7} {
			artifact, _, err := domain.Reduce(nodes, edges, k)
			require.NoError(t, err)
			require.Len(t, artifact.Neighbors, len(nodes))
			for id, list := range artifact.Neighbors {
				assert.LessOrEqual(t, len(list), k, "node %s", id)
				assert.True(t, domain.Ordered(list), "node %s list out of order: %v", id, list)
			}
		}
	}
}

func TestCandidatesAreSymmetricBeforeTruncation(t *testing.T) {
	t.Parallel()
	nodes, edges := randomGraph(42, 40, 500)
	candidates, _, _ := domain.Candidates(nodes, edges)

	index := make(map[string]map[string]float64, len(candidates))
	for id, list := range candidates {
		index[id] = make(map[string]float64, len(list))
		for _, n := range list {
			index[id][n.ID] = n.Score
		}
	}
	for _, e := range edges {
		if e.A == e.B {
			continue
		}
		scoreAB, okAB := index[e.A][e.B]
		scoreBA, okBA := index[e.B][e.A]
		require.True(t, okAB, "%s missing from %s", e.B, e.A)
		require.True(t, okBA, "%s missing from %s", e.A, e.B)
		assert.Equal(t, scoreAB, scoreBA)
		assert.GreaterOrEqual(t, scoreAB, e.Score)
	}
}

func TestReduceIsDeterministic(t *testing.T) {
	t.Parallel()
	nodes, edges := randomGraph(7, 50, 600)
	first, _, err := domain.Reduce(nodes, edges, 3)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 4))
	rng.Shuffle(len(nodes), func(i, j int) { nodes[i], nodes[j] = nodes[j], nodes[i] })
	rng.Shuffle(len(edges), func(i, j int) { edges[i], edges[j] = edges[j], edges[i] })
	second, _, err := domain.Reduce(nodes, edges, 3)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
