package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flavorlab/internal/modules/explore/domain"
	"flavorlab/internal/modules/explore/service"
	"flavorlab/internal/modules/explore/usecase"
	graphdomain "flavorlab/internal/modules/graph/domain"
	pairing "flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/platform/clock"
)

type frozenClock struct{}

func (frozenClock) Now() time.Time { return time.Unix(0, 0).UTC() }

type inertTimer struct{}

func (inertTimer) Stop() bool { return true }

func (frozenClock) AfterFunc(time.Duration, func()) clock.Timer { return inertTimer{} }

type nopRenderer struct{}

func (nopRenderer) AddNode(string, string)            {}
func (nopRenderer) UpdateNodeOpacity(string, float64) {}
func (nopRenderer) RemoveNode(string)                 {}
func (nopRenderer) AddEdge(string, string, float64)   {}
func (nopRenderer) RemoveEdge(string, string)         {}

func TestInteractorMapsState(t *testing.T) {
	t.Parallel()
	idx, err := graphdomain.NewIndex(pairing.Artifact{
		K: 3,
		Nodes: []pairing.Node{
			{ID: "basil", Name: "Basil", Category: "herb"},
			{ID: "tomato", Name: "Tomato"},
		},
		Neighbors: map[string][]pairing.Neighbor{
			"basil":  {{ID: "tomato", Score: 0.9}},
			"tomato": {{ID: "basil", Score: 0.9}},
		},
	})
	require.NoError(t, err)
	runner, err := service.NewRunner(domain.DefaultConfig(), idx, graphdomain.NewResolver(idx, 10), nopRenderer{}, frozenClock{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = runner.Close() })
	uc := usecase.NewInteractor(runner)
	ctx := context.Background()

	cands, err := uc.Candidates(ctx, "ba")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "herb", cands[0].Category)

	out, err := uc.Search(ctx, "basil")
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "basil", out.Selected.ID)

	miss, err := uc.Search(ctx, "saffron")
	require.NoError(t, err)
	assert.False(t, miss.Found)

	state, err := uc.State(ctx)
	require.NoError(t, err)
	require.Len(t, state.Visible, 2)
	assert.Equal(t, "active", state.Visible[0].State)
	assert.True(t, state.Visible[0].WasClicked)
	assert.Equal(t, "just-revealed", state.Visible[1].State)
	assert.Equal(t, []string{"basil"}, state.Trail)
	require.Len(t, state.Edges, 1)
	assert.InDelta(t, 0.9, state.Edges[0].Weight, 1e-9)

	require.NoError(t, uc.Reset(ctx))
	state, err = uc.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Visible)
	assert.NotNil(t, state.Trail)
}
