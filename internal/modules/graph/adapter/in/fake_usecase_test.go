package in_test

import (
	"context"
	"fmt"
	"strings"
	"time"

	"flavorlab/internal/modules/graph/dto"
	apperrors "flavorlab/internal/platform/errors"
)

type fakeUsecase struct {
	ingredients []dto.IngredientOutput
	pairings    map[string][]dto.PairingOutput
	loaded      bool
}

func newFakeUsecase() *fakeUsecase {
	basil := dto.IngredientOutput{ID: "basil", Name: "Basil", Category: "herb"}
	tomato := dto.IngredientOutput{ID: "tomato", Name: "Tomato"}
	return &fakeUsecase{
		ingredients: []dto.IngredientOutput{basil, tomato},
		pairings: map[string][]dto.PairingOutput{
			"basil":  {{Ingredient: tomato, Score: 0.9}},
			"tomato": {{Ingredient: basil, Score: 0.9}},
		},
		loaded: true,
	}
}

func (f *fakeUsecase) Search(_ context.Context, query string) ([]dto.IngredientOutput, error) {
	out := []dto.IngredientOutput{}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out, nil
	}
	for _, in := range f.ingredients {
		if strings.Contains(strings.ToLower(in.Name), q) {
			out = append(out, in)
		}
	}
	return out, nil
}

func (f *fakeUsecase) Ingredient(_ context.Context, key string) (dto.IngredientOutput, error) {
	for _, in := range f.ingredients {
		if in.ID == key || strings.EqualFold(in.Name, key) {
			return in, nil
		}
	}
	return dto.IngredientOutput{}, fmt.Errorf("ingredient %q: %w", key, apperrors.ErrNotFound)
}

func (f *fakeUsecase) Pairings(ctx context.Context, key string) (dto.PairingsOutput, error) {
	in, err := f.Ingredient(ctx, key)
	if err != nil {
		return dto.PairingsOutput{}, err
	}
	return dto.PairingsOutput{Ingredient: in, K: 3, Pairings: f.pairings[in.ID]}, nil
}

func (f *fakeUsecase) Stats(context.Context) (dto.StatsOutput, error) {
	if !f.loaded {
		return dto.StatsOutput{}, fmt.Errorf("graph not loaded: %w", apperrors.ErrNotFound)
	}
	return dto.StatsOutput{Ingredients: len(f.ingredients), K: 3, LoadedAt: time.Unix(0, 0).UTC()}, nil
}

func (f *fakeUsecase) ArtifactJSON(context.Context) ([]byte, error) {
	return []byte(`{"k":3,"nodes":[],"neighbors":{}}`), nil
}

func (f *fakeUsecase) Reload(ctx context.Context) (dto.StatsOutput, error) {
	return f.Stats(ctx)
}
