package in

import (
	"context"

	"flavorlab/internal/modules/graph/dto"
)

type Usecase interface {
	Search(ctx context.Context, query string) ([]dto.IngredientOutput, error)
	// Ingredient resolves key as an id first, then as a name.
	Ingredient(ctx context.Context, key string) (dto.IngredientOutput, error)
	Pairings(ctx context.Context, key string) (dto.PairingsOutput, error)
	Stats(ctx context.Context) (dto.StatsOutput, error)
	ArtifactJSON(ctx context.Context) ([]byte, error)
	Reload(ctx context.Context) (dto.StatsOutput, error)
}
