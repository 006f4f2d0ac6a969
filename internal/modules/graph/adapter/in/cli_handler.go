package in

import (
	"context"

	"flavorlab/internal/modules/graph/dto"
	graphin "flavorlab/internal/modules/graph/port/in"
)

type CLIHandler struct {
	usecase graphin.Usecase
}

func NewCLIHandler(usecase graphin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Search(ctx context.Context, query string) ([]dto.IngredientOutput, error) {
	return h.usecase.Search(ctx, query)
}

func (h CLIHandler) Pairings(ctx context.Context, key string) (dto.PairingsOutput, error) {
	return h.usecase.Pairings(ctx, key)
}

func (h CLIHandler) Stats(ctx context.Context) (dto.StatsOutput, error) {
	return h.usecase.Stats(ctx)
}
