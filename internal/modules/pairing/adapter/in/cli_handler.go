package in

import (
	"context"

	"flavorlab/internal/modules/pairing/dto"
	pairingin "flavorlab/internal/modules/pairing/port/in"
)

type CLIHandler struct {
	usecase pairingin.Usecase
}

func NewCLIHandler(usecase pairingin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Reduce(ctx context.Context, k int) (dto.ReduceOutput, error) {
	return h.usecase.Reduce(ctx, dto.ReduceInput{K: k})
}
