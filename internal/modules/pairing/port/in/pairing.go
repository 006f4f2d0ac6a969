package in

import (
	"context"

	"flavorlab/internal/modules/pairing/dto"
)

type Usecase interface {
	Reduce(ctx context.Context, input dto.ReduceInput) (dto.ReduceOutput, error)
}
