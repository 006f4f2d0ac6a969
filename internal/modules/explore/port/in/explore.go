package in

import (
	"context"

	"flavorlab/internal/modules/explore/dto"
)

type Usecase interface {
	Candidates(ctx context.Context, query string) ([]dto.CandidateOutput, error)
	Select(ctx context.Context, id string) error
	// Search selects the best candidate for query, if any.
	Search(ctx context.Context, query string) (dto.SearchOutput, error)
	Reset(ctx context.Context) error
	State(ctx context.Context) (dto.StateOutput, error)
}
