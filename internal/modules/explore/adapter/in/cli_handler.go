package in

import (
	"context"
	"fmt"
	"strings"

	"flavorlab/internal/modules/explore/dto"
	explorein "flavorlab/internal/modules/explore/port/in"
)

type CLIHandler struct {
	usecase explorein.Usecase
}

func NewCLIHandler(usecase explorein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Walk runs a scripted exploration. Each step is either "reset" or a query
// whose best match is selected; unmatched queries are reported and skipped.
func (h CLIHandler) Walk(ctx context.Context, steps []string) (dto.StateOutput, []string, error) {
	var misses []string
	for _, step := range steps {
		step = strings.TrimSpace(step)
		switch {
		case step == "":
			continue
		case strings.EqualFold(step, "reset"):
			if err := h.usecase.Reset(ctx); err != nil {
				return dto.StateOutput{}, misses, err
			}
		default:
			out, err := h.usecase.Search(ctx, step)
			if err != nil {
				return dto.StateOutput{}, misses, fmt.Errorf("step %q: %w", step, err)
			}
			if !out.Found {
				misses = append(misses, step)
			}
		}
	}
	state, err := h.usecase.State(ctx)
	return state, misses, err
}

func (h CLIHandler) Candidates(ctx context.Context, query string) ([]dto.CandidateOutput, error) {
	return h.usecase.Candidates(ctx, query)
}

func (h CLIHandler) Select(ctx context.Context, id string) error {
	return h.usecase.Select(ctx, id)
}

func (h CLIHandler) Search(ctx context.Context, query string) (dto.SearchOutput, error) {
	return h.usecase.Search(ctx, query)
}

func (h CLIHandler) Reset(ctx context.Context) error {
	return h.usecase.Reset(ctx)
}

func (h CLIHandler) State(ctx context.Context) (dto.StateOutput, error) {
	return h.usecase.State(ctx)
}
