package usecase

import (
	"context"

	"flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/modules/pairing/dto"
	pairingin "flavorlab/internal/modules/pairing/port/in"
	"flavorlab/internal/modules/pairing/service"
	"flavorlab/internal/platform/clock"
)

type Interactor struct {
	svc   *service.ReduceService
	clock clock.Clock
}

func NewInteractor(svc *service.ReduceService, clk clock.Clock) pairingin.Usecase {
	return &Interactor{svc: svc, clock: clk}
}

func (i *Interactor) Reduce(ctx context.Context, input dto.ReduceInput) (dto.ReduceOutput, error) {
	k := input.K
	if k == 0 {
		k = domain.DefaultK
	}
	_, report, path, err := i.svc.Reduce(ctx, k)
	if err != nil {
		return dto.ReduceOutput{}, err
	}
	examples := make([]string, 0, len(report.Examples))
	for _, ex := range report.Examples {
		examples = append(examples, ex.Error())
	}
	return dto.ReduceOutput{
		ArtifactPath: path,
		K:            k,
		Nodes:        report.Nodes,
		SkippedNodes: report.SkippedNodes,
		Edges:        report.Edges,
		Accepted:     report.Accepted,
		Duplicates:   report.Duplicates,
		Malformed:    report.Malformed,
		InvalidScore: report.InvalidScore,
		SkippedEdges: report.SkippedEdges(),
		Examples:     examples,
		ReducedAt:    i.clock.Now(),
	}, nil
}
