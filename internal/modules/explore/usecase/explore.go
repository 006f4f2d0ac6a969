package usecase

import (
	"context"

	"flavorlab/internal/modules/explore/dto"
	explorein "flavorlab/internal/modules/explore/port/in"
	"flavorlab/internal/modules/explore/service"
	pairing "flavorlab/internal/modules/pairing/domain"
)

type Interactor struct {
	runner *service.Runner
}

func NewInteractor(runner *service.Runner) explorein.Usecase {
	return &Interactor{runner: runner}
}

func (i *Interactor) Candidates(ctx context.Context, query string) ([]dto.CandidateOutput, error) {
	nodes, err := i.runner.Candidates(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CandidateOutput, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, candidate(n))
	}
	return out, nil
}

func (i *Interactor) Select(ctx context.Context, id string) error {
	return i.runner.Select(ctx, id)
}

func (i *Interactor) Search(ctx context.Context, query string) (dto.SearchOutput, error) {
	node, ok, err := i.runner.Search(ctx, query)
	if err != nil || !ok {
		return dto.SearchOutput{}, err
	}
	return dto.SearchOutput{Found: true, Selected: candidate(node)}, nil
}

func (i *Interactor) Reset(ctx context.Context) error {
	return i.runner.Reset(ctx)
}

func (i *Interactor) State(ctx context.Context) (dto.StateOutput, error) {
	snap, err := i.runner.Snapshot(ctx)
	if err != nil {
		return dto.StateOutput{}, err
	}
	out := dto.StateOutput{
		Visible:      make([]dto.VisibleNodeOutput, 0, len(snap.Visible)),
		Edges:        make([]dto.EdgeOutput, 0, len(snap.Edges)),
		Trail:        snap.Trail,
		TrailDisplay: snap.TrailDisplay,
	}
	for _, v := range snap.Visible {
		out.Visible = append(out.Visible, dto.VisibleNodeOutput{
			ID:         v.ID,
			Label:      v.Label,
			State:      v.State.String(),
			Opacity:    v.Opacity,
			WasClicked: v.WasClicked,
		})
	}
	for _, e := range snap.Edges {
		out.Edges = append(out.Edges, dto.EdgeOutput{A: e.A, B: e.B, Weight: e.Weight})
	}
	if out.Trail == nil {
		out.Trail = []string{}
	}
	if out.TrailDisplay == nil {
		out.TrailDisplay = []string{}
	}
	return out, nil
}

func candidate(n pairing.Node) dto.CandidateOutput {
	return dto.CandidateOutput{ID: n.ID, Name: n.Name, Category: n.Category}
}
