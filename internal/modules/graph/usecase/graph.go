package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"flavorlab/internal/modules/graph/domain"
	"flavorlab/internal/modules/graph/dto"
	graphin "flavorlab/internal/modules/graph/port/in"
	"flavorlab/internal/modules/graph/service"
)

type Interactor struct {
	svc *service.GraphService
}

func NewInteractor(svc *service.GraphService) graphin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Search(_ context.Context, query string) ([]dto.IngredientOutput, error) {
	nodes, err := i.svc.Search(query)
	if err != nil {
		return nil, err
	}
	return mapNodes(nodes), nil
}

func (i *Interactor) Ingredient(_ context.Context, key string) (dto.IngredientOutput, error) {
	node, err := i.svc.Lookup(key)
	if err != nil {
		return dto.IngredientOutput{}, err
	}
	return mapNode(node), nil
}

func (i *Interactor) Pairings(_ context.Context, key string) (dto.PairingsOutput, error) {
	node, pairings, k, err := i.svc.Pairings(key)
	if err != nil {
		return dto.PairingsOutput{}, err
	}
	out := dto.PairingsOutput{
		Ingredient: mapNode(node),
		K:          k,
		Pairings:   make([]dto.PairingOutput, 0, len(pairings)),
	}
	for _, p := range pairings {
		out.Pairings = append(out.Pairings, dto.PairingOutput{Ingredient: mapNode(p.Node), Score: p.Score})
	}
	return out, nil
}

func (i *Interactor) Stats(context.Context) (dto.StatsOutput, error) {
	snap, err := i.svc.Current()
	if err != nil {
		return dto.StatsOutput{}, err
	}
	return stats(snap), nil
}

func (i *Interactor) ArtifactJSON(context.Context) ([]byte, error) {
	snap, err := i.svc.Current()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(snap.Index.Artifact())
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return raw, nil
}

func (i *Interactor) Reload(ctx context.Context) (dto.StatsOutput, error) {
	snap, err := i.svc.Reload(ctx)
	if err != nil {
		return dto.StatsOutput{}, err
	}
	return stats(snap), nil
}

func stats(snap *service.Snapshot) dto.StatsOutput {
	return dto.StatsOutput{Ingredients: snap.Index.Len(), K: snap.Index.K(), LoadedAt: snap.LoadedAt}
}

func mapNode(node domain.Node) dto.IngredientOutput {
	return dto.IngredientOutput{ID: node.ID, Name: node.Name, Category: node.Category}
}

func mapNodes(nodes []domain.Node) []dto.IngredientOutput {
	out := make([]dto.IngredientOutput, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, mapNode(node))
	}
	return out
}
