package out

import (
	"context"

	"flavorlab/internal/modules/pairing/domain"
)

// EdgeSource yields the raw node table and pairing relation.
type EdgeSource interface {
	Load(ctx context.Context) ([]domain.Node, []domain.Edge, error)
}

// ArtifactStore persists the reduced graph. Save returns the location written.
type ArtifactStore interface {
	Save(ctx context.Context, artifact domain.Artifact) (string, error)
	Load(ctx context.Context) (domain.Artifact, error)
}
