package out

import (
	"context"

	pairing "flavorlab/internal/modules/pairing/domain"
)

// ArtifactSource loads the reduced artifact the index is built from.
type ArtifactSource interface {
	Load(ctx context.Context) (pairing.Artifact, error)
}

// ChangeNotifier calls onChange whenever the artifact may have changed,
// until ctx is done.
type ChangeNotifier interface {
	Watch(ctx context.Context, onChange func()) error
}
