package out

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"flavorlab/internal/modules/pairing/domain"
	pairingout "flavorlab/internal/modules/pairing/port/out"
	apperrors "flavorlab/internal/platform/errors"
)

// JSONArtifactStore writes the artifact as indented JSON. Map keys are sorted
// by encoding/json, so equal artifacts produce identical bytes.
type JSONArtifactStore struct {
	path string
}

func NewJSONArtifactStore(path string) pairingout.ArtifactStore {
	return &JSONArtifactStore{path: path}
}

func (s *JSONArtifactStore) Save(_ context.Context, artifact domain.Artifact) (string, error) {
	raw, err := EncodeArtifact(artifact)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return "", fmt.Errorf("replace artifact: %w", err)
	}
	return s.path, nil
}

func (s *JSONArtifactStore) Load(_ context.Context) (domain.Artifact, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("read artifact: %w", err)
	}
	return DecodeArtifact(raw)
}

func EncodeArtifact(artifact domain.Artifact) ([]byte, error) {
	if artifact.Nodes == nil {
		artifact.Nodes = []domain.Node{}
	}
	if artifact.Neighbors == nil {
		artifact.Neighbors = map[string][]domain.Neighbor{}
	}
	raw, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	return append(raw, '\n'), nil
}

func DecodeArtifact(raw []byte) (domain.Artifact, error) {
	var artifact domain.Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return domain.Artifact{}, fmt.Errorf("%w: decode artifact: %v", apperrors.ErrInvalidInput, err)
	}
	if artifact.Neighbors == nil {
		artifact.Neighbors = map[string][]domain.Neighbor{}
	}
	for _, n := range artifact.Nodes {
		if artifact.Neighbors[n.ID] == nil {
			artifact.Neighbors[n.ID] = []domain.Neighbor{}
		}
	}
	return artifact, nil
}
