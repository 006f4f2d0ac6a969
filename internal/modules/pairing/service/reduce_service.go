package service

import (
	"context"
	"fmt"

	hclog "github.com/hashicorp/go-hclog"

	"flavorlab/internal/modules/pairing/domain"
	pairingout "flavorlab/internal/modules/pairing/port/out"
)

type ReduceService struct {
	source pairingout.EdgeSource
	store  pairingout.ArtifactStore
	logger hclog.Logger
}

func NewReduceService(source pairingout.EdgeSource, store pairingout.ArtifactStore, logger hclog.Logger) *ReduceService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ReduceService{source: source, store: store, logger: logger}
}

// Reduce loads the full relation, reduces it to k neighbors per node and
// persists the artifact. Bad edges are skipped and reported, not fatal.
func (s *ReduceService) Reduce(ctx context.Context, k int) (domain.Artifact, domain.Report, string, error) {
	nodes, edges, err := s.source.Load(ctx)
	if err != nil {
		return domain.Artifact{}, domain.Report{}, "", fmt.Errorf("load pairings: %w", err)
	}
	s.logger.Debug("pairings loaded", "nodes", len(nodes), "edges", len(edges))

	artifact, report, err := domain.Reduce(nodes, edges, k)
	if err != nil {
		return domain.Artifact{}, domain.Report{}, "", err
	}
	if skipped := report.SkippedEdges(); skipped > 0 || report.SkippedNodes > 0 {
		s.logger.Warn("reduction skipped input",
			"edges", skipped, "malformed", report.Malformed, "invalid_score", report.InvalidScore,
			"nodes", report.SkippedNodes)
		for _, ex := range report.Examples {
			s.logger.Warn("skipped", "cause", ex.Error())
		}
	}

	path, err := s.store.Save(ctx, artifact)
	if err != nil {
		return domain.Artifact{}, domain.Report{}, "", fmt.Errorf("save artifact: %w", err)
	}
	s.logger.Info("artifact written", "path", path, "nodes", report.Nodes, "k", k)
	return artifact, report, path, nil
}
