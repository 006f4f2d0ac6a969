package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"flavorlab/internal/modules/graph/domain"
	graphout "flavorlab/internal/modules/graph/port/out"
	"flavorlab/internal/platform/clock"
	apperrors "flavorlab/internal/platform/errors"
)

// Snapshot is one loaded generation of the graph. It is never mutated.
type Snapshot struct {
	Index    *domain.Index
	Resolver *domain.Resolver
	LoadedAt time.Time
}

// Pairing is a neighbor resolved to its node.
type Pairing struct {
	Node  domain.Node
	Score float64
}

var ErrNotLoaded = fmt.Errorf("%w: graph not loaded", apperrors.ErrNotFound)

// GraphService holds the current snapshot. Reload builds a new index off to
// the side and swaps the pointer, so readers never see a partial graph.
type GraphService struct {
	source     graphout.ArtifactSource
	maxResults int
	clock      clock.Clock
	logger     hclog.Logger
	current    atomic.Pointer[Snapshot]
}

func NewGraphService(source graphout.ArtifactSource, maxResults int, clk clock.Clock, logger hclog.Logger) *GraphService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GraphService{source: source, maxResults: maxResults, clock: clk, logger: logger}
}

func (s *GraphService) Reload(ctx context.Context) (*Snapshot, error) {
	artifact, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}
	idx, err := domain.NewIndex(artifact)
	if err != nil {
		return nil, fmt.Errorf("index artifact: %w", err)
	}
	snap := &Snapshot{
		Index:    idx,
		Resolver: domain.NewResolver(idx, s.maxResults),
		LoadedAt: s.clock.Now(),
	}
	s.current.Store(snap)
	s.logger.Info("graph loaded", "ingredients", idx.Len(), "k", idx.K())
	return snap, nil
}

// Watch reloads on every change notification. A failed reload keeps the
// previous snapshot.
func (s *GraphService) Watch(ctx context.Context, notifier graphout.ChangeNotifier) error {
	return notifier.Watch(ctx, func() {
		if _, err := s.Reload(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("reload failed, keeping previous graph", "error", err)
		}
	})
}

func (s *GraphService) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNotLoaded
	}
	return snap, nil
}

func (s *GraphService) Search(query string) ([]domain.Node, error) {
	snap, err := s.Current()
	if err != nil {
		return nil, err
	}
	return snap.Resolver.Resolve(query), nil
}

func (s *GraphService) Lookup(key string) (domain.Node, error) {
	snap, err := s.Current()
	if err != nil {
		return domain.Node{}, err
	}
	return lookup(snap.Index, key)
}

func (s *GraphService) Pairings(key string) (domain.Node, []Pairing, int, error) {
	snap, err := s.Current()
	if err != nil {
		return domain.Node{}, nil, 0, err
	}
	node, err := lookup(snap.Index, key)
	if err != nil {
		return domain.Node{}, nil, 0, err
	}
	nbs, err := snap.Index.Neighbors(node.ID)
	if err != nil {
		return domain.Node{}, nil, 0, err
	}
	out := make([]Pairing, 0, len(nbs))
	for _, nb := range nbs {
		n, err := snap.Index.Node(nb.ID)
		if err != nil {
			return domain.Node{}, nil, 0, err
		}
		out = append(out, Pairing{Node: n, Score: nb.Score})
	}
	return node, out, snap.Index.K(), nil
}

func lookup(idx *domain.Index, key string) (domain.Node, error) {
	node, err := idx.Node(key)
	if err == nil {
		return node, nil
	}
	return idx.NodeByName(key)
}
