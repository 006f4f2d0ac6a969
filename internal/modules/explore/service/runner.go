package service

import (
	"context"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"flavorlab/internal/modules/explore/domain"
	pairing "flavorlab/internal/modules/pairing/domain"
	"flavorlab/internal/platform/clock"
	apperrors "flavorlab/internal/platform/errors"
)

// Snapshot is a consistent copy of the engine's observable state.
type Snapshot struct {
	Visible      []domain.NodeView
	Edges        []domain.EdgeView
	Trail        []string
	TrailDisplay []string
}

type event struct {
	apply func()
	done  chan struct{}
}

// Runner owns one Engine and applies events to it one at a time, in
// arrival order, on its own goroutine. Timer callbacks only enqueue a tick,
// so a select and a fade step for the same node never interleave.
type Runner struct {
	engine  *domain.Engine
	timers  clock.AfterFuncer
	logger  hclog.Logger
	events  chan event
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewRunner(cfg domain.Config, graph domain.Graph, resolver domain.Resolver, render domain.Renderer, clk interface {
	clock.Clock
	clock.AfterFuncer
}, logger hclog.Logger) (*Runner, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	r := &Runner{
		timers:  clk,
		logger:  logger,
		events:  make(chan event, 64),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	engine, err := domain.NewEngine(cfg, graph, resolver, render, r, clk)
	if err != nil {
		return nil, err
	}
	r.engine = engine
	go r.loop()
	return r, nil
}

// Schedule implements domain.Scheduler on the real clock.
func (r *Runner) Schedule(d time.Duration, tick domain.Tick) clock.Timer {
	return r.timers.AfterFunc(d, func() {
		select {
		case r.events <- event{apply: func() { r.engine.Fire(tick) }}:
		case <-r.quit:
		}
	})
}

func (r *Runner) loop() {
	defer close(r.stopped)
	for {
		select {
		case ev := <-r.events:
			ev.apply()
			if ev.done != nil {
				close(ev.done)
			}
		case <-r.quit:
			r.engine.Reset()
			return
		}
	}
}

// do runs fn on the event goroutine and waits for it.
func (r *Runner) do(ctx context.Context, fn func()) error {
	ev := event{apply: fn, done: make(chan struct{})}
	select {
	case r.events <- ev:
	case <-r.quit:
		return apperrors.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ev.done:
		return nil
	case <-r.stopped:
		return apperrors.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) Select(ctx context.Context, id string) error {
	var err error
	if doErr := r.do(ctx, func() { err = r.engine.Select(id) }); doErr != nil {
		return doErr
	}
	if err != nil {
		r.logger.Debug("select rejected", "id", id, "error", err)
	}
	return err
}

func (r *Runner) Search(ctx context.Context, query string) (pairing.Node, bool, error) {
	var (
		node pairing.Node
		ok   bool
		err  error
	)
	if doErr := r.do(ctx, func() { node, ok, err = r.engine.Search(query) }); doErr != nil {
		return pairing.Node{}, false, doErr
	}
	return node, ok, err
}

func (r *Runner) Candidates(ctx context.Context, query string) ([]pairing.Node, error) {
	var out []pairing.Node
	if err := r.do(ctx, func() { out = r.engine.Candidates(query) }); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Runner) Reset(ctx context.Context) error {
	return r.do(ctx, r.engine.Reset)
}

func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.do(ctx, func() {
		snap = Snapshot{
			Visible:      r.engine.Visible(),
			Edges:        r.engine.Edges(),
			Trail:        r.engine.Trail(),
			TrailDisplay: r.engine.TrailDisplay(),
		}
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Close stops the loop and cancels every pending timer.
func (r *Runner) Close() error {
	r.once.Do(func() { close(r.quit) })
	<-r.stopped
	return nil
}
