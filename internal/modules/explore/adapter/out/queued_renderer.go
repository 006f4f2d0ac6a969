package out

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	pluginrpc "flavorlab/internal/modules/explore/adapter/out/rpc"
	exploreout "flavorlab/internal/modules/explore/port/out"
)

const (
	DefaultQueueSize  = 1024
	DefaultBatchSize  = 64
	DefaultFlushEvery = 16 * time.Millisecond
	applyTimeout      = 2 * time.Second
)

// BatchSink receives batches of render commands in order.
type BatchSink interface {
	Apply(ctx context.Context, batch *pluginrpc.ApplyRequest) error
}

type QueueOptions struct {
	QueueSize  int
	BatchSize  int
	FlushEvery time.Duration
}

// QueuedRenderer turns render calls into commands on a bounded queue that a
// single goroutine ships in batches. A full queue drops the command and
// counts it; render calls never block.
type QueuedRenderer struct {
	sink    BatchSink
	opts    QueueOptions
	logger  hclog.Logger
	queue   chan pluginrpc.Command
	seq     atomic.Uint64
	dropped atomic.Int64
	failed  atomic.Int64
	quit    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func NewQueuedRenderer(sink BatchSink, opts QueueOptions, logger hclog.Logger) *QueuedRenderer {
	if opts.QueueSize < 1 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = DefaultFlushEvery
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	r := &QueuedRenderer{
		sink:    sink,
		opts:    opts,
		logger:  logger,
		queue:   make(chan pluginrpc.Command, opts.QueueSize),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.loop()
	return r
}

var _ exploreout.RenderSink = (*QueuedRenderer)(nil)

func (r *QueuedRenderer) AddNode(id, label string) {
	r.push(pluginrpc.Command{Op: pluginrpc.OpAddNode, ID: id, Label: label})
}

func (r *QueuedRenderer) UpdateNodeOpacity(id string, value float64) {
	r.push(pluginrpc.Command{Op: pluginrpc.OpOpacity, ID: id, Value: value})
}

func (r *QueuedRenderer) RemoveNode(id string) {
	r.push(pluginrpc.Command{Op: pluginrpc.OpRemoveNode, ID: id})
}

func (r *QueuedRenderer) AddEdge(a, b string, weight float64) {
	r.push(pluginrpc.Command{Op: pluginrpc.OpAddEdge, A: a, B: b, Weight: weight})
}

func (r *QueuedRenderer) RemoveEdge(a, b string) {
	r.push(pluginrpc.Command{Op: pluginrpc.OpRemoveEdge, A: a, B: b})
}

// Dropped reports commands lost to overflow or to a closed renderer.
func (r *QueuedRenderer) Dropped() int64 { return r.dropped.Load() }

// Failed reports commands in batches the sink rejected.
func (r *QueuedRenderer) Failed() int64 { return r.failed.Load() }

func (r *QueuedRenderer) push(cmd pluginrpc.Command) {
	select {
	case <-r.quit:
		r.dropped.Add(1)
		return
	default:
	}
	cmd.Seq = r.seq.Add(1)
	select {
	case r.queue <- cmd:
	default:
		r.dropped.Add(1)
	}
}

func (r *QueuedRenderer) loop() {
	defer close(r.stopped)
	ticker := time.NewTicker(r.opts.FlushEvery)
	defer ticker.Stop()

	batch := make([]pluginrpc.Command, 0, r.opts.BatchSize)
	var reported int64
	flush := func() {
		if len(batch) == 0 {
			return
		}
		dropped := r.dropped.Load()
		req := &pluginrpc.ApplyRequest{Commands: batch, Dropped: dropped - reported}
		reported = dropped
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		if err := r.sink.Apply(ctx, req); err != nil {
			r.failed.Add(int64(len(batch)))
			r.logger.Warn("render batch failed", "commands", len(batch), "error", err)
		}
		cancel()
		batch = make([]pluginrpc.Command, 0, r.opts.BatchSize)
	}
	for {
		select {
		case cmd := <-r.queue:
			batch = append(batch, cmd)
			if len(batch) >= r.opts.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-r.quit:
			for {
				select {
				case cmd := <-r.queue:
					batch = append(batch, cmd)
					if len(batch) >= r.opts.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// Close flushes queued commands and stops the sender.
func (r *QueuedRenderer) Close() error {
	r.once.Do(func() { close(r.quit) })
	<-r.stopped
	return nil
}
