// Package worker normalizes queued snapshots and applies them to the store.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

const (
	defaultWorkerCount  = 2
	poolShutdownTimeout = 30 * time.Second
)

// Queue defines how workers receive snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Snapshot
}

// Worker consumes snapshots until its queue closes.
type Worker interface {
	// Run processes snapshots until ctx is canceled or the queue is drained.
	Run(ctx context.Context)

	// Shutdown stops the worker without draining.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue   Queue
	applier *applier
	name    string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker that writes to w. Workers created
// separately do not share ordering state; use a Pool for that.
func NewInMemoryWorker(q Queue, w repository.Writer, opts ...Option) *InMemoryWorker {
	return newWorker(q, newApplier(w), opts...)
}

func newWorker(q Queue, a *applier, opts ...Option) *InMemoryWorker {
	wk := &InMemoryWorker{
		queue:    q,
		applier:  a,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(wk)
	}
	if wk.name != "worker" {
		wk.logger = wk.logger.Named(wk.name)
	}
	return wk
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	snapshots := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := w.process(ctx, snap); err != nil {
				w.logger.Error(ctx, "snapshot not applied",
					logger.String("snapshot_id", snap.SnapshotID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for its loop to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stopOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, snap model.Snapshot) error { //nolint:gocritic // hugeParam: snapshots travel by value
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	records := model.NormalizeAll(snap.Records)
	results := w.applier.apply(ctx, snap, records)
	if len(results) == 0 {
		w.logger.Debug(ctx, "snapshot held for ordering",
			logger.String("snapshot_id", snap.SnapshotID),
			logger.Any("seq", snap.Seq),
		)
		return nil
	}

	var failed error
	for _, res := range results {
		if res.err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "apply_error")
			failed = fmt.Errorf("apply snapshot %s: %w", res.snapshotID, res.err)
			continue
		}
		metrics.RecordSnapshotApplied(res.mode)
		metrics.RecordRecordsIngested(res.records)
		w.logger.Debug(ctx, "snapshot applied",
			logger.String("snapshot_id", res.snapshotID),
			logger.String("mode", res.mode),
			logger.Int("records", res.records),
		)
	}
	return failed
}

func modeLabel(mode string) string {
	if mode == "" {
		return model.ModeReplace
	}
	return mode
}

type pending struct {
	snap    model.Snapshot
	records []model.Employee
}

type result struct {
	snapshotID string
	mode       string
	records    int
	err        error
}

// applier writes snapshots in submission order. Snapshots carry a sequence
// number starting at 1; one that arrives ahead of its predecessors is held
// until the gap is filled, and whichever worker fills it writes the run.
// Snapshots without a sequence number are written immediately.
type applier struct {
	mu      sync.Mutex
	writer  repository.Writer
	next    uint64
	pending map[uint64]pending

	applied atomic.Int64
	stale   atomic.Int64
	failed  atomic.Int64
}

func newApplier(w repository.Writer) *applier {
	return &applier{writer: w, next: 1, pending: make(map[uint64]pending)}
}

func (a *applier) apply(ctx context.Context, snap model.Snapshot, records []model.Employee) []result { //nolint:gocritic // hugeParam: snapshots travel by value
	a.mu.Lock()
	defer a.mu.Unlock()

	if snap.Seq == 0 {
		return []result{a.write(ctx, snap, records)}
	}
	if _, held := a.pending[snap.Seq]; held || snap.Seq < a.next {
		a.stale.Add(1)
		return nil
	}

	a.pending[snap.Seq] = pending{snap: snap, records: records}
	var out []result
	for {
		p, ok := a.pending[a.next]
		if !ok {
			break
		}
		delete(a.pending, a.next)
		a.next++
		out = append(out, a.write(ctx, p.snap, p.records))
	}
	return out
}

func (a *applier) write(ctx context.Context, snap model.Snapshot, records []model.Employee) result { //nolint:gocritic // hugeParam: snapshots travel by value
	res := result{snapshotID: snap.SnapshotID, mode: modeLabel(snap.Mode), records: len(records)}
	if err := repository.Apply(ctx, a.writer, snap.Mode, records); err != nil {
		a.failed.Add(1)
		res.err = err
		return res
	}
	a.applied.Add(1)
	return res
}

func (a *applier) held() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Stats counts snapshot outcomes of a pool. Held snapshots wait for an
// earlier sequence number.
type Stats struct {
	Applied int64 `json:"applied"`
	Stale   int64 `json:"stale"`
	Failed  int64 `json:"failed"`
	Held    int   `json:"held"`
}

// Pool runs several workers over one queue and one store.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	applier *applier
	started atomic.Bool
	logger  logger.Logger
}

// NewPool creates a pool. workerCount < 1 selects the default.
func NewPool(workerCount int, q Queue, w repository.Writer) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		applier: newApplier(w),
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = newWorker(q, p.applier, WithName("worker-"+strconv.Itoa(i)))
	}

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Stats returns snapshot outcome counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Applied: p.applier.applied.Load(),
		Stale:   p.applier.stale.Load(),
		Failed:  p.applier.failed.Load(),
		Held:    p.applier.held(),
	}
}

// Shutdown closes the queue, lets workers drain it, and stops any worker
// still running when ctx or the pool timeout expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !p.started.Load() {
		return nil
	}

	drainCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-drainCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker did not drain in time", logger.Int("worker_id", i))
			stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
			_ = w.Shutdown(stopCtx)
			stop()
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if n := p.applier.held(); n > 0 {
		p.logger.Warn(ctx, "snapshots left waiting for earlier sequence numbers", logger.Int("held", n))
	}

	if timedOut > 0 {
		return fmt.Errorf("%d workers stopped before draining: %w", timedOut, drainCtx.Err())
	}
	return nil
}
