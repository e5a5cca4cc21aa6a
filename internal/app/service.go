// Package service wires the ingest pipeline and the analytics engine behind
// the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	snapshotqueue "github.com/okian/pulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/pulse/internal/adapters/mq/worker"
	"github.com/okian/pulse/internal/adapters/repository"
	"github.com/okian/pulse/internal/domain/aggregate"
	"github.com/okian/pulse/internal/domain/dedupe"
	"github.com/okian/pulse/internal/domain/filter"
	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
	"github.com/okian/pulse/pkg/metrics"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrBackpressure = errors.New("ingest queue full")
)

// SubmitResult describes the outcome of SubmitSnapshot.
type SubmitResult struct {
	SnapshotID string
	Duplicate  bool
	Records    int
}

// Service implements the API dependencies for the analytics system.
type Service struct {
	mu sync.RWMutex

	store   *repository.MemoryStore
	deduper dedupe.Deduper
	queue   snapshotqueue.Queue
	pool    *workerpool.Pool

	workerCount int
	queueSize   int
	dedupeSize  int
	maxRecords  int
	weights     map[string]float64
	trendJitter float64
	trendSeed   uint64

	// enqueueMu serializes dedupe, sequencing and enqueue.
	enqueueMu sync.Mutex
	seq       uint64
	started   bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of ingest workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the snapshot queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the remembered snapshot ids. 0 disables eviction.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size >= 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxRecords caps the stored record count. 0 disables the cap.
func WithMaxRecords(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRecords = n
		}
	}
}

// WithCategoryWeights sets the weights reported by the category breakdown.
func WithCategoryWeights(weights map[string]float64) Option {
	return func(s *Service) {
		cp := make(map[string]float64, len(weights))
		for k, v := range weights {
			cp[k] = v
		}
		s.weights = cp
	}
}

// WithTrendJitter bounds the simulated trend offset.
func WithTrendJitter(j float64) Option {
	return func(s *Service) {
		if j >= 0 {
			s.trendJitter = j
		}
	}
}

// WithTrendSeed makes trends reproducible. 0 keeps them random.
func WithTrendSeed(seed uint64) Option {
	return func(s *Service) {
		s.trendSeed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 2,
		queueSize:   64,
		dedupeSize:  dedupe.DefaultMaxSize,
		weights:     map[string]float64{},
		trendJitter: aggregate.DefaultJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the store, deduper, queue and worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewMemoryStore(repository.WithMaxRecords(s.maxRecords))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = snapshotqueue.NewInMemoryQueue(snapshotqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store)
	s.pool.Start(ctx)
	s.seq = 0

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("maxRecords", s.maxRecords),
	)
	return nil
}

// Stop drains queued snapshots and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping analytics service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "analytics service stopped")
}

// SubmitSnapshot hands a snapshot to the ingest workers. A snapshot whose id
// was already accepted is reported as a duplicate and not queued again. When
// the queue is full the id is forgotten so the caller can retry.
func (s *Service) SubmitSnapshot(ctx context.Context, snap model.Snapshot) (SubmitResult, error) { //nolint:gocritic // hugeParam: snapshots travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return SubmitResult{}, ErrNotStarted
	}

	switch snap.Mode {
	case "":
		snap.Mode = model.ModeReplace
	case model.ModeReplace, model.ModeMerge:
	default:
		metrics.RecordSnapshotRejected("invalid_mode")
		return SubmitResult{}, fmt.Errorf("%w: %q", repository.ErrUnknownMode, snap.Mode)
	}
	if snap.SnapshotID == "" {
		snap.SnapshotID = uuid.NewString()
	}
	res := SubmitResult{SnapshotID: snap.SnapshotID, Records: len(snap.Records)}

	snap.ReceivedAt = time.Now()
	duplicate, err := s.admit(ctx, snap)
	if duplicate {
		metrics.RecordSnapshotDuplicate()
		s.logger.Debug(ctx, "duplicate snapshot", logger.String("snapshot_id", snap.SnapshotID))
		res.Duplicate = true
		return res, nil
	}
	if err != nil {
		if errors.Is(err, snapshotqueue.ErrFull) {
			metrics.RecordSnapshotRejected("backpressure")
			return SubmitResult{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		metrics.RecordSnapshotRejected("enqueue_error")
		return SubmitResult{}, fmt.Errorf("enqueue snapshot %s: %w", snap.SnapshotID, err)
	}

	metrics.RecordSnapshotAccepted()
	s.logger.Debug(ctx, "snapshot queued",
		logger.String("snapshot_id", snap.SnapshotID),
		logger.String("mode", snap.Mode),
		logger.Int("records", len(snap.Records)),
	)
	return res, nil
}

// admit records the snapshot id, stamps the next sequence number and queues
// snap as one step. A rejected snapshot leaves neither its id nor a sequence
// number behind.
func (s *Service) admit(ctx context.Context, snap model.Snapshot) (duplicate bool, err error) { //nolint:gocritic // hugeParam: snapshots travel by value
	s.enqueueMu.Lock()
	defer s.enqueueMu.Unlock()

	if s.deduper.SeenAndRecord(ctx, snap.SnapshotID) {
		return true, nil
	}
	snap.Seq = s.seq + 1
	if err := s.queue.Enqueue(ctx, snap); err != nil {
		s.deduper.Unrecord(ctx, snap.SnapshotID)
		return false, err
	}
	s.seq = snap.Seq
	return false, nil
}

// current returns the store when the service is running.
func (s *Service) current() (*repository.MemoryStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// filtered loads the current snapshot and applies c.
func (s *Service) filtered(ctx context.Context, c filter.Criteria) ([]model.Employee, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := s.current()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	out := filter.Apply(st.Records(ctx), c)
	metrics.RecordFilter(sinceMs(start), len(out))
	return out, nil
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}

// measure runs one view computation and records its latency.
func measure[T any](view string, fn func() T) T {
	start := time.Now()
	v := fn()
	metrics.RecordAggregationLatency(view, sinceMs(start))
	return v
}

// viewOf filters by c and computes one view over the result.
func viewOf[T any](ctx context.Context, s *Service, c filter.Criteria, view string, fn func([]model.Employee) T) (T, error) {
	var zero T
	records, err := s.filtered(ctx, c)
	if err != nil {
		return zero, err
	}
	return measure(view, func() T { return fn(records) }), nil
}

// Records returns the records matching c in insertion order.
func (s *Service) Records(ctx context.Context, c filter.Criteria) ([]model.Employee, error) {
	return s.filtered(ctx, c)
}

// Record returns one employee or repository.ErrNotFound.
func (s *Service) Record(ctx context.Context, id string) (model.Employee, error) {
	st, err := s.current()
	if err != nil {
		return model.Employee{}, err
	}
	return st.Get(ctx, id)
}

// Distribution returns the score histogram of the records matching c.
func (s *Service) Distribution(ctx context.Context, c filter.Criteria) ([]types.DistributionBucket, error) {
	return viewOf(ctx, s, c, "distribution", aggregate.Distribution)
}

// Trends returns the simulated trend series of the records matching c.
func (s *Service) Trends(ctx context.Context, c filter.Criteria) ([]types.TrendPoint, error) {
	return viewOf(ctx, s, c, "trends", func(rs []model.Employee) []types.TrendPoint {
		return aggregate.Trends(rs, s.trendOptions()...)
	})
}

// Departments returns the per-department rollup of the records matching c.
func (s *Service) Departments(ctx context.Context, c filter.Criteria) ([]types.DepartmentAggregate, error) {
	return viewOf(ctx, s, c, "departments", aggregate.Departments)
}

// Categories returns the weighted category breakdown of the records matching c.
func (s *Service) Categories(ctx context.Context, c filter.Criteria) ([]types.CategoryBreakdown, error) {
	return viewOf(ctx, s, c, "categories", func(rs []model.Employee) []types.CategoryBreakdown {
		return aggregate.Categories(rs, s.weights)
	})
}

// Consistency returns the consistency index of the records matching c.
func (s *Service) Consistency(ctx context.Context, c filter.Criteria) (types.Consistency, error) {
	return viewOf(ctx, s, c, "consistency", aggregate.ConsistencyIndex)
}

// Summary returns the headline figures of the records matching c.
func (s *Service) Summary(ctx context.Context, c filter.Criteria) (types.Summary, error) {
	return viewOf(ctx, s, c, "summary", aggregate.Summarize)
}

// Dashboard computes every view over one filtered record set. The views run
// concurrently over the same read-only slice.
func (s *Service) Dashboard(ctx context.Context, c filter.Criteria) (types.Dashboard, error) {
	records, err := s.filtered(ctx, c)
	if err != nil {
		return types.Dashboard{}, err
	}

	var d types.Dashboard
	g, gctx := errgroup.WithContext(ctx)
	run := func(view string, fn func()) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			measure(view, func() struct{} { fn(); return struct{}{} })
			return nil
		})
	}
	run("summary", func() { d.Summary = aggregate.Summarize(records) })
	run("distribution", func() { d.Distribution = aggregate.Distribution(records) })
	run("trends", func() { d.Trends = aggregate.Trends(records, s.trendOptions()...) })
	run("departments", func() { d.Departments = aggregate.Departments(records) })
	run("categories", func() { d.Categories = aggregate.Categories(records, s.weights) })
	run("consistency", func() { d.Consistency = aggregate.ConsistencyIndex(records) })

	if err := g.Wait(); err != nil {
		return types.Dashboard{}, fmt.Errorf("dashboard: %w", err)
	}
	return d, nil
}

func (s *Service) trendOptions() []aggregate.Option {
	opts := []aggregate.Option{aggregate.WithJitter(s.trendJitter)}
	if s.trendSeed != 0 {
		opts = append(opts, aggregate.WithRand(aggregate.NewRand(s.trendSeed)))
	}
	return opts
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxRecords":  s.maxRecords,
	}
	if !s.started {
		return stats
	}

	snap := s.store.Snapshot()
	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["records"] = len(snap.Records)
	stats["storeVersion"] = snap.Version
	stats["seenSnapshots"] = s.deduper.Size()
	stats["snapshots"] = s.pool.Stats()
	if !snap.PublishedAt.IsZero() {
		stats["lastUpdated"] = snap.PublishedAt.UTC().Format(time.RFC3339)
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateRecordsTotal(len(snap.Records))
	metrics.UpdateWorkerCount(s.workerCount)
	return stats
}
