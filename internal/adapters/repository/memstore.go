package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/pulse/internal/domain/model"
	"github.com/okian/pulse/pkg/metrics"
)

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	Records     []model.Employee
	ByID        map[string]int
	Version     uint64
	PublishedAt time.Time
}

var emptySnapshot = &Snapshot{Records: []model.Employee{}, ByID: map[string]int{}} //nolint:gochecknoglobals // shared zero value

// MemoryStore keeps records in memory. Writes are serialized and rebuild a
// fresh Snapshot which is published atomically; reads only load the pointer.
type MemoryStore struct {
	mu         sync.Mutex
	maxRecords int
	closed     bool
	snapshot   atomic.Pointer[Snapshot]
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(emptySnapshot)
	metrics.UpdateRecordsTotal(0)
	return s
}

// Snapshot returns the current published view.
func (s *MemoryStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Replace implements Store.Replace. Within one batch a repeated id keeps
// its first position and its last value.
func (s *MemoryStore) Replace(ctx context.Context, records []model.Employee) error {
	return s.write(ctx, func(*Snapshot) ([]model.Employee, map[string]int) {
		return merge(nil, nil, records)
	})
}

// Upsert implements Store.Upsert.
func (s *MemoryStore) Upsert(ctx context.Context, records []model.Employee) error {
	return s.write(ctx, func(cur *Snapshot) ([]model.Employee, map[string]int) {
		return merge(cur.Records, cur.ByID, records)
	})
}

func (s *MemoryStore) write(ctx context.Context, build func(*Snapshot) ([]model.Employee, map[string]int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	cur := s.snapshot.Load()
	records, byID := build(cur)
	if s.maxRecords > 0 && len(records) > s.maxRecords {
		metrics.RecordErrorByComponent("repository", "capacity")
		return ErrCapacity
	}

	now := time.Now()
	s.snapshot.Store(&Snapshot{
		Records:     records,
		ByID:        byID,
		Version:     cur.Version + 1,
		PublishedAt: now,
	})
	metrics.RecordStorePublish(float64(now.Unix()))
	metrics.UpdateRecordsTotal(len(records))
	return nil
}

// merge copies base and applies incoming on top of it. Records without an
// id are skipped.
func merge(base []model.Employee, baseIdx map[string]int, incoming []model.Employee) ([]model.Employee, map[string]int) {
	out := make([]model.Employee, len(base), len(base)+len(incoming))
	copy(out, base)
	idx := make(map[string]int, len(base)+len(incoming))
	for id, pos := range baseIdx {
		idx[id] = pos
	}

	for i := range incoming {
		e := incoming[i]
		if e.ID == "" {
			metrics.RecordErrorByComponent("repository", "empty_id")
			continue
		}
		if pos, ok := idx[e.ID]; ok {
			out[pos] = e
			continue
		}
		idx[e.ID] = len(out)
		out = append(out, e)
	}
	return out, idx
}

// Records implements Store.Records.
func (s *MemoryStore) Records(_ context.Context) []model.Employee {
	return s.snapshot.Load().Records
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (model.Employee, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	snap := s.snapshot.Load()
	pos, ok := snap.ByID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.Employee{}, ErrNotFound
	}
	return snap.Records[pos], nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	return len(s.snapshot.Load().Records)
}

// Close rejects further writes. Reads keep serving the last snapshot.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
