package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/pulse/internal/domain/model"
)

func emp(id string, score float64) model.Employee {
	return model.Employee{ID: id, Name: "Employee " + id, Score: score, Categories: map[string]float64{}}
}

func ids(es []model.Employee) string {
	out := ""
	for i, e := range es {
		if i > 0 {
			out += ","
		}
		out += e.ID
	}
	return out
}

func TestMemoryStore_Empty(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if n := s.Count(ctx); n != 0 {
		t.Errorf("expected count 0, got %d", n)
	}
	if recs := s.Records(ctx); recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil records, got %v", recs)
	}
	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Replace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Replace(ctx, []model.Employee{emp("a", 1), emp("b", 2), emp("a", 3), emp("", 9)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := ids(s.Records(ctx)); got != "a,b" {
		t.Errorf("expected a,b got %s", got)
	}
	a, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if a.Score != 3 {
		t.Errorf("expected last value for repeated id, got %v", a.Score)
	}

	if err := s.Replace(ctx, []model.Employee{emp("c", 4)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := ids(s.Records(ctx)); got != "c" {
		t.Errorf("expected c got %s", got)
	}
	if _, err := s.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected a to be gone, got %v", err)
	}
}

func TestMemoryStore_Upsert(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Replace(ctx, []model.Employee{emp("a", 1), emp("b", 2)})
	if err := s.Upsert(ctx, []model.Employee{emp("b", 20), emp("c", 30)}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := ids(s.Records(ctx)); got != "a,b,c" {
		t.Errorf("expected a,b,c got %s", got)
	}
	b, _ := s.Get(ctx, "b")
	if b.Score != 20 {
		t.Errorf("expected b updated in place, got %v", b.Score)
	}
}

func TestMemoryStore_SnapshotsAreImmutable(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Replace(ctx, []model.Employee{emp("a", 1)})
	before := s.Snapshot()
	held := s.Records(ctx)

	_ = s.Upsert(ctx, []model.Employee{emp("a", 99), emp("b", 2)})

	if held[0].Score != 1 || len(held) != 1 {
		t.Errorf("earlier view changed: %+v", held)
	}
	after := s.Snapshot()
	if after.Version != before.Version+1 {
		t.Errorf("expected version %d, got %d", before.Version+1, after.Version)
	}
	if after.PublishedAt.Before(before.PublishedAt) {
		t.Error("publish time went backwards")
	}
}

func TestMemoryStore_MaxRecords(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(WithMaxRecords(2))

	if err := s.Replace(ctx, []model.Employee{emp("a", 1), emp("b", 2)}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.Upsert(ctx, []model.Employee{emp("c", 3)}); !errors.Is(err, ErrCapacity) {
		t.Errorf("expected ErrCapacity, got %v", err)
	}
	if n := s.Count(ctx); n != 2 {
		t.Errorf("rejected write must not change state, count %d", n)
	}
	// Updating existing ids stays within the cap.
	if err := s.Upsert(ctx, []model.Employee{emp("a", 10)}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Replace(ctx, []model.Employee{emp("a", 1)})

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Replace(ctx, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if n := s.Count(ctx); n != 1 {
		t.Errorf("reads should still work after close, count %d", n)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()
	if err := s.Replace(ctx, []model.Employee{emp("a", 1)}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		mode    string
		want    string
		wantErr error
	}{
		{name: "default replaces", mode: "", want: "z"},
		{name: "replace", mode: model.ModeReplace, want: "z"},
		{name: "merge", mode: model.ModeMerge, want: "a,z"},
		{name: "unknown", mode: "append", want: "a", wantErr: ErrUnknownMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			_ = s.Replace(ctx, []model.Employee{emp("a", 1)})

			err := Apply(ctx, s, tt.mode, []model.Employee{emp("z", 5)})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if got := ids(s.Records(ctx)); got != tt.want {
				t.Errorf("expected %s got %s", tt.want, got)
			}
		})
	}
}

func TestMemoryStore_ConcurrentReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = s.Upsert(ctx, []model.Employee{emp(fmt.Sprintf("%d-%d", w, i), float64(i))})
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := s.Snapshot()
				if len(snap.Records) != len(snap.ByID) {
					t.Errorf("inconsistent snapshot: %d records, %d ids", len(snap.Records), len(snap.ByID))
					return
				}
			}
		}()
	}
	wg.Wait()

	if n := s.Count(ctx); n != 200 {
		t.Errorf("expected 200 records, got %d", n)
	}
}
