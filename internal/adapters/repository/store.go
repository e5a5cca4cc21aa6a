// Package repository holds the current employee snapshot.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/pulse/internal/domain/model"
)

// Writer is the write side of a Store.
type Writer interface {
	// Replace swaps the whole record set.
	Replace(ctx context.Context, records []model.Employee) error
	// Upsert updates records by id and appends unknown ids.
	Upsert(ctx context.Context, records []model.Employee) error
}

// Store provides read/write access to the current record set. Readers get
// immutable views and never block writers.
type Store interface {
	Writer

	// Records returns the current records in insertion order. The slice is
	// shared and must not be modified.
	Records(ctx context.Context) []model.Employee

	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, id string) (model.Employee, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	Close() error
}

// Apply writes records to s according to a snapshot mode. An empty mode
// means replace.
func Apply(ctx context.Context, s Writer, mode string, records []model.Employee) error {
	switch mode {
	case "", model.ModeReplace:
		return s.Replace(ctx, records)
	case model.ModeMerge:
		return s.Upsert(ctx, records)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
}
