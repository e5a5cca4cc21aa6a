package model

import "time"

// Snapshot modes.
const (
	// ModeReplace swaps the whole record set for the snapshot's records.
	ModeReplace = "replace"
	// ModeMerge upserts the snapshot's records by id.
	ModeMerge = "merge"
)

// Snapshot is one batch of records submitted by the fetch layer.
type Snapshot struct {
	SnapshotID string           // idempotency key
	Mode       string           // ModeReplace or ModeMerge
	Records    []EmployeeRecord // raw records, normalized by the ingest worker
	ReceivedAt time.Time
	Seq        uint64 // submission order, assigned on intake
}
