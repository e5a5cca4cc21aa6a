// Package seeder generates synthetic employee snapshots, submits them to a
// running service and checks the analytics it reports back.
package seeder

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Employees  int           // Number of employees to generate
	Batch      int           // Records per snapshot; 0 sends one snapshot
	Workers    int           // Concurrent submitters for merge batches
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for ingestion
	Seed       uint64        // Generator seed; 0 picks one
	OutputFile string        // Where to write the generated records; empty skips
	Verbose    bool
}

// Stats holds run statistics.
type Stats struct {
	Generated  int
	Snapshots  int
	Accepted   int
	Duplicate  int
	Failed     int
	Ingested   int
	Headcount  int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	IngestWait time.Duration
}
