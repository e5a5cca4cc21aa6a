package seeder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pulse/internal/domain/types"
	"github.com/okian/pulse/pkg/logger"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
	pollInterval        = 100 * time.Millisecond
	retryBackoff        = 50 * time.Millisecond
	defaultSettle       = 30 * time.Second
)

// Run executes a complete seeding run: health check, generation,
// submission, ingestion wait and dashboard verification.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seeder")
	stats := &Stats{StartTime: time.Now()}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	log.Info(ctx, "starting seeding run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("employees", cfg.Employees),
		logger.Int("batch", cfg.Batch),
		logger.Int("workers", cfg.Workers),
		logger.Any("seed", seed),
	)

	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Healthy(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	records := NewGenerator(seed).Generate(cfg.Employees)
	stats.Generated = len(records)
	if cfg.OutputFile != "" {
		if err := saveRecords(cfg.OutputFile, records); err != nil {
			log.Warn(ctx, "failed to save records", logger.Error(err))
		} else {
			log.Info(ctx, "records saved", logger.String("file", cfg.OutputFile))
		}
	}

	if err := submit(ctx, cfg, client, records, stats); err != nil {
		return stats, fmt.Errorf("submission failed: %w", err)
	}

	waitStart := time.Now()
	ingested, err := waitForIngestion(ctx, cfg, client, len(records))
	stats.Ingested = ingested
	stats.IngestWait = time.Since(waitStart)
	if err != nil {
		return stats, fmt.Errorf("ingestion wait failed: %w", err)
	}

	var dash types.Dashboard
	if err := client.GetJSON(ctx, "/analytics/dashboard", &dash); err != nil {
		return stats, fmt.Errorf("dashboard fetch failed: %w", err)
	}
	stats.Headcount = dash.Summary.Headcount
	if err := VerifyDashboard(&dash, len(records)); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats, &dash, cfg.Verbose)
	return stats, nil
}

// submit sends the first batch as a replace, then the rest as merges from
// several workers. Backpressured batches are retried until ctx ends.
func submit(ctx context.Context, cfg *Config, client *Client, records []Record, stats *Stats) error {
	log := logger.Get().Named("seeder")
	batches := Batches(records, cfg.Batch)

	var accepted, duplicate, failed atomic.Int64
	send := func(ctx context.Context, mode string, batch []Record) error {
		ack, err := submitWithRetry(ctx, client, mode, batch)
		if err != nil {
			failed.Add(1)
			return err
		}
		if ack.Duplicate {
			duplicate.Add(1)
		} else {
			accepted.Add(1)
		}
		if cfg.Verbose {
			log.Debug(ctx, "snapshot submitted",
				logger.String("snapshot_id", ack.SnapshotID),
				logger.String("mode", mode),
				logger.Int("records", ack.Records),
			)
		}
		return nil
	}

	err := send(ctx, "replace", batches[0])
	if err == nil && len(batches) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(cfg.Workers, 1))
		for _, batch := range batches[1:] {
			g.Go(func() error { return send(gctx, "merge", batch) })
		}
		err = g.Wait()
	}

	stats.Snapshots = len(batches)
	stats.Accepted = int(accepted.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Failed = int(failed.Load())
	log.Info(ctx, "submission completed",
		logger.Int("snapshots", stats.Snapshots),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("failed", stats.Failed),
	)
	return err
}

func submitWithRetry(ctx context.Context, client *Client, mode string, batch []Record) (Ack, error) {
	id := uuid.NewString()
	for {
		ack, err := client.Submit(ctx, id, mode, batch)
		var se *StatusError
		if !errors.As(err, &se) || se.Status != http.StatusTooManyRequests {
			return ack, err
		}
		select {
		case <-ctx.Done():
			return ack, fmt.Errorf("%w (last: %w)", ctx.Err(), err)
		case <-time.After(retryBackoff):
		}
	}
}

// waitForIngestion polls /stats until the store holds want records.
func waitForIngestion(ctx context.Context, cfg *Config, client *Client, want int) (int, error) {
	settle := cfg.Settle
	if settle <= 0 {
		settle = defaultSettle
	}
	ctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	last := 0
	for {
		var st struct {
			Records int `json:"records"`
		}
		if err := client.GetJSON(ctx, "/stats", &st); err == nil {
			last = st.Records
			if last == want {
				return last, nil
			}
		}
		select {
		case <-ctx.Done():
			return last, fmt.Errorf("store holds %d of %d records: %w", last, want, ctx.Err())
		case <-ticker.C:
		}
	}
}

func saveRecords(filename string, records []Record) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

func logStats(ctx context.Context, log logger.Logger, stats *Stats, d *types.Dashboard, verbose bool) {
	var perSecond float64
	if stats.Duration > 0 {
		perSecond = float64(stats.Generated) / stats.Duration.Seconds()
	}
	log.Info(ctx, "seeding run completed",
		logger.Int("generated", stats.Generated),
		logger.Int("snapshots", stats.Snapshots),
		logger.Int("headcount", stats.Headcount),
		logger.Duration("ingestWait", stats.IngestWait),
		logger.Duration("duration", stats.Duration),
		logger.Float64("recordsPerSecond", perSecond),
	)
	if !verbose {
		return
	}
	log.Info(ctx, "dashboard summary",
		logger.Float64("avgScore", d.Summary.AvgScore),
		logger.Float64("avgAttendance", d.Summary.AvgAttendance),
		logger.Int("topPerformers", d.Summary.TopPerformers),
		logger.Int("consistencyIndex", d.Consistency.Index),
		logger.Any("performanceBands", d.Summary.PerformanceBands),
	)
}
