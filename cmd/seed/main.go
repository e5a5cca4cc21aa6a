// Package main is the seeding tool: it loads synthetic employee snapshots
// into a running service and verifies the analytics it reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/pulse/internal/seeder"
	"github.com/okian/pulse/pkg/logger"
)

const (
	defaultEmployees = 1000
	defaultBatch     = 250
	defaultTimeout   = 30 * time.Second
	defaultSettle    = time.Minute
	defaultRunLimit  = 10 * time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &seeder.Config{}
	var logFormat string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load synthetic employee snapshots into a Pulse service",
		Long: "Generates employees across departments, statuses and performance bands, " +
			"submits them as snapshots, waits until the service has ingested every record " +
			"and checks the dashboard totals against what was sent.",
		SilenceUsage: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if cfg.Employees < 1 {
				return fmt.Errorf("--employees must be positive, got %d", cfg.Employees)
			}
			if err := logger.Init(logger.WithFormat(logFormat)); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			if cfg.Verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, defaultRunLimit)
			defer cancel()

			_, err := seeder.Run(ctx, cfg)
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9090", "Base URL of the service")
	f.IntVarP(&cfg.Employees, "employees", "n", defaultEmployees, "Number of employees to generate")
	f.IntVarP(&cfg.Batch, "batch", "b", defaultBatch, "Records per snapshot (0 sends one snapshot)")
	f.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU(), "Concurrent submitters for merge snapshots")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.Settle, "settle", defaultSettle, "How long to wait for ingestion")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Generator seed (0 picks one)")
	f.StringVarP(&cfg.OutputFile, "output", "o", "", "Write the generated records to this JSON file")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log every snapshot and the dashboard summary")
	f.StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	return cmd
}
