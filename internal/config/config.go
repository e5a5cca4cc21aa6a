// Package config defines service configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// PULSE_CONFIG, then PULSE_* environment variables. A .env file in the
// working directory is read into the environment first.
package config

import "context"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9090".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory snapshot queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ingest workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the remembered snapshot ids. 0 disables eviction.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxRecords caps the stored record count. 0 disables the cap.
	MaxRecords int `koanf:"max_records"`

	// CategoryWeights maps review categories to weights in [0,1].
	CategoryWeights map[string]float64 `koanf:"category_weights"`

	// TrendJitter bounds the simulated per-period trend offset.
	TrendJitter float64 `koanf:"trend_jitter"`

	// TrendSeed seeds trend jitter. 0 picks a random seed per request.
	TrendSeed uint64 `koanf:"trend_seed"`
}

// New returns a Config holding the defaults. The context is reserved for
// sources that need one.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Addr:        ":9090",
		QueueSize:   64,
		WorkerCount: 2,
		DedupeSize:  10_000,
		MaxRecords:  100_000,
		CategoryWeights: map[string]float64{
			"Punctuality":  0.3,
			"Task Quality": 0.4,
			"Teamwork":     0.3,
		},
		TrendJitter: 5,
	}
}
