package aggregate

import "math/rand/v2"

// DefaultJitter bounds the per-period trend offset.
const DefaultJitter = 5.0

// TrendPeriods is the number of points Trends produces.
const TrendPeriods = 6

// Option configures trend synthesis.
type Option func(*trendConfig)

type trendConfig struct {
	rng    *rand.Rand
	jitter float64
}

// WithRand sets the random source for trend jitter. Pass a seeded source for
// reproducible output.
func WithRand(r *rand.Rand) Option {
	return func(c *trendConfig) {
		c.rng = r
	}
}

// WithJitter sets the jitter bound. Values <= 0 disable jitter.
func WithJitter(j float64) Option {
	return func(c *trendConfig) {
		if j < 0 {
			j = 0
		}
		c.jitter = j
	}
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
