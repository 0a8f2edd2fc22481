package engine

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/internal/reduce"
)

// Iteration describes a finished iteration of a run.
type Iteration struct {
	Algorithm string
	Number    int
	Clusters  int
	// Error is the summed nearest-center distance (K-Means) or the global
	// average distance (ISODATA).
	Error float64
}

// Options are shared by all engines.
type Options struct {
	Logger      *slog.Logger
	Metric      distance.Metric
	Summation   reduce.Summation
	Rand        *rand.Rand
	Index       IndexMode
	LeafSize    int
	OnIteration func(Iteration)
	LogInterval time.Duration
}

// Option configures a run.
type Option func(*Options)

// WithLogger sets the logger for the run.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithMetric sets the distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *Options) {
		o.Metric = m
	}
}

// WithSummation sets the summation strategy used by all accumulators.
func WithSummation(s reduce.Summation) Option {
	return func(o *Options) {
		if s != nil {
			o.Summation = s
		}
	}
}

// WithSeed makes random choices of the run deterministic.
func WithSeed(seed int64) Option {
	return func(o *Options) {
		o.Rand = rand.New(rand.NewSource(seed)) // nolint gosec
	}
}

// WithIndex selects how partitions classify points.
func WithIndex(mode IndexMode, leafSize int) Option {
	return func(o *Options) {
		o.Index = mode
		o.LeafSize = leafSize
	}
}

// WithIterationHook registers fn to be called after every iteration.
func WithIterationHook(fn func(Iteration)) Option {
	return func(o *Options) {
		o.OnIteration = fn
	}
}

// WithLogInterval sets the minimum interval between iteration log lines.
func WithLogInterval(d time.Duration) Option {
	return func(o *Options) {
		o.LogInterval = d
	}
}

// Apply returns the options with defaults for unset fields.
func Apply(opts []Option) Options {
	o := Options{
		Metric:      distance.MetricEuclidean,
		Summation:   reduce.Adaptive(0),
		LogInterval: time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano())) // nolint gosec
	}
	return o
}
