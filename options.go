package geoclust

import (
	"runtime"
	"time"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/reduce"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	workers          int
	seed             int64
	seeded           bool
	metric           distance.Metric
	summation        Summation
	index            IndexMode
	leafSize         int
	logInterval      time.Duration
}

// Option configures a Clusterer.
type Option func(*options)

// WithLogger configures the logger.
// If nil is passed, NoopLogger is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &geoclust.BasicMetricsCollector{}
//	c := geoclust.New(geoclust.WithMetricsCollector(metrics))
//	// ... run clusterings ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Avg: %dns\n", stats.RunCount, stats.RunAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithWorkers sets the number of workers. Every run splits its point set
// into this many partitions. With one worker all steps run sequentially on
// the calling goroutine.
//
// Defaults to runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithSeed makes every run deterministic for a given worker count.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed, o.seeded = seed, true
	}
}

// WithMetric sets the distance metric. Defaults to distance.MetricEuclidean.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithSummation sets the summation strategy of all accumulators.
// Defaults to AdaptiveSummation(0).
func WithSummation(s Summation) Option {
	return func(o *options) {
		if s != nil {
			o.summation = s
		}
	}
}

// WithIndex selects how partitions classify points. leafSize applies to
// k-d trees; 0 uses the default.
func WithIndex(mode IndexMode, leafSize int) Option {
	return func(o *options) {
		o.index, o.leafSize = mode, leafSize
	}
}

// WithLogInterval limits per-iteration debug logging to one line per
// interval. Defaults to one second.
func WithLogInterval(d time.Duration) Option {
	return func(o *options) {
		o.logInterval = d
	}
}

func defaultOptions() options {
	return options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		workers:          runtime.GOMAXPROCS(0),
		metric:           distance.MetricEuclidean,
		summation:        reduce.Adaptive(0),
		index:            engine.IndexAuto,
		logInterval:      time.Second,
	}
}
