package geoclust

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting clustering metrics.
// Implement this interface to integrate with monitoring systems; package
// prommetrics provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordRun is called after each clustering run.
	// iterations is 0 when the run failed before its first iteration.
	RecordRun(algorithm string, iterations int, duration time.Duration, err error)

	// RecordIteration is called after each iteration of a run. errorValue is
	// the summed nearest-center distance for K-Means and the average member
	// distance for ISODATA.
	RecordIteration(algorithm string, iteration, clusters int, errorValue float64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRun(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordIteration(string, int, int, float64)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	RunCount       atomic.Int64
	RunErrors      atomic.Int64
	RunTotalNanos  atomic.Int64
	IterationCount atomic.Int64
	LastClusters   atomic.Int64
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(_ string, _ int, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(_ string, _ int, clusters int, _ float64) {
	b.IterationCount.Add(1)
	b.LastClusters.Store(int64(clusters))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		RunCount:       b.RunCount.Load(),
		RunErrors:      b.RunErrors.Load(),
		IterationCount: b.IterationCount.Load(),
		LastClusters:   b.LastClusters.Load(),
	}
	if stats.RunCount > 0 {
		stats.RunAvgNanos = b.RunTotalNanos.Load() / stats.RunCount
	}
	return stats
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RunCount       int64
	RunErrors      int64
	RunAvgNanos    int64
	IterationCount int64
	LastClusters   int64
}
