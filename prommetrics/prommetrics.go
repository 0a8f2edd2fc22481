// Package prommetrics reports clustering runs to Prometheus.
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/geoclust"
)

var _ geoclust.MetricsCollector = (*Collector)(nil)

// Collector implements geoclust.MetricsCollector with Prometheus metrics.
type Collector struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	iterations *prometheus.CounterVec
	clusters   *prometheus.GaugeVec
	errorValue *prometheus.GaugeVec
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoclust",
			Name:      "runs_total",
			Help:      "Clustering runs by algorithm and outcome.",
		}, []string{"algorithm", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "geoclust",
			Name:      "run_duration_seconds",
			Help:      "Duration of clustering runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "geoclust",
			Name:      "iterations_total",
			Help:      "Finished iterations by algorithm.",
		}, []string{"algorithm"}),
		clusters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "geoclust",
			Name:      "clusters",
			Help:      "Cluster count after the latest iteration.",
		}, []string{"algorithm"}),
		errorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "geoclust",
			Name:      "iteration_error",
			Help:      "Clustering error after the latest iteration.",
		}, []string{"algorithm"}),
	}

	for _, m := range []prometheus.Collector{c.runs, c.duration, c.iterations, c.clusters, c.errorValue} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// RecordRun implements geoclust.MetricsCollector.
func (c *Collector) RecordRun(algorithm string, _ int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.runs.WithLabelValues(algorithm, status).Inc()
	c.duration.WithLabelValues(algorithm).Observe(d.Seconds())
}

// RecordIteration implements geoclust.MetricsCollector.
func (c *Collector) RecordIteration(algorithm string, _ int, clusters int, errorValue float64) {
	c.iterations.WithLabelValues(algorithm).Inc()
	c.clusters.WithLabelValues(algorithm).Set(float64(clusters))
	c.errorValue.WithLabelValues(algorithm).Set(errorValue)
}
