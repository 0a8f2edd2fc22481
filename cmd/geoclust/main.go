// Command geoclust clusters a point file with K-Means, ISODATA or Otsu and
// prints a JSON summary.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/hupe1980/geoclust"
	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/pointio"
	"github.com/hupe1980/geoclust/points"
	"github.com/hupe1980/geoclust/prommetrics"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "geoclust:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	in          string
	config      string
	algorithm   string
	k           int
	kMin, kMax  int
	iterations  int
	workers     int
	seed        int64
	metric      string
	index       string
	logLevel    string
	jsonLogs    bool
	convert     string
	compression string
	metrics     bool
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("geoclust", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.in, "in", envString("IN", ""), "input point file (.gcpt or .csv)")
	fs.StringVar(&f.config, "config", envString("CONFIG", ""), "optional YAML configuration file")
	fs.StringVar(&f.algorithm, "algorithm", envString("ALGORITHM", ""), "kmeans, isodata or otsu")
	fs.IntVar(&f.k, "k", envInt("K", 0), "number of clusters")
	fs.IntVar(&f.kMin, "kmin", 0, "first cluster count of a K-Means sweep")
	fs.IntVar(&f.kMax, "kmax", 0, "last cluster count of a K-Means sweep")
	fs.IntVar(&f.iterations, "iterations", 0, "iteration cap")
	fs.IntVar(&f.workers, "workers", envInt("WORKERS", 0), "worker count (0 = GOMAXPROCS)")
	fs.Int64Var(&f.seed, "seed", int64(envInt("SEED", 0)), "random seed (0 = time based)")
	fs.StringVar(&f.metric, "metric", envString("METRIC", ""), "distance metric")
	fs.StringVar(&f.index, "index", envString("INDEX", ""), "partition index: auto, brute or kdtree")
	fs.StringVar(&f.logLevel, "log-level", envString("LOG_LEVEL", "info"), "debug, info, warn or error")
	fs.BoolVar(&f.jsonLogs, "json-logs", envBool("JSON_LOGS", false), "log as JSON")
	fs.StringVar(&f.convert, "convert", "", "write the input as a .gcpt file to this path and exit")
	fs.StringVar(&f.compression, "compression", "zstd", "compression for -convert: none, lz4 or zstd")
	fs.BoolVar(&f.metrics, "metrics", envBool("METRICS", false), "print Prometheus metrics to stderr after the run")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: geoclust -in points.gcpt [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if f.in == "" {
		fs.Usage()
		return nil, nil, errors.New("-in is required")
	}
	return f, fs, nil
}

// apply overrides rc with the flags that were set explicitly.
func (f *cliFlags) apply(rc *runConfig, fs *flag.FlagSet) error {
	var err error
	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if f.algorithm != "" {
		if rc.run.Algorithm, err = geoclust.ParseAlgorithm(f.algorithm); err != nil {
			return err
		}
	}
	if f.metric != "" {
		if rc.metric, err = distance.ParseMetric(f.metric); err != nil {
			return err
		}
	}
	if f.index != "" {
		if rc.index, err = geoclust.ParseIndexMode(f.index); err != nil {
			return err
		}
	}
	if f.k > 0 {
		rc.run.KMeans.Clusters = f.k
		rc.run.ISODATA.Clusters = f.k
	}
	if f.iterations > 0 {
		rc.run.KMeans.MaxIterations = f.iterations
		rc.run.ISODATA.MaxIterations = f.iterations
	}
	if f.workers > 0 {
		rc.workers = f.workers
	}
	if f.seed != 0 || set["seed"] {
		seed := f.seed
		rc.seed = &seed
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

func readPoints(path string) (*points.Flat, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		return pointio.ReadCSV(fh)
	}
	return pointio.ReadFile(path)
}

type clusterSummary struct {
	Center      []float64 `json:"center"`
	Size        int       `json:"size"`
	AvgDistance *float64  `json:"avg_distance,omitempty"`
}

type summary struct {
	Algorithm  string           `json:"algorithm"`
	Points     int              `json:"points"`
	Dimension  int              `json:"dimension"`
	Iterations int              `json:"iterations"`
	Converged  *bool            `json:"converged,omitempty"`
	Error      *float64         `json:"error,omitempty"`
	Threshold  *float64         `json:"threshold,omitempty"`
	Clusters   []clusterSummary `json:"clusters"`
}

func summarize(set points.Set, res *geoclust.Result) summary {
	s := summary{
		Algorithm:  res.Algorithm.String(),
		Points:     set.Len(),
		Dimension:  set.Dim(),
		Iterations: res.Iterations,
	}
	for i, c := range res.Centers {
		s.Clusters = append(s.Clusters, clusterSummary{Center: c, Size: res.Sizes[i]})
	}
	switch {
	case res.KMeans != nil:
		s.Converged = &res.KMeans.Converged
		s.Error = &res.KMeans.Error
	case res.ISODATA != nil:
		for i := range res.ISODATA.Clusters {
			s.Clusters[i].AvgDistance = &res.ISODATA.Clusters[i].AvgDistance
		}
	case res.Otsu != nil:
		s.Threshold = &res.Otsu.Threshold
	}
	return s
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	set, err := readPoints(f.in)
	if err != nil {
		return err
	}

	if f.convert != "" {
		c, err := pointio.ParseCompression(f.compression)
		if err != nil {
			return err
		}
		return pointio.WriteFile(f.convert, set, c)
	}

	fc, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	rc, err := fc.resolve()
	if err != nil {
		return err
	}
	if err := f.apply(rc, fs); err != nil {
		return err
	}

	lvl, err := parseLevel(f.logLevel)
	if err != nil {
		return err
	}
	var handler slog.Handler
	if f.jsonLogs {
		handler = slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lvl})
	}
	logger := geoclust.NewLogger(handler).WithDimension(set.Dim()).WithCount(set.Len())

	opts := []geoclust.Option{
		geoclust.WithLogger(logger),
		geoclust.WithMetric(rc.metric),
		geoclust.WithIndex(rc.index, 0),
	}
	if rc.workers > 0 {
		opts = append(opts, geoclust.WithWorkers(rc.workers))
	}
	if rc.seed != nil {
		opts = append(opts, geoclust.WithSeed(*rc.seed))
	}

	var reg *prometheus.Registry
	if f.metrics {
		reg = prometheus.NewRegistry()
		mc, err := prommetrics.New(reg)
		if err != nil {
			return err
		}
		opts = append(opts, geoclust.WithMetricsCollector(mc))
	}

	c := geoclust.New(opts...)
	defer c.Close()

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if f.kMin > 0 || f.kMax > 0 {
		results, err := c.Sweep(ctx, set, f.kMin, f.kMax, rc.run.KMeans)
		if err != nil {
			return err
		}
		out := make([]summary, 0, len(results))
		for _, r := range results {
			out = append(out, summarize(set, &geoclust.Result{
				Algorithm:  geoclust.AlgorithmKMeans,
				Centers:    r.Centers,
				Sizes:      r.Sizes,
				Iterations: r.Iterations,
				KMeans:     r,
			}))
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
		return dumpMetrics(reg, stderr)
	}

	res, err := c.Run(ctx, set, rc.run)
	if err != nil {
		return err
	}
	if err := enc.Encode(summarize(set, res)); err != nil {
		return err
	}
	return dumpMetrics(reg, stderr)
}

func dumpMetrics(reg *prometheus.Registry, w io.Writer) error {
	if reg == nil {
		return nil
	}
	mfs, err := reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
