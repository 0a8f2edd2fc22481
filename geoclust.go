package geoclust

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/internal/isodata"
	"github.com/hupe1980/geoclust/internal/kmeans"
	"github.com/hupe1980/geoclust/internal/otsu"
	"github.com/hupe1980/geoclust/points"
)

// Clusterer runs clustering algorithms on a shared worker pool.
// It is safe for concurrent use.
type Clusterer struct {
	opts options
	ex   executor.Executor
}

// New creates a Clusterer.
func New(optFns ...Option) *Clusterer {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Clusterer{
		opts: opts,
		ex:   executor.New(opts.workers, executor.WithLogger(opts.logger.Logger)),
	}
}

// Workers returns the number of workers and thus partitions per run.
func (c *Clusterer) Workers() int { return c.ex.Workers() }

// Close waits for tasks still running on the worker pool, such as the
// remaining partitions of a failed iteration.
func (c *Clusterer) Close() error {
	if p, ok := c.ex.(*executor.Pool); ok {
		p.Wait()
	}
	return nil
}

// runExecutor returns the executor for one run. A single-worker Clusterer
// gives every run its own trampoline so that runs started from callbacks or
// from concurrent callers never wait on another run's drain loop.
func (c *Clusterer) runExecutor() executor.Executor {
	if _, ok := c.ex.(*executor.Sequential); ok {
		return executor.NewSequential(executor.WithLogger(c.opts.logger.Logger))
	}
	return c.ex
}

func (c *Clusterer) engineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithLogger(c.opts.logger.Logger),
		engine.WithMetric(c.opts.metric),
		engine.WithSummation(c.opts.summation),
		engine.WithIndex(c.opts.index, c.opts.leafSize),
		engine.WithLogInterval(c.opts.logInterval),
		engine.WithIterationHook(func(it engine.Iteration) {
			c.opts.metricsCollector.RecordIteration(it.Algorithm, it.Number, it.Clusters, it.Error)
		}),
	}
	if c.opts.seeded {
		opts = append(opts, engine.WithSeed(c.opts.seed))
	}
	return opts
}

// finish records a finished run and translates its error.
func (c *Clusterer) finish(ctx context.Context, algorithm string, clusters, iterations int, start time.Time, err error) error {
	c.opts.metricsCollector.RecordRun(algorithm, iterations, time.Since(start), err)
	c.opts.logger.LogRun(ctx, algorithm, clusters, iterations, err)
	return translateError(err)
}

// KMeans clusters set into cfg.Clusters clusters.
func (c *Clusterer) KMeans(ctx context.Context, set points.Set, cfg KMeansConfig) (*KMeansResult, error) {
	start := time.Now()
	res, err := async.Wait(kmeans.Run(ctx, c.runExecutor(), set, cfg, c.engineOptions()...))
	if err != nil {
		return nil, c.finish(ctx, kmeans.Algorithm, cfg.Clusters, 0, start, err)
	}
	return res, c.finish(ctx, kmeans.Algorithm, len(res.Centers), res.Iterations, start, nil)
}

// KMeansAsync starts a K-Means run and returns immediately unless the
// Clusterer has a single worker, in which case the run completes before
// KMeansAsync returns. fn is called exactly once, possibly on a worker
// goroutine.
func (c *Clusterer) KMeansAsync(ctx context.Context, set points.Set, cfg KMeansConfig, fn func(*KMeansResult, error)) {
	start := time.Now()
	ex := c.runExecutor()
	async.Go(ex, kmeans.Run(ctx, ex, set, cfg, c.engineOptions()...), func(res *KMeansResult, err error) {
		if err != nil {
			fn(nil, c.finish(ctx, kmeans.Algorithm, cfg.Clusters, 0, start, err))
			return
		}
		fn(res, c.finish(ctx, kmeans.Algorithm, len(res.Centers), res.Iterations, start, nil))
	})
}

// ISODATA clusters set, aiming for cfg.Clusters clusters.
func (c *Clusterer) ISODATA(ctx context.Context, set points.Set, cfg ISODATAConfig) (*ISODATAResult, error) {
	start := time.Now()
	res, err := async.Wait(isodata.Run(ctx, c.runExecutor(), set, cfg, c.engineOptions()...))
	if err != nil {
		return nil, c.finish(ctx, isodata.Algorithm, cfg.Clusters, 0, start, err)
	}
	return res, c.finish(ctx, isodata.Algorithm, len(res.Clusters), res.Iterations, start, nil)
}

// Otsu splits set into two classes by thresholding one component.
func (c *Clusterer) Otsu(ctx context.Context, set points.Set, cfg OtsuConfig) (*OtsuResult, error) {
	start := time.Now()
	res, err := async.Wait(otsu.Run(ctx, c.runExecutor(), set, cfg, c.engineOptions()...))
	if err != nil {
		return nil, c.finish(ctx, otsu.Algorithm, 2, 0, start, err)
	}
	return res, c.finish(ctx, otsu.Algorithm, 2, 1, start, nil)
}

// Sweep runs K-Means for every cluster count in [minK, maxK] concurrently and
// returns the results ordered by cluster count. cfg.Clusters is ignored.
// The first failure cancels the remaining runs.
func (c *Clusterer) Sweep(ctx context.Context, set points.Set, minK, maxK int, cfg KMeansConfig) ([]*KMeansResult, error) {
	if minK < 2 || maxK < minK {
		err := fmt.Errorf("%w: sweep range [%d, %d]", ErrInvalidConfig, minK, maxK)
		c.opts.logger.LogSweep(ctx, minK, maxK, err)
		return nil, err
	}

	results := make([]*KMeansResult, maxK-minK+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.ex.Workers())
	for k := minK; k <= maxK; k++ {
		g.Go(func() error {
			kcfg := cfg
			kcfg.Clusters = k
			res, err := c.KMeans(gctx, set, kcfg)
			if err != nil {
				return fmt.Errorf("k=%d: %w", k, err)
			}
			results[k-minK] = res
			return nil
		})
	}
	err := g.Wait()
	c.opts.logger.LogSweep(ctx, minK, maxK, err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Run dispatches to the algorithm selected by cfg.
func (c *Clusterer) Run(ctx context.Context, set points.Set, cfg Config) (*Result, error) {
	switch cfg.Algorithm {
	case AlgorithmKMeans:
		res, err := c.KMeans(ctx, set, cfg.KMeans)
		if err != nil {
			return nil, err
		}
		return &Result{
			Algorithm:  cfg.Algorithm,
			Centers:    res.Centers,
			Sizes:      res.Sizes,
			Iterations: res.Iterations,
			KMeans:     res,
		}, nil
	case AlgorithmISODATA:
		res, err := c.ISODATA(ctx, set, cfg.ISODATA)
		if err != nil {
			return nil, err
		}
		out := &Result{Algorithm: cfg.Algorithm, Iterations: res.Iterations, ISODATA: res}
		for _, cl := range res.Clusters {
			out.Centers = append(out.Centers, cl.Center)
			out.Sizes = append(out.Sizes, cl.Size)
		}
		return out, nil
	case AlgorithmOtsu:
		res, err := c.Otsu(ctx, set, cfg.Otsu)
		if err != nil {
			return nil, err
		}
		return &Result{
			Algorithm:  cfg.Algorithm,
			Centers:    res.Centers,
			Sizes:      res.Sizes,
			Iterations: 1,
			Otsu:       res,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown algorithm %v", ErrInvalidConfig, cfg.Algorithm)
	}
}
