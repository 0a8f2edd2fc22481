package otsu

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/internal/reduce"
	"github.com/hupe1980/geoclust/points"
)

// Algorithm is the name used in logs and iteration reports.
const Algorithm = "otsu"

// DefaultBins matches the value range of 8-bit image channels.
const DefaultBins = 256

// Config configures an Otsu run.
type Config struct {
	// Channel is the vector component that is thresholded.
	Channel int
	// Bins is the number of histogram buckets over the channel's value range.
	Bins int
}

// DefaultConfig returns a configuration thresholding the first component.
func DefaultConfig() Config {
	return Config{Bins: DefaultBins}
}

// Validate checks the configuration against a point set of n points of
// dimension dim.
func (c Config) Validate(n, dim int) error {
	switch {
	case c.Channel < 0 || c.Channel >= dim:
		return engine.Invalid("channel", "must be in [0, %d), got %d", dim, c.Channel)
	case c.Bins < 2:
		return engine.Invalid("bins", "must be at least 2, got %d", c.Bins)
	case n < 2:
		return fmt.Errorf("%w: %d points for 2 classes", engine.ErrTooFewPoints, n)
	}
	return nil
}

// Result is the outcome of an Otsu run. Index 0 is the class at or below
// Threshold.
type Result struct {
	Threshold float64
	Centers   [][]float64
	Sizes     []int
	// Variance is the between-class variance at Threshold.
	Variance float64
}

type bounds struct {
	lo, hi float64
}

type classes struct {
	means [2]*reduce.Mean
}

type run struct {
	ctx   context.Context
	ex    executor.Executor
	set   points.Set
	cfg   Config
	opts  engine.Options
	parts []points.Set

	lo, width float64
}

// Run returns a step that thresholds set according to cfg on ex.
func Run(ctx context.Context, ex executor.Executor, set points.Set, cfg Config, opts ...engine.Option) async.Step[*Result] {
	return func(h async.Handler[*Result]) {
		if err := cfg.Validate(set.Len(), set.Dim()); err != nil {
			h(nil, err)
			return
		}
		if err := async.Checkpoint(ctx); err != nil {
			h(nil, err)
			return
		}
		r := &run{
			ctx:   ctx,
			ex:    ex,
			set:   set,
			cfg:   cfg,
			opts:  engine.Apply(opts),
			parts: set.Split(ex.Workers()),
		}
		r.bounds(func(b bounds, err error) {
			if err != nil {
				h(nil, err)
				return
			}
			if !(b.hi > b.lo) {
				h(nil, fmt.Errorf("%w: channel %d is constant", engine.ErrTooFewPoints, cfg.Channel))
				return
			}
			r.lo, r.width = b.lo, (b.hi-b.lo)/float64(cfg.Bins)
			r.histogram(func(hist []int, err error) {
				if err != nil {
					h(nil, err)
					return
				}
				split, variance := threshold(hist)
				if r.opts.Logger != nil {
					r.opts.Logger.DebugContext(ctx, "threshold selected",
						slog.String("algorithm", Algorithm),
						slog.Int("bin", split),
						slog.Float64("variance", variance),
					)
				}
				r.classify(split, func(res *Result, err error) {
					if res != nil {
						res.Variance = variance
					}
					h(res, err)
				})
			})
		})
	}
}

func (r *run) bin(v float64) int {
	b := int((v - r.lo) / r.width)
	return min(max(b, 0), r.cfg.Bins-1)
}

func (r *run) bounds(h async.Handler[bounds]) {
	engine.EachPartition(r.ex, r.parts, func(_ int, part points.Set) (bounds, error) {
		b := bounds{lo: math.Inf(1), hi: math.Inf(-1)}
		for i := 0; i < part.Len(); i++ {
			v := part.At(i)[r.cfg.Channel]
			b.lo, b.hi = math.Min(b.lo, v), math.Max(b.hi, v)
		}
		return b, nil
	}, async.Map(h, func(bs []bounds) (bounds, error) {
		out := bounds{lo: math.Inf(1), hi: math.Inf(-1)}
		for _, b := range bs {
			out.lo, out.hi = math.Min(out.lo, b.lo), math.Max(out.hi, b.hi)
		}
		return out, nil
	}))
}

func (r *run) histogram(h async.Handler[[]int]) {
	engine.EachPartition(r.ex, r.parts, func(_ int, part points.Set) ([]int, error) {
		hist := make([]int, r.cfg.Bins)
		for i := 0; i < part.Len(); i++ {
			hist[r.bin(part.At(i)[r.cfg.Channel])]++
		}
		return hist, nil
	}, async.Map(h, func(hists [][]int) ([]int, error) {
		out := make([]int, r.cfg.Bins)
		for _, hist := range hists {
			for b, n := range hist {
				out[b] += n
			}
		}
		return out, nil
	}))
}

// threshold returns the last bin of the lower class and the between-class
// variance, in bin units. Both classes are non-empty whenever the first and
// last bins are.
func threshold(hist []int) (int, float64) {
	var total, sum float64
	for b, n := range hist {
		total += float64(n)
		sum += float64(b) * float64(n)
	}

	// Empty bins between two modes leave the variance unchanged. The
	// threshold is the middle of such a run of equal maxima.
	first, last, bestVar := 0, 0, -1.0
	var w0, sum0 float64
	for t := 0; t < len(hist)-1; t++ {
		w0 += float64(hist[t])
		sum0 += float64(t) * float64(hist[t])
		w1 := total - w0
		if w0 == 0 || w1 == 0 {
			continue
		}
		m0, m1 := sum0/w0, (sum-sum0)/w1
		v := w0 * w1 * (m0 - m1) * (m0 - m1) / (total * total)
		switch {
		case v > bestVar:
			first, last, bestVar = t, t, v
		case v == bestVar && last == t-1:
			last = t
		}
	}
	return (first + last) / 2, bestVar
}

func (r *run) classify(split int, h async.Handler[*Result]) {
	dim := r.set.Dim()
	engine.EachPartition(r.ex, r.parts, func(_ int, part points.Set) (classes, error) {
		var c classes
		for k := range c.means {
			c.means[k] = reduce.NewMean(dim, part.Len(), r.opts.Summation)
		}
		for i := 0; i < part.Len(); i++ {
			p := part.At(i)
			k := 0
			if r.bin(p[r.cfg.Channel]) > split {
				k = 1
			}
			c.means[k].Add(p)
		}
		return c, nil
	}, async.Map(h, func(cs []classes) (*Result, error) {
		res := &Result{
			Threshold: r.lo + float64(split+1)*r.width,
			Centers:   make([][]float64, 2),
			Sizes:     make([]int, 2),
		}
		for k := range res.Centers {
			merged := reduce.NewMean(dim, r.set.Len(), r.opts.Summation)
			for _, c := range cs {
				merged.Merge(c.means[k])
			}
			center, err := merged.Mean()
			if err != nil {
				return nil, fmt.Errorf("%w: class %d", engine.ErrEmptyCluster, k)
			}
			res.Centers[k], res.Sizes[k] = center, merged.Count()
		}
		return res, nil
	}))
}
