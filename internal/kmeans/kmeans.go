package kmeans

import (
	"context"
	"math"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/internal/reduce"
	"github.com/hupe1980/geoclust/points"
)

// Algorithm is the name used in logs and iteration reports.
const Algorithm = "kmeans"

// Result is the outcome of a K-Means run.
type Result struct {
	// Centers holds exactly Config.Clusters centers.
	Centers [][]float64
	// Sizes holds the number of points classified to each center in the last
	// pass. Centers synthesized after that pass have size 0.
	Sizes []int
	// Error is the summed nearest-center distance of the last pass.
	Error      float64
	Iterations int
	Converged  bool
}

// partition holds the accumulators private to one partition.
type partition struct {
	set   points.Set
	means []*reduce.Mean
	err   reduce.Sum
}

type run struct {
	ctx      context.Context
	ex       executor.Executor
	set      points.Set
	cfg      Config
	opts     engine.Options
	dist     distance.Func
	parts    []*partition
	progress *engine.Progress
}

// Run returns a step that clusters set according to cfg on ex.
func Run(ctx context.Context, ex executor.Executor, set points.Set, cfg Config, opts ...engine.Option) async.Step[*Result] {
	return func(h async.Handler[*Result]) {
		if err := cfg.Validate(set.Len()); err != nil {
			h(nil, err)
			return
		}
		o := engine.Apply(opts)
		dist, err := distance.Provider(o.Metric)
		if err != nil {
			h(nil, engine.Invalid("metric", "%v", err))
			return
		}
		if len(cfg.Replace) == 0 {
			cfg.Replace = []ReplaceStrategy{ReplaceError}
		}
		r := &run{
			ctx:      ctx,
			ex:       ex,
			set:      set,
			cfg:      cfg,
			opts:     o,
			dist:     dist,
			progress: engine.NewProgress(Algorithm, o),
		}

		engine.Partition(ex, set, cfg.Clusters, o)(func(sets []points.Set, err error) {
			if err != nil {
				h(nil, err)
				return
			}
			r.setup(sets)
			r.initialCenters(func(centers [][]float64, err error) {
				if err != nil {
					h(nil, err)
					return
				}
				r.iterate(1, centers, math.Inf(1), h)
			})
		})
	}
}

func (r *run) setup(sets []points.Set) {
	dim := r.set.Dim()
	r.parts = make([]*partition, len(sets))
	for i, s := range sets {
		p := &partition{
			set:   s,
			means: make([]*reduce.Mean, r.cfg.Clusters),
			err:   r.opts.Summation(s.Len()),
		}
		for c := range p.means {
			p.means[c] = reduce.NewMean(dim, s.Len()/r.cfg.Clusters+1, r.opts.Summation)
		}
		r.parts[i] = p
	}
}

func (r *run) sets() []points.Set {
	out := make([]points.Set, len(r.parts))
	for i, p := range r.parts {
		out[i] = p.set
	}
	return out
}

func (r *run) iterate(iteration int, centers [][]float64, prevErr float64, h async.Handler[*Result]) {
	if err := async.Checkpoint(r.ctx); err != nil {
		h(nil, err)
		return
	}

	engine.EachPartition(r.ex, r.sets(), func(i int, _ points.Set) (*partition, error) {
		return r.parts[i], r.classify(r.parts[i], centers)
	}, func(parts []*partition, err error) {
		if err != nil {
			h(nil, err)
			return
		}
		r.join(iteration, parts, prevErr, h)
	})
}

// classify assigns the points of p to centers. It only touches p.
func (r *run) classify(p *partition, centers [][]float64) error {
	for _, m := range p.means {
		m.Clear()
	}
	p.err.Clear()

	v := &accumulator{p: p, centers: centers, dist: r.dist}
	return p.set.Classify(centers, r.opts.Metric, v)
}

func (r *run) join(iteration int, parts []*partition, prevErr float64, h async.Handler[*Result]) {
	dim := r.set.Dim()
	total := r.opts.Summation(r.set.Len())
	centers := make([][]float64, 0, r.cfg.Clusters)
	sizes := make([]int, 0, r.cfg.Clusters)

	for c := 0; c < r.cfg.Clusters; c++ {
		merged := reduce.NewMean(dim, r.set.Len()/r.cfg.Clusters+1, r.opts.Summation)
		for _, p := range parts {
			merged.Merge(p.means[c])
		}
		if merged.Count() == 0 {
			continue
		}
		m, err := merged.Mean()
		if err != nil {
			h(nil, err)
			return
		}
		centers = append(centers, m)
		sizes = append(sizes, merged.Count())
	}
	for _, p := range parts {
		total.Merge(p.err)
	}
	newErr := total.Value()

	r.progress.Iteration(r.ctx, engine.Iteration{Number: iteration, Clusters: len(centers), Error: newErr})

	r.fill(centers, func(centers [][]float64, err error) {
		if err != nil {
			h(nil, err)
			return
		}
		for len(sizes) < len(centers) {
			sizes = append(sizes, 0)
		}

		converged := prevErr*r.cfg.ErrorLimit <= newErr
		if converged || iteration >= r.cfg.MaxIterations {
			r.progress.Done(r.ctx, iteration, converged)
			h(&Result{
				Centers:    centers,
				Sizes:      sizes,
				Error:      newErr,
				Iterations: iteration,
				Converged:  converged,
			}, nil)
			return
		}

		async.Dispatch(r.ex, func(centers [][]float64, _ error) {
			r.iterate(iteration+1, centers, newErr, h)
		})(centers, nil)
	})
}

// fill replaces missing centers until there are cfg.Clusters of them.
func (r *run) fill(centers [][]float64, h async.Handler[[][]float64]) {
	if len(centers) >= r.cfg.Clusters {
		h(centers, nil)
		return
	}
	r.replace(centers, 0, func(c []float64, err error) {
		if err != nil {
			h(nil, err)
			return
		}
		r.fill(append(centers, c), h)
	})
}

// accumulator feeds classification results into a partition's accumulators.
type accumulator struct {
	p       *partition
	centers [][]float64
	dist    distance.Func
}

func (a *accumulator) Point(center, _ int, p []float64, d float64) {
	a.p.means[center].Add(p)
	a.p.err.Add(d)
}

func (a *accumulator) Bulk(center int, s points.Subset) {
	c := a.centers[center]
	m := a.p.means[center]
	for j := 0; j < s.Len(); j++ {
		p := s.At(j)
		m.Add(p)
		a.p.err.Add(a.dist(p, c))
	}
}
