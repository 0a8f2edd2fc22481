package isodata

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/internal/reduce"
	"github.com/hupe1980/geoclust/points"
)

// Algorithm is the name used in logs and iteration reports.
const Algorithm = "isodata"

// Cluster is a cluster of the final result.
type Cluster struct {
	Center []float64
	Size   int
	// AvgDistance is the mean distance of the members to Center.
	AvgDistance float64
	// Deviation is the per-component standard deviation of the members.
	Deviation []float64
	// Members holds the point indices when Config.KeepMembers is set.
	Members *roaring.Bitmap
}

// Result is the outcome of an ISODATA run.
type Result struct {
	Clusters []Cluster
	// AvgDistance is the member-weighted average of the clusters' AvgDistance.
	AvgDistance float64
	Iterations  int
}

type cluster struct {
	center    []float64
	size      int
	avgDist   float64
	deviation []float64
}

// partition holds the state private to one partition. members[c] holds the
// root indices of the partition's points nearest to cluster c.
type partition struct {
	set     points.Set
	members []*roaring.Bitmap
	means   []*reduce.Mean
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
		r, err := newRun(ctx, ex, set, cfg, opts)
		if err != nil {
			h(nil, err)
			return
		}

		engine.Partition(ex, set, cfg.Clusters, r.opts)(func(sets []points.Set, err error) {
			if err != nil {
				h(nil, err)
				return
			}
			r.setup(sets)

			k := cfg.initial()
			centers, err := engine.RandomCenters(set, k, cfg.MaxIterations*k, r.opts.Rand)
			if err != nil {
				h(nil, err)
				return
			}
			clusters := make([]*cluster, len(centers))
			for i, c := range centers {
				clusters[i] = &cluster{center: c}
			}
			r.iterate(1, clusters, h)
		})
	}
}

func newRun(ctx context.Context, ex executor.Executor, set points.Set, cfg Config, opts []engine.Option) (*run, error) {
	o := engine.Apply(opts)
	dist, err := distance.Provider(o.Metric)
	if err != nil {
		return nil, engine.Invalid("metric", "%v", err)
	}
	return &run{
		ctx:      ctx,
		ex:       ex,
		set:      set,
		cfg:      cfg,
		opts:     o,
		dist:     dist,
		progress: engine.NewProgress(Algorithm, o),
	}, nil
}

func (r *run) setup(sets []points.Set) {
	r.parts = make([]*partition, len(sets))
	for i, s := range sets {
		r.parts[i] = &partition{set: s}
	}
}

func (r *run) sets() []points.Set {
	out := make([]points.Set, len(r.parts))
	for i, p := range r.parts {
		out[i] = p.set
	}
	return out
}

func (r *run) iterate(iteration int, clusters []*cluster, h async.Handler[*Result]) {
	if err := async.Checkpoint(r.ctx); err != nil {
		h(nil, err)
		return
	}

	r.distribute(clusters, func(clusters []*cluster, err error) {
		if err != nil {
			h(nil, err)
			return
		}
		r.measure(clusters, func(global float64, err error) {
			if err != nil {
				h(nil, err)
				return
			}
			r.progress.Iteration(r.ctx, engine.Iteration{Number: iteration, Clusters: len(clusters), Error: global})
			r.next(iteration, clusters, global, h)
		})
	})
}

// next selects and applies the action that ends the iteration.
func (r *run) next(iteration int, clusters []*cluster, global float64, h async.Handler[*Result]) {
	k := r.cfg.Clusters
	continueWith := func(clusters []*cluster) {
		async.Dispatch(r.ex, func(clusters []*cluster, _ error) {
			r.iterate(iteration+1, clusters, h)
		})(clusters, nil)
	}

	switch {
	case iteration >= r.cfg.MaxIterations:
		// Lumping with threshold zero merges nothing.
		r.progress.Done(r.ctx, iteration, false)
		h(r.result(iteration, clusters, global), nil)
	case len(clusters) <= k/2:
		continueWith(r.splitOrLump(iteration, clusters, global))
	case iteration%2 == 0 || len(clusters) >= 2*k:
		continueWith(r.lump(clusters, r.cfg.lumpThreshold(iteration)))
	default:
		continueWith(r.splitOrLump(iteration, clusters, global))
	}
}

func (r *run) splitOrLump(iteration int, clusters []*cluster, global float64) []*cluster {
	if split, ok := r.split(clusters, global); ok {
		return split
	}
	return r.lump(clusters, r.cfg.lumpThreshold(iteration))
}

// distribute assigns every point to its nearest center, discards clusters
// with too few members and moves the survivors to their members' mean.
func (r *run) distribute(clusters []*cluster, h async.Handler[[]*cluster]) {
	centers := make([][]float64, len(clusters))
	for i, c := range clusters {
		centers[i] = c.center
	}

	engine.EachPartition(r.ex, r.sets(), func(i int, _ points.Set) (*partition, error) {
		p := r.parts[i]
		p.reset(len(centers), r.set.Dim(), r.opts.Summation)
		return p, p.set.Classify(centers, r.opts.Metric, &distributor{p: p})
	}, func(parts []*partition, err error) {
		if err != nil {
			h(nil, err)
			return
		}

		keep := make([]int, 0, len(clusters))
		survivors := make([]*cluster, 0, len(clusters))
		for c := range clusters {
			merged := reduce.NewMean(r.set.Dim(), r.set.Len()/len(clusters)+1, r.opts.Summation)
			for _, p := range parts {
				merged.Merge(p.means[c])
			}
			if merged.Count() == 0 || merged.Count() < r.cfg.MinMembers {
				continue
			}
			center, err := merged.Mean()
			if err != nil {
				h(nil, err)
				return
			}
			keep = append(keep, c)
			survivors = append(survivors, &cluster{center: center, size: merged.Count()})
		}
		if len(survivors) == 0 {
			h(nil, fmt.Errorf("%w: all %d clusters have fewer than %d members", engine.ErrEmptyCluster, len(clusters), max(r.cfg.MinMembers, 1)))
			return
		}

		for _, p := range parts {
			p.keep(keep)
		}
		h(survivors, nil)
	})
}

type measurement struct {
	dists []reduce.Sum
	devs  []*reduce.Deviation
}

// measure computes the average member distance and the deviation of every
// cluster around its center and returns the global average distance.
func (r *run) measure(clusters []*cluster, h async.Handler[float64]) {
	engine.EachPartition(r.ex, r.sets(), func(i int, part points.Set) (measurement, error) {
		p := r.parts[i]
		m := measurement{
			dists: make([]reduce.Sum, len(clusters)),
			devs:  make([]*reduce.Deviation, len(clusters)),
		}
		off := part.Offset()
		for c, cl := range clusters {
			expected := int(p.members[c].GetCardinality())
			m.dists[c] = r.opts.Summation(expected)
			m.devs[c] = reduce.NewDeviation(cl.center, expected, r.opts.Summation)

			it := p.members[c].Iterator()
			for it.HasNext() {
				pt := part.At(int(it.Next()) - off)
				m.dists[c].Add(r.dist(pt, cl.center))
				m.devs[c].Add(pt)
			}
		}
		return m, nil
	}, func(ms []measurement, err error) {
		if err != nil {
			h(0, err)
			return
		}

		total := r.opts.Summation(r.set.Len())
		members := 0
		for c, cl := range clusters {
			dist := r.opts.Summation(cl.size)
			dev := reduce.NewDeviation(cl.center, cl.size, r.opts.Summation)
			for _, m := range ms {
				dist.Merge(m.dists[c])
				dev.Merge(m.devs[c])
			}
			deviation, err := dev.Deviation()
			if err != nil {
				h(0, err)
				return
			}
			cl.avgDist = dist.Value() / float64(cl.size)
			cl.deviation = deviation
			total.Merge(dist)
			members += cl.size
		}
		h(total.Value()/float64(members), nil)
	})
}

func (r *run) result(iteration int, clusters []*cluster, global float64) *Result {
	res := &Result{
		Clusters:    make([]Cluster, len(clusters)),
		AvgDistance: global,
		Iterations:  iteration,
	}
	for c, cl := range clusters {
		res.Clusters[c] = Cluster{
			Center:      cl.center,
			Size:        cl.size,
			AvgDistance: cl.avgDist,
			Deviation:   cl.deviation,
		}
		if r.cfg.KeepMembers {
			bms := make([]*roaring.Bitmap, len(r.parts))
			for i, p := range r.parts {
				bms[i] = p.members[c]
			}
			res.Clusters[c].Members = roaring.FastOr(bms...)
		}
	}
	return res
}

func (p *partition) reset(k, dim int, s reduce.Summation) {
	expected := p.set.Len()/k + 1
	for len(p.members) < k {
		p.members = append(p.members, roaring.New())
		p.means = append(p.means, reduce.NewMean(dim, expected, s))
	}
	p.members, p.means = p.members[:k], p.means[:k]
	for c := range p.members {
		p.members[c].Clear()
		p.means[c].Clear()
	}
}

// keep retains the state of the listed clusters, in order.
func (p *partition) keep(clusters []int) {
	members := make([]*roaring.Bitmap, len(clusters))
	means := make([]*reduce.Mean, len(clusters))
	for i, c := range clusters {
		members[i], means[i] = p.members[c], p.means[c]
	}
	p.members, p.means = members, means
}

type distributor struct {
	p *partition
}

func (d *distributor) Point(center, index int, p []float64, _ float64) {
	d.p.members[center].Add(uint32(index))
	d.p.means[center].Add(p)
}

func (d *distributor) Bulk(center int, s points.Subset) {
	for j := 0; j < s.Len(); j++ {
		d.p.members[center].Add(uint32(s.Index(j)))
		d.p.means[center].Add(s.At(j))
	}
}
