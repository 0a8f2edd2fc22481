package kmeans

import (
	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/reduce"
	"github.com/hupe1980/geoclust/points"
)

func (r *run) initialCenters(h async.Handler[[][]float64]) {
	switch r.cfg.Init {
	case InitPlusPlus:
		r.plusPlus(h)
	default:
		h(engine.RandomCenters(r.set, r.cfg.Clusters, r.cfg.MaxIterations*r.cfg.Clusters, r.opts.Rand))
	}
}

// plusPlus seeds centers with k-means++: every further center is drawn with
// probability proportional to the squared distance to its nearest chosen
// center.
func (r *run) plusPlus(h async.Handler[[][]float64]) {
	sets := r.sets()
	nearest := make([][]float64, len(sets))
	for i, s := range sets {
		nearest[i] = make([]float64, s.Len())
	}

	first := r.set.At(r.opts.Rand.Intn(r.set.Len()))
	r.seed([][]float64{engine.Clone(first)}, sets, nearest, h)
}

func (r *run) seed(centers [][]float64, sets []points.Set, nearest [][]float64, h async.Handler[[][]float64]) {
	if len(centers) == r.cfg.Clusters {
		h(centers, nil)
		return
	}

	last := centers[len(centers)-1]
	engine.EachPartition(r.ex, sets, func(i int, part points.Set) (float64, error) {
		sum := r.opts.Summation(part.Len())
		for j := 0; j < part.Len(); j++ {
			d := r.dist(part.At(j), last)
			w := d * d
			if len(centers) == 1 || w < nearest[i][j] {
				nearest[i][j] = w
			}
			sum.Add(nearest[i][j])
		}
		return sum.Value(), nil
	}, func(weights []float64, err error) {
		if err != nil {
			h(nil, err)
			return
		}
		p := r.pick(weights, sets, nearest)
		if p == nil {
			h(nil, engine.ErrInitialCenters)
			return
		}
		async.Dispatch(r.ex, func(centers [][]float64, _ error) {
			r.seed(centers, sets, nearest, h)
		})(append(centers, engine.Clone(p)), nil)
	})
}

// pick draws a point with probability proportional to its weight. It returns
// nil when all weights are zero.
func (r *run) pick(weights []float64, sets []points.Set, nearest [][]float64) []float64 {
	total := reduce.Naive(len(weights))
	for _, w := range weights {
		total.Add(w)
	}
	if total.Value() <= 0 {
		return nil
	}

	target := r.opts.Rand.Float64() * total.Value()
	var last []float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if target >= w {
			target -= w
			continue
		}
		for j, nw := range nearest[i] {
			if nw <= 0 {
				continue
			}
			last = sets[i].At(j)
			if target < nw {
				return last
			}
			target -= nw
		}
	}
	// Rounding left target past the last positive weight.
	if last == nil {
		for i := len(sets) - 1; i >= 0 && last == nil; i-- {
			for j := len(nearest[i]) - 1; j >= 0; j-- {
				if nearest[i][j] > 0 {
					last = sets[i].At(j)
					break
				}
			}
		}
	}
	return last
}
