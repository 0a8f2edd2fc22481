package kmeans

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/points"
)

// replace tries the strategies starting at cfg.Replace[i] until one produces a
// center. Only ErrEmptyCluster falls through to the next strategy.
func (r *run) replace(centers [][]float64, i int, h async.Handler[[]float64]) {
	if i >= len(r.cfg.Replace) {
		h(nil, fmt.Errorf("%w: %d of %d centers left after recovery", engine.ErrEmptyCluster, len(centers), r.cfg.Clusters))
		return
	}

	next := func(c []float64, err error) {
		if errors.Is(err, engine.ErrEmptyCluster) {
			r.replace(centers, i+1, h)
			return
		}
		h(c, err)
	}

	switch r.cfg.Replace[i] {
	case ReplaceRandom:
		next(r.replaceRandom(centers))
	case ReplaceFarthest:
		r.replaceFarthest(centers, next)
	default:
		next(nil, engine.ErrEmptyCluster)
	}
}

func (r *run) replaceRandom(centers [][]float64) ([]float64, error) {
	n := r.set.Len()
	for try := 0; try < r.cfg.MaxIterations; try++ {
		p := r.set.At(r.opts.Rand.Intn(n))
		if !engine.Contains(centers, p) {
			return engine.Clone(p), nil
		}
	}
	return nil, engine.ErrEmptyCluster
}

type farthest struct {
	point []float64
	dist  float64
}

// replaceFarthest picks the point whose nearest center is farthest away. Each
// partition reports its local candidate; the first partition wins ties.
func (r *run) replaceFarthest(centers [][]float64, h async.Handler[[]float64]) {
	engine.EachPartition(r.ex, r.sets(), func(_ int, part points.Set) (farthest, error) {
		var best farthest
		for i := 0; i < part.Len(); i++ {
			p := part.At(i)
			if _, d := distance.Nearest(p, centers, r.dist); d > best.dist {
				best = farthest{point: p, dist: d}
			}
		}
		return best, nil
	}, func(candidates []farthest, err error) {
		if err != nil {
			h(nil, err)
			return
		}
		var best farthest
		for _, c := range candidates {
			if c.dist > best.dist {
				best = c
			}
		}
		if best.point == nil {
			h(nil, engine.ErrEmptyCluster)
			return
		}
		h(engine.Clone(best.point), nil)
	})
}
