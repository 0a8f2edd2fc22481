package isodata

import (
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/geoclust/internal/engine"
)

// split replaces every cluster with a large spread by two clusters offset
// by its largest deviation component. It reports whether any cluster was split.
func (r *run) split(clusters []*cluster, global float64) ([]*cluster, bool) {
	count := len(clusters)
	few := count <= r.cfg.Clusters/2

	out := make([]*cluster, 0, 2*count)
	didSplit := false
	for _, cl := range clusters {
		j := floats.MaxIdx(cl.deviation)
		sigma := cl.deviation[j]

		large := cl.avgDist > global && cl.size > 2*(r.cfg.MinMembers+1)
		if !(sigma > r.cfg.MaxDeviation && (large || few)) {
			out = append(out, cl)
			continue
		}

		plus, minus := engine.Clone(cl.center), engine.Clone(cl.center)
		plus[j] += sigma
		minus[j] -= sigma
		out = append(out, &cluster{center: plus}, &cluster{center: minus})
		didSplit = true
	}
	return out, didSplit
}

type pair struct {
	a, b int
	dist float64
}

// lump merges clusters whose centers are closer than threshold, closest pairs
// first. A cluster takes part in at most one merge per round. The merged
// center is the member-weighted mean, with weights floored at one.
func (r *run) lump(clusters []*cluster, threshold float64) []*cluster {
	var pairs []pair
	for a := 0; a < len(clusters); a++ {
		for b := a + 1; b < len(clusters); b++ {
			if d := r.dist(clusters[a].center, clusters[b].center); d < threshold {
				pairs = append(pairs, pair{a: a, b: b, dist: d})
			}
		}
	}
	if len(pairs) == 0 {
		return clusters
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })

	consumed := make([]bool, len(clusters))
	merged := make(map[int]*cluster)
	for _, p := range pairs {
		if r.cfg.MaxMerges > 0 && len(merged) >= r.cfg.MaxMerges {
			break
		}
		if consumed[p.a] || consumed[p.b] {
			continue
		}
		consumed[p.a], consumed[p.b] = true, true
		merged[p.a] = combine(clusters[p.a], clusters[p.b])
	}

	out := make([]*cluster, 0, len(clusters)-len(merged))
	for i, cl := range clusters {
		switch {
		case merged[i] != nil:
			out = append(out, merged[i])
		case !consumed[i]:
			out = append(out, cl)
		}
	}
	return out
}

func combine(a, b *cluster) *cluster {
	wa, wb := float64(max(a.size, 1)), float64(max(b.size, 1))
	center := make([]float64, len(a.center))
	floats.ScaleTo(center, wa/(wa+wb), a.center)
	floats.AddScaled(center, wb/(wa+wb), b.center)
	return &cluster{center: center, size: a.size + b.size}
}
