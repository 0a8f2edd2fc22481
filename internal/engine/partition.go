package engine

import (
	"fmt"

	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/internal/kdtree"
	"github.com/hupe1980/geoclust/points"
)

// IndexMode selects how partitions classify their points.
type IndexMode int

const (
	// IndexAuto uses a k-d tree when there are many points per cluster and the
	// dimension is low.
	IndexAuto IndexMode = iota
	// IndexBrute compares every point against every center.
	IndexBrute
	// IndexKDTree always builds a k-d tree per partition.
	IndexKDTree
)

const (
	autoPointsPerCluster = 32
	autoMaxDim           = 8
)

func (m IndexMode) String() string {
	switch m {
	case IndexAuto:
		return "auto"
	case IndexBrute:
		return "brute"
	case IndexKDTree:
		return "kdtree"
	default:
		return fmt.Sprintf("IndexMode(%d)", m)
	}
}

// ParseIndexMode parses the String form of an IndexMode.
func ParseIndexMode(s string) (IndexMode, error) {
	for _, m := range []IndexMode{IndexAuto, IndexBrute, IndexKDTree} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, Invalid("index", "unknown mode %q", s)
}

// UseTree reports whether mode resolves to a k-d tree for n points of dimension
// dim and the given cluster count.
func (m IndexMode) UseTree(n, dim, clusters int) bool {
	switch m {
	case IndexKDTree:
		return true
	case IndexBrute:
		return false
	default:
		return dim <= autoMaxDim && clusters*autoPointsPerCluster < n
	}
}

// Partition splits set into one part per executor worker. When the index mode
// asks for it, every part is wrapped in a k-d tree; the trees are built in
// parallel.
func Partition(ex executor.Executor, set points.Set, clusters int, o Options) async.Step[[]points.Set] {
	return func(h async.Handler[[]points.Set]) {
		parts := set.Split(ex.Workers())
		if _, indexed := set.(*kdtree.Tree); indexed || !o.Index.UseTree(set.Len(), set.Dim(), clusters) {
			h(parts, nil)
			return
		}

		EachPartition(ex, parts, func(_ int, part points.Set) (points.Set, error) {
			return kdtree.New(part, o.LeafSize), nil
		}, h)
	}
}

// EachPartition runs fn once per part through ForkJoin and hands the results
// to h in partition order. fn must only touch state private to its partition.
func EachPartition[T any](ex executor.Executor, parts []points.Set, fn func(i int, part points.Set) (T, error), h async.Handler[[]T]) {
	units := make([]async.Step[T], len(parts))
	for i, part := range parts {
		units[i] = func(h async.Handler[T]) {
			h(fn(i, part))
		}
	}
	async.ForkJoin(ex, units, h)
}
