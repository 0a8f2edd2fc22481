package kdtree

import (
	"math"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/points"
)

// DefaultLeafSize is the maximum number of points stored in a leaf.
const DefaultLeafSize = 16

// pruneSlack keeps candidates whose lower bound exceeds the best upper bound
// only by rounding noise.
const pruneSlack = 1e-12

var _ points.Set = (*Tree)(nil)

// Tree is a k-d tree over a base set. It implements points.Set.
type Tree struct {
	base     points.Set
	perm     []int
	root     *node
	leafSize int
}

type node struct {
	from, to    int
	lo, hi      []float64
	left, right *node
}

func (n *node) leaf() bool { return n.left == nil }

// New builds a tree over base. Points are referenced, never copied.
// If leafSize <= 0, DefaultLeafSize is used.
func New(base points.Set, leafSize int) *Tree {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	perm := make([]int, base.Len())
	for i := range perm {
		perm[i] = i
	}
	t := &Tree{base: base, perm: perm, leafSize: leafSize}
	if len(perm) > 0 {
		t.root = t.build(0, len(perm))
	}
	return t
}

func (t *Tree) build(from, to int) *node {
	dim := t.base.Dim()
	n := &node{
		from: from,
		to:   to,
		lo:   make([]float64, dim),
		hi:   make([]float64, dim),
	}
	copy(n.lo, t.base.At(t.perm[from]))
	copy(n.hi, n.lo)
	for _, i := range t.perm[from+1 : to] {
		for d, x := range t.base.At(i) {
			n.lo[d] = math.Min(n.lo[d], x)
			n.hi[d] = math.Max(n.hi[d], x)
		}
	}

	axis, spread := 0, 0.0
	for d := range n.lo {
		if s := n.hi[d] - n.lo[d]; s > spread {
			axis, spread = d, s
		}
	}
	if to-from <= t.leafSize || spread == 0 {
		return n
	}

	split := MedianSplit(t.perm, from, to, func(a, b int) bool {
		return t.base.At(a)[axis] < t.base.At(b)[axis]
	})
	n.left = t.build(from, split)
	n.right = t.build(split, to)
	return n
}

// Len implements points.Set.
func (t *Tree) Len() int { return t.base.Len() }

// Dim implements points.Set.
func (t *Tree) Dim() int { return t.base.Dim() }

// At implements points.Set.
func (t *Tree) At(i int) []float64 { return t.base.At(i) }

// Offset implements points.Set.
func (t *Tree) Offset() int { return t.base.Offset() }

// Split implements points.Set. Each part gets its own tree.
func (t *Tree) Split(n int) []points.Set {
	parts := t.base.Split(n)
	for i, p := range parts {
		parts[i] = New(p, t.leafSize)
	}
	return parts
}

// Depth returns the number of levels of the tree (0 for an empty tree).
func (t *Tree) Depth() int {
	var depth func(n *node) int
	depth = func(n *node) int {
		if n == nil {
			return 0
		}
		return 1 + max(depth(n.left), depth(n.right))
	}
	return depth(t.root)
}

// Classify implements points.Set.
func (t *Tree) Classify(centers [][]float64, m distance.Metric, v points.Visitor) error {
	if len(centers) == 0 {
		return points.ErrNoCenters
	}
	fn, err := distance.Provider(m)
	if err != nil {
		return err
	}
	if t.root == nil {
		return nil
	}
	cand := make([]int, len(centers))
	for i := range cand {
		cand[i] = i
	}
	c := classifier{tree: t, centers: centers, metric: m, fn: fn, visitor: v}
	return c.visit(t.root, cand)
}

type classifier struct {
	tree    *Tree
	centers [][]float64
	metric  distance.Metric
	fn      distance.Func
	visitor points.Visitor
	near    []float64
}

func (c *classifier) visit(n *node, cand []int) error {
	keep, err := c.filter(n, cand)
	if err != nil {
		return err
	}

	if len(keep) == 1 {
		c.visitor.Bulk(keep[0], points.Subset{Set: c.tree.base, Local: c.tree.perm[n.from:n.to]})
		return nil
	}

	if n.leaf() {
		off := c.tree.base.Offset()
		for _, i := range c.tree.perm[n.from:n.to] {
			p := c.tree.base.At(i)
			best, bestDist := -1, math.Inf(1)
			for _, ci := range keep {
				if d := c.fn(p, c.centers[ci]); best < 0 || d < bestDist {
					best, bestDist = ci, d
				}
			}
			c.visitor.Point(best, off+i, p, bestDist)
		}
		return nil
	}

	if err := c.visit(n.left, keep); err != nil {
		return err
	}
	return c.visit(n.right, keep)
}

// filter drops candidates that are strictly farther than another candidate
// from every point of n's box. The relative order of cand is preserved.
func (c *classifier) filter(n *node, cand []int) ([]int, error) {
	if cap(c.near) < len(cand) {
		c.near = make([]float64, len(cand))
	}
	near := c.near[:len(cand)]

	bestFar := math.Inf(1)
	for i, ci := range cand {
		lo, far, err := distance.BoxBounds(c.metric, c.centers[ci], n.lo, n.hi)
		if err != nil {
			return nil, err
		}
		near[i] = lo
		bestFar = math.Min(bestFar, far)
	}

	limit := bestFar + pruneSlack*math.Max(1, math.Abs(bestFar))
	keep := make([]int, 0, len(cand))
	for i, ci := range cand {
		if near[i] <= limit {
			keep = append(keep, ci)
		}
	}
	return keep, nil
}
