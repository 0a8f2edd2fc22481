package points

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geoclust/distance"
)

var (
	// ErrNoCenters is returned when classification is requested without centers.
	ErrNoCenters = errors.New("points: no centers")

	// ErrDimension is returned for malformed input dimensions.
	ErrDimension = errors.New("points: invalid dimension")
)

// Set is a finite, randomly indexable, partitionable collection of vectors.
type Set interface {
	// Len returns the number of points. It never changes.
	Len() int

	// Dim returns the dimension of every point.
	Dim() int

	// At returns the i-th point, 0 <= i < Len(). The slice must not be modified.
	At(i int) []float64

	// Offset returns the index of At(0) in the set this one was split from.
	// Visitors always receive indices relative to that root set.
	Offset() int

	// Split partitions the set into at most n contiguous parts whose sizes sum
	// to Len() and differ by at most one. Order is preserved.
	Split(n int) []Set

	// Classify reports the nearest center of every point to v.
	Classify(centers [][]float64, m distance.Metric, v Visitor) error
}

// Visitor receives classification results.
type Visitor interface {
	// Point reports that the point with root index index is nearest to center.
	Point(center, index int, p []float64, dist float64)

	// Bulk reports that every point of s is nearest to center.
	Bulk(center int, s Subset)
}

// Subset is a group of points of Set addressed by local index.
type Subset struct {
	Set   Set
	Local []int
}

// Len returns the number of points in the subset.
func (s Subset) Len() int { return len(s.Local) }

// At returns the j-th point of the subset.
func (s Subset) At(j int) []float64 { return s.Set.At(s.Local[j]) }

// Index returns the root index of the j-th point of the subset.
func (s Subset) Index(j int) int { return s.Set.Offset() + s.Local[j] }

// Points adapts fn to a Visitor. Bulk groups are expanded point by point with
// distances computed by dist against centers.
func Points(centers [][]float64, dist distance.Func, fn func(center, index int, p []float64, d float64)) Visitor {
	return &pointVisitor{centers: centers, dist: dist, fn: fn}
}

type pointVisitor struct {
	centers [][]float64
	dist    distance.Func
	fn      func(center, index int, p []float64, d float64)
}

func (v *pointVisitor) Point(center, index int, p []float64, dist float64) {
	v.fn(center, index, p, dist)
}

func (v *pointVisitor) Bulk(center int, s Subset) {
	c := v.centers[center]
	for j := 0; j < s.Len(); j++ {
		p := s.At(j)
		v.fn(center, s.Index(j), p, v.dist(p, c))
	}
}

// Flat is an in-memory Set backed by a row-major slice.
type Flat struct {
	data   []float64
	dim    int
	offset int
}

// NewFlat creates a set over data, interpreted as rows of dim values.
// data is not copied.
func NewFlat(data []float64, dim int) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrDimension, dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("%w: %d values are not a multiple of %d", ErrDimension, len(data), dim)
	}
	return &Flat{data: data, dim: dim}, nil
}

// FromRows copies rows into a new Flat set.
func FromRows(rows [][]float64) (*Flat, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrDimension)
	}
	dim := len(rows[0])
	data := make([]float64, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("%w: row %d has %d values, expected %d", ErrDimension, i, len(r), dim)
		}
		data = append(data, r...)
	}
	return NewFlat(data, dim)
}

// Len implements Set.
func (f *Flat) Len() int { return len(f.data) / f.dim }

// Dim implements Set.
func (f *Flat) Dim() int { return f.dim }

// At implements Set.
func (f *Flat) At(i int) []float64 {
	start := i * f.dim
	end := start + f.dim
	return f.data[start:end:end]
}

// Offset implements Set.
func (f *Flat) Offset() int { return f.offset }

// Data returns the backing slice.
func (f *Flat) Data() []float64 { return f.data }

// Split implements Set.
func (f *Flat) Split(n int) []Set {
	bounds := Ranges(f.Len(), n)
	parts := make([]Set, len(bounds))
	for i, r := range bounds {
		parts[i] = &Flat{
			data:   f.data[r[0]*f.dim : r[1]*f.dim : r[1]*f.dim],
			dim:    f.dim,
			offset: f.offset + r[0],
		}
	}
	return parts
}

// Classify implements Set by brute force.
func (f *Flat) Classify(centers [][]float64, m distance.Metric, v Visitor) error {
	return BruteForce(f, centers, m, v)
}

// BruteForce classifies every point of s against all centers.
func BruteForce(s Set, centers [][]float64, m distance.Metric, v Visitor) error {
	if len(centers) == 0 {
		return ErrNoCenters
	}
	fn, err := distance.Provider(m)
	if err != nil {
		return err
	}
	off := s.Offset()
	for i := 0; i < s.Len(); i++ {
		p := s.At(i)
		c, d := distance.Nearest(p, centers, fn)
		v.Point(c, off+i, p, d)
	}
	return nil
}

// Ranges splits [0, n) into at most parts contiguous half-open ranges whose
// sizes differ by at most one. It always returns at least one range.
func Ranges(n, parts int) [][2]int {
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = max(n, 1)
	}
	size, rem := n/parts, n%parts

	out := make([][2]int, parts)
	start := 0
	for i := range out {
		end := start + size
		if i < rem {
			end++
		}
		out[i] = [2]int{start, end}
		start = end
	}
	return out
}
