package reduce

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrEmpty is returned when a statistic is requested from an accumulator that
// has not received any addends.
var ErrEmpty = errors.New("reduce: no addends")

// Mean accumulates the component-wise mean of vectors.
type Mean struct {
	sums     []Sum
	count    int
	expected int
}

// NewMean creates a mean accumulator for vectors of the given dimension.
// expected is a hint for the number of addends and is passed to s.
func NewMean(dim, expected int, s Summation) *Mean {
	sums := make([]Sum, dim)
	for i := range sums {
		sums[i] = s(expected)
	}
	return &Mean{sums: sums, expected: expected}
}

// Add accumulates v.
func (m *Mean) Add(v []float64) {
	for i, x := range v[:len(m.sums)] {
		m.sums[i].Add(x)
	}
	m.count++
}

// Merge adds the addends of o to m. Both must have the same dimension.
func (m *Mean) Merge(o *Mean) {
	if len(o.sums) != len(m.sums) {
		panic("reduce: dimension mismatch")
	}
	for i := range m.sums {
		m.sums[i].Merge(o.sums[i])
	}
	m.count += o.count
}

// Clear resets m for reuse.
func (m *Mean) Clear() {
	for _, s := range m.sums {
		s.Clear()
	}
	m.count = 0
}

// Count returns the number of accumulated vectors.
func (m *Mean) Count() int { return m.count }

// Expected returns the addend count hint m was created with.
func (m *Mean) Expected() int { return m.expected }

// Mean returns the mean vector.
func (m *Mean) Mean() ([]float64, error) {
	if m.count == 0 {
		return nil, ErrEmpty
	}
	out := make([]float64, len(m.sums))
	for i, s := range m.sums {
		out[i] = s.Value()
	}
	floats.Scale(1/float64(m.count), out)
	return out, nil
}

// Deviation accumulates the component-wise population standard deviation of
// vectors around a fixed reference mean.
type Deviation struct {
	mean  []float64
	sq    []Sum
	diff  []float64
	count int
}

// NewDeviation creates a deviation accumulator around mean.
func NewDeviation(mean []float64, expected int, s Summation) *Deviation {
	sq := make([]Sum, len(mean))
	for i := range sq {
		sq[i] = s(expected)
	}
	return &Deviation{
		mean: mean,
		sq:   sq,
		diff: make([]float64, len(mean)),
	}
}

// Add accumulates the squared deviation of v from the reference mean.
func (d *Deviation) Add(v []float64) {
	floats.SubTo(d.diff, v[:len(d.mean)], d.mean)
	for i, x := range d.diff {
		d.sq[i].Add(x * x)
	}
	d.count++
}

// Merge adds the addends of o to d. Both must share the reference mean
// dimension.
func (d *Deviation) Merge(o *Deviation) {
	if len(o.sq) != len(d.sq) {
		panic("reduce: dimension mismatch")
	}
	for i := range d.sq {
		d.sq[i].Merge(o.sq[i])
	}
	d.count += o.count
}

// Clear resets d for reuse. The reference mean is kept.
func (d *Deviation) Clear() {
	for _, s := range d.sq {
		s.Clear()
	}
	d.count = 0
}

// Count returns the number of accumulated vectors.
func (d *Deviation) Count() int { return d.count }

// Deviation returns the per-component standard deviation.
func (d *Deviation) Deviation() ([]float64, error) {
	if d.count == 0 {
		return nil, ErrEmpty
	}
	out := make([]float64, len(d.sq))
	for i, s := range d.sq {
		out[i] = math.Sqrt(s.Value() / float64(d.count))
	}
	return out, nil
}
