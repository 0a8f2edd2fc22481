package distance

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Metric represents the distance metric used for vector comparison.
type Metric int

const (
	MetricEuclidean Metric = iota
	MetricSquaredEuclidean
	MetricManhattan
	MetricChebyshev
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "Euclidean"
	case MetricSquaredEuclidean:
		return "SquaredEuclidean"
	case MetricManhattan:
		return "Manhattan"
	case MetricChebyshev:
		return "Chebyshev"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}

// ParseMetric returns the metric whose String form equals name, ignoring case.
func ParseMetric(name string) (Metric, error) {
	for _, m := range []Metric{MetricEuclidean, MetricSquaredEuclidean, MetricManhattan, MetricChebyshev} {
		if strings.EqualFold(m.String(), name) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric: %q", name)
}

// Func is a function type for distance calculation.
// Implementations are pure and return non-negative values.
type Func func(a, b []float64) float64

// Euclidean calculates the L2 distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func Euclidean(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

// SquaredEuclidean calculates the squared L2 distance between two vectors.
func SquaredEuclidean(a, b []float64) float64 {
	var sum float64
	for i, x := range a {
		d := x - b[i]
		sum += d * d
	}
	return sum
}

// Manhattan calculates the L1 distance between two vectors.
func Manhattan(a, b []float64) float64 {
	return floats.Distance(a, b, 1)
}

// Chebyshev calculates the L-infinity distance between two vectors.
func Chebyshev(a, b []float64) float64 {
	return floats.Distance(a, b, math.Inf(1))
}

// Provider returns the distance function for the given metric.
func Provider(m Metric) (Func, error) {
	switch m {
	case MetricEuclidean:
		return Euclidean, nil
	case MetricSquaredEuclidean:
		return SquaredEuclidean, nil
	case MetricManhattan:
		return Manhattan, nil
	case MetricChebyshev:
		return Chebyshev, nil
	default:
		return nil, fmt.Errorf("unsupported metric: %v", m)
	}
}

// Nearest returns the index of the center closest to p and its distance.
// Ties keep the first center encountered: a later center replaces the incumbent
// only if it is strictly closer. Returns -1 if centers is empty.
func Nearest(p []float64, centers [][]float64, fn Func) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, c := range centers {
		if d := fn(p, c); best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// BoxBounds returns lower and upper bounds of the distance from p to any point
// inside the axis-aligned box [lo, hi] under metric m.
func BoxBounds(m Metric, p, lo, hi []float64) (minDist, maxDist float64, err error) {
	var near, far float64
	for i, x := range p {
		n := 0.0
		if x < lo[i] {
			n = lo[i] - x
		} else if x > hi[i] {
			n = x - hi[i]
		}
		f := math.Max(math.Abs(x-lo[i]), math.Abs(x-hi[i]))

		switch m {
		case MetricEuclidean, MetricSquaredEuclidean:
			near += n * n
			far += f * f
		case MetricManhattan:
			near += n
			far += f
		case MetricChebyshev:
			near = math.Max(near, n)
			far = math.Max(far, f)
		default:
			return 0, 0, fmt.Errorf("unsupported metric: %v", m)
		}
	}
	if m == MetricEuclidean {
		near, far = math.Sqrt(near), math.Sqrt(far)
	}
	return near, far, nil
}
