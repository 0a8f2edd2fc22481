package engine

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/geoclust/points"
)

// RandomCenters draws k points of set that are pairwise distinct by value,
// uniformly at random. At most budget draws are made before failing with
// ErrInitialCenters. The returned centers are copies.
func RandomCenters(set points.Set, k, budget int, rng *rand.Rand) ([][]float64, error) {
	centers := make([][]float64, 0, k)
	n := set.Len()
	for draws := 0; len(centers) < k; draws++ {
		if draws >= budget {
			return nil, ErrInitialCenters
		}
		p := set.At(rng.Intn(n))
		if Contains(centers, p) {
			continue
		}
		centers = append(centers, Clone(p))
	}
	return centers, nil
}

// Contains reports whether centers holds a vector equal to p.
func Contains(centers [][]float64, p []float64) bool {
	for _, c := range centers {
		if floats.Equal(c, p) {
			return true
		}
	}
	return false
}

// Clone returns a copy of v.
func Clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}
