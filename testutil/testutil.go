package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/points"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// UniformPoints generates num points with coordinates in [0, 1).
func (r *RNG) UniformPoints(num, dim int) *points.Flat {
	return r.UniformRangePoints(num, dim, 0, 1)
}

// UniformRangePoints generates num points with coordinates in [minVal, maxVal).
func (r *RNG) UniformRangePoints(num, dim int, minVal, maxVal float64) *points.Flat {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := maxVal - minVal
	data := make([]float64, num*dim)
	for i := range data {
		data[i] = minVal + r.rand.Float64()*span
	}
	return mustFlat(data, dim)
}

// PixelPoints generates num points whose coordinates are integer channel values
// in [0, 256), the way decoded 8-bit image pixels look. Duplicates are common.
func (r *RNG) PixelPoints(num, channels int) *points.Flat {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*channels)
	for i := range data {
		data[i] = float64(r.rand.Intn(256))
	}
	return mustFlat(data, channels)
}

// ModePoints generates a 1-D set with perMode points drawn from a normal
// distribution with standard deviation sigma around each mode. Points of all
// modes are interleaved.
func (r *RNG) ModePoints(modes []float64, perMode int, sigma float64) *points.Flat {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, 0, len(modes)*perMode)
	for i := 0; i < perMode; i++ {
		for _, m := range modes {
			data = append(data, m+r.rand.NormFloat64()*sigma)
		}
	}
	return mustFlat(data, 1)
}

// ClusteredPoints generates num points around the given centers with Gaussian
// noise of standard deviation spread. Point i belongs to center i%len(centers).
func (r *RNG) ClusteredPoints(num int, centers [][]float64, spread float64) *points.Flat {
	r.mu.Lock()
	defer r.mu.Unlock()

	dim := len(centers[0])
	data := make([]float64, num*dim)
	for i := 0; i < num; i++ {
		c := centers[i%len(centers)]
		for j := 0; j < dim; j++ {
			data[i*dim+j] = c[j] + r.rand.NormFloat64()*spread
		}
	}
	return mustFlat(data, dim)
}

// ExactAssign returns the nearest center and its distance for every point of
// s by brute force.
func ExactAssign(s points.Set, centers [][]float64, fn distance.Func) ([]int, []float64) {
	assign := make([]int, s.Len())
	dists := make([]float64, s.Len())
	for i := range assign {
		assign[i], dists[i] = distance.Nearest(s.At(i), centers, fn)
	}
	return assign, dists
}

func mustFlat(data []float64, dim int) *points.Flat {
	f, err := points.NewFlat(data, dim)
	if err != nil {
		panic(err)
	}
	return f
}
