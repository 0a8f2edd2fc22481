// Package testutil provides testing utilities for geoclust.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic RNG, generators for synthetic point sets and a
// brute-force nearest-center reference.
//
// # Random Point Generation
//
//	rng := testutil.NewRNG(seed)
//	set := rng.UniformPoints(1000, 3)            // uniform [0, 1)
//	set = rng.ModePoints([]float64{0, 10}, 500, 0.5) // 1-D Gaussian modes
//	set = rng.PixelPoints(1000, 3)               // 8-bit channel values
//
// # Ground Truth
//
//	assign, dists := testutil.ExactAssign(set, centers, distance.Euclidean)
package testutil
