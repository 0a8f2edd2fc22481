// Package distance provides the distance functions used for nearest-center
// resolution.
//
// # Supported Metrics
//
//   - MetricEuclidean: L2 distance (default)
//   - MetricSquaredEuclidean: squared L2 distance, same ordering as L2
//   - MetricManhattan: L1 distance
//   - MetricChebyshev: L-infinity distance
//
// Every metric also provides BoxBounds, the minimum and maximum distance from a
// point to an axis-aligned box, which lets spatial indexes prune centers
// exactly.
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricEuclidean)
//	d := fn(a, b)
//	idx, d := distance.Nearest(p, centers, fn)
package distance
