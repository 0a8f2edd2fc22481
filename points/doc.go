// Package points defines the point-set abstraction the clustering engines
// consume.
//
// A Set is a finite, zero-indexed, read-only collection of equally sized
// float64 vectors. Sets can be split into contiguous partitions, one per
// worker, and can classify their points against a list of centers, reporting
// each point's nearest center to a Visitor.
//
// Flat is the in-memory implementation backed by one row-major slice. Spatial
// indexes (see internal/kdtree) wrap a Set and provide the same contract with
// cheaper classification.
package points
