// Package reduce provides the numeric reductions used by the clustering
// engines: pluggable scalar summation and vector mean / standard-deviation
// accumulators.
//
// All accumulators can be merged, so each partition of a point set can be
// reduced independently and the partial results combined afterwards. Merging
// accumulator B into A yields the same state as feeding B's addends into A.
package reduce
