// Package kmeans implements Lloyd's K-Means on partitioned point sets.
//
// Every iteration classifies all partitions in parallel into private mean
// accumulators, merges them in the join step and derives the next centers.
// Centers that collected no points are dropped and replaced by the configured
// ReplaceStrategy chain; the first strategy that produces a center wins.
// The run stops when the error improves by less than the configured fraction
// or the iteration cap is reached.
package kmeans
