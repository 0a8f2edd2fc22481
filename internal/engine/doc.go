// Package engine holds the plumbing shared by the clustering algorithms:
// the error taxonomy, run options, point-set partitioning, partition-parallel
// fan-out and throttled progress logging.
//
// A run partitions its point set once into one part per executor worker.
// Every parallel step then maps over the partitions with EachPartition, each
// unit writing only partition-private state, and reduces the results inside
// the single join continuation.
package engine
