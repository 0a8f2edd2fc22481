// Package async implements the completion primitive the clustering engines are
// composed from.
//
// A Step is an asynchronous unit of work that reports its outcome to a Handler
// exactly once: either a value or an error, never both, never zero times. Steps
// are composed with ordinary higher-order functions:
//
//	Map       transform a completed value, forwarding failures unchanged
//	Then      sequence two steps
//	ForkJoin  run N steps, collect results in submission order, continue once
//	Dispatch  move a continuation onto the executor to bound stack depth
//
// No step blocks a worker while waiting for another step. Wait is the only
// blocking bridge and is meant for public entry points.
//
// Cancellation is cooperative: engines call Checkpoint at every iteration
// boundary and fail with ErrCanceled when the run's context is done.
package async
