// Package executor provides the execution surface the clustering engines run on.
//
// An Executor reports how many workers exist and accepts units of work to run
// at some point. Two implementations are provided:
//
//   - Sequential: a single worker that runs tasks on the submitting goroutine.
//     Tasks submitted while a task is running are queued and drained in a loop,
//     so long continuation chains do not grow the call stack.
//   - Pool: a bounded pool where each task runs on its own goroutine after
//     acquiring one of Workers() semaphore slots.
//
// Panics raised by a task are recovered and logged; they never tear down the
// scheduler. Callers that need the panic routed to a continuation wrap their
// work with async.Go.
package executor
