package async

import (
	"sync/atomic"

	"github.com/hupe1980/geoclust/internal/executor"
)

// ForkJoin runs all units and hands their results to h in submission order.
//
// With a single-worker executor the units run one after another on the calling
// goroutine; a unit that suspends resumes the sequence from its own
// completion. Otherwise every unit is scheduled on ex.
//
// The first failure is delivered to h immediately. Units still in flight run
// to completion but their results are discarded. h is invoked exactly once.
func ForkJoin[T any](ex executor.Executor, units []Step[T], h Handler[[]T]) {
	if len(units) == 0 {
		h([]T{}, nil)
		return
	}
	if ex.Workers() == 1 || len(units) == 1 {
		forkJoinSequential(units, h)
		return
	}
	forkJoinParallel(ex, units, h)
}

func forkJoinSequential[T any](units []Step[T], h Handler[[]T]) {
	results := make([]T, len(units))

	// Unit states: running, completed before run returned, or suspended.
	const (
		running int32 = iota
		inline
		suspended
	)

	var from func(start int)
	from = func(start int) {
		for i := start; i < len(units); i++ {
			var (
				state   atomic.Int32
				unitErr error
			)
			idx := i
			run(units[idx], func(v T, err error) {
				results[idx], unitErr = v, err
				if state.CompareAndSwap(running, inline) {
					return
				}
				if err != nil {
					h(nil, err)
					return
				}
				from(idx + 1)
			})
			if state.CompareAndSwap(running, suspended) {
				return
			}
			if unitErr != nil {
				h(nil, unitErr)
				return
			}
		}
		h(results, nil)
	}
	from(0)
}

func forkJoinParallel[T any](ex executor.Executor, units []Step[T], h Handler[[]T]) {
	results := make([]T, len(units))

	var (
		remaining atomic.Int64
		failed    atomic.Bool
	)
	remaining.Store(int64(len(units)))

	for i := range units {
		idx := i
		ex.Execute(func() {
			run(units[idx], func(v T, err error) {
				if err != nil {
					if failed.CompareAndSwap(false, true) {
						h(nil, err)
					}
					return
				}
				results[idx] = v
				if remaining.Add(-1) == 0 && !failed.Load() {
					h(results, nil)
				}
			})
		})
	}
}
