package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/hupe1980/geoclust/internal/executor"
)

var (
	// ErrCanceled is returned when a run observes a canceled context at an
	// iteration boundary.
	ErrCanceled = errors.New("canceled")

	// ErrCompletedTwice is the panic value raised when a handler guarded by Once
	// is invoked a second time.
	ErrCompletedTwice = errors.New("async: handler completed twice")
)

// Handler receives the outcome of a Step.
type Handler[T any] func(T, error)

// Step is an asynchronous unit. It must invoke its handler exactly once,
// possibly on another goroutine and possibly after returning.
type Step[T any] func(Handler[T])

// PanicError carries a panic raised inside a step before it completed.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("step panicked: %v", e.Value)
}

// Once guards h so that a second invocation panics with ErrCompletedTwice.
func Once[T any](h Handler[T]) Handler[T] {
	var done atomic.Bool
	return func(v T, err error) {
		if !done.CompareAndSwap(false, true) {
			panic(ErrCompletedTwice)
		}
		h(v, err)
	}
}

// Succeed returns a step that completes immediately with v.
func Succeed[T any](v T) Step[T] {
	return func(h Handler[T]) { h(v, nil) }
}

// Fail returns a step that fails immediately with err.
func Fail[T any](err error) Step[T] {
	return func(h Handler[T]) {
		var zero T
		h(zero, err)
	}
}

// Map returns a handler that passes completed values through f before
// handing them to h. Failures reach h unchanged and f is not called.
func Map[T, U any](h Handler[U], f func(T) (U, error)) Handler[T] {
	return func(v T, err error) {
		if err != nil {
			var zero U
			h(zero, err)
			return
		}
		u, err := f(v)
		h(u, err)
	}
}

// Then sequences s and f: once s completes with a value, f is started with it
// and its outcome becomes the outcome of the returned step.
func Then[T, U any](s Step[T], f func(T, Handler[U])) Step[U] {
	return func(h Handler[U]) {
		s(func(v T, err error) {
			if err != nil {
				var zero U
				h(zero, err)
				return
			}
			f(v, h)
		})
	}
}

// Dispatch returns a handler that reschedules the call to h on ex. Iterative
// loops use it between iterations so the chain does not grow the stack.
func Dispatch[T any](ex executor.Executor, h Handler[T]) Handler[T] {
	return func(v T, err error) {
		ex.Execute(func() { h(v, err) })
	}
}

// Go starts s on ex. A panic inside s before it completes is delivered to h
// as a *PanicError.
func Go[T any](ex executor.Executor, s Step[T], h Handler[T]) {
	ex.Execute(func() { run(s, h) })
}

// Checkpoint reports ErrCanceled if ctx is done.
func Checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return nil
}

// Wait starts s on the calling goroutine and blocks until it completes.
func Wait[T any](s Step[T]) (T, error) {
	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	run(s, func(v T, err error) {
		ch <- outcome{v: v, err: err}
	})
	o := <-ch
	return o.v, o.err
}

// run invokes s with a guarded handler and converts a panic raised before
// completion into a failure. Panics raised after completion belong to the
// downstream continuation and are re-raised.
func run[T any](s Step[T], h Handler[T]) {
	var done atomic.Bool
	guarded := func(v T, err error) {
		if !done.CompareAndSwap(false, true) {
			panic(ErrCompletedTwice)
		}
		h(v, err)
	}

	defer func() {
		if r := recover(); r != nil {
			if done.CompareAndSwap(false, true) {
				var zero T
				h(zero, &PanicError{Value: r, Stack: debug.Stack()})
				return
			}
			panic(r)
		}
	}()

	s(guarded)
}
