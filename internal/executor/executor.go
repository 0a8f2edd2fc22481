package executor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Executor schedules units of work.
type Executor interface {
	// Workers returns the number of workers available (always >= 1).
	Workers() int

	// Execute schedules task to run at some point. It may run before Execute
	// returns (Sequential) or on another goroutine (Pool).
	Execute(task func())
}

// Option configures an executor.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// New returns a Sequential executor for workers <= 1 and a Pool otherwise.
func New(workers int, opts ...Option) Executor {
	if workers <= 1 {
		return NewSequential(opts...)
	}
	return NewPool(workers, opts...)
}

// Sequential runs every task on the goroutine that submitted it.
//
// Execute called from within a running task enqueues and returns; the outermost
// Execute call drains the queue. This turns recursive continuation chains into
// a loop.
type Sequential struct {
	mu       sync.Mutex
	queue    []func()
	draining bool
	logger   *slog.Logger
}

// NewSequential creates a single-worker executor.
func NewSequential(opts ...Option) *Sequential {
	cfg := applyOptions(opts)
	return &Sequential{logger: cfg.logger}
}

// Workers implements Executor.
func (s *Sequential) Workers() int { return 1 }

// Execute implements Executor.
func (s *Sequential) Execute(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.queue = nil
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		runTask(next, s.logger)
	}
}

// Pool runs tasks on goroutines, at most Workers() at a time.
type Pool struct {
	workers int
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewPool creates a pool with the given number of workers.
// If workers <= 0, defaults to 1.
func NewPool(workers int, opts ...Option) *Pool {
	if workers <= 0 {
		workers = 1
	}
	cfg := applyOptions(opts)
	return &Pool{
		workers: workers,
		sem:     semaphore.NewWeighted(int64(workers)),
		logger:  cfg.logger,
	}
}

// Workers implements Executor.
func (p *Pool) Workers() int { return p.workers }

// Execute implements Executor. It never blocks the caller.
func (p *Pool) Execute(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		// Acquire with a background context only fails on cancellation.
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		runTask(task, p.logger)
	}()
}

// Wait blocks until every task submitted so far has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func runTask(task func(), logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Error("executor task panicked",
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
			}
		}
	}()
	task()
}

func applyOptions(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
