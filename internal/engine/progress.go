package engine

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Progress reports finished iterations: always to the iteration hook, and to
// the logger at debug level at most once per interval.
type Progress struct {
	logger    *slog.Logger
	hook      func(Iteration)
	algorithm string
	sometimes rate.Sometimes
}

// NewProgress returns a Progress for algorithm configured from o.
func NewProgress(algorithm string, o Options) *Progress {
	interval := o.LogInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Progress{
		logger:    o.Logger,
		hook:      o.OnIteration,
		algorithm: algorithm,
		sometimes: rate.Sometimes{First: 1, Interval: interval},
	}
}

// Iteration records a finished iteration.
func (p *Progress) Iteration(ctx context.Context, it Iteration) {
	it.Algorithm = p.algorithm
	if p.hook != nil {
		p.hook(it)
	}
	if p.logger == nil {
		return
	}
	p.sometimes.Do(func() {
		p.logger.DebugContext(ctx, "iteration finished",
			slog.String("algorithm", it.Algorithm),
			slog.Int("iteration", it.Number),
			slog.Int("clusters", it.Clusters),
			slog.Float64("error", it.Error),
		)
	})
}

// Done logs the end of a run at debug level.
func (p *Progress) Done(ctx context.Context, iterations int, converged bool) {
	if p.logger == nil {
		return
	}
	p.logger.DebugContext(ctx, "run finished",
		slog.String("algorithm", p.algorithm),
		slog.Int("iterations", iterations),
		slog.Bool("converged", converged),
	)
}
