package geoclust

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with clustering-specific fields.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.NewTextHandler(io.Discard, nil))
}

// WithAlgorithm adds an algorithm field to the logger.
func (l *Logger) WithAlgorithm(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("algorithm", name),
	}
}

// WithClusters adds a clusters field to the logger.
func (l *Logger) WithClusters(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("clusters", k),
	}
}

// WithDimension adds a dimension field to the logger.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{
		Logger: l.Logger.With("dimension", dim),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogRun logs a finished clustering run.
func (l *Logger) LogRun(ctx context.Context, algorithm string, clusters, iterations int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clustering failed",
			"algorithm", algorithm,
			"clusters", clusters,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clustering completed",
			"algorithm", algorithm,
			"clusters", clusters,
			"iterations", iterations,
		)
	}
}

// LogSweep logs a finished cluster-count sweep.
func (l *Logger) LogSweep(ctx context.Context, minK, maxK int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "sweep failed",
			"min_k", minK,
			"max_k", maxK,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "sweep completed",
			"min_k", minK,
			"max_k", maxK,
		)
	}
}
