package geoclust

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
)

var (
	// ErrInvalidConfig is returned for invalid run parameters. Use errors.As
	// with *ConfigError to get the offending field.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTooFewPoints is returned when the point set is too small for the
	// requested clusters.
	ErrTooFewPoints = errors.New("too few points")

	// ErrInitialCenters is returned when distinct initial centers could not be
	// drawn within the retry budget.
	ErrInitialCenters = errors.New("cannot select initial centers")

	// ErrEmptyCluster is returned when clusters became empty and no recovery
	// strategy could replace them.
	ErrEmptyCluster = errors.New("empty cluster")

	// ErrCanceled is returned when the context was canceled before the run
	// finished. The context's error is wrapped as well.
	ErrCanceled = errors.New("canceled")

	// ErrInternal is returned when a parallel step panicked. Use errors.As with
	// *PanicError for the panic value and stack.
	ErrInternal = errors.New("internal error")
)

// ConfigError describes an invalid configuration field.
type ConfigError = engine.ConfigError

// PanicError carries a panic raised inside a parallel step.
type PanicError = async.PanicError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, engine.ErrCanceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	case errors.Is(err, engine.ErrInvalidConfig):
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	case errors.Is(err, engine.ErrTooFewPoints):
		return fmt.Errorf("%w: %w", ErrTooFewPoints, err)
	case errors.Is(err, engine.ErrInitialCenters):
		return fmt.Errorf("%w: %w", ErrInitialCenters, err)
	case errors.Is(err, engine.ErrEmptyCluster):
		return fmt.Errorf("%w: %w", ErrEmptyCluster, err)
	}

	var pe *async.PanicError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return err
}
