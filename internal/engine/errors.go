package engine

import (
	"errors"
	"fmt"

	"github.com/hupe1980/geoclust/internal/async"
)

var (
	// ErrInvalidConfig is returned when a run is configured with invalid
	// parameters. It is never retried.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTooFewPoints is returned when the point set cannot support the
	// requested number of clusters.
	ErrTooFewPoints = errors.New("too few points")

	// ErrInitialCenters is returned when the initial centers cannot be selected
	// within the retry budget.
	ErrInitialCenters = errors.New("cannot select initial centers")

	// ErrEmptyCluster is returned when a cluster lost all its points and no
	// configured recovery strategy could replace it.
	ErrEmptyCluster = errors.New("empty cluster")

	// ErrCanceled is returned when the run's context was canceled. It is
	// distinct from every convergence failure.
	ErrCanceled = async.ErrCanceled
)

// ConfigError describes an invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// Invalid returns a *ConfigError for field.
func Invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
