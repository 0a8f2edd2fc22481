package kmeans

import (
	"fmt"

	"github.com/hupe1980/geoclust/internal/engine"
)

// InitStrategy selects the initial centers.
type InitStrategy int

const (
	// InitRandom draws distinct points uniformly at random.
	InitRandom InitStrategy = iota
	// InitPlusPlus uses k-means++ seeding.
	InitPlusPlus
)

func (s InitStrategy) String() string {
	switch s {
	case InitRandom:
		return "random"
	case InitPlusPlus:
		return "plusplus"
	default:
		return fmt.Sprintf("InitStrategy(%d)", s)
	}
}

// ParseInitStrategy parses the String form of an InitStrategy.
func ParseInitStrategy(s string) (InitStrategy, error) {
	for _, v := range []InitStrategy{InitRandom, InitPlusPlus} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, engine.Invalid("init", "unknown strategy %q", s)
}

// ReplaceStrategy synthesizes a center for a cluster that lost all points.
type ReplaceStrategy int

const (
	// ReplaceError fails the run.
	ReplaceError ReplaceStrategy = iota
	// ReplaceRandom picks a random point that is not already a center.
	ReplaceRandom
	// ReplaceFarthest picks the point farthest from all current centers.
	ReplaceFarthest
)

func (s ReplaceStrategy) String() string {
	switch s {
	case ReplaceError:
		return "error"
	case ReplaceRandom:
		return "random"
	case ReplaceFarthest:
		return "farthest"
	default:
		return fmt.Sprintf("ReplaceStrategy(%d)", s)
	}
}

// ParseReplaceStrategy parses the String form of a ReplaceStrategy.
func ParseReplaceStrategy(s string) (ReplaceStrategy, error) {
	for _, v := range []ReplaceStrategy{ReplaceError, ReplaceRandom, ReplaceFarthest} {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, engine.Invalid("replace", "unknown strategy %q", s)
}

// Config configures a K-Means run.
type Config struct {
	Clusters      int
	MaxIterations int
	// ErrorLimit stops the run once newError >= previousError*ErrorLimit.
	ErrorLimit float64
	Init       InitStrategy
	// Replace is tried in order for every missing center. Empty means
	// ReplaceError.
	Replace []ReplaceStrategy
}

// DefaultConfig returns a configuration for k clusters.
func DefaultConfig(k int) Config {
	return Config{
		Clusters:      k,
		MaxIterations: 100,
		ErrorLimit:    0.99,
		Init:          InitRandom,
		Replace:       []ReplaceStrategy{ReplaceFarthest, ReplaceRandom},
	}
}

// Validate checks the configuration against a point set of n points.
func (c Config) Validate(n int) error {
	if c.Clusters < 2 {
		return engine.Invalid("clusters", "must be at least 2, got %d", c.Clusters)
	}
	if c.MaxIterations < 1 {
		return engine.Invalid("max_iterations", "must be at least 1, got %d", c.MaxIterations)
	}
	if !(c.ErrorLimit > 0 && c.ErrorLimit <= 1) {
		return engine.Invalid("error_limit", "must be in (0, 1], got %v", c.ErrorLimit)
	}
	if c.Init != InitRandom && c.Init != InitPlusPlus {
		return engine.Invalid("init", "unknown strategy %v", c.Init)
	}
	for _, r := range c.Replace {
		if r < ReplaceError || r > ReplaceFarthest {
			return engine.Invalid("replace", "unknown strategy %v", r)
		}
	}
	if n < c.Clusters {
		return fmt.Errorf("%w: %d points for %d clusters", engine.ErrTooFewPoints, n, c.Clusters)
	}
	return nil
}
