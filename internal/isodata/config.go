package isodata

import (
	"fmt"
	"math"

	"github.com/hupe1980/geoclust/internal/engine"
)

// Config configures an ISODATA run.
type Config struct {
	// Clusters is the desired number of clusters (K).
	Clusters int
	// InitialClusters is the number of randomly drawn starting centers.
	// Zero means Clusters.
	InitialClusters int
	MaxIterations   int
	// MinMembers discards clusters with fewer members (theta_N).
	MinMembers int
	// MaxDeviation is the standard deviation above which a cluster may be
	// split (theta_S).
	MaxDeviation float64
	// LumpThreshold is the center distance below which clusters are lumped
	// in the first iteration (theta_C).
	LumpThreshold float64
	// LumpDecay scales the lump threshold once per iteration.
	LumpDecay float64
	// MaxMerges caps the merges per lump round. Zero means unbounded.
	MaxMerges int
	// KeepMembers returns the member set of every cluster.
	KeepMembers bool
}

// DefaultConfig returns a configuration for k clusters.
func DefaultConfig(k int) Config {
	return Config{
		Clusters:      k,
		MaxIterations: 20,
		MinMembers:    1,
		MaxDeviation:  1,
		LumpThreshold: 1,
		LumpDecay:     1,
	}
}

func (c Config) initial() int {
	if c.InitialClusters == 0 {
		return c.Clusters
	}
	return c.InitialClusters
}

// Validate checks the configuration against a point set of n points.
func (c Config) Validate(n int) error {
	switch {
	case c.Clusters < 1:
		return engine.Invalid("clusters", "must be at least 1, got %d", c.Clusters)
	case c.InitialClusters < 0:
		return engine.Invalid("initial_clusters", "must not be negative, got %d", c.InitialClusters)
	case c.MaxIterations < 1:
		return engine.Invalid("max_iterations", "must be at least 1, got %d", c.MaxIterations)
	case c.MinMembers < 0:
		return engine.Invalid("min_members", "must not be negative, got %d", c.MinMembers)
	case !(c.MaxDeviation >= 0):
		return engine.Invalid("max_deviation", "must not be negative, got %v", c.MaxDeviation)
	case !(c.LumpThreshold >= 0):
		return engine.Invalid("lump_threshold", "must not be negative, got %v", c.LumpThreshold)
	case !(c.LumpDecay > 0 && c.LumpDecay <= 1):
		return engine.Invalid("lump_decay", "must be in (0, 1], got %v", c.LumpDecay)
	case c.MaxMerges < 0:
		return engine.Invalid("max_merges", "must not be negative, got %d", c.MaxMerges)
	case int64(n) > math.MaxUint32:
		return engine.Invalid("points", "at most %d points are supported, got %d", uint32(math.MaxUint32), n)
	case n < c.initial():
		return fmt.Errorf("%w: %d points for %d initial clusters", engine.ErrTooFewPoints, n, c.initial())
	}
	return nil
}

// lumpThreshold returns the lump threshold of the given 1-based iteration.
func (c Config) lumpThreshold(iteration int) float64 {
	return c.LumpThreshold * math.Pow(c.LumpDecay, float64(iteration-1))
}
