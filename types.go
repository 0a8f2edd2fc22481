package geoclust

import (
	"fmt"

	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/isodata"
	"github.com/hupe1980/geoclust/internal/kmeans"
	"github.com/hupe1980/geoclust/internal/otsu"
	"github.com/hupe1980/geoclust/internal/reduce"
)

type (
	// KMeansConfig configures a K-Means run.
	KMeansConfig = kmeans.Config
	// KMeansResult is the outcome of a K-Means run.
	KMeansResult = kmeans.Result
	// InitStrategy selects the initial K-Means centers.
	InitStrategy = kmeans.InitStrategy
	// ReplaceStrategy synthesizes a center for an empty K-Means cluster.
	ReplaceStrategy = kmeans.ReplaceStrategy

	// ISODATAConfig configures an ISODATA run.
	ISODATAConfig = isodata.Config
	// ISODATAResult is the outcome of an ISODATA run.
	ISODATAResult = isodata.Result
	// Cluster is a cluster of an ISODATA result.
	Cluster = isodata.Cluster

	// OtsuConfig configures an Otsu run.
	OtsuConfig = otsu.Config
	// OtsuResult is the outcome of an Otsu run.
	OtsuResult = otsu.Result

	// IndexMode selects how partitions classify points.
	IndexMode = engine.IndexMode

	// Summation creates the float accumulators of a run.
	Summation = reduce.Summation
)

const (
	InitRandom   = kmeans.InitRandom
	InitPlusPlus = kmeans.InitPlusPlus

	ReplaceError    = kmeans.ReplaceError
	ReplaceRandom   = kmeans.ReplaceRandom
	ReplaceFarthest = kmeans.ReplaceFarthest

	IndexAuto   = engine.IndexAuto
	IndexBrute  = engine.IndexBrute
	IndexKDTree = engine.IndexKDTree
)

var (
	// SummationNaive adds with a plain running total.
	SummationNaive = reduce.Naive
	// SummationKahan uses compensated summation.
	SummationKahan = reduce.Kahan
)

// ParseInitStrategy parses "random" or "plusplus".
func ParseInitStrategy(s string) (InitStrategy, error) { return kmeans.ParseInitStrategy(s) }

// ParseReplaceStrategy parses "error", "random" or "farthest".
func ParseReplaceStrategy(s string) (ReplaceStrategy, error) { return kmeans.ParseReplaceStrategy(s) }

// ParseIndexMode parses "auto", "brute" or "kdtree".
func ParseIndexMode(s string) (IndexMode, error) { return engine.ParseIndexMode(s) }

// AdaptiveSummation uses naive summation for accumulators expecting fewer
// than threshold addends and compensated summation otherwise. threshold <= 0
// selects a default.
func AdaptiveSummation(threshold int) Summation {
	return reduce.Adaptive(threshold)
}

// DefaultKMeansConfig returns a K-Means configuration for k clusters.
func DefaultKMeansConfig(k int) KMeansConfig { return kmeans.DefaultConfig(k) }

// DefaultISODATAConfig returns an ISODATA configuration for k clusters.
func DefaultISODATAConfig(k int) ISODATAConfig { return isodata.DefaultConfig(k) }

// DefaultOtsuConfig returns an Otsu configuration for the first component.
func DefaultOtsuConfig() OtsuConfig { return otsu.DefaultConfig() }

// Algorithm names a clustering algorithm.
type Algorithm int

const (
	AlgorithmKMeans Algorithm = iota
	AlgorithmISODATA
	AlgorithmOtsu
)

func (a Algorithm) String() string {
	switch a {
	case AlgorithmKMeans:
		return kmeans.Algorithm
	case AlgorithmISODATA:
		return isodata.Algorithm
	case AlgorithmOtsu:
		return otsu.Algorithm
	default:
		return fmt.Sprintf("Algorithm(%d)", a)
	}
}

// ParseAlgorithm parses the String form of an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range []Algorithm{AlgorithmKMeans, AlgorithmISODATA, AlgorithmOtsu} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidConfig, s)
}

// Config selects an algorithm and its configuration for Run. Only the
// configuration of the selected algorithm is used.
type Config struct {
	Algorithm Algorithm
	KMeans    KMeansConfig
	ISODATA   ISODATAConfig
	Otsu      OtsuConfig
}

// Result is the algorithm-independent view of a run. Exactly one of KMeans,
// ISODATA and Otsu is set.
type Result struct {
	Algorithm  Algorithm
	Centers    [][]float64
	Sizes      []int
	Iterations int

	KMeans  *KMeansResult
	ISODATA *ISODATAResult
	Otsu    *OtsuResult
}
