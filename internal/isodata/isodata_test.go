package isodata

import (
	"cmp"
	"context"
	"slices"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/points"
	"github.com/hupe1980/geoclust/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var modes = []float64{0, 50, 100}

func modeConfig() Config {
	cfg := DefaultConfig(3)
	cfg.MaxIterations = 20
	cfg.MinMembers = 20
	cfg.MaxDeviation = 5
	cfg.LumpThreshold = 10
	return cfg
}

func sortedCenters(res *Result) []float64 {
	out := make([]float64, len(res.Clusters))
	for i, c := range res.Clusters {
		out[i] = c.Center[0]
	}
	slices.Sort(out)
	return out
}

func TestRun_FindsThreeModes(t *testing.T) {
	executors := map[string]func() executor.Executor{
		"sequential": func() executor.Executor { return executor.NewSequential() },
		"pool":       func() executor.Executor { return executor.NewPool(4) },
	}
	for name, newExecutor := range executors {
		for seed := int64(1); seed <= 3; seed++ {
			t.Run(name, func(t *testing.T) {
				ex := newExecutor()
				if p, ok := ex.(*executor.Pool); ok {
					defer p.Wait()
				}
				set := testutil.NewRNG(seed).ModePoints(modes, 300, 2)

				res, err := async.Wait(Run(context.Background(), ex, set, modeConfig(), engine.WithSeed(seed)))
				require.NoError(t, err)

				require.Len(t, res.Clusters, 3)
				assert.InDeltaSlice(t, modes, sortedCenters(res), 1.0)

				total := 0
				for _, c := range res.Clusters {
					total += c.Size
					assert.Less(t, c.Deviation[0], 5.0)
				}
				assert.Equal(t, set.Len(), total)
				assert.Equal(t, 20, res.Iterations)
				assert.Greater(t, res.AvgDistance, 0.0)
			})
		}
	}
}

func TestRun_KeepMembers(t *testing.T) {
	set := testutil.NewRNG(4).ModePoints(modes, 100, 2)
	cfg := modeConfig()
	cfg.KeepMembers = true

	pool := executor.NewPool(3)
	defer pool.Wait()
	res, err := async.Wait(Run(context.Background(), pool, set, cfg, engine.WithSeed(4)))
	require.NoError(t, err)

	all := roaring.New()
	for _, c := range res.Clusters {
		require.NotNil(t, c.Members)
		assert.Equal(t, uint64(c.Size), c.Members.GetCardinality())
		assert.False(t, all.Intersects(c.Members))
		all.Or(c.Members)

		it := c.Members.Iterator()
		for it.HasNext() {
			p := set.At(int(it.Next()))
			assert.Less(t, abs(p[0]-c.Center[0]), 25.0)
		}
	}
	assert.Equal(t, uint64(set.Len()), all.GetCardinality())
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestRun_StatisticsStableOnStableCenters(t *testing.T) {
	set := testutil.NewRNG(8).ModePoints(modes, 200, 2)
	ex := executor.NewSequential()
	r, err := newRun(context.Background(), ex, set, modeConfig(), nil)
	require.NoError(t, err)
	r.setup(set.Split(4))

	cycle := func(clusters []*cluster) ([]*cluster, float64) {
		next, err := async.Wait(func(h async.Handler[[]*cluster]) { r.distribute(clusters, h) })
		require.NoError(t, err)
		global, err := async.Wait(func(h async.Handler[float64]) { r.measure(next, h) })
		require.NoError(t, err)
		return next, global
	}

	clusters := []*cluster{{center: []float64{1}}, {center: []float64{49}}, {center: []float64{98}}}
	first, _ := cycle(clusters)
	second, g2 := cycle(first)
	third, g3 := cycle(second)

	require.Len(t, third, 3)
	assert.Equal(t, g2, g3)
	for i := range second {
		assert.Equal(t, second[i].center, third[i].center)
		assert.Equal(t, second[i].size, third[i].size)
		assert.Equal(t, second[i].avgDist, third[i].avgDist)
		assert.Equal(t, second[i].deviation, third[i].deviation)
	}
}

func TestRun_AllClustersDiscarded(t *testing.T) {
	set := testutil.NewRNG(1).UniformPoints(10, 2)
	cfg := DefaultConfig(2)
	cfg.MinMembers = 100

	_, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg, engine.WithSeed(1)))
	assert.ErrorIs(t, err, engine.ErrEmptyCluster)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set := testutil.NewRNG(1).ModePoints(modes, 10, 2)
	_, err := async.Wait(Run(ctx, executor.NewSequential(), set, modeConfig(), engine.WithSeed(1)))
	require.ErrorIs(t, err, engine.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_InitialCentersExhausted(t *testing.T) {
	set, err := points.FromRows([][]float64{{2}, {2}, {2}})
	require.NoError(t, err)

	_, err = async.Wait(Run(context.Background(), executor.NewSequential(), set, DefaultConfig(2), engine.WithSeed(1)))
	assert.ErrorIs(t, err, engine.ErrInitialCenters)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero clusters", func(c *Config) { c.Clusters = 0 }, engine.ErrInvalidConfig},
		{"negative initial", func(c *Config) { c.InitialClusters = -1 }, engine.ErrInvalidConfig},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, engine.ErrInvalidConfig},
		{"negative min members", func(c *Config) { c.MinMembers = -1 }, engine.ErrInvalidConfig},
		{"negative deviation", func(c *Config) { c.MaxDeviation = -1 }, engine.ErrInvalidConfig},
		{"negative lump threshold", func(c *Config) { c.LumpThreshold = -1 }, engine.ErrInvalidConfig},
		{"zero decay", func(c *Config) { c.LumpDecay = 0 }, engine.ErrInvalidConfig},
		{"negative merges", func(c *Config) { c.MaxMerges = -1 }, engine.ErrInvalidConfig},
		{"too few points", func(c *Config) { c.InitialClusters = 11 }, engine.ErrTooFewPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(2)
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(10), tt.want)
		})
	}
	assert.NoError(t, DefaultConfig(2).Validate(10))
}

func TestConfig_LumpThresholdDecays(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.LumpThreshold = 8
	cfg.LumpDecay = 0.5

	assert.Equal(t, 8.0, cfg.lumpThreshold(1))
	assert.Equal(t, 4.0, cfg.lumpThreshold(2))
	assert.Equal(t, 1.0, cfg.lumpThreshold(4))
}

func testRun(t *testing.T, cfg Config) *run {
	t.Helper()
	r, err := newRun(context.Background(), executor.NewSequential(), testutil.NewRNG(1).UniformPoints(4, 1), cfg, nil)
	require.NoError(t, err)
	return r
}

func centersOf(clusters []*cluster) [][]float64 {
	out := make([][]float64, len(clusters))
	for i, c := range clusters {
		out[i] = c.center
	}
	return out
}

func TestLump_ClosestPairsFirst(t *testing.T) {
	r := testRun(t, DefaultConfig(4))
	clusters := []*cluster{
		{center: []float64{0}, size: 5},
		{center: []float64{1}, size: 1},
		{center: []float64{1.5}, size: 3},
		{center: []float64{10}, size: 7},
	}

	out := r.lump(clusters, 2)
	require.Len(t, out, 3)
	assert.Equal(t, [][]float64{{0}, {1.375}, {10}}, centersOf(out))
	assert.Equal(t, 4, out[1].size)
	assert.Same(t, clusters[0], out[0])
	assert.Same(t, clusters[3], out[2])
}

func TestLump_MaxMerges(t *testing.T) {
	clusters := func() []*cluster {
		return []*cluster{
			{center: []float64{0}},
			{center: []float64{0.5}},
			{center: []float64{10}},
			{center: []float64{10.25}},
		}
	}

	unbounded := testRun(t, DefaultConfig(2)).lump(clusters(), 1)
	assert.Equal(t, [][]float64{{0.25}, {10.125}}, centersOf(unbounded))

	cfg := DefaultConfig(2)
	cfg.MaxMerges = 1
	capped := testRun(t, cfg).lump(clusters(), 1)
	assert.Equal(t, [][]float64{{0}, {0.5}, {10.125}}, centersOf(capped))
}

func TestLump_ZeroThresholdMergesNothing(t *testing.T) {
	clusters := []*cluster{{center: []float64{1}}, {center: []float64{1}}}
	out := testRun(t, DefaultConfig(2)).lump(clusters, 0)
	assert.Equal(t, clusters, out)
}

func TestSplit(t *testing.T) {
	cfg := DefaultConfig(4)
	cfg.MaxDeviation = 2
	cfg.MinMembers = 1
	r := testRun(t, cfg)

	wide := &cluster{center: []float64{10, 20}, size: 50, avgDist: 4, deviation: []float64{1, 3}}
	narrow := &cluster{center: []float64{0, 0}, size: 50, avgDist: 1, deviation: []float64{0.5, 0.5}}

	out, ok := r.split([]*cluster{narrow, wide, narrow}, 2)
	require.True(t, ok)
	assert.Equal(t, [][]float64{{0, 0}, {10, 23}, {10, 17}, {0, 0}}, centersOf(out))
	assert.Zero(t, out[1].size)

	// Below the global average and not few clusters: no split.
	out, ok = r.split([]*cluster{narrow, wide, narrow}, 5)
	assert.False(t, ok)
	assert.Len(t, out, 3)

	// Few clusters split regardless of the average distance.
	out, ok = r.split([]*cluster{wide}, 5)
	assert.True(t, ok)
	assert.Len(t, out, 2)
}

func TestSplit_SmallClustersStay(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.MaxDeviation = 1
	cfg.MinMembers = 10
	r := testRun(t, cfg)

	small := &cluster{center: []float64{0}, size: 22, avgDist: 9, deviation: []float64{5}}
	_, ok := r.split([]*cluster{small, small}, 1)
	assert.False(t, ok)
}

func sortedByCenter(res *Result) []Cluster {
	out := slices.Clone(res.Clusters)
	slices.SortFunc(out, func(a, b Cluster) int { return cmp.Compare(a.Center[0], b.Center[0]) })
	return out
}

func TestRun_WorkerCountDoesNotChangeResult(t *testing.T) {
	set := testutil.NewRNG(6).ModePoints(modes, 200, 2)

	seq, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, modeConfig(), engine.WithSeed(6)))
	require.NoError(t, err)
	pool := executor.NewPool(4)
	defer pool.Wait()
	par, err := async.Wait(Run(context.Background(), pool, set, modeConfig(), engine.WithSeed(6)))
	require.NoError(t, err)

	a, b := sortedByCenter(seq), sortedByCenter(par)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Size, b[i].Size)
		assert.InDeltaSlice(t, a[i].Center, b[i].Center, 1e-9)
		assert.InDelta(t, a[i].AvgDistance, b[i].AvgDistance, 1e-9)
	}
}
