package kmeans

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/hupe1980/geoclust/distance"
	"github.com/hupe1980/geoclust/internal/async"
	"github.com/hupe1980/geoclust/internal/engine"
	"github.com/hupe1980/geoclust/internal/executor"
	"github.com/hupe1980/geoclust/points"
	"github.com/hupe1980/geoclust/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byFirst(centers [][]float64) [][]float64 {
	out := slices.Clone(centers)
	slices.SortFunc(out, func(a, b []float64) int { return cmp.Compare(a[0], b[0]) })
	return out
}

func sum(v []int) int {
	n := 0
	for _, x := range v {
		n += x
	}
	return n
}

func twoBlobs(t *testing.T) *points.Flat {
	t.Helper()
	rng := testutil.NewRNG(7)
	return rng.ClusteredPoints(400, [][]float64{{0, 0}, {10, 10}}, 0.5)
}

func TestRun_SeparatesBlobs(t *testing.T) {
	for _, init := range []InitStrategy{InitRandom, InitPlusPlus} {
		t.Run(init.String(), func(t *testing.T) {
			set := twoBlobs(t)
			cfg := DefaultConfig(2)
			cfg.Init = init

			res, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg, engine.WithSeed(1)))
			require.NoError(t, err)

			require.Len(t, res.Centers, 2)
			centers := byFirst(res.Centers)
			assert.InDeltaSlice(t, []float64{0, 0}, centers[0], 0.2)
			assert.InDeltaSlice(t, []float64{10, 10}, centers[1], 0.2)
			assert.ElementsMatch(t, []int{200, 200}, res.Sizes)
			assert.True(t, res.Converged)
			assert.Greater(t, res.Error, 0.0)
		})
	}
}

func TestRun_ExactlyKCentersOrEmptyCluster(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		for k := 2; k <= 8; k++ {
			rng := testutil.NewRNG(seed)
			set := rng.UniformPoints(12, 2)
			cfg := DefaultConfig(k)
			cfg.Replace = []ReplaceStrategy{ReplaceError}

			res, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg, engine.WithSeed(seed)))
			if err != nil {
				require.ErrorIs(t, err, engine.ErrEmptyCluster, "seed=%d k=%d", seed, k)
				continue
			}
			require.Len(t, res.Centers, k, "seed=%d k=%d", seed, k)
			require.Len(t, res.Sizes, k)
			for _, s := range res.Sizes {
				assert.Positive(t, s)
			}
			assert.Equal(t, set.Len(), sum(res.Sizes))
		}
	}
}

func TestRun_WorkerCountDoesNotChangeResult(t *testing.T) {
	set := testutil.NewRNG(3).ClusteredPoints(2000, [][]float64{{0, 0, 0}, {5, 5, 5}, {-5, 5, 0}}, 0.8)
	cfg := DefaultConfig(3)
	cfg.ErrorLimit = 1

	seq, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg, engine.WithSeed(11)))
	require.NoError(t, err)

	pool := executor.NewPool(4)
	par, err := async.Wait(Run(context.Background(), pool, set, cfg, engine.WithSeed(11)))
	require.NoError(t, err)
	pool.Wait()

	a, b := byFirst(seq.Centers), byFirst(par.Centers)
	for i := range a {
		assert.InDeltaSlice(t, a[i], b[i], 1e-9)
	}
	assert.InDelta(t, seq.Error, par.Error, 1e-6)
}

func TestRun_IndexModesAgree(t *testing.T) {
	set := testutil.NewRNG(5).ClusteredPoints(3000, [][]float64{{0, 0}, {4, 0}, {0, 4}, {4, 4}}, 0.7)
	cfg := DefaultConfig(4)
	cfg.ErrorLimit = 1

	run := func(mode engine.IndexMode) *Result {
		pool := executor.NewPool(3)
		defer pool.Wait()
		res, err := async.Wait(Run(context.Background(), pool, set, cfg, engine.WithSeed(2), engine.WithIndex(mode, 8)))
		require.NoError(t, err)
		return res
	}

	brute, tree := run(engine.IndexBrute), run(engine.IndexKDTree)
	a, b := byFirst(brute.Centers), byFirst(tree.Centers)
	for i := range a {
		assert.InDeltaSlice(t, a[i], b[i], 1e-9)
	}
	assert.Equal(t, brute.Iterations, tree.Iterations)
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := async.Wait(Run(ctx, executor.NewSequential(), twoBlobs(t), DefaultConfig(2), engine.WithSeed(1)))
	require.ErrorIs(t, err, engine.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_IterationHook(t *testing.T) {
	var seen []int
	cfg := DefaultConfig(2)
	cfg.MaxIterations = 3
	cfg.ErrorLimit = 1e-12

	res, err := async.Wait(Run(context.Background(), executor.NewSequential(), twoBlobs(t), cfg,
		engine.WithSeed(1),
		engine.WithIterationHook(func(it engine.Iteration) {
			assert.Equal(t, Algorithm, it.Algorithm)
			seen = append(seen, it.Number)
		}),
	))
	require.NoError(t, err)
	assert.Equal(t, res.Iterations, len(seen))
	for i, n := range seen {
		assert.Equal(t, i+1, n)
	}
}

func TestRun_IterationCap(t *testing.T) {
	set := testutil.NewRNG(9).UniformPoints(500, 2)
	cfg := DefaultConfig(6)
	cfg.MaxIterations = 1

	res, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg, engine.WithSeed(4)))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Iterations)
	assert.False(t, res.Converged)
	assert.Len(t, res.Centers, 6)
}

func TestRun_InvalidConfig(t *testing.T) {
	set := twoBlobs(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"one cluster", func(c *Config) { c.Clusters = 1 }, engine.ErrInvalidConfig},
		{"zero iterations", func(c *Config) { c.MaxIterations = 0 }, engine.ErrInvalidConfig},
		{"zero error limit", func(c *Config) { c.ErrorLimit = 0 }, engine.ErrInvalidConfig},
		{"error limit above one", func(c *Config) { c.ErrorLimit = 1.5 }, engine.ErrInvalidConfig},
		{"unknown init", func(c *Config) { c.Init = InitStrategy(9) }, engine.ErrInvalidConfig},
		{"unknown replace", func(c *Config) { c.Replace = []ReplaceStrategy{9} }, engine.ErrInvalidConfig},
		{"too few points", func(c *Config) { c.Clusters = 401 }, engine.ErrTooFewPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(2)
			tt.mutate(&cfg)
			_, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg))
			require.ErrorIs(t, err, tt.want)

			var ce *engine.ConfigError
			assert.Equal(t, tt.want == engine.ErrInvalidConfig, errors.As(err, &ce))
		})
	}

	_, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, DefaultConfig(2), engine.WithMetric(distance.Metric(42))))
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestRun_InitialCentersExhausted(t *testing.T) {
	set, err := points.FromRows([][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}})
	require.NoError(t, err)

	for _, init := range []InitStrategy{InitRandom, InitPlusPlus} {
		cfg := DefaultConfig(2)
		cfg.Init = init
		_, err := async.Wait(Run(context.Background(), executor.NewSequential(), set, cfg, engine.WithSeed(1)))
		assert.ErrorIs(t, err, engine.ErrInitialCenters, init.String())
	}
}

func newTestRun(t *testing.T, ex executor.Executor, set points.Set, cfg Config) *run {
	t.Helper()
	o := engine.Apply([]engine.Option{engine.WithSeed(1)})
	dist, err := distance.Provider(o.Metric)
	require.NoError(t, err)
	r := &run{ctx: context.Background(), ex: ex, set: set, cfg: cfg, opts: o, dist: dist}
	r.setup(set.Split(ex.Workers()))
	return r
}

func replaceWith(r *run, centers [][]float64) ([]float64, error) {
	return async.Wait(func(h async.Handler[[]float64]) { r.replace(centers, 0, h) })
}

func TestReplace_Farthest(t *testing.T) {
	set, err := points.FromRows([][]float64{{0}, {1}, {2}, {10}})
	require.NoError(t, err)
	cfg := DefaultConfig(3)
	cfg.Replace = []ReplaceStrategy{ReplaceFarthest}

	pool := executor.NewPool(2)
	defer pool.Wait()
	c, err := replaceWith(newTestRun(t, pool, set, cfg), [][]float64{{0}, {2}})
	require.NoError(t, err)
	assert.Equal(t, []float64{10}, c)
}

func TestReplace_FarthestPrefersFirstPartitionOnTies(t *testing.T) {
	set, err := points.FromRows([][]float64{{-5}, {0}, {5}})
	require.NoError(t, err)
	cfg := DefaultConfig(2)
	cfg.Replace = []ReplaceStrategy{ReplaceFarthest}

	pool := executor.NewPool(2)
	defer pool.Wait()
	c, err := replaceWith(newTestRun(t, pool, set, cfg), [][]float64{{0}})
	require.NoError(t, err)
	assert.Equal(t, []float64{-5}, c)
}

func TestReplace_FallsBackInOrder(t *testing.T) {
	set, err := points.FromRows([][]float64{{0}, {0}, {3}})
	require.NoError(t, err)

	tests := []struct {
		name    string
		chain   []ReplaceStrategy
		centers [][]float64
		want    []float64
		wantErr error
	}{
		{"error only", []ReplaceStrategy{ReplaceError}, [][]float64{{0}}, nil, engine.ErrEmptyCluster},
		{"error then random", []ReplaceStrategy{ReplaceError, ReplaceRandom}, [][]float64{{0}}, []float64{3}, nil},
		{"farthest exhausted then random exhausted", []ReplaceStrategy{ReplaceFarthest, ReplaceRandom}, [][]float64{{0}, {3}}, nil, engine.ErrEmptyCluster},
		{"farthest", []ReplaceStrategy{ReplaceFarthest, ReplaceError}, [][]float64{{0}}, []float64{3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(3)
			cfg.Replace = tt.chain
			c, err := replaceWith(newTestRun(t, executor.NewSequential(), set, cfg), tt.centers)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c)
		})
	}
}

func TestParseStrategies(t *testing.T) {
	for _, s := range []InitStrategy{InitRandom, InitPlusPlus} {
		got, err := ParseInitStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	for _, s := range []ReplaceStrategy{ReplaceError, ReplaceRandom, ReplaceFarthest} {
		got, err := ParseReplaceStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseInitStrategy("nope")
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
	_, err = ParseReplaceStrategy("nope")
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}
