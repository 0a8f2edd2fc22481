package geoclust_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/geoclust"
	"github.com/hupe1980/geoclust/testutil"
)

func BenchmarkKMeans(b *testing.B) {
	set := testutil.NewRNG(1).PixelPoints(100_000, 3)
	cfg := geoclust.DefaultKMeansConfig(8)
	cfg.MaxIterations = 10

	for _, workers := range []int{1, 4} {
		for _, mode := range []geoclust.IndexMode{geoclust.IndexBrute, geoclust.IndexKDTree} {
			b.Run(fmt.Sprintf("workers=%d/index=%s", workers, mode), func(b *testing.B) {
				c := geoclust.New(geoclust.WithWorkers(workers), geoclust.WithSeed(1), geoclust.WithIndex(mode, 0))
				defer c.Close()

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if _, err := c.KMeans(context.Background(), set, cfg); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkISODATA(b *testing.B) {
	set := testutil.NewRNG(2).PixelPoints(50_000, 3)
	cfg := geoclust.DefaultISODATAConfig(6)
	cfg.MaxIterations = 6
	cfg.MaxDeviation = 20
	cfg.LumpThreshold = 30

	c := geoclust.New(geoclust.WithSeed(2))
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.ISODATA(context.Background(), set, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOtsu(b *testing.B) {
	set := testutil.NewRNG(3).PixelPoints(200_000, 1)

	c := geoclust.New()
	defer c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Otsu(context.Background(), set, geoclust.DefaultOtsuConfig()); err != nil {
			b.Fatal(err)
		}
	}
}
