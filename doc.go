// Package geoclust clusters large sets of numeric feature vectors, such as
// the pixels of an image, with K-Means, ISODATA or Otsu thresholding.
//
// Every run partitions the point set once per worker and executes each
// iteration as a parallel map over the partitions followed by a sequential
// reduce. Runs are cooperative: cancellation is observed at iteration
// boundaries and reported as ErrCanceled.
//
// # Quick Start
//
//	set, _ := points.FromRows(pixels)
//	c := geoclust.New(geoclust.WithWorkers(8), geoclust.WithSeed(42))
//	defer c.Close()
//
//	res, err := c.KMeans(ctx, set, geoclust.DefaultKMeansConfig(5))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Centers, res.Error)
//
// # Algorithms
//
// K-Means runs Lloyd iterations until the error improves by less than
// ErrorLimit. Clusters that lose all points are replaced by the configured
// strategies, tried in order:
//
//	cfg := geoclust.DefaultKMeansConfig(5)
//	cfg.Replace = []geoclust.ReplaceStrategy{geoclust.ReplaceFarthest, geoclust.ReplaceRandom}
//
// ISODATA additionally discards, splits and lumps clusters to approach the
// desired cluster count:
//
//	cfg := geoclust.DefaultISODATAConfig(4)
//	cfg.MinMembers = 50
//	cfg.KeepMembers = true
//	res, _ := c.ISODATA(ctx, set, cfg)
//	for _, cl := range res.Clusters {
//	    fmt.Println(cl.Center, cl.Size, cl.Members.GetCardinality())
//	}
//
// Otsu splits the points into two classes by thresholding one component.
//
// # Observability
//
// Runs log through a slog-based Logger and report to a MetricsCollector.
// See package prommetrics for a Prometheus implementation.
package geoclust
