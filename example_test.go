package geoclust_test

import (
	"context"
	"fmt"
	"log"
	"slices"

	"github.com/hupe1980/geoclust"
	"github.com/hupe1980/geoclust/points"
)

func ExampleClusterer_KMeans() {
	set, err := points.FromRows([][]float64{{1}, {2}, {3}, {101}, {102}, {103}})
	if err != nil {
		log.Fatal(err)
	}

	c := geoclust.New(geoclust.WithWorkers(1), geoclust.WithSeed(42))
	defer c.Close()

	res, err := c.KMeans(context.Background(), set, geoclust.DefaultKMeansConfig(2))
	if err != nil {
		log.Fatal(err)
	}

	centers := []float64{res.Centers[0][0], res.Centers[1][0]}
	slices.Sort(centers)
	fmt.Printf("%.1f %.1f\n", centers[0], centers[1])
	// Output: 2.0 102.0
}

func ExampleClusterer_Otsu() {
	set, err := points.FromRows([][]float64{{10}, {12}, {11}, {200}, {210}})
	if err != nil {
		log.Fatal(err)
	}

	c := geoclust.New(geoclust.WithWorkers(1))
	res, err := c.Otsu(context.Background(), set, geoclust.DefaultOtsuConfig())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Sizes)
	// Output: [3 2]
}
