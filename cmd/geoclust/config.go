package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/geoclust"
	"github.com/hupe1980/geoclust/distance"
)

// fileConfig is the YAML configuration file layout. Zero values keep the
// defaults.
type fileConfig struct {
	Algorithm string `yaml:"algorithm"`
	Workers   int    `yaml:"workers"`
	Seed      *int64 `yaml:"seed"`
	Metric    string `yaml:"metric"`
	Index     string `yaml:"index"`

	KMeans struct {
		Clusters      int      `yaml:"clusters"`
		MaxIterations int      `yaml:"max_iterations"`
		ErrorLimit    float64  `yaml:"error_limit"`
		Init          string   `yaml:"init"`
		Replace       []string `yaml:"replace"`
	} `yaml:"kmeans"`

	ISODATA struct {
		Clusters        int      `yaml:"clusters"`
		InitialClusters int      `yaml:"initial_clusters"`
		MaxIterations   int      `yaml:"max_iterations"`
		MinMembers      *int     `yaml:"min_members"`
		MaxDeviation    *float64 `yaml:"max_deviation"`
		LumpThreshold   *float64 `yaml:"lump_threshold"`
		LumpDecay       float64  `yaml:"lump_decay"`
		MaxMerges       int      `yaml:"max_merges"`
	} `yaml:"isodata"`

	Otsu struct {
		Channel int `yaml:"channel"`
		Bins    int `yaml:"bins"`
	} `yaml:"otsu"`
}

func loadConfig(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return fc, nil
}

// runConfig is the resolved configuration of one CLI invocation.
type runConfig struct {
	workers int
	seed    *int64
	metric  distance.Metric
	index   geoclust.IndexMode
	run     geoclust.Config
}

func (fc *fileConfig) resolve() (*runConfig, error) {
	rc := &runConfig{
		workers: fc.Workers,
		seed:    fc.Seed,
		metric:  distance.MetricEuclidean,
		index:   geoclust.IndexAuto,
	}

	var err error
	if fc.Algorithm != "" {
		if rc.run.Algorithm, err = geoclust.ParseAlgorithm(fc.Algorithm); err != nil {
			return nil, err
		}
	}
	if fc.Metric != "" {
		if rc.metric, err = distance.ParseMetric(fc.Metric); err != nil {
			return nil, err
		}
	}
	if fc.Index != "" {
		if rc.index, err = geoclust.ParseIndexMode(fc.Index); err != nil {
			return nil, err
		}
	}

	km := geoclust.DefaultKMeansConfig(8)
	if fc.KMeans.Clusters != 0 {
		km.Clusters = fc.KMeans.Clusters
	}
	if fc.KMeans.MaxIterations != 0 {
		km.MaxIterations = fc.KMeans.MaxIterations
	}
	if fc.KMeans.ErrorLimit != 0 {
		km.ErrorLimit = fc.KMeans.ErrorLimit
	}
	if fc.KMeans.Init != "" {
		if km.Init, err = geoclust.ParseInitStrategy(fc.KMeans.Init); err != nil {
			return nil, err
		}
	}
	if len(fc.KMeans.Replace) > 0 {
		km.Replace = nil
		for _, s := range fc.KMeans.Replace {
			r, err := geoclust.ParseReplaceStrategy(s)
			if err != nil {
				return nil, err
			}
			km.Replace = append(km.Replace, r)
		}
	}
	rc.run.KMeans = km

	iso := geoclust.DefaultISODATAConfig(8)
	if fc.ISODATA.Clusters != 0 {
		iso.Clusters = fc.ISODATA.Clusters
	}
	iso.InitialClusters = fc.ISODATA.InitialClusters
	if fc.ISODATA.MaxIterations != 0 {
		iso.MaxIterations = fc.ISODATA.MaxIterations
	}
	if fc.ISODATA.MinMembers != nil {
		iso.MinMembers = *fc.ISODATA.MinMembers
	}
	if fc.ISODATA.MaxDeviation != nil {
		iso.MaxDeviation = *fc.ISODATA.MaxDeviation
	}
	if fc.ISODATA.LumpThreshold != nil {
		iso.LumpThreshold = *fc.ISODATA.LumpThreshold
	}
	if fc.ISODATA.LumpDecay != 0 {
		iso.LumpDecay = fc.ISODATA.LumpDecay
	}
	iso.MaxMerges = fc.ISODATA.MaxMerges
	rc.run.ISODATA = iso

	ot := geoclust.DefaultOtsuConfig()
	ot.Channel = fc.Otsu.Channel
	if fc.Otsu.Bins != 0 {
		ot.Bins = fc.Otsu.Bins
	}
	rc.run.Otsu = ot

	return rc, nil
}
