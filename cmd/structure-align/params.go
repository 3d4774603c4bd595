package main

import (
	"flag"
	"fmt"

	"github.com/banshee-data/structure.align/internal/config"
)

// tuningFlags are the per-run overrides of the tuning config. Only flags
// set on the command line replace config file values.
type tuningFlags struct {
	configPath string

	alpha               float64
	minClusterSize      int
	roundingPrecision   float64
	minFloors           int
	clusterRadius       float64
	maxSnapDistance     float64
	outlierSnapDistance float64
	vertical            bool
	minAlignmentRate    float64
	strategy            string
}

func registerTuningFlags(fs *flag.FlagSet) *tuningFlags {
	d := config.EmptyTuningConfig()
	t := &tuningFlags{}
	fs.StringVar(&t.configPath, "config", "", "Tuning config JSON file")
	fs.Float64Var(&t.alpha, "alpha", d.GetAlpha(), "Clustering tolerance (m)")
	fs.IntVar(&t.minClusterSize, "min-cluster-size", d.GetMinClusterSize(), "Minimum vertices per cluster")
	fs.Float64Var(&t.roundingPrecision, "rounding-precision", d.GetRoundingPrecision(), "Reference coordinate precision (m)")
	fs.IntVar(&t.minFloors, "min-floors", d.GetMinFloors(), "Minimum floors for an axis line")
	fs.Float64Var(&t.clusterRadius, "cluster-radius", d.GetClusterRadius(), "Axis line dedup and endpoint cluster radius (m)")
	fs.Float64Var(&t.maxSnapDistance, "max-snap-distance", d.GetMaxSnapDistance(), "Maximum element snap distance (m)")
	fs.Float64Var(&t.outlierSnapDistance, "outlier-snap-distance", d.GetOutlierSnapDistance(), "Maximum snap distance for outlier endpoints (m)")
	fs.BoolVar(&t.vertical, "vertical", d.GetVerticalAlignment(), "Also align the Z axis (thread path only)")
	fs.Float64Var(&t.minAlignmentRate, "min-alignment-rate", d.GetMinAlignmentRate(), "Alignment rate below which validation warns")
	fs.StringVar(&t.strategy, "strategy", d.GetDiscoveryStrategy(), "Axis discovery strategy: floors or clusters")
	return t
}

// resolve loads the config file, if any, and applies every flag that was
// explicitly set on fs.
func (t *tuningFlags) resolve(fs *flag.FlagSet) (config.AlignmentParams, error) {
	cfg := config.EmptyTuningConfig()
	if t.configPath != "" {
		loaded, err := config.LoadTuningConfig(t.configPath)
		if err != nil {
			return config.AlignmentParams{}, err
		}
		cfg = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "alpha":
			cfg.Alpha = &t.alpha
		case "min-cluster-size":
			cfg.MinClusterSize = &t.minClusterSize
		case "rounding-precision":
			cfg.RoundingPrecision = &t.roundingPrecision
		case "min-floors":
			cfg.MinFloors = &t.minFloors
		case "cluster-radius":
			cfg.ClusterRadius = &t.clusterRadius
		case "max-snap-distance":
			cfg.MaxSnapDistance = &t.maxSnapDistance
		case "outlier-snap-distance":
			cfg.OutlierSnapDistance = &t.outlierSnapDistance
		case "vertical":
			cfg.VerticalAlignment = &t.vertical
		case "min-alignment-rate":
			cfg.MinAlignmentRate = &t.minAlignmentRate
		case "strategy":
			cfg.DiscoveryStrategy = &t.strategy
		}
	})

	if err := cfg.Validate(); err != nil {
		return config.AlignmentParams{}, fmt.Errorf("invalid parameters: %w", err)
	}
	return cfg.Params(), nil
}
