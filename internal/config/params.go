package config

import (
	"github.com/banshee-data/structure.align/internal/align/axisline"
	"github.com/banshee-data/structure.align/internal/align/cluster"
	"github.com/banshee-data/structure.align/internal/align/snap"
	"github.com/banshee-data/structure.align/internal/align/thread"
	"github.com/banshee-data/structure.align/internal/align/validate"
)

// AlignmentParams is the resolved, immutable parameter set for one run.
// It is passed by value; FloorZLevels is copied on every accessor.
type AlignmentParams struct {
	Alpha                float64 `json:"alpha"`
	MinClusterSize       int     `json:"min_cluster_size"`
	RoundingPrecision    float64 `json:"rounding_precision"`
	MergeThresholdFactor float64 `json:"merge_threshold_factor"`

	MinFloors           int       `json:"min_floors"`
	ClusterRadius       float64   `json:"cluster_radius"`
	FloorMatchTolerance float64   `json:"floor_match_tolerance"`
	FloorZLevels        []float64 `json:"floor_z_levels"`

	MaxSnapDistance     float64 `json:"max_snap_distance"`
	OutlierSnapDistance float64 `json:"outlier_snap_distance"`
	MaxEndpointsPoint   int     `json:"max_endpoints_point"`
	MaxEndpointsSpan    int     `json:"max_endpoints_span"`

	VerticalAlignment bool    `json:"vertical_alignment"`
	MinAlignmentRate  float64 `json:"min_alignment_rate"`
	DiscoveryStrategy string  `json:"discovery_strategy"`
}

// Params resolves the config into an AlignmentParams value.
func (c *TuningConfig) Params() AlignmentParams {
	return AlignmentParams{
		Alpha:                c.GetAlpha(),
		MinClusterSize:       c.GetMinClusterSize(),
		RoundingPrecision:    c.GetRoundingPrecision(),
		MergeThresholdFactor: c.GetMergeThresholdFactor(),
		MinFloors:            c.GetMinFloors(),
		ClusterRadius:        c.GetClusterRadius(),
		FloorMatchTolerance:  c.GetFloorMatchTolerance(),
		FloorZLevels:         c.GetFloorZLevels(),
		MaxSnapDistance:      c.GetMaxSnapDistance(),
		OutlierSnapDistance:  c.GetOutlierSnapDistance(),
		MaxEndpointsPoint:    c.GetMaxEndpointsPoint(),
		MaxEndpointsSpan:     c.GetMaxEndpointsSpan(),
		VerticalAlignment:    c.GetVerticalAlignment(),
		MinAlignmentRate:     c.GetMinAlignmentRate(),
		DiscoveryStrategy:    c.GetDiscoveryStrategy(),
	}
}

// DefaultParams returns the built-in parameter set.
func DefaultParams() AlignmentParams {
	return EmptyTuningConfig().Params()
}

// Cluster returns the clusterer parameters.
func (p AlignmentParams) Cluster() cluster.Params {
	return cluster.Params{Alpha: p.Alpha, MinClusterSize: p.MinClusterSize}
}

// Thread returns the thread builder parameters.
func (p AlignmentParams) Thread() thread.Params {
	return thread.Params{
		Alpha:             p.Alpha,
		RoundingPrecision: p.RoundingPrecision,
		MergeFactor:       p.MergeThresholdFactor,
	}
}

// AxisLine returns the multi-floor selector parameters.
func (p AlignmentParams) AxisLine() axisline.Params {
	var levels []float64
	if p.FloorZLevels != nil {
		levels = make([]float64, len(p.FloorZLevels))
		copy(levels, p.FloorZLevels)
	}
	return axisline.Params{
		MinFloors:           p.MinFloors,
		ClusterRadius:       p.ClusterRadius,
		RoundingPrecision:   p.RoundingPrecision,
		FloorMatchTolerance: p.FloorMatchTolerance,
		FloorZLevels:        levels,
	}
}

// Match returns the per-vertex matcher parameters.
func (p AlignmentParams) Match() snap.MatchParams {
	return snap.MatchParams{
		Alpha:             p.Alpha,
		RoundingPrecision: p.RoundingPrecision,
		VerticalAlignment: p.VerticalAlignment,
	}
}

// Element returns the element-endpoint snapper parameters.
func (p AlignmentParams) Element() snap.ElementParams {
	return snap.ElementParams{
		ClusterRadius:       p.ClusterRadius,
		MaxSnapDistance:     p.MaxSnapDistance,
		OutlierSnapDistance: p.OutlierSnapDistance,
		RoundingPrecision:   p.RoundingPrecision,
		MaxEndpointsPoint:   p.MaxEndpointsPoint,
		MaxEndpointsSpan:    p.MaxEndpointsSpan,
	}
}

// ThreadValidation bounds the per-vertex path: a snapped coordinate never
// moves more than alpha.
func (p AlignmentParams) ThreadValidation() validate.Params {
	return validate.Params{
		MaxAxisDisplacement: p.Alpha,
		Bound:               "alpha",
		MinAlignmentRate:    p.MinAlignmentRate,
	}
}

// ElementBound describes the displacement bound of the endpoint path.
const ElementBound = "outlier_snap_distance + cluster_radius + rounding_precision/2"

// ElementValidation bounds the endpoint path. An endpoint moves at most the
// outlier snap distance; a vertex snapped straight to the target may sit up
// to the cluster radius away from its endpoint, and rounding adds half the
// precision.
func (p AlignmentParams) ElementValidation() validate.Params {
	bound := p.OutlierSnapDistance + p.ClusterRadius + p.RoundingPrecision/2
	return validate.Params{
		MaxAxisDisplacement: bound,
		Bound:               ElementBound,
		MinAlignmentRate:    p.MinAlignmentRate,
	}
}
