package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/structure.align/internal/align/axisline"
	"github.com/banshee-data/structure.align/internal/align/cluster"
	"github.com/banshee-data/structure.align/internal/align/snap"
	"github.com/banshee-data/structure.align/internal/align/thread"
	"github.com/banshee-data/structure.align/internal/align/validate"
)

// DefaultConfigPath is the path to the canonical alignment defaults file.
const DefaultConfigPath = "config/alignment.defaults.json"

// ErrInvalidParams wraps every validation failure.
var ErrInvalidParams = errors.New("invalid alignment parameters")

// Discovery strategies.
const (
	StrategyFloors   = "floors"
	StrategyClusters = "clusters"
)

// TuningConfig is the on-disk form of the alignment parameters. Every field
// is optional; the Get* accessors fall back to defaults for missing fields.
type TuningConfig struct {
	// Clustering and threads
	Alpha                *float64 `json:"alpha,omitempty"`
	MinClusterSize       *int     `json:"min_cluster_size,omitempty"`
	RoundingPrecision    *float64 `json:"rounding_precision,omitempty"`
	MergeThresholdFactor *float64 `json:"merge_threshold_factor,omitempty"`

	// Multi-floor axis selection
	MinFloors           *int      `json:"min_floors,omitempty"`
	ClusterRadius       *float64  `json:"cluster_radius,omitempty"`
	FloorMatchTolerance *float64  `json:"floor_match_tolerance,omitempty"`
	FloorZLevels        []float64 `json:"floor_z_levels,omitempty"`

	// Endpoint snapping
	MaxSnapDistance     *float64 `json:"max_snap_distance,omitempty"`
	OutlierSnapDistance *float64 `json:"outlier_snap_distance,omitempty"`
	MaxEndpointsPoint   *int     `json:"max_endpoints_point,omitempty"`
	MaxEndpointsSpan    *int     `json:"max_endpoints_span,omitempty"`

	VerticalAlignment *bool    `json:"vertical_alignment,omitempty"`
	MinAlignmentRate  *float64 `json:"min_alignment_rate,omitempty"`
	DiscoveryStrategy *string  `json:"discovery_strategy,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated
// from the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		Alpha:                ptrFloat64(c.GetAlpha()),
		MinClusterSize:       ptrInt(c.GetMinClusterSize()),
		RoundingPrecision:    ptrFloat64(c.GetRoundingPrecision()),
		MergeThresholdFactor: ptrFloat64(c.GetMergeThresholdFactor()),
		MinFloors:            ptrInt(c.GetMinFloors()),
		ClusterRadius:        ptrFloat64(c.GetClusterRadius()),
		FloorMatchTolerance:  ptrFloat64(c.GetFloorMatchTolerance()),
		FloorZLevels:         c.GetFloorZLevels(),
		MaxSnapDistance:      ptrFloat64(c.GetMaxSnapDistance()),
		OutlierSnapDistance:  ptrFloat64(c.GetOutlierSnapDistance()),
		MaxEndpointsPoint:    ptrInt(c.GetMaxEndpointsPoint()),
		MaxEndpointsSpan:     ptrInt(c.GetMaxEndpointsSpan()),
		VerticalAlignment:    ptrBool(c.GetVerticalAlignment()),
		MinAlignmentRate:     ptrFloat64(c.GetMinAlignmentRate()),
		DiscoveryStrategy:    ptrString(c.GetDiscoveryStrategy()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/align/pipeline/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidParams, fmt.Sprintf(format, args...))
}

// Validate checks that the configuration values are valid. Missing fields
// take their defaults.
func (c *TuningConfig) Validate() error {
	if c.Alpha != nil && *c.Alpha <= 0 {
		return invalidf("alpha must be positive, got %f", *c.Alpha)
	}
	if c.MinClusterSize != nil && *c.MinClusterSize < 1 {
		return invalidf("min_cluster_size must be at least 1, got %d", *c.MinClusterSize)
	}
	if c.RoundingPrecision != nil && (*c.RoundingPrecision <= 0 || *c.RoundingPrecision >= 1) {
		return invalidf("rounding_precision must be in (0, 1), got %f", *c.RoundingPrecision)
	}
	if c.MergeThresholdFactor != nil && *c.MergeThresholdFactor < 0 {
		return invalidf("merge_threshold_factor must be non-negative, got %f", *c.MergeThresholdFactor)
	}
	if c.MinFloors != nil && *c.MinFloors < 1 {
		return invalidf("min_floors must be at least 1, got %d", *c.MinFloors)
	}
	if c.ClusterRadius != nil && *c.ClusterRadius < 0 {
		return invalidf("cluster_radius must be non-negative, got %f", *c.ClusterRadius)
	}
	if c.FloorMatchTolerance != nil && *c.FloorMatchTolerance < 0 {
		return invalidf("floor_match_tolerance must be non-negative, got %f", *c.FloorMatchTolerance)
	}
	if c.MaxSnapDistance != nil && *c.MaxSnapDistance < 0 {
		return invalidf("max_snap_distance must be non-negative, got %f", *c.MaxSnapDistance)
	}
	if c.GetOutlierSnapDistance() < c.GetMaxSnapDistance() {
		return invalidf("outlier_snap_distance %f is below max_snap_distance %f",
			c.GetOutlierSnapDistance(), c.GetMaxSnapDistance())
	}
	if c.MaxEndpointsPoint != nil && *c.MaxEndpointsPoint < 1 {
		return invalidf("max_endpoints_point must be at least 1, got %d", *c.MaxEndpointsPoint)
	}
	if c.MaxEndpointsSpan != nil && *c.MaxEndpointsSpan < 1 {
		return invalidf("max_endpoints_span must be at least 1, got %d", *c.MaxEndpointsSpan)
	}
	if c.MinAlignmentRate != nil && (*c.MinAlignmentRate < 0 || *c.MinAlignmentRate > 1) {
		return invalidf("min_alignment_rate must be between 0 and 1, got %f", *c.MinAlignmentRate)
	}
	if c.DiscoveryStrategy != nil {
		switch *c.DiscoveryStrategy {
		case StrategyFloors, StrategyClusters:
		default:
			return invalidf("discovery_strategy must be %q or %q, got %q",
				StrategyFloors, StrategyClusters, *c.DiscoveryStrategy)
		}
	}
	return nil
}

// GetAlpha returns the alpha value or the default.
func (c *TuningConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return cluster.DefaultAlpha
	}
	return *c.Alpha
}

// GetMinClusterSize returns the min_cluster_size value or the default.
func (c *TuningConfig) GetMinClusterSize() int {
	if c.MinClusterSize == nil {
		return cluster.DefaultMinClusterSize
	}
	return *c.MinClusterSize
}

// GetRoundingPrecision returns the rounding_precision value or the default.
func (c *TuningConfig) GetRoundingPrecision() float64 {
	if c.RoundingPrecision == nil {
		return thread.DefaultRoundingPrecision
	}
	return *c.RoundingPrecision
}

// GetMergeThresholdFactor returns the merge_threshold_factor value or the default.
func (c *TuningConfig) GetMergeThresholdFactor() float64 {
	if c.MergeThresholdFactor == nil {
		return thread.DefaultMergeFactor
	}
	return *c.MergeThresholdFactor
}

// GetMinFloors returns the min_floors value or the default.
func (c *TuningConfig) GetMinFloors() int {
	if c.MinFloors == nil {
		return axisline.DefaultMinFloors
	}
	return *c.MinFloors
}

// GetClusterRadius returns the cluster_radius value or the default.
func (c *TuningConfig) GetClusterRadius() float64 {
	if c.ClusterRadius == nil {
		return axisline.DefaultClusterRadius
	}
	return *c.ClusterRadius
}

// GetFloorMatchTolerance returns the floor_match_tolerance value or the default.
func (c *TuningConfig) GetFloorMatchTolerance() float64 {
	if c.FloorMatchTolerance == nil {
		return axisline.DefaultFloorMatchTolerance
	}
	return *c.FloorMatchTolerance
}

// GetFloorZLevels returns a copy of the floor levels or the defaults. An
// explicit empty list disables floor matching.
func (c *TuningConfig) GetFloorZLevels() []float64 {
	src := c.FloorZLevels
	if src == nil {
		src = axisline.DefaultFloorZLevels
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

// GetMaxSnapDistance returns the max_snap_distance value or the default.
func (c *TuningConfig) GetMaxSnapDistance() float64 {
	if c.MaxSnapDistance == nil {
		return snap.DefaultMaxSnapDistance
	}
	return *c.MaxSnapDistance
}

// GetOutlierSnapDistance returns the outlier_snap_distance value or the default.
func (c *TuningConfig) GetOutlierSnapDistance() float64 {
	if c.OutlierSnapDistance == nil {
		return snap.DefaultOutlierSnapDistance
	}
	return *c.OutlierSnapDistance
}

// GetMaxEndpointsPoint returns the max_endpoints_point value or the default.
func (c *TuningConfig) GetMaxEndpointsPoint() int {
	if c.MaxEndpointsPoint == nil {
		return snap.DefaultMaxEndpointsPoint
	}
	return *c.MaxEndpointsPoint
}

// GetMaxEndpointsSpan returns the max_endpoints_span value or the default.
func (c *TuningConfig) GetMaxEndpointsSpan() int {
	if c.MaxEndpointsSpan == nil {
		return snap.DefaultMaxEndpointsSpan
	}
	return *c.MaxEndpointsSpan
}

// GetVerticalAlignment returns the vertical_alignment value or the default.
func (c *TuningConfig) GetVerticalAlignment() bool {
	if c.VerticalAlignment == nil {
		return false // default: Z is never modified
	}
	return *c.VerticalAlignment
}

// GetMinAlignmentRate returns the min_alignment_rate value or the default.
func (c *TuningConfig) GetMinAlignmentRate() float64 {
	if c.MinAlignmentRate == nil {
		return validate.DefaultMinAlignmentRate
	}
	return *c.MinAlignmentRate
}

// GetDiscoveryStrategy returns the discovery_strategy value or the default.
func (c *TuningConfig) GetDiscoveryStrategy() string {
	if c.DiscoveryStrategy == nil || *c.DiscoveryStrategy == "" {
		return StrategyFloors
	}
	return *c.DiscoveryStrategy
}
