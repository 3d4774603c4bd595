package cluster

import (
	"github.com/banshee-data/structure.align/internal/monitoring"
)

const (
	// DefaultAlpha is the default tolerance in metres.
	DefaultAlpha = 0.05
	// DefaultMinClusterSize is the minimum number of values per cluster.
	DefaultMinClusterSize = 3
)

var logger = monitoring.Component("cluster")

// Params configures the tolerance-bounded clusterer.
type Params struct {
	Alpha          float64 // neighbourhood radius and centroid tolerance (m)
	MinClusterSize int     // DBSCAN min samples and post-prune minimum size
}

// DefaultParams returns the default clustering parameters.
func DefaultParams() Params {
	return Params{
		Alpha:          DefaultAlpha,
		MinClusterSize: DefaultMinClusterSize,
	}
}

// Cluster is one validated group of values. Every value is within Alpha of
// Centroid.
type Cluster struct {
	Values   []float64
	Indices  []int // positions in the input slice
	Centroid float64
	Std      float64 // population standard deviation
}

// Size returns the number of members.
func (c Cluster) Size() int { return len(c.Values) }

// Clusterer discovers clusters in one axis of values.
type Clusterer interface {
	Cluster(values []float64) []Cluster
	Params() Params
}

// ToleranceClusterer runs DBSCAN followed by centroid-tolerance pruning.
type ToleranceClusterer struct {
	params Params
}

// NewToleranceClusterer creates a clusterer with the given parameters.
func NewToleranceClusterer(params Params) *ToleranceClusterer {
	return &ToleranceClusterer{params: params}
}

// Cluster returns the validated clusters of values in DBSCAN label order.
func (c *ToleranceClusterer) Cluster(values []float64) []Cluster {
	return Prune(values, DBSCAN(values, c.params), c.params)
}

// Params returns the clusterer parameters.
func (c *ToleranceClusterer) Params() Params { return c.params }

// Verify at compile time that *ToleranceClusterer implements Clusterer.
var _ Clusterer = (*ToleranceClusterer)(nil)
