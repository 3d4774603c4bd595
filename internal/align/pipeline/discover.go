// Package pipeline runs an alignment end to end: discover axes per axis in
// parallel, snap every vertex, summarise and validate.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/structure.align/internal/align/axisline"
	"github.com/banshee-data/structure.align/internal/align/cluster"
	"github.com/banshee-data/structure.align/internal/align/thread"
	"github.com/banshee-data/structure.align/internal/config"
	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

var logger = monitoring.Component("pipeline")

// ErrUnsupportedAxis is returned by a Discoverer asked for an axis it
// cannot produce lines on.
var ErrUnsupportedAxis = errors.New("axis not supported by discovery strategy")

// Discoverer finds the canonical coordinates of one axis.
type Discoverer interface {
	Name() string
	Discover(vertices []structure.Vertex, a structure.Axis) ([]structure.AxisLine, error)
}

// ClusterDiscoverer clusters the raw coordinates of an axis and merges the
// clusters into threads.
type ClusterDiscoverer struct {
	clusterer cluster.Clusterer
	params    thread.Params
}

func NewClusterDiscoverer(p config.AlignmentParams) *ClusterDiscoverer {
	return &ClusterDiscoverer{
		clusterer: cluster.NewToleranceClusterer(p.Cluster()),
		params:    p.Thread(),
	}
}

func (d *ClusterDiscoverer) Name() string { return config.StrategyClusters }

// Threads returns the threads of one axis.
func (d *ClusterDiscoverer) Threads(vertices []structure.Vertex, a structure.Axis) []thread.Thread {
	return thread.Detect(structure.Coords(vertices, a), a, d.clusterer, d.params)
}

func (d *ClusterDiscoverer) Discover(vertices []structure.Vertex, a structure.Axis) ([]structure.AxisLine, error) {
	return ThreadLines(d.Threads(vertices, a)), nil
}

// ThreadLines converts threads to axis lines, keeping order and ids.
func ThreadLines(threads []thread.Thread) []structure.AxisLine {
	lines := make([]structure.AxisLine, len(threads))
	for i, t := range threads {
		lines[i] = t.AxisLine()
	}
	return lines
}

// FloorDiscoverer keeps plan positions that recur on enough floor levels.
type FloorDiscoverer struct {
	params axisline.Params
}

func NewFloorDiscoverer(p config.AlignmentParams) *FloorDiscoverer {
	return &FloorDiscoverer{params: p.AxisLine()}
}

func (d *FloorDiscoverer) Name() string { return config.StrategyFloors }

// Discover selects lines on X or Y. Z is the floor axis itself and is
// rejected.
func (d *FloorDiscoverer) Discover(vertices []structure.Vertex, a structure.Axis) ([]structure.AxisLine, error) {
	if a == structure.AxisZ {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedAxis, a, d.Name())
	}
	return axisline.Select(axisline.Samples(vertices, a), a, d.params), nil
}

// NewDiscoverer returns the discoverer named by p.DiscoveryStrategy.
func NewDiscoverer(p config.AlignmentParams) (Discoverer, error) {
	switch p.DiscoveryStrategy {
	case config.StrategyFloors, "":
		return NewFloorDiscoverer(p), nil
	case config.StrategyClusters:
		return NewClusterDiscoverer(p), nil
	default:
		return nil, fmt.Errorf("%w: unknown discovery strategy %q", config.ErrInvalidParams, p.DiscoveryStrategy)
	}
}

var (
	_ Discoverer = (*ClusterDiscoverer)(nil)
	_ Discoverer = (*FloorDiscoverer)(nil)
)
