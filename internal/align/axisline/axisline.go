// Package axisline selects canonical axis lines from the positions that
// recur on several floors of the building.
//
// Unlike the clustering path, the selector never averages coordinates: an
// axis line is always one of the rounded input positions. A position is kept
// only when vertices at that position are found on at least MinFloors
// distinct floor levels.
package axisline

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

const (
	DefaultMinFloors           = 3
	DefaultClusterRadius       = 0.002
	DefaultRoundingPrecision   = 0.01
	DefaultFloorMatchTolerance = 0.05

	// fallbackFloorDecimals buckets Z to 0.1 when no floor levels are known.
	fallbackFloorDecimals = 1

	// radiusSlack absorbs representation error between rounded positions.
	radiusSlack = 1e-9
)

// DefaultFloorZLevels are the storey elevations of the reference building.
var DefaultFloorZLevels = []float64{
	-4.44, -1.56, 2.12, 5.48, 8.20, 13.32, 17.96, 22.12, 26.28, 29.64, 32.36,
}

var logger = monitoring.Component("axisline")

// Params configures multi-floor selection.
type Params struct {
	MinFloors           int
	ClusterRadius       float64
	RoundingPrecision   float64
	FloorMatchTolerance float64
	// FloorZLevels may be empty, in which case Z rounded to 0.1 stands in
	// for the floor.
	FloorZLevels []float64
}

// DefaultParams returns the default selection parameters.
func DefaultParams() Params {
	levels := make([]float64, len(DefaultFloorZLevels))
	copy(levels, DefaultFloorZLevels)
	return Params{
		MinFloors:           DefaultMinFloors,
		ClusterRadius:       DefaultClusterRadius,
		RoundingPrecision:   DefaultRoundingPrecision,
		FloorMatchTolerance: DefaultFloorMatchTolerance,
		FloorZLevels:        levels,
	}
}

// Sample is one vertex projected onto a plan axis, with its elevation.
type Sample struct {
	Coord float64
	Z     float64
}

// Samples projects vertices onto axis a.
func Samples(vertices []structure.Vertex, a structure.Axis) []Sample {
	out := make([]Sample, len(vertices))
	for i, v := range vertices {
		out[i] = Sample{Coord: v.Coord(a), Z: v.Z}
	}
	return out
}

// MatchFloor returns the floor level nearest to z. With no configured levels
// it returns z rounded to 0.1. It reports false when the nearest level is
// farther than tolerance.
func MatchFloor(z float64, levels []float64, tolerance float64) (float64, bool) {
	if len(levels) == 0 {
		return structure.Round(z, fallbackFloorDecimals), true
	}

	best := levels[0]
	bestDist := math.Abs(z - best)
	for _, fz := range levels[1:] {
		if d := math.Abs(z - fz); d < bestDist {
			best, bestDist = fz, d
		}
	}
	if bestDist <= tolerance {
		return best, true
	}
	return 0, false
}

// bucket accumulates the vertices found at one rounded position.
type bucket struct {
	position float64
	count    int
	floors   map[float64]struct{}
}

func newBucket(position float64) *bucket {
	return &bucket{position: position, floors: make(map[float64]struct{})}
}

func (b *bucket) absorb(o *bucket) {
	b.count += o.count
	for f := range o.floors {
		b.floors[f] = struct{}{}
	}
}

// Select finds the axis lines of one axis. The result is sorted by position
// and numbered from 1.
func Select(samples []Sample, a structure.Axis, params Params) []structure.AxisLine {
	if len(samples) == 0 {
		return nil
	}

	buckets := bucketize(samples, params)
	groups := mergeAnchored(buckets, params.ClusterRadius)

	var lines []structure.AxisLine
	for _, g := range groups {
		if len(g.floors) < params.MinFloors {
			continue
		}
		lines = append(lines, structure.AxisLine{
			Axis:        a,
			Position:    g.position,
			FloorCount:  len(g.floors),
			VertexCount: g.count,
		})
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Position < lines[j].Position })
	for i := range lines {
		lines[i].ID = structure.LineID(a, i+1)
	}

	logger.Logf("axis %s: %d axis lines from %d positions (min_floors=%d)",
		a, len(lines), len(buckets), params.MinFloors)
	return lines
}

// bucketize rounds each coordinate and groups samples by the rounded value.
// Buckets are returned sorted by position.
func bucketize(samples []Sample, params Params) []*bucket {
	decimals := structure.Decimals(params.RoundingPrecision)

	byPos := make(map[float64]*bucket)
	for _, s := range samples {
		pos := structure.Round(s.Coord, decimals)
		b, ok := byPos[pos]
		if !ok {
			b = newBucket(pos)
			byPos[pos] = b
		}
		b.count++
		if floor, ok := MatchFloor(s.Z, params.FloorZLevels, params.FloorMatchTolerance); ok {
			b.floors[floor] = struct{}{}
		}
	}

	out := make([]*bucket, 0, len(byPos))
	for _, b := range byPos {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].position < out[j].position })
	return out
}

// mergeAnchored groups sorted buckets whose position lies within radius of
// the first bucket of the group. The group takes the position of its most
// populated bucket; ties go to the lowest position.
func mergeAnchored(buckets []*bucket, radius float64) []*bucket {
	if len(buckets) == 0 {
		return nil
	}

	var groups []*bucket
	anchor := buckets[0].position
	best := buckets[0].count
	cur := newBucket(anchor)
	cur.absorb(buckets[0])

	for _, b := range buckets[1:] {
		if b.position-anchor <= radius+radiusSlack {
			cur.absorb(b)
			if b.count > best {
				best = b.count
				cur.position = b.position
			}
			continue
		}
		groups = append(groups, cur)
		anchor = b.position
		best = b.count
		cur = newBucket(anchor)
		cur.absorb(b)
	}
	return append(groups, cur)
}

// Discover selects axis lines on both plan axes.
func Discover(vertices []structure.Vertex, params Params) (xs, ys []structure.AxisLine) {
	xs = Select(Samples(vertices, structure.AxisX), structure.AxisX, params)
	ys = Select(Samples(vertices, structure.AxisY), structure.AxisY, params)
	return xs, ys
}
