package snap

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/structure"
)

const (
	DefaultClusterRadius       = 0.002
	DefaultMaxSnapDistance     = 0.75
	DefaultOutlierSnapDistance = 4.0
	DefaultMaxEndpointsPoint   = 1
	DefaultMaxEndpointsSpan    = 2
)

// ElementParams configures the element-endpoint snapper.
type ElementParams struct {
	// ClusterRadius groups an element's own coordinates into endpoints, and
	// decides whether a vertex snaps straight to its endpoint's target.
	ClusterRadius       float64
	MaxSnapDistance     float64
	OutlierSnapDistance float64
	RoundingPrecision   float64
	MaxEndpointsPoint   int
	MaxEndpointsSpan    int
}

// DefaultElementParams returns the default endpoint snap parameters.
func DefaultElementParams() ElementParams {
	return ElementParams{
		ClusterRadius:       DefaultClusterRadius,
		MaxSnapDistance:     DefaultMaxSnapDistance,
		OutlierSnapDistance: DefaultOutlierSnapDistance,
		RoundingPrecision:   0.01,
		MaxEndpointsPoint:   DefaultMaxEndpointsPoint,
		MaxEndpointsSpan:    DefaultMaxEndpointsSpan,
	}
}

// Endpoint is one representative position of an element along an axis and
// the axis line it snaps to, if any.
type Endpoint struct {
	Position float64
	Target   float64
	LineID   string
	Snapped  bool
}

// Delta is the displacement applied to vertices carried by this endpoint.
func (e Endpoint) Delta() float64 {
	if !e.Snapped {
		return 0
	}
	return e.Target - e.Position
}

// FindEndpoints sorts coords and chains them into groups where each value is
// within radius of the previous one. Each group is represented by its mean.
// An infinite radius yields a single endpoint.
func FindEndpoints(coords []float64, radius float64) []float64 {
	if len(coords) == 0 {
		return nil
	}
	sorted := make([]float64, len(coords))
	copy(sorted, coords)
	sort.Float64s(sorted)

	var endpoints []float64
	sum, n := sorted[0], 1
	last := sorted[0]
	for _, c := range sorted[1:] {
		if c-last <= radius {
			sum += c
			n++
		} else {
			endpoints = append(endpoints, sum/float64(n))
			sum, n = c, 1
		}
		last = c
	}
	return append(endpoints, sum/float64(n))
}

// NearestEndpoint returns the index of the endpoint closest to coord. When
// coord is exactly midway between two endpoints the lower one wins.
func NearestEndpoint(coord float64, endpoints []Endpoint) int {
	best := 0
	bestDist := math.Abs(coord - endpoints[0].Position)
	for i := 1; i < len(endpoints); i++ {
		if d := math.Abs(coord - endpoints[i].Position); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// ElementSnapper snaps elements to plan-axis lines endpoint by endpoint.
// Z is never modified.
type ElementSnapper struct {
	params   ElementParams
	decimals int
	lines    [2][]structure.AxisLine
}

// NewElementSnapper builds a snapper over the X and Y axis lines.
func NewElementSnapper(xs, ys []structure.AxisLine, params ElementParams) *ElementSnapper {
	return &ElementSnapper{
		params:   params,
		decimals: structure.Decimals(params.RoundingPrecision),
		lines:    [2][]structure.AxisLine{sortLines(xs), sortLines(ys)},
	}
}

// maxEndpoints returns the endpoint cap for a snap class.
func (s *ElementSnapper) maxEndpoints(class structure.SnapClass) int {
	if class == structure.SnapPoint {
		return s.params.MaxEndpointsPoint
	}
	return s.params.MaxEndpointsSpan
}

// Endpoints computes the snapped endpoints of one element along axis a.
func (s *ElementSnapper) Endpoints(coords []float64, a structure.Axis, class structure.SnapClass) []Endpoint {
	limit := s.maxEndpoints(class)

	var positions []float64
	if limit <= 1 {
		positions = FindEndpoints(coords, math.Inf(1))
	} else {
		positions = FindEndpoints(coords, s.params.ClusterRadius)
		if len(positions) > limit {
			positions = []float64{positions[0], positions[len(positions)-1]}
		}
	}

	lines := s.lines[a]
	endpoints := make([]Endpoint, len(positions))
	for i, p := range positions {
		ep := Endpoint{Position: p}
		line, ok := Nearest(p, lines, s.params.MaxSnapDistance)
		if !ok {
			line, ok = Nearest(p, lines, s.params.OutlierSnapDistance)
			if ok {
				logger.Debugf("axis %s: outlier endpoint %.4f snapped to %s at %.4f", a, p, line.ID, line.Position)
			}
		}
		if ok {
			ep.Target = line.Position
			ep.LineID = line.ID
			ep.Snapped = true
		}
		endpoints[i] = ep
	}
	return endpoints
}

// snapCoord moves coord with its nearest endpoint. A coordinate within the
// cluster radius of the endpoint lands on the target rounded to the
// precision; anything farther is shifted by the endpoint delta unrounded, so
// its offset from the endpoint is kept exactly.
func (s *ElementSnapper) snapCoord(coord float64, endpoints []Endpoint) (float64, string, bool) {
	if len(endpoints) == 0 {
		return coord, "", false
	}
	ep := endpoints[NearestEndpoint(coord, endpoints)]
	if !ep.Snapped {
		return coord, "", false
	}
	if math.Abs(coord-ep.Position) <= s.params.ClusterRadius {
		return structure.Round(ep.Target, s.decimals), ep.LineID, true
	}
	return coord + ep.Delta(), ep.LineID, true
}

// AlignElement snaps the vertices of one element. vertices must all belong
// to el.
func (s *ElementSnapper) AlignElement(el structure.Element, vertices []structure.Vertex) []structure.AlignedVertex {
	out := make([]structure.AlignedVertex, len(vertices))
	class := el.Type.SnapClass()
	if class == structure.SnapSkip {
		for i, v := range vertices {
			out[i] = structure.Unaligned(v)
		}
		return out
	}

	var endpoints [2][]Endpoint
	for _, a := range structure.PlanAxes {
		endpoints[a] = s.Endpoints(structure.Coords(vertices, a), a, class)
	}

	for i, v := range vertices {
		av := structure.Unaligned(v)
		for _, a := range structure.PlanAxes {
			c, id, ok := s.snapCoord(v.Coord(a), endpoints[a])
			if !ok {
				continue
			}
			setCoord(&av, a, c)
			av.Aligned = av.Aligned.With(a)
			av.ThreadIDs[a] = id
		}
		av.Displacement = structure.Round(
			structure.Displacement(v.X, v.Y, v.Z, av.X, av.Y, av.Z), displacementDecimals)
		out[i] = av
	}
	return out
}

// Align snaps every element and returns the aligned vertices in input
// order. Vertices whose element is missing from elements are treated as
// spans.
func (s *ElementSnapper) Align(vertices []structure.Vertex, elements map[int64]structure.Element) []structure.AlignedVertex {
	positions := make(map[int64][]int)
	var order []int64
	for i, v := range vertices {
		if _, ok := positions[v.ElementID]; !ok {
			order = append(order, v.ElementID)
		}
		positions[v.ElementID] = append(positions[v.ElementID], i)
	}

	out := make([]structure.AlignedVertex, len(vertices))
	aligned := 0
	for _, id := range order {
		idx := positions[id]
		group := make([]structure.Vertex, len(idx))
		for k, i := range idx {
			group[k] = vertices[i]
		}

		el, ok := elements[id]
		if !ok {
			el = structure.Element{ID: id, Type: structure.ElementUnknown}
		}
		for k, av := range s.AlignElement(el, group) {
			out[idx[k]] = av
			if !av.Aligned.Empty() {
				aligned++
			}
		}
	}

	logAlignedRate(aligned, len(out))
	return out
}
