// Package geomodel is the native geometry side of the aligner: a model file
// of named objects, each backed by one geometry kind that knows how many
// vertices it exposes and how to take aligned coordinates back.
package geomodel

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/structure"
)

// Kind names a geometry representation.
type Kind string

const (
	KindPoint    Kind = "point"
	KindLine     Kind = "line_curve"
	KindPolyline Kind = "polyline_curve"
	KindNurbs    Kind = "nurbs_curve"
	KindBrep     Kind = "brep"
)

// brepResidualWarning is the 1mm residual above which a Brep update is
// reported as out of sync with its edges.
const brepResidualWarning = 0.001

// residualSlack skips fix-ups that the bulk translation already achieved.
const residualSlack = 1e-9

// Point3 is a position in model space.
type Point3 struct {
	X, Y, Z float64
}

func (p Point3) distance(q Point3) float64 {
	return structure.Displacement(p.X, p.Y, p.Z, q.X, q.Y, q.Z)
}

func (p Point3) translate(dx, dy, dz float64) Point3 {
	return Point3{X: p.X + dx, Y: p.Y + dy, Z: p.Z + dz}
}

func pointOf(c structure.VertexCoord) Point3 { return Point3{X: c.X, Y: c.Y, Z: c.Z} }

// ApplyStatus is the outcome of applying aligned coordinates to a geometry.
type ApplyStatus int

const (
	ApplyUpdated ApplyStatus = iota
	ApplyCountMismatch
	ApplyUnsupported
)

func (s ApplyStatus) String() string {
	switch s {
	case ApplyUpdated:
		return "updated"
	case ApplyCountMismatch:
		return "count_mismatch"
	default:
		return "unsupported"
	}
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Status   ApplyStatus
	Expected int
	Got      int
	// Residual is the largest per-vertex correction left after a Brep's
	// bulk translation. Zero for other kinds.
	Residual float64
}

// Updated is the number of vertices written.
func (r ApplyResult) Updated() int {
	if r.Status != ApplyUpdated {
		return 0
	}
	return r.Got
}

// Geometry is one native representation. Vertices are reported in index
// order; Apply writes aligned coordinates back in place.
type Geometry interface {
	Kind() Kind
	VertexCount() int
	Vertices() []Point3
	Apply(coords []structure.VertexCoord) ApplyResult
}

// sortCoords returns coords ordered by vertex index, or false if the
// indices do not cover 0..n-1 exactly once.
func sortCoords(coords []structure.VertexCoord, n int) ([]structure.VertexCoord, bool) {
	if len(coords) != n {
		return nil, false
	}
	sorted := make([]structure.VertexCoord, len(coords))
	copy(sorted, coords)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].VertexIndex < sorted[j].VertexIndex })
	for i, c := range sorted {
		if c.VertexIndex != i {
			return nil, false
		}
	}
	return sorted, true
}

func mismatch(expected int, coords []structure.VertexCoord) ApplyResult {
	return ApplyResult{Status: ApplyCountMismatch, Expected: expected, Got: len(coords)}
}

// PointGeom is a single point.
type PointGeom struct {
	Location Point3
}

func (g *PointGeom) Kind() Kind         { return KindPoint }
func (g *PointGeom) VertexCount() int   { return 1 }
func (g *PointGeom) Vertices() []Point3 { return []Point3{g.Location} }

func (g *PointGeom) Apply(coords []structure.VertexCoord) ApplyResult {
	sorted, ok := sortCoords(coords, 1)
	if !ok {
		return mismatch(1, coords)
	}
	g.Location = pointOf(sorted[0])
	return ApplyResult{Status: ApplyUpdated, Expected: 1, Got: 1}
}

// LineCurve is a straight segment.
type LineCurve struct {
	Start, End Point3
}

func (g *LineCurve) Kind() Kind         { return KindLine }
func (g *LineCurve) VertexCount() int   { return 2 }
func (g *LineCurve) Vertices() []Point3 { return []Point3{g.Start, g.End} }

func (g *LineCurve) Apply(coords []structure.VertexCoord) ApplyResult {
	sorted, ok := sortCoords(coords, 2)
	if !ok {
		return mismatch(2, coords)
	}
	g.Start = pointOf(sorted[0])
	g.End = pointOf(sorted[1])
	return ApplyResult{Status: ApplyUpdated, Expected: 2, Got: 2}
}

// PolylineCurve is an open or closed chain of points.
type PolylineCurve struct {
	Points []Point3
}

func (g *PolylineCurve) Kind() Kind       { return KindPolyline }
func (g *PolylineCurve) VertexCount() int { return len(g.Points) }

func (g *PolylineCurve) Vertices() []Point3 {
	out := make([]Point3, len(g.Points))
	copy(out, g.Points)
	return out
}

func (g *PolylineCurve) Apply(coords []structure.VertexCoord) ApplyResult {
	n := len(g.Points)
	sorted, ok := sortCoords(coords, n)
	if !ok {
		return mismatch(n, coords)
	}
	for _, c := range sorted {
		g.Points[c.VertexIndex] = pointOf(c)
	}
	return ApplyResult{Status: ApplyUpdated, Expected: n, Got: n}
}

// ControlPoint is a weighted NURBS control point. X, Y and Z are Euclidean.
type ControlPoint struct {
	X, Y, Z, W float64
}

// NurbsCurve is a curve defined by weighted control points.
type NurbsCurve struct {
	Degree int
	Points []ControlPoint
}

func (g *NurbsCurve) Kind() Kind       { return KindNurbs }
func (g *NurbsCurve) VertexCount() int { return len(g.Points) }

func (g *NurbsCurve) Vertices() []Point3 {
	out := make([]Point3, len(g.Points))
	for i, p := range g.Points {
		out[i] = Point3{X: p.X, Y: p.Y, Z: p.Z}
	}
	return out
}

// Apply moves the control points and keeps their weights.
func (g *NurbsCurve) Apply(coords []structure.VertexCoord) ApplyResult {
	n := len(g.Points)
	sorted, ok := sortCoords(coords, n)
	if !ok {
		return mismatch(n, coords)
	}
	for _, c := range sorted {
		w := g.Points[c.VertexIndex].W
		g.Points[c.VertexIndex] = ControlPoint{X: c.X, Y: c.Y, Z: c.Z, W: w}
	}
	return ApplyResult{Status: ApplyUpdated, Expected: n, Got: n}
}

// Brep is a boundary representation. Only its topological vertices are
// addressable; SurfacePoints stand for the edge and face geometry that can
// only be moved rigidly.
type Brep struct {
	Corners     []Point3
	SurfacePoints []Point3
}

func (g *Brep) Kind() Kind       { return KindBrep }
func (g *Brep) VertexCount() int { return len(g.Corners) }

func (g *Brep) Vertices() []Point3 {
	out := make([]Point3, len(g.Corners))
	copy(out, g.Corners)
	return out
}

// Apply translates the whole Brep by the mean vertex displacement, then
// moves each vertex onto its exact target. The largest such correction is
// returned as the residual: it is how far the vertices drifted from the
// rigidly translated edges.
func (g *Brep) Apply(coords []structure.VertexCoord) ApplyResult {
	n := len(g.Corners)
	sorted, ok := sortCoords(coords, n)
	if !ok || n == 0 {
		return mismatch(n, coords)
	}

	var dx, dy, dz float64
	for _, c := range sorted {
		orig := g.Corners[c.VertexIndex]
		dx += c.X - orig.X
		dy += c.Y - orig.Y
		dz += c.Z - orig.Z
	}
	fn := float64(n)
	dx, dy, dz = dx/fn, dy/fn, dz/fn

	for i := range g.Corners {
		g.Corners[i] = g.Corners[i].translate(dx, dy, dz)
	}
	for i := range g.SurfacePoints {
		g.SurfacePoints[i] = g.SurfacePoints[i].translate(dx, dy, dz)
	}

	residual := 0.0
	for _, c := range sorted {
		target := pointOf(c)
		r := target.distance(g.Corners[c.VertexIndex])
		if r > residualSlack {
			g.Corners[c.VertexIndex] = target
		}
		residual = math.Max(residual, r)
	}
	return ApplyResult{Status: ApplyUpdated, Expected: n, Got: n, Residual: residual}
}

// Unsupported is a geometry kind the aligner cannot address. Its raw
// encoding is kept so the model round-trips unchanged.
type Unsupported struct {
	KindName string
	Raw      []byte
}

func (g *Unsupported) Kind() Kind         { return Kind(g.KindName) }
func (g *Unsupported) VertexCount() int   { return 0 }
func (g *Unsupported) Vertices() []Point3 { return nil }

func (g *Unsupported) Apply(coords []structure.VertexCoord) ApplyResult {
	return ApplyResult{Status: ApplyUnsupported, Got: len(coords)}
}

var (
	_ Geometry = (*PointGeom)(nil)
	_ Geometry = (*LineCurve)(nil)
	_ Geometry = (*PolylineCurve)(nil)
	_ Geometry = (*NurbsCurve)(nil)
	_ Geometry = (*Brep)(nil)
	_ Geometry = (*Unsupported)(nil)
)
