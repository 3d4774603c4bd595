package geomodel

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

func init() {
	monitoring.SetLogger(nil)
}

const sampleModel = `{
  "objects": [
    {"name": "Poteau_1", "layer": "Poteau::RDC", "geometry": {"kind": "point", "location": [1, 2, 3]}},
    {"name": "Beam_A", "layer": "Poutre", "geometry": {"kind": "line_curve", "start": [0, 0, 0], "end": [5, 0, 0]}},
    {"name": "voile_7", "geometry": {"kind": "polyline_curve", "points": [[0, 0, 0], [0, 4, 0], [0, 4, 3]]}},
    {"name": "filaire_2", "geometry": {"kind": "nurbs_curve", "degree": 1, "control_points": [[0, 0, 0, 0.5], [0, 0, 3]]}},
    {"name": "Dalle_1", "layer": "Dalle", "geometry": {"kind": "brep", "vertices": [[0, 0, 0], [1, 0, 0]], "surface_points": [[0.5, 0, 0]]}},
    {"name": "Mesh_1", "geometry": {"kind": "mesh", "faces": [[0, 1, 2]]}},
    {"layer": "Poteau", "geometry": {"kind": "point", "location": [9, 9, 9]}}
  ]
}`

func decodeSample(t *testing.T) *Model {
	t.Helper()
	m, err := DecodeModel(strings.NewReader(sampleModel))
	require.NoError(t, err)
	require.Len(t, m.Objects, 7)
	return m
}

func coords(pts ...[3]float64) []structure.VertexCoord {
	out := make([]structure.VertexCoord, len(pts))
	for i, p := range pts {
		out[i] = structure.VertexCoord{VertexIndex: i, X: p[0], Y: p[1], Z: p[2]}
	}
	return out
}

func TestDecodeModel_Kinds(t *testing.T) {
	m := decodeSample(t)

	kinds := make([]Kind, len(m.Objects))
	for i, o := range m.Objects {
		kinds[i] = o.Geometry.Kind()
	}
	assert.Equal(t, []Kind{KindPoint, KindLine, KindPolyline, KindNurbs, KindBrep, "mesh", KindPoint}, kinds)

	nurbs := m.Objects[3].Geometry.(*NurbsCurve)
	assert.Equal(t, 0.5, nurbs.Points[0].W)
	assert.Equal(t, 1.0, nurbs.Points[1].W, "missing weight defaults to 1")
	assert.Equal(t, "Poteau", m.Objects[0].RootLayer())
}

func TestDecodeModel_Errors(t *testing.T) {
	_, err := DecodeModel(strings.NewReader(`{"objects": [{"name": "a"}]}`))
	assert.True(t, errors.Is(err, ErrMissingGeometry))

	_, err = DecodeModel(strings.NewReader(`{"objects": [{"name": "a", "geometry": {"kind": "point"}}]}`))
	assert.Error(t, err)

	_, err = DecodeModel(strings.NewReader(`{"objects": [{"name": "a", "geometry": {"kind": "nurbs_curve", "control_points": [[1, 2]]}}]}`))
	assert.Error(t, err)
}

func TestModel_RoundTrip(t *testing.T) {
	m := decodeSample(t)
	path := filepath.Join(t.TempDir(), "out", "model.json")
	require.NoError(t, WriteModel(path, m))

	back, err := ReadModel(path)
	require.NoError(t, err)
	require.Len(t, back.Objects, len(m.Objects))
	for i := range m.Objects {
		assert.Equal(t, m.Objects[i].Name, back.Objects[i].Name)
		assert.Equal(t, m.Objects[i].Layer, back.Objects[i].Layer)
		assert.Equal(t, m.Objects[i].Geometry.Vertices(), back.Objects[i].Geometry.Vertices())
	}

	unsupported := back.Objects[5].Geometry.(*Unsupported)
	assert.True(t, bytes.Contains(unsupported.Raw, []byte(`"faces"`)), "unsupported geometry kept verbatim")
}

func TestReadModel_RejectsNonJSON(t *testing.T) {
	_, err := ReadModel(filepath.Join(t.TempDir(), "model.3dm"))
	assert.Error(t, err)
}

func TestPointAndLine_Apply(t *testing.T) {
	p := &PointGeom{Location: Point3{1, 1, 1}}
	res := p.Apply(coords([3]float64{2, 2, 2}))
	assert.Equal(t, ApplyUpdated, res.Status)
	assert.Equal(t, Point3{2, 2, 2}, p.Location)

	res = p.Apply(coords([3]float64{0, 0, 0}, [3]float64{1, 1, 1}))
	assert.Equal(t, ApplyCountMismatch, res.Status)
	assert.Equal(t, 0, res.Updated())
	assert.Equal(t, Point3{2, 2, 2}, p.Location, "mismatch leaves geometry untouched")

	l := &LineCurve{Start: Point3{0, 0, 0}, End: Point3{5, 0, 0}}
	// Out-of-order input is applied by vertex index.
	in := []structure.VertexCoord{
		{VertexIndex: 1, X: 5.01},
		{VertexIndex: 0, X: 0.02},
	}
	res = l.Apply(in)
	require.Equal(t, ApplyUpdated, res.Status)
	assert.Equal(t, 2, res.Updated())
	assert.Equal(t, 0.02, l.Start.X)
	assert.Equal(t, 5.01, l.End.X)

	assert.Equal(t, ApplyCountMismatch, l.Apply(coords([3]float64{0, 0, 0})).Status)
}

func TestPolyline_IndexGap(t *testing.T) {
	g := &PolylineCurve{Points: []Point3{{0, 0, 0}, {1, 0, 0}}}
	res := g.Apply([]structure.VertexCoord{{VertexIndex: 0}, {VertexIndex: 2}})
	assert.Equal(t, ApplyCountMismatch, res.Status)
}

func TestNurbs_KeepsWeights(t *testing.T) {
	g := &NurbsCurve{Degree: 1, Points: []ControlPoint{{0, 0, 0, 0.5}, {0, 0, 3, 2}}}
	res := g.Apply(coords([3]float64{0.01, 0, 0}, [3]float64{0.01, 0, 3}))
	require.Equal(t, ApplyUpdated, res.Status)
	assert.Equal(t, ControlPoint{0.01, 0, 0, 0.5}, g.Points[0])
	assert.Equal(t, ControlPoint{0.01, 0, 3, 2}, g.Points[1])
}

func TestBrep_UniformTranslation(t *testing.T) {
	g := &Brep{
		Corners:       []Point3{{0, 0, 0}, {1, 0, 0}},
		SurfacePoints: []Point3{{0.5, 0, 0}},
	}
	res := g.Apply(coords([3]float64{0.1, 0, 0}, [3]float64{1.1, 0, 0}))
	require.Equal(t, ApplyUpdated, res.Status)
	assert.Less(t, res.Residual, 1e-9)
	assert.InDelta(t, 0.6, g.SurfacePoints[0].X, 1e-12)
}

func TestBrep_ResidualFixup(t *testing.T) {
	g := &Brep{
		Corners:       []Point3{{0, 0, 0}, {1, 0, 0}},
		SurfacePoints: []Point3{{0.5, 0, 0}},
	}
	res := g.Apply(coords([3]float64{0, 0, 0}, [3]float64{1, 0, 0.01}))
	require.Equal(t, ApplyUpdated, res.Status)
	assert.InDelta(t, 0.005, res.Residual, 1e-12)
	// Corners land exactly on their targets; the surface only moved rigidly.
	assert.Equal(t, Point3{0, 0, 0}, g.Corners[0])
	assert.Equal(t, Point3{1, 0, 0.01}, g.Corners[1])
	assert.InDelta(t, 0.005, g.SurfacePoints[0].Z, 1e-12)
}

func TestExtract(t *testing.T) {
	m := decodeSample(t)
	ext, err := Extract(m)
	require.NoError(t, err)

	assert.Equal(t, 7, ext.TotalObjects)
	assert.Equal(t, []string{"Mesh_1", "unnamed-object-6"}, ext.Skipped)
	require.Len(t, ext.Elements, 5)

	types := map[string]structure.ElementType{}
	for _, el := range ext.Elements {
		types[el.Name] = el.Type
	}
	assert.Equal(t, map[string]structure.ElementType{
		"Poteau_1":  structure.ElementColumn,
		"Beam_A":    structure.ElementBeam, // from layer
		"voile_7":   structure.ElementWall, // from name
		"filaire_2": structure.ElementColumnSpan,
		"Dalle_1":   structure.ElementSlab,
	}, types)

	// 1 + 2 + 3 + 2 + 2 vertices, sequential ids, per-element indices.
	require.Len(t, ext.Vertices, 10)
	for i, v := range ext.Vertices {
		assert.Equal(t, int64(i+1), v.ID)
	}
	assert.Equal(t, int64(3), ext.Vertices[3].ElementID)
	assert.Equal(t, 0, ext.Vertices[3].VertexIndex)
	assert.Equal(t, 2, ext.Vertices[5].VertexIndex)
	assert.Equal(t, "brep", ext.Elements[4].GeometryKind)
}

func TestExtract_DuplicateName(t *testing.T) {
	m := &Model{Objects: []Object{
		{Name: "a", Geometry: &PointGeom{}},
		{Name: "a", Geometry: &PointGeom{}},
	}}
	_, err := Extract(m)
	assert.True(t, errors.Is(err, structure.ErrDuplicateElementName))
}

func TestApplyAligned(t *testing.T) {
	m := decodeSample(t)
	aligned := map[string]structure.AlignedElement{
		"Poteau_1":  {Name: "Poteau_1", Coords: coords([3]float64{1.01, 2, 3})},
		"Beam_A":    {Name: "Beam_A", Coords: coords([3]float64{0, 0, 0})},
		"voile_7":   {Name: "voile_7"},
		"Dalle_1":   {Name: "Dalle_1", Coords: coords([3]float64{0, 0, 0}, [3]float64{1, 0, 0.01})},
		"Mesh_1":    {Name: "Mesh_1", Coords: coords([3]float64{0, 0, 0})},
		"filaire_2": {Name: "filaire_2", Coords: coords([3]float64{0.02, 0, 0}, [3]float64{0.02, 0, 3})},
	}

	rep := ApplyAligned(m, aligned)
	assert.Equal(t, 7, rep.TotalObjects)
	assert.Equal(t, 3, rep.UpdatedObjects)
	assert.Equal(t, 5, rep.UpdatedVertices)
	assert.Equal(t, []string{"unnamed-object-6"}, rep.SkippedObjects)
	assert.Equal(t, []string{"Mesh_1 (mesh)"}, rep.SkippedUnsupported)
	assert.Equal(t, []string{"Beam_A"}, rep.MismatchedObjects)
	require.Len(t, rep.BrepResiduals, 1)
	assert.Equal(t, "Dalle_1", rep.BrepResiduals[0].Name)

	assert.Equal(t, Point3{1.01, 2, 3}, m.Objects[0].Geometry.(*PointGeom).Location)
	assert.Equal(t, Point3{5, 0, 0}, m.Objects[1].Geometry.(*LineCurve).End)
}

func TestModel_CompareObjects(t *testing.T) {
	m := decodeSample(t)
	objs := m.CompareObjects()
	require.Len(t, objs, 6)
	assert.Equal(t, "Beam_A", objs[1].Name)
	assert.Equal(t, [][3]float64{{0, 0, 0}, {5, 0, 0}}, objs[1].Points)
	assert.Empty(t, objs[5].Points)
}
