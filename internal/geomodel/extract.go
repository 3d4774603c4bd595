package geomodel

import (
	"fmt"

	"github.com/banshee-data/structure.align/internal/align/compare"
	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

var logger = monitoring.Component("geomodel")

// layerTypes maps top-level layer names to element types. Objects on other
// layers fall back to their name prefix.
var layerTypes = map[string]structure.ElementType{
	"Poteau":  structure.ElementColumn,
	"Poutre":  structure.ElementBeam,
	"Voile":   structure.ElementWall,
	"Dalle":   structure.ElementSlab,
	"Appuis":  structure.ElementSupport,
	"Filaire": structure.ElementColumnSpan,
}

// ElementTypeOf resolves the element type of an object from its layer, then
// from its name.
func ElementTypeOf(o Object) structure.ElementType {
	if t, ok := layerTypes[o.RootLayer()]; ok {
		return t
	}
	return structure.InferElementType(o.Name)
}

// Extraction is the element and vertex population read from a model.
// Element and vertex ids are assigned sequentially from 1 in model order.
type Extraction struct {
	Elements     []structure.Element
	Vertices     []structure.Vertex
	TotalObjects int
	// Skipped lists unnamed objects and objects of unsupported kinds.
	Skipped []string
}

// Extract reads every named, supported object of m as an element with its
// vertices. Object names must be unique.
func Extract(m *Model) (*Extraction, error) {
	ext := &Extraction{TotalObjects: len(m.Objects)}
	seen := make(map[string]struct{}, len(m.Objects))
	var elementID, vertexID int64

	for i, obj := range m.Objects {
		if obj.Name == "" {
			ext.Skipped = append(ext.Skipped, fmt.Sprintf("unnamed-object-%d", i))
			continue
		}
		if _, ok := seen[obj.Name]; ok {
			return nil, fmt.Errorf("%w: %q", structure.ErrDuplicateElementName, obj.Name)
		}
		seen[obj.Name] = struct{}{}

		if _, ok := obj.Geometry.(*Unsupported); ok {
			ext.Skipped = append(ext.Skipped, obj.Name)
			logger.Debugf("skipped unsupported geometry %q for %s", obj.Geometry.Kind(), obj.Name)
			continue
		}

		elementID++
		ext.Elements = append(ext.Elements, structure.Element{
			ID:           elementID,
			Name:         obj.Name,
			Type:         ElementTypeOf(obj),
			GeometryKind: string(obj.Geometry.Kind()),
		})
		for idx, p := range obj.Geometry.Vertices() {
			vertexID++
			ext.Vertices = append(ext.Vertices, structure.Vertex{
				ID:          vertexID,
				ElementID:   elementID,
				X:           p.X,
				Y:           p.Y,
				Z:           p.Z,
				VertexIndex: idx,
			})
		}
	}

	logger.Logf("extracted %d vertices from %d elements (%d objects, %d skipped)",
		len(ext.Vertices), len(ext.Elements), ext.TotalObjects, len(ext.Skipped))
	return ext, nil
}

// CompareObjects reduces the named objects of m to the form used by the
// object comparator.
func (m *Model) CompareObjects() []compare.Object {
	out := make([]compare.Object, 0, len(m.Objects))
	for _, obj := range m.Objects {
		if obj.Name == "" {
			continue
		}
		verts := obj.Geometry.Vertices()
		pts := make([][3]float64, len(verts))
		for i, p := range verts {
			pts[i] = [3]float64{p.X, p.Y, p.Z}
		}
		out = append(out, compare.Object{Name: obj.Name, Points: pts})
	}
	return out
}
