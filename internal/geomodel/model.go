package geomodel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// maxModelFileSize bounds model files read from disk.
const maxModelFileSize = 256 << 20

// layerSeparator splits a nested layer path, e.g. "Poteau::RDC".
const layerSeparator = "::"

// ErrMissingGeometry is returned when an object has no geometry field.
var ErrMissingGeometry = errors.New("object has no geometry")

// Object is one named entry of a model.
type Object struct {
	Name     string
	Layer    string
	Geometry Geometry
}

// RootLayer returns the top-level layer of the object's layer path.
func (o Object) RootLayer() string {
	root, _, _ := strings.Cut(o.Layer, layerSeparator)
	return strings.TrimSpace(root)
}

// Model is an ordered list of objects as stored in a model file.
type Model struct {
	Objects []Object
}

// ReadModel loads a model file from disk.
func ReadModel(path string) (*Model, error) {
	if filepath.Ext(path) != ".json" {
		return nil, fmt.Errorf("model file must be .json, got %q", filepath.Ext(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()
	m, err := DecodeModel(io.LimitReader(f, maxModelFileSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	return m, nil
}

// DecodeModel parses a model from r.
func DecodeModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// WriteModel writes m to path, creating parent directories.
func WriteModel(path string, m *Model) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

type modelJSON struct {
	Objects []Object `json:"objects"`
}

func (m Model) MarshalJSON() ([]byte, error) {
	objs := m.Objects
	if objs == nil {
		objs = []Object{}
	}
	return json.Marshal(modelJSON{Objects: objs})
}

func (m *Model) UnmarshalJSON(data []byte) error {
	var raw modelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Objects = raw.Objects
	return nil
}

type objectJSON struct {
	Name     string          `json:"name,omitempty"`
	Layer    string          `json:"layer,omitempty"`
	Geometry json.RawMessage `json:"geometry"`
}

func (o Object) MarshalJSON() ([]byte, error) {
	if o.Geometry == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingGeometry, o.Name)
	}
	geom, err := encodeGeometry(o.Geometry)
	if err != nil {
		return nil, fmt.Errorf("object %q: %w", o.Name, err)
	}
	return json.Marshal(objectJSON{Name: o.Name, Layer: o.Layer, Geometry: geom})
}

func (o *Object) UnmarshalJSON(data []byte) error {
	var raw objectJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Geometry) == 0 || string(raw.Geometry) == "null" {
		return fmt.Errorf("%w: %q", ErrMissingGeometry, raw.Name)
	}
	geom, err := decodeGeometry(raw.Geometry)
	if err != nil {
		return fmt.Errorf("object %q: %w", raw.Name, err)
	}
	o.Name = raw.Name
	o.Layer = raw.Layer
	o.Geometry = geom
	return nil
}

// MarshalJSON encodes a point as [x, y, z].
func (p Point3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.X, p.Y, p.Z})
}

func (p *Point3) UnmarshalJSON(data []byte) error {
	var a [3]float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	p.X, p.Y, p.Z = a[0], a[1], a[2]
	return nil
}

// MarshalJSON encodes a control point as [x, y, z, w].
func (c ControlPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{c.X, c.Y, c.Z, c.W})
}

func (c *ControlPoint) UnmarshalJSON(data []byte) error {
	var a []float64
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("control point: %w", err)
	}
	switch len(a) {
	case 3:
		c.X, c.Y, c.Z, c.W = a[0], a[1], a[2], 1
	case 4:
		c.X, c.Y, c.Z, c.W = a[0], a[1], a[2], a[3]
	default:
		return fmt.Errorf("control point: want 3 or 4 values, got %d", len(a))
	}
	return nil
}

type geometryJSON struct {
	Kind          Kind           `json:"kind"`
	Location      *Point3        `json:"location,omitempty"`
	Start         *Point3        `json:"start,omitempty"`
	End           *Point3        `json:"end,omitempty"`
	Degree        int            `json:"degree,omitempty"`
	Points        []Point3       `json:"points,omitempty"`
	ControlPoints []ControlPoint `json:"control_points,omitempty"`
	Vertices      []Point3       `json:"vertices,omitempty"`
	SurfacePoints []Point3       `json:"surface_points,omitempty"`
}

func encodeGeometry(g Geometry) (json.RawMessage, error) {
	var out geometryJSON
	switch g := g.(type) {
	case *PointGeom:
		out = geometryJSON{Kind: KindPoint, Location: &g.Location}
	case *LineCurve:
		out = geometryJSON{Kind: KindLine, Start: &g.Start, End: &g.End}
	case *PolylineCurve:
		out = geometryJSON{Kind: KindPolyline, Points: g.Points}
	case *NurbsCurve:
		out = geometryJSON{Kind: KindNurbs, Degree: g.Degree, ControlPoints: g.Points}
	case *Brep:
		out = geometryJSON{Kind: KindBrep, Vertices: g.Corners, SurfacePoints: g.SurfacePoints}
	case *Unsupported:
		return json.RawMessage(g.Raw), nil
	default:
		return nil, fmt.Errorf("unknown geometry type %T", g)
	}
	return json.Marshal(out)
}

func decodeGeometry(data json.RawMessage) (Geometry, error) {
	var head struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Kind {
	case KindPoint, KindLine, KindPolyline, KindNurbs, KindBrep:
	default:
		kept := make([]byte, len(data))
		copy(kept, data)
		return &Unsupported{KindName: string(head.Kind), Raw: kept}, nil
	}

	var raw geometryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", head.Kind, err)
	}
	switch raw.Kind {
	case KindPoint:
		if raw.Location == nil {
			return nil, fmt.Errorf("point without location")
		}
		return &PointGeom{Location: *raw.Location}, nil
	case KindLine:
		if raw.Start == nil || raw.End == nil {
			return nil, fmt.Errorf("line curve needs start and end")
		}
		return &LineCurve{Start: *raw.Start, End: *raw.End}, nil
	case KindPolyline:
		return &PolylineCurve{Points: raw.Points}, nil
	case KindNurbs:
		return &NurbsCurve{Degree: raw.Degree, Points: raw.ControlPoints}, nil
	default:
		return &Brep{Corners: raw.Vertices, SurfacePoints: raw.SurfacePoints}, nil
	}
}
