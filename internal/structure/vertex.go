package structure

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVertexID is returned when two input vertices share an id.
	ErrDuplicateVertexID = errors.New("duplicate vertex id")
	// ErrDuplicateElementName is returned when two elements share a name
	// where names are used as keys.
	ErrDuplicateElementName = errors.New("duplicate element name")
	// ErrEmptyInput is returned when an alignment is requested over no
	// vertices.
	ErrEmptyInput = errors.New("no input vertices")
)

// Vertex is one immutable input point. VertexIndex is its position within
// the owning element's ordered vertex list.
type Vertex struct {
	ID          int64
	ElementID   int64
	X, Y, Z     float64
	VertexIndex int
}

// Coord returns the vertex coordinate on axis a.
func (v Vertex) Coord(a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	default:
		return v.Z
	}
}

// Coords extracts one axis of a vertex population.
func Coords(vertices []Vertex, a Axis) []float64 {
	out := make([]float64, len(vertices))
	for i, v := range vertices {
		out[i] = v.Coord(a)
	}
	return out
}

// CheckUniqueIDs returns ErrDuplicateVertexID if any id repeats.
func CheckUniqueIDs(vertices []Vertex) error {
	seen := make(map[int64]struct{}, len(vertices))
	for _, v := range vertices {
		if _, ok := seen[v.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateVertexID, v.ID)
		}
		seen[v.ID] = struct{}{}
	}
	return nil
}

// GroupByElement groups vertices by element id. The returned id slice keeps
// first-seen order so callers iterate deterministically.
func GroupByElement(vertices []Vertex) ([]int64, map[int64][]Vertex) {
	var order []int64
	groups := make(map[int64][]Vertex)
	for _, v := range vertices {
		if _, ok := groups[v.ElementID]; !ok {
			order = append(order, v.ElementID)
		}
		groups[v.ElementID] = append(groups[v.ElementID], v)
	}
	return order, groups
}

// AlignedVertex is the output record for one input vertex. The *Original
// fields are copied from the input; X, Y, Z hold the aligned position.
type AlignedVertex struct {
	ID          int64
	ElementID   int64
	X, Y, Z     float64
	VertexIndex int

	XOriginal, YOriginal, ZOriginal float64

	// Aligned is the set of axes that produced a snap.
	Aligned AxisSet
	// ThreadIDs holds the matched thread or axis line id per axis, "" if none.
	ThreadIDs [3]string
	// Displacement is the 3D move, for reporting only.
	Displacement float64
}

// Unaligned copies v into an AlignedVertex with no snap and zero displacement.
func Unaligned(v Vertex) AlignedVertex {
	return AlignedVertex{
		ID:          v.ID,
		ElementID:   v.ElementID,
		X:           v.X,
		Y:           v.Y,
		Z:           v.Z,
		VertexIndex: v.VertexIndex,
		XOriginal:   v.X,
		YOriginal:   v.Y,
		ZOriginal:   v.Z,
	}
}

// Coord returns the aligned coordinate on axis a.
func (av AlignedVertex) Coord(a Axis) float64 {
	switch a {
	case AxisX:
		return av.X
	case AxisY:
		return av.Y
	default:
		return av.Z
	}
}

// Original returns the pre-alignment coordinate on axis a.
func (av AlignedVertex) Original(a Axis) float64 {
	switch a {
	case AxisX:
		return av.XOriginal
	case AxisY:
		return av.YOriginal
	default:
		return av.ZOriginal
	}
}

// ThreadID returns the matched thread id on axis a, "" when unmatched.
func (av AlignedVertex) ThreadID(a Axis) string { return av.ThreadIDs[a] }

// AxisLine is a canonical coordinate that geometry snaps to. Lines from the
// floor-selection path carry FloorCount; lines converted from clustering
// threads carry Delta (observed spread, informational only).
type AxisLine struct {
	Axis        Axis
	ID          string
	Position    float64
	FloorCount  int
	VertexCount int
	Delta       float64
}

// LineID formats the sequential identifier used for threads and axis lines,
// e.g. X_001.
func LineID(a Axis, n int) string {
	return fmt.Sprintf("%s_%03d", a, n)
}
