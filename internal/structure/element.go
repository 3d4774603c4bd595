package structure

import "strings"

// ElementType is the closed set of structural element kinds.
type ElementType int

const (
	ElementUnknown ElementType = iota
	ElementColumn              // poteau: point-like column
	ElementColumnSpan          // filaire: column drawn as a floor-to-floor line
	ElementWall                // voile
	ElementSlab                // dalle
	ElementSupport             // appui
	ElementBeam                // poutre
)

var elementTypeNames = map[ElementType]string{
	ElementUnknown:    "unknown",
	ElementColumn:     "poteau",
	ElementColumnSpan: "filaire",
	ElementWall:       "voile",
	ElementSlab:       "dalle",
	ElementSupport:    "appui",
	ElementBeam:       "poutre",
}

// elementPrefixes is checked in order; "appuis" must match before "appui".
var elementPrefixes = []struct {
	prefix string
	typ    ElementType
}{
	{"dalle", ElementSlab},
	{"voile", ElementWall},
	{"appuis", ElementSupport},
	{"appui", ElementSupport},
	{"poteau", ElementColumn},
	{"poutre", ElementBeam},
	{"filaire", ElementColumnSpan},
}

func (t ElementType) String() string {
	if name, ok := elementTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseElementType maps a stored type name to an ElementType. Unknown names
// map to ElementUnknown.
func ParseElementType(s string) ElementType {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range elementTypeNames {
		if name == s {
			return t
		}
	}
	return ElementUnknown
}

// InferElementType guesses the type of an element from its object name, e.g.
// "Poteau_12" -> ElementColumn.
func InferElementType(name string) ElementType {
	lower := strings.ToLower(name)
	for _, p := range elementPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.typ
		}
	}
	return ElementUnknown
}

// SnapClass says how the endpoint snapper treats an element.
type SnapClass int

const (
	// SnapSpan elements keep up to two endpoints per axis.
	SnapSpan SnapClass = iota
	// SnapPoint elements collapse to a single endpoint per axis.
	SnapPoint
	// SnapSkip elements pass through unchanged.
	SnapSkip
)

func (c SnapClass) String() string {
	switch c {
	case SnapPoint:
		return "point"
	case SnapSkip:
		return "skip"
	default:
		return "span"
	}
}

// snapPolicies is the single table deciding how each element type snaps.
// Types missing from the table snap as spans.
var snapPolicies = map[ElementType]SnapClass{
	ElementColumn:     SnapPoint,
	ElementSupport:    SnapPoint,
	ElementColumnSpan: SnapSpan,
	ElementWall:       SnapSpan,
	ElementBeam:       SnapSpan,
	ElementUnknown:    SnapSpan,
	// Slabs are regenerated wholesale downstream.
	ElementSlab: SnapSkip,
}

// SnapClass returns the snap policy for the element type.
func (t ElementType) SnapClass() SnapClass {
	if c, ok := snapPolicies[t]; ok {
		return c
	}
	return SnapSpan
}

// Element is read-only metadata for one structural element.
type Element struct {
	ID           int64
	Name         string
	Type         ElementType
	GeometryKind string
}

// VertexCoord is one aligned position of an element, addressed by its index
// within the element's native geometry.
type VertexCoord struct {
	VertexIndex int
	X, Y, Z     float64
}

// AlignedElement carries the aligned coordinates of one element, ordered by
// vertex index.
type AlignedElement struct {
	ID           int64
	Name         string
	GeometryKind string
	Coords       []VertexCoord
}
