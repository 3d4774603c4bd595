package structure

import (
	"fmt"
	"math"
	"strings"
)

// Axis identifies one coordinate axis.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// PlanAxes are the horizontal axes that alignment may always modify.
var PlanAxes = []Axis{AxisX, AxisY}

// AllAxes lists X, Y and Z in label order.
var AllAxes = []Axis{AxisX, AxisY, AxisZ}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis accepts "X", "Y" or "Z" in either case.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X":
		return AxisX, nil
	case "Y":
		return AxisY, nil
	case "Z":
		return AxisZ, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// AxisSet is the set of axes that were actually snapped for one vertex.
type AxisSet uint8

// NoAxes is the label written for vertices that were not snapped on any axis.
const NoAxes = "none"

// With returns s with a added.
func (s AxisSet) With(a Axis) AxisSet { return s | 1<<uint(a) }

// Has reports whether a is in the set.
func (s AxisSet) Has(a Axis) bool { return s&(1<<uint(a)) != 0 }

// Empty reports whether no axis was snapped.
func (s AxisSet) Empty() bool { return s == 0 }

// String encodes the set as "X", "XY", "XYZ"... or "none".
func (s AxisSet) String() string {
	if s.Empty() {
		return NoAxes
	}
	var b strings.Builder
	for _, a := range AllAxes {
		if s.Has(a) {
			b.WriteString(a.String())
		}
	}
	return b.String()
}

// ParseAxisSet decodes a label produced by AxisSet.String.
func ParseAxisSet(label string) (AxisSet, error) {
	if label == "" || label == NoAxes {
		return 0, nil
	}
	var s AxisSet
	for _, r := range label {
		a, err := ParseAxis(string(r))
		if err != nil {
			return 0, fmt.Errorf("invalid axis label %q: %w", label, err)
		}
		s = s.With(a)
	}
	return s, nil
}

// Decimals converts a rounding precision such as 0.01 into a count of
// decimal places (0.01 -> 2, 0.005 -> 3, 0.1 -> 1).
func Decimals(precision float64) int {
	if precision <= 0 || precision >= 1 {
		return 0
	}
	// The epsilon keeps Log10 noise (2.0000000000000004) from rounding up.
	n := int(math.Ceil(-math.Log10(precision) - 1e-9))
	if n < 0 {
		return 0
	}
	return n
}

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// Displacement is the 3D Euclidean distance between two points. It is a
// reporting value only.
func Displacement(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	dz := z2 - z1
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
