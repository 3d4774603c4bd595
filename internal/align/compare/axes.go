// Package compare measures alignment output against independent reference
// data: axis positions for recall and precision, and named objects for
// vertex-level agreement.
package compare

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

const (
	// DefaultTolerance is the 5mm match tolerance.
	DefaultTolerance = 0.005
	// DefaultMinVertexCount is the multiplicity a reference position needs
	// before it counts as an axis.
	DefaultMinVertexCount = 5
)

var logger = monitoring.Component("compare")

// HasMatch reports whether sorted contains a value within tolerance of v.
func HasMatch(v float64, sorted []float64, tolerance float64) bool {
	idx := sort.SearchFloat64s(sorted, v-tolerance)
	if idx < len(sorted) && math.Abs(sorted[idx]-v) <= tolerance {
		return true
	}
	return idx > 0 && math.Abs(sorted[idx-1]-v) <= tolerance
}

// AxisComparison holds recall and precision of discovered positions on one
// axis.
type AxisComparison struct {
	Axis                string    `json:"axis"`
	DiscoveredCount     int       `json:"discovered_count"`
	ReferenceCount      int       `json:"reference_count"`
	Matched             int       `json:"matched"`
	Recall              float64   `json:"recall"`
	Precision           float64   `json:"precision"`
	UnmatchedReference  []float64 `json:"unmatched_reference"`
	UnmatchedDiscovered []float64 `json:"unmatched_discovered"`
}

// CompareAxis matches discovered positions against reference positions.
// Recall is the share of reference positions with a discovered match;
// precision is the share of discovered positions with a reference match.
// Both are zero when their denominator is empty. Inputs are not modified.
func CompareAxis(a structure.Axis, discovered, reference []float64, tolerance float64) AxisComparison {
	disc := sortedCopy(discovered)
	ref := sortedCopy(reference)

	res := AxisComparison{
		Axis:            a.String(),
		DiscoveredCount: len(disc),
		ReferenceCount:  len(ref),
	}
	for _, r := range ref {
		if HasMatch(r, disc, tolerance) {
			res.Matched++
		} else {
			res.UnmatchedReference = append(res.UnmatchedReference, r)
		}
	}
	matchedDisc := 0
	for _, d := range disc {
		if HasMatch(d, ref, tolerance) {
			matchedDisc++
		} else {
			res.UnmatchedDiscovered = append(res.UnmatchedDiscovered, d)
		}
	}
	if len(ref) > 0 {
		res.Recall = float64(res.Matched) / float64(len(ref))
	}
	if len(disc) > 0 {
		res.Precision = float64(matchedDisc) / float64(len(disc))
	}

	logger.Logf("axis %s: %d discovered, %d reference, %d matched (recall=%.1f%%, precision=%.1f%%)",
		a, res.DiscoveredCount, res.ReferenceCount, res.Matched, res.Recall*100, res.Precision*100)
	return res
}

// LinePositions extracts the positions of axis lines.
func LinePositions(lines []structure.AxisLine) []float64 {
	out := make([]float64, len(lines))
	for i, l := range lines {
		out[i] = l.Position
	}
	return out
}

// ReferencePositions derives axis positions from raw reference coordinates.
// Coordinates are rounded to the tolerance's decimal places; a rounded value
// seen at least minVertexCount times is a candidate. Sorted candidates closer
// than tolerance to the last kept one are dropped.
func ReferencePositions(coords []float64, tolerance float64, minVertexCount int) []float64 {
	decimals := structure.Decimals(tolerance)
	counts := make(map[float64]int)
	for _, c := range coords {
		counts[structure.Round(c, decimals)]++
	}

	var candidates []float64
	for pos, n := range counts {
		if n >= minVertexCount {
			candidates = append(candidates, pos)
		}
	}
	sort.Float64s(candidates)

	var out []float64
	for _, p := range candidates {
		if len(out) == 0 || p-out[len(out)-1] > tolerance {
			out = append(out, p)
		}
	}
	return out
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
