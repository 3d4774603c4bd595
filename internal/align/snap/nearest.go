package snap

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/structure"
)

// Nearest returns the axis line closest to coord, provided it lies within
// maxDistance. lines must be sorted by position. On equal distance the lower
// line wins.
func Nearest(coord float64, lines []structure.AxisLine, maxDistance float64) (structure.AxisLine, bool) {
	idx := sort.Search(len(lines), func(i int) bool { return lines[i].Position >= coord })

	best := -1
	bestDist := math.Inf(1)
	for _, i := range [2]int{idx - 1, idx} {
		if i < 0 || i >= len(lines) {
			continue
		}
		d := math.Abs(coord - lines[i].Position)
		if d <= maxDistance && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return structure.AxisLine{}, false
	}
	return lines[best], true
}

func sortLines(lines []structure.AxisLine) []structure.AxisLine {
	out := make([]structure.AxisLine, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
