package snap

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/align/thread"
	"github.com/banshee-data/structure.align/internal/structure"
)

// MatchParams configures the per-vertex matcher.
type MatchParams struct {
	Alpha             float64
	RoundingPrecision float64
	// VerticalAlignment enables matching on Z. When false Z threads are
	// ignored even if supplied.
	VerticalAlignment bool
}

// Matcher snaps each coordinate of each vertex to the closest thread whose
// reference is within alpha.
type Matcher struct {
	params   MatchParams
	decimals int
	threads  [3][]thread.Thread
}

// NewMatcher builds a matcher over the given per-axis threads. The thread
// slices are copied and sorted by reference.
func NewMatcher(threads map[structure.Axis][]thread.Thread, params MatchParams) *Matcher {
	m := &Matcher{params: params, decimals: structure.Decimals(params.RoundingPrecision)}
	for a, ts := range threads {
		sorted := make([]thread.Thread, len(ts))
		copy(sorted, ts)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Reference < sorted[j].Reference })
		m.threads[a] = sorted
	}
	return m
}

// Match returns the thread on axis a closest to coord within alpha. Ties go
// to the lower reference.
func (m *Matcher) Match(coord float64, a structure.Axis) (thread.Thread, bool) {
	if a == structure.AxisZ && !m.params.VerticalAlignment {
		return thread.Thread{}, false
	}
	ts := m.threads[a]
	idx := sort.Search(len(ts), func(i int) bool { return ts[i].Reference >= coord })

	best := -1
	bestDist := math.Inf(1)
	for _, i := range [2]int{idx - 1, idx} {
		if i < 0 || i >= len(ts) {
			continue
		}
		d := math.Abs(coord - ts[i].Reference)
		if d <= m.params.Alpha && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return thread.Thread{}, false
	}
	return ts[best], true
}

// Align snaps every vertex. Unmatched coordinates are kept as they were.
func (m *Matcher) Align(vertices []structure.Vertex) []structure.AlignedVertex {
	out := make([]structure.AlignedVertex, len(vertices))
	aligned := 0
	for i, v := range vertices {
		av := structure.Unaligned(v)
		for _, a := range structure.AllAxes {
			t, ok := m.Match(v.Coord(a), a)
			if !ok {
				continue
			}
			setCoord(&av, a, structure.Round(t.Reference, m.decimals))
			av.Aligned = av.Aligned.With(a)
			av.ThreadIDs[a] = t.ID
		}
		av.Displacement = structure.Round(
			structure.Displacement(v.X, v.Y, v.Z, av.X, av.Y, av.Z), displacementDecimals)
		if !av.Aligned.Empty() {
			aligned++
		}
		out[i] = av
	}

	logAlignedRate(aligned, len(out))
	return out
}

func setCoord(av *structure.AlignedVertex, a structure.Axis, v float64) {
	switch a {
	case structure.AxisX:
		av.X = v
	case structure.AxisY:
		av.Y = v
	default:
		av.Z = v
	}
}

func logAlignedRate(aligned, total int) {
	rate := 0.0
	if total > 0 {
		rate = float64(aligned) / float64(total) * 100
	}
	logger.Logf("aligned %d/%d vertices (%.1f%%)", aligned, total, rate)
}
