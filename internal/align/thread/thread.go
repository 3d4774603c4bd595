// Package thread turns validated clusters into named axis candidates
// ("threads") and merges candidates that sit suspiciously close together.
package thread

import (
	"math"
	"sort"

	"github.com/banshee-data/structure.align/internal/align/cluster"
	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

const (
	// DefaultRoundingPrecision rounds references to the centimetre.
	DefaultRoundingPrecision = 0.01
	// DefaultMergeFactor merges threads closer than 2*alpha.
	DefaultMergeFactor = 2.0
)

var logger = monitoring.Component("thread")

// Params configures thread building.
type Params struct {
	Alpha             float64
	RoundingPrecision float64
	MergeFactor       float64
}

// DefaultParams returns the default thread parameters.
func DefaultParams() Params {
	return Params{
		Alpha:             cluster.DefaultAlpha,
		RoundingPrecision: DefaultRoundingPrecision,
		MergeFactor:       DefaultMergeFactor,
	}
}

// MergeThreshold is the reference gap below which adjacent threads merge.
func (p Params) MergeThreshold() float64 { return p.Alpha * p.MergeFactor }

// Thread is one canonical coordinate found by clustering.
//
// Delta is the observed spread capped at alpha and is informational only.
// Matching always uses HalfWidth, which is the configured alpha.
type Thread struct {
	ID          string
	Axis        structure.Axis
	Reference   float64
	Delta       float64
	HalfWidth   float64
	VertexCount int
}

// RangeMin is the lower bound of the matching range.
func (t Thread) RangeMin() float64 { return t.Reference - t.HalfWidth }

// RangeMax is the upper bound of the matching range.
func (t Thread) RangeMax() float64 { return t.Reference + t.HalfWidth }

// Contains reports whether v lies within the matching half-width.
func (t Thread) Contains(v float64) bool {
	return math.Abs(v-t.Reference) <= t.HalfWidth
}

// AxisLine converts the thread into the shared axis line record.
func (t Thread) AxisLine() structure.AxisLine {
	return structure.AxisLine{
		Axis:        t.Axis,
		ID:          t.ID,
		Position:    t.Reference,
		VertexCount: t.VertexCount,
		Delta:       t.Delta,
	}
}

// Build converts clusters into threads sorted by reference, merges close
// neighbours and renumbers the result.
func Build(clusters []cluster.Cluster, axis structure.Axis, params Params) []Thread {
	decimals := structure.Decimals(params.RoundingPrecision)

	threads := make([]Thread, 0, len(clusters))
	for _, c := range clusters {
		threads = append(threads, Thread{
			Axis:        axis,
			Reference:   structure.Round(c.Centroid, decimals),
			Delta:       math.Min(c.Std, params.Alpha),
			HalfWidth:   params.Alpha,
			VertexCount: c.Size(),
		})
	}

	sort.SliceStable(threads, func(i, j int) bool { return threads[i].Reference < threads[j].Reference })
	threads = Merge(threads, params)
	renumber(threads, axis)
	return threads
}

// Merge collapses adjacent threads whose references differ by less than
// the merge threshold into one thread with the count-weighted reference, the
// larger delta and the summed count. Passes repeat until no adjacent pair is
// within the threshold. Input must be sorted by reference.
func Merge(threads []Thread, params Params) []Thread {
	if len(threads) <= 1 {
		return threads
	}
	decimals := structure.Decimals(params.RoundingPrecision)
	threshold := params.MergeThreshold()

	for {
		merged, changed := mergePass(threads, threshold, decimals)
		threads = merged
		if !changed {
			return threads
		}
	}
}

func mergePass(threads []Thread, threshold float64, decimals int) ([]Thread, bool) {
	changed := false
	out := []Thread{threads[0]}
	for _, t := range threads[1:] {
		prev := &out[len(out)-1]
		if math.Abs(t.Reference-prev.Reference) >= threshold {
			out = append(out, t)
			continue
		}

		total := prev.VertexCount + t.VertexCount
		ref := structure.Round(
			(prev.Reference*float64(prev.VertexCount)+t.Reference*float64(t.VertexCount))/float64(total),
			decimals,
		)
		logger.Logf("merged threads at %.4fm and %.4fm -> %.4fm (%d vertices)",
			prev.Reference, t.Reference, ref, total)

		prev.Reference = ref
		prev.Delta = math.Max(prev.Delta, t.Delta)
		prev.VertexCount = total
		changed = true
	}
	return out, changed
}

func renumber(threads []Thread, axis structure.Axis) {
	for i := range threads {
		threads[i].ID = structure.LineID(axis, i+1)
	}
}

// Detect clusters one axis of values and builds its threads.
func Detect(values []float64, axis structure.Axis, clusterer cluster.Clusterer, params Params) []Thread {
	threads := Build(clusterer.Cluster(values), axis, params)

	logger.Logf("axis %s: %d threads detected from %d values", axis, len(threads), len(values))
	for _, t := range threads {
		logger.Debugf("  %s: ref=%.4fm, delta=%.4fm, count=%d", t.ID, t.Reference, t.Delta, t.VertexCount)
	}
	return threads
}
