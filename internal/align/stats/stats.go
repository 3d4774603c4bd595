// Package stats summarises coordinate and displacement distributions for
// run reports.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/structure.align/internal/structure"
)

// ErrEmptyInput is returned when a summary is requested for no values.
var ErrEmptyInput = errors.New("stats: no values")

// uniqueDecimals is the centimetre resolution used to count distinct values.
const uniqueDecimals = 2

// reportDecimals is the precision of reported displacement figures.
const reportDecimals = 6

// AxisStatistics describes the coordinate distribution on one axis.
type AxisStatistics struct {
	Axis        structure.Axis `json:"-"`
	Mean        float64        `json:"mean"`
	Median      float64        `json:"median"`
	Std         float64        `json:"std"`
	Min         float64        `json:"min"`
	Max         float64        `json:"max"`
	Q1          float64        `json:"q1"`
	Q3          float64        `json:"q3"`
	UniqueCount int            `json:"unique_count"`
	TotalCount  int            `json:"total_count"`
}

// ComputeAxis summarises values. Std is the population standard deviation.
func ComputeAxis(values []float64, a structure.Axis) (AxisStatistics, error) {
	if len(values) == 0 {
		return AxisStatistics{}, ErrEmptyInput
	}
	sorted := sortedCopy(values)
	mean, std := stat.PopMeanStdDev(sorted, nil)

	unique := make(map[float64]struct{}, len(sorted))
	for _, v := range sorted {
		unique[structure.Round(v, uniqueDecimals)] = struct{}{}
	}

	return AxisStatistics{
		Axis:        a,
		Mean:        mean,
		Median:      Percentile(sorted, 0.5),
		Std:         std,
		Min:         floats.Min(sorted),
		Max:         floats.Max(sorted),
		Q1:          Percentile(sorted, 0.25),
		Q3:          Percentile(sorted, 0.75),
		UniqueCount: len(unique),
		TotalCount:  len(sorted),
	}, nil
}

// ComputeAxes summarises X, Y and Z of the vertices.
func ComputeAxes(vertices []structure.Vertex) ([]AxisStatistics, error) {
	out := make([]AxisStatistics, 0, len(structure.AllAxes))
	for _, a := range structure.AllAxes {
		s, err := ComputeAxis(structure.Coords(vertices, a), a)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Distribution summarises a set of non-negative distances.
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Describe summarises values. An empty input yields a zero distribution.
// P95 is the element at index floor(0.95 n), clamped to the last element.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := sortedCopy(values)
	mean, std := stat.PopMeanStdDev(sorted, nil)
	n := len(sorted)
	p95 := sorted[min(int(float64(n)*0.95), n-1)]

	return Distribution{
		Count:  n,
		Mean:   structure.Round(mean, reportDecimals),
		Median: structure.Round(Percentile(sorted, 0.5), reportDecimals),
		Std:    structure.Round(std, reportDecimals),
		P95:    structure.Round(p95, reportDecimals),
		Max:    structure.Round(sorted[n-1], reportDecimals),
	}
}

// Percentile returns the p-quantile of sorted values, interpolating
// linearly between the closest ranks at position p*(n-1). gonum's quantile
// kinds step on the empirical CDF instead, which does not average the two
// middle values for the median.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
