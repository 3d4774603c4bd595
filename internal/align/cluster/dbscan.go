package cluster

import (
	"sort"
)

// Index answers 1D neighbourhood queries over a fixed set of values by
// binary search on a sorted copy.
type Index struct {
	sorted []float64
	order  []int // order[k] is the input position of sorted[k]
}

// NewIndex builds an index over values.
func NewIndex(values []float64) *Index {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })
	sorted := make([]float64, len(values))
	for k, i := range order {
		sorted[k] = values[i]
	}
	return &Index{sorted: sorted, order: order}
}

// Span returns the half-open range [lo, hi) of sorted positions whose
// values lie within eps of v.
func (ix *Index) Span(v, eps float64) (lo, hi int) {
	n := len(ix.sorted)
	lo = sort.Search(n, func(k int) bool { return v-ix.sorted[k] <= eps })
	hi = sort.Search(n, func(k int) bool { return ix.sorted[k]-v > eps })
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// RegionQuery returns the input positions of all values within eps of v,
// including v itself when v is indexed.
func (ix *Index) RegionQuery(v, eps float64) []int {
	lo, hi := ix.Span(v, eps)
	if lo == hi {
		return nil
	}
	neighbors := make([]int, hi-lo)
	copy(neighbors, ix.order[lo:hi])
	return neighbors
}

// RawCluster is a DBSCAN cluster before tolerance validation. Indices are
// ascending input positions.
type RawCluster struct {
	Label   int
	Indices []int
}

// DBSCAN performs density-based clustering on a single axis with
// eps = params.Alpha and minPts = params.MinClusterSize. Noise is excluded.
// Labels are assigned in input order so the output is deterministic.
func DBSCAN(values []float64, params Params) []RawCluster {
	if len(values) == 0 {
		return nil
	}

	n := len(values)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID
	clusterID := 0
	index := NewIndex(values)

	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		lo, hi := index.Span(values[i], params.Alpha)
		if hi-lo < params.MinClusterSize {
			labels[i] = -1
			continue
		}

		clusterID++
		expandCluster(values, index, labels, i, clusterID, params)
	}

	return collectClusters(labels, clusterID)
}

// expandCluster grows a cluster from a core point using a work queue. On a
// line every neighbourhood is a contiguous run of the sorted values, so the
// cluster covers one growing sorted range and only positions outside it are
// ever claimed. Each point is queued at most once.
func expandCluster(values []float64, index *Index, labels []int,
	seedIdx int, clusterID int, params Params) {

	labels[seedIdx] = clusterID

	var queue []int
	claim := func(from, to int) {
		for k := from; k < to; k++ {
			idx := index.order[k]
			if labels[idx] <= 0 { // unvisited, or noise becoming a border point
				labels[idx] = clusterID
				queue = append(queue, idx)
			}
		}
	}

	lo, hi := index.Span(values[seedIdx], params.Alpha)
	claim(lo, hi)

	for j := 0; j < len(queue); j++ {
		nlo, nhi := index.Span(values[queue[j]], params.Alpha)
		if nhi-nlo < params.MinClusterSize {
			continue
		}
		if nlo < lo {
			claim(nlo, lo)
			lo = nlo
		}
		if nhi > hi {
			claim(hi, nhi)
			hi = nhi
		}
	}
}

func collectClusters(labels []int, maxClusterID int) []RawCluster {
	clusters := make([]RawCluster, maxClusterID)
	for cid := 1; cid <= maxClusterID; cid++ {
		clusters[cid-1].Label = cid
	}
	for i, label := range labels {
		if label > 0 {
			clusters[label-1].Indices = append(clusters[label-1].Indices, i)
		}
	}
	out := clusters[:0]
	for _, c := range clusters {
		if len(c.Indices) > 0 {
			out = append(out, c)
		}
	}
	return out
}
