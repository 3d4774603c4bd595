package cluster

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Prune enforces the centroid tolerance on raw DBSCAN clusters. For each
// cluster it drops members farther than Alpha from the centroid, recomputes
// the centroid from the survivors and discards the cluster when fewer than
// MinClusterSize remain. Discarded clusters never appear in the output.
//
// Recomputing the centroid can move it away from a survivor that sat on the
// tolerance boundary, so the drop/recompute step repeats until every member
// is within Alpha of the final centroid.
func Prune(values []float64, raw []RawCluster, params Params) []Cluster {
	var clusters []Cluster
	for _, rc := range raw {
		members := make([]float64, len(rc.Indices))
		for k, i := range rc.Indices {
			members[k] = values[i]
		}
		indices := append([]int(nil), rc.Indices...)
		initial := len(members)

		for len(members) >= params.MinClusterSize {
			centroid := stat.Mean(members, nil)
			keptValues := members[:0:0]
			keptIndices := indices[:0:0]
			for k, v := range members {
				if math.Abs(v-centroid) <= params.Alpha {
					keptValues = append(keptValues, v)
					keptIndices = append(keptIndices, indices[k])
				}
			}
			if len(keptValues) == len(members) {
				break
			}
			logger.Debugf("cluster %d: pruned %d/%d values beyond alpha=%.4fm from centroid %.4fm",
				rc.Label, len(members)-len(keptValues), initial, params.Alpha, centroid)
			members, indices = keptValues, keptIndices
		}

		if len(members) < params.MinClusterSize {
			logger.Debugf("cluster %d: discarded after pruning (%d values remain, need %d)",
				rc.Label, len(members), params.MinClusterSize)
			continue
		}

		mean, std := stat.PopMeanStdDev(members, nil)
		clusters = append(clusters, Cluster{
			Values:   members,
			Indices:  indices,
			Centroid: mean,
			Std:      std,
		})
	}
	return clusters
}

// MaxDeviation returns the largest |v - centroid| over the cluster members.
func (c Cluster) MaxDeviation() float64 {
	var worst float64
	for _, v := range c.Values {
		if d := math.Abs(v - c.Centroid); d > worst {
			worst = d
		}
	}
	return worst
}
