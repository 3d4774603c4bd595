// Package cluster groups one axis of coordinate values into clusters whose
// every member lies within alpha of the cluster centroid.
//
// Clustering runs in two explicit phases. DBSCAN (eps = alpha) produces raw
// density clusters; Prune then drops members farther than alpha from the
// centroid, recomputes the centroid and discards clusters that fall below the
// minimum size. DBSCAN alone only bounds the gap between neighbours, so a
// chain of points can span far more than alpha; the prune phase restores the
// centroid bound.
package cluster
