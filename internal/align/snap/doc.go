// Package snap moves vertex coordinates onto discovered axes.
//
// Two strategies are provided. Matcher snaps every vertex coordinate on its
// own to the nearest thread within alpha. ElementSnapper works per element:
// it reduces each element to at most two endpoints per plan axis, snaps the
// endpoints, and carries every vertex along with its endpoint so that the
// element's cross-section is preserved.
//
// Neither strategy mutates its input; both return new AlignedVertex records
// in input order.
package snap

import "github.com/banshee-data/structure.align/internal/monitoring"

// displacementDecimals is the reporting precision of the 3D displacement.
const displacementDecimals = 6

var logger = monitoring.Component("snap")
