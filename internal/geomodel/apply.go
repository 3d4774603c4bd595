package geomodel

import (
	"fmt"

	"github.com/banshee-data/structure.align/internal/structure"
)

// BrepResidual records a Brep whose vertices drifted more than 1mm from
// its rigidly translated edges.
type BrepResidual struct {
	Name     string
	Residual float64
}

// ReverseReport summarises ApplyAligned.
type ReverseReport struct {
	TotalObjects    int
	UpdatedObjects  int
	UpdatedVertices int
	// SkippedObjects are unnamed or have no aligned element.
	SkippedObjects     []string
	SkippedUnsupported []string
	MismatchedObjects  []string
	BrepResiduals      []BrepResidual
}

// ApplyAligned writes aligned coordinates back into m in place. Elements are
// matched to objects by name. Count mismatches and unsupported kinds are
// recorded and skipped; they never abort the run.
func ApplyAligned(m *Model, aligned map[string]structure.AlignedElement) ReverseReport {
	rep := ReverseReport{TotalObjects: len(m.Objects)}

	for i, obj := range m.Objects {
		if obj.Name == "" {
			rep.SkippedObjects = append(rep.SkippedObjects, fmt.Sprintf("unnamed-object-%d", i))
			continue
		}
		el, ok := aligned[obj.Name]
		if !ok {
			rep.SkippedObjects = append(rep.SkippedObjects, obj.Name)
			continue
		}
		if len(el.Coords) == 0 {
			continue
		}

		res := obj.Geometry.Apply(el.Coords)
		switch res.Status {
		case ApplyUnsupported:
			rep.SkippedUnsupported = append(rep.SkippedUnsupported,
				fmt.Sprintf("%s (%s)", obj.Name, obj.Geometry.Kind()))
			logger.Logf("unsupported geometry kind %q for element %s", obj.Geometry.Kind(), obj.Name)
		case ApplyCountMismatch:
			rep.MismatchedObjects = append(rep.MismatchedObjects, obj.Name)
			logger.Logf("%s %s: expected %d vertices, got %d", obj.Geometry.Kind(), obj.Name, res.Expected, res.Got)
		case ApplyUpdated:
			rep.UpdatedObjects++
			rep.UpdatedVertices += res.Updated()
			if res.Residual > brepResidualWarning {
				rep.BrepResiduals = append(rep.BrepResiduals, BrepResidual{Name: obj.Name, Residual: res.Residual})
				logger.Debugf("brep %s edge desync residual: %.6fm", obj.Name, res.Residual)
			}
		}
	}

	logger.Logf("updated %d/%d objects (%d vertices), %d skipped, %d unsupported, %d mismatched",
		rep.UpdatedObjects, rep.TotalObjects, rep.UpdatedVertices,
		len(rep.SkippedObjects), len(rep.SkippedUnsupported), len(rep.MismatchedObjects))
	return rep
}
