// Package validate checks a finished alignment against its contract.
package validate

import (
	"fmt"
	"math"

	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

// Status is the outcome of one check.
type Status string

const (
	StatusPass    Status = "PASS"
	StatusFail    Status = "FAIL"
	StatusWarning Status = "WARNING"
)

// Check names.
const (
	CheckMaxAxisDisplacement = "max_per_axis_displacement"
	CheckNoNullCoordinates   = "no_null_coordinates"
	CheckVertexCount         = "vertex_count_preserved"
	CheckAlignmentRate       = "alignment_rate"
)

// Epsilon is the slack allowed on the per-axis displacement bound.
const Epsilon = 1e-9

// DefaultMinAlignmentRate is the coverage below which a warning is raised.
const DefaultMinAlignmentRate = 0.80

var logger = monitoring.Component("validate")

// Params configures validation.
type Params struct {
	// MaxAxisDisplacement bounds |new - original| on every snapped axis.
	MaxAxisDisplacement float64
	// Bound names how MaxAxisDisplacement was derived; it is echoed in the
	// displacement check detail.
	Bound            string
	MinAlignmentRate float64
}

// Check is the result of a single check.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
}

// Result aggregates all checks. Passed is false iff some check failed;
// warnings never clear it.
type Result struct {
	Passed bool    `json:"passed"`
	Checks []Check `json:"checks"`
}

// Find returns the named check.
func (r Result) Find(name string) (Check, bool) {
	for _, c := range r.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return Check{}, false
}

func (r *Result) add(c Check) {
	if c.Status == StatusFail {
		r.Passed = false
	}
	r.Checks = append(r.Checks, c)
}

// Validate runs the four alignment checks. originalCount is the number of
// vertices fed into the alignment.
func Validate(aligned []structure.AlignedVertex, originalCount int, params Params) Result {
	res := Result{Passed: true}
	res.add(checkDisplacement(aligned, params.MaxAxisDisplacement, params.Bound))
	res.add(checkCoordinates(aligned))
	res.add(checkCount(aligned, originalCount))
	res.add(checkRate(aligned, params.MinAlignmentRate))

	for _, c := range res.Checks {
		switch c.Status {
		case StatusFail:
			logger.Logf("FAIL %s: %s", c.Name, c.Detail)
		case StatusWarning:
			logger.Logf("WARNING %s: %s", c.Name, c.Detail)
		}
	}
	if res.Passed {
		logger.Logf("all validation checks passed")
	}
	return res
}

// MaxAxisDisplacement returns the largest per-axis move over snapped axes.
func MaxAxisDisplacement(aligned []structure.AlignedVertex) float64 {
	worst := 0.0
	for _, av := range aligned {
		for _, a := range structure.AllAxes {
			if !av.Aligned.Has(a) {
				continue
			}
			worst = math.Max(worst, math.Abs(av.Coord(a)-av.Original(a)))
		}
	}
	return worst
}

func checkDisplacement(aligned []structure.AlignedVertex, bound float64, basis string) Check {
	if len(aligned) == 0 {
		return Check{Name: CheckMaxAxisDisplacement, Status: StatusPass, Detail: "no vertices to check"}
	}
	limit := fmt.Sprintf("%.4fm", bound)
	if basis != "" {
		limit += " (" + basis + ")"
	}
	worst := MaxAxisDisplacement(aligned)
	if worst > bound+Epsilon {
		return Check{
			Name:   CheckMaxAxisDisplacement,
			Status: StatusFail,
			Detail: fmt.Sprintf("max per-axis displacement %.6fm exceeds %s", worst, limit),
		}
	}
	return Check{
		Name:   CheckMaxAxisDisplacement,
		Status: StatusPass,
		Detail: fmt.Sprintf("max per-axis displacement %.6fm <= %s", worst, limit),
	}
}

func invalid(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

func checkCoordinates(aligned []structure.AlignedVertex) Check {
	bad := 0
	for _, av := range aligned {
		if invalid(av.X) || invalid(av.Y) || invalid(av.Z) {
			bad++
		}
	}
	if bad > 0 {
		return Check{
			Name:   CheckNoNullCoordinates,
			Status: StatusFail,
			Detail: fmt.Sprintf("%d vertices with invalid coordinates", bad),
		}
	}
	return Check{Name: CheckNoNullCoordinates, Status: StatusPass, Detail: "0 invalid coordinates"}
}

func checkCount(aligned []structure.AlignedVertex, originalCount int) Check {
	if len(aligned) != originalCount {
		return Check{
			Name:   CheckVertexCount,
			Status: StatusFail,
			Detail: fmt.Sprintf("expected %d, got %d", originalCount, len(aligned)),
		}
	}
	return Check{Name: CheckVertexCount, Status: StatusPass, Detail: fmt.Sprintf("count preserved: %d", originalCount)}
}

// AlignmentRate is the fraction of vertices with at least one snapped axis.
func AlignmentRate(aligned []structure.AlignedVertex) float64 {
	if len(aligned) == 0 {
		return 0
	}
	n := 0
	for _, av := range aligned {
		if !av.Aligned.Empty() {
			n++
		}
	}
	return float64(n) / float64(len(aligned))
}

func checkRate(aligned []structure.AlignedVertex, minRate float64) Check {
	if len(aligned) == 0 {
		return Check{Name: CheckAlignmentRate, Status: StatusPass, Detail: "no vertices to check"}
	}
	rate := AlignmentRate(aligned)
	if rate < minRate {
		return Check{
			Name:   CheckAlignmentRate,
			Status: StatusWarning,
			Detail: fmt.Sprintf("alignment rate %.1f%% < %.0f%% threshold", rate*100, minRate*100),
		}
	}
	return Check{Name: CheckAlignmentRate, Status: StatusPass, Detail: fmt.Sprintf("alignment rate %.1f%%", rate*100)}
}
