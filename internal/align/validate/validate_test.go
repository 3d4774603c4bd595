package validate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/structure.align/internal/structure"
)

var defaultParams = Params{MaxAxisDisplacement: 0.05, MinAlignmentRate: DefaultMinAlignmentRate}

func moved(id int64, dx, dy, dz float64, axes structure.AxisSet) structure.AlignedVertex {
	return structure.AlignedVertex{
		ID: id, X: 1 + dx, Y: 2 + dy, Z: 3 + dz,
		XOriginal: 1, YOriginal: 2, ZOriginal: 3,
		Aligned: axes,
	}
}

func xyz() structure.AxisSet {
	return structure.AxisSet(0).With(structure.AxisX).With(structure.AxisY).With(structure.AxisZ)
}

func statusOf(t *testing.T, r Result, name string) Status {
	t.Helper()
	c, ok := r.Find(name)
	require.True(t, ok, "missing check %s", name)
	return c.Status
}

func TestValidate_PerAxisNot3D(t *testing.T) {
	av := moved(1, 0.04, 0.04, 0.04, xyz())
	av.Displacement = structure.Displacement(1, 2, 3, av.X, av.Y, av.Z)
	require.Greater(t, av.Displacement, 0.05)

	r := Validate([]structure.AlignedVertex{av}, 1, defaultParams)
	assert.True(t, r.Passed)
	assert.Equal(t, StatusPass, statusOf(t, r, CheckMaxAxisDisplacement))
	assert.Len(t, r.Checks, 4)
}

func TestValidate_DisplacementViolationFails(t *testing.T) {
	av := moved(1, 0.06, 0, 0, structure.AxisSet(0).With(structure.AxisX))
	r := Validate([]structure.AlignedVertex{av}, 1, defaultParams)
	assert.False(t, r.Passed)
	assert.Equal(t, StatusFail, statusOf(t, r, CheckMaxAxisDisplacement))
}

func TestValidate_DetailNamesBound(t *testing.T) {
	av := moved(1, 0.06, 0, 0, structure.AxisSet(0).With(structure.AxisX))
	params := Params{MaxAxisDisplacement: 0.05, Bound: "alpha", MinAlignmentRate: DefaultMinAlignmentRate}

	r := Validate([]structure.AlignedVertex{av}, 1, params)
	c, ok := r.Find(CheckMaxAxisDisplacement)
	require.True(t, ok)
	assert.Equal(t, "max per-axis displacement 0.060000m exceeds 0.0500m (alpha)", c.Detail)
}

func TestValidate_UnsnappedAxesAreIgnored(t *testing.T) {
	// Y moved without a recorded snap, e.g. rounding of a passthrough.
	av := moved(1, 0.01, 0.5, 0, structure.AxisSet(0).With(structure.AxisX))
	r := Validate([]structure.AlignedVertex{av}, 1, defaultParams)
	assert.True(t, r.Passed)
}

func TestValidate_EpsilonAtBound(t *testing.T) {
	av := moved(1, 0.05+Epsilon/2, 0, 0, structure.AxisSet(0).With(structure.AxisX))
	r := Validate([]structure.AlignedVertex{av}, 1, defaultParams)
	assert.True(t, r.Passed)
}

func TestValidate_NaNFails(t *testing.T) {
	av := moved(1, 0, 0, 0, structure.AxisSet(0).With(structure.AxisX))
	av.Y = math.NaN()
	r := Validate([]structure.AlignedVertex{av}, 1, defaultParams)
	assert.False(t, r.Passed)
	assert.Equal(t, StatusFail, statusOf(t, r, CheckNoNullCoordinates))
}

func TestValidate_CountMismatchFails(t *testing.T) {
	av := moved(1, 0, 0, 0, structure.AxisSet(0).With(structure.AxisX))
	r := Validate([]structure.AlignedVertex{av}, 2, defaultParams)
	assert.False(t, r.Passed)
	assert.Equal(t, StatusFail, statusOf(t, r, CheckVertexCount))
}

func TestValidate_LowCoverageOnlyWarns(t *testing.T) {
	tests := []struct {
		name    string
		aligned int
		total   int
		want    Status
	}{
		{"all aligned", 10, 10, StatusPass},
		{"exactly at threshold", 8, 10, StatusPass},
		{"below threshold", 7, 10, StatusWarning},
		{"none aligned", 0, 10, StatusWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vs []structure.AlignedVertex
			for i := 0; i < tt.total; i++ {
				var axes structure.AxisSet
				if i < tt.aligned {
					axes = axes.With(structure.AxisX)
				}
				vs = append(vs, moved(int64(i), 0, 0, 0, axes))
			}
			r := Validate(vs, tt.total, defaultParams)
			assert.True(t, r.Passed)
			assert.Equal(t, tt.want, statusOf(t, r, CheckAlignmentRate))
		})
	}
}

func TestAlignmentRate(t *testing.T) {
	assert.Equal(t, 0.0, AlignmentRate(nil))
	vs := []structure.AlignedVertex{
		moved(1, 0, 0, 0, structure.AxisSet(0).With(structure.AxisY)),
		moved(2, 0, 0, 0, 0),
	}
	assert.Equal(t, 0.5, AlignmentRate(vs))
}

func TestMaxAxisDisplacement(t *testing.T) {
	vs := []structure.AlignedVertex{
		moved(1, 0.01, -0.03, 0, xyz()),
		moved(2, 0.02, 0, 0, xyz()),
	}
	assert.InDelta(t, 0.03, MaxAxisDisplacement(vs), 1e-12)
}
