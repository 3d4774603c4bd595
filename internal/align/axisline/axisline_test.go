package axisline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/structure.align/internal/structure"
)

func samplesAt(coord float64, zs ...float64) []Sample {
	out := make([]Sample, len(zs))
	for i, z := range zs {
		out[i] = Sample{Coord: coord, Z: z}
	}
	return out
}

func positions(lines []structure.AxisLine) []float64 {
	out := make([]float64, len(lines))
	for i, l := range lines {
		out[i] = l.Position
	}
	return out
}

func TestMatchFloor(t *testing.T) {
	levels := DefaultFloorZLevels

	tests := []struct {
		name  string
		z     float64
		want  float64
		found bool
	}{
		{"exact", 2.12, 2.12, true},
		{"within tolerance", 5.51, 5.48, true},
		{"nearest of two", 8.0, 8.20, false},
		{"far away", 999.0, 0, false},
		{"below lowest", -4.47, -4.44, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchFloor(tt.z, levels, DefaultFloorMatchTolerance)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMatchFloor_NoLevelsFallsBackToRounding(t *testing.T) {
	got, ok := MatchFloor(3.14159, nil, DefaultFloorMatchTolerance)
	require.True(t, ok)
	assert.Equal(t, 3.1, got)
}

func TestSelect_FloorRecurrence(t *testing.T) {
	z := DefaultFloorZLevels
	var samples []Sample
	samples = append(samples, samplesAt(10.0, z[:5]...)...)
	samples = append(samples, samplesAt(20.0, z[:3]...)...)
	samples = append(samples, samplesAt(30.0, z[:2]...)...)
	samples = append(samples, samplesAt(40.0, z[0])...)

	lines := Select(samples, structure.AxisX, DefaultParams())
	assert.Equal(t, []float64{10.0, 20.0}, positions(lines))
	assert.Equal(t, "X_001", lines[0].ID)
	assert.Equal(t, "X_002", lines[1].ID)
}

func TestSelect_ExactlyMinFloors(t *testing.T) {
	z := DefaultFloorZLevels
	params := DefaultParams()

	t.Run("min floors is selected", func(t *testing.T) {
		lines := Select(samplesAt(12.5, z[:params.MinFloors]...), structure.AxisY, params)
		require.Len(t, lines, 1)
		assert.Equal(t, params.MinFloors, lines[0].FloorCount)
	})

	t.Run("one floor short is rejected despite many vertices", func(t *testing.T) {
		var samples []Sample
		for i := 0; i < 50; i++ {
			samples = append(samples, samplesAt(12.5, z[:params.MinFloors-1]...)...)
		}
		assert.Empty(t, Select(samples, structure.AxisY, params))
	})
}

func TestSelect_UnmatchedZDoesNotCountAsFloor(t *testing.T) {
	z := DefaultFloorZLevels
	samples := samplesAt(10.0, z[0], z[1], 999.0)
	assert.Empty(t, Select(samples, structure.AxisX, DefaultParams()))
}

func TestSelect_EmptyFloorLevelsFallback(t *testing.T) {
	params := DefaultParams()
	params.FloorZLevels = nil

	lines := Select(samplesAt(10.0, 0.0, 1.0, 2.0), structure.AxisX, params)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].FloorCount)
}

func TestSelect_CountsVerticesAndFloors(t *testing.T) {
	z := DefaultFloorZLevels
	var samples []Sample
	for i := 0; i < 5; i++ {
		samples = append(samples, samplesAt(10.0, z[:6]...)...)
	}

	lines := Select(samples, structure.AxisX, DefaultParams())
	require.Len(t, lines, 1)
	assert.Equal(t, 6, lines[0].FloorCount)
	assert.Equal(t, 30, lines[0].VertexCount)
}

func TestSelect_AbsorbsFloatingPointNoise(t *testing.T) {
	params := DefaultParams()
	params.RoundingPrecision = 0.005

	lines := Select(samplesAt(10.000044, DefaultFloorZLevels[:3]...), structure.AxisX, params)
	require.Len(t, lines, 1)
	assert.InDelta(t, 10.0, lines[0].Position, 0.001)
}

func TestSelect_MergesWithinRadius(t *testing.T) {
	params := DefaultParams()
	params.RoundingPrecision = 0.001
	params.ClusterRadius = 0.005

	z := DefaultFloorZLevels[:3]
	var samples []Sample
	samples = append(samples, samplesAt(10.000, z...)...)
	samples = append(samples, samplesAt(10.002, z...)...)
	samples = append(samples, samplesAt(10.002, z...)...)

	lines := Select(samples, structure.AxisX, params)
	require.Len(t, lines, 1)
	assert.Equal(t, 10.002, lines[0].Position, "most populated position represents the group")
	assert.Equal(t, 9, lines[0].VertexCount)
}

func TestSelect_AnchoredWindowDoesNotChain(t *testing.T) {
	params := DefaultParams()
	params.RoundingPrecision = 0.001
	params.ClusterRadius = 0.002
	params.MinFloors = 1

	// Each position is 1mm from the next. A running-last window would chain
	// all five; the anchored window closes after 2mm.
	var samples []Sample
	for _, x := range []float64{10.000, 10.001, 10.002, 10.003, 10.004} {
		samples = append(samples, samplesAt(x, DefaultFloorZLevels[0])...)
	}

	lines := Select(samples, structure.AxisX, params)
	if diff := cmp.Diff([]float64{10.000, 10.003}, positions(lines)); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, lines[0].VertexCount)
	assert.Equal(t, 2, lines[1].VertexCount)
}

func TestSelect_SortedOutput(t *testing.T) {
	var samples []Sample
	for _, x := range []float64{30.0, 10.0, 20.0} {
		samples = append(samples, samplesAt(x, DefaultFloorZLevels[:3]...)...)
	}
	lines := Select(samples, structure.AxisX, DefaultParams())
	assert.Equal(t, []float64{10.0, 20.0, 30.0}, positions(lines))
}

func TestSelect_Empty(t *testing.T) {
	assert.Empty(t, Select(nil, structure.AxisX, DefaultParams()))
}

func TestDiscover_BothAxes(t *testing.T) {
	var vertices []structure.Vertex
	for i, z := range DefaultFloorZLevels[:3] {
		vertices = append(vertices, structure.Vertex{ID: int64(i + 1), ElementID: 1, X: 10.0, Y: 50.0, Z: z})
	}

	xs, ys := Discover(vertices, DefaultParams())
	require.Len(t, xs, 1)
	require.Len(t, ys, 1)
	assert.Equal(t, structure.AxisX, xs[0].Axis)
	assert.Equal(t, 10.0, xs[0].Position)
	assert.Equal(t, structure.AxisY, ys[0].Axis)
	assert.Equal(t, 50.0, ys[0].Position)
}

func TestDefaultParams_CopiesFloorLevels(t *testing.T) {
	p := DefaultParams()
	p.FloorZLevels[0] = 100
	assert.Equal(t, -4.44, DefaultFloorZLevels[0])
}
