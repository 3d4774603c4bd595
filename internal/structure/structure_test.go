package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisSetString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		set  AxisSet
		want string
	}{
		{"empty", 0, "none"},
		{"x only", AxisSet(0).With(AxisX), "X"},
		{"xy", AxisSet(0).With(AxisY).With(AxisX), "XY"},
		{"xyz", AxisSet(0).With(AxisZ).With(AxisX).With(AxisY), "XYZ"},
		{"yz", AxisSet(0).With(AxisZ).With(AxisY), "YZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.String())
			back, err := ParseAxisSet(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.set, back)
		})
	}
}

func TestParseAxisSetRejectsGarbage(t *testing.T) {
	_, err := ParseAxisSet("XW")
	assert.Error(t, err)
}

func TestDecimals(t *testing.T) {
	assert.Equal(t, 2, Decimals(0.01))
	assert.Equal(t, 3, Decimals(0.001))
	assert.Equal(t, 1, Decimals(0.1))
	assert.Equal(t, 3, Decimals(0.005))
	assert.Equal(t, 0, Decimals(1))
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 10.03, Round(10.0312, 2), 1e-12)
	assert.InDelta(t, -4.44, Round(-4.4449, 2), 1e-12)
	assert.Equal(t, 5.0, Round(5.0, 3))
}

func TestDisplacement(t *testing.T) {
	d := Displacement(0, 0, 0, 0.04, 0.04, 0.04)
	assert.InDelta(t, 0.0693, d, 1e-4)
}

func TestInferElementType(t *testing.T) {
	tests := map[string]ElementType{
		"Poteau_12":    ElementColumn,
		"VOILE 3":      ElementWall,
		"Appuis_1":     ElementSupport,
		"appui-7":      ElementSupport,
		"Dalle_R+1":    ElementSlab,
		"poutre":       ElementBeam,
		"Filaire_0004": ElementColumnSpan,
		"Grid_A":       ElementUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, InferElementType(name), name)
	}
}

func TestParseElementTypeRoundTrip(t *testing.T) {
	for typ := range elementTypeNames {
		assert.Equal(t, typ, ParseElementType(typ.String()))
	}
	assert.Equal(t, ElementUnknown, ParseElementType("chevron"))
	assert.Equal(t, ElementSlab, ParseElementType(" DALLE "))
}

func TestSnapClassTable(t *testing.T) {
	assert.Equal(t, SnapPoint, ElementColumn.SnapClass())
	assert.Equal(t, SnapPoint, ElementSupport.SnapClass())
	assert.Equal(t, SnapSpan, ElementWall.SnapClass())
	assert.Equal(t, SnapSpan, ElementBeam.SnapClass())
	assert.Equal(t, SnapSpan, ElementUnknown.SnapClass())
	assert.Equal(t, SnapSkip, ElementSlab.SnapClass())
	assert.Equal(t, SnapSpan, ElementType(99).SnapClass())
}

func TestCheckUniqueIDs(t *testing.T) {
	ok := []Vertex{{ID: 1}, {ID: 2}}
	require.NoError(t, CheckUniqueIDs(ok))

	dup := []Vertex{{ID: 1}, {ID: 2}, {ID: 1}}
	err := CheckUniqueIDs(dup)
	assert.ErrorIs(t, err, ErrDuplicateVertexID)
}

func TestGroupByElementKeepsFirstSeenOrder(t *testing.T) {
	vs := []Vertex{
		{ID: 1, ElementID: 30},
		{ID: 2, ElementID: 10},
		{ID: 3, ElementID: 30},
	}
	order, groups := GroupByElement(vs)
	assert.Equal(t, []int64{30, 10}, order)
	assert.Len(t, groups[30], 2)
	assert.Len(t, groups[10], 1)
}

func TestUnalignedCopiesCoordinates(t *testing.T) {
	v := Vertex{ID: 7, ElementID: 3, X: 1.5, Y: 2.5, Z: 3.5, VertexIndex: 2}
	av := Unaligned(v)
	assert.Equal(t, "none", av.Aligned.String())
	assert.Equal(t, v.X, av.XOriginal)
	assert.Equal(t, v.Z, av.Z)
	assert.Equal(t, 2, av.VertexIndex)
	assert.Zero(t, av.Displacement)
}

func TestLineID(t *testing.T) {
	assert.Equal(t, "X_001", LineID(AxisX, 1))
	assert.Equal(t, "Y_042", LineID(AxisY, 42))
}
