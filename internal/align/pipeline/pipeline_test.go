package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/structure.align/internal/align/axisline"
	"github.com/banshee-data/structure.align/internal/config"
	"github.com/banshee-data/structure.align/internal/monitoring"
	"github.com/banshee-data/structure.align/internal/structure"
)

func init() {
	monitoring.SetLogger(nil)
}

func gridVertices() []structure.Vertex {
	xs := []float64{10.0, 10.01, 9.99, 20.0, 20.02, 19.98}
	ys := []float64{5.0, 5.01, 4.99, 5.0, 5.02, 4.98}
	out := make([]structure.Vertex, len(xs))
	for i := range xs {
		out[i] = structure.Vertex{ID: int64(i + 1), ElementID: int64(i + 1), X: xs[i], Y: ys[i], Z: float64(i)}
	}
	return out
}

func TestRunThreads(t *testing.T) {
	in := gridVertices()
	res, err := RunThreads(context.Background(), in, config.DefaultParams())
	require.NoError(t, err)

	assert.Equal(t, ModeThreads, res.Mode)
	require.Len(t, res.Threads[structure.AxisX], 2)
	require.Len(t, res.Threads[structure.AxisY], 1)
	_, hasZ := res.Threads[structure.AxisZ]
	assert.False(t, hasZ, "Z threads only with vertical alignment")
	assert.Equal(t, "X_002", res.Lines[structure.AxisX][1].ID)

	require.Len(t, res.Aligned, len(in))
	for i, av := range res.Aligned {
		assert.Equal(t, in[i].ID, av.ID)
		assert.Equal(t, in[i].Z, av.Z, "Z preserved")
		assert.Equal(t, av.ZOriginal, av.Z)
	}
	assert.Equal(t, 10.0, res.Aligned[1].X)
	assert.Equal(t, 20.0, res.Aligned[4].X)
	assert.Equal(t, 5.0, res.Aligned[5].Y)

	assert.Equal(t, 6, res.AlignedCount())
	assert.Equal(t, 1.0, res.AlignmentRate())
	assert.True(t, res.Validation.Passed)
	assert.Len(t, res.AxisStats, 3)
	assert.Len(t, res.Displacements(), 6)
}

func TestRunThreads_VerticalAddsZ(t *testing.T) {
	p := config.DefaultParams()
	p.VerticalAlignment = true
	res, err := RunThreads(context.Background(), gridVertices(), p)
	require.NoError(t, err)
	_, hasZ := res.Threads[structure.AxisZ]
	assert.True(t, hasZ)
}

func TestRun_InputErrors(t *testing.T) {
	p := config.DefaultParams()

	_, err := RunThreads(context.Background(), nil, p)
	assert.True(t, errors.Is(err, structure.ErrEmptyInput))

	_, err = RunElements(context.Background(), nil, nil, p)
	assert.True(t, errors.Is(err, structure.ErrEmptyInput))

	dup := []structure.Vertex{{ID: 1}, {ID: 1}}
	_, err = RunThreads(context.Background(), dup, p)
	assert.True(t, errors.Is(err, structure.ErrDuplicateVertexID))
}

func TestRunThreads_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunThreads(ctx, gridVertices(), config.DefaultParams())
	assert.True(t, errors.Is(err, context.Canceled))
}

// columnsOnFloors places one column per floor at X=10, Y=5 and a stray
// column 0.3m off on X.
func columnsOnFloors() ([]structure.Vertex, map[int64]structure.Element) {
	levels := axisline.DefaultFloorZLevels
	var vs []structure.Vertex
	els := make(map[int64]structure.Element)
	for i := 0; i < 3; i++ {
		id := int64(i + 1)
		vs = append(vs, structure.Vertex{ID: id, ElementID: id, X: 10.0, Y: 5.0, Z: levels[i]})
		els[id] = structure.Element{ID: id, Name: "Poteau", Type: structure.ElementColumn}
	}
	vs = append(vs, structure.Vertex{ID: 4, ElementID: 4, X: 10.3, Y: 5.0, Z: levels[4]})
	els[4] = structure.Element{ID: 4, Name: "Poteau_stray", Type: structure.ElementColumn}
	return vs, els
}

func TestRunElements(t *testing.T) {
	for _, strategy := range []string{config.StrategyFloors, config.StrategyClusters} {
		t.Run(strategy, func(t *testing.T) {
			p := config.DefaultParams()
			p.DiscoveryStrategy = strategy
			vs, els := columnsOnFloors()

			res, err := RunElements(context.Background(), vs, els, p)
			require.NoError(t, err)
			assert.Equal(t, ModeElements, res.Mode)
			assert.Equal(t, strategy, res.Strategy)
			assert.Nil(t, res.Threads)
			require.Len(t, res.Lines[structure.AxisX], 1)
			assert.Equal(t, 10.0, res.Lines[structure.AxisX][0].Position)

			stray := res.Aligned[3]
			assert.InDelta(t, 10.0, stray.X, 1e-9)
			assert.Equal(t, vs[3].Z, stray.Z)
			assert.True(t, stray.Aligned.Has(structure.AxisX))
			assert.True(t, res.Validation.Passed)
		})
	}
}

func TestNewDiscoverer(t *testing.T) {
	p := config.DefaultParams()
	d, err := NewDiscoverer(p)
	require.NoError(t, err)
	assert.Equal(t, config.StrategyFloors, d.Name())

	p.DiscoveryStrategy = "magic"
	_, err = NewDiscoverer(p)
	assert.True(t, errors.Is(err, config.ErrInvalidParams))
}

func TestFloorDiscoverer_RejectsZ(t *testing.T) {
	d := NewFloorDiscoverer(config.DefaultParams())
	_, err := d.Discover(gridVertices(), structure.AxisZ)
	assert.True(t, errors.Is(err, ErrUnsupportedAxis))
}

type failingDiscoverer struct{}

func (failingDiscoverer) Name() string { return "failing" }
func (failingDiscoverer) Discover([]structure.Vertex, structure.Axis) ([]structure.AxisLine, error) {
	return nil, errors.New("boom")
}

func TestRunElements_DiscoveryErrorPropagates(t *testing.T) {
	vs, els := columnsOnFloors()
	_, err := runElementsWith(context.Background(), failingDiscoverer{}, vs, els, config.DefaultParams(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
