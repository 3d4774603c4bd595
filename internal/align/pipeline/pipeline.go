package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/structure.align/internal/align/snap"
	"github.com/banshee-data/structure.align/internal/align/stats"
	"github.com/banshee-data/structure.align/internal/align/thread"
	"github.com/banshee-data/structure.align/internal/align/validate"
	"github.com/banshee-data/structure.align/internal/config"
	"github.com/banshee-data/structure.align/internal/structure"
)

// Mode names the snapping path of a run.
type Mode string

const (
	ModeThreads  Mode = "threads"
	ModeElements Mode = "elements"
)

// Result is everything a run produced. Aligned is in input order.
type Result struct {
	Mode     Mode
	Strategy string
	Params   config.AlignmentParams

	// Threads is set on the thread path only.
	Threads map[structure.Axis][]thread.Thread
	Lines   map[structure.Axis][]structure.AxisLine

	Aligned    []structure.AlignedVertex
	AxisStats  []stats.AxisStatistics
	Validation validate.Result
	Duration   time.Duration
}

// AlignedCount is the number of vertices snapped on at least one axis.
func (r *Result) AlignedCount() int {
	n := 0
	for _, av := range r.Aligned {
		if !av.Aligned.Empty() {
			n++
		}
	}
	return n
}

// AlignmentRate is AlignedCount over the vertex count.
func (r *Result) AlignmentRate() float64 {
	return validate.AlignmentRate(r.Aligned)
}

// Displacements returns the 3D displacement of every vertex.
func (r *Result) Displacements() []float64 {
	out := make([]float64, len(r.Aligned))
	for i, av := range r.Aligned {
		out[i] = av.Displacement
	}
	return out
}

func checkInput(vertices []structure.Vertex) error {
	if len(vertices) == 0 {
		return structure.ErrEmptyInput
	}
	return structure.CheckUniqueIDs(vertices)
}

// perAxis runs fn for every axis concurrently and collects the results.
func perAxis[T any](ctx context.Context, axes []structure.Axis, fn func(structure.Axis) (T, error)) (map[structure.Axis]T, error) {
	var mu sync.Mutex
	out := make(map[structure.Axis]T, len(axes))
	g, ctx := errgroup.WithContext(ctx)
	for _, a := range axes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := fn(a)
			if err != nil {
				return fmt.Errorf("axis %s: %w", a, err)
			}
			mu.Lock()
			out[a] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// RunThreads clusters each axis into threads and snaps every coordinate to
// the nearest thread within alpha. Z is only processed when vertical
// alignment is enabled.
func RunThreads(ctx context.Context, vertices []structure.Vertex, p config.AlignmentParams) (*Result, error) {
	start := time.Now()
	if err := checkInput(vertices); err != nil {
		return nil, err
	}

	axes := structure.PlanAxes
	if p.VerticalAlignment {
		axes = structure.AllAxes
	}

	disc := NewClusterDiscoverer(p)
	threads, err := perAxis(ctx, axes, func(a structure.Axis) ([]thread.Thread, error) {
		return disc.Threads(vertices, a), nil
	})
	if err != nil {
		return nil, err
	}

	lines := make(map[structure.Axis][]structure.AxisLine, len(threads))
	for a, ts := range threads {
		lines[a] = ThreadLines(ts)
	}

	aligned := snap.NewMatcher(threads, p.Match()).Align(vertices)
	return finish(&Result{
		Mode:     ModeThreads,
		Strategy: disc.Name(),
		Params:   p,
		Threads:  threads,
		Lines:    lines,
		Aligned:  aligned,
	}, vertices, p.ThreadValidation(), start)
}

// RunElements discovers axis lines on X and Y with the configured strategy
// and snaps each element by its endpoints.
func RunElements(ctx context.Context, vertices []structure.Vertex, elements map[int64]structure.Element, p config.AlignmentParams) (*Result, error) {
	start := time.Now()
	if err := checkInput(vertices); err != nil {
		return nil, err
	}
	disc, err := NewDiscoverer(p)
	if err != nil {
		return nil, err
	}
	return runElementsWith(ctx, disc, vertices, elements, p, start)
}

func runElementsWith(ctx context.Context, disc Discoverer, vertices []structure.Vertex,
	elements map[int64]structure.Element, p config.AlignmentParams, start time.Time) (*Result, error) {
	lines, err := perAxis(ctx, structure.PlanAxes, func(a structure.Axis) ([]structure.AxisLine, error) {
		return disc.Discover(vertices, a)
	})
	if err != nil {
		return nil, err
	}
	logger.Logf("%s discovery: %d X lines, %d Y lines", disc.Name(),
		len(lines[structure.AxisX]), len(lines[structure.AxisY]))

	snapper := snap.NewElementSnapper(lines[structure.AxisX], lines[structure.AxisY], p.Element())
	aligned := snapper.Align(vertices, elements)
	return finish(&Result{
		Mode:     ModeElements,
		Strategy: disc.Name(),
		Params:   p,
		Lines:    lines,
		Aligned:  aligned,
	}, vertices, p.ElementValidation(), start)
}

func finish(r *Result, vertices []structure.Vertex, vp validate.Params, start time.Time) (*Result, error) {
	axisStats, err := stats.ComputeAxes(vertices)
	if err != nil {
		return nil, err
	}
	r.AxisStats = axisStats
	r.Validation = validate.Validate(r.Aligned, len(vertices), vp)
	r.Duration = time.Since(start)

	logger.Logf("%s run: %d/%d vertices aligned (%.1f%%), validation passed=%v in %s",
		r.Mode, r.AlignedCount(), len(r.Aligned), r.AlignmentRate()*100, r.Validation.Passed, r.Duration)
	return r, nil
}
