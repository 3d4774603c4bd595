package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/structure.align/internal/align/pipeline"
	"github.com/banshee-data/structure.align/internal/structure"
)

// displacementBins are the upper edges, in millimetres, of the
// displacement histogram buckets. The last bucket is open ended.
var displacementBins = []float64{0.5, 1, 2, 5, 10, 20, 50}

// DisplacementHistogram buckets displacements (metres) by displacementBins.
// It returns one label and one count per bucket.
func DisplacementHistogram(displacements []float64) ([]string, []int) {
	labels := make([]string, 0, len(displacementBins)+1)
	lo := 0.0
	for _, hi := range displacementBins {
		labels = append(labels, fmt.Sprintf("%g-%g mm", lo, hi))
		lo = hi
	}
	labels = append(labels, fmt.Sprintf(">%g mm", lo))

	counts := make([]int, len(labels))
	for _, d := range displacements {
		mm := d * 1000
		i := 0
		for i < len(displacementBins) && mm > displacementBins[i] {
			i++
		}
		counts[i]++
	}
	return labels, counts
}

// RenderDisplacementChart renders an HTML page with the displacement
// histogram and the number of lines found per axis.
func RenderDisplacementChart(res *pipeline.Result, title string) ([]byte, error) {
	labels, counts := DisplacementHistogram(res.Displacements())
	bins := make([]opts.BarData, len(counts))
	for i, c := range counts {
		bins[i] = opts.BarData{Value: c}
	}

	hist := charts.NewBar()
	hist.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Vertex displacement",
			Subtitle: fmt.Sprintf("%s vertices=%d aligned=%d", res.Mode, len(res.Aligned), res.AlignedCount()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	hist.SetXAxis(labels).
		AddSeries("vertices", bins,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	axes := make([]string, 0, len(structure.AllAxes))
	lines := make([]opts.BarData, 0, len(structure.AllAxes))
	for _, a := range structure.AllAxes {
		axes = append(axes, a.String())
		lines = append(lines, opts.BarData{Value: len(res.Lines[a])})
	}
	perAxis := charts.NewBar()
	perAxis.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: "Lines per axis", Subtitle: res.Strategy}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	perAxis.SetXAxis(axes).
		AddSeries("lines", lines,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(hist, perAxis)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, fmt.Errorf("render error: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDisplacementChart renders the displacement chart of res to path.
func WriteDisplacementChart(path string, res *pipeline.Result) error {
	html, err := RenderDisplacementChart(res, "structure-align "+string(res.Mode))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := os.WriteFile(path, html, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	logger.Logf("chart written to %s", path)
	return nil
}
