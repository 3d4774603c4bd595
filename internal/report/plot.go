package report

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/structure.align/internal/structure"
)

// ErrNoCoordinates is returned when there is nothing to plot.
var ErrNoCoordinates = errors.New("no coordinates to plot")

// histogramBins is the bin count of the coordinate histogram.
const histogramBins = 200

// AxisPlot draws the distribution of one coordinate together with the
// discovered lines, each marked at its vertex count.
func AxisPlot(coords []float64, lines []structure.AxisLine, a structure.Axis) (*plot.Plot, error) {
	if len(coords) == 0 {
		return nil, ErrNoCoordinates
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s coordinates - %d lines", a, len(lines))
	p.X.Label.Text = fmt.Sprintf("%s (m)", a)
	p.Y.Label.Text = "Vertices"

	hist, err := plotter.NewHist(plotter.Values(coords), histogramBins)
	if err != nil {
		return nil, err
	}
	hist.FillColor = color.RGBA{R: 160, G: 160, B: 160, A: 255}
	hist.LineStyle.Width = vg.Points(0.5)
	p.Add(hist)
	p.Legend.Add("vertices", hist)

	if len(lines) > 0 {
		pts := make(plotter.XYs, len(lines))
		for i, l := range lines {
			pts[i] = plotter.XY{X: l.Position, Y: float64(l.VertexCount)}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  color.RGBA{R: 220, G: 40, B: 40, A: 255},
			Radius: vg.Points(2.5),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
		p.Legend.Add("lines", sc)
	}
	return p, nil
}

// WriteAxisPlot saves the axis plot as an image; the format follows the
// extension of path.
func WriteAxisPlot(path string, coords []float64, lines []structure.AxisLine, a structure.Axis) error {
	p, err := AxisPlot(coords, lines, a)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	logger.Logf("plot written to %s", path)
	return nil
}
