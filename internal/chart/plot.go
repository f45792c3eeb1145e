package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotRenderer draws charts with gonum/plot.
type PlotRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPlotRenderer returns a renderer producing 6x4 inch images.
func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

// Render draws req and saves it to path, creating parent directories.
func (r *PlotRenderer) Render(req Request, path string) error {
	p := plot.New()
	p.Title.Text = req.Title
	width := r.Width
	switch req.Kind {
	case Histogram:
		if len(req.Values) == 0 {
			return fmt.Errorf("histogram %s: no values", req.Column)
		}
		bins := req.Bins
		if bins <= 0 {
			bins = HistogramBins
		}
		h, err := plotter.NewHist(plotter.Values(req.Values), bins)
		if err != nil {
			return fmt.Errorf("histogram %s: %w", req.Column, err)
		}
		p.Add(h)
		p.X.Label.Text = req.Column
		p.Y.Label.Text = "Count"
	case Box:
		if len(req.Values) == 0 {
			return fmt.Errorf("box plot %s: no values", req.Column)
		}
		b, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(req.Values))
		if err != nil {
			return fmt.Errorf("box plot %s: %w", req.Column, err)
		}
		p.Add(b)
		p.NominalX(req.Column)
	case Bar, Pie:
		if len(req.Counts) == 0 {
			return fmt.Errorf("bar chart %s: no values", req.Column)
		}
		vals := plotter.Values(req.Counts)
		labels := req.Labels
		if req.Kind == Pie {
			// No pie plotter in gonum; draw each category's share instead.
			vals, labels = shares(req.Labels, req.Counts)
			p.Y.Label.Text = "Share (%)"
		} else {
			p.Y.Label.Text = "Count"
		}
		bars, err := plotter.NewBarChart(vals, vg.Points(20))
		if err != nil {
			return fmt.Errorf("bar chart %s: %w", req.Column, err)
		}
		p.Add(bars)
		p.NominalX(labels...)
	case YearlyTrend, DailyTrend:
		if len(req.Counts) == 0 {
			return fmt.Errorf("trend %s: no values", req.Column)
		}
		pts := make(plotter.XYs, len(req.Counts))
		for i, c := range req.Counts {
			pts[i] = plotter.XY{X: float64(i), Y: c}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("trend %s: %w", req.Column, err)
		}
		p.Add(l)
		p.NominalX(req.Labels...)
		p.X.Label.Text = "Date"
		p.Y.Label.Text = "Count"
		width = 8 * vg.Inch
	default:
		return fmt.Errorf("unknown chart kind %q", req.Kind)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create plots dir: %w", err)
	}
	if err := p.Save(width, r.Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

func shares(labels []string, counts []float64) (plotter.Values, []string) {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	vals := make(plotter.Values, len(counts))
	out := make([]string, len(labels))
	for i, c := range counts {
		vals[i] = c / total * 100
		out[i] = fmt.Sprintf("%s (%.1f%%)", labels[i], vals[i])
	}
	return vals, out
}
