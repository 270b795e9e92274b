package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/config"
	"github.com/user/swarm_analytics_go/internal/extract"
)

// BoxTitle names a strategy-comparison box chart.
func BoxTitle(m extract.Metric) string {
	return fmt.Sprintf("%s by Strategy (Angle & Count Fixed)", m.Title())
}

// BoxPlotKey identifies a box chart image, also used as its file stem.
func BoxPlotKey(m extract.Metric) string {
	return "box_" + m.String()
}

// CreateBoxPlot renders one box per strategy as PNG. Means are drawn as
// white circles when style.ShowMeans is set.
func CreateBoxPlot(res *analysis.GroupAnalysis, style config.PlotStyle) ([]byte, error) {
	if res == nil || len(res.Groups) == 0 {
		return nil, fmt.Errorf("no groups to plot")
	}
	palette, err := style.Palette()
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = BoxTitle(res.Metric)
	p.X.Label.Text = "Strategy"
	p.Y.Label.Text = res.Metric.YLabel()
	applyFontSize(p, style.FontSize)

	// Box width is a fraction of the category spacing.
	figWidth := vg.Length(style.FigureWidthIn) * vg.Inch
	boxWidth := figWidth * vg.Length(style.BoxWidth) / vg.Length(len(res.Groups)+1)

	names := make([]string, 0, len(res.Groups))
	means := make(plotter.XYs, 0, len(res.Groups))
	for i, g := range res.Groups {
		box, err := plotter.NewBoxPlot(boxWidth, float64(i), plotter.Values(g.Samples))
		if err != nil {
			return nil, fmt.Errorf("failed to create box for %s: %w", g.Strategy, err)
		}
		box.FillColor = palette[0]
		box.BoxStyle.Color = palette[0]
		box.MedianStyle.Color = palette[1]
		box.MedianStyle.Width = vg.Points(1.5)
		box.WhiskerStyle.Color = palette[2]
		box.GlyphStyle.Color = palette[3]
		box.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(box)

		names = append(names, g.Strategy.Title())
		means = append(means, plotter.XY{X: float64(i), Y: g.Summary.Mean})
	}
	p.NominalX(names...)

	if style.ShowMeans {
		marker, err := plotter.NewScatter(means)
		if err != nil {
			return nil, fmt.Errorf("failed to create mean markers: %w", err)
		}
		marker.GlyphStyle.Shape = draw.CircleGlyph{}
		marker.GlyphStyle.Color = color.White
		marker.GlyphStyle.Radius = vg.Points(4)
		p.Add(marker)
		if style.ShowLegend {
			p.Legend.Add("Mean", marker)
			p.Legend.Top = true
		}
	}

	return renderPNG(p, style)
}
