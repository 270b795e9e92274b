package report

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/config"
	"github.com/user/swarm_analytics_go/internal/parser"
)

const fitSamples = 100

// ScatterTitle names a per-file scatter chart.
func ScatterTitle(res *analysis.ScatterAnalysis) string {
	return fmt.Sprintf("%s vs. %s for %s Strategy", res.Metric.Title(), axisName(res.Axis.Label()), res.Strategy.Title())
}

// ScatterPlotKey identifies a scatter chart image, also used as its file stem.
func ScatterPlotKey(res *analysis.ScatterAnalysis) string {
	return fmt.Sprintf("scatter_%s_%s_%s", res.Metric, res.Strategy, res.Axis)
}

// axisName drops the unit suffix from an axis label.
func axisName(label string) string {
	if label == parser.AxisAngle.Label() {
		return "Angle"
	}
	return label
}

// FitCurve samples the fitted polynomial evenly across the x range.
func FitCurve(res *analysis.ScatterAnalysis) plotter.XYs {
	if res.Fit == nil || len(res.X) == 0 {
		return nil
	}
	lo, hi := xRange(res.X)
	pts := make(plotter.XYs, fitSamples)
	for i := range pts {
		x := lo + (hi-lo)*float64(i)/float64(fitSamples-1)
		pts[i] = plotter.XY{X: x, Y: analysis.PolyEval(res.Fit.Coeffs, x)}
	}
	return pts
}

func xRange(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs {
		lo, hi = min(lo, x), max(hi, x)
	}
	return lo, hi
}

// intTicks returns integer ticks over [lo, hi]. Drone-count axes start at 0
// with a step of 5; other axes step by 5 when the span exceeds 6.
func intTicks(lo, hi float64, droneCount bool) []plot.Tick {
	xMin, xMax := int(lo), int(hi)
	step := 1
	if droneCount {
		xMin, step = 0, 5
	} else if xMax-xMin > 6 {
		step = 5
	}
	var ticks []plot.Tick
	for v := xMin; v <= xMax; v += step {
		ticks = append(ticks, plot.Tick{Value: float64(v), Label: fmt.Sprintf("%d", v)})
	}
	return ticks
}

func applyFontSize(p *plot.Plot, size float64) {
	p.Title.TextStyle.Font.Size = vg.Points(size)
	p.X.Label.TextStyle.Font.Size = vg.Points(size)
	p.Y.Label.TextStyle.Font.Size = vg.Points(size)
}

func renderPNG(p *plot.Plot, style config.PlotStyle) ([]byte, error) {
	writer, err := p.WriterTo(vg.Length(style.FigureWidthIn)*vg.Inch, vg.Length(style.FigureHeightIn)*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create plot writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write plot to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// CreateScatterPlot renders per-file values with the best-fit overlay as PNG.
func CreateScatterPlot(res *analysis.ScatterAnalysis, style config.PlotStyle) ([]byte, error) {
	if res == nil || len(res.X) == 0 {
		return nil, fmt.Errorf("no data to plot")
	}
	palette, err := style.Palette()
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = ScatterTitle(res)
	p.X.Label.Text = res.Axis.Label()
	p.Y.Label.Text = res.Metric.YLabel()
	applyFontSize(p, style.FontSize)
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(res.X))
	for i := range res.X {
		pts[i] = plotter.XY{X: res.X[i], Y: res.Y[i]}
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	scatter.GlyphStyle.Color = palette[0]
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(scatter)
	if style.ShowLegend {
		p.Legend.Add("Data Points", scatter)
	}

	if curve := FitCurve(res); curve != nil {
		line, err := plotter.NewLine(curve)
		if err != nil {
			return nil, fmt.Errorf("failed to create best-fit line: %w", err)
		}
		line.Color = palette[1]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		if style.ShowLegend {
			p.Legend.Add(res.Fit.Label, line)
		}
	}

	lo, hi := xRange(res.X)
	p.X.Tick.Marker = plot.ConstantTicks(intTicks(lo, hi, res.Axis == parser.AxisDroneCount))

	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)
	return renderPNG(p, style)
}
