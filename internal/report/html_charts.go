package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/config"
)

func chartSize(style config.PlotStyle) (string, string) {
	// 96 CSS pixels per inch.
	return fmt.Sprintf("%dpx", int(style.FigureWidthIn*96)), fmt.Sprintf("%dpx", int(style.FigureHeightIn*96))
}

// NewScatterChart builds an interactive scatter with the best-fit overlay.
func NewScatterChart(res *analysis.ScatterAnalysis, style config.PlotStyle) *charts.Scatter {
	width, height := chartSize(style)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: ScatterTitle(res), Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: ScatterTitle(res), Subtitle: fmt.Sprintf("files=%d", len(res.X))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(style.ShowLegend), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: res.Axis.Label(), NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: res.Metric.YLabel(), NameLocation: "middle", NameGap: 50}),
	)

	data := make([]opts.ScatterData, 0, len(res.X))
	for i := range res.X {
		data = append(data, opts.ScatterData{Value: []interface{}{res.X[i], res.Y[i]}})
	}
	scatter.AddSeries("Data Points", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: style.Colors[0]}),
	)

	if curve := FitCurve(res); curve != nil {
		fit := make([]opts.ScatterData, 0, len(curve))
		for _, pt := range curve {
			fit = append(fit, opts.ScatterData{Value: []interface{}{pt.X, pt.Y}})
		}
		scatter.AddSeries(res.Fit.Label, fit,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: style.Colors[1]}),
		)
	}
	return scatter
}

// NewBoxChart builds an interactive box chart comparing strategies.
func NewBoxChart(res *analysis.GroupAnalysis, style config.PlotStyle) *charts.BoxPlot {
	width, height := chartSize(style)
	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: BoxTitle(res.Metric), Width: width, Height: height}),
		charts.WithTitleOpts(opts.Title{Title: BoxTitle(res.Metric)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: res.Metric.YLabel()}),
	)

	names := make([]string, 0, len(res.Groups))
	data := make([]opts.BoxPlotData, 0, len(res.Groups))
	for _, g := range res.Groups {
		s := g.Summary
		names = append(names, g.Strategy.Title())
		data = append(data, opts.BoxPlotData{
			Name:  g.Strategy.Title(),
			Value: []float64{s.Min, s.Q1, s.Median, s.Q3, s.Max},
		})
	}
	box.SetXAxis(names).AddSeries(res.Metric.Title(), data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: style.Colors[0], BorderColor: style.Colors[2]}),
	)
	return box
}

// WriteHTML renders every chart onto one page.
func WriteHTML(w io.Writer, groups []*analysis.GroupAnalysis, scatters []*analysis.ScatterAnalysis, style config.PlotStyle) error {
	page := components.NewPage()
	for _, g := range groups {
		if len(g.Groups) > 0 {
			page.AddCharts(NewBoxChart(g, style))
		}
	}
	for _, s := range scatters {
		if len(s.X) > 0 {
			page.AddCharts(NewScatterChart(s, style))
		}
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
