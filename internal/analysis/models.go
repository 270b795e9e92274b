package analysis

import (
	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/parser"
)

// Summary holds the descriptive statistics of one sample collection.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64 // sample standard deviation, 0 for a single sample
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Interval is a confidence interval around a sample mean.
type Interval struct {
	Confidence float64
	Mean       float64
	Margin     float64 // half-width
	Lower      float64
	Upper      float64
}

// GroupResult holds the statistics of one strategy's pooled samples.
type GroupResult struct {
	Strategy experiment.Strategy
	Samples  []float64
	Summary  Summary
	Interval Interval
}

// GroupAnalysis compares strategies on one metric.
type GroupAnalysis struct {
	Metric         extract.Metric
	Groups         []GroupResult         // in experiment.Strategies order, empty groups omitted
	Empty          []experiment.Strategy // present but without samples
	AnalysisErrors []string
}

// Fit is a least-squares polynomial over a scatter.
type Fit struct {
	Degree int
	Coeffs []float64 // lowest order first
	Label  string
}

// ScatterAnalysis holds per-file values of one metric against an axis.
type ScatterAnalysis struct {
	Metric         extract.Metric
	Strategy       experiment.Strategy
	Axis           parser.Axis
	X, Y           []float64
	Summary        Summary // of Y
	Fit            *Fit    // nil with fewer than two points
	AnalysisErrors []string
}

func NewGroupAnalysis(m extract.Metric) *GroupAnalysis {
	return &GroupAnalysis{
		Metric:         m,
		Groups:         make([]GroupResult, 0),
		Empty:          make([]experiment.Strategy, 0),
		AnalysisErrors: make([]string, 0),
	}
}
