package analysis

import (
	"fmt"

	"github.com/user/swarm_analytics_go/internal/aggregate"
	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/parser"
)

// Options are the tunables of the statistics module.
type Options struct {
	ConfidenceLevel float64
	BestFitDegree   int
}

// AnalyzeGroups summarises every strategy's pooled samples for one metric
// and attaches a confidence interval to each.
func AnalyzeGroups(m extract.Metric, groups aggregate.SampleGroups, opts Options) (*GroupAnalysis, error) {
	if !(opts.ConfidenceLevel > 0 && opts.ConfidenceLevel < 1) {
		return nil, fmt.Errorf("confidence level must be in (0, 1), got %v", opts.ConfidenceLevel)
	}

	results := NewGroupAnalysis(m)
	for _, s := range experiment.Strategies {
		samples, ok := groups[s]
		if !ok {
			continue
		}
		summary, ok := Summarize(samples)
		if !ok {
			results.Empty = append(results.Empty, s)
			results.AnalysisErrors = append(results.AnalysisErrors, fmt.Sprintf("%s: no %s samples", s, m))
			continue
		}
		interval, err := NewInterval(samples, opts.ConfidenceLevel)
		if err != nil {
			return nil, fmt.Errorf("interval for %s: %w", s, err)
		}
		results.Groups = append(results.Groups, GroupResult{
			Strategy: s,
			Samples:  samples,
			Summary:  summary,
			Interval: interval,
		})
	}
	return results, nil
}

// AnalyzeScatter summarises per-file values and fits the best-fit
// polynomial when there are at least two points.
func AnalyzeScatter(m extract.Metric, s experiment.Strategy, axis parser.Axis, obs []aggregate.Observation, opts Options) (*ScatterAnalysis, error) {
	result := &ScatterAnalysis{
		Metric:         m,
		Strategy:       s,
		Axis:           axis,
		X:              make([]float64, 0, len(obs)),
		Y:              make([]float64, 0, len(obs)),
		AnalysisErrors: make([]string, 0),
	}
	for _, o := range obs {
		result.X = append(result.X, o.Key)
		result.Y = append(result.Y, o.Value)
	}

	summary, ok := Summarize(result.Y)
	if !ok {
		result.AnalysisErrors = append(result.AnalysisErrors, fmt.Sprintf("%s: no data for %s", s, m))
		return result, nil
	}
	result.Summary = summary

	if len(result.X) > 1 {
		coeffs, err := PolyFit(result.X, result.Y, opts.BestFitDegree)
		if err != nil {
			return nil, fmt.Errorf("best fit for %s %s: %w", s, m, err)
		}
		result.Fit = &Fit{
			Degree: len(coeffs) - 1,
			Coeffs: coeffs,
			Label:  FitLabel(len(coeffs) - 1),
		}
	}
	return result, nil
}
