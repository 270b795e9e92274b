package report

import (
	"fmt"
	"io"
	"slices"

	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/experiment"
)

// NamedSummary is one row group of a descriptive statistics table.
type NamedSummary struct {
	Name    string
	Summary analysis.Summary
	Empty   bool
}

// WriteDescriptiveStats prints a titled block of statistics per group.
func WriteDescriptiveStats(w io.Writer, title string, rows []NamedSummary) error {
	if _, err := fmt.Fprintf(w, "\n=== %s ===\n", title); err != nil {
		return err
	}
	for _, r := range rows {
		if r.Empty {
			if _, err := fmt.Fprintf(w, "%s: No data.\n", r.Name); err != nil {
				return err
			}
			continue
		}
		s := r.Summary
		lines := []struct {
			key string
			val float64
		}{
			{"Mean", s.Mean},
			{"Std", s.StdDev},
			{"Min", s.Min},
			{"25%", s.Q1},
			{"Median", s.Median},
			{"75%", s.Q3},
			{"Max", s.Max},
		}
		if _, err := fmt.Fprintf(w, "%s:\n  %6s: %d\n", r.Name, "Count", s.Count); err != nil {
			return err
		}
		for _, l := range lines {
			if _, err := fmt.Fprintf(w, "  %6s: %10.3f\n", l.key, l.val); err != nil {
				return err
			}
		}
	}
	return nil
}

// GroupRows turns a strategy comparison into table rows, with a "No data"
// row for every strategy that produced no samples.
func GroupRows(res *analysis.GroupAnalysis) []NamedSummary {
	rows := make([]NamedSummary, 0, len(res.Groups)+len(res.Empty))
	for _, s := range experiment.Strategies {
		if slices.Contains(res.Empty, s) {
			rows = append(rows, NamedSummary{Name: s.String(), Empty: true})
			continue
		}
		for _, g := range res.Groups {
			if g.Strategy == s {
				rows = append(rows, NamedSummary{Name: s.String(), Summary: g.Summary})
			}
		}
	}
	return rows
}

// ScatterRows returns the single row describing a scatter's y values.
func ScatterRows(res *analysis.ScatterAnalysis) []NamedSummary {
	return []NamedSummary{{Name: res.Metric.YLabel(), Summary: res.Summary, Empty: len(res.Y) == 0}}
}

// WriteIntervals prints the confidence interval of every strategy.
func WriteIntervals(w io.Writer, res *analysis.GroupAnalysis) error {
	for _, g := range res.Groups {
		iv := g.Interval
		_, err := fmt.Fprintf(w, "%s: mean %.3f ± %.3f (%.0f%% CI [%.3f, %.3f], n=%d)\n",
			g.Strategy, iv.Mean, iv.Margin, iv.Confidence*100, iv.Lower, iv.Upper, g.Summary.Count)
		if err != nil {
			return err
		}
	}
	return nil
}
