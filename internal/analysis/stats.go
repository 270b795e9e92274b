package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNoSamples is returned when a statistic needs at least one sample.
var ErrNoSamples = errors.New("no samples")

// Summarize computes the descriptive statistics of samples. ok is false
// when samples is empty.
func Summarize(samples []float64) (Summary, bool) {
	n := len(samples)
	if n == 0 {
		return Summary{}, false
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	s := Summary{
		Count:  n,
		Mean:   stat.Mean(sorted, nil),
		Min:    floats.Min(sorted),
		Q1:     Percentile(sorted, 25),
		Median: Percentile(sorted, 50),
		Q3:     Percentile(sorted, 75),
		Max:    floats.Max(sorted),
	}
	// Bessel-corrected; a single sample has no spread.
	if n > 1 {
		s.StdDev = stat.StdDev(sorted, nil)
	}
	return s, true
}

// Percentile returns the p-th percentile (0..100) of sorted using linear
// interpolation between the two closest ranks. sorted must be ascending
// and non-empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := (float64(len(sorted)) - 1) * p / 100
	lo := math.Floor(h)
	i := int(lo)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	if i < 0 {
		return sorted[0]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// TCritical returns the two-tailed Student-t critical value for the given
// confidence level and degrees of freedom.
func TCritical(confidence float64, dof int) float64 {
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(dof)}
	return t.Quantile((1 + confidence) / 2)
}

// MarginOfError returns the half-width of the confidence interval around
// the mean of samples. It is zero for fewer than two samples.
func MarginOfError(samples []float64, confidence float64) (float64, error) {
	if !(confidence > 0 && confidence < 1) {
		return 0, fmt.Errorf("confidence level must be in (0, 1), got %v", confidence)
	}
	n := len(samples)
	if n < 2 {
		return 0, nil
	}
	std := stat.StdDev(samples, nil)
	return stat.StdErr(std, float64(n)) * TCritical(confidence, n-1), nil
}

// NewInterval builds the confidence interval around the mean of samples.
func NewInterval(samples []float64, confidence float64) (Interval, error) {
	if len(samples) == 0 {
		return Interval{}, ErrNoSamples
	}
	h, err := MarginOfError(samples, confidence)
	if err != nil {
		return Interval{}, err
	}
	mean := stat.Mean(samples, nil)
	return Interval{
		Confidence: confidence,
		Mean:       mean,
		Margin:     h,
		Lower:      mean - h,
		Upper:      mean + h,
	}, nil
}
