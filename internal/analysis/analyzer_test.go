package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/swarm_analytics_go/internal/aggregate"
	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/parser"
)

var defaultOpts = Options{ConfidenceLevel: 0.95, BestFitDegree: 1}

func TestAnalyzeGroups(t *testing.T) {
	t.Parallel()

	groups := aggregate.SampleGroups{
		experiment.Decentralized: {10, 12, 14},
		experiment.Centralized:   {5},
	}
	res, err := AnalyzeGroups(extract.Traversal, groups, defaultOpts)
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)

	assert.Equal(t, experiment.Centralized, res.Groups[0].Strategy, "groups follow strategy order")
	assert.Equal(t, 0.0, res.Groups[0].Interval.Margin)
	assert.Equal(t, 5.0, res.Groups[0].Summary.Mean)

	dec := res.Groups[1]
	assert.Equal(t, 3, dec.Summary.Count)
	assert.Equal(t, 12.0, dec.Interval.Mean)
	assert.Greater(t, dec.Interval.Margin, 0.0)
	assert.Empty(t, res.AnalysisErrors)
}

func TestAnalyzeGroupsEmptyGroup(t *testing.T) {
	t.Parallel()

	groups := aggregate.SampleGroups{experiment.Centralized: {}}
	res, err := AnalyzeGroups(extract.EMD, groups, defaultOpts)
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
	assert.Equal(t, []experiment.Strategy{experiment.Centralized}, res.Empty)
	assert.Len(t, res.AnalysisErrors, 1)
}

func TestAnalyzeGroupsRejectsConfidence(t *testing.T) {
	t.Parallel()

	_, err := AnalyzeGroups(extract.EMD, aggregate.SampleGroups{}, Options{ConfidenceLevel: 95})
	assert.Error(t, err)
}

func TestAnalyzeScatter(t *testing.T) {
	t.Parallel()

	obs := []aggregate.Observation{
		{File: "a", Key: 1, Value: 2},
		{File: "b", Key: 2, Value: 4},
		{File: "c", Key: 3, Value: 6},
	}
	res, err := AnalyzeScatter(extract.Makespan, experiment.Centralized, parser.AxisDroneCount, obs, defaultOpts)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, res.X)
	assert.Equal(t, []float64{2, 4, 6}, res.Y)
	assert.Equal(t, 4.0, res.Summary.Mean)

	require.NotNil(t, res.Fit)
	assert.Equal(t, 1, res.Fit.Degree)
	assert.Equal(t, "Linear Best Fit", res.Fit.Label)
	assert.InDelta(t, 0.0, res.Fit.Coeffs[0], 1e-9)
	assert.InDelta(t, 2.0, res.Fit.Coeffs[1], 1e-9)
}

func TestAnalyzeScatterSinglePointHasNoFit(t *testing.T) {
	t.Parallel()

	obs := []aggregate.Observation{{File: "a", Key: 1, Value: 2}}
	res, err := AnalyzeScatter(extract.Makespan, experiment.Centralized, parser.AxisDroneCount, obs, defaultOpts)
	require.NoError(t, err)
	assert.Nil(t, res.Fit)
	assert.Equal(t, 1, res.Summary.Count)
}

func TestAnalyzeScatterNoData(t *testing.T) {
	t.Parallel()

	res, err := AnalyzeScatter(extract.EMD, experiment.Decentralized, parser.AxisAngle, nil, defaultOpts)
	require.NoError(t, err)
	assert.Nil(t, res.Fit)
	assert.Len(t, res.AnalysisErrors, 1)
}
