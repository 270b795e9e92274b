package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/swarm_analytics_go/internal/aggregate"
	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/parser"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var (
	testOpts   = analysis.Options{ConfidenceLevel: 0.95, BestFitDegree: 1}
	testGroups = aggregate.SampleGroups{
		experiment.Centralized:   {12000, 11800, 12500, 12100},
		experiment.Decentralized: {10100, 10400, 9900},
	}
)

func TestOpenAppliesMigrations(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	version, dirty, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(2), version)
}

func TestReopenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	run, err := s.BeginRun(context.Background(), "root", testOpts)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestBeginRunAndList(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.BeginRun(ctx, "batch-a", testOpts)
	require.NoError(t, err)
	second, err := s.BeginRun(ctx, "batch-b", analysis.Options{ConfidenceLevel: 0.9, BestFitDegree: 2})
	require.NoError(t, err)

	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	runs, err := s.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID, "newest first")
	assert.Equal(t, "batch-b", runs[0].RootFolder)
	assert.Equal(t, 0.9, runs[0].ConfidenceLevel)
	assert.Equal(t, 2, runs[0].BestFitDegree)
	assert.True(t, first.CreatedAt.Equal(runs[1].CreatedAt))
}

func TestSaveGroupAnalysis(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "root", testOpts)
	require.NoError(t, err)

	res, err := analysis.AnalyzeGroups(extract.Makespan, testGroups, testOpts)
	require.NoError(t, err)
	require.NoError(t, s.SaveGroupAnalysis(ctx, run.ID, res))
	// Saving again replaces rows instead of failing.
	require.NoError(t, s.SaveGroupAnalysis(ctx, run.ID, res))

	rows, err := s.Summaries(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "makespan", rows[0].Metric)
	assert.Equal(t, "centralized", rows[0].Strategy)
	assert.Equal(t, res.Groups[0].Summary, rows[0].Summary)
	assert.InDelta(t, res.Groups[0].Interval.Margin, rows[0].Margin, 1e-12)

	other, err := s.Summaries(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveGroupAnalysisUnknownRun(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)

	res, err := analysis.AnalyzeGroups(extract.EMD, testGroups, testOpts)
	require.NoError(t, err)
	assert.Error(t, s.SaveGroupAnalysis(context.Background(), "no-such-run", res))
}

func TestSaveScatter(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	ctx := context.Background()

	run, err := s.BeginRun(ctx, "root", testOpts)
	require.NoError(t, err)

	withFit := &analysis.ScatterAnalysis{
		Metric:   extract.Traversal,
		Strategy: experiment.Decentralized,
		Axis:     parser.AxisAngle,
		X:        []float64{30, 40},
		Y:        []float64{1, 2},
		Summary:  analysis.Summary{Count: 2, Mean: 1.5, StdDev: 0.707, Min: 1, Q1: 1.25, Median: 1.5, Q3: 1.75, Max: 2},
		Fit:      &analysis.Fit{Degree: 1, Coeffs: []float64{-2, 0.1}, Label: analysis.FitLabel(1)},
	}
	empty := &analysis.ScatterAnalysis{
		Metric:   extract.EMD,
		Strategy: experiment.Centralized,
		Axis:     parser.AxisDroneCount,
	}
	require.NoError(t, s.SaveScatter(ctx, run.ID, withFit))
	require.NoError(t, s.SaveScatter(ctx, run.ID, empty))

	rows, err := s.Scatters(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "angle", rows[0].Axis)
	assert.Equal(t, 2, rows[0].Points)
	assert.Equal(t, 1.5, rows[0].Mean.Float64)
	assert.Equal(t, int64(1), rows[0].Degree.Int64)
	assert.Equal(t, []float64{-2, 0.1}, rows[0].Coeffs)

	assert.Equal(t, "droneCount", rows[1].Axis)
	assert.Equal(t, 0, rows[1].Points)
	assert.False(t, rows[1].Mean.Valid)
	assert.False(t, rows[1].Degree.Valid)
	assert.Nil(t, rows[1].Coeffs)
}
