package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/config"
	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/fakedata"
	"github.com/user/swarm_analytics_go/internal/parser"
	"github.com/user/swarm_analytics_go/internal/report"
	"github.com/user/swarm_analytics_go/internal/store"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := filepath.Join(t.TempDir(), "root")
	_, err := fakedata.Generate(root, fakedata.DefaultOptions())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.RootFolder = root
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.DatabasePath = filepath.Join(t.TempDir(), "runs.db")
	return cfg
}

func findGroup(t *testing.T, res *Result, m extract.Metric) *analysis.GroupAnalysis {
	t.Helper()
	for _, g := range res.Groups {
		if g.Metric == m {
			return g
		}
	}
	t.Fatalf("no group analysis for %s", m)
	return nil
}

func findScatter(t *testing.T, res *Result, m extract.Metric, s experiment.Strategy, axis parser.Axis) *analysis.ScatterAnalysis {
	t.Helper()
	for _, sc := range res.Scatters {
		if sc.Metric == m && sc.Strategy == s && sc.Axis == axis {
			return sc
		}
	}
	t.Fatalf("no scatter for %s/%s/%s", m, s, axis)
	return nil
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	var stats bytes.Buffer
	app, err := NewApp(context.Background(), cfg, discard, &stats)
	require.NoError(t, err)
	res, err := app.Run()
	require.NoError(t, err)

	require.Len(t, res.Groups, 3)
	require.Len(t, res.Scatters, 12, "two sweeps x two strategies x three metrics")

	makespan := findGroup(t, res, extract.Makespan)
	require.Len(t, makespan.Groups, 2)
	central, decentral := makespan.Groups[0], makespan.Groups[1]
	assert.Equal(t, experiment.Centralized, central.Strategy)
	assert.Equal(t, 10, central.Summary.Count, "one exit time per drone in fixed.txt")
	assert.Less(t, central.Summary.Max, decentral.Summary.Min)
	assert.LessOrEqual(t, central.Interval.Lower, central.Interval.Mean)
	assert.GreaterOrEqual(t, central.Interval.Upper, central.Interval.Mean)

	emdGroups := findGroup(t, res, extract.EMD)
	require.Len(t, emdGroups.Groups, 2)
	assert.Equal(t, 10, emdGroups.Groups[0].Summary.Count, "one distance per timestep")
	assert.InDelta(t, 0, emdGroups.Groups[0].Summary.Min, 1e-9, "the reference timestep matches itself")

	byCount := findScatter(t, res, extract.Makespan, experiment.Centralized, parser.AxisDroneCount)
	assert.Len(t, byCount.X, 20)
	assert.ElementsMatch(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}, byCount.X)
	for i, x := range byCount.X {
		if x == 1 {
			assert.Equal(t, 0.0, byCount.Y[i], "a single drone has zero makespan")
		}
	}
	require.NotNil(t, byCount.Fit)
	assert.Len(t, byCount.Fit.Coeffs, 2)

	byAngle := findScatter(t, res, extract.Traversal, experiment.Decentralized, parser.AxisAngle)
	assert.Len(t, byAngle.X, 21)
	assert.Contains(t, byAngle.X, 30.0)
	assert.Contains(t, byAngle.X, 50.0)

	assert.Contains(t, stats.String(), "=== Makespan by Strategy (Angle & Count Fixed) ===")
	assert.Contains(t, stats.String(), "=== EMD vs. Angle for Centralized Strategy ===")

	for _, name := range []string{"report.pdf", "charts.html", report.BoxPlotKey(extract.Makespan) + ".png", report.ScatterPlotKey(byCount) + ".png"} {
		info, err := os.Stat(filepath.Join(cfg.OutputDir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
	assert.Len(t, res.Images, 15)

	require.NotEmpty(t, res.RunID)
	db, err := store.Open(cfg.DatabasePath, discard)
	require.NoError(t, err)
	defer db.Close()
	rows, err := db.Summaries(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
	scatters, err := db.Scatters(context.Background(), res.RunID)
	require.NoError(t, err)
	assert.Len(t, scatters, 12)

	var listing bytes.Buffer
	require.NoError(t, listRuns(context.Background(), cfg.DatabasePath, discard, &listing))
	assert.Contains(t, listing.String(), res.RunID)
}

func TestRunSingleStrategy(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Strategies = []string{"decentralized"}
	cfg.WritePNG, cfg.WriteHTML, cfg.WritePDF = false, false, false
	cfg.DatabasePath = ""

	app, err := NewApp(context.Background(), cfg, discard, io.Discard)
	require.NoError(t, err)
	res, err := app.Run()
	require.NoError(t, err)

	assert.Len(t, res.Scatters, 6)
	for _, g := range res.Groups {
		require.Len(t, g.Groups, 1)
		assert.Equal(t, experiment.Decentralized, g.Groups[0].Strategy)
	}
	assert.Empty(t, res.Files)
	assert.Empty(t, res.RunID)
	_, err = os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunMissingSweepFolder(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.WritePNG, cfg.WriteHTML, cfg.WritePDF = false, false, false
	require.NoError(t, os.RemoveAll(filepath.Join(cfg.RootFolder, "spatial", "centralized", "countFixed")))

	app, err := NewApp(context.Background(), cfg, discard, io.Discard)
	require.NoError(t, err)
	res, err := app.Run()
	require.NoError(t, err)
	assert.Len(t, res.Scatters, 11)
}

func TestRunEmptyStrategyFolder(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.WritePNG, cfg.WriteHTML, cfg.WritePDF = false, false, false
	cfg.DatabasePath = ""
	fixed := filepath.Join(cfg.RootFolder, "makespan", "centralized", "bothFixed", "fixed.txt")
	require.NoError(t, os.WriteFile(fixed, []byte("centralizedWeighted,10,40,1001,0,1000,<null>\n"), 0o644))

	var stats bytes.Buffer
	app, err := NewApp(context.Background(), cfg, discard, &stats)
	require.NoError(t, err)
	res, err := app.Run()
	require.NoError(t, err)

	makespan := findGroup(t, res, extract.Makespan)
	require.Len(t, makespan.Groups, 1)
	assert.Equal(t, experiment.Decentralized, makespan.Groups[0].Strategy)
	assert.Equal(t, []experiment.Strategy{experiment.Centralized}, makespan.Empty)
	assert.Contains(t, stats.String(), "=== Makespan by Strategy (Angle & Count Fixed) ===\ncentralized: No data.\n")
}

func TestRunMissingRoot(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.RootFolder = filepath.Join(t.TempDir(), "nope")

	app, err := NewApp(context.Background(), cfg, discard, io.Discard)
	require.NoError(t, err)
	_, err = app.Run()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.ConfidenceLevel = 1.5

	_, err := NewApp(context.Background(), cfg, discard, io.Discard)
	assert.Error(t, err)
}

func TestListRunsEmpty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, listRuns(context.Background(), filepath.Join(t.TempDir(), "empty.db"), discard, &out))
	assert.Equal(t, "No stored runs.\n", out.String())
}
