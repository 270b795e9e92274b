package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/user/swarm_analytics_go/internal/aggregate"
	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/config"
	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/parser"
	"github.com/user/swarm_analytics_go/internal/report"
	"github.com/user/swarm_analytics_go/internal/store"
)

// App runs one analysis over an experiment tree.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	logger     *slog.Logger
	out        io.Writer // descriptive statistics tables
	layout     experiment.Layout
	strategies []experiment.Strategy
	agg        *aggregate.Aggregator
}

// Result is everything a run produced.
type Result struct {
	RunID    string
	Groups   []*analysis.GroupAnalysis
	Scatters []*analysis.ScatterAnalysis
	Images   map[string][]byte
	Files    []string
}

// scatterSweep is one varying-parameter folder and the axis it varies.
type scatterSweep struct {
	folder experiment.FolderType
	axis   parser.Axis
}

var sweeps = []scatterSweep{
	{folder: experiment.AngleFixed, axis: parser.AxisDroneCount},
	{folder: experiment.CountFixed, axis: parser.AxisAngle},
}

// NewApp checks cfg and prepares an App reading below cfg.RootFolder.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	strategies, err := cfg.StrategyList()
	if err != nil {
		return nil, err
	}
	layout := cfg.Layout()
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		logger:     logger,
		out:        out,
		layout:     layout,
		strategies: strategies,
		agg:        aggregate.New(os.DirFS(cfg.RootFolder), layout.Ext, cfg.Workers, logger),
	}, nil
}

func (a *App) sendStatus(message string, args ...any) {
	a.logger.InfoContext(a.ctx, message, args...)
}

func (a *App) sendWarning(message string, args ...any) {
	a.logger.WarnContext(a.ctx, message, args...)
}

// Run executes the both-fixed comparison and the two parameter sweeps,
// stores the results when a database is configured, then writes every
// enabled output. A missing root folder is the only fatal data condition.
func (a *App) Run() (*Result, error) {
	info, err := os.Stat(a.cfg.RootFolder)
	if err != nil {
		return nil, fmt.Errorf("root folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root folder %s is not a directory", a.cfg.RootFolder)
	}
	a.sendStatus("analyzing experiment", slog.String("root", a.cfg.RootFolder), slog.Any("strategies", a.strategies))

	res := &Result{Images: make(map[string][]byte)}

	a.sendStatus("running both-fixed analysis")
	for _, m := range extract.Metrics {
		g, err := a.analyzeGroups(m)
		if err != nil {
			return nil, err
		}
		res.Groups = append(res.Groups, g)
	}

	for _, sw := range sweeps {
		a.sendStatus("running sweep analysis", slog.String("folder", sw.folder.String()), slog.String("axis", sw.axis.String()))
		for _, s := range a.strategies {
			for _, m := range extract.Metrics {
				sc, err := a.analyzeScatter(m, s, sw)
				if err != nil {
					return nil, err
				}
				if sc != nil {
					res.Scatters = append(res.Scatters, sc)
				}
			}
		}
	}

	if err := a.persist(res); err != nil {
		return nil, err
	}
	a.renderImages(res)
	if err := a.writeOutputs(res); err != nil {
		return nil, err
	}
	a.sendStatus("analysis complete", slog.Int("outputs", len(res.Files)))
	return res, nil
}

func (a *App) dirFor(m extract.Metric, s experiment.Strategy, f experiment.FolderType) string {
	if m.Source() == extract.PositionLog {
		return a.layout.PositionDir(s, f)
	}
	return a.layout.EventDir(s, f)
}

func (a *App) analyzeGroups(m extract.Metric) (*analysis.GroupAnalysis, error) {
	ex, err := extract.ForMetric(m)
	if err != nil {
		return nil, err
	}
	groups := a.agg.CollectGroups(func(s experiment.Strategy) string {
		return a.dirFor(m, s, experiment.BothFixed)
	}, ex)
	for s := range groups {
		if !slices.Contains(a.strategies, s) {
			delete(groups, s)
		}
	}

	res, err := analysis.AnalyzeGroups(m, groups, a.cfg.AnalysisOptions())
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", m, err)
	}
	for _, e := range res.AnalysisErrors {
		a.sendWarning("analysis warning", slog.String("metric", m.String()), slog.String("detail", e))
	}

	if err := report.WriteDescriptiveStats(a.out, report.BoxTitle(m), report.GroupRows(res)); err != nil {
		return nil, err
	}
	if err := report.WriteIntervals(a.out, res); err != nil {
		return nil, err
	}
	return res, nil
}

// analyzeScatter returns nil when the sweep folder is missing or unreadable.
func (a *App) analyzeScatter(m extract.Metric, s experiment.Strategy, sw scatterSweep) (*analysis.ScatterAnalysis, error) {
	ex, err := extract.ForMetric(m)
	if err != nil {
		return nil, err
	}
	dir := a.dirFor(m, s, sw.folder)
	obs, err := a.agg.Scatter(dir, sw.axis, ex)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if obs.Missing {
		if len(obs.Skipped) > 0 {
			a.sendWarning("folder unreadable, skipping", slog.String("dir", dir), slog.String("reason", obs.Skipped[0].Reason))
		} else {
			a.sendWarning("folder missing, skipping", slog.String("dir", dir))
		}
		return nil, nil
	}
	if len(obs.Skipped) > 0 {
		a.sendStatus("files skipped", slog.String("dir", dir), slog.Int("count", len(obs.Skipped)))
	}

	res, err := analysis.AnalyzeScatter(m, s, sw.axis, obs.Observations, a.cfg.AnalysisOptions())
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", dir, err)
	}
	for _, e := range res.AnalysisErrors {
		a.sendWarning("analysis warning", slog.String("dir", dir), slog.String("detail", e))
	}
	if err := report.WriteDescriptiveStats(a.out, report.ScatterTitle(res), report.ScatterRows(res)); err != nil {
		return nil, err
	}
	return res, nil
}

// renderImages draws every non-empty chart. A failed chart is reported and
// left out of the outputs.
func (a *App) renderImages(res *Result) {
	if !a.cfg.WritePNG && !a.cfg.WritePDF {
		return
	}
	style := a.cfg.Plot
	for _, g := range res.Groups {
		if len(g.Groups) == 0 {
			continue
		}
		img, err := report.CreateBoxPlot(g, style)
		if err != nil {
			a.sendWarning("plot failed", slog.String("plot", report.BoxPlotKey(g.Metric)), slog.Any("error", err))
			continue
		}
		res.Images[report.BoxPlotKey(g.Metric)] = img
	}
	for _, sc := range res.Scatters {
		if len(sc.X) == 0 {
			continue
		}
		img, err := report.CreateScatterPlot(sc, style)
		if err != nil {
			a.sendWarning("plot failed", slog.String("plot", report.ScatterPlotKey(sc)), slog.Any("error", err))
			continue
		}
		res.Images[report.ScatterPlotKey(sc)] = img
	}
}

func (a *App) writeOutputs(res *Result) error {
	if !a.cfg.WritePNG && !a.cfg.WriteHTML && !a.cfg.WritePDF {
		return nil
	}
	if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if a.cfg.WritePNG {
		keys := make([]string, 0, len(res.Images))
		for k := range res.Images {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			path := filepath.Join(a.cfg.OutputDir, k+".png")
			if err := os.WriteFile(path, res.Images[k], 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			res.Files = append(res.Files, path)
		}
	}

	if a.cfg.WriteHTML {
		path := filepath.Join(a.cfg.OutputDir, "charts.html")
		if err := writeHTMLFile(path, res, a.cfg.Plot); err != nil {
			return err
		}
		res.Files = append(res.Files, path)
	}

	if a.cfg.WritePDF {
		path := filepath.Join(a.cfg.OutputDir, "report.pdf")
		a.sendStatus("generating PDF", slog.String("path", path))
		meta := report.ReportMeta{
			RunID:           res.RunID,
			RootFolder:      a.cfg.RootFolder,
			ConfidenceLevel: a.cfg.ConfidenceLevel,
			BestFitDegree:   a.cfg.BestFitDegree,
			GeneratedAt:     time.Now(),
		}
		if err := report.BuildPDFReport(path, meta, res.Groups, res.Scatters, res.Images); err != nil {
			return fmt.Errorf("failed to build PDF report: %w", err)
		}
		res.Files = append(res.Files, path)
	}
	return nil
}

func writeHTMLFile(path string, res *Result, style config.PlotStyle) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return report.WriteHTML(f, res.Groups, res.Scatters, style)
}

// persist stores every summary and fit under a new run id.
func (a *App) persist(res *Result) error {
	if a.cfg.DatabasePath == "" {
		return nil
	}
	db, err := store.Open(a.cfg.DatabasePath, a.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.BeginRun(a.ctx, a.cfg.RootFolder, a.cfg.AnalysisOptions())
	if err != nil {
		return err
	}
	res.RunID = run.ID
	for _, g := range res.Groups {
		if err := db.SaveGroupAnalysis(a.ctx, run.ID, g); err != nil {
			return err
		}
	}
	for _, sc := range res.Scatters {
		if err := db.SaveScatter(a.ctx, run.ID, sc); err != nil {
			return err
		}
	}
	a.sendStatus("results stored", slog.String("run", run.ID), slog.String("db", a.cfg.DatabasePath))
	return nil
}

// listRuns prints the stored runs and the summaries of the newest one.
func listRuns(ctx context.Context, dbPath string, logger *slog.Logger, w io.Writer) error {
	db, err := store.Open(dbPath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No stored runs.")
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  root=%s  confidence=%.2f  degree=%d\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), r.RootFolder, r.ConfidenceLevel, r.BestFitDegree)
	}

	rows, err := db.Summaries(ctx, runs[0].ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\nLatest run %s:\n", runs[0].ID)
	for _, g := range rows {
		fmt.Fprintf(w, "  %-10s %-14s n=%-5d mean=%.3f ci=[%.3f, %.3f]\n",
			g.Metric, g.Strategy, g.Summary.Count, g.Summary.Mean, g.Lower, g.Upper)
	}
	return nil
}
