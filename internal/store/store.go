// Package store persists analysis runs to SQLite so results from different
// experiment batches can be compared later.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/user/swarm_analytics_go/internal/analysis"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps the SQLite database holding run results.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Run is one invocation of the analyzer.
type Run struct {
	ID              string
	RootFolder      string
	ConfidenceLevel float64
	BestFitDegree   int
	CreatedAt       time.Time
}

// GroupRow is one strategy's stored summary for a metric.
type GroupRow struct {
	Metric   string
	Strategy string
	Summary  analysis.Summary
	Margin   float64
	Lower    float64
	Upper    float64
}

// ScatterRow is one stored scatter. Stats are absent when the scatter had
// no points, Coeffs when it had no fit.
type ScatterRow struct {
	Metric   string
	Strategy string
	Axis     string
	Points   int
	Mean     sql.NullFloat64
	StdDev   sql.NullFloat64
	Min      sql.NullFloat64
	Median   sql.NullFloat64
	Max      sql.NullFloat64
	Degree   sql.NullInt64
	Coeffs   []float64
}

// Open opens (creating if needed) the database at path and applies all
// pending migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{logger: s.logger}
	return m, nil
}

// migrateUp runs all pending migrations. The migrate instance is not closed
// because that would close the shared connection.
func (s *Store) migrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, bool, error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// migrateLogger implements migrate.Logger on top of slog.
type migrateLogger struct {
	logger *slog.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debug(fmt.Sprintf("[migrate] "+format, v...))
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// BeginRun records a new run and returns it with a fresh id.
func (s *Store) BeginRun(ctx context.Context, rootFolder string, opts analysis.Options) (Run, error) {
	run := Run{
		ID:              uuid.NewString(),
		RootFolder:      rootFolder,
		ConfidenceLevel: opts.ConfidenceLevel,
		BestFitDegree:   opts.BestFitDegree,
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, root_folder, confidence_level, best_fit_degree, created_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.RootFolder, run.ConfidenceLevel, run.BestFitDegree, run.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// SaveGroupAnalysis stores every strategy summary of res under runID.
func (s *Store) SaveGroupAnalysis(ctx context.Context, runID string, res *analysis.GroupAnalysis) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, g := range res.Groups {
		sm, iv := g.Summary, g.Interval
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO group_summaries
				(run_id, metric, strategy, count, mean, std_dev, min, q1, median, q3, max, ci_margin, ci_lower, ci_upper)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, res.Metric.String(), g.Strategy.String(),
			sm.Count, sm.Mean, sm.StdDev, sm.Min, sm.Q1, sm.Median, sm.Q3, sm.Max,
			iv.Margin, iv.Lower, iv.Upper,
		)
		if err != nil {
			return fmt.Errorf("failed to insert %s summary for %s: %w", res.Metric, g.Strategy, err)
		}
	}
	return tx.Commit()
}

// SaveScatter stores a scatter's summary and fit coefficients under runID.
func (s *Store) SaveScatter(ctx context.Context, runID string, res *analysis.ScatterAnalysis) error {
	var mean, std, lo, med, hi sql.NullFloat64
	if len(res.Y) > 0 {
		sm := res.Summary
		mean = sql.NullFloat64{Float64: sm.Mean, Valid: true}
		std = sql.NullFloat64{Float64: sm.StdDev, Valid: true}
		lo = sql.NullFloat64{Float64: sm.Min, Valid: true}
		med = sql.NullFloat64{Float64: sm.Median, Valid: true}
		hi = sql.NullFloat64{Float64: sm.Max, Valid: true}
	}
	var degree sql.NullInt64
	var coeffs sql.NullString
	if res.Fit != nil {
		raw, err := json.Marshal(res.Fit.Coeffs)
		if err != nil {
			return fmt.Errorf("failed to encode fit coefficients: %w", err)
		}
		degree = sql.NullInt64{Int64: int64(res.Fit.Degree), Valid: true}
		coeffs = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO scatter_fits
			(run_id, metric, strategy, axis, points, mean, std_dev, min, median, max, fit_degree, fit_coeffs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Metric.String(), res.Strategy.String(), res.Axis.String(), len(res.X),
		mean, std, lo, med, hi, degree, coeffs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s scatter for %s: %w", res.Metric, res.Strategy, err)
	}
	return nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, root_folder, confidence_level, best_fit_degree, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdMs int64
		if err := rows.Scan(&r.ID, &r.RootFolder, &r.ConfidenceLevel, &r.BestFitDegree, &createdMs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.CreatedAt = time.UnixMilli(createdMs).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Summaries returns the stored strategy summaries of a run, ordered by
// metric then strategy.
func (s *Store) Summaries(ctx context.Context, runID string) ([]GroupRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT metric, strategy, count, mean, std_dev, min, q1, median, q3, max, ci_margin, ci_lower, ci_upper
		FROM group_summaries WHERE run_id = ? ORDER BY metric, strategy`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []GroupRow
	for rows.Next() {
		var g GroupRow
		sm := &g.Summary
		if err := rows.Scan(&g.Metric, &g.Strategy, &sm.Count, &sm.Mean, &sm.StdDev, &sm.Min, &sm.Q1,
			&sm.Median, &sm.Q3, &sm.Max, &g.Margin, &g.Lower, &g.Upper); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Scatters returns the stored scatters of a run.
func (s *Store) Scatters(ctx context.Context, runID string) ([]ScatterRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT metric, strategy, axis, points, mean, std_dev, min, median, max, fit_degree, fit_coeffs
		FROM scatter_fits WHERE run_id = ? ORDER BY axis, metric, strategy`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scatters: %w", err)
	}
	defer rows.Close()

	var out []ScatterRow
	for rows.Next() {
		var r ScatterRow
		var coeffs sql.NullString
		if err := rows.Scan(&r.Metric, &r.Strategy, &r.Axis, &r.Points, &r.Mean, &r.StdDev, &r.Min,
			&r.Median, &r.Max, &r.Degree, &coeffs); err != nil {
			return nil, fmt.Errorf("failed to scan scatter: %w", err)
		}
		if coeffs.Valid {
			if err := json.Unmarshal([]byte(coeffs.String), &r.Coeffs); err != nil {
				return nil, fmt.Errorf("failed to decode fit coefficients: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
