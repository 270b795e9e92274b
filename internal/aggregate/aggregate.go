// Package aggregate folds per-file extraction results across every log in
// a folder, either as one (key, value) observation per file or as a single
// pooled sample list.
package aggregate

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/user/swarm_analytics_go/internal/experiment"
	"github.com/user/swarm_analytics_go/internal/extract"
	"github.com/user/swarm_analytics_go/internal/parser"
)

// DefaultWorkers bounds concurrent file analyses when Workers is unset.
const DefaultWorkers = 4

// Observation is one file's extracted value against its grouping key.
type Observation struct {
	File  string
	Key   float64
	Value float64
}

// Skip records a file left out of an aggregation and why.
type Skip struct {
	File   string
	Reason string
}

// ScatterResult is the per-file output mode.
type ScatterResult struct {
	Observations []Observation // ordered by file name
	Skipped      []Skip
	Missing      bool // the folder does not exist
}

// SampleResult is the pooled output mode.
type SampleResult struct {
	Samples []float64 // file samples concatenated in file-name order
	Files   int       // files that contributed
	Skipped []Skip
	Missing bool
}

// SampleGroups pools samples per strategy.
type SampleGroups map[experiment.Strategy][]float64

// Aggregator scans folders of an experiment tree.
type Aggregator struct {
	FS      fs.FS
	Ext     string
	Workers int
	Logger  *slog.Logger
}

// New returns an Aggregator over fsys reading files with extension ext.
func New(fsys fs.FS, ext string, workers int, logger *slog.Logger) *Aggregator {
	return &Aggregator{FS: fsys, Ext: ext, Workers: workers, Logger: logger}
}

func (a *Aggregator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return a.Logger
}

// listFiles returns the sorted paths of dir's regular files with the
// configured extension. missing is true when dir does not exist or cannot
// be read; reason is set in the latter case.
func (a *Aggregator) listFiles(dir string) (files []string, missing bool, reason string) {
	entries, err := fs.ReadDir(a.FS, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, true, ""
		}
		return nil, true, fmt.Sprintf("failed to read folder: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), a.Ext) {
			continue
		}
		files = append(files, path.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, false, ""
}

// missingFolder logs a folder that yields no files and returns its skip
// entries.
func (a *Aggregator) missingFolder(dir, reason string) []Skip {
	if reason == "" {
		a.logger().Debug("folder missing", "dir", dir)
		return nil
	}
	a.logger().Warn("folder unreadable", "dir", dir, "reason", reason)
	return []Skip{{File: dir, Reason: reason}}
}

// fileResult is one file's outcome, written by exactly one worker.
type fileResult struct {
	key     float64
	value   float64
	samples []float64
	skip    string
}

// each runs fn over files with bounded concurrency. Results are indexed by
// position so the merged output does not depend on completion order.
func (a *Aggregator) each(files []string, fn func(name string) fileResult) []fileResult {
	results := make([]fileResult, len(files))
	workers := a.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, name := range files {
		g.Go(func() error {
			results[i] = fn(name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Aggregator) withFile(name string, fn func(r io.Reader) error) error {
	f, err := a.FS.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	return fn(f)
}

// Scatter extracts one value per file in dir, keyed by axis. Only an
// unknown axis is an error.
func (a *Aggregator) Scatter(dir string, axis parser.Axis, ex extract.Extractor) (*ScatterResult, error) {
	if axis != parser.AxisDroneCount && axis != parser.AxisAngle {
		return nil, fmt.Errorf("unknown axis: %d", axis)
	}
	files, missing, reason := a.listFiles(dir)
	out := &ScatterResult{Missing: missing}
	if missing {
		out.Skipped = a.missingFolder(dir, reason)
		return out, nil
	}

	results := a.each(files, func(name string) fileResult {
		var key float64
		var found bool
		err := a.withFile(name, func(r io.Reader) error {
			var err error
			key, found, err = ex.Key(r, axis)
			return err
		})
		if err != nil {
			return fileResult{skip: err.Error()}
		}
		if !found {
			return fileResult{skip: fmt.Sprintf("no %s key", axis)}
		}

		var value float64
		var ok bool
		err = a.withFile(name, func(r io.Reader) error {
			var err error
			value, ok, err = ex.Value(r)
			return err
		})
		if err != nil {
			return fileResult{skip: err.Error()}
		}
		if !ok {
			return fileResult{skip: fmt.Sprintf("%s undefined", ex.Metric)}
		}
		return fileResult{key: key, value: value}
	})

	for i, r := range results {
		if r.skip != "" {
			out.Skipped = append(out.Skipped, Skip{File: files[i], Reason: r.skip})
			a.logger().Debug("skipping file", "file", files[i], "reason", r.skip)
			continue
		}
		out.Observations = append(out.Observations, Observation{File: files[i], Key: r.key, Value: r.value})
	}
	return out, nil
}

// Samples pools the sample list of every file in dir.
func (a *Aggregator) Samples(dir string, ex extract.Extractor) *SampleResult {
	files, missing, reason := a.listFiles(dir)
	out := &SampleResult{Missing: missing}
	if missing {
		out.Skipped = a.missingFolder(dir, reason)
		return out
	}

	results := a.each(files, func(name string) fileResult {
		var samples []float64
		err := a.withFile(name, func(r io.Reader) error {
			var err error
			samples, err = ex.Samples(r)
			return err
		})
		if err != nil {
			return fileResult{skip: err.Error()}
		}
		return fileResult{samples: samples}
	})

	out.Samples = make([]float64, 0)
	for i, r := range results {
		if r.skip != "" {
			out.Skipped = append(out.Skipped, Skip{File: files[i], Reason: r.skip})
			a.logger().Debug("skipping file", "file", files[i], "reason", r.skip)
			continue
		}
		out.Files++
		out.Samples = append(out.Samples, r.samples...)
	}
	return out
}

// CollectGroups pools samples for every strategy whose folder can be read.
// dirFor maps a strategy to its folder.
func (a *Aggregator) CollectGroups(dirFor func(experiment.Strategy) string, ex extract.Extractor) SampleGroups {
	groups := make(SampleGroups)
	for _, s := range experiment.Strategies {
		res := a.Samples(dirFor(s), ex)
		if res.Missing {
			continue
		}
		groups[s] = res.Samples
	}
	return groups
}
