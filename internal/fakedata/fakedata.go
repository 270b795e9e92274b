// Package fakedata writes a synthetic experiment tree in the on-disk layout
// produced by the simulation runner. Centralized runs finish earlier and
// stay in a tighter formation than decentralized ones.
package fakedata

import (
	"bufio"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/user/swarm_analytics_go/internal/experiment"
)

// Options control the generated tree.
type Options struct {
	Seed       uint64
	Layout     experiment.Layout
	Strategies []experiment.Strategy
	MinCount   int // angleFixed sweep
	MaxCount   int
	MinAngle   int // countFixed sweep
	MaxAngle   int
	MidCount   int
	MidAngle   float64
	Timesteps  int
}

// DefaultOptions sweeps 1..20 drones at 40 degrees and 30..50 degrees with
// 10 drones.
func DefaultOptions() Options {
	return Options{
		Seed:       1,
		Layout:     experiment.DefaultLayout(),
		Strategies: experiment.Strategies,
		MinCount:   1,
		MaxCount:   20,
		MinAngle:   30,
		MaxAngle:   50,
		MidCount:   10,
		MidAngle:   40,
		Timesteps:  10,
	}
}

// Result reports what Generate wrote.
type Result struct {
	Files int
}

type generator struct {
	opts Options
	rng  *rand.Rand
	root string
}

// Generate writes makespan and spatial logs for every strategy and folder
// type beneath root. The same seed always yields the same tree.
func Generate(root string, opts Options) (Result, error) {
	if opts.MinCount < 1 || opts.MaxCount < opts.MinCount {
		return Result{}, fmt.Errorf("invalid drone count range %d..%d", opts.MinCount, opts.MaxCount)
	}
	if opts.MaxAngle < opts.MinAngle {
		return Result{}, fmt.Errorf("invalid angle range %d..%d", opts.MinAngle, opts.MaxAngle)
	}
	if opts.MidCount < 1 || opts.Timesteps < 1 {
		return Result{}, fmt.Errorf("mid count and timesteps must be positive")
	}

	g := &generator{
		opts: opts,
		rng:  rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
		root: root,
	}

	var res Result
	for _, s := range opts.Strategies {
		for _, f := range []experiment.FolderType{experiment.AngleFixed, experiment.CountFixed, experiment.BothFixed} {
			n, err := g.writeFolder(s, f)
			if err != nil {
				return res, err
			}
			res.Files += n
		}
	}
	return res, nil
}

// run is one simulated configuration.
type run struct {
	name  string
	count int
	angle float64
}

func (g *generator) runs(f experiment.FolderType) []run {
	var out []run
	switch f {
	case experiment.AngleFixed:
		for c := g.opts.MinCount; c <= g.opts.MaxCount; c++ {
			out = append(out, run{name: fmt.Sprintf("count%d", c), count: c, angle: g.opts.MidAngle})
		}
	case experiment.CountFixed:
		for a := g.opts.MinAngle; a <= g.opts.MaxAngle; a++ {
			out = append(out, run{name: fmt.Sprintf("angle%d", a), count: g.opts.MidCount, angle: float64(a)})
		}
	case experiment.BothFixed:
		out = append(out, run{name: "fixed", count: g.opts.MidCount, angle: g.opts.MidAngle})
	}
	return out
}

func (g *generator) writeFolder(s experiment.Strategy, f experiment.FolderType) (int, error) {
	layout := g.opts.Layout
	eventDir := filepath.Join(g.root, filepath.FromSlash(layout.EventDir(s, f)))
	posDir := filepath.Join(g.root, filepath.FromSlash(layout.PositionDir(s, f)))
	for _, dir := range []string{eventDir, posDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	files := 0
	for _, r := range g.runs(f) {
		name := r.name + layout.Ext
		if err := writeLines(filepath.Join(eventDir, name), g.eventLines(s, r)); err != nil {
			return files, err
		}
		if err := writeLines(filepath.Join(posDir, name), g.positionLines(s, r)); err != nil {
			return files, err
		}
		files += 2
	}
	return files, nil
}

func (g *generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func label(s experiment.Strategy) string {
	return s.String() + "Weighted"
}

func formatAngle(a float64) string {
	return strconv.FormatFloat(a, 'f', 1, 64)
}

// eventLines emits one line per drone:
// label,count,angle,droneId,seq,entry,exit. Decentralized exits always
// come after every centralized exit of the same drone count.
func (g *generator) eventLines(s experiment.Strategy, r run) []string {
	penalty := 0.0
	if s == experiment.Decentralized {
		penalty = 3000
	}
	lines := make([]string, 0, r.count)
	for d := 0; d < r.count; d++ {
		entry := int(1000 + g.uniform(-100, 100))
		exit := int(g.uniform(10000, 12000) + penalty + 50*float64(r.count))
		lines = append(lines, fmt.Sprintf("%s,%d,%s,100%d,%d,%d,%d",
			label(s), r.count, formatAngle(r.angle), d+1, d, entry, exit))
	}
	return lines
}

// positionLines emits one line per drone per timestep with the swarm spread
// in a fan of the run's angle. Decentralized swarms drift and disperse.
func (g *generator) positionLines(s experiment.Strategy, r run) []string {
	angleRad := r.angle * math.Pi / 180
	lines := make([]string, 0, r.count*g.opts.Timesteps)
	for t := 0; t < g.opts.Timesteps; t++ {
		for d := 0; d < r.count; d++ {
			theta := 0.0
			if r.count > 1 {
				theta = -angleRad/2 + angleRad*float64(d)/float64(r.count-1)
			}
			radius := 1.0 + 0.1*float64(t)
			offset := 0.0
			if s == experiment.Decentralized {
				radius += 0.2 * float64(d)
				offset = 0.2
			}
			x := radius*math.Cos(theta) + offset + g.uniform(-0.05, 0.05)
			y := radius*math.Sin(theta) + offset + g.uniform(-0.05, 0.05)
			lines = append(lines, fmt.Sprintf("%s,%d,%s,100%d,%d,%.2f,%.2f",
				label(s), r.count, formatAngle(r.angle), d+1, t, x, y))
		}
	}
	return lines
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.WriteString(l)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
