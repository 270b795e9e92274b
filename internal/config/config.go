// Package config holds the tunables of an analysis run. A Config is built
// once by the CLI and passed explicitly to the statistics and report
// packages.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/user/swarm_analytics_go/internal/analysis"
	"github.com/user/swarm_analytics_go/internal/experiment"
)

const maxConfigSize = 1 * 1024 * 1024 // 1MB

// PlotStyle controls chart appearance.
type PlotStyle struct {
	// Colors: [0] scatter points and boxes, [1] best-fit line and medians,
	// [2] whiskers and caps, [3] outliers.
	Colors         []string `json:"colors"`
	FigureWidthIn  float64  `json:"figure_width_in"`
	FigureHeightIn float64  `json:"figure_height_in"`
	BoxWidth       float64  `json:"box_width"`
	FontSize       float64  `json:"font_size"`
	ShowMeans      bool     `json:"show_means"`
	ShowLegend     bool     `json:"show_legend"`
}

// Config is the root configuration.
type Config struct {
	RootFolder  string   `json:"root_folder"`
	MakespanDir string   `json:"makespan_dir"`
	SpatialDir  string   `json:"spatial_dir"`
	Ext         string   `json:"ext"`
	Strategies  []string `json:"strategies"`

	ConfidenceLevel float64 `json:"confidence_level"`
	BestFitDegree   int     `json:"best_fit_degree"`
	Workers         int     `json:"workers"`

	OutputDir    string `json:"output_dir"`
	DatabasePath string `json:"database_path"` // empty disables persistence
	WritePNG     bool   `json:"write_png"`
	WriteHTML    bool   `json:"write_html"`
	WritePDF     bool   `json:"write_pdf"`

	Plot PlotStyle `json:"plot"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	layout := experiment.DefaultLayout()
	return &Config{
		RootFolder:      "sampleOutput/root",
		MakespanDir:     layout.MakespanDir,
		SpatialDir:      layout.SpatialDir,
		Ext:             layout.Ext,
		Strategies:      []string{experiment.Centralized.String(), experiment.Decentralized.String()},
		ConfidenceLevel: 0.95,
		BestFitDegree:   1,
		Workers:         4,
		OutputDir:       "swarm_report",
		DatabasePath:    "",
		WritePNG:        true,
		WriteHTML:       true,
		WritePDF:        true,
		Plot: PlotStyle{
			Colors:         []string{"#6060ff", "#ff2020", "#000000", "#ffff60"},
			FigureWidthIn:  7,
			FigureHeightIn: 6,
			BoxWidth:       0.5,
			FontSize:       12,
			ShowMeans:      true,
			ShowLegend:     true,
		},
	}
}

// Load reads a JSON configuration file. Fields omitted from the file keep
// their default values.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays SWARM_* variables found by lookup, usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SWARM_ROOT"); ok && v != "" {
		c.RootFolder = v
	}
	if v, ok := lookup("SWARM_OUTPUT_DIR"); ok && v != "" {
		c.OutputDir = v
	}
	if v, ok := lookup("SWARM_DB"); ok {
		c.DatabasePath = v
	}
	if v, ok := lookup("SWARM_STRATEGIES"); ok && v != "" {
		c.Strategies = strings.Split(v, ",")
	}
	if v, ok := lookup("SWARM_CONFIDENCE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SWARM_CONFIDENCE: %w", err)
		}
		c.ConfidenceLevel = f
	}
	if v, ok := lookup("SWARM_FIT_DEGREE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SWARM_FIT_DEGREE: %w", err)
		}
		c.BestFitDegree = n
	}
	if v, ok := lookup("SWARM_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SWARM_WORKERS: %w", err)
		}
		c.Workers = n
	}
	return nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if !(c.ConfidenceLevel > 0 && c.ConfidenceLevel < 1) {
		errs = append(errs, fmt.Errorf("confidence_level must be in (0, 1), got %v", c.ConfidenceLevel))
	}
	if c.BestFitDegree < 0 {
		errs = append(errs, fmt.Errorf("best_fit_degree must be >= 0, got %d", c.BestFitDegree))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if c.Ext == "" {
		errs = append(errs, errors.New("ext must not be empty"))
	}
	if _, err := c.StrategyList(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Plot.Palette(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Layout returns the directory layout below RootFolder.
func (c *Config) Layout() experiment.Layout {
	return experiment.Layout{MakespanDir: c.MakespanDir, SpatialDir: c.SpatialDir, Ext: c.Ext}
}

// StrategyList parses the configured strategy names.
func (c *Config) StrategyList() ([]experiment.Strategy, error) {
	if len(c.Strategies) == 0 {
		return nil, errors.New("no strategies configured")
	}
	out := make([]experiment.Strategy, 0, len(c.Strategies))
	for _, name := range c.Strategies {
		s, err := experiment.ParseStrategy(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// AnalysisOptions returns the statistics module's tunables.
func (c *Config) AnalysisOptions() analysis.Options {
	return analysis.Options{ConfidenceLevel: c.ConfidenceLevel, BestFitDegree: c.BestFitDegree}
}

// Palette parses Colors. At least four entries are required.
func (p PlotStyle) Palette() ([]color.Color, error) {
	if len(p.Colors) < 4 {
		return nil, fmt.Errorf("plot.colors needs 4 entries, got %d", len(p.Colors))
	}
	out := make([]color.Color, 0, len(p.Colors))
	for _, hex := range p.Colors {
		c, err := ParseHexColor(hex)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// ParseHexColor parses "#rrggbb".
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
