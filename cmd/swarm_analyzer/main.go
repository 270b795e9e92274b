package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"github.com/user/swarm_analytics_go/internal/config"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON configuration file")
	root := flag.String("root", "", "Experiment root folder (overrides config)")
	outDir := flag.String("out", "", "Output directory for plots and reports (overrides config)")
	dbPath := flag.String("db", "", "SQLite database for run history (overrides config)")
	listRunsFlag := flag.Bool("runs", false, "List stored runs and exit")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx := context.Background()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(ctx, logger, "Failed to load configuration.", err)
	}
	if *root != "" {
		cfg.RootFolder = *root
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	if *listRunsFlag {
		if cfg.DatabasePath == "" {
			logger.ErrorContext(ctx, "No database configured; pass -db or set SWARM_DB.")
			os.Exit(2)
		}
		if err := listRuns(ctx, cfg.DatabasePath, logger, os.Stdout); err != nil {
			fatal(ctx, logger, "Failed to list runs.", err)
		}
		return
	}

	app, err := NewApp(ctx, cfg, logger, os.Stdout)
	if err != nil {
		fatal(ctx, logger, "Failed to start analyzer.", err)
	}
	if _, err := app.Run(); err != nil {
		fatal(ctx, logger, "Analysis failed.", err)
	}
}

// loadConfig layers defaults, the optional JSON file and SWARM_* variables.
func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fatal(ctx context.Context, logger *slog.Logger, msg string, err error) {
	err = xerrors.New(err)
	logger.ErrorContext(ctx, msg, slog.Any("error", err))
	os.Exit(1)
}
