package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/mdobak/go-xerrors"

	"github.com/user/swarm_analytics_go/internal/fakedata"
)

func main() {
	opts := fakedata.DefaultOptions()
	root := flag.String("root", "sampleOutput/root", "Folder to write the synthetic experiment tree into")
	seed := flag.Uint64("seed", opts.Seed, "Random seed")
	flag.IntVar(&opts.MinCount, "min-count", opts.MinCount, "Smallest drone count of the angle-fixed sweep")
	flag.IntVar(&opts.MaxCount, "max-count", opts.MaxCount, "Largest drone count of the angle-fixed sweep")
	flag.IntVar(&opts.MinAngle, "min-angle", opts.MinAngle, "Smallest angle of the count-fixed sweep")
	flag.IntVar(&opts.MaxAngle, "max-angle", opts.MaxAngle, "Largest angle of the count-fixed sweep")
	flag.IntVar(&opts.Timesteps, "timesteps", opts.Timesteps, "Spatial snapshots per run")
	flag.Parse()
	opts.Seed = *seed

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := context.Background()

	res, err := fakedata.Generate(*root, opts)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "Failed to generate fake data.", slog.Any("error", err))
		os.Exit(1)
	}
	logger.InfoContext(ctx, "fake data written", slog.String("root", *root), slog.Int("files", res.Files))
}
