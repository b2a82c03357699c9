package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"seatekcli/internal/app"
	"seatekcli/internal/config"
	"seatekcli/internal/infrastructure"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seatek-process: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	inDir := flag.String("in", "", "base data directory override")
	outDir := flag.String("out", "", "chart output directory override")
	flag.Parse()

	// Optional .env for local runs; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *inDir != "" {
		cfg.Paths.BaseDir = *inDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := app.New(cfg, logger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("run %s: %d/%d locations, %d charts rendered, %d skipped, %d unit failures, %d series exported in %s\n",
		summary.RunID,
		summary.Locations-summary.LocationFailures, summary.Locations,
		summary.ChartsRendered, summary.ChartsSkipped, summary.UnitFailures,
		summary.SeriesExported,
		summary.Duration.Round(time.Millisecond))

	return nil
}
