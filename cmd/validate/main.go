package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"seatekcli/internal/config"
	"seatekcli/internal/infrastructure"
	"seatekcli/internal/loader"
	"seatekcli/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seatek-validate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	inDir := flag.String("in", "", "base data directory override")
	asJSON := flag.Bool("json", false, "emit the report as JSON")
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

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	validator := validation.New(loader.NewLoader(logger), logger)
	report, err := validator.ValidateDataset(cfg.SummaryFile(), cfg.RawDataDir())
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printReport(report)
	}

	if !report.Valid {
		return fmt.Errorf("dataset failed validation")
	}
	return nil
}

func printReport(report validation.Report) {
	for _, result := range report.Results {
		verdict := "ok"
		if !result.Valid {
			verdict = "FAIL"
		}
		name := result.File
		if name == "" {
			name = "RM_" + result.Location
		}
		fmt.Printf("%-6s %s", verdict, name)
		if result.Rows > 0 {
			fmt.Printf(" (%d rows)", result.Rows)
		}
		fmt.Println()
		for _, msg := range result.Errors {
			fmt.Printf("       %s\n", msg)
		}
	}
	for _, orphan := range report.Orphans {
		fmt.Printf("warn   %s has no summary entry\n", orphan)
	}
}
