// Command batch runs the analytics pipeline once over a data directory and
// writes the full report as JSON, optionally recording the run to Postgres.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"niis/internal/enrollment"
	"niis/internal/ingest"
	"niis/internal/pipeline"
	"niis/internal/platform/logger"
	"niis/internal/series"
	"niis/internal/snapshot"
)

func main() {
	inputDir := flag.String("input", "data", "Directory with DEMOGRAPHIC_*.csv and ENROLLMENT_*.csv")
	topN := flag.Int("top", 10, "Top N highest-risk districts to print")
	jsonOut := flag.String("json", "", "Optional JSON output path for the full batch result")
	workers := flag.Int("workers", 0, "Worker pool size; 0 uses GOMAXPROCS")
	dbURL := flag.String("db", "", "Optional Postgres URL for run-history recording")
	logLevel := flag.String("log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	log := logger.New(*logLevel)
	ctx := context.Background()

	loader := ingest.NewLoader(*inputDir, log)
	rows, err := loader.Load()
	if err != nil {
		exitWithError(err)
	}
	allSeries := series.Build(rows)

	opts := []pipeline.Option{pipeline.WithLogger(log)}
	if *workers > 0 {
		opts = append(opts, pipeline.WithWorkers(*workers))
	}
	engine, err := pipeline.New(opts...)
	if err != nil {
		exitWithError(err)
	}

	batch, err := engine.Run(ctx, allSeries)
	if err != nil {
		exitWithError(err)
	}
	snap := snapshot.New(batch)

	printSummary(snap, *topN, loader.SkippedRows())

	if *jsonOut != "" {
		if err := writeJSONFile(*jsonOut, snap); err != nil {
			exitWithError(err)
		}
		fmt.Printf("report written to %s\n", *jsonOut)
	}

	if *dbURL != "" {
		pool, err := pgxpool.New(ctx, *dbURL)
		if err != nil {
			exitWithError(err)
		}
		defer pool.Close()
		pg := snapshot.NewPostgres(pool)
		if err := pg.InitSchema(ctx); err != nil {
			exitWithError(err)
		}
		if err := pg.Record(ctx, snap); err != nil {
			exitWithError(err)
		}
		fmt.Printf("run %s recorded to database\n", snap.RunID)
	}
}

func printSummary(snap *snapshot.Snapshot, topN, invalidRows int) {
	batch := snap.Batch
	o := batch.Overview

	fmt.Printf("run %s (%s)\n", snap.RunID, snap.ComputedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("districts scored: %d (skipped: %d, invalid input rows: %d)\n",
		len(batch.Results), len(batch.Skipped), invalidRows)
	fmt.Printf("states: %d  enrollment: %d / %d (%.1f%%, coverage gap %.1f%%)\n",
		o.NumStates, o.TotalEnrollments, o.TotalPopulation,
		o.OverallPenetrationRate*100, o.CoverageGap*100)
	fmt.Printf("risk distribution: low=%d medium=%d high=%d\n",
		batch.Distribution[enrollment.RiskLow],
		batch.Distribution[enrollment.RiskMedium],
		batch.Distribution[enrollment.RiskHigh])

	limit := topN
	if limit > len(batch.Rankings) {
		limit = len(batch.Rankings)
	}
	if limit > 0 {
		fmt.Printf("top %d highest-risk districts:\n", limit)
		for i, d := range batch.Rankings[:limit] {
			fmt.Printf("  %2d. %s / %s  score=%.4f (%s)\n",
				i+1, d.State, d.District, d.RiskScore, d.RiskCategory)
		}
	}
}

func writeJSONFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
