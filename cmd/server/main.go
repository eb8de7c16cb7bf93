// Command server loads the enrollment datasets, runs the analytics batch,
// and serves the results over HTTP. Business logic lives in the internal
// packages; main only wires dependencies and the server lifecycle.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"niis/internal/httpapi"
	"niis/internal/ingest"
	"niis/internal/pipeline"
	"niis/internal/platform/config"
	"niis/internal/platform/httpserver"
	"niis/internal/platform/logger"
	"niis/internal/platform/metrics"
	"niis/internal/series"
	"niis/internal/snapshot"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	m := metrics.New()

	ctx := context.Background()

	loader := ingest.NewLoader(cfg.DataDir, log)
	rows, err := loader.Load()
	if err != nil {
		log.Error("failed to load datasets", "error", err)
		os.Exit(1)
	}
	allSeries := series.Build(rows)

	engine, err := pipeline.New(
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
		pipeline.WithWorkers(cfg.Workers),
	)
	if err != nil {
		log.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	batch, err := engine.Run(ctx, allSeries)
	if err != nil {
		log.Error("batch failed", "error", err)
		os.Exit(1)
	}

	store := snapshot.NewInMemory()
	snap := snapshot.New(batch)
	if err := store.Put(ctx, snap); err != nil {
		log.Error("failed to store snapshot", "error", err)
		os.Exit(1)
	}
	log.Info("snapshot ready",
		"run_id", snap.RunID,
		"districts", len(batch.Results),
		"skipped", len(batch.Skipped))

	if cfg.DatabaseURL != "" {
		recordRunHistory(ctx, cfg.DatabaseURL, snap, log)
	}

	handler := httpapi.NewHandler(store, log, cfg.TopRankings)
	router := httpapi.NewRouter(handler, m)
	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting niis server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// recordRunHistory is best-effort: a failed write is logged and serving
// continues from memory.
func recordRunHistory(ctx context.Context, url string, snap *snapshot.Snapshot, log *slog.Logger) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Error("run history disabled: failed to connect", "error", err)
		return
	}
	defer pool.Close()

	pg := snapshot.NewPostgres(pool)
	if err := pg.InitSchema(ctx); err != nil {
		log.Error("run history disabled: failed to init schema", "error", err)
		return
	}
	if err := pg.Record(ctx, snap); err != nil {
		log.Error("failed to record run history", "error", err)
		return
	}
	log.Info("run history recorded", "run_id", snap.RunID)
}
