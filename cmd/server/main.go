// Package main is the entry point for Folio, a multi-user portfolio tracker.
//
// Startup order:
//  1. Load configuration from the environment (.env supported)
//  2. Initialize logging
//  3. Wire dependencies (databases, market data, services, jobs)
//  4. Warm the quote cache, start the scheduler and the HTTP server
//  5. Wait for a shutdown signal, then stop in reverse order
//
// Two SQLite databases live in the data directory:
//   - ledger.db: transactions, holding snapshots, income records and goals
//   - client_data.db: market data cache that can be rebuilt at any time
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/di"
	"github.com/aristath/folio/internal/server"
	"github.com/aristath/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Folio")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, jobs, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// A cold cache only slows the first requests down
	go func() {
		if err := container.Scheduler.RunNow(jobs.QuoteWarmup); err != nil {
			log.Warn().Err(err).Msg("Initial quote warmup failed")
		}
	}()

	container.Scheduler.Start()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Jobs:      jobs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for running jobs so databases are not closed under them
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
