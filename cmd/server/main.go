// Package main is the entry point for the KrishiSetu marketplace backend.
// It serves the REST and WebSocket API for farmers, mandi owners and
// retailers, and runs the scheduled advisory, alerting and maintenance jobs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/di"
	"github.com/krishisetu/krishisetu/internal/server"
	"github.com/krishisetu/krishisetu/pkg/logger"
)

// main orchestrates the startup sequence:
// 1. Load configuration from environment variables and .env
// 2. Initialize logging
// 3. Wire dependencies (database, repositories, services, jobs)
// 4. Update configuration from the settings database
// 5. Start the HTTP server and the job scheduler
// 6. Wait for a shutdown signal and stop everything gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger so the configuration error is still reported.
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting KrishiSetu")

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.DB.Close()

	// Settings stored in the database take precedence over environment
	// variables, so credentials rotated at runtime survive restarts.
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		log.Warn().Err(err).Msg("Failed to update config from settings, using environment values")
	}

	srv := server.New(server.Config{
		Log:              log,
		Cfg:              cfg,
		DB:               container.DB,
		Auth:             container.AuthService,
		AuthHandlers:     container.AuthHandlers,
		MarketHandlers:   container.MarketHandlers,
		FarmerHandlers:   container.FarmerHandlers,
		MandiHandlers:    container.MandiHandlers,
		RetailerHandlers: container.RetailerHandlers,
		AlertHandlers:    container.AlertHandlers,
		SettingsHandlers: container.SettingsHandlers,
	})
	srv.SetJobs(container.Scheduler.Jobs())

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started")

	container.Scheduler.Start()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	container.Scheduler.Stop()

	// In-flight requests get up to 30 seconds to finish.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
