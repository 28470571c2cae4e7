package di

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/clients/groq"
	"github.com/krishisetu/krishisetu/internal/clients/tavily"
	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	alerthandlers "github.com/krishisetu/krishisetu/internal/modules/alerts/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	authhandlers "github.com/krishisetu/krishisetu/internal/modules/auth/handlers"
	farmerhandlers "github.com/krishisetu/krishisetu/internal/modules/farmers/handlers"
	mandihandlers "github.com/krishisetu/krishisetu/internal/modules/mandis/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/market"
	markethandlers "github.com/krishisetu/krishisetu/internal/modules/market/handlers"
	retailerhandlers "github.com/krishisetu/krishisetu/internal/modules/retailers/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/settings"
	settingshandlers "github.com/krishisetu/krishisetu/internal/modules/settings/handlers"
	"github.com/krishisetu/krishisetu/internal/services/backup"
)

// InitializeServices creates services, external clients and HTTP handlers.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.SettingsRepo == nil {
		return fmt.Errorf("container with repositories required")
	}

	// API keys given via environment are seeded into the settings database
	// on first start. After that the database is authoritative; keys are
	// rotated through the settings endpoints.
	seedSettingsFromEnv(container.SettingsRepo, cfg, log)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	container.AuthService = auth.NewService(container.AuthRepo, sessionTTL, log)
	container.MarketService = market.NewService(log)

	container.GroqClient = groq.NewClient(container.SettingsRepo, log)
	container.GroqClient.SetModel(cfg.GroqModel)
	container.TavilyClient = tavily.NewClient(container.SettingsRepo, log)

	container.AdvisoryService = advisory.NewService(container.GroqClient, container.TavilyClient, log)
	container.AlertsService = alerts.NewService(container.AlertsRepo, log)

	if cfg.Backup.Bucket != "" {
		store, err := backup.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			return fmt.Errorf("failed to create backup store: %w", err)
		}
		container.BackupService = backup.NewService(store, container.DB, cfg.Backup.Prefix, cfg.Backup.RetentionDays, log)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Database backups enabled")
	}

	container.AuthHandlers = authhandlers.NewHandlers(
		container.AuthService,
		container.FarmersRepo,
		container.MandisRepo,
		container.RetailersRepo,
		log,
	)
	container.MarketHandlers = markethandlers.NewHandlers(container.MarketService, log)
	container.FarmerHandlers = farmerhandlers.NewHandlers(
		container.FarmersRepo,
		container.MandisRepo,
		container.MarketService,
		container.AdvisoryService,
		container.AlertsService,
		container.SnapshotRepo,
		log,
	)
	container.MandiHandlers = mandihandlers.NewHandlers(container.MandisRepo, log)
	container.RetailerHandlers = retailerhandlers.NewHandlers(container.RetailersRepo, log)
	container.AlertHandlers = alerthandlers.NewHandlers(container.AlertsService, log)

	container.SettingsHandlers = settingshandlers.NewHandler(container.SettingsRepo, log)
	container.SettingsHandlers.AddCredentialRefresher(container.GroqClient)
	container.SettingsHandlers.AddCredentialRefresher(container.TavilyClient)

	return nil
}

// seedSettingsFromEnv writes environment-provided API keys into the settings
// database when no value is stored yet.
func seedSettingsFromEnv(repo *settings.Repository, cfg *config.Config, log zerolog.Logger) {
	seed := func(key, envValue string) {
		if envValue == "" {
			return
		}
		stored, err := repo.Get(key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read setting")
			return
		}
		if stored != nil && *stored != "" {
			return
		}
		if err := repo.Set(key, envValue); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to seed setting from environment")
			return
		}
		log.Info().Str("key", key).Msg("Seeded setting from environment")
	}

	seed(settings.KeyGroqAPIKey, cfg.GroqAPIKey)
	seed(settings.KeyTavilyAPIKey, cfg.TavilyAPIKey)
}
