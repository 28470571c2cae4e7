// Package di wires the application dependencies.
//
// The Container is the single source of truth for all repository, service
// and handler instances. It is created by Wire() and handed to the server
// and the entry point.
package di

import (
	"github.com/krishisetu/krishisetu/internal/clients/groq"
	"github.com/krishisetu/krishisetu/internal/clients/tavily"
	"github.com/krishisetu/krishisetu/internal/database"
	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	alerthandlers "github.com/krishisetu/krishisetu/internal/modules/alerts/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	authhandlers "github.com/krishisetu/krishisetu/internal/modules/auth/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	farmerhandlers "github.com/krishisetu/krishisetu/internal/modules/farmers/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/mandis"
	mandihandlers "github.com/krishisetu/krishisetu/internal/modules/mandis/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/market"
	markethandlers "github.com/krishisetu/krishisetu/internal/modules/market/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/retailers"
	retailerhandlers "github.com/krishisetu/krishisetu/internal/modules/retailers/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/settings"
	settingshandlers "github.com/krishisetu/krishisetu/internal/modules/settings/handlers"
	"github.com/krishisetu/krishisetu/internal/scheduler"
	"github.com/krishisetu/krishisetu/internal/services/backup"
)

// Container holds all dependencies for the application.
type Container struct {
	// Database
	DB *database.DB

	// External API clients
	GroqClient   *groq.Client
	TavilyClient *tavily.Client

	// Repositories
	AuthRepo      *auth.Repository
	FarmersRepo   *farmers.Repository
	MandisRepo    *mandis.Repository
	RetailersRepo *retailers.Repository
	SettingsRepo  *settings.Repository
	AlertsRepo    *alerts.Repository
	SnapshotRepo  *advisory.SnapshotRepository

	// Services
	AuthService     *auth.Service
	MarketService   *market.Service
	AdvisoryService *advisory.Service
	AlertsService   *alerts.Service
	BackupService   *backup.Service // nil unless S3 backups are configured

	// HTTP handlers
	AuthHandlers     *authhandlers.Handlers
	MarketHandlers   *markethandlers.Handlers
	FarmerHandlers   *farmerhandlers.Handlers
	MandiHandlers    *mandihandlers.Handlers
	RetailerHandlers *retailerhandlers.Handlers
	AlertHandlers    *alerthandlers.Handlers
	SettingsHandlers *settingshandlers.Handler

	// Background jobs
	Scheduler *scheduler.Scheduler
}
