// Package server provides the HTTP server and routing for KrishiSetu.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/config"
	"github.com/krishisetu/krishisetu/internal/database"
	alerthandlers "github.com/krishisetu/krishisetu/internal/modules/alerts/handlers"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	authhandlers "github.com/krishisetu/krishisetu/internal/modules/auth/handlers"
	farmerhandlers "github.com/krishisetu/krishisetu/internal/modules/farmers/handlers"
	mandihandlers "github.com/krishisetu/krishisetu/internal/modules/mandis/handlers"
	markethandlers "github.com/krishisetu/krishisetu/internal/modules/market/handlers"
	retailerhandlers "github.com/krishisetu/krishisetu/internal/modules/retailers/handlers"
	settingshandlers "github.com/krishisetu/krishisetu/internal/modules/settings/handlers"
)

// Config holds everything the server mounts.
type Config struct {
	Log zerolog.Logger
	Cfg *config.Config
	DB  *database.DB

	Auth             *auth.Service
	AuthHandlers     *authhandlers.Handlers
	MarketHandlers   *markethandlers.Handlers
	FarmerHandlers   *farmerhandlers.Handlers
	MandiHandlers    *mandihandlers.Handlers
	RetailerHandlers *retailerhandlers.Handlers
	AlertHandlers    *alerthandlers.Handlers
	SettingsHandlers *settingshandlers.Handler
}

// Server is the HTTP front of the marketplace.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	deps           Config
	systemHandlers *SystemHandlers
}

// New creates the HTTP server with all routes mounted.
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Cfg,
		deps:           cfg,
		systemHandlers: NewSystemHandlers(cfg.Log, cfg.DB),
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs records the registered background job names for the status page.
func (s *Server) SetJobs(names []string) {
	s.systemHandlers.SetJobs(names)
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check outside /api for load balancers
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.systemHandlers.HandleHealth)

		// Auth routes are flat under /api: /register, /login, /logout, /me
		s.deps.AuthHandlers.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(s.deps.Auth.RequireAuth)
			s.deps.AuthHandlers.RegisterProtectedRoutes(r)
		})

		// Simulated market data is public
		s.deps.MarketHandlers.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(s.deps.Auth.RequireAuth)

			// Alerts are available to every signed-in role
			s.deps.AlertHandlers.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleFarmer))
				s.deps.FarmerHandlers.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleMandiOwner))
				s.deps.MandiHandlers.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleRetailer))
				s.deps.RetailerHandlers.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				s.deps.SettingsHandlers.RegisterRoutes(r)

				r.Route("/system", func(r chi.Router) {
					r.Get("/status", s.systemHandlers.HandleSystemStatus)
					r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
				})
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the mux, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
