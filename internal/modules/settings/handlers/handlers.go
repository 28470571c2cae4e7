// Package handlers provides HTTP handlers for runtime settings management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/settings"
)

// CredentialRefresher re-reads API credentials after a settings update so
// long-lived clients pick up new keys without a restart.
type CredentialRefresher interface {
	RefreshCredentials()
}

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	repo       *settings.Repository
	refreshers []CredentialRefresher
	log        zerolog.Logger
}

// NewHandler creates a settings handler.
func NewHandler(repo *settings.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "settings").Logger(),
	}
}

// AddCredentialRefresher registers a client to notify after credential updates.
func (h *Handler) AddCredentialRefresher(r CredentialRefresher) {
	h.refreshers = append(h.refreshers, r)
}

// RegisterRoutes mounts the settings endpoints. The caller is expected to
// wrap them in admin-only middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/{key}", h.HandleUpdate)
		r.Delete("/{key}", h.HandleDelete)
	})
}

// HandleGetAll handles GET /api/settings.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	values, err := h.repo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(values); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode settings response")
	}
}

// HandleUpdate handles PUT /api/settings/{key}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}

	var update struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.Set(key, update.Value); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to update setting")
		http.Error(w, "Failed to update setting", http.StatusInternalServerError)
		return
	}

	if key == settings.KeyGroqAPIKey || key == settings.KeyTavilyAPIKey {
		for _, refresher := range h.refreshers {
			refresher.RefreshCredentials()
		}
		h.log.Info().Str("key", key).Msg("API credentials refreshed after settings update")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "updated", "key": key})
}

// HandleDelete handles DELETE /api/settings/{key}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(key); err != nil {
		h.log.Error().Err(err).Str("key", key).Msg("Failed to delete setting")
		http.Error(w, "Failed to delete setting", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "key": key})
}
