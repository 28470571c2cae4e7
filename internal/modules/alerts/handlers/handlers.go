// Package handlers exposes alert listing, acknowledgement and the live
// WebSocket stream.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
)

// Handlers serves the alert endpoints.
type Handlers struct {
	svc *alerts.Service
	log zerolog.Logger
}

// NewHandlers creates alert handlers.
func NewHandlers(svc *alerts.Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc: svc,
		log: log.With().Str("handler", "alerts").Logger(),
	}
}

// RegisterRoutes mounts the alert endpoints. The caller wraps them in
// RequireAuth; every role sees its own alerts.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Put("/{id}/seen", h.handleMarkSeen)
		r.Put("/seen-all", h.handleMarkAllSeen)
		r.Get("/stream", h.handleStream)
	})
}

func (h *Handlers) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	unseenOnly := r.URL.Query().Get("unseen") == "true"
	list, err := h.svc.List(user.ID, unseenOnly)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to list alerts")
		h.writeError(w, http.StatusInternalServerError, "Failed to list alerts")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": list,
		"count":  len(list),
	})
}

func (h *Handlers) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid alert id")
		return
	}

	matched, err := h.svc.MarkSeen(id, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("alert_id", id).Msg("Failed to mark alert seen")
		h.writeError(w, http.StatusInternalServerError, "Failed to mark alert seen")
		return
	}
	if !matched {
		h.writeError(w, http.StatusNotFound, "Alert not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "seen"})
}

func (h *Handlers) handleMarkAllSeen(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	n, err := h.svc.MarkAllSeen(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to mark alerts seen")
		h.writeError(w, http.StatusInternalServerError, "Failed to mark alerts seen")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "seen",
		"count":  n,
	})
}

// handleStream pushes new alerts for the authenticated user over WebSocket
// until the client disconnects.
func (h *Handlers) handleStream(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream aborted")

	ch, cancel := h.svc.Subscribe(user.ID)
	defer cancel()

	h.log.Debug().Int64("user_id", user.ID).Msg("Alert stream opened")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case alert := <-ch:
			data, err := json.Marshal(alert)
			if err != nil {
				h.log.Error().Err(err).Msg("Failed to marshal alert")
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				status := websocket.CloseStatus(err)
				if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
					h.log.Debug().Int64("user_id", user.ID).Msg("Alert stream closed by client")
				} else if ctx.Err() == nil {
					h.log.Warn().Err(err).Msg("Alert stream write failed")
				}
				return
			}
		}
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
