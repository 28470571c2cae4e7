// Package handlers exposes registration, login and session endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	"github.com/krishisetu/krishisetu/internal/modules/mandis"
	"github.com/krishisetu/krishisetu/internal/modules/retailers"
)

// Handlers serves the auth endpoints. Registration also creates the
// role-specific profile row, so the three profile repositories are wired in.
type Handlers struct {
	svc       *auth.Service
	farmers   *farmers.Repository
	mandis    *mandis.Repository
	retailers *retailers.Repository
	log       zerolog.Logger
}

// NewHandlers creates auth handlers.
func NewHandlers(svc *auth.Service, f *farmers.Repository, m *mandis.Repository, rt *retailers.Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc:       svc,
		farmers:   f,
		mandis:    m,
		retailers: rt,
		log:       log.With().Str("handler", "auth").Logger(),
	}
}

// RegisterPublicRoutes mounts the unauthenticated endpoints.
func (h *Handlers) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
}

// RegisterProtectedRoutes mounts the endpoints that need a valid session.
func (h *Handlers) RegisterProtectedRoutes(r chi.Router) {
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string  `json:"username"`
		Password  string  `json:"password"`
		Role      string  `json:"role"`
		Contact   string  `json:"contact"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Language  string  `json:"language"`
		MandiName string  `json:"mandi_name"`
		ShopName  string  `json:"shop_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.svc.Register(req.Username, req.Password, req.Role, req.Contact, req.Latitude, req.Longitude)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			h.writeError(w, http.StatusConflict, "Username already taken")
		case errors.Is(err, auth.ErrInvalidRole):
			h.writeError(w, http.StatusBadRequest, "Invalid role")
		default:
			h.writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if err := h.createProfile(user.ID, req.Role, req.Language, req.MandiName, req.ShopName); err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Str("role", req.Role).Msg("Failed to create role profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *Handlers) createProfile(userID int64, role, language, mandiName, shopName string) error {
	switch role {
	case auth.RoleFarmer:
		if language == "" {
			language = "en"
		}
		return h.farmers.CreateProfile(userID, language)
	case auth.RoleMandiOwner:
		return h.mandis.CreateProfile(userID, mandiName)
	case auth.RoleRetailer:
		return h.retailers.CreateProfile(userID, shopName)
	}
	return nil // admins have no profile row
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, user, err := h.svc.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.log.Error().Err(err).Msg("Login failed")
		h.writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": session.Token,
		"token_type":   "bearer",
		"user_id":      user.ID,
		"role":         user.Role,
	})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := tokenFromRequest(r)
	if err := h.svc.Logout(token); err != nil {
		h.log.Error().Err(err).Msg("Logout failed")
		h.writeError(w, http.StatusInternalServerError, "Logout failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	h.writeJSON(w, http.StatusOK, user)
}

func tokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 {
		return header[7:]
	}
	return ""
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
