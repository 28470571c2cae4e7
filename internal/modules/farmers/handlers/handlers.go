// Package handlers exposes the farmer endpoints: profile, crops, ranked
// mandis, the analysis pipeline, voice commands and incoming orders.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/farmers"
	"github.com/krishisetu/krishisetu/internal/modules/mandis"
	"github.com/krishisetu/krishisetu/internal/modules/market"
)

// maxMandisInResponse caps the ranked list in analysis responses.
const maxMandisInResponse = 5

// Handlers serves the farmer endpoints.
type Handlers struct {
	repo      *farmers.Repository
	orders    *mandis.Repository
	market    *market.Service
	advisory  *advisory.Service
	alerts    *alerts.Service
	snapshots *advisory.SnapshotRepository
	log       zerolog.Logger
}

// NewHandlers creates farmer handlers. The mandis repository serves the
// farmer's side of the order flow.
func NewHandlers(
	repo *farmers.Repository,
	orders *mandis.Repository,
	marketSvc *market.Service,
	advisorySvc *advisory.Service,
	alertsSvc *alerts.Service,
	snapshots *advisory.SnapshotRepository,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		repo:      repo,
		orders:    orders,
		market:    marketSvc,
		advisory:  advisorySvc,
		alerts:    alertsSvc,
		snapshots: snapshots,
		log:       log.With().Str("handler", "farmers").Logger(),
	}
}

// RegisterRoutes mounts the farmer endpoints. The caller wraps them in
// RequireAuth + RequireRole(farmer).
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/farmer", func(r chi.Router) {
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)

		r.Get("/crops", h.handleListCrops)
		r.Post("/crops", h.handleAddCrop)
		r.Put("/crops/{id}", h.handleUpdateCrop)
		r.Delete("/crops/{id}", h.handleDeleteCrop)

		r.Get("/mandis", h.handleListMandis)
		r.Post("/analyze", h.handleAnalyze)
		r.Get("/analysis/last", h.handleLastAnalysis)
		r.Post("/voice", h.handleVoice)
		r.Post("/weather", h.handleWeather)

		r.Get("/orders", h.handleListOrders)
		r.Put("/orders/{id}/status", h.handleUpdateOrderStatus)
	})
}

// profile resolves the authenticated user to their farmer profile.
func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) *farmers.Profile {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	profile, err := h.repo.GetProfileByUserID(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load farmer profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return nil
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "Farmer profile not found")
		return nil
	}
	return profile
}

// originFor picks the requester's coordinate: explicit values win, then the
// registered farm location, then the default origin.
func originFor(user *auth.User, lat, lng float64) market.Coordinate {
	if lat != 0 || lng != 0 {
		return market.Coordinate{Lat: lat, Lng: lng}
	}
	if user != nil && (user.Latitude != 0 || user.Longitude != 0) {
		return market.Coordinate{Lat: user.Latitude, Lng: user.Longitude}
	}
	return market.DefaultOrigin
}

func (h *Handlers) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	var req struct {
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Language == "" {
		h.writeError(w, http.StatusBadRequest, "language is required")
		return
	}

	if err := h.repo.UpdateLanguage(profile.UserID, req.Language); err != nil {
		h.log.Error().Err(err).Msg("Failed to update language")
		h.writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"language": req.Language})
}

func (h *Handlers) handleListCrops(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	crops, err := h.repo.ListCrops(profile.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list crops")
		h.writeError(w, http.StatusInternalServerError, "Failed to list crops")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crops": crops,
		"count": len(crops),
	})
}

func (h *Handlers) handleAddCrop(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	var req struct {
		Name        string  `json:"name"`
		QuantityKg  float64 `json:"quantity_kg"`
		PlantedDate string  `json:"planted_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.QuantityKg < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity_kg must not be negative")
		return
	}

	id, err := h.repo.AddCrop(&farmers.Crop{
		FarmerID:    profile.ID,
		Name:        req.Name,
		QuantityKg:  req.QuantityKg,
		PlantedDate: req.PlantedDate,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to add crop")
		h.writeError(w, http.StatusInternalServerError, "Failed to add crop")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"crop_id": id})
}

func (h *Handlers) handleUpdateCrop(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid crop id")
		return
	}

	var req struct {
		QuantityKg  float64 `json:"quantity_kg"`
		PlantedDate string  `json:"planted_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.QuantityKg < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity_kg must not be negative")
		return
	}

	matched, err := h.repo.UpdateCrop(id, profile.ID, req.QuantityKg, req.PlantedDate)
	if err != nil {
		h.log.Error().Err(err).Int64("crop_id", id).Msg("Failed to update crop")
		h.writeError(w, http.StatusInternalServerError, "Failed to update crop")
		return
	}
	if !matched {
		h.writeError(w, http.StatusNotFound, "Crop not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"crop_id": id})
}

func (h *Handlers) handleDeleteCrop(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid crop id")
		return
	}

	matched, err := h.repo.DeleteCrop(id, profile.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("crop_id", id).Msg("Failed to delete crop")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete crop")
		return
	}
	if !matched {
		h.writeError(w, http.StatusNotFound, "Crop not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handlers) handleListMandis(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	crop := r.URL.Query().Get("crop")
	if crop == "" {
		crop = market.DefaultCrop
	}
	lat := queryFloat(r, "lat")
	lng := queryFloat(r, "lng")
	origin := originFor(user, lat, lng)

	ranked := h.market.Rank(origin, crop)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":   crop,
		"origin": origin,
		"mandis": ranked,
		"count":  len(ranked),
	})
}

func (h *Handlers) handleListOrders(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	orders, err := h.orders.ListOrdersByFarmer(profile.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list orders")
		h.writeError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handlers) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !mandis.ValidStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	ok, err := h.orders.UpdateOrderStatusByFarmer(id, profile.ID, req.Status)
	if err != nil {
		h.log.Error().Err(err).Int64("order_id", id).Msg("Failed to update order status")
		h.writeError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func queryFloat(r *http.Request, key string) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return 0
	}
	return v
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
