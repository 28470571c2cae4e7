// Package handlers exposes the mandi owner endpoints: profile, inventory,
// farmer orders and the demand aggregate.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/mandis"
)

// Handlers serves the mandi endpoints.
type Handlers struct {
	repo *mandis.Repository
	log  zerolog.Logger
}

// NewHandlers creates mandi handlers.
func NewHandlers(repo *mandis.Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "mandis").Logger(),
	}
}

// RegisterRoutes mounts the mandi endpoints. The caller wraps them in
// RequireAuth + RequireRole(mandi_owner).
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/mandi", func(r chi.Router) {
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)

		r.Get("/items", h.handleListItems)
		r.Post("/items", h.handleUpsertItem)
		r.Delete("/items/{id}", h.handleDeleteItem)

		r.Get("/orders", h.handleListOrders)
		r.Post("/orders", h.handleCreateOrder)
		r.Put("/orders/{id}/status", h.handleUpdateOrderStatus)

		r.Get("/demand", h.handleDemand)
	})
}

// profile resolves the authenticated user to their owner profile.
func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) *mandis.OwnerProfile {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	profile, err := h.repo.GetProfileByUserID(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load mandi owner profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return nil
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "Mandi owner profile not found")
		return nil
	}
	return profile
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
		MandiName string `json:"mandi_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.repo.UpdateMandiName(profile.UserID, req.MandiName); err != nil {
		h.log.Error().Err(err).Msg("Failed to update mandi name")
		h.writeError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handlers) handleListItems(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	items, err := h.repo.ListItems(profile.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list mandi items")
		h.writeError(w, http.StatusInternalServerError, "Failed to list items")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func (h *Handlers) handleUpsertItem(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	var req struct {
		ItemName     string  `json:"item_name"`
		CurrentQtyKg float64 `json:"current_qty_kg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ItemName == "" {
		h.writeError(w, http.StatusBadRequest, "item_name is required")
		return
	}
	if req.CurrentQtyKg < 0 {
		h.writeError(w, http.StatusBadRequest, "current_qty_kg cannot be negative")
		return
	}

	if err := h.repo.UpsertItem(profile.ID, req.ItemName, req.CurrentQtyKg); err != nil {
		h.log.Error().Err(err).Str("item", req.ItemName).Msg("Failed to upsert mandi item")
		h.writeError(w, http.StatusInternalServerError, "Failed to save item")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "saved", "item": req.ItemName})
}

func (h *Handlers) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid item id")
		return
	}

	ok, err := h.repo.DeleteItem(id, profile.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("item_id", id).Msg("Failed to delete mandi item")
		h.writeError(w, http.StatusInternalServerError, "Failed to delete item")
		return
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "Item not found")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handlers) handleListOrders(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	orders, err := h.repo.ListOrdersByOwner(profile.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list farmer orders")
		h.writeError(w, http.StatusInternalServerError, "Failed to list orders")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
		"count":  len(orders),
	})
}

func (h *Handlers) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	var req struct {
		FarmerID   int64   `json:"farmer_id"`
		Item       string  `json:"item"`
		QuantityKg float64 `json:"quantity_kg"`
		PricePerKg float64 `json:"price_per_kg"`
		SourceLat  float64 `json:"source_lat"`
		SourceLng  float64 `json:"source_lng"`
		DestLat    float64 `json:"dest_lat"`
		DestLng    float64 `json:"dest_lng"`
		StartTime  int64   `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Item == "" || req.FarmerID == 0 {
		h.writeError(w, http.StatusBadRequest, "item and farmer_id are required")
		return
	}
	if req.QuantityKg <= 0 || req.PricePerKg <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity_kg and price_per_kg must be positive")
		return
	}

	id, err := h.repo.CreateFarmerOrder(&mandis.FarmerOrder{
		MandiOwnerID: profile.ID,
		FarmerID:     req.FarmerID,
		Item:         req.Item,
		QuantityKg:   req.QuantityKg,
		PricePerKg:   req.PricePerKg,
		SourceLat:    req.SourceLat,
		SourceLng:    req.SourceLng,
		DestLat:      req.DestLat,
		DestLng:      req.DestLng,
		StartTime:    req.StartTime,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create farmer order")
		h.writeError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order_id": id,
		"status":   mandis.OrderPending,
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

	ok, err := h.repo.UpdateOrderStatusByOwner(id, profile.ID, req.Status)
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

func (h *Handlers) handleDemand(w http.ResponseWriter, r *http.Request) {
	profile := h.profile(w, r)
	if profile == nil {
		return
	}

	entries, err := h.repo.Demand(profile.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to aggregate demand")
		h.writeError(w, http.StatusInternalServerError, "Failed to aggregate demand")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"demand": entries,
		"count":  len(entries),
	})
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
