// Package handlers exposes the retailer endpoints: profile, shop inventory
// and orders placed with mandis.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/retailers"
)

// Handlers serves the retailer endpoints.
type Handlers struct {
	repo *retailers.Repository
	log  zerolog.Logger
}

// NewHandlers creates retailer handlers.
func NewHandlers(repo *retailers.Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "retailers").Logger(),
	}
}

// RegisterRoutes mounts the retailer endpoints. The caller wraps them in
// RequireAuth + RequireRole(retailer).
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/retailer", func(r chi.Router) {
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)

		r.Get("/items", h.handleListItems)
		r.Post("/items", h.handleUpsertItem)
		r.Delete("/items/{id}", h.handleDeleteItem)

		r.Get("/orders", h.handleListOrders)
		r.Post("/orders", h.handleCreateOrder)
		r.Put("/orders/{id}/status", h.handleUpdateOrderStatus)
	})
}

func (h *Handlers) profile(w http.ResponseWriter, r *http.Request) *retailers.Profile {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return nil
	}
	profile, err := h.repo.GetProfileByUserID(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("Failed to load retailer profile")
		h.writeError(w, http.StatusInternalServerError, "Failed to load profile")
		return nil
	}
	if profile == nil {
		h.writeError(w, http.StatusNotFound, "Retailer profile not found")
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
		ShopName string `json:"shop_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.repo.UpdateShopName(profile.UserID, req.ShopName); err != nil {
		h.log.Error().Err(err).Msg("Failed to update shop name")
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
		h.log.Error().Err(err).Msg("Failed to list retailer items")
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
		ItemName   string  `json:"item_name"`
		QuantityKg float64 `json:"quantity_kg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ItemName == "" {
		h.writeError(w, http.StatusBadRequest, "item_name is required")
		return
	}
	if req.QuantityKg < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity_kg cannot be negative")
		return
	}

	if err := h.repo.UpsertItem(profile.ID, req.ItemName, req.QuantityKg); err != nil {
		h.log.Error().Err(err).Str("item", req.ItemName).Msg("Failed to upsert retailer item")
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
		h.log.Error().Err(err).Int64("item_id", id).Msg("Failed to delete retailer item")
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

	orders, err := h.repo.ListOrdersByRetailer(profile.ID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list mandi orders")
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
		MandiOwnerID int64   `json:"mandi_owner_id"`
		Item         string  `json:"item"`
		QuantityKg   float64 `json:"quantity_kg"`
		PricePerKg   float64 `json:"price_per_kg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Item == "" || req.MandiOwnerID == 0 {
		h.writeError(w, http.StatusBadRequest, "item and mandi_owner_id are required")
		return
	}
	if req.QuantityKg <= 0 || req.PricePerKg <= 0 {
		h.writeError(w, http.StatusBadRequest, "quantity_kg and price_per_kg must be positive")
		return
	}

	id, err := h.repo.CreateMandiOrder(&retailers.MandiOrder{
		RetailerID:   profile.ID,
		MandiOwnerID: req.MandiOwnerID,
		Item:         req.Item,
		QuantityKg:   req.QuantityKg,
		PricePerKg:   req.PricePerKg,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create mandi order")
		h.writeError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order_id": id,
		"status":   retailers.OrderPending,
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
	if !retailers.ValidStatus(req.Status) {
		h.writeError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	ok, err := h.repo.UpdateOrderStatusByRetailer(id, profile.ID, req.Status)
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
