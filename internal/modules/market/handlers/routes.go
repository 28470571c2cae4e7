package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the market endpoints on the API router.
// These are public; personalized analysis lives under the farmer module.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/mandis", h.handleListMandis)
		r.Get("/crops", h.handleListCrops)
		r.Get("/prices/{crop}", h.handlePriceHistory)
		r.Get("/prices/{crop}/mandis", h.handlePricesByMandi)
		r.Get("/forecast/{crop}", h.handleForecast)
		r.Get("/stats", h.handleStats)
		r.Get("/live", h.handleLive)
	})
}
