// Package handlers exposes the market engine over HTTP: ranked mandis,
// simulated price histories, forecasts, summary statistics and a live
// tick stream.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/modules/market"
)

// Handlers serves the market endpoints.
type Handlers struct {
	svc *market.Service
	log zerolog.Logger
}

// NewHandlers creates market handlers.
func NewHandlers(svc *market.Service, log zerolog.Logger) *Handlers {
	return &Handlers{
		svc: svc,
		log: log.With().Str("handler", "market").Logger(),
	}
}

// handleListMandis returns all trading posts ranked by distance from the
// caller's location.
func (h *Handlers) handleListMandis(w http.ResponseWriter, r *http.Request) {
	origin := originFromQuery(r)
	crop := queryString(r, "crop", market.DefaultCrop)

	ranked := h.svc.Rank(origin, crop)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":   crop,
		"origin": origin,
		"mandis": ranked,
		"count":  len(ranked),
	})
}

// handlePriceHistory returns the simulated price series for a crop. A
// mandi query parameter narrows the response to that post's series.
func (h *Handlers) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	crop := chi.URLParam(r, "crop")
	days := queryInt(r, "days", market.DefaultLookbackDays)
	if days < 1 || days > 365 {
		h.writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	if mandi := r.URL.Query().Get("mandi"); mandi != "" {
		series, ok := h.svc.HistoryByPost(crop, time.Now(), days, nil)[mandi]
		if !ok {
			h.writeError(w, http.StatusNotFound, "unknown mandi")
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{
			"crop":    crop,
			"mandi":   mandi,
			"days":    days,
			"history": series,
		})
		return
	}

	series := h.svc.History(crop, time.Now(), days)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":    crop,
		"days":    days,
		"history": series,
	})
}

// handlePricesByMandi returns the simulated series for every known mandi,
// keyed by mandi name.
func (h *Handlers) handlePricesByMandi(w http.ResponseWriter, r *http.Request) {
	crop := chi.URLParam(r, "crop")
	days := queryInt(r, "days", market.DefaultLookbackDays)
	if days < 1 || days > 365 {
		h.writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	byMandi := h.svc.HistoryByPost(crop, time.Now(), days, nil)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":   crop,
		"days":   days,
		"mandis": byMandi,
		"count":  len(byMandi),
	})
}

// handleForecast returns the 7-day projection with the sell-timing call.
func (h *Handlers) handleForecast(w http.ResponseWriter, r *http.Request) {
	crop := chi.URLParam(r, "crop")
	quantity := queryFloat(r, "quantity_kg", market.DefaultQuantityKg)

	res := h.svc.Analyze(originFromQuery(r), crop, quantity, time.Now())
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":           res.Crop,
		"today_price":    res.TodayPrice,
		"forecast":       res.Forecast,
		"recommendation": res.Recommendation,
	})
}

// handleStats returns summary statistics over the simulated series.
func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	crop := queryString(r, "crop", market.DefaultCrop)
	days := queryInt(r, "days", market.DefaultLookbackDays)
	if days < 1 || days > 365 {
		h.writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	series := h.svc.History(crop, time.Now(), days)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crop":  crop,
		"days":  days,
		"range": market.RangeFor(crop),
		"stats": market.AnalyzeSeries(series),
	})
}

// handleListCrops returns the crops with configured price bands.
func (h *Handlers) handleListCrops(w http.ResponseWriter, r *http.Request) {
	crops := market.KnownCrops()
	bands := make(map[string]market.PriceRange, len(crops))
	for _, c := range crops {
		bands[c] = market.RangeFor(c)
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"crops": bands,
		"count": len(bands),
	})
}

func originFromQuery(r *http.Request) market.Coordinate {
	return market.Coordinate{
		Lat: queryFloat(r, "lat", market.DefaultOrigin.Lat),
		Lng: queryFloat(r, "lng", market.DefaultOrigin.Lng),
	}
}

func queryString(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
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
