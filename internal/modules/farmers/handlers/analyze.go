package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/alerts"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/market"
)

// handleAnalyze runs the full pipeline for one crop: ranked mandis, price
// history, forecast and timing call from the engine, weather and market
// news fetched concurrently, then the advisory verdict, alert generation
// and a snapshot for the last-analysis endpoint.
func (h *Handlers) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Crop       string  `json:"crop"`
		QuantityKg float64 `json:"quantity_kg"`
		Lat        float64 `json:"lat"`
		Lng        float64 `json:"lng"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	origin := originFor(user, req.Lat, req.Lng)
	result := h.market.Analyze(origin, req.Crop, req.QuantityKg, time.Now())

	district := result.Nearest.District
	if district == "" {
		district = "Karnataka"
	}

	var weather *advisory.WeatherReport
	var news *advisory.MarketInfo
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		weather = h.advisory.Weather(district)
	}()
	go func() {
		defer wg.Done()
		news = h.advisory.CropMarketInfo(result.Crop)
	}()
	wg.Wait()

	rec := h.advisory.Recommend(&result, weather, news)

	drafts := alerts.Categorize(alerts.AnalysisInput{
		Crop:           result.Crop,
		UrgentAlerts:   rec.UrgentAlerts,
		PriceTrend:     rec.PriceTrend,
		WeatherSummary: weather.Summary,
		Recommendation: rec.SpokenSummary,
	})
	stored, err := h.alerts.CreateBatch(user.ID, drafts)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to store analysis alerts")
	}

	if err := h.snapshots.Save(user.ID, &advisory.AnalysisSnapshot{
		Crop:       result.Crop,
		QuantityKg: result.QuantityKg,
		Engine:     result,
		Advisory:   rec,
		Weather:    weather,
		MarketNews: news,
	}); err != nil {
		h.log.Error().Err(err).Msg("Failed to save analysis snapshot")
	}

	posts := result.Posts
	if len(posts) > maxMandisInResponse {
		posts = posts[:maxMandisInResponse]
	}
	history := result.History
	if len(history) > market.PreForecastWindowDays {
		history = history[len(history)-market.PreForecastWindowDays:]
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"request": map[string]interface{}{
			"crop":        result.Crop,
			"quantity_kg": result.QuantityKg,
			"origin":      result.Origin,
		},
		"mandis":            posts,
		"nearest_mandi":     result.Nearest,
		"price_history":     history,
		"forecast":          result.Forecast,
		"today_price":       result.TodayPrice,
		"recommendation":    result.Recommendation,
		"ai_recommendation": rec,
		"weather":           weather,
		"market_info":       news,
		"alerts":            stored,
		"stats":             result.Stats,
	})
}

// handleLastAnalysis re-serves the stored snapshot, optionally scoped to a
// crop via the crop query parameter.
func (h *Handlers) handleLastAnalysis(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var snap *advisory.AnalysisSnapshot
	var err error
	if crop := r.URL.Query().Get("crop"); crop != "" {
		snap, err = h.snapshots.ForCrop(user.ID, crop)
	} else {
		snap, err = h.snapshots.Latest(user.ID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load analysis snapshot")
		h.writeError(w, http.StatusInternalServerError, "Failed to load analysis")
		return
	}
	if snap == nil {
		h.writeError(w, http.StatusNotFound, "No analysis found")
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}
