package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/krishisetu/krishisetu/internal/modules/advisory"
	"github.com/krishisetu/krishisetu/internal/modules/auth"
	"github.com/krishisetu/krishisetu/internal/modules/market"
)

// handleVoice parses a transcript into a command and dispatches it: sell
// runs an analysis, check_price ranks mandis, check_weather fetches a
// report, everything else gets an advisory answer. The response always
// carries a spoken reply.
func (h *Handlers) handleVoice(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		Transcript string `json:"transcript"`
		Language   string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		h.writeError(w, http.StatusBadRequest, "transcript is required")
		return
	}

	cmd := h.advisory.ParseVoice(req.Transcript)
	crop := cmd.Crop
	if crop == "" {
		crop = market.DefaultCrop
	}
	origin := originFor(user, 0, 0)

	resp := map[string]interface{}{
		"action":  cmd.Action,
		"command": cmd,
	}

	switch cmd.Action {
	case advisory.ActionSell:
		result := h.market.Analyze(origin, crop, cmd.QuantityKg, time.Now())
		rec := h.advisory.Recommend(&result, nil, nil)
		resp["analysis"] = map[string]interface{}{
			"crop":           result.Crop,
			"today_price":    result.TodayPrice,
			"recommendation": result.Recommendation,
			"best_mandi":     result.Nearest.Name,
		}
		resp["response"] = rec.SpokenSummary

	case advisory.ActionCheckPrice:
		ranked := h.market.Rank(origin, crop)
		posts := ranked
		if len(posts) > maxMandisInResponse {
			posts = posts[:maxMandisInResponse]
		}
		resp["mandis"] = posts
		if len(ranked) > 0 {
			resp["response"] = fmt.Sprintf(
				"Today %s is around ₹%.2f per kg at %s, %.1f km from you.",
				crop, ranked[0].PricePerKg, ranked[0].Name, ranked[0].DistanceKm)
		} else {
			resp["response"] = fmt.Sprintf("No mandi prices available for %s right now.", crop)
		}

	case advisory.ActionCheckWeather:
		location := cmd.Location
		if location == "" {
			location = h.districtFor(origin)
		}
		report := h.advisory.Weather(location)
		resp["weather"] = report
		if report.Status == advisory.StatusOK && report.Summary != "" {
			resp["response"] = report.Summary
		} else {
			resp["response"] = "Weather information is unavailable right now. Please try again later."
		}

	default:
		resp["response"] = h.advisory.Answer(cmd.Action, req.Transcript)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// handleWeather serves a weather report for a location, defaulting to the
// district nearest the farmer. It degrades rather than failing.
func (h *Handlers) handleWeather(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())

	var req struct {
		Location string `json:"location"`
		Crop     string `json:"crop"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = h.districtFor(originFor(user, 0, 0))
	}

	report := h.advisory.Weather(location)
	h.writeJSON(w, http.StatusOK, report)
}

// districtFor names a searchable area for a coordinate via the nearest
// trading post.
func (h *Handlers) districtFor(origin market.Coordinate) string {
	ranked := h.market.Rank(origin, market.DefaultCrop)
	if len(ranked) > 0 && ranked[0].District != "" {
		return ranked[0].District
	}
	return "Karnataka"
}
