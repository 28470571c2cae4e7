// Package advisory turns engine output into farmer-facing guidance. It uses
// the Groq API when a key is configured and falls back to deterministic
// rules otherwise, so advisory endpoints never fail on a missing key.
package advisory

import "github.com/krishisetu/krishisetu/internal/modules/market"

// Recommendation verdicts.
const (
	SellNow = "SELL_NOW"
	Wait    = "WAIT"
)

// Price trends.
const (
	TrendUp     = "UP"
	TrendDown   = "DOWN"
	TrendStable = "STABLE"
)

// Recommendation sources.
const (
	SourceAI    = "ai"
	SourceRules = "rules"
)

// Recommendation is the advisory layer's verdict for one analysis run.
type Recommendation struct {
	Recommendation string   `json:"recommendation"`
	BestMandi      string   `json:"best_mandi"`
	Scenarios      []string `json:"scenarios"`
	WeatherImpact  string   `json:"weather_impact"`
	PriceTrend     string   `json:"price_trend"`
	UrgentAlerts   []string `json:"urgent_alerts"`
	SpokenSummary  string   `json:"spoken_summary"`
	Source         string   `json:"source"`
}

// Voice command actions.
const (
	ActionSell          = "sell"
	ActionCheckPrice    = "check_price"
	ActionCheckWeather  = "check_weather"
	ActionHarvestAdvice = "harvest_advice"
	ActionFarmingAdvice = "farming_advice"
	ActionGeneral       = "general"
)

// VoiceCommand is a parsed voice transcript.
type VoiceCommand struct {
	Action     string  `json:"action"`
	Crop       string  `json:"crop,omitempty"`
	QuantityKg float64 `json:"quantity_kg,omitempty"`
	Location   string  `json:"location,omitempty"`
}

// Report statuses for external lookups.
const (
	StatusOK          = "ok"
	StatusUnavailable = "unavailable"
)

// Source is one external reference backing a report.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WeatherReport summarizes weather conditions for a location.
type WeatherReport struct {
	Status   string   `json:"status"`
	Location string   `json:"location"`
	Summary  string   `json:"summary,omitempty"`
	Sources  []Source `json:"sources,omitempty"`
}

// MarketInfo summarizes recent market news for a crop.
type MarketInfo struct {
	Status  string   `json:"status"`
	Crop    string   `json:"crop"`
	Summary string   `json:"summary,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}

// AnalysisSnapshot is the stored result of one analysis run, re-served by
// the last-analysis endpoint. CreatedAt comes from the snapshot row.
type AnalysisSnapshot struct {
	Crop       string                `json:"crop"`
	QuantityKg float64               `json:"quantity_kg"`
	Engine     market.AnalysisResult `json:"analysis"`
	Advisory   *Recommendation       `json:"ai_recommendation,omitempty"`
	Weather    *WeatherReport        `json:"weather,omitempty"`
	MarketNews *MarketInfo           `json:"market_info,omitempty"`
	CreatedAt  int64                 `json:"created_at" msgpack:"-"`
}
