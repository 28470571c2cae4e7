package market

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// AnalysisResult bundles everything a client needs to act on one crop:
// the ranked mandis, the simulated history, the forecast and the timing call.
type AnalysisResult struct {
	Crop           string                   `json:"crop"`
	QuantityKg     float64                  `json:"quantity_kg"`
	Origin         Coordinate               `json:"origin"`
	Posts          []RankedPost             `json:"mandis"`
	Nearest        RankedPost               `json:"nearest_mandi"`
	History        []PricePoint             `json:"price_history"`
	Forecast       []ForecastPoint          `json:"forecast"`
	TodayPrice     float64                  `json:"today_price"`
	Recommendation SellTimingRecommendation `json:"recommendation"`
	Stats          SeriesStats              `json:"stats"`
}

// Service exposes the engine to handlers and scheduler jobs.
type Service struct {
	log zerolog.Logger
}

// NewService creates the market service.
func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("service", "market").Logger(),
	}
}

// Rank returns all trading posts ranked by distance from origin, with
// fresh simulated market figures for the crop.
func (s *Service) Rank(origin Coordinate, crop string) []RankedPost {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return RankPosts(rng, origin, crop, tradingPosts)
}

// History returns the deterministic simulated price series for a crop
// ending on asOf.
func (s *Service) History(crop string, asOf time.Time, lookbackDays int) []PricePoint {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return SimulateHistory(crop, asOf, lookbackDays)
}

// HistoryByPost returns the deterministic simulated series for each named
// post. Empty postNames means every known post in canonical table order.
func (s *Service) HistoryByPost(crop string, asOf time.Time, lookbackDays int, postNames []string) map[string][]PricePoint {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	if len(postNames) == 0 {
		postNames = PostNames()
	}
	return SimulateHistoryByPost(crop, asOf, lookbackDays, postNames)
}

// Analyze runs the full pipeline: rank posts, simulate the price history,
// project the recent window forward and derive the sell-timing call.
//
// The seeded generator that drives the history continues into the forecast,
// so the whole analysis for a crop/day pair is reproducible.
func (s *Service) Analyze(origin Coordinate, crop string, quantityKg float64, asOf time.Time) AnalysisResult {
	if crop == "" {
		crop = DefaultCrop
	}
	if quantityKg <= 0 {
		quantityKg = DefaultQuantityKg
	}
	if origin == (Coordinate{}) {
		origin = DefaultOrigin
	}

	ranked := s.Rank(origin, crop)

	rng := NewWalkRNG(crop, asOf)
	history := SimulateHistoryWithRNG(rng, crop, asOf, DefaultLookbackDays)

	tail := history
	if len(tail) > PreForecastWindowDays {
		tail = tail[len(tail)-PreForecastWindowDays:]
	}
	forecast := ProjectForward(rng, tail, ForecastHorizonDays, quantityKg, RangeFor(crop))

	today := 0.0
	if len(tail) > 0 {
		today = tail[len(tail)-1].Price
	}
	rec := Decide(today, forecast)

	result := AnalysisResult{
		Crop:           crop,
		QuantityKg:     quantityKg,
		Origin:         origin,
		Posts:          ranked,
		History:        history,
		Forecast:       forecast,
		TodayPrice:     today,
		Recommendation: rec,
		Stats:          AnalyzeSeries(history),
	}
	if len(ranked) > 0 {
		result.Nearest = ranked[0]
	}

	s.log.Debug().
		Str("crop", crop).
		Float64("today_price", today).
		Str("action", rec.Action).
		Msg("analysis complete")

	return result
}
