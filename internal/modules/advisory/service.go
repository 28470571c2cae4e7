package advisory

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/krishisetu/krishisetu/internal/clients/groq"
	"github.com/krishisetu/krishisetu/internal/clients/tavily"
	"github.com/krishisetu/krishisetu/internal/modules/market"
)

const (
	recommendTemperature = 0.3
	voiceTemperature     = 0.1
	snippetLimit         = 200
)

const recommendationSystemPrompt = `You are an agricultural market advisor for Indian farmers. Respond with a single JSON object only, no prose, using exactly these keys: "recommendation" ("SELL_NOW" or "WAIT"), "best_mandi" (string), "scenarios" (array of short strings), "weather_impact" (string), "price_trend" ("UP", "DOWN" or "STABLE"), "urgent_alerts" (array of strings, empty when nothing is urgent), "spoken_summary" (one sentence a farmer can hear read aloud).`

const voiceSystemPrompt = `You parse voice commands from Indian farmers about their crops. Respond with a single JSON object only, using exactly these keys: "action" (one of "sell", "check_price", "check_weather", "harvest_advice", "farming_advice", "general"), "crop" (lowercase crop name, "" when none is mentioned), "quantity_kg" (number, 0 when not mentioned), "location" (string, "" when not mentioned).`

const answerSystemPrompt = `You are an agricultural advisor for small Indian farmers. Answer in two or three short, practical sentences a farmer can act on. Plain text, no lists or markdown.`

// Completer is the slice of the Groq client the advisory service uses.
// Implemented by *groq.Client.
type Completer interface {
	Configured() bool
	Complete(messages []groq.Message, temperature float64, jsonMode bool) (string, error)
	CompleteJSON(systemPrompt, userPrompt string, temperature float64, v interface{}) error
}

// Searcher is the slice of the Tavily client the advisory service uses.
// Implemented by *tavily.Client.
type Searcher interface {
	Search(query string) (*tavily.SearchResponse, error)
}

// Service produces recommendations, parses voice commands and fetches
// weather and market news.
type Service struct {
	groq   Completer
	tavily Searcher
	log    zerolog.Logger
}

// NewService creates the advisory service. Both clients are optional; with
// neither configured every method still returns a usable response.
func NewService(groqClient Completer, tavilyClient Searcher, log zerolog.Logger) *Service {
	return &Service{
		groq:   groqClient,
		tavily: tavilyClient,
		log:    log.With().Str("service", "advisory").Logger(),
	}
}

// Recommend produces the advisory verdict for an analysis run. It asks Groq
// when configured and falls back to RuleBased on any failure.
func (s *Service) Recommend(result *market.AnalysisResult, weather *WeatherReport, news *MarketInfo) *Recommendation {
	if s.groq != nil && s.groq.Configured() {
		var rec Recommendation
		err := s.groq.CompleteJSON(recommendationSystemPrompt, buildRecommendationPrompt(result, weather, news), recommendTemperature, &rec)
		if err == nil {
			s.normalize(&rec, result)
			rec.Source = SourceAI
			return &rec
		}
		s.log.Warn().Err(err).Str("crop", result.Crop).Msg("Groq recommendation failed, using rule-based fallback")
	}
	return s.RuleBased(result, weather)
}

// RuleBased derives a recommendation from the engine's decision alone. It
// is deterministic for a given analysis result.
func (s *Service) RuleBased(result *market.AnalysisResult, weather *WeatherReport) *Recommendation {
	rec := &Recommendation{
		BestMandi:     result.Nearest.Name,
		PriceTrend:    trendOf(result),
		Scenarios:     []string{},
		UrgentAlerts:  []string{},
		WeatherImpact: weatherImpact(weather),
		Source:        SourceRules,
	}

	rec.Scenarios = append(rec.Scenarios, fmt.Sprintf(
		"Sell today at ₹%.2f/kg for about ₹%.0f.",
		result.TodayPrice, math.Round(result.TodayPrice*result.QuantityKg)))

	if result.Recommendation.Action == market.ActionSellToday {
		rec.Recommendation = SellNow
		rec.SpokenSummary = fmt.Sprintf(
			"Prices for %s are not expected to improve this week. Selling today at %s gives the best return.",
			result.Crop, result.Nearest.Name)
	} else {
		rec.Recommendation = Wait
		rec.Scenarios = append(rec.Scenarios, fmt.Sprintf(
			"Hold until %s for a forecast peak of ₹%.2f/kg, about ₹%.0f.",
			result.Recommendation.BestDay, result.Recommendation.BestPrice,
			math.Round(result.Recommendation.BestPrice*result.QuantityKg)))
		rec.SpokenSummary = fmt.Sprintf(
			"Prices for %s are expected to rise. Holding until %s could earn you more at %s.",
			result.Crop, result.Recommendation.BestDay, result.Nearest.Name)
	}

	if result.Nearest.Name != "" {
		rec.Scenarios = append(rec.Scenarios, fmt.Sprintf(
			"%s is %.2f km away; transport about ₹%.0f, travel about %.0f minutes.",
			result.Nearest.Name, result.Nearest.DistanceKm,
			result.Nearest.TransportCost, result.Nearest.TravelTimeMin))
	}

	if rec.PriceTrend == TrendDown {
		rec.UrgentAlerts = append(rec.UrgentAlerts, fmt.Sprintf(
			"Prices for %s are trending down. Selling sooner protects your income.", result.Crop))
	}

	return rec
}

// normalize repairs a model completion so downstream consumers always see
// valid enum values and non-nil slices.
func (s *Service) normalize(rec *Recommendation, result *market.AnalysisResult) {
	rec.Recommendation = strings.ToUpper(strings.TrimSpace(rec.Recommendation))
	if rec.Recommendation != SellNow && rec.Recommendation != Wait {
		if result.Recommendation.Action == market.ActionSellToday {
			rec.Recommendation = SellNow
		} else {
			rec.Recommendation = Wait
		}
	}

	rec.PriceTrend = strings.ToUpper(strings.TrimSpace(rec.PriceTrend))
	switch rec.PriceTrend {
	case TrendUp, TrendDown, TrendStable:
	default:
		rec.PriceTrend = trendOf(result)
	}

	if rec.BestMandi == "" {
		rec.BestMandi = result.Nearest.Name
	}
	if rec.SpokenSummary == "" {
		rec.SpokenSummary = result.Recommendation.Reason
	}
	if rec.Scenarios == nil {
		rec.Scenarios = []string{}
	}
	if rec.UrgentAlerts == nil {
		rec.UrgentAlerts = []string{}
	}
}

func buildRecommendationPrompt(result *market.AnalysisResult, weather *WeatherReport, news *MarketInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crop: %s\nQuantity: %.0f kg\nToday's price: ₹%.2f/kg\n",
		result.Crop, result.QuantityKg, result.TodayPrice)
	fmt.Fprintf(&b, "Engine verdict: %s. %s\n",
		result.Recommendation.Action, result.Recommendation.Reason)
	if result.Nearest.Name != "" {
		fmt.Fprintf(&b, "Nearest mandi: %s, %.2f km away, offering ₹%.2f/kg, transport ₹%.0f\n",
			result.Nearest.Name, result.Nearest.DistanceKm,
			result.Nearest.PricePerKg, result.Nearest.TransportCost)
	}
	if len(result.Forecast) > 0 {
		b.WriteString("Forecast (₹/kg):")
		for _, p := range result.Forecast {
			fmt.Fprintf(&b, " %s=%.2f", p.Date.Format("Jan 02"), p.PredictedPrice)
		}
		b.WriteString("\n")
	}
	if weather != nil && weather.Status == StatusOK {
		fmt.Fprintf(&b, "Weather: %s\n", clip(weather.Summary, 400))
	}
	if news != nil && news.Status == StatusOK {
		fmt.Fprintf(&b, "Market news: %s\n", clip(news.Summary, 400))
	}
	b.WriteString("Advise the farmer when and where to sell.")
	return b.String()
}

// trendOf classifies the forecast's direction relative to today's price.
// Moves within one percent count as stable.
func trendOf(result *market.AnalysisResult) string {
	if len(result.Forecast) == 0 || result.TodayPrice == 0 {
		return TrendStable
	}
	last := result.Forecast[len(result.Forecast)-1].PredictedPrice
	change := (last - result.TodayPrice) / result.TodayPrice
	switch {
	case change > 0.01:
		return TrendUp
	case change < -0.01:
		return TrendDown
	default:
		return TrendStable
	}
}

func weatherImpact(weather *WeatherReport) string {
	if weather == nil || weather.Status != StatusOK {
		return "Weather data is unavailable right now."
	}
	lower := strings.ToLower(weather.Summary)
	for _, word := range []string{"rain", "storm", "flood", "cyclone"} {
		if strings.Contains(lower, word) {
			return fmt.Sprintf("Expected %s may disrupt transport and mandi arrivals. Plan covered storage.", word)
		}
	}
	return "No significant weather impact expected."
}

// ParseVoice turns a transcript into a structured command, via Groq when
// configured and a keyword scan otherwise.
func (s *Service) ParseVoice(transcript string) *VoiceCommand {
	if s.groq != nil && s.groq.Configured() {
		var cmd VoiceCommand
		err := s.groq.CompleteJSON(voiceSystemPrompt, transcript, voiceTemperature, &cmd)
		if err == nil && validAction(cmd.Action) {
			cmd.Crop = strings.ToLower(strings.TrimSpace(cmd.Crop))
			return &cmd
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("Groq voice parse failed, using keyword fallback")
		}
	}
	return keywordParse(transcript)
}

func validAction(action string) bool {
	switch action {
	case ActionSell, ActionCheckPrice, ActionCheckWeather, ActionHarvestAdvice, ActionFarmingAdvice, ActionGeneral:
		return true
	}
	return false
}

var quantityPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kg|kilo|quintal)`)

// knownCropsSorted keeps crop detection deterministic when a transcript
// mentions more than one crop.
var knownCropsSorted = func() []string {
	crops := market.KnownCrops()
	sort.Strings(crops)
	return crops
}()

func keywordParse(transcript string) *VoiceCommand {
	lower := strings.ToLower(transcript)
	cmd := &VoiceCommand{Action: ActionGeneral}

	switch {
	case strings.Contains(lower, "sell"):
		cmd.Action = ActionSell
	case strings.Contains(lower, "price") || strings.Contains(lower, "rate"):
		cmd.Action = ActionCheckPrice
	case strings.Contains(lower, "weather") || strings.Contains(lower, "rain"):
		cmd.Action = ActionCheckWeather
	case strings.Contains(lower, "harvest"):
		cmd.Action = ActionHarvestAdvice
	case strings.Contains(lower, "fertilizer") || strings.Contains(lower, "pest") ||
		strings.Contains(lower, "disease") || strings.Contains(lower, "seed") ||
		strings.Contains(lower, "grow"):
		cmd.Action = ActionFarmingAdvice
	}

	for _, crop := range knownCropsSorted {
		if strings.Contains(lower, crop) {
			cmd.Crop = crop
			break
		}
	}

	if m := quantityPattern.FindStringSubmatch(lower); m != nil {
		if qty, err := strconv.ParseFloat(m[1], 64); err == nil {
			if m[2] == "quintal" {
				qty *= 100
			}
			cmd.QuantityKg = qty
		}
	}

	return cmd
}

// Answer responds to an open-ended question, falling back to canned advice
// per action when Groq is unavailable.
func (s *Service) Answer(action, question string) string {
	if s.groq != nil && s.groq.Configured() && strings.TrimSpace(question) != "" {
		content, err := s.groq.Complete([]groq.Message{
			{Role: "system", Content: answerSystemPrompt},
			{Role: "user", Content: question},
		}, recommendTemperature, false)
		if err == nil && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content)
		}
		if err != nil {
			s.log.Warn().Err(err).Msg("Groq answer failed, using canned fallback")
		}
	}
	return cannedAnswer(action)
}

func cannedAnswer(action string) string {
	switch action {
	case ActionHarvestAdvice:
		return "Harvest in the early morning while it is cool and move produce into shade quickly. Check maturity signs for your crop before cutting, and plan transport for the same day."
	case ActionFarmingAdvice:
		return "Test your soil before adding fertilizer, rotate crops between seasons and irrigate in the evening to cut evaporation losses. Scout for pests weekly so problems stay small."
	default:
		return "I can help with selling decisions, mandi prices and weather. Try asking when to sell your crop or what today's price is."
	}
}

// Weather looks up current conditions for a location. The degraded response
// keeps the endpoint a 200 when Tavily is unavailable.
func (s *Service) Weather(location string) *WeatherReport {
	report := &WeatherReport{Status: StatusUnavailable, Location: location}
	if s.tavily == nil {
		return report
	}

	resp, err := s.tavily.Search(fmt.Sprintf("current weather and weekly farming forecast for %s India", location))
	if err != nil {
		s.logLookupFailure("weather", err)
		return report
	}

	report.Status = StatusOK
	report.Summary = resp.Answer
	if report.Summary == "" && len(resp.Results) > 0 {
		report.Summary = clip(resp.Results[0].Content, snippetLimit)
	}
	report.Sources = toSources(resp.Results)
	return report
}

// CropMarketInfo looks up recent price news for a crop.
func (s *Service) CropMarketInfo(crop string) *MarketInfo {
	info := &MarketInfo{Status: StatusUnavailable, Crop: crop}
	if s.tavily == nil {
		return info
	}

	resp, err := s.tavily.Search(fmt.Sprintf("%s mandi price trend news Karnataka India", crop))
	if err != nil {
		s.logLookupFailure("market_info", err)
		return info
	}

	info.Status = StatusOK
	info.Summary = resp.Answer
	if info.Summary == "" && len(resp.Results) > 0 {
		info.Summary = clip(resp.Results[0].Content, snippetLimit)
	}
	info.Sources = toSources(resp.Results)
	return info
}

func (s *Service) logLookupFailure(kind string, err error) {
	if errors.Is(err, tavily.ErrNotConfigured) {
		s.log.Debug().Str("lookup", kind).Msg("Tavily not configured, serving degraded response")
		return
	}
	s.log.Warn().Err(err).Str("lookup", kind).Msg("Tavily lookup failed, serving degraded response")
}

func toSources(results []tavily.SearchResult) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{Title: r.Title, URL: r.URL, Snippet: clip(r.Content, snippetLimit)})
	}
	return out
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
