// Package market implements the price simulation and sell-timing advisory engine:
// geospatial ranking of trading posts, deterministic synthetic price histories,
// short-term forecasts, and the sell/wait decision derived from them.
//
// Everything in this package is a pure function of its inputs plus the static
// post and crop-range tables. No I/O, no shared mutable state: callers construct
// a generator per call, so any number of requests can run concurrently.
package market

import "time"

// Recommendation actions.
const (
	ActionSellToday = "SELL_TODAY"
	ActionWait2Days = "WAIT_2_DAYS"
	ActionWaitWeek  = "WAIT_WEEK"
)

// Engine defaults.
const (
	DefaultLookbackDays   = 30 // history endpoints
	PreForecastWindowDays = 5  // tail of the walk fed into the projector
	ForecastHorizonDays   = 7
	DefaultQuantityKg     = 100.0
	DefaultCrop           = "tomato"
)

// DefaultOrigin is the requester location assumed when none is supplied.
var DefaultOrigin = Coordinate{Lat: 12.97, Lng: 77.59}

// Coordinate is a WGS-84 latitude/longitude pair in degrees.
// The engine does not validate ranges; malformed values propagate into
// nonsensical but non-crashing outputs.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// TradingPost is an immutable reference entry for a physical mandi.
type TradingPost struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	District string  `json:"district"`
}

// Location returns the post's coordinate.
func (p TradingPost) Location() Coordinate {
	return Coordinate{Lat: p.Lat, Lng: p.Lng}
}

// RankedPost is a trading post annotated with the distance from the requester
// and simulated market figures, one per known post, sorted by distance.
type RankedPost struct {
	TradingPost
	DistanceKm    float64 `json:"distance_km"`
	PricePerKg    float64 `json:"price_per_kg"`
	TransportCost float64 `json:"transport_cost"`
	TravelTimeMin float64 `json:"travel_time_min"`
}

// PricePoint is one simulated observation of a crop price at a post.
// Post is the mandi name, set by the per-post simulation; single-series
// helpers leave it empty and the field is dropped from their JSON.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Post  string    `json:"mandi,omitempty"`
	Price float64   `json:"price"`
}

// ForecastPoint is a projected future price, with the projected revenue for
// the requested quantity when one was supplied.
type ForecastPoint struct {
	Date            time.Time `json:"date"`
	PredictedPrice  float64   `json:"predicted_price"`
	ExpectedRevenue float64   `json:"expected_revenue,omitempty"`
}

// SellTimingRecommendation is the decision derived from a forecast.
// It is recomputed per request and never persisted.
type SellTimingRecommendation struct {
	Action    string  `json:"action"`
	Reason    string  `json:"reason"`
	BestDay   string  `json:"best_day"`
	BestPrice float64 `json:"best_price"`
}
