package market

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
)

// Walk tuning. The clamp keeps a run-away walk inside 70%..130% of the
// crop's configured band.
const (
	startOffsetSpan = 10.0 // start = midpoint + [-5, +5)
	stepMin         = -2.0
	stepSpan        = 4.3 // daily step in [-2, +2.3)
	clampLowFactor  = 0.7
	clampHighFactor = 1.3
	secondsPerDay   = 86400
)

// WalkSeed derives the deterministic seed for a crop and calendar day.
// Case and surrounding whitespace of the crop name do not matter; any two
// calls on the same UTC day agree.
func WalkSeed(crop string, asOf time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(crop))))
	day := asOf.UTC().Unix() / secondsPerDay
	return int64(h.Sum64()) + day
}

// NewWalkRNG returns the seeded generator for a crop/day pair. The same
// generator must be threaded through history simulation and, for a combined
// analysis, on into the forecast so repeated calls reproduce each other.
func NewWalkRNG(crop string, asOf time.Time) *rand.Rand {
	return rand.New(rand.NewSource(WalkSeed(crop, asOf)))
}

// SimulateHistory produces lookbackDays of synthetic prices for a crop,
// ending on asOf, using a fresh generator seeded from the crop and day.
func SimulateHistory(crop string, asOf time.Time, lookbackDays int) []PricePoint {
	return SimulateHistoryWithRNG(NewWalkRNG(crop, asOf), crop, asOf, lookbackDays)
}

// SimulateHistoryByPost runs one bounded walk per named post, every walk
// drawn in turn from the single (crop, asOf) seeded stream. The whole map
// is reproducible for a crop/day pair as long as the post order is fixed,
// so callers wanting stable output pass PostNames() rather than a ranked
// or user-supplied order. The first post's prices equal SimulateHistory's
// for the same arguments.
func SimulateHistoryByPost(crop string, asOf time.Time, lookbackDays int, postNames []string) map[string][]PricePoint {
	rng := NewWalkRNG(crop, asOf)
	byPost := make(map[string][]PricePoint, len(postNames))
	for _, name := range postNames {
		series := SimulateHistoryWithRNG(rng, crop, asOf, lookbackDays)
		for i := range series {
			series[i].Post = name
		}
		byPost[name] = series
	}
	return byPost
}

// Tick advances a live price by one walk step, clamped to the crop band.
// Used by the streaming endpoint; not part of the deterministic daily walk.
func Tick(rng *rand.Rand, crop string, current float64) float64 {
	band := RangeFor(crop)
	next := current + stepMin + rng.Float64()*stepSpan
	if next < band.Low*clampLowFactor {
		next = band.Low * clampLowFactor
	}
	if next > band.High*clampHighFactor {
		next = band.High * clampHighFactor
	}
	return round2(next)
}

// SimulateHistoryWithRNG runs the bounded random walk on the supplied
// generator. The walk always starts at day zero: asking for a shorter
// lookback yields a prefix of the longer series, not a suffix.
func SimulateHistoryWithRNG(rng *rand.Rand, crop string, asOf time.Time, lookbackDays int) []PricePoint {
	if lookbackDays <= 0 {
		return []PricePoint{}
	}
	band := RangeFor(crop)
	floor := band.Low * clampLowFactor
	ceil := band.High * clampHighFactor

	price := band.Midpoint() + (rng.Float64()*startOffsetSpan - startOffsetSpan/2)

	points := make([]PricePoint, 0, lookbackDays)
	for i := 0; i < lookbackDays; i++ {
		price += stepMin + rng.Float64()*stepSpan
		if price < floor {
			price = floor
		}
		if price > ceil {
			price = ceil
		}
		points = append(points, PricePoint{
			Date:  asOf.AddDate(0, 0, -(lookbackDays - 1 - i)),
			Price: round2(price),
		})
	}
	return points
}
