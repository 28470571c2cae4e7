package market

import (
	"math"
	"math/rand"
)

// Forecast tuning.
const (
	jitterSpan = 1.0 // per-day noise in [-0.5, +0.5)
)

// ProjectForward extends a price series horizonDays into the future using the
// average day-over-day change of the series plus bounded jitter. Projected
// prices are floored at 70% of the crop band but deliberately not capped, so
// a strong uptrend stays visible to the decision rule. quantityKg > 0 adds an
// expected revenue (whole rupees) to each point.
//
// An empty series yields an empty forecast. A single-point series projects a
// flat trend (jitter only).
func ProjectForward(rng *rand.Rand, series []PricePoint, horizonDays int, quantityKg float64, band PriceRange) []ForecastPoint {
	if len(series) == 0 || horizonDays <= 0 {
		return []ForecastPoint{}
	}

	last := series[len(series)-1]
	avgChange := 0.0
	if len(series) > 1 {
		avgChange = (last.Price - series[0].Price) / float64(len(series)-1)
	}
	floor := band.Low * clampLowFactor

	out := make([]ForecastPoint, 0, horizonDays)
	for i := 1; i <= horizonDays; i++ {
		predicted := last.Price + avgChange*float64(i) + (rng.Float64()*jitterSpan - jitterSpan/2)
		if predicted < floor {
			predicted = floor
		}
		predicted = round2(predicted)

		fp := ForecastPoint{
			Date:           last.Date.AddDate(0, 0, i),
			PredictedPrice: predicted,
		}
		if quantityKg > 0 {
			fp.ExpectedRevenue = math.Round(predicted * quantityKg)
		}
		out = append(out, fp)
	}
	return out
}
