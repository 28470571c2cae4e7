package market

import "fmt"

// waitThreshold is the relative gain over today's price that justifies
// holding stock at all. Peaks at or below 3% read as noise.
const waitThreshold = 1.03

// dayLabel formats forecast dates for recommendation text.
const dayLabel = "Jan 02"

// Decide turns a forecast into a sell/wait recommendation against today's
// price. The peak is the highest predicted price, earliest day winning ties.
// A peak within the next two days worth more than 3% over today means a
// short hold; a later such peak means holding for the week; anything else,
// including an empty forecast, means selling now.
func Decide(todayPrice float64, forecast []ForecastPoint) SellTimingRecommendation {
	sellToday := SellTimingRecommendation{
		Action:    ActionSellToday,
		Reason:    "Prices are stable or declining over the coming week. Sell today at the current price.",
		BestDay:   "Today",
		BestPrice: todayPrice,
	}
	if len(forecast) == 0 {
		return sellToday
	}

	peakIdx := 0
	for i, fp := range forecast {
		if fp.PredictedPrice > forecast[peakIdx].PredictedPrice {
			peakIdx = i
		}
	}
	peak := forecast[peakIdx]

	if peak.PredictedPrice <= todayPrice*waitThreshold {
		return sellToday
	}

	if peakIdx <= 1 {
		return SellTimingRecommendation{
			Action:    ActionWait2Days,
			Reason:    fmt.Sprintf("Prices expected to peak at ₹%.2f on %s. Hold for a couple of days before selling.", peak.PredictedPrice, peak.Date.Format(dayLabel)),
			BestDay:   peak.Date.Format(dayLabel),
			BestPrice: peak.PredictedPrice,
		}
	}
	return SellTimingRecommendation{
		Action:    ActionWaitWeek,
		Reason:    fmt.Sprintf("Prices expected to rise to ₹%.2f by %s. Hold your stock for the week if storage allows.", peak.PredictedPrice, peak.Date.Format(dayLabel)),
		BestDay:   peak.Date.Format(dayLabel),
		BestPrice: peak.PredictedPrice,
	}
}
