package market

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// smaWindow is the smoothing window for the trend line.
const smaWindow = 7

// SeriesStats summarizes a simulated price history for dashboards and the
// advisory prompt context.
type SeriesStats struct {
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"std_dev"`
	Volatility float64 `json:"volatility"` // coefficient of variation
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Change     float64 `json:"change"`     // last minus first
	ChangePct  float64 `json:"change_pct"` // relative to first
	SMA        float64 `json:"sma"`        // latest 7-day moving average
}

// AnalyzeSeries computes summary statistics over a price series. An empty
// series yields zeroes; series shorter than the smoothing window fall back
// to the plain mean for the SMA.
func AnalyzeSeries(series []PricePoint) SeriesStats {
	if len(series) == 0 {
		return SeriesStats{}
	}

	prices := make([]float64, len(series))
	min, max := series[0].Price, series[0].Price
	for i, p := range series {
		prices[i] = p.Price
		if p.Price < min {
			min = p.Price
		}
		if p.Price > max {
			max = p.Price
		}
	}

	mean := stat.Mean(prices, nil)
	sd := 0.0
	if len(prices) > 1 {
		sd = stat.StdDev(prices, nil)
	}
	vol := 0.0
	if mean != 0 {
		vol = sd / mean
	}

	first, last := prices[0], prices[len(prices)-1]
	changePct := 0.0
	if first != 0 {
		changePct = (last - first) / first * 100
	}

	sma := mean
	if len(prices) >= smaWindow {
		smoothed := talib.Sma(prices, smaWindow)
		sma = smoothed[len(smoothed)-1]
	}

	return SeriesStats{
		Mean:       round2(mean),
		StdDev:     round2(sd),
		Volatility: round4(vol),
		Min:        min,
		Max:        max,
		Change:     round2(last - first),
		ChangePct:  round2(changePct),
		SMA:        round2(sma),
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
