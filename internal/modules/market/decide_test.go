package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func forecastFrom(start time.Time, prices ...float64) []ForecastPoint {
	out := make([]ForecastPoint, len(prices))
	for i, p := range prices {
		out[i] = ForecastPoint{Date: start.AddDate(0, 0, i+1), PredictedPrice: p}
	}
	return out
}

func TestDecide(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		todayPrice float64
		prices     []float64
		wantAction string
	}{
		{
			name:       "near peak worth over 3 percent",
			todayPrice: 20,
			prices:     []float64{20.7, 20.1, 20.0, 19.9, 19.8, 19.7, 19.6},
			wantAction: ActionWait2Days,
		},
		{
			name:       "peak on second day still a short hold",
			todayPrice: 20,
			prices:     []float64{20.1, 20.7, 20.0, 19.9, 19.8, 19.7, 19.6},
			wantAction: ActionWait2Days,
		},
		{
			name:       "late peak means holding the week",
			todayPrice: 20,
			prices:     []float64{20.0, 20.1, 20.2, 20.3, 20.4, 20.7, 20.5},
			wantAction: ActionWaitWeek,
		},
		{
			name:       "peak under threshold sells today",
			todayPrice: 20,
			prices:     []float64{20.2, 20.1, 20.0, 19.9, 19.8, 19.7, 19.6},
			wantAction: ActionSellToday,
		},
		{
			name:       "peak exactly at threshold sells today",
			todayPrice: 20,
			prices:     []float64{20.6, 20.1, 20.0, 19.9, 19.8, 19.7, 19.6},
			wantAction: ActionSellToday,
		},
		{
			name:       "declining week sells today",
			todayPrice: 30,
			prices:     []float64{29, 28, 27, 26, 25, 24, 23},
			wantAction: ActionSellToday,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Decide(tt.todayPrice, forecastFrom(start, tt.prices...))
			assert.Equal(t, tt.wantAction, rec.Action)
			assert.NotEmpty(t, rec.Reason)
		})
	}

	t.Run("empty forecast sells today", func(t *testing.T) {
		rec := Decide(25, nil)
		assert.Equal(t, ActionSellToday, rec.Action)
		assert.Equal(t, "Today", rec.BestDay)
		assert.Equal(t, 25.0, rec.BestPrice)
	})

	t.Run("sell today reports current price", func(t *testing.T) {
		rec := Decide(20, forecastFrom(start, 19, 18, 17))
		assert.Equal(t, "Today", rec.BestDay)
		assert.Equal(t, 20.0, rec.BestPrice)
	})

	t.Run("wait reports peak day and price", func(t *testing.T) {
		rec := Decide(20, forecastFrom(start, 20, 20.1, 20.2, 20.3, 20.4, 22, 21))
		assert.Equal(t, ActionWaitWeek, rec.Action)
		assert.Equal(t, 22.0, rec.BestPrice)
		assert.Equal(t, start.AddDate(0, 0, 6).Format("Jan 02"), rec.BestDay)
		assert.Contains(t, rec.Reason, "22.00")
	})

	t.Run("tied peak picks the earliest day", func(t *testing.T) {
		rec := Decide(20, forecastFrom(start, 19, 22, 20, 22, 20, 22, 20))
		assert.Equal(t, ActionWait2Days, rec.Action)
		assert.Equal(t, start.AddDate(0, 0, 2).Format("Jan 02"), rec.BestDay)
	})
}
