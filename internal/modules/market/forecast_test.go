package market

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFrom(start time.Time, prices ...float64) []PricePoint {
	out := make([]PricePoint, len(prices))
	for i, p := range prices {
		out[i] = PricePoint{Date: start.AddDate(0, 0, i), Price: p}
	}
	return out
}

func TestProjectForward(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	band := PriceRange{Low: 20, High: 50}

	t.Run("empty series yields empty forecast", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		assert.Empty(t, ProjectForward(rng, nil, 7, 100, band))
	})

	t.Run("zero horizon yields empty forecast", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		series := seriesFrom(start, 30, 31)
		assert.Empty(t, ProjectForward(rng, series, 0, 100, band))
	})

	t.Run("horizon length and consecutive dates", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		series := seriesFrom(start, 30, 31, 32, 33, 34)
		fc := ProjectForward(rng, series, 7, 100, band)
		require.Len(t, fc, 7)
		last := series[len(series)-1].Date
		for i, fp := range fc {
			assert.Equal(t, last.AddDate(0, 0, i+1), fp.Date)
		}
	})

	t.Run("uptrend projects upward within jitter", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		series := seriesFrom(start, 30, 32, 34, 36, 38) // +2/day
		fc := ProjectForward(rng, series, 7, 0, band)
		for i, fp := range fc {
			expected := 38 + 2*float64(i+1)
			assert.InDelta(t, expected, fp.PredictedPrice, 0.51, "day %d", i+1)
		}
	})

	t.Run("single point projects flat", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		series := seriesFrom(start, 40)
		fc := ProjectForward(rng, series, 7, 0, band)
		for _, fp := range fc {
			assert.InDelta(t, 40, fp.PredictedPrice, 0.51)
		}
	})

	t.Run("floor clamp holds on a crash", func(t *testing.T) {
		rng := rand.New(rand.NewSource(5))
		series := seriesFrom(start, 50, 40, 30, 20, 15) // steep decline
		fc := ProjectForward(rng, series, 7, 0, band)
		for _, fp := range fc {
			assert.GreaterOrEqual(t, fp.PredictedPrice, band.Low*0.7)
		}
	})

	t.Run("no ceiling on a rally", func(t *testing.T) {
		rng := rand.New(rand.NewSource(5))
		series := seriesFrom(start, 40, 50, 60, 70, 80) // +10/day
		fc := ProjectForward(rng, series, 7, 0, band)
		last := fc[len(fc)-1].PredictedPrice
		assert.Greater(t, last, band.High*1.3, "uptrend should escape the history clamp")
	})

	t.Run("revenue is whole rupees", func(t *testing.T) {
		rng := rand.New(rand.NewSource(9))
		series := seriesFrom(start, 30, 31, 32, 33, 34)
		fc := ProjectForward(rng, series, 7, 250, band)
		for _, fp := range fc {
			assert.Equal(t, math.Round(fp.PredictedPrice*250), fp.ExpectedRevenue)
			assert.Equal(t, fp.ExpectedRevenue, math.Trunc(fp.ExpectedRevenue))
		}
	})

	t.Run("zero quantity omits revenue", func(t *testing.T) {
		rng := rand.New(rand.NewSource(9))
		series := seriesFrom(start, 30, 31)
		fc := ProjectForward(rng, series, 3, 0, band)
		for _, fp := range fc {
			assert.Zero(t, fp.ExpectedRevenue)
		}
	})

	t.Run("same seed reproduces", func(t *testing.T) {
		series := seriesFrom(start, 30, 31, 32, 33, 34)
		a := ProjectForward(rand.New(rand.NewSource(42)), series, 7, 100, band)
		b := ProjectForward(rand.New(rand.NewSource(42)), series, 7, 100, band)
		assert.Equal(t, a, b)
	})
}
