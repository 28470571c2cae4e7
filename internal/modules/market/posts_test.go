package market

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankPosts(t *testing.T) {
	origin := DefaultOrigin

	t.Run("covers every post sorted by distance", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		ranked := RankPosts(rng, origin, "tomato", tradingPosts)
		require.Len(t, ranked, len(tradingPosts))

		assert.True(t, sort.SliceIsSorted(ranked, func(i, j int) bool {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}))

		seen := make(map[int]bool)
		for _, p := range ranked {
			seen[p.ID] = true
		}
		assert.Len(t, seen, len(tradingPosts))
	})

	t.Run("nearest from central Bangalore is KR Market", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))
		ranked := RankPosts(rng, origin, "tomato", tradingPosts)
		assert.Equal(t, "KR Market", ranked[0].Name)
	})

	t.Run("prices fall inside the crop band", func(t *testing.T) {
		rng := rand.New(rand.NewSource(2))
		band := RangeFor("chilli")
		for _, p := range RankPosts(rng, origin, "chilli", tradingPosts) {
			assert.GreaterOrEqual(t, p.PricePerKg, band.Low)
			assert.LessOrEqual(t, p.PricePerKg, band.High)
		}
	})

	t.Run("costs grow with distance", func(t *testing.T) {
		rng := rand.New(rand.NewSource(3))
		for _, p := range RankPosts(rng, origin, "tomato", tradingPosts) {
			assert.GreaterOrEqual(t, p.TransportCost, p.DistanceKm*2.5+100-0.5)
			assert.LessOrEqual(t, p.TransportCost, p.DistanceKm*2.5+500+0.5)
			assert.GreaterOrEqual(t, p.TravelTimeMin, p.DistanceKm*1.8+10-0.5)
			assert.LessOrEqual(t, p.TravelTimeMin, p.DistanceKm*1.8+30+0.5)
		}
	})

	t.Run("empty table yields empty ranking", func(t *testing.T) {
		rng := rand.New(rand.NewSource(4))
		assert.Empty(t, RankPosts(rng, origin, "tomato", nil))
	})

	t.Run("rounded figures", func(t *testing.T) {
		rng := rand.New(rand.NewSource(5))
		for _, p := range RankPosts(rng, origin, "tomato", tradingPosts) {
			assert.InDelta(t, p.DistanceKm, round2(p.DistanceKm), 1e-9)
			assert.InDelta(t, p.PricePerKg, round2(p.PricePerKg), 1e-9)
			assert.Equal(t, p.TransportCost, float64(int64(p.TransportCost)))
			assert.Equal(t, p.TravelTimeMin, float64(int64(p.TravelTimeMin)))
		}
	})
}

func TestPostByID(t *testing.T) {
	p, ok := PostByID(7)
	require.True(t, ok)
	assert.Equal(t, "Mysore Mandi", p.Name)
	assert.Equal(t, "Mysore", p.District)

	_, ok = PostByID(99)
	assert.False(t, ok)
}

func TestPostNames(t *testing.T) {
	names := PostNames()
	require.Len(t, names, len(tradingPosts))
	assert.Equal(t, "APMC Yeshwanthpur", names[0])
	assert.Equal(t, "Mandya APMC", names[len(names)-1])
}

func TestPostsReturnsCopy(t *testing.T) {
	a := Posts()
	a[0].Name = "mutated"
	b := Posts()
	assert.Equal(t, "APMC Yeshwanthpur", b[0].Name)
}

func TestRangeFor(t *testing.T) {
	tests := []struct {
		crop string
		want PriceRange
	}{
		{"tomato", PriceRange{15, 55}},
		{"Tomato", PriceRange{15, 55}},
		{" CHILLI ", PriceRange{80, 200}},
		{"sugarcane", PriceRange{3, 5}},
		{"durian", DefaultPriceRange},
		{"", DefaultPriceRange},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RangeFor(tt.crop), "crop %q", tt.crop)
	}
}
