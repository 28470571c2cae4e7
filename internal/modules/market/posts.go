package market

import (
	"math"
	"math/rand"
	"sort"
)

// tradingPosts is the static table of known mandis around Bangalore.
// IDs are stable and referenced by clients; never renumber.
var tradingPosts = []TradingPost{
	{ID: 1, Name: "APMC Yeshwanthpur", Lat: 13.0220, Lng: 77.5513, District: "Bangalore Urban"},
	{ID: 2, Name: "KR Market", Lat: 12.9634, Lng: 77.5779, District: "Bangalore Urban"},
	{ID: 3, Name: "Bangalore APMC Binny Mill", Lat: 12.9780, Lng: 77.5726, District: "Bangalore Urban"},
	{ID: 4, Name: "Chikkaballapur Mandi", Lat: 13.4355, Lng: 77.7270, District: "Chikkaballapur"},
	{ID: 5, Name: "Kolar Mandi", Lat: 13.1362, Lng: 78.1296, District: "Kolar"},
	{ID: 6, Name: "Tumkur APMC", Lat: 13.3392, Lng: 77.1010, District: "Tumkur"},
	{ID: 7, Name: "Mysore Mandi", Lat: 12.3051, Lng: 76.6551, District: "Mysore"},
	{ID: 8, Name: "Mandya APMC", Lat: 12.5218, Lng: 76.8951, District: "Mandya"},
}

// Posts returns a copy of the static trading post table.
func Posts() []TradingPost {
	out := make([]TradingPost, len(tradingPosts))
	copy(out, tradingPosts)
	return out
}

// PostNames returns the post names in table order. Per-post simulations
// draw walks in this order, so it doubles as the canonical ordering.
func PostNames() []string {
	names := make([]string, len(tradingPosts))
	for i, p := range tradingPosts {
		names[i] = p.Name
	}
	return names
}

// PostByID returns the post with the given ID, or false when unknown.
func PostByID(id int) (TradingPost, bool) {
	for _, p := range tradingPosts {
		if p.ID == id {
			return p, true
		}
	}
	return TradingPost{}, false
}

// RankPosts annotates every post with its distance from origin plus simulated
// price, transport cost and travel time for the crop, and returns them sorted
// nearest first. Equidistant posts keep table order. The caller supplies the
// generator, so ranking itself stays deterministic under a fixed seed; the
// service layer passes a time-seeded one since these figures are advisory.
func RankPosts(rng *rand.Rand, origin Coordinate, crop string, posts []TradingPost) []RankedPost {
	band := RangeFor(crop)

	ranked := make([]RankedPost, 0, len(posts))
	for _, p := range posts {
		dist := Haversine(origin, p.Location())
		ranked = append(ranked, RankedPost{
			TradingPost:   p,
			DistanceKm:    dist,
			PricePerKg:    round2(band.Low + rng.Float64()*band.Width()),
			TransportCost: math.Round(dist*2.5 + 100 + rng.Float64()*400),
			TravelTimeMin: math.Round(dist*1.8 + 10 + rng.Float64()*20),
		})
	}

	// Sort on the exact distance, then present it rounded.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})
	for i := range ranked {
		ranked[i].DistanceKm = round2(ranked[i].DistanceKm)
	}
	return ranked
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
