package market

import "strings"

// PriceRange is the plausible wholesale price band for a crop in rupees/kg.
type PriceRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Midpoint returns the center of the band, the anchor for simulated walks.
func (r PriceRange) Midpoint() float64 {
	return (r.Low + r.High) / 2
}

// Width returns High - Low.
func (r PriceRange) Width() float64 {
	return r.High - r.Low
}

// DefaultPriceRange is used for crops absent from the table.
var DefaultPriceRange = PriceRange{Low: 20, High: 50}

// cropRanges holds the static per-crop price bands. Keys are lowercase.
var cropRanges = map[string]PriceRange{
	"tomato":      {Low: 15, High: 55},
	"onion":       {Low: 20, High: 60},
	"potato":      {Low: 18, High: 40},
	"wheat":       {Low: 22, High: 35},
	"rice":        {Low: 30, High: 50},
	"chilli":      {Low: 80, High: 200},
	"carrot":      {Low: 25, High: 50},
	"brinjal":     {Low: 20, High: 45},
	"cabbage":     {Low: 12, High: 30},
	"cauliflower": {Low: 25, High: 60},
	"banana":      {Low: 20, High: 45},
	"mango":       {Low: 40, High: 120},
	"grape":       {Low: 50, High: 150},
	"apple":       {Low: 80, High: 200},
	"sugarcane":   {Low: 3, High: 5},
}

// RangeFor looks up the price band for a crop, case-insensitively, falling
// back to DefaultPriceRange for unknown names.
func RangeFor(crop string) PriceRange {
	if r, ok := cropRanges[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return r
	}
	return DefaultPriceRange
}

// KnownCrops returns the crops with a configured price band, unordered.
func KnownCrops() []string {
	out := make([]string, 0, len(cropRanges))
	for name := range cropRanges {
		out = append(out, name)
	}
	return out
}
