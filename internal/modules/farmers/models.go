// Package farmers holds farmer profiles and their registered crops.
package farmers

// Profile is a farmer's row, linked one-to-one with a user account.
type Profile struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Language string `json:"language"`
}

// Crop is a crop a farmer has registered for advisory runs.
type Crop struct {
	ID          int64   `json:"id"`
	FarmerID    int64   `json:"farmer_id"`
	Name        string  `json:"name"`
	QuantityKg  float64 `json:"quantity_kg"`
	PlantedDate string  `json:"planted_date,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

// AdvisoryTarget is a farmer joined with the account's registered location.
// The morning advisory sweep analyzes every target's crops from this origin.
type AdvisoryTarget struct {
	FarmerID  int64
	UserID    int64
	Latitude  float64
	Longitude float64
}
