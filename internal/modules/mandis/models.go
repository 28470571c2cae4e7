// Package mandis holds mandi owner profiles, their inventory and the orders
// they place with farmers.
package mandis

// Order lifecycle states.
const (
	OrderPending   = "pending"
	OrderAccepted  = "accepted"
	OrderRejected  = "rejected"
	OrderCompleted = "completed"
)

// ValidStatus reports whether s is a known order state.
func ValidStatus(s string) bool {
	switch s {
	case OrderPending, OrderAccepted, OrderRejected, OrderCompleted:
		return true
	}
	return false
}

// OwnerProfile is a mandi owner's row, linked one-to-one with a user account.
type OwnerProfile struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	MandiName string `json:"mandi_name"`
}

// Item is one inventory line at a mandi.
type Item struct {
	ID           int64   `json:"id"`
	MandiOwnerID int64   `json:"mandi_owner_id"`
	ItemName     string  `json:"item_name"`
	CurrentQtyKg float64 `json:"current_qty_kg"`
	UpdatedAt    int64   `json:"updated_at"`
}

// FarmerOrder is an order a mandi owner places with a farmer, including the
// pickup and delivery coordinates used for logistics.
type FarmerOrder struct {
	ID           int64   `json:"id"`
	MandiOwnerID int64   `json:"mandi_owner_id"`
	FarmerID     int64   `json:"farmer_id"`
	Item         string  `json:"item"`
	QuantityKg   float64 `json:"quantity_kg"`
	PricePerKg   float64 `json:"price_per_kg"`
	SourceLat    float64 `json:"source_lat"`
	SourceLng    float64 `json:"source_lng"`
	DestLat      float64 `json:"dest_lat"`
	DestLng      float64 `json:"dest_lng"`
	Status       string  `json:"status"`
	StartTime    int64   `json:"start_time,omitempty"`
	OrderDate    int64   `json:"order_date"`
}

// DemandEntry compares ordered quantity against current stock for one item.
type DemandEntry struct {
	Item      string  `json:"item"`
	OrderedKg float64 `json:"ordered_kg"`
	StockKg   float64 `json:"stock_kg"`
	GapKg     float64 `json:"gap_kg"`
}
