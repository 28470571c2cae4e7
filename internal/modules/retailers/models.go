// Package retailers holds retailer profiles, shop inventory and the orders
// retailers place with mandis.
package retailers

// Order lifecycle states, mirroring the mandi-farmer lifecycle.
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

// Profile is a retailer's row, linked one-to-one with a user account.
type Profile struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	ShopName string `json:"shop_name"`
}

// Item is one shop inventory line.
type Item struct {
	ID         int64   `json:"id"`
	RetailerID int64   `json:"retailer_id"`
	ItemName   string  `json:"item_name"`
	QuantityKg float64 `json:"quantity_kg"`
	UpdatedAt  int64   `json:"updated_at"`
}

// MandiOrder is an order a retailer places with a mandi.
type MandiOrder struct {
	ID           int64   `json:"id"`
	RetailerID   int64   `json:"retailer_id"`
	MandiOwnerID int64   `json:"mandi_owner_id"`
	Item         string  `json:"item"`
	QuantityKg   float64 `json:"quantity_kg"`
	PricePerKg   float64 `json:"price_per_kg"`
	Status       string  `json:"status"`
	OrderDate    int64   `json:"order_date"`
}
