package retailers

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles retailer profile, inventory and mandi order persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a retailers repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "retailers").Logger(),
	}
}

// CreateProfile inserts the retailer row for a user account.
func (r *Repository) CreateProfile(userID int64, shopName string) error {
	_, err := r.db.Exec(`INSERT INTO retailers (user_id, shop_name) VALUES (?, ?)`, userID, shopName)
	if err != nil {
		return fmt.Errorf("failed to create retailer profile: %w", err)
	}
	return nil
}

// GetProfileByUserID returns the profile for a user, or nil when missing.
func (r *Repository) GetProfileByUserID(userID int64) (*Profile, error) {
	var p Profile
	err := r.db.QueryRow(`
		SELECT id, user_id, COALESCE(shop_name, '') FROM retailers WHERE user_id = ?
	`, userID).Scan(&p.ID, &p.UserID, &p.ShopName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get retailer profile: %w", err)
	}
	return &p, nil
}

// ListProfiles returns all retailer profiles, for the demand agent.
func (r *Repository) ListProfiles() ([]Profile, error) {
	rows, err := r.db.Query(`SELECT id, user_id, COALESCE(shop_name, '') FROM retailers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list retailer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.UserID, &p.ShopName); err != nil {
			return nil, fmt.Errorf("failed to scan retailer profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateShopName renames the retailer's shop.
func (r *Repository) UpdateShopName(userID int64, shopName string) error {
	_, err := r.db.Exec(`UPDATE retailers SET shop_name = ? WHERE user_id = ?`, shopName, userID)
	if err != nil {
		return fmt.Errorf("failed to update shop name: %w", err)
	}
	return nil
}

// UpsertItem creates or updates a shop inventory line.
func (r *Repository) UpsertItem(retailerID int64, itemName string, qtyKg float64) error {
	_, err := r.db.Exec(`
		INSERT INTO retailer_items (retailer_id, item_name, quantity_kg, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(retailer_id, item_name) DO UPDATE SET
			quantity_kg = excluded.quantity_kg,
			updated_at = excluded.updated_at
	`, retailerID, itemName, qtyKg, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert retailer item: %w", err)
	}
	return nil
}

// ListItems returns a retailer's inventory, alphabetically.
func (r *Repository) ListItems(retailerID int64) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, retailer_id, item_name, quantity_kg, updated_at
		FROM retailer_items WHERE retailer_id = ? ORDER BY item_name
	`, retailerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list retailer items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.RetailerID, &it.ItemName, &it.QuantityKg, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan retailer item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteItem removes an inventory line scoped to its retailer.
func (r *Repository) DeleteItem(id, retailerID int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM retailer_items WHERE id = ? AND retailer_id = ?`, id, retailerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete retailer item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// CreateMandiOrder inserts an order placed with a mandi.
func (r *Repository) CreateMandiOrder(o *MandiOrder) (int64, error) {
	if o.Status == "" {
		o.Status = OrderPending
	}
	res, err := r.db.Exec(`
		INSERT INTO retailer_mandi_orders
			(retailer_id, mandi_owner_id, item, quantity_kg, price_per_kg, status, order_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.RetailerID, o.MandiOwnerID, o.Item, o.QuantityKg, o.PricePerKg, o.Status, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to create mandi order: %w", err)
	}
	return res.LastInsertId()
}

// ListOrdersByRetailer returns a retailer's orders, newest first.
func (r *Repository) ListOrdersByRetailer(retailerID int64) ([]MandiOrder, error) {
	return r.listOrders(`retailer_id = ?`, retailerID)
}

// ListOrdersByMandi returns the orders addressed to a mandi owner.
func (r *Repository) ListOrdersByMandi(mandiOwnerID int64) ([]MandiOrder, error) {
	return r.listOrders(`mandi_owner_id = ?`, mandiOwnerID)
}

func (r *Repository) listOrders(where string, arg int64) ([]MandiOrder, error) {
	rows, err := r.db.Query(`
		SELECT id, retailer_id, mandi_owner_id, item, quantity_kg, price_per_kg, status, order_date
		FROM retailer_mandi_orders WHERE `+where+` ORDER BY order_date DESC, id DESC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list mandi orders: %w", err)
	}
	defer rows.Close()

	var orders []MandiOrder
	for rows.Next() {
		var o MandiOrder
		if err := rows.Scan(&o.ID, &o.RetailerID, &o.MandiOwnerID, &o.Item, &o.QuantityKg,
			&o.PricePerKg, &o.Status, &o.OrderDate); err != nil {
			return nil, fmt.Errorf("failed to scan mandi order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatusByRetailer transitions an order, scoped to its retailer.
func (r *Repository) UpdateOrderStatusByRetailer(id, retailerID int64, status string) (bool, error) {
	return r.updateStatus(`id = ? AND retailer_id = ?`, id, retailerID, status)
}

// UpdateOrderStatusByMandi transitions an order, scoped to the mandi owner
// it was addressed to.
func (r *Repository) UpdateOrderStatusByMandi(id, mandiOwnerID int64, status string) (bool, error) {
	return r.updateStatus(`id = ? AND mandi_owner_id = ?`, id, mandiOwnerID, status)
}

func (r *Repository) updateStatus(where string, id, scope int64, status string) (bool, error) {
	if !ValidStatus(status) {
		return false, fmt.Errorf("invalid order status %q", status)
	}
	res, err := r.db.Exec(`UPDATE retailer_mandi_orders SET status = ? WHERE `+where, status, id, scope)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}
