package mandis

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Repository handles mandi owner, inventory and farmer order persistence.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a mandis repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "mandis").Logger(),
	}
}

// CreateProfile inserts the mandi owner row for a user account.
func (r *Repository) CreateProfile(userID int64, mandiName string) error {
	_, err := r.db.Exec(`INSERT INTO mandi_owners (user_id, mandi_name) VALUES (?, ?)`, userID, mandiName)
	if err != nil {
		return fmt.Errorf("failed to create mandi owner profile: %w", err)
	}
	return nil
}

// GetProfileByUserID returns the owner profile for a user, or nil when missing.
func (r *Repository) GetProfileByUserID(userID int64) (*OwnerProfile, error) {
	var p OwnerProfile
	err := r.db.QueryRow(`
		SELECT id, user_id, COALESCE(mandi_name, '') FROM mandi_owners WHERE user_id = ?
	`, userID).Scan(&p.ID, &p.UserID, &p.MandiName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mandi owner profile: %w", err)
	}
	return &p, nil
}

// UpdateMandiName renames the owner's mandi.
func (r *Repository) UpdateMandiName(userID int64, mandiName string) error {
	_, err := r.db.Exec(`UPDATE mandi_owners SET mandi_name = ? WHERE user_id = ?`, mandiName, userID)
	if err != nil {
		return fmt.Errorf("failed to update mandi name: %w", err)
	}
	return nil
}

// UpsertItem creates or updates an inventory line for an owner.
func (r *Repository) UpsertItem(ownerID int64, itemName string, qtyKg float64) error {
	_, err := r.db.Exec(`
		INSERT INTO mandi_items (mandi_owner_id, item_name, current_qty_kg, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mandi_owner_id, item_name) DO UPDATE SET
			current_qty_kg = excluded.current_qty_kg,
			updated_at = excluded.updated_at
	`, ownerID, itemName, qtyKg, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert mandi item: %w", err)
	}
	return nil
}

// ListItems returns an owner's inventory, alphabetically.
func (r *Repository) ListItems(ownerID int64) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, mandi_owner_id, item_name, current_qty_kg, updated_at
		FROM mandi_items WHERE mandi_owner_id = ? ORDER BY item_name
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mandi items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.MandiOwnerID, &it.ItemName, &it.CurrentQtyKg, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mandi item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteItem removes an inventory line scoped to its owner.
func (r *Repository) DeleteItem(id, ownerID int64) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM mandi_items WHERE id = ? AND mandi_owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete mandi item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// TotalStock sums an item's stock across every mandi. Used by the retailer
// demand agent to spot supply shortfalls.
func (r *Repository) TotalStock(itemName string) (float64, error) {
	var total float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(current_qty_kg), 0) FROM mandi_items WHERE item_name = ?
	`, itemName).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to total stock for %s: %w", itemName, err)
	}
	return total, nil
}

// CreateFarmerOrder inserts an order placed with a farmer.
func (r *Repository) CreateFarmerOrder(o *FarmerOrder) (int64, error) {
	if o.Status == "" {
		o.Status = OrderPending
	}
	res, err := r.db.Exec(`
		INSERT INTO mandi_farmer_orders
			(mandi_owner_id, farmer_id, item, quantity_kg, price_per_kg,
			 source_lat, source_lng, dest_lat, dest_lng, status, start_time, order_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.MandiOwnerID, o.FarmerID, o.Item, o.QuantityKg, o.PricePerKg,
		o.SourceLat, o.SourceLng, o.DestLat, o.DestLng, o.Status, o.StartTime, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to create farmer order: %w", err)
	}
	return res.LastInsertId()
}

// ListOrdersByOwner returns an owner's orders, newest first.
func (r *Repository) ListOrdersByOwner(ownerID int64) ([]FarmerOrder, error) {
	return r.listOrders(`mandi_owner_id = ?`, ownerID)
}

// ListOrdersByFarmer returns the orders addressed to a farmer, newest first.
func (r *Repository) ListOrdersByFarmer(farmerID int64) ([]FarmerOrder, error) {
	return r.listOrders(`farmer_id = ?`, farmerID)
}

func (r *Repository) listOrders(where string, arg int64) ([]FarmerOrder, error) {
	rows, err := r.db.Query(`
		SELECT id, mandi_owner_id, farmer_id, item, quantity_kg, price_per_kg,
		       COALESCE(source_lat, 0), COALESCE(source_lng, 0),
		       COALESCE(dest_lat, 0), COALESCE(dest_lng, 0),
		       status, COALESCE(start_time, 0), order_date
		FROM mandi_farmer_orders WHERE `+where+` ORDER BY order_date DESC, id DESC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list farmer orders: %w", err)
	}
	defer rows.Close()

	var orders []FarmerOrder
	for rows.Next() {
		var o FarmerOrder
		if err := rows.Scan(&o.ID, &o.MandiOwnerID, &o.FarmerID, &o.Item, &o.QuantityKg, &o.PricePerKg,
			&o.SourceLat, &o.SourceLng, &o.DestLat, &o.DestLng, &o.Status, &o.StartTime, &o.OrderDate); err != nil {
			return nil, fmt.Errorf("failed to scan farmer order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatusByOwner transitions an order, scoped to the owning mandi.
func (r *Repository) UpdateOrderStatusByOwner(id, ownerID int64, status string) (bool, error) {
	return r.updateStatus(`id = ? AND mandi_owner_id = ?`, id, ownerID, status)
}

// UpdateOrderStatusByFarmer transitions an order, scoped to the farmer it
// was addressed to. Farmers accept or reject incoming orders.
func (r *Repository) UpdateOrderStatusByFarmer(id, farmerID int64, status string) (bool, error) {
	return r.updateStatus(`id = ? AND farmer_id = ?`, id, farmerID, status)
}

func (r *Repository) updateStatus(where string, id, scope int64, status string) (bool, error) {
	if !ValidStatus(status) {
		return false, fmt.Errorf("invalid order status %q", status)
	}
	res, err := r.db.Exec(`UPDATE mandi_farmer_orders SET status = ? WHERE `+where, status, id, scope)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, nil
	}
	return n > 0, nil
}

// Demand aggregates open ordered quantity against stock per item for an owner.
func (r *Repository) Demand(ownerID int64) ([]DemandEntry, error) {
	rows, err := r.db.Query(`
		SELECT o.item,
		       SUM(o.quantity_kg) AS ordered_kg,
		       COALESCE(MAX(i.current_qty_kg), 0) AS stock_kg
		FROM mandi_farmer_orders o
		LEFT JOIN mandi_items i
			ON i.mandi_owner_id = o.mandi_owner_id AND i.item_name = o.item
		WHERE o.mandi_owner_id = ? AND o.status IN (?, ?)
		GROUP BY o.item
		ORDER BY o.item
	`, ownerID, OrderPending, OrderAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate demand: %w", err)
	}
	defer rows.Close()

	var entries []DemandEntry
	for rows.Next() {
		var e DemandEntry
		if err := rows.Scan(&e.Item, &e.OrderedKg, &e.StockKg); err != nil {
			return nil, fmt.Errorf("failed to scan demand row: %w", err)
		}
		e.GapKg = e.OrderedKg - e.StockKg
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
