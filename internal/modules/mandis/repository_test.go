package mandis

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE mandi_owners (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL UNIQUE,
			mandi_name TEXT
		);
		CREATE TABLE mandi_items (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			mandi_owner_id INTEGER NOT NULL,
			item_name      TEXT NOT NULL,
			current_qty_kg REAL NOT NULL DEFAULT 0,
			updated_at     INTEGER NOT NULL,
			UNIQUE(mandi_owner_id, item_name)
		);
		CREATE TABLE mandi_farmer_orders (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			mandi_owner_id INTEGER NOT NULL,
			farmer_id      INTEGER NOT NULL,
			item           TEXT NOT NULL,
			quantity_kg    REAL NOT NULL,
			price_per_kg   REAL NOT NULL,
			source_lat     REAL,
			source_lng     REAL,
			dest_lat       REAL,
			dest_lng       REAL,
			status         TEXT NOT NULL DEFAULT 'pending',
			start_time     INTEGER,
			order_date     INTEGER NOT NULL
		);
	`)
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(setupTestDB(t), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestOwnerProfiles(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateProfile(5, "KR Market Stall 12"))

	p, err := repo.GetProfileByUserID(5)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "KR Market Stall 12", p.MandiName)

	require.NoError(t, repo.UpdateMandiName(5, "KR Market Stall 14"))
	p, err = repo.GetProfileByUserID(5)
	require.NoError(t, err)
	assert.Equal(t, "KR Market Stall 14", p.MandiName)

	missing, err := repo.GetProfileByUserID(99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestItems(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateProfile(1, "Test Mandi"))
	profile, err := repo.GetProfileByUserID(1)
	require.NoError(t, err)

	t.Run("upsert inserts then updates", func(t *testing.T) {
		require.NoError(t, repo.UpsertItem(profile.ID, "tomato", 500))
		require.NoError(t, repo.UpsertItem(profile.ID, "onion", 300))
		require.NoError(t, repo.UpsertItem(profile.ID, "tomato", 450))

		items, err := repo.ListItems(profile.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)

		// Alphabetical: onion before tomato.
		assert.Equal(t, "onion", items[0].ItemName)
		assert.Equal(t, "tomato", items[1].ItemName)
		assert.Equal(t, 450.0, items[1].CurrentQtyKg)
	})

	t.Run("total stock across mandis", func(t *testing.T) {
		require.NoError(t, repo.CreateProfile(2, "Second Mandi"))
		second, err := repo.GetProfileByUserID(2)
		require.NoError(t, err)
		require.NoError(t, repo.UpsertItem(second.ID, "tomato", 100))

		total, err := repo.TotalStock("tomato")
		require.NoError(t, err)
		assert.Equal(t, 550.0, total)

		total, err = repo.TotalStock("durian")
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("delete", func(t *testing.T) {
		items, err := repo.ListItems(profile.ID)
		require.NoError(t, err)

		ok, err := repo.DeleteItem(items[0].ID, profile.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DeleteItem(items[0].ID, profile.ID)
		require.NoError(t, err)
		assert.False(t, ok, "already deleted")
	})
}

func TestFarmerOrders(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateProfile(1, "Test Mandi"))
	profile, err := repo.GetProfileByUserID(1)
	require.NoError(t, err)

	const farmerID = int64(42)

	t.Run("create defaults to pending", func(t *testing.T) {
		id, err := repo.CreateFarmerOrder(&FarmerOrder{
			MandiOwnerID: profile.ID,
			FarmerID:     farmerID,
			Item:         "tomato",
			QuantityKg:   200,
			PricePerKg:   28.5,
			SourceLat:    12.90,
			SourceLng:    77.50,
			DestLat:      12.96,
			DestLng:      77.58,
		})
		require.NoError(t, err)
		assert.NotZero(t, id)

		orders, err := repo.ListOrdersByOwner(profile.ID)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, OrderPending, orders[0].Status)
		assert.Equal(t, 28.5, orders[0].PricePerKg)
	})

	t.Run("farmer sees incoming orders", func(t *testing.T) {
		orders, err := repo.ListOrdersByFarmer(farmerID)
		require.NoError(t, err)
		assert.Len(t, orders, 1)

		none, err := repo.ListOrdersByFarmer(999)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("status transitions scoped by actor", func(t *testing.T) {
		orders, err := repo.ListOrdersByOwner(profile.ID)
		require.NoError(t, err)
		orderID := orders[0].ID

		ok, err := repo.UpdateOrderStatusByFarmer(orderID, farmerID, OrderAccepted)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.UpdateOrderStatusByFarmer(orderID, 999, OrderRejected)
		require.NoError(t, err)
		assert.False(t, ok, "other farmers cannot touch the order")

		ok, err = repo.UpdateOrderStatusByOwner(orderID, profile.ID, OrderCompleted)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = repo.UpdateOrderStatusByOwner(orderID, profile.ID, "shipped")
		assert.Error(t, err, "unknown status rejected")
	})
}

func TestDemand(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateProfile(1, "Test Mandi"))
	profile, err := repo.GetProfileByUserID(1)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertItem(profile.ID, "tomato", 100))

	mk := func(item string, qty float64, status string) {
		t.Helper()
		id, err := repo.CreateFarmerOrder(&FarmerOrder{
			MandiOwnerID: profile.ID, FarmerID: 1, Item: item, QuantityKg: qty, PricePerKg: 20,
		})
		require.NoError(t, err)
		if status != OrderPending {
			_, err = repo.UpdateOrderStatusByOwner(id, profile.ID, status)
			require.NoError(t, err)
		}
	}

	mk("tomato", 80, OrderPending)
	mk("tomato", 70, OrderAccepted)
	mk("tomato", 50, OrderRejected) // excluded
	mk("onion", 40, OrderPending)   // no stock row

	entries, err := repo.Demand(profile.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Alphabetical: onion first.
	assert.Equal(t, "onion", entries[0].Item)
	assert.Equal(t, 40.0, entries[0].OrderedKg)
	assert.Zero(t, entries[0].StockKg)
	assert.Equal(t, 40.0, entries[0].GapKg)

	assert.Equal(t, "tomato", entries[1].Item)
	assert.Equal(t, 150.0, entries[1].OrderedKg)
	assert.Equal(t, 100.0, entries[1].StockKg)
	assert.Equal(t, 50.0, entries[1].GapKg)
}
