package retailers

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
		CREATE TABLE retailers (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id   INTEGER NOT NULL UNIQUE,
			shop_name TEXT
		);
		CREATE TABLE retailer_items (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			retailer_id INTEGER NOT NULL,
			item_name   TEXT NOT NULL,
			quantity_kg REAL NOT NULL DEFAULT 0,
			updated_at  INTEGER NOT NULL,
			UNIQUE(retailer_id, item_name)
		);
		CREATE TABLE retailer_mandi_orders (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			retailer_id    INTEGER NOT NULL,
			mandi_owner_id INTEGER NOT NULL,
			item           TEXT NOT NULL,
			quantity_kg    REAL NOT NULL,
			price_per_kg   REAL NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
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

func TestRetailerProfiles(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.CreateProfile(7, "Fresh Greens"))

	p, err := repo.GetProfileByUserID(7)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Fresh Greens", p.ShopName)

	require.NoError(t, repo.UpdateShopName(7, "Fresh Greens & Fruits"))
	p, err = repo.GetProfileByUserID(7)
	require.NoError(t, err)
	assert.Equal(t, "Fresh Greens & Fruits", p.ShopName)

	profiles, err := repo.ListProfiles()
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestRetailerItems(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateProfile(1, "Shop"))
	profile, err := repo.GetProfileByUserID(1)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertItem(profile.ID, "tomato", 40))
	require.NoError(t, repo.UpsertItem(profile.ID, "tomato", 25))

	items, err := repo.ListItems(profile.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 25.0, items[0].QuantityKg)

	ok, err := repo.DeleteItem(items[0].ID, profile.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMandiOrders(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.CreateProfile(1, "Shop"))
	profile, err := repo.GetProfileByUserID(1)
	require.NoError(t, err)

	const mandiOwnerID = int64(3)

	id, err := repo.CreateMandiOrder(&MandiOrder{
		RetailerID:   profile.ID,
		MandiOwnerID: mandiOwnerID,
		Item:         "onion",
		QuantityKg:   120,
		PricePerKg:   32,
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	t.Run("both sides see the order", func(t *testing.T) {
		mine, err := repo.ListOrdersByRetailer(profile.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, OrderPending, mine[0].Status)

		theirs, err := repo.ListOrdersByMandi(mandiOwnerID)
		require.NoError(t, err)
		assert.Len(t, theirs, 1)
	})

	t.Run("mandi accepts, retailer completes", func(t *testing.T) {
		ok, err := repo.UpdateOrderStatusByMandi(id, mandiOwnerID, OrderAccepted)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.UpdateOrderStatusByRetailer(id, profile.ID, OrderCompleted)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("scope enforced", func(t *testing.T) {
		ok, err := repo.UpdateOrderStatusByMandi(id, 999, OrderRejected)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := repo.UpdateOrderStatusByRetailer(id, profile.ID, "teleported")
		assert.Error(t, err)
	})
}
