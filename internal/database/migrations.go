package database

import (
	"database/sql"
	"fmt"
)

// schema is the single source of truth for the application database.
// Statements are idempotent so Migrate can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL CHECK(role IN ('farmer','mandi_owner','retailer','admin')),
	contact       TEXT,
	latitude      REAL,
	longitude     REAL,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	token      TEXT PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);

CREATE TABLE IF NOT EXISTS farmers (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id  INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	language TEXT NOT NULL DEFAULT 'en'
);

CREATE TABLE IF NOT EXISTS crops (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	farmer_id    INTEGER NOT NULL REFERENCES farmers(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	quantity_kg  REAL NOT NULL DEFAULT 0,
	planted_date TEXT,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_crops_farmer ON crops(farmer_id);

CREATE TABLE IF NOT EXISTS mandi_owners (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	mandi_name TEXT
);

CREATE TABLE IF NOT EXISTS mandi_items (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	mandi_owner_id INTEGER NOT NULL REFERENCES mandi_owners(id) ON DELETE CASCADE,
	item_name      TEXT NOT NULL,
	current_qty_kg REAL NOT NULL DEFAULT 0,
	updated_at     INTEGER NOT NULL,
	UNIQUE(mandi_owner_id, item_name)
);

CREATE TABLE IF NOT EXISTS mandi_farmer_orders (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	mandi_owner_id INTEGER NOT NULL REFERENCES mandi_owners(id) ON DELETE CASCADE,
	farmer_id      INTEGER NOT NULL REFERENCES farmers(id) ON DELETE CASCADE,
	item           TEXT NOT NULL,
	quantity_kg    REAL NOT NULL CHECK(quantity_kg > 0),
	price_per_kg   REAL NOT NULL CHECK(price_per_kg > 0),
	source_lat     REAL,
	source_lng     REAL,
	dest_lat       REAL,
	dest_lng       REAL,
	status         TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','accepted','rejected','completed')),
	start_time     INTEGER,
	order_date     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mfo_mandi ON mandi_farmer_orders(mandi_owner_id);
CREATE INDEX IF NOT EXISTS idx_mfo_farmer ON mandi_farmer_orders(farmer_id);

CREATE TABLE IF NOT EXISTS retailers (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id   INTEGER NOT NULL UNIQUE REFERENCES users(id) ON DELETE CASCADE,
	shop_name TEXT
);

CREATE TABLE IF NOT EXISTS retailer_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	retailer_id INTEGER NOT NULL REFERENCES retailers(id) ON DELETE CASCADE,
	item_name   TEXT NOT NULL,
	quantity_kg REAL NOT NULL DEFAULT 0,
	updated_at  INTEGER NOT NULL,
	UNIQUE(retailer_id, item_name)
);

CREATE TABLE IF NOT EXISTS retailer_mandi_orders (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	retailer_id    INTEGER NOT NULL REFERENCES retailers(id) ON DELETE CASCADE,
	mandi_owner_id INTEGER NOT NULL REFERENCES mandi_owners(id) ON DELETE CASCADE,
	item           TEXT NOT NULL,
	quantity_kg    REAL NOT NULL CHECK(quantity_kg > 0),
	price_per_kg   REAL NOT NULL CHECK(price_per_kg > 0),
	status         TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending','accepted','rejected','completed')),
	order_date     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rmo_retailer ON retailer_mandi_orders(retailer_id);
CREATE INDEX IF NOT EXISTS idx_rmo_mandi ON retailer_mandi_orders(mandi_owner_id);

CREATE TABLE IF NOT EXISTS alerts (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	message    TEXT NOT NULL,
	severity   TEXT NOT NULL DEFAULT 'info' CHECK(severity IN ('info','warning','critical')),
	seen       INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_user_seen ON alerts(user_id, seen);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS advisory_snapshots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	crop       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	UNIQUE(user_id, crop)
);
`

// Migrate applies the application schema.
// Statements use IF NOT EXISTS so this is safe to call on every startup.
func (db *DB) Migrate() error {
	err := WithTransaction(db.conn, func(tx *sql.Tx) error {
		_, err := tx.Exec(schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to apply schema for %s: %w", db.name, err)
	}
	return nil
}
