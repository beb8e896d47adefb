package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// OrdersChannel is notified with the operation name whenever a purchase
// order row changes.
const OrdersChannel = "purchase_orders_changed"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS purchase_orders (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		note           TEXT NOT NULL DEFAULT '',
		supplier       TEXT NOT NULL DEFAULT '',
		collection     TEXT NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		items          JSONB NOT NULL DEFAULT '[]'::jsonb,
		total_items    INTEGER NOT NULL DEFAULT 0,
		total_quantity INTEGER NOT NULL DEFAULT 0,
		total_cost     DOUBLE PRECISION NOT NULL DEFAULT 0,
		csv_data       TEXT NOT NULL DEFAULT '',
		uploaded_file  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_orders_created_at ON purchase_orders (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS price_lists (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ,
		item_count     INTEGER NOT NULL DEFAULT 0,
		items          JSONB NOT NULL DEFAULT '[]'::jsonb,
		raw_data       TEXT NOT NULL DEFAULT '',
		last_edited_by TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_price_lists_created_at ON price_lists (created_at DESC)`,
	`CREATE OR REPLACE FUNCTION notify_purchase_orders_changed() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('` + OrdersChannel + `', TG_OP);
		RETURN NULL;
	END;
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS purchase_orders_changed ON purchase_orders`,
	`CREATE TRIGGER purchase_orders_changed
		AFTER INSERT OR UPDATE OR DELETE ON purchase_orders
		FOR EACH STATEMENT EXECUTE FUNCTION notify_purchase_orders_changed()`,
}

// Migrate creates the tables and the change trigger. It is safe to run on
// every start.
func Migrate(ctx context.Context, db *DB) error {
	return db.WithTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
			}
		}
		return nil
	})
}
