package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id                BIGSERIAL PRIMARY KEY,
		title             TEXT,
		regular_price     NUMERIC(12, 2),
		sale_price        NUMERIC(12, 2),
		photos            JSONB NOT NULL DEFAULT '[]'::jsonb,
		review_count      INTEGER,
		code              TEXT,
		specifications    JSONB NOT NULL DEFAULT '{}'::jsonb,
		manufacturer      TEXT,
		memory            TEXT,
		color             TEXT,
		screen_diagonal   TEXT,
		screen_resolution TEXT,
		source_url        TEXT NOT NULL DEFAULT '',
		scraped_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_code ON products (code)`,
	`CREATE INDEX IF NOT EXISTS idx_products_created_at ON products (created_at DESC)`,
}

// EnsureSchema creates the products table and its indexes if missing.
func (db *DB) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply schema: %w", err)
			}
		}
		return nil
	})
}
