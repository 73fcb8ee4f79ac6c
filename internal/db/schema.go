package db

import (
	"context"
	"fmt"
)

// sqliteSchema bootstraps the SQLite layout. Statements are idempotent so
// startup can run them on every boot.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		account_type TEXT NOT NULL DEFAULT 'standard',
		has_only_one_address BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		line1 TEXT NOT NULL,
		line2 TEXT,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT 'India',
		pincode TEXT NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_customer_id ON addresses(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_city ON addresses(city)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_state ON addresses(state)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_pincode ON addresses(pincode)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_addresses_one_primary ON addresses(customer_id) WHERE is_primary = 1`,
}

// postgresSchema mirrors the SQLite layout with Postgres types
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL UNIQUE,
		email TEXT UNIQUE,
		account_type TEXT NOT NULL DEFAULT 'standard',
		has_only_one_address BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		line1 TEXT NOT NULL,
		line2 TEXT,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT 'India',
		pincode TEXT NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE,
		status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_customers_created_at ON customers(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_customer_id ON addresses(customer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_city ON addresses(city)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_state ON addresses(state)`,
	`CREATE INDEX IF NOT EXISTS idx_addresses_pincode ON addresses(pincode)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_addresses_one_primary ON addresses(customer_id) WHERE is_primary`,
}

// schemaStatements returns the bootstrap statements for a driver
func schemaStatements(driver string) ([]string, error) {
	switch driver {
	case DriverSQLite:
		return sqliteSchema, nil
	case DriverPostgres:
		return postgresSchema, nil
	default:
		return nil, fmt.Errorf("no schema defined for driver: %q", driver)
	}
}

// EnsureSchema creates the customer and address tables and their indexes
// if they do not exist yet
func EnsureSchema(ctx context.Context, db *DB) error {
	stmts, err := schemaStatements(db.DriverName())
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}
