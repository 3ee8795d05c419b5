// Package testutil provides testing utilities for the LIS backend.
// It includes testcontainers for PostgreSQL, sqlmock helpers, and
// mock event publishers.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "lis_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//	    container, err := testutil.NewPostgresContainer(ctx, testutil.DefaultPostgresConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer container.Terminate(ctx)
//
//	    // Run tests
//	    code := m.Run()
//	    os.Exit(code)
//	}
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "lis_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema creates the full LIS schema on the given connection.
// Tests that need only a subset of tables can still use this; the
// statements are idempotent.
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS brands (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			abbreviation VARCHAR(8) NOT NULL,
			latest_sequence INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS brands_name_lower_idx
			ON brands (LOWER(name));

		CREATE TABLE IF NOT EXISTS locations (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE UNIQUE INDEX IF NOT EXISTS locations_name_lower_idx
			ON locations (LOWER(name));

		CREATE TABLE IF NOT EXISTS inventory (
			id BIGSERIAL PRIMARY KEY,
			item_code VARCHAR(32) UNIQUE NOT NULL,
			item_name VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 0,
			cost_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			retail_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			lot_number VARCHAR(64),
			pack_size VARCHAR(64),
			expiry_date DATE,
			note TEXT,
			po_pi_reference VARCHAR(64),
			invoice_number VARCHAR(64),
			added_by VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT quantity_non_negative CHECK (quantity >= 0)
		);

		CREATE TABLE IF NOT EXISTS item_locations (
			id BIGSERIAL PRIMARY KEY,
			item_code VARCHAR(32) NOT NULL REFERENCES inventory(item_code) ON DELETE CASCADE,
			location_id BIGINT NOT NULL REFERENCES locations(id),
			quantity INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT item_location_quantity_non_negative CHECK (quantity >= 0),
			UNIQUE (item_code, location_id)
		);

		CREATE TABLE IF NOT EXISTS purchase_orders (
			id BIGSERIAL PRIMARY KEY,
			item_code VARCHAR(32) NOT NULL,
			item_name VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL,
			cost_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			retail_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			pack_size VARCHAR(64),
			expiry_date DATE,
			po_pi_reference VARCHAR(64),
			received_by VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS customers (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(64),
			address TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS customer_transactions (
			id BIGSERIAL PRIMARY KEY,
			invoice_reference VARCHAR(64) UNIQUE NOT NULL,
			customer_name VARCHAR(255) NOT NULL,
			total_retail_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			sold_by VARCHAR(255) NOT NULL,
			transaction_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS sold_items (
			id BIGSERIAL PRIMARY KEY,
			transaction_id BIGINT NOT NULL REFERENCES customer_transactions(id) ON DELETE CASCADE,
			item_code VARCHAR(32) NOT NULL,
			item_name VARCHAR(255) NOT NULL,
			brand VARCHAR(255) NOT NULL DEFAULT '',
			lot_number VARCHAR(64),
			location_id BIGINT NOT NULL,
			quantity INTEGER NOT NULL,
			retail_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			first_name VARCHAR(255) NOT NULL,
			last_name VARCHAR(255) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'staff',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`

	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
