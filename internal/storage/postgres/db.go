// Package postgres provides a relational FundStore backed by PostgreSQL
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB opens and pings a database connection
// dsn should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=fundlens sslmode=disable"
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS funds (
		fund_id      TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		sub_category TEXT NOT NULL DEFAULT '',
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS fund_holdings (
		fund_id  TEXT NOT NULL REFERENCES funds(fund_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		ticker   TEXT NOT NULL DEFAULT '',
		name     TEXT NOT NULL DEFAULT '',
		weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (fund_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS fund_sectors (
		fund_id  TEXT NOT NULL REFERENCES funds(fund_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		sector   TEXT NOT NULL,
		weight   DOUBLE PRECISION NOT NULL DEFAULT 0,
		PRIMARY KEY (fund_id, position)
	)`,
	`CREATE TABLE IF NOT EXISTS fund_prices (
		fund_id TEXT NOT NULL,
		date    DATE NOT NULL,
		nav     NUMERIC(20, 8) NOT NULL,
		PRIMARY KEY (fund_id, date)
	)`,
}

// Migrate creates the fund tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Manager implements interfaces.StorageManager using PostgreSQL.
type Manager struct {
	db        *DB
	fundStore *FundStore
}

// NewManager connects, migrates and returns a StorageManager
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := NewDB(ctx, config.Storage.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Msg("Postgres storage manager initialized")

	return &Manager{
		db:        db,
		fundStore: NewFundStore(db, logger),
	}, nil
}

func (m *Manager) FundStore() interfaces.FundStore {
	return m.fundStore
}

// Writer exposes the seeding side of the store
func (m *Manager) Writer() interfaces.FundWriter {
	return m.fundStore
}

func (m *Manager) Close() error {
	return m.db.Close()
}

var _ interfaces.StorageManager = (*Manager)(nil)
