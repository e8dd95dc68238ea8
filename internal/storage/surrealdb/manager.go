package surrealdb

import (
	"context"
	"fmt"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db        *surrealdb.DB
	logger    *common.Logger
	fundStore *FundStore
}

// schema is applied idempotently on connect (SurrealDB v3 errors on querying non-existent tables)
var schema = []string{
	"DEFINE TABLE IF NOT EXISTS fund SCHEMALESS",
	"DEFINE TABLE IF NOT EXISTS fund_price SCHEMALESS",
	"DEFINE INDEX IF NOT EXISTS fund_id_idx ON fund FIELDS fund_id UNIQUE",
	"DEFINE INDEX IF NOT EXISTS fund_price_fund_date_idx ON fund_price FIELDS fund_id, date",
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	if err := DefineSchema(ctx, db); err != nil {
		db.Close(ctx)
		return nil, err
	}

	m := &Manager{
		db:        db,
		logger:    logger,
		fundStore: NewFundStore(db, logger),
	}

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// DefineSchema creates the fund tables and indexes if missing
func DefineSchema(ctx context.Context, db *surrealdb.DB) error {
	for _, stmt := range schema {
		if _, err := surrealdb.Query[any](ctx, db, stmt, nil); err != nil {
			return fmt.Errorf("failed to apply schema %q: %w", stmt, err)
		}
	}
	return nil
}

func (m *Manager) FundStore() interfaces.FundStore {
	return m.fundStore
}

// Writer exposes the seeding side of the store
func (m *Manager) Writer() interfaces.FundWriter {
	return m.fundStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
