// Package storage provides the top-level StorageManager that selects a fund
// store backend and optionally fronts it with an expiring cache.
package storage

import (
	"context"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
	"github.com/bobmcallan/fundlens/internal/storage/cache"
)

// Manager implements interfaces.StorageManager over the configured backend.
type Manager struct {
	backend interfaces.StorageManager
	store   interfaces.FundStore
	cache   *cache.FundStore
	logger  *common.Logger
}

// NewManager opens the configured backend and wraps it with the cache when enabled.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	backend, err := newBackend(logger, config)
	if err != nil {
		return nil, err
	}
	return newManager(backend, logger, config), nil
}

func newManager(backend interfaces.StorageManager, logger *common.Logger, config *common.Config) *Manager {
	m := &Manager{
		backend: backend,
		store:   backend.FundStore(),
		logger:  logger,
	}

	if config.Cache.Enabled {
		fundTTL := config.Cache.GetTTL()
		priceTTL := common.FreshnessPriceHistory
		if fundTTL > priceTTL {
			priceTTL = fundTTL
		}
		m.cache = cache.NewFundStore(m.store, config.Cache.Size, fundTTL, priceTTL, logger)
		m.store = m.cache

		logger.Info().
			Int("size", config.Cache.Size).
			Dur("fund_ttl", fundTTL).
			Dur("price_ttl", priceTTL).
			Msg("Fund cache enabled")
	}

	logger.Info().Str("backend", config.Storage.Backend).Msg("Storage manager initialized")
	return m
}

func (m *Manager) FundStore() interfaces.FundStore {
	return m.store
}

// Writer returns the backend writer. Writes bypass the cache, so it is purged.
func (m *Manager) Writer() interfaces.FundWriter {
	w := m.backend.Writer()
	if w == nil {
		return nil
	}
	if m.cache == nil {
		return w
	}
	return &purgingWriter{next: w, cache: m.cache}
}

func (m *Manager) Close() error {
	return m.backend.Close()
}

var _ interfaces.StorageManager = (*Manager)(nil)

// purgingWriter drops cached entries after every successful write
type purgingWriter struct {
	next  interfaces.FundWriter
	cache *cache.FundStore
}

func (w *purgingWriter) SaveFund(ctx context.Context, fund *models.FundProjection) error {
	if err := w.next.SaveFund(ctx, fund); err != nil {
		return err
	}
	w.cache.Purge()
	return nil
}

func (w *purgingWriter) SavePrices(ctx context.Context, fundID string, points []models.PricePoint) error {
	if err := w.next.SavePrices(ctx, fundID, points); err != nil {
		return err
	}
	w.cache.Purge()
	return nil
}
