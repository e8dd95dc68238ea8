package storage

import (
	"fmt"

	"github.com/bobmcallan/fundlens/internal/clients/eodhd"
	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/storage/postgres"
	"github.com/bobmcallan/fundlens/internal/storage/surrealdb"
)

// newBackend opens the configured storage backend.
// Supported backends: "surrealdb" (default), "postgres", "eodhd".
func newBackend(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	if missing := config.ValidateRequired(); len(missing) > 0 {
		return nil, fmt.Errorf("storage backend %s missing config: %v", config.Storage.Backend, missing)
	}

	switch config.Storage.Backend {
	case common.BackendSurrealDB, "":
		return surrealdb.NewManager(logger, config)

	case common.BackendPostgres:
		return postgres.NewManager(logger, config)

	case common.BackendEODHD:
		return newEODHDBackend(logger, config), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: surrealdb, postgres, eodhd)", config.Storage.Backend)
	}
}

// eodhdBackend serves funds live from EODHD. It has nothing to close and cannot be written to.
type eodhdBackend struct {
	source *eodhd.FundSource
}

func newEODHDBackend(logger *common.Logger, config *common.Config) *eodhdBackend {
	cfg := config.Clients.EODHD
	opts := []eodhd.ClientOption{
		eodhd.WithLogger(logger),
		eodhd.WithRateLimit(cfg.RateLimit),
		eodhd.WithTimeout(cfg.GetTimeout()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, eodhd.WithBaseURL(cfg.BaseURL))
	}
	client := eodhd.NewClient(cfg.APIKey, opts...)

	logger.Info().Str("base_url", cfg.BaseURL).Int("rate_limit", cfg.RateLimit).Msg("EODHD fund source initialized")

	return &eodhdBackend{
		source: eodhd.NewFundSource(client, config.Compare.MaxConcurrency, logger),
	}
}

func (b *eodhdBackend) FundStore() interfaces.FundStore { return b.source }
func (b *eodhdBackend) Writer() interfaces.FundWriter { return nil }
func (b *eodhdBackend) Close() error { return nil }

var _ interfaces.StorageManager = (*eodhdBackend)(nil)
