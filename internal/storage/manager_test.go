package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

// memBackend is an in-memory StorageManager used to exercise the manager without a database
type memBackend struct {
	funds  map[string]*models.FundProjection
	reads  int32
	closed bool
}

func newMemBackend() *memBackend {
	return &memBackend{funds: map[string]*models.FundProjection{}}
}

func (b *memBackend) FundStore() interfaces.FundStore { return b }
func (b *memBackend) Writer() interfaces.FundWriter { return b }
func (b *memBackend) Close() error {
	b.closed = true
	return nil
}

func (b *memBackend) FetchFundsByIDs(_ context.Context, ids []string) ([]*models.FundProjection, error) {
	atomic.AddInt32(&b.reads, 1)
	var out []*models.FundProjection
	for _, id := range ids {
		if f, ok := b.funds[id]; ok {
			c := *f
			out = append(out, &c)
		}
	}
	return out, nil
}

func (b *memBackend) FetchPriceHistory(context.Context, string, time.Time, time.Time) ([]models.PricePoint, error) {
	return nil, nil
}

func (b *memBackend) SaveFund(_ context.Context, f *models.FundProjection) error {
	c := *f
	c.Source = models.SourceStore
	b.funds[f.FundID] = &c
	return nil
}

func (b *memBackend) SavePrices(context.Context, string, []models.PricePoint) error {
	return nil
}

func TestManager_CacheEnabledServesRepeatReadsFromCache(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Cache.Enabled = true

	backend := newMemBackend()
	m := newManager(backend, common.NewSilentLogger(), cfg)
	ctx := context.Background()

	require.NoError(t, m.Writer().SaveFund(ctx, &models.FundProjection{FundRef: models.FundRef{FundID: "F1", Name: "Fund One"}}))

	first, err := m.FundStore().FetchFundsByIDs(ctx, []string{"F1"})
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, models.SourceStore, first[0].Source)

	second, err := m.FundStore().FetchFundsByIDs(ctx, []string{"F1"})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, models.SourceCache, second[0].Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.reads))
}

func TestManager_WritePurgesCache(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Cache.Enabled = true

	backend := newMemBackend()
	m := newManager(backend, common.NewSilentLogger(), cfg)
	ctx := context.Background()

	require.NoError(t, m.Writer().SaveFund(ctx, &models.FundProjection{FundRef: models.FundRef{FundID: "F1", Name: "Old"}}))
	_, err := m.FundStore().FetchFundsByIDs(ctx, []string{"F1"})
	require.NoError(t, err)

	require.NoError(t, m.Writer().SaveFund(ctx, &models.FundProjection{FundRef: models.FundRef{FundID: "F1", Name: "New"}}))
	got, err := m.FundStore().FetchFundsByIDs(ctx, []string{"F1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Name)
	assert.Equal(t, models.SourceStore, got[0].Source)
}

func TestManager_CacheDisabledPassesThrough(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Cache.Enabled = false

	backend := newMemBackend()
	m := newManager(backend, common.NewSilentLogger(), cfg)

	assert.Same(t, backend, m.FundStore().(*memBackend))
	assert.Same(t, backend, m.Writer().(*memBackend))

	require.NoError(t, m.Close())
	assert.True(t, backend.closed)
}

func TestNewManager_EODHDBackendIsReadOnly(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = common.BackendEODHD
	cfg.Clients.EODHD.APIKey = "test-key"
	cfg.Cache.Enabled = false

	m, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer m.Close()

	assert.NotNil(t, m.FundStore())
	assert.Nil(t, m.Writer())
}

func TestNewManager_MissingRequiredConfig(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = common.BackendPostgres
	cfg.Storage.DSN = ""

	_, err := NewManager(common.NewSilentLogger(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}

func TestNewManager_UnknownBackend(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "mongodb"

	_, err := NewManager(common.NewSilentLogger(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend")
}

func TestNewManager_MisspelledBackendFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fundlens.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\nbackend = \"Postgress\"\n"), 0644))

	cfg, err := common.LoadConfig(path)
	require.NoError(t, err)

	_, err = NewManager(common.NewSilentLogger(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage backend: postgress")
}
