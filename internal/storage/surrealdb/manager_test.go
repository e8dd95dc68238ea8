package surrealdb

import (
	"context"
	"testing"
	"time"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/models"
	tcommon "github.com/bobmcallan/fundlens/tests/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	sc := tcommon.StartSurrealDB(t)

	cfg := common.NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Storage = common.StorageConfig{
		Backend:   common.BackendSurrealDB,
		Address:   sc.Address(),
		Namespace: tcommon.SurrealNamespace,
		Database:  tcommon.DatabaseName(t, "mgr_"),
		Username:  tcommon.SurrealUser,
		Password:  tcommon.SurrealPassword,
	}
	return cfg
}

func TestNewManager(t *testing.T) {
	cfg := testConfig(t)

	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()

	assert.NotNil(t, mgr.FundStore())
	assert.NotNil(t, mgr.Writer())
}

func TestNewManager_SchemaIsIdempotent(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	first.Close()

	second, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer second.Close()
}

func TestManager_RoundTripThroughInterfaces(t *testing.T) {
	cfg := testConfig(t)
	mgr, err := NewManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	defer mgr.Close()
	ctx := context.Background()

	require.NoError(t, mgr.Writer().SaveFund(ctx, newTestFund("A200.AU")))
	require.NoError(t, mgr.Writer().SavePrices(ctx, "A200.AU", dailyPoints(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 3)))

	funds, err := mgr.FundStore().FetchFundsByIDs(ctx, []string{"A200.AU"})
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, models.SourceStore, funds[0].Source)

	prices, err := mgr.FundStore().FetchPriceHistory(ctx, "A200.AU", time.Time{}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, prices, 3)
}

func TestNewManager_BadAddress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	cfg := common.NewDefaultConfig()
	cfg.Storage.Address = "ws://127.0.0.1:1/rpc"

	_, err := NewManager(common.NewSilentLogger(), cfg)
	assert.Error(t, err)
}
