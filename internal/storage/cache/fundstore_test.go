package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/models"
)

type countingStore struct {
	funds      map[string]*models.FundProjection
	prices     []models.PricePoint
	err        error
	fundCalls  [][]string
	priceCalls int
}

func (c *countingStore) FetchFundsByIDs(_ context.Context, ids []string) ([]*models.FundProjection, error) {
	c.fundCalls = append(c.fundCalls, ids)
	if c.err != nil {
		return nil, c.err
	}
	var out []*models.FundProjection
	for _, id := range ids {
		if f, ok := c.funds[id]; ok {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (c *countingStore) FetchPriceHistory(_ context.Context, _ string, _, _ time.Time) ([]models.PricePoint, error) {
	c.priceCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.prices, nil
}

func newCountingStore() *countingStore {
	return &countingStore{
		funds: map[string]*models.FundProjection{
			"A": {FundRef: models.FundRef{FundID: "A", Name: "Alpha"}, Holdings: []models.Holding{{Ticker: "X", Weight: 1}}, Source: models.SourceStore},
			"B": {FundRef: models.FundRef{FundID: "B", Name: "Beta"}, Source: models.SourceStore},
		},
		prices: []models.PricePoint{{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), NAV: 10}},
	}
}

func TestFundStore_HitsAreTaggedCache(t *testing.T) {
	next := newCountingStore()
	store := NewFundStore(next, 16, time.Minute, time.Minute, common.NewSilentLogger())
	ctx := context.Background()

	first, err := store.FetchFundsByIDs(ctx, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, first, 2)
	for _, f := range first {
		assert.Equal(t, models.SourceStore, f.Source)
	}

	second, err := store.FetchFundsByIDs(ctx, []string{"A", "B"})
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, f := range second {
		assert.Equal(t, models.SourceCache, f.Source)
	}
	assert.Len(t, next.fundCalls, 1, "second lookup is served from cache")
}

func TestFundStore_OnlyMissesGoDownstream(t *testing.T) {
	next := newCountingStore()
	store := NewFundStore(next, 16, time.Minute, time.Minute, common.NewSilentLogger())
	ctx := context.Background()

	_, err := store.FetchFundsByIDs(ctx, []string{"A"})
	require.NoError(t, err)
	got, err := store.FetchFundsByIDs(ctx, []string{"A", "B", "UNKNOWN"})
	require.NoError(t, err)

	assert.Len(t, got, 2)
	require.Len(t, next.fundCalls, 2)
	assert.Equal(t, []string{"B", "UNKNOWN"}, next.fundCalls[1])

	// Unknown ids are never cached.
	_, err = store.FetchFundsByIDs(ctx, []string{"UNKNOWN"})
	require.NoError(t, err)
	assert.Len(t, next.fundCalls, 3)
}

func TestFundStore_CachedCopiesAreIsolated(t *testing.T) {
	next := newCountingStore()
	store := NewFundStore(next, 16, time.Minute, time.Minute, common.NewSilentLogger())
	ctx := context.Background()

	first, _ := store.FetchFundsByIDs(ctx, []string{"A"})
	first[0].Holdings[0].Weight = 99

	second, _ := store.FetchFundsByIDs(ctx, []string{"A"})
	assert.Equal(t, 1.0, second[0].Holdings[0].Weight)
}

func TestFundStore_Expiry(t *testing.T) {
	next := newCountingStore()
	store := NewFundStore(next, 16, 20*time.Millisecond, 20*time.Millisecond, common.NewSilentLogger())
	ctx := context.Background()

	_, _ = store.FetchFundsByIDs(ctx, []string{"A"})
	time.Sleep(60 * time.Millisecond)
	got, err := store.FetchFundsByIDs(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceStore, got[0].Source)
	assert.Len(t, next.fundCalls, 2)
}

func TestFundStore_PriceHistoryCachedPerWindow(t *testing.T) {
	next := newCountingStore()
	store := NewFundStore(next, 16, time.Minute, time.Minute, common.NewSilentLogger())
	ctx := context.Background()
	end := time.Date(2025, 6, 30, 23, 59, 0, 0, time.UTC)

	_, err := store.FetchPriceHistory(ctx, "A", time.Time{}, end)
	require.NoError(t, err)
	_, err = store.FetchPriceHistory(ctx, "A", time.Time{}, end.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, next.priceCalls, "same calendar-day window")

	_, err = store.FetchPriceHistory(ctx, "A", end.AddDate(-1, 0, 0), end)
	require.NoError(t, err)
	assert.Equal(t, 2, next.priceCalls)

	store.Purge()
	_, _ = store.FetchPriceHistory(ctx, "A", time.Time{}, end)
	assert.Equal(t, 3, next.priceCalls)
}

func TestFundStore_ErrorsPassThroughAndAreNotCached(t *testing.T) {
	next := newCountingStore()
	next.err = common.DataUnavailable("test", errors.New("down"))
	store := NewFundStore(next, 16, time.Minute, time.Minute, common.NewSilentLogger())
	ctx := context.Background()

	_, err := store.FetchFundsByIDs(ctx, []string{"A"})
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))
	_, err = store.FetchPriceHistory(ctx, "A", time.Time{}, time.Now())
	assert.True(t, errors.Is(err, common.ErrDataUnavailable))

	next.err = nil
	got, err := store.FetchFundsByIDs(ctx, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, models.SourceStore, got[0].Source)
}
