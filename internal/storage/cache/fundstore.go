// Package cache provides a read-through expiring cache in front of any FundStore
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

// FundStore decorates another FundStore with expiring LRU caches.
// Cached projections are reported with Source "cache".
type FundStore struct {
	next   interfaces.FundStore
	funds  *expirable.LRU[string, models.FundProjection]
	prices *expirable.LRU[string, []models.PricePoint]
	logger *common.Logger
}

var _ interfaces.FundStore = (*FundStore)(nil)

// NewFundStore wraps next. size bounds each cache; fundTTL and priceTTL expire entries.
func NewFundStore(next interfaces.FundStore, size int, fundTTL, priceTTL time.Duration, logger *common.Logger) *FundStore {
	if size <= 0 {
		size = 512
	}
	return &FundStore{
		next:   next,
		funds:  expirable.NewLRU[string, models.FundProjection](size, nil, fundTTL),
		prices: expirable.NewLRU[string, []models.PricePoint](size, nil, priceTTL),
		logger: logger,
	}
}

// FetchFundsByIDs serves cached funds and fetches only the misses from the wrapped store.
// Funds the wrapped store does not know are not cached.
func (s *FundStore) FetchFundsByIDs(ctx context.Context, ids []string) ([]*models.FundProjection, error) {
	out := make([]*models.FundProjection, 0, len(ids))
	var misses []string
	for _, id := range ids {
		if p, ok := s.funds.Get(id); ok {
			hit := clone(p)
			hit.Source = models.SourceCache
			out = append(out, hit)
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) > 0 {
		fetched, err := s.next.FetchFundsByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		for _, p := range fetched {
			if p == nil {
				continue
			}
			s.funds.Add(p.FundID, *clone(*p))
			out = append(out, p)
		}
	}

	s.logger.Debug().Int("hits", len(ids)-len(misses)).Int("misses", len(misses)).Msg("Fund cache lookup")
	return out, nil
}

// FetchPriceHistory caches per fund and calendar-day window.
func (s *FundStore) FetchPriceHistory(ctx context.Context, fundID string, start, end time.Time) ([]models.PricePoint, error) {
	key := priceKey(fundID, start, end)
	if points, ok := s.prices.Get(key); ok {
		return append([]models.PricePoint(nil), points...), nil
	}

	points, err := s.next.FetchPriceHistory(ctx, fundID, start, end)
	if err != nil {
		return nil, err
	}
	s.prices.Add(key, append([]models.PricePoint(nil), points...))
	return points, nil
}

// Purge drops every cached entry
func (s *FundStore) Purge() {
	s.funds.Purge()
	s.prices.Purge()
}

func priceKey(fundID string, start, end time.Time) string {
	from := "min"
	if !start.IsZero() {
		from = start.UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%s", fundID, from, end.UTC().Format("2006-01-02"))
}

// clone copies a projection so callers never share slices with the cache
func clone(p models.FundProjection) *models.FundProjection {
	c := p
	c.Holdings = append([]models.Holding(nil), p.Holdings...)
	c.SectorAllocation = append([]models.SectorAllocation(nil), p.SectorAllocation...)
	return &c
}
