package eodhd

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

// FundSource serves fund projections and NAV history straight from EODHD.
// Fund ids are EODHD tickers such as "VAS.AU".
type FundSource struct {
	client      interfaces.EODHDClient
	concurrency int
	logger      *common.Logger
}

var _ interfaces.FundStore = (*FundSource)(nil)

// NewFundSource wraps an EODHD client as a FundStore
func NewFundSource(client interfaces.EODHDClient, concurrency int, logger *common.Logger) *FundSource {
	if concurrency < 1 {
		concurrency = 1
	}
	return &FundSource{
		client:      client,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FetchFundsByIDs fetches fundamentals for each id in parallel. Tickers EODHD
// reports as 404 are omitted from the result.
func (s *FundSource) FetchFundsByIDs(ctx context.Context, ids []string) ([]*models.FundProjection, error) {
	var (
		mu    sync.Mutex
		found = make(map[string]*models.FundProjection, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, id := range ids {
		g.Go(func() error {
			f, err := s.client.GetFundFundamentals(gctx, id)
			if err != nil {
				if isNotFound(err) {
					s.logger.Debug().Str("fund_id", id).Msg("Fund not known to EODHD")
					return nil
				}
				return common.DataUnavailable(fmt.Sprintf("eodhd: fundamentals %s", id), err)
			}
			mu.Lock()
			found[id] = f.Projection(id)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	funds := make([]*models.FundProjection, 0, len(found))
	for _, id := range ids {
		if f, ok := found[id]; ok {
			funds = append(funds, f)
		}
	}
	return funds, nil
}

// FetchPriceHistory returns daily NAVs (adjusted close) in ascending date order
func (s *FundSource) FetchPriceHistory(ctx context.Context, fundID string, start, end time.Time) ([]models.PricePoint, error) {
	resp, err := s.client.GetEOD(ctx, fundID, interfaces.WithDateRange(start, end), interfaces.WithOrder("a"))
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, common.DataUnavailable(fmt.Sprintf("eodhd: eod %s", fundID), err)
	}

	points := make([]models.PricePoint, 0, len(resp.Data))
	for _, bar := range resp.Data {
		points = append(points, models.PricePoint{Date: bar.Date, NAV: bar.NAV()})
	}
	return points, nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}
