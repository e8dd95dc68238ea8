// Package compare provides fund comparison and overlap analytics
package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

// Accepted number of funds per comparison
const (
	MinFunds = 2
	MaxFunds = 5
)

// Service implements CompareService
type Service struct {
	store  interfaces.FundStore
	config common.CompareConfig
	logger *common.Logger
	now    func() time.Time
	newID  func() string
}

var _ interfaces.CompareService = (*Service)(nil)

// Option configures the service
type Option func(*Service)

// WithClock overrides the clock used to compute correlation windows
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides how comparison ids are minted
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new compare service
func NewService(store interfaces.FundStore, config common.CompareConfig, logger *common.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		config: config,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolvedOptions are CompareOptions with defaults applied
type resolvedOptions struct {
	topN               int
	period             models.Period
	includeCorrelation bool
}

// CompareFunds compares 2-5 funds on holdings, sectors and (optionally) returns
func (s *Service) CompareFunds(ctx context.Context, fundIDs []string, opts models.CompareOptions) (*models.ComparisonResponse, error) {
	ids, err := validateFundIDs(fundIDs)
	if err != nil {
		return nil, err
	}
	ro, err := s.resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	fetchStart := time.Now()
	projections, err := s.store.FetchFundsByIDs(ctx, ids)
	if err != nil {
		return nil, storeError("fetch funds", err)
	}
	funds, err := orderFunds(ids, projections)
	if err != nil {
		return nil, err
	}
	fundFetch := time.Since(fetchStart)

	w := periodWindow(ro.period, s.now())

	var prices [][]models.PricePoint
	var priceFetch time.Duration
	if ro.includeCorrelation {
		priceStart := time.Now()
		prices, err = s.fetchPrices(ctx, ids, w)
		if err != nil {
			return nil, err
		}
		priceFetch = time.Since(priceStart)
	}

	computeStart := time.Now()

	holdings := make([]fundHoldings, len(funds))
	sectors := make([]fundSectors, len(funds))
	refs := make([]models.FundRef, len(funds))
	sources := make(map[string]string, len(funds))
	for i, f := range funds {
		holdings[i] = normalizeHoldings(f.FundID, f.Holdings, ro.topN)
		sectors[i] = normalizeSectors(f.FundID, f.SectorAllocation)
		refs[i] = f.Ref()
		sources[f.FundID] = f.Source
	}

	resp := &models.ComparisonResponse{
		Funds:  refs,
		Period: ro.period,
	}

	comparisons := make([]models.ComparisonResult, 0, len(funds)*(len(funds)-1)/2)
	for _, p := range pairs(len(funds)) {
		i, j := p[0], p[1]
		cr := models.ComparisonResult{
			Funds: []models.FundRef{refs[i], refs[j]},
		}
		cr.HoldingsOverlap, cr.HoldingsReason = AnalyzeHoldings([]fundHoldings{holdings[i], holdings[j]})
		cr.SectorOverlap, cr.SectorReason = AnalyzeSectors([]fundSectors{sectors[i], sectors[j]})
		if ro.includeCorrelation {
			cr.ReturnsCorrelation = CorrelateReturns(refs[i].FundID, refs[j].FundID, prices[i], prices[j], w)
			if cr.ReturnsCorrelation.Correlation == nil {
				s.logger.Warn().
					Str("fund_a", refs[i].FundID).
					Str("fund_b", refs[j].FundID).
					Int("data_points", cr.ReturnsCorrelation.DataPoints).
					Str("reason", cr.ReturnsCorrelation.Reason).
					Msg("Correlation unavailable")
			}
		}
		if cr.HoldingsOverlap != nil && cr.HoldingsOverlap.AverageOverlap != nil {
			cr.Recommendations = GenerateRecommendations(RecommendationInput{
				AverageOverlap: *cr.HoldingsOverlap.AverageOverlap,
				CommonHoldings: len(cr.HoldingsOverlap.CommonHoldings),
				Sectors:        cr.SectorOverlap,
				FundCount:      2,
			})
		}
		comparisons = append(comparisons, cr)
	}

	if len(funds) == MinFunds {
		resp.Comparison = &comparisons[0]
	} else {
		resp.Comparisons = comparisons
		resp.Summary = summarize(refs, holdings, sectors, comparisons)
	}

	resp.Trace = models.Trace{
		ComparisonID: s.newID(),
		Sources:      sources,
		FundFetchMS:  fundFetch.Milliseconds(),
		PriceFetchMS: priceFetch.Milliseconds(),
		ComputeMS:    time.Since(computeStart).Milliseconds(),
		GeneratedAt:  s.now().UTC(),
	}

	s.logger.Debug().
		Str("comparison_id", resp.Trace.ComparisonID).
		Strs("funds", ids).
		Str("period", string(ro.period)).
		Bool("correlation", ro.includeCorrelation).
		Int64("fund_fetch_ms", resp.Trace.FundFetchMS).
		Int64("price_fetch_ms", resp.Trace.PriceFetchMS).
		Int64("compute_ms", resp.Trace.ComputeMS).
		Interface("sources", sources).
		Msg("Funds compared")

	return resp, nil
}

// summarize builds the aggregate view for three or more funds
func summarize(refs []models.FundRef, holdings []fundHoldings, sectors []fundSectors, comparisons []models.ComparisonResult) *models.ComparisonSummary {
	summary := &models.ComparisonSummary{
		Funds:     refs,
		PairCount: len(comparisons),
	}
	summary.HoldingsOverlap, summary.HoldingsReason = AnalyzeHoldings(holdings)
	summary.SectorOverlap, summary.SectorReason = AnalyzeSectors(sectors)

	for _, c := range comparisons {
		if c.ReturnsCorrelation != nil && c.ReturnsCorrelation.Correlation != nil {
			summary.CorrelatedPairs++
		}
	}

	commonCount := 0
	if summary.HoldingsOverlap != nil {
		summary.AverageOverlap = summary.HoldingsOverlap.AverageOverlap
		commonCount = len(summary.HoldingsOverlap.CommonHoldings)
	} else {
		summary.AverageOverlap = meanPairOverlap(comparisons)
	}

	if summary.AverageOverlap != nil {
		summary.Recommendations = GenerateRecommendations(RecommendationInput{
			AverageOverlap: *summary.AverageOverlap,
			CommonHoldings: commonCount,
			Sectors:        summary.SectorOverlap,
			FundCount:      len(refs),
		})
	}
	return summary
}

// meanPairOverlap averages the pair-level overlap of pairs that had holdings on both sides.
func meanPairOverlap(comparisons []models.ComparisonResult) *float64 {
	var sum float64
	n := 0
	for _, c := range comparisons {
		if c.HoldingsOverlap == nil || c.HoldingsOverlap.AverageOverlap == nil {
			continue
		}
		sum += *c.HoldingsOverlap.AverageOverlap
		n++
	}
	if n == 0 {
		return nil
	}
	avg := round2(sum / float64(n))
	return &avg
}

// fetchPrices loads every fund's price history concurrently. Results are index-aligned with ids.
func (s *Service) fetchPrices(ctx context.Context, ids []string, w window) ([][]models.PricePoint, error) {
	prices := make([][]models.PricePoint, len(ids))
	end := w.end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.config.MaxConcurrency, 1))
	for i, id := range ids {
		g.Go(func() error {
			points, err := s.store.FetchPriceHistory(gctx, id, w.start, end)
			if err != nil {
				return storeError(fmt.Sprintf("fetch price history for %s", id), err)
			}
			prices[i] = points
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prices, nil
}

func (s *Service) resolveOptions(opts models.CompareOptions) (resolvedOptions, error) {
	ro := resolvedOptions{
		topN:               s.config.DefaultTopN,
		period:             models.Period1Y,
		includeCorrelation: true,
	}

	if opts.TopNHoldings < 0 {
		return ro, common.NewInputError("top_n_holdings must be positive, got %d", opts.TopNHoldings)
	}
	if opts.TopNHoldings > 0 {
		ro.topN = opts.TopNHoldings
	}

	periodName := string(opts.CorrelationPeriod)
	if strings.TrimSpace(periodName) == "" {
		periodName = s.config.DefaultPeriod
	}
	if strings.TrimSpace(periodName) != "" {
		p, err := ParsePeriod(periodName)
		if err != nil {
			return ro, err
		}
		ro.period = p
	}

	if opts.IncludeCorrelation != nil {
		ro.includeCorrelation = *opts.IncludeCorrelation
	}
	return ro, nil
}

// validateFundIDs trims ids and enforces the 2-5 bound, rejecting blanks and duplicates.
func validateFundIDs(fundIDs []string) ([]string, error) {
	if len(fundIDs) < MinFunds || len(fundIDs) > MaxFunds {
		return nil, common.NewInputError("expected %d-%d fund ids, got %d", MinFunds, MaxFunds, len(fundIDs))
	}
	ids := make([]string, 0, len(fundIDs))
	seen := make(map[string]bool, len(fundIDs))
	for _, raw := range fundIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			return nil, common.NewInputError("fund ids must not be blank")
		}
		if seen[id] {
			return nil, common.NewInputError("fund id %s is listed more than once", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// orderFunds arranges projections in request order and names any id the store did not return.
func orderFunds(ids []string, projections []*models.FundProjection) ([]*models.FundProjection, error) {
	byID := make(map[string]*models.FundProjection, len(projections))
	for _, p := range projections {
		if p != nil {
			byID[p.FundID] = p
		}
	}

	funds := make([]*models.FundProjection, 0, len(ids))
	var missing []string
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		funds = append(funds, p)
	}
	if len(missing) > 0 {
		return nil, common.NewNotFoundError(missing)
	}
	return funds, nil
}

// storeError tags collaborator failures as data-unavailable, keeping caller cancellation distinct.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrDataUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return common.DataUnavailable(op, err)
}
