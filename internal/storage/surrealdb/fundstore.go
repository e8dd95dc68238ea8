package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

const (
	fundTable      = "fund"
	fundPriceTable = "fund_price"
	saveAttempts   = 3
)

// fundDocument is the persisted shape of a fund record
type fundDocument struct {
	FundID           string                    `json:"fund_id"`
	Name             string                    `json:"name"`
	Category         string                    `json:"category,omitempty"`
	SubCategory      string                    `json:"sub_category,omitempty"`
	Holdings         []models.Holding          `json:"holdings"`
	SectorAllocation []models.SectorAllocation `json:"sector_allocation"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// priceDocument is one NAV observation in fund_price
type priceDocument struct {
	FundID string    `json:"fund_id"`
	Date   time.Time `json:"date"`
	NAV    float64   `json:"nav"`
}

// FundStore serves fund projections and NAV history from SurrealDB
type FundStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

var (
	_ interfaces.FundStore  = (*FundStore)(nil)
	_ interfaces.FundWriter = (*FundStore)(nil)
)

func NewFundStore(db *surrealdb.DB, logger *common.Logger) *FundStore {
	return &FundStore{
		db:     db,
		logger: logger,
	}
}

// --- FundStore ---

func (s *FundStore) FetchFundsByIDs(ctx context.Context, ids []string) ([]*models.FundProjection, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	sql := "SELECT * FROM fund WHERE fund_id IN $ids"
	vars := map[string]any{"ids": ids}

	results, err := surrealdb.Query[[]fundDocument](ctx, s.db, sql, vars)
	if err != nil {
		return nil, common.DataUnavailable("surrealdb: fetch funds", err)
	}

	var funds []*models.FundProjection
	if results != nil && len(*results) > 0 {
		for _, doc := range (*results)[0].Result {
			funds = append(funds, doc.projection())
		}
	}

	s.logger.Debug().Int("requested", len(ids)).Int("found", len(funds)).Msg("Funds loaded from SurrealDB")
	return funds, nil
}

func (s *FundStore) FetchPriceHistory(ctx context.Context, fundID string, start, end time.Time) ([]models.PricePoint, error) {
	sql := "SELECT * FROM fund_price WHERE fund_id = $fund_id AND date <= $end"
	vars := map[string]any{"fund_id": fundID, "end": end.UTC()}
	if !start.IsZero() {
		sql += " AND date >= $start"
		vars["start"] = start.UTC()
	}
	sql += " ORDER BY date ASC"

	results, err := surrealdb.Query[[]priceDocument](ctx, s.db, sql, vars)
	if err != nil {
		return nil, common.DataUnavailable("surrealdb: fetch price history", err)
	}

	var points []models.PricePoint
	if results != nil && len(*results) > 0 {
		points = make([]models.PricePoint, 0, len((*results)[0].Result))
		for _, doc := range (*results)[0].Result {
			points = append(points, models.PricePoint{Date: doc.Date.UTC(), NAV: doc.NAV})
		}
	}
	return points, nil
}

// --- FundWriter ---

// SaveFund upserts the fund document keyed by fund id
func (s *FundStore) SaveFund(ctx context.Context, fund *models.FundProjection) error {
	doc := fundDocument{
		FundID:           fund.FundID,
		Name:             fund.Name,
		Category:         fund.Category,
		SubCategory:      fund.SubCategory,
		Holdings:         fund.Holdings,
		SectorAllocation: fund.SectorAllocation,
		UpdatedAt:        time.Now().UTC(),
	}
	if doc.Holdings == nil {
		doc.Holdings = []models.Holding{}
	}
	if doc.SectorAllocation == nil {
		doc.SectorAllocation = []models.SectorAllocation{}
	}

	sql := "UPSERT $rid CONTENT $data"
	vars := map[string]any{"rid": surrealmodels.NewRecordID(fundTable, fund.FundID), "data": doc}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		_, err := surrealdb.Query[[]fundDocument](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("failed to save fund %s after retries: %w", fund.FundID, lastErr)
}

// SavePrices upserts NAV points; a point for an existing fund and day replaces it
func (s *FundStore) SavePrices(ctx context.Context, fundID string, points []models.PricePoint) error {
	sql := "UPSERT $rid CONTENT $data"
	for _, p := range points {
		day := p.Day()
		vars := map[string]any{
			"rid":  surrealmodels.NewRecordID(fundPriceTable, priceKey(fundID, day)),
			"data": priceDocument{FundID: fundID, Date: day, NAV: p.NAV},
		}
		if _, err := surrealdb.Query[[]priceDocument](ctx, s.db, sql, vars); err != nil {
			return fmt.Errorf("failed to save price %s for %s: %w", day.Format("2006-01-02"), fundID, err)
		}
	}
	s.logger.Debug().Str("fund_id", fundID).Int("points", len(points)).Msg("Prices saved to SurrealDB")
	return nil
}

func priceKey(fundID string, day time.Time) string {
	return fundID + "_" + day.Format("20060102")
}

func (d fundDocument) projection() *models.FundProjection {
	return &models.FundProjection{
		FundRef: models.FundRef{
			FundID:      d.FundID,
			Name:        d.Name,
			Category:    d.Category,
			SubCategory: d.SubCategory,
		},
		Holdings:         d.Holdings,
		SectorAllocation: d.SectorAllocation,
		Source:           models.SourceStore,
	}
}
