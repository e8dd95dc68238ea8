package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/interfaces"
	"github.com/bobmcallan/fundlens/internal/models"
)

const dateLayout = "2006-01-02"

// FundStore implements interfaces.FundStore over the funds schema
type FundStore struct {
	db     *DB
	logger *common.Logger
}

var (
	_ interfaces.FundStore  = (*FundStore)(nil)
	_ interfaces.FundWriter = (*FundStore)(nil)
)

// NewFundStore creates a new fund store
func NewFundStore(db *DB, logger *common.Logger) *FundStore {
	return &FundStore{db: db, logger: logger}
}

// FetchFundsByIDs loads funds with their holdings and sector allocation.
// Unknown ids are omitted.
func (s *FundStore) FetchFundsByIDs(ctx context.Context, ids []string) ([]*models.FundProjection, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT fund_id, name, category, sub_category
		FROM funds
		WHERE fund_id = ANY($1)
		ORDER BY fund_id
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, common.DataUnavailable("postgres: fetch funds", err)
	}
	defer rows.Close()

	var funds []*models.FundProjection
	byID := make(map[string]*models.FundProjection, len(ids))
	for rows.Next() {
		f := &models.FundProjection{
			Holdings:         []models.Holding{},
			SectorAllocation: []models.SectorAllocation{},
			Source:           models.SourceStore,
		}
		if err := rows.Scan(&f.FundID, &f.Name, &f.Category, &f.SubCategory); err != nil {
			return nil, common.DataUnavailable("postgres: scan fund", err)
		}
		funds = append(funds, f)
		byID[f.FundID] = f
	}
	if err := rows.Err(); err != nil {
		return nil, common.DataUnavailable("postgres: iterate funds", err)
	}
	if len(funds) == 0 {
		return nil, nil
	}

	if err := s.loadHoldings(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := s.loadSectors(ctx, ids, byID); err != nil {
		return nil, err
	}

	return funds, nil
}

func (s *FundStore) loadHoldings(ctx context.Context, ids []string, byID map[string]*models.FundProjection) error {
	query := `
		SELECT fund_id, ticker, name, weight
		FROM fund_holdings
		WHERE fund_id = ANY($1)
		ORDER BY fund_id, position
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return common.DataUnavailable("postgres: fetch holdings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fundID string
		var h models.Holding
		if err := rows.Scan(&fundID, &h.Ticker, &h.Name, &h.Weight); err != nil {
			return common.DataUnavailable("postgres: scan holding", err)
		}
		if f, ok := byID[fundID]; ok {
			f.Holdings = append(f.Holdings, h)
		}
	}
	if err := rows.Err(); err != nil {
		return common.DataUnavailable("postgres: iterate holdings", err)
	}
	return nil
}

func (s *FundStore) loadSectors(ctx context.Context, ids []string, byID map[string]*models.FundProjection) error {
	query := `
		SELECT fund_id, sector, weight
		FROM fund_sectors
		WHERE fund_id = ANY($1)
		ORDER BY fund_id, position
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return common.DataUnavailable("postgres: fetch sectors", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fundID string
		var a models.SectorAllocation
		if err := rows.Scan(&fundID, &a.Sector, &a.Weight); err != nil {
			return common.DataUnavailable("postgres: scan sector", err)
		}
		if f, ok := byID[fundID]; ok {
			f.SectorAllocation = append(f.SectorAllocation, a)
		}
	}
	if err := rows.Err(); err != nil {
		return common.DataUnavailable("postgres: iterate sectors", err)
	}
	return nil
}

// FetchPriceHistory returns NAV points in [start, end] ascending. A zero start is unbounded.
func (s *FundStore) FetchPriceHistory(ctx context.Context, fundID string, start, end time.Time) ([]models.PricePoint, error) {
	query := `
		SELECT date, nav
		FROM fund_prices
		WHERE fund_id = $1
		  AND date <= $2::date
		  AND ($3::date IS NULL OR date >= $3::date)
		ORDER BY date ASC
	`
	var from sql.NullString
	if !start.IsZero() {
		from = sql.NullString{String: start.UTC().Format(dateLayout), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, query, fundID, end.UTC().Format(dateLayout), from)
	if err != nil {
		return nil, common.DataUnavailable("postgres: fetch price history", err)
	}
	defer rows.Close()

	var points []models.PricePoint
	for rows.Next() {
		var date time.Time
		var navStr string
		if err := rows.Scan(&date, &navStr); err != nil {
			return nil, common.DataUnavailable("postgres: scan price", err)
		}
		// Parse nav (NUMERIC)
		nav, err := decimal.NewFromString(navStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse nav %q for %s: %w", navStr, fundID, err)
		}
		y, m, d := date.Date()
		points = append(points, models.PricePoint{
			Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
			NAV:  nav.InexactFloat64(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, common.DataUnavailable("postgres: iterate prices", err)
	}
	return points, nil
}

// SaveFund replaces a fund and its holdings and sectors in one transaction
func (s *FundStore) SaveFund(ctx context.Context, fund *models.FundProjection) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO funds (fund_id, name, category, sub_category, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (fund_id) DO UPDATE
		SET name = EXCLUDED.name,
		    category = EXCLUDED.category,
		    sub_category = EXCLUDED.sub_category,
		    updated_at = EXCLUDED.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert, fund.FundID, fund.Name, fund.Category, fund.SubCategory); err != nil {
		return fmt.Errorf("failed to upsert fund %s: %w", fund.FundID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_holdings WHERE fund_id = $1`, fund.FundID); err != nil {
		return fmt.Errorf("failed to clear holdings for %s: %w", fund.FundID, err)
	}
	for i, h := range fund.Holdings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fund_holdings (fund_id, position, ticker, name, weight) VALUES ($1, $2, $3, $4, $5)`,
			fund.FundID, i, h.Ticker, h.Name, h.Weight,
		); err != nil {
			return fmt.Errorf("failed to insert holding for %s: %w", fund.FundID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM fund_sectors WHERE fund_id = $1`, fund.FundID); err != nil {
		return fmt.Errorf("failed to clear sectors for %s: %w", fund.FundID, err)
	}
	for i, a := range fund.SectorAllocation {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fund_sectors (fund_id, position, sector, weight) VALUES ($1, $2, $3, $4)`,
			fund.FundID, i, a.Sector, a.Weight,
		); err != nil {
			return fmt.Errorf("failed to insert sector for %s: %w", fund.FundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fund %s: %w", fund.FundID, err)
	}
	return nil
}

// SavePrices upserts NAV points keyed by (fund, calendar day)
func (s *FundStore) SavePrices(ctx context.Context, fundID string, points []models.PricePoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO fund_prices (fund_id, date, nav)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (fund_id, date) DO UPDATE SET nav = EXCLUDED.nav
	`
	for _, p := range points {
		if math.IsNaN(p.NAV) || math.IsInf(p.NAV, 0) {
			return fmt.Errorf("invalid NAV %v for %s on %s", p.NAV, fundID, p.Date.Format(dateLayout))
		}
		if _, err := tx.ExecContext(ctx, query, fundID, p.Day().Format(dateLayout), decimal.NewFromFloat(p.NAV).String()); err != nil {
			return fmt.Errorf("failed to insert price for %s: %w", fundID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices for %s: %w", fundID, err)
	}
	s.logger.Debug().Str("fund_id", fundID).Int("points", len(points)).Msg("Prices saved to Postgres")
	return nil
}
