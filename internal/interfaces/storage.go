// Package interfaces defines service contracts for FundLens
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/fundlens/internal/models"
)

// FundStore is the read-side contract the comparison engine depends on.
// Implementations must be safe for concurrent use.
type FundStore interface {
	// FetchFundsByIDs returns projections for the ids it can resolve.
	// Ids it does not know are omitted, not errors. Store failures wrap
	// common.ErrDataUnavailable.
	FetchFundsByIDs(ctx context.Context, ids []string) ([]*models.FundProjection, error)

	// FetchPriceHistory returns NAV points for fundID within [start, end],
	// ascending by date. A zero start means from the earliest available point.
	FetchPriceHistory(ctx context.Context, fundID string, start, end time.Time) ([]models.PricePoint, error)
}

// FundWriter loads fund data into a writable store. Used by seeding and tests.
type FundWriter interface {
	SaveFund(ctx context.Context, fund *models.FundProjection) error
	SavePrices(ctx context.Context, fundID string, points []models.PricePoint) error
}

// StorageManager owns the configured fund store and its lifecycle
type StorageManager interface {
	FundStore() FundStore

	// Writer returns nil when the backend is read-only.
	Writer() FundWriter

	Close() error
}
