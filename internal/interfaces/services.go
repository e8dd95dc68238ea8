package interfaces

import (
	"context"

	"github.com/bobmcallan/fundlens/internal/models"
)

// CompareService compares 2-5 funds on holdings, sectors and returns
type CompareService interface {
	// CompareFunds validates ids, loads fund data and runs every analyzer.
	// Invalid input and unknown ids fail with common.InputError before any
	// price history is fetched.
	CompareFunds(ctx context.Context, fundIDs []string, opts models.CompareOptions) (*models.ComparisonResponse, error)
}
