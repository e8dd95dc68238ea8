// Package common provides shared utilities for FundLens
package common

import "time"

// Freshness TTLs for cached fund data
const (
	FreshnessFundProjection = 15 * time.Minute // holdings and sectors change with monthly factsheets
	FreshnessPriceHistory   = 1 * time.Hour    // matches the daily NAV refresh cadence
)
