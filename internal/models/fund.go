// Package models defines data structures for FundLens
package models

import (
	"strings"
	"time"
)

// Provenance of a fund projection, reported back to consumers in the comparison trace.
const (
	SourceStore    = "store"    // primary fund data store
	SourceCache    = "cache"    // served from the in-process cache
	SourceExternal = "external" // fetched live from a market-data provider
)

// FundRef identifies a fund and carries its display metadata
type FundRef struct {
	FundID      string `json:"fund_id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`
}

// Holding represents one security held by a fund
type Holding struct {
	Ticker string  `json:"ticker,omitempty"`
	Name   string  `json:"name,omitempty"`
	Weight float64 `json:"weight"` // Percentage weight, may exceed 100 or be negative in raw data
}

// Label returns the raw display identifier: ticker when present, otherwise name.
func (h Holding) Label() string {
	if t := strings.TrimSpace(h.Ticker); t != "" {
		return t
	}
	return strings.TrimSpace(h.Name)
}

// SectorAllocation represents a fund's weight in one sector
type SectorAllocation struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"` // Percentage weight
}

// PricePoint is a single NAV observation
type PricePoint struct {
	Date time.Time `json:"date"`
	NAV  float64   `json:"nav"`
}

// Day returns the UTC calendar day of the observation as UTC midnight.
// Stores and analyzers bucket prices by this day.
func (p PricePoint) Day() time.Time {
	return UTCDay(p.Date)
}

// UTCDay drops the time of day after converting t to UTC.
func UTCDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FundProjection is the subset of fund data needed to compare funds
type FundProjection struct {
	FundRef
	Holdings         []Holding          `json:"holdings"`
	SectorAllocation []SectorAllocation `json:"sector_allocation"`
	Source           string             `json:"source,omitempty"`
}

// Ref returns the fund's metadata without its holdings
func (p *FundProjection) Ref() FundRef {
	return p.FundRef
}
