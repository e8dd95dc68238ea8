package models

import (
	"time"
)

// EODBar represents a single day's price data from the market-data provider
type EODBar struct {
	Date     time.Time `json:"date"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// NAV returns the adjusted close, falling back to close when the provider omits it
func (b EODBar) NAV() float64 {
	if b.AdjClose != 0 {
		return b.AdjClose
	}
	return b.Close
}

// EODResponse wraps EOD bars returned by the provider
type EODResponse struct {
	Data []EODBar `json:"data"`
}

// FundFundamentals is the fund-level slice of provider fundamentals
type FundFundamentals struct {
	Ticker        string             `json:"ticker"`
	Name          string             `json:"name"`
	Type          string             `json:"type"`               // "ETF", "FUND", ...
	Category      string             `json:"category,omitempty"` // provider category, e.g. "Large Blend"
	Holdings      []Holding          `json:"holdings"`
	SectorWeights []SectorAllocation `json:"sector_weights"`
	LastUpdated   time.Time          `json:"last_updated"`
}

// Projection converts provider fundamentals into a comparable fund projection
func (f *FundFundamentals) Projection(fundID string) *FundProjection {
	return &FundProjection{
		FundRef: FundRef{
			FundID:      fundID,
			Name:        f.Name,
			Category:    f.Type,
			SubCategory: f.Category,
		},
		Holdings:         f.Holdings,
		SectorAllocation: f.SectorWeights,
		Source:           SourceExternal,
	}
}
