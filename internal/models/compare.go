package models

import (
	"time"
)

// Period is a correlation lookback window
type Period string

const (
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	Period3Y  Period = "3Y"
	Period5Y  Period = "5Y"
	PeriodMax Period = "MAX"
)

// Periods lists every supported lookback window, shortest first
var Periods = []Period{Period1M, Period3M, Period6M, Period1Y, Period3Y, Period5Y, PeriodMax}

// CompareOptions tunes a comparison. Zero values take service defaults.
type CompareOptions struct {
	TopNHoldings       int    `json:"top_n_holdings,omitempty"`
	CorrelationPeriod  Period `json:"correlation_period,omitempty"`
	IncludeCorrelation *bool  `json:"include_correlation,omitempty"`
}

// OverlapLevel classifies average holdings overlap
type OverlapLevel string

const (
	OverlapHigh     OverlapLevel = "HIGH"
	OverlapModerate OverlapLevel = "MODERATE"
	OverlapLow      OverlapLevel = "LOW"
)

// CommonHolding is a security held by two or more of the compared funds
type CommonHolding struct {
	Identifier string             `json:"identifier"` // normalized ticker or name
	Label      string             `json:"label"`      // raw ticker or name for display
	FundCount  int                `json:"fund_count"`
	Weights    map[string]float64 `json:"weights"` // fund id -> raw weight as supplied
}

// PairwiseOverlap holds set-similarity metrics for one unordered pair of funds
type PairwiseOverlap struct {
	FundA           string  `json:"fund_a"`
	FundB           string  `json:"fund_b"`
	Jaccard         float64 `json:"jaccard"`          // 0..1, 4 dp
	WeightedOverlap float64 `json:"weighted_overlap"` // sum of min weights, 2 dp
	CommonStocks    int     `json:"common_stocks"`
}

// HoldingsOverlapResult is the holdings analysis across two or more funds
type HoldingsOverlapResult struct {
	CommonHoldings    []CommonHolding     `json:"common_holdings"`
	UniqueHoldings    map[string][]string `json:"unique_holdings"` // fund id -> identifiers only that fund holds
	TotalDistinct     int                 `json:"total_distinct"`
	OverlapPercentage float64             `json:"overlap_percentage"` // common / distinct * 100, 2 dp
	Pairwise          []PairwiseOverlap   `json:"pairwise"`
	AverageOverlap    *float64            `json:"average_overlap"` // mean pairwise Jaccard as %, 2 dp
}

// CommonSector is a sector both funds of a pair are exposed to
type CommonSector struct {
	Sector     string  `json:"sector"`
	WeightA    float64 `json:"weight_a"`
	WeightB    float64 `json:"weight_b"`
	Difference float64 `json:"difference"`
}

// SectorPairOverlap holds sector-vector similarity for one pair of funds
type SectorPairOverlap struct {
	FundA            string         `json:"fund_a"`
	FundB            string         `json:"fund_b"`
	CosineSimilarity float64        `json:"cosine_similarity"` // 0..1, 4 dp
	PercentOverlap   float64        `json:"percent_overlap"`   // sum of min weights, 2 dp
	CommonSectors    []CommonSector `json:"common_sectors"`
}

// SectorExposure aggregates one sector across all compared funds
type SectorExposure struct {
	Sector        string             `json:"sector"`
	AverageWeight float64            `json:"average_weight"`
	FundsExposed  int                `json:"funds_exposed"`
	Weights       map[string]float64 `json:"weights"`
}

// SectorOverlapResult is the sector analysis across two or more funds
type SectorOverlapResult struct {
	Pairwise   []SectorPairOverlap `json:"pairwise"`
	Exposures  []SectorExposure    `json:"exposures"`
	TopSectors map[string]string   `json:"top_sectors"` // fund id -> largest sector
}

// ReturnsCorrelationResult reports daily-return correlation between two funds.
// Correlation is nil whenever it cannot be computed meaningfully; Reason says why.
type ReturnsCorrelationResult struct {
	FundA       string   `json:"fund_a"`
	FundB       string   `json:"fund_b"`
	Period      Period   `json:"period"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date"`
	Correlation *float64 `json:"correlation"`
	DataPoints  int      `json:"data_points"`  // common dates
	ReturnPairs int      `json:"return_pairs"` // aligned daily returns
	Reason      string   `json:"reason,omitempty"`
}

// Recommendations is qualitative diversification guidance
type Recommendations struct {
	OverlapLevel         OverlapLevel `json:"overlap_level"`
	DiversificationScore float64      `json:"diversification_score"`
	Advice               []string     `json:"advice"`
}

// ComparisonResult compares exactly two funds
type ComparisonResult struct {
	Funds              []FundRef                 `json:"funds"`
	HoldingsOverlap    *HoldingsOverlapResult    `json:"holdings_overlap"`
	HoldingsReason     string                    `json:"holdings_reason,omitempty"`
	SectorOverlap      *SectorOverlapResult      `json:"sector_overlap"`
	SectorReason       string                    `json:"sector_reason,omitempty"`
	ReturnsCorrelation *ReturnsCorrelationResult `json:"returns_correlation"`
	Recommendations    *Recommendations          `json:"recommendations"`
}

// ComparisonSummary aggregates a comparison of three or more funds
type ComparisonSummary struct {
	Funds           []FundRef              `json:"funds"`
	PairCount       int                    `json:"pair_count"`
	CorrelatedPairs int                    `json:"correlated_pairs"` // pairs with a non-null correlation
	HoldingsOverlap *HoldingsOverlapResult `json:"holdings_overlap"`
	HoldingsReason  string                 `json:"holdings_reason,omitempty"`
	SectorOverlap   *SectorOverlapResult   `json:"sector_overlap"`
	SectorReason    string                 `json:"sector_reason,omitempty"`
	AverageOverlap  *float64               `json:"average_overlap"` // mean of pairwise Jaccard %, 2 dp
	Recommendations *Recommendations       `json:"recommendations"`
}

// Trace records where the data came from and how long the comparison took
type Trace struct {
	ComparisonID string            `json:"comparison_id"`
	Sources      map[string]string `json:"sources"` // fund id -> store, cache or external
	FundFetchMS  int64             `json:"fund_fetch_ms"`
	PriceFetchMS int64             `json:"price_fetch_ms"`
	ComputeMS    int64             `json:"compute_ms"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// ComparisonResponse is the outcome of comparing 2-5 funds.
// Two funds populate Comparison; three or more populate Comparisons and Summary.
type ComparisonResponse struct {
	Funds       []FundRef          `json:"funds"`
	Period      Period             `json:"period"`
	Comparison  *ComparisonResult  `json:"comparison,omitempty"`
	Comparisons []ComparisonResult `json:"comparisons,omitempty"`
	Summary     *ComparisonSummary `json:"summary,omitempty"`
	Trace       Trace              `json:"trace"`
}
