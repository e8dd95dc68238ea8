package compare

import (
	"fmt"

	"github.com/bobmcallan/fundlens/internal/models"
)

// Overlap level thresholds (strictly greater than) and the common-holdings
// count above which concentration is flagged.
const (
	HighOverlapThreshold     = 50.0
	ModerateOverlapThreshold = 30.0
	ConcentrationThreshold   = 10
)

// RecommendationInput is everything the recommendation generator looks at
type RecommendationInput struct {
	AverageOverlap float64 // percent
	CommonHoldings int
	Sectors        *models.SectorOverlapResult
	FundCount      int
}

// GetOverlapLevel classifies an average overlap percentage.
// Exactly 50 is MODERATE and exactly 30 is LOW.
func GetOverlapLevel(averageOverlap float64) models.OverlapLevel {
	switch {
	case averageOverlap > HighOverlapThreshold:
		return models.OverlapHigh
	case averageOverlap > ModerateOverlapThreshold:
		return models.OverlapModerate
	default:
		return models.OverlapLow
	}
}

// DiversificationScore is 100 minus the average overlap, clamped to [0, 100].
func DiversificationScore(averageOverlap float64) float64 {
	return round2(clamp(100-averageOverlap, 0, 100))
}

// GenerateRecommendations derives qualitative guidance from overlap metrics.
func GenerateRecommendations(in RecommendationInput) *models.Recommendations {
	level := GetOverlapLevel(in.AverageOverlap)
	rec := &models.Recommendations{
		OverlapLevel:         level,
		DiversificationScore: DiversificationScore(in.AverageOverlap),
		Advice:               []string{},
	}

	switch level {
	case models.OverlapHigh:
		rec.Advice = append(rec.Advice, "High holdings overlap: these funds largely own the same securities, so holding them together adds little diversification.")
	case models.OverlapModerate:
		rec.Advice = append(rec.Advice, "Moderate holdings overlap: review whether each fund earns its place or rebalance toward the less overlapping one.")
	default:
		rec.Advice = append(rec.Advice, "Low holdings overlap: these funds complement each other and diversify well together.")
	}

	if in.CommonHoldings > ConcentrationThreshold {
		rec.Advice = append(rec.Advice, fmt.Sprintf("%d securities are held in common; combined exposure to them is concentrated.", in.CommonHoldings))
	}

	if top, ok := sharedTopSector(in.Sectors, in.FundCount); ok {
		rec.Advice = append(rec.Advice, fmt.Sprintf("Every fund has %s as its largest sector; consider adding a fund with a different sector tilt.", top))
	}

	return rec
}
