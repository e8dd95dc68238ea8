package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bobmcallan/fundlens/internal/models"
)

// fundSectors is one fund's sector weights keyed by normalized label
type fundSectors struct {
	fundID  string
	weights map[string]float64
	labels  map[string]string // normalized -> trimmed raw label
}

func normalizeSector(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// normalizeSectors drops blank labels and resolves duplicate labels last-wins.
func normalizeSectors(fundID string, allocs []models.SectorAllocation) fundSectors {
	fs := fundSectors{
		fundID:  fundID,
		weights: make(map[string]float64, len(allocs)),
		labels:  make(map[string]string, len(allocs)),
	}
	for _, a := range allocs {
		key := normalizeSector(a.Sector)
		if key == "" {
			continue
		}
		fs.weights[key] = sanitizeWeight(a.Weight)
		fs.labels[key] = strings.TrimSpace(a.Sector)
	}
	return fs
}

// AnalyzeSectors compares sector vectors pairwise and aggregates exposure across all funds.
// Returns a nil result and a reason when any fund has no sector data.
func AnalyzeSectors(funds []fundSectors) (*models.SectorOverlapResult, string) {
	if len(funds) < 2 {
		return nil, "at least two funds are required for sector overlap"
	}
	for _, f := range funds {
		if len(f.weights) == 0 {
			return nil, fmt.Sprintf("fund %s has no sector allocation", f.fundID)
		}
	}

	// Union of sector keys, sorted so vectors line up deterministically.
	display := make(map[string]string)
	for _, f := range funds {
		for key := range f.weights {
			if _, ok := display[key]; !ok {
				display[key] = f.labels[key]
			}
		}
	}
	keys := make([]string, 0, len(display))
	for key := range display {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	vectors := make([][]float64, len(funds))
	for i, f := range funds {
		v := make([]float64, len(keys))
		for k, key := range keys {
			v[k] = f.weights[key]
		}
		vectors[i] = v
	}

	result := &models.SectorOverlapResult{
		TopSectors: make(map[string]string, len(funds)),
	}

	for _, p := range pairs(len(funds)) {
		a, b := funds[p[0]], funds[p[1]]
		va, vb := vectors[p[0]], vectors[p[1]]

		var percent float64
		common := []models.CommonSector{}
		for k, key := range keys {
			percent += math.Min(va[k], vb[k])
			if va[k] > 0 && vb[k] > 0 {
				common = append(common, models.CommonSector{
					Sector:     display[key],
					WeightA:    va[k],
					WeightB:    vb[k],
					Difference: round2(math.Abs(va[k] - vb[k])),
				})
			}
		}
		sort.SliceStable(common, func(i, j int) bool {
			return common[i].WeightA+common[i].WeightB > common[j].WeightA+common[j].WeightB
		})

		result.Pairwise = append(result.Pairwise, models.SectorPairOverlap{
			FundA:            a.fundID,
			FundB:            b.fundID,
			CosineSimilarity: round4(Cosine(va, vb)),
			PercentOverlap:   round2(percent),
			CommonSectors:    common,
		})
	}

	for k, key := range keys {
		exp := models.SectorExposure{
			Sector:  display[key],
			Weights: make(map[string]float64),
		}
		var sum float64
		for i, f := range funds {
			w := vectors[i][k]
			sum += w
			if w > 0 {
				exp.FundsExposed++
				exp.Weights[f.fundID] = w
			}
		}
		exp.AverageWeight = round2(sum / float64(len(funds)))
		result.Exposures = append(result.Exposures, exp)
	}
	sort.SliceStable(result.Exposures, func(i, j int) bool {
		return result.Exposures[i].AverageWeight > result.Exposures[j].AverageWeight
	})

	for i, f := range funds {
		best, bestWeight := -1, 0.0
		for k := range keys {
			if vectors[i][k] > bestWeight {
				best, bestWeight = k, vectors[i][k]
			}
		}
		if best >= 0 {
			result.TopSectors[f.fundID] = display[keys[best]]
		}
	}

	return result, ""
}

// sharedTopSector returns the top sector every fund has in common, if any.
func sharedTopSector(sectors *models.SectorOverlapResult, fundCount int) (string, bool) {
	if sectors == nil || len(sectors.TopSectors) != fundCount || fundCount < 2 {
		return "", false
	}
	var top string
	for _, s := range sectors.TopSectors {
		if top == "" {
			top = s
			continue
		}
		if normalizeSector(s) != normalizeSector(top) {
			return "", false
		}
	}
	return top, true
}
