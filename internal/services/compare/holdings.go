package compare

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/bobmcallan/fundlens/internal/models"
)

// fundHoldings is one fund's holdings keyed by normalized identifier
type fundHoldings struct {
	fundID  string
	weights map[string]float64        // sanitized weight used for computation
	raw     map[string]models.Holding // last raw holding seen per identifier
}

// normalizeIdentifier case-folds and strips everything but letters and digits.
func normalizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// holdingIdentifier prefers the ticker and falls back to the name.
// Returns "" when neither yields an identifier.
func holdingIdentifier(h models.Holding) string {
	if id := normalizeIdentifier(h.Ticker); id != "" {
		return id
	}
	return normalizeIdentifier(h.Name)
}

// normalizeHoldings builds the identifier view of a fund's holdings.
// Holdings without any identifier are dropped; duplicates resolve last-wins.
// topN > 0 keeps only the N heaviest holdings, ties broken by identifier.
func normalizeHoldings(fundID string, holdings []models.Holding, topN int) fundHoldings {
	fh := fundHoldings{
		fundID:  fundID,
		weights: make(map[string]float64, len(holdings)),
		raw:     make(map[string]models.Holding, len(holdings)),
	}
	for _, h := range holdings {
		id := holdingIdentifier(h)
		if id == "" {
			continue
		}
		fh.weights[id] = sanitizeWeight(h.Weight)
		fh.raw[id] = h
	}

	if topN <= 0 || len(fh.weights) <= topN {
		return fh
	}

	ids := fh.ids()
	sort.SliceStable(ids, func(i, j int) bool {
		return fh.weights[ids[i]] > fh.weights[ids[j]]
	})
	for _, id := range ids[topN:] {
		delete(fh.weights, id)
		delete(fh.raw, id)
	}
	return fh
}

// ids returns the fund's identifiers in sorted order
func (fh fundHoldings) ids() []string {
	ids := make([]string, 0, len(fh.weights))
	for id := range fh.weights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (fh fundHoldings) set() map[string]struct{} {
	s := make(map[string]struct{}, len(fh.weights))
	for id := range fh.weights {
		s[id] = struct{}{}
	}
	return s
}

// AnalyzeHoldings computes common, unique and pairwise overlap across two or more funds.
// Returns a nil result and a reason when any fund has no identifiable holdings.
func AnalyzeHoldings(funds []fundHoldings) (*models.HoldingsOverlapResult, string) {
	if len(funds) < 2 {
		return nil, "at least two funds are required for holdings overlap"
	}
	for _, f := range funds {
		if len(f.weights) == 0 {
			return nil, fmt.Sprintf("fund %s has no identifiable holdings", f.fundID)
		}
	}

	holders := make(map[string][]int)
	for i, f := range funds {
		for id := range f.weights {
			holders[id] = append(holders[id], i)
		}
	}

	result := &models.HoldingsOverlapResult{
		CommonHoldings: []models.CommonHolding{},
		UniqueHoldings: make(map[string][]string, len(funds)),
		TotalDistinct:  len(holders),
	}
	for _, f := range funds {
		result.UniqueHoldings[f.fundID] = []string{}
	}

	for id, idx := range holders {
		if len(idx) == 1 {
			fundID := funds[idx[0]].fundID
			result.UniqueHoldings[fundID] = append(result.UniqueHoldings[fundID], id)
			continue
		}
		sort.Ints(idx)
		ch := models.CommonHolding{
			Identifier: id,
			Label:      funds[idx[0]].raw[id].Label(),
			FundCount:  len(idx),
			Weights:    make(map[string]float64, len(idx)),
		}
		for _, i := range idx {
			ch.Weights[funds[i].fundID] = finiteOrZero(funds[i].raw[id].Weight)
		}
		result.CommonHoldings = append(result.CommonHoldings, ch)
	}
	sort.Slice(result.CommonHoldings, func(i, j int) bool {
		a, b := result.CommonHoldings[i], result.CommonHoldings[j]
		if a.FundCount != b.FundCount {
			return a.FundCount > b.FundCount
		}
		return a.Identifier < b.Identifier
	})
	for fundID := range result.UniqueHoldings {
		sort.Strings(result.UniqueHoldings[fundID])
	}

	result.OverlapPercentage = round2(float64(len(result.CommonHoldings)) / float64(result.TotalDistinct) * 100)

	var jaccardSum float64
	for _, p := range pairs(len(funds)) {
		a, b := funds[p[0]], funds[p[1]]
		setA, setB := a.set(), b.set()
		j := Jaccard(setA, setB)
		jaccardSum += j

		common := 0
		for id := range setA {
			if _, ok := setB[id]; ok {
				common++
			}
		}
		result.Pairwise = append(result.Pairwise, models.PairwiseOverlap{
			FundA:           a.fundID,
			FundB:           b.fundID,
			Jaccard:         round4(j),
			WeightedOverlap: round2(WeightedOverlap(a.weights, b.weights)),
			CommonStocks:    common,
		})
	}
	if n := len(result.Pairwise); n > 0 {
		avg := round2(jaccardSum / float64(n) * 100)
		result.AverageOverlap = &avg
	}

	return result, ""
}

// pairs enumerates every unordered index pair (i, j), i < j, in lexical order.
func pairs(n int) [][2]int {
	if n < 2 {
		return nil
	}
	out := make([][2]int, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out = append(out, [2]int{i, j})
		}
	}
	return out
}
