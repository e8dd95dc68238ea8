package compare

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Jaccard returns |a ∩ b| / |a ∪ b| over two identifier sets.
// Returns 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	union := len(a)
	inter := 0
	for id := range b {
		if _, ok := a[id]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// WeightedOverlap sums min(a[id], b[id]) over identifiers present in both maps.
// Keys are visited in sorted order so the result is bit-for-bit symmetric.
func WeightedOverlap(a, b map[string]float64) float64 {
	common := make([]string, 0, len(a))
	for id := range a {
		if _, ok := b[id]; ok {
			common = append(common, id)
		}
	}
	sort.Strings(common)

	var total float64
	for _, id := range common {
		total += math.Min(a[id], b[id])
	}
	return total
}

// Cosine returns dot(a, b) / (‖a‖·‖b‖) for equal-length vectors.
// Returns 0 when either vector has zero magnitude. Non-negative inputs yield [0, 1].
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	c := floats.Dot(a, b) / (na * nb)
	if math.IsNaN(c) {
		return 0
	}
	return clamp(c, 0, 1)
}

// Pearson returns the correlation coefficient of two equal-length series.
// ok is false when it is undefined: fewer than two samples or a constant series.
func Pearson(x, y []float64) (r float64, ok bool) {
	if len(x) < 2 || len(x) != len(y) {
		return 0, false
	}
	if floats.Max(x) == floats.Min(x) || floats.Max(y) == floats.Min(y) {
		return 0, false
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return clamp(r, -1, 1), true
}

// sanitizeWeight treats negative and non-finite weights as zero.
func sanitizeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return 0
	}
	return w
}

// finiteOrZero keeps a raw value for display unless it cannot be serialized.
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round rounds half away from zero to the given decimal places.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func round2(v float64) float64 { return round(v, 2) }
func round4(v float64) float64 { return round(v, 4) }
