package compare

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/fundlens/internal/models"
)

// MinCommonDates is the fewest shared NAV dates a correlation is computed from
const MinCommonDates = 30

const dateLayout = "2006-01-02"

// CorrelateReturns aligns two NAV series by calendar day inside the window and
// returns the Pearson correlation of their simple daily returns.
// Every degenerate case is reported through a nil Correlation and a Reason.
func CorrelateReturns(fundA, fundB string, a, b []models.PricePoint, w window) *models.ReturnsCorrelationResult {
	result := &models.ReturnsCorrelationResult{
		FundA:   fundA,
		FundB:   fundB,
		Period:  w.period,
		EndDate: w.end.Format(dateLayout),
	}
	if !w.start.IsZero() {
		result.StartDate = w.start.Format(dateLayout)
	}

	navA := navByDay(a, w)
	navB := navByDay(b, w)

	dates := make([]time.Time, 0, len(navA))
	for day := range navA {
		if _, ok := navB[day]; ok {
			dates = append(dates, day)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	result.DataPoints = len(dates)
	if len(dates) < MinCommonDates {
		result.ReturnPairs = max(len(dates)-1, 0)
		result.Reason = fmt.Sprintf("insufficient price history: %d common dates, need at least %d", len(dates), MinCommonDates)
		return result
	}

	retA := make([]float64, 0, len(dates)-1)
	retB := make([]float64, 0, len(dates)-1)
	for i := 1; i < len(dates); i++ {
		prev, cur := dates[i-1], dates[i]
		ra, okA := simpleReturn(navA[prev], navA[cur])
		rb, okB := simpleReturn(navB[prev], navB[cur])
		if !okA || !okB {
			result.Reason = fmt.Sprintf("insufficient price history: invalid NAV between %s and %s",
				prev.Format(dateLayout), cur.Format(dateLayout))
			return result
		}
		retA = append(retA, ra)
		retB = append(retB, rb)
	}
	result.ReturnPairs = len(retA)

	r, ok := Pearson(retA, retB)
	if !ok {
		result.Reason = "returns have zero variance; correlation is undefined"
		return result
	}
	r = round4(r)
	result.Correlation = &r
	return result
}

// navByDay keys in-window NAVs by calendar day. Later points for the same day win.
func navByDay(points []models.PricePoint, w window) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(points))
	for _, p := range points {
		day := p.Day()
		if !w.contains(day) {
			continue
		}
		out[day] = p.NAV
	}
	return out
}

// simpleReturn is (cur - prev) / prev; false when either NAV is not a positive
// finite number or the result is not finite.
func simpleReturn(prev, cur float64) (float64, bool) {
	if !validNAV(prev) || !validNAV(cur) {
		return 0, false
	}
	r := (cur - prev) / prev
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

func validNAV(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
