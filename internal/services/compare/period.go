package compare

import (
	"strings"
	"time"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/models"
)

// window is the inclusive calendar-day range a correlation is computed over.
// A zero start means unbounded.
type window struct {
	period models.Period
	start  time.Time
	end    time.Time
}

// ParsePeriod validates a lookback period name, case-insensitively.
func ParsePeriod(s string) (models.Period, error) {
	p := models.Period(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range models.Periods {
		if p == known {
			return p, nil
		}
	}
	return "", common.NewInputError("unknown correlation period %q (expected one of 1M, 3M, 6M, 1Y, 3Y, 5Y, MAX)", s)
}

// periodWindow maps a period to its date range ending on now's calendar day.
func periodWindow(p models.Period, now time.Time) window {
	end := calendarDay(now)
	w := window{period: p, end: end}
	switch p {
	case models.Period1M:
		w.start = end.AddDate(0, -1, 0)
	case models.Period3M:
		w.start = end.AddDate(0, -3, 0)
	case models.Period6M:
		w.start = end.AddDate(0, -6, 0)
	case models.Period1Y:
		w.start = end.AddDate(-1, 0, 0)
	case models.Period3Y:
		w.start = end.AddDate(-3, 0, 0)
	case models.Period5Y:
		w.start = end.AddDate(-5, 0, 0)
	}
	return w
}

// contains reports whether day (already truncated) falls inside the window.
func (w window) contains(day time.Time) bool {
	if !w.start.IsZero() && day.Before(w.start) {
		return false
	}
	return !day.After(w.end)
}

// calendarDay is the UTC day t falls on, as UTC midnight.
func calendarDay(t time.Time) time.Time {
	return models.UTCDay(t)
}
