package stats

import (
	"fmt"
	"time"
)

// Period is a trailing window ending now.
type Period int

const (
	Today Period = iota
	Week
	Month
	ThreeMonths
	SixMonths
	Year
)

// StatisticsPeriods are offered on the statistics screen.
var StatisticsPeriods = []Period{Today, Week, Month}

// GrowthPeriods are offered for growth trends.
var GrowthPeriods = []Period{ThreeMonths, SixMonths, Year}

func (p Period) String() string {
	switch p {
	case Today:
		return "Today"
	case Week:
		return "Week"
	case Month:
		return "Month"
	case ThreeMonths:
		return "3 months"
	case SixMonths:
		return "6 months"
	case Year:
		return "1 year"
	default:
		return fmt.Sprintf("Period(%d)", int(p))
	}
}

// Range returns [from, now]. Today, Week and Month start at local midnight;
// the longer windows reach back exactly their length from now.
func (p Period) Range(now time.Time) (time.Time, time.Time) {
	midnight := StartOfDay(now)
	switch p {
	case Week:
		return midnight.AddDate(0, 0, -7), now
	case Month:
		return midnight.AddDate(0, -1, 0), now
	case ThreeMonths:
		return now.AddDate(0, -3, 0), now
	case SixMonths:
		return now.AddDate(0, -6, 0), now
	case Year:
		return now.AddDate(-1, 0, 0), now
	default:
		return midnight, now
	}
}

// Previous returns the window of equal length that ends where Range starts.
func (p Period) Previous(now time.Time) (time.Time, time.Time) {
	from, to := p.Range(now)
	return from.Add(-to.Sub(from)), from
}

// Months is the window length used to label growth trends.
func (p Period) Months() int {
	switch p {
	case Month:
		return 1
	case ThreeMonths:
		return 3
	case SixMonths:
		return 6
	case Year:
		return 12
	default:
		return 0
	}
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
