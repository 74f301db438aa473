package stats

import "time"

// DayValue is one point of a per-day series.
type DayValue struct {
	Day   time.Time
	Value float64
}

// Daily buckets items into calendar days of loc from from to to, inclusive,
// summing value per day. Days without items are present with a zero value.
func Daily[T any](items []T, at func(T) time.Time, value func(T) float64, from, to time.Time, loc *time.Location) []DayValue {
	if loc == nil {
		loc = time.Local
	}
	first := StartOfDay(from.In(loc))
	last := StartOfDay(to.In(loc))
	if last.Before(first) {
		return nil
	}

	var out []DayValue
	index := make(map[string]int)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		index[d.Format(time.DateOnly)] = len(out)
		out = append(out, DayValue{Day: d})
	}

	for _, it := range items {
		key := at(it).In(loc).Format(time.DateOnly)
		if i, ok := index[key]; ok {
			out[i].Value += value(it)
		}
	}
	return out
}
