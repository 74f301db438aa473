package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/babylog/internal/store"
)

// cellTime is the date-time layout of timestamp cells, in the configured
// location. The offset keeps the repeated hour of a DST change unambiguous.
const cellTime = "2006-01-02 15:04:05-07:00"

// cellLocalTime is the offset-free layout of older exports, read as wall
// clock time in the configured location.
const cellLocalTime = "2006-01-02 15:04:05"

// codec maps records to rows and back for one locale and time zone.
type codec struct {
	l   *Locale
	loc *time.Location
}

func (c codec) time(t time.Time) string {
	return t.In(c.loc).Format(cellTime)
}

func (c codec) optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return c.time(*t)
}

func optInt[T ~int](v *T) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}

func optLabel[T ~int](labels []string, v *T) string {
	if v == nil {
		return ""
	}
	return label(labels, int(*v))
}

func float(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return float(*v)
}

func minutes(start time.Time, end *time.Time) string {
	if end == nil {
		return ""
	}
	return strconv.FormatInt(int64(end.Sub(start)/time.Minute), 10)
}

func (c codec) row(r store.Record) []string {
	switch r := r.(type) {
	case store.FeedingRecord:
		return []string{
			c.time(r.StartTime), c.optTime(r.EndTime), minutes(r.StartTime, r.EndTime),
			label(c.l.FeedingTypes, int(r.Type)), optInt(r.Amount), optLabel(c.l.Sides, r.Side),
			r.Note, c.time(r.CreatedAt),
		}
	case store.SleepRecord:
		return []string{
			c.time(r.StartTime), c.optTime(r.EndTime), minutes(r.StartTime, r.EndTime),
			optLabel(c.l.Qualities, r.Quality), r.Note, c.time(r.CreatedAt),
		}
	case store.DiaperRecord:
		return []string{
			c.time(r.Time), label(c.l.DiaperTypes, int(r.Type)), optInt(r.Color),
			optLabel(c.l.DiaperAmounts, r.Amount), r.Note, c.time(r.CreatedAt),
		}
	case store.MedicineRecord:
		return []string{
			c.time(r.Time), r.Name, float(r.Dosage), r.Unit, c.optTime(r.ReminderTime),
			r.Note, c.time(r.CreatedAt),
		}
	case store.WaterRecord:
		return []string{
			c.time(r.Time), strconv.Itoa(r.Amount), label(c.l.Temperatures, int(r.Temperature)),
			r.Note, c.time(r.CreatedAt),
		}
	case store.GrowthRecord:
		return []string{
			c.time(r.Time), optFloat(r.Height), optFloat(r.Weight), optFloat(r.HeadCircumference),
			r.Milestone, r.Note, c.time(r.CreatedAt),
		}
	}
	return nil
}

// Records lists every record of one category in Data order.
func (d Data) Records(c store.Category) []store.Record {
	var out []store.Record
	switch c {
	case store.CategoryFeeding:
		for _, r := range d.Feedings {
			out = append(out, r)
		}
	case store.CategorySleep:
		for _, r := range d.Sleeps {
			out = append(out, r)
		}
	case store.CategoryDiaper:
		for _, r := range d.Diapers {
			out = append(out, r)
		}
	case store.CategoryMedicine:
		for _, r := range d.Medicines {
			out = append(out, r)
		}
	case store.CategoryWater:
		for _, r := range d.Water {
			out = append(out, r)
		}
	case store.CategoryGrowth:
		for _, r := range d.Growth {
			out = append(out, r)
		}
	}
	return out
}

// ============================================================
// Parsing
// ============================================================

// cells gives positional access to a row of any length.
type cells []string

func (r cells) at(i int) string {
	if i < len(r) {
		return strings.TrimSpace(r[i])
	}
	return ""
}

// raw keeps surrounding whitespace for free-text columns.
func (r cells) raw(i int) string {
	if i < len(r) {
		return r[i]
	}
	return ""
}

func (c codec) parseTime(s string) (time.Time, bool) {
	if t, err := time.Parse(cellTime, s); err == nil {
		return t.In(c.loc), true
	}
	t, err := time.ParseInLocation(cellLocalTime, s, c.loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (c codec) parseOptTime(s string) *time.Time {
	t, ok := c.parseTime(s)
	if !ok {
		return nil
	}
	return &t
}

func parseOptInt[T ~int](s string) *T {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	v := T(n)
	return &v
}

func parseOptFloat(s string) *float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseLabel accepts an integer code or a label from any locale.
func parseLabel[T ~int](s string, labels func(*Locale) []string) *T {
	if v := parseOptInt[T](s); v != nil {
		return v
	}
	for _, l := range locales {
		for i, name := range labels(l) {
			if strings.EqualFold(name, s) {
				v := T(i)
				return &v
			}
		}
	}
	return nil
}

func orZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// createdOr falls back to the event time when the creation cell is missing.
func (c codec) createdOr(s string, fallback time.Time) time.Time {
	if t, ok := c.parseTime(s); ok {
		return t
	}
	return fallback
}

func feedingTypes(l *Locale) []string { return l.FeedingTypes }
func sides(l *Locale) []string { return l.Sides }
func qualities(l *Locale) []string { return l.Qualities }
func diaperTypes(l *Locale) []string { return l.DiaperTypes }
func diaperAmounts(l *Locale) []string { return l.DiaperAmounts }
func temperatures(l *Locale) []string { return l.Temperatures }

// endOf prefers the end cell and falls back to start plus a duration in minutes.
func (c codec) endOf(start time.Time, endCell, durationCell string) *time.Time {
	if end := c.parseOptTime(endCell); end != nil {
		return end
	}
	if m := parseOptInt[int](durationCell); m != nil {
		end := start.Add(time.Duration(*m) * time.Minute)
		return &end
	}
	return nil
}

// parse maps one data row of category cat into d. It reports false when the
// row's primary timestamp cannot be read.
func (c codec) parse(cat store.Category, row cells, d *Data) bool {
	at, ok := c.parseTime(row.at(0))
	if !ok {
		return false
	}

	switch cat {
	case store.CategoryFeeding:
		d.Feedings = append(d.Feedings, store.FeedingRecord{
			StartTime: at,
			EndTime:   c.endOf(at, row.at(1), row.at(2)),
			Type:      orZero(parseLabel[store.FeedingType](row.at(3), feedingTypes)),
			Amount:    parseOptInt[int](row.at(4)),
			Side:      parseLabel[store.Side](row.at(5), sides),
			Note:      row.raw(6),
			CreatedAt: c.createdOr(row.at(7), at),
		})
	case store.CategorySleep:
		d.Sleeps = append(d.Sleeps, store.SleepRecord{
			StartTime: at,
			EndTime:   c.endOf(at, row.at(1), row.at(2)),
			Quality:   parseLabel[store.SleepQuality](row.at(3), qualities),
			Note:      row.raw(4),
			CreatedAt: c.createdOr(row.at(5), at),
		})
	case store.CategoryDiaper:
		d.Diapers = append(d.Diapers, store.DiaperRecord{
			Time:      at,
			Type:      orZero(parseLabel[store.DiaperType](row.at(1), diaperTypes)),
			Color:     parseOptInt[int](row.at(2)),
			Amount:    parseLabel[int](row.at(3), diaperAmounts),
			Note:      row.raw(4),
			CreatedAt: c.createdOr(row.at(5), at),
		})
	case store.CategoryMedicine:
		d.Medicines = append(d.Medicines, store.MedicineRecord{
			Time:         at,
			Name:         row.raw(1),
			Dosage:       orZero(parseOptFloat(row.at(2))),
			Unit:         row.raw(3),
			ReminderTime: c.parseOptTime(row.at(4)),
			Note:         row.raw(5),
			CreatedAt:    c.createdOr(row.at(6), at),
		})
	case store.CategoryWater:
		d.Water = append(d.Water, store.WaterRecord{
			Time:        at,
			Amount:      orZero(parseOptInt[int](row.at(1))),
			Temperature: orZero(parseLabel[store.Temperature](row.at(2), temperatures)),
			Note:        row.raw(3),
			CreatedAt:   c.createdOr(row.at(4), at),
		})
	case store.CategoryGrowth:
		d.Growth = append(d.Growth, store.GrowthRecord{
			Time:              at,
			Height:            parseOptFloat(row.at(1)),
			Weight:            parseOptFloat(row.at(2)),
			HeadCircumference: parseOptFloat(row.at(3)),
			Milestone:         row.raw(4),
			Note:              row.raw(5),
			CreatedAt:         c.createdOr(row.at(6), at),
		})
	}
	return true
}
