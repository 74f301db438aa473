package viewmodel

import (
	"strings"
	"time"

	"github.com/sadopc/babylog/internal/store"
)

func validateBaby(b store.Baby, now time.Time) error {
	switch {
	case blank(b.Name):
		return invalid("name", "is required")
	case b.Birthday.IsZero():
		return invalid("birthday", "is required")
	case b.Birthday.After(now):
		return invalid("birthday", "is in the future")
	case b.Gender != store.GenderGirl && b.Gender != store.GenderBoy:
		return invalid("gender", "is unknown")
	}
	return nil
}

func span(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return invalid("start time", "is required")
	}
	if end != nil && end.Before(start) {
		return invalid("end time", "is before the start time")
	}
	return nil
}

func nonNegative[T int | float64](field string, v *T) error {
	if v != nil && *v < 0 {
		return invalid(field, "must not be negative")
	}
	return nil
}

func inRange[T ~int](field string, v T, n int) error {
	if int(v) < 0 || int(v) >= n {
		return invalid(field, "is unknown")
	}
	return nil
}

func at(t time.Time) error {
	if t.IsZero() {
		return invalid("time", "is required")
	}
	return nil
}

func first(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// validate rejects what the store would reject and the blanks it would not.
func validate(rec store.Record) error {
	switch r := rec.(type) {
	case store.FeedingRecord:
		var side error
		if r.Side != nil {
			side = inRange("side", *r.Side, 2)
		}
		return first(span(r.StartTime, r.EndTime), inRange("type", r.Type, 2), nonNegative("amount", r.Amount), side)
	case store.SleepRecord:
		var quality error
		if r.Quality != nil {
			quality = inRange("quality", *r.Quality, 3)
		}
		return first(span(r.StartTime, r.EndTime), quality)
	case store.DiaperRecord:
		return first(at(r.Time), inRange("type", r.Type, 3), nonNegative("color", r.Color), nonNegative("amount", r.Amount))
	case store.MedicineRecord:
		switch {
		case blank(r.Name):
			return invalid("name", "is required")
		case blank(r.Unit):
			return invalid("unit", "is required")
		}
		return first(at(r.Time), nonNegative("dosage", &r.Dosage))
	case store.WaterRecord:
		return first(at(r.Time), nonNegative("amount", &r.Amount), inRange("temperature", r.Temperature, 3))
	case store.GrowthRecord:
		if r.Height == nil && r.Weight == nil && r.HeadCircumference == nil && blank(r.Milestone) {
			return invalid("measurement", "needs at least one value")
		}
		return first(at(r.Time), nonNegative("height", r.Height), nonNegative("weight", r.Weight),
			nonNegative("head circumference", r.HeadCircumference))
	}
	return nil
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalize stores free text with \n line breaks only, the form a CSV export
// reads back.
func normalize(rec store.Record) store.Record {
	switch r := rec.(type) {
	case store.FeedingRecord:
		r.Note = newlines.Replace(r.Note)
		return r
	case store.SleepRecord:
		r.Note = newlines.Replace(r.Note)
		return r
	case store.DiaperRecord:
		r.Note = newlines.Replace(r.Note)
		return r
	case store.MedicineRecord:
		r.Note = newlines.Replace(r.Note)
		return r
	case store.WaterRecord:
		r.Note = newlines.Replace(r.Note)
		return r
	case store.GrowthRecord:
		r.Note, r.Milestone = newlines.Replace(r.Note), newlines.Replace(r.Milestone)
		return r
	}
	return rec
}
