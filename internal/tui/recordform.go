package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/sadopc/babylog/internal/store"
)

const formTime = "2006-01-02 15:04"

// recordFields holds the text of a record form. Forms bind to its fields by
// pointer, so it must outlive value copies of the screen model.
type recordFields struct {
	category store.Category
	id       int64
	babyID   int64
	created  time.Time
	color    *int

	start, end string
	kind       string
	side       string
	amount     string
	name, unit string
	dosage     string
	height     string
	weight     string
	head       string
	milestone  string
	note       string
}

func newRecordFields(c store.Category, now time.Time) *recordFields {
	ts := now.Format(formTime)
	return &recordFields{category: c, start: ts, kind: "0", side: "", unit: "ml"}
}

func fieldsOf(r store.Record) *recordFields {
	f := newRecordFields(r.Category(), r.OccurredAt().Local())
	f.id = r.RecordID()
	switch r := r.(type) {
	case store.FeedingRecord:
		f.babyID, f.created = r.BabyID, r.CreatedAt
		f.end = optTime(r.EndTime)
		f.kind = strconv.Itoa(int(r.Type))
		f.amount = optInt(r.Amount)
		f.side = optInt(r.Side)
		f.note = r.Note
	case store.SleepRecord:
		f.babyID, f.created = r.BabyID, r.CreatedAt
		f.end = optTime(r.EndTime)
		f.kind = optInt(r.Quality)
		f.note = r.Note
	case store.DiaperRecord:
		f.babyID, f.created = r.BabyID, r.CreatedAt
		f.kind = strconv.Itoa(int(r.Type))
		f.amount = optInt(r.Amount)
		f.color = r.Color
		f.note = r.Note
	case store.MedicineRecord:
		f.babyID, f.created = r.BabyID, r.CreatedAt
		f.name, f.unit = r.Name, r.Unit
		f.dosage = strconv.FormatFloat(r.Dosage, 'g', -1, 64)
		f.end = optTime(r.ReminderTime)
		f.note = r.Note
	case store.WaterRecord:
		f.babyID, f.created = r.BabyID, r.CreatedAt
		f.amount = strconv.Itoa(r.Amount)
		f.kind = strconv.Itoa(int(r.Temperature))
		f.note = r.Note
	case store.GrowthRecord:
		f.babyID, f.created = r.BabyID, r.CreatedAt
		f.height = optFloat(r.Height)
		f.weight = optFloat(r.Weight)
		f.head = optFloat(r.HeadCircumference)
		f.milestone = r.Milestone
		f.note = r.Note
	}
	return f
}

func optTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format(formTime)
}

func optInt[T ~int](v *T) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func options(labels ...string) []huh.Option[string] {
	out := make([]huh.Option[string], len(labels))
	for i, l := range labels {
		out[i] = huh.NewOption(l, strconv.Itoa(i))
	}
	return out
}

func requiredTime(s string) error {
	_, err := time.ParseInLocation(formTime, strings.TrimSpace(s), time.Local)
	if err != nil {
		return errors.New("use YYYY-MM-DD HH:MM")
	}
	return nil
}

func optionalTime(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return requiredTime(s)
}

func optionalInt(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.Atoi(strings.TrimSpace(s)); err != nil {
		return errors.New("enter a whole number")
	}
	return nil
}

func optionalNumber(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

// form builds the huh form for the record's category.
func (f *recordFields) form() *huh.Form {
	note := huh.NewText().Title("Note").Lines(2).Value(&f.note)
	var fields []huh.Field

	switch f.category {
	case store.CategoryFeeding:
		fields = []huh.Field{
			huh.NewInput().Title("Start").Validate(requiredTime).Value(&f.start),
			huh.NewInput().Title("End").Placeholder("empty while running").Validate(optionalTime).Value(&f.end),
			huh.NewSelect[string]().Title("Type").Options(options("Breast", "Bottle")...).Value(&f.kind),
			huh.NewSelect[string]().Title("Side").Options(append([]huh.Option[string]{huh.NewOption("-", "")}, options("Left", "Right")...)...).Value(&f.side),
			huh.NewInput().Title("Amount (ml)").Validate(optionalInt).Value(&f.amount),
		}
	case store.CategorySleep:
		fields = []huh.Field{
			huh.NewInput().Title("Start").Validate(requiredTime).Value(&f.start),
			huh.NewInput().Title("End").Placeholder("empty while running").Validate(optionalTime).Value(&f.end),
			huh.NewSelect[string]().Title("Quality").Options(append([]huh.Option[string]{huh.NewOption("-", "")}, options("Poor", "Fair", "Good")...)...).Value(&f.kind),
		}
	case store.CategoryDiaper:
		fields = []huh.Field{
			huh.NewInput().Title("Time").Validate(requiredTime).Value(&f.start),
			huh.NewSelect[string]().Title("Type").Options(options("Wet", "Dirty", "Both")...).Value(&f.kind),
			huh.NewSelect[string]().Title("Amount").Options(append([]huh.Option[string]{huh.NewOption("-", "")}, options("Small", "Medium", "Large")...)...).Value(&f.amount),
		}
	case store.CategoryMedicine:
		fields = []huh.Field{
			huh.NewInput().Title("Time").Validate(requiredTime).Value(&f.start),
			huh.NewInput().Title("Name").Value(&f.name),
			huh.NewInput().Title("Dosage").Validate(optionalNumber).Value(&f.dosage),
			huh.NewInput().Title("Unit").Value(&f.unit),
			huh.NewInput().Title("Remind at").Placeholder("optional").Validate(optionalTime).Value(&f.end),
		}
	case store.CategoryWater:
		fields = []huh.Field{
			huh.NewInput().Title("Time").Validate(requiredTime).Value(&f.start),
			huh.NewInput().Title("Amount (ml)").Validate(optionalInt).Value(&f.amount),
			huh.NewSelect[string]().Title("Temperature").Options(options("Room", "Warm", "Hot")...).Value(&f.kind),
		}
	case store.CategoryGrowth:
		fields = []huh.Field{
			huh.NewInput().Title("Time").Validate(requiredTime).Value(&f.start),
			huh.NewInput().Title("Weight (kg)").Validate(optionalNumber).Value(&f.weight),
			huh.NewInput().Title("Height (cm)").Validate(optionalNumber).Value(&f.height),
			huh.NewInput().Title("Head circumference (cm)").Validate(optionalNumber).Value(&f.head),
			huh.NewInput().Title("Milestone").Value(&f.milestone),
		}
	}
	fields = append(fields, note)
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(true).WithShowErrors(true)
}

func parseTime(s string) *time.Time {
	t, err := time.ParseInLocation(formTime, strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt[T ~int](s string) *T {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	v := T(n)
	return &v
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

func orZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// record turns the form text into a store record. Range and required-field
// checks are left to the view-model.
func (f *recordFields) record() (store.Record, error) {
	start := parseTime(f.start)
	if start == nil {
		return nil, fmt.Errorf("time %q: use YYYY-MM-DD HH:MM", f.start)
	}
	note := strings.TrimSpace(f.note)

	switch f.category {
	case store.CategoryFeeding:
		return store.FeedingRecord{
			ID: f.id, BabyID: f.babyID, StartTime: *start, EndTime: parseTime(f.end),
			Type: orZero(parseInt[store.FeedingType](f.kind)), Amount: parseInt[int](f.amount),
			Side: parseInt[store.Side](f.side), Note: note, CreatedAt: f.created,
		}, nil
	case store.CategorySleep:
		return store.SleepRecord{
			ID: f.id, BabyID: f.babyID, StartTime: *start, EndTime: parseTime(f.end),
			Quality: parseInt[store.SleepQuality](f.kind), Note: note, CreatedAt: f.created,
		}, nil
	case store.CategoryDiaper:
		return store.DiaperRecord{
			ID: f.id, BabyID: f.babyID, Time: *start, Type: orZero(parseInt[store.DiaperType](f.kind)), Color: f.color,
			Amount: parseInt[int](f.amount), Note: note, CreatedAt: f.created,
		}, nil
	case store.CategoryMedicine:
		return store.MedicineRecord{
			ID: f.id, BabyID: f.babyID, Time: *start, Name: strings.TrimSpace(f.name),
			Dosage: orZero(parseFloat(f.dosage)), Unit: strings.TrimSpace(f.unit),
			ReminderTime: parseTime(f.end), Note: note, CreatedAt: f.created,
		}, nil
	case store.CategoryWater:
		return store.WaterRecord{
			ID: f.id, BabyID: f.babyID, Time: *start, Amount: orZero(parseInt[int](f.amount)),
			Temperature: orZero(parseInt[store.Temperature](f.kind)), Note: note, CreatedAt: f.created,
		}, nil
	case store.CategoryGrowth:
		return store.GrowthRecord{
			ID: f.id, BabyID: f.babyID, Time: *start, Height: parseFloat(f.height), Weight: parseFloat(f.weight),
			HeadCircumference: parseFloat(f.head), Milestone: strings.TrimSpace(f.milestone), Note: note, CreatedAt: f.created,
		}, nil
	}
	return nil, fmt.Errorf("unknown category %q", f.category)
}

// describe renders one record as a list line.
func describe(r store.Record) string {
	at := r.OccurredAt().Local().Format("01-02 15:04")
	var what string
	switch r := r.(type) {
	case store.FeedingRecord:
		what = []string{"Breast", "Bottle"}[clamp(int(r.Type), 2)]
		if r.Amount != nil {
			what += fmt.Sprintf(" %d ml", *r.Amount)
		}
		if r.EndTime == nil {
			what += " (running)"
		} else {
			what += " " + formatDuration(r.Duration())
		}
	case store.SleepRecord:
		what = "Sleep"
		if r.EndTime == nil {
			what += " (running)"
		} else {
			what += " " + formatHours(r.Duration())
		}
	case store.DiaperRecord:
		what = "Diaper " + []string{"wet", "dirty", "both"}[clamp(int(r.Type), 3)]
	case store.MedicineRecord:
		what = fmt.Sprintf("%s %g %s", r.Name, r.Dosage, r.Unit)
	case store.WaterRecord:
		what = fmt.Sprintf("Water %d ml", r.Amount)
	case store.GrowthRecord:
		var parts []string
		if r.Weight != nil {
			parts = append(parts, fmt.Sprintf("%.2f kg", *r.Weight))
		}
		if r.Height != nil {
			parts = append(parts, fmt.Sprintf("%.1f cm", *r.Height))
		}
		if r.Milestone != "" {
			parts = append(parts, r.Milestone)
		}
		what = "Growth " + strings.Join(parts, ", ")
	}
	return fmt.Sprintf("%s  %-9s %s", at, r.Category(), what)
}
