package export

import (
	"time"

	"github.com/sadopc/babylog/internal/store"
)

// Data is the set of records moved by one export or import.
type Data struct {
	Feedings  []store.FeedingRecord
	Sleeps    []store.SleepRecord
	Diapers   []store.DiaperRecord
	Medicines []store.MedicineRecord
	Water     []store.WaterRecord
	Growth    []store.GrowthRecord
}

// Count returns the number of records in one category.
func (d Data) Count(c store.Category) int {
	switch c {
	case store.CategoryFeeding:
		return len(d.Feedings)
	case store.CategorySleep:
		return len(d.Sleeps)
	case store.CategoryDiaper:
		return len(d.Diapers)
	case store.CategoryMedicine:
		return len(d.Medicines)
	case store.CategoryWater:
		return len(d.Water)
	case store.CategoryGrowth:
		return len(d.Growth)
	}
	return 0
}

func (d Data) Total() int {
	n := 0
	for _, c := range store.Categories {
		n += d.Count(c)
	}
	return n
}

func (d Data) Empty() bool {
	return d.Total() == 0
}

// Filter keeps only the listed categories. An empty list keeps everything.
func (d Data) Filter(categories []store.Category) Data {
	if len(categories) == 0 {
		return d
	}
	keep := make(map[store.Category]bool, len(categories))
	for _, c := range categories {
		keep[c] = true
	}
	var out Data
	if keep[store.CategoryFeeding] {
		out.Feedings = d.Feedings
	}
	if keep[store.CategorySleep] {
		out.Sleeps = d.Sleeps
	}
	if keep[store.CategoryDiaper] {
		out.Diapers = d.Diapers
	}
	if keep[store.CategoryMedicine] {
		out.Medicines = d.Medicines
	}
	if keep[store.CategoryWater] {
		out.Water = d.Water
	}
	if keep[store.CategoryGrowth] {
		out.Growth = d.Growth
	}
	return out
}

// Options control rendering of cells and progress reporting.
type Options struct {
	Locale   *Locale        // nil means English
	Location *time.Location // nil means time.Local

	// Progress receives the completed fraction after each step. It is never
	// called again once an error has occurred.
	Progress func(float64)

	// PDF only.
	Title    string
	FontPath string
}

func (o Options) locale() *Locale {
	if o.Locale == nil {
		return English
	}
	return o.Locale
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.Local
	}
	return o.Location
}

func (o Options) report(done, total int) {
	if o.Progress == nil {
		return
	}
	if total <= 0 {
		o.Progress(1)
		return
	}
	o.Progress(float64(done) / float64(total))
}

// Chart is a pre-rendered PNG placed ahead of the tables in a PDF.
type Chart struct {
	Title string
	PNG   []byte
}
