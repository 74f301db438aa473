package store

import "time"

// Category names one of the six record tables.
type Category string

const (
	CategoryFeeding  Category = "feeding"
	CategorySleep    Category = "sleep"
	CategoryDiaper   Category = "diaper"
	CategoryMedicine Category = "medicine"
	CategoryWater    Category = "water"
	CategoryGrowth   Category = "growth"
)

// Categories lists every record category in export order.
var Categories = []Category{
	CategoryFeeding,
	CategorySleep,
	CategoryDiaper,
	CategoryMedicine,
	CategoryWater,
	CategoryGrowth,
}

// ParseCategory accepts a category name and reports whether it is known.
func ParseCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == name {
			return c, true
		}
	}
	return "", false
}

func (c Category) table() string {
	return string(c) + "_records"
}

// Record is implemented by every care-event row.
type Record interface {
	Category() Category
	RecordID() int64
	OccurredAt() time.Time
}

type Gender int

const (
	GenderGirl Gender = 0
	GenderBoy  Gender = 1
)

type Baby struct {
	ID         int64
	Name       string
	Gender     Gender
	Birthday   time.Time
	Avatar     string
	CreatedAt  time.Time
	IsSelected bool
}

type FeedingType int

const (
	FeedingBreast FeedingType = 0
	FeedingBottle FeedingType = 1
)

type Side int

const (
	SideLeft  Side = 0
	SideRight Side = 1
)

type FeedingRecord struct {
	ID        int64
	BabyID    int64
	StartTime time.Time
	EndTime   *time.Time
	Type      FeedingType
	Amount    *int // ml
	Side      *Side
	Note      string
	CreatedAt time.Time
}

type SleepQuality int

const (
	QualityPoor SleepQuality = 0
	QualityFair SleepQuality = 1
	QualityGood SleepQuality = 2
)

type SleepRecord struct {
	ID        int64
	BabyID    int64
	StartTime time.Time
	EndTime   *time.Time
	Quality   *SleepQuality
	Note      string
	CreatedAt time.Time
}

type DiaperType int

const (
	DiaperWet   DiaperType = 0
	DiaperDirty DiaperType = 1
	DiaperBoth  DiaperType = 2
)

// Wet reports whether the change counts as wet.
func (t DiaperType) Wet() bool { return t == DiaperWet || t == DiaperBoth }

// Dirty reports whether the change counts as dirty.
func (t DiaperType) Dirty() bool { return t == DiaperDirty || t == DiaperBoth }

type DiaperRecord struct {
	ID        int64
	BabyID    int64
	Time      time.Time
	Type      DiaperType
	Color     *int
	Amount    *int // 0 small, 1 medium, 2 large
	Note      string
	CreatedAt time.Time
}

type MedicineRecord struct {
	ID           int64
	BabyID       int64
	Time         time.Time
	Name         string
	Dosage       float64
	Unit         string
	ReminderTime *time.Time
	Note         string
	CreatedAt    time.Time
}

type Temperature int

const (
	TemperatureRoom Temperature = 0
	TemperatureWarm Temperature = 1
	TemperatureHot  Temperature = 2
)

type WaterRecord struct {
	ID          int64
	BabyID      int64
	Time        time.Time
	Amount      int // ml
	Temperature Temperature
	Note        string
	CreatedAt   time.Time
}

type GrowthRecord struct {
	ID                int64
	BabyID            int64
	Time              time.Time
	Height            *float64 // cm
	Weight            *float64 // kg
	HeadCircumference *float64 // cm
	Milestone         string
	Note              string
	CreatedAt         time.Time
}

func (r FeedingRecord) Category() Category { return CategoryFeeding }
func (r FeedingRecord) RecordID() int64 { return r.ID }
func (r FeedingRecord) OccurredAt() time.Time { return r.StartTime }
func (r SleepRecord) Category() Category { return CategorySleep }
func (r SleepRecord) RecordID() int64 { return r.ID }
func (r SleepRecord) OccurredAt() time.Time { return r.StartTime }
func (r DiaperRecord) Category() Category { return CategoryDiaper }
func (r DiaperRecord) RecordID() int64 { return r.ID }
func (r DiaperRecord) OccurredAt() time.Time { return r.Time }
func (r MedicineRecord) Category() Category { return CategoryMedicine }
func (r MedicineRecord) RecordID() int64 { return r.ID }
func (r MedicineRecord) OccurredAt() time.Time { return r.Time }
func (r WaterRecord) Category() Category { return CategoryWater }
func (r WaterRecord) RecordID() int64 { return r.ID }
func (r WaterRecord) OccurredAt() time.Time { return r.Time }
func (r GrowthRecord) Category() Category { return CategoryGrowth }
func (r GrowthRecord) RecordID() int64 { return r.ID }
func (r GrowthRecord) OccurredAt() time.Time { return r.Time }

// Duration returns the elapsed time of a finished feeding, or zero while it runs.
func (r FeedingRecord) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// Duration returns the elapsed time of a finished sleep, or zero while it runs.
func (r SleepRecord) Duration() time.Duration {
	if r.EndTime == nil {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

type Setting struct {
	Key   string
	Value string
}

// DaySummary aggregates one baby's records over a time window.
type DaySummary struct {
	Feedings     int
	FeedingML    int
	SleepSeconds int64
	WetCount     int
	DirtyCount   int
	WaterML      int
	Medicines    int
}
