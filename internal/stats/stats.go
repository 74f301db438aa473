// Package stats computes per-category statistics and growth trends over a
// window of records.
package stats

import (
	"sort"
	"time"

	"github.com/sadopc/babylog/internal/store"
)

type FeedingStats struct {
	Count           int
	BreastCount     int
	BottleCount     int
	TotalAmount     int // ml
	AverageDuration time.Duration
}

type SleepStats struct {
	Count           int
	TotalDuration   time.Duration
	AverageDuration time.Duration
}

type DiaperStats struct {
	Count      int
	WetCount   int
	DirtyCount int
}

type WaterStats struct {
	Count         int
	TotalAmount   int // ml
	AverageAmount float64
}

type MedicineStats struct {
	Count int
	Doses map[string]int
}

// GrowthTrend is the change from the oldest to the newest measurement.
type GrowthTrend struct {
	Height            float64 // cm
	Weight            float64 // kg
	HeadCircumference float64 // cm
	Months            int
	Samples           int
}

// Feeding averages duration only over feedings that have ended.
func Feeding(records []store.FeedingRecord) FeedingStats {
	var s FeedingStats
	var total time.Duration
	var finished int
	for _, r := range records {
		s.Count++
		switch r.Type {
		case store.FeedingBreast:
			s.BreastCount++
		case store.FeedingBottle:
			s.BottleCount++
		}
		if r.Amount != nil {
			s.TotalAmount += *r.Amount
		}
		if r.EndTime != nil {
			total += r.Duration()
			finished++
		}
	}
	if finished > 0 {
		s.AverageDuration = total / time.Duration(finished)
	}
	return s
}

func Sleep(records []store.SleepRecord) SleepStats {
	var s SleepStats
	var finished int
	for _, r := range records {
		s.Count++
		if r.EndTime != nil {
			s.TotalDuration += r.Duration()
			finished++
		}
	}
	if finished > 0 {
		s.AverageDuration = s.TotalDuration / time.Duration(finished)
	}
	return s
}

// Diaper counts a "both" change as wet and as dirty.
func Diaper(records []store.DiaperRecord) DiaperStats {
	var s DiaperStats
	for _, r := range records {
		s.Count++
		if r.Type.Wet() {
			s.WetCount++
		}
		if r.Type.Dirty() {
			s.DirtyCount++
		}
	}
	return s
}

func Water(records []store.WaterRecord) WaterStats {
	var s WaterStats
	for _, r := range records {
		s.Count++
		s.TotalAmount += r.Amount
	}
	if s.Count > 0 {
		s.AverageAmount = float64(s.TotalAmount) / float64(s.Count)
	}
	return s
}

func Medicine(records []store.MedicineRecord) MedicineStats {
	s := MedicineStats{Doses: make(map[string]int)}
	for _, r := range records {
		s.Count++
		s.Doses[r.Name]++
	}
	return s
}

// Growth subtracts the oldest measurement from the newest, field by field,
// reading an absent value as zero. Fewer than two records give a zero trend.
func Growth(records []store.GrowthRecord, p Period) GrowthTrend {
	trend := GrowthTrend{Months: p.Months(), Samples: len(records)}
	if len(records) < 2 {
		return trend
	}

	sorted := make([]store.GrowthRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })
	oldest, newest := sorted[0], sorted[len(sorted)-1]

	trend.Height = value(newest.Height) - value(oldest.Height)
	trend.Weight = value(newest.Weight) - value(oldest.Weight)
	trend.HeadCircumference = value(newest.HeadCircumference) - value(oldest.HeadCircumference)
	return trend
}

// Zero reports whether the trend carries no change at all.
func (t GrowthTrend) Zero() bool {
	return t.Height == 0 && t.Weight == 0 && t.HeadCircumference == 0
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Change pairs a figure with the same figure from the preceding window.
type Change struct {
	Current  float64
	Previous float64
}

// Percent returns the relative change, or 0 when there is nothing to compare to.
func (c Change) Percent() float64 {
	if c.Previous == 0 {
		return 0
	}
	return (c.Current - c.Previous) / c.Previous * 100
}

// FeedingComparison compares two feeding windows.
type FeedingComparison struct {
	Count  Change
	Amount Change
}

func CompareFeeding(current, previous FeedingStats) FeedingComparison {
	return FeedingComparison{
		Count:  Change{Current: float64(current.Count), Previous: float64(previous.Count)},
		Amount: Change{Current: float64(current.TotalAmount), Previous: float64(previous.TotalAmount)},
	}
}
