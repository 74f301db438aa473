package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/babylog/internal/store"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestEmptyInputsGiveZeroStats(t *testing.T) {
	assert.Equal(t, FeedingStats{}, Feeding(nil))
	assert.Equal(t, SleepStats{}, Sleep(nil))
	assert.Equal(t, DiaperStats{}, Diaper(nil))
	assert.Equal(t, WaterStats{}, Water(nil))
	assert.Equal(t, 0, Medicine(nil).Count)
	assert.Empty(t, Medicine(nil).Doses)
	assert.True(t, Growth(nil, ThreeMonths).Zero())
}

func TestFeedingTwoRecordWindow(t *testing.T) {
	end := t0.Add(15 * time.Minute)
	records := []store.FeedingRecord{
		{StartTime: t0, EndTime: &end, Type: store.FeedingBottle, Amount: ptr(100)},
		{StartTime: t0.Add(3 * time.Hour), Type: store.FeedingBreast, Amount: ptr(150)},
	}

	s := Feeding(records)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 250, s.TotalAmount)
	assert.Equal(t, 1, s.BreastCount)
	assert.Equal(t, 1, s.BottleCount)
	assert.Equal(t, 15*time.Minute, s.AverageDuration, "only ended feedings count toward the average")
}

func TestFeedingAbsentAmountIsZero(t *testing.T) {
	s := Feeding([]store.FeedingRecord{{StartTime: t0}, {StartTime: t0, Amount: ptr(60)}})
	assert.Equal(t, 60, s.TotalAmount)
	assert.Zero(t, s.AverageDuration)
}

func TestSleep(t *testing.T) {
	e1, e2 := t0.Add(time.Hour), t0.Add(5*time.Hour)
	s := Sleep([]store.SleepRecord{
		{StartTime: t0, EndTime: &e1},
		{StartTime: t0.Add(2 * time.Hour), EndTime: &e2},
		{StartTime: t0.Add(6 * time.Hour)},
	})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 4*time.Hour, s.TotalDuration)
	assert.Equal(t, 2*time.Hour, s.AverageDuration)
}

func TestDiaperBothCountsTwice(t *testing.T) {
	s := Diaper([]store.DiaperRecord{
		{Type: store.DiaperWet},
		{Type: store.DiaperDirty},
		{Type: store.DiaperBoth},
	})
	assert.Equal(t, DiaperStats{Count: 3, WetCount: 2, DirtyCount: 2}, s)
}

func TestWater(t *testing.T) {
	s := Water([]store.WaterRecord{{Amount: 30}, {Amount: 45}})
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 75, s.TotalAmount)
	assert.InDelta(t, 37.5, s.AverageAmount, 1e-9)
}

func TestMedicineGroupsByName(t *testing.T) {
	s := Medicine([]store.MedicineRecord{{Name: "Vitamin D"}, {Name: "Vitamin D"}, {Name: "Ibuprofen"}})
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, map[string]int{"Vitamin D": 2, "Ibuprofen": 1}, s.Doses)
}

// ============================================================
// Growth trend
// ============================================================

func TestGrowthFewerThanTwoRecordsIsZero(t *testing.T) {
	one := []store.GrowthRecord{{Time: t0, Height: ptr(55.0), Weight: ptr(4.5)}}
	trend := Growth(one, SixMonths)
	assert.True(t, trend.Zero())
	assert.Equal(t, 6, trend.Months)
	assert.Equal(t, 1, trend.Samples)
}

func TestGrowthNewestMinusOldest(t *testing.T) {
	records := []store.GrowthRecord{
		{Time: t0.AddDate(0, 2, 0), Height: ptr(61.0), Weight: ptr(6.1), HeadCircumference: ptr(40.0)},
		{Time: t0.AddDate(0, 1, 0), Height: ptr(58.0)},
		{Time: t0, Height: ptr(55.0), Weight: ptr(4.5)},
	}
	trend := Growth(records, ThreeMonths)
	assert.InDelta(t, 6.0, trend.Height, 1e-9)
	assert.InDelta(t, 1.6, trend.Weight, 1e-9)
	assert.InDelta(t, 40.0, trend.HeadCircumference, 1e-9, "absent on the oldest side reads as zero")
	assert.Equal(t, 3, trend.Months)
	assert.Equal(t, 3, trend.Samples)
}

func TestGrowthDeltaProperty(t *testing.T) {
	values := []*float64{nil, ptr(0.0), ptr(3.2), ptr(57.5)}
	for _, a := range values {
		for _, b := range values {
			records := []store.GrowthRecord{
				{Time: t0, Weight: a},
				{Time: t0.Add(24 * time.Hour), Weight: b},
			}
			got := Growth(records, Year).Weight
			assert.InDelta(t, value(b)-value(a), got, 1e-9)
		}
	}
}

func TestGrowthDoesNotReorderInput(t *testing.T) {
	records := []store.GrowthRecord{{Time: t0.Add(time.Hour)}, {Time: t0}}
	Growth(records, Year)
	assert.Equal(t, t0.Add(time.Hour), records[0].Time)
}

// ============================================================
// Periods
// ============================================================

func TestPeriodRanges(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 30, 0, 0, time.UTC)
	midnight := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		p    Period
		from time.Time
	}{
		{Today, midnight},
		{Week, midnight.AddDate(0, 0, -7)},
		{Month, midnight.AddDate(0, -1, 0)},
		{ThreeMonths, now.AddDate(0, -3, 0)},
		{SixMonths, now.AddDate(0, -6, 0)},
		{Year, now.AddDate(-1, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.p.String(), func(t *testing.T) {
			from, to := tc.p.Range(now)
			assert.Equal(t, tc.from, from)
			assert.Equal(t, now, to)
		})
	}
}

func TestPeriodPreviousIsAdjacentAndEqualLength(t *testing.T) {
	now := time.Date(2024, 5, 20, 15, 30, 0, 0, time.UTC)
	for _, p := range append(StatisticsPeriods, GrowthPeriods...) {
		from, to := p.Range(now)
		pf, pt := p.Previous(now)
		assert.Equal(t, from, pt, p.String())
		assert.Equal(t, to.Sub(from), pt.Sub(pf), p.String())
	}
}

func TestCompareFeeding(t *testing.T) {
	c := CompareFeeding(FeedingStats{Count: 6, TotalAmount: 600}, FeedingStats{Count: 4, TotalAmount: 800})
	assert.InDelta(t, 50.0, c.Count.Percent(), 1e-9)
	assert.InDelta(t, -25.0, c.Amount.Percent(), 1e-9)
	assert.Zero(t, Change{Current: 5}.Percent())
}

// ============================================================
// Daily series
// ============================================================

func TestDailyBucketsByLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, loc)
	to := time.Date(2024, 5, 3, 23, 0, 0, 0, loc)

	records := []store.WaterRecord{
		{Time: time.Date(2024, 4, 30, 17, 0, 0, 0, time.UTC), Amount: 10}, // May 1st 01:00 local
		{Time: time.Date(2024, 5, 1, 12, 0, 0, 0, loc), Amount: 20},
		{Time: time.Date(2024, 5, 3, 8, 0, 0, 0, loc), Amount: 5},
		{Time: time.Date(2024, 5, 9, 8, 0, 0, 0, loc), Amount: 99},
	}

	days := Daily(records,
		func(r store.WaterRecord) time.Time { return r.Time },
		func(r store.WaterRecord) float64 { return float64(r.Amount) },
		from, to, loc)

	require.Len(t, days, 3)
	assert.Equal(t, 30.0, days[0].Value)
	assert.Equal(t, 0.0, days[1].Value)
	assert.Equal(t, 5.0, days[2].Value)
	assert.Equal(t, from, days[0].Day)
}

func TestDailyEmptyWindow(t *testing.T) {
	days := Daily[int](nil, nil, nil, t0, t0.Add(-48*time.Hour), time.UTC)
	assert.Empty(t, days)
}
