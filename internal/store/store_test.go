package store

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createBaby is a test helper that inserts a profile with a fixed birthday.
func createBaby(t *testing.T, s *Store, name string) *Baby {
	t.Helper()
	b, err := s.CreateBaby(Baby{
		Name:     name,
		Gender:   GenderGirl,
		Birthday: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create baby: %v", err)
	}
	return b
}

var base = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != currentVersion {
		t.Fatalf("expected user_version %d, got %d", currentVersion, version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/babylog.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestMigrateFromV1AddsSelectionColumn(t *testing.T) {
	path := t.TempDir() + "/old.db"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	old := &Store{db: db, changes: newNotifier(), logger: log.Default()}
	if err := old.migrateV1(); err != nil {
		t.Fatalf("v1: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO babies (name, birthday) VALUES ('Mia', '2024-01-15T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	db.Exec("PRAGMA user_version = 1")
	db.Close()

	s, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	babies, err := s.ListBabies()
	if err != nil {
		t.Fatal(err)
	}
	if len(babies) != 1 || babies[0].IsSelected {
		t.Fatalf("expected one unselected baby after upgrade, got %+v", babies)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Babies
// ============================================================

func TestCreateAndGetBaby(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "Mia")

	got, err := s.GetBaby(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Mia" || got.Gender != GenderGirl {
		t.Fatalf("unexpected baby %+v", got)
	}
	if !got.Birthday.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("birthday = %v", got.Birthday)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
	if got.IsSelected {
		t.Fatal("new baby should not be selected")
	}
}

func TestGetBabyNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetBaby(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateBaby(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "Mia")

	b.Name = "Mila"
	b.Gender = GenderBoy
	if err := s.UpdateBaby(*b); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetBaby(b.ID)
	if got.Name != "Mila" || got.Gender != GenderBoy {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.UpdateBaby(Baby{ID: 999, Name: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListBabiesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	s.CreateBaby(Baby{Name: "Old", Birthday: base, CreatedAt: base})
	s.CreateBaby(Baby{Name: "New", Birthday: base, CreatedAt: base.Add(time.Hour)})

	babies, err := s.ListBabies()
	if err != nil {
		t.Fatal(err)
	}
	if len(babies) != 2 || babies[0].Name != "New" {
		t.Fatalf("unexpected order: %+v", babies)
	}
}

func TestSetCurrentBabyIsExclusive(t *testing.T) {
	s := newTestStore(t)
	a := createBaby(t, s, "A")
	b := createBaby(t, s, "B")
	c := createBaby(t, s, "C")

	for _, target := range []*Baby{a, c, b, b} {
		if err := s.SetCurrentBaby(target.ID); err != nil {
			t.Fatal(err)
		}
		babies, _ := s.ListBabies()
		for _, p := range babies {
			if p.IsSelected != (p.ID == target.ID) {
				t.Fatalf("after selecting %d, baby %d selected=%v", target.ID, p.ID, p.IsSelected)
			}
		}
	}

	cur, err := s.CurrentBaby()
	if err != nil {
		t.Fatal(err)
	}
	if cur == nil || cur.ID != b.ID {
		t.Fatalf("expected current %d, got %+v", b.ID, cur)
	}

	prefs, _ := s.Preferences()
	if prefs.CurrentBabyID == nil || *prefs.CurrentBabyID != b.ID {
		t.Fatalf("current_baby_id not recorded: %v", prefs.CurrentBabyID)
	}
}

func TestSetCurrentBabyUnknownKeepsSelection(t *testing.T) {
	s := newTestStore(t)
	a := createBaby(t, s, "A")
	s.SetCurrentBaby(a.ID)

	if err := s.SetCurrentBaby(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	cur, _ := s.CurrentBaby()
	if cur == nil || cur.ID != a.ID {
		t.Fatal("failed selection should roll back")
	}
}

func TestCurrentBabyNone(t *testing.T) {
	s := newTestStore(t)
	createBaby(t, s, "A")
	cur, err := s.CurrentBaby()
	if err != nil {
		t.Fatal(err)
	}
	if cur != nil {
		t.Fatalf("expected nil, got %+v", cur)
	}
}

func TestDeleteBabyCascades(t *testing.T) {
	s := newTestStore(t)
	a := createBaby(t, s, "A")
	b := createBaby(t, s, "B")
	s.SetCurrentBaby(a.ID)

	for _, id := range []int64{a.ID, b.ID} {
		s.InsertFeeding(FeedingRecord{BabyID: id, StartTime: base})
		s.InsertSleep(SleepRecord{BabyID: id, StartTime: base})
		s.InsertDiaper(DiaperRecord{BabyID: id, Time: base})
		s.InsertMedicine(MedicineRecord{BabyID: id, Time: base, Name: "D", Unit: "ml"})
		s.InsertWater(WaterRecord{BabyID: id, Time: base, Amount: 30})
		s.InsertGrowth(GrowthRecord{BabyID: id, Time: base, Weight: ptr(4.2)})
	}

	if err := s.DeleteBaby(a.ID); err != nil {
		t.Fatal(err)
	}

	for _, c := range Categories {
		var gone, kept int
		s.db.QueryRow(`SELECT COUNT(*) FROM `+c.table()+` WHERE baby_id = ?`, a.ID).Scan(&gone)
		s.db.QueryRow(`SELECT COUNT(*) FROM `+c.table()+` WHERE baby_id = ?`, b.ID).Scan(&kept)
		if gone != 0 {
			t.Fatalf("%s: %d rows left for deleted baby", c, gone)
		}
		if kept != 1 {
			t.Fatalf("%s: expected 1 row for other baby, got %d", c, kept)
		}
	}

	prefs, _ := s.Preferences()
	if prefs.CurrentBabyID != nil {
		t.Fatalf("current_baby_id should be cleared, got %d", *prefs.CurrentBabyID)
	}
}

func TestDeleteBabyNotFound(t *testing.T) {
	s := newTestStore(t)
	if err := s.DeleteBaby(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ============================================================
// Records
// ============================================================

func TestFeedingCRUD(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	end := base.Add(20 * time.Minute)

	r, err := s.InsertFeeding(FeedingRecord{
		BabyID: b.ID, StartTime: base, EndTime: &end,
		Type: FeedingBottle, Amount: ptr(120), Side: ptr(SideLeft), Note: "ok",
	})
	if err != nil {
		t.Fatal(err)
	}
	if r.ID == 0 || r.Amount == nil || *r.Amount != 120 || r.Side == nil || *r.Side != SideLeft {
		t.Fatalf("unexpected record %+v", r)
	}
	if r.Duration() != 20*time.Minute {
		t.Fatalf("duration = %v", r.Duration())
	}

	r.Amount = nil
	r.Note = "edited"
	if err := s.UpdateFeeding(*r); err != nil {
		t.Fatal(err)
	}
	got, _ := s.GetFeeding(r.ID)
	if got.Amount != nil || got.Note != "edited" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.DeleteFeeding(r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetFeeding(r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteFeeding(r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestInsertKeepsExplicitCreatedAt(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	created := base.Add(-time.Hour)

	r, err := s.InsertWater(WaterRecord{BabyID: b.ID, Time: base, Amount: 50, CreatedAt: created})
	if err != nil {
		t.Fatal(err)
	}
	if !r.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", r.CreatedAt, created)
	}
}

func TestRecordRequiresExistingBaby(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertDiaper(DiaperRecord{BabyID: 999, Time: base}); err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestEndBeforeStartRejected(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	end := base.Add(-time.Minute)
	if _, err := s.InsertSleep(SleepRecord{BabyID: b.ID, StartTime: base, EndTime: &end}); err == nil {
		t.Fatal("expected check constraint error")
	}
}

func TestNegativeMeasurementRejected(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	if _, err := s.InsertWater(WaterRecord{BabyID: b.ID, Time: base, Amount: -5}); err == nil {
		t.Fatal("expected check constraint error for water")
	}
	if _, err := s.InsertGrowth(GrowthRecord{BabyID: b.ID, Time: base, Height: ptr(-1.0)}); err == nil {
		t.Fatal("expected check constraint error for growth")
	}
}

func TestListNewestFirstAndIsolated(t *testing.T) {
	s := newTestStore(t)
	a := createBaby(t, s, "A")
	b := createBaby(t, s, "B")

	for i := 0; i < 3; i++ {
		s.InsertDiaper(DiaperRecord{BabyID: a.ID, Time: base.Add(time.Duration(i) * time.Hour), Type: DiaperWet})
	}
	s.InsertDiaper(DiaperRecord{BabyID: b.ID, Time: base})

	list, err := s.ListDiapers(a.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Time.Before(list[i].Time) {
			t.Fatal("not newest first")
		}
	}
}

func TestRangeBoundsInclusive(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	from, to := base, base.Add(2*time.Hour)

	for _, at := range []time.Time{from.Add(-time.Second), from, from.Add(time.Hour), to, to.Add(time.Second)} {
		s.InsertGrowth(GrowthRecord{BabyID: b.ID, Time: at})
		s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: at})
		s.InsertMedicine(MedicineRecord{BabyID: b.ID, Time: at, Name: "D", Unit: "ml"})
	}

	g, _ := s.ListGrowthRange(b.ID, from, to)
	f, _ := s.ListFeedingsRange(b.ID, from, to)
	m, _ := s.ListMedicinesRange(b.ID, from, to)
	if len(g) != 3 || len(f) != 3 || len(m) != 3 {
		t.Fatalf("expected 3 in range, got growth=%d feeding=%d medicine=%d", len(g), len(f), len(m))
	}
	if !g[0].Time.Equal(to) || !g[2].Time.Equal(from) {
		t.Fatalf("bounds not inclusive: %v .. %v", g[2].Time, g[0].Time)
	}
}

func TestActiveFeedingAndSleep(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")

	if r, _ := s.ActiveFeeding(b.ID); r != nil {
		t.Fatal("expected no active feeding")
	}
	end := base.Add(10 * time.Minute)
	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base, EndTime: &end})
	running, _ := s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base.Add(time.Hour)})

	r, err := s.ActiveFeeding(b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if r == nil || r.ID != running.ID {
		t.Fatalf("expected active feeding %d, got %+v", running.ID, r)
	}

	s.InsertSleep(SleepRecord{BabyID: b.ID, StartTime: base})
	if sl, _ := s.ActiveSleep(b.ID); sl == nil {
		t.Fatal("expected active sleep")
	}
}

func TestLatestGrowthAndFeeding(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")

	if g, _ := s.LatestGrowth(b.ID); g != nil {
		t.Fatal("expected nil latest growth")
	}
	s.InsertGrowth(GrowthRecord{BabyID: b.ID, Time: base, Weight: ptr(4.0)})
	s.InsertGrowth(GrowthRecord{BabyID: b.ID, Time: base.Add(48 * time.Hour), Weight: ptr(4.3)})
	g, _ := s.LatestGrowth(b.ID)
	if g == nil || *g.Weight != 4.3 {
		t.Fatalf("unexpected latest growth %+v", g)
	}

	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base.Add(time.Hour)})
	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base})
	f, _ := s.LatestFeeding(b.ID)
	if f == nil || !f.StartTime.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected latest feeding %+v", f)
	}
}

func TestDueMedicineReminders(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	s.InsertMedicine(MedicineRecord{BabyID: b.ID, Time: base, Name: "early", Unit: "ml", ReminderTime: ptr(base)})
	s.InsertMedicine(MedicineRecord{BabyID: b.ID, Time: base, Name: "due", Unit: "ml", ReminderTime: ptr(base.Add(time.Minute))})
	s.InsertMedicine(MedicineRecord{BabyID: b.ID, Time: base, Name: "none", Unit: "ml"})
	s.InsertMedicine(MedicineRecord{BabyID: b.ID, Time: base, Name: "later", Unit: "ml", ReminderTime: ptr(base.Add(time.Hour))})

	due, err := s.DueMedicineReminders(base, base.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].Name != "due" {
		t.Fatalf("unexpected due reminders %+v", due)
	}
}

func TestDaySummary(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	sleepEnd := base.Add(90 * time.Minute)

	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base, Amount: ptr(100)})
	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base.Add(time.Hour), Amount: ptr(150)})
	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base.Add(2 * time.Hour)})
	s.InsertSleep(SleepRecord{BabyID: b.ID, StartTime: base, EndTime: &sleepEnd})
	s.InsertSleep(SleepRecord{BabyID: b.ID, StartTime: base.Add(3 * time.Hour)})
	s.InsertDiaper(DiaperRecord{BabyID: b.ID, Time: base, Type: DiaperWet})
	s.InsertDiaper(DiaperRecord{BabyID: b.ID, Time: base, Type: DiaperBoth})
	s.InsertDiaper(DiaperRecord{BabyID: b.ID, Time: base, Type: DiaperDirty})
	s.InsertWater(WaterRecord{BabyID: b.ID, Time: base, Amount: 40})
	s.InsertMedicine(MedicineRecord{BabyID: b.ID, Time: base, Name: "D", Unit: "drop"})
	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base.Add(-48 * time.Hour), Amount: ptr(999)})

	d, err := s.DaySummary(b.ID, base.Add(-time.Hour), base.Add(23*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	want := DaySummary{Feedings: 3, FeedingML: 250, SleepSeconds: 5400, WetCount: 2, DirtyCount: 2, WaterML: 40, Medicines: 1}
	if d != want {
		t.Fatalf("summary = %+v, want %+v", d, want)
	}
}

func TestDeleteAllRecordsKeepsProfile(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base})
	s.InsertGrowth(GrowthRecord{BabyID: b.ID, Time: base})

	if err := s.DeleteAllRecords(b.ID); err != nil {
		t.Fatal(err)
	}
	f, _ := s.ListFeedings(b.ID)
	g, _ := s.ListGrowth(b.ID)
	if len(f) != 0 || len(g) != 0 {
		t.Fatal("records not cleared")
	}
	if _, err := s.GetBaby(b.ID); err != nil {
		t.Fatalf("profile should remain: %v", err)
	}
}

// ============================================================
// Live queries
// ============================================================

func next[T any](t *testing.T, ch <-chan Snapshot[T]) T {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("watch channel closed")
		}
		if snap.Err != nil {
			t.Fatalf("snapshot error: %v", snap.Err)
		}
		return snap.Value
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func TestWatchEmitsOnChange(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchFeedings(ctx, b.ID)
	if got := next(t, ch); len(got) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d", len(got))
	}

	s.InsertFeeding(FeedingRecord{BabyID: b.ID, StartTime: base})
	if got := next(t, ch); len(got) != 1 {
		t.Fatalf("expected 1 record after insert, got %d", len(got))
	}
}

func TestWatchRangeFiltersUpdates(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchWaterRange(ctx, b.ID, base, base.Add(time.Hour))
	next(t, ch)

	s.InsertWater(WaterRecord{BabyID: b.ID, Time: base.Add(2 * time.Hour), Amount: 10})
	if got := next(t, ch); len(got) != 0 {
		t.Fatalf("out of range record leaked: %+v", got)
	}
	s.InsertWater(WaterRecord{BabyID: b.ID, Time: base.Add(30 * time.Minute), Amount: 10})
	if got := next(t, ch); len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestWatchCurrentBabyFollowsSelection(t *testing.T) {
	s := newTestStore(t)
	a := createBaby(t, s, "A")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchCurrentBaby(ctx)
	if cur := next(t, ch); cur != nil {
		t.Fatal("expected no current baby")
	}
	s.SetCurrentBaby(a.ID)
	if cur := next(t, ch); cur == nil || cur.ID != a.ID {
		t.Fatalf("expected current %d, got %+v", a.ID, cur)
	}
}

func TestWatchSeesCascadeDelete(t *testing.T) {
	s := newTestStore(t)
	b := createBaby(t, s, "A")
	s.InsertGrowth(GrowthRecord{BabyID: b.ID, Time: base})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchGrowth(ctx, b.ID)
	if got := next(t, ch); len(got) != 1 {
		t.Fatalf("expected 1, got %d", len(got))
	}
	s.DeleteBaby(b.ID)
	if got := next(t, ch); len(got) != 0 {
		t.Fatalf("expected cascade to empty the live list, got %d", len(got))
	}
}

func TestWatchClosesOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.WatchBabies(ctx)
	next(t, ch)
	cancel()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("channel not closed after cancel")
		}
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)

	defaults := map[string]string{
		"dark_mode":             "false",
		"notifications_enabled": "true",
		"feeding_interval":      "180",
		"quiet_hours_start":     "22:00",
		"quiet_hours_end":       "06:00",
	}

	for k, expected := range defaults {
		val, err := s.GetSetting(k)
		if err != nil {
			t.Fatalf("GetSetting(%q): %v", k, err)
		}
		if val != expected {
			t.Fatalf("GetSetting(%q) = %q, want %q", k, val, expected)
		}
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)

	s.SetSetting("key", "v1")
	s.SetSetting("key", "v2")
	val, _ := s.GetSetting("key")
	if val != "v2" {
		t.Fatalf("expected v2, got %s", val)
	}
}

func TestGetSettingNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSetting("nonexistent")
	if err == nil {
		t.Fatal("expected error for missing setting")
	}
}

func TestGetAllSettingsSorted(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) < 10 {
		t.Fatalf("expected at least 10 default settings, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key >= all[i].Key {
			t.Fatalf("settings not sorted: %s >= %s", all[i-1].Key, all[i].Key)
		}
	}
}

func TestPreferencesDefaults(t *testing.T) {
	s := newTestStore(t)
	p, err := s.Preferences()
	if err != nil {
		t.Fatal(err)
	}
	if p != DefaultPreferences() {
		t.Fatalf("preferences = %+v, want defaults", p)
	}
}

func TestPreferencesSaveAndUnreadable(t *testing.T) {
	s := newTestStore(t)

	p := DefaultPreferences()
	p.DarkMode = true
	p.FeedingInterval = 150 * time.Minute
	p.QuietStart = NewClock(21, 30)
	p.SleepReminder = false
	if err := s.SavePreferences(p); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Preferences()
	if got != p {
		t.Fatalf("preferences = %+v, want %+v", got, p)
	}

	s.SetSetting("feeding_interval", "soon")
	got, _ = s.Preferences()
	if got.FeedingInterval != 180*time.Minute {
		t.Fatalf("unreadable value should fall back to default, got %v", got.FeedingInterval)
	}
}

func TestMarkBackup(t *testing.T) {
	s := newTestStore(t)
	if err := s.MarkBackup(base); err != nil {
		t.Fatal(err)
	}
	p, _ := s.Preferences()
	if p.LastBackup == nil || !p.LastBackup.Equal(base) {
		t.Fatalf("last backup = %v", p.LastBackup)
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("06:05")
	if err != nil {
		t.Fatal(err)
	}
	if c != NewClock(6, 5) || c.String() != "06:05" {
		t.Fatalf("clock = %d (%s)", c, c)
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Fatal("expected error")
	}
}

// ============================================================
// Close
// ============================================================

func TestCloseStore(t *testing.T) {
	s, _ := NewMemory()
	if err := s.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
}
