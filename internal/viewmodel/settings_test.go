package viewmodel

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/babylog/internal/export"
	"github.com/sadopc/babylog/internal/store"
)

// progressTrace records every export progress value the screen publishes.
type progressTrace struct {
	mu     sync.Mutex
	values []float64
	st     func() SettingsState
}

func (p *progressTrace) attach(st func() SettingsState) {
	p.mu.Lock()
	p.st = st
	p.mu.Unlock()
}

func (p *progressTrace) observe() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.st == nil {
		return
	}
	v := p.st().ExportProgress
	if n := len(p.values); n == 0 || p.values[n-1] != v {
		p.values = append(p.values, v)
	}
}

func (p *progressTrace) snapshot() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.values...)
}

var errDiskFull = errors.New("disk full")

// limitWriter accepts limit bytes and then fails.
type limitWriter struct {
	limit int
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if len(p) > w.limit {
		n := w.limit
		w.limit = 0
		return n, errDiskFull
	}
	w.limit -= len(p)
	return len(p), nil
}

func (w *limitWriter) Close() error { return nil }

type brokenFS struct {
	create error
	limit  int
}

func (fs brokenFS) Create(string) (io.WriteCloser, error) {
	if fs.create != nil {
		return nil, fs.create
	}
	return &limitWriter{limit: fs.limit}, nil
}

func (brokenFS) Open(string) (io.ReadSeekCloser, error) { return nil, os.ErrNotExist }

func seedBaby(t *testing.T, s *store.Store) *store.Baby {
	t.Helper()
	mia := addBaby(t, s, "Mia")
	require.NoError(t, s.SetCurrentBaby(mia.ID))

	now := time.Now().Truncate(time.Second)
	end := now.Add(-30 * time.Minute)
	for i := range 3 {
		_, err := s.InsertFeeding(store.FeedingRecord{
			BabyID: mia.ID, StartTime: now.Add(-time.Duration(i+1) * time.Hour), EndTime: ptr(end.Add(-time.Duration(i) * time.Hour)),
			Type: store.FeedingBottle, Amount: ptr(90 + i*10),
		})
		require.NoError(t, err)
	}
	_, err := s.InsertDiaper(store.DiaperRecord{BabyID: mia.ID, Time: now.Add(-2 * time.Hour), Type: store.DiaperWet})
	require.NoError(t, err)
	_, err = s.InsertMedicine(store.MedicineRecord{BabyID: mia.ID, Time: now.Add(-time.Hour), Name: "Vitamin D", Dosage: 1, Unit: "drop"})
	require.NoError(t, err)
	_, err = s.InsertGrowth(store.GrowthRecord{BabyID: mia.ID, Time: now.AddDate(0, 0, -10), Weight: ptr(5.5), Milestone: "rolls over"})
	require.NoError(t, err)
	return mia
}

// ============================================================
// preferences
// ============================================================

func TestSettingsPreferences(t *testing.T) {
	s := newTestStore(t)
	st := NewSettings(s, discard())
	defer st.Close()

	eventually(t, func() bool { return st.State().Prefs.NotificationsEnabled }, "defaults loaded")

	st.Send(SetDarkMode{On: true})
	eventually(t, func() bool { return st.State().Prefs.DarkMode }, "dark mode")

	st.Send(SetNotifications{On: false})
	eventually(t, func() bool { return !st.State().Prefs.NotificationsEnabled }, "notifications off")

	st.Send(SetFeedingInterval{Interval: 150 * time.Minute})
	eventually(t, func() bool { return st.State().Prefs.FeedingInterval == 150*time.Minute }, "interval saved")

	st.Send(SetReminderEnabled{Category: store.CategoryMedicine, On: false})
	eventually(t, func() bool { return !st.State().Prefs.MedicineReminder }, "medicine reminder off")

	st.Send(SetQuietHours{Enabled: true, Start: store.NewClock(21, 30), End: store.NewClock(7, 0)})
	eventually(t, func() bool { return st.State().Prefs.QuietStart == store.NewClock(21, 30) }, "quiet hours saved")

	p, err := s.Preferences()
	require.NoError(t, err)
	assert.True(t, p.DarkMode)
	assert.False(t, p.NotificationsEnabled)
	assert.Equal(t, 150*time.Minute, p.FeedingInterval)
	assert.False(t, p.MedicineReminder)
	assert.True(t, p.FeedingReminder)
	assert.Equal(t, store.NewClock(7, 0), p.QuietEnd)
	assert.Nil(t, st.State().Err)
}

func TestSettingsPreferenceValidation(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"short interval", SetFeedingInterval{Interval: 5 * time.Minute}, "feeding interval must be between 15 minutes and 12 hours"},
		{"long interval", SetFeedingInterval{Interval: 13 * time.Hour}, "feeding interval must be between 15 minutes and 12 hours"},
		{"water reminder", SetReminderEnabled{Category: store.CategoryWater, On: true}, `reminder "water" has no reminder`},
		{"bad clock", SetQuietHours{Enabled: true, Start: store.NewClock(25, 0)}, "quiet hours must be a time of day"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			st := NewSettings(s, discard())
			defer st.Close()

			st.Send(tt.ev)
			eventually(t, func() bool { return st.State().Err != nil }, "failure reported")
			assert.Equal(t, KindValidation, st.State().Err.Kind)
			assert.Equal(t, tt.want, st.State().Err.Message)

			p, err := s.Preferences()
			require.NoError(t, err)
			assert.Equal(t, store.DefaultPreferences(), p)
		})
	}
}

// ============================================================
// export
// ============================================================

func TestSettingsExportCSV(t *testing.T) {
	s := newTestStore(t)
	seedBaby(t, s)

	trace := &progressTrace{}
	st := NewSettings(s, discard(), WithOnChange(trace.observe))
	trace.attach(st.State)
	defer st.Close()

	path := filepath.Join(t.TempDir(), "mia.csv")
	st.Send(Export{Format: FormatCSV, Path: path})
	eventually(t, func() bool { return st.State().LastExport != nil }, "export finished")

	v := st.State()
	assert.False(t, v.Exporting)
	assert.Equal(t, 1.0, v.ExportProgress)
	assert.Equal(t, 6, v.LastExport.Records)
	assert.Equal(t, path, v.LastExport.Path)
	assert.Nil(t, v.Err)

	values := trace.snapshot()
	require.NotEmpty(t, values)
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "progress went backwards: %v", values)
	}
	assert.Equal(t, 1.0, values[len(values)-1])

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "=== Feeding Records ===")
	assert.Contains(t, string(raw), "Vitamin D")

	p, err := s.Preferences()
	require.NoError(t, err)
	require.NotNil(t, p.LastBackup)
	eventually(t, func() bool { return st.State().Prefs.LastBackup != nil }, "backup time shown")
}

func TestSettingsExportCategories(t *testing.T) {
	s := newTestStore(t)
	seedBaby(t, s)
	st := NewSettings(s, discard())
	defer st.Close()

	path := filepath.Join(t.TempDir(), "mia.json")
	st.Send(Export{Format: FormatJSON, Path: path, Categories: []store.Category{store.CategoryDiaper, store.CategoryGrowth}})
	eventually(t, func() bool { return st.State().LastExport != nil }, "export finished")
	assert.Equal(t, 2, st.State().LastExport.Records)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "rolls over")
	assert.NotContains(t, string(raw), "Vitamin D")
}

func TestSettingsExportPDF(t *testing.T) {
	s := newTestStore(t)
	seedBaby(t, s)
	st := NewSettings(s, discard())
	defer st.Close()

	path := filepath.Join(t.TempDir(), "mia.pdf")
	st.Send(Export{Format: FormatPDF, Path: path, IncludeCharts: true})
	eventually(t, func() bool { return st.State().LastExport != nil }, "export finished")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
	assert.Equal(t, 1.0, st.State().ExportProgress)
}

func TestSettingsExportPDFWithoutFont(t *testing.T) {
	s := newTestStore(t)
	seedBaby(t, s)
	var logs bytes.Buffer
	st := NewSettings(s, WithLogger(log.New(&logs, "", 0)), WithLocale(export.Chinese))
	defer st.Close()

	path := filepath.Join(t.TempDir(), "mia.pdf")
	st.Send(Export{Format: FormatPDF, Path: path})
	eventually(t, func() bool { return st.State().LastExport != nil }, "export finished")

	assert.Nil(t, st.State().Err)
	assert.Contains(t, logs.String(), "no PDF font configured")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}

func TestSettingsExportFailure(t *testing.T) {
	tests := []struct {
		name string
		fs   brokenFS
	}{
		{"create fails", brokenFS{create: os.ErrPermission}},
		{"write fails", brokenFS{limit: 120}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			seedBaby(t, s)

			trace := &progressTrace{}
			st := NewSettings(s, discard(), WithFS(tt.fs), WithOnChange(trace.observe))
			trace.attach(st.State)
			defer st.Close()

			st.Send(Export{Format: FormatCSV, Path: "out.csv"})
			eventually(t, func() bool { return st.State().Err != nil }, "failure reported")

			v := st.State()
			assert.Equal(t, KindFile, v.Err.Kind)
			assert.False(t, v.Exporting)
			assert.Zero(t, v.ExportProgress)
			assert.Nil(t, v.LastExport)
			assert.NotContains(t, trace.snapshot(), 1.0)

			p, err := s.Preferences()
			require.NoError(t, err)
			assert.Nil(t, p.LastBackup)
		})
	}
}

func TestSettingsExportWithoutBaby(t *testing.T) {
	s := newTestStore(t)
	st := NewSettings(s, discard())
	defer st.Close()

	st.Send(Export{Format: FormatCSV, Path: filepath.Join(t.TempDir(), "x.csv")})
	eventually(t, func() bool { return st.State().Err != nil }, "failure reported")
	assert.Equal(t, KindValidation, st.State().Err.Kind)
	assert.False(t, st.State().Exporting)

	st.Send(Export{Format: FormatCSV, Path: " "})
	eventually(t, func() bool {
		err := st.State().Err
		return err != nil && err.Message == "file is required"
	}, "blank path rejected")
}

// ============================================================
// import
// ============================================================

func TestSettingsImportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	mia := seedBaby(t, s)
	st := NewSettings(s, discard())
	defer st.Close()

	path := filepath.Join(t.TempDir(), "mia.csv")
	st.Send(Export{Format: FormatCSV, Path: path})
	eventually(t, func() bool { return st.State().LastExport != nil }, "export finished")

	leo := addBaby(t, s, "Leo")
	require.NoError(t, s.SetCurrentBaby(leo.ID))
	eventually(t, func() bool {
		b := st.State().Baby
		return b != nil && b.ID == leo.ID
	}, "leo current")

	st.Send(Import{Path: path})
	eventually(t, func() bool { return st.State().LastImport != nil }, "import finished")

	v := st.State()
	assert.False(t, v.Importing)
	assert.Equal(t, 1.0, v.ImportProgress)
	assert.Equal(t, 6, v.LastImport.Total())
	assert.Equal(t, 3, v.LastImport.Imported[store.CategoryFeeding])
	assert.Zero(t, v.LastImport.Skipped)

	want, err := s.ListFeedings(mia.ID)
	require.NoError(t, err)
	got, err := s.ListFeedings(leo.ID)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].StartTime.Equal(got[i].StartTime))
		assert.Equal(t, want[i].Amount, got[i].Amount)
		assert.NotEqual(t, want[i].ID, got[i].ID)
	}

	growth, err := s.ListGrowth(leo.ID)
	require.NoError(t, err)
	require.Len(t, growth, 1)
	assert.Equal(t, "rolls over", growth[0].Milestone)
}

func TestSettingsImportMissingFile(t *testing.T) {
	s := newTestStore(t)
	seedBaby(t, s)
	st := NewSettings(s, discard())
	defer st.Close()

	st.Send(Import{Path: filepath.Join(t.TempDir(), "missing.csv")})
	eventually(t, func() bool { return st.State().Err != nil }, "failure reported")
	assert.Equal(t, KindFile, st.State().Err.Kind)
	assert.False(t, st.State().Importing)
	assert.Nil(t, st.State().LastImport)
}

func TestSettingsClearData(t *testing.T) {
	s := newTestStore(t)
	mia := seedBaby(t, s)
	st := NewSettings(s, discard())
	defer st.Close()

	st.Send(ClearData{})
	eventually(t, func() bool {
		f, err := s.ListFeedings(mia.ID)
		return err == nil && len(f) == 0
	}, "records cleared")

	g, err := s.ListGrowth(mia.ID)
	require.NoError(t, err)
	assert.Empty(t, g)
	b, err := s.GetBaby(mia.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mia", b.Name)
}

func TestOldest(t *testing.T) {
	now := time.Now()
	assert.Equal(t, now, oldest(export.Data{}, now))

	d := export.Data{}
	d.Water = []store.WaterRecord{{Time: now.Add(-time.Hour)}}
	d.Growth = []store.GrowthRecord{{Time: now.AddDate(0, -1, 0)}}
	assert.Equal(t, now.AddDate(0, -1, 0), oldest(d, now))
}
