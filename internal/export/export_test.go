package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/babylog/internal/store"
)

var shanghai = time.FixedZone("CST", 8*3600)

func ptr[T any](v T) *T { return &v }

func sampleData() Data {
	t0 := time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC)
	end := t0.Add(25 * time.Minute)
	sleepEnd := t0.Add(2*time.Hour + 10*time.Minute)
	remind := t0.Add(8 * time.Hour)

	return Data{
		Feedings: []store.FeedingRecord{
			{ID: 11, BabyID: 1, StartTime: t0, EndTime: &end, Type: store.FeedingBottle, Amount: ptr(120),
				Note: "warm, then \"burped\"", CreatedAt: t0.Add(time.Minute)},
			{ID: 12, BabyID: 1, StartTime: t0.Add(3 * time.Hour), Type: store.FeedingBreast,
				Side: ptr(store.SideRight), CreatedAt: t0.Add(3 * time.Hour)},
		},
		Sleeps: []store.SleepRecord{
			{ID: 21, BabyID: 1, StartTime: t0, EndTime: &sleepEnd, Quality: ptr(store.QualityGood), CreatedAt: t0},
			{ID: 22, BabyID: 1, StartTime: t0.Add(5 * time.Hour), Note: "nap", CreatedAt: t0.Add(5 * time.Hour)},
		},
		Diapers: []store.DiaperRecord{
			{ID: 31, BabyID: 1, Time: t0, Type: store.DiaperBoth, Color: ptr(2), Amount: ptr(1), CreatedAt: t0},
		},
		Medicines: []store.MedicineRecord{
			{ID: 41, BabyID: 1, Time: t0, Name: "Vitamin D", Dosage: 0.5, Unit: "ml", ReminderTime: &remind,
				Note: "daily", CreatedAt: t0},
		},
		Water: []store.WaterRecord{
			{ID: 51, BabyID: 1, Time: t0, Amount: 30, Temperature: store.TemperatureWarm, CreatedAt: t0},
		},
		Growth: []store.GrowthRecord{
			{ID: 61, BabyID: 1, Time: t0, Height: ptr(58.5), Weight: ptr(5.25), Milestone: "first smile", CreatedAt: t0},
			{ID: 62, BabyID: 1, Time: t0.AddDate(0, 1, 0), HeadCircumference: ptr(39.1), CreatedAt: t0.AddDate(0, 1, 0)},
		},
	}
}

func utc(t time.Time) time.Time { return t.UTC() }

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// normalize drops the fields an import never carries and pins times to UTC.
func normalize(d Data) Data {
	var out Data
	for _, r := range d.Feedings {
		r.ID, r.BabyID = 0, 0
		r.StartTime, r.EndTime, r.CreatedAt = utc(r.StartTime), utcPtr(r.EndTime), utc(r.CreatedAt)
		out.Feedings = append(out.Feedings, r)
	}
	for _, r := range d.Sleeps {
		r.ID, r.BabyID = 0, 0
		r.StartTime, r.EndTime, r.CreatedAt = utc(r.StartTime), utcPtr(r.EndTime), utc(r.CreatedAt)
		out.Sleeps = append(out.Sleeps, r)
	}
	for _, r := range d.Diapers {
		r.ID, r.BabyID = 0, 0
		r.Time, r.CreatedAt = utc(r.Time), utc(r.CreatedAt)
		out.Diapers = append(out.Diapers, r)
	}
	for _, r := range d.Medicines {
		r.ID, r.BabyID = 0, 0
		r.Time, r.ReminderTime, r.CreatedAt = utc(r.Time), utcPtr(r.ReminderTime), utc(r.CreatedAt)
		out.Medicines = append(out.Medicines, r)
	}
	for _, r := range d.Water {
		r.ID, r.BabyID = 0, 0
		r.Time, r.CreatedAt = utc(r.Time), utc(r.CreatedAt)
		out.Water = append(out.Water, r)
	}
	for _, r := range d.Growth {
		r.ID, r.BabyID = 0, 0
		r.Time, r.CreatedAt = utc(r.Time), utc(r.CreatedAt)
		out.Growth = append(out.Growth, r)
	}
	return out
}

type progressLog struct {
	values []float64
}

func (p *progressLog) record(v float64) { p.values = append(p.values, v) }

func (p *progressLog) assertMonotonic(t *testing.T) {
	t.Helper()
	for i := 1; i < len(p.values); i++ {
		assert.GreaterOrEqual(t, p.values[i], p.values[i-1], "progress went backwards at %d", i)
	}
}

// failingWriter accepts limit bytes and then fails every write.
type failingWriter struct {
	limit   int
	written int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.written+len(p) > w.limit {
		return 0, errDiskFull
	}
	w.written += len(p)
	return len(p), nil
}

// ============================================================
// Data
// ============================================================

func TestDataTotalsAndFilter(t *testing.T) {
	d := sampleData()
	assert.Equal(t, 9, d.Total())
	assert.False(t, d.Empty())
	assert.True(t, Data{}.Empty())

	f := d.Filter([]store.Category{store.CategoryGrowth, store.CategoryWater})
	assert.Equal(t, 3, f.Total())
	assert.Empty(t, f.Feedings)
	assert.Len(t, f.Growth, 2)

	assert.Equal(t, d.Total(), d.Filter(nil).Total())
}

func TestLocaleFor(t *testing.T) {
	assert.Same(t, Chinese, LocaleFor("zh-CN"))
	assert.Same(t, Chinese, LocaleFor("zh"))
	assert.Same(t, English, LocaleFor("en-GB"))
	assert.Same(t, English, LocaleFor("fr"))
	assert.Same(t, English, LocaleFor("not a tag!"))
}

// ============================================================
// CSV export
// ============================================================

func TestWriteCSVSections(t *testing.T) {
	d := sampleData()
	d.Sleeps = nil

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d, Options{Location: time.UTC}))
	out := buf.String()

	assert.Contains(t, out, "=== Feeding Records ===\n")
	assert.NotContains(t, out, "Sleep Records", "empty categories produce no section")
	assert.Contains(t, out, "Start,End,Duration (min),Type,Amount (ml),Side,Note,Created\n")
	assert.Contains(t, out, "2024-06-01 07:30:00+00:00,2024-06-01 07:55:00+00:00,25,Bottle,120,,\"warm, then \"\"burped\"\"\",2024-06-01 07:31:00+00:00\n")
	assert.Contains(t, out, "2024-06-01 10:30:00+00:00,,,Breast,,Right,,2024-06-01 10:30:00+00:00\n", "absent optionals are empty cells")

	feed := strings.Index(out, "Feeding Records")
	growth := strings.Index(out, "Growth Records")
	assert.Less(t, feed, growth, "sections follow category order")
}

func TestWriteCSVUsesLocationAndLocale(t *testing.T) {
	var buf bytes.Buffer
	d := Data{Water: sampleData().Water}
	require.NoError(t, WriteCSV(&buf, d, Options{Locale: Chinese, Location: shanghai}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "=== 喝水记录 ===", lines[0])
	assert.Equal(t, "2024-06-01 15:30:00+08:00,30,温,,2024-06-01 15:30:00+08:00", lines[2])
}

func TestWriteCSVProgress(t *testing.T) {
	var p progressLog
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleData(), Options{Progress: p.record}))

	require.Len(t, p.values, 9, "one progress event per record")
	p.assertMonotonic(t)
	assert.Equal(t, 1.0, p.values[len(p.values)-1])
}

func TestWriteCSVEmptyReportsDone(t *testing.T) {
	var p progressLog
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, Data{}, Options{Progress: p.record}))
	assert.Empty(t, buf.String())
	assert.Equal(t, []float64{1}, p.values)
}

func TestWriteCSVFailureStopsProgress(t *testing.T) {
	var full bytes.Buffer
	require.NoError(t, WriteCSV(&full, sampleData(), Options{}))

	for _, limit := range []int{0, 40, full.Len() / 2, full.Len() - 1} {
		var p progressLog
		w := &failingWriter{limit: limit}
		err := WriteCSV(w, sampleData(), Options{Progress: p.record})

		require.Error(t, err, "limit %d", limit)
		assert.ErrorIs(t, err, errDiskFull)
		p.assertMonotonic(t)
		if n := len(p.values); n > 0 {
			assert.Less(t, p.values[n-1], 1.0, "no completion after a failed write")
		}
		assert.Less(t, len(p.values), 9)
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), sampleData(), Options{})
	require.Error(t, err)
}

// ============================================================
// CSV import
// ============================================================

func TestCSVRoundTrip(t *testing.T) {
	for _, l := range []*Locale{English, Chinese} {
		t.Run(l.Tag.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "records.csv")
			opts := Options{Locale: l, Location: shanghai}
			require.NoError(t, ToCSV(path, sampleData(), opts))

			imp, err := FromCSV(path, opts)
			require.NoError(t, err)
			assert.Zero(t, imp.Skipped)
			assert.Equal(t, normalize(sampleData()), normalize(imp.Data))
		})
	}
}

func TestReadCSVAcceptsOtherLocale(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleData(), Options{Locale: Chinese, Location: time.UTC}))

	imp, err := ReadCSV(bytes.NewReader(buf.Bytes()), Options{Locale: English, Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, normalize(sampleData()), normalize(imp.Data))
}

func TestCSVRoundTripAcrossFallBack(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 01:00 to 02:00 happens twice in New York on this date.
	start := time.Date(2024, 11, 3, 5, 50, 0, 0, time.UTC)
	end := time.Date(2024, 11, 3, 6, 10, 0, 0, time.UTC)
	d := Data{Sleeps: []store.SleepRecord{{StartTime: start, EndTime: &end, CreatedAt: end}}}
	opts := Options{Location: newYork}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d, opts))
	assert.Contains(t, buf.String(), "2024-11-03 01:50:00-04:00,2024-11-03 01:10:00-05:00,20,")

	imp, err := ReadCSV(bytes.NewReader(buf.Bytes()), opts)
	require.NoError(t, err)
	require.Len(t, imp.Sleeps, 1)
	got := imp.Sleeps[0]
	assert.True(t, got.StartTime.Equal(start), "start %s", got.StartTime)
	require.NotNil(t, got.EndTime)
	assert.True(t, got.EndTime.Equal(end), "end %s", got.EndTime)
	assert.True(t, got.EndTime.After(got.StartTime))
}

func TestReadCSVLocalCells(t *testing.T) {
	src := "=== Water Records ===\nTime,Amount (ml),Temperature,Note,Created\n" +
		"2024-06-01 15:30:00,30,Warm,,2024-06-01 15:31:00\n" +
		"2024-06-01 09:00:00+02:00,40,Room,,\n"
	imp, err := ReadCSV(strings.NewReader(src), Options{Location: shanghai})
	require.NoError(t, err)
	require.Len(t, imp.Water, 2)

	assert.True(t, imp.Water[0].Time.Equal(time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC)),
		"cells without an offset are wall clock time in the configured location")
	assert.True(t, imp.Water[0].CreatedAt.Equal(time.Date(2024, 6, 1, 7, 31, 0, 0, time.UTC)))
	assert.True(t, imp.Water[1].Time.Equal(time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)),
		"an explicit offset wins over the configured location")
}

func TestReadCSVKeepsNoteLineBreaks(t *testing.T) {
	d := Data{Water: []store.WaterRecord{{
		Time: time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC), Amount: 30,
		Note: "cold\nthen warm", CreatedAt: time.Date(2024, 6, 1, 7, 30, 0, 0, time.UTC),
	}}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d, Options{Location: time.UTC}))

	imp, err := ReadCSV(bytes.NewReader(buf.Bytes()), Options{Location: time.UTC})
	require.NoError(t, err)
	require.Len(t, imp.Water, 1)
	assert.Equal(t, "cold\nthen warm", imp.Water[0].Note)
}

func TestReadCSVProgress(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleData(), Options{}))
	lines := strings.Count(buf.String(), "\n")

	var p progressLog
	_, err := ReadCSV(bytes.NewReader(buf.Bytes()), Options{Progress: p.record})
	require.NoError(t, err)
	assert.Len(t, p.values, lines)
	p.assertMonotonic(t)
	assert.Equal(t, 1.0, p.values[len(p.values)-1])
}

func TestReadCSVWithoutMarkersIsEmpty(t *testing.T) {
	src := "Name,Value\nfoo,1\nbar,2\n"
	imp, err := ReadCSV(strings.NewReader(src), Options{})
	require.NoError(t, err)
	assert.True(t, imp.Empty())
	assert.Zero(t, imp.Skipped)
}

func TestReadCSVUnknownSectionIgnored(t *testing.T) {
	src := "=== Vaccines ===\nTime,Name\n2024-06-01 07:30:00,BCG\n" +
		"=== Water Records ===\nTime,Amount (ml),Temperature,Note,Created\n2024-06-01 07:30:00,45,Hot,,\n"
	imp, err := ReadCSV(strings.NewReader(src), Options{Location: time.UTC})
	require.NoError(t, err)
	require.Len(t, imp.Water, 1)
	assert.Equal(t, 45, imp.Water[0].Amount)
	assert.Equal(t, store.TemperatureHot, imp.Water[0].Temperature)
	assert.True(t, imp.Water[0].CreatedAt.Equal(imp.Water[0].Time), "missing creation time falls back to event time")
}

func TestReadCSVUnparseableCells(t *testing.T) {
	src := strings.Join([]string{
		"=== Growth Records ===",
		"Time,Height (cm),Weight (kg),Head (cm),Milestone,Note,Created",
		"2024-06-01 07:30:00,tall,4.8,,,,",
		"yesterday,50,4,,,,",
		"=== Feeding Records ===",
		"Start,End,Duration (min),Type,Amount (ml),Side,Note,Created",
		"2024-06-01 08:00:00,,15,1,lots,2,,",
	}, "\n")

	imp, err := ReadCSV(strings.NewReader(src), Options{Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, 1, imp.Skipped, "rows without a readable timestamp are skipped")

	require.Len(t, imp.Growth, 1)
	assert.Nil(t, imp.Growth[0].Height)
	require.NotNil(t, imp.Growth[0].Weight)
	assert.Equal(t, 4.8, *imp.Growth[0].Weight)

	require.Len(t, imp.Feedings, 1)
	f := imp.Feedings[0]
	assert.Nil(t, f.Amount)
	assert.Equal(t, store.FeedingBottle, f.Type)
	require.NotNil(t, f.Side)
	assert.Equal(t, store.Side(2), *f.Side)
	require.NotNil(t, f.EndTime, "end time is derived from the duration column")
	assert.Equal(t, 15*time.Minute, f.EndTime.Sub(f.StartTime))
}

func TestReadCSVShortRows(t *testing.T) {
	src := "=== Diaper Records ===\nTime\n2024-06-01 07:30:00\n"
	imp, err := ReadCSV(strings.NewReader(src), Options{Location: time.UTC})
	require.NoError(t, err)
	require.Len(t, imp.Diapers, 1)
	assert.Equal(t, store.DiaperWet, imp.Diapers[0].Type)
	assert.Nil(t, imp.Diapers[0].Amount)
}

type brokenSeeker struct{ *strings.Reader }

func (brokenSeeker) Seek(int64, int) (int64, error) { return 0, errors.New("not seekable") }

func TestReadCSVIOFailure(t *testing.T) {
	var p progressLog
	_, err := ReadCSV(brokenSeeker{strings.NewReader("=== Water Records ===\n")}, Options{Progress: p.record})
	require.Error(t, err)
	assert.Empty(t, p.values)

	_, err = FromCSV(filepath.Join(t.TempDir(), "nope.csv"), Options{})
	require.Error(t, err)
}

// ============================================================
// PDF
// ============================================================

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 10, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestWritePDF(t *testing.T) {
	var p progressLog
	var buf bytes.Buffer
	charts := []Chart{{Title: "Feeding", PNG: testPNG(t)}, {PNG: testPNG(t)}}

	require.NoError(t, WritePDF(&buf, sampleData(), charts, Options{Progress: p.record}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	require.Len(t, p.values, len(charts)+sampleData().Total()+1)
	p.assertMonotonic(t)
	assert.Equal(t, 1.0, p.values[len(p.values)-1])
	assert.Less(t, p.values[len(p.values)-2], 1.0)
}

func TestWritePDFFailure(t *testing.T) {
	var p progressLog
	err := WritePDF(&failingWriter{limit: 10}, sampleData(), nil, Options{Progress: p.record})
	require.Error(t, err)
	for _, v := range p.values {
		assert.Less(t, v, 1.0)
	}
}

func TestWritePDFBadChart(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, sampleData(), []Chart{{PNG: []byte("not a png")}}, Options{})
	require.Error(t, err)
}

func TestPDFLocale(t *testing.T) {
	assert.False(t, English.NeedsUnicodeFont())
	assert.True(t, Chinese.NeedsUnicodeFont())

	assert.Same(t, English, pdfLocale(Options{Locale: Chinese}), "built-in fonts cannot draw CJK labels")
	assert.Same(t, Chinese, pdfLocale(Options{Locale: Chinese, FontPath: "/fonts/NotoSansSC.ttf"}))
	assert.Same(t, English, pdfLocale(Options{}))
}

func TestWritePDFChineseWithoutFont(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, sampleData(), nil, Options{Locale: Chinese, Location: shanghai}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestToPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, ToPDF(path, sampleData(), nil, Options{Title: "Mia"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, ToJSON(path, sampleData(), Options{Location: time.UTC}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var got struct {
		ExportedAt string         `json:"exported_at"`
		Count      int            `json:"count"`
		Counts     map[string]int `json:"counts"`
		Feedings   []struct {
			StartTime   string `json:"start_time"`
			DurationSec int64  `json:"duration_seconds"`
			Type        string `json:"type"`
		} `json:"feedings"`
	}
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotEmpty(t, got.ExportedAt)
	assert.Equal(t, 9, got.Count)
	assert.Equal(t, 2, got.Counts["growth"])
	require.Len(t, got.Feedings, 2)
	assert.Equal(t, "2024-06-01T07:30:00Z", got.Feedings[0].StartTime)
	assert.Equal(t, int64(1500), got.Feedings[0].DurationSec)
	assert.Equal(t, "Bottle", got.Feedings[0].Type)
}
