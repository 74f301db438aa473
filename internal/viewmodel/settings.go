package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sadopc/babylog/internal/chart"
	"github.com/sadopc/babylog/internal/export"
	"github.com/sadopc/babylog/internal/store"
)

// ExportResult describes the last finished export.
type ExportResult struct {
	Path    string
	Format  Format
	Records int
	At      time.Time
}

// ImportResult describes the last finished import.
type ImportResult struct {
	Path     string
	Imported map[store.Category]int
	Skipped  int
}

// Total is the number of records inserted.
func (r ImportResult) Total() int {
	n := 0
	for _, c := range r.Imported {
		n += c
	}
	return n
}

type SettingsState struct {
	Prefs store.Preferences
	Baby  *store.Baby

	Exporting      bool
	ExportProgress float64
	LastExport     *ExportResult

	Importing      bool
	ImportProgress float64
	LastImport     *ImportResult

	Err *Failure
}

// Settings edits preferences and moves the current profile's records in and
// out of files.
type Settings struct {
	m   *machine[SettingsState]
	s   *store.Store
	cfg config

	exporting atomic.Bool
	importing atomic.Bool
}

func NewSettings(s *store.Store, opts ...Option) *Settings {
	cfg := newConfig(opts)
	st := &Settings{
		s:   s,
		cfg: cfg,
		m: newMachine("settings", SettingsState{Prefs: store.DefaultPreferences()}, cfg, func(state *SettingsState, f Failure) {
			state.Err = &f
			state.Exporting, state.ExportProgress = false, 0
			state.Importing, state.ImportProgress = false, 0
		}),
	}

	st.m.launch("watch preferences", func(ctx context.Context) error {
		return pipe(ctx, st.m, "load preferences", s.WatchPreferences(ctx), func(state *SettingsState, p store.Preferences) {
			state.Prefs = p
		})
	})
	st.m.launch("watch current baby", func(ctx context.Context) error {
		return pipe(ctx, st.m, "load current baby", s.WatchCurrentBaby(ctx), func(state *SettingsState, b *store.Baby) {
			state.Baby = b
		})
	})
	return st
}

func (st *Settings) State() SettingsState { return st.m.State() }

func (st *Settings) Close() { st.m.Close() }

func (st *Settings) Send(ev Event) {
	switch ev := ev.(type) {
	case SetDarkMode:
		st.change("set dark mode", func(p *store.Preferences) error {
			p.DarkMode = ev.On
			return nil
		})
	case SetNotifications:
		st.change("set notifications", func(p *store.Preferences) error {
			p.NotificationsEnabled = ev.On
			return nil
		})
	case SetFeedingInterval:
		st.change("set feeding interval", func(p *store.Preferences) error {
			if ev.Interval < 15*time.Minute || ev.Interval > 12*time.Hour {
				return invalid("feeding interval", "must be between 15 minutes and 12 hours")
			}
			p.FeedingInterval = ev.Interval.Truncate(time.Minute)
			return nil
		})
	case SetReminderEnabled:
		st.change("set reminder", func(p *store.Preferences) error {
			switch ev.Category {
			case store.CategoryFeeding:
				p.FeedingReminder = ev.On
			case store.CategorySleep:
				p.SleepReminder = ev.On
			case store.CategoryDiaper:
				p.DiaperReminder = ev.On
			case store.CategoryMedicine:
				p.MedicineReminder = ev.On
			default:
				return invalid("reminder", fmt.Sprintf("%q has no reminder", ev.Category))
			}
			return nil
		})
	case SetQuietHours:
		st.change("set quiet hours", func(p *store.Preferences) error {
			for _, c := range []store.Clock{ev.Start, ev.End} {
				if c < 0 || c >= store.NewClock(24, 0) {
					return invalid("quiet hours", "must be a time of day")
				}
			}
			p.QuietHoursEnabled, p.QuietStart, p.QuietEnd = ev.Enabled, ev.Start, ev.End
			return nil
		})
	case Export:
		st.export(ev)
	case Import:
		st.importFile(ev)
	case ClearData:
		st.m.launch("clear data", func(ctx context.Context) error {
			baby, err := currentBaby(st.s)
			if err != nil {
				return err
			}
			return storageErr(st.s.DeleteAllRecords(baby.ID))
		})
	case Dismiss:
		st.m.update(func(state *SettingsState) { state.Err = nil })
	}
}

// change reads the stored preferences, applies fn and writes them back.
func (st *Settings) change(what string, fn func(*store.Preferences) error) {
	st.m.launch(what, func(ctx context.Context) error {
		p, err := st.s.Preferences()
		if err != nil {
			return storageErr(err)
		}
		if err := fn(&p); err != nil {
			return err
		}
		return storageErr(st.s.SavePreferences(p))
	})
}

func (st *Settings) options(title string, progress func(*SettingsState, float64)) export.Options {
	return export.Options{
		Locale:   st.cfg.locale,
		Location: st.cfg.location,
		Title:    title,
		FontPath: st.cfg.fontPath,
		Progress: func(p float64) {
			st.m.update(func(state *SettingsState) { progress(state, p) })
		},
	}
}

func (st *Settings) export(ev Export) {
	if blank(ev.Path) {
		st.m.report("export", invalid("file", "is required"))
		return
	}
	if !st.exporting.CompareAndSwap(false, true) {
		st.m.report("export", invalid("export", "is already running"))
		return
	}
	st.m.update(func(state *SettingsState) {
		state.Exporting, state.ExportProgress, state.Err = true, 0, nil
	})

	st.m.launch("export "+ev.Format.String(), func(ctx context.Context) error {
		defer st.exporting.Store(false)

		baby, err := currentBaby(st.s)
		if err != nil {
			return err
		}
		data, err := loadData(st.s, baby.ID)
		if err != nil {
			return err
		}
		data = data.Filter(ev.Categories)
		if err := ctx.Err(); err != nil {
			return err
		}

		var charts []export.Chart
		if ev.Format == FormatPDF && ev.IncludeCharts {
			now := st.cfg.now().In(st.cfg.location)
			charts, err = chart.ForExport(data, oldest(data, now), now, st.cfg.location)
			if err != nil {
				return fmt.Errorf("charts: %w", err)
			}
		}

		opts := st.options(baby.Name, func(state *SettingsState, p float64) { state.ExportProgress = p })
		if ev.Format == FormatPDF && opts.FontPath == "" && opts.Locale.NeedsUnicodeFont() {
			st.cfg.logger.Printf("settings: no PDF font configured, writing %s labels in English", opts.Locale.Tag)
		}
		f, err := st.cfg.fs.Create(ev.Path)
		if err != nil {
			return fileErr(err)
		}
		if err := write(f, ev.Format, data, charts, opts); err != nil {
			f.Close()
			return fileErr(err)
		}
		if err := f.Close(); err != nil {
			return fileErr(err)
		}

		at := st.cfg.now()
		if err := st.s.MarkBackup(at); err != nil {
			return storageErr(err)
		}
		st.cfg.logger.Printf("settings: exported %d records to %s", data.Total(), ev.Path)
		st.m.update(func(state *SettingsState) {
			state.Exporting, state.ExportProgress = false, 1
			state.LastExport = &ExportResult{Path: ev.Path, Format: ev.Format, Records: data.Total(), At: at}
		})
		return nil
	})
}

func write(w io.Writer, f Format, data export.Data, charts []export.Chart, opts export.Options) error {
	switch f {
	case FormatCSV:
		return export.WriteCSV(w, data, opts)
	case FormatPDF:
		return export.WritePDF(w, data, charts, opts)
	case FormatJSON:
		return export.WriteJSON(w, data, opts)
	}
	return fmt.Errorf("unknown format %d", int(f))
}

// oldest is the earliest event time in data, or fallback when data is empty.
func oldest(data export.Data, fallback time.Time) time.Time {
	earliest := fallback
	for _, c := range store.Categories {
		for _, r := range data.Records(c) {
			if r.OccurredAt().Before(earliest) {
				earliest = r.OccurredAt()
			}
		}
	}
	return earliest
}

func (st *Settings) importFile(ev Import) {
	if blank(ev.Path) {
		st.m.report("import", invalid("file", "is required"))
		return
	}
	if !st.importing.CompareAndSwap(false, true) {
		st.m.report("import", invalid("import", "is already running"))
		return
	}
	st.m.update(func(state *SettingsState) {
		state.Importing, state.ImportProgress, state.Err = true, 0, nil
	})

	st.m.launch("import", func(ctx context.Context) error {
		defer st.importing.Store(false)

		baby, err := currentBaby(st.s)
		if err != nil {
			return err
		}
		f, err := st.cfg.fs.Open(ev.Path)
		if err != nil {
			return fileErr(err)
		}
		imp, err := export.ReadCSV(f, st.options("", func(state *SettingsState, p float64) { state.ImportProgress = p }))
		f.Close()
		if err != nil {
			return fileErr(err)
		}

		result := &ImportResult{Path: ev.Path, Imported: make(map[store.Category]int), Skipped: imp.Skipped}
		for _, c := range store.Categories {
			for _, r := range imp.Records(c) {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := insert(st.s, r, baby.ID); err != nil {
					return err
				}
				result.Imported[c]++
			}
		}

		st.cfg.logger.Printf("settings: imported %d records from %s (%d skipped)", result.Total(), ev.Path, result.Skipped)
		st.m.update(func(state *SettingsState) {
			state.Importing, state.ImportProgress = false, 1
			state.LastImport = result
		})
		return nil
	})
}

// insert stores an imported record as a new row of the profile.
func insert(s *store.Store, rec store.Record, baby int64) error {
	var err error
	switch r := rec.(type) {
	case store.FeedingRecord:
		r.ID, r.BabyID = 0, baby
		_, err = s.InsertFeeding(r)
	case store.SleepRecord:
		r.ID, r.BabyID = 0, baby
		_, err = s.InsertSleep(r)
	case store.DiaperRecord:
		r.ID, r.BabyID = 0, baby
		_, err = s.InsertDiaper(r)
	case store.MedicineRecord:
		r.ID, r.BabyID = 0, baby
		_, err = s.InsertMedicine(r)
	case store.WaterRecord:
		r.ID, r.BabyID = 0, baby
		_, err = s.InsertWater(r)
	case store.GrowthRecord:
		r.ID, r.BabyID = 0, baby
		_, err = s.InsertGrowth(r)
	default:
		err = errors.New("unsupported record")
	}
	if err != nil {
		return storageErr(fmt.Errorf("import %s at %s: %w", rec.Category(), rec.OccurredAt().Format(time.DateTime), err))
	}
	return nil
}
