package viewmodel

import (
	"context"
	"sort"
	"time"

	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
)

type RecordsState struct {
	Baby *store.Baby

	Feedings  []store.FeedingRecord
	Sleeps    []store.SleepRecord
	Diapers   []store.DiaperRecord
	Medicines []store.MedicineRecord
	Water     []store.WaterRecord
	Growth    []store.GrowthRecord

	Today store.DaySummary

	Err *Failure
}

// ActiveFeeding is the newest feeding without an end time.
func (s RecordsState) ActiveFeeding() *store.FeedingRecord {
	for i := range s.Feedings {
		if s.Feedings[i].EndTime == nil {
			r := s.Feedings[i]
			return &r
		}
	}
	return nil
}

func (s RecordsState) ActiveSleep() *store.SleepRecord {
	for i := range s.Sleeps {
		if s.Sleeps[i].EndTime == nil {
			r := s.Sleeps[i]
			return &r
		}
	}
	return nil
}

// Recent merges every category, newest first, up to n records.
func (s RecordsState) Recent(n int) []store.Record {
	var all []store.Record
	for _, r := range s.Feedings {
		all = append(all, r)
	}
	for _, r := range s.Sleeps {
		all = append(all, r)
	}
	for _, r := range s.Diapers {
		all = append(all, r)
	}
	for _, r := range s.Medicines {
		all = append(all, r)
	}
	for _, r := range s.Water {
		all = append(all, r)
	}
	for _, r := range s.Growth {
		all = append(all, r)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].OccurredAt().After(all[j].OccurredAt()) })
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

func (s *RecordsState) clear() {
	*s = RecordsState{Err: s.Err}
}

// Records is the logging screen of the current profile.
type Records struct {
	m      *machine[RecordsState]
	s      *store.Store
	cfg    config
	follow follower
}

func NewRecords(s *store.Store, opts ...Option) *Records {
	cfg := newConfig(opts)
	r := &Records{
		s:   s,
		cfg: cfg,
		m: newMachine("records", RecordsState{}, cfg, func(st *RecordsState, f Failure) {
			st.Err = &f
		}),
	}

	followCurrent(r.m, s, &r.follow, func(st *RecordsState, b *store.Baby) {
		if babyID(b) != babyID(st.Baby) {
			st.clear()
		}
		st.Baby = b
	}, r.subscribe)
	rollover(r.m, &r.follow, cfg, r.subscribe)
	return r
}

// subscribe starts one live query per category for the profile id. Results
// that arrive after the profile changed are dropped.
func (r *Records) subscribe(ctx context.Context, id int64) {
	is := func(st *RecordsState) bool { return babyID(st.Baby) == id }
	s, m := r.s, r.m
	now := r.cfg.now()

	m.launchIn(ctx, "watch feedings", func(ctx context.Context) error {
		return pipe(ctx, m, "load feedings", s.WatchFeedings(ctx, id), func(st *RecordsState, v []store.FeedingRecord) {
			if is(st) {
				st.Feedings = v
			}
		})
	})
	m.launchIn(ctx, "watch sleeps", func(ctx context.Context) error {
		return pipe(ctx, m, "load sleeps", s.WatchSleeps(ctx, id), func(st *RecordsState, v []store.SleepRecord) {
			if is(st) {
				st.Sleeps = v
			}
		})
	})
	m.launchIn(ctx, "watch diapers", func(ctx context.Context) error {
		return pipe(ctx, m, "load diapers", s.WatchDiapers(ctx, id), func(st *RecordsState, v []store.DiaperRecord) {
			if is(st) {
				st.Diapers = v
			}
		})
	})
	m.launchIn(ctx, "watch medicines", func(ctx context.Context) error {
		return pipe(ctx, m, "load medicines", s.WatchMedicines(ctx, id), func(st *RecordsState, v []store.MedicineRecord) {
			if is(st) {
				st.Medicines = v
			}
		})
	})
	m.launchIn(ctx, "watch water", func(ctx context.Context) error {
		return pipe(ctx, m, "load water", s.WatchWater(ctx, id), func(st *RecordsState, v []store.WaterRecord) {
			if is(st) {
				st.Water = v
			}
		})
	})
	m.launchIn(ctx, "watch growth", func(ctx context.Context) error {
		return pipe(ctx, m, "load growth", s.WatchGrowth(ctx, id), func(st *RecordsState, v []store.GrowthRecord) {
			if is(st) {
				st.Growth = v
			}
		})
	})
	m.launchIn(ctx, "watch today", func(ctx context.Context) error {
		from, to := stats.StartOfDay(now), endOfDay(now)
		return pipe(ctx, m, "load today", s.WatchDaySummary(ctx, id, from, to), func(st *RecordsState, v store.DaySummary) {
			if is(st) {
				st.Today = v
			}
		})
	})
}

func (r *Records) State() RecordsState { return r.m.State() }

func (r *Records) Close() { r.m.Close() }

func (r *Records) Send(ev Event) {
	switch ev := ev.(type) {
	case SelectBaby:
		selectBaby(r.m, r.s, ev.ID)
	case SaveRecord:
		r.m.launch("save record", func(ctx context.Context) error {
			baby, err := currentBaby(r.s)
			if err != nil {
				return err
			}
			return saveRecord(r.s, ev.Record, baby.ID)
		})
	case DeleteRecord:
		r.m.launch("delete record", func(ctx context.Context) error {
			return deleteRecord(r.s, ev.Category, ev.ID)
		})
	case StartFeeding:
		r.m.launch("start feeding", func(ctx context.Context) error {
			return r.startFeeding(ev)
		})
	case StopFeeding:
		r.m.launch("stop feeding", func(ctx context.Context) error {
			return r.stopFeeding(ev)
		})
	case StartSleep:
		r.m.launch("start sleep", func(ctx context.Context) error {
			return r.startSleep()
		})
	case StopSleep:
		r.m.launch("stop sleep", func(ctx context.Context) error {
			return r.stopSleep(ev)
		})
	case Dismiss:
		r.m.update(func(st *RecordsState) { st.Err = nil })
	}
}

func (r *Records) startFeeding(ev StartFeeding) error {
	baby, err := currentBaby(r.s)
	if err != nil {
		return err
	}
	active, err := r.s.ActiveFeeding(baby.ID)
	if err != nil {
		return storageErr(err)
	}
	if active != nil {
		return invalid("feeding", "is already running")
	}
	return saveRecord(r.s, store.FeedingRecord{
		BabyID:    baby.ID,
		StartTime: r.cfg.now(),
		Type:      ev.Type,
		Side:      ev.Side,
	}, baby.ID)
}

func (r *Records) stopFeeding(ev StopFeeding) error {
	baby, err := currentBaby(r.s)
	if err != nil {
		return err
	}
	active, err := r.s.ActiveFeeding(baby.ID)
	if err != nil {
		return storageErr(err)
	}
	if active == nil {
		return invalid("feeding", "is not running")
	}
	end := later(r.cfg.now(), active.StartTime)
	active.EndTime = &end
	if ev.Amount != nil {
		active.Amount = ev.Amount
	}
	return saveRecord(r.s, *active, baby.ID)
}

func (r *Records) startSleep() error {
	baby, err := currentBaby(r.s)
	if err != nil {
		return err
	}
	active, err := r.s.ActiveSleep(baby.ID)
	if err != nil {
		return storageErr(err)
	}
	if active != nil {
		return invalid("sleep", "is already running")
	}
	return saveRecord(r.s, store.SleepRecord{BabyID: baby.ID, StartTime: r.cfg.now()}, baby.ID)
}

func (r *Records) stopSleep(ev StopSleep) error {
	baby, err := currentBaby(r.s)
	if err != nil {
		return err
	}
	active, err := r.s.ActiveSleep(baby.ID)
	if err != nil {
		return storageErr(err)
	}
	if active == nil {
		return invalid("sleep", "is not running")
	}
	end := later(r.cfg.now(), active.StartTime)
	active.EndTime = &end
	if ev.Quality != nil {
		active.Quality = ev.Quality
	}
	return saveRecord(r.s, *active, baby.ID)
}

func later(a, b time.Time) time.Time {
	if a.Before(b) {
		return b
	}
	return a
}
