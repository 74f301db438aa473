package viewmodel

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/babylog/internal/export"
	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
)

// pipe copies every snapshot of a live query into the screen state until the
// query ends.
func pipe[T, S any](ctx context.Context, m *machine[S], what string, ch <-chan store.Snapshot[T], apply func(*S, T)) error {
	for snap := range ch {
		if snap.Err != nil {
			m.report(what, storageErr(snap.Err))
			continue
		}
		v := snap.Value
		m.update(func(s *S) { apply(s, v) })
	}
	return ctx.Err()
}

// follower keeps one set of per-profile subscriptions alive and replaces it
// when the profile changes.
type follower struct {
	mu     sync.Mutex
	id     int64
	cancel context.CancelFunc
}

// follow starts subscriptions for id unless they already run. force restarts
// them anyway; id zero only stops them.
func (f *follower) follow(id int64, force bool, newCtx func() (context.Context, context.CancelFunc), start func(ctx context.Context, id int64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.id && !force {
		return
	}
	f.swap(id, newCtx, start)
}

// restart replaces the running subscriptions with fresh ones for the same id.
func (f *follower) restart(newCtx func() (context.Context, context.CancelFunc), start func(ctx context.Context, id int64)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.swap(f.id, newCtx, start)
}

func (f *follower) swap(id int64, newCtx func() (context.Context, context.CancelFunc), start func(ctx context.Context, id int64)) {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.id = id
	if id == 0 {
		return
	}
	ctx, cancel := newCtx()
	f.cancel = cancel
	start(ctx, id)
}

// followCurrent tracks the current profile: set records it in the state, then
// start runs for its id. A nil profile stops the previous subscriptions.
func followCurrent[S any](m *machine[S], s *store.Store, f *follower, set func(*S, *store.Baby), start func(context.Context, int64)) {
	m.launch("watch current baby", func(ctx context.Context) error {
		for snap := range s.WatchCurrentBaby(ctx) {
			if snap.Err != nil {
				m.report("load current baby", storageErr(snap.Err))
				continue
			}
			baby := snap.Value
			m.update(func(st *S) { set(st, baby) })
			f.follow(babyID(baby), false, m.child, start)
		}
		return ctx.Err()
	})
}

// rollover restarts f's subscriptions once the local day of the clock has
// changed, so windows that end tonight move on to the new day.
func rollover[S any](m *machine[S], f *follower, cfg config, start func(context.Context, int64)) {
	m.launch("watch day", func(ctx context.Context) error {
		t := time.NewTicker(cfg.dayCheck)
		defer t.Stop()
		day := stats.StartOfDay(cfg.now())
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
			if today := stats.StartOfDay(cfg.now()); !today.Equal(day) {
				cfg.logger.Printf("%s: day changed to %s", m.name, today.Format(time.DateOnly))
				day = today
				f.restart(m.child, start)
			}
		}
	})
}

func babyID(b *store.Baby) int64 {
	if b == nil {
		return 0
	}
	return b.ID
}

func selectBaby[S any](m *machine[S], s *store.Store, id int64) {
	m.launch("select baby", func(ctx context.Context) error {
		return storageErr(s.SetCurrentBaby(id))
	})
}

func currentBaby(s *store.Store) (*store.Baby, error) {
	b, err := s.CurrentBaby()
	if err != nil {
		return nil, storageErr(err)
	}
	if b == nil {
		return nil, invalid("baby", "is not selected")
	}
	return b, nil
}

func upsert[T any](id int64, r T, insert func(T) (*T, error), update func(T) error) error {
	if id == 0 {
		_, err := insert(r)
		return err
	}
	return update(r)
}

// saveRecord validates rec, fills in the profile when rec has none and writes
// it. Line breaks in free text are stored as \n.
func saveRecord(s *store.Store, rec store.Record, baby int64) error {
	rec = normalize(rec)
	if err := validate(rec); err != nil {
		return err
	}
	var err error
	switch r := rec.(type) {
	case store.FeedingRecord:
		r.BabyID = cmp.Or(r.BabyID, baby)
		err = upsert(r.ID, r, s.InsertFeeding, s.UpdateFeeding)
	case store.SleepRecord:
		r.BabyID = cmp.Or(r.BabyID, baby)
		err = upsert(r.ID, r, s.InsertSleep, s.UpdateSleep)
	case store.DiaperRecord:
		r.BabyID = cmp.Or(r.BabyID, baby)
		err = upsert(r.ID, r, s.InsertDiaper, s.UpdateDiaper)
	case store.MedicineRecord:
		r.BabyID = cmp.Or(r.BabyID, baby)
		err = upsert(r.ID, r, s.InsertMedicine, s.UpdateMedicine)
	case store.WaterRecord:
		r.BabyID = cmp.Or(r.BabyID, baby)
		err = upsert(r.ID, r, s.InsertWater, s.UpdateWater)
	case store.GrowthRecord:
		r.BabyID = cmp.Or(r.BabyID, baby)
		err = upsert(r.ID, r, s.InsertGrowth, s.UpdateGrowth)
	default:
		return fmt.Errorf("save %T: unsupported record", rec)
	}
	return storageErr(err)
}

func deleteRecord(s *store.Store, c store.Category, id int64) error {
	var err error
	switch c {
	case store.CategoryFeeding:
		err = s.DeleteFeeding(id)
	case store.CategorySleep:
		err = s.DeleteSleep(id)
	case store.CategoryDiaper:
		err = s.DeleteDiaper(id)
	case store.CategoryMedicine:
		err = s.DeleteMedicine(id)
	case store.CategoryWater:
		err = s.DeleteWater(id)
	case store.CategoryGrowth:
		err = s.DeleteGrowth(id)
	default:
		return invalid("category", fmt.Sprintf("%q is unknown", c))
	}
	return storageErr(err)
}

// loadData reads every record of one profile.
func loadData(s *store.Store, baby int64) (export.Data, error) {
	var d export.Data
	var err error
	if d.Feedings, err = s.ListFeedings(baby); err != nil {
		return d, storageErr(err)
	}
	if d.Sleeps, err = s.ListSleeps(baby); err != nil {
		return d, storageErr(err)
	}
	if d.Diapers, err = s.ListDiapers(baby); err != nil {
		return d, storageErr(err)
	}
	if d.Medicines, err = s.ListMedicines(baby); err != nil {
		return d, storageErr(err)
	}
	if d.Water, err = s.ListWater(baby); err != nil {
		return d, storageErr(err)
	}
	if d.Growth, err = s.ListGrowth(baby); err != nil {
		return d, storageErr(err)
	}
	return d, nil
}

// endOfDay is the last second of t's day. Live windows end there so records
// added later today still fall inside.
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Second)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
