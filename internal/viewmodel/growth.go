package viewmodel

import (
	"context"
	"sync"

	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
)

type GrowthState struct {
	Baby   *store.Baby
	Period stats.Period

	// Records are the measurements inside the period, newest first.
	Records []store.GrowthRecord
	Latest  *store.GrowthRecord
	Trend   stats.GrowthTrend

	Err *Failure
}

// Growth shows measurements and their trend over a growth period.
type Growth struct {
	m      *machine[GrowthState]
	s      *store.Store
	cfg    config
	follow follower

	mu     sync.Mutex
	period stats.Period
}

func NewGrowth(s *store.Store, opts ...Option) *Growth {
	cfg := newConfig(opts)
	g := &Growth{
		s:      s,
		cfg:    cfg,
		period: stats.ThreeMonths,
		m: newMachine("growth", GrowthState{Period: stats.ThreeMonths}, cfg, func(st *GrowthState, f Failure) {
			st.Err = &f
		}),
	}
	followCurrent(g.m, s, &g.follow, func(st *GrowthState, b *store.Baby) {
		if babyID(b) != babyID(st.Baby) {
			*st = GrowthState{Period: st.Period, Trend: stats.GrowthTrend{Months: st.Period.Months()}, Err: st.Err}
		}
		st.Baby = b
	}, g.subscribe)
	rollover(g.m, &g.follow, cfg, g.subscribe)
	return g
}

func (g *Growth) State() GrowthState { return g.m.State() }

func (g *Growth) Close() { g.m.Close() }

func (g *Growth) Send(ev Event) {
	switch ev := ev.(type) {
	case SelectBaby:
		selectBaby(g.m, g.s, ev.ID)
	case SelectPeriod:
		g.mu.Lock()
		g.period = ev.Period
		g.mu.Unlock()
		g.m.update(func(st *GrowthState) {
			st.Period = ev.Period
			st.Records = nil
			st.Trend = stats.GrowthTrend{Months: ev.Period.Months()}
		})
		g.follow.restart(g.m.child, g.subscribe)
	case AddGrowth:
		rec := ev.Record
		rec.ID = 0
		g.save("add growth", rec)
	case UpdateGrowth:
		if ev.Record.ID == 0 {
			g.m.report("update growth", invalid("record", "has no id"))
			return
		}
		g.save("update growth", ev.Record)
	case DeleteGrowth:
		g.m.launch("delete growth", func(ctx context.Context) error {
			return storageErr(g.s.DeleteGrowth(ev.ID))
		})
	case Dismiss:
		g.m.update(func(st *GrowthState) { st.Err = nil })
	}
}

func (g *Growth) save(what string, rec store.GrowthRecord) {
	g.m.launch(what, func(ctx context.Context) error {
		baby, err := currentBaby(g.s)
		if err != nil {
			return err
		}
		return saveRecord(g.s, rec, baby.ID)
	})
}

func (g *Growth) subscribe(ctx context.Context, id int64) {
	g.mu.Lock()
	p := g.period
	g.mu.Unlock()

	now := g.cfg.now()
	from, _ := p.Range(now)
	to := endOfDay(now)
	s, m := g.s, g.m
	is := func(st *GrowthState) bool { return babyID(st.Baby) == id && st.Period == p }

	m.launchIn(ctx, "watch growth", func(ctx context.Context) error {
		return pipe(ctx, m, "load growth", s.WatchGrowthRange(ctx, id, from, to), func(st *GrowthState, v []store.GrowthRecord) {
			if is(st) {
				st.Records = v
				st.Trend = stats.Growth(v, p)
			}
		})
	})
	m.launchIn(ctx, "watch latest growth", func(ctx context.Context) error {
		return pipe(ctx, m, "load latest growth", s.WatchGrowth(ctx, id), func(st *GrowthState, v []store.GrowthRecord) {
			if !is(st) {
				return
			}
			st.Latest = nil
			if len(v) > 0 {
				latest := v[0]
				st.Latest = &latest
			}
		})
	})
}
