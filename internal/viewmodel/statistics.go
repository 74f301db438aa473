package viewmodel

import (
	"context"
	"sync"
	"time"

	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
)

type StatisticsState struct {
	Baby     *store.Baby
	Period   stats.Period
	From, To time.Time

	Feeding    stats.FeedingStats
	Sleep      stats.SleepStats
	Diaper     stats.DiaperStats
	Water      stats.WaterStats
	Medicine   stats.MedicineStats
	Comparison stats.FeedingComparison

	// FeedingDaily is the milk volume per day of the window.
	FeedingDaily []stats.DayValue

	previous stats.FeedingStats

	Err *Failure
}

// Statistics summarises the current profile over a trailing period.
type Statistics struct {
	m      *machine[StatisticsState]
	s      *store.Store
	cfg    config
	follow follower

	mu     sync.Mutex
	period stats.Period
}

func NewStatistics(s *store.Store, opts ...Option) *Statistics {
	cfg := newConfig(opts)
	st := &Statistics{
		s:      s,
		cfg:    cfg,
		period: stats.Today,
		m: newMachine("statistics", StatisticsState{Period: stats.Today}, cfg, func(st *StatisticsState, f Failure) {
			st.Err = &f
		}),
	}
	followCurrent(st.m, s, &st.follow, func(state *StatisticsState, b *store.Baby) {
		if babyID(b) != babyID(state.Baby) {
			*state = StatisticsState{Period: state.Period, Err: state.Err}
		}
		state.Baby = b
	}, st.subscribe)
	rollover(st.m, &st.follow, cfg, st.subscribe)
	return st
}

func (st *Statistics) State() StatisticsState { return st.m.State() }

func (st *Statistics) Close() { st.m.Close() }

func (st *Statistics) Send(ev Event) {
	switch ev := ev.(type) {
	case SelectBaby:
		selectBaby(st.m, st.s, ev.ID)
	case SelectPeriod:
		st.mu.Lock()
		st.period = ev.Period
		st.mu.Unlock()
		st.m.update(func(state *StatisticsState) {
			*state = StatisticsState{Baby: state.Baby, Period: ev.Period, Err: state.Err}
		})
		st.follow.restart(st.m.child, st.subscribe)
	case Dismiss:
		st.m.update(func(state *StatisticsState) { state.Err = nil })
	}
}

// window returns the live range of p ending tonight and the equally long
// range before it.
func window(p stats.Period, now time.Time) (from, to, prevFrom, prevTo time.Time) {
	from, _ = p.Range(now)
	prevFrom, prevTo = p.Previous(now)
	return from, endOfDay(now), prevFrom, prevTo.Add(-time.Second)
}

func (st *Statistics) subscribe(ctx context.Context, id int64) {
	st.mu.Lock()
	p := st.period
	st.mu.Unlock()

	now := st.cfg.now()
	from, to, prevFrom, prevTo := window(p, now)
	loc := now.Location()
	s, m := st.s, st.m
	is := func(state *StatisticsState) bool { return babyID(state.Baby) == id && state.Period == p }

	m.update(func(state *StatisticsState) {
		if is(state) {
			state.From, state.To = from, to
		}
	})

	m.launchIn(ctx, "watch feedings", func(ctx context.Context) error {
		return pipe(ctx, m, "load feedings", s.WatchFeedingsRange(ctx, id, from, to), func(state *StatisticsState, v []store.FeedingRecord) {
			if !is(state) {
				return
			}
			state.Feeding = stats.Feeding(v)
			state.Comparison = stats.CompareFeeding(state.Feeding, state.previous)
			state.FeedingDaily = stats.Daily(v,
				func(r store.FeedingRecord) time.Time { return r.StartTime },
				func(r store.FeedingRecord) float64 {
					if r.Amount == nil {
						return 0
					}
					return float64(*r.Amount)
				}, from, to, loc)
		})
	})
	m.launchIn(ctx, "watch previous feedings", func(ctx context.Context) error {
		return pipe(ctx, m, "load previous feedings", s.WatchFeedingsRange(ctx, id, prevFrom, prevTo), func(state *StatisticsState, v []store.FeedingRecord) {
			if !is(state) {
				return
			}
			state.previous = stats.Feeding(v)
			state.Comparison = stats.CompareFeeding(state.Feeding, state.previous)
		})
	})
	m.launchIn(ctx, "watch sleeps", func(ctx context.Context) error {
		return pipe(ctx, m, "load sleeps", s.WatchSleepsRange(ctx, id, from, to), func(state *StatisticsState, v []store.SleepRecord) {
			if is(state) {
				state.Sleep = stats.Sleep(v)
			}
		})
	})
	m.launchIn(ctx, "watch diapers", func(ctx context.Context) error {
		return pipe(ctx, m, "load diapers", s.WatchDiapersRange(ctx, id, from, to), func(state *StatisticsState, v []store.DiaperRecord) {
			if is(state) {
				state.Diaper = stats.Diaper(v)
			}
		})
	})
	m.launchIn(ctx, "watch water", func(ctx context.Context) error {
		return pipe(ctx, m, "load water", s.WatchWaterRange(ctx, id, from, to), func(state *StatisticsState, v []store.WaterRecord) {
			if is(state) {
				state.Water = stats.Water(v)
			}
		})
	})
	m.launchIn(ctx, "watch medicines", func(ctx context.Context) error {
		return pipe(ctx, m, "load medicines", s.WatchMedicinesRange(ctx, id, from, to), func(state *StatisticsState, v []store.MedicineRecord) {
			if is(state) {
				state.Medicine = stats.Medicine(v)
			}
		})
	})
}
