package viewmodel

import (
	"context"

	"github.com/sadopc/babylog/internal/store"
)

type BabiesState struct {
	Babies  []store.Baby
	Current *store.Baby

	// Dialog is open while a profile is being created or edited; Editing is
	// nil for a new profile.
	Dialog  bool
	Editing *store.Baby

	Err *Failure
}

// Babies manages profiles and the current selection.
type Babies struct {
	m   *machine[BabiesState]
	s   *store.Store
	cfg config
}

func NewBabies(s *store.Store, opts ...Option) *Babies {
	cfg := newConfig(opts)
	b := &Babies{
		s:   s,
		cfg: cfg,
		m: newMachine("babies", BabiesState{}, cfg, func(st *BabiesState, f Failure) {
			st.Err = &f
		}),
	}

	b.m.launch("watch babies", func(ctx context.Context) error {
		return pipe(ctx, b.m, "load babies", s.WatchBabies(ctx), func(st *BabiesState, v []store.Baby) {
			st.Babies = v
		})
	})
	b.m.launch("watch current baby", func(ctx context.Context) error {
		return pipe(ctx, b.m, "load current baby", s.WatchCurrentBaby(ctx), func(st *BabiesState, v *store.Baby) {
			st.Current = v
		})
	})
	return b
}

func (b *Babies) State() BabiesState { return b.m.State() }

func (b *Babies) Close() { b.m.Close() }

func (b *Babies) Send(ev Event) {
	switch ev := ev.(type) {
	case EditBaby:
		b.m.update(func(st *BabiesState) {
			st.Dialog = true
			st.Editing = ev.Baby
		})
	case DismissDialog:
		b.m.update(func(st *BabiesState) {
			st.Dialog = false
			st.Editing = nil
		})
	case SaveBaby:
		b.m.launch("save baby", func(ctx context.Context) error {
			return b.save(ev.Baby)
		})
	case DeleteBaby:
		b.m.launch("delete baby", func(ctx context.Context) error {
			return storageErr(b.s.DeleteBaby(ev.ID))
		})
	case SelectBaby:
		selectBaby(b.m, b.s, ev.ID)
	case Dismiss:
		b.m.update(func(st *BabiesState) { st.Err = nil })
	}
}

// save writes the profile and closes the dialog. The first profile ever
// created becomes the current one.
func (b *Babies) save(baby store.Baby) error {
	if err := validateBaby(baby, b.cfg.now()); err != nil {
		return err
	}

	if baby.ID != 0 {
		if err := b.s.UpdateBaby(baby); err != nil {
			return storageErr(err)
		}
	} else {
		created, err := b.s.CreateBaby(baby)
		if err != nil {
			return storageErr(err)
		}
		current, err := b.s.CurrentBaby()
		if err != nil {
			return storageErr(err)
		}
		if current == nil {
			if err := b.s.SetCurrentBaby(created.ID); err != nil {
				return storageErr(err)
			}
		}
	}

	b.m.update(func(st *BabiesState) {
		st.Dialog = false
		st.Editing = nil
		st.Err = nil
	})
	return nil
}
