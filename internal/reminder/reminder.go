// Package reminder decides when to nudge about the next feeding and due
// medicine doses. Delivery and rescheduling belong to the caller through the
// Notifier and Scheduler interfaces.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sadopc/babylog/internal/store"
)

type Kind int

const (
	KindFeeding Kind = iota
	KindMedicine
)

func (k Kind) String() string {
	switch k {
	case KindFeeding:
		return "feeding"
	case KindMedicine:
		return "medicine"
	}
	return "unknown"
}

// Reminder is one message to deliver now.
type Reminder struct {
	Kind   Kind
	BabyID int64
	Title  string
	Body   string
	At     time.Time
}

// Notifier sends a reminder immediately. Calls are fire-and-forget.
type Notifier interface {
	Notify(Reminder)
}

// Scheduler asks for another check after d. Calls are fire-and-forget.
type Scheduler interface {
	Schedule(d time.Duration)
}

// Source is the slice of the store a Checker reads.
type Source interface {
	Preferences() (store.Preferences, error)
	CurrentBaby() (*store.Baby, error)
	GetBaby(id int64) (*store.Baby, error)
	LatestFeeding(babyID int64) (*store.FeedingRecord, error)
	DueMedicineReminders(from, to time.Time) ([]store.MedicineRecord, error)
}

// Decision is the outcome of a feeding check.
type Decision struct {
	Remind bool
	Due    time.Time // when the next feeding is due; zero without history
	Next   time.Time // when the feeding check should run again
}

// Quiet reports whether now falls inside the quiet hours. A window whose start
// is after its end wraps midnight; equal bounds mean no quiet time.
func Quiet(p store.Preferences, now time.Time) bool {
	if !p.QuietHoursEnabled || p.QuietStart == p.QuietEnd {
		return false
	}
	c := store.ClockOf(now)
	if p.QuietStart < p.QuietEnd {
		return c >= p.QuietStart && c < p.QuietEnd
	}
	return c >= p.QuietStart || c < p.QuietEnd
}

// quietEnd returns the first moment after now at which quiet hours end.
func quietEnd(p store.Preferences, now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := day.Add(time.Duration(p.QuietEnd) * time.Minute)
	if !end.After(now) {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

func interval(p store.Preferences) time.Duration {
	if p.FeedingInterval <= 0 {
		return store.DefaultPreferences().FeedingInterval
	}
	return p.FeedingInterval
}

// Decide applies the feeding interval to the last feeding. A reminder is
// suppressed while notifications or feeding reminders are off and is held
// back until quiet hours end.
func Decide(p store.Preferences, last *store.FeedingRecord, now time.Time) Decision {
	every := interval(p)
	if last == nil {
		return Decision{Next: now.Add(every)}
	}

	d := Decision{Due: last.StartTime.Add(every)}
	switch {
	case now.Before(d.Due):
		d.Next = d.Due
	case !p.NotificationsEnabled || !p.FeedingReminder:
		d.Next = now.Add(every)
	case Quiet(p, now):
		d.Next = quietEnd(p, now)
	default:
		d.Remind = true
		d.Next = now.Add(every)
	}
	return d
}

type Option func(*Checker)

func WithLogger(l *log.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// WithInterval sets the longest gap between checks. Medicine reminders are
// only noticed on a check, so this bounds how late they can be.
func WithInterval(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.every = d
		}
	}
}

// Checker runs one reminder pass per Run call and remembers what it already
// sent.
type Checker struct {
	src    Source
	notify Notifier
	sched  Scheduler
	logger *log.Logger
	now    func() time.Time
	every  time.Duration

	mu          sync.Mutex
	since       time.Time
	remindedFor int64
}

func NewChecker(src Source, n Notifier, s Scheduler, opts ...Option) *Checker {
	c := &Checker{
		src:    src,
		notify: n,
		sched:  s,
		logger: log.Default(),
		now:    time.Now,
		every:  time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.since = c.now()
	return c
}

// Run checks the current baby's feeding, sends medicine reminders that came
// due since the previous run, and schedules the next run. The next run is
// scheduled even when the store fails.
func (c *Checker) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	next := now.Add(c.every)
	defer func() {
		c.sched.Schedule(max(next.Sub(now), time.Second))
	}()

	prefs, err := c.src.Preferences()
	if err != nil {
		return fmt.Errorf("reminder preferences: %w", err)
	}

	if err := c.checkFeeding(prefs, now, &next); err != nil {
		return err
	}
	if err := c.checkMedicine(prefs, now); err != nil {
		return err
	}
	return nil
}

func (c *Checker) checkFeeding(prefs store.Preferences, now time.Time, next *time.Time) error {
	baby, err := c.src.CurrentBaby()
	if err != nil {
		return fmt.Errorf("reminder current baby: %w", err)
	}
	if baby == nil {
		return nil
	}
	last, err := c.src.LatestFeeding(baby.ID)
	if err != nil {
		return fmt.Errorf("reminder latest feeding: %w", err)
	}

	d := Decide(prefs, last, now)
	if d.Next.Before(*next) {
		*next = d.Next
	}
	if !d.Remind || last.ID == c.remindedFor {
		return nil
	}

	c.remindedFor = last.ID
	c.logger.Printf("reminder: feeding due for baby %d since %s", baby.ID, d.Due.Format(time.Kitchen))
	c.notify.Notify(Reminder{
		Kind:   KindFeeding,
		BabyID: baby.ID,
		Title:  "Feeding time",
		Body:   fmt.Sprintf("%s was last fed at %s", baby.Name, last.StartTime.In(now.Location()).Format(time.Kitchen)),
		At:     now,
	})
	return nil
}

func (c *Checker) checkMedicine(prefs store.Preferences, now time.Time) error {
	from := c.since
	if !now.After(from) {
		return nil
	}
	due, err := c.src.DueMedicineReminders(from, now)
	if err != nil {
		return fmt.Errorf("reminder medicine: %w", err)
	}
	c.since = now
	if !prefs.NotificationsEnabled || !prefs.MedicineReminder {
		return nil
	}

	names := make(map[int64]string)
	for _, m := range due {
		name, ok := names[m.BabyID]
		if !ok {
			if b, err := c.src.GetBaby(m.BabyID); err == nil {
				name = b.Name
			}
			names[m.BabyID] = name
		}
		c.logger.Printf("reminder: medicine %q due for baby %d", m.Name, m.BabyID)
		c.notify.Notify(Reminder{
			Kind:   KindMedicine,
			BabyID: m.BabyID,
			Title:  "Medicine: " + m.Name,
			Body:   fmt.Sprintf("%s: %s %s", name, float(m.Dosage), m.Unit),
			At:     *m.ReminderTime,
		})
	}
	return nil
}

func float(v float64) string {
	return fmt.Sprintf("%g", v)
}
