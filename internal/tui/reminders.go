package tui

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/babylog/internal/reminder"
	"github.com/sadopc/babylog/internal/store"
)

// outbox collects what one reminder pass sent and when it wants to run again.
type outbox struct {
	mu    sync.Mutex
	sent  []reminder.Reminder
	after time.Duration
}

func (o *outbox) Notify(r reminder.Reminder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, r)
}

func (o *outbox) Schedule(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.after = d
}

func (o *outbox) drain() ([]reminder.Reminder, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	sent, after := o.sent, o.after
	o.sent, o.after = nil, 0
	return sent, after
}

// reminderModel runs reminder passes off the UI goroutine and keeps the last
// few reminders for display.
type reminderModel struct {
	checker *reminder.Checker
	out     *outbox
	ctx     context.Context
	every   time.Duration

	recent []reminder.Reminder
	nextAt time.Time
}

func newReminderModel(ctx context.Context, s *store.Store, every time.Duration) reminderModel {
	out := &outbox{}
	return reminderModel{
		checker: reminder.NewChecker(s, out, out, reminder.WithLogger(log.Default()), reminder.WithInterval(every)),
		out:     out,
		ctx:     ctx,
		every:   every,
	}
}

func (r reminderModel) check() tea.Cmd {
	return func() tea.Msg {
		err := r.checker.Run(r.ctx)
		sent, after := r.out.drain()
		if after <= 0 {
			after = r.every
		}
		return reminderMsg{reminders: sent, next: after, err: err}
	}
}

func scheduleReminder(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return reminderDueMsg{} })
}

func (r reminderModel) update(msg tea.Msg) (reminderModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reminderDueMsg:
		return r, r.check()

	case reminderMsg:
		if r.ctx.Err() != nil {
			return r, nil
		}
		r.nextAt = time.Now().Add(msg.next)
		cmds := []tea.Cmd{scheduleReminder(msg.next)}
		if msg.err != nil {
			cmds = append(cmds, statusCmd(fmt.Sprintf("Reminder check failed: %v", msg.err), true))
		}
		if len(msg.reminders) > 0 {
			r.recent = append(msg.reminders, r.recent...)
			if len(r.recent) > 5 {
				r.recent = r.recent[:5]
			}
			last := msg.reminders[len(msg.reminders)-1]
			cmds = append(cmds, statusCmd(fmt.Sprintf("%s: %s \a", last.Title, last.Body), false))
		}
		return r, tea.Batch(cmds...)
	}
	return r, nil
}

// nextFeeding returns the countdown to the next feeding of the current baby,
// or false when there is no feeding history or reminders are off.
func nextFeeding(prefs store.Preferences, feedings []store.FeedingRecord, now time.Time) (time.Duration, bool) {
	if !prefs.NotificationsEnabled || !prefs.FeedingReminder || len(feedings) == 0 {
		return 0, false
	}
	latest := feedings[0]
	d := reminder.Decide(prefs, &latest, now)
	return d.Due.Sub(now), true
}

func formatCountdown(d time.Duration) string {
	if d <= 0 {
		return "due now"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func (r reminderModel) view() string {
	if len(r.recent) == 0 {
		return mutedStyle.Render("No reminders yet")
	}
	var rows []string
	for _, rem := range r.recent {
		rows = append(rows, fmt.Sprintf("%s %s  %s",
			warningStyle.Render("●"), rem.At.Local().Format("15:04"), rem.Title+": "+rem.Body))
	}
	return joinLines(rows)
}
