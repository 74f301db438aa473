package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/babylog/internal/store"
	"github.com/sadopc/babylog/internal/viewmodel"
)

// feedingChoice is one way to start a feeding from the picker.
type feedingChoice struct {
	label string
	kind  store.FeedingType
	side  *store.Side
}

var feedingChoices = []feedingChoice{
	{"Breast (left)", store.FeedingBreast, sidePtr(store.SideLeft)},
	{"Breast (right)", store.FeedingBreast, sidePtr(store.SideRight)},
	{"Bottle", store.FeedingBottle, nil},
}

func sidePtr(s store.Side) *store.Side { return &s }

type homeModel struct {
	records  *viewmodel.Records
	settings *viewmodel.Settings
	width    int
	height   int
	now      time.Time

	// Feeding picker state
	picking      bool
	pickerCursor int

	formActive bool
	form       *huh.Form
	amount     *string
}

func newHomeModel(r *viewmodel.Records, s *viewmodel.Settings) homeModel {
	amount := ""
	return homeModel{
		records:  r,
		settings: s,
		now:      time.Now(),
		amount:   &amount,
	}
}

func (h *homeModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

func (h homeModel) update(msg tea.Msg) (homeModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tickMsg:
		h.now = time.Time(msg)
		return h, nil

	case tea.KeyMsg:
		if h.picking {
			return h.updatePicker(msg)
		}
		st := h.records.State()

		switch {
		case key.Matches(msg, keys.Feed):
			if st.Baby == nil {
				return h, statusCmd("No baby yet. Press 4 to add one.", true)
			}
			if active := st.ActiveFeeding(); active != nil {
				if active.Type == store.FeedingBottle {
					return h.showAmountForm()
				}
				h.records.Send(viewmodel.StopFeeding{})
				return h, statusCmd("Feeding stopped", false)
			}
			h.picking = true
			h.pickerCursor = 0
			return h, nil

		case key.Matches(msg, keys.Sleep):
			if st.Baby == nil {
				return h, statusCmd("No baby yet. Press 4 to add one.", true)
			}
			if st.ActiveSleep() != nil {
				h.records.Send(viewmodel.StopSleep{})
				return h, statusCmd("Sleep stopped", false)
			}
			h.records.Send(viewmodel.StartSleep{})
			return h, statusCmd("Sleep started", false)

		case key.Matches(msg, keys.Back):
			h.records.Send(viewmodel.Dismiss{})
		}
	}
	return h, nil
}

func (h homeModel) updatePicker(msg tea.KeyMsg) (homeModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if h.pickerCursor > 0 {
			h.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if h.pickerCursor < len(feedingChoices)-1 {
			h.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		c := feedingChoices[h.pickerCursor]
		h.picking = false
		h.records.Send(viewmodel.StartFeeding{Type: c.kind, Side: c.side})
		return h, statusCmd("Feeding started", false)
	case key.Matches(msg, keys.Back):
		h.picking = false
	}
	return h, nil
}

func (h homeModel) showAmountForm() (homeModel, tea.Cmd) {
	*h.amount = ""
	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Amount (ml)").Placeholder("leave empty to skip").
				Validate(optionalInt).Value(h.amount),
		),
	).WithShowHelp(true).WithShowErrors(true)
	h.formActive = true
	return h, h.form.Init()
}

func (h homeModel) updateForm(msg tea.Msg) (homeModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		h.formActive = false
		h.form = nil
		return h, nil
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}
	if h.form.State == huh.StateCompleted {
		h.formActive = false
		var amount *int
		if n, err := strconv.Atoi(strings.TrimSpace(*h.amount)); err == nil {
			amount = &n
		}
		h.records.Send(viewmodel.StopFeeding{Amount: amount})
		return h, statusCmd("Feeding stopped", false)
	}
	return h, cmd
}

// isRunning reports whether a feeding or sleep session is open.
func (h homeModel) isRunning() bool {
	st := h.records.State()
	return st.ActiveFeeding() != nil || st.ActiveSleep() != nil
}

func (h homeModel) view() string {
	if h.width < 20 {
		return "Terminal too small"
	}
	w := h.width - 4
	st := h.records.State()

	if st.Baby == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Welcome to babylog"),
			"",
			mutedStyle.Render("Press 4 to add your baby's profile."),
		))
	}

	var bottom string
	switch {
	case h.formActive && h.form != nil:
		bottom = activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Stop Bottle Feeding"), "", h.form.View()))
	case h.picking:
		bottom = h.renderPicker(w)
	default:
		bottom = h.renderRecent(w, st)
	}

	panels := []string{h.renderSessions(w, st), h.renderToday(w, st), bottom}
	if st.Err != nil {
		panels = append(panels, errorStyle.Render("  "+failureText(st.Err)+"  (esc to dismiss)"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, panels...)
}

func (h homeModel) renderSessions(w int, st viewmodel.RecordsState) string {
	age := humanize.RelTime(st.Baby.Birthday, h.now, "old", "")
	header := fmt.Sprintf("%s  %s", titleStyle.Render(st.Baby.Name), mutedStyle.Render(age))

	feeding := timerStyle.Render("Feeding  --:--:--")
	if f := st.ActiveFeeding(); f != nil {
		feeding = timerRunningStyle.Render("Feeding  " + formatDuration(h.now.Sub(f.StartTime)))
	}
	sleep := timerStyle.Render("Sleep    --:--:--")
	if s := st.ActiveSleep(); s != nil {
		sleep = timerRunningStyle.Render("Sleep    " + formatDuration(h.now.Sub(s.StartTime)))
	}

	next := mutedStyle.Render("Next feeding: no reminder")
	if d, ok := nextFeeding(h.settings.State().Prefs, st.Feedings, h.now); ok {
		style := highlightStyle
		if d <= 0 {
			style = warningStyle
		}
		next = style.Render("Next feeding: " + formatCountdown(d))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, header, "", feeding, sleep, "", next)
	if h.isRunning() {
		return activePanelStyle.Width(w).Render(content)
	}
	return panelStyle.Width(w).Render(content)
}

func (h homeModel) renderToday(w int, st viewmodel.RecordsState) string {
	t := st.Today
	rows := []string{
		titleStyle.Render("Today"),
		fmt.Sprintf("  %s Feedings  %d  (%d ml)", lipgloss.NewStyle().Foreground(colorFeeding).Render("●"), t.Feedings, t.FeedingML),
		fmt.Sprintf("  %s Sleep     %s", lipgloss.NewStyle().Foreground(colorSleep).Render("●"), formatSeconds(t.SleepSeconds)),
		fmt.Sprintf("  %s Diapers   %d wet, %d dirty", lipgloss.NewStyle().Foreground(colorDiaper).Render("●"), t.WetCount, t.DirtyCount),
		fmt.Sprintf("  %s Water     %d ml", lipgloss.NewStyle().Foreground(colorWater).Render("●"), t.WaterML),
		fmt.Sprintf("  %s Medicine  %d", accentStyle.Render("●"), t.Medicines),
	}
	return panelStyle.Width(w).Render(joinLines(rows))
}

func (h homeModel) renderRecent(w int, st viewmodel.RecordsState) string {
	recent := st.Recent(5)
	rows := []string{titleStyle.Render("Recent")}
	if len(recent) == 0 {
		rows = append(rows, mutedStyle.Render("Nothing logged yet. Press f or s, or 2 to log."))
	}
	for _, r := range recent {
		rows = append(rows, "  "+describe(r))
	}
	rows = append(rows, "", mutedStyle.Render("  f: feeding  s: sleep"))
	return panelStyle.Width(w).Render(joinLines(rows))
}

func (h homeModel) renderPicker(w int) string {
	rows := []string{titleStyle.Render("Start Feeding")}
	for i, c := range feedingChoices {
		rows = append(rows, cursorRow(i == h.pickerCursor, c.label))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: start  esc: cancel"))
	return activePanelStyle.Width(w).Render(joinLines(rows))
}
