package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/babylog/internal/reminder"
	"github.com/sadopc/babylog/internal/viewmodel"
)

// viewState represents the currently active view.
type viewState int

const (
	viewHome viewState = iota
	viewLog
	viewStats
	viewBabies
	viewSettings
)

var viewNames = []string{"Home", "Log", "Stats", "Babies", "Settings"}

// --- Messages ---

// changedMsg reports that at least one screen state changed since the last
// one was delivered.
type changedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type tickMsg time.Time

type reminderDueMsg struct{}

type reminderMsg struct {
	reminders []reminder.Reminder
	next      time.Duration
	err       error
}

// --- Change feed ---

// changeFeed turns view-model change callbacks into Bubble Tea messages.
// Bursts of changes collapse into one pending message.
type changeFeed chan struct{}

func newChangeFeed() changeFeed {
	return make(changeFeed, 1)
}

// notify never blocks; it runs on view-model update goroutines.
func (c changeFeed) notify() {
	select {
	case c <- struct{}{}:
	default:
	}
}

func (c changeFeed) wait() tea.Cmd {
	return func() tea.Msg {
		<-c
		return changedMsg{}
	}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

func formatHours(d time.Duration) string {
	return fmt.Sprintf("%.1fh", d.Hours())
}

func failureText(f *viewmodel.Failure) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s error: %s", f.Kind, f.Message)
}

func statusCmd(text string, isError bool) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

func cursorRow(selected bool, text string) string {
	if selected {
		return selectedItemStyle.Render("> " + text)
	}
	return normalItemStyle.Render("  " + text)
}

func clamp(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	return max(cursor, 0)
}

func joinLines(rows []string) string {
	return strings.Join(rows, "\n")
}
