package tui

import (
	"context"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/babylog/internal/config"
	"github.com/sadopc/babylog/internal/export"
	"github.com/sadopc/babylog/internal/store"
	"github.com/sadopc/babylog/internal/viewmodel"
)

// App is the root Bubble Tea model.
type App struct {
	width  int
	height int

	activeView viewState
	showHelp   bool

	feed   changeFeed
	cancel context.CancelFunc

	vmRecords    *viewmodel.Records
	vmStatistics *viewmodel.Statistics
	vmGrowth     *viewmodel.Growth
	vmBabies     *viewmodel.Babies
	vmSettings   *viewmodel.Settings

	home      homeModel
	log       logModel
	stats     statsModel
	babies    babiesModel
	settings  settingsModel
	reminders reminderModel

	help     help.Model
	status   string
	statusOK bool
}

// NewApp wires one view-model per screen to s. Close releases them.
func NewApp(s *store.Store, cfg config.Config) App {
	h := help.New()
	h.ShowAll = false

	feed := newChangeFeed()
	opts := []viewmodel.Option{
		viewmodel.WithLogger(log.Default()),
		viewmodel.WithOnChange(feed.notify),
		viewmodel.WithLocale(export.LocaleFor(cfg.Locale)),
		viewmodel.WithLocation(cfg.Location),
		viewmodel.WithPDFFont(cfg.PDFFont),
	}
	records := viewmodel.NewRecords(s, opts...)
	statistics := viewmodel.NewStatistics(s, opts...)
	growth := viewmodel.NewGrowth(s, opts...)
	babies := viewmodel.NewBabies(s, opts...)
	settings := viewmodel.NewSettings(s, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	every := cfg.ReminderCheck
	if every <= 0 {
		every = time.Minute
	}

	return App{
		activeView:   viewHome,
		feed:         feed,
		cancel:       cancel,
		vmRecords:    records,
		vmStatistics: statistics,
		vmGrowth:     growth,
		vmBabies:     babies,
		vmSettings:   settings,
		home:         newHomeModel(records, settings),
		log:          newLogModel(records),
		stats:        newStatsModel(statistics, growth),
		babies:       newBabiesModel(babies),
		settings:     newSettingsModel(settings, cfg),
		reminders:    newReminderModel(ctx, s, every),
		help:         h,
		statusOK:     true,
	}
}

// Close stops reminder checks and every view-model task.
func (a App) Close() {
	a.cancel()
	a.vmRecords.Close()
	a.vmStatistics.Close()
	a.vmGrowth.Close()
	a.vmBabies.Close()
	a.vmSettings.Close()
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.feed.wait(),
		tickCmd(),
		a.reminders.check(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.home.setSize(a.width, contentHeight)
		a.log.setSize(a.width, contentHeight)
		a.stats.setSize(a.width, contentHeight)
		a.babies.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case changedMsg:
		// Every screen sees every change; the feed must be re-armed.
		cmds = append(cmds, a.feed.wait())
		var cmd tea.Cmd
		a.log, cmd = a.log.update(msg)
		cmds = append(cmds, cmd)
		a.stats, cmd = a.stats.update(msg)
		cmds = append(cmds, cmd)
		a.babies, cmd = a.babies.update(msg)
		cmds = append(cmds, cmd)
		a.settings, cmd = a.settings.update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case tickMsg:
		var cmd tea.Cmd
		a.home, cmd = a.home.update(msg)
		return a, tea.Batch(tickCmd(), cmd)

	case reminderDueMsg, reminderMsg:
		var cmd tea.Cmd
		a.reminders, cmd = a.reminders.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusOK = !msg.isError
		return a, nil

	case tea.KeyMsg:
		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewHome
			return a, nil
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewLog
			return a, nil
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStats
			return a, nil
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewBabies
			return a, nil
		case key.Matches(msg, keys.Tab5):
			a.activeView = viewSettings
			return a, nil
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, nil
		}
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewHome:
		a.home, cmd = a.home.update(msg)
	case viewLog:
		a.log, cmd = a.log.update(msg)
	case viewStats:
		a.stats, cmd = a.stats.update(msg)
	case viewBabies:
		a.babies, cmd = a.babies.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

// isFormActive reports whether the active view is capturing keys.
func (a App) isFormActive() bool {
	switch a.activeView {
	case viewHome:
		return a.home.formActive || a.home.picking
	case viewLog:
		return a.log.formActive || a.log.picking
	case viewStats:
		return a.stats.formActive
	case viewBabies:
		return a.babies.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewHome:
		content = a.home.view()
		if !a.home.formActive && !a.home.picking && a.vmRecords.State().Baby != nil {
			content = lipgloss.JoinVertical(lipgloss.Left, content,
				panelStyle.Width(a.width-4).Render(lipgloss.JoinVertical(lipgloss.Left,
					titleStyle.Render("Reminders"), a.reminders.view())))
		}
	case viewLog:
		content = a.log.view()
	case viewStats:
		content = a.stats.view()
	case viewBabies:
		content = a.babies.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(a.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	name := "babylog"
	if b := a.vmRecords.State().Baby; b != nil {
		name += " · " + b.Name
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render(name)
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if !a.statusOK {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Running session indicator in footer
	running := ""
	st := a.vmRecords.State()
	if f := st.ActiveFeeding(); f != nil {
		running += timerRunningStyle.Render(" ● feeding " + formatDuration(a.home.now.Sub(f.StartTime)))
	}
	if s := st.ActiveSleep(); s != nil {
		running += timerRunningStyle.Render(" ● sleep " + formatDuration(a.home.now.Sub(s.StartTime)))
	}

	left := footerStyle.Render(helpView)
	right := running + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}
