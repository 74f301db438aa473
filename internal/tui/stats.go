package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/babylog/internal/stats"
	"github.com/sadopc/babylog/internal/store"
	"github.com/sadopc/babylog/internal/viewmodel"
)

type statsModel struct {
	statistics *viewmodel.Statistics
	growth     *viewmodel.Growth
	width      int
	height     int

	chart barchart.Model

	formActive bool
	form       *huh.Form
	fields     *recordFields
}

func newStatsModel(st *viewmodel.Statistics, g *viewmodel.Growth) statsModel {
	return statsModel{
		statistics: st,
		growth:     g,
		chart:      barchart.New(60, 10),
	}
}

func (s *statsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.buildChart()
}

// cycle returns the period after (or before) cur in periods.
func cycle(periods []stats.Period, cur stats.Period, step int) stats.Period {
	idx := 0
	for i, p := range periods {
		if p == cur {
			idx = i
			break
		}
	}
	n := len(periods)
	return periods[((idx+step)%n+n)%n]
}

func (s statsModel) update(msg tea.Msg) (statsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case changedMsg:
		s.buildChart()
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			p := cycle(stats.StatisticsPeriods, s.statistics.State().Period, -1)
			s.statistics.Send(viewmodel.SelectPeriod{Period: p})
		case key.Matches(msg, keys.Right):
			p := cycle(stats.StatisticsPeriods, s.statistics.State().Period, 1)
			s.statistics.Send(viewmodel.SelectPeriod{Period: p})
		case key.Matches(msg, keys.Growth):
			p := cycle(stats.GrowthPeriods, s.growth.State().Period, 1)
			s.growth.Send(viewmodel.SelectPeriod{Period: p})
		case key.Matches(msg, keys.New):
			if s.growth.State().Baby == nil {
				return s, statusCmd("No baby yet. Press 4 to add one.", true)
			}
			s.fields = newRecordFields(store.CategoryGrowth, time.Now())
			s.form = s.fields.form()
			s.formActive = true
			return s, s.form.Init()
		case key.Matches(msg, keys.Back):
			s.statistics.Send(viewmodel.Dismiss{})
			s.growth.Send(viewmodel.Dismiss{})
		}
	}
	return s, nil
}

func (s statsModel) updateForm(msg tea.Msg) (statsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State == huh.StateCompleted {
		s.formActive = false
		rec, err := s.fields.record()
		if err != nil {
			return s, statusCmd(err.Error(), true)
		}
		s.growth.Send(viewmodel.AddGrowth{Record: rec.(store.GrowthRecord)})
		return s, statusCmd("Growth measurement saved", false)
	}
	return s, cmd
}

func (s *statsModel) buildChart() {
	chartWidth := max(s.width-8, 20)
	chartHeight := 10
	if s.height > 36 {
		chartHeight = 14
	}
	s.chart = barchart.New(chartWidth, chartHeight)

	daily := s.statistics.State().FeedingDaily
	labelFormat := "Mon"
	if len(daily) > 8 {
		labelFormat = "02"
	}
	style := lipgloss.NewStyle().Foreground(colorFeeding)

	bars := make([]barchart.BarData, 0, len(daily))
	for _, d := range daily {
		bars = append(bars, barchart.BarData{
			Label: d.Day.Format(labelFormat),
			Values: []barchart.BarValue{{
				Name:  "ml",
				Value: d.Value,
				Style: style,
			}},
		})
	}
	if len(bars) == 0 {
		return
	}
	s.chart.PushAll(bars)
	s.chart.Draw()
}

func (s statsModel) view() string {
	w := s.width - 4
	if s.formActive && s.form != nil {
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("New growth measurement"), "", s.form.View()))
	}

	st := s.statistics.State()
	if st.Baby == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Statistics"), "", mutedStyle.Render("No baby yet. Press 4 to add one.")))
	}

	var tabs []string
	for _, p := range stats.StatisticsPeriods {
		if p == st.Period {
			tabs = append(tabs, activeTabStyle.Render(p.String()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(p.String()))
		}
	}
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", st.From.Format("Jan 02"), st.To.Format("Jan 02, 2006")))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...), "  ", dateLabel)

	chartView := mutedStyle.Render("  No feedings in this period")
	if len(st.FeedingDaily) > 0 && st.Feeding.TotalAmount > 0 {
		chartView = s.chart.View()
	}

	parts := []string{
		header, "",
		mutedStyle.Render("  Milk per day (ml)"),
		chartView, "",
		s.renderSummary(st), "",
		s.renderGrowth(s.growth.State()), "",
		mutedStyle.Render("  ←/→: period  g: growth period  n: add measurement"),
	}
	if st.Err != nil {
		parts = append(parts, errorStyle.Render("  "+failureText(st.Err)))
	}
	if g := s.growth.State(); g.Err != nil {
		parts = append(parts, errorStyle.Render("  "+failureText(g.Err)))
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func changeText(c stats.Change) string {
	if c.Previous == 0 {
		return mutedStyle.Render("(no earlier data)")
	}
	pct := c.Percent()
	text := fmt.Sprintf("(%+.0f%% vs previous)", pct)
	if pct < 0 {
		return warningStyle.Render(text)
	}
	return successStyle.Render(text)
}

func (s statsModel) renderSummary(st viewmodel.StatisticsState) string {
	rows := []string{
		fmt.Sprintf("  %s Feedings  %3d  %d ml  avg %s  %s",
			lipgloss.NewStyle().Foreground(colorFeeding).Render("●"),
			st.Feeding.Count, st.Feeding.TotalAmount, formatDuration(st.Feeding.AverageDuration),
			changeText(st.Comparison.Amount)),
		fmt.Sprintf("    breast %d  bottle %d", st.Feeding.BreastCount, st.Feeding.BottleCount),
		fmt.Sprintf("  %s Sleep     %3d  %s total  avg %s",
			lipgloss.NewStyle().Foreground(colorSleep).Render("●"),
			st.Sleep.Count, formatHours(st.Sleep.TotalDuration), formatHours(st.Sleep.AverageDuration)),
		fmt.Sprintf("  %s Diapers   %3d  %d wet  %d dirty",
			lipgloss.NewStyle().Foreground(colorDiaper).Render("●"),
			st.Diaper.Count, st.Diaper.WetCount, st.Diaper.DirtyCount),
		fmt.Sprintf("  %s Water     %3d  %d ml  avg %.0f ml",
			lipgloss.NewStyle().Foreground(colorWater).Render("●"),
			st.Water.Count, st.Water.TotalAmount, st.Water.AverageAmount),
		fmt.Sprintf("  %s Medicine  %3d  %s", accentStyle.Render("●"), st.Medicine.Count, doses(st.Medicine.Doses)),
	}
	return joinLines(rows)
}

func doses(m map[string]int) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s x%d", name, m[name])
	}
	return strings.Join(parts, ", ")
}

func (s statsModel) renderGrowth(g viewmodel.GrowthState) string {
	rows := []string{titleStyle.Render(fmt.Sprintf("Growth (%s)", g.Period))}
	if g.Latest == nil {
		return joinLines(append(rows, mutedStyle.Render("  No measurements yet")))
	}
	rows = append(rows, "  Latest   "+describe(*g.Latest))
	if g.Trend.Samples < 2 || g.Trend.Zero() {
		return joinLines(append(rows, mutedStyle.Render(fmt.Sprintf("  %d measurement(s) in window", g.Trend.Samples))))
	}
	rows = append(rows, fmt.Sprintf("  Change   %+.2f kg  %+.1f cm  head %+.1f cm over %d months",
		g.Trend.Weight, g.Trend.Height, g.Trend.HeadCircumference, g.Trend.Months))
	return joinLines(rows)
}
