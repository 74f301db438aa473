package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sadopc/babylog/internal/config"
	"github.com/sadopc/babylog/internal/store"
	"github.com/sadopc/babylog/internal/viewmodel"
)

var reminderCategories = []store.Category{
	store.CategoryFeeding, store.CategorySleep, store.CategoryDiaper, store.CategoryMedicine,
}

// settingsForm holds every form value as a field of one heap object so huh
// pointers survive value copies of the model.
type settingsForm struct {
	darkMode      bool
	notifications bool
	interval      string
	reminders     []store.Category
	quietEnabled  bool
	quietStart    string
	quietEnd      string

	format     viewmodel.Format
	categories []store.Category
	charts     bool
	path       string

	confirm bool
}

type settingsModel struct {
	settings *viewmodel.Settings
	cfg      config.Config
	width    int
	height   int

	darkTerminal bool
	bar          progress.Model

	formActive bool
	form       *huh.Form
	formType   string // "prefs", "export", "import", "clear"
	values     *settingsForm
}

func newSettingsModel(s *viewmodel.Settings, cfg config.Config) settingsModel {
	return settingsModel{
		settings:     s,
		cfg:          cfg,
		darkTerminal: lipgloss.HasDarkBackground(),
		bar:          progress.New(progress.WithDefaultGradient()),
		values:       &settingsForm{},
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.bar.Width = min(max(w-12, 10), 60)
}

func validInterval(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 15 || n > 720 {
		return fmt.Errorf("enter minutes between 15 and 720")
	}
	return nil
}

func validClock(v string) error {
	_, err := store.ParseClock(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}

func enabledReminders(p store.Preferences) []store.Category {
	var out []store.Category
	on := map[store.Category]bool{
		store.CategoryFeeding:  p.FeedingReminder,
		store.CategorySleep:    p.SleepReminder,
		store.CategoryDiaper:   p.DiaperReminder,
		store.CategoryMedicine: p.MedicineReminder,
	}
	for _, c := range reminderCategories {
		if on[c] {
			out = append(out, c)
		}
	}
	return out
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case changedMsg:
		lipgloss.SetHasDarkBackground(s.darkTerminal || s.settings.State().Prefs.DarkMode)
		return s, nil

	case tea.KeyMsg:
		st := s.settings.State()
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showPrefsForm(st.Prefs)
		case key.Matches(msg, keys.Export):
			if st.Exporting {
				return s, statusCmd("Export is already running", true)
			}
			return s.showExportForm()
		case key.Matches(msg, keys.Import):
			if st.Importing {
				return s, statusCmd("Import is already running", true)
			}
			return s.showImportForm()
		case key.Matches(msg, keys.Clear):
			return s.showClearForm(st)
		case key.Matches(msg, keys.Back):
			s.settings.Send(viewmodel.Dismiss{})
		}
	}
	return s, nil
}

func (s settingsModel) showPrefsForm(p store.Preferences) (settingsModel, tea.Cmd) {
	v := s.values
	v.darkMode = p.DarkMode
	v.notifications = p.NotificationsEnabled
	v.interval = strconv.Itoa(int(p.FeedingInterval / time.Minute))
	v.reminders = enabledReminders(p)
	v.quietEnabled = p.QuietHoursEnabled
	v.quietStart = p.QuietStart.String()
	v.quietEnd = p.QuietEnd.String()

	reminderOptions := make([]huh.Option[store.Category], len(reminderCategories))
	for i, c := range reminderCategories {
		reminderOptions[i] = huh.NewOption(string(c), c)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().Title("Dark mode").Value(&v.darkMode),
			huh.NewConfirm().Title("Notifications").Value(&v.notifications),
			huh.NewInput().Title("Feeding interval (min)").Validate(validInterval).Value(&v.interval),
			huh.NewMultiSelect[store.Category]().Title("Reminders").Options(reminderOptions...).Value(&v.reminders),
		).Title("Reminders"),
		huh.NewGroup(
			huh.NewConfirm().Title("Quiet hours").Value(&v.quietEnabled),
			huh.NewInput().Title("From").Validate(validClock).Value(&v.quietStart),
			huh.NewInput().Title("Until").Validate(validClock).Value(&v.quietEnd),
		).Title("Quiet hours"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = "prefs"
	s.formActive = true
	return s, s.form.Init()
}

// savePrefs sends one event per changed preference.
func (s settingsModel) savePrefs() {
	p := s.settings.State().Prefs
	v := s.values

	if v.darkMode != p.DarkMode {
		s.settings.Send(viewmodel.SetDarkMode{On: v.darkMode})
	}
	if v.notifications != p.NotificationsEnabled {
		s.settings.Send(viewmodel.SetNotifications{On: v.notifications})
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.interval)); err == nil {
		if d := time.Duration(n) * time.Minute; d != p.FeedingInterval {
			s.settings.Send(viewmodel.SetFeedingInterval{Interval: d})
		}
	}

	was := enabledReminders(p)
	for _, c := range reminderCategories {
		on := containsCategory(v.reminders, c)
		if on != containsCategory(was, c) {
			s.settings.Send(viewmodel.SetReminderEnabled{Category: c, On: on})
		}
	}

	start, errStart := store.ParseClock(strings.TrimSpace(v.quietStart))
	end, errEnd := store.ParseClock(strings.TrimSpace(v.quietEnd))
	if errStart == nil && errEnd == nil &&
		(v.quietEnabled != p.QuietHoursEnabled || start != p.QuietStart || end != p.QuietEnd) {
		s.settings.Send(viewmodel.SetQuietHours{Enabled: v.quietEnabled, Start: start, End: end})
	}
}

func containsCategory(list []store.Category, c store.Category) bool {
	for _, x := range list {
		if x == c {
			return true
		}
	}
	return false
}

// defaultExportName is babylog-YYYY-MM-DD with the format's extension.
func defaultExportName(f viewmodel.Format, now time.Time) string {
	return fmt.Sprintf("babylog-%s.%s", now.Format("2006-01-02"), f)
}

func (s settingsModel) showExportForm() (settingsModel, tea.Cmd) {
	v := s.values
	v.format = viewmodel.FormatCSV
	v.categories = append([]store.Category(nil), store.Categories...)
	v.charts = true
	v.path = ""

	categoryOptions := make([]huh.Option[store.Category], len(store.Categories))
	for i, c := range store.Categories {
		categoryOptions[i] = huh.NewOption(string(c), c).Selected(true)
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[viewmodel.Format]().Title("Format").Options(
				huh.NewOption("CSV", viewmodel.FormatCSV),
				huh.NewOption("PDF", viewmodel.FormatPDF),
				huh.NewOption("JSON", viewmodel.FormatJSON),
			).Value(&v.format),
			huh.NewMultiSelect[store.Category]().Title("Categories").Options(categoryOptions...).Value(&v.categories),
			huh.NewConfirm().Title("Include charts (PDF)").Value(&v.charts),
			huh.NewInput().Title("File").Placeholder("babylog-YYYY-MM-DD.<format>").Value(&v.path),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = "export"
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showImportForm() (settingsModel, tea.Cmd) {
	s.values.path = ""
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("CSV file to import").Validate(func(v string) error {
				if strings.TrimSpace(v) == "" {
					return fmt.Errorf("file is required")
				}
				return nil
			}).Value(&s.values.path),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formType = "import"
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) showClearForm(st viewmodel.SettingsState) (settingsModel, tea.Cmd) {
	if st.Baby == nil {
		return s, statusCmd("No baby selected", true)
	}
	s.values.confirm = false
	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete every record of %s?", st.Baby.Name)).
				Description("The profile itself is kept.").
				Affirmative("Delete").
				Negative("Keep").
				Value(&s.values.confirm),
		),
	).WithShowHelp(true)

	s.formType = "clear"
	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}
	if s.form.State != huh.StateCompleted {
		return s, cmd
	}

	s.formActive = false
	v := s.values
	switch s.formType {
	case "prefs":
		s.savePrefs()
		return s, statusCmd("Settings saved", false)
	case "export":
		name := strings.TrimSpace(v.path)
		if name == "" {
			name = defaultExportName(v.format, time.Now())
		}
		path := s.cfg.ExportPath(name)
		s.settings.Send(viewmodel.Export{
			Format:        v.format,
			Categories:    v.categories,
			IncludeCharts: v.charts,
			Path:          path,
		})
		return s, statusCmd("Exporting to "+path, false)
	case "import":
		s.settings.Send(viewmodel.Import{Path: strings.TrimSpace(v.path)})
		return s, statusCmd("Importing "+v.path, false)
	case "clear":
		if v.confirm {
			s.settings.Send(viewmodel.ClearData{})
			return s, statusCmd("Records cleared", false)
		}
	}
	return s, nil
}

func onOff(b bool) string {
	if b {
		return successStyle.Render("on")
	}
	return mutedStyle.Render("off")
}

func (s settingsModel) view() string {
	w := s.width - 4
	if s.formActive && s.form != nil {
		titles := map[string]string{"prefs": "Settings", "export": "Export", "import": "Import", "clear": "Clear Data"}
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render(titles[s.formType]), "", s.form.View()))
	}

	st := s.settings.State()
	p := st.Prefs
	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(22).Render(label), value)
	}

	reminders := make([]string, 0, len(reminderCategories))
	for _, c := range enabledReminders(p) {
		reminders = append(reminders, string(c))
	}
	quiet := mutedStyle.Render("off")
	if p.QuietHoursEnabled {
		quiet = highlightStyle.Render(p.QuietStart.String() + " - " + p.QuietEnd.String())
	}
	backup := mutedStyle.Render("never")
	if p.LastBackup != nil {
		backup = highlightStyle.Render(humanize.Time(*p.LastBackup))
	}

	rows := []string{
		titleStyle.Render("Settings"), "",
		row("Dark mode", onOff(p.DarkMode)),
		row("Notifications", onOff(p.NotificationsEnabled)),
		row("Feeding interval", highlightStyle.Render(fmt.Sprintf("%d min", int(p.FeedingInterval/time.Minute)))),
		row("Reminders", highlightStyle.Render(strings.Join(reminders, ", "))),
		row("Quiet hours", quiet),
		row("Last backup", backup),
		"",
		titleStyle.Render("Data"),
	}

	switch {
	case st.Exporting:
		rows = append(rows, "  Exporting  "+s.bar.ViewAs(st.ExportProgress))
	case st.LastExport != nil:
		e := st.LastExport
		rows = append(rows, row("Last export", fmt.Sprintf("%s records to %s (%s)",
			humanize.Comma(int64(e.Records)), e.Path, humanize.Time(e.At))))
	}
	switch {
	case st.Importing:
		rows = append(rows, "  Importing  "+s.bar.ViewAs(st.ImportProgress))
	case st.LastImport != nil:
		i := st.LastImport
		text := fmt.Sprintf("%s records from %s", humanize.Comma(int64(i.Total())), i.Path)
		if i.Skipped > 0 {
			text += warningStyle.Render(fmt.Sprintf(", %d rows skipped", i.Skipped))
		}
		rows = append(rows, row("Last import", text))
	}

	rows = append(rows, "", mutedStyle.Render("  enter: edit  x: export  i: import  c: clear data"))
	if st.Err != nil {
		rows = append(rows, errorStyle.Render("  "+failureText(st.Err)+"  (esc to dismiss)"))
	}
	return panelStyle.Width(w).Render(joinLines(rows))
}
