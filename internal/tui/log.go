package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/babylog/internal/store"
	"github.com/sadopc/babylog/internal/viewmodel"
)

type logModel struct {
	records *viewmodel.Records
	width   int
	height  int
	cursor  int
	offset  int

	// Category picker state
	picking      bool
	pickerCursor int

	formActive bool
	form       *huh.Form
	fields     *recordFields
}

func newLogModel(r *viewmodel.Records) logModel {
	return logModel{records: r}
}

func (l *logModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

// visible is how many list rows fit on screen.
func (l logModel) visible() int {
	return max(l.height-10, 3)
}

func (l logModel) update(msg tea.Msg) (logModel, tea.Cmd) {
	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	switch msg := msg.(type) {
	case changedMsg:
		l.cursor = clamp(l.cursor, len(l.records.State().Recent(0)))
		return l, nil

	case tea.KeyMsg:
		if l.picking {
			return l.updatePicker(msg)
		}
		return l.updateList(msg)
	}
	return l, nil
}

func (l logModel) updateList(msg tea.KeyMsg) (logModel, tea.Cmd) {
	st := l.records.State()
	recent := st.Recent(0)

	switch {
	case key.Matches(msg, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(msg, keys.Down):
		if l.cursor < len(recent)-1 {
			l.cursor++
		}
	case key.Matches(msg, keys.New):
		if st.Baby == nil {
			return l, statusCmd("No baby yet. Press 4 to add one.", true)
		}
		l.picking = true
		l.pickerCursor = 0
	case key.Matches(msg, keys.Edit), key.Matches(msg, keys.Enter):
		if len(recent) > 0 {
			return l.showForm(fieldsOf(recent[clamp(l.cursor, len(recent))]))
		}
	case key.Matches(msg, keys.Delete):
		if len(recent) > 0 {
			r := recent[clamp(l.cursor, len(recent))]
			l.records.Send(viewmodel.DeleteRecord{Category: r.Category(), ID: r.RecordID()})
			return l, statusCmd("Deleted "+string(r.Category())+" record", false)
		}
	case key.Matches(msg, keys.Back):
		l.records.Send(viewmodel.Dismiss{})
	}

	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if n := l.visible(); l.cursor >= l.offset+n {
		l.offset = l.cursor - n + 1
	}
	return l, nil
}

func (l logModel) updatePicker(msg tea.KeyMsg) (logModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if l.pickerCursor > 0 {
			l.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if l.pickerCursor < len(store.Categories)-1 {
			l.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		l.picking = false
		return l.showForm(newRecordFields(store.Categories[l.pickerCursor], time.Now()))
	case key.Matches(msg, keys.Back):
		l.picking = false
	}
	return l, nil
}

func (l logModel) showForm(f *recordFields) (logModel, tea.Cmd) {
	l.fields = f
	l.form = f.form()
	l.formActive = true
	return l, l.form.Init()
}

func (l logModel) updateForm(msg tea.Msg) (logModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		l.formActive = false
		l.form = nil
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}
	if l.form.State == huh.StateCompleted {
		l.formActive = false
		rec, err := l.fields.record()
		if err != nil {
			return l, statusCmd(err.Error(), true)
		}
		l.records.Send(viewmodel.SaveRecord{Record: rec})
		return l, statusCmd("Saved "+string(rec.Category())+" record", false)
	}
	return l, cmd
}

func (l logModel) view() string {
	w := l.width - 4
	if l.formActive && l.form != nil {
		verb := "New"
		if l.fields.id != 0 {
			verb = "Edit"
		}
		title := titleStyle.Render(fmt.Sprintf("%s %s record", verb, l.fields.category))
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", l.form.View()))
	}
	if l.picking {
		rows := []string{titleStyle.Render("New Record")}
		for i, c := range store.Categories {
			rows = append(rows, cursorRow(i == l.pickerCursor, string(c)))
		}
		rows = append(rows, "", mutedStyle.Render("  enter: choose  esc: cancel"))
		return activePanelStyle.Width(w).Render(joinLines(rows))
	}

	st := l.records.State()
	title := titleStyle.Render("Log")
	if st.Baby != nil {
		title = titleStyle.Render("Log: " + st.Baby.Name)
	}
	recent := st.Recent(0)
	if len(recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No records yet. Press n to add one.")))
	}

	rows := []string{title, ""}
	end := min(l.offset+l.visible(), len(recent))
	for i := l.offset; i < end; i++ {
		rows = append(rows, cursorRow(i == l.cursor, describe(recent[i])))
	}
	rows = append(rows, "", mutedStyle.Render(fmt.Sprintf("  %d of %d  n: new  e: edit  d: delete", l.cursor+1, len(recent))))
	if st.Err != nil {
		rows = append(rows, errorStyle.Render("  "+failureText(st.Err)+"  (esc to dismiss)"))
	}
	return panelStyle.Width(w).Render(joinLines(rows))
}
