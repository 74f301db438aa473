package tui

import (
	"errors"
	"fmt"
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

const birthdayLayout = "2006-01-02"

type babiesModel struct {
	babies *viewmodel.Babies
	width  int
	height int
	cursor int

	formActive bool
	form       *huh.Form
	formType   string // "profile", "delete"

	// Form field pointers (survive value copies)
	formName     *string
	formGender   *store.Gender
	formBirthday *string
	formConfirm  *bool

	editing store.Baby
}

func newBabiesModel(b *viewmodel.Babies) babiesModel {
	name, birthday, confirm := "", "", false
	gender := store.GenderGirl
	return babiesModel{
		babies:       b,
		formName:     &name,
		formGender:   &gender,
		formBirthday: &birthday,
		formConfirm:  &confirm,
	}
}

func (b *babiesModel) setSize(w, h int) {
	b.width = w
	b.height = h
}

func validBirthday(s string) error {
	t, err := time.ParseInLocation(birthdayLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	if t.After(time.Now()) {
		return errors.New("birthday is in the future")
	}
	return nil
}

func (b babiesModel) update(msg tea.Msg) (babiesModel, tea.Cmd) {
	if b.formActive && b.form != nil {
		return b.updateForm(msg)
	}

	switch msg := msg.(type) {
	case changedMsg:
		b.cursor = clamp(b.cursor, len(b.babies.State().Babies))
		return b, nil

	case tea.KeyMsg:
		st := b.babies.State()
		switch {
		case key.Matches(msg, keys.Up):
			if b.cursor > 0 {
				b.cursor--
			}
		case key.Matches(msg, keys.Down):
			if b.cursor < len(st.Babies)-1 {
				b.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if len(st.Babies) > 0 {
				baby := st.Babies[b.cursor]
				b.babies.Send(viewmodel.SelectBaby{ID: baby.ID})
				return b, statusCmd("Now tracking "+baby.Name, false)
			}
		case key.Matches(msg, keys.New):
			return b.showProfileForm(nil)
		case key.Matches(msg, keys.Edit):
			if len(st.Babies) > 0 {
				baby := st.Babies[b.cursor]
				return b.showProfileForm(&baby)
			}
		case key.Matches(msg, keys.Delete):
			if len(st.Babies) > 0 {
				return b.showDeleteForm(st.Babies[b.cursor])
			}
		case key.Matches(msg, keys.Back):
			b.babies.Send(viewmodel.Dismiss{})
		}
	}
	return b, nil
}

func (b babiesModel) showProfileForm(baby *store.Baby) (babiesModel, tea.Cmd) {
	b.babies.Send(viewmodel.EditBaby{Baby: baby})
	b.editing = store.Baby{}
	*b.formName = ""
	*b.formGender = store.GenderGirl
	*b.formBirthday = time.Now().Format(birthdayLayout)
	if baby != nil {
		b.editing = *baby
		*b.formName = baby.Name
		*b.formGender = baby.Gender
		*b.formBirthday = baby.Birthday.Local().Format(birthdayLayout)
	}
	b.formType = "profile"

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(b.formName),
			huh.NewSelect[store.Gender]().Title("Gender").Options(
				huh.NewOption("Girl", store.GenderGirl),
				huh.NewOption("Boy", store.GenderBoy),
			).Value(b.formGender),
			huh.NewInput().Title("Birthday").Placeholder(birthdayLayout).Validate(validBirthday).Value(b.formBirthday),
		),
	).WithShowHelp(true).WithShowErrors(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b babiesModel) showDeleteForm(baby store.Baby) (babiesModel, tea.Cmd) {
	b.editing = baby
	*b.formConfirm = false
	b.formType = "delete"

	b.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s and all of their records?", baby.Name)).
				Affirmative("Delete").
				Negative("Keep").
				Value(b.formConfirm),
		),
	).WithShowHelp(true)

	b.formActive = true
	return b, b.form.Init()
}

func (b babiesModel) closeForm() babiesModel {
	if b.formType == "profile" {
		b.babies.Send(viewmodel.DismissDialog{})
	}
	b.formActive = false
	b.form = nil
	return b
}

func (b babiesModel) updateForm(msg tea.Msg) (babiesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return b.closeForm(), nil
	}

	form, cmd := b.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		b.form = f
	}
	if b.form.State != huh.StateCompleted {
		return b, cmd
	}

	switch b.formType {
	case "profile":
		baby := b.editing
		baby.Name = strings.TrimSpace(*b.formName)
		baby.Gender = *b.formGender
		if t, err := time.ParseInLocation(birthdayLayout, strings.TrimSpace(*b.formBirthday), time.Local); err == nil {
			baby.Birthday = t
		}
		b = b.closeForm()
		b.babies.Send(viewmodel.SaveBaby{Baby: baby})
		return b, statusCmd("Saved "+baby.Name, false)
	case "delete":
		b = b.closeForm()
		if *b.formConfirm {
			b.babies.Send(viewmodel.DeleteBaby{ID: b.editing.ID})
			return b, statusCmd("Deleted "+b.editing.Name, false)
		}
	}
	return b, nil
}

func (b babiesModel) view() string {
	w := b.width - 4
	st := b.babies.State()

	if b.formActive && b.form != nil {
		title := titleStyle.Render("New Baby")
		switch {
		case b.formType == "delete":
			title = titleStyle.Render("Delete Baby")
		case b.editing.ID != 0:
			title = titleStyle.Render("Edit " + b.editing.Name)
		}
		return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, "", b.form.View()))
	}

	title := titleStyle.Render("Babies")
	if len(st.Babies) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No profiles yet. Press n to create one.")))
	}

	rows := []string{title, ""}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-3s %-20s %-8s %-12s %s", "", "Name", "Gender", "Birthday", "Age")))
	now := time.Now()
	for i, baby := range st.Babies {
		mark := " "
		if st.Current != nil && st.Current.ID == baby.ID {
			mark = successStyle.Render("●")
		}
		gender := "girl"
		if baby.Gender == store.GenderBoy {
			gender = "boy"
		}
		age := humanize.RelTime(baby.Birthday, now, "", "")
		rows = append(rows, cursorRow(i == b.cursor, fmt.Sprintf("%s %-20s %-8s %-12s %s",
			mark, baby.Name, gender, baby.Birthday.Local().Format(birthdayLayout), age)))
	}
	rows = append(rows, "", mutedStyle.Render("  enter: select  n: new  e: edit  d: delete"))
	if st.Err != nil {
		rows = append(rows, errorStyle.Render("  "+failureText(st.Err)+"  (esc to dismiss)"))
	}
	return panelStyle.Width(w).Render(joinLines(rows))
}
