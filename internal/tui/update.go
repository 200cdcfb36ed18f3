package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/tui/components/today"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = msg.Width, msg.Height
		h, v := docStyle.GetFrameSize()
		// header, status line and help
		m.today.SetSize(msg.Width-h, msg.Height-v-4)
		m.help.Width = msg.Width
		return m, nil
	}

	switch m.state {
	case StateAddHabit:
		return m.updateAddHabit(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.today.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.refresh()
			m.status = ""
			return m, nil
		}

	case today.AddHabitMsg:
		m.habitForm = newHabitFormModel()
		m.form = NewHabitForm(m.habitForm)
		m.state = StateAddHabit
		return m, m.form.Init()

	case today.DoneMsg:
		m.transition(m.completion.MarkDone, msg.InstanceID)
		return m, nil

	case today.UndoMsg:
		m.transition(m.completion.Undo, msg.InstanceID)
		return m, nil

	case today.MissMsg:
		m.transition(m.completion.MarkMissed, msg.InstanceID)
		return m, nil

	case today.DeleteHabitMsg:
		m.habitToDelete = msg
		m.state = StateConfirmDelete
		return m, nil
	}

	var cmd tea.Cmd
	m.today, cmd = m.today.Update(msg)
	return m, cmd
}

type transitionFunc func(ctx context.Context, userID, instanceID string) (completion.Result, error)

func (m *Model) transition(fn transitionFunc, instanceID string) {
	res, err := fn(context.Background(), m.userID, instanceID)
	if err != nil {
		m.status = err.Error()
		return
	}

	m.status = fmt.Sprintf("%s: %d/%d", res.Habit.Title, res.Instance.Repeats, res.Habit.RepeatsGoal)
	if res.Totals != nil {
		m.status += fmt.Sprintf(" · level %d, %d XP", res.Totals.Level, res.Totals.XP)
	}
	m.refresh()
}

func (m Model) updateAddHabit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateToday
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		def, err := m.habitForm.Definition()
		if err == nil {
			var res habits.Created
			res, err = m.habits.CreateHabit(context.Background(), m.userID, def)
			if err == nil {
				m.status = "Added " + res.Habit.Title
				if res.Instance == nil {
					m.status += " (not scheduled today)"
				}
				m.refresh()
				m.state = StateToday
				return m, nil
			}
		}
		// Stay in the form so the user can fix the input or press esc.
		m.status = err.Error()
		m.form.State = huh.StateNormal
	case huh.StateAborted:
		m.state = StateToday
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		if err := m.habits.DeleteHabit(context.Background(), m.userID, m.habitToDelete.HabitID); err != nil {
			m.status = err.Error()
		} else {
			m.status = "Deleted " + m.habitToDelete.Title
			m.refresh()
		}
		m.state = StateToday
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = StateToday
	}
	return m, nil
}
