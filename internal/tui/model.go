// Package tui is the interactive view of today's habit instances.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tui/components/today"
)

type SessionState int

const (
	StateToday SessionState = iota
	StateAddHabit
	StateConfirmDelete
)

type Model struct {
	habits     *habits.Service
	completion *completion.Service
	userID     string

	state     SessionState
	keys      KeyMap
	help      help.Model
	today     today.Model
	form      *huh.Form
	habitForm *HabitFormModel

	user          models.User
	habitToDelete today.DeleteHabitMsg
	status        string
	err           error
	quitting      bool
	width         int
	height        int
}

func NewModel(habitSvc *habits.Service, completionSvc *completion.Service, userID string) Model {
	m := Model{
		habits:     habitSvc,
		completion: completionSvc,
		userID:     userID,
		state:      StateToday,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		today:      today.New(nil, 0, 0),
	}
	m.refresh()
	return m
}

// refresh reloads the user and today's instances.
func (m *Model) refresh() {
	ctx := context.Background()
	user, err := m.habits.GetUser(ctx, m.userID)
	if err != nil {
		m.err = err
		return
	}
	views, err := m.habits.Today(ctx, m.userID)
	if err != nil {
		m.err = err
		return
	}
	m.user = user
	m.today.SetInstances(views)
	m.err = nil
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Refresh, m.keys.Help, m.keys.Quit}
}

func (m Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{{m.keys.Refresh, m.keys.Help, m.keys.Quit}}
}

func (m Model) Init() tea.Cmd {
	return m.today.Init()
}
