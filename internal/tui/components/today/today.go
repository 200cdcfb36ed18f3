package today

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/models"
)

type AddHabitMsg struct{}

type DoneMsg struct {
	InstanceID string
}

type UndoMsg struct {
	InstanceID string
}

type MissMsg struct {
	InstanceID string
}

type DeleteHabitMsg struct {
	HabitID string
	Title   string
}

type Item struct {
	View models.InstanceView
}

func (i Item) Title() string {
	var mark string
	switch i.View.Status {
	case models.StatusDone:
		mark = "✓"
	case models.StatusMissed:
		mark = "✗"
	default:
		mark = "○"
	}
	return mark + " " + i.View.Habit.Title
}

func (i Item) Description() string {
	h := i.View.Habit
	parts := []string{
		fmt.Sprintf("%d/%d", i.View.Repeats, h.RepeatsGoal),
		strings.ToLower(string(i.View.Status)),
		strings.ToLower(string(h.TimeOfDay)),
	}
	if h.RemindAt != "" {
		parts = append(parts, "remind "+h.RemindAt)
	}
	return strings.Join(parts, " · ")
}

func (i Item) FilterValue() string { return i.View.Habit.Title }

type KeyMap struct {
	Add    key.Binding
	Done   key.Binding
	Undo   key.Binding
	Miss   key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Done: key.NewBinding(
			key.WithKeys("enter", "m"),
			key.WithHelp("enter/m", "done"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Miss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "miss"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete habit"),
		),
	}
}

func (k KeyMap) bindings() []key.Binding {
	return []key.Binding{k.Add, k.Done, k.Undo, k.Miss, k.Delete}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(views []models.InstanceView, width, height int) Model {
	l := list.New(toItems(views), list.NewDefaultDelegate(), width, height)
	l.Title = "Today"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = keys.bindings
	l.AdditionalFullHelpKeys = keys.bindings

	return Model{list: l, keys: keys}
}

func toItems(views []models.InstanceView) []list.Item {
	items := make([]list.Item, len(views))
	for i, v := range views {
		items[i] = Item{View: v}
	}
	return items
}

func (m *Model) SetInstances(views []models.InstanceView) {
	m.list.SetItems(toItems(views))
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		if key.Matches(msg, m.keys.Add) {
			return m, func() tea.Msg { return AddHabitMsg{} }
		}

		if i, ok := m.list.SelectedItem().(Item); ok {
			id := i.View.ID
			switch {
			case key.Matches(msg, m.keys.Done):
				if i.View.Status != models.StatusDone {
					return m, func() tea.Msg { return DoneMsg{InstanceID: id} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Undo):
				if i.View.Repeats > 0 {
					return m, func() tea.Msg { return UndoMsg{InstanceID: id} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Miss):
				if i.View.Status != models.StatusMissed {
					return m, func() tea.Msg { return MissMsg{InstanceID: id} }
				}
				return m, nil
			case key.Matches(msg, m.keys.Delete):
				h := i.View.Habit
				return m, func() tea.Msg { return DeleteHabitMsg{HabitID: h.ID, Title: h.Title} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  Nothing scheduled today.\n  Press 'a' to add a habit."
	}
	return m.list.View()
}

// Filtering reports whether the user is typing a filter, in which case keys
// belong to the list.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
