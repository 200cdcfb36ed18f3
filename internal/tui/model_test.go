package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
	"github.com/julianstephens/habitual/internal/tui/components/today"
	"github.com/julianstephens/habitual/internal/utils"
)

func setupTestModel(t *testing.T) (Model, models.HabitInstance) {
	t.Helper()
	now := time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)
	clock := utils.FixedClock{T: now}
	store := memory.New()

	user := storagetest.NewUser("ada")
	habit := storagetest.NewHabit(user.ID, "Read", now.AddDate(0, 0, -1), 3)
	inst := storagetest.NewInstance(habit.ID, utils.StartOfUTCDay(now).Add(time.Second))
	storagetest.Seed(t, store, []models.User{user}, []models.Habit{habit}, []models.HabitInstance{inst})

	m := NewModel(habits.NewService(store, clock), completion.NewService(store, clock), user.ID)
	return m, inst
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelLoadsToday(t *testing.T) {
	m, _ := setupTestModel(t)
	if m.err != nil {
		t.Fatalf("unexpected load error: %v", m.err)
	}
	if m.user.Username != "ada" {
		t.Errorf("expected user loaded, got %+v", m.user)
	}
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "Read") {
		t.Error("expected today's habit in the view")
	}
}

func TestModelTransitions(t *testing.T) {
	m, inst := setupTestModel(t)

	m = update(t, m, today.DoneMsg{InstanceID: inst.ID})
	if !strings.Contains(m.status, "level 0, 10 XP") {
		t.Errorf("expected XP in status after completing, got %q", m.status)
	}

	m = update(t, m, today.DoneMsg{InstanceID: inst.ID})
	if !strings.Contains(m.status, "already done") {
		t.Errorf("expected already done error, got %q", m.status)
	}

	m = update(t, m, today.UndoMsg{InstanceID: inst.ID})
	if !strings.Contains(m.status, "Read: 0/1") {
		t.Errorf("expected undo status, got %q", m.status)
	}
	if m.user.XP != 0 {
		t.Errorf("expected XP revoked, got %d", m.user.XP)
	}
}

func TestModelDeleteHabit(t *testing.T) {
	m, inst := setupTestModel(t)

	m = update(t, m, today.DeleteHabitMsg{HabitID: inst.HabitID, Title: "Read"})
	if m.state != StateConfirmDelete {
		t.Fatalf("expected confirmation state, got %v", m.state)
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	if m.state != StateToday {
		t.Fatalf("expected cancel to return to today, got %v", m.state)
	}

	m = update(t, m, today.DeleteHabitMsg{HabitID: inst.HabitID, Title: "Read"})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if m.status != "Deleted Read" {
		t.Errorf("unexpected status %q", m.status)
	}
	if strings.Contains(m.today.View(), "Read") {
		t.Error("expected deleted habit gone from the list")
	}
}

func TestHabitFormDefinition(t *testing.T) {
	fm := &HabitFormModel{Title: "Run", Goal: " 2 ", Days: "mon,fri", TimeOfDay: models.TimeOfDayMorning, RemindAt: " 06:30 "}
	def, err := fm.Definition()
	if err != nil {
		t.Fatalf("Definition() failed: %v", err)
	}
	if def.RepeatsGoal != 2 || len(def.WeekDays) != 2 || def.WeekDays[1] != 5 || def.RemindAt != "06:30" {
		t.Errorf("unexpected definition: %+v", def)
	}

	fm.Goal = "two"
	if _, err := fm.Definition(); err == nil {
		t.Error("expected error for non-numeric goal")
	}
}

func TestXPBar(t *testing.T) {
	bar := xpBar(50, 100)
	if strings.Count(bar, "█") != 10 || strings.Count(bar, "░") != 10 {
		t.Errorf("unexpected bar %q", bar)
	}
}
