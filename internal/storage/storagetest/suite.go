// Package storagetest holds behavior tests shared by every storage.Provider.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

// Base is the creation time fixtures are laid out from (a Wednesday).
var Base = time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)

// Run exercises p, which must be initialized and empty.
func Run(t *testing.T, newProvider func(t *testing.T) storage.Provider) {
	tests := []struct {
		name string
		fn   func(t *testing.T, p storage.Provider)
	}{
		{"UserCRUD", testUserCRUD},
		{"HabitCRUD", testHabitCRUD},
		{"HabitOwnership", testHabitOwnership},
		{"HabitsForWeekday", testHabitsForWeekday},
		{"InstanceQueries", testInstanceQueries},
		{"MarkStaleInstancesMissed", testMarkStaleInstancesMissed},
		{"DeleteHabitCascades", testDeleteHabitCascades},
		{"RollbackOnError", testRollbackOnError},
		{"ViewIsReadOnly", testViewIsReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newProvider(t))
		})
	}
}

// NewUser returns a level-0 user created at Base.
func NewUser(name string) models.User {
	return models.User{
		ID:        uuid.New().String(),
		Username:  name,
		CreatedAt: Base,
	}
}

// NewHabit returns a single-repeat habit owned by userID.
func NewHabit(userID, title string, createdAt time.Time, weekDays ...int) models.Habit {
	return models.Habit{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		RepeatsGoal: 1,
		WeekDays:    weekDays,
		TimeOfDay:   models.TimeOfDayAnytime,
		CreatedAt:   createdAt,
	}
}

// NewInstance returns an IN_PROGRESS instance of habitID.
func NewInstance(habitID string, createdAt time.Time) models.HabitInstance {
	return models.HabitInstance{
		ID:        uuid.New().String(),
		HabitID:   habitID,
		Status:    models.StatusInProgress,
		CreatedAt: createdAt,
	}
}

// Seed writes the given entities in one transaction.
func Seed(t *testing.T, p storage.Provider, users []models.User, habits []models.Habit, instances []models.HabitInstance) {
	t.Helper()
	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		for _, u := range users {
			if err := tx.AddUser(u); err != nil {
				return err
			}
		}
		for _, h := range habits {
			if err := tx.AddHabit(h); err != nil {
				return err
			}
		}
		if len(instances) > 0 {
			return tx.AddHabitInstances(instances)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed store: %v", err)
	}
}

func view(t *testing.T, p storage.Provider, fn func(tx storage.Tx) error) {
	t.Helper()
	if err := p.View(context.Background(), fn); err != nil {
		t.Fatalf("view failed: %v", err)
	}
}

func testUserCRUD(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	Seed(t, p, []models.User{user}, nil, nil)

	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		got, err := tx.GetUser(user.ID)
		if err != nil {
			return err
		}
		got.XP = 40
		got.Level = 2
		return tx.UpdateUser(got)
	})
	if err != nil {
		t.Fatalf("failed to update user: %v", err)
	}

	view(t, p, func(tx storage.Tx) error {
		got, err := tx.GetUser(user.ID)
		if err != nil {
			return err
		}
		if got.Username != "ada" || got.XP != 40 || got.Level != 2 {
			t.Errorf("unexpected user after update: %+v", got)
		}
		if !got.CreatedAt.Equal(user.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", user.CreatedAt, got.CreatedAt)
		}

		users, err := tx.GetAllUsers()
		if err != nil {
			return err
		}
		if len(users) != 1 {
			t.Errorf("expected 1 user, got %d", len(users))
		}

		if _, err := tx.GetUser(uuid.New().String()); !apperrors.Is(err, apperrors.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		return nil
	})
}

func testHabitCRUD(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	habit := NewHabit(user.ID, "Read", Base, 1, 3, 5)
	habit.RepeatsGoal = 3
	habit.TimeOfDay = models.TimeOfDayEvening
	habit.RemindAt = "21:30"
	Seed(t, p, []models.User{user}, []models.Habit{habit}, nil)

	view(t, p, func(tx storage.Tx) error {
		got, err := tx.GetHabit(user.ID, habit.ID)
		if err != nil {
			return err
		}
		if got.Title != "Read" || got.RepeatsGoal != 3 || got.TimeOfDay != models.TimeOfDayEvening || got.RemindAt != "21:30" {
			t.Errorf("unexpected habit: %+v", got)
		}
		if fmt.Sprint(got.WeekDays) != "[1 3 5]" {
			t.Errorf("expected week days [1 3 5], got %v", got.WeekDays)
		}
		return nil
	})

	habit.Title = "Read fiction"
	habit.WeekDays = []int{6, 7}
	habit.RemindAt = ""
	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		return tx.UpdateHabit(habit)
	})
	if err != nil {
		t.Fatalf("failed to update habit: %v", err)
	}

	view(t, p, func(tx storage.Tx) error {
		got, err := tx.GetHabit(user.ID, habit.ID)
		if err != nil {
			return err
		}
		if got.Title != "Read fiction" || got.RemindAt != "" {
			t.Errorf("unexpected habit after update: %+v", got)
		}
		if fmt.Sprint(got.WeekDays) != "[6 7]" {
			t.Errorf("expected week days [6 7], got %v", got.WeekDays)
		}
		return nil
	})
}

func testHabitOwnership(t *testing.T, p storage.Provider) {
	owner, other := NewUser("owner"), NewUser("other")
	habit := NewHabit(owner.ID, "Run", Base, 1)
	inst := NewInstance(habit.ID, Base)
	Seed(t, p, []models.User{owner, other}, []models.Habit{habit}, []models.HabitInstance{inst})

	view(t, p, func(tx storage.Tx) error {
		if _, err := tx.GetHabit(other.ID, habit.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign habit, got %v", err)
		}
		if _, err := tx.GetHabitInstance(other.ID, inst.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign instance, got %v", err)
		}
		if _, err := tx.GetHabitInstance(owner.ID, inst.ID); err != nil {
			t.Errorf("owner lookup failed: %v", err)
		}
		habits, err := tx.GetHabitsForUser(other.ID)
		if err != nil {
			return err
		}
		if len(habits) != 0 {
			t.Errorf("expected no habits for other user, got %d", len(habits))
		}
		return nil
	})

	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		return tx.DeleteHabit(other.ID, habit.ID)
	})
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting foreign habit, got %v", err)
	}
}

func testHabitsForWeekday(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	second := NewHabit(user.ID, "second", Base.Add(time.Minute), 3, 4)
	first := NewHabit(user.ID, "first", Base, 3)
	weekend := NewHabit(user.ID, "weekend", Base, 6, 7)
	Seed(t, p, []models.User{user}, []models.Habit{second, first, weekend}, nil)

	view(t, p, func(tx storage.Tx) error {
		habits, err := tx.GetHabitsForWeekday(3)
		if err != nil {
			return err
		}
		if len(habits) != 2 {
			t.Fatalf("expected 2 habits on Wednesday, got %d", len(habits))
		}
		if habits[0].Title != "first" || habits[1].Title != "second" {
			t.Errorf("expected creation order [first second], got [%s %s]", habits[0].Title, habits[1].Title)
		}

		sunday, err := tx.GetHabitsForWeekday(7)
		if err != nil {
			return err
		}
		if len(sunday) != 1 || sunday[0].ID != weekend.ID {
			t.Errorf("expected only the weekend habit on Sunday, got %v", sunday)
		}
		return nil
	})
}

func testInstanceQueries(t *testing.T, p storage.Provider) {
	user, other := NewUser("ada"), NewUser("other")
	habit := NewHabit(user.ID, "Run", Base, 1, 2, 3, 4, 5, 6, 7)
	foreign := NewHabit(other.ID, "Swim", Base, 1, 2, 3, 4, 5, 6, 7)

	day0 := NewInstance(habit.ID, Base)
	day1 := NewInstance(habit.ID, Base.AddDate(0, 0, 1))
	day2 := NewInstance(habit.ID, Base.AddDate(0, 0, 2))
	otherDay1 := NewInstance(foreign.ID, Base.AddDate(0, 0, 1))
	// inserted out of order on purpose
	Seed(t, p, []models.User{user, other}, []models.Habit{habit, foreign},
		[]models.HabitInstance{day2, day0, otherDay1, day1})

	view(t, p, func(tx storage.Tx) error {
		history, err := tx.GetInstancesForHabit(habit.ID)
		if err != nil {
			return err
		}
		if len(history) != 3 || history[0].ID != day0.ID || history[1].ID != day1.ID || history[2].ID != day2.ID {
			t.Errorf("expected history ordered by creation time, got %v", history)
		}

		ranged, err := tx.GetInstancesForUser(user.ID, Base.AddDate(0, 0, 1), Base.AddDate(0, 0, 2))
		if err != nil {
			return err
		}
		if len(ranged) != 2 || ranged[0].ID != day1.ID || ranged[1].ID != day2.ID {
			t.Errorf("expected [day1 day2] for user range, got %v", ranged)
		}

		between, err := tx.GetInstancesCreatedBetween(Base.AddDate(0, 0, 1), Base.AddDate(0, 0, 1))
		if err != nil {
			return err
		}
		if len(between) != 2 {
			t.Errorf("expected 2 instances on day 1 across users, got %d", len(between))
		}

		got, err := tx.GetHabitInstance(user.ID, day1.ID)
		if err != nil {
			return err
		}
		if !got.CreatedAt.Equal(day1.CreatedAt) || got.Status != models.StatusInProgress {
			t.Errorf("unexpected instance: %+v", got)
		}
		return nil
	})

	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		inst, err := tx.GetHabitInstance(user.ID, day1.ID)
		if err != nil {
			return err
		}
		inst.Repeats = 1
		inst.Status = models.StatusDone
		return tx.UpdateHabitInstance(inst)
	})
	if err != nil {
		t.Fatalf("failed to update instance: %v", err)
	}

	view(t, p, func(tx storage.Tx) error {
		got, err := tx.GetHabitInstance(user.ID, day1.ID)
		if err != nil {
			return err
		}
		if got.Repeats != 1 || got.Status != models.StatusDone {
			t.Errorf("expected repeats=1 status=DONE, got %+v", got)
		}
		return nil
	})
}

func testMarkStaleInstancesMissed(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	habit := NewHabit(user.ID, "Run", Base, 1, 2, 3, 4, 5, 6, 7)
	cutoff := time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)

	stale := NewInstance(habit.ID, cutoff.Add(-time.Millisecond))
	done := NewInstance(habit.ID, cutoff.Add(-time.Hour))
	done.Status = models.StatusDone
	done.Repeats = 1
	atCutoff := NewInstance(habit.ID, cutoff)
	Seed(t, p, []models.User{user}, []models.Habit{habit}, []models.HabitInstance{stale, done, atCutoff})

	var changed int64
	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		var err error
		changed, err = tx.MarkStaleInstancesMissed(cutoff)
		return err
	})
	if err != nil {
		t.Fatalf("failed to mark stale instances: %v", err)
	}
	if changed != 1 {
		t.Errorf("expected 1 instance marked missed, got %d", changed)
	}

	view(t, p, func(tx storage.Tx) error {
		want := map[string]models.InstanceStatus{
			stale.ID:    models.StatusMissed,
			done.ID:     models.StatusDone,
			atCutoff.ID: models.StatusInProgress,
		}
		for id, status := range want {
			got, err := tx.GetHabitInstance(user.ID, id)
			if err != nil {
				return err
			}
			if got.Status != status {
				t.Errorf("instance %s: expected %s, got %s", id, status, got.Status)
			}
		}
		return nil
	})
}

func testDeleteHabitCascades(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	doomed := NewHabit(user.ID, "doomed", Base, 1)
	kept := NewHabit(user.ID, "kept", Base, 1)
	i1 := NewInstance(doomed.ID, Base)
	i2 := NewInstance(doomed.ID, Base.AddDate(0, 0, 1))
	i3 := NewInstance(kept.ID, Base)
	Seed(t, p, []models.User{user}, []models.Habit{doomed, kept}, []models.HabitInstance{i1, i2, i3})

	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		return tx.DeleteHabit(user.ID, doomed.ID)
	})
	if err != nil {
		t.Fatalf("failed to delete habit: %v", err)
	}

	view(t, p, func(tx storage.Tx) error {
		if _, err := tx.GetHabit(user.ID, doomed.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("expected deleted habit to be gone, got %v", err)
		}
		for _, id := range []string{i1.ID, i2.ID} {
			if _, err := tx.GetHabitInstance(user.ID, id); !apperrors.Is(err, apperrors.ErrNotFound) {
				t.Errorf("expected instance %s to be deleted, got %v", id, err)
			}
		}
		if _, err := tx.GetHabitInstance(user.ID, i3.ID); err != nil {
			t.Errorf("expected other habit's instance to survive: %v", err)
		}
		return nil
	})
}

func testRollbackOnError(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	Seed(t, p, []models.User{user}, nil, nil)

	boom := fmt.Errorf("boom")
	err := p.WithTx(context.Background(), func(tx storage.Tx) error {
		if err := tx.AddHabit(NewHabit(user.ID, "ghost", Base, 1)); err != nil {
			return err
		}
		u, err := tx.GetUser(user.ID)
		if err != nil {
			return err
		}
		u.XP = 90
		if err := tx.UpdateUser(u); err != nil {
			return err
		}
		return boom
	})
	if err != boom {
		t.Fatalf("expected the callback error back, got %v", err)
	}

	view(t, p, func(tx storage.Tx) error {
		habits, err := tx.GetHabitsForUser(user.ID)
		if err != nil {
			return err
		}
		if len(habits) != 0 {
			t.Errorf("expected rolled back habit insert, got %d habits", len(habits))
		}
		u, err := tx.GetUser(user.ID)
		if err != nil {
			return err
		}
		if u.XP != 0 {
			t.Errorf("expected rolled back xp 0, got %d", u.XP)
		}
		return nil
	})
}

func testViewIsReadOnly(t *testing.T, p storage.Provider) {
	user := NewUser("ada")
	Seed(t, p, []models.User{user}, nil, nil)

	err := p.View(context.Background(), func(tx storage.Tx) error {
		return tx.AddHabit(NewHabit(user.ID, "nope", Base, 1))
	})
	if err == nil {
		t.Fatal("expected write inside View to fail")
	}
}
