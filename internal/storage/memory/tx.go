package memory

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

type tx struct {
	st       *state
	readOnly bool
}

func (t *tx) writable() error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	return nil
}

// Habits carry a slice, so copies go in and out of the arena.
func copyHabit(h models.Habit) models.Habit {
	h.WeekDays = slices.Clone(h.WeekDays)
	return h
}

// Users

func (t *tx) AddUser(user models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.Users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	t.st.Users[user.ID] = user
	return nil
}

func (t *tx) GetUser(id string) (models.User, error) {
	user, ok := t.st.Users[id]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", id, apperrors.ErrUserNotFound)
	}
	return user, nil
}

func (t *tx) GetAllUsers() ([]models.User, error) {
	users := make([]models.User, 0, len(t.st.Users))
	for _, u := range t.st.Users {
		users = append(users, u)
	}
	slices.SortStableFunc(users, func(a, b models.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

func (t *tx) UpdateUser(user models.User) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.Users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, apperrors.ErrUserNotFound)
	}
	t.st.Users[user.ID] = user
	return nil
}

// Habits

func (t *tx) AddHabit(habit models.Habit) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.Users[habit.UserID]; !ok {
		return fmt.Errorf("habit owner %s: %w", habit.UserID, apperrors.ErrUserNotFound)
	}
	if _, ok := t.st.Habits[habit.ID]; ok {
		return fmt.Errorf("habit %s already exists", habit.ID)
	}
	t.st.Habits[habit.ID] = copyHabit(habit)
	t.st.HabitInstances[habit.ID] = nil
	return nil
}

func (t *tx) GetHabit(userID, habitID string) (models.Habit, error) {
	habit, ok := t.st.Habits[habitID]
	if !ok || habit.UserID != userID {
		return models.Habit{}, fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound)
	}
	return copyHabit(habit), nil
}

func (t *tx) GetHabitsForUser(userID string) ([]models.Habit, error) {
	var habits []models.Habit
	for _, h := range t.st.Habits {
		if h.UserID == userID {
			habits = append(habits, copyHabit(h))
		}
	}
	storage.SortHabits(habits)
	return habits, nil
}

func (t *tx) GetHabitsForWeekday(weekday int) ([]models.Habit, error) {
	var habits []models.Habit
	for _, h := range t.st.Habits {
		if h.HasWeekday(weekday) {
			habits = append(habits, copyHabit(h))
		}
	}
	storage.SortHabits(habits)
	return habits, nil
}

func (t *tx) UpdateHabit(habit models.Habit) error {
	if err := t.writable(); err != nil {
		return err
	}
	existing, ok := t.st.Habits[habit.ID]
	if !ok || existing.UserID != habit.UserID {
		return fmt.Errorf("habit %s: %w", habit.ID, apperrors.ErrNotFound)
	}
	t.st.Habits[habit.ID] = copyHabit(habit)
	return nil
}

func (t *tx) DeleteHabit(userID, habitID string) error {
	if err := t.writable(); err != nil {
		return err
	}
	habit, ok := t.st.Habits[habitID]
	if !ok || habit.UserID != userID {
		return fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound)
	}
	for _, id := range t.st.HabitInstances[habitID] {
		delete(t.st.Instances, id)
	}
	delete(t.st.HabitInstances, habitID)
	delete(t.st.Habits, habitID)
	return nil
}

// Habit Instances

func (t *tx) AddHabitInstances(instances []models.HabitInstance) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, inst := range instances {
		if _, ok := t.st.Habits[inst.HabitID]; !ok {
			return fmt.Errorf("instance %s references habit %s: %w", inst.ID, inst.HabitID, apperrors.ErrNotFound)
		}
		if _, ok := t.st.Instances[inst.ID]; ok {
			return fmt.Errorf("habit instance %s already exists", inst.ID)
		}
		t.st.Instances[inst.ID] = inst
		t.st.HabitInstances[inst.HabitID] = t.insertOrdered(t.st.HabitInstances[inst.HabitID], inst)
	}
	return nil
}

// insertOrdered places inst's id into ids keeping creation order.
func (t *tx) insertOrdered(ids []string, inst models.HabitInstance) []string {
	i, _ := slices.BinarySearchFunc(ids, inst, func(id string, target models.HabitInstance) int {
		cur := t.st.Instances[id]
		if c := cur.CreatedAt.Compare(target.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(cur.ID, target.ID)
	})
	return slices.Insert(ids, i, inst.ID)
}

func (t *tx) GetHabitInstance(userID, instanceID string) (models.HabitInstance, error) {
	inst, ok := t.st.Instances[instanceID]
	if !ok {
		return models.HabitInstance{}, fmt.Errorf("habit instance %s: %w", instanceID, apperrors.ErrNotFound)
	}
	habit, ok := t.st.Habits[inst.HabitID]
	if !ok || habit.UserID != userID {
		return models.HabitInstance{}, fmt.Errorf("habit instance %s: %w", instanceID, apperrors.ErrNotFound)
	}
	return inst, nil
}

func (t *tx) GetInstancesForHabit(habitID string) ([]models.HabitInstance, error) {
	ids := t.st.HabitInstances[habitID]
	instances := make([]models.HabitInstance, 0, len(ids))
	for _, id := range ids {
		instances = append(instances, t.st.Instances[id])
	}
	return instances, nil
}

func (t *tx) GetInstancesForUser(userID string, from, to time.Time) ([]models.HabitInstance, error) {
	var instances []models.HabitInstance
	for habitID, habit := range t.st.Habits {
		if habit.UserID != userID {
			continue
		}
		for _, id := range t.st.HabitInstances[habitID] {
			inst := t.st.Instances[id]
			if utils.BetweenInclusive(inst.CreatedAt, from, to) {
				instances = append(instances, inst)
			}
		}
	}
	storage.SortInstances(instances)
	return instances, nil
}

func (t *tx) GetInstancesCreatedBetween(from, to time.Time) ([]models.HabitInstance, error) {
	var instances []models.HabitInstance
	for _, inst := range t.st.Instances {
		if utils.BetweenInclusive(inst.CreatedAt, from, to) {
			instances = append(instances, inst)
		}
	}
	storage.SortInstances(instances)
	return instances, nil
}

func (t *tx) UpdateHabitInstance(inst models.HabitInstance) error {
	if err := t.writable(); err != nil {
		return err
	}
	existing, ok := t.st.Instances[inst.ID]
	if !ok {
		return fmt.Errorf("habit instance %s: %w", inst.ID, apperrors.ErrNotFound)
	}
	// Parent and creation time are fixed once created.
	inst.HabitID = existing.HabitID
	inst.CreatedAt = existing.CreatedAt
	t.st.Instances[inst.ID] = inst
	return nil
}

func (t *tx) MarkStaleInstancesMissed(cutoff time.Time) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	var n int64
	for id, inst := range t.st.Instances {
		if inst.Status == models.StatusInProgress && inst.CreatedAt.Before(cutoff) {
			inst.Status = models.StatusMissed
			t.st.Instances[id] = inst
			n++
		}
	}
	return n, nil
}
