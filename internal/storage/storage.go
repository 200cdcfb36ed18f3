package storage

import (
	"errors"
	"sort"

	"github.com/julianstephens/habitual/internal/models"
)

// ErrReadOnly is returned by writes attempted inside View.
var ErrReadOnly = errors.New("write attempted in read-only transaction")

// SortInstances orders instances by creation time, breaking ties by id so the
// order is stable across stores.
func SortInstances(instances []models.HabitInstance) {
	sort.SliceStable(instances, func(i, j int) bool {
		if instances[i].CreatedAt.Equal(instances[j].CreatedAt) {
			return instances[i].ID < instances[j].ID
		}
		return instances[i].CreatedAt.Before(instances[j].CreatedAt)
	})
}

// SortHabits orders habits by creation time, breaking ties by id.
func SortHabits(habits []models.Habit) {
	sort.SliceStable(habits, func(i, j int) bool {
		if habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].ID < habits[j].ID
		}
		return habits[i].CreatedAt.Before(habits[j].CreatedAt)
	})
}
