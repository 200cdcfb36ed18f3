package utils

import (
	"time"

	"github.com/julianstephens/habitual/internal/models"
)

// IsScheduledOn reports whether the habit recurs on day's ISO weekday.
func IsScheduledOn(habit models.Habit, day time.Time) bool {
	return habit.HasWeekday(ISOWeekday(day))
}

// HabitsNeedingInstance returns the habits scheduled on today that have no
// instance created on the same UTC day. The input order is preserved.
//
// instances may contain rows of any habit and any day; only same-day rows of
// the given habits are considered.
func HabitsNeedingInstance(today time.Time, habits []models.Habit, instances []models.HabitInstance) []models.Habit {
	present := make(map[string]bool, len(instances))
	for _, inst := range instances {
		if SameUTCDay(inst.CreatedAt, today) {
			present[inst.HabitID] = true
		}
	}

	var due []models.Habit
	for _, habit := range habits {
		if !IsScheduledOn(habit, today) {
			continue
		}
		if present[habit.ID] {
			continue
		}
		due = append(due, habit)
	}
	return due
}
