package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
)

type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "MORNING"
	TimeOfDayAfternoon TimeOfDay = "AFTERNOON"
	TimeOfDayEvening   TimeOfDay = "EVENING"
	TimeOfDayAnytime   TimeOfDay = "ANYTIME"
)

// TimesOfDay lists every accepted TimeOfDay value.
var TimesOfDay = []TimeOfDay{TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayAnytime}

func (t TimeOfDay) Valid() bool {
	return slices.Contains(TimesOfDay, t)
}

// ParseTimeOfDay accepts any casing of a TimeOfDay value.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t := TimeOfDay(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid time of day: %q", s)
	}
	return t, nil
}

type InstanceStatus string

const (
	StatusInProgress InstanceStatus = "IN_PROGRESS"
	StatusDone       InstanceStatus = "DONE"
	StatusMissed     InstanceStatus = "MISSED"
)

func (s InstanceStatus) Valid() bool {
	switch s {
	case StatusInProgress, StatusDone, StatusMissed:
		return true
	}
	return false
}

// Habit represents a recurring practice owned by a user.
// WeekDays uses ISO numbering: Monday=1 ... Sunday=7.
type Habit struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	RepeatsGoal int       `json:"repeats_goal"`
	WeekDays    []int     `json:"week_days"`
	TimeOfDay   TimeOfDay `json:"time_of_day"`
	RemindAt    string    `json:"remind_at,omitempty"` // HH:MM format
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.Title) == "" {
		return fmt.Errorf("habit title cannot be empty")
	}
	if len(h.Title) > constants.MaxTitleLength {
		return fmt.Errorf("habit title cannot exceed %d characters", constants.MaxTitleLength)
	}

	if h.RepeatsGoal < constants.MinRepeatsGoal {
		return fmt.Errorf("repeats goal must be at least %d", constants.MinRepeatsGoal)
	}

	if len(h.WeekDays) == 0 {
		return fmt.Errorf("at least one weekday must be specified")
	}
	if len(h.WeekDays) > 7 {
		return fmt.Errorf("at most 7 weekdays can be specified")
	}
	seen := make(map[int]bool, len(h.WeekDays))
	for _, wd := range h.WeekDays {
		if wd < constants.MinWeekday || wd > constants.MaxWeekday {
			return fmt.Errorf("invalid weekday %d (expected 1=Monday through 7=Sunday)", wd)
		}
		if seen[wd] {
			return fmt.Errorf("duplicate weekday %d", wd)
		}
		seen[wd] = true
	}

	if !h.TimeOfDay.Valid() {
		return fmt.Errorf("invalid time of day: %q", h.TimeOfDay)
	}

	if h.RemindAt != "" && !ValidateTimeFormat(h.RemindAt) {
		return fmt.Errorf("invalid reminder time %q (expected HH:MM)", h.RemindAt)
	}

	return nil
}

// ValidateTimeFormat reports whether s is a valid HH:MM clock time.
func ValidateTimeFormat(s string) bool {
	_, err := time.Parse(constants.TimeFormat, s)
	return err == nil
}

// HasWeekday reports whether the habit recurs on the given ISO weekday.
func (h Habit) HasWeekday(weekday int) bool {
	return slices.Contains(h.WeekDays, weekday)
}

// HabitInstance is one calendar day's trackable occurrence of a habit.
type HabitInstance struct {
	ID        string         `json:"id"`
	HabitID   string         `json:"habit_id"`
	Repeats   int            `json:"repeats"`
	Status    InstanceStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
}

// InstanceView is an instance joined with its parent habit, as returned to callers.
// Streak is only set where a running streak snapshot was requested.
type InstanceView struct {
	HabitInstance
	Habit  Habit `json:"habit"`
	Streak *int  `json:"streak,omitempty"`
}
