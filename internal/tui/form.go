package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
)

// HabitFormModel backs the add-habit form.
type HabitFormModel struct {
	Title     string
	Goal      string
	Days      string
	TimeOfDay models.TimeOfDay
	RemindAt  string
}

func newHabitFormModel() *HabitFormModel {
	return &HabitFormModel{Goal: "1", Days: "daily", TimeOfDay: models.TimeOfDayAnytime}
}

// Definition converts the form values. The form validators have already
// checked each field.
func (fm *HabitFormModel) Definition() (habits.Definition, error) {
	goal, err := strconv.Atoi(strings.TrimSpace(fm.Goal))
	if err != nil {
		return habits.Definition{}, err
	}
	days, err := cli.ParseWeekdays(fm.Days)
	if err != nil {
		return habits.Definition{}, err
	}
	return habits.Definition{
		Title:       fm.Title,
		RepeatsGoal: goal,
		WeekDays:    days,
		TimeOfDay:   fm.TimeOfDay,
		RemindAt:    strings.TrimSpace(fm.RemindAt),
	}, nil
}

func NewHabitForm(fm *HabitFormModel) *huh.Form {
	options := make([]huh.Option[models.TimeOfDay], 0, len(models.TimesOfDay))
	for _, t := range models.TimesOfDay {
		options = append(options, huh.NewOption(strings.ToLower(string(t)), t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit title cannot be empty")
					}
					return nil
				}),
			huh.NewInput().
				Title("Repeats per day").
				Value(&fm.Goal).
				Validate(func(s string) error {
					i, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil {
						return err
					}
					if i < constants.MinRepeatsGoal {
						return fmt.Errorf("repeats must be at least %d", constants.MinRepeatsGoal)
					}
					return nil
				}),
			huh.NewInput().
				Title("Days").
				Description("mon,wed,fri / 1-7 / daily / weekdays / weekends").
				Value(&fm.Days).
				Validate(func(s string) error {
					_, err := cli.ParseWeekdays(s)
					return err
				}),
			huh.NewSelect[models.TimeOfDay]().
				Title("Time of day").
				Options(options...).
				Value(&fm.TimeOfDay),
			huh.NewInput().
				Title("Reminder (HH:MM)").
				Description("Leave empty for none").
				Value(&fm.RemindAt).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s)); err != nil {
						return fmt.Errorf("invalid time format, use HH:MM")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeDracula())
}
