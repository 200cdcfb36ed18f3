package habits

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitual/internal/cli"
	habitsvc "github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
)

// habitFile is the YAML document read by 'habit import':
//
//	habits:
//	  - title: Stretch
//	    goal: 2
//	    days: weekdays
//	    time: evening
//	    remind: "21:00"
type habitFile struct {
	Habits []habitEntry `yaml:"habits"`
}

type habitEntry struct {
	Title  string `yaml:"title"`
	Goal   int    `yaml:"goal"`
	Days   string `yaml:"days"`
	Time   string `yaml:"time"`
	Remind string `yaml:"remind"`
}

func (e habitEntry) definition() (habitsvc.Definition, error) {
	goal := e.Goal
	if goal == 0 {
		goal = 1
	}
	days, err := cli.ParseWeekdays(withDefault(e.Days, "daily"))
	if err != nil {
		return habitsvc.Definition{}, err
	}
	tod, err := models.ParseTimeOfDay(withDefault(e.Time, "anytime"))
	if err != nil {
		return habitsvc.Definition{}, err
	}
	return habitsvc.Definition{
		Title:       e.Title,
		RepeatsGoal: goal,
		WeekDays:    days,
		TimeOfDay:   tod,
		RemindAt:    e.Remind,
	}, nil
}

func withDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// loadHabitFile parses path into definitions, failing on unknown keys.
func loadHabitFile(path string) ([]habitsvc.Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open habit file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var doc habitFile
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse habit file: %w", err)
	}
	if len(doc.Habits) == 0 {
		return nil, fmt.Errorf("%s defines no habits", path)
	}

	defs := make([]habitsvc.Definition, 0, len(doc.Habits))
	for i, e := range doc.Habits {
		def, err := e.definition()
		if err != nil {
			return nil, fmt.Errorf("habit %d (%q): %w", i+1, e.Title, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

type HabitImportCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML file with a top-level 'habits' list."`
}

func (c *HabitImportCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	defs, err := loadHabitFile(c.File)
	if err != nil {
		return err
	}

	created, err := ctx.Habits().CreateHabits(context.Background(), userID, defs)
	if err != nil {
		return err
	}
	for _, res := range created {
		fmt.Printf("Added habit: %s (ID: %s)\n", res.Habit.Title, res.Habit.ID)
	}
	fmt.Printf("Imported %d habit(s).\n", len(created))
	return nil
}
