package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/habitual/internal/cli"
	habitsvc "github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/models"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	Import HabitImportCmd `cmd:"" help:"Add habits from a YAML file."`
	Edit   HabitEditCmd   `cmd:"" help:"Edit the habit behind one of today's instances."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Today  HabitTodayCmd  `cmd:"" help:"Show today's habit instances." default:"1"`
	Done   HabitDoneCmd   `cmd:"" help:"Record one repeat of an instance."`
	Undo   HabitUndoCmd   `cmd:"" help:"Take back one repeat of an instance."`
	Miss   HabitMissCmd   `cmd:"" help:"Give up on an instance for its day."`
}

type HabitAddCmd struct {
	Title  string `arg:"" help:"Habit title."`
	Goal   int    `short:"g" help:"Repeats needed to complete the habit each day." default:"1"`
	Days   string `short:"d" help:"Comma-separated weekdays (mon,tue,... or 1-7, daily, weekdays, weekends)." default:"daily"`
	Time   string `short:"t" help:"Time of day (morning|afternoon|evening|anytime)." default:"anytime"`
	Remind string `short:"r" help:"Reminder time (HH:MM)."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	days, err := cli.ParseWeekdays(c.Days)
	if err != nil {
		return err
	}
	tod, err := models.ParseTimeOfDay(c.Time)
	if err != nil {
		return err
	}

	res, err := ctx.Habits().CreateHabit(context.Background(), userID, habitsvc.Definition{
		Title:       c.Title,
		RepeatsGoal: c.Goal,
		WeekDays:    days,
		TimeOfDay:   tod,
		RemindAt:    c.Remind,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added habit: %s (ID: %s)\n", res.Habit.Title, res.Habit.ID)
	if res.Instance != nil {
		fmt.Printf("  Scheduled today (instance %s)\n", res.Instance.ID)
	}
	return nil
}

type HabitEditCmd struct {
	InstanceID string  `arg:"" help:"Instance ID (see 'habitual habit today')."`
	Title      *string `help:"New title."`
	Goal       *int    `short:"g" help:"New daily repeats goal."`
	Days       *string `short:"d" help:"New weekdays."`
	Time       *string `short:"t" help:"New time of day."`
	Remind     *string `short:"r" help:"New reminder time (HH:MM); empty clears it."`
}

func (c *HabitEditCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	svc := ctx.Habits()

	current, err := svc.Instance(context.Background(), userID, c.InstanceID)
	if err != nil {
		return err
	}

	h := current.Habit
	def := habitsvc.Definition{
		Title:       h.Title,
		RepeatsGoal: h.RepeatsGoal,
		WeekDays:    h.WeekDays,
		TimeOfDay:   h.TimeOfDay,
		RemindAt:    h.RemindAt,
	}
	if c.Title != nil {
		def.Title = *c.Title
	}
	if c.Goal != nil {
		def.RepeatsGoal = *c.Goal
	}
	if c.Days != nil {
		if def.WeekDays, err = cli.ParseWeekdays(*c.Days); err != nil {
			return err
		}
	}
	if c.Time != nil {
		if def.TimeOfDay, err = models.ParseTimeOfDay(*c.Time); err != nil {
			return err
		}
	}
	if c.Remind != nil {
		def.RemindAt = *c.Remind
	}

	view, err := svc.UpdateHabit(context.Background(), userID, c.InstanceID, def)
	if err != nil {
		return err
	}

	fmt.Printf("Updated habit: %s\n", view.Habit.Title)
	fmt.Printf("  %s\n", cli.FormatStatus(view.Repeats, view.Habit.RepeatsGoal, string(view.Status)))
	return nil
}

type HabitDeleteCmd struct {
	HabitID string `arg:"" help:"Habit ID."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	if err := ctx.Habits().DeleteHabit(context.Background(), userID, c.HabitID); err != nil {
		return err
	}
	fmt.Printf("Deleted habit: %s\n", c.HabitID)
	return nil
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	habits, err := ctx.Habits().ListHabits(context.Background(), userID)
	if err != nil {
		return err
	}

	if len(habits) == 0 {
		fmt.Println("No habits found.")
		return nil
	}

	for _, h := range habits {
		fmt.Printf("%s  %s (x%d, %s, %s)", h.ID, h.Title, h.RepeatsGoal, cli.FormatWeekdays(h.WeekDays), strings.ToLower(string(h.TimeOfDay)))
		if h.RemindAt != "" {
			fmt.Printf(" remind %s", h.RemindAt)
		}
		fmt.Println()
	}
	return nil
}

type HabitTodayCmd struct{}

func (c *HabitTodayCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	views, err := ctx.Habits().Today(context.Background(), userID)
	if err != nil {
		return err
	}

	if len(views) == 0 {
		fmt.Println("Nothing scheduled today.")
		return nil
	}

	for _, v := range views {
		fmt.Printf("%s  %-30s %s\n", v.ID, v.Habit.Title, cli.FormatStatus(v.Repeats, v.Habit.RepeatsGoal, string(v.Status)))
	}
	return nil
}
