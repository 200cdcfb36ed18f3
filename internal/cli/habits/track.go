package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/completion"
)

type HabitDoneCmd struct {
	InstanceID string `arg:"" help:"Instance ID."`
}

func (c *HabitDoneCmd) Run(ctx *cli.Context) error {
	return track(ctx, c.InstanceID, (*completion.Service).MarkDone)
}

type HabitUndoCmd struct {
	InstanceID string `arg:"" help:"Instance ID."`
}

func (c *HabitUndoCmd) Run(ctx *cli.Context) error {
	return track(ctx, c.InstanceID, (*completion.Service).Undo)
}

type HabitMissCmd struct {
	InstanceID string `arg:"" help:"Instance ID."`
}

func (c *HabitMissCmd) Run(ctx *cli.Context) error {
	return track(ctx, c.InstanceID, (*completion.Service).MarkMissed)
}

type transitionFunc func(*completion.Service, context.Context, string, string) (completion.Result, error)

func track(ctx *cli.Context, instanceID string, fn transitionFunc) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	res, err := fn(ctx.Completion(), context.Background(), userID, instanceID)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", res.Habit.Title, cli.FormatStatus(res.Instance.Repeats, res.Habit.RepeatsGoal, string(res.Instance.Status)))
	if res.Totals != nil {
		fmt.Printf("  Level %d, %d XP\n", res.Totals.Level, res.Totals.XP)
	}
	return nil
}
