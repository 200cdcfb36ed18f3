package users

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/leveling"
)

type UserCmd struct {
	Add  UserAddCmd  `cmd:"" help:"Create a user."`
	Show UserShowCmd `cmd:"" help:"Show the current user's level and XP." default:"1"`
}

type UserAddCmd struct {
	Username string `arg:"" help:"Display name."`
}

func (c *UserAddCmd) Run(ctx *cli.Context) error {
	user, err := ctx.Habits().CreateUser(context.Background(), c.Username)
	if err != nil {
		return err
	}

	fmt.Printf("Created user: %s (ID: %s)\n", user.Username, user.ID)
	fmt.Printf("  export HABITUAL_USER=%s\n", user.ID)
	return nil
}

type UserShowCmd struct{}

func (c *UserShowCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	user, err := ctx.Habits().GetUser(context.Background(), userID)
	if err != nil {
		return err
	}

	p := leveling.FromUser(user)
	fmt.Printf("%s\n", user.Username)
	fmt.Printf("  Level: %d\n", user.Level)
	fmt.Printf("  XP:    %d/%d (%d to next level)\n", user.XP, leveling.ThresholdFor(user.Level), leveling.XPToNextLevel(p))
	if user.IsBlocked {
		fmt.Println("  [BLOCKED]")
	}
	return nil
}
