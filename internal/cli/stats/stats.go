package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/utils"
)

// Range selects the days a statistics command covers. --from/--to win over
// --days, which counts back from today. Either bound may be a day or an
// epoch-millisecond instant; instants are used as given.
type Range struct {
	From string `help:"Start (YYYY-MM-DD or epoch milliseconds)."`
	To   string `help:"End (YYYY-MM-DD or epoch milliseconds, default today)."`
	Days int    `help:"Number of days ending at --to when --from is not set." default:"7"`
}

// Bounds returns the UTC instants [from, to] the range covers.
func (r Range) Bounds(now time.Time) (time.Time, time.Time, error) {
	to := utils.EndOfUTCDay(now)
	if r.To != "" {
		t, exact, err := utils.ParseBound(r.To)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
		if !exact {
			to = utils.EndOfUTCDay(t)
		}
	}

	var from time.Time
	if r.From != "" {
		t, _, err := utils.ParseBound(r.From)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	} else {
		if r.Days < 1 {
			return time.Time{}, time.Time{}, fmt.Errorf("--days must be at least 1")
		}
		from = utils.StartOfUTCDay(to).AddDate(0, 0, -(r.Days - 1))
	}
	return from, to, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type StatsCmd struct {
	Range `embed:""`
	JSON bool `help:"Print as JSON."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	from, to, err := c.Bounds(ctx.Now())
	if err != nil {
		return err
	}

	stats, err := ctx.Statistics().UserStatistics(context.Background(), userID, from, to)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(stats)
	}

	if len(stats) == 0 {
		fmt.Println("No habits found.")
		return nil
	}
	for _, s := range stats {
		fmt.Printf("%s (%s)\n", s.Title, strings.ToLower(string(s.TimeOfDay)))
		fmt.Printf("  Streak: %d  Longest: %d  Completed: %d\n", s.Streak, s.Longest, s.Completed)
		var cells []string
		for _, d := range s.Summary {
			cells = append(cells, progressCell(d.PercentDone))
		}
		fmt.Printf("  %s  %s..%s\n", strings.Join(cells, ""), utils.FormatDay(from), utils.FormatDay(to))
	}
	return nil
}

// progressCell draws a day's completion as one character.
func progressCell(pct *float64) string {
	switch {
	case pct == nil:
		return "·"
	case *pct >= 100:
		return "█"
	case *pct > 0:
		return "▒"
	default:
		return "░"
	}
}

type WeekCmd struct {
	Range `embed:""`
	JSON bool `help:"Print as JSON."`
}

func (c *WeekCmd) Run(ctx *cli.Context) error {
	userID, err := ctx.RequireUser()
	if err != nil {
		return err
	}
	from, to, err := c.Bounds(ctx.Now())
	if err != nil {
		return err
	}

	buckets, err := ctx.Statistics().GetHabits(context.Background(), userID, from, to)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(buckets)
	}

	for _, b := range buckets {
		fmt.Printf("%s %s\n", utils.FormatDay(b.Date), b.Date.Weekday().String()[:3])
		if len(b.Instances) == 0 {
			fmt.Println("  -")
			continue
		}
		for _, v := range b.Instances {
			line := fmt.Sprintf("  %-30s %s", v.Habit.Title, cli.FormatStatus(v.Repeats, v.Habit.RepeatsGoal, string(v.Status)))
			if v.Streak != nil {
				line += fmt.Sprintf("  streak %d", *v.Streak)
			}
			fmt.Println(line)
		}
	}
	return nil
}

type LeaderboardCmd struct {
	JSON bool `help:"Print as JSON."`
}

func (c *LeaderboardCmd) Run(ctx *cli.Context) error {
	board, err := ctx.Statistics().Leaderboard(context.Background(), ctx.UserID)
	if err != nil {
		return err
	}
	if c.JSON {
		return printJSON(board)
	}

	if len(board.Users) == 0 {
		fmt.Println("No users yet.")
		return nil
	}
	for _, e := range board.Users {
		marker := " "
		if e.UserID == ctx.UserID {
			marker = "*"
		}
		fmt.Printf("%s%3d. %-20s level %-3d %5d/%d XP (%d to next)\n", marker, e.Rank, e.Username, e.Level, e.XP, e.XPForNextLevel, e.XPToNextLevel)
	}
	return nil
}
