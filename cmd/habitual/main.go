package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/habitual/internal/cli"
	"github.com/julianstephens/habitual/internal/cli/habits"
	"github.com/julianstephens/habitual/internal/cli/stats"
	"github.com/julianstephens/habitual/internal/cli/system"
	"github.com/julianstephens/habitual/internal/cli/users"
	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/utils"
)

var CLI struct {
	Version   kong.VersionFlag
	Config    string `help:"SQLite path, *.json file, PostgreSQL connection string, or 'keyring'. PostgreSQL credentials must NOT be embedded in the connection string." default:"${default_config}" env:"HABITUAL_CONFIG"`
	UserID    string `name:"user" help:"ID of the acting user." env:"HABITUAL_USER"`
	Debug     bool   `help:"Log debug output to stderr." env:"HABITUAL_DEBUG"`
	LogFormat string `help:"Log record format (text, json, logfmt)." enum:"text,json,logfmt" default:"text" env:"HABITUAL_LOG_FORMAT"`

	Init        system.InitCmd       `cmd:"" help:"Initialize habitual storage."`
	Migrate     system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Serve       system.ServeCmd      `cmd:"" help:"Run the daily rollover on a schedule."`
	Rollover    system.RolloverCmd   `cmd:"" help:"Run the daily rollover once."`
	Tui         system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Keyring     system.KeyringCmd    `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
	Backup      system.BackupCmd     `cmd:"" help:"Create, list and restore storage snapshots."`
	User        users.UserCmd        `cmd:"" help:"Manage users."`
	Habit       habits.HabitCmd      `cmd:"" help:"Manage and track habits."`
	Stats       stats.StatsCmd       `cmd:"" help:"Show per-habit statistics."`
	Week        stats.WeekCmd        `cmd:"" help:"Show instances day by day."`
	Leaderboard stats.LeaderboardCmd `cmd:"" help:"Rank users by level and XP."`
}

func main() {
	// A missing .env is fine; anything else is worth knowing about.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit tracker with XP and levels"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":           constants.Version,
			"default_config":    constants.DefaultConfigPath,
			"rollover_schedule": constants.DefaultRolloverSchedule,
		},
	)

	configDir, err := cli.ConfigDir(CLI.Config)
	if err != nil {
		apperrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: configDir,
		Stderr:    ctx.Command() == "serve",
		Format:    logger.Format(CLI.LogFormat),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Starting", "command", ctx.Command(), "version", constants.Version)

	appCtx := &cli.Context{
		Clock:  utils.SystemClock{},
		UserID: CLI.UserID,
	}

	// keyring commands never touch storage; init creates it
	command := strings.Fields(ctx.Command())[0]
	if command != "keyring" {
		store, err := cli.OpenStore(CLI.Config)
		if err != nil {
			apperrors.Fatal(err)
		}
		if command != "init" {
			if err := store.Load(); err != nil {
				apperrors.Fatal(err)
			}
		}
		appCtx.Store = store
	}

	err = ctx.Run(appCtx)
	if appCtx.Store != nil {
		if cerr := appCtx.Store.Close(); cerr != nil {
			logger.Warn("Failed to close storage", "error", cerr)
		}
	}
	apperrors.Fatal(err)
}
