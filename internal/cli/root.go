package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/habitual/internal/completion"
	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/habits"
	"github.com/julianstephens/habitual/internal/keyring"
	"github.com/julianstephens/habitual/internal/statistics"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/postgres"
	"github.com/julianstephens/habitual/internal/storage/sqlite"
	"github.com/julianstephens/habitual/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Clock  utils.Clock
	UserID string
}

// RequireUser returns the acting user id or explains how to set one.
func (c *Context) RequireUser() (string, error) {
	if c.UserID == "" {
		return "", errors.New("no user selected: pass --user or set HABITUAL_USER (see 'habitual user add')")
	}
	return c.UserID, nil
}

func (c *Context) Habits() *habits.Service {
	return habits.NewService(c.Store, c.Clock)
}

func (c *Context) Completion() *completion.Service {
	return completion.NewService(c.Store, c.Clock)
}

func (c *Context) Statistics() *statistics.Aggregator {
	return statistics.NewAggregator(c.Store, c.Clock)
}

// Now is the context clock's current time.
func (c *Context) Now() time.Time {
	if c.Clock == nil {
		return utils.SystemClock{}.Now()
	}
	return c.Clock.Now()
}

// IsPostgresConnString reports whether config is a PostgreSQL URL.
func IsPostgresConnString(config string) bool {
	return strings.HasPrefix(config, "postgres://") || strings.HasPrefix(config, "postgresql://")
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// OpenStore picks the storage backend for config:
//   - postgres:// or postgresql:// URLs open PostgreSQL,
//   - "keyring" opens PostgreSQL with the connection string from the OS keyring,
//   - paths ending in .json open the JSON file store,
//   - anything else is a SQLite database path.
func OpenStore(config string) (storage.Provider, error) {
	switch {
	case config == constants.KeyringConfigValue:
		connStr, err := keyring.GetConnectionString()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return nil, errors.New("no connection string found in keyring. Use 'habitual keyring set' to store one")
			}
			return nil, err
		}
		return postgres.New(connStr), nil
	case IsPostgresConnString(config):
		if valid, err := postgres.ValidateConnString(config); !valid {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, errors.New("PostgreSQL connection strings with embedded credentials are not allowed. " +
					"Use 'habitual keyring set', PGPASSWORD or a .pgpass file instead")
			}
			return nil, err
		}
		return postgres.New(config), nil
	}

	path, err := ExpandPath(config)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".json") {
		return memory.NewJSONStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ConfigDir is where logs go for the given config value. Database backends
// without a local file fall back to the default config directory.
func ConfigDir(config string) (string, error) {
	if config == constants.KeyringConfigValue || IsPostgresConnString(config) {
		config = constants.DefaultConfigPath
	}
	path, err := ExpandPath(config)
	if err != nil {
		return "", err
	}
	return filepath.Dir(path), nil
}

var weekdayNames = map[string]int{
	"mon": 1, "monday": 1,
	"tue": 2, "tuesday": 2,
	"wed": 3, "wednesday": 3,
	"thu": 4, "thursday": 4,
	"fri": 5, "friday": 5,
	"sat": 6, "saturday": 6,
	"sun": 7, "sunday": 7,
}

// ParseWeekdays parses a comma-separated list of weekdays into sorted ISO
// numbers (Monday=1 ... Sunday=7). Names, three-letter abbreviations, numbers,
// "daily", "weekdays" and "weekends" are accepted.
func ParseWeekdays(s string) ([]int, error) {
	var days []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		switch part {
		case "":
			continue
		case "daily", "everyday":
			days = append(days, 1, 2, 3, 4, 5, 6, 7)
			continue
		case "weekdays":
			days = append(days, 1, 2, 3, 4, 5)
			continue
		case "weekends":
			days = append(days, 6, 7)
			continue
		}

		if wd, ok := weekdayNames[part]; ok {
			days = append(days, wd)
			continue
		}
		num, err := strconv.Atoi(part)
		if err != nil || num < constants.MinWeekday || num > constants.MaxWeekday {
			return nil, fmt.Errorf("invalid weekday: %s", part)
		}
		days = append(days, num)
	}

	if len(days) == 0 {
		return nil, errors.New("at least one weekday must be specified")
	}
	slices.Sort(days)
	return slices.Compact(days), nil
}

// FormatWeekdays renders ISO weekdays as abbreviated names.
func FormatWeekdays(days []int) string {
	if len(days) == 7 {
		return "daily"
	}
	names := make([]string, 0, len(days))
	for _, d := range days {
		// time.Weekday counts Sunday as 0
		names = append(names, time.Weekday(d%7).String()[:3])
	}
	return strings.Join(names, ",")
}

// FormatStatus renders an instance as "repeats/goal STATUS".
func FormatStatus(repeats, goal int, status string) string {
	return fmt.Sprintf("%d/%d %s", repeats, goal, status)
}
