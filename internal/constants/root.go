package constants

import "time"

const (
	AppName            = "habitual"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/habitual/habitual.db"
	Version            = "v0.3.0"

	// KeyringConfigValue selects the PostgreSQL connection string stored in the OS keyring.
	KeyringConfigValue = "keyring"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// TimestampFormat is the fixed-width UTC layout used for stored timestamps.
	// Fixed width keeps lexical and chronological order identical.
	TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

	// Logging
	DefaultLogDir  = "logs"
	DefaultLogFile = "habitual.log"

	// Leveling
	XPPerHabit         = 10
	BaseLevelThreshold = 100
	LevelThresholdStep = 50

	// Rollover
	DefaultRolloverSchedule = "@hourly"
	RolloverItemOffset      = time.Second

	// MaxStatisticsRangeDays bounds day enumeration for statistics queries.
	MaxStatisticsRangeDays = 366

	// Habit validation
	MinWeekday     = 1
	MaxWeekday     = 7
	MinRepeatsGoal = 1
	MaxTitleLength = 120

	MetricsNamespace = "habitual"
)
