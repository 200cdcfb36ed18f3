package models

import "time"

// DayProgress is the completion percentage of a habit on one day.
// PercentDone is nil when the habit had no instance that day.
type DayProgress struct {
	Date        string   `json:"date"` // YYYY-MM-DD format
	PercentDone *float64 `json:"percent_done"`
}

type HabitStatistics struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	TimeOfDay TimeOfDay     `json:"time_of_day"`
	Streak    int           `json:"streak"`
	Longest   int           `json:"longest"`
	Completed int           `json:"completed"`
	Summary   []DayProgress `json:"summary"`
}

// DayBucket groups a user's instances for one day of a requested range.
// Offset is 1-based within the range.
type DayBucket struct {
	Offset    int            `json:"offset"`
	Date      time.Time      `json:"date"`
	Instances []InstanceView `json:"instances"`
}

type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	XP             int       `json:"xp"`
	Level          int       `json:"level"`
	// XPForNextLevel is the full threshold of the current level;
	// XPToNextLevel is what remains of it.
	XPForNextLevel int       `json:"xp_for_next_level"`
	XPToNextLevel  int       `json:"xp_to_next_level"`
	CreatedAt      time.Time `json:"created_at"`
}

type Leaderboard struct {
	User  *LeaderboardEntry  `json:"user"`
	Users []LeaderboardEntry `json:"users"`
}
