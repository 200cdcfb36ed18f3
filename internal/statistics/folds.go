package statistics

import "github.com/julianstephens/habitual/internal/models"

// PercentDone is the share of a day's goal achieved across the given
// instances, or nil when there are none.
func PercentDone(instances []models.HabitInstance, goal int) *float64 {
	if len(instances) == 0 || goal <= 0 {
		return nil
	}
	done := 0
	for _, inst := range instances {
		done += inst.Repeats
	}
	pct := float64(done) / float64(goal*len(instances)) * 100
	return &pct
}

// Streak is the running count of DONE instances since the last MISSED one.
// instances must be in ascending creation order; IN_PROGRESS neither extends
// nor breaks it.
func Streak(instances []models.HabitInstance) int {
	streak := 0
	for _, inst := range instances {
		switch inst.Status {
		case models.StatusDone:
			streak++
		case models.StatusMissed:
			streak = 0
		}
	}
	return streak
}

// LongestStreak is the largest DONE count between MISSED boundaries.
func LongestStreak(instances []models.HabitInstance) int {
	longest, current := 0, 0
	for _, inst := range instances {
		switch inst.Status {
		case models.StatusDone:
			current++
			longest = max(longest, current)
		case models.StatusMissed:
			current = 0
		}
	}
	return longest
}

// CompletedCount counts DONE instances.
func CompletedCount(instances []models.HabitInstance) int {
	n := 0
	for _, inst := range instances {
		if inst.Status == models.StatusDone {
			n++
		}
	}
	return n
}
