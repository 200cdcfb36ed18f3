// Package statistics derives per-habit progress, day buckets and the
// leaderboard from stored instances. Nothing here writes.
package statistics

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/leveling"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

type Aggregator struct {
	store storage.Provider
	clock utils.Clock
}

func NewAggregator(store storage.Provider, clock utils.Clock) *Aggregator {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Aggregator{store: store, clock: clock}
}

// ValidateRange rejects inverted ranges and ranges spanning more days than
// constants.MaxStatisticsRangeDays.
func ValidateRange(from, to time.Time) error {
	if to.Before(from) {
		return apperrors.Validation(fmt.Errorf("range end %s is before start %s",
			utils.FormatTimestamp(to), utils.FormatTimestamp(from)))
	}
	if n := utils.DaysInRange(from, to); n > constants.MaxStatisticsRangeDays {
		return apperrors.Validation(fmt.Errorf("range covers %d days (max %d)", n, constants.MaxStatisticsRangeDays))
	}
	return nil
}

// dayInstances returns the instances created on day, keeping their order.
func dayInstances(instances []models.HabitInstance, day time.Time) []models.HabitInstance {
	start, end := utils.StartOfUTCDay(day), utils.EndOfUTCDay(day)
	var out []models.HabitInstance
	for _, inst := range instances {
		if utils.BetweenInclusive(inst.CreatedAt, start, end) {
			out = append(out, inst)
		}
	}
	return out
}

// UserStatistics summarizes each of the user's habits, oldest habit first.
// Streaks and completion counts cover the whole history; the day summary
// covers [from, to].
func (a *Aggregator) UserStatistics(ctx context.Context, userID string, from, to time.Time) ([]models.HabitStatistics, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}

	var result []models.HabitStatistics
	err := a.store.View(ctx, func(tx storage.Tx) error {
		habits, err := tx.GetHabitsForUser(userID)
		if err != nil {
			return err
		}

		result = make([]models.HabitStatistics, 0, len(habits))
		for _, habit := range habits {
			history, err := tx.GetInstancesForHabit(habit.ID)
			if err != nil {
				return err
			}

			var summary []models.DayProgress
			for day := range utils.Days(from, to) {
				summary = append(summary, models.DayProgress{
					Date:        utils.FormatDay(day),
					PercentDone: PercentDone(dayInstances(history, day), habit.RepeatsGoal),
				})
			}

			result = append(result, models.HabitStatistics{
				ID:        habit.ID,
				Title:     habit.Title,
				TimeOfDay: habit.TimeOfDay,
				Streak:    Streak(history),
				Longest:   LongestStreak(history),
				Completed: CompletedCount(history),
				Summary:   summary,
			})
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "user statistics")
	}
	return result, nil
}

// GetHabits buckets the user's instances created within [from, to] by day,
// one bucket per day with a 1-based offset, newest instance first. Instances
// in today's bucket carry their habit's current streak.
func (a *Aggregator) GetHabits(ctx context.Context, userID string, from, to time.Time) ([]models.DayBucket, error) {
	if err := ValidateRange(from, to); err != nil {
		return nil, err
	}
	today := utils.StartOfUTCDay(a.clock.Now())

	var buckets []models.DayBucket
	err := a.store.View(ctx, func(tx storage.Tx) error {
		instances, err := tx.GetInstancesForUser(userID, from, to)
		if err != nil {
			return err
		}
		habits, err := tx.GetHabitsForUser(userID)
		if err != nil {
			return err
		}
		byID := make(map[string]models.Habit, len(habits))
		for _, h := range habits {
			byID[h.ID] = h
		}

		streaks := make(map[string]int)
		streakFor := func(habitID string) (int, error) {
			if s, ok := streaks[habitID]; ok {
				return s, nil
			}
			history, err := tx.GetInstancesForHabit(habitID)
			if err != nil {
				return 0, err
			}
			streaks[habitID] = Streak(history)
			return streaks[habitID], nil
		}

		offset := 0
		for day := range utils.Days(from, to) {
			offset++
			onDay := dayInstances(instances, day)
			slices.Reverse(onDay)

			bucket := models.DayBucket{Offset: offset, Date: day, Instances: make([]models.InstanceView, 0, len(onDay))}
			for _, inst := range onDay {
				view := models.InstanceView{HabitInstance: inst, Habit: byID[inst.HabitID]}
				if day.Equal(today) {
					s, err := streakFor(inst.HabitID)
					if err != nil {
						return err
					}
					view.Streak = &s
				}
				bucket.Instances = append(bucket.Instances, view)
			}
			buckets = append(buckets, bucket)
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "habits by day")
	}
	return buckets, nil
}

// Leaderboard ranks every user by level, then XP, then seniority, and picks
// out the requesting user's entry.
func (a *Aggregator) Leaderboard(ctx context.Context, userID string) (models.Leaderboard, error) {
	var board models.Leaderboard
	err := a.store.View(ctx, func(tx storage.Tx) error {
		users, err := tx.GetAllUsers()
		if err != nil {
			return err
		}

		slices.SortStableFunc(users, func(x, y models.User) int {
			if c := cmp.Compare(y.Level, x.Level); c != 0 {
				return c
			}
			if c := cmp.Compare(y.XP, x.XP); c != 0 {
				return c
			}
			return x.CreatedAt.Compare(y.CreatedAt)
		})

		board.Users = make([]models.LeaderboardEntry, 0, len(users))
		for i, u := range users {
			board.Users = append(board.Users, models.LeaderboardEntry{
				Rank:           i + 1,
				UserID:         u.ID,
				Username:       u.Username,
				XP:             u.XP,
				Level:          u.Level,
				XPForNextLevel: leveling.ThresholdFor(u.Level),
				XPToNextLevel:  leveling.XPToNextLevel(leveling.FromUser(u)),
				CreatedAt:      u.CreatedAt,
			})
		}
		for i := range board.Users {
			if board.Users[i].UserID == userID {
				entry := board.Users[i]
				board.User = &entry
			}
		}
		return nil
	})
	if err != nil {
		return models.Leaderboard{}, apperrors.Wrap(err, "leaderboard")
	}
	return board, nil
}
