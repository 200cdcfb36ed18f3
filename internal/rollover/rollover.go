// Package rollover closes out past days and opens today's habit instances.
package rollover

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

// Result summarizes one rollover run.
type Result struct {
	Day     time.Time
	Missed  int
	Created int
}

type Job struct {
	store storage.Provider
	clock utils.Clock
}

func NewJob(store storage.Provider, clock utils.Clock) *Job {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Job{store: store, clock: clock}
}

// Run marks every IN_PROGRESS instance created before today as MISSED and
// creates one instance for each habit scheduled today that lacks one. Both
// steps commit together. Running it again on the same day creates nothing.
func (j *Job) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	now := j.clock.Now().UTC()
	today := utils.StartOfUTCDay(now)
	res := Result{Day: today}

	err := j.store.WithTx(ctx, func(tx storage.Tx) error {
		missed, err := tx.MarkStaleInstancesMissed(today)
		if err != nil {
			return fmt.Errorf("failed to mark stale instances: %w", err)
		}

		habits, err := tx.GetHabitsForWeekday(utils.ISOWeekday(today))
		if err != nil {
			return fmt.Errorf("failed to load scheduled habits: %w", err)
		}
		existing, err := tx.GetInstancesCreatedBetween(today, utils.EndOfUTCDay(today))
		if err != nil {
			return fmt.Errorf("failed to load today's instances: %w", err)
		}

		due := utils.HabitsNeedingInstance(today, habits, existing)
		if len(due) > 0 {
			if err := tx.AddHabitInstances(NewInstances(due, now)); err != nil {
				return fmt.Errorf("failed to create instances: %w", err)
			}
		}

		res.Missed = int(missed)
		res.Created = len(due)
		return nil
	})

	metrics.RecordRollover(time.Since(start), res.Created, res.Missed, err)
	if err != nil {
		return Result{Day: today}, fmt.Errorf("rollover for %s: %w", utils.FormatDay(today), err)
	}

	logger.Info("Rollover complete", "day", utils.FormatDay(today), "missed", res.Missed, "created", res.Created)
	return res, nil
}

// NewInstances builds fresh IN_PROGRESS instances for habits, one second
// apart starting after base so creation order follows input order. When the
// sequence would run past the end of base's day it is shifted back to fit.
func NewInstances(habits []models.Habit, base time.Time) []models.HabitInstance {
	n := time.Duration(len(habits))
	endOfDay := utils.EndOfUTCDay(base)
	if last := base.Add(n * constants.RolloverItemOffset); last.After(endOfDay) {
		base = endOfDay.Add(-n * constants.RolloverItemOffset)
		if start := utils.StartOfUTCDay(endOfDay); base.Before(start) {
			base = start
		}
	}

	instances := make([]models.HabitInstance, len(habits))
	for i, habit := range habits {
		instances[i] = models.HabitInstance{
			ID:        uuid.New().String(),
			HabitID:   habit.ID,
			Repeats:   0,
			Status:    models.StatusInProgress,
			CreatedAt: base.Add(time.Duration(i+1) * constants.RolloverItemOffset),
		}
	}
	return instances
}
