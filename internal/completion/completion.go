// Package completion implements the per-day instance lifecycle: marking
// repeats done, undoing them and giving up on a day, with the XP effects
// applied in the same transaction.
package completion

import (
	"context"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/leveling"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

const (
	OpMarkDone   = "mark_done"
	OpUndo       = "undo"
	OpMarkMissed = "mark_missed"
)

// Result is the state after a transition. Totals is nil unless the user's XP
// changed.
type Result struct {
	Instance models.HabitInstance
	Habit    models.Habit
	Totals   *models.UserTotals
}

type Service struct {
	store storage.Provider
	clock utils.Clock
}

func NewService(store storage.Provider, clock utils.Clock) *Service {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &Service{store: store, clock: clock}
}

// target is everything a transition reads before deciding.
type target struct {
	instance models.HabitInstance
	habit    models.Habit
}

func load(tx storage.Tx, userID, instanceID string) (target, error) {
	inst, err := tx.GetHabitInstance(userID, instanceID)
	if err != nil {
		return target{}, err
	}
	habit, err := tx.GetHabit(userID, inst.HabitID)
	if err != nil {
		return target{}, err
	}
	return target{instance: inst, habit: habit}, nil
}

// adjustXP applies delta to the user's progress and returns the stored user.
func adjustXP(tx storage.Tx, userID string, delta int) (*models.UserTotals, error) {
	user, err := tx.GetUser(userID)
	if err != nil {
		return nil, err
	}

	leveling.Adjust(leveling.FromUser(user), delta).Apply(&user)

	if err := tx.UpdateUser(user); err != nil {
		return nil, err
	}
	totals := user.Totals()
	return &totals, nil
}

func (s *Service) transition(ctx context.Context, op, userID, instanceID string, fn func(t *target) (int, error)) (Result, error) {
	var res Result
	var xpDelta int

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		t, err := load(tx, userID, instanceID)
		if err != nil {
			return err
		}

		xpDelta, err = fn(&t)
		if err != nil {
			return err
		}
		if err := tx.UpdateHabitInstance(t.instance); err != nil {
			return err
		}

		res.Instance = t.instance
		res.Habit = t.habit
		if xpDelta != 0 {
			if res.Totals, err = adjustXP(tx, userID, xpDelta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordTransition(op, string(apperrors.KindOf(err)))
		return Result{}, apperrors.Wrap(err, "%s", op)
	}

	metrics.RecordTransition(op, "ok")
	metrics.RecordXP(xpDelta)
	logger.Debug("Instance transitioned", "op", op, "instance", instanceID,
		"status", res.Instance.Status, "repeats", res.Instance.Repeats, "xp_delta", xpDelta)
	return res, nil
}

// MarkDone records one repeat. Reaching the habit's goal completes the
// instance and awards XP.
func (s *Service) MarkDone(ctx context.Context, userID, instanceID string) (Result, error) {
	return s.transition(ctx, OpMarkDone, userID, instanceID, func(t *target) (int, error) {
		if t.instance.Status == models.StatusDone {
			return 0, apperrors.ErrAlreadyDone
		}

		t.instance.Repeats = min(t.instance.Repeats+1, t.habit.RepeatsGoal)
		if t.instance.Repeats < t.habit.RepeatsGoal {
			return 0, nil
		}
		t.instance.Status = models.StatusDone
		return constants.XPPerHabit, nil
	})
}

// Undo takes back one repeat. An instance from a closed day cannot resume, so
// it drops to MISSED with no repeats. XP is revoked only when the undo takes
// the instance out of DONE.
func (s *Service) Undo(ctx context.Context, userID, instanceID string) (Result, error) {
	today := utils.StartOfUTCDay(s.clock.Now())

	return s.transition(ctx, OpUndo, userID, instanceID, func(t *target) (int, error) {
		if t.instance.Repeats == 0 {
			return 0, apperrors.ErrAlreadyUndone
		}

		wasDone := t.instance.Status == models.StatusDone
		if t.instance.CreatedAt.Before(today) {
			t.instance.Repeats = 0
			t.instance.Status = models.StatusMissed
		} else {
			t.instance.Repeats--
			t.instance.Status = models.StatusInProgress
		}

		if wasDone {
			return -constants.XPPerHabit, nil
		}
		return 0, nil
	})
}

// MarkMissed gives up on the instance for its day. XP is left alone.
func (s *Service) MarkMissed(ctx context.Context, userID, instanceID string) (Result, error) {
	return s.transition(ctx, OpMarkMissed, userID, instanceID, func(t *target) (int, error) {
		if t.instance.Status == models.StatusMissed {
			return 0, apperrors.ErrAlreadyMissed
		}
		t.instance.Repeats = 0
		t.instance.Status = models.StatusMissed
		return 0, nil
	})
}
