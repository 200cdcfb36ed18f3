// Package habits manages users and their habit definitions. Day-to-day
// progress lives in the completion package.
package habits

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/leveling"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/metrics"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

// Definition holds the user-editable fields of a habit.
type Definition struct {
	Title       string
	RepeatsGoal int
	WeekDays    []int
	TimeOfDay   models.TimeOfDay
	RemindAt    string
}

func (d Definition) apply(h *models.Habit) {
	h.Title = strings.TrimSpace(d.Title)
	h.RepeatsGoal = d.RepeatsGoal
	h.WeekDays = slices.Clone(d.WeekDays)
	slices.Sort(h.WeekDays)
	h.TimeOfDay = d.TimeOfDay
	if h.TimeOfDay == "" {
		h.TimeOfDay = models.TimeOfDayAnytime
	}
	h.RemindAt = d.RemindAt
}

// Created is a new habit and, when it is scheduled on the creation day, the
// instance opened for that day.
type Created struct {
	Habit    models.Habit
	Instance *models.HabitInstance
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

// CreateUser registers a new user at level 0.
func (s *Service) CreateUser(ctx context.Context, username string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, apperrors.Validation(fmt.Errorf("username cannot be empty"))
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  username,
		CreatedAt: s.clock.Now(),
	}
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.AddUser(user)
	})
	if err != nil {
		return models.User{}, apperrors.Wrap(err, "create user")
	}

	logger.Info("User created", "id", user.ID, "username", user.Username)
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		user, err = tx.GetUser(userID)
		return err
	})
	if err != nil {
		return models.User{}, apperrors.Wrap(err, "get user")
	}
	return user, nil
}

// CreateHabit adds a habit for userID. When the habit is scheduled for the
// current UTC day it also gets today's instance right away.
func (s *Service) CreateHabit(ctx context.Context, userID string, def Definition) (Created, error) {
	res, err := s.CreateHabits(ctx, userID, []Definition{def})
	if err != nil {
		return Created{}, err
	}
	return res[0], nil
}

// CreateHabits adds every definition in one transaction: either all habits
// are created or none are. Creation times are spaced one millisecond apart
// so the input order is kept.
func (s *Service) CreateHabits(ctx context.Context, userID string, defs []Definition) ([]Created, error) {
	now := s.clock.Now()
	endOfDay := utils.EndOfUTCDay(now)

	out := make([]Created, 0, len(defs))
	for i, def := range defs {
		at := now.Add(time.Duration(i) * time.Millisecond)
		habit := models.Habit{
			ID:        uuid.New().String(),
			UserID:    userID,
			CreatedAt: at,
		}
		def.apply(&habit)
		if err := habit.Validate(); err != nil {
			if len(defs) > 1 {
				err = fmt.Errorf("habit %d (%q): %w", i+1, habit.Title, err)
			}
			return nil, apperrors.Validation(err)
		}

		res := Created{Habit: habit}
		if utils.IsScheduledOn(habit, now) {
			instAt := at
			if instAt.After(endOfDay) {
				instAt = endOfDay
			}
			res.Instance = &models.HabitInstance{
				ID:        uuid.New().String(),
				HabitID:   habit.ID,
				Status:    models.StatusInProgress,
				CreatedAt: instAt,
			}
		}
		out = append(out, res)
	}

	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		var instances []models.HabitInstance
		for _, res := range out {
			if err := tx.AddHabit(res.Habit); err != nil {
				return err
			}
			if res.Instance != nil {
				instances = append(instances, *res.Instance)
			}
		}
		if len(instances) == 0 {
			return nil
		}
		return tx.AddHabitInstances(instances)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "create habit")
	}

	for _, res := range out {
		logger.Info("Habit created", "id", res.Habit.ID, "title", res.Habit.Title, "instance", res.Instance != nil)
	}
	return out, nil
}

// UpdateHabit applies def to the habit behind instanceID and refits that
// instance to the new goal. Crossing into or out of DONE awards or revokes XP
// the same way marking done and undoing do.
func (s *Service) UpdateHabit(ctx context.Context, userID, instanceID string, def Definition) (models.InstanceView, error) {
	var view models.InstanceView
	var xpDelta int
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		inst, err := tx.GetHabitInstance(userID, instanceID)
		if err != nil {
			return err
		}
		habit, err := tx.GetHabit(userID, inst.HabitID)
		if err != nil {
			return err
		}

		def.apply(&habit)
		if err := habit.Validate(); err != nil {
			return apperrors.Validation(err)
		}
		xpDelta = reconcile(&inst, habit.RepeatsGoal)

		if err := tx.UpdateHabit(habit); err != nil {
			return err
		}
		if err := tx.UpdateHabitInstance(inst); err != nil {
			return err
		}
		if xpDelta != 0 {
			user, err := tx.GetUser(userID)
			if err != nil {
				return err
			}
			leveling.Adjust(leveling.FromUser(user), xpDelta).Apply(&user)
			if err := tx.UpdateUser(user); err != nil {
				return err
			}
		}
		view = models.InstanceView{HabitInstance: inst, Habit: habit}
		return nil
	})
	if err != nil {
		return models.InstanceView{}, apperrors.Wrap(err, "update habit")
	}

	metrics.RecordXP(xpDelta)
	logger.Debug("Habit updated", "id", view.Habit.ID, "instance", instanceID, "status", view.Status, "xp_delta", xpDelta)
	return view, nil
}

// reconcile fits an instance to a changed goal and returns the XP the status
// change is worth. MISSED stays MISSED.
func reconcile(inst *models.HabitInstance, goal int) int {
	inst.Repeats = min(inst.Repeats, goal)
	if inst.Status == models.StatusMissed {
		return 0
	}
	wasDone := inst.Status == models.StatusDone
	if inst.Repeats >= goal {
		inst.Status = models.StatusDone
	} else {
		inst.Status = models.StatusInProgress
	}
	switch isDone := inst.Status == models.StatusDone; {
	case isDone && !wasDone:
		return constants.XPPerHabit
	case wasDone && !isDone:
		return -constants.XPPerHabit
	}
	return 0
}

// DeleteHabit removes the habit together with its whole history.
func (s *Service) DeleteHabit(ctx context.Context, userID, habitID string) error {
	err := s.store.WithTx(ctx, func(tx storage.Tx) error {
		return tx.DeleteHabit(userID, habitID)
	})
	if err != nil {
		return apperrors.Wrap(err, "delete habit")
	}
	logger.Info("Habit deleted", "id", habitID)
	return nil
}

// ListHabits returns the user's habits, oldest first.
func (s *Service) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	var habits []models.Habit
	err := s.store.View(ctx, func(tx storage.Tx) error {
		var err error
		habits, err = tx.GetHabitsForUser(userID)
		return err
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "list habits")
	}
	return habits, nil
}

// Instance returns one of the user's instances joined with its habit.
func (s *Service) Instance(ctx context.Context, userID, instanceID string) (models.InstanceView, error) {
	var view models.InstanceView
	err := s.store.View(ctx, func(tx storage.Tx) error {
		inst, err := tx.GetHabitInstance(userID, instanceID)
		if err != nil {
			return err
		}
		habit, err := tx.GetHabit(userID, inst.HabitID)
		if err != nil {
			return err
		}
		view = models.InstanceView{HabitInstance: inst, Habit: habit}
		return nil
	})
	if err != nil {
		return models.InstanceView{}, apperrors.Wrap(err, "get instance")
	}
	return view, nil
}

// Today returns the user's instances created today joined with their habits,
// oldest first.
func (s *Service) Today(ctx context.Context, userID string) ([]models.InstanceView, error) {
	now := s.clock.Now()
	var views []models.InstanceView
	err := s.store.View(ctx, func(tx storage.Tx) error {
		instances, err := tx.GetInstancesForUser(userID, utils.StartOfUTCDay(now), utils.EndOfUTCDay(now))
		if err != nil {
			return err
		}
		for _, inst := range instances {
			habit, err := tx.GetHabit(userID, inst.HabitID)
			if err != nil {
				return err
			}
			views = append(views, models.InstanceView{HabitInstance: inst, Habit: habit})
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "today")
	}
	return views, nil
}
