package completion

import (
	"context"
	"math/rand"
	"testing"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/memory"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
	"github.com/julianstephens/habitual/internal/utils"
)

// Monday 2024-05-13, mid-morning
var now = time.Date(2024, 5, 13, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store *memory.Store
	svc   *Service
	user  models.User
	habit models.Habit
}

func newFixture(t *testing.T, goal int) *fixture {
	f := &fixture{
		store: memory.New(),
		user:  storagetest.NewUser("ada"),
	}
	f.svc = NewService(f.store, utils.FixedClock{T: now})
	f.habit = storagetest.NewHabit(f.user.ID, "Pushups", now.AddDate(0, 0, -7), 1, 2, 3, 4, 5)
	f.habit.RepeatsGoal = goal
	storagetest.Seed(t, f.store, []models.User{f.user}, []models.Habit{f.habit}, nil)
	return f
}

func (f *fixture) instance(t *testing.T, createdAt time.Time, repeats int, status models.InstanceStatus) models.HabitInstance {
	t.Helper()
	inst := storagetest.NewInstance(f.habit.ID, createdAt)
	inst.Repeats = repeats
	inst.Status = status
	storagetest.Seed(t, f.store, nil, nil, []models.HabitInstance{inst})
	return inst
}

func (f *fixture) setProgress(t *testing.T, xp, level int) {
	t.Helper()
	err := f.store.WithTx(context.Background(), func(tx storage.Tx) error {
		u, err := tx.GetUser(f.user.ID)
		if err != nil {
			return err
		}
		u.XP, u.Level = xp, level
		return tx.UpdateUser(u)
	})
	if err != nil {
		t.Fatalf("failed to set progress: %v", err)
	}
}

func (f *fixture) storedUser(t *testing.T) models.User {
	t.Helper()
	var u models.User
	err := f.store.View(context.Background(), func(tx storage.Tx) error {
		var err error
		u, err = tx.GetUser(f.user.ID)
		return err
	})
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	return u
}

func (f *fixture) storedInstance(t *testing.T, id string) models.HabitInstance {
	t.Helper()
	var inst models.HabitInstance
	err := f.store.View(context.Background(), func(tx storage.Tx) error {
		var err error
		inst, err = tx.GetHabitInstance(f.user.ID, id)
		return err
	})
	if err != nil {
		t.Fatalf("failed to load instance: %v", err)
	}
	return inst
}

func TestMarkDoneReachesGoalOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 3)
	inst := f.instance(t, utils.StartOfUTCDay(now).Add(time.Second), 0, models.StatusInProgress)

	for i := 1; i <= 2; i++ {
		res, err := f.svc.MarkDone(ctx, f.user.ID, inst.ID)
		if err != nil {
			t.Fatalf("markDone %d failed: %v", i, err)
		}
		if res.Instance.Repeats != i || res.Instance.Status != models.StatusInProgress {
			t.Errorf("markDone %d: expected repeats=%d IN_PROGRESS, got %+v", i, i, res.Instance)
		}
		if res.Totals != nil {
			t.Errorf("markDone %d: expected no user payload before goal", i)
		}
	}

	res, err := f.svc.MarkDone(ctx, f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("final markDone failed: %v", err)
	}
	if res.Instance.Repeats != 3 || res.Instance.Status != models.StatusDone {
		t.Errorf("expected repeats=3 DONE, got %+v", res.Instance)
	}
	if res.Totals == nil || res.Totals.XP != 10 || res.Totals.Level != 0 {
		t.Fatalf("expected user payload xp=10 level=0, got %+v", res.Totals)
	}
	if got := f.storedUser(t); got.XP != 10 {
		t.Errorf("expected stored xp 10, got %d", got.XP)
	}

	if _, err := f.svc.MarkDone(ctx, f.user.ID, inst.ID); !apperrors.Is(err, apperrors.ErrAlreadyDone) {
		t.Errorf("expected ErrAlreadyDone, got %v", err)
	}
	if apperrors.KindOf(apperrors.ErrAlreadyDone) != apperrors.KindInvalidTransition {
		t.Error("expected AlreadyDone to be an invalid transition")
	}
	if got := f.storedUser(t); got.XP != 10 {
		t.Errorf("expected xp to stay 10 after rejected markDone, got %d", got.XP)
	}
}

func TestMarkDoneLevelsUp(t *testing.T) {
	f := newFixture(t, 1)
	f.setProgress(t, 95, 0)
	inst := f.instance(t, now, 0, models.StatusInProgress)

	res, err := f.svc.MarkDone(context.Background(), f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("markDone failed: %v", err)
	}
	if res.Totals == nil || res.Totals.XP != 5 || res.Totals.Level != 1 {
		t.Errorf("expected xp=5 level=1, got %+v", res.Totals)
	}
}

func TestMarkDoneOnMissedInstance(t *testing.T) {
	f := newFixture(t, 2)
	inst := f.instance(t, now.AddDate(0, 0, -1), 0, models.StatusMissed)

	res, err := f.svc.MarkDone(context.Background(), f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("markDone failed: %v", err)
	}
	if res.Instance.Repeats != 1 || res.Instance.Status != models.StatusMissed {
		t.Errorf("expected repeats=1 with status unchanged, got %+v", res.Instance)
	}
}

func TestNotFoundForOtherUsers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)
	inst := f.instance(t, now, 0, models.StatusInProgress)
	intruder := storagetest.NewUser("mallory")
	storagetest.Seed(t, f.store, []models.User{intruder}, nil, nil)

	ops := map[string]func(context.Context, string, string) (Result, error){
		OpMarkDone:   f.svc.MarkDone,
		OpUndo:       f.svc.Undo,
		OpMarkMissed: f.svc.MarkMissed,
	}
	for name, op := range ops {
		if _, err := op(ctx, intruder.ID, inst.ID); !apperrors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
		if _, err := op(ctx, f.user.ID, "missing"); apperrors.KindOf(err) != apperrors.KindNotFound {
			t.Errorf("%s: expected not found kind for missing id, got %v", name, err)
		}
	}

	if got := f.storedInstance(t, inst.ID); got.Repeats != 0 || got.Status != models.StatusInProgress {
		t.Errorf("expected instance untouched, got %+v", got)
	}
}

func TestUndoPastDayForcesMissed(t *testing.T) {
	f := newFixture(t, 3)
	f.setProgress(t, 40, 0)
	inst := f.instance(t, now.AddDate(0, 0, -1), 1, models.StatusInProgress)

	res, err := f.svc.Undo(context.Background(), f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.Instance.Repeats != 0 || res.Instance.Status != models.StatusMissed {
		t.Errorf("expected repeats=0 MISSED, got %+v", res.Instance)
	}
	if res.Totals != nil {
		t.Error("expected no XP change for an instance that never reached DONE")
	}
	if got := f.storedUser(t); got.XP != 40 {
		t.Errorf("expected xp 40, got %d", got.XP)
	}
}

func TestUndoPastDayDoneRevokes(t *testing.T) {
	f := newFixture(t, 1)
	f.setProgress(t, 40, 0)
	inst := f.instance(t, now.AddDate(0, 0, -2), 1, models.StatusDone)

	res, err := f.svc.Undo(context.Background(), f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.Instance.Status != models.StatusMissed || res.Instance.Repeats != 0 {
		t.Errorf("expected repeats=0 MISSED, got %+v", res.Instance)
	}
	if res.Totals == nil || res.Totals.XP != 30 {
		t.Errorf("expected xp 30 after revoke, got %+v", res.Totals)
	}
}

func TestUndoTodayFromDone(t *testing.T) {
	f := newFixture(t, 2)
	f.setProgress(t, 5, 1)
	inst := f.instance(t, now.Add(-time.Hour), 2, models.StatusDone)

	res, err := f.svc.Undo(context.Background(), f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.Instance.Repeats != 1 || res.Instance.Status != models.StatusInProgress {
		t.Errorf("expected repeats=1 IN_PROGRESS, got %+v", res.Instance)
	}
	// 5 XP at level 1 minus 10 borrows from level 0's 100
	if res.Totals == nil || res.Totals.XP != 95 || res.Totals.Level != 0 {
		t.Errorf("expected xp=95 level=0, got %+v", res.Totals)
	}
}

func TestUndoInProgressKeepsXP(t *testing.T) {
	f := newFixture(t, 3)
	f.setProgress(t, 20, 0)
	inst := f.instance(t, now.Add(-time.Hour), 2, models.StatusInProgress)

	res, err := f.svc.Undo(context.Background(), f.user.ID, inst.ID)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if res.Instance.Repeats != 1 {
		t.Errorf("expected repeats=1, got %d", res.Instance.Repeats)
	}
	if res.Totals != nil {
		t.Error("expected no user payload")
	}
	if got := f.storedUser(t); got.XP != 20 {
		t.Errorf("expected xp 20, got %d", got.XP)
	}
}

func TestUndoAlreadyUndone(t *testing.T) {
	f := newFixture(t, 1)
	inst := f.instance(t, now, 0, models.StatusInProgress)

	if _, err := f.svc.Undo(context.Background(), f.user.ID, inst.ID); !apperrors.Is(err, apperrors.ErrAlreadyUndone) {
		t.Errorf("expected ErrAlreadyUndone, got %v", err)
	}
}

func TestMarkMissed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2)
	f.setProgress(t, 50, 0)
	done := f.instance(t, now.Add(-time.Hour), 2, models.StatusDone)

	res, err := f.svc.MarkMissed(ctx, f.user.ID, done.ID)
	if err != nil {
		t.Fatalf("markMissed failed: %v", err)
	}
	if res.Instance.Repeats != 0 || res.Instance.Status != models.StatusMissed {
		t.Errorf("expected repeats=0 MISSED, got %+v", res.Instance)
	}
	if res.Totals != nil {
		t.Error("expected no XP effect")
	}
	if got := f.storedUser(t); got.XP != 50 {
		t.Errorf("expected xp 50, got %d", got.XP)
	}

	if _, err := f.svc.MarkMissed(ctx, f.user.ID, done.ID); !apperrors.Is(err, apperrors.ErrAlreadyMissed) {
		t.Errorf("expected ErrAlreadyMissed, got %v", err)
	}
}

func TestRepeatsInvariantUnderRandomSequence(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for _, goal := range []int{1, 2, 5} {
		f := newFixture(t, goal)
		today := f.instance(t, now.Add(-time.Hour), 0, models.StatusInProgress)
		past := f.instance(t, now.AddDate(0, 0, -1), 0, models.StatusInProgress)
		ids := []string{today.ID, past.ID}
		ops := []func(context.Context, string, string) (Result, error){f.svc.MarkDone, f.svc.Undo, f.svc.MarkMissed}

		for i := 0; i < 200; i++ {
			id := ids[rng.Intn(len(ids))]
			_, err := ops[rng.Intn(len(ops))](ctx, f.user.ID, id)
			if err != nil && apperrors.KindOf(err) != apperrors.KindInvalidTransition {
				t.Fatalf("goal %d step %d: unexpected error: %v", goal, i, err)
			}

			inst := f.storedInstance(t, id)
			if inst.Repeats < 0 || inst.Repeats > goal {
				t.Fatalf("goal %d step %d: repeats %d out of [0, %d]", goal, i, inst.Repeats, goal)
			}
			if inst.Status == models.StatusDone && inst.Repeats != goal {
				t.Fatalf("goal %d step %d: DONE with repeats %d", goal, i, inst.Repeats)
			}
			if u := f.storedUser(t); u.XP < 0 || u.Level < 0 {
				t.Fatalf("goal %d step %d: negative progress %+v", goal, i, u)
			}
		}
	}
}
