package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/storage/storagetest"
)

func TestProvider(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		return New()
	})
}

func TestJSONProvider(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Provider {
		s := NewJSONStore(filepath.Join(t.TempDir(), "habitual.json"))
		if err := s.Init(); err != nil {
			t.Fatalf("failed to init store: %v", err)
		}
		return s
	})
}

func TestJSONStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitual.json")

	s := NewJSONStore(path)
	if err := s.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	user := storagetest.NewUser("ada")
	habit := storagetest.NewHabit(user.ID, "Stretch", storagetest.Base, 1, 3)
	inst := storagetest.NewInstance(habit.ID, storagetest.Base)
	storagetest.Seed(t, s, []models.User{user}, []models.Habit{habit}, []models.HabitInstance{inst})

	reopened := NewJSONStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}

	err := reopened.View(context.Background(), func(tx storage.Tx) error {
		history, err := tx.GetInstancesForHabit(habit.ID)
		if err != nil {
			return err
		}
		if len(history) != 1 || history[0].ID != inst.ID {
			t.Errorf("expected persisted instance index, got %v", history)
		}
		got, err := tx.GetHabit(user.ID, habit.ID)
		if err != nil {
			return err
		}
		if got.Title != "Stretch" {
			t.Errorf("expected title Stretch, got %q", got.Title)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
}

func TestJSONStoreInitTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitual.json")
	if err := NewJSONStore(path).Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := NewJSONStore(path).Init(); err == nil {
		t.Error("expected second init to fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	if err := s.Load(); err == nil {
		t.Error("expected load of missing file to fail")
	}
}

func TestWithTxCanceledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		called = true
		return nil
	})
	if err == nil {
		t.Error("expected canceled context to fail the transaction")
	}
	if called {
		t.Error("expected callback not to run")
	}
}

func TestReturnedHabitsAreCopies(t *testing.T) {
	s := New()
	user := storagetest.NewUser("ada")
	habit := storagetest.NewHabit(user.ID, "Run", storagetest.Base, 1, 2)
	storagetest.Seed(t, s, []models.User{user}, []models.Habit{habit}, nil)

	habit.WeekDays[0] = 7

	err := s.View(context.Background(), func(tx storage.Tx) error {
		got, err := tx.GetHabit(user.ID, habit.ID)
		if err != nil {
			return err
		}
		if got.WeekDays[0] != 1 {
			t.Errorf("expected stored week days to be isolated from caller, got %v", got.WeekDays)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view failed: %v", err)
	}
}

func TestJSONStoresShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitual.json")
	long := NewJSONStore(path)
	if err := long.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	user := storagetest.NewUser("ada")
	storagetest.Seed(t, long, []models.User{user}, nil, nil)

	other := NewJSONStore(path)
	if err := other.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	habit := storagetest.NewHabit(user.ID, "Read", storagetest.Base, 1, 2, 3)
	storagetest.Seed(t, other, nil, []models.Habit{habit}, nil)

	// A write through the first handle must start from the file, not from
	// what it cached before the second handle committed.
	grace := storagetest.NewUser("grace")
	storagetest.Seed(t, long, []models.User{grace}, nil, nil)

	for name, s := range map[string]*Store{"writer": long, "fresh": NewJSONStore(path)} {
		if err := s.Load(); err != nil {
			t.Fatalf("%s: failed to load store: %v", name, err)
		}
		err := s.View(context.Background(), func(tx storage.Tx) error {
			habits, err := tx.GetHabitsForUser(user.ID)
			if err != nil {
				return err
			}
			if len(habits) != 1 || habits[0].ID != habit.ID {
				t.Errorf("%s: expected habit from the other handle, got %v", name, habits)
			}
			users, err := tx.GetAllUsers()
			if err != nil {
				return err
			}
			if len(users) != 2 {
				t.Errorf("%s: expected 2 users, got %d", name, len(users))
			}
			return nil
		})
		if err != nil {
			t.Fatalf("%s: view failed: %v", name, err)
		}
	}
}

func TestViewSeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitual.json")
	reader := NewJSONStore(path)
	if err := reader.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	writer := NewJSONStore(path)
	if err := writer.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	user := storagetest.NewUser("ada")
	storagetest.Seed(t, writer, []models.User{user}, nil, nil)

	err := reader.View(context.Background(), func(tx storage.Tx) error {
		_, err := tx.GetUser(user.ID)
		return err
	})
	if err != nil {
		t.Errorf("expected reader to see user written by another handle: %v", err)
	}
}
