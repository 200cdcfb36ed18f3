package storage

import (
	"context"
	"time"

	"github.com/julianstephens/habitual/internal/migration"
	"github.com/julianstephens/habitual/internal/models"
)

// Provider is a transactional store of users, habits and habit instances.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// WithTx runs fn inside one atomic read-write transaction. The transaction
	// commits when fn returns nil and rolls back otherwise; no partial writes
	// are ever visible.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// View runs fn inside a read-only transaction. Writes through the Tx fail.
	View(ctx context.Context, fn func(Tx) error) error

	// Utils
	GetConfigPath() string
}

// Tx exposes the repository operations available inside a transaction.
//
// Lookups that miss return an error wrapping errors.ErrNotFound (or
// errors.ErrUserNotFound for users). Lookups scoped by userID treat rows owned
// by someone else as missing.
type Tx interface {
	// Users
	AddUser(models.User) error
	GetUser(id string) (models.User, error)
	GetAllUsers() ([]models.User, error)
	UpdateUser(models.User) error

	// Habits
	AddHabit(models.Habit) error
	GetHabit(userID, habitID string) (models.Habit, error)
	// GetHabitsForUser returns the user's habits ordered by creation time.
	GetHabitsForUser(userID string) ([]models.Habit, error)
	// GetHabitsForWeekday returns every habit recurring on the ISO weekday,
	// ordered by creation time.
	GetHabitsForWeekday(weekday int) ([]models.Habit, error)
	UpdateHabit(models.Habit) error
	// DeleteHabit removes the habit and all of its instances.
	DeleteHabit(userID, habitID string) error

	// Habit Instances
	AddHabitInstances([]models.HabitInstance) error
	GetHabitInstance(userID, instanceID string) (models.HabitInstance, error)
	// GetInstancesForHabit returns the habit's full history ordered by creation time.
	GetInstancesForHabit(habitID string) ([]models.HabitInstance, error)
	// GetInstancesForUser returns the user's instances created within [from, to],
	// ordered by creation time.
	GetInstancesForUser(userID string, from, to time.Time) ([]models.HabitInstance, error)
	// GetInstancesCreatedBetween returns all instances created within [from, to].
	GetInstancesCreatedBetween(from, to time.Time) ([]models.HabitInstance, error)
	UpdateHabitInstance(models.HabitInstance) error
	// MarkStaleInstancesMissed flips every IN_PROGRESS instance created before
	// cutoff to MISSED and returns the number of rows changed.
	MarkStaleInstancesMissed(cutoff time.Time) (int64, error)
}

// Migrator is implemented by SQL-backed providers whose schema is versioned.
type Migrator interface {
	// Migrate applies pending schema migrations and returns how many ran.
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	MigrationStatus(ctx context.Context) (migration.Status, error)
}
