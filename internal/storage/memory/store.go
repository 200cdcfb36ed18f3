// Package memory is an arena store: entities live in maps keyed by id, with
// an explicit habitID -> instance ids index standing in for foreign keys.
// A store created with NewJSONStore persists every committed transaction to a
// JSON file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

const stateVersion = 1

type state struct {
	Version   int                             `json:"version"`
	Users     map[string]models.User          `json:"users"`
	Habits    map[string]models.Habit         `json:"habits"`
	Instances map[string]models.HabitInstance `json:"instances"`
	// HabitInstances maps a habit id to its instance ids in creation order.
	HabitInstances map[string][]string `json:"habit_instances"`
}

func newState() *state {
	return &state{
		Version:        stateVersion,
		Users:          make(map[string]models.User),
		Habits:         make(map[string]models.Habit),
		Instances:      make(map[string]models.HabitInstance),
		HabitInstances: make(map[string][]string),
	}
}

func (st *state) ensureMaps() {
	if st.Users == nil {
		st.Users = make(map[string]models.User)
	}
	if st.Habits == nil {
		st.Habits = make(map[string]models.Habit)
	}
	if st.Instances == nil {
		st.Instances = make(map[string]models.HabitInstance)
	}
	if st.HabitInstances == nil {
		st.HabitInstances = make(map[string][]string)
	}
}

// clone copies every map and index slice so a transaction can be discarded.
func (st *state) clone() *state {
	c := &state{
		Version:        st.Version,
		Users:          maps.Clone(st.Users),
		Habits:         maps.Clone(st.Habits),
		Instances:      maps.Clone(st.Instances),
		HabitInstances: make(map[string][]string, len(st.HabitInstances)),
	}
	for id, ids := range st.HabitInstances {
		c.HabitInstances[id] = slices.Clone(ids)
	}
	return c
}

type Store struct {
	path string
	mu   sync.Mutex
	st   *state
}

// New returns an empty, ready-to-use store that lives only in memory.
func New() *Store {
	return &Store{st: newState()}
}

// NewJSONStore returns a store persisted to the JSON file at path.
func NewJSONStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		s.st = newState()
		return nil
	}

	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	st := newState()
	if err := s.save(st); err != nil {
		return err
	}
	s.st = st
	return nil
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		if s.st == nil {
			s.st = newState()
		}
		return nil
	}
	return s.reload()
}

// reload replaces the cached state with the file contents. Other processes
// (the CLI next to a running serve, say) write the same file, so JSON stores
// reread it at the start of every transaction. Callers hold s.mu.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitual init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	st := &state{}
	if err := json.Unmarshal(data, st); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if st.Version > stateVersion {
		return fmt.Errorf("storage version (%d) is newer than supported version (%d) - please upgrade the application", st.Version, stateVersion)
	}
	st.ensureMaps()
	s.st = st

	return nil
}

// current returns the state a transaction should start from.
func (s *Store) current() (*state, error) {
	if s.st == nil {
		return nil, fmt.Errorf("storage not loaded")
	}
	if s.path != "" {
		if err := s.reload(); err != nil {
			return nil, err
		}
	}
	return s.st, nil
}

// Close drops the cached state of a JSON store so the next Load rereads the
// file. A purely in-memory store keeps its data.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		s.st = nil
	}
	return nil
}

func (s *Store) GetConfigPath() string {
	if s.path == "" {
		return "memory"
	}
	return s.path
}

// WithTx runs fn against a private copy of the state and swaps it in only
// after fn succeeds (and, for JSON stores, after the file write succeeds).
// Transactions are serialized by the store mutex; JSON stores start each one
// from the file as it is on disk.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.current()
	if err != nil {
		return err
	}

	working := st.clone()
	if err := fn(&tx{st: working}); err != nil {
		return err
	}

	if s.path != "" {
		if err := s.save(working); err != nil {
			return err
		}
	}
	s.st = working
	return nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.current()
	if err != nil {
		return err
	}
	return fn(&tx{st: st, readOnly: true})
}

// save writes st to a temporary file and renames it over the store file so a
// crash never leaves a half-written document behind.
func (s *Store) save(st *state) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}
