// Package backup keeps rotating snapshots of file-backed habitual storage.
package backup

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/habitual/internal/constants"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/utils"
)

const (
	// MaxBackups is the number of snapshots kept after rotation.
	MaxBackups = 14
	// DirName is the backup directory created next to the storage file.
	DirName = "backups"

	filePrefix      = constants.AppName + "-"
	timestampLayout = "20060102-150405"
)

// ErrUnsupported is returned for storage that is not a local file.
var ErrUnsupported = errors.New("backups are only supported for SQLite and JSON storage")

type format int

const (
	formatSQLite format = iota
	formatJSON
)

func (f format) suffix() string {
	if f == formatJSON {
		return ".json"
	}
	return ".db"
}

// Info describes one snapshot on disk.
type Info struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager creates, lists, rotates and restores snapshots of one storage file.
type Manager struct {
	path   string
	dir    string
	format format
	clock  utils.Clock
}

// NewManager returns a manager for the SQLite database or JSON file at path.
func NewManager(path string, clock utils.Clock) (*Manager, error) {
	if path == "" || strings.Contains(path, "://") {
		return nil, ErrUnsupported
	}
	if clock == nil {
		clock = utils.SystemClock{}
	}
	f := formatSQLite
	if strings.EqualFold(filepath.Ext(path), ".json") {
		f = formatJSON
	}
	return &Manager{
		path:   path,
		dir:    filepath.Join(filepath.Dir(path), DirName),
		format: f,
		clock:  clock,
	}, nil
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create writes a new snapshot and rotates old ones.
func (m *Manager) Create() (string, error) {
	return m.create(true)
}

func (m *Manager) create(rotate bool) (string, error) {
	if _, err := os.Stat(m.path); os.IsNotExist(err) {
		return "", fmt.Errorf("storage does not exist: %s", m.path)
	}
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, err := m.nextPath()
	if err != nil {
		return "", err
	}

	switch m.format {
	case formatJSON:
		if err := verifyJSON(m.path); err != nil {
			return "", fmt.Errorf("storage file is invalid: %w", err)
		}
		err = copyFile(m.path, dest)
	default:
		err = m.snapshotSQLite(dest)
	}
	if err != nil {
		return "", fmt.Errorf("failed to back up storage: %w", err)
	}
	logger.Info("Created backup", "path", dest)

	if rotate {
		if err := m.rotate(); err != nil {
			logger.Warn("Failed to rotate old backups", "error", err)
		}
	}
	return dest, nil
}

func (m *Manager) nextPath() (string, error) {
	stamp := m.clock.Now().UTC().Format(timestampLayout)
	dest := filepath.Join(m.dir, filePrefix+stamp+m.format.suffix())
	for n := 1; ; n++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest, nil
		}
		if n > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		dest = filepath.Join(m.dir, fmt.Sprintf("%s%s-%d%s", filePrefix, stamp, n, m.format.suffix()))
	}
}

func (m *Manager) snapshotSQLite(dest string) error {
	db, err := sql.Open("sqlite", m.path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	// VACUUM INTO produces a consistent copy even with a live writer.
	if _, err := db.Exec("VACUUM INTO ?", dest); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		db.Close()
		return copyFile(m.path, dest)
	}
	return nil
}

// List returns all snapshots, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := m.parseName(entry.Name())
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.dir, entry.Name()),
			Timestamp: ts,
			Size:      info.Size(),
		})
	}

	slices.SortStableFunc(backups, func(a, b Info) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(b.Path, a.Path)
	})
	return backups, nil
}

// parseName extracts the timestamp from habitual-YYYYMMDD-HHMMSS[-N].ext.
func (m *Manager) parseName(name string) (time.Time, bool) {
	suffix := m.format.suffix()
	if !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, suffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), suffix)
	if len(stamp) > len(timestampLayout) {
		stamp = stamp[:len(timestampLayout)]
	}
	ts, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for _, b := range backups[min(MaxBackups, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Path, err)
		}
		logger.Debug("Removed old backup", "path", b.Path)
	}
	return nil
}

// Restore replaces the storage file with the snapshot at backupPath. The
// current file, if any, is snapshotted first and that path is returned.
// The storage must be closed before calling Restore.
func (m *Manager) Restore(backupPath string) (string, error) {
	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.verify(backupPath); err != nil {
		return "", fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}

	var previous string
	if _, err := os.Stat(m.path); err == nil {
		// Skip rotation so the snapshot being restored is never pruned.
		previous, err = m.create(false)
		if err != nil {
			return "", fmt.Errorf("failed to back up current storage before restore: %w", err)
		}
	}

	tmp := m.path + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return "", fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		if rerr := os.Remove(tmp); rerr != nil {
			logger.Warn("Failed to remove temporary file", "path", tmp, "error", rerr)
		}
		return "", fmt.Errorf("failed to restore storage: %w", err)
	}
	logger.Info("Restored backup", "from", backupPath, "to", m.path)
	return previous, nil
}

func (m *Manager) verify(path string) error {
	if m.format == formatJSON {
		return verifyJSON(path)
	}
	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func verifyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("%s is not valid JSON", filepath.Base(path))
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
