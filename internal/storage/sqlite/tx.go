package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

type tx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
}

type scanner interface {
	Scan(dest ...any) error
}

func (t *tx) exec(query string, args ...any) (sql.Result, error) {
	if t.readOnly {
		return nil, storage.ErrReadOnly
	}
	return t.tx.ExecContext(t.ctx, query, args...)
}

// execOne runs a write that must touch a row, returning notFound otherwise.
func (t *tx) execOne(notFound error, query string, args ...any) error {
	res, err := t.exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func encodeWeekDays(days []int) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func decodeWeekDays(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("failed to parse week_days %q: %w", s, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func parseTime(column, value string) (time.Time, error) {
	t, err := utils.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}

// Users

const userColumns = "id, username, xp, level, is_blocked, created_at"

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Username, &u.XP, &u.Level, &u.IsBlocked, &createdAt); err != nil {
		return models.User{}, err
	}
	var err error
	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (t *tx) AddUser(user models.User) error {
	_, err := t.exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.XP, user.Level, user.IsBlocked, utils.FormatTimestamp(user.CreatedAt))
	return err
}

func (t *tx) GetUser(id string) (models.User, error) {
	row := t.tx.QueryRowContext(t.ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("user %s: %w", id, apperrors.ErrUserNotFound)
	}
	return u, err
}

func (t *tx) GetAllUsers() ([]models.User, error) {
	rows, err := t.tx.QueryContext(t.ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (t *tx) UpdateUser(user models.User) error {
	return t.execOne(fmt.Errorf("user %s: %w", user.ID, apperrors.ErrUserNotFound), `
		UPDATE users SET username = ?, xp = ?, level = ?, is_blocked = ?
		WHERE id = ?`,
		user.Username, user.XP, user.Level, user.IsBlocked, user.ID)
}
