package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

type tx struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
}

type scanner interface {
	Scan(dest ...any) error
}

// lock is the row-locking suffix for reads that precede a write.
func (t *tx) lock() string {
	if t.readOnly {
		return ""
	}
	return " FOR UPDATE"
}

func (t *tx) exec(query string, args ...any) (sql.Result, error) {
	if t.readOnly {
		return nil, storage.ErrReadOnly
	}
	return t.tx.ExecContext(t.ctx, query, args...)
}

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

// Users

const userColumns = "id, username, xp, level, is_blocked, created_at"

func scanUser(row scanner) (models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.XP, &u.Level, &u.IsBlocked, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

func (t *tx) AddUser(user models.User) error {
	_, err := t.exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.XP, user.Level, user.IsBlocked, user.CreatedAt.UTC())
	return err
}

func (t *tx) GetUser(id string) (models.User, error) {
	row := t.tx.QueryRowContext(t.ctx, "SELECT "+userColumns+" FROM users WHERE id = $1"+t.lock(), id)
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
		UPDATE users SET username = $1, xp = $2, level = $3, is_blocked = $4
		WHERE id = $5`,
		user.Username, user.XP, user.Level, user.IsBlocked, user.ID)
}
