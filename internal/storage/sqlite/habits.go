package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/utils"
)

const habitColumns = "id, user_id, title, repeats_goal, week_days, time_of_day, remind_at, created_at"

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var weekDays, timeOfDay, createdAt string
	var remindAt sql.NullString

	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.RepeatsGoal, &weekDays, &timeOfDay, &remindAt, &createdAt); err != nil {
		return models.Habit{}, err
	}

	var err error
	if h.WeekDays, err = decodeWeekDays(weekDays); err != nil {
		return models.Habit{}, err
	}
	h.TimeOfDay = models.TimeOfDay(timeOfDay)
	if remindAt.Valid {
		h.RemindAt = remindAt.String
	}
	if h.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (t *tx) queryHabits(query string, args ...any) ([]models.Habit, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var habits []models.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (t *tx) AddHabit(habit models.Habit) error {
	_, err := t.exec(`
		INSERT INTO habits (`+habitColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.ID, habit.UserID, habit.Title, habit.RepeatsGoal, encodeWeekDays(habit.WeekDays),
		string(habit.TimeOfDay), nullString(habit.RemindAt), utils.FormatTimestamp(habit.CreatedAt))
	return err
}

func (t *tx) GetHabit(userID, habitID string) (models.Habit, error) {
	row := t.tx.QueryRowContext(t.ctx,
		"SELECT "+habitColumns+" FROM habits WHERE id = ? AND user_id = ?", habitID, userID)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound)
	}
	return h, err
}

func (t *tx) GetHabitsForUser(userID string) ([]models.Habit, error) {
	return t.queryHabits(
		"SELECT "+habitColumns+" FROM habits WHERE user_id = ? ORDER BY created_at, id", userID)
}

func (t *tx) GetHabitsForWeekday(weekday int) ([]models.Habit, error) {
	// Comma-delimit both sides so each weekday matches as a whole token.
	return t.queryHabits(`
		SELECT `+habitColumns+` FROM habits
		WHERE instr(',' || week_days || ',', ',' || ? || ',') > 0
		ORDER BY created_at, id`, strconv.Itoa(weekday))
}

func (t *tx) UpdateHabit(habit models.Habit) error {
	return t.execOne(fmt.Errorf("habit %s: %w", habit.ID, apperrors.ErrNotFound), `
		UPDATE habits
		SET title = ?, repeats_goal = ?, week_days = ?, time_of_day = ?, remind_at = ?
		WHERE id = ? AND user_id = ?`,
		habit.Title, habit.RepeatsGoal, encodeWeekDays(habit.WeekDays), string(habit.TimeOfDay),
		nullString(habit.RemindAt), habit.ID, habit.UserID)
}

func (t *tx) DeleteHabit(userID, habitID string) error {
	if _, err := t.exec(`
		DELETE FROM habit_instances
		WHERE habit_id IN (SELECT id FROM habits WHERE id = ? AND user_id = ?)`,
		habitID, userID); err != nil {
		return fmt.Errorf("failed to delete habit instances: %w", err)
	}
	return t.execOne(fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound),
		"DELETE FROM habits WHERE id = ? AND user_id = ?", habitID, userID)
}
