package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	pq "github.com/lib/pq"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
)

const habitColumns = "id, user_id, title, repeats_goal, week_days, time_of_day, remind_at, created_at"

func weekDaysArray(days []int) pq.Int64Array {
	arr := make(pq.Int64Array, len(days))
	for i, d := range days {
		arr[i] = int64(d)
	}
	return arr
}

func scanHabit(row scanner) (models.Habit, error) {
	var h models.Habit
	var weekDays pq.Int64Array
	var timeOfDay string
	var remindAt sql.NullString

	if err := row.Scan(&h.ID, &h.UserID, &h.Title, &h.RepeatsGoal, &weekDays, &timeOfDay, &remindAt, &h.CreatedAt); err != nil {
		return models.Habit{}, err
	}

	h.WeekDays = make([]int, len(weekDays))
	for i, d := range weekDays {
		h.WeekDays[i] = int(d)
	}
	h.TimeOfDay = models.TimeOfDay(timeOfDay)
	if remindAt.Valid {
		h.RemindAt = remindAt.String
	}
	h.CreatedAt = h.CreatedAt.UTC()
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		habit.ID, habit.UserID, habit.Title, habit.RepeatsGoal, weekDaysArray(habit.WeekDays),
		string(habit.TimeOfDay), nullString(habit.RemindAt), habit.CreatedAt.UTC())
	return err
}

func (t *tx) GetHabit(userID, habitID string) (models.Habit, error) {
	row := t.tx.QueryRowContext(t.ctx,
		"SELECT "+habitColumns+" FROM habits WHERE id = $1 AND user_id = $2"+t.lock(), habitID, userID)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Habit{}, fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound)
	}
	return h, err
}

func (t *tx) GetHabitsForUser(userID string) ([]models.Habit, error) {
	return t.queryHabits(
		"SELECT "+habitColumns+" FROM habits WHERE user_id = $1 ORDER BY created_at, id", userID)
}

func (t *tx) GetHabitsForWeekday(weekday int) ([]models.Habit, error) {
	return t.queryHabits(`
		SELECT `+habitColumns+` FROM habits
		WHERE $1 = ANY(week_days)
		ORDER BY created_at, id`, weekday)
}

func (t *tx) UpdateHabit(habit models.Habit) error {
	return t.execOne(fmt.Errorf("habit %s: %w", habit.ID, apperrors.ErrNotFound), `
		UPDATE habits
		SET title = $1, repeats_goal = $2, week_days = $3, time_of_day = $4, remind_at = $5
		WHERE id = $6 AND user_id = $7`,
		habit.Title, habit.RepeatsGoal, weekDaysArray(habit.WeekDays), string(habit.TimeOfDay),
		nullString(habit.RemindAt), habit.ID, habit.UserID)
}

func (t *tx) DeleteHabit(userID, habitID string) error {
	if _, err := t.exec(`
		DELETE FROM habit_instances
		WHERE habit_id IN (SELECT id FROM habits WHERE id = $1 AND user_id = $2)`,
		habitID, userID); err != nil {
		return fmt.Errorf("failed to delete habit instances: %w", err)
	}
	return t.execOne(fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound),
		"DELETE FROM habits WHERE id = $1 AND user_id = $2", habitID, userID)
}
