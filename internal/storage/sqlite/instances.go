package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
	"github.com/julianstephens/habitual/internal/utils"
)

const instanceColumns = "i.id, i.habit_id, i.repeats, i.status, i.created_at"

func scanInstance(row scanner) (models.HabitInstance, error) {
	var inst models.HabitInstance
	var status, createdAt string

	if err := row.Scan(&inst.ID, &inst.HabitID, &inst.Repeats, &status, &createdAt); err != nil {
		return models.HabitInstance{}, err
	}

	inst.Status = models.InstanceStatus(status)
	var err error
	if inst.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return models.HabitInstance{}, err
	}
	return inst, nil
}

func (t *tx) queryInstances(query string, args ...any) ([]models.HabitInstance, error) {
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []models.HabitInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, rows.Err()
}

func (t *tx) AddHabitInstances(instances []models.HabitInstance) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	if len(instances) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(t.ctx, `
		INSERT INTO habit_instances (id, habit_id, repeats, status, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, inst := range instances {
		if _, err := stmt.ExecContext(t.ctx, inst.ID, inst.HabitID, inst.Repeats, string(inst.Status),
			utils.FormatTimestamp(inst.CreatedAt)); err != nil {
			return fmt.Errorf("failed to insert habit instance %s: %w", inst.ID, err)
		}
	}
	return nil
}

func (t *tx) GetHabitInstance(userID, instanceID string) (models.HabitInstance, error) {
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT `+instanceColumns+`
		FROM habit_instances i JOIN habits h ON h.id = i.habit_id
		WHERE i.id = ? AND h.user_id = ?`, instanceID, userID)
	inst, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HabitInstance{}, fmt.Errorf("habit instance %s: %w", instanceID, apperrors.ErrNotFound)
	}
	return inst, err
}

func (t *tx) GetInstancesForHabit(habitID string) ([]models.HabitInstance, error) {
	return t.queryInstances(`
		SELECT `+instanceColumns+` FROM habit_instances i
		WHERE i.habit_id = ?
		ORDER BY i.created_at, i.id`, habitID)
}

func (t *tx) GetInstancesForUser(userID string, from, to time.Time) ([]models.HabitInstance, error) {
	return t.queryInstances(`
		SELECT `+instanceColumns+`
		FROM habit_instances i JOIN habits h ON h.id = i.habit_id
		WHERE h.user_id = ? AND i.created_at BETWEEN ? AND ?
		ORDER BY i.created_at, i.id`,
		userID, utils.FormatTimestamp(from), utils.FormatTimestamp(to))
}

func (t *tx) GetInstancesCreatedBetween(from, to time.Time) ([]models.HabitInstance, error) {
	return t.queryInstances(`
		SELECT `+instanceColumns+` FROM habit_instances i
		WHERE i.created_at BETWEEN ? AND ?
		ORDER BY i.created_at, i.id`,
		utils.FormatTimestamp(from), utils.FormatTimestamp(to))
}

func (t *tx) UpdateHabitInstance(inst models.HabitInstance) error {
	return t.execOne(fmt.Errorf("habit instance %s: %w", inst.ID, apperrors.ErrNotFound),
		"UPDATE habit_instances SET repeats = ?, status = ? WHERE id = ?",
		inst.Repeats, string(inst.Status), inst.ID)
}

func (t *tx) MarkStaleInstancesMissed(cutoff time.Time) (int64, error) {
	res, err := t.exec(`
		UPDATE habit_instances SET status = ?
		WHERE status = ? AND created_at < ?`,
		string(models.StatusMissed), string(models.StatusInProgress), utils.FormatTimestamp(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
