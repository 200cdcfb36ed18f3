package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/storage"
)

const instanceColumns = "i.id, i.habit_id, i.repeats, i.status, i.created_at"

func scanInstance(row scanner) (models.HabitInstance, error) {
	var inst models.HabitInstance
	var status string

	if err := row.Scan(&inst.ID, &inst.HabitID, &inst.Repeats, &status, &inst.CreatedAt); err != nil {
		return models.HabitInstance{}, err
	}
	inst.Status = models.InstanceStatus(status)
	inst.CreatedAt = inst.CreatedAt.UTC()
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
		VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, inst := range instances {
		if _, err := stmt.ExecContext(t.ctx, inst.ID, inst.HabitID, inst.Repeats, string(inst.Status),
			inst.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("failed to insert habit instance %s: %w", inst.ID, err)
		}
	}
	return nil
}

func (t *tx) GetHabitInstance(userID, instanceID string) (models.HabitInstance, error) {
	lock := ""
	if !t.readOnly {
		lock = " FOR UPDATE OF i"
	}
	row := t.tx.QueryRowContext(t.ctx, `
		SELECT `+instanceColumns+`
		FROM habit_instances i JOIN habits h ON h.id = i.habit_id
		WHERE i.id = $1 AND h.user_id = $2`+lock, instanceID, userID)
	inst, err := scanInstance(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.HabitInstance{}, fmt.Errorf("habit instance %s: %w", instanceID, apperrors.ErrNotFound)
	}
	return inst, err
}

func (t *tx) GetInstancesForHabit(habitID string) ([]models.HabitInstance, error) {
	return t.queryInstances(`
		SELECT `+instanceColumns+` FROM habit_instances i
		WHERE i.habit_id = $1
		ORDER BY i.created_at, i.id`, habitID)
}

func (t *tx) GetInstancesForUser(userID string, from, to time.Time) ([]models.HabitInstance, error) {
	return t.queryInstances(`
		SELECT `+instanceColumns+`
		FROM habit_instances i JOIN habits h ON h.id = i.habit_id
		WHERE h.user_id = $1 AND i.created_at BETWEEN $2 AND $3
		ORDER BY i.created_at, i.id`,
		userID, from.UTC(), to.UTC())
}

func (t *tx) GetInstancesCreatedBetween(from, to time.Time) ([]models.HabitInstance, error) {
	return t.queryInstances(`
		SELECT `+instanceColumns+` FROM habit_instances i
		WHERE i.created_at BETWEEN $1 AND $2
		ORDER BY i.created_at, i.id`,
		from.UTC(), to.UTC())
}

func (t *tx) UpdateHabitInstance(inst models.HabitInstance) error {
	return t.execOne(fmt.Errorf("habit instance %s: %w", inst.ID, apperrors.ErrNotFound),
		"UPDATE habit_instances SET repeats = $1, status = $2 WHERE id = $3",
		inst.Repeats, string(inst.Status), inst.ID)
}

func (t *tx) MarkStaleInstancesMissed(cutoff time.Time) (int64, error) {
	res, err := t.exec(`
		UPDATE habit_instances SET status = $1
		WHERE status = $2 AND created_at < $3`,
		string(models.StatusMissed), string(models.StatusInProgress), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
