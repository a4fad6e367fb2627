package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

const taskColumns = `id, title, description, category, bugged, status, sort_order, priority,
	weekly_plan_id, formula_step_id, due_at, reminder_at,
	forwarded_from_task_id, forwarded_to_task_id,
	recurrence_frequency, recurrence_start, recurrence_source_id, occurrence_at,
	archived_at, deleted_at, created_at, updated_at`

// LoadSnapshot reads every task, plan and step. Tasks come back in
// insertion order. The snapshot is always complete.
func (db *DB) LoadSnapshot(ctx context.Context) (*core.Snapshot, error) {
	tasks, err := db.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	plans, err := db.ListPlans(ctx)
	if err != nil {
		return nil, err
	}
	steps, err := db.ListSteps(ctx)
	if err != nil {
		return nil, err
	}
	return &core.Snapshot{Tasks: tasks, Plans: plans, Steps: steps, Complete: true}, nil
}

// GetTask returns the stored task or ErrNotFound.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	tasks, err := db.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
	}
	return tasks[0], nil
}

func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(rows *sql.Rows) (*models.Task, error) {
	var (
		t                                   models.Task
		bugged                              int
		status, priority                    string
		planID, stepID, fromID, toID        sql.NullString
		dueAt, reminderAt                   sql.NullString
		recFreq, recStart, recSource, occAt sql.NullString
		archivedAt, deletedAt               sql.NullString
		createdAt, updatedAt                string
	)
	err := rows.Scan(
		&t.ID, &t.Title, &t.Description, &t.Category, &bugged, &status, &t.Order, &priority,
		&planID, &stepID, &dueAt, &reminderAt,
		&fromID, &toID,
		&recFreq, &recStart, &recSource, &occAt,
		&archivedAt, &deletedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	t.Bugged = bugged == 1
	t.Status = models.TaskStatus(status)
	t.Priority = models.Priority(priority)
	t.WeeklyPlanID = stringPtr(planID)
	t.FormulaStepID = stringPtr(stepID)
	t.ForwardedFromTaskID = stringPtr(fromID)
	t.ForwardedToTaskID = stringPtr(toID)
	t.RecurrenceSourceID = stringPtr(recSource)

	times := []struct {
		src sql.NullString
		dst **time.Time
	}{
		{dueAt, &t.DueAt},
		{reminderAt, &t.ReminderAt},
		{occAt, &t.OccurrenceAt},
		{archivedAt, &t.ArchivedAt},
		{deletedAt, &t.DeletedAt},
	}
	for _, f := range times {
		v, err := parseNullTime(f.src)
		if err != nil {
			return nil, fmt.Errorf("scanning task %s: %w", t.ID, err)
		}
		*f.dst = v
	}

	if recFreq.Valid {
		start, err := parseTime(recStart.String)
		if err != nil {
			return nil, fmt.Errorf("scanning task %s recurrence: %w", t.ID, err)
		}
		t.Recurrence = &models.RecurrenceRule{Frequency: models.Frequency(recFreq.String), StartDate: start}
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("scanning task %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("scanning task %s: %w", t.ID, err)
	}
	return &t, nil
}

// InsertTask writes a new task row.
func (db *DB) InsertTask(ctx context.Context, t *models.Task) error {
	if err := insertTask(ctx, db.DB, t); err != nil {
		return fmt.Errorf("inserting task %s: %w", t.ID, err)
	}
	return nil
}

func insertTask(ctx context.Context, exec executor, t *models.Task) error {
	var recFreq, recStart any
	if t.Recurrence != nil {
		recFreq = string(t.Recurrence.Frequency)
		recStart = formatTime(t.Recurrence.StartDate)
	}
	bugged := 0
	if t.Bugged {
		bugged = 1
	}
	priority := t.Priority
	if priority == "" {
		priority = models.PriorityNone
	}

	_, err := exec.ExecContext(ctx,
		"INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, t.Description, t.Category, bugged, string(t.Status), t.Order, string(priority),
		nullableString(t.WeeklyPlanID), nullableString(t.FormulaStepID), nullableTime(t.DueAt), nullableTime(t.ReminderAt),
		nullableString(t.ForwardedFromTaskID), nullableString(t.ForwardedToTaskID),
		recFreq, recStart, nullableString(t.RecurrenceSourceID), nullableTime(t.OccurrenceAt),
		nullableTime(t.ArchivedAt), nullableTime(t.DeletedAt), formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	return err
}

// patchSet accumulates the SET clause of a partial update.
type patchSet struct {
	cols []string
	args []any
}

func (s *patchSet) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

// patchColumn adds col when p was sent. An explicit null writes onNull.
func patchColumn[T any](s *patchSet, col string, p models.Patch[T], conv func(T) any, onNull any) {
	if !p.IsSet() {
		return
	}
	if v, ok := p.Value(); ok {
		s.add(col, conv(v))
		return
	}
	s.add(col, onNull)
}

func asString[T ~string](v T) any { return string(v) }

func asTime(v time.Time) any { return formatTime(v) }

// PatchTask writes the fields set in patch. Explicit nulls clear optional
// columns; text columns fall back to their empty value.
func (db *DB) PatchTask(ctx context.Context, taskID string, patch models.TaskPatch) error {
	if patch.Empty() {
		return nil
	}
	var s patchSet
	patchColumn(&s, "title", patch.Title, asString[string], nil)
	patchColumn(&s, "description", patch.Description, asString[string], "")
	patchColumn(&s, "category", patch.Category, asString[string], "")
	patchColumn(&s, "bugged", patch.Bugged, func(b bool) any {
		if b {
			return 1
		}
		return 0
	}, nil)
	patchColumn(&s, "status", patch.Status, asString[models.TaskStatus], nil)
	patchColumn(&s, "sort_order", patch.Order, func(f float64) any { return f }, nil)
	patchColumn(&s, "priority", patch.Priority, asString[models.Priority], string(models.PriorityNone))
	patchColumn(&s, "formula_step_id", patch.FormulaStepID, asString[string], nil)
	patchColumn(&s, "due_at", patch.DueAt, asTime, nil)
	patchColumn(&s, "reminder_at", patch.ReminderAt, asTime, nil)
	patchColumn(&s, "forwarded_to_task_id", patch.ForwardedToTaskID, asString[string], nil)
	patchColumn(&s, "archived_at", patch.ArchivedAt, asTime, nil)
	patchColumn(&s, "deleted_at", patch.DeletedAt, asTime, nil)
	s.add("updated_at", formatTime(db.now()))

	query := "UPDATE tasks SET " + strings.Join(s.cols, ", ") + " WHERE id = ?"
	res, err := db.ExecContext(ctx, query, append(s.args, taskID)...)
	if err != nil {
		return fmt.Errorf("patching task %s: %w", taskID, err)
	}
	return expectOneRow(res, "patching task "+taskID)
}

// SetStatusAndOrder moves a single task.
func (db *DB) SetStatusAndOrder(ctx context.Context, taskID string, status models.TaskStatus, order float64) error {
	res, err := db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, sort_order = ?, updated_at = ? WHERE id = ?",
		string(status), order, formatTime(db.now()), taskID,
	)
	if err != nil {
		return fmt.Errorf("moving task %s: %w", taskID, err)
	}
	return expectOneRow(res, "moving task "+taskID)
}

// ReorderPartition renumbers orderedIDs to 0..n-1 in status within one
// transaction.
func (db *DB) ReorderPartition(ctx context.Context, status models.TaskStatus, orderedIDs []string) error {
	now := formatTime(db.now())
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for i, id := range orderedIDs {
			res, err := tx.ExecContext(ctx,
				"UPDATE tasks SET status = ?, sort_order = ?, updated_at = ? WHERE id = ?",
				string(status), float64(i), now, id,
			)
			if err != nil {
				return fmt.Errorf("reordering %s: %w", status, err)
			}
			if err := expectOneRow(res, "reordering task "+id); err != nil {
				return err
			}
		}
		return nil
	})
}

// CommitForward inserts clone and points the origin at it. Both writes
// land or neither does; an origin that was already forwarded fails.
func (db *DB) CommitForward(ctx context.Context, originID string, clone *models.Task) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if err := insertTask(ctx, tx, clone); err != nil {
			return fmt.Errorf("inserting forwarded clone of %s: %w", originID, err)
		}
		res, err := tx.ExecContext(ctx,
			"UPDATE tasks SET forwarded_to_task_id = ?, updated_at = ? WHERE id = ? AND forwarded_to_task_id IS NULL",
			clone.ID, formatTime(db.now()), originID,
		)
		if err != nil {
			return fmt.Errorf("marking %s forwarded: %w", originID, err)
		}
		return expectOneRow(res, "marking "+originID+" forwarded")
	})
}

// ArchiveTasks stamps archived_at on every id that is not yet archived.
func (db *DB) ArchiveTasks(ctx context.Context, taskIDs []string, at time.Time) error {
	if len(taskIDs) == 0 {
		return nil
	}
	stamp := formatTime(at)
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range taskIDs {
			if _, err := tx.ExecContext(ctx,
				"UPDATE tasks SET archived_at = ?, updated_at = ? WHERE id = ? AND archived_at IS NULL",
				stamp, stamp, id,
			); err != nil {
				return fmt.Errorf("archiving task %s: %w", id, err)
			}
		}
		return nil
	})
}
