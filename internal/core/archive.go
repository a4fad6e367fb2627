package core

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// PeriodStart returns midnight in loc of the most recent weekStartsOn at or
// before now. A nil loc means UTC.
func PeriodStart(now time.Time, weekStartsOn time.Weekday, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	back := (int(local.Weekday()) - int(weekStartsOn) + 7) % 7
	day := local.AddDate(0, 0, -back)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
}

// Archive marks completed tasks whose period ended before cutoff as
// archived and returns their ids. Tasks in a plan are judged by the plan's
// week start; unscoped tasks by their creation instant. Running it twice
// with the same cutoff archives nothing the second time.
func (e *Engine) Archive(ctx context.Context, cutoff time.Time) ([]string, error) {
	var due []*models.Task
	for _, t := range e.board.Tasks() {
		if t.Status != models.StatusComplete || t.Archived() || t.Deleted() {
			continue
		}
		var anchor time.Time
		if t.WeeklyPlanID != nil {
			p := e.board.Plan(*t.WeeklyPlanID)
			if p == nil {
				logEvent(e.logger, "diagnostic.unknown_plan", map[string]any{
					"op":      "archive",
					"task_id": t.ID,
					"plan_id": *t.WeeklyPlanID,
				})
				continue
			}
			anchor = p.WeekStart
		} else {
			anchor = t.CreatedAt
		}
		if anchor.Before(cutoff) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}

	now := e.now()
	ids := taskIDs(due)
	for _, t := range due {
		t.ArchivedAt = models.TimePtr(now)
		t.UpdatedAt = now
	}
	logEvent(e.logger, "task.archived", map[string]any{
		"task_ids": ids,
		"cutoff":   cutoff.UTC().Format(time.RFC3339),
	})
	if err := e.committer.ArchiveTasks(ctx, ids, now); err != nil {
		logPersistFailure(e.logger, "archive", err, map[string]any{"count": len(ids)})
		return ids, fmt.Errorf("archiving tasks: %w", err)
	}
	return ids, nil
}

// Restore clears a task's archived mark and moves it to the end of todo so
// the next archive pass leaves it alone.
func (e *Engine) Restore(ctx context.Context, taskID string) (*models.Task, error) {
	t := e.board.Task(taskID)
	if t == nil || t.Deleted() {
		logStale(e.logger, "restore", taskID)
		return nil, fmt.Errorf("restoring task %s: %w", taskID, ErrTaskNotFound)
	}
	if !t.Archived() {
		return nil, fmt.Errorf("restoring task %s: %w", taskID, ErrNotArchived)
	}

	patch := models.TaskPatch{
		ArchivedAt: models.Null[time.Time](),
		Status:     models.Set(models.StatusTodo),
		Order:      models.Set(e.board.NextOrder(models.StatusTodo)),
	}
	if err := e.committer.PatchTask(ctx, taskID, patch); err != nil {
		return nil, fmt.Errorf("restoring task %s: %w", taskID, err)
	}
	patch.Apply(t)
	t.UpdatedAt = e.now()
	logEvent(e.logger, "task.restored", map[string]any{"task_id": taskID})
	return t, nil
}
