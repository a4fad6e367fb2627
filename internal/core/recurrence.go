package core

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// LatestOccurrence returns the most recent occurrence of rule at or before
// now. It reports false when now is before the rule's start.
func LatestOccurrence(rule models.RecurrenceRule, now time.Time) (time.Time, bool) {
	start := rule.StartDate.UTC()
	now = now.UTC()
	if now.Before(start) {
		return time.Time{}, false
	}
	switch rule.Frequency {
	case models.FrequencyDaily:
		return stepBack(start, now, int(now.Sub(start)/(24*time.Hour)), func(n int) time.Time {
			return start.AddDate(0, 0, n)
		}), true
	case models.FrequencyWeekly:
		return stepBack(start, now, int(now.Sub(start)/(7*24*time.Hour)), func(n int) time.Time {
			return start.AddDate(0, 0, 7*n)
		}), true
	case models.FrequencyMonthly:
		months := (now.Year()-start.Year())*12 + int(now.Month()-start.Month())
		return stepBack(start, now, months, func(n int) time.Time {
			return addMonthsClamped(start, n)
		}), true
	default:
		return time.Time{}, false
	}
}

func stepBack(start, now time.Time, n int, at func(int) time.Time) time.Time {
	for ; n > 0; n-- {
		if occ := at(n); !occ.After(now) {
			return occ
		}
	}
	return start
}

// addMonthsClamped adds n months, keeping the day within the target month.
func addMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	day := min(t.Day(), last)
	return first.AddDate(0, 0, day-1)
}

// SpawnRecurring creates the latest due instance of every recurring
// template that does not have one yet. Missed earlier occurrences are not
// backfilled.
func (e *Engine) SpawnRecurring(ctx context.Context, now time.Time) ([]*models.Task, error) {
	spawnedFor := make(map[string]map[int64]bool)
	for _, t := range e.board.Tasks() {
		if t.RecurrenceSourceID == nil || t.OccurrenceAt == nil {
			continue
		}
		src := *t.RecurrenceSourceID
		if spawnedFor[src] == nil {
			spawnedFor[src] = make(map[int64]bool)
		}
		spawnedFor[src][t.OccurrenceAt.UTC().UnixNano()] = true
	}

	var spawned []*models.Task
	var errs []error
	for _, tmpl := range e.board.Tasks() {
		if tmpl.Recurrence == nil || tmpl.RecurrenceSourceID != nil || tmpl.Deleted() || tmpl.Superseded() {
			continue
		}
		occ, ok := LatestOccurrence(*tmpl.Recurrence, now)
		if !ok || spawnedFor[tmpl.ID][occ.UnixNano()] {
			continue
		}

		created := e.now()
		inst := &models.Task{
			ID:                 e.newID(),
			Title:              tmpl.Title,
			Description:        tmpl.Description,
			Category:           tmpl.Category,
			Bugged:             tmpl.Bugged,
			Status:             models.StatusTodo,
			Order:              e.board.NextOrder(models.StatusTodo),
			Priority:           tmpl.Priority,
			RecurrenceSourceID: models.StringPtr(tmpl.ID),
			OccurrenceAt:       models.TimePtr(occ),
			CreatedAt:          created,
			UpdatedAt:          created,
		}
		if tmpl.WeeklyPlanID != nil {
			inst.WeeklyPlanID = models.StringPtr(*tmpl.WeeklyPlanID)
		}
		if err := e.committer.InsertTask(ctx, inst); err != nil {
			logPersistFailure(e.logger, "spawn_recurring", err, map[string]any{"template_id": tmpl.ID})
			errs = append(errs, fmt.Errorf("spawning instance of %s: %w", tmpl.ID, err))
			continue
		}
		e.board.insert(inst)
		spawned = append(spawned, inst)
		logEvent(e.logger, "recurrence.spawned", map[string]any{
			"template_id":   tmpl.ID,
			"task_id":       inst.ID,
			"occurrence_at": occ.Format(time.RFC3339),
		})
	}
	if len(errs) > 0 {
		return spawned, fmt.Errorf("spawning recurring tasks: %d failed: %w", len(errs), errs[0])
	}
	return spawned, nil
}
