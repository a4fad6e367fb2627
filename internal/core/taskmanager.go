package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// NewTaskInput holds the fields a caller can set when creating a task.
type NewTaskInput struct {
	Title         string
	Description   string
	Category      string
	Bugged        bool
	Priority      models.Priority
	WeeklyPlanID  *string
	FormulaStepID *string
	DueAt         *time.Time
	ReminderAt    *time.Time
	Recurrence    *models.RecurrenceRule
}

// AddTask creates a task in todo, last in its partition.
func (e *Engine) AddTask(ctx context.Context, in NewTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("adding task: %w: title is required", ErrInvalidInput)
	}
	if in.WeeklyPlanID != nil && e.board.Plan(*in.WeeklyPlanID) == nil {
		return nil, fmt.Errorf("adding task: %w: %s", ErrPlanNotFound, *in.WeeklyPlanID)
	}
	if in.FormulaStepID != nil && e.board.steps[*in.FormulaStepID] == nil {
		return nil, fmt.Errorf("adding task: %w: unknown formula step %s", ErrInvalidInput, *in.FormulaStepID)
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityNone
	}

	now := e.now()
	t := &models.Task{
		ID:          e.newID(),
		Title:       title,
		Description: in.Description,
		Category:    in.Category,
		Bugged:      in.Bugged,
		Status:      models.StatusTodo,
		Order:       e.board.NextOrder(models.StatusTodo),
		Priority:    priority,
		Recurrence:  in.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.WeeklyPlanID != nil {
		t.WeeklyPlanID = models.StringPtr(*in.WeeklyPlanID)
	}
	if in.FormulaStepID != nil {
		t.FormulaStepID = models.StringPtr(*in.FormulaStepID)
	}
	if in.DueAt != nil {
		t.DueAt = models.TimePtr(in.DueAt.UTC())
	}
	if in.ReminderAt != nil {
		t.ReminderAt = models.TimePtr(in.ReminderAt.UTC())
	}

	if err := e.committer.InsertTask(ctx, t); err != nil {
		return nil, fmt.Errorf("adding task: %w", err)
	}
	e.board.insert(t)
	logEvent(e.logger, "task.created", map[string]any{
		"task_id": t.ID,
		"title":   t.Title,
	})
	return t, nil
}

// GetTask returns a task by id, deleted tasks excluded.
func (e *Engine) GetTask(taskID string) (*models.Task, error) {
	t := e.board.Task(taskID)
	if t == nil || t.Deleted() {
		return nil, fmt.Errorf("getting task %s: %w", taskID, ErrTaskNotFound)
	}
	return t, nil
}

// Column is one status partition of a rendered board.
type Column struct {
	Status models.TaskStatus `json:"status"`
	Tasks  []*models.Task    `json:"tasks"`
}

// Columns returns the view's partitions in column order, each sorted by mode.
func (e *Engine) Columns(v View, mode SortMode) []Column {
	sc := e.board.SortContext(e.now(), v)
	cols := make([]Column, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		cols = append(cols, Column{
			Status: s,
			Tasks:  SortTasks(e.board.Partition(s, v), mode, sc),
		})
	}
	return cols
}

// UpdateTask applies a partial update. A status change without an explicit
// order places the task last in its new partition.
func (e *Engine) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) (*models.Task, error) {
	t := e.board.Task(taskID)
	if t == nil {
		logStale(e.logger, "update", taskID)
		return nil, fmt.Errorf("updating task %s: %w", taskID, ErrTaskNotFound)
	}
	if patch.Empty() {
		return t, nil
	}
	if patch.ArchivedAt.IsSet() {
		return nil, fmt.Errorf("updating task %s: %w: archived_at is set by archive and cleared by restore", taskID, ErrInvalidInput)
	}
	if patch.ForwardedToTaskID.IsSet() {
		return nil, fmt.Errorf("updating task %s: %w: forwarded_to_task_id is set only by forwarding", taskID, ErrInvalidInput)
	}
	if v, ok := patch.Title.Value(); ok && strings.TrimSpace(v) == "" {
		return nil, fmt.Errorf("updating task %s: %w: title cannot be empty", taskID, ErrInvalidInput)
	}
	if patch.Title.IsNull() || patch.Status.IsNull() || patch.Order.IsNull() || patch.Bugged.IsNull() {
		return nil, fmt.Errorf("updating task %s: %w: title, status, order and bugged cannot be cleared", taskID, ErrInvalidInput)
	}
	if s, ok := patch.Status.Value(); ok {
		if !s.Valid() {
			return nil, fmt.Errorf("updating task %s: %w: status %q", taskID, ErrInvalidInput, s)
		}
		if s != t.Status && !patch.Order.IsSet() {
			patch.Order = models.Set(e.board.NextOrder(s))
		}
	}
	if id, ok := patch.FormulaStepID.Value(); ok && e.board.steps[id] == nil {
		return nil, fmt.Errorf("updating task %s: %w: unknown formula step %s", taskID, ErrInvalidInput, id)
	}

	if err := e.committer.PatchTask(ctx, taskID, patch); err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}
	patch.Apply(t)
	t.UpdatedAt = e.now()
	logEvent(e.logger, "task.updated", map[string]any{
		"task_id": taskID,
	})
	return t, nil
}

// DeleteTask soft deletes a task.
func (e *Engine) DeleteTask(ctx context.Context, taskID string) error {
	t := e.board.Task(taskID)
	if t == nil || t.Deleted() {
		logStale(e.logger, "delete", taskID)
		return fmt.Errorf("deleting task %s: %w", taskID, ErrTaskNotFound)
	}
	if _, err := e.UpdateTask(ctx, taskID, models.TaskPatch{DeletedAt: models.Set(e.now())}); err != nil {
		return err
	}
	logEvent(e.logger, "task.deleted", map[string]any{"task_id": taskID})
	return nil
}

// ClearReminder clears a task's reminder with an explicit null so the store
// drops the stored value.
func (e *Engine) ClearReminder(ctx context.Context, taskID string) error {
	if e.board.Task(taskID) == nil {
		logStale(e.logger, "clear_reminder", taskID)
		return nil
	}
	_, err := e.UpdateTask(ctx, taskID, models.TaskPatch{ReminderAt: models.Null[time.Time]()})
	return err
}

// ReorderPartition sets the manual order of one status partition of the
// view. orderedIDs must be a permutation of the partition; otherwise nothing
// changes.
func (e *Engine) ReorderPartition(ctx context.Context, status models.TaskStatus, v View, orderedIDs []string) error {
	if !status.Valid() {
		return fmt.Errorf("reordering partition: %w: status %q", ErrInvalidInput, status)
	}
	part := e.board.Partition(status, v)
	if err := validatePermutation(part, orderedIDs); err != nil {
		logEvent(e.logger, "diagnostic.invalid_input", map[string]any{
			"op":     "reorder",
			"status": string(status),
			"error":  err.Error(),
		})
		return fmt.Errorf("reordering %s partition: %w", status, err)
	}

	ordered := make([]*models.Task, len(orderedIDs))
	for i, id := range orderedIDs {
		ordered[i] = e.board.Task(id)
	}
	if sameSequence(part, orderedIDs) && strictlyIncreasing(part) {
		return nil
	}
	setOrders(ordered)
	logEvent(e.logger, "task.reordered", map[string]any{
		"status": string(status),
		"view":   v.String(),
		"count":  len(ordered),
	})
	if err := e.committer.ReorderPartition(ctx, status, orderedIDs); err != nil {
		logPersistFailure(e.logger, "reorder", err, map[string]any{"status": string(status)})
		return fmt.Errorf("reordering %s partition: %w", status, err)
	}
	return nil
}

// CreatePlan adds a weekly plan. Two plans cannot share a week start.
func (e *Engine) CreatePlan(ctx context.Context, title string, weekStart time.Time) (*models.WeeklyPlan, error) {
	weekStart = weekStart.UTC()
	if existing := e.board.PlanForWeek(weekStart); existing != nil {
		return nil, fmt.Errorf("creating plan: %w: week %s already has plan %s", ErrDuplicatePlan, weekStart.Format(time.DateOnly), existing.ID)
	}
	if strings.TrimSpace(title) == "" {
		title = "Week of " + weekStart.Format(time.DateOnly)
	}
	p := &models.WeeklyPlan{
		ID:        e.newID(),
		Title:     title,
		WeekStart: weekStart,
		CreatedAt: e.now(),
	}
	if err := e.committer.InsertPlan(ctx, p); err != nil {
		return nil, fmt.Errorf("creating plan: %w", err)
	}
	e.board.addPlan(p)
	logEvent(e.logger, "plan.created", map[string]any{
		"plan_id":    p.ID,
		"week_start": weekStart.Format(time.RFC3339),
	})
	return p, nil
}

// AddStep adds a formula step.
func (e *Engine) AddStep(ctx context.Context, name string, rank int) (*models.FormulaStep, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("adding step: %w: name is required", ErrInvalidInput)
	}
	s := &models.FormulaStep{ID: e.newID(), Name: name, Rank: rank}
	if err := e.committer.InsertStep(ctx, s); err != nil {
		return nil, fmt.Errorf("adding step: %w", err)
	}
	e.board.steps[s.ID] = s
	return s, nil
}

func sameSequence(tasks []*models.Task, ids []string) bool {
	if len(tasks) != len(ids) {
		return false
	}
	for i, t := range tasks {
		if t.ID != ids[i] {
			return false
		}
	}
	return true
}

func strictlyIncreasing(tasks []*models.Task) bool {
	for i := 1; i < len(tasks); i++ {
		if tasks[i].Order <= tasks[i-1].Order {
			return false
		}
	}
	return true
}
