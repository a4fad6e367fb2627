package core

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// Destination is the scope forwarded tasks land in: an existing plan, or a
// plan to create for NewWeekStart first.
type Destination struct {
	PlanID       string
	NewWeekStart *time.Time
	NewTitle     string
}

// ExistingPlan returns a destination naming an existing plan.
func ExistingPlan(planID string) Destination { return Destination{PlanID: planID} }

// NewPlan returns a destination that creates a plan for weekStart.
func NewPlan(weekStart time.Time, title string) Destination {
	return Destination{NewWeekStart: &weekStart, NewTitle: title}
}

// ForwardItem is the outcome for one source task.
type ForwardItem struct {
	SourceID string       `json:"source_id"`
	Clone    *models.Task `json:"clone,omitempty"`
	Err      error        `json:"-"`
}

// ForwardReport collects the per-task outcomes of a forward.
type ForwardReport struct {
	PlanID string        `json:"plan_id"`
	Items  []ForwardItem `json:"items"`
}

// Clones returns the clones created.
func (r *ForwardReport) Clones() []*models.Task {
	var out []*models.Task
	for _, it := range r.Items {
		if it.Clone != nil {
			out = append(out, it.Clone)
		}
	}
	return out
}

// Failed returns the items that were rejected or could not be committed.
func (r *ForwardReport) Failed() []ForwardItem {
	var out []ForwardItem
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// Forward clones each source task into the destination plan and links the
// pair. Each task forwards fully or not at all; a failure on one task does
// not stop the others. The returned error is non-nil only when the
// destination itself is unusable.
func (e *Engine) Forward(ctx context.Context, sourceIDs []string, dest Destination) (*ForwardReport, error) {
	plan, err := e.resolveDestination(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("forwarding tasks: %w", err)
	}

	report := &ForwardReport{PlanID: plan.ID}
	seen := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		clone, err := e.forwardOne(ctx, id, plan)
		report.Items = append(report.Items, ForwardItem{SourceID: id, Clone: clone, Err: err})
	}
	return report, nil
}

func (e *Engine) resolveDestination(ctx context.Context, dest Destination) (*models.WeeklyPlan, error) {
	if dest.NewWeekStart != nil {
		if p := e.board.PlanForWeek(dest.NewWeekStart.UTC()); p != nil {
			return p, nil
		}
		return e.CreatePlan(ctx, dest.NewTitle, *dest.NewWeekStart)
	}
	if dest.PlanID == "" {
		return nil, fmt.Errorf("%w: destination plan is required", ErrInvalidInput)
	}
	p := e.board.Plan(dest.PlanID)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, dest.PlanID)
	}
	return p, nil
}

func (e *Engine) forwardOne(ctx context.Context, sourceID string, plan *models.WeeklyPlan) (*models.Task, error) {
	src := e.board.Task(sourceID)
	if err := checkForwardable(src, sourceID); err != nil {
		if src == nil {
			logStale(e.logger, "forward", sourceID)
		} else {
			logEvent(e.logger, "diagnostic.invalid_input", map[string]any{
				"op":      "forward",
				"task_id": sourceID,
				"error":   err.Error(),
			})
		}
		return nil, err
	}

	now := e.now()
	clone := &models.Task{
		ID:                  e.newID(),
		Title:               src.Title,
		Description:         src.Description,
		Category:            src.Category,
		Bugged:              src.Bugged,
		Status:              src.Status,
		Order:               e.board.NextOrder(src.Status),
		Priority:            src.Priority,
		WeeklyPlanID:        models.StringPtr(plan.ID),
		ForwardedFromTaskID: models.StringPtr(src.ID),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if src.Recurrence != nil {
		r := *src.Recurrence
		clone.Recurrence = &r
	}

	if err := e.committer.CommitForward(ctx, src.ID, clone); err != nil {
		logPersistFailure(e.logger, "forward", err, map[string]any{"task_id": src.ID})
		return nil, fmt.Errorf("forwarding task %s: %w", src.ID, err)
	}
	src.ForwardedToTaskID = models.StringPtr(clone.ID)
	src.UpdatedAt = now
	e.board.insert(clone)

	logEvent(e.logger, "task.forwarded", map[string]any{
		"task_id":  src.ID,
		"clone_id": clone.ID,
		"plan_id":  plan.ID,
	})
	return clone, nil
}

func checkForwardable(src *models.Task, id string) error {
	switch {
	case src == nil:
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	case src.Deleted():
		return fmt.Errorf("%w: %s", ErrTaskDeleted, id)
	case src.Status == models.StatusComplete:
		return fmt.Errorf("%w: %s", ErrTaskComplete, id)
	case src.Superseded():
		return fmt.Errorf("%w: %s -> %s", ErrAlreadyForwarded, id, *src.ForwardedToTaskID)
	default:
		return nil
	}
}
