package models

import (
	"fmt"
	"time"
)

// TaskStatus represents the column a task lives in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusComplete   TaskStatus = "complete"
)

// Statuses lists every status in board column order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusComplete}

// ParseTaskStatus converts a user-supplied string into a TaskStatus.
// "in-progress" is accepted as an alias of in_progress.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch s {
	case "todo":
		return StatusTodo, nil
	case "in_progress", "in-progress":
		return StatusInProgress, nil
	case "complete":
		return StatusComplete, nil
	default:
		return "", fmt.Errorf("invalid status %q: must be one of todo, in_progress, complete", s)
	}
}

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusComplete:
		return true
	default:
		return false
	}
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityNone   Priority = "none"
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority converts a user-supplied string into a Priority.
// The empty string maps to PriorityNone.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "", "none":
		return PriorityNone, nil
	case "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority %q: must be one of none, low, medium, high", s)
	}
}

// Rank returns the sort rank of the priority; lower ranks sort first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	case PriorityNone:
		return 3
	default:
		return 3
	}
}

// Frequency is the cadence of a recurring task.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency converts a user-supplied string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	default:
		return "", fmt.Errorf("invalid frequency %q: must be one of daily, weekly, monthly", s)
	}
}

// RecurrenceRule describes how a template task repeats.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency" yaml:"frequency"`
	StartDate time.Time `json:"start_date" yaml:"start_date"`
}

// Task is the unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Bugged      bool       `json:"bugged"`
	Status      TaskStatus `json:"status"`
	Order       float64    `json:"order"`
	Priority    Priority   `json:"priority"`

	WeeklyPlanID  *string `json:"weekly_plan_id,omitempty"`
	FormulaStepID *string `json:"formula_step_id,omitempty"`

	DueAt      *time.Time `json:"due_at,omitempty"`
	ReminderAt *time.Time `json:"reminder_at,omitempty"`

	ForwardedFromTaskID *string `json:"forwarded_from_task_id,omitempty"`
	ForwardedToTaskID   *string `json:"forwarded_to_task_id,omitempty"`

	Recurrence         *RecurrenceRule `json:"recurrence,omitempty"`
	RecurrenceSourceID *string         `json:"recurrence_source_id,omitempty"`
	OccurrenceAt       *time.Time      `json:"occurrence_at,omitempty"`

	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Superseded reports whether the task has been forwarded to a clone.
func (t *Task) Superseded() bool {
	return t.ForwardedToTaskID != nil
}

// Deleted reports whether the task has been soft deleted.
func (t *Task) Deleted() bool {
	return t.DeletedAt != nil
}

// Archived reports whether the task has been archived.
func (t *Task) Archived() bool {
	return t.ArchivedAt != nil
}

// Overdue reports whether the task is still open and its due instant has
// passed at now.
func (t *Task) Overdue(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now) && t.Status != StatusComplete && !t.Deleted()
}

// InPlan reports whether the task is scoped to the given weekly plan.
func (t *Task) InPlan(planID string) bool {
	return t.WeeklyPlanID != nil && *t.WeeklyPlanID == planID
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.WeeklyPlanID = cloneString(t.WeeklyPlanID)
	c.FormulaStepID = cloneString(t.FormulaStepID)
	c.ForwardedFromTaskID = cloneString(t.ForwardedFromTaskID)
	c.ForwardedToTaskID = cloneString(t.ForwardedToTaskID)
	c.RecurrenceSourceID = cloneString(t.RecurrenceSourceID)
	c.DueAt = cloneTime(t.DueAt)
	c.ReminderAt = cloneTime(t.ReminderAt)
	c.OccurrenceAt = cloneTime(t.OccurrenceAt)
	c.ArchivedAt = cloneTime(t.ArchivedAt)
	c.DeletedAt = cloneTime(t.DeletedAt)
	if t.Recurrence != nil {
		r := *t.Recurrence
		c.Recurrence = &r
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }
