package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertKind distinguishes the time-based alert triggers.
type AlertKind string

const (
	AlertOverdue  AlertKind = "overdue"
	AlertReminder AlertKind = "reminder"
)

// ParseAlertKind converts a user-supplied string into an AlertKind.
func ParseAlertKind(s string) (AlertKind, error) {
	switch s {
	case "overdue":
		return AlertOverdue, nil
	case "reminder":
		return AlertReminder, nil
	default:
		return "", fmt.Errorf("invalid alert kind %q: must be overdue or reminder", s)
	}
}

// OverdueKey builds the composite key for an overdue alert.
func OverdueKey(taskID string, dueAt time.Time) string {
	return taskID + ":" + dueAt.UTC().Format(time.RFC3339)
}

// ReminderKey builds the composite key for a reminder alert.
func ReminderKey(taskID string) string {
	return taskID
}

// KeyTaskID extracts the task id from a composite key of either kind.
func KeyTaskID(kind AlertKind, key string) string {
	switch kind {
	case AlertOverdue:
		if i := strings.Index(key, ":"); i >= 0 {
			return key[:i]
		}
		return key
	case AlertReminder:
		return key
	default:
		return key
	}
}

// Alert is a fired time-based alert for a single task.
type Alert struct {
	Kind      AlertKind `json:"kind"`
	Key       string    `json:"key"`
	TaskID    string    `json:"task_id"`
	Title     string    `json:"title"`
	TriggerAt time.Time `json:"trigger_at"`
	FiredAt   time.Time `json:"fired_at"`
}

// Message renders a one-line description of the alert.
func (a Alert) Message() string {
	switch a.Kind {
	case AlertOverdue:
		return fmt.Sprintf("task %q is overdue (due %s)", a.Title, a.TriggerAt.UTC().Format("2006-01-02 15:04 UTC"))
	case AlertReminder:
		return fmt.Sprintf("reminder for task %q", a.Title)
	default:
		return fmt.Sprintf("alert for task %q", a.Title)
	}
}

// AlertRecord is one entry of the persisted alert ledger. A record without
// DismissedAt has fired and is still awaiting dismissal.
type AlertRecord struct {
	Kind        AlertKind  `yaml:"kind" json:"kind"`
	Key         string     `yaml:"key" json:"key"`
	TaskID      string     `yaml:"task_id" json:"task_id"`
	Title       string     `yaml:"title,omitempty" json:"title,omitempty"`
	TriggerAt   time.Time  `yaml:"trigger_at" json:"trigger_at"`
	FiredAt     time.Time  `yaml:"fired_at" json:"fired_at"`
	DismissedAt *time.Time `yaml:"dismissed_at,omitempty" json:"dismissed_at,omitempty"`
}

// Dismissed reports whether the alert has been dismissed.
func (r AlertRecord) Dismissed() bool { return r.DismissedAt != nil }

// Alert returns the fired alert the record describes.
func (r AlertRecord) Alert() Alert {
	return Alert{Kind: r.Kind, Key: r.Key, TaskID: r.TaskID, Title: r.Title, TriggerAt: r.TriggerAt, FiredAt: r.FiredAt}
}
