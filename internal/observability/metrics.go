package observability

import (
	"fmt"
	"strings"
	"time"
)

// Metrics holds board activity derived from the event log.
type Metrics struct {
	TasksCreated     int            `json:"tasks_created"`
	TasksMoved       int            `json:"tasks_moved"`
	MovesByStatus    map[string]int `json:"moves_by_status"`
	Reorders         int            `json:"reorders"`
	TasksForwarded   int            `json:"tasks_forwarded"`
	TasksArchived    int            `json:"tasks_archived"`
	TasksRestored    int            `json:"tasks_restored"`
	RecurringSpawned int            `json:"recurring_spawned"`
	AlertsFired      int            `json:"alerts_fired"`
	AlertsByKind     map[string]int `json:"alerts_by_kind"`
	AlertsDismissed  int            `json:"alerts_dismissed"`
	Diagnostics      int            `json:"diagnostics"`
	PersistFailures  int            `json:"persist_failures"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator that reads from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates all events since the given time.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		MovesByStatus: make(map[string]int),
		AlertsByKind:  make(map[string]int),
	}
	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			m.TasksCreated++
		case "task.moved":
			m.TasksMoved++
			if status, ok := event.Data["status"].(string); ok {
				m.MovesByStatus[status]++
			}
		case "task.reordered":
			m.Reorders++
		case "task.forwarded":
			m.TasksForwarded++
		case "task.archived":
			// One event covers a whole archive pass.
			if ids, ok := event.Data["task_ids"].([]any); ok {
				m.TasksArchived += len(ids)
			} else if ids, ok := event.Data["task_ids"].([]string); ok {
				m.TasksArchived += len(ids)
			}
		case "task.restored":
			m.TasksRestored++
		case "recurrence.spawned":
			m.RecurringSpawned++
		case "alert.fired":
			m.AlertsFired++
			if kind, ok := event.Data["kind"].(string); ok {
				m.AlertsByKind[kind]++
			}
		case "alert.dismissed":
			m.AlertsDismissed++
		case "diagnostic.persist_failed":
			m.Diagnostics++
			m.PersistFailures++
		default:
			if strings.HasPrefix(event.Type, "diagnostic.") {
				m.Diagnostics++
			}
		}
	}

	return m, nil
}
