package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: weekboard, Property 7: Metrics Match Events
// For any mix of board events, EventCount is the total and each counter
// matches the number of events of its type.
func TestProperty07_MetricsMatchEvents(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		el, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		types := []string{"task.created", "task.moved", "task.forwarded", "alert.fired", "diagnostic.stale_reference"}
		want := make(map[string]int)
		base := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
		n := rapid.IntRange(1, 20).Draw(rt, "numEvents")
		for i := 0; i < n; i++ {
			eventType := rapid.SampledFrom(types).Draw(rt, fmt.Sprintf("type_%d", i))
			offset := rapid.IntRange(0, 168).Draw(rt, fmt.Sprintf("hours_%d", i))
			want[eventType]++
			event := Event{
				Time:  base.Add(time.Duration(offset) * time.Hour),
				Level: LevelFor(eventType),
				Type:  eventType,
				Data:  map[string]any{"task_id": fmt.Sprintf("t%d", i), "kind": "overdue", "status": "todo"},
			}
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		m, err := NewMetricsCalculator(el).Calculate(base.Add(-time.Hour))
		if err != nil {
			t.Fatalf("calculating metrics: %v", err)
		}
		if m.EventCount != n {
			rt.Errorf("EventCount = %d, want %d", m.EventCount, n)
		}
		if m.TasksCreated != want["task.created"] {
			rt.Errorf("TasksCreated = %d, want %d", m.TasksCreated, want["task.created"])
		}
		if m.TasksMoved != want["task.moved"] || m.MovesByStatus["todo"] != want["task.moved"] {
			rt.Errorf("TasksMoved = %d, want %d", m.TasksMoved, want["task.moved"])
		}
		if m.TasksForwarded != want["task.forwarded"] {
			rt.Errorf("TasksForwarded = %d, want %d", m.TasksForwarded, want["task.forwarded"])
		}
		if m.AlertsFired != want["alert.fired"] || m.AlertsByKind["overdue"] != want["alert.fired"] {
			rt.Errorf("AlertsFired = %d, want %d", m.AlertsFired, want["alert.fired"])
		}
		if m.Diagnostics != want["diagnostic.stale_reference"] {
			rt.Errorf("Diagnostics = %d, want %d", m.Diagnostics, want["diagnostic.stale_reference"])
		}
	})
}
