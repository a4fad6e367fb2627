package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

const shortIDLen = 8

// whenLayouts are the accepted forms for user-supplied instants, tried in
// order. Layouts without a zone are read in the board's location.
var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseWhen reads an instant from the command line. "none" yields nil so
// callers can clear a field.
func parseWhen(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			u := t.UTC()
			return &u, nil
		}
	}
	return nil, fmt.Errorf("invalid time %q (use RFC3339, YYYY-MM-DD HH:MM or YYYY-MM-DD)", s)
}

// resolveTaskID expands a unique id prefix to the full task id.
func resolveTaskID(prefix string) (string, error) {
	if t := Engine.Board().Task(prefix); t != nil {
		return t.ID, nil
	}
	var matches []string
	for _, t := range Engine.Board().Tasks() {
		if !t.Deleted() && strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", core.ErrTaskNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("task id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}

func resolveTaskIDs(prefixes []string) ([]string, error) {
	ids := make([]string, len(prefixes))
	for i, p := range prefixes {
		id, err := resolveTaskID(p)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func columnTitle(status models.TaskStatus) string {
	switch status {
	case models.StatusTodo:
		return "TODO"
	case models.StatusInProgress:
		return "IN PROGRESS"
	case models.StatusComplete:
		return "COMPLETE"
	default:
		return strings.ToUpper(string(status))
	}
}

// taskLine renders one task as a single line of board output.
func taskLine(t *models.Task, now time.Time, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s", shortID(t.ID), t.Title)
	if t.Priority != models.PriorityNone && t.Priority != "" {
		fmt.Fprintf(&b, " [%s]", t.Priority)
	}
	if t.Bugged {
		b.WriteString(" [bug]")
	}
	if t.Category != "" {
		fmt.Fprintf(&b, " #%s", t.Category)
	}
	if t.DueAt != nil {
		due := t.DueAt.In(loc).Format("Mon Jan 2 15:04")
		if t.Overdue(now) {
			fmt.Fprintf(&b, " (OVERDUE %s)", due)
		} else {
			fmt.Fprintf(&b, " (due %s)", due)
		}
	}
	if t.ReminderAt != nil {
		fmt.Fprintf(&b, " (remind %s)", t.ReminderAt.In(loc).Format("Mon Jan 2 15:04"))
	}
	if t.Recurrence != nil {
		fmt.Fprintf(&b, " (every %s)", t.Recurrence.Frequency)
	}
	if t.Archived() {
		b.WriteString(" (archived)")
	}
	return b.String()
}

func printColumns(w io.Writer, cols []core.Column, now time.Time, loc *time.Location) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d)\n", columnTitle(col.Status), len(col.Tasks))
		if len(col.Tasks) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, t := range col.Tasks {
			fmt.Fprintf(w, "  %s\n", taskLine(t, now, loc))
		}
	}
}
