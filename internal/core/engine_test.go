package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// recordingCommitter implements Committer and records every intent.
type recordingCommitter struct {
	calls    []string
	reorders [][]string
	failOn   map[string]bool
}

func newRecordingCommitter() *recordingCommitter {
	return &recordingCommitter{failOn: make(map[string]bool)}
}

var errCommit = errors.New("commit failed")

func (c *recordingCommitter) record(op, detail string) error {
	c.calls = append(c.calls, op+" "+detail)
	if c.failOn[op] || c.failOn[op+" "+detail] {
		return errCommit
	}
	return nil
}

func (c *recordingCommitter) InsertTask(_ context.Context, t *models.Task) error {
	return c.record("insert", t.ID)
}

func (c *recordingCommitter) PatchTask(_ context.Context, id string, _ models.TaskPatch) error {
	return c.record("patch", id)
}

func (c *recordingCommitter) SetStatusAndOrder(_ context.Context, id string, s models.TaskStatus, o float64) error {
	return c.record("set", fmt.Sprintf("%s %s %g", id, s, o))
}

func (c *recordingCommitter) ReorderPartition(_ context.Context, s models.TaskStatus, ids []string) error {
	c.reorders = append(c.reorders, ids)
	return c.record("reorder", string(s))
}

func (c *recordingCommitter) CommitForward(_ context.Context, originID string, _ *models.Task) error {
	return c.record("forward", originID)
}

func (c *recordingCommitter) InsertPlan(_ context.Context, p *models.WeeklyPlan) error {
	return c.record("plan", p.ID)
}

func (c *recordingCommitter) InsertStep(_ context.Context, s *models.FormulaStep) error {
	return c.record("step", s.ID)
}

func (c *recordingCommitter) ArchiveTasks(_ context.Context, ids []string, _ time.Time) error {
	return c.record("archive", fmt.Sprint(len(ids)))
}

// memoryEventLogger implements EventLogger in memory.
type memoryEventLogger struct {
	events []string
}

func (l *memoryEventLogger) LogEvent(eventType string, _ map[string]any) error {
	l.events = append(l.events, eventType)
	return nil
}

func (l *memoryEventLogger) count(eventType string) int {
	n := 0
	for _, e := range l.events {
		if e == eventType {
			n++
		}
	}
	return n
}

var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

// newTestEngine builds an engine over tasks with a fixed clock and
// sequential ids.
func newTestEngine(t *testing.T, snap *Snapshot) (*Engine, *recordingCommitter, *memoryEventLogger) {
	t.Helper()
	c := newRecordingCommitter()
	l := &memoryEventLogger{}
	e := NewEngine(NewBoard(snap), c, l)
	e.SetClock(func() time.Time { return testNow })
	n := 0
	e.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("gen-%03d", n)
	})
	return e, c, l
}

// task builds a task; created instants follow the id so insertion order is
// stable.
func task(id string, status models.TaskStatus, order float64) *models.Task {
	return &models.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		Order:     order,
		Priority:  models.PriorityNone,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func partitionIDs(b *Board, s models.TaskStatus, v View) []string {
	return taskIDs(b.Partition(s, v))
}
