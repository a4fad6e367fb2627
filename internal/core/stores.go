package core

import (
	"context"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// Snapshot is everything the engine reads for one user's board.
// Complete is false when the store could only return a partial set; alert
// keys are never garbage collected against an incomplete snapshot.
type Snapshot struct {
	Tasks    []*models.Task
	Plans    []*models.WeeklyPlan
	Steps    []*models.FormulaStep
	Complete bool
}

// TaskStore is the read side of the task record store.
// This interface is defined locally in core to avoid importing storage.
type TaskStore interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Committer receives the write intents produced by the engine. A persistence
// collaborator commits them durably; the engine has already applied them to
// its in-memory working set.
type Committer interface {
	InsertTask(ctx context.Context, t *models.Task) error
	PatchTask(ctx context.Context, taskID string, patch models.TaskPatch) error
	SetStatusAndOrder(ctx context.Context, taskID string, status models.TaskStatus, order float64) error
	// ReorderPartition assigns status and order = index to every id in
	// orderedIDs.
	ReorderPartition(ctx context.Context, status models.TaskStatus, orderedIDs []string) error
	// CommitForward writes the clone and the origin's forward pointer
	// atomically.
	CommitForward(ctx context.Context, originID string, clone *models.Task) error
	InsertPlan(ctx context.Context, p *models.WeeklyPlan) error
	InsertStep(ctx context.Context, s *models.FormulaStep) error
	ArchiveTasks(ctx context.Context, taskIDs []string, at time.Time) error
}
