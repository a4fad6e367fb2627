package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine runs the ordering and lifecycle operations over one user's board.
// It is single writer: callers that share an Engine across goroutines must
// serialise access.
type Engine struct {
	board     *Board
	committer Committer
	logger    EventLogger
	now       func() time.Time
	newID     func() string
}

// NewEngine creates an Engine over board. Store writes go to committer;
// logger may be nil.
func NewEngine(board *Board, committer Committer, logger EventLogger) *Engine {
	return &Engine{
		board:     board,
		committer: committer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

// LoadEngine reads a snapshot from store and builds an Engine over it.
func LoadEngine(ctx context.Context, store TaskStore, committer Committer, logger EventLogger) (*Engine, error) {
	snap, err := store.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	return NewEngine(NewBoard(snap), committer, logger), nil
}

// SetClock overrides the engine's time source.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetIDGenerator overrides the engine's id source.
func (e *Engine) SetIDGenerator(newID func() string) { e.newID = newID }

// Board returns the working set.
func (e *Engine) Board() *Board { return e.board }

// Now returns the engine clock's current instant.
func (e *Engine) Now() time.Time { return e.now() }

// RefreshResult reports what a board-load pass changed.
type RefreshResult struct {
	Cutoff   time.Time
	Archived []string
	Spawned  []string
}

// Refresh runs the board-load transitions: archive against the current
// period's start, then spawn due recurring instances.
func (e *Engine) Refresh(ctx context.Context, weekStartsOn time.Weekday, loc *time.Location) (*RefreshResult, error) {
	now := e.now()
	cutoff := PeriodStart(now, weekStartsOn, loc)
	archived, err := e.Archive(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("refreshing board: %w", err)
	}
	spawned, err := e.SpawnRecurring(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("refreshing board: %w", err)
	}
	return &RefreshResult{Cutoff: cutoff, Archived: archived, Spawned: taskIDs(spawned)}, nil
}
