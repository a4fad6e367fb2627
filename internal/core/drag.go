package core

import (
	"context"
	"fmt"
	"slices"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// DragState is the drag controller's state.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
	DragResolving
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragDragging:
		return "dragging"
	case DragResolving:
		return "resolving"
	default:
		return "unknown"
	}
}

// DropTarget is something under the pointer: either a card (TaskID set) or
// a status column (Status set).
type DropTarget struct {
	TaskID string
	Status models.TaskStatus
}

// CardTarget returns a card-level drop target.
func CardTarget(taskID string) DropTarget { return DropTarget{TaskID: taskID} }

// ColumnTarget returns a column-level drop target.
func ColumnTarget(status models.TaskStatus) DropTarget { return DropTarget{Status: status} }

// DropOutcome describes what a finished gesture did.
type DropOutcome int

const (
	// DropNone means the gesture changed nothing.
	DropNone DropOutcome = iota
	// DropMovedAcross means the task changed column mid-gesture.
	DropMovedAcross
	// DropReordered means the origin partition was reordered on drop.
	DropReordered
)

func (o DropOutcome) String() string {
	switch o {
	case DropNone:
		return "none"
	case DropMovedAcross:
		return "moved"
	case DropReordered:
		return "reordered"
	default:
		return "unknown"
	}
}

// AppliedMove is one optimistic cross-column placement.
type AppliedMove struct {
	TaskID string
	Status models.TaskStatus
	Index  int
}

// DragController turns pointer collisions into status and order mutations
// for one board view. Mutations are applied immediately and committed
// without rollback.
type DragController struct {
	engine *Engine
	view   View

	state        DragState
	active       string
	originStatus models.TaskStatus
	lastApplied  *AppliedMove
	history      []AppliedMove
	suppressed   int
}

// NewDrag returns a drag controller for the view.
func (e *Engine) NewDrag(v View) *DragController {
	return &DragController{engine: e, view: v}
}

// State returns the controller's current state.
func (d *DragController) State() DragState { return d.state }

// Active returns the id of the task being dragged, or "".
func (d *DragController) Active() string { return d.active }

// History returns the moves applied during the current gesture.
func (d *DragController) History() []AppliedMove { return slices.Clone(d.history) }

// Suppressed returns how many redundant updates the current gesture skipped.
func (d *DragController) Suppressed() int { return d.suppressed }

// Start begins a gesture on taskID.
func (d *DragController) Start(taskID string) error {
	if d.state != DragIdle {
		return fmt.Errorf("starting drag of %s: %w: drag of %s already in progress", taskID, ErrInvalidInput, d.active)
	}
	t := d.engine.board.Task(taskID)
	if t == nil || !d.view.Includes(t) {
		logStale(d.engine.logger, "drag_start", taskID)
		return fmt.Errorf("starting drag: %w: %s", ErrTaskNotFound, taskID)
	}
	d.state = DragDragging
	d.active = taskID
	d.originStatus = t.Status
	d.lastApplied = nil
	d.history = nil
	d.suppressed = 0
	return nil
}

// Over handles a pointer-collision update. When the resolved target lies in
// a different column than the task, the task is moved there at once.
func (d *DragController) Over(ctx context.Context, targets []DropTarget) {
	if d.state != DragDragging {
		return
	}
	t := d.activeTask()
	if t == nil {
		d.reset()
		return
	}
	target, ok := resolveTarget(targets)
	if !ok {
		return
	}
	status, ok := d.targetStatus(target)
	if !ok {
		return
	}

	dest := d.partitionWithout(status, t.ID)
	index := len(dest)
	if target.TaskID != "" {
		if i := slices.IndexFunc(dest, func(x *models.Task) bool { return x.ID == target.TaskID }); i >= 0 {
			index = i
		}
	}

	move := AppliedMove{TaskID: t.ID, Status: status, Index: index}
	if d.lastApplied != nil && *d.lastApplied == move {
		d.suppressed++
		return
	}
	if status == t.Status {
		return
	}

	d.place(ctx, t, status, dest, index)
	d.lastApplied = &move
	d.history = append(d.history, move)
	logEvent(d.engine.logger, "task.moved", map[string]any{
		"task_id": t.ID,
		"status":  string(status),
		"index":   index,
		"order":   t.Order,
	})
}

// End finishes the gesture. A drop on another card of the origin column
// reorders that column; every other drop leaves the board as the last Over
// left it.
func (d *DragController) End(ctx context.Context, targets []DropTarget) DropOutcome {
	if d.state != DragDragging {
		return DropNone
	}
	d.state = DragResolving
	defer d.reset()

	moved := len(d.history) > 0
	outcome := DropNone
	if moved {
		outcome = DropMovedAcross
	}

	t := d.activeTask()
	if t == nil {
		return outcome
	}
	target, ok := resolveTarget(targets)
	if !ok || target.TaskID == "" || target.TaskID == t.ID {
		return outcome
	}
	over := d.engine.board.Task(target.TaskID)
	if over == nil || !d.view.Includes(over) {
		logStale(d.engine.logger, "drag_end", target.TaskID)
		return outcome
	}
	if over.Status != d.originStatus || t.Status != d.originStatus {
		return outcome
	}

	part := d.engine.board.Partition(t.Status, d.view)
	from := slices.IndexFunc(part, func(x *models.Task) bool { return x.ID == t.ID })
	to := slices.IndexFunc(part, func(x *models.Task) bool { return x.ID == over.ID })
	if from < 0 || to < 0 || from == to {
		return outcome
	}
	reordered := arrayMove(part, from, to)
	setOrders(reordered)
	t.UpdatedAt = d.engine.now()

	ids := taskIDs(reordered)
	logEvent(d.engine.logger, "task.reordered", map[string]any{
		"task_id": t.ID,
		"status":  string(t.Status),
		"from":    from,
		"to":      to,
	})
	if err := d.engine.committer.ReorderPartition(ctx, t.Status, ids); err != nil {
		logPersistFailure(d.engine.logger, "drag_reorder", err, map[string]any{"task_id": t.ID})
	}
	return DropReordered
}

// Move runs a whole gesture that ends on target: the path the CLI, HTTP
// and MCP surfaces use.
func (e *Engine) Move(ctx context.Context, v View, taskID string, target DropTarget) (DropOutcome, error) {
	if target.TaskID == "" && !target.Status.Valid() {
		return DropNone, fmt.Errorf("moving task %s: %w: target status %q", taskID, ErrInvalidInput, target.Status)
	}
	d := e.NewDrag(v)
	if err := d.Start(taskID); err != nil {
		return DropNone, fmt.Errorf("moving task %s: %w", taskID, err)
	}
	targets := []DropTarget{target}
	d.Over(ctx, targets)
	return d.End(ctx, targets), nil
}

// place puts t into dest at index under status. A midpoint order is used
// when one fits strictly between the neighbours; otherwise the destination
// partition is renumbered.
func (d *DragController) place(ctx context.Context, t *models.Task, status models.TaskStatus, dest []*models.Task, index int) {
	t.UpdatedAt = d.engine.now()
	if order, ok := syntheticOrder(dest, index); ok {
		t.Status = status
		t.Order = order
		if err := d.engine.committer.SetStatusAndOrder(ctx, t.ID, status, order); err != nil {
			logPersistFailure(d.engine.logger, "drag_move", err, map[string]any{"task_id": t.ID})
		}
		return
	}

	t.Status = status
	placed := slices.Insert(slices.Clone(dest), index, t)
	setOrders(placed)
	if err := d.engine.committer.ReorderPartition(ctx, status, taskIDs(placed)); err != nil {
		logPersistFailure(d.engine.logger, "drag_move", err, map[string]any{"task_id": t.ID})
	}
}

func (d *DragController) activeTask() *models.Task {
	t := d.engine.board.Task(d.active)
	if t == nil || t.Deleted() {
		logStale(d.engine.logger, "drag", d.active)
		return nil
	}
	return t
}

// targetStatus maps a drop target to the column it lies in.
func (d *DragController) targetStatus(target DropTarget) (models.TaskStatus, bool) {
	if target.TaskID != "" {
		over := d.engine.board.Task(target.TaskID)
		if over == nil || !d.view.Includes(over) {
			return "", false
		}
		return over.Status, true
	}
	return target.Status, target.Status.Valid()
}

func (d *DragController) partitionWithout(status models.TaskStatus, taskID string) []*models.Task {
	part := d.engine.board.Partition(status, d.view)
	return slices.DeleteFunc(part, func(x *models.Task) bool { return x.ID == taskID })
}

func (d *DragController) reset() {
	d.state = DragIdle
	d.active = ""
	d.lastApplied = nil
}

// resolveTarget picks the card under the pointer when there is one, falling
// back to a column.
func resolveTarget(targets []DropTarget) (DropTarget, bool) {
	for _, t := range targets {
		if t.TaskID != "" {
			return t, true
		}
	}
	for _, t := range targets {
		if t.Status != "" {
			return t, true
		}
	}
	return DropTarget{}, false
}

// syntheticOrder returns an order that ranks a task at index among dest.
func syntheticOrder(dest []*models.Task, index int) (float64, bool) {
	n := len(dest)
	switch {
	case n == 0:
		return 0, true
	case index >= n:
		o := dest[n-1].Order + 1
		return o, o > dest[n-1].Order
	case index == 0:
		o := dest[0].Order - 1
		return o, o < dest[0].Order
	default:
		prev, next := dest[index-1].Order, dest[index].Order
		mid := prev + (next-prev)/2
		return mid, prev < mid && mid < next
	}
}

// arrayMove removes the element at from and inserts it at to.
func arrayMove(tasks []*models.Task, from, to int) []*models.Task {
	out := slices.Clone(tasks)
	t := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, t)
}
