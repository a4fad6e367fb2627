package core

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// Sentinel errors for per-item rejections. Callers match them with errors.Is.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrPlanNotFound       = errors.New("weekly plan not found")
	ErrTaskComplete       = errors.New("task is complete")
	ErrTaskDeleted        = errors.New("task is deleted")
	ErrAlreadyForwarded   = errors.New("task has already been forwarded")
	ErrNotInPartition     = errors.New("task is not in the target partition")
	ErrInvalidPermutation = errors.New("ordered ids are not a permutation of the partition")
	ErrNotArchived        = errors.New("task is not archived")
	ErrDuplicatePlan      = errors.New("week already has a plan")
	ErrInvalidInput       = errors.New("invalid input")
)

// ViewKind selects which tasks a board view shows.
type ViewKind int

const (
	// ViewDefault shows every current task across all scopes.
	ViewDefault ViewKind = iota
	// ViewMain shows only unscoped tasks.
	ViewMain
	// ViewPlan shows one weekly plan's tasks, archived ones included.
	ViewPlan
)

// View is a scope over the board.
type View struct {
	Kind   ViewKind
	PlanID string
	// IncludeSuperseded keeps forwarded origins in a plan view, for
	// historical printing of past plans.
	IncludeSuperseded bool
}

// DefaultView returns the cross-scope current view.
func DefaultView() View { return View{Kind: ViewDefault} }

// MainView returns the unscoped main board view.
func MainView() View { return View{Kind: ViewMain} }

// PlanView returns the view of a single weekly plan.
func PlanView(planID string) View { return View{Kind: ViewPlan, PlanID: planID} }

// ParseView builds a View from user input. A non-empty planID selects the
// plan view when kind is empty.
func ParseView(kind, planID string) (View, error) {
	switch kind {
	case "":
		if planID != "" {
			return PlanView(planID), nil
		}
		return DefaultView(), nil
	case "default":
		return DefaultView(), nil
	case "main":
		return MainView(), nil
	case "plan":
		if planID == "" {
			return View{}, fmt.Errorf("%w: plan view requires a plan id", ErrInvalidInput)
		}
		return PlanView(planID), nil
	default:
		return View{}, fmt.Errorf("%w: view %q must be one of default, main, plan", ErrInvalidInput, kind)
	}
}

// Includes reports whether t is visible in the view.
func (v View) Includes(t *models.Task) bool {
	if t.Deleted() {
		return false
	}
	switch v.Kind {
	case ViewDefault:
		return !t.Archived() && !t.Superseded()
	case ViewMain:
		return t.WeeklyPlanID == nil && !t.Archived() && !t.Superseded()
	case ViewPlan:
		return t.InPlan(v.PlanID) && (v.IncludeSuperseded || !t.Superseded())
	default:
		return false
	}
}

// ActivePlanID returns the single active plan scope, or nil.
func (v View) ActivePlanID() *string {
	if v.Kind != ViewPlan {
		return nil
	}
	id := v.PlanID
	return &id
}

// String renders the view for logs and headers.
func (v View) String() string {
	switch v.Kind {
	case ViewDefault:
		return "default"
	case ViewMain:
		return "main"
	case ViewPlan:
		return "plan:" + v.PlanID
	default:
		return "unknown"
	}
}

// Board is the in-memory working set the engine mutates. It is not safe for
// concurrent use; callers serialise access.
type Board struct {
	tasks    map[string]*models.Task
	plans    map[string]*models.WeeklyPlan
	steps    map[string]*models.FormulaStep
	complete bool
}

// NewBoard builds a working set from a store snapshot. The snapshot's
// records are copied so the board owns its state.
func NewBoard(snap *Snapshot) *Board {
	b := &Board{
		tasks: make(map[string]*models.Task),
		plans: make(map[string]*models.WeeklyPlan),
		steps: make(map[string]*models.FormulaStep),
	}
	if snap == nil {
		return b
	}
	for _, t := range snap.Tasks {
		b.tasks[t.ID] = t.Clone()
	}
	for _, p := range snap.Plans {
		cp := *p
		b.plans[p.ID] = &cp
	}
	for _, s := range snap.Steps {
		cs := *s
		b.steps[s.ID] = &cs
	}
	b.complete = snap.Complete
	return b
}

// Complete reports whether the board was loaded from a complete snapshot.
func (b *Board) Complete() bool { return b.complete }

// Task returns the task with the given id, or nil.
func (b *Board) Task(id string) *models.Task {
	return b.tasks[id]
}

// Tasks returns every task, deleted ones included, in insertion order.
func (b *Board) Tasks() []*models.Task {
	out := make([]*models.Task, 0, len(b.tasks))
	for _, t := range b.tasks {
		out = append(out, t)
	}
	slices.SortFunc(out, compareInsertion)
	return out
}

// Plan returns the weekly plan with the given id, or nil.
func (b *Board) Plan(id string) *models.WeeklyPlan {
	return b.plans[id]
}

// Plans returns every plan ordered by WeekStart.
func (b *Board) Plans() []*models.WeeklyPlan {
	out := make([]*models.WeeklyPlan, 0, len(b.plans))
	for _, p := range b.plans {
		out = append(out, p)
	}
	slices.SortFunc(out, func(x, y *models.WeeklyPlan) int {
		if c := x.WeekStart.Compare(y.WeekStart); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})
	return out
}

// PlanForWeek returns the plan whose WeekStart equals weekStart, or nil.
func (b *Board) PlanForWeek(weekStart time.Time) *models.WeeklyPlan {
	for _, p := range b.Plans() {
		if p.WeekStart.Equal(weekStart) {
			return p
		}
	}
	return nil
}

// Steps returns the formula steps ordered by rank, highest first.
func (b *Board) Steps() []*models.FormulaStep {
	out := make([]*models.FormulaStep, 0, len(b.steps))
	for _, s := range b.steps {
		out = append(out, s)
	}
	slices.SortFunc(out, func(x, y *models.FormulaStep) int {
		if x.Rank != y.Rank {
			return y.Rank - x.Rank
		}
		return strings.Compare(x.ID, y.ID)
	})
	return out
}

// SortContext builds the comparator context for a view at time now.
func (b *Board) SortContext(now time.Time, v View) SortContext {
	ranks := make(map[string]int, len(b.steps))
	for id, s := range b.steps {
		ranks[id] = s.Rank
	}
	starts := make(map[string]time.Time, len(b.plans))
	for id, p := range b.plans {
		starts[id] = p.WeekStart
	}
	return SortContext{
		Now:          now,
		StepRanks:    ranks,
		PlanStarts:   starts,
		ActivePlanID: v.ActivePlanID(),
	}
}

// Visible returns the tasks in the view, in insertion order.
func (b *Board) Visible(v View) []*models.Task {
	var out []*models.Task
	for _, t := range b.Tasks() {
		if v.Includes(t) {
			out = append(out, t)
		}
	}
	return out
}

// Partition returns the view's tasks with the given status in manual order.
func (b *Board) Partition(status models.TaskStatus, v View) []*models.Task {
	var out []*models.Task
	for _, t := range b.tasks {
		if t.Status == status && v.Includes(t) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(x, y *models.Task) int {
		if c := CompareManual(x, y); c != 0 {
			return c
		}
		return compareInsertion(x, y)
	})
	return out
}

// NextOrder returns an order that places a task last in the status
// partition of every view.
func (b *Board) NextOrder(status models.TaskStatus) float64 {
	found := false
	max := 0.0
	for _, t := range b.tasks {
		if t.Status != status || t.Deleted() {
			continue
		}
		if !found || t.Order > max {
			max = t.Order
			found = true
		}
	}
	if !found {
		return 0
	}
	return max + 1
}

// insert adds a task to the working set.
func (b *Board) insert(t *models.Task) {
	b.tasks[t.ID] = t
}

// remove drops a task from the working set.
func (b *Board) remove(id string) {
	delete(b.tasks, id)
}

// addPlan adds a plan to the working set.
func (b *Board) addPlan(p *models.WeeklyPlan) {
	b.plans[p.ID] = p
}

// setOrders assigns order = index to the given tasks.
func setOrders(tasks []*models.Task) {
	for i, t := range tasks {
		t.Order = float64(i)
	}
}

// compareInsertion is the stable secondary key: creation instant, then id.
func compareInsertion(x, y *models.Task) int {
	if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(x.ID, y.ID)
}

// taskIDs returns the ids of tasks in order.
func taskIDs(tasks []*models.Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// validatePermutation checks that orderedIDs names every task in partition
// exactly once.
func validatePermutation(partition []*models.Task, orderedIDs []string) error {
	members := make(map[string]bool, len(partition))
	for _, t := range partition {
		members[t.ID] = true
	}
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !members[id] {
			return fmt.Errorf("%w: %s", ErrNotInPartition, id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s listed twice", ErrInvalidPermutation, id)
		}
		seen[id] = true
	}
	if len(seen) != len(members) {
		return fmt.Errorf("%w: got %d ids, partition has %d", ErrInvalidPermutation, len(seen), len(members))
	}
	return nil
}
