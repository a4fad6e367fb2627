package core

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

// SortMode selects a display ordering for a status partition.
type SortMode string

const (
	SortManual          SortMode = "manual"
	SortPriorityFormula SortMode = "priority_formula"
	SortFormula         SortMode = "formula"
	SortOverdue         SortMode = "overdue"
)

// SortModes lists every sort mode.
var SortModes = []SortMode{SortManual, SortPriorityFormula, SortFormula, SortOverdue}

// ParseSortMode converts a user-supplied string into a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	switch s {
	case "", "manual":
		return SortManual, nil
	case "priority_formula", "priority":
		return SortPriorityFormula, nil
	case "formula":
		return SortFormula, nil
	case "overdue":
		return SortOverdue, nil
	default:
		return "", fmt.Errorf("invalid sort mode %q: must be one of manual, priority_formula, formula, overdue", s)
	}
}

// SortContext is the read-only data the comparators consult besides the
// tasks themselves.
type SortContext struct {
	Now        time.Time
	StepRanks  map[string]int
	PlanStarts map[string]time.Time
	// ActivePlanID is set when a single weekly plan scope is displayed; the
	// chronological plan key is skipped in that case.
	ActivePlanID *string
}

// CompareManual orders by Order ascending.
func CompareManual(a, b *models.Task) int {
	return cmp.Compare(a.Order, b.Order)
}

// ComparePriorityFormula orders by priority, then formula step rank
// descending, then plan week start when no plan is active, then Order.
func ComparePriorityFormula(a, b *models.Task, sc SortContext) int {
	if c := cmp.Compare(a.Priority.Rank(), b.Priority.Rank()); c != 0 {
		return c
	}
	return CompareFormula(a, b, sc)
}

// CompareFormula is ComparePriorityFormula without the priority key.
func CompareFormula(a, b *models.Task, sc SortContext) int {
	ra, oka := sc.stepRank(a)
	rb, okb := sc.stepRank(b)
	switch {
	case oka && okb:
		if c := cmp.Compare(rb, ra); c != 0 {
			return c
		}
	case oka:
		return -1
	case okb:
		return 1
	}
	if sc.ActivePlanID == nil {
		if c := sc.comparePlanStart(a, b); c != 0 {
			return c
		}
	}
	return CompareManual(a, b)
}

// CompareOverdue puts overdue open tasks first (most overdue first), then
// tasks with a due date (nearest first), then tasks with none.
func CompareOverdue(a, b *models.Task, sc SortContext) int {
	ga, gb := sc.dueGroup(a), sc.dueGroup(b)
	if c := cmp.Compare(ga, gb); c != 0 {
		return c
	}
	if ga != dueGroupNone {
		if c := a.DueAt.Compare(*b.DueAt); c != 0 {
			return c
		}
	}
	return CompareManual(a, b)
}

// Compare dispatches to the comparator for mode.
func (m SortMode) Compare(a, b *models.Task, sc SortContext) int {
	switch m {
	case SortManual:
		return CompareManual(a, b)
	case SortPriorityFormula:
		return ComparePriorityFormula(a, b, sc)
	case SortFormula:
		return CompareFormula(a, b, sc)
	case SortOverdue:
		return CompareOverdue(a, b, sc)
	default:
		return CompareManual(a, b)
	}
}

// SortTasks returns a sorted copy of tasks. The input is not modified. Ties
// after the mode's keys fall back to creation instant and then id, so the
// result is the same for the same input on every run.
func SortTasks(tasks []*models.Task, mode SortMode, sc SortContext) []*models.Task {
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b *models.Task) int {
		if c := mode.Compare(a, b, sc); c != 0 {
			return c
		}
		return compareInsertion(a, b)
	})
	return out
}

const (
	dueGroupOverdue = iota
	dueGroupUpcoming
	dueGroupNone
)

func (sc SortContext) dueGroup(t *models.Task) int {
	if t.DueAt == nil {
		return dueGroupNone
	}
	if t.Status != models.StatusComplete && t.DueAt.Before(sc.Now) {
		return dueGroupOverdue
	}
	return dueGroupUpcoming
}

// stepRank returns the task's formula step rank. Unassigned and unknown
// steps report false and sort lowest.
func (sc SortContext) stepRank(t *models.Task) (int, bool) {
	if t.FormulaStepID == nil {
		return 0, false
	}
	r, ok := sc.StepRanks[*t.FormulaStepID]
	return r, ok
}

// comparePlanStart orders earlier plans first. Unscoped tasks, and tasks
// whose plan is not known, sort after scoped ones.
func (sc SortContext) comparePlanStart(a, b *models.Task) int {
	sa, oka := sc.planStart(a)
	sb, okb := sc.planStart(b)
	switch {
	case oka && okb:
		if c := sa.Compare(sb); c != 0 {
			return c
		}
		return strings.Compare(*a.WeeklyPlanID, *b.WeeklyPlanID)
	case oka:
		return -1
	case okb:
		return 1
	default:
		return 0
	}
}

func (sc SortContext) planStart(t *models.Task) (time.Time, bool) {
	if t.WeeklyPlanID == nil {
		return time.Time{}, false
	}
	s, ok := sc.PlanStarts[*t.WeeklyPlanID]
	return s, ok
}
