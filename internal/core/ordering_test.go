package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortManual, false},
		{"manual", SortManual, false},
		{"priority", SortPriorityFormula, false},
		{"priority_formula", SortPriorityFormula, false},
		{"formula", SortFormula, false},
		{"overdue", SortOverdue, false},
		{"alphabetical", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSortMode(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSortMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortTasks_PriorityFormulaDeterminism(t *testing.T) {
	high := task("t-high", models.StatusTodo, 0)
	high.Priority = models.PriorityHigh
	high.FormulaStepID = models.StringPtr("s2")
	none := task("t-none", models.StatusTodo, 1)
	none.Priority = models.PriorityNone
	medium := task("t-medium", models.StatusTodo, 2)
	medium.Priority = models.PriorityMedium
	medium.FormulaStepID = models.StringPtr("s5")

	sc := SortContext{Now: testNow, StepRanks: map[string]int{"s2": 2, "s5": 5}}
	input := []*models.Task{high, none, medium}
	want := "[t-high t-medium t-none]"

	for i := 0; i < 5; i++ {
		got := taskIDs(SortTasks(input, SortPriorityFormula, sc))
		if fmt.Sprint(got) != want {
			t.Fatalf("run %d: got %v, want %s", i, got, want)
		}
	}
	if fmt.Sprint(taskIDs(input)) != "[t-high t-none t-medium]" {
		t.Error("SortTasks mutated its input")
	}
}

func TestCompareFormula_RankDescendingUnassignedLast(t *testing.T) {
	a := task("a", models.StatusTodo, 0)
	a.FormulaStepID = models.StringPtr("low")
	b := task("b", models.StatusTodo, 1)
	b.FormulaStepID = models.StringPtr("high")
	c := task("c", models.StatusTodo, 2)
	d := task("d", models.StatusTodo, 3)
	d.FormulaStepID = models.StringPtr("deleted-step")

	sc := SortContext{StepRanks: map[string]int{"low": 1, "high": 9}}
	got := taskIDs(SortTasks([]*models.Task{c, d, a, b}, SortFormula, sc))
	if fmt.Sprint(got) != "[b a c d]" {
		t.Errorf("got %v, want [b a c d]", got)
	}
}

func TestCompareFormula_PlanStartOnlyWithoutActivePlan(t *testing.T) {
	early := task("early", models.StatusTodo, 5)
	early.WeeklyPlanID = models.StringPtr("p1")
	late := task("late", models.StatusTodo, 0)
	late.WeeklyPlanID = models.StringPtr("p2")
	main := task("main", models.StatusTodo, -1)

	starts := map[string]time.Time{
		"p1": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"p2": time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	input := []*models.Task{late, main, early}

	got := taskIDs(SortTasks(input, SortFormula, SortContext{PlanStarts: starts}))
	if fmt.Sprint(got) != "[early late main]" {
		t.Errorf("cross-scope: got %v, want [early late main]", got)
	}

	active := "p1"
	got = taskIDs(SortTasks(input, SortFormula, SortContext{PlanStarts: starts, ActivePlanID: &active}))
	if fmt.Sprint(got) != "[main late early]" {
		t.Errorf("active plan: got %v, want manual order [main late early]", got)
	}
}

func TestCompareOverdue_Groups(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	veryLate := task("very-late", models.StatusTodo, 9)
	veryLate.DueAt = models.TimePtr(now.Add(-5 * day))
	late := task("late", models.StatusTodo, 0)
	late.DueAt = models.TimePtr(now.Add(-1 * day))
	doneLate := task("done-late", models.StatusComplete, 0)
	doneLate.DueAt = models.TimePtr(now.Add(-3 * day))
	soon := task("soon", models.StatusTodo, 0)
	soon.DueAt = models.TimePtr(now.Add(day))
	later := task("later", models.StatusTodo, 0)
	later.DueAt = models.TimePtr(now.Add(4 * day))
	undated1 := task("undated1", models.StatusTodo, 2)
	undated2 := task("undated2", models.StatusTodo, 1)

	input := []*models.Task{undated1, later, soon, late, undated2, veryLate, doneLate}
	got := taskIDs(SortTasks(input, SortOverdue, SortContext{Now: now}))
	want := "[very-late late done-late soon later undated2 undated1]"
	if fmt.Sprint(got) != want {
		t.Errorf("got %v, want %s", got, want)
	}
}

func TestCompareManual_TiesFallBackToInsertion(t *testing.T) {
	a := task("a", models.StatusTodo, 1)
	b := task("b", models.StatusTodo, 1)
	b.CreatedAt = a.CreatedAt.Add(-time.Second)

	got := taskIDs(SortTasks([]*models.Task{a, b}, SortManual, SortContext{}))
	if fmt.Sprint(got) != "[b a]" {
		t.Errorf("got %v, want [b a]", got)
	}
}
