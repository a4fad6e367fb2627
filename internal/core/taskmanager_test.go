package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

func TestAddTask_PlacesLastInTodo(t *testing.T) {
	e, c, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{
		task("a", models.StatusTodo, 0),
		task("b", models.StatusTodo, 4),
	}})

	got, err := e.AddTask(context.Background(), NewTaskInput{Title: "  new  "})
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if got.Title != "new" {
		t.Errorf("title = %q, want trimmed", got.Title)
	}
	if got.Status != models.StatusTodo || got.Order != 5 {
		t.Errorf("status/order = %s/%g, want todo/5", got.Status, got.Order)
	}
	ids := partitionIDs(e.Board(), models.StatusTodo, DefaultView())
	if ids[len(ids)-1] != got.ID {
		t.Errorf("new task not last: %v", ids)
	}
	if len(c.calls) != 1 || c.calls[0] != "insert "+got.ID {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestAddTask_Validation(t *testing.T) {
	e, _, _ := newTestEngine(t, &Snapshot{})
	if _, err := e.AddTask(context.Background(), NewTaskInput{Title: " "}); err == nil {
		t.Error("expected error for empty title")
	}
	_, err := e.AddTask(context.Background(), NewTaskInput{Title: "x", WeeklyPlanID: models.StringPtr("nope")})
	if !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestUpdateTask_StatusChangeMovesToEnd(t *testing.T) {
	e, _, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{
		task("a", models.StatusTodo, 0),
		task("b", models.StatusInProgress, 7),
	}})

	got, err := e.UpdateTask(context.Background(), "a", models.TaskPatch{Status: models.Set(models.StatusInProgress)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.Order != 8 {
		t.Errorf("order = %g, want 8", got.Order)
	}
}

func TestUpdateTask_CommitFailureLeavesTaskUnchanged(t *testing.T) {
	e, c, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{task("a", models.StatusTodo, 0)}})
	c.failOn["patch"] = true

	_, err := e.UpdateTask(context.Background(), "a", models.TaskPatch{Title: models.Set("renamed")})
	if !errors.Is(err, errCommit) {
		t.Fatalf("err = %v, want errCommit", err)
	}
	if e.Board().Task("a").Title != "task a" {
		t.Error("title changed despite failed commit")
	}
}

func TestUpdateTask_StaleReference(t *testing.T) {
	e, _, l := newTestEngine(t, &Snapshot{})
	_, err := e.UpdateTask(context.Background(), "ghost", models.TaskPatch{Title: models.Set("x")})
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
	if l.count("diagnostic.stale_reference") != 1 {
		t.Errorf("events = %v", l.events)
	}
}

func TestDeleteTask_HidesFromViews(t *testing.T) {
	e, _, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{task("a", models.StatusTodo, 0)}})
	if err := e.DeleteTask(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if ids := partitionIDs(e.Board(), models.StatusTodo, DefaultView()); len(ids) != 0 {
		t.Errorf("deleted task still visible: %v", ids)
	}
	if _, err := e.GetTask("a"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("GetTask err = %v", err)
	}
}

func TestClearReminder_SendsExplicitNull(t *testing.T) {
	tk := task("a", models.StatusTodo, 0)
	tk.ReminderAt = models.TimePtr(testNow.Add(-time.Hour))
	e, c, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{tk}})

	if err := e.ClearReminder(context.Background(), "a"); err != nil {
		t.Fatalf("ClearReminder: %v", err)
	}
	if e.Board().Task("a").ReminderAt != nil {
		t.Error("reminder not cleared")
	}
	if len(c.calls) != 1 || c.calls[0] != "patch a" {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestReorderPartition_Direct(t *testing.T) {
	e, c, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{
		task("a", models.StatusTodo, 0),
		task("b", models.StatusTodo, 1),
		task("c", models.StatusTodo, 2),
		task("x", models.StatusComplete, 0),
	}})
	ctx := context.Background()

	if err := e.ReorderPartition(ctx, models.StatusTodo, DefaultView(), []string{"c", "a", "b"}); err != nil {
		t.Fatalf("ReorderPartition: %v", err)
	}
	if got := partitionIDs(e.Board(), models.StatusTodo, DefaultView()); fmt.Sprint(got) != "[c a b]" {
		t.Errorf("partition = %v", got)
	}
	if len(c.reorders) != 1 {
		t.Errorf("reorders = %v", c.reorders)
	}

	tests := []struct {
		name string
		ids  []string
		want error
	}{
		{"foreign id", []string{"c", "a", "x"}, ErrNotInPartition},
		{"missing id", []string{"c", "a"}, ErrInvalidPermutation},
		{"duplicate id", []string{"c", "a", "a"}, ErrInvalidPermutation},
		{"unknown id", []string{"c", "a", "b", "zzz"}, ErrNotInPartition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.ReorderPartition(ctx, models.StatusTodo, DefaultView(), tt.ids)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if got := partitionIDs(e.Board(), models.StatusTodo, DefaultView()); fmt.Sprint(got) != "[c a b]" {
				t.Errorf("partition changed on rejected reorder: %v", got)
			}
		})
	}
	if len(c.reorders) != 1 {
		t.Errorf("rejected reorders reached the store: %v", c.reorders)
	}
}

func TestReorderPartition_UnchangedIsNoop(t *testing.T) {
	e, c, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{
		task("a", models.StatusTodo, 0),
		task("b", models.StatusTodo, 3),
	}})
	if err := e.ReorderPartition(context.Background(), models.StatusTodo, DefaultView(), []string{"a", "b"}); err != nil {
		t.Fatalf("ReorderPartition: %v", err)
	}
	if len(c.calls) != 0 {
		t.Errorf("calls = %v, want none", c.calls)
	}
	if e.Board().Task("b").Order != 3 {
		t.Error("order rewritten on no-op reorder")
	}
}

func TestCreatePlan_RejectsDuplicateWeek(t *testing.T) {
	e, _, _ := newTestEngine(t, &Snapshot{})
	week := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	p, err := e.CreatePlan(context.Background(), "", week)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if p.Title != "Week of 2024-01-08" {
		t.Errorf("title = %q", p.Title)
	}
	if _, err := e.CreatePlan(context.Background(), "again", week); err == nil {
		t.Error("expected duplicate week error")
	}
}

func TestColumns_SortsEachPartition(t *testing.T) {
	hi := task("hi", models.StatusTodo, 5)
	hi.Priority = models.PriorityHigh
	e, _, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{
		task("lo", models.StatusTodo, 0),
		hi,
		task("done", models.StatusComplete, 0),
	}})

	cols := e.Columns(DefaultView(), SortPriorityFormula)
	if len(cols) != 3 {
		t.Fatalf("columns = %d, want 3", len(cols))
	}
	if got := taskIDs(cols[0].Tasks); fmt.Sprint(got) != "[hi lo]" {
		t.Errorf("todo = %v", got)
	}
	if got := taskIDs(cols[2].Tasks); fmt.Sprint(got) != "[done]" {
		t.Errorf("complete = %v", got)
	}
}

func TestAddStep_RanksFormulaOrdering(t *testing.T) {
	e, c, _ := newTestEngine(t, &Snapshot{})
	ctx := context.Background()
	low, err := e.AddStep(ctx, "later", 1)
	if err != nil {
		t.Fatalf("AddStep: %v", err)
	}
	high, err := e.AddStep(ctx, "first", 9)
	if err != nil {
		t.Fatalf("AddStep: %v", err)
	}
	steps := e.Board().Steps()
	if len(steps) != 2 || steps[0].ID != high.ID || steps[1].ID != low.ID {
		t.Errorf("steps = %+v", steps)
	}
	if _, err := e.AddStep(ctx, "  ", 3); err == nil {
		t.Error("expected error for empty step name")
	}
	if len(c.calls) != 2 {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestParseView(t *testing.T) {
	tests := []struct {
		kind, plan string
		want       string
		wantErr    bool
	}{
		{"", "", "default", false},
		{"", "p1", "plan:p1", false},
		{"default", "p1", "default", false},
		{"main", "", "main", false},
		{"plan", "p1", "plan:p1", false},
		{"plan", "", "", true},
		{"weekly", "", "", true},
	}
	for _, tt := range tests {
		v, err := ParseView(tt.kind, tt.plan)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseView(%q, %q) err = %v", tt.kind, tt.plan, err)
			continue
		}
		if !tt.wantErr && v.String() != tt.want {
			t.Errorf("ParseView(%q, %q) = %s, want %s", tt.kind, tt.plan, v, tt.want)
		}
	}
}

func TestUpdateTask_RejectsArchivedAt(t *testing.T) {
	done := task("done", models.StatusComplete, 0)
	done.CreatedAt = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	e, c, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{done}})
	ctx := context.Background()
	cutoff := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	if ids, _ := e.Archive(ctx, cutoff); len(ids) != 1 {
		t.Fatalf("archived = %v", ids)
	}
	calls := len(c.calls)
	_, err := e.UpdateTask(ctx, "done", models.TaskPatch{ArchivedAt: models.Null[time.Time]()})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(c.calls) != calls {
		t.Errorf("rejected patch reached the store: %v", c.calls[calls:])
	}
	if !e.Board().Task("done").Archived() {
		t.Error("archived mark cleared by a rejected patch")
	}

	// Restore is the way out, and a second pass leaves the task alone.
	if _, err := e.Restore(ctx, "done"); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ids, _ := e.Archive(ctx, cutoff); len(ids) != 0 {
		t.Errorf("restored task archived again: %v", ids)
	}
}

func TestUpdateTask_RejectsForwardPointer(t *testing.T) {
	e, _, _ := newTestEngine(t, &Snapshot{
		Tasks: []*models.Task{task("plain", models.StatusTodo, 1)},
		Plans: []*models.WeeklyPlan{{ID: "next", WeekStart: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)}},
	})
	ctx := context.Background()

	first, err := e.Forward(ctx, []string{"plain"}, ExistingPlan("next"))
	if err != nil || len(first.Clones()) != 1 {
		t.Fatalf("first forward = %+v, %v", first, err)
	}
	for _, patch := range []models.TaskPatch{
		{ForwardedToTaskID: models.Null[string]()},
		{ForwardedToTaskID: models.Set("someone-else")},
	} {
		if _, err := e.UpdateTask(ctx, "plain", patch); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("err = %v, want ErrInvalidInput", err)
		}
	}
	if got := e.Board().Task("plain").ForwardedToTaskID; got == nil || *got != first.Clones()[0].ID {
		t.Errorf("forward pointer = %v", got)
	}

	second, err := e.Forward(ctx, []string{"plain"}, ExistingPlan("next"))
	if err != nil {
		t.Fatalf("second forward: %v", err)
	}
	if len(second.Clones()) != 0 || !errors.Is(second.Items[0].Err, ErrAlreadyForwarded) {
		t.Errorf("second forward = %+v", second.Items)
	}
}
