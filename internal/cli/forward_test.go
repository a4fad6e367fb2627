package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

func TestForward_IntoNewWeek(t *testing.T) {
	engine := setupBoard(t)
	tasks := addTasks(t, engine, "carry over", "also carry")

	out, err := runCLI(t, "forward", tasks[0].ID, shortID(tasks[1].ID), "--week", "2024-01-17", "--title", "Next week")
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	if !strings.Contains(out, "Forwarded 2 of 2 task(s)") {
		t.Errorf("output = %q", out)
	}

	plans := engine.Board().Plans()
	if len(plans) != 1 || plans[0].Title != "Next week" || !plans[0].WeekStart.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("plans = %+v", plans)
	}
	for _, src := range tasks {
		got := engine.Board().Task(src.ID)
		if got.ForwardedToTaskID == nil {
			t.Fatalf("%s not linked to a clone", src.Title)
		}
		clone := engine.Board().Task(*got.ForwardedToTaskID)
		if clone == nil || !clone.InPlan(plans[0].ID) || clone.Title != src.Title {
			t.Errorf("clone = %+v", clone)
		}
	}
}

func TestForward_ReportsFailedItems(t *testing.T) {
	engine := setupBoard(t)
	ctx := context.Background()
	plan, err := engine.CreatePlan(ctx, "", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	tasks := addTasks(t, engine, "open", "finished")
	if _, err := engine.Move(ctx, core.DefaultView(), tasks[1].ID, core.ColumnTarget(models.StatusComplete)); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "forward", tasks[0].ID, tasks[1].ID, "--plan", plan.ID)
	if err == nil || !strings.Contains(err.Error(), "1 task(s) could not be forwarded") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "skipped") || !strings.Contains(out, "Forwarded 1 of 2") {
		t.Errorf("output = %q", out)
	}
	if engine.Board().Task(tasks[0].ID).ForwardedToTaskID == nil {
		t.Error("open task was not forwarded")
	}
	if engine.Board().Task(tasks[1].ID).ForwardedToTaskID != nil {
		t.Error("complete task was forwarded")
	}
}

func TestForward_FromPlan(t *testing.T) {
	engine := setupBoard(t)
	ctx := context.Background()
	this, err := engine.CreatePlan(ctx, "", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	next, err := engine.CreatePlan(ctx, "", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	open := addTask(t, engine, core.NewTaskInput{Title: "open", WeeklyPlanID: models.StringPtr(this.ID)})
	done := addTask(t, engine, core.NewTaskInput{Title: "done", WeeklyPlanID: models.StringPtr(this.ID)})
	if _, err := engine.Move(ctx, core.PlanView(this.ID), done.ID, core.ColumnTarget(models.StatusComplete)); err != nil {
		t.Fatal(err)
	}

	if got := openPlanTasks(this.ID); len(got) != 1 || got[0] != open.ID {
		t.Fatalf("openPlanTasks = %v", got)
	}
	if _, err := runCLI(t, "forward", "--from", this.ID, "--plan", next.ID); err != nil {
		t.Fatalf("forward --from: %v", err)
	}
	if engine.Board().Task(open.ID).ForwardedToTaskID == nil {
		t.Error("open task not forwarded")
	}
}

func TestForward_Errors(t *testing.T) {
	engine := setupBoard(t)
	task := addTasks(t, engine, "a")[0]

	tests := []struct {
		name string
		args []string
	}{
		{"no tasks", []string{"forward", "--week", "2024-01-17"}},
		{"no destination", []string{"forward", task.ID}},
		{"unknown plan", []string{"forward", task.ID, "--plan", "nope"}},
		{"bad week", []string{"forward", task.ID, "--week", "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}
