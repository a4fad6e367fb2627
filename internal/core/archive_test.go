package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
	"pgregory.net/rapid"
)

var (
	weekOld  = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	weekCur  = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	archPlan = []*models.WeeklyPlan{{ID: "old", WeekStart: weekOld}, {ID: "cur", WeekStart: weekCur}}
)

func scoped(tk *models.Task, planID string) *models.Task {
	tk.WeeklyPlanID = models.StringPtr(planID)
	return tk
}

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		name  string
		now   time.Time
		start time.Weekday
		loc   *time.Location
		want  time.Time
	}{
		{"wednesday monday-start", time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC), time.Monday, nil, weekCur},
		{"monday itself", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), time.Monday, nil, weekCur},
		{"sunday monday-start", time.Date(2024, 1, 14, 23, 59, 0, 0, time.UTC), time.Monday, nil, weekCur},
		{"sunday-start", time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC), time.Sunday, time.UTC, time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodStart(tt.now, tt.start, tt.loc); !got.Equal(tt.want) {
				t.Errorf("PeriodStart = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestArchive_Rules(t *testing.T) {
	unscopedOld := task("main-old", models.StatusComplete, 0)
	unscopedOld.CreatedAt = weekOld
	unscopedNew := task("main-new", models.StatusComplete, 1)
	unscopedNew.CreatedAt = weekCur.Add(time.Hour)
	deleted := scoped(task("deleted", models.StatusComplete, 2), "old")
	deleted.DeletedAt = models.TimePtr(weekOld)

	e, c, l := newTestEngine(t, &Snapshot{
		Tasks: []*models.Task{
			scoped(task("old-done", models.StatusComplete, 0), "old"),
			scoped(task("old-open", models.StatusTodo, 0), "old"),
			scoped(task("cur-done", models.StatusComplete, 3), "cur"),
			scoped(task("orphan", models.StatusComplete, 4), "missing"),
			unscopedOld, unscopedNew, deleted,
		},
		Plans: archPlan,
	})

	got, err := e.Archive(context.Background(), weekCur)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	slices.Sort(got)
	if fmt.Sprint(got) != "[main-old old-done]" {
		t.Errorf("archived = %v, want [main-old old-done]", got)
	}
	if c.calls[0] != "archive 2" {
		t.Errorf("calls = %v", c.calls)
	}
	if l.count("diagnostic.unknown_plan") != 1 {
		t.Errorf("events = %v", l.events)
	}

	b := e.Board()
	if DefaultView().Includes(b.Task("old-done")) {
		t.Error("archived task in default view")
	}
	if !PlanView("old").Includes(b.Task("old-done")) {
		t.Error("archived task missing from its own plan view")
	}
}

func TestArchive_IdempotentAndRestore(t *testing.T) {
	e, c, _ := newTestEngine(t, &Snapshot{
		Tasks: []*models.Task{
			scoped(task("a", models.StatusComplete, 0), "old"),
			task("t", models.StatusTodo, 6),
		},
		Plans: archPlan,
	})
	ctx := context.Background()

	first, _ := e.Archive(ctx, weekCur)
	second, _ := e.Archive(ctx, weekCur)
	if len(first) != 1 || len(second) != 0 {
		t.Fatalf("first = %v, second = %v", first, second)
	}

	restored, err := e.Restore(ctx, "a")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Status != models.StatusTodo || restored.ArchivedAt != nil {
		t.Errorf("restored = %s archived=%v", restored.Status, restored.ArchivedAt)
	}
	if restored.Order != 7 {
		t.Errorf("order = %g, want 7 (last in todo)", restored.Order)
	}
	third, _ := e.Archive(ctx, weekCur)
	if len(third) != 0 {
		t.Errorf("restored task re-archived: %v", third)
	}
	if c.calls[len(c.calls)-1] != "patch a" {
		t.Errorf("calls = %v", c.calls)
	}
}

func TestRestore_Errors(t *testing.T) {
	e, _, _ := newTestEngine(t, &Snapshot{Tasks: []*models.Task{task("open", models.StatusTodo, 0)}})
	if _, err := e.Restore(context.Background(), "open"); !errors.Is(err, ErrNotArchived) {
		t.Errorf("err = %v, want ErrNotArchived", err)
	}
	if _, err := e.Restore(context.Background(), "ghost"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestRefresh_ArchivesThenSpawns(t *testing.T) {
	tmpl := task("tmpl", models.StatusTodo, 0)
	tmpl.Recurrence = &models.RecurrenceRule{Frequency: models.FrequencyDaily, StartDate: weekOld}
	e, _, _ := newTestEngine(t, &Snapshot{
		Tasks: []*models.Task{scoped(task("done", models.StatusComplete, 0), "old"), tmpl},
		Plans: archPlan,
	})

	res, err := e.Refresh(context.Background(), time.Monday, time.UTC)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !res.Cutoff.Equal(weekCur) {
		t.Errorf("cutoff = %s", res.Cutoff)
	}
	if len(res.Archived) != 1 || len(res.Spawned) != 1 {
		t.Errorf("result = %+v", res)
	}
}

// Feature: weekboard, Property 5: Archive Idempotence
// Archiving twice with the same cutoff archives the same set as once, and a
// restored task survives the next pass.
func TestProperty05_ArchiveIdempotence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		snap := genBoard(rt)
		snap.Plans = archPlan
		for _, tk := range snap.Tasks {
			switch rapid.IntRange(0, 2).Draw(rt, "scope") {
			case 0:
				tk.WeeklyPlanID = models.StringPtr("old")
			case 1:
				tk.WeeklyPlanID = models.StringPtr("cur")
			default:
				tk.CreatedAt = weekOld.AddDate(0, 0, rapid.IntRange(0, 14).Draw(rt, "createdDay"))
			}
		}
		e, _ := newPropertyEngine(snap)
		ctx := context.Background()

		first, _ := e.Archive(ctx, weekCur)
		second, _ := e.Archive(ctx, weekCur)
		if len(second) != 0 {
			rt.Fatalf("second pass archived %v", second)
		}
		if len(first) == 0 {
			return
		}
		id := rapid.SampledFrom(first).Draw(rt, "restore")
		if _, err := e.Restore(ctx, id); err != nil {
			rt.Fatalf("Restore: %v", err)
		}
		third, _ := e.Archive(ctx, weekCur)
		if slices.Contains(third, id) {
			rt.Fatalf("restored task %s re-archived", id)
		}
	})
}
