package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

func TestArchive_DefaultCutoffKeepsCurrentWeek(t *testing.T) {
	engine := setupBoard(t)
	task := addTasks(t, engine, "done this week")[0]
	if _, err := engine.Move(context.Background(), core.DefaultView(), task.ID, core.ColumnTarget(models.StatusComplete)); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "archive")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !strings.Contains(out, "Nothing to archive.") {
		t.Errorf("output = %q", out)
	}
	if engine.Board().Task(task.ID).Archived() {
		t.Error("task from the current period was archived")
	}
}

func TestArchiveAndRestore(t *testing.T) {
	engine := setupBoard(t)
	tasks := addTasks(t, engine, "done", "open")
	if _, err := engine.Move(context.Background(), core.DefaultView(), tasks[0].ID, core.ColumnTarget(models.StatusComplete)); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "archive", "--cutoff", "2024-01-10T13:00:00Z")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if !strings.Contains(out, "Archived 1 task(s): "+shortID(tasks[0].ID)) {
		t.Errorf("output = %q", out)
	}
	if !engine.Board().Task(tasks[0].ID).Archived() || engine.Board().Task(tasks[1].ID).Archived() {
		t.Fatal("wrong tasks archived")
	}
	if got := columnTitles(engine, models.StatusComplete); len(got) != 0 {
		t.Errorf("archived task still on the default view: %v", got)
	}

	out, err = runCLI(t, "restore", shortID(tasks[0].ID))
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !strings.Contains(out, "Restored task") {
		t.Errorf("output = %q", out)
	}
	got := engine.Board().Task(tasks[0].ID)
	if got.Archived() || got.Status != models.StatusTodo {
		t.Errorf("restored task = %+v", got)
	}

	if _, err := runCLI(t, "restore", tasks[0].ID); !errors.Is(err, core.ErrNotArchived) {
		t.Errorf("restoring twice: err = %v, want ErrNotArchived", err)
	}
}

func TestArchive_InvalidCutoff(t *testing.T) {
	setupBoard(t)
	if _, err := runCLI(t, "archive", "--cutoff", "last friday"); err == nil {
		t.Error("expected error")
	}
}
