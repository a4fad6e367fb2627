package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/internal/observability"
	"github.com/valter-silva-au/weekboard/internal/storage"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

// testNow is a Wednesday; its week starts on Monday 2024-01-08.
var testNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

// setupBoard points the command globals at a fresh in-memory board and
// restores them when the test ends.
func setupBoard(t *testing.T) *core.Engine {
	t.Helper()
	ctx := context.Background()

	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Init(ctx); err != nil {
		t.Fatalf("initialising database: %v", err)
	}
	db.SetClock(func() time.Time { return testNow })

	engine, err := core.LoadEngine(ctx, db, db, nil)
	if err != nil {
		t.Fatalf("loading engine: %v", err)
	}
	engine.SetClock(func() time.Time { return testNow })

	origEngine, origAlerts, origSettings := Engine, Alerts, Settings
	origNotifier, origMetrics := Notifier, MetricsCalc
	t.Cleanup(func() {
		Engine, Alerts, Settings = origEngine, origAlerts, origSettings
		Notifier, MetricsCalc = origNotifier, origMetrics
	})

	ledger := storage.NewFileAlertLedger(filepath.Join(t.TempDir(), "alerts.yaml"))
	Engine = engine
	Alerts = observability.NewAlertDeduplicator(ledger, engine, nil)
	Notifier = nil
	Settings = BoardSettings{
		DefaultSort:  core.SortManual,
		WeekStartsOn: time.Monday,
		Location:     time.UTC,
		HTTPAddr:     "127.0.0.1:0",
		AlertEvery:   time.Minute,
	}
	return engine
}

// runCLI executes the root command with args and returns what it printed
// to stdout. Flags are reset afterwards so tests do not leak into each
// other.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer resetFlags(rootCmd)

	err := rootCmd.Execute()
	return stdout.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func addTask(t *testing.T, engine *core.Engine, in core.NewTaskInput) *models.Task {
	t.Helper()
	task, err := engine.AddTask(context.Background(), in)
	if err != nil {
		t.Fatalf("adding task %q: %v", in.Title, err)
	}
	return task
}

func addTasks(t *testing.T, engine *core.Engine, titles ...string) []*models.Task {
	t.Helper()
	out := make([]*models.Task, len(titles))
	for i, title := range titles {
		out[i] = addTask(t, engine, core.NewTaskInput{Title: title})
	}
	return out
}

// columnTitles returns the titles of one column of the default view.
func columnTitles(engine *core.Engine, status models.TaskStatus) []string {
	for _, col := range engine.Columns(core.DefaultView(), core.SortManual) {
		if col.Status == status {
			titles := make([]string, len(col.Tasks))
			for i, task := range col.Tasks {
				titles[i] = task.Title
			}
			return titles
		}
	}
	return nil
}
