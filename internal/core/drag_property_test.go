package core

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/valter-silva-au/weekboard/pkg/models"
	"pgregory.net/rapid"
)

func genStatus(t *rapid.T, label string) models.TaskStatus {
	return rapid.SampledFrom(models.Statuses).Draw(t, label)
}

// genBoard draws a board of 1..12 tasks spread over the three columns.
func genBoard(t *rapid.T) *Snapshot {
	n := rapid.IntRange(1, 12).Draw(t, "n")
	snap := &Snapshot{Complete: true}
	for i := 0; i < n; i++ {
		tk := task(fmt.Sprintf("t%02d", i), genStatus(t, "status"), float64(rapid.IntRange(-5, 20).Draw(t, "order")))
		snap.Tasks = append(snap.Tasks, tk)
	}
	return snap
}

func genTargets(t *rapid.T, ids []string) []DropTarget {
	var targets []DropTarget
	if rapid.Bool().Draw(t, "withColumn") {
		targets = append(targets, ColumnTarget(genStatus(t, "column")))
	}
	if rapid.Bool().Draw(t, "withCard") {
		targets = append(targets, CardTarget(rapid.SampledFrom(ids).Draw(t, "card")))
	}
	return targets
}

func newPropertyEngine(snap *Snapshot) (*Engine, *recordingCommitter) {
	c := newRecordingCommitter()
	e := NewEngine(NewBoard(snap), c, nil)
	e.SetClock(func() time.Time { return testNow })
	return e, c
}

// Feature: weekboard, Property 1: Partition Closure
// For any drag sequence, every task stays in exactly one status partition
// and the partitions hold exactly the tasks the moves put there.
func TestProperty01_PartitionClosure(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		snap := genBoard(rt)
		e, _ := newPropertyEngine(snap)
		ids := taskIDs(e.Board().Tasks())
		ctx := context.Background()

		expected := make(map[string]models.TaskStatus, len(ids))
		for _, id := range ids {
			expected[id] = e.Board().Task(id).Status
		}

		gestures := rapid.IntRange(1, 8).Draw(rt, "gestures")
		for g := 0; g < gestures; g++ {
			d := e.NewDrag(DefaultView())
			id := rapid.SampledFrom(ids).Draw(rt, "dragged")
			if err := d.Start(id); err != nil {
				rt.Fatalf("Start(%s): %v", id, err)
			}
			updates := rapid.IntRange(0, 4).Draw(rt, "updates")
			for u := 0; u < updates; u++ {
				d.Over(ctx, genTargets(rt, ids))
			}
			d.End(ctx, genTargets(rt, ids))
			if h := d.History(); len(h) > 0 {
				expected[id] = h[len(h)-1].Status
			}
		}

		seen := make(map[string]int)
		for _, s := range models.Statuses {
			for _, tk := range e.Board().Partition(s, DefaultView()) {
				seen[tk.ID]++
				if expected[tk.ID] != s {
					rt.Fatalf("task %s in %s, want %s", tk.ID, s, expected[tk.ID])
				}
			}
		}
		for _, id := range ids {
			if seen[id] != 1 {
				rt.Fatalf("task %s appears %d times across partitions", id, seen[id])
			}
		}
	})
}

// Feature: weekboard, Property 2: Order Monotonicity
// After a same-column drop, reading the partition back by order reproduces
// the dropped sequence with strictly increasing orders.
func TestProperty02_OrderMonotonicity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		snap := genBoard(rt)
		e, c := newPropertyEngine(snap)
		ctx := context.Background()

		status := genStatus(rt, "partition")
		part := e.Board().Partition(status, DefaultView())
		if len(part) < 2 {
			return
		}
		from := rapid.IntRange(0, len(part)-1).Draw(rt, "from")
		to := rapid.IntRange(0, len(part)-1).Draw(rt, "to")
		if from == to {
			return
		}
		want := taskIDs(arrayMove(part, from, to))

		d := e.NewDrag(DefaultView())
		_ = d.Start(part[from].ID)
		targets := []DropTarget{CardTarget(part[to].ID)}
		d.Over(ctx, targets)
		if out := d.End(ctx, targets); out != DropReordered {
			rt.Fatalf("outcome = %s, want reordered", out)
		}

		after := e.Board().Partition(status, DefaultView())
		if got := taskIDs(after); !slices.Equal(got, want) {
			rt.Fatalf("partition = %v, want %v", got, want)
		}
		if !strictlyIncreasing(after) {
			rt.Fatalf("orders not strictly increasing: %s", snapshotOrders(e.Board()))
		}
		last := c.reorders[len(c.reorders)-1]
		if !slices.Equal(last, want) {
			rt.Fatalf("persisted sequence = %v, want %v", last, want)
		}
	})
}

// Feature: weekboard, Property 3: No-op Safety
// Dropping a task on itself, or on its own column, leaves every status and
// order unchanged and writes nothing.
func TestProperty03_NoOpSafety(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		snap := genBoard(rt)
		e, c := newPropertyEngine(snap)
		ctx := context.Background()
		ids := taskIDs(e.Board().Tasks())
		id := rapid.SampledFrom(ids).Draw(rt, "dragged")
		before := snapshotOrders(e.Board())

		var targets []DropTarget
		if rapid.Bool().Draw(rt, "self") {
			targets = []DropTarget{CardTarget(id)}
		} else {
			targets = []DropTarget{ColumnTarget(e.Board().Task(id).Status)}
		}

		d := e.NewDrag(DefaultView())
		_ = d.Start(id)
		d.Over(ctx, targets)
		if out := d.End(ctx, targets); out != DropNone {
			rt.Fatalf("outcome = %s, want none", out)
		}
		if after := snapshotOrders(e.Board()); after != before {
			rt.Fatalf("board changed:\n before %s\n after  %s", before, after)
		}
		if len(c.calls) != 0 {
			rt.Fatalf("calls = %v", c.calls)
		}
	})
}

// Feature: weekboard, Property 4: Sort Determinism
// Every comparator yields the same order on repeated calls and on shuffled
// copies of the same input.
func TestProperty04_SortDeterminism(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		snap := genBoard(rt)
		for _, tk := range snap.Tasks {
			tk.Priority = rapid.SampledFrom([]models.Priority{
				models.PriorityNone, models.PriorityLow, models.PriorityMedium, models.PriorityHigh,
			}).Draw(rt, "priority")
			if rapid.Bool().Draw(rt, "hasStep") {
				tk.FormulaStepID = models.StringPtr(rapid.SampledFrom([]string{"s1", "s2", "s3"}).Draw(rt, "step"))
			}
			if rapid.Bool().Draw(rt, "hasDue") {
				tk.DueAt = models.TimePtr(testNow.AddDate(0, 0, rapid.IntRange(-10, 10).Draw(rt, "dueDays")))
			}
		}
		sc := SortContext{Now: testNow, StepRanks: map[string]int{"s1": 1, "s2": 2, "s3": 3}}
		mode := rapid.SampledFrom(SortModes).Draw(rt, "mode")

		first := taskIDs(SortTasks(snap.Tasks, mode, sc))
		perm := rapid.Permutation(snap.Tasks).Draw(rt, "perm")
		second := taskIDs(SortTasks(perm, mode, sc))
		if !slices.Equal(first, second) {
			rt.Fatalf("%s: %v != %v", mode, first, second)
		}
	})
}
