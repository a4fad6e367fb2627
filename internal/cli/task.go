package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Task management commands",
	Long:  "Commands for adding, editing, moving and ordering tasks on the board.",
}

var (
	taskAddDesc     string
	taskAddCategory string
	taskAddPriority string
	taskAddPlan     string
	taskAddStep     string
	taskAddDue      string
	taskAddRemind   string
	taskAddBugged   bool
	taskAddEvery    string
	taskAddStart    string
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task to the end of the todo column",
	Long: `Add a task to the end of the todo column.

Times accept RFC3339, "YYYY-MM-DD HH:MM" or "YYYY-MM-DD" and are read in the
board's timezone. --every makes the task a recurring template; one instance
is spawned per occurrence from --start (defaults to now).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		loc := Settings.location()

		priority, err := models.ParsePriority(taskAddPriority)
		if err != nil {
			return err
		}
		in := core.NewTaskInput{
			Title:       strings.Join(args, " "),
			Description: taskAddDesc,
			Category:    taskAddCategory,
			Bugged:      taskAddBugged,
			Priority:    priority,
		}
		if taskAddPlan != "" {
			in.WeeklyPlanID = models.StringPtr(taskAddPlan)
		}
		if taskAddStep != "" {
			in.FormulaStepID = models.StringPtr(taskAddStep)
		}
		if in.DueAt, err = parseWhen(taskAddDue, loc); err != nil {
			return fmt.Errorf("parsing --due: %w", err)
		}
		if in.ReminderAt, err = parseWhen(taskAddRemind, loc); err != nil {
			return fmt.Errorf("parsing --remind: %w", err)
		}
		if taskAddEvery != "" {
			freq, err := models.ParseFrequency(taskAddEvery)
			if err != nil {
				return err
			}
			start := Engine.Now()
			if taskAddStart != "" {
				s, err := parseWhen(taskAddStart, loc)
				if err != nil {
					return fmt.Errorf("parsing --start: %w", err)
				}
				if s != nil {
					start = *s
				}
			}
			in.Recurrence = &models.RecurrenceRule{Frequency: freq, StartDate: start}
		}

		t, err := Engine.AddTask(commandContext(cmd), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s\n", t.ID, t.Title)
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:               "show <task-id>",
	Short:             "Print a task as JSON",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		id, err := resolveTaskID(args[0])
		if err != nil {
			return err
		}
		t, err := Engine.GetTask(id)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting task as JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var (
	taskEditTitle    string
	taskEditDesc     string
	taskEditCategory string
	taskEditPriority string
	taskEditBugged   bool
	taskEditStep     string
)

var taskEditCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Change a task's fields",
	Long: `Change a task's fields. Only the flags given are changed.

Pass "none" to --step to unassign the formula step, or an empty string to
--desc or --category to clear them.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		id, err := resolveTaskID(args[0])
		if err != nil {
			return err
		}

		var patch models.TaskPatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = models.Set(taskEditTitle)
		}
		if flags.Changed("desc") {
			patch.Description = models.Set(taskEditDesc)
		}
		if flags.Changed("category") {
			patch.Category = models.Set(taskEditCategory)
		}
		if flags.Changed("priority") {
			p, err := models.ParsePriority(taskEditPriority)
			if err != nil {
				return err
			}
			patch.Priority = models.Set(p)
		}
		if flags.Changed("bugged") {
			patch.Bugged = models.Set(taskEditBugged)
		}
		if flags.Changed("step") {
			if strings.EqualFold(taskEditStep, "none") || taskEditStep == "" {
				patch.FormulaStepID = models.Null[string]()
			} else {
				patch.FormulaStepID = models.Set(taskEditStep)
			}
		}
		if patch.Empty() {
			return fmt.Errorf("nothing to change: pass at least one of --title, --desc, --category, --priority, --bugged, --step")
		}

		t, err := Engine.UpdateTask(commandContext(cmd), id, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s: %s\n", t.ID, t.Title)
		return nil
	},
}

var (
	taskMoveOver string
	taskMoveView string
	taskMovePlan string
)

var taskMoveCmd = &cobra.Command{
	Use:   "move <task-id> [status]",
	Short: "Drag a task onto a column or onto another card",
	Long: `Drag a task onto a column (todo, in_progress, complete) or, with --over,
onto another card. Dropping onto a card in the same column reorders it;
dropping onto a card in another column moves it there at that position.`,
	Args:              cobra.RangeArgs(1, 2),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		id, err := resolveTaskID(args[0])
		if err != nil {
			return err
		}
		v, err := core.ParseView(taskMoveView, taskMovePlan)
		if err != nil {
			return err
		}

		var target core.DropTarget
		switch {
		case taskMoveOver != "":
			over, err := resolveTaskID(taskMoveOver)
			if err != nil {
				return err
			}
			target = core.CardTarget(over)
		case len(args) == 2:
			status, err := models.ParseTaskStatus(args[1])
			if err != nil {
				return err
			}
			target = core.ColumnTarget(status)
		default:
			return fmt.Errorf("give a target status or --over <task-id>")
		}

		outcome, err := Engine.Move(commandContext(cmd), v, id, target)
		if err != nil {
			return err
		}
		t := Engine.Board().Task(id)
		switch outcome {
		case core.DropNone:
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s stayed where it was.\n", shortID(id))
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s %s: now in %s.\n", shortID(id), outcome, t.Status)
		}
		return nil
	},
}

var (
	taskReorderView string
	taskReorderPlan string
)

var taskReorderCmd = &cobra.Command{
	Use:   "reorder <status> <task-id>...",
	Short: "Set the order of a whole column",
	Long: `Set the manual order of one column. Every task in the column must be
listed exactly once, first to last; otherwise nothing changes.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		status, err := models.ParseTaskStatus(args[0])
		if err != nil {
			return err
		}
		v, err := core.ParseView(taskReorderView, taskReorderPlan)
		if err != nil {
			return err
		}
		ids, err := resolveTaskIDs(args[1:])
		if err != nil {
			return err
		}
		if err := Engine.ReorderPartition(commandContext(cmd), status, v, ids); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reordered %d task(s) in %s.\n", len(ids), status)
		return nil
	},
}

var taskDueCmd = &cobra.Command{
	Use:               "due <task-id> <when|none>",
	Short:             "Set or clear a task's due time",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTaskTime(cmd, args, "due", func(p *models.TaskPatch, v models.Patch[time.Time]) { p.DueAt = v })
	},
}

var taskRemindCmd = &cobra.Command{
	Use:               "remind <task-id> <when|none>",
	Short:             "Set or clear a task's reminder",
	Long:              "Set or clear a task's reminder. A reminder fires once and is then cleared.",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setTaskTime(cmd, args, "reminder", func(p *models.TaskPatch, v models.Patch[time.Time]) { p.ReminderAt = v })
	},
}

// setTaskTime patches one time field from a "<task-id> <when|none>" pair.
func setTaskTime(cmd *cobra.Command, args []string, label string, set func(*models.TaskPatch, models.Patch[time.Time])) error {
	if err := requireEngine(); err != nil {
		return err
	}
	id, err := resolveTaskID(args[0])
	if err != nil {
		return err
	}
	when, err := parseWhen(args[1], Settings.location())
	if err != nil {
		return err
	}

	var patch models.TaskPatch
	set(&patch, models.FromPtr(when))
	if _, err := Engine.UpdateTask(commandContext(cmd), id, patch); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if when == nil {
		fmt.Fprintf(out, "Cleared %s of task %s.\n", label, shortID(id))
	} else {
		fmt.Fprintf(out, "Set %s of task %s to %s.\n", label, shortID(id), when.In(Settings.location()).Format("Mon Jan 2 2006 15:04"))
	}
	return nil
}

var taskDeleteCmd = &cobra.Command{
	Use:               "delete <task-id>",
	Short:             "Delete a task",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeTaskIDs(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		id, err := resolveTaskID(args[0])
		if err != nil {
			return err
		}
		if err := Engine.DeleteTask(commandContext(cmd), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s.\n", shortID(id))
		return nil
	},
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddDesc, "desc", "", "Task description")
	taskAddCmd.Flags().StringVar(&taskAddCategory, "category", "", "Category label")
	taskAddCmd.Flags().StringVar(&taskAddPriority, "priority", "", "Priority: none, low, medium, high")
	taskAddCmd.Flags().StringVar(&taskAddPlan, "plan", "", "Weekly plan id to scope the task to")
	taskAddCmd.Flags().StringVar(&taskAddStep, "step", "", "Formula step id")
	taskAddCmd.Flags().StringVar(&taskAddDue, "due", "", "Due time")
	taskAddCmd.Flags().StringVar(&taskAddRemind, "remind", "", "Reminder time")
	taskAddCmd.Flags().BoolVar(&taskAddBugged, "bugged", false, "Flag the task as bugged")
	taskAddCmd.Flags().StringVar(&taskAddEvery, "every", "", "Repeat daily, weekly or monthly")
	taskAddCmd.Flags().StringVar(&taskAddStart, "start", "", "First occurrence of a recurring task")
	_ = taskAddCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = taskAddCmd.RegisterFlagCompletionFunc("plan", completePlanIDs)
	_ = taskAddCmd.RegisterFlagCompletionFunc("step", completeStepIDs)
	_ = taskAddCmd.RegisterFlagCompletionFunc("every", completeFrequencies)

	taskEditCmd.Flags().StringVar(&taskEditTitle, "title", "", "New title")
	taskEditCmd.Flags().StringVar(&taskEditDesc, "desc", "", "New description")
	taskEditCmd.Flags().StringVar(&taskEditCategory, "category", "", "New category")
	taskEditCmd.Flags().StringVar(&taskEditPriority, "priority", "", "New priority")
	taskEditCmd.Flags().BoolVar(&taskEditBugged, "bugged", false, "Set or unset the bugged flag")
	taskEditCmd.Flags().StringVar(&taskEditStep, "step", "", `Formula step id, or "none"`)
	_ = taskEditCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = taskEditCmd.RegisterFlagCompletionFunc("step", completeStepIDs)

	taskMoveCmd.Flags().StringVar(&taskMoveOver, "over", "", "Drop onto this card instead of a column")
	taskMoveCmd.Flags().StringVar(&taskMoveView, "view", "", "Board view the move happens in")
	taskMoveCmd.Flags().StringVar(&taskMovePlan, "plan", "", "Weekly plan id for the plan view")
	_ = taskMoveCmd.RegisterFlagCompletionFunc("over", completeTaskIDs())
	_ = taskMoveCmd.RegisterFlagCompletionFunc("view", completeViews)

	taskReorderCmd.Flags().StringVar(&taskReorderView, "view", "", "Board view the column belongs to")
	taskReorderCmd.Flags().StringVar(&taskReorderPlan, "plan", "", "Weekly plan id for the plan view")
	taskReorderCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return completeStatuses(cmd, args, toComplete)
		}
		return completeTaskIDs()(cmd, args, toComplete)
	}

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskReorderCmd)
	taskCmd.AddCommand(taskDueCmd)
	taskCmd.AddCommand(taskRemindCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	rootCmd.AddCommand(taskCmd)
}
