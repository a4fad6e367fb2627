package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

var (
	forwardPlan  string
	forwardWeek  string
	forwardTitle string
	forwardFrom  string
)

var forwardCmd = &cobra.Command{
	Use:   "forward [task-id]...",
	Short: "Forward unfinished tasks into a weekly plan",
	Long: `Forward tasks into a weekly plan. Each task is cloned into the
destination and the original is linked to its clone; each task forwards
fully or not at all.

The destination is an existing plan (--plan) or the plan for the week
containing --week, created if missing. --from forwards every open task of
another plan.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		ids, err := resolveTaskIDs(args)
		if err != nil {
			return err
		}
		if forwardFrom != "" {
			ids = append(ids, openPlanTasks(forwardFrom)...)
		}
		if len(ids) == 0 {
			return fmt.Errorf("no tasks to forward: give task ids or --from <plan-id>")
		}

		var dest core.Destination
		switch {
		case forwardWeek != "":
			loc := Settings.location()
			d, err := parseWhen(forwardWeek, loc)
			if err != nil {
				return fmt.Errorf("parsing --week: %w", err)
			}
			if d == nil {
				return fmt.Errorf("--week needs a date")
			}
			dest = core.NewPlan(core.PeriodStart(*d, Settings.WeekStartsOn, loc), forwardTitle)
		case forwardPlan != "":
			dest = core.ExistingPlan(forwardPlan)
		default:
			return fmt.Errorf("give a destination with --plan or --week")
		}

		report, err := Engine.Forward(commandContext(cmd), ids, dest)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, it := range report.Items {
			if it.Err != nil {
				fmt.Fprintf(out, "  %s  skipped: %s\n", shortID(it.SourceID), it.Err)
				continue
			}
			fmt.Fprintf(out, "  %s  -> %s  %s\n", shortID(it.SourceID), shortID(it.Clone.ID), it.Clone.Title)
		}
		fmt.Fprintf(out, "Forwarded %d of %d task(s) into plan %s.\n", len(report.Clones()), len(report.Items), report.PlanID)
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d task(s) could not be forwarded", len(failed))
		}
		return nil
	},
}

// openPlanTasks returns the ids of a plan's unfinished, unforwarded tasks.
func openPlanTasks(planID string) []string {
	var ids []string
	for _, t := range Engine.Board().Visible(core.PlanView(planID)) {
		if t.Status != models.StatusComplete && !t.Archived() {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

func init() {
	forwardCmd.Flags().StringVar(&forwardPlan, "plan", "", "Existing destination plan id")
	forwardCmd.Flags().StringVar(&forwardWeek, "week", "", "Destination week (any date in it)")
	forwardCmd.Flags().StringVar(&forwardTitle, "title", "", "Title for a newly created plan")
	forwardCmd.Flags().StringVar(&forwardFrom, "from", "", "Forward every open task of this plan")
	forwardCmd.ValidArgsFunction = completeTaskIDs(models.StatusComplete)
	_ = forwardCmd.RegisterFlagCompletionFunc("plan", completePlanIDs)
	_ = forwardCmd.RegisterFlagCompletionFunc("from", completePlanIDs)
	rootCmd.AddCommand(forwardCmd)
}
