package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Weekly plan commands",
	Long:  "Commands for creating and listing weekly plans.",
}

var (
	planCreateTitle string
	planCreateNext  bool
)

var planCreateCmd = &cobra.Command{
	Use:   "create [date]",
	Short: "Create a weekly plan",
	Long: `Create a weekly plan for the week containing date (YYYY-MM-DD). The plan
starts on the configured board.week_starts_on day. Without a date the
current week is used; --next picks the week after it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		loc := Settings.location()
		day := Engine.Now()
		if len(args) == 1 {
			d, err := parseWhen(args[0], loc)
			if err != nil {
				return err
			}
			if d == nil {
				return fmt.Errorf("a date is required, got %q", args[0])
			}
			day = *d
		}
		weekStart := core.PeriodStart(day, Settings.WeekStartsOn, loc)
		if planCreateNext {
			weekStart = weekStart.AddDate(0, 0, 7)
		}

		p, err := Engine.CreatePlan(commandContext(cmd), planCreateTitle, weekStart)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created plan %s: %s (week of %s)\n", p.ID, p.Title, p.WeekStart.In(loc).Format("Mon Jan 2 2006"))
		return nil
	},
}

var planListJSON bool

var planListCmd = &cobra.Command{
	Use:   "list",
	Short: "List weekly plans, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		plans := Engine.Board().Plans()
		out := cmd.OutOrStdout()
		if planListJSON {
			data, err := json.MarshalIndent(plans, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting plans as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		if len(plans) == 0 {
			fmt.Fprintln(out, "No weekly plans.")
			return nil
		}

		counts := planTaskCounts()
		fmt.Fprintf(out, "%-36s  %-10s  %-5s  %s\n", "ID", "WEEK", "TASKS", "TITLE")
		for _, p := range plans {
			fmt.Fprintf(out, "%-36s  %-10s  %-5d  %s\n", p.ID, p.WeekStart.In(Settings.location()).Format("2006-01-02"), counts[p.ID], p.Title)
		}
		return nil
	},
}

// planTaskCounts counts the current tasks of each plan.
func planTaskCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range Engine.Board().Tasks() {
		if t.WeeklyPlanID == nil || t.Deleted() || t.Superseded() {
			continue
		}
		counts[*t.WeeklyPlanID]++
	}
	return counts
}

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Formula step commands",
	Long: `Commands for the formula steps used by the formula sort modes. Tasks with
a higher-ranked step sort first.`,
}

var stepAddCmd = &cobra.Command{
	Use:   "add <name> <rank>",
	Short: "Add a formula step",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		rank, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: rank %q is not an integer", core.ErrInvalidInput, args[1])
		}
		s, err := Engine.AddStep(commandContext(cmd), args[0], rank)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added step %s: %s (rank %d)\n", s.ID, s.Name, s.Rank)
		return nil
	},
}

var stepListCmd = &cobra.Command{
	Use:   "list",
	Short: "List formula steps, highest rank first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		steps := Engine.Board().Steps()
		out := cmd.OutOrStdout()
		if len(steps) == 0 {
			fmt.Fprintln(out, "No formula steps.")
			return nil
		}
		for _, s := range steps {
			fmt.Fprintf(out, "%5d  %s  %s\n", s.Rank, s.ID, s.Name)
		}
		return nil
	},
}

func init() {
	planCreateCmd.Flags().StringVar(&planCreateTitle, "title", "", "Plan title")
	planCreateCmd.Flags().BoolVar(&planCreateNext, "next", false, "Create the plan for the following week")
	planListCmd.Flags().BoolVar(&planListJSON, "json", false, "Output plans as JSON")
	planCmd.AddCommand(planCreateCmd)
	planCmd.AddCommand(planListCmd)
	rootCmd.AddCommand(planCmd)

	stepCmd.AddCommand(stepAddCmd)
	stepCmd.AddCommand(stepListCmd)
	rootCmd.AddCommand(stepCmd)
}
