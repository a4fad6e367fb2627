package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
)

var (
	boardView       string
	boardPlan       string
	boardSort       string
	boardSuperseded bool
	boardJSON       bool
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the board's three columns",
	Long: `Show the todo, in progress and complete columns for a view.

Views:
  default  every current task across all plans (the default)
  main     only tasks not scoped to a weekly plan
  plan     one weekly plan's tasks, archived ones included (--plan ID)

Sort modes: manual, priority_formula, formula, overdue.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		v, err := core.ParseView(boardView, boardPlan)
		if err != nil {
			return err
		}
		v.IncludeSuperseded = boardSuperseded

		mode := Settings.DefaultSort
		if boardSort != "" {
			if mode, err = core.ParseSortMode(boardSort); err != nil {
				return err
			}
		}

		cols := Engine.Columns(v, mode)
		out := cmd.OutOrStdout()
		if boardJSON {
			data, err := json.MarshalIndent(cols, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting board as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		header := fmt.Sprintf("Board: %s (sort: %s)", v, mode)
		if v.Kind == core.ViewPlan {
			if p := Engine.Board().Plan(v.PlanID); p != nil {
				header = fmt.Sprintf("Plan %q, week of %s (sort: %s)", p.Title, p.WeekStart.In(Settings.location()).Format("Mon Jan 2 2006"), mode)
			}
		}
		fmt.Fprintln(out, header)
		fmt.Fprintln(out)
		printColumns(out, cols, Engine.Now(), Settings.location())
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run the board-load transitions now",
	Long: `Archive complete tasks whose period has ended and spawn any due
recurring task instances. These transitions also run every time the board
is loaded.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		res, err := Engine.Refresh(commandContext(cmd), Settings.WeekStartsOn, Settings.location())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Period start: %s\n", res.Cutoff.In(Settings.location()).Format("Mon Jan 2 2006"))
		fmt.Fprintf(out, "Archived %d task(s), spawned %d recurring task(s).\n", len(res.Archived), len(res.Spawned))
		return nil
	},
}

func completeViews(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{"default", "main", "plan"}, cobra.ShellCompDirectiveNoFileComp
}

func completeSortModes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	modes := make([]string, len(core.SortModes))
	for i, m := range core.SortModes {
		modes[i] = string(m)
	}
	return modes, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	boardCmd.Flags().StringVar(&boardView, "view", "", "Board view: default, main or plan")
	boardCmd.Flags().StringVar(&boardPlan, "plan", "", "Weekly plan id for the plan view")
	boardCmd.Flags().StringVar(&boardSort, "sort", "", "Sort mode (defaults to board.default_sort)")
	boardCmd.Flags().BoolVar(&boardSuperseded, "superseded", false, "Include forwarded originals in a plan view")
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "Output columns as JSON")
	_ = boardCmd.RegisterFlagCompletionFunc("view", completeViews)
	_ = boardCmd.RegisterFlagCompletionFunc("sort", completeSortModes)
	_ = boardCmd.RegisterFlagCompletionFunc("plan", completePlanIDs)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(refreshCmd)
}
