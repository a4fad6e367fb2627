package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
)

var archiveCutoff string

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive complete tasks from earlier periods",
	Long: `Archive complete tasks whose period started before the cutoff. The
cutoff defaults to the start of the current week.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		loc := Settings.location()
		cutoff := core.PeriodStart(Engine.Now(), Settings.WeekStartsOn, loc)
		if archiveCutoff != "" {
			c, err := parseWhen(archiveCutoff, loc)
			if err != nil {
				return fmt.Errorf("parsing --cutoff: %w", err)
			}
			if c != nil {
				cutoff = *c
			}
		}

		ids, err := Engine.Archive(commandContext(cmd), cutoff)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(ids) == 0 {
			fmt.Fprintln(out, "Nothing to archive.")
			return nil
		}
		short := make([]string, len(ids))
		for i, id := range ids {
			short[i] = shortID(id)
		}
		fmt.Fprintf(out, "Archived %d task(s): %s\n", len(ids), strings.Join(short, ", "))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <task-id>",
	Short: "Bring an archived task back to todo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		id, err := resolveTaskID(args[0])
		if err != nil {
			return err
		}
		t, err := Engine.Restore(commandContext(cmd), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored task %s: %s\n", shortID(t.ID), t.Title)
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVar(&archiveCutoff, "cutoff", "", "Archive tasks from periods before this time")
	rootCmd.AddCommand(archiveCmd)
	restoreCmd.ValidArgsFunction = func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Engine == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var ids []string
		for _, t := range Engine.Board().Tasks() {
			if t.Archived() && !t.Deleted() && strings.HasPrefix(t.ID, toComplete) {
				ids = append(ids, t.ID+"\t"+t.Title)
			}
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
	rootCmd.AddCommand(restoreCmd)
}
