package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/pkg/models"
)

var alertsNotify bool

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Scan for overdue tasks and reminders and show active alerts",
	Long: `Evaluate overdue and reminder alerts against the board, then list every
alert that has fired and is not yet dismissed.

An overdue alert fires once per due time; a reminder fires once and clears
the task's reminder. Dismissed alerts do not fire again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Alerts == nil {
			return fmt.Errorf("alert deduplicator not initialized")
		}
		if err := requireEngine(); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		b := Engine.Board()
		fired, scanErr := Alerts.Scan(commandContext(cmd), Engine.Now(), b.Tasks(), b.Complete())
		if len(fired) > 0 {
			fmt.Fprintf(out, "%d new alert(s) fired.\n\n", len(fired))
			if alertsNotify && Notifier != nil {
				if err := Notifier.Notify(fired); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: sending notifications: %s\n", err)
				}
			}
		}
		if scanErr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", scanErr)
		}

		active, err := Alerts.Active()
		if err != nil {
			return fmt.Errorf("listing alerts: %w", err)
		}
		if len(active) == 0 {
			fmt.Fprintln(out, "No active alerts.")
			return nil
		}

		fmt.Fprintf(out, "%d active alert(s):\n\n", len(active))
		printAlerts(out, active)
		return nil
	},
}

func printAlerts(w io.Writer, alerts []models.Alert) {
	loc := Settings.location()
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s] %s\n", a.Kind, a.Message())
		fmt.Fprintf(w, "         key %s, fired at %s\n\n", a.Key, a.FiredAt.In(loc).Format("2006-01-02 15:04 MST"))
	}
}

var alertsDismissCmd = &cobra.Command{
	Use:   "dismiss <kind> <key>",
	Short: "Dismiss a fired alert",
	Long: `Dismiss a fired alert by kind (overdue or reminder) and key, as shown by
'wb alerts'. A dismissed alert does not fire again.`,
	Args: cobra.ExactArgs(2),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return completeAlertKinds(cmd, args, toComplete)
		}
		if len(args) == 1 && Alerts != nil {
			active, err := Alerts.Active()
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var keys []string
			for _, a := range active {
				if string(a.Kind) == args[0] {
					keys = append(keys, a.Key+"\t"+a.Title)
				}
			}
			return keys, cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if Alerts == nil {
			return fmt.Errorf("alert deduplicator not initialized")
		}
		kind, err := models.ParseAlertKind(args[0])
		if err != nil {
			return err
		}
		if err := Alerts.Dismiss(kind, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s alert %s.\n", kind, args[1])
		return nil
	},
}

func init() {
	alertsCmd.Flags().BoolVar(&alertsNotify, "notify", false, "Send newly fired alerts to the configured notifier")
	alertsCmd.AddCommand(alertsDismissCmd)
	rootCmd.AddCommand(alertsCmd)
}
