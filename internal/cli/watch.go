package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/observability"
	"github.com/valter-silva-au/weekboard/pkg/models"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan for alerts on an interval until interrupted",
	Long: `Reload the board and scan for overdue tasks and reminders every interval,
printing each newly fired alert and sending it to the configured notifier.

The interval defaults to alerts.interval from .boardconfig. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Alerts == nil || NewAlertSource == nil {
			return fmt.Errorf("alert watcher not initialized")
		}
		interval := watchInterval
		if interval <= 0 {
			interval = Settings.AlertEvery
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		w := newWatcher(cmd, NewAlertSource(true))
		fmt.Fprintf(cmd.OutOrStdout(), "Watching for alerts every %s.\n", interval)
		if err := w.Run(ctx, interval); err != nil {
			return err
		}
		return nil
	},
}

// newWatcher builds a watcher that prints alerts and errors to the
// command's streams and shares Lock with the other surfaces.
func newWatcher(cmd *cobra.Command, source observability.TaskSource) *observability.Watcher {
	w := observability.NewWatcher(source, Alerts, Notifier)
	w.Lock = Lock
	w.OnAlerts = func(alerts []models.Alert) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d alert(s) fired\n", time.Now().In(Settings.location()).Format("15:04:05"), len(alerts))
		printAlerts(cmd.OutOrStdout(), alerts)
	}
	w.OnError = func(err error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", err)
	}
	return w
}

// startWatcher runs a watcher over the in-process engine in the
// background until ctx is done.
func startWatcher(ctx context.Context, cmd *cobra.Command) {
	if Alerts == nil || NewAlertSource == nil {
		return
	}
	w := newWatcher(cmd, NewAlertSource(false))
	go func() {
		_ = w.Run(ctx, Settings.AlertEvery)
	}()
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Scan interval (defaults to alerts.interval)")
	rootCmd.AddCommand(watchCmd)
}
