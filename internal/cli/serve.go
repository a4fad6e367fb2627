package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/web"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over an HTTP JSON API",
	Long: `Serve the board's HTTP JSON API under /api until interrupted.

The address defaults to http.addr from .boardconfig. With --watch the alert
watcher runs in the same process on alerts.interval.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}
		addr := serveAddr
		if addr == "" {
			addr = Settings.HTTPAddr
		}

		srv := web.NewServer(Engine, Alerts, MetricsCalc, Lock, web.Config{
			DefaultSort:  Settings.DefaultSort,
			WeekStartsOn: Settings.WeekStartsOn,
			Location:     Settings.location(),
		})

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		if serveWatch {
			startWatcher(ctx, cmd)
		}

		httpSrv := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			errc <- httpSrv.ListenAndServe()
		}()
		fmt.Fprintf(cmd.OutOrStdout(), "Serving board on http://%s/api\n", addr)

		select {
		case err := <-errc:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving http: %w", err)
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to http.addr)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Run the alert watcher in the same process")
	rootCmd.AddCommand(serveCmd)
}
