package cli

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	wbmcp "github.com/valter-silva-au/weekboard/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the wb MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wb MCP server on stdio",
	Long: `Start the wb MCP server on stdio transport.

The server exposes the board as MCP tools that AI assistants can call:
list_board, get_task, add_task, move_task, reorder_partition, forward_tasks,
archive_completed, restore_task, scan_alerts, list_alerts, dismiss_alert and
get_metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireEngine(); err != nil {
			return err
		}

		srv := wbmcp.NewServer(Engine, Alerts, MetricsCalc, Lock, wbmcp.Config{
			DefaultSort:  Settings.DefaultSort,
			WeekStartsOn: Settings.WeekStartsOn,
			Location:     Settings.location(),
		}, appVersion)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
