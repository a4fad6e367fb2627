package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/weekboard/internal/core"
)

var initTimezone string

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a .boardconfig with the default settings",
	Long: `Write a .boardconfig holding the default board settings to path (the
current board directory by default). wb looks for the nearest .boardconfig
above the working directory, so commands run anywhere below path use it.

An existing .boardconfig is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		basePath := BasePath
		if len(args) > 0 {
			basePath = args[0]
		}
		if basePath == "" {
			basePath = "."
		}
		absPath, err := filepath.Abs(basePath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		path, err := core.WriteDefaultConfig(absPath, initTimezone)
		if errors.Is(err, core.ErrConfigExists) {
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped: %s already exists.\n", path)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initTimezone, "timezone", "", "IANA timezone for period boundaries (default UTC)")
	rootCmd.AddCommand(initCmd)
}
