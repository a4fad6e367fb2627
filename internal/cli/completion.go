package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var completionInstall bool

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for wb",
	Long: `Set up shell tab-completions for wb commands, flags, task ids and plan ids.

Supported shells: bash, zsh, fish, powershell

Quick install:

  wb completion bash --install
  wb completion zsh --install
  wb completion fish --install

Or print the completion script to stdout:

  wb completion bash
  wb completion powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

// shellCompletion describes how one shell loads and installs the script.
type shellCompletion struct {
	gen func(io.Writer) error
	// load is the one-liner that loads completions into the current session.
	load string
	// target returns the install path under home; nil means no --install.
	target func(home string) string
	after  func(w io.Writer, target string)
}

var shells = map[string]shellCompletion{
	"bash": {
		gen:  func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		load: `eval "$(wb completion bash)"`,
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "bash-completion", "completions", "wb")
		},
		after: func(w io.Writer, target string) {
			fmt.Fprintf(w, "Restart your shell or run: source %s\n", target)
		},
	},
	"zsh": {
		gen:  func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		load: `eval "$(wb completion zsh)"`,
		target: func(home string) string {
			return filepath.Join(home, ".local", "share", "zsh", "site-functions", "_wb")
		},
		after: func(w io.Writer, target string) {
			fmt.Fprintln(w, "Ensure this directory is in your fpath. Add to ~/.zshrc if needed:")
			fmt.Fprintf(w, "  fpath=(%s $fpath)\n", filepath.Dir(target))
			fmt.Fprintln(w, "  autoload -Uz compinit && compinit")
		},
	},
	"fish": {
		gen:  func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		load: "wb completion fish | source",
		target: func(home string) string {
			return filepath.Join(home, ".config", "fish", "completions", "wb.fish")
		},
		after: func(w io.Writer, _ string) {
			fmt.Fprintln(w, "Completions will be available in new fish sessions automatically.")
		},
	},
	"powershell": {
		gen:  func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		load: "wb completion powershell | Out-String | Invoke-Expression",
	},
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false,
		"Install completions into your shell profile")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	sh, ok := shells[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", args[0])
	}

	if completionInstall {
		if sh.target == nil {
			return fmt.Errorf("automatic install is not supported for %s; run 'wb completion %s' and add the output to your profile", args[0], args[0])
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
		return installCompletion(cmd.OutOrStdout(), sh, sh.target(home))
	}

	// Hints go to stderr so the script can be piped.
	hints := cmd.ErrOrStderr()
	fmt.Fprintln(hints, "# To load completions in your current session:")
	fmt.Fprintf(hints, "#   %s\n", sh.load)
	if sh.target != nil {
		fmt.Fprintf(hints, "# To install permanently:\n#   wb completion %s --install\n", args[0])
	}
	return sh.gen(cmd.OutOrStdout())
}

func installCompletion(out io.Writer, sh shellCompletion, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := sh.gen(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}

	fmt.Fprintf(out, "Completions installed to %s\n", target)
	if sh.after != nil {
		sh.after(out, target)
	}
	return nil
}
