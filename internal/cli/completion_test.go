package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompletionCommand_DisablesDefault(t *testing.T) {
	if !rootCmd.CompletionOptions.DisableDefaultCmd {
		t.Error("expected Cobra default completion command to be disabled")
	}
}

func TestCompletionCommand_NoArgsShowsHelp(t *testing.T) {
	out, err := runCLI(t, "completion")
	if err != nil {
		t.Fatalf("completion with no args should show help, not error: %v", err)
	}
	if !strings.Contains(out, "Quick install") {
		t.Error("no-args output should show help with install instructions")
	}
}

func TestCompletionCommand_Output(t *testing.T) {
	tests := []struct {
		shell string
		want  string
	}{
		{"bash", "__start_wb"},
		{"zsh", "compdef"},
		{"fish", "complete"},
		{"powershell", "Register-ArgumentCompleter"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			out, err := runCLI(t, "completion", tt.shell)
			if err != nil {
				t.Fatalf("completion %s failed: %v", tt.shell, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("%s completion output should contain %q", tt.shell, tt.want)
			}
			if strings.Contains(out, "To load completions") {
				t.Error("usage hints should go to stderr, not stdout")
			}
		})
	}
}

func TestCompletionCommand_UnsupportedShell(t *testing.T) {
	if _, err := runCLI(t, "completion", "nushell"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}

func TestCompletionCommand_Install(t *testing.T) {
	tests := []struct {
		shell  string
		target []string
		want   string
	}{
		{"bash", []string{".local", "share", "bash-completion", "completions", "wb"}, "__start_wb"},
		{"zsh", []string{".local", "share", "zsh", "site-functions", "_wb"}, "compdef"},
		{"fish", []string{".config", "fish", "completions", "wb.fish"}, "complete"},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			tmpHome := t.TempDir()
			t.Setenv("HOME", tmpHome)
			t.Setenv("USERPROFILE", tmpHome) // Windows

			out, err := runCLI(t, "completion", tt.shell, "--install")
			if err != nil {
				t.Fatalf("completion %s --install failed: %v", tt.shell, err)
			}

			target := filepath.Join(append([]string{tmpHome}, tt.target...)...)
			data, err := os.ReadFile(target)
			if err != nil {
				t.Fatalf("expected completion file at %s: %v", target, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("completion file should contain %q", tt.want)
			}
			if !strings.Contains(out, "Completions installed to "+target) {
				t.Errorf("output = %q", out)
			}
		})
	}
}

func TestCompletionCommand_InstallPowershellFails(t *testing.T) {
	_, err := runCLI(t, "completion", "powershell", "--install")
	if err == nil {
		t.Fatal("expected error for powershell --install")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("error should mention 'not supported', got: %v", err)
	}
}
