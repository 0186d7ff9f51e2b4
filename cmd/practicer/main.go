// Package main provides the CLI entrypoint for practicer.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/practicer/internal/chart"
	"github.com/verte-zerg/practicer/internal/config"
	"github.com/verte-zerg/practicer/internal/mirror"
	"github.com/verte-zerg/practicer/internal/model"
)

var verbose bool

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logErrf("failed to load .env: %v\n", err)
	}
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if hint := errorHint(err); hint != "" {
			logErrln(hint)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "practicer",
		Short:         "Combo-bounded practice difficulties for osu! beatmaps",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every generated segment")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	parts := editorCommand()
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor %s: %w", parts[0], err)
	}
	return nil
}

// editorCommand splits $VISUAL or $EDITOR into argv, falling back to vi.
func editorCommand() []string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if parts := strings.Fields(os.Getenv(env)); len(parts) > 0 {
			return parts
		}
	}
	return []string{"vi"}
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# practicer configuration
# Uncomment a value to enable it. CLI flags override config values.

[generate]
# increment = %d          # Combo width of each practice segment
# lead-in = %q     # Lead-in style: spinners or slider
# volume = %d             # Lead-in hit sound volume (0-100)
# combo = %d              # Start combo of the default segment set
# extent = %q          # Default segment extent: next or end
# ar = 9.0                # Approach rate of the default segment set
# out = "."               # Output directory

[mirror]
# url = %q  # Also set by %s
# cache-dir = ""          # Downloaded sets (default: XDG cache)
# no-cache = false        # Always download
# timeout = %q           # Mirror request timeout
`,
		defaultIncrement,
		string(model.LeadInSpinners),
		defaultVolume,
		defaultStartCombo,
		string(model.ExtentNext),
		mirror.DefaultBaseURL,
		config.MirrorURLEnv,
		defaultTimeout.String(),
	)
}

// errorHint suggests a next step for errors the user can act on.
func errorHint(err error) string {
	var fetchErr *mirror.FetchError
	var formatErr *chart.FormatError
	var configErr *model.ConfigError
	switch {
	case errors.As(err, &fetchErr):
		return "The mirror could not be reached. Retry later, set " + config.MirrorURLEnv + ", or pass a local archive with --osz."
	case errors.As(err, &formatErr):
		return "The chart could not be read. Check the difficulty with: practicer inspect <file>"
	case errors.As(err, &configErr):
		return "Check the generation flags, the plan file and the [generate] section of the config."
	default:
		return ""
	}
}

// applyConfig copies a config file value into a flag target unless the flag
// was given on the command line.
func applyConfig[T any](cmd *cobra.Command, name string, target *T, value *T) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

// logErrf and logErrln write diagnostics to stderr. Write errors are dropped.
func logErrf(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format, args...)
}

func logErrln(args ...any) {
	_, _ = fmt.Fprintln(os.Stderr, args...)
}
