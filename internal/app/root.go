// Package app contains the Cobra command tree for deproductify.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/deproductify/internal/config"
	"github.com/blackwell-systems/deproductify/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "deproductify",
	Short: "Catch yourself being productive and put a stop to it",
	Long: `deproductify watches your screen, focused window and typing rhythm,
fuses them into a productivity score, and when you have been productive for
too long it activates the Performative Protocol.

Run 'deproductify watch' to start monitoring.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "deproductify", appVersion)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Use a subcommand:")
		fmt.Fprintln(out, "  watch     Monitor activity and activate when you are too productive")
		fmt.Fprintln(out, "  history   List past monitoring sessions")
		fmt.Fprintln(out, "  doctor    Check that capture tools and credentials are available")
		fmt.Fprintln(out, "  cache     Inspect or clear cached classifications")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/deproductify/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

// setup applies the global flags before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if flagNoColor || !isTerminal(os.Stdout) {
		output.SetNoColor(true)
	}
	setLogger(os.Stderr)
	return nil
}

// setLogger routes slog output to w at the level selected by --verbose.
func setLogger(w io.Writer) {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig loads the configuration and applies its output preferences.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if !cfg.Output.Color {
		output.SetNoColor(true)
	}
	return cfg, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
