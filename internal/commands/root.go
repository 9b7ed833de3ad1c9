// Package commands provides the CLI commands for concierge.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/diogo/concierge/internal/config"
	"github.com/diogo/concierge/internal/logging"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootOptions holds the flags shared by the command tree
type rootOptions struct {
	server  string
	verbose bool
	output  string
	file    string
	raw     bool
}

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "concierge [message]",
		Short: "Chat with the Vinetos de Sol concierge",
		Long: `concierge talks to the Vinetos de Sol winery concierge. Ask a single
question, open the interactive chat, or run the concierge server.

Examples:
  concierge chat                         Start the interactive chat
  concierge "When are you open?"         Ask a single question
  concierge -f question.txt              Read the question from a file
  echo "Any events tonight?" | concierge Read the question from stdin
  concierge "Wine list?" -o wines.md     Save the reply to a file
  concierge serve                        Start the concierge server`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "concierge %s (built %s)\n", Version, BuildTime)
				return nil
			}

			if opts.file != "" {
				data, err := os.ReadFile(opts.file)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runQuery(cmd.Context(), deps, opts, string(data))
			}

			if len(args) > 0 {
				return runQuery(cmd.Context(), deps, opts, args[0])
			}

			if deps.StdinIsPipe() {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runQuery(cmd.Context(), deps, opts, string(data))
			}

			return cmd.Help()
		},
	}

	cmd.SetIn(deps.Stdin)
	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)

	cmd.PersistentFlags().StringVarP(&opts.server, "server", "s", "", "Concierge server URL (overrides config)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Save reply to file")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read message from file")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print only the reply text")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(
		NewChatCmd(deps, opts),
		NewServeCmd(deps, opts),
		NewConfigCmd(deps),
	)

	return cmd
}

// Execute runs the root command
func Execute() {
	deps := NewDependencies()
	if err := NewRootCmd(deps).Execute(); err != nil {
		var shown *reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Error"))
		}
		os.Exit(1)
	}
}

// reportedError marks an error already shown to the user
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// clientConfig loads the client config and applies the global flags.
// An unreadable config falls back to the defaults with a warning.
func clientConfig(deps *Dependencies, opts *rootOptions, logger *log.Logger) config.Config {
	cfg, err := deps.LoadConfig()
	if err != nil {
		logger.Warn("using default configuration", "err", err)
		cfg = config.DefaultConfig()
	}
	if opts.server != "" {
		cfg.ServerURL = opts.server
	}
	if opts.verbose {
		cfg.Verbose = true
	}
	return cfg
}

// stderrLogger returns the CLI logger, writing to deps.Stderr
func stderrLogger(deps *Dependencies, opts *rootOptions) *log.Logger {
	if f, ok := deps.Stderr.(*os.File); ok && f == os.Stderr {
		return logging.NewStderr(opts.verbose)
	}
	return logging.New(deps.Stderr, opts.verbose)
}
