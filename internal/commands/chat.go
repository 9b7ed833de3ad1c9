package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/diogo/concierge/internal/api"
	"github.com/diogo/concierge/internal/chat"
	"github.com/diogo/concierge/internal/logging"
	"github.com/diogo/concierge/internal/render"
	"github.com/diogo/concierge/internal/tui"
)

// healthTimeout bounds the connectivity check before the chat opens
const healthTimeout = 5 * time.Second

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, opts *rootOptions) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat with the Vinetos de Sol concierge.

Type a message and press Enter to send it. Ctrl+Y copies the last reply.
Type 'exit', 'quit', or press Ctrl+C to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), deps, opts, skipCheck)
		},
	}
	cmd.Flags().BoolVar(&skipCheck, "no-check", false, "Skip the server health check")
	return cmd
}

func runChat(ctx context.Context, deps *Dependencies, opts *rootOptions, skipCheck bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := clientConfig(deps, opts, stderrLogger(deps, opts))

	// The alternate screen owns the terminal, so the chat logs to a file
	logger := logging.Discard()
	if cfg.LogFile != "" {
		fileLogger, closer, err := logging.NewFile(cfg.LogFile, cfg.Verbose)
		if err != nil {
			fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Log file unavailable"))
		} else {
			defer closer.Close()
			logger = fileLogger
		}
	}

	client, err := deps.NewClient(cfg.ServerURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	if !skipCheck {
		if err := checkServer(ctx, deps, client, logger); err != nil {
			return err
		}
	}

	if cfg.TUITheme != "" {
		tui.SetTheme(cfg.TUITheme)
	}

	ctrl := chat.NewController(client, chat.WithLogger(logger))
	return deps.TUI.RunChat(ctrl, tui.Options{
		ServerURL:     client.BaseURL(),
		Markdown:      cfg.Markdown.Enabled,
		RenderOptions: render.OptionsFromConfig(cfg.Markdown),
		AutoCopy:      cfg.CopyToClipboard,
		Logger:        logger,
	})
}

// checkServer calls /health with a spinner so a missing server is
// reported before the chat screen opens
func checkServer(ctx context.Context, deps *Dependencies, client api.ChatClientInterface, logger *log.Logger) error {
	spin := newSpinner(deps.Stderr, "Connecting to the concierge")
	spin.start()

	hctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := client.Health(hctx); err != nil {
		spin.stopWithError()
		logger.Error("health check failed", "server", client.BaseURL(), "err", err)
		fmt.Fprintln(deps.Stderr, formatErrorMessage(err, "Cannot reach "+client.BaseURL()))
		return reported(fmt.Errorf("server unavailable: %w", err))
	}
	spin.stopWithSuccess("Connected")
	return nil
}
