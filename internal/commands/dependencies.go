package commands

import (
	"context"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/diogo/concierge/internal/api"
	"github.com/diogo/concierge/internal/chat"
	"github.com/diogo/concierge/internal/config"
	"github.com/diogo/concierge/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(ctrl *chat.Controller, opts tui.Options) error
}

// ClientFactory creates the chat API client for a server URL
type ClientFactory func(baseURL string, opts ...api.ClientOption) (api.ChatClientInterface, error)

// ServeFunc starts the concierge server and blocks until ctx is done
type ServeFunc func(ctx context.Context, cfg config.ServerConfig, logger *log.Logger) error

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	NewClient ClientFactory
	TUI       TUIInterface
	Serve     ServeFunc

	LoadConfig       func() (config.Config, error)
	LoadServerConfig func() (config.ServerConfig, error)
	Clipboard        func(string) error

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinIsPipe reports whether a prompt should be read from Stdin
	StdinIsPipe func() bool
	// StdoutIsTTY reports whether decorated output should be used
	StdoutIsTTY func() bool
	// TerminalWidth returns the width used to lay out replies
	TerminalWidth func() int
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(ctrl *chat.Controller, opts tui.Options) error {
	return tui.RunChat(ctrl, opts)
}

func newAPIClient(baseURL string, opts ...api.ClientOption) (api.ChatClientInterface, error) {
	return api.NewClient(baseURL, opts...)
}

func loadServerConfig() (config.ServerConfig, error) {
	return config.LoadServerConfig()
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewClient:        newAPIClient,
		TUI:              &DefaultTUI{},
		Serve:            runServer,
		LoadConfig:       config.LoadConfig,
		LoadServerConfig: loadServerConfig,
		Clipboard:        clipboard.WriteAll,
		Stdin:            os.Stdin,
		Stdout:           os.Stdout,
		Stderr:           os.Stderr,
		StdinIsPipe:      stdinIsPipe,
		StdoutIsTTY:      isStdoutTTY,
		TerminalWidth:    getTerminalWidth,
	}
}

// withDefaults fills every nil field from NewDependencies
func (d *Dependencies) withDefaults() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.NewClient == nil {
		out.NewClient = def.NewClient
	}
	if out.TUI == nil {
		out.TUI = def.TUI
	}
	if out.Serve == nil {
		out.Serve = def.Serve
	}
	if out.LoadConfig == nil {
		out.LoadConfig = def.LoadConfig
	}
	if out.LoadServerConfig == nil {
		out.LoadServerConfig = def.LoadServerConfig
	}
	if out.Clipboard == nil {
		out.Clipboard = def.Clipboard
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	if out.StdinIsPipe == nil {
		out.StdinIsPipe = def.StdinIsPipe
	}
	if out.StdoutIsTTY == nil {
		out.StdoutIsTTY = def.StdoutIsTTY
	}
	if out.TerminalWidth == nil {
		out.TerminalWidth = def.TerminalWidth
	}
	return &out
}

// stdinIsPipe returns true when stdin is not a terminal
func stdinIsPipe() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
