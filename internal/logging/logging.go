// Package logging builds the structured loggers used by the concierge client
// and server.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// New returns a logger writing to w. Verbose lowers the level to debug.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "concierge",
	})
	logger.SetStyles(styles())
	return logger
}

// NewStderr returns a logger writing to stderr
func NewStderr(verbose bool) *log.Logger {
	return New(os.Stderr, verbose)
}

// NewFile returns a logger appending to the file at path, creating parent
// directories as needed. The returned closer releases the file.
func NewFile(path string, verbose bool) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := New(f, verbose)
	logger.SetFormatter(log.LogfmtFormatter)
	return logger, f, nil
}

// Discard returns a logger that drops everything
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// styles highlights error values the way the rest of the CLI highlights errors
func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	s.Values["err"] = lipgloss.NewStyle().Bold(true)
	s.Keys["status"] = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	return s
}
