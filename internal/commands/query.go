package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/concierge/internal/api"
	"github.com/diogo/concierge/internal/chat"
	"github.com/diogo/concierge/internal/render"
	"github.com/diogo/concierge/internal/tui"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#722f37"), // Wine
	lipgloss.Color("#a4343a"), // Garnet
	lipgloss.Color("#d4a373"), // Oak
	lipgloss.Color("#e9c46a"), // Straw
	lipgloss.Color("#9ece6a"), // Vine
	lipgloss.Color("#c77dff"), // Grape
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorWarning  = lipgloss.Color("#f7768e")
	colorPrimary  = lipgloss.Color("#7aa2f7")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner drawing on out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner
func (s *spinner) stopWithError() {
	s.stopOnce()
	<-s.done
}

// promptInput feeds a one-shot message to the controller
type promptInput struct {
	text string
}

func (p *promptInput) Value() string { return p.text }
func (p *promptInput) Reset()        { p.text = "" }

// runQuery sends a single message and prints the reply. With --raw, or
// when stdout is not a terminal, only the reply text is written.
func runQuery(ctx context.Context, deps *Dependencies, opts *rootOptions, message string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := stderrLogger(deps, opts)
	cfg := clientConfig(deps, opts, logger)
	rawOutput := opts.raw || !deps.StdoutIsTTY()

	client, err := deps.NewClient(cfg.ServerURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	ctrl := chat.NewController(client, chat.WithLogger(logger))
	pending, err := ctrl.Begin(&promptInput{text: message})
	if err != nil {
		return fmt.Errorf("message cannot be empty: %w", err)
	}

	var spin *spinner
	if !rawOutput {
		spin = newSpinner(deps.Stderr, "Asking the concierge")
		spin.start()
	}

	startTime := time.Now()
	reply, reqErr := ctrl.Request(ctx, pending)
	ctrl.Settle(pending, reply, reqErr)
	logger.Debug("request finished", "server", client.BaseURL(), "elapsed", time.Since(startTime).Round(time.Millisecond))

	if reqErr != nil {
		if !rawOutput {
			spin.stopWithError()
		}
		fmt.Fprintln(deps.Stderr, formatErrorMessage(reqErr, "Request failed"))
		return reported(fmt.Errorf("request failed: %w", reqErr))
	}
	if !rawOutput {
		spin.stopWithSuccess("Done")
	}

	if opts.output != "" {
		if err := os.WriteFile(opts.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if !rawOutput {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Reply saved to %s", opts.output),
			))
		}
		return nil
	}

	if rawOutput {
		fmt.Fprint(deps.Stdout, reply)
		return nil
	}

	if cfg.CopyToClipboard {
		if err := deps.Clipboard(reply); err != nil {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorWarning).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			))
		} else {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	bubbleWidth := min(max(deps.TerminalWidth()-4, 40), 120)
	contentWidth := bubbleWidth - 4

	renderOpts := render.OptionsFromConfig(cfg.Markdown).WithWidth(contentWidth)
	rendered := render.Reply(reply, cfg.Markdown.Enabled, renderOpts)

	fmt.Fprintln(deps.Stdout, assistantLabelStyle.Render("🍷 Concierge"))
	fmt.Fprintln(deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
	return nil
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}
	return tui.FormatError(fmt.Errorf("%s: %w", context, err))
}
