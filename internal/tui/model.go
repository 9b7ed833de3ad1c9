package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/diogo/concierge/internal/chat"
	"github.com/diogo/concierge/internal/history"
	"github.com/diogo/concierge/internal/logging"
	"github.com/diogo/concierge/internal/render"
)

// textarea.Model is the Input the controller reads and clears
var _ chat.Input = (*textarea.Model)(nil)

// Animation tick message
type animationTickMsg time.Time

type (
	// replyMsg carries the outcome of one request back to the event loop
	replyMsg struct {
		pending *chat.Pending
		reply   string
		err     error
	}
	copiedMsg struct {
		err error
	}
)

// Options configures the chat screen
type Options struct {
	ServerURL string
	// Markdown renders bot replies through glamour
	Markdown      bool
	RenderOptions render.Options
	// AutoCopy copies every successful reply to the clipboard
	AutoCopy bool
	Logger   *log.Logger
}

// Model is the chat screen. All conversation state lives in the controller;
// the model only keeps what the terminal needs to draw it.
type Model struct {
	ctrl      *chat.Controller
	serverURL string

	// Request lifecycle
	ctx       context.Context
	cancelReq context.CancelFunc

	// Rendering
	markdown   bool
	renderOpts render.Options
	autoCopy   bool
	copyText   func(string) error
	logger     *log.Logger

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	loading        bool
	ready          bool
	notice         string
	noticeIsError  bool
	animationFrame int

	// Dimensions
	width  int
	height int
}

// NewChatModel creates the chat screen bound to ctrl
func NewChatModel(ctrl *chat.Controller, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about our wines, tours or anything else..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	renderOpts := opts.RenderOptions
	if renderOpts.Width == 0 {
		renderOpts = render.DefaultOptions()
	}

	return Model{
		ctrl:       ctrl,
		serverURL:  opts.ServerURL,
		ctx:        context.Background(),
		markdown:   opts.Markdown,
		renderOpts: renderOpts,
		autoCopy:   opts.AutoCopy,
		copyText:   clipboard.WriteAll,
		logger:     logger,
		textarea:   ta,
		spinner:    s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelRequest()
			return m, tea.Quit

		case "esc":
			if m.loading {
				// the reply settles as a failure through the normal path
				m.cancelRequest()
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+y":
			text, ok := m.ctrl.LastReply()
			if !ok {
				m.setNotice("Nothing to copy yet", true)
				return m, nil
			}
			return m, m.copyReply(text)

		case "enter":
			if m.loading {
				return m, nil
			}
			return m.submit()
		}

	case replyMsg:
		m.ctrl.Settle(msg.pending, msg.reply, msg.err)
		m.loading = false
		m.cancelReq = nil
		m.refresh()
		if msg.err == nil && m.autoCopy {
			cmds = append(cmds, m.copyReply(msg.reply))
		}

	case copiedMsg:
		if msg.err != nil {
			m.logger.Warn("clipboard copy failed", "err", msg.err)
			m.setNotice("Could not copy to clipboard", true)
		} else {
			m.setNotice("Reply copied to clipboard", false)
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.loading {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only key presses reach the textarea so terminal responses never leak into it
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit starts a submit cycle from the textarea
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.textarea.Value())
	switch value {
	case "exit", "quit", "/exit", "/quit":
		return m, tea.Quit
	case "/save":
		m.setNotice("Usage: /save <file.md|file.json>", true)
		return m, nil
	}
	if path, ok := strings.CutPrefix(value, "/save "); ok {
		return m.saveTranscript(strings.TrimSpace(path))
	}

	p, err := m.ctrl.Begin(&m.textarea)
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		return m, nil
	case errors.Is(err, chat.ErrBusy):
		m.setNotice("Still waiting for the previous reply", true)
		return m, nil
	case err != nil:
		m.logger.Error("submit failed", "err", err)
		return m, nil
	}

	m.notice = ""
	m.loading = true
	m.animationFrame = 0
	m.refresh()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelReq = cancel

	return m, tea.Batch(
		m.request(ctx, cancel, p),
		m.spinner.Tick,
		animationTick(),
	)
}

// saveTranscript exports the settled conversation to path
func (m Model) saveTranscript(path string) (tea.Model, tea.Cmd) {
	err := history.WriteFile(path, m.ctrl.Messages(), history.ExportOptions{ServerURL: m.serverURL})
	if err != nil {
		m.logger.Error("transcript export failed", "path", path, "err", err)
		m.setNotice("Could not save transcript", true)
		return m, nil
	}
	m.textarea.Reset()
	m.setNotice("Transcript saved to "+path, false)
	return m, nil
}

// request runs the network call off the event loop
func (m Model) request(ctx context.Context, cancel context.CancelFunc, p *chat.Pending) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		defer cancel()
		reply, err := ctrl.Request(ctx, p)
		return replyMsg{pending: p, reply: reply, err: err}
	}
}

func (m *Model) cancelRequest() {
	if m.cancelReq != nil {
		m.cancelReq()
	}
}

func (m Model) copyReply(text string) tea.Cmd {
	write := m.copyText
	return func() tea.Msg {
		return copiedMsg{err: write(text)}
	}
}

func (m *Model) setNotice(text string, isError bool) {
	m.notice = text
	m.noticeIsError = isError
}

// resize lays out the panels for a new terminal size
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 4
	inputHeight := 6
	statusHeight := 1
	padding := 2

	vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := m.width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)
	m.renderOpts = m.renderOpts.WithWidth(bubbleWidth(contentWidth) - 4)
	m.refresh()
}

// refresh redraws the transcript and keeps the newest message in view
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderTranscript(m.ctrl.Messages(), m.viewport.Width, m.formatReply))
	m.viewport.GotoBottom()
}

func (m Model) formatReply(text string) string {
	return render.Reply(text, m.markdown, m.renderOpts)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("🍷 Vinetos de Sol Concierge"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.serverURL),
	}
	header := headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...),
	)
	sections = append(sections, header)

	// Messages
	var messagesContent string
	if len(m.ctrl.Messages()) == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.loading {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.notice != "" {
		style := noticeStyle
		if m.noticeIsError {
			style = errorStyle
		}
		sections = append(sections, style.Render("  "+m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("🍇")
	title := welcomeTitleStyle.Width(width).Render("Welcome to Vinetos de Sol")
	subtitle := welcomeStyle.Width(width).Render("Ask about our wines, tastings, tours or the weather in Napa")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation draws the gradient bar shown while a reply is awaited
func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[frame%len(chars)])

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (frame / 3) % 4
	for i := 0; i < numDots; i++ {
		dotColor := gradientColors[(frame+i)%len(gradientColors)]
		dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
	}
	for i := numDots; i < 3; i++ {
		dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" The concierge is typing ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, dots.String())
}

func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Ctrl+Y", "Copy reply"},
		{"/save", "Export"},
		{"Esc", "Cancel/Quit"},
		{"↑↓", "Scroll"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// RunChat starts the chat TUI and blocks until the user quits
func RunChat(ctrl *chat.Controller, opts Options) error {
	p := tea.NewProgram(
		NewChatModel(ctrl, opts),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
