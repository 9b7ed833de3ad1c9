// Package chat implements the chat widget controller: it turns one submit
// into one request to the concierge server and reflects the outcome in an
// owned conversation view.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	apierrors "github.com/diogo/concierge/internal/errors"
	"github.com/diogo/concierge/internal/logging"
	"github.com/diogo/concierge/internal/models"
)

var (
	// ErrEmptyInput is returned by Begin when the input is blank after trimming
	ErrEmptyInput = errors.New("input is empty")

	// ErrBusy is returned by Begin while a previous message awaits its reply
	ErrBusy = errors.New("a message is already awaiting a reply")
)

// Sender delivers one message to the server and returns its reply text
type Sender interface {
	Send(ctx context.Context, message string) (string, error)
}

// Input is the text field a message is read from. *textarea.Model and
// *textinput.Model both satisfy it.
type Input interface {
	Value() string
	Reset()
}

// State is the controller's position in a submit cycle
type State int

const (
	StateIdle State = iota
	StateAwaiting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaiting:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// Pending describes a submitted message whose reply has not settled yet
type Pending struct {
	Text        string
	User        Handle
	Placeholder Handle
}

// Controller wires submissions to a Sender and owns the conversation view.
// At most one request is in flight at a time.
type Controller struct {
	mu       sync.Mutex
	conv     *Conversation
	sender   Sender
	logger   *log.Logger
	inflight *Pending
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger failures are reported to
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a controller with an empty conversation
func NewController(sender Sender, opts ...Option) *Controller {
	c := &Controller{
		conv:   NewConversation(),
		sender: sender,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin starts a submit cycle from the current input value.
//
// A blank value is a no-op that returns ErrEmptyInput and leaves the input
// untouched; so is a submit while another is in flight (ErrBusy). Otherwise
// it appends the trimmed text as a user message, clears the input, appends
// the "..." placeholder and returns the pending cycle to pass to Request and
// Settle.
func (c *Controller) Begin(in Input) (*Pending, error) {
	text := strings.TrimSpace(in.Value())
	if text == "" {
		return nil, ErrEmptyInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inflight != nil {
		return nil, ErrBusy
	}

	p := &Pending{Text: text}
	p.User = c.conv.Append(text, models.RoleUser)
	in.Reset()
	p.Placeholder = c.conv.appendPlaceholder()
	c.inflight = p

	c.logger.Debug("message submitted", "id", p.User, "chars", len(text))
	return p, nil
}

// Request performs the network call for p. It does not touch the view and
// may run on any goroutine.
func (c *Controller) Request(ctx context.Context, p *Pending) (string, error) {
	return c.sender.Send(ctx, p.Text)
}

// Settle removes p's placeholder and appends the bot reply, or the fixed
// failure text when err is non-nil. Errors are logged, never returned.
// Settling a cycle whose placeholder is already gone changes nothing and
// returns the zero Message.
func (c *Controller) Settle(p *Pending, reply string, err error) models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.conv.Remove(p.Placeholder) {
		c.logger.Debug("settle ignored, placeholder already replaced", "id", p.Placeholder)
		return models.Message{}
	}

	text := reply
	if err != nil {
		c.logger.Error("chat request failed",
			"err", err,
			"status", apierrors.GetHTTPStatus(err),
			"chars", len(p.Text),
		)
		text = models.FailureText
	}

	c.conv.Append(text, models.RoleBot)
	if c.inflight == p {
		c.inflight = nil
	}

	msg, _ := c.conv.Last()
	return msg
}

// Submit runs a whole cycle synchronously: Begin, Request, Settle.
// It returns only the Begin errors (ErrEmptyInput, ErrBusy); request
// failures become the failure message in the view.
func (c *Controller) Submit(ctx context.Context, in Input) error {
	p, err := c.Begin(in)
	if err != nil {
		return err
	}
	reply, reqErr := c.Request(ctx, p)
	c.Settle(p, reply, reqErr)
	return nil
}

// State reports whether a reply is awaited
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		return StateAwaiting
	}
	return StateIdle
}

// Messages returns a snapshot of the conversation in display order
func (c *Controller) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Messages()
}

// ScrollTarget returns the handle of the newest appended message
func (c *Controller) ScrollTarget() Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.ScrollTarget()
}

// LastReply returns the text of the newest settled bot message
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := c.conv.messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleBot && !msgs[i].Pending {
			return msgs[i].Text, true
		}
	}
	return "", false
}
