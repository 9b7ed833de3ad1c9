package chat

import (
	"github.com/diogo/concierge/internal/models"
)

// Handle identifies one message in a Conversation
type Handle uint64

// Conversation is the ordered list of messages shown in the chat view.
// Insertion order is display order. It is owned by a single Controller and
// is not safe for concurrent use on its own.
type Conversation struct {
	messages []models.Message
	nextID   uint64
	// scrollTo is the newest appended message; the view keeps it visible
	scrollTo Handle
}

// NewConversation returns an empty conversation
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message with the raw text as the last entry and scrolls to it.
// The returned handle can later be passed to Remove.
func (c *Conversation) Append(text string, role models.Role) Handle {
	return c.append(models.Message{Role: role, Text: text})
}

// appendPlaceholder adds the pending "..." bot message
func (c *Conversation) appendPlaceholder() Handle {
	return c.append(models.Message{
		Role:    models.RoleBot,
		Text:    models.PlaceholderText,
		Pending: true,
	})
}

func (c *Conversation) append(msg models.Message) Handle {
	c.nextID++
	msg.ID = c.nextID
	c.messages = append(c.messages, msg)
	c.scrollTo = Handle(msg.ID)
	return c.scrollTo
}

// Remove deletes the message with handle h. It reports whether it was found.
func (c *Conversation) Remove(h Handle) bool {
	for i, msg := range c.messages {
		if Handle(msg.ID) == h {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the message with handle h
func (c *Conversation) Get(h Handle) (models.Message, bool) {
	for _, msg := range c.messages {
		if Handle(msg.ID) == h {
			return msg, true
		}
	}
	return models.Message{}, false
}

// Messages returns a copy of the messages in display order
func (c *Conversation) Messages() []models.Message {
	out := make([]models.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the view
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Last returns the newest message
func (c *Conversation) Last() (models.Message, bool) {
	if len(c.messages) == 0 {
		return models.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Placeholders counts pending placeholder messages
func (c *Conversation) Placeholders() int {
	n := 0
	for _, msg := range c.messages {
		if msg.IsPlaceholder() {
			n++
		}
	}
	return n
}

// ScrollTarget returns the handle of the most recently appended message,
// or 0 when nothing was ever appended
func (c *Conversation) ScrollTarget() Handle {
	return c.scrollTo
}
