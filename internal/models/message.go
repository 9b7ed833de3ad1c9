package models

// Role identifies who authored a message in the conversation view
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// String returns the role tag
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleBot
}

// Message is a transient chat message shown in the conversation view.
// Text is kept exactly as received; sanitising happens at display time.
type Message struct {
	ID      uint64
	Role    Role
	Text    string
	Pending bool // true only for the "..." placeholder
}

// IsPlaceholder reports whether the message is the pending bot placeholder
func (m Message) IsPlaceholder() bool {
	return m.Pending && m.Role == RoleBot
}
