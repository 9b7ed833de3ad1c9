package agent

// Role identifies who produced a message in the agent history
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Message is one turn of the agent history.
// Assistant messages carry either Content or ToolCalls; tool messages carry
// the result of the call named by Name/ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	Name       string
	ToolCallID string
}

// HasToolCalls reports whether the model asked for tools instead of answering
func (m *Message) HasToolCalls() bool {
	return m != nil && len(m.ToolCalls) > 0
}
