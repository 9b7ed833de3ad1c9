// Package agent answers concierge questions with a ReAct loop: a chat model
// either replies or asks for tools, the agent runs the tools and feeds the
// results back until the model produces a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/diogo/concierge/internal/logging"
)

// SystemPrompt is the instruction given to the model on every run
const SystemPrompt = "You are a helpful and knowledgeable conversational concierge for Vinetos de Sol winery.\n" +
	"Answer questions about the winery using the provided document.\n" +
	"For all other questions, use the search tools provided to find real-time information."

// DefaultMaxSteps bounds the number of model calls per run
const DefaultMaxSteps = 8

var (
	// ErrMaxSteps is returned when the model keeps calling tools past MaxSteps
	ErrMaxSteps = errors.New("agent exceeded maximum steps without an answer")

	// ErrEmptyInput is returned for blank questions
	ErrEmptyInput = errors.New("empty input")
)

// ChatModel produces the next assistant message for a history
type ChatModel interface {
	Generate(ctx context.Context, history []Message, tools []ToolInfo) (*Message, error)
}

// Config configures a ReactAgent
type Config struct {
	Model        ChatModel
	Tools        []Tool
	SystemPrompt string
	MaxSteps     int
	Logger       *log.Logger
}

// ReactAgent runs the tool-calling loop. It is safe for concurrent use as
// long as its tools are.
type ReactAgent struct {
	model    ChatModel
	tools    map[string]Tool
	infos    []ToolInfo
	prompt   string
	maxSteps int
	logger   *log.Logger
}

// New validates cfg and builds an agent
func New(cfg Config) (*ReactAgent, error) {
	if cfg.Model == nil {
		return nil, errors.New("agent: model is required")
	}

	a := &ReactAgent{
		model:    cfg.Model,
		tools:    make(map[string]Tool, len(cfg.Tools)),
		prompt:   cfg.SystemPrompt,
		maxSteps: cfg.MaxSteps,
		logger:   cfg.Logger,
	}
	if a.prompt == "" {
		a.prompt = SystemPrompt
	}
	if a.maxSteps <= 0 {
		a.maxSteps = DefaultMaxSteps
	}
	if a.logger == nil {
		a.logger = logging.Discard()
	}

	for _, t := range cfg.Tools {
		info := t.Info()
		if _, dup := a.tools[info.Name]; dup {
			return nil, fmt.Errorf("agent: duplicate tool %q", info.Name)
		}
		a.tools[info.Name] = t
		a.infos = append(a.infos, info)
	}

	return a, nil
}

// Tools returns the metadata of the registered tools, in registration order
func (a *ReactAgent) Tools() []ToolInfo {
	out := make([]ToolInfo, len(a.infos))
	copy(out, a.infos)
	return out
}

// Run answers input
func (a *ReactAgent) Run(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", ErrEmptyInput
	}

	history := []Message{
		{Role: RoleSystem, Content: a.prompt},
		{Role: RoleUser, Content: input},
	}

	for step := 1; step <= a.maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		reply, err := a.model.Generate(ctx, history, a.infos)
		if err != nil {
			return "", fmt.Errorf("model call failed at step %d: %w", step, err)
		}
		if reply == nil {
			return "", fmt.Errorf("model returned no message at step %d", step)
		}

		if !reply.HasToolCalls() {
			a.logger.Debug("agent answered", "steps", step, "chars", len(reply.Content))
			return reply.Content, nil
		}

		reply.Role = RoleAssistant
		history = append(history, *reply)
		for _, call := range reply.ToolCalls {
			history = append(history, a.runTool(ctx, call))
		}
	}

	return "", ErrMaxSteps
}

// runTool executes one call. Failures become the tool's result so the model
// can recover.
func (a *ReactAgent) runTool(ctx context.Context, call ToolCall) Message {
	result := Message{Role: RoleTool, Name: call.Name, ToolCallID: call.ID}

	tool, ok := a.tools[call.Name]
	if !ok {
		a.logger.Warn("model requested unknown tool", "tool", call.Name)
		result.Content = fmt.Sprintf("error: unknown tool %q", call.Name)
		return result
	}

	start := time.Now()
	out, err := tool.Execute(ctx, call.Args)
	if err != nil {
		a.logger.Warn("tool failed", "tool", call.Name, "err", err)
		result.Content = "error: " + err.Error()
		return result
	}

	a.logger.Debug("tool finished", "tool", call.Name, "elapsed", time.Since(start).Round(time.Millisecond))
	result.Content = out
	return result
}
