package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model the concierge answers with
const DefaultGeminiModel = "gemini-1.5-flash"

var errNoCandidates = errors.New("gemini returned no candidates")

// contentGenerator is the part of *genai.Models the chat model needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

var _ ChatModel = (*GeminiModel)(nil)

// GeminiModel is a ChatModel backed by the Gemini API
type GeminiModel struct {
	models contentGenerator
	model  string
}

// NewGeminiModel uses client for generation; an empty model name selects
// DefaultGeminiModel
func NewGeminiModel(client *genai.Client, model string) (*GeminiModel, error) {
	if client == nil {
		return nil, errors.New("gemini: client is required")
	}
	return newGeminiModel(client.Models, model), nil
}

func newGeminiModel(g contentGenerator, model string) *GeminiModel {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiModel{models: g, model: model}
}

// Name returns the model identifier
func (g *GeminiModel) Name() string {
	return g.model
}

func (g *GeminiModel) Generate(ctx context.Context, history []Message, tools []ToolInfo) (*Message, error) {
	system, contents := toContents(history)

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
		Tools:       toGeminiTools(tools),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	return fromResponse(resp)
}

// toContents maps the agent history onto Gemini contents. System messages
// become the system instruction and consecutive tool results are merged into
// one user turn of function responses.
func toContents(history []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content

	for _, m := range history {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)

		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))

		case RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, &genai.Part{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				}})
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}

		case RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.Name,
				Response: map[string]any{"output": m.Content},
			}}
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}

	return strings.Join(system, "\n\n"), contents
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c == nil || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// toGeminiTools declares every tool as a function taking an object
func toGeminiTools(tools []ToolInfo) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		properties := make(map[string]*genai.Schema, len(t.Parameters))
		var required []string

		for name, p := range t.Parameters {
			properties[name] = &genai.Schema{
				Type:        geminiType(p.Type),
				Description: p.Desc,
			}
			if p.Required {
				required = append(required, name)
			}
		}
		slices.Sort(required)

		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Desc,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   required,
			},
		})
	}

	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func geminiType(d DataType) genai.Type {
	switch d {
	case Integer:
		return genai.TypeInteger
	case Number:
		return genai.TypeNumber
	case Boolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// fromResponse turns the first candidate into an assistant message
func fromResponse(resp *genai.GenerateContentResponse) (*Message, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errNoCandidates
	}

	msg := &Message{Role: RoleAssistant}
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
			if fc := part.FunctionCall; fc != nil {
				id := fc.ID
				if id == "" {
					id = fmt.Sprintf("call_%d", len(msg.ToolCalls)+1)
				}
				msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: id, Name: fc.Name, Args: fc.Args})
			}
		}
		msg.Content = text.String()
	}

	return msg, nil
}
