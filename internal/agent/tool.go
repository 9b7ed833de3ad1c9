package agent

import (
	"context"
	"fmt"
	"strings"
)

// DataType is the JSON type of a tool parameter
type DataType int

const (
	String DataType = iota
	Integer
	Number
	Boolean
)

func (d DataType) String() string {
	switch d {
	case String:
		return "string"
	case Integer:
		return "integer"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// ParameterInfo describes a single tool parameter
type ParameterInfo struct {
	Type     DataType
	Desc     string
	Required bool
}

// ToolInfo is the metadata the model sees for a tool
type ToolInfo struct {
	Name       string
	Desc       string
	Parameters map[string]*ParameterInfo
}

// Tool is a function the agent can call on the model's behalf
type Tool interface {
	Info() ToolInfo
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// stringArg returns a required string argument
func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok {
		return "", fmt.Errorf("missing argument %q", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", name, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("argument %q is empty", name)
	}
	return s, nil
}
