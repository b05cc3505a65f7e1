// Package tools defines the capability surface the agent loop drives: tools
// with a JSON schema and a JSON-argument Execute, and toolsets that supply
// them.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

// Tool represents a capability that an agent can use during execution.
// The model invokes tools through function calls whose arguments are a JSON
// object matching Schema.
type Tool interface {
	// Name returns the unique identifier for this tool (e.g., "save_page")
	Name() string

	// Description returns a human-readable description of what this tool does
	Description() string

	// Schema returns the JSON schema for this tool's input parameters
	Schema() map[string]interface{}

	// Execute runs the tool with the raw JSON arguments the model produced
	// and returns the text handed back to the model.
	Execute(ctx context.Context, arguments json.RawMessage) (string, error)
}

// Toolset supplies tools that are only known at runtime, such as those
// discovered from an MCP server or backed by a live browser.
type Toolset interface {
	Tools(ctx context.Context) ([]Tool, error)
}

// StaticToolset is a Toolset over a fixed list.
type StaticToolset []Tool

func (s StaticToolset) Tools(context.Context) ([]Tool, error) {
	return s, nil
}

// Collect resolves every toolset and returns the merged list. A later tool
// with a name already taken is reported as an error.
func Collect(ctx context.Context, sets ...Toolset) ([]Tool, error) {
	seen := make(map[string]bool)
	var out []Tool
	for _, set := range sets {
		if set == nil {
			continue
		}
		list, err := set.Tools(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load toolset: %w", err)
		}
		for _, t := range list {
			if seen[t.Name()] {
				return nil, fmt.Errorf("duplicate tool name %q", t.Name())
			}
			seen[t.Name()] = true
			out = append(out, t)
		}
	}
	return out, nil
}

// Definitions converts tools into the form advertised to the model.
func Definitions(list []Tool) []types.ToolDefinition {
	defs := make([]types.ToolDefinition, 0, len(list))
	for _, t := range list {
		defs = append(defs, types.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Schema(),
		})
	}
	return defs
}

// BaseToolSchema creates a common JSON schema structure for a tool
// with the given properties and required fields
func BaseToolSchema(properties map[string]interface{}, required []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// StringProperty is a schema property of type string.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

// ErrInvalidArguments is wrapped by DecodeArgs failures.
var ErrInvalidArguments = errors.New("invalid arguments")

// DecodeArgs strictly decodes a JSON argument object into v. Empty input is
// treated as an empty object. Unknown fields are rejected so the model learns
// the exact parameter names.
func DecodeArgs(raw json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage(`{}`)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	return nil
}
