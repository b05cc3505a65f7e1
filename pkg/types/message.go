// Package types holds the transcript and event types shared by the model
// provider, the agent loop and its callers.
package types

import "encoding/json"

// MessageRole identifies the author of a transcript message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ToolCall is one tool invocation requested by the model. Arguments is the
// raw JSON object the model produced.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one entry of an agent transcript.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`

	// ToolCalls is set on assistant messages that request tool execution.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID and Name are set on tool result messages.
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`

	// IsError marks a tool result that reports a failure.
	IsError bool `json:"is_error,omitempty"`
}

func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string, calls ...ToolCall) *Message {
	return &Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolResultMessage answers the tool call with the given id.
func NewToolResultMessage(callID, toolName, content string) *Message {
	return &Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: toolName}
}

// NewToolErrorMessage answers the tool call with the given id with a failure.
func NewToolErrorMessage(callID, toolName string, err error) *Message {
	return &Message{
		Role:       RoleTool,
		Content:    "Error: " + err.Error(),
		ToolCallID: callID,
		Name:       toolName,
		IsError:    true,
	}
}

// ToolDefinition advertises a tool to the model.
type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}
