package types

// AgentEventType defines the type of event emitted by the agent loop.
type AgentEventType string

const (
	EventTypeMessage         AgentEventType = "message"           // EventTypeMessage carries the text of an assistant turn.
	EventTypeToolCall        AgentEventType = "tool_call"         // EventTypeToolCall indicates the agent is calling a tool.
	EventTypeToolResult      AgentEventType = "tool_result"       // EventTypeToolResult indicates a successful tool call result.
	EventTypeToolResultError AgentEventType = "tool_result_error" // EventTypeToolResultError indicates a tool call resulted in an error.
	EventTypeNoToolCall      AgentEventType = "no_tool_call"      // EventTypeNoToolCall indicates the agent decided not to call any tools.
	EventTypeAPICallStart    AgentEventType = "api_call_start"    // EventTypeAPICallStart indicates the agent is calling the model.
	EventTypeAPICallEnd      AgentEventType = "api_call_end"      // EventTypeAPICallEnd indicates the model call has completed.
	EventTypeTokenUsage      AgentEventType = "token_usage"       // EventTypeTokenUsage reports token usage of a model call.
	EventTypeTurnEnd         AgentEventType = "turn_end"          // EventTypeTurnEnd indicates a Thinking/Acting turn has finished.
	EventTypeRunEnd          AgentEventType = "run_end"           // EventTypeRunEnd reports the terminal status of a run.
	EventTypeError           AgentEventType = "error"             // EventTypeError indicates an error occurred during agent processing.
	EventTypeExecutionStart  AgentEventType = "execution_start"   // EventTypeExecutionStart indicates generated code is being executed.
	EventTypeExecutionResult AgentEventType = "execution_result"  // EventTypeExecutionResult reports the outcome of an execution attempt.
)

// AgentEvent represents an event emitted during a run.
type AgentEvent struct {
	// Metadata holds optional additional information about the event.
	Metadata map[string]interface{}

	// ToolInput is the raw JSON input sent to the tool (for tool call events).
	ToolInput string

	// ToolOutput is the result from the tool (for tool result events).
	ToolOutput string

	// Error contains error information for error events.
	Error error

	// Content holds text content for message and run-end events.
	Content string

	// ToolName is the name of the tool being called (for tool events).
	ToolName string

	// ToolCallID correlates tool call and tool result events.
	ToolCallID string

	// Type indicates the kind of event.
	Type AgentEventType

	// Turn is the 1-indexed Thinking/Acting turn the event belongs to.
	Turn int

	// TokenUsage contains token usage information (for token usage events).
	TokenUsage *TokenUsage

	// APICallInfo contains API call information (for API call events).
	APICallInfo *APICallInfo

	// Execution contains the outcome of a code execution attempt.
	Execution *Execution
}

// TokenUsage contains token usage statistics from a model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// APICallInfo describes a model call.
type APICallInfo struct {
	// Model is the model being called.
	Model string

	// ContextTokens is the estimated size of the transcript sent.
	ContextTokens int

	// MaxContextTokens is the configured budget, 0 when unbounded.
	MaxContextTokens int
}

// Execution describes one run of generated code.
type Execution struct {
	Attempt  int
	Success  bool
	ExitCode int
	Duration string
	Output   string
}

func NewMessageEvent(turn int, content string) *AgentEvent {
	return &AgentEvent{Type: EventTypeMessage, Turn: turn, Content: content}
}

func NewToolCallEvent(turn int, call ToolCall) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeToolCall,
		Turn:       turn,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		ToolInput:  string(call.Arguments),
	}
}

func NewToolResultEvent(turn int, call ToolCall, output string) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeToolResult,
		Turn:       turn,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		ToolOutput: output,
	}
}

func NewToolResultErrorEvent(turn int, call ToolCall, err error) *AgentEvent {
	return &AgentEvent{
		Type:       EventTypeToolResultError,
		Turn:       turn,
		ToolName:   call.Name,
		ToolCallID: call.ID,
		Error:      err,
	}
}

func NewNoToolCallEvent(turn int) *AgentEvent {
	return &AgentEvent{Type: EventTypeNoToolCall, Turn: turn}
}

func NewAPICallStartEvent(turn int, model string, contextTokens, maxContextTokens int) *AgentEvent {
	return &AgentEvent{
		Type: EventTypeAPICallStart,
		Turn: turn,
		APICallInfo: &APICallInfo{
			Model:            model,
			ContextTokens:    contextTokens,
			MaxContextTokens: maxContextTokens,
		},
	}
}

func NewAPICallEndEvent(turn int, model string) *AgentEvent {
	return &AgentEvent{Type: EventTypeAPICallEnd, Turn: turn, APICallInfo: &APICallInfo{Model: model}}
}

func NewTokenUsageEvent(turn int, usage TokenUsage) *AgentEvent {
	return &AgentEvent{Type: EventTypeTokenUsage, Turn: turn, TokenUsage: &usage}
}

func NewTurnEndEvent(turn int) *AgentEvent {
	return &AgentEvent{Type: EventTypeTurnEnd, Turn: turn}
}

// NewRunEndEvent reports a terminal status such as "completed" or
// "exhausted"; reason explains exhaustion or failure.
func NewRunEndEvent(turn int, status, reason string) *AgentEvent {
	return &AgentEvent{
		Type:     EventTypeRunEnd,
		Turn:     turn,
		Content:  status,
		Metadata: map[string]interface{}{"reason": reason},
	}
}

func NewErrorEvent(turn int, err error) *AgentEvent {
	return &AgentEvent{Type: EventTypeError, Turn: turn, Error: err}
}

func NewExecutionStartEvent(attempt int) *AgentEvent {
	return &AgentEvent{Type: EventTypeExecutionStart, Execution: &Execution{Attempt: attempt}}
}

func NewExecutionResultEvent(exec Execution) *AgentEvent {
	return &AgentEvent{Type: EventTypeExecutionResult, Execution: &exec}
}

// IsError reports whether the event carries a failure.
func (e *AgentEvent) IsError() bool {
	return e.Type == EventTypeError || e.Type == EventTypeToolResultError ||
		(e.Type == EventTypeExecutionResult && e.Execution != nil && !e.Execution.Success)
}
