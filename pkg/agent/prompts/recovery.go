package prompts

import (
	"fmt"
	"strings"
)

// ErrorType classifies a failed tool call.
type ErrorType int

const (
	// ErrorTypeToolExecution is a tool that ran and returned an error.
	ErrorTypeToolExecution ErrorType = iota
	// ErrorTypeUnknownTool is a call to a tool that is not registered.
	ErrorTypeUnknownTool
	// ErrorTypeInvalidArguments is a call whose arguments could not be decoded.
	ErrorTypeInvalidArguments
)

// ErrorRecoveryContext describes a failed call for the corrective message.
type ErrorRecoveryContext struct {
	Type           ErrorType
	ToolName       string
	Error          error
	AvailableTools []string
}

// BuildErrorRecoveryMessage builds the user message appended after a failed
// tool call, asking the model to retry with corrected arguments.
func BuildErrorRecoveryMessage(ec ErrorRecoveryContext) string {
	var b strings.Builder

	switch ec.Type {
	case ErrorTypeUnknownTool:
		fmt.Fprintf(&b, "The last tool call failed: there is no tool named %q.\n", ec.ToolName)
		if len(ec.AvailableTools) > 0 {
			fmt.Fprintf(&b, "Available tools: %s.\n", strings.Join(ec.AvailableTools, ", "))
		}
		b.WriteString("Call one of the available tools instead. Do not repeat the same mistake.")
	case ErrorTypeInvalidArguments:
		fmt.Fprintf(&b, "The last call to %s failed because its arguments were invalid", ec.ToolName)
		if ec.Error != nil {
			fmt.Fprintf(&b, ": %v", ec.Error)
		}
		b.WriteString(".\nCheck the parameter names and types against the tool schema and retry with corrected arguments. Do not repeat the same mistake.")
	default:
		fmt.Fprintf(&b, "The last call to %s failed", ec.ToolName)
		if ec.Error != nil {
			fmt.Fprintf(&b, ": %v", ec.Error)
		}
		b.WriteString(".\nRetry with corrected arguments, or create whatever the call depends on first. Do not repeat the same mistake.")
	}

	return b.String()
}
