package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

const previewLength = 160

// eventPrinter writes a line per agent event. Verbose output includes the
// model's messages and tool results.
func eventPrinter(w io.Writer, verbose bool) agent.Observer {
	return func(e *types.AgentEvent) {
		if line := formatEvent(e, verbose); line != "" {
			fmt.Fprintln(w, line)
		}
	}
}

func formatEvent(e *types.AgentEvent, verbose bool) string {
	prefix := fmt.Sprintf("[turn %d]", e.Turn)
	switch e.Type {
	case types.EventTypeToolCall:
		return fmt.Sprintf("%s → %s %s", prefix, e.ToolName, preview(e.ToolInput))
	case types.EventTypeToolResult:
		if !verbose {
			return ""
		}
		return fmt.Sprintf("%s ✓ %s %s", prefix, e.ToolName, preview(e.ToolOutput))
	case types.EventTypeToolResultError:
		return fmt.Sprintf("%s ✗ %s: %v", prefix, e.ToolName, e.Error)
	case types.EventTypeMessage:
		if !verbose {
			return ""
		}
		return fmt.Sprintf("%s %s", prefix, preview(e.Content))
	case types.EventTypeTokenUsage:
		if !verbose || e.TokenUsage == nil {
			return ""
		}
		return fmt.Sprintf("%s tokens: %d prompt, %d completion", prefix, e.TokenUsage.PromptTokens, e.TokenUsage.CompletionTokens)
	case types.EventTypeError:
		return fmt.Sprintf("%s error: %v", prefix, e.Error)
	case types.EventTypeRunEnd:
		line := fmt.Sprintf("run %s after %d turns", e.Content, e.Turn)
		if reason, ok := e.Metadata["reason"].(string); ok && reason != "" {
			line += " (" + reason + ")"
		}
		return line
	case types.EventTypeExecutionStart:
		if e.Execution == nil {
			return "executing generated test"
		}
		return fmt.Sprintf("executing generated test (attempt %d)", e.Execution.Attempt)
	case types.EventTypeExecutionResult:
		if e.Execution == nil {
			return ""
		}
		status := "failed"
		if e.Execution.Success {
			status = "passed"
		}
		return fmt.Sprintf("attempt %d %s in %s (exit %d)", e.Execution.Attempt, status, e.Execution.Duration, e.Execution.ExitCode)
	}
	return ""
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > previewLength {
		return string(r[:previewLength]) + "…"
	}
	return s
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
