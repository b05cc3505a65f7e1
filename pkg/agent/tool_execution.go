package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/prompts"
	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

// PanicError is returned for a tool that panicked during execution.
type PanicError struct {
	Tool  string
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("tool %s panicked: %v", e.Tool, e.Value)
}

// act executes one tool call and records its result. It reports whether the
// run must stop.
func (r *run) act(ctx context.Context, turn int, call types.ToolCall) bool {
	a := r.agent
	r.outcome.ToolCalls++
	a.emit(types.NewToolCallEvent(turn, call))

	tool, ok := a.tools[call.Name]
	if !ok {
		err := fmt.Errorf("unknown tool: %s", call.Name)
		return r.recordFailure(turn, call, err, prompts.ErrorRecoveryContext{
			Type:           prompts.ErrorTypeUnknownTool,
			ToolName:       call.Name,
			AvailableTools: a.ToolNames(),
		})
	}

	result, err := executeSafely(ctx, tool, call.Arguments)
	if err != nil {
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			r.outcome.Transcript = append(r.outcome.Transcript, types.NewToolErrorMessage(call.ID, call.Name, err))
			r.outcome.ToolErrors++
			a.emit(types.NewToolResultErrorEvent(turn, call, err))
			r.fail(turn, err)
			return true
		}

		errType := prompts.ErrorTypeToolExecution
		if errors.Is(err, tools.ErrInvalidArguments) {
			errType = prompts.ErrorTypeInvalidArguments
		}
		return r.recordFailure(turn, call, err, prompts.ErrorRecoveryContext{
			Type:     errType,
			ToolName: call.Name,
			Error:    err,
		})
	}

	agentLogger.Debugf("Tool %s (%s) succeeded", call.Name, call.ID)
	r.outcome.Transcript = append(r.outcome.Transcript, types.NewToolResultMessage(call.ID, call.Name, result))
	a.emit(types.NewToolResultEvent(turn, call, result))
	r.resetErrorTracking()
	return false
}

// recordFailure appends the error result, queues the corrective message for
// the end of the turn, and trips the circuit breaker when the same failure
// keeps repeating.
func (r *run) recordFailure(turn int, call types.ToolCall, err error, ec prompts.ErrorRecoveryContext) bool {
	a := r.agent
	agentLogger.Warnf("Tool %s (%s) failed: %v", call.Name, call.ID, err)

	r.outcome.ToolErrors++
	r.outcome.Transcript = append(r.outcome.Transcript, types.NewToolErrorMessage(call.ID, call.Name, err))
	a.emit(types.NewToolResultErrorEvent(turn, call, err))

	errMsg := prompts.BuildErrorRecoveryMessage(ec)
	r.recovery = append(r.recovery, errMsg)

	if r.trackError(errMsg) {
		r.exhaust(fmt.Sprintf("circuit breaker: %d consecutive identical tool errors", a.maxRepeatedErrors))
		return true
	}
	return false
}

// flushRecovery appends the queued corrective messages as one user message.
// Tool results of a turn must directly follow the assistant message that
// requested them, so this runs only once every call has a result.
func (r *run) flushRecovery() {
	if len(r.recovery) == 0 {
		return
	}
	r.outcome.Transcript = append(r.outcome.Transcript, types.NewUserMessage(strings.Join(r.recovery, "\n\n")))
	r.recovery = nil
}

// trackError adds an error to the ring buffer and reports whether the last
// maxRepeatedErrors errors are identical.
func (r *run) trackError(errMsg string) bool {
	limit := r.agent.maxRepeatedErrors
	if limit <= 0 {
		return false
	}
	if limit > len(r.lastErrors) {
		limit = len(r.lastErrors)
	}

	r.lastErrors[r.errorCount%len(r.lastErrors)] = errMsg
	r.errorCount++
	if r.errorCount < limit {
		return false
	}
	for i := 1; i <= limit; i++ {
		if r.lastErrors[(r.errorCount-i)%len(r.lastErrors)] != errMsg {
			return false
		}
	}
	return true
}

func (r *run) resetErrorTracking() {
	r.lastErrors = [DefaultMaxRepeatedErrors]string{}
	r.errorCount = 0
}

// executeSafely runs the tool and converts a panic into a *PanicError.
func executeSafely(ctx context.Context, tool tools.Tool, args json.RawMessage) (result string, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Tool: tool.Name(), Value: v}
		}
	}()
	return tool.Execute(ctx, args)
}
