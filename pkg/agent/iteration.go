package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

// run holds the state of a single Run.
type run struct {
	agent   *Agent
	outcome *Outcome

	// Error recovery state
	lastErrors [DefaultMaxRepeatedErrors]string // Ring buffer of recent error messages
	errorCount int

	// Corrective messages for the current turn, sent after all its tool results.
	recovery []string
}

// Run executes the loop from a system prompt and an initial user message.
// Run never returns an error; failures are reported through Outcome.
func (a *Agent) Run(ctx context.Context, systemPrompt, userPrompt string) *Outcome {
	return a.RunTranscript(ctx, []*types.Message{
		types.NewSystemMessage(systemPrompt),
		types.NewUserMessage(userPrompt),
	})
}

// RunTranscript continues from an existing transcript.
func (a *Agent) RunTranscript(ctx context.Context, transcript []*types.Message) *Outcome {
	r := &run{
		agent: a,
		outcome: &Outcome{
			Transcript: append([]*types.Message(nil), transcript...),
		},
	}

	runCtx := ctx
	if a.budget.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.budget.Timeout)
		defer cancel()
	}

	r.loop(ctx, runCtx)

	o := r.outcome
	agentLogger.Infof("Run ended: status=%s turns=%d tool_calls=%d tool_errors=%d reason=%q",
		o.Status, o.Turns, o.ToolCalls, o.ToolErrors, o.Reason)
	a.emit(types.NewRunEndEvent(o.Turns, string(o.Status), o.Reason))
	return o
}

func (r *run) loop(parent, ctx context.Context) {
	a := r.agent
	for turn := 1; ; turn++ {
		if stop := r.checkBudget(parent, ctx, turn); stop {
			return
		}
		r.outcome.Turns = turn

		msg, err := r.think(ctx, turn)
		if err != nil {
			if parent.Err() == nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.exhaust(fmt.Sprintf("timeout of %s reached", a.budget.Timeout))
				return
			}
			r.fail(turn, fmt.Errorf("model call failed: %w", err))
			return
		}

		if len(msg.ToolCalls) == 0 {
			a.emit(types.NewNoToolCallEvent(turn))
			r.outcome.Status = StatusCompleted
			return
		}

		for _, call := range msg.ToolCalls {
			if stop := r.act(ctx, turn, call); stop {
				return
			}
		}
		r.flushRecovery()
		a.emit(types.NewTurnEndEvent(turn))
	}
}

// checkBudget ends the run when a budget is spent before the next turn.
func (r *run) checkBudget(parent, ctx context.Context, turn int) bool {
	a := r.agent
	if err := parent.Err(); err != nil {
		r.fail(turn-1, fmt.Errorf("run canceled: %w", err))
		return true
	}
	if ctx.Err() != nil {
		r.exhaust(fmt.Sprintf("timeout of %s reached", a.budget.Timeout))
		return true
	}
	if a.budget.MaxTurns > 0 && turn > a.budget.MaxTurns {
		r.exhaust(fmt.Sprintf("max turns (%d) reached", a.budget.MaxTurns))
		return true
	}
	if a.budget.MaxContextTokens > 0 {
		if tokens := a.tokenizer.CountMessagesTokens(r.outcome.Transcript); tokens >= a.budget.MaxContextTokens {
			r.exhaust(fmt.Sprintf("context budget of %d tokens reached (%d)", a.budget.MaxContextTokens, tokens))
			return true
		}
	}
	return false
}

// think asks the model for the next turn and appends it to the transcript.
func (r *run) think(ctx context.Context, turn int) (*types.Message, error) {
	a := r.agent
	model := a.provider.GetModel()

	promptTokens := a.tokenizer.CountMessagesTokens(r.outcome.Transcript)
	a.emit(types.NewAPICallStartEvent(turn, model, promptTokens, a.budget.MaxContextTokens))
	agentLogger.Debugf("Turn %d: calling %s with %d messages (~%d tokens)", turn, model, len(r.outcome.Transcript), promptTokens)

	resp, err := a.provider.Chat(ctx, r.outcome.Transcript, a.definitions)
	a.emit(types.NewAPICallEndEvent(turn, model))
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Message == nil {
		return nil, fmt.Errorf("provider returned an empty response")
	}

	usage := resp.Usage
	if usage.TotalTokens == 0 {
		usage.PromptTokens = promptTokens
		usage.CompletionTokens = a.tokenizer.CountMessagesTokens([]*types.Message{resp.Message})
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	r.outcome.Usage.PromptTokens += usage.PromptTokens
	r.outcome.Usage.CompletionTokens += usage.CompletionTokens
	r.outcome.Usage.TotalTokens += usage.TotalTokens
	a.emit(types.NewTokenUsageEvent(turn, usage))

	msg := resp.Message
	msg.Role = types.RoleAssistant
	r.outcome.Transcript = append(r.outcome.Transcript, msg)
	if msg.Content != "" {
		r.outcome.Final = msg.Content
		a.emit(types.NewMessageEvent(turn, msg.Content))
	}
	return msg, nil
}

func (r *run) exhaust(reason string) {
	agentLogger.Warnf("Run exhausted: %s", reason)
	r.outcome.Status = StatusExhausted
	r.outcome.Reason = reason
}

func (r *run) fail(turn int, err error) {
	agentLogger.Errorf("Run failed: %v", err)
	r.agent.emit(types.NewErrorEvent(turn, err))
	r.outcome.Status = StatusFailed
	r.outcome.Reason = err.Error()
	r.outcome.Err = err
}
