// Package agent runs the Thinking/Acting loop that lets a model drive a fixed
// toolbox.
//
// A run alternates between asking the model for its next turn (Thinking) and
// executing the tool calls it requested in order (Acting). Tool failures are
// fed back into the transcript as error results followed by a corrective
// message; the loop keeps going. The run terminates when:
//   - the model answers without tool calls (StatusCompleted)
//   - the turn, wall-clock or context-token budget runs out, or the same
//     tool error repeats too often (StatusExhausted)
//   - the model call fails, the caller cancels, or a tool panics (StatusFailed)
//
// Example usage:
//
//	ag, err := agent.New(provider, toolList, agent.WithBudget(agent.DefaultBudget()))
//	if err != nil {
//	    return err
//	}
//	outcome := ag.Run(ctx, systemPrompt, "Explore https://example.com")
//	if outcome.Status == agent.StatusFailed {
//	    log.Printf("run failed: %v", outcome.Err)
//	}
package agent

import (
	"fmt"
	"sort"
	"time"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm/tokenizer"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

var agentLogger *logging.Logger

func init() {
	agentLogger, _ = logging.NewLogger("agent")
}

// Status is the terminal state of a run.
type Status string

const (
	// StatusCompleted means the model ended the run by answering without tool calls.
	StatusCompleted Status = "completed"
	// StatusExhausted means a budget ran out before the model finished.
	StatusExhausted Status = "exhausted"
	// StatusFailed means the run was aborted by an error.
	StatusFailed Status = "failed"
)

// DefaultMaxRepeatedErrors is how many identical consecutive tool errors trip
// the circuit breaker.
const DefaultMaxRepeatedErrors = 5

// Budget bounds a run. Zero fields are unlimited.
type Budget struct {
	MaxTurns         int
	Timeout          time.Duration
	MaxContextTokens int
}

// DefaultBudget returns the budget used when none is configured.
func DefaultBudget() Budget {
	return Budget{
		MaxTurns:         40,
		Timeout:          15 * time.Minute,
		MaxContextTokens: 120_000,
	}
}

// Outcome reports how a run ended.
type Outcome struct {
	Status Status

	// Reason explains an exhausted or failed run.
	Reason string

	// Err is the error that failed the run.
	Err error

	// Final is the content of the last assistant message.
	Final string

	// Transcript is every message of the run, system prompt first.
	Transcript []*types.Message

	Turns      int
	ToolCalls  int
	ToolErrors int
	Usage      types.TokenUsage
}

// Observer receives events as a run progresses. It is called from the run's
// goroutine and must not block.
type Observer func(*types.AgentEvent)

// Agent drives a provider with a fixed set of tools. An Agent holds no run
// state and may run concurrently.
type Agent struct {
	provider          llm.Provider
	tools             map[string]tools.Tool
	definitions       []types.ToolDefinition
	budget            Budget
	tokenizer         *tokenizer.Tokenizer
	observer          Observer
	maxRepeatedErrors int
}

// Option configures an Agent.
type Option func(*Agent)

// WithBudget sets the run budget.
func WithBudget(b Budget) Option {
	return func(a *Agent) {
		a.budget = b
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(a *Agent) {
		a.observer = o
	}
}

// WithTokenizer sets the tokenizer used for the context budget. Without one
// token counts are estimated.
func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(a *Agent) {
		a.tokenizer = t
	}
}

// WithMaxRepeatedErrors sets the circuit breaker threshold.
func WithMaxRepeatedErrors(n int) Option {
	return func(a *Agent) {
		a.maxRepeatedErrors = n
	}
}

// New creates an agent. Tool names must be unique.
func New(provider llm.Provider, toolList []tools.Tool, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}

	a := &Agent{
		provider:          provider,
		tools:             make(map[string]tools.Tool, len(toolList)),
		budget:            DefaultBudget(),
		maxRepeatedErrors: DefaultMaxRepeatedErrors,
	}
	for _, t := range toolList {
		if _, exists := a.tools[t.Name()]; exists {
			return nil, fmt.Errorf("tool %s is already registered", t.Name())
		}
		a.tools[t.Name()] = t
	}
	a.definitions = tools.Definitions(toolList)

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ToolNames returns the registered tool names in sorted order.
func (a *Agent) ToolNames() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Agent) emit(event *types.AgentEvent) {
	if a.observer != nil && event != nil {
		a.observer(event)
	}
}
