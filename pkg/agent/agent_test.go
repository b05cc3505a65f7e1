package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

// scriptedProvider replays canned assistant turns and records the transcript
// it was shown on each call.
type scriptedProvider struct {
	mu     sync.Mutex
	turns  []*types.Message
	err    error
	calls  int
	seen   [][]*types.Message
	repeat bool
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []*types.Message, _ []types.ToolDefinition) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seen = append(p.seen, append([]*types.Message(nil), messages...))
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	idx := p.calls - 1
	if idx >= len(p.turns) {
		if !p.repeat {
			return &llm.Response{Message: types.NewAssistantMessage("done")}, nil
		}
		idx = len(p.turns) - 1
	}
	turn := *p.turns[idx]
	return &llm.Response{Message: &turn}, nil
}

func (p *scriptedProvider) GetModel() string { return "scripted" }

type blockingProvider struct{}

func (blockingProvider) Chat(ctx context.Context, _ []*types.Message, _ []types.ToolDefinition) (*llm.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) GetModel() string { return "blocking" }

type funcTool struct {
	name string
	fn   func(ctx context.Context, args json.RawMessage) (string, error)
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return "test tool " + t.name }
func (t *funcTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}
func (t *funcTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	return t.fn(ctx, args)
}

func call(id, name, args string) types.ToolCall {
	return types.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestNew(t *testing.T) {
	echo := &funcTool{name: "echo", fn: func(context.Context, json.RawMessage) (string, error) { return "", nil }}

	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New(&scriptedProvider{}, []tools.Tool{echo, echo})
	assert.ErrorContains(t, err, "already registered")

	ag, err := New(&scriptedProvider{}, []tools.Tool{echo, &funcTool{name: "alpha"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "echo"}, ag.ToolNames())
}

func TestRunCompletesWithoutToolCalls(t *testing.T) {
	var executed []string
	echo := &funcTool{name: "echo", fn: func(_ context.Context, args json.RawMessage) (string, error) {
		executed = append(executed, string(args))
		return "ok:" + string(args), nil
	}}
	provider := &scriptedProvider{turns: []*types.Message{
		types.NewAssistantMessage("first", call("c1", "echo", `{"n":1}`), call("c2", "echo", `{"n":2}`)),
		types.NewAssistantMessage("all done"),
	}}

	var events []types.AgentEventType
	ag, err := New(provider, []tools.Tool{echo}, WithObserver(func(e *types.AgentEvent) {
		events = append(events, e.Type)
	}))
	require.NoError(t, err)

	out := ag.Run(context.Background(), "system", "go")

	assert.Equal(t, StatusCompleted, out.Status)
	assert.NoError(t, out.Err)
	assert.Equal(t, "all done", out.Final)
	assert.Equal(t, 2, out.Turns)
	assert.Equal(t, 2, out.ToolCalls)
	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, executed, "calls run in order")

	// system, user, assistant, tool, tool, assistant
	require.Len(t, out.Transcript, 6)
	assert.Equal(t, "c1", out.Transcript[3].ToolCallID)
	assert.Equal(t, "c2", out.Transcript[4].ToolCallID)
	assert.Contains(t, events, types.EventTypeToolResult)
	assert.Contains(t, events, types.EventTypeNoToolCall)
	assert.Equal(t, types.EventTypeRunEnd, events[len(events)-1])
}

func TestRunRecoversFromToolFailure(t *testing.T) {
	saved := map[string]bool{}
	saveState := &funcTool{name: "save_state", fn: func(_ context.Context, args json.RawMessage) (string, error) {
		saved[string(args)] = true
		return "saved", nil
	}}
	saveEdge := &funcTool{name: "save_edge", fn: func(context.Context, json.RawMessage) (string, error) {
		if !saved[`"a"`] || !saved[`"b"`] {
			return "", errors.New(`UiState "a" not found`)
		}
		return "edge saved", nil
	}}

	provider := &scriptedProvider{turns: []*types.Message{
		types.NewAssistantMessage("", call("c1", "save_edge", `{}`)),
		types.NewAssistantMessage("", call("c2", "save_state", `"a"`), call("c3", "save_state", `"b"`), call("c4", "save_edge", `{}`)),
		types.NewAssistantMessage("graph saved"),
	}}

	ag, err := New(provider, []tools.Tool{saveState, saveEdge})
	require.NoError(t, err)
	out := ag.Run(context.Background(), "system", "explore")

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 1, out.ToolErrors)
	assert.Equal(t, 4, out.ToolCalls)

	// The second model call saw the error result and the corrective message.
	require.Len(t, provider.seen, 3)
	second := provider.seen[1]
	errResult := second[len(second)-2]
	assert.Equal(t, types.RoleTool, errResult.Role)
	assert.Equal(t, "c1", errResult.ToolCallID)
	assert.True(t, errResult.IsError)
	assert.Contains(t, errResult.Content, "not found")
	corrective := second[len(second)-1]
	assert.Equal(t, types.RoleUser, corrective.Role)
	assert.Contains(t, corrective.Content, "Do not repeat the same mistake")
}

func TestRunFailureMidTurnKeepsToolResultsContiguous(t *testing.T) {
	savePage := &funcTool{name: "save_page", fn: func(context.Context, json.RawMessage) (string, error) {
		return "page saved", nil
	}}
	saveEdge := &funcTool{name: "save_edge", fn: func(context.Context, json.RawMessage) (string, error) {
		return "", errors.New(`UiState "home" not found`)
	}}

	provider := &scriptedProvider{turns: []*types.Message{
		types.NewAssistantMessage("",
			call("c1", "save_edge", `{}`),
			call("c2", "save_page", `{}`),
			call("c3", "save_label", `{}`),
		),
		types.NewAssistantMessage("done"),
	}}

	ag, err := New(provider, []tools.Tool{savePage, saveEdge})
	require.NoError(t, err)
	out := ag.Run(context.Background(), "system", "explore")

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 3, out.ToolCalls)
	assert.Equal(t, 2, out.ToolErrors)

	// system, user, assistant(c1,c2,c3), tool c1, tool c2, tool c3, user
	require.Len(t, provider.seen, 2)
	second := provider.seen[1]
	require.Len(t, second, 7)
	assert.Equal(t, types.RoleAssistant, second[2].Role)
	for i, id := range []string{"c1", "c2", "c3"} {
		msg := second[3+i]
		assert.Equal(t, types.RoleTool, msg.Role, "position %d", 3+i)
		assert.Equal(t, id, msg.ToolCallID)
	}
	assert.True(t, second[3].IsError)
	assert.False(t, second[4].IsError)
	assert.True(t, second[5].IsError)

	corrective := second[6]
	assert.Equal(t, types.RoleUser, corrective.Role)
	assert.Contains(t, corrective.Content, `UiState "home" not found`)
	assert.Contains(t, corrective.Content, `no tool named "save_label"`)
	assert.Equal(t, 2, strings.Count(corrective.Content, "Do not repeat the same mistake"),
		"one corrective message covers every failure of the turn")
}

func TestRunUnknownTool(t *testing.T) {
	provider := &scriptedProvider{turns: []*types.Message{
		types.NewAssistantMessage("", call("c1", "does_not_exist", `{}`)),
		types.NewAssistantMessage("ok"),
	}}
	ag, err := New(provider, []tools.Tool{&funcTool{name: "echo"}})
	require.NoError(t, err)

	out := ag.Run(context.Background(), "system", "go")

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 1, out.ToolErrors)
	last := provider.seen[1][len(provider.seen[1])-1]
	assert.Contains(t, last.Content, `no tool named "does_not_exist"`)
	assert.Contains(t, last.Content, "echo")
}

func TestRunInvalidArgumentsUseArgumentRecovery(t *testing.T) {
	strict := &funcTool{name: "strict", fn: func(_ context.Context, args json.RawMessage) (string, error) {
		var v struct {
			URL string `json:"url"`
		}
		if err := tools.DecodeArgs(args, &v); err != nil {
			return "", err
		}
		return v.URL, nil
	}}
	provider := &scriptedProvider{turns: []*types.Message{
		types.NewAssistantMessage("", call("c1", "strict", `{"link":"x"}`)),
		types.NewAssistantMessage("ok"),
	}}
	ag, err := New(provider, []tools.Tool{strict})
	require.NoError(t, err)

	out := ag.Run(context.Background(), "system", "go")
	assert.Equal(t, StatusCompleted, out.Status)
	last := provider.seen[1][len(provider.seen[1])-1]
	assert.Contains(t, last.Content, "arguments were invalid")
}

func TestRunBudgets(t *testing.T) {
	loopTool := &funcTool{name: "noop", fn: func(context.Context, json.RawMessage) (string, error) { return "ok", nil }}
	looping := func() *scriptedProvider {
		return &scriptedProvider{repeat: true, turns: []*types.Message{
			types.NewAssistantMessage("again", call("c", "noop", `{}`)),
		}}
	}

	t.Run("max turns", func(t *testing.T) {
		p := looping()
		ag, err := New(p, []tools.Tool{loopTool}, WithBudget(Budget{MaxTurns: 3}))
		require.NoError(t, err)

		out := ag.Run(context.Background(), "system", "go")
		assert.Equal(t, StatusExhausted, out.Status)
		assert.Contains(t, out.Reason, "max turns")
		assert.Equal(t, 3, out.Turns)
		assert.Equal(t, 3, p.calls)
	})

	t.Run("context tokens", func(t *testing.T) {
		ag, err := New(looping(), []tools.Tool{loopTool}, WithBudget(Budget{MaxContextTokens: 40}))
		require.NoError(t, err)

		out := ag.Run(context.Background(), "system", strings.Repeat("long prompt ", 20))
		assert.Equal(t, StatusExhausted, out.Status)
		assert.Contains(t, out.Reason, "context budget")
		assert.Equal(t, 0, out.Turns)
	})

	t.Run("timeout", func(t *testing.T) {
		ag, err := New(blockingProvider{}, nil, WithBudget(Budget{Timeout: 50 * time.Millisecond}))
		require.NoError(t, err)

		out := ag.Run(context.Background(), "system", "go")
		assert.Equal(t, StatusExhausted, out.Status)
		assert.Contains(t, out.Reason, "timeout")
	})

	t.Run("caller cancellation fails the run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ag, err := New(looping(), []tools.Tool{loopTool})
		require.NoError(t, err)

		out := ag.Run(ctx, "system", "go")
		assert.Equal(t, StatusFailed, out.Status)
		assert.ErrorIs(t, out.Err, context.Canceled)
	})
}

func TestRunCircuitBreaker(t *testing.T) {
	failing := &funcTool{name: "flaky", fn: func(context.Context, json.RawMessage) (string, error) {
		return "", errors.New("selector not found")
	}}
	provider := &scriptedProvider{repeat: true, turns: []*types.Message{
		types.NewAssistantMessage("", call("c", "flaky", `{}`)),
	}}
	ag, err := New(provider, []tools.Tool{failing}, WithBudget(Budget{MaxTurns: 50}))
	require.NoError(t, err)

	out := ag.Run(context.Background(), "system", "go")
	assert.Equal(t, StatusExhausted, out.Status)
	assert.Contains(t, out.Reason, "circuit breaker")
	assert.Equal(t, DefaultMaxRepeatedErrors, out.ToolErrors)
}

func TestRunProviderFailure(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("503 upstream")}
	var sawError bool
	ag, err := New(provider, nil, WithObserver(func(e *types.AgentEvent) {
		if e.Type == types.EventTypeError {
			sawError = true
		}
	}))
	require.NoError(t, err)

	out := ag.Run(context.Background(), "system", "go")
	assert.Equal(t, StatusFailed, out.Status)
	require.Error(t, out.Err)
	assert.Contains(t, out.Err.Error(), "503 upstream")
	assert.True(t, sawError)
}

func TestRunToolPanicFailsRun(t *testing.T) {
	boom := &funcTool{name: "boom", fn: func(context.Context, json.RawMessage) (string, error) {
		panic("nil map")
	}}
	provider := &scriptedProvider{turns: []*types.Message{
		types.NewAssistantMessage("", call("c1", "boom", `{}`)),
	}}
	ag, err := New(provider, []tools.Tool{boom})
	require.NoError(t, err)

	out := ag.Run(context.Background(), "system", "go")
	assert.Equal(t, StatusFailed, out.Status)
	var panicErr *PanicError
	require.ErrorAs(t, out.Err, &panicErr)
	assert.Equal(t, "boom", panicErr.Tool)
	last := out.Transcript[len(out.Transcript)-1]
	assert.True(t, last.IsError)
}

func TestTrackError(t *testing.T) {
	ag, err := New(&scriptedProvider{}, nil, WithMaxRepeatedErrors(3))
	require.NoError(t, err)
	r := &run{agent: ag, outcome: &Outcome{}}

	assert.False(t, r.trackError("a"))
	assert.False(t, r.trackError("a"))
	assert.False(t, r.trackError("b"))
	assert.False(t, r.trackError("b"))
	assert.True(t, r.trackError("b"))

	r.resetErrorTracking()
	assert.False(t, r.trackError("b"))
}
