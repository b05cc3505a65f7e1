package codegen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm"
	"github.com/tsurutan/e2e-generator-sub000/pkg/runner"
	"github.com/tsurutan/e2e-generator-sub000/pkg/service"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

// versionProvider answers the n-th call with a fenced block containing
// "code vN" and records each opening user prompt.
type versionProvider struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	err     error
}

func (p *versionProvider) Chat(_ context.Context, messages []*types.Message, _ []types.ToolDefinition) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	p.prompts = append(p.prompts, messages[1].Content)
	return &llm.Response{Message: types.NewAssistantMessage(fmt.Sprintf("Here it is:\n```ts\ncode v%d\n```", p.calls))}, nil
}

func (p *versionProvider) GetModel() string { return "version" }

// fakeRunner passes from the given attempt on; zero never passes.
type fakeRunner struct {
	passFrom int
	err      error
	sources  []string
}

func (r *fakeRunner) Run(_ context.Context, source string) (*runner.Result, error) {
	r.sources = append(r.sources, source)
	if r.err != nil {
		return nil, r.err
	}
	n := len(r.sources)
	if r.passFrom > 0 && n >= r.passFrom {
		return &runner.Result{Success: true, Stdout: "1 passed"}, nil
	}
	return &runner.Result{
		ExitCode:   1,
		Stdout:     fmt.Sprintf("Error: locator('#login') not found (run %d)", n),
		StackTrace: "Error: locator('#login') not found\n    at /tmp/scenario.spec.ts:4:11",
	}, nil
}

func newFixture(t *testing.T) (*service.Services, *Scenario) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := service.New(st)
	ctx := context.Background()
	project, err := svc.Projects.Create(ctx, "shop", "https://shop.example.com")
	require.NoError(t, err)
	_, err = svc.Labels.Create(ctx, service.CreateLabelInput{
		ProjectID:   project.ID,
		Name:        "Log in",
		Description: "opens the\nlogin form",
		Selector:    "#login",
		URL:         "https://shop.example.com/?ref=nav",
	})
	require.NoError(t, err)

	return svc, &Scenario{
		ProjectID: project.ID,
		Title:     "Successful login",
		Given:     []string{"a registered user"},
		When:      []string{"the user logs in"},
		Then:      []string{"the dashboard is shown"},
	}
}

func TestGenerateRepairsUntilPass(t *testing.T) {
	svc, scenario := newFixture(t)
	provider := &versionProvider{}
	run := &fakeRunner{passFrom: 3}

	var events []types.AgentEventType
	observer := func(e *types.AgentEvent) {
		if e.Type == types.EventTypeExecutionStart || e.Type == types.EventTypeExecutionResult {
			events = append(events, e.Type)
		}
	}

	result, err := New(provider, svc, run, WithObserver(observer)).Generate(context.Background(), scenario)
	require.NoError(t, err)

	assert.Equal(t, "code v3", result.Code)
	assert.Equal(t, []string{"code v1", "code v2", "code v3"}, run.sources)
	assert.Equal(t, 3, provider.calls)
	require.Len(t, result.Attempts, 3)
	for i, a := range result.Attempts {
		assert.Equal(t, i+1, a.Number)
	}
	assert.True(t, result.Attempts[2].Result.Success)
	assert.Len(t, events, 6)

	assert.Contains(t, provider.prompts[0], "Scenario: Successful login")
	assert.Contains(t, provider.prompts[0], "- Log in | #login | opens the login form (on https://shop.example.com/)")

	repair := provider.prompts[1]
	assert.Contains(t, repair, "Attempt 1 of 3 failed")
	assert.Contains(t, repair, "code v1")
	assert.Contains(t, repair, "Error: locator('#login') not found (run 1)")
	assert.Contains(t, repair, "Stack trace:\nError: locator('#login') not found\n    at /tmp/scenario.spec.ts:4:11")
	assert.Contains(t, provider.prompts[2], "Attempt 2 of 3 failed")
}

func TestGenerateStopsAtMaxAttempts(t *testing.T) {
	svc, scenario := newFixture(t)
	provider := &versionProvider{}
	run := &fakeRunner{}

	result, err := New(provider, svc, run).Generate(context.Background(), scenario)
	require.Error(t, err)
	assert.Nil(t, result)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 3, execErr.Attempts)
	assert.Equal(t, "code v3", execErr.Code)
	require.NotNil(t, execErr.Result)
	assert.Contains(t, err.Error(), "code execution failed: Error: locator('#login') not found (run 3)")
	assert.Len(t, run.sources, 3)
	assert.Equal(t, 3, provider.calls)
}

func TestGenerateMaxAttemptsOption(t *testing.T) {
	svc, scenario := newFixture(t)
	run := &fakeRunner{}

	_, err := New(&versionProvider{}, svc, run, WithMaxAttempts(1)).Generate(context.Background(), scenario)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, 1, execErr.Attempts)
	assert.Len(t, run.sources, 1)
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Scenario)
		provider *versionProvider
		runner   *fakeRunner
		check    func(t *testing.T, err error)
	}{
		{
			name:     "missing project",
			mutate:   func(s *Scenario) { s.ProjectID = "nope" },
			provider: &versionProvider{},
			runner:   &fakeRunner{},
			check: func(t *testing.T, err error) {
				var genErr *GenerationError
				require.True(t, errors.As(err, &genErr))
				assert.True(t, errors.Is(err, graph.ErrNotFound))
				assert.Contains(t, err.Error(), "code generation failed")
			},
		},
		{
			name:     "invalid scenario",
			mutate:   func(s *Scenario) { s.Title = "" },
			provider: &versionProvider{},
			runner:   &fakeRunner{},
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "code generation failed: scenario title is required")
			},
		},
		{
			name:     "model failure",
			provider: &versionProvider{err: errors.New("rate limited")},
			runner:   &fakeRunner{},
			check: func(t *testing.T, err error) {
				var genErr *GenerationError
				require.True(t, errors.As(err, &genErr))
				assert.Contains(t, err.Error(), "rate limited")
			},
		},
		{
			name:     "runner cannot start",
			provider: &versionProvider{},
			runner:   &fakeRunner{err: errors.New("npx: not found")},
			check: func(t *testing.T, err error) {
				var execErr *ExecutionError
				require.True(t, errors.As(err, &execErr))
				assert.Equal(t, 1, execErr.Attempts)
				assert.EqualError(t, err, "code execution failed: npx: not found")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, scenario := newFixture(t)
			if tt.mutate != nil {
				tt.mutate(scenario)
			}
			_, err := New(tt.provider, svc, tt.runner).Generate(context.Background(), scenario)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{name: "fenced with language", response: "Sure.\n```typescript\ntest('x', () => {})\n```\nDone.", want: "test('x', () => {})"},
		{name: "first block wins", response: "```\nfirst\n```\n```\nsecond\n```", want: "first"},
		{name: "no block falls back to full text", response: "  test('x', () => {})\n", want: "test('x', () => {})"},
		{name: "empty", response: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.response))
		})
	}
}

func TestRenderLabels(t *testing.T) {
	assert.Equal(t, "(none recorded)\n", RenderLabels(nil))

	out := RenderLabels([]*graph.Label{{
		Name:           "Email",
		Selector:       "input[name=\"email\"]",
		Description:    "login email",
		TriggerActions: []graph.TriggerAction{{Type: "click", Selector: "#login"}},
	}})
	assert.Equal(t, "- Email | input[name=\"email\"] | login email\n    revealed by: click #login\n", out)
}
