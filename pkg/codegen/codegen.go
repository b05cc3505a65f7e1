// Package codegen turns a scenario and a project's labels into a Playwright
// test, runs it, and repairs it with the model until it passes or the
// attempt limit is reached.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent"
	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm/tokenizer"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
	"github.com/tsurutan/e2e-generator-sub000/pkg/runner"
	"github.com/tsurutan/e2e-generator-sub000/pkg/service"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/graphtools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

var codegenLogger *logging.Logger

func init() {
	codegenLogger, _ = logging.NewLogger("codegen")
}

// DefaultMaxAttempts bounds how often generated code is executed.
const DefaultMaxAttempts = 3

// Generator writes, runs and repairs tests.
type Generator struct {
	provider          llm.Provider
	services          *service.Services
	runner            runner.Runner
	browser           tools.Toolset
	maxAttempts       int
	budget            agent.Budget
	maxRepeatedErrors int
	tokenizer         *tokenizer.Tokenizer
	observer          agent.Observer
	instructions      string
	xmlTools          bool
}

// Option configures a Generator.
type Option func(*Generator)

// WithBrowser lets the model inspect the live site while writing code.
func WithBrowser(ts tools.Toolset) Option {
	return func(g *Generator) { g.browser = ts }
}

// WithMaxAttempts sets how many times code is executed; values below 1 are
// ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithBudget(b agent.Budget) Option {
	return func(g *Generator) { g.budget = b }
}

func WithMaxRepeatedErrors(n int) Option {
	return func(g *Generator) { g.maxRepeatedErrors = n }
}

func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(g *Generator) { g.tokenizer = t }
}

func WithObserver(o agent.Observer) Option {
	return func(g *Generator) { g.observer = o }
}

func WithInstructions(s string) Option {
	return func(g *Generator) { g.instructions = s }
}

func WithXMLTools() Option {
	return func(g *Generator) { g.xmlTools = true }
}

// New creates a Generator that executes code with r.
func New(provider llm.Provider, services *service.Services, r runner.Runner, opts ...Option) *Generator {
	g := &Generator{
		provider:          provider,
		services:          services,
		runner:            r,
		maxAttempts:       DefaultMaxAttempts,
		budget:            agent.DefaultBudget(),
		maxRepeatedErrors: agent.DefaultMaxRepeatedErrors,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Attempt is one execution of generated code. Number starts at 1.
type Attempt struct {
	Number int
	Code   string
	Result *runner.Result
}

// Result is a passing test and the attempts it took.
type Result struct {
	Code     string
	Attempts []Attempt
	Usage    types.TokenUsage
}

// Generate writes a test for s and runs it, repairing failures until it
// passes or MaxAttempts executions have failed. Failures are returned as
// *GenerationError or *ExecutionError.
func (g *Generator) Generate(ctx context.Context, s *Scenario) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, &GenerationError{Err: err}
	}
	project, err := g.services.Projects.Get(ctx, s.ProjectID)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}
	labels, err := g.services.Labels.ListByProject(ctx, project.ID)
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("failed to load labels: %w", err)}
	}

	registry := graphtools.New(g.services, project.ID, graphtools.ReferenceOnly())
	toolList, err := tools.Collect(ctx, registry, g.browser)
	if err != nil {
		return nil, &GenerationError{Err: fmt.Errorf("failed to assemble tools: %w", err)}
	}
	ag, err := agent.New(g.provider, toolList,
		agent.WithBudget(g.budget),
		agent.WithMaxRepeatedErrors(g.maxRepeatedErrors),
		agent.WithTokenizer(g.tokenizer),
		agent.WithObserver(g.observer),
	)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	var xmlTools []tools.Tool
	if g.xmlTools {
		xmlTools = toolList
	}
	system := systemPrompt(project.URL, g.instructions, xmlTools)
	result := &Result{}

	codegenLogger.Infof("generating %q for project %s with %d labels", s.Title, project.ID, len(labels))
	code, err := g.write(ctx, ag, system, generationPrompt(s, project.URL, labels), result)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	for attempt := 1; ; attempt++ {
		g.emit(types.NewExecutionStartEvent(attempt))
		run, err := g.runner.Run(ctx, code)
		if err != nil {
			return nil, &ExecutionError{Attempts: attempt, Code: code, Err: err}
		}
		result.Attempts = append(result.Attempts, Attempt{Number: attempt, Code: code, Result: run})
		g.emit(types.NewExecutionResultEvent(types.Execution{
			Attempt:  attempt,
			Success:  run.Success,
			ExitCode: run.ExitCode,
			Duration: run.Duration.String(),
			Output:   run.Output(),
		}))

		if run.Success {
			codegenLogger.Infof("%q passed on attempt %d", s.Title, attempt)
			result.Code = code
			return result, nil
		}
		codegenLogger.Warnf("%q failed on attempt %d: %s", s.Title, attempt, run.ErrorMessage())
		if attempt >= g.maxAttempts {
			return nil, &ExecutionError{Attempts: attempt, Code: code, Result: run}
		}

		code, err = g.write(ctx, ag, system, repairPrompt(s, code, run, attempt, g.maxAttempts), result)
		if err != nil {
			return nil, &GenerationError{Attempt: attempt, Err: err}
		}
	}
}

// write runs the agent once and extracts code from its final answer. An
// exhausted run still yields its last response.
func (g *Generator) write(ctx context.Context, ag *agent.Agent, system, prompt string, result *Result) (string, error) {
	outcome := ag.Run(ctx, system, prompt)
	result.Usage.PromptTokens += outcome.Usage.PromptTokens
	result.Usage.CompletionTokens += outcome.Usage.CompletionTokens
	result.Usage.TotalTokens += outcome.Usage.TotalTokens

	if outcome.Status == agent.StatusFailed {
		return "", outcome.Err
	}
	if outcome.Status == agent.StatusExhausted {
		codegenLogger.Warnf("generation run exhausted (%s); using last response", outcome.Reason)
	}
	code := ExtractCode(outcome.Final)
	if strings.TrimSpace(code) == "" {
		return "", errors.New("model returned no code")
	}
	return code, nil
}

func (g *Generator) emit(event *types.AgentEvent) {
	if g.observer != nil {
		g.observer(event)
	}
}
