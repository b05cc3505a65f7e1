// Package explorer runs the exploration loop: an agent that browses a
// project's site and records pages, UI states, edges and labels through the
// graph tools.
package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent"
	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm/tokenizer"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
	"github.com/tsurutan/e2e-generator-sub000/pkg/service"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/graphtools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

var explorerLogger *logging.Logger

func init() {
	explorerLogger, _ = logging.NewLogger("explorer")
}

// Explorer explores projects with one provider and browser toolset.
type Explorer struct {
	provider          llm.Provider
	services          *service.Services
	browser           tools.Toolset
	budget            agent.Budget
	maxRepeatedErrors int
	tokenizer         *tokenizer.Tokenizer
	observer          agent.Observer
	cleaner           graphtools.HTMLCleaner
	instructions      string
	xmlTools          bool
}

// Option configures an Explorer.
type Option func(*Explorer)

func WithBudget(b agent.Budget) Option {
	return func(e *Explorer) { e.budget = b }
}

func WithMaxRepeatedErrors(n int) Option {
	return func(e *Explorer) { e.maxRepeatedErrors = n }
}

func WithTokenizer(t *tokenizer.Tokenizer) Option {
	return func(e *Explorer) { e.tokenizer = t }
}

func WithObserver(o agent.Observer) Option {
	return func(e *Explorer) { e.observer = o }
}

// WithHTMLCleaner reduces markup passed to save_ui_state before storage.
func WithHTMLCleaner(fn graphtools.HTMLCleaner) Option {
	return func(e *Explorer) { e.cleaner = fn }
}

// WithInstructions adds user instructions to the system prompt.
func WithInstructions(s string) Option {
	return func(e *Explorer) { e.instructions = s }
}

// WithXMLTools documents tools in the system prompt for models that only
// call tools through XML blocks.
func WithXMLTools() Option {
	return func(e *Explorer) { e.xmlTools = true }
}

// New creates an Explorer. browser may be nil, leaving only the graph tools.
func New(provider llm.Provider, services *service.Services, browser tools.Toolset, opts ...Option) *Explorer {
	e := &Explorer{
		provider:          provider,
		services:          services,
		browser:           browser,
		budget:            agent.DefaultBudget(),
		maxRepeatedErrors: agent.DefaultMaxRepeatedErrors,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// GraphStats counts the project's graph after a run.
type GraphStats struct {
	Pages    int `json:"pages"`
	UiStates int `json:"uiStates"`
	Edges    int `json:"edges"`
	Labels   int `json:"labels"`
}

// Result reports an exploration run. Status is completed, exhausted or
// failed; Err is set only for failed runs. Whatever was saved before the
// run ended stays in the graph.
type Result struct {
	ProjectID string
	URL       string
	Status    agent.Status
	Reason    string
	Err       error
	Summary   string
	Duration  time.Duration
	Stats     GraphStats

	Turns      int
	ToolCalls  int
	ToolErrors int
	Usage      types.TokenUsage
	Transcript []*types.Message
}

// Succeeded reports whether the run ended without a failure. An exhausted
// run succeeded with a partial graph.
func (r *Result) Succeeded() bool {
	return r.Status != agent.StatusFailed
}

// Explore runs the exploration loop for projectID. Only problems found
// before the model is first called are returned as errors; a run that fails
// midway is reported through Result.Status and Result.Err.
func (e *Explorer) Explore(ctx context.Context, projectID string) (*Result, error) {
	project, err := e.services.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	registryOpts := []graphtools.Option{}
	if e.cleaner != nil {
		registryOpts = append(registryOpts, graphtools.WithHTMLCleaner(e.cleaner))
	}
	registry := graphtools.New(e.services, project.ID, registryOpts...)

	toolList, err := tools.Collect(ctx, registry, e.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble exploration tools: %w", err)
	}

	ag, err := agent.New(e.provider, toolList,
		agent.WithBudget(e.budget),
		agent.WithMaxRepeatedErrors(e.maxRepeatedErrors),
		agent.WithTokenizer(e.tokenizer),
		agent.WithObserver(e.observer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create exploration agent: %w", err)
	}

	var xmlTools []tools.Tool
	if e.xmlTools {
		xmlTools = toolList
	}

	explorerLogger.Infof("exploring project %s (%s) with %d tools", project.ID, project.URL, len(toolList))
	start := time.Now()
	outcome := ag.Run(ctx, SystemPrompt(project, e.instructions, xmlTools), UserPrompt(project))

	result := &Result{
		ProjectID:  project.ID,
		URL:        project.URL,
		Status:     outcome.Status,
		Reason:     outcome.Reason,
		Err:        outcome.Err,
		Summary:    outcome.Final,
		Duration:   time.Since(start),
		Turns:      outcome.Turns,
		ToolCalls:  outcome.ToolCalls,
		ToolErrors: outcome.ToolErrors,
		Usage:      outcome.Usage,
		Transcript: outcome.Transcript,
	}

	// The run context may be spent; counting uses a fresh one.
	stats, err := e.stats(context.WithoutCancel(ctx), project.ID)
	if err != nil {
		explorerLogger.Warnf("failed to count graph for project %s: %v", project.ID, err)
	}
	result.Stats = stats

	switch result.Status {
	case agent.StatusFailed:
		explorerLogger.Errorf("exploration of %s failed after %d turns: %v", project.ID, result.Turns, result.Err)
	case agent.StatusExhausted:
		explorerLogger.Warnf("exploration of %s exhausted after %d turns: %s", project.ID, result.Turns, result.Reason)
	default:
		explorerLogger.Infof("exploration of %s completed in %d turns", project.ID, result.Turns)
	}
	return result, nil
}

func (e *Explorer) stats(ctx context.Context, projectID string) (GraphStats, error) {
	var s GraphStats
	pages, err := e.services.Pages.ListByProject(ctx, projectID)
	if err != nil {
		return s, err
	}
	states, err := e.services.UiStates.ListByProject(ctx, projectID)
	if err != nil {
		return s, err
	}
	edges, err := e.services.Edges.ListByProject(ctx, projectID)
	if err != nil {
		return s, err
	}
	labels, err := e.services.Labels.ListByProject(ctx, projectID)
	if err != nil {
		return s, err
	}
	s.Pages, s.UiStates, s.Edges, s.Labels = len(pages), len(states), len(edges), len(labels)
	return s, nil
}

// String renders a one-line report of r.
func (r *Result) String() string {
	line := fmt.Sprintf("exploration %s in %d turns (%s): %d pages, %d UI states, %d edges, %d labels",
		r.Status, r.Turns, r.Duration.Round(time.Millisecond),
		r.Stats.Pages, r.Stats.UiStates, r.Stats.Edges, r.Stats.Labels)
	if r.Reason != "" {
		line += "; " + r.Reason
	}
	if r.Err != nil {
		line += fmt.Sprintf("; error: %v", r.Err)
	}
	return line
}
