package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent"
	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/config"
	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm/openai"
	"github.com/tsurutan/e2e-generator-sub000/pkg/llm/tokenizer"
	"github.com/tsurutan/e2e-generator-sub000/pkg/recorder"
	"github.com/tsurutan/e2e-generator-sub000/pkg/service"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/browser"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/mcpbridge"
)

// app holds the resources a command works with.
type app struct {
	store    *store.Store
	services *service.Services
	recorder *recorder.Recorder
}

func openApp() (*app, error) {
	path := dbPath
	if path == "" {
		var err error
		if path, err = config.GetDatabase().ResolvedPath(); err != nil {
			return nil, err
		}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	return &app{store: st, services: service.New(st), recorder: recorder.New(st)}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func buildProvider() (*openai.Provider, error) {
	return config.BuildProvider(config.ProviderSettings{
		Model:   modelFlag,
		BaseURL: baseURL,
		APIKey:  apiKey,
	}, defaultModel)
}

// runFlags are the agent budget overrides shared by explore and generate.
type runFlags struct {
	maxTurns     int
	timeout      string
	instructions string
	xmlTools     bool
	noBrowser    bool
	quiet        bool
}

func (f *runFlags) budget() (agent.Budget, config.AgentSettings, error) {
	settings := config.GetAgent().Snapshot()
	if f.maxTurns > 0 {
		settings.MaxTurns = f.maxTurns
	}
	if f.timeout != "" {
		d, err := time.ParseDuration(f.timeout)
		if err != nil {
			return agent.Budget{}, settings, fmt.Errorf("invalid --timeout: %w", err)
		}
		settings.Timeout = d
	}
	return agent.Budget{
		MaxTurns:         settings.MaxTurns,
		Timeout:          settings.Timeout,
		MaxContextTokens: settings.MaxContextTokens,
	}, settings, nil
}

func newTokenizer() *tokenizer.Tokenizer {
	tok, err := tokenizer.New()
	if err != nil {
		// Budgets fall back to estimated counts.
		return nil
	}
	return tok
}

// browserTools returns the browser toolset for project: the tools of the
// configured MCP server, or an in-process Playwright browser limited to the
// allowed URLs. The returned func releases it.
func browserTools(ctx context.Context, project *graph.Project) (tools.Toolset, func(), error) {
	settings := config.GetBrowser().Snapshot()

	if settings.MCPCommand != "" {
		client, err := mcpbridge.Dial(ctx, settings.MCPCommand, version)
		if err != nil {
			return nil, nil, err
		}
		return client, func() { client.Close() }, nil
	}

	var (
		scope *browser.Scope
		err   error
	)
	if len(settings.AllowedURLs) > 0 {
		scope, err = browser.NewScope(settings.AllowedURLs...)
	} else {
		scope, err = browser.ScopeForOrigin(project.URL)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("invalid browser scope: %w", err)
	}

	manager := browser.NewSessionManager(settings.Install)
	ts := browser.NewToolset(manager, "uigraph", browser.SessionOptions{Headless: settings.Headless}, scope)
	return ts, func() {
		ts.Close()
		manager.Shutdown()
	}, nil
}
