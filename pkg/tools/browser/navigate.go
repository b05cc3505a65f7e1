package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

var validWaitStates = map[string]bool{
	"load":             true,
	"domcontentloaded": true,
	"networkidle":      true,
}

type navigateArgs struct {
	URL       string `json:"url"`
	WaitUntil string `json:"wait_until,omitempty"`
}

// navigateTool loads a URL inside the scope.
type navigateTool struct {
	set *Toolset
}

func (t *navigateTool) Name() string { return "browser_navigate" }

func (t *navigateTool) Description() string {
	return "Navigate the browser to a URL and wait for the page to load. Only URLs inside the exploration scope are allowed."
}

func (t *navigateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"url":        tools.StringProperty("Absolute URL to open, e.g. https://example.com/login"),
			"wait_until": tools.StringProperty("When navigation is complete: 'load' (default), 'domcontentloaded', or 'networkidle'"),
		},
		[]string{"url"},
	)
}

func (t *navigateTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args navigateArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if args.URL == "" {
		return "", fmt.Errorf("%w: url is required", tools.ErrInvalidArguments)
	}
	if args.WaitUntil != "" && !validWaitStates[args.WaitUntil] {
		return "", fmt.Errorf("%w: wait_until must be 'load', 'domcontentloaded', or 'networkidle'", tools.ErrInvalidArguments)
	}
	if err := t.set.scope.Check(args.URL); err != nil {
		return "", err
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	if err := s.Navigate(args.URL, args.WaitUntil); err != nil {
		return "", fmt.Errorf("navigation failed: %w", err)
	}
	if err := t.set.guardNavigation(s); err != nil {
		return "", err
	}
	return encodeResult(currentPage(s))
}
