package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type selectorArgs struct {
	Selector string `json:"selector"`
}

// clickTool clicks an element. A click that leaves the scope is undone.
type clickTool struct {
	set *Toolset
}

func (t *clickTool) Name() string { return "browser_click" }

func (t *clickTool) Description() string {
	return "Click the element matching a selector (CSS or Playwright text selector such as button:has-text(\"Save\")). Returns the page URL and title after the click."
}

func (t *clickTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector": tools.StringProperty("Selector of the element to click, e.g. '#login-btn' or 'a[href=\"/about\"]'"),
		},
		[]string{"selector"},
	)
}

func (t *clickTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args selectorArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if args.Selector == "" {
		return "", fmt.Errorf("%w: selector is required", tools.ErrInvalidArguments)
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	if err := s.Click(args.Selector); err != nil {
		return "", fmt.Errorf("click on %s failed: %w", args.Selector, err)
	}
	if err := t.set.guardNavigation(s); err != nil {
		return "", err
	}
	return encodeResult(currentPage(s))
}
