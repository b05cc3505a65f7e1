package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type evaluateArgs struct {
	Code string `json:"code"`
}

// evaluateTool runs JavaScript in the page.
type evaluateTool struct {
	set *Toolset
}

func (t *evaluateTool) Name() string { return "browser_evaluate" }

func (t *evaluateTool) Description() string {
	return "Evaluate a JavaScript expression in the page and return its JSON-encoded result. Wrap statements in an IIFE: (() => { ... })()."
}

func (t *evaluateTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"code": tools.StringProperty("JavaScript expression to evaluate"),
		},
		[]string{"code"},
	)
}

func (t *evaluateTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args evaluateArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if args.Code == "" {
		return "", fmt.Errorf("%w: code is required", tools.ErrInvalidArguments)
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	result, err := s.Evaluate(args.Code)
	if err != nil {
		return "", err
	}
	if err := t.set.guardNavigation(s); err != nil {
		return "", err
	}
	return encodeResult(result)
}
