package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type fillArgs struct {
	Selector string `json:"selector"`
	Value    string `json:"value"`
}

// fillTool types into an input.
type fillTool struct {
	set *Toolset
}

func (t *fillTool) Name() string { return "browser_fill" }

func (t *fillTool) Description() string {
	return "Fill an input, textarea or contenteditable element with a value, replacing its current content."
}

func (t *fillTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector": tools.StringProperty("Selector of the field, e.g. 'input[name=\"email\"]'"),
			"value":    tools.StringProperty("Text to enter"),
		},
		[]string{"selector", "value"},
	)
}

func (t *fillTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args fillArgs
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
	if err := s.Fill(args.Selector, args.Value); err != nil {
		return "", fmt.Errorf("fill of %s failed: %w", args.Selector, err)
	}
	return fmt.Sprintf("Filled %s with %d characters.", args.Selector, len(args.Value)), nil
}
