package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

var validElementStates = map[string]bool{
	"attached": true,
	"detached": true,
	"visible":  true,
	"hidden":   true,
}

type waitArgs struct {
	Selector string  `json:"selector"`
	State    string  `json:"state,omitempty"`
	Timeout  float64 `json:"timeout,omitempty"`
}

// waitTool waits for an element state.
type waitTool struct {
	set *Toolset
}

func (t *waitTool) Name() string { return "browser_wait" }

func (t *waitTool) Description() string {
	return "Wait until the element matching a selector reaches a state. Use after actions that render content asynchronously."
}

func (t *waitTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"selector": tools.StringProperty("Selector of the element to wait for"),
			"state":    tools.StringProperty("'visible' (default), 'hidden', 'attached', or 'detached'"),
			"timeout": map[string]interface{}{
				"type":        "number",
				"description": "Timeout in milliseconds (default: session timeout)",
			},
		},
		[]string{"selector"},
	)
}

func (t *waitTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args waitArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if args.State == "" {
		args.State = "visible"
	}
	if !validElementStates[args.State] {
		return "", fmt.Errorf("%w: state must be 'visible', 'hidden', 'attached', or 'detached'", tools.ErrInvalidArguments)
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	if err := s.Wait(args.Selector, args.State, args.Timeout); err != nil {
		return "", err
	}
	return fmt.Sprintf("Element %s is %s.", args.Selector, args.State), nil
}
