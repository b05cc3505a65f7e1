package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type searchArgs struct {
	Pattern    string `json:"pattern"`
	MaxResults int    `json:"max_results,omitempty"`
}

// searchTool finds text on the page.
type searchTool struct {
	set *Toolset
}

func (t *searchTool) Name() string { return "browser_search" }

func (t *searchTool) Description() string {
	return "Search the text of the current page (case-insensitive) and return each match with surrounding context."
}

func (t *searchTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"pattern": tools.StringProperty("Text to search for"),
			"max_results": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum matches to return (default: %d)", DefaultMaxResults),
			},
		},
		[]string{"pattern"},
	)
}

func (t *searchTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args searchArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if args.Pattern == "" {
		return "", fmt.Errorf("%w: pattern is required", tools.ErrInvalidArguments)
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	results, err := s.Search(args.Pattern, args.MaxResults)
	if err != nil {
		return "", err
	}
	return encodeResult(map[string]interface{}{
		"pattern": args.Pattern,
		"count":   len(results),
		"matches": results,
	})
}
