package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type extractArgs struct {
	Format    string `json:"format,omitempty"`
	Selector  string `json:"selector,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
}

// extractContentTool reads page text.
type extractContentTool struct {
	set *Toolset
}

func (t *extractContentTool) Name() string { return "browser_extract_content" }

func (t *extractContentTool) Description() string {
	return "Extract the readable content of the current page as markdown, plain text, or structured JSON with headings and links."
}

func (t *extractContentTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"format":   tools.StringProperty("'markdown' (default), 'text', or 'structured'"),
			"selector": tools.StringProperty("Limit extraction to the element matching this selector"),
			"max_length": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum characters of text (default: %d)", DefaultMaxLength),
			},
		},
		nil,
	)
}

func (t *extractContentTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args extractArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}
	format := ExtractFormat(args.Format)
	switch format {
	case "", FormatMarkdown, FormatText, FormatStructured:
	default:
		return "", fmt.Errorf("%w: format must be 'markdown', 'text', or 'structured'", tools.ErrInvalidArguments)
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	return s.ExtractContent(format, args.Selector, args.MaxLength)
}
