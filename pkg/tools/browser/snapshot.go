package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type snapshotArgs struct {
	MaxLength int `json:"max_length,omitempty"`
}

// snapshotTool returns the cleaned markup and interactive elements of the
// page, the material a UI state and its labels are recorded from.
type snapshotTool struct {
	set *Toolset
}

func (t *snapshotTool) Name() string { return "browser_snapshot" }

func (t *snapshotTool) Description() string {
	return "Capture the current page: URL, title, cleaned HTML without scripts or styles, and the interactive elements with selectors usable for labels."
}

func (t *snapshotTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(
		map[string]interface{}{
			"max_length": map[string]interface{}{
				"type":        "integer",
				"description": fmt.Sprintf("Maximum characters of cleaned HTML (default: %d)", DefaultSnapshotLength),
			},
		},
		nil,
	)
}

func (t *snapshotTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args snapshotArgs
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}

	s, err := t.set.Session()
	if err != nil {
		return "", err
	}
	cleaned, err := s.Snapshot(args.MaxLength)
	if err != nil {
		return "", err
	}
	return encodeResult(cleaned)
}
