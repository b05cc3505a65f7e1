package graphtools

import (
	"strings"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

// GetLabelsArgs filters labels by page URL; query and fragment are ignored.
type GetLabelsArgs struct {
	URL string `json:"url,omitempty"`
}

type SavePageArgs struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type SaveLabelArgs struct {
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Selector       string                `json:"selector"`
	XPath          *string               `json:"xpath,omitempty"`
	ElementText    *string               `json:"element_text,omitempty"`
	URL            string                `json:"url"`
	UIStateID      *string               `json:"ui_state_id,omitempty"`
	TriggerActions []graph.TriggerAction `json:"trigger_actions,omitempty"`
}

type SaveEdgeArgs struct {
	FromUIStateID string  `json:"from_ui_state_id"`
	ToUIStateID   string  `json:"to_ui_state_id"`
	Description   string  `json:"description"`
	TriggeredBy   *string `json:"triggered_by,omitempty"`
	TriggerType   *string `json:"trigger_type,omitempty"`
}

type SaveUiStateArgs struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PageURL     string  `json:"page_url"`
	IsDefault   bool    `json:"is_default,omitempty"`
	HTML        *string `json:"html,omitempty"`
}

// requireFields returns a BadRequest naming the first empty field.
func requireFields(fields ...[2]string) error {
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			return graph.BadRequest("%s is required", f[0])
		}
	}
	return nil
}

func field(name, value string) [2]string {
	return [2]string{name, value}
}
