package graphtools

import "github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"

var descriptions = [kindCount]string{
	KindGetPages:    "List every page saved for the project.",
	KindGetLabels:   "List labelled elements of the project. Pass url to only get the labels of that page.",
	KindGetEdges:    "List every transition edge saved for the project.",
	KindGetUiStates: "List every UI state saved for the project, without markup.",
	KindSavePage:    "Save a page of the application. Saving an existing URL again is allowed and updates its title.",
	KindSaveLabel:   "Save a labelled element: a named, located reference to a DOM element that tests can interact with.",
	KindSaveEdge:    "Save a transition between two saved UI states. Both states must already exist; save them first.",
	KindSaveUiState: "Save a distinct visual or interactive state of a saved page. Each page has at most one default state.",
}

func schemaFor(k Kind) map[string]interface{} {
	switch k {
	case KindGetPages, KindGetEdges, KindGetUiStates:
		return tools.BaseToolSchema(map[string]interface{}{}, nil)
	case KindGetLabels:
		return tools.BaseToolSchema(map[string]interface{}{
			"url": tools.StringProperty("Page URL to filter by"),
		}, nil)
	case KindSavePage:
		return tools.BaseToolSchema(map[string]interface{}{
			"title": tools.StringProperty("Page title"),
			"url":   tools.StringProperty("Absolute page URL"),
		}, []string{"title", "url"})
	case KindSaveLabel:
		return tools.BaseToolSchema(map[string]interface{}{
			"name":         tools.StringProperty("Short name of the element, e.g. \"login button\""),
			"description":  tools.StringProperty("What the element is for"),
			"selector":     tools.StringProperty("CSS selector locating the element"),
			"xpath":        tools.StringProperty("XPath locating the element"),
			"element_text": tools.StringProperty("Visible text of the element"),
			"url":          tools.StringProperty("URL of the page the element is on"),
			"ui_state_id":  tools.StringProperty("ID of the UI state the element belongs to"),
			"trigger_actions": map[string]interface{}{
				"type":        "array",
				"description": "Actions needed to reveal the element, in order",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"type":        map[string]interface{}{"type": "string", "enum": []string{"click", "hover", "fill", "select", "navigate"}},
						"selector":    tools.StringProperty("Target of the action"),
						"text":        tools.StringProperty("Text to type"),
						"value":       tools.StringProperty("Value to select"),
						"description": tools.StringProperty("What the action does"),
					},
					"required": []string{"type"},
				},
			},
		}, []string{"name", "description", "selector", "url"})
	case KindSaveEdge:
		return tools.BaseToolSchema(map[string]interface{}{
			"from_ui_state_id": tools.StringProperty("ID of the state the transition starts from"),
			"to_ui_state_id":   tools.StringProperty("ID of the state the transition leads to"),
			"description":      tools.StringProperty("What happens during the transition"),
			"triggered_by":     tools.StringProperty("Selector or label of the element that triggers it"),
			"trigger_type":     tools.StringProperty("Kind of user action, e.g. click or submit"),
		}, []string{"from_ui_state_id", "to_ui_state_id", "description"})
	case KindSaveUiState:
		return tools.BaseToolSchema(map[string]interface{}{
			"title":       tools.StringProperty("Short title of the state"),
			"description": tools.StringProperty("What is visible or possible in this state"),
			"page_url":    tools.StringProperty("URL of the saved page this state belongs to"),
			"is_default":  map[string]interface{}{"type": "boolean", "description": "Whether this is the state the page opens in"},
			"html":        tools.StringProperty("Markup snapshot of the state"),
		}, []string{"title", "description", "page_url"})
	}
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}
