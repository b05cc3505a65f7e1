package graph

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// EncodeTriggerActions serializes a trigger-action list for storage. An empty
// list encodes to nil so the column stays NULL.
func EncodeTriggerActions(actions []TriggerAction) (*string, error) {
	if len(actions) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(actions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trigger actions: %w", err)
	}
	s := string(data)
	return &s, nil
}

// DecodeTriggerActions parses a stored trigger-action payload. A nil or blank
// payload decodes to an empty list.
func DecodeTriggerActions(raw *string) ([]TriggerAction, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	var actions []TriggerAction
	if err := json.Unmarshal([]byte(*raw), &actions); err != nil {
		return nil, fmt.Errorf("failed to decode trigger actions: %w", err)
	}
	return actions, nil
}

// SplitURL separates a page URL into the base used for label matching and its
// raw query string. The fragment is dropped. Inputs that do not parse are
// returned unchanged.
func SplitURL(raw string) (base string, query string) {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i], ""
		}
		return raw, ""
	}
	query = u.RawQuery
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), query
}
