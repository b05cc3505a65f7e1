package config

import (
	"fmt"
	"time"
)

// Section is one named group of settings stored under its ID.
type Section interface {
	ID() string
	Title() string
	Description() string

	// Data returns the settings as JSON-compatible values.
	Data() map[string]interface{}

	// SetData applies the keys present in data; absent keys keep their value.
	SetData(data map[string]interface{}) error

	Validate() error
	Reset()
}

// Values decoded from JSON arrive as float64 numbers and []interface{}
// lists; these helpers accept both those and native Go types.

func stringValue(key string, v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("invalid value type for %s: expected string, got %T", key, v)
	}
	return s, nil
}

func boolValue(key string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("invalid value type for %s: expected bool, got %T", key, v)
	}
	return b, nil
}

func intValue(key string, v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("invalid value for %s: %v is not a whole number", key, n)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, v)
}

func floatValue(key string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, v)
}

func durationValue(key string, v interface{}) (time.Duration, error) {
	s, err := stringValue(key, v)
	if err != nil {
		return 0, err
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func stringsValue(key string, v interface{}) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid value type for %s[%d]: expected string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid value type for %s: expected list of strings, got %T", key, v)
}
