package config

import (
	"fmt"
	"sync"
)

// SectionIDLLM is the identifier for the LLM settings section.
const SectionIDLLM = "llm"

// LLMSection holds the model endpoint settings.
type LLMSection struct {
	Model   string
	BaseURL string
	APIKey  string

	// Temperature is only sent when set.
	Temperature *float64

	mu sync.RWMutex
}

// NewLLMSection creates an empty LLM section; empty values fall through to
// flags, environment and built-in defaults.
func NewLLMSection() *LLMSection {
	return &LLMSection{}
}

func (s *LLMSection) ID() string    { return SectionIDLLM }
func (s *LLMSection) Title() string { return "LLM Settings" }

func (s *LLMSection) Description() string {
	return "Model, OpenAI-compatible base URL and API key used by exploration and code generation."
}

// Data returns the current settings.
func (s *LLMSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := map[string]interface{}{
		"model":    s.Model,
		"base_url": s.BaseURL,
		"api_key":  s.APIKey,
	}
	if s.Temperature != nil {
		data["temperature"] = *s.Temperature
	}
	return data
}

// SetData applies the given settings.
func (s *LLMSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "model":
			s.Model, err = stringValue(key, value)
		case "base_url":
			s.BaseURL, err = stringValue(key, value)
		case "api_key":
			s.APIKey, err = stringValue(key, value)
		case "temperature":
			var t float64
			if t, err = floatValue(key, value); err == nil {
				s.Temperature = &t
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the temperature range. Missing credentials are reported
// when a provider is built, not here.
func (s *LLMSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Temperature != nil && (*s.Temperature < 0 || *s.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *s.Temperature)
	}
	return nil
}

// Reset clears every setting.
func (s *LLMSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Model, s.BaseURL, s.APIKey, s.Temperature = "", "", "", nil
}

func (s *LLMSection) GetModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Model
}

func (s *LLMSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

func (s *LLMSection) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// GetTemperature returns the temperature and whether one is set.
func (s *LLMSection) GetTemperature() (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Temperature == nil {
		return 0, false
	}
	return *s.Temperature, true
}
