package config

import (
	"fmt"
	"sync"
	"time"
)

// SectionIDAgent is the identifier for the agent budget section.
const SectionIDAgent = "agent"

const (
	defaultMaxTurns          = 40
	defaultTimeout           = 15 * time.Minute
	defaultMaxContextTokens  = 120_000
	defaultMaxRepairAttempts = 3
	defaultMaxRepeatedErrors = 5
)

// AgentSection bounds the agent loops.
type AgentSection struct {
	MaxTurns          int
	Timeout           time.Duration
	MaxContextTokens  int
	MaxRepairAttempts int
	MaxRepeatedErrors int
	mu                sync.RWMutex
}

// NewAgentSection creates the section with default budgets.
func NewAgentSection() *AgentSection {
	s := &AgentSection{}
	s.Reset()
	return s
}

func (s *AgentSection) ID() string    { return SectionIDAgent }
func (s *AgentSection) Title() string { return "Agent Budgets" }

func (s *AgentSection) Description() string {
	return "Turn, wall-clock and context-token limits of an agent run, the repair attempt bound of code generation, and how many identical tool errors in a row stop a run."
}

// Data returns the current settings. The timeout is a duration string.
func (s *AgentSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"max_turns":           s.MaxTurns,
		"timeout":             s.Timeout.String(),
		"max_context_tokens":  s.MaxContextTokens,
		"max_repair_attempts": s.MaxRepairAttempts,
		"max_repeated_errors": s.MaxRepeatedErrors,
	}
}

// SetData applies the given settings.
func (s *AgentSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "max_turns":
			s.MaxTurns, err = intValue(key, value)
		case "timeout":
			s.Timeout, err = durationValue(key, value)
		case "max_context_tokens":
			s.MaxContextTokens, err = intValue(key, value)
		case "max_repair_attempts":
			s.MaxRepairAttempts, err = intValue(key, value)
		case "max_repeated_errors":
			s.MaxRepeatedErrors, err = intValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate requires positive budgets. A zero context budget disables the
// token limit.
func (s *AgentSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.MaxTurns < 1:
		return fmt.Errorf("max_turns must be at least 1, got %d", s.MaxTurns)
	case s.Timeout <= 0:
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	case s.MaxContextTokens < 0:
		return fmt.Errorf("max_context_tokens must not be negative, got %d", s.MaxContextTokens)
	case s.MaxRepairAttempts < 1:
		return fmt.Errorf("max_repair_attempts must be at least 1, got %d", s.MaxRepairAttempts)
	case s.MaxRepeatedErrors < 1:
		return fmt.Errorf("max_repeated_errors must be at least 1, got %d", s.MaxRepeatedErrors)
	}
	return nil
}

// Reset restores the defaults.
func (s *AgentSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MaxTurns = defaultMaxTurns
	s.Timeout = defaultTimeout
	s.MaxContextTokens = defaultMaxContextTokens
	s.MaxRepairAttempts = defaultMaxRepairAttempts
	s.MaxRepeatedErrors = defaultMaxRepeatedErrors
}

// Snapshot returns a copy of the settings that is safe to read without
// locking.
func (s *AgentSection) Snapshot() AgentSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AgentSettings{
		MaxTurns:          s.MaxTurns,
		Timeout:           s.Timeout,
		MaxContextTokens:  s.MaxContextTokens,
		MaxRepairAttempts: s.MaxRepairAttempts,
		MaxRepeatedErrors: s.MaxRepeatedErrors,
	}
}

// AgentSettings is a point-in-time copy of AgentSection.
type AgentSettings struct {
	MaxTurns          int
	Timeout           time.Duration
	MaxContextTokens  int
	MaxRepairAttempts int
	MaxRepeatedErrors int
}
