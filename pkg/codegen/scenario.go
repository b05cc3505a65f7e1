package codegen

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a behavioral test case written as Given/When/Then steps.
//
//	project_id: 5f0c...
//	feature: Authentication
//	title: Successful login
//	given:
//	  - a registered user
//	when:
//	  - the user logs in with valid credentials
//	then:
//	  - the dashboard is shown
type Scenario struct {
	ProjectID   string   `yaml:"project_id"`
	Feature     string   `yaml:"feature,omitempty"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Given       []string `yaml:"given,omitempty"`
	When        []string `yaml:"when"`
	Then        []string `yaml:"then"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a YAML scenario. Unknown keys are
// rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the fields a generation run needs.
func (s *Scenario) Validate() error {
	switch {
	case strings.TrimSpace(s.ProjectID) == "":
		return fmt.Errorf("scenario project_id is required")
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("scenario title is required")
	case len(s.When) == 0 && len(s.Then) == 0:
		return fmt.Errorf("scenario %q has no when or then steps", s.Title)
	}
	return nil
}

// Text renders the scenario in Gherkin style.
func (s *Scenario) Text() string {
	var b strings.Builder
	if s.Feature != "" {
		fmt.Fprintf(&b, "Feature: %s\n", s.Feature)
	}
	fmt.Fprintf(&b, "Scenario: %s\n", s.Title)
	if d := strings.TrimSpace(s.Description); d != "" {
		fmt.Fprintf(&b, "  %s\n", d)
	}
	writeSteps(&b, "Given", s.Given)
	writeSteps(&b, "When", s.When)
	writeSteps(&b, "Then", s.Then)
	return strings.TrimRight(b.String(), "\n")
}

func writeSteps(b *strings.Builder, keyword string, steps []string) {
	for i, step := range steps {
		kw := keyword
		if i > 0 {
			kw = "And"
		}
		fmt.Fprintf(b, "  %s %s\n", kw, strings.TrimSpace(step))
	}
}
