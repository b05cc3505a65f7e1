package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// SectionIDBrowser is the identifier for the browser section.
const SectionIDBrowser = "browser"

const defaultRunnerCommand = "npx playwright test {file} --reporter=line"

// BrowserSection configures how exploration drives a browser and how
// generated code is executed.
type BrowserSection struct {
	Headless bool

	// Install downloads the Playwright driver and Chromium on first use.
	Install bool

	// MCPCommand, when set, replaces the in-process browser with the tools
	// of an MCP server started with this command line.
	MCPCommand string

	// AllowedURLs are glob patterns navigation must match. Empty means the
	// origin of the project URL.
	AllowedURLs []string

	// RunnerCommand executes generated code; {file} is the source path.
	RunnerCommand string

	mu sync.RWMutex
}

// NewBrowserSection creates the section with defaults.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

func (s *BrowserSection) ID() string    { return SectionIDBrowser }
func (s *BrowserSection) Title() string { return "Browser" }

func (s *BrowserSection) Description() string {
	return "Headless mode, optional MCP browser server, allowed URL patterns for exploration, and the command that runs generated tests."
}

func (s *BrowserSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{
		"headless":       s.Headless,
		"install":        s.Install,
		"mcp_command":    s.MCPCommand,
		"allowed_urls":   append([]string{}, s.AllowedURLs...),
		"runner_command": s.RunnerCommand,
	}
}

func (s *BrowserSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "headless":
			s.Headless, err = boolValue(key, value)
		case "install":
			s.Install, err = boolValue(key, value)
		case "mcp_command":
			s.MCPCommand, err = stringValue(key, value)
		case "allowed_urls":
			s.AllowedURLs, err = stringsValue(key, value)
		case "runner_command":
			s.RunnerCommand, err = stringValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that every allowed URL pattern compiles.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.AllowedURLs {
		if _, err := glob.Compile(p, '/'); err != nil {
			return fmt.Errorf("invalid allowed_urls pattern %q: %w", p, err)
		}
	}
	if strings.TrimSpace(s.RunnerCommand) == "" {
		return fmt.Errorf("runner_command must not be empty")
	}
	return nil
}

func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Headless = true
	s.Install = false
	s.MCPCommand = ""
	s.AllowedURLs = nil
	s.RunnerCommand = defaultRunnerCommand
}

// Snapshot returns a copy of the settings.
func (s *BrowserSection) Snapshot() BrowserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BrowserSettings{
		Headless:      s.Headless,
		Install:       s.Install,
		MCPCommand:    s.MCPCommand,
		AllowedURLs:   append([]string(nil), s.AllowedURLs...),
		RunnerCommand: s.RunnerCommand,
	}
}

// BrowserSettings is a point-in-time copy of BrowserSection.
type BrowserSettings struct {
	Headless      bool
	Install       bool
	MCPCommand    string
	AllowedURLs   []string
	RunnerCommand string
}
