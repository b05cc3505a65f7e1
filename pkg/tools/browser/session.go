package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Session is a named browser page the tools operate on. A session is used by
// one run at a time; the mutex only guards against overlapping tool calls.
type Session struct {
	// Name is the unique identifier for this session
	Name string

	// Headless indicates if the browser is running in headless mode
	Headless bool

	// CreatedAt is the timestamp when the session was created
	CreatedAt time.Time

	mu         sync.Mutex
	driver     Driver
	timeout    float64
	lastUsedAt time.Time
}

func newSession(name string, driver Driver, headless bool, timeout float64) *Session {
	now := time.Now()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Session{
		Name:       name,
		Headless:   headless,
		CreatedAt:  now,
		driver:     driver,
		timeout:    timeout,
		lastUsedAt: now,
	}
}

// LastUsedAt returns the time of the last operation on this session.
func (s *Session) LastUsedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsedAt
}

// CurrentURL returns the URL of the page.
func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.URL()
}

func (s *Session) touch() {
	s.lastUsedAt = time.Now()
}

// Navigate loads url and waits until waitUntil ("load" when empty).
func (s *Session) Navigate(url, waitUntil string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if waitUntil == "" {
		waitUntil = "load"
	}
	return s.driver.Goto(url, waitUntil, s.timeout)
}

// Back returns to the previous page in history.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.driver.GoBack()
}

// Click clicks the element matching selector.
func (s *Session) Click(selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.driver.Click(selector, s.timeout)
}

// Fill types value into the input matching selector.
func (s *Session) Fill(selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.driver.Fill(selector, value, s.timeout)
}

// Wait waits for the element matching selector to reach state.
func (s *Session) Wait(selector, state string, timeout float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if selector == "" {
		return fmt.Errorf("selector is required for wait")
	}
	if timeout <= 0 {
		timeout = s.timeout
	}
	return s.driver.WaitFor(selector, state, timeout)
}

// ExtractContent extracts page content in the given format, limited to
// maxLength characters of body text.
func (s *Session) ExtractContent(format ExtractFormat, selector string, maxLength int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if format == "" {
		format = FormatMarkdown
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	switch format {
	case FormatText:
		return s.extractText(selector, maxLength)
	case FormatMarkdown:
		text, err := s.extractText(selector, maxLength)
		if err != nil {
			return "", err
		}
		if title, err := s.driver.Title(); err == nil && title != "" {
			return fmt.Sprintf("# %s\n\n%s", title, text), nil
		}
		return text, nil
	case FormatStructured:
		return s.extractStructured(selector, maxLength)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func (s *Session) extractText(selector string, maxLength int) (string, error) {
	if selector == "" {
		selector = "body"
	}
	content, err := s.driver.TextContent(selector)
	if err != nil {
		return "", err
	}
	content = collapseWhitespace(content)
	return truncate(content, maxLength), nil
}

// extractStructured parses the page markup rather than querying element by
// element, so one round trip serves the whole result.
func (s *Session) extractStructured(selector string, maxLength int) (string, error) {
	raw, err := s.driver.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	structured, err := structureHTML(raw)
	if err != nil {
		return "", err
	}
	structured.URL = s.driver.URL()
	if selector != "" {
		if body, err := s.extractText(selector, maxLength); err == nil {
			structured.Body = body
		}
	}
	structured.Body = truncate(structured.Body, maxLength)

	out, err := json.MarshalIndent(structured, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode content: %w", err)
	}
	return string(out), nil
}

// Search finds case-insensitive occurrences of pattern in the page text.
func (s *Session) Search(pattern string, maxResults int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if pattern == "" {
		return nil, fmt.Errorf("pattern is required")
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	bodyText, err := s.driver.TextContent("body")
	if err != nil {
		return nil, fmt.Errorf("failed to get page text: %w", err)
	}
	bodyText = collapseWhitespace(bodyText)
	lower, needle := strings.ToLower(bodyText), strings.ToLower(pattern)
	if len(lower) != len(bodyText) || len(needle) != len(pattern) {
		// Case folding changed byte offsets; match exactly instead.
		lower, needle = bodyText, pattern
	}

	results := []SearchResult{}
	for index := 0; len(results) < maxResults; {
		pos := strings.Index(lower[index:], needle)
		if pos == -1 {
			break
		}
		start := index + pos
		end := start + len(needle)
		results = append(results, SearchResult{
			Text:    bodyText[start:end],
			Context: bodyText[max(0, start-50):min(len(bodyText), end+50)],
		})
		index = end
	}
	return results, nil
}

// Snapshot returns the cleaned markup of the current page.
func (s *Session) Snapshot(maxLength int) (*CleanedHTML, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if maxLength <= 0 {
		maxLength = DefaultSnapshotLength
	}
	raw, err := s.driver.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}
	cleaned, err := Clean(raw, maxLength)
	if err != nil {
		return nil, err
	}
	cleaned.URL = s.driver.URL()
	return cleaned, nil
}

// Evaluate runs a JavaScript expression in the page.
func (s *Session) Evaluate(expression string) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	result, err := s.driver.Evaluate(expression)
	if err != nil {
		return nil, fmt.Errorf("JavaScript execution failed: %w", err)
	}
	return result, nil
}

func (s *Session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Close()
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("\n\n[Content truncated: %d of %d characters shown]", maxLen, len(s))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title returns the page title.
func (s *Session) Title() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.Title()
}
