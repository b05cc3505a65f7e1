package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

// Toolset exposes one browser session to an agent as tools. The session is
// started on first use and every navigation is held to the scope.
type Toolset struct {
	manager *SessionManager
	name    string
	opts    SessionOptions
	scope   *Scope

	mu      sync.Mutex
	session *Session
}

// NewToolset binds the browser tools to the session called name.
func NewToolset(manager *SessionManager, name string, opts SessionOptions, scope *Scope) *Toolset {
	return &Toolset{manager: manager, name: name, opts: opts, scope: scope}
}

// Tools returns the browser tools.
func (t *Toolset) Tools(context.Context) ([]tools.Tool, error) {
	return []tools.Tool{
		&navigateTool{t},
		&clickTool{t},
		&fillTool{t},
		&waitTool{t},
		&extractContentTool{t},
		&searchTool{t},
		&snapshotTool{t},
		&evaluateTool{t},
	}, nil
}

// Session returns the bound session, reusing an open one with the same name
// or starting it.
func (t *Toolset) Session() (*Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session != nil {
		return t.session, nil
	}
	if s, err := t.manager.GetSession(t.name); err == nil {
		t.session = s
		return s, nil
	}
	s, err := t.manager.StartSession(t.name, t.opts)
	if err != nil {
		return nil, err
	}
	t.session = s
	return s, nil
}

// Scope returns the navigation scope.
func (t *Toolset) Scope() *Scope {
	return t.scope
}

// Close closes the session if this toolset holds one.
func (t *Toolset) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil {
		return nil
	}
	t.session = nil
	return t.manager.CloseSession(t.name)
}

// guardNavigation returns to the previous page when an action left the
// scope.
func (t *Toolset) guardNavigation(s *Session) error {
	current := s.CurrentURL()
	if t.scope.Allows(current) {
		return nil
	}
	if err := s.Back(); err != nil {
		return fmt.Errorf("%w; going back failed: %v", t.scope.Check(current), err)
	}
	return fmt.Errorf("%w; returned to %s", t.scope.Check(current), s.CurrentURL())
}

func encodeResult(v interface{}) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(out), nil
}

// pageResult is returned by the tools that act on the page.
type pageResult struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

func currentPage(s *Session) pageResult {
	title, _ := s.Title()
	return pageResult{URL: s.CurrentURL(), Title: title}
}
