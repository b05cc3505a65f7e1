package browser

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"
)

// Scope restricts navigation to URLs matching at least one glob pattern.
// Patterns match the URL without query and fragment, with '/' as separator,
// e.g. "https://shop.example.com/**". An empty scope allows everything.
type Scope struct {
	patterns []string
	globs    []glob.Glob
}

// NewScope compiles the patterns.
func NewScope(patterns ...string) (*Scope, error) {
	s := &Scope{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid scope pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, p)
		s.globs = append(s.globs, g)
	}
	return s, nil
}

// ScopeForOrigin allows every path under the scheme and host of rawURL.
func ScopeForOrigin(rawURL string) (*Scope, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid origin URL %q", rawURL)
	}
	origin := u.Scheme + "://" + u.Host
	return NewScope(origin, origin+"/**")
}

// Allows reports whether rawURL is inside the scope.
func (s *Scope) Allows(rawURL string) bool {
	if s == nil || len(s.globs) == 0 {
		return true
	}
	if strings.HasPrefix(rawURL, "about:") {
		return true
	}
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		target = u.String()
	}
	for _, g := range s.globs {
		if g.Match(target) {
			return true
		}
	}
	return false
}

// Patterns returns the configured patterns.
func (s *Scope) Patterns() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.patterns...)
}

// Check returns an error naming the scope when rawURL is outside it.
func (s *Scope) Check(rawURL string) error {
	if s.Allows(rawURL) {
		return nil
	}
	return fmt.Errorf("%s is outside the exploration scope (%s)", rawURL, strings.Join(s.patterns, ", "))
}
