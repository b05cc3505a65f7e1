package config

import (
	"path/filepath"
	"sync"
)

// SectionIDStore is the identifier for the graph database section.
const SectionIDStore = "store"

const databaseFile = "graph.db"

// DatabaseSection locates the SQLite graph database.
type DatabaseSection struct {
	Path string
	mu   sync.RWMutex
}

// NewDatabaseSection creates the section; an empty path means
// ~/.uigraph/graph.db.
func NewDatabaseSection() *DatabaseSection {
	return &DatabaseSection{}
}

func (s *DatabaseSection) ID() string    { return SectionIDStore }
func (s *DatabaseSection) Title() string { return "Graph Store" }
func (s *DatabaseSection) Description() string {
	return "Location of the SQLite database holding the UI-state graph."
}
func (s *DatabaseSection) Validate() error { return nil }

func (s *DatabaseSection) Data() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]interface{}{"path": s.Path}
}

func (s *DatabaseSection) SetData(data map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := data["path"]; ok {
		path, err := stringValue("path", v)
		if err != nil {
			return err
		}
		s.Path = path
	}
	return nil
}

func (s *DatabaseSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Path = ""
}

// ResolvedPath returns the configured path or the default location.
func (s *DatabaseSection) ResolvedPath() (string, error) {
	s.mu.RLock()
	path := s.Path
	s.mu.RUnlock()

	if path != "" {
		return path, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, databaseFile), nil
}
