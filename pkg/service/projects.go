package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

// ProjectService manages project roots.
type ProjectService struct {
	store *store.Store
}

// Create registers a project for a canonical URL. The name defaults to the
// URL's host.
func (s *ProjectService) Create(ctx context.Context, name, url string) (*graph.Project, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, graph.BadRequest("project url is required")
	}
	if name == "" {
		name = hostOf(url)
	}
	p := &graph.Project{ID: uuid.NewString(), Name: name, URL: url}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*graph.Project, error) {
	return requireProject(ctx, s.store, id)
}

func (s *ProjectService) List(ctx context.Context) ([]*graph.Project, error) {
	return s.store.ListProjects(ctx)
}

// Remove deletes a project together with everything it owns.
func (s *ProjectService) Remove(ctx context.Context, id string) error {
	if _, err := requireProject(ctx, s.store, id); err != nil {
		return err
	}
	return notFoundOr(s.store.DeleteProject(ctx, id), "Project", id)
}

func hostOf(raw string) string {
	s := raw
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return raw
	}
	return s
}
