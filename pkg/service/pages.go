package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

// PageService manages the pages of a project.
type PageService struct {
	store *store.Store
}

// Upsert saves a page. Saving an existing URL is not an error: the stored
// page is returned, with its title replaced only when title is non-empty.
func (s *PageService) Upsert(ctx context.Context, projectID, url, title string) (*graph.Page, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, graph.BadRequest("page url is required")
	}
	if _, err := requireProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	page, err := s.store.UpsertPage(ctx, &graph.Page{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		URL:       url,
		Title:     strings.TrimSpace(title),
	})
	if err != nil {
		return nil, notFoundOr(err, "Project", projectID)
	}
	return page, nil
}

func (s *PageService) Get(ctx context.Context, id string) (*graph.Page, error) {
	p, err := s.store.GetPage(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Page", id)
	}
	return p, nil
}

// GetByURL returns the page registered for url, or NotFound.
func (s *PageService) GetByURL(ctx context.Context, projectID, url string) (*graph.Page, error) {
	p, err := s.store.GetPageByURL(ctx, projectID, url)
	if err != nil {
		return nil, notFoundOr(err, "Page", url)
	}
	return p, nil
}

func (s *PageService) ListByProject(ctx context.Context, projectID string) ([]*graph.Page, error) {
	return s.store.ListPages(ctx, projectID)
}

func (s *PageService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return notFoundOr(s.store.DeletePage(ctx, id), "Page", id)
}
