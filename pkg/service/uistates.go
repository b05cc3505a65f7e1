package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

// CreateUiStateInput describes a new UI state.
type CreateUiStateInput struct {
	ProjectID   string
	PageURL     string
	Title       string
	Description string
	IsDefault   bool
	HTML        *string
}

// UiStatePatch carries the fields to change; nil fields are left untouched.
type UiStatePatch struct {
	Title       *string
	Description *string
	PageURL     *string
	IsDefault   *bool
	HTML        *string
}

// UiStateService manages UI states and the single-default rule per page.
type UiStateService struct {
	store *store.Store
}

// Create adds a UI state to an existing page of an existing project. When
// IsDefault is set, the page must not already have a default state.
func (s *UiStateService) Create(ctx context.Context, in CreateUiStateInput) (*graph.UiState, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, graph.BadRequest("ui state title is required")
	}
	if _, err := requireProject(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}
	page, err := s.store.GetPageByURL(ctx, in.ProjectID, in.PageURL)
	if err != nil {
		return nil, notFoundOr(err, "Page", in.PageURL)
	}
	if in.IsDefault {
		if err := s.ensureNoOtherDefault(ctx, in.ProjectID, in.PageURL, ""); err != nil {
			return nil, err
		}
	}

	st := &graph.UiState{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		PageID:      page.ID,
		PageURL:     page.URL,
		Title:       in.Title,
		Description: in.Description,
		IsDefault:   in.IsDefault,
		HTML:        in.HTML,
	}
	if err := s.store.CreateUiState(ctx, st); err != nil {
		return nil, constraintOr(err, defaultExistsReason(in.PageURL))
	}
	serviceLogger.Debugf("created ui state %s (%q) on %s default=%t", st.ID, st.Title, st.PageURL, st.IsDefault)
	return st, nil
}

// Update applies patch to an existing state. Moving the state to another page
// resolves that page first; becoming default re-checks the single-default
// rule against the effective page, excluding the state itself.
func (s *UiStateService) Update(ctx context.Context, id string, patch UiStatePatch) (*graph.UiState, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PageURL != nil && *patch.PageURL != st.PageURL {
		page, err := s.store.GetPageByURL(ctx, st.ProjectID, *patch.PageURL)
		if err != nil {
			return nil, notFoundOr(err, "Page", *patch.PageURL)
		}
		st.PageID, st.PageURL = page.ID, page.URL
	}
	if patch.Title != nil {
		st.Title = *patch.Title
	}
	if patch.Description != nil {
		st.Description = *patch.Description
	}
	if patch.HTML != nil {
		st.HTML = patch.HTML
	}
	if patch.IsDefault != nil {
		st.IsDefault = *patch.IsDefault
	}

	if st.IsDefault {
		if err := s.ensureNoOtherDefault(ctx, st.ProjectID, st.PageURL, st.ID); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpdateUiState(ctx, st); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, graph.NotFound("UiState", id)
		}
		return nil, constraintOr(err, defaultExistsReason(st.PageURL))
	}
	return st, nil
}

func (s *UiStateService) Get(ctx context.Context, id string) (*graph.UiState, error) {
	st, err := s.store.GetUiState(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "UiState", id)
	}
	return st, nil
}

// GetDefault returns the default state of a page, or nil when the page has
// none. Absence is not an error.
func (s *UiStateService) GetDefault(ctx context.Context, projectID, pageURL string) (*graph.UiState, error) {
	st, err := s.store.FindDefaultUiState(ctx, projectID, pageURL, "")
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

func (s *UiStateService) ListByProject(ctx context.Context, projectID string) ([]*graph.UiState, error) {
	return s.store.ListUiStates(ctx, projectID)
}

func (s *UiStateService) ListByPage(ctx context.Context, projectID, pageURL string) ([]*graph.UiState, error) {
	return s.store.ListUiStatesByPage(ctx, projectID, pageURL)
}

func (s *UiStateService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return notFoundOr(s.store.DeleteUiState(ctx, id), "UiState", id)
}

func (s *UiStateService) ensureNoOtherDefault(ctx context.Context, projectID, pageURL, excludeID string) error {
	existing, err := s.store.FindDefaultUiState(ctx, projectID, pageURL, excludeID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check default ui state: %w", err)
	default:
		return graph.BadRequest("%s (existing default %q, id %s)", defaultExistsReason(pageURL), existing.Title, existing.ID)
	}
}

func defaultExistsReason(pageURL string) string {
	return fmt.Sprintf("a default ui state already exists for page %s", pageURL)
}
