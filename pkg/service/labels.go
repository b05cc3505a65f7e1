package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

// CreateLabelInput describes a new label. URL may carry a query string; it is
// split off into QueryParams before storage.
type CreateLabelInput struct {
	ProjectID      string
	Name           string
	Description    string
	Selector       string
	XPath          *string
	ElementText    *string
	URL            string
	UIStateID      *string
	TriggerActions []graph.TriggerAction
}

// LabelService manages element labels.
type LabelService struct {
	store *store.Store
}

// Create stores a label. The owning project must exist; a referenced UI state
// must exist in the same project.
func (s *LabelService) Create(ctx context.Context, in CreateLabelInput) (*graph.Label, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Selector) == "" {
		return nil, graph.BadRequest("label name and selector are required")
	}
	if _, err := requireProject(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}
	if in.UIStateID != nil && *in.UIStateID != "" {
		st, err := s.store.GetUiState(ctx, *in.UIStateID)
		if err != nil {
			return nil, notFoundOr(err, "UiState", *in.UIStateID)
		}
		if st.ProjectID != in.ProjectID {
			return nil, graph.BadRequest("ui state %s belongs to another project", st.ID)
		}
	} else {
		in.UIStateID = nil
	}

	base, query := graph.SplitURL(in.URL)
	l := &graph.Label{
		ID:             uuid.NewString(),
		ProjectID:      in.ProjectID,
		Name:           in.Name,
		Description:    in.Description,
		Selector:       in.Selector,
		XPath:          in.XPath,
		ElementText:    in.ElementText,
		URL:            base,
		UIStateID:      in.UIStateID,
		TriggerActions: in.TriggerActions,
	}
	if query != "" {
		l.QueryParams = &query
	}
	if err := s.store.CreateLabel(ctx, l); err != nil {
		return nil, notFoundOr(err, "Project", in.ProjectID)
	}
	return l, nil
}

func (s *LabelService) Get(ctx context.Context, id string) (*graph.Label, error) {
	l, err := s.store.GetLabel(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Label", id)
	}
	return l, nil
}

func (s *LabelService) ListByProject(ctx context.Context, projectID string) ([]*graph.Label, error) {
	return s.store.ListLabels(ctx, projectID)
}

// ListByURL returns the labels recorded for url, ignoring its query string
// and fragment.
func (s *LabelService) ListByURL(ctx context.Context, projectID, url string) ([]*graph.Label, error) {
	base, _ := graph.SplitURL(url)
	return s.store.ListLabelsByURL(ctx, projectID, base)
}

func (s *LabelService) ListByUIState(ctx context.Context, uiStateID string) ([]*graph.Label, error) {
	return s.store.ListLabelsByUiState(ctx, uiStateID)
}

func (s *LabelService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return notFoundOr(s.store.DeleteLabel(ctx, id), "Label", id)
}
