package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

// GraphExport is a complete dump of one project's graph.
type GraphExport struct {
	Project    *graph.Project   `json:"project"`
	Pages      []*graph.Page    `json:"pages"`
	UiStates   []*graph.UiState `json:"uiStates"`
	Edges      []*graph.Edge    `json:"edges"`
	Labels     []*graph.Label   `json:"labels"`
	ExportedAt time.Time        `json:"exportedAt"`
}

// Export reads every page, UI state, edge and label of a project. Stored
// markup is dropped unless withHTML is set.
func (s *Services) Export(ctx context.Context, projectID string, withHTML bool) (*GraphExport, error) {
	project, err := s.Projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := &GraphExport{Project: project, ExportedAt: time.Now().UTC()}
	if out.Pages, err = s.Pages.ListByProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to export pages: %w", err)
	}
	if out.UiStates, err = s.UiStates.ListByProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to export UI states: %w", err)
	}
	if out.Edges, err = s.Edges.ListByProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to export edges: %w", err)
	}
	if out.Labels, err = s.Labels.ListByProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("failed to export labels: %w", err)
	}

	if !withHTML {
		for _, st := range out.UiStates {
			st.HTML = nil
		}
	}
	return out, nil
}
