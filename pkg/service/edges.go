package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

// CreateEdgeInput describes a new edge.
type CreateEdgeInput struct {
	ProjectID     string
	FromUIStateID string
	ToUIStateID   string
	Description   string
	TriggeredBy   *string
	TriggerType   *string
}

// EdgePatch carries the fields to change; nil fields are left untouched.
type EdgePatch struct {
	FromUIStateID *string
	ToUIStateID   *string
	Description   *string
	TriggeredBy   *string
	TriggerType   *string
}

// EdgeService manages transitions between UI states.
type EdgeService struct {
	store *store.Store
}

// Create adds an edge. Both endpoints must exist and belong to the edge's
// project, and the (project, from, to) triple must be new.
func (s *EdgeService) Create(ctx context.Context, in CreateEdgeInput) (*graph.Edge, error) {
	if _, err := requireProject(ctx, s.store, in.ProjectID); err != nil {
		return nil, err
	}
	if err := s.checkEndpoint(ctx, in.ProjectID, in.FromUIStateID, "from"); err != nil {
		return nil, err
	}
	if err := s.checkEndpoint(ctx, in.ProjectID, in.ToUIStateID, "to"); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, in.ProjectID, in.FromUIStateID, in.ToUIStateID, ""); err != nil {
		return nil, err
	}

	e := &graph.Edge{
		ID:            uuid.NewString(),
		ProjectID:     in.ProjectID,
		FromUIStateID: in.FromUIStateID,
		ToUIStateID:   in.ToUIStateID,
		Description:   in.Description,
		TriggeredBy:   in.TriggeredBy,
		TriggerType:   in.TriggerType,
	}
	if err := s.store.CreateEdge(ctx, e); err != nil {
		return nil, constraintOr(err, duplicateEdgeReason(e.FromUIStateID, e.ToUIStateID))
	}
	return e, nil
}

// Update applies patch to an existing edge, validating every endpoint the
// patch names and rejecting a pair that another edge already holds.
func (s *EdgeService) Update(ctx context.Context, id string, patch EdgePatch) (*graph.Edge, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.FromUIStateID != nil {
		if err := s.checkEndpoint(ctx, e.ProjectID, *patch.FromUIStateID, "from"); err != nil {
			return nil, err
		}
		e.FromUIStateID = *patch.FromUIStateID
	}
	if patch.ToUIStateID != nil {
		if err := s.checkEndpoint(ctx, e.ProjectID, *patch.ToUIStateID, "to"); err != nil {
			return nil, err
		}
		e.ToUIStateID = *patch.ToUIStateID
	}
	if patch.FromUIStateID != nil || patch.ToUIStateID != nil {
		if err := s.ensureUnique(ctx, e.ProjectID, e.FromUIStateID, e.ToUIStateID, e.ID); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.TriggeredBy != nil {
		e.TriggeredBy = patch.TriggeredBy
	}
	if patch.TriggerType != nil {
		e.TriggerType = patch.TriggerType
	}

	if err := s.store.UpdateEdge(ctx, e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, graph.NotFound("Edge", id)
		}
		return nil, constraintOr(err, duplicateEdgeReason(e.FromUIStateID, e.ToUIStateID))
	}
	return e, nil
}

func (s *EdgeService) Get(ctx context.Context, id string) (*graph.Edge, error) {
	e, err := s.store.GetEdge(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Edge", id)
	}
	return e, nil
}

func (s *EdgeService) ListByProject(ctx context.Context, projectID string) ([]*graph.Edge, error) {
	return s.store.ListEdges(ctx, projectID)
}

// FindByUIState returns the edges leaving and entering a state. A self-loop
// appears in both lists.
func (s *EdgeService) FindByUIState(ctx context.Context, uiStateID string) (*graph.EdgeSet, error) {
	outgoing, err := s.store.ListEdgesFrom(ctx, uiStateID)
	if err != nil {
		return nil, err
	}
	incoming, err := s.store.ListEdgesTo(ctx, uiStateID)
	if err != nil {
		return nil, err
	}
	return &graph.EdgeSet{Outgoing: outgoing, Incoming: incoming}, nil
}

func (s *EdgeService) Remove(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return notFoundOr(s.store.DeleteEdge(ctx, id), "Edge", id)
}

func (s *EdgeService) checkEndpoint(ctx context.Context, projectID, uiStateID, side string) error {
	st, err := s.store.GetUiState(ctx, uiStateID)
	if err != nil {
		return notFoundOr(err, "UiState", uiStateID)
	}
	if st.ProjectID != projectID {
		return graph.BadRequest("%s ui state %s belongs to project %s, not %s", side, uiStateID, st.ProjectID, projectID)
	}
	return nil
}

func (s *EdgeService) ensureUnique(ctx context.Context, projectID, fromID, toID, excludeID string) error {
	existing, err := s.store.FindEdge(ctx, projectID, fromID, toID, excludeID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check duplicate edge: %w", err)
	default:
		return graph.BadRequest("%s (edge %s)", duplicateEdgeReason(fromID, toID), existing.ID)
	}
}

func duplicateEdgeReason(fromID, toID string) string {
	return fmt.Sprintf("an edge from %s to %s already exists", fromID, toID)
}
