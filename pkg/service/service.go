// Package service enforces the UI-state graph invariants on top of the store.
//
// Every mutating operation checks its preconditions first so callers get a
// precise NotFound or BadRequest. The store's unique indexes back each check;
// a constraint violation that slips past a check under concurrent writers is
// translated into the same BadRequest.
package service

import (
	"context"
	"errors"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

var serviceLogger *logging.Logger

func init() {
	serviceLogger, _ = logging.NewLogger("service")
}

// Services bundles the per-entity services sharing one store.
type Services struct {
	Projects *ProjectService
	Pages    *PageService
	UiStates *UiStateService
	Edges    *EdgeService
	Labels   *LabelService
}

// New wires every graph service to st.
func New(st *store.Store) *Services {
	return &Services{
		Projects: &ProjectService{store: st},
		Pages:    &PageService{store: st},
		UiStates: &UiStateService{store: st},
		Edges:    &EdgeService{store: st},
		Labels:   &LabelService{store: st},
	}
}

// requireProject returns NotFound unless the project exists.
func requireProject(ctx context.Context, st *store.Store, projectID string) (*graph.Project, error) {
	p, err := st.GetProject(ctx, projectID)
	if err != nil {
		return nil, notFoundOr(err, "Project", projectID)
	}
	return p, nil
}

// notFoundOr converts store.ErrNotFound into a graph NotFoundError and passes
// every other error through.
func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return graph.NotFound(entity, id)
	}
	return err
}

// constraintOr converts store.ErrConstraint into a BadRequest with reason.
func constraintOr(err error, reason string) error {
	if errors.Is(err, store.ErrConstraint) {
		serviceLogger.Warnf("store constraint caught after service check passed: %v", err)
		return graph.BadRequest("%s", reason)
	}
	return err
}
