package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const edgeColumns = `id, project_id, from_ui_state_id, to_ui_state_id, description, triggered_by, trigger_type, created_at, updated_at`

// CreateEdge inserts e, stamping its timestamps.
func (s *Store) CreateEdge(ctx context.Context, e *graph.Edge) error {
	ts := now()
	e.CreatedAt, e.UpdatedAt = ts, ts
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.FromUIStateID, e.ToUIStateID, e.Description,
		nullString(e.TriggeredBy), nullString(e.TriggerType), toMillis(ts), toMillis(ts),
	)
	return translate(fmt.Sprintf("create edge %q", e.ID), err)
}

// UpdateEdge writes every mutable column of e and refreshes UpdatedAt.
func (s *Store) UpdateEdge(ctx context.Context, e *graph.Edge) error {
	op := fmt.Sprintf("update edge %q", e.ID)
	e.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE edges SET from_ui_state_id = ?, to_ui_state_id = ?, description = ?,
			triggered_by = ?, trigger_type = ?, updated_at = ?
		WHERE id = ?`,
		e.FromUIStateID, e.ToUIStateID, e.Description,
		nullString(e.TriggeredBy), nullString(e.TriggerType), toMillis(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

// GetEdge returns the edge with the given id.
func (s *Store) GetEdge(ctx context.Context, id string) (*graph.Edge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+edgeColumns+` FROM edges WHERE id = ?`, id)
	e, err := scanEdge(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get edge %q", id), err)
	}
	return e, nil
}

// FindEdge returns the edge of a project connecting from to to, ignoring the
// edge with id excludeID. It returns ErrNotFound when there is none.
func (s *Store) FindEdge(ctx context.Context, projectID, fromID, toID, excludeID string) (*graph.Edge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+edgeColumns+` FROM edges
		WHERE project_id = ? AND from_ui_state_id = ? AND to_ui_state_id = ? AND id <> ?`,
		projectID, fromID, toID, excludeID)
	e, err := scanEdge(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("find edge %q -> %q", fromID, toID), err)
	}
	return e, nil
}

// ListEdges returns the edges of a project, newest first.
func (s *Store) ListEdges(ctx context.Context, projectID string) ([]*graph.Edge, error) {
	return s.queryEdges(ctx, "list edges",
		`SELECT `+edgeColumns+` FROM edges WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID)
}

// ListEdgesFrom returns the edges leaving a UI state.
func (s *Store) ListEdgesFrom(ctx context.Context, uiStateID string) ([]*graph.Edge, error) {
	return s.queryEdges(ctx, "list outgoing edges",
		`SELECT `+edgeColumns+` FROM edges WHERE from_ui_state_id = ? ORDER BY created_at DESC, rowid DESC`,
		uiStateID)
}

// ListEdgesTo returns the edges entering a UI state.
func (s *Store) ListEdgesTo(ctx context.Context, uiStateID string) ([]*graph.Edge, error) {
	return s.queryEdges(ctx, "list incoming edges",
		`SELECT `+edgeColumns+` FROM edges WHERE to_ui_state_id = ? ORDER BY created_at DESC, rowid DESC`,
		uiStateID)
}

// DeleteEdge removes an edge.
func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete edge %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM edges WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func (s *Store) queryEdges(ctx context.Context, op, query string, args ...interface{}) ([]*graph.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out := []*graph.Edge{}
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, translate("scan edge", err)
		}
		out = append(out, e)
	}
	return out, translate(op, rows.Err())
}

func scanEdge(sc scanner) (*graph.Edge, error) {
	var e graph.Edge
	var triggeredBy, triggerType sql.NullString
	var created, updated int64
	if err := sc.Scan(&e.ID, &e.ProjectID, &e.FromUIStateID, &e.ToUIStateID, &e.Description,
		&triggeredBy, &triggerType, &created, &updated); err != nil {
		return nil, err
	}
	e.TriggeredBy, e.TriggerType = stringPtr(triggeredBy), stringPtr(triggerType)
	e.CreatedAt, e.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &e, nil
}
