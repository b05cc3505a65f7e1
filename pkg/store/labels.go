package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const labelColumns = `id, project_id, name, description, selector, xpath, element_text, url, query_params, ui_state_id, trigger_actions, created_at, updated_at`

// CreateLabel inserts l, encoding its trigger actions.
func (s *Store) CreateLabel(ctx context.Context, l *graph.Label) error {
	op := fmt.Sprintf("create label %q", l.ID)
	actions, err := graph.EncodeTriggerActions(l.TriggerActions)
	if err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	ts := now()
	l.CreatedAt, l.UpdatedAt = ts, ts
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO labels (`+labelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProjectID, l.Name, l.Description, l.Selector,
		nullString(l.XPath), nullString(l.ElementText), l.URL, nullString(l.QueryParams),
		nullString(l.UIStateID), nullString(actions), toMillis(ts), toMillis(ts),
	)
	return translate(op, err)
}

// GetLabel returns the label with the given id.
func (s *Store) GetLabel(ctx context.Context, id string) (*graph.Label, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+labelColumns+` FROM labels WHERE id = ?`, id)
	l, err := scanLabel(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get label %q", id), err)
	}
	return l, nil
}

// ListLabels returns the labels of a project, newest first.
func (s *Store) ListLabels(ctx context.Context, projectID string) ([]*graph.Label, error) {
	return s.queryLabels(ctx, "list labels",
		`SELECT `+labelColumns+` FROM labels WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID)
}

// ListLabelsByURL returns the labels stored for an exact base URL.
func (s *Store) ListLabelsByURL(ctx context.Context, projectID, baseURL string) ([]*graph.Label, error) {
	return s.queryLabels(ctx, "list labels by url",
		`SELECT `+labelColumns+` FROM labels WHERE project_id = ? AND url = ? ORDER BY created_at DESC, rowid DESC`,
		projectID, baseURL)
}

// ListLabelsByUiState returns the labels attached to a UI state.
func (s *Store) ListLabelsByUiState(ctx context.Context, uiStateID string) ([]*graph.Label, error) {
	return s.queryLabels(ctx, "list labels by ui state",
		`SELECT `+labelColumns+` FROM labels WHERE ui_state_id = ? ORDER BY created_at DESC, rowid DESC`,
		uiStateID)
}

// DeleteLabel removes a label.
func (s *Store) DeleteLabel(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete label %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func (s *Store) queryLabels(ctx context.Context, op, query string, args ...interface{}) ([]*graph.Label, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out := []*graph.Label{}
	for rows.Next() {
		l, err := scanLabel(rows)
		if err != nil {
			return nil, translate("scan label", err)
		}
		out = append(out, l)
	}
	return out, translate(op, rows.Err())
}

// scanLabel decodes trigger actions leniently: a corrupt payload is logged
// and the label is returned without actions.
func scanLabel(sc scanner) (*graph.Label, error) {
	var l graph.Label
	var xpath, elementText, queryParams, uiStateID, actions sql.NullString
	var created, updated int64
	if err := sc.Scan(&l.ID, &l.ProjectID, &l.Name, &l.Description, &l.Selector,
		&xpath, &elementText, &l.URL, &queryParams, &uiStateID, &actions, &created, &updated); err != nil {
		return nil, err
	}
	l.XPath, l.ElementText = stringPtr(xpath), stringPtr(elementText)
	l.QueryParams, l.UIStateID = stringPtr(queryParams), stringPtr(uiStateID)
	l.CreatedAt, l.UpdatedAt = fromMillis(created), fromMillis(updated)

	decoded, err := graph.DecodeTriggerActions(stringPtr(actions))
	if err != nil {
		storeLogger.Warnf("label %s: %v; returning it without trigger actions", l.ID, err)
		decoded = nil
	}
	l.TriggerActions = decoded
	return &l, nil
}
