package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const uiStateColumns = `id, project_id, page_id, page_url, title, description, is_default, html, created_at, updated_at`

// CreateUiState inserts st, stamping its timestamps. A second default state
// for the same page violates idx_ui_states_single_default.
func (s *Store) CreateUiState(ctx context.Context, st *graph.UiState) error {
	ts := now()
	st.CreatedAt, st.UpdatedAt = ts, ts
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ui_states (`+uiStateColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.ProjectID, st.PageID, st.PageURL, st.Title, st.Description,
		boolToInt(st.IsDefault), nullString(st.HTML), toMillis(ts), toMillis(ts),
	)
	return translate(fmt.Sprintf("create ui state %q", st.ID), err)
}

// UpdateUiState writes every mutable column of st and refreshes UpdatedAt.
func (s *Store) UpdateUiState(ctx context.Context, st *graph.UiState) error {
	op := fmt.Sprintf("update ui state %q", st.ID)
	st.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE ui_states SET page_id = ?, page_url = ?, title = ?, description = ?,
			is_default = ?, html = ?, updated_at = ?
		WHERE id = ?`,
		st.PageID, st.PageURL, st.Title, st.Description,
		boolToInt(st.IsDefault), nullString(st.HTML), toMillis(st.UpdatedAt), st.ID,
	)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

// GetUiState returns the UI state with the given id.
func (s *Store) GetUiState(ctx context.Context, id string) (*graph.UiState, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uiStateColumns+` FROM ui_states WHERE id = ?`, id)
	st, err := scanUiState(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get ui state %q", id), err)
	}
	return st, nil
}

// ListUiStates returns the UI states of a project, newest first.
func (s *Store) ListUiStates(ctx context.Context, projectID string) ([]*graph.UiState, error) {
	return s.queryUiStates(ctx, "list ui states",
		`SELECT `+uiStateColumns+` FROM ui_states WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID)
}

// ListUiStatesByPage returns the UI states registered for a page URL.
func (s *Store) ListUiStatesByPage(ctx context.Context, projectID, pageURL string) ([]*graph.UiState, error) {
	return s.queryUiStates(ctx, "list ui states by page",
		`SELECT `+uiStateColumns+` FROM ui_states WHERE project_id = ? AND page_url = ?
		ORDER BY created_at DESC, rowid DESC`,
		projectID, pageURL)
}

// FindDefaultUiState returns the default state for a page, ignoring the state
// with id excludeID. It returns ErrNotFound when there is none.
func (s *Store) FindDefaultUiState(ctx context.Context, projectID, pageURL, excludeID string) (*graph.UiState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+uiStateColumns+` FROM ui_states
		WHERE project_id = ? AND page_url = ? AND is_default = 1 AND id <> ?
		LIMIT 1`,
		projectID, pageURL, excludeID)
	st, err := scanUiState(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("find default ui state for %q", pageURL), err)
	}
	return st, nil
}

// DeleteUiState removes a UI state and the edges that touch it.
func (s *Store) DeleteUiState(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete ui state %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM ui_states WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func (s *Store) queryUiStates(ctx context.Context, op, query string, args ...interface{}) ([]*graph.UiState, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out := []*graph.UiState{}
	for rows.Next() {
		st, err := scanUiState(rows)
		if err != nil {
			return nil, translate("scan ui state", err)
		}
		out = append(out, st)
	}
	return out, translate(op, rows.Err())
}

func scanUiState(sc scanner) (*graph.UiState, error) {
	var st graph.UiState
	var isDefault int
	var html sql.NullString
	var created, updated int64
	if err := sc.Scan(&st.ID, &st.ProjectID, &st.PageID, &st.PageURL, &st.Title, &st.Description,
		&isDefault, &html, &created, &updated); err != nil {
		return nil, err
	}
	st.IsDefault = isDefault == 1
	st.HTML = stringPtr(html)
	st.CreatedAt, st.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &st, nil
}
