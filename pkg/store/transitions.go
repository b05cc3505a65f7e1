package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

const transitionColumns = `id, session_id, project_id, from_ui_state_id, to_ui_state_id, trigger_action, trigger_timestamp, before_state, after_state, metadata, created_at`

const insertTransition = `INSERT INTO ui_state_transitions (` + transitionColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// CreateTransition inserts a single transition.
func (s *Store) CreateTransition(ctx context.Context, t *graph.UIStateTransition) error {
	op := fmt.Sprintf("create transition %q", t.ID)
	args, err := transitionArgs(t)
	if err != nil {
		return fmt.Errorf("store: %s: %w", op, err)
	}
	_, err = s.db.ExecContext(ctx, insertTransition, args...)
	return translate(op, err)
}

// CreateTransitions inserts a batch in one transaction. Rows that collide with
// an already recorded step (same session, endpoints and trigger timestamp)
// are skipped. The number of rows actually inserted is returned.
func (s *Store) CreateTransitions(ctx context.Context, batch []*graph.UIStateTransition) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, translate("begin transition batch", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertTransition+` ON CONFLICT DO NOTHING`)
	if err != nil {
		return 0, translate("prepare transition batch", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, t := range batch {
		args, err := transitionArgs(t)
		if err != nil {
			return 0, fmt.Errorf("store: transition %q: %w", t.ID, err)
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, translate(fmt.Sprintf("insert transition %q", t.ID), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("store: insert transition %q: %w", t.ID, err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, translate("commit transition batch", err)
	}
	return inserted, nil
}

// GetTransition returns the transition with the given id.
func (s *Store) GetTransition(ctx context.Context, id string) (*graph.UIStateTransition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transitionColumns+` FROM ui_state_transitions WHERE id = ?`, id)
	t, err := scanTransition(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get transition %q", id), err)
	}
	return t, nil
}

// ListTransitionsBySession returns the transitions of a session in recording
// order.
func (s *Store) ListTransitionsBySession(ctx context.Context, sessionID string) ([]*graph.UIStateTransition, error) {
	return s.queryTransitions(ctx, "list transitions by session",
		`SELECT `+transitionColumns+` FROM ui_state_transitions WHERE session_id = ?
		ORDER BY trigger_timestamp ASC, rowid ASC`,
		sessionID)
}

// ListTransitionsByProject returns the transitions of a project, newest first.
func (s *Store) ListTransitionsByProject(ctx context.Context, projectID string) ([]*graph.UIStateTransition, error) {
	return s.queryTransitions(ctx, "list transitions by project",
		`SELECT `+transitionColumns+` FROM ui_state_transitions WHERE project_id = ?
		ORDER BY created_at DESC, rowid DESC`,
		projectID)
}

// ListTransitionsWithStates returns the transitions of a session joined with
// the titles of their endpoint states.
func (s *Store) ListTransitionsWithStates(ctx context.Context, sessionID string) ([]*graph.TransitionWithStates, error) {
	const q = `SELECT t.id, t.session_id, t.project_id, t.from_ui_state_id, t.to_ui_state_id,
		t.trigger_action, t.trigger_timestamp, t.before_state, t.after_state, t.metadata, t.created_at,
		f.title, d.title
		FROM ui_state_transitions t
		LEFT JOIN ui_states f ON f.id = t.from_ui_state_id
		JOIN ui_states d ON d.id = t.to_ui_state_id
		WHERE t.session_id = ?
		ORDER BY t.trigger_timestamp ASC, t.rowid ASC`

	rows, err := s.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, translate("list transitions with states", err)
	}
	defer rows.Close()

	out := []*graph.TransitionWithStates{}
	for rows.Next() {
		var fromTitle sql.NullString
		var toTitle string
		t, err := scanTransition(rows, &fromTitle, &toTitle)
		if err != nil {
			return nil, translate("scan transition", err)
		}
		out = append(out, &graph.TransitionWithStates{
			UIStateTransition: *t,
			FromUIStateTitle:  stringPtr(fromTitle),
			ToUIStateTitle:    toTitle,
		})
	}
	return out, translate("list transitions with states", rows.Err())
}

// DeleteTransition removes a transition.
func (s *Store) DeleteTransition(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete transition %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM ui_state_transitions WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func (s *Store) queryTransitions(ctx context.Context, op, query string, args ...interface{}) ([]*graph.UIStateTransition, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(op, err)
	}
	defer rows.Close()

	out := []*graph.UIStateTransition{}
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, translate("scan transition", err)
		}
		out = append(out, t)
	}
	return out, translate(op, rows.Err())
}

func transitionArgs(t *graph.UIStateTransition) ([]interface{}, error) {
	action, err := json.Marshal(t.TriggerAction)
	if err != nil {
		return nil, fmt.Errorf("encode trigger action: %w", err)
	}
	before, err := json.Marshal(t.BeforeState)
	if err != nil {
		return nil, fmt.Errorf("encode before state: %w", err)
	}
	after, err := json.Marshal(t.AfterState)
	if err != nil {
		return nil, fmt.Errorf("encode after state: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	return []interface{}{
		t.ID, t.SessionID, t.ProjectID, nullString(t.FromUIStateID), t.ToUIStateID,
		string(action), t.TriggerAction.Timestamp, string(before), string(after),
		nullRaw(t.Metadata), toMillis(t.CreatedAt),
	}, nil
}

// scanTransition reads the transition columns followed by any extra
// destinations the caller selected.
func scanTransition(sc scanner, extra ...interface{}) (*graph.UIStateTransition, error) {
	var t graph.UIStateTransition
	var from, metadata sql.NullString
	var action, before, after string
	var triggerTS, created int64
	dest := []interface{}{&t.ID, &t.SessionID, &t.ProjectID, &from, &t.ToUIStateID,
		&action, &triggerTS, &before, &after, &metadata, &created}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.FromUIStateID = stringPtr(from)
	t.CreatedAt = fromMillis(created)

	if err := json.Unmarshal([]byte(action), &t.TriggerAction); err != nil {
		storeLogger.Warnf("transition %s: %v; trigger action left empty", t.ID, err)
	}
	t.TriggerAction.Timestamp = triggerTS
	if err := json.Unmarshal([]byte(before), &t.BeforeState); err != nil {
		storeLogger.Warnf("transition %s: before state: %v", t.ID, err)
	}
	if err := json.Unmarshal([]byte(after), &t.AfterState); err != nil {
		storeLogger.Warnf("transition %s: after state: %v", t.ID, err)
	}
	if metadata.Valid && json.Valid([]byte(metadata.String)) {
		t.Metadata = json.RawMessage(metadata.String)
	}
	return &t, nil
}
