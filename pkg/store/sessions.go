package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
)

// sessionSelect derives transition_count from the transitions table so the
// count can never drift from the stored rows.
const sessionSelect = `SELECT s.id, s.project_id, s.start_time, s.end_time, s.user_goal, s.status, s.summary,
	(SELECT COUNT(*) FROM ui_state_transitions t WHERE t.session_id = s.id),
	s.created_at, s.updated_at
	FROM operation_sessions s`

// CreateSession inserts sess, stamping its timestamps.
func (s *Store) CreateSession(ctx context.Context, sess *graph.OperationSession) error {
	ts := now()
	sess.CreatedAt, sess.UpdatedAt = ts, ts
	if sess.StartTime.IsZero() {
		sess.StartTime = ts
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operation_sessions (id, project_id, start_time, end_time, user_goal, status, summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ProjectID, toMillis(sess.StartTime), nullMillis(sess.EndTime), nullString(sess.UserGoal),
		string(sess.Status), nullRaw(sess.Summary), toMillis(ts), toMillis(ts),
	)
	return translate(fmt.Sprintf("create session %q", sess.ID), err)
}

// UpdateSession writes every mutable column of sess and refreshes UpdatedAt.
func (s *Store) UpdateSession(ctx context.Context, sess *graph.OperationSession) error {
	op := fmt.Sprintf("update session %q", sess.ID)
	sess.UpdatedAt = now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE operation_sessions SET end_time = ?, user_goal = ?, status = ?, summary = ?, updated_at = ?
		WHERE id = ?`,
		nullMillis(sess.EndTime), nullString(sess.UserGoal), string(sess.Status), nullRaw(sess.Summary),
		toMillis(sess.UpdatedAt), sess.ID,
	)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(ctx context.Context, id string) (*graph.OperationSession, error) {
	row := s.db.QueryRowContext(ctx, sessionSelect+` WHERE s.id = ?`, id)
	sess, err := scanSession(row)
	if err != nil {
		return nil, translate(fmt.Sprintf("get session %q", id), err)
	}
	return sess, nil
}

// ListSessions returns the sessions of a project, newest first.
func (s *Store) ListSessions(ctx context.Context, projectID string) ([]*graph.OperationSession, error) {
	rows, err := s.db.QueryContext(ctx,
		sessionSelect+` WHERE s.project_id = ? ORDER BY s.created_at DESC, s.rowid DESC`, projectID)
	if err != nil {
		return nil, translate("list sessions", err)
	}
	defer rows.Close()

	out := []*graph.OperationSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, translate("scan session", err)
		}
		out = append(out, sess)
	}
	return out, translate("list sessions", rows.Err())
}

// DeleteSession removes a session and its transitions.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	op := fmt.Sprintf("delete session %q", id)
	res, err := s.db.ExecContext(ctx, `DELETE FROM operation_sessions WHERE id = ?`, id)
	if err != nil {
		return translate(op, err)
	}
	return affectOne(op, res)
}

func scanSession(sc scanner) (*graph.OperationSession, error) {
	var sess graph.OperationSession
	var start, created, updated int64
	var end sql.NullInt64
	var goal, summary sql.NullString
	var status string
	if err := sc.Scan(&sess.ID, &sess.ProjectID, &start, &end, &goal, &status, &summary,
		&sess.TransitionCount, &created, &updated); err != nil {
		return nil, err
	}
	sess.StartTime = fromMillis(start)
	if end.Valid {
		t := fromMillis(end.Int64)
		sess.EndTime = &t
	}
	sess.UserGoal = stringPtr(goal)
	sess.Status = graph.SessionStatus(status)
	if summary.Valid && summary.String != "" {
		if json.Valid([]byte(summary.String)) {
			sess.Summary = json.RawMessage(summary.String)
		} else {
			storeLogger.Warnf("session %s: summary is not valid JSON; dropping it", sess.ID)
		}
	}
	sess.CreatedAt, sess.UpdatedAt = fromMillis(created), fromMillis(updated)
	return &sess, nil
}

func nullRaw(raw []byte) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
