// Package recorder stores operation sessions and the UI-state transitions
// captured while a user (or a browser extension on their behalf) drives the
// target site.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

var recorderLogger *logging.Logger

func init() {
	recorderLogger, _ = logging.NewLogger("recorder")
}

// CreateSessionInput starts a session.
type CreateSessionInput struct {
	ProjectID string
	UserGoal  *string
	StartTime time.Time
}

// SessionPatch changes an active session; nil fields are left untouched.
type SessionPatch struct {
	UserGoal *string
	Summary  json.RawMessage
}

// TransitionInput is one recorded step.
type TransitionInput struct {
	SessionID     string
	ProjectID     string
	FromUIStateID *string
	ToUIStateID   string
	TriggerAction graph.RecordedAction
	BeforeState   graph.DOMSnapshot
	AfterState    graph.DOMSnapshot
	Metadata      json.RawMessage
}

// Recorder manages sessions and transitions.
type Recorder struct {
	store *store.Store
	now   func() time.Time
}

// New returns a Recorder writing to st.
func New(st *store.Store) *Recorder {
	return &Recorder{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// CreateSession opens an active session for an existing project.
func (r *Recorder) CreateSession(ctx context.Context, in CreateSessionInput) (*graph.OperationSession, error) {
	if _, err := r.store.GetProject(ctx, in.ProjectID); err != nil {
		return nil, notFoundOr(err, "Project", in.ProjectID)
	}
	start := in.StartTime
	if start.IsZero() {
		start = r.now()
	}
	sess := &graph.OperationSession{
		ID:        uuid.NewString(),
		ProjectID: in.ProjectID,
		StartTime: start,
		UserGoal:  in.UserGoal,
		Status:    graph.SessionActive,
	}
	if err := r.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	recorderLogger.Infof("session %s started for project %s", sess.ID, sess.ProjectID)
	return sess, nil
}

// GetSession returns a session with its current transition count.
func (r *Recorder) GetSession(ctx context.Context, id string) (*graph.OperationSession, error) {
	sess, err := r.store.GetSession(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "OperationSession", id)
	}
	return sess, nil
}

func (r *Recorder) ListSessions(ctx context.Context, projectID string) ([]*graph.OperationSession, error) {
	return r.store.ListSessions(ctx, projectID)
}

// UpdateSession changes the goal or summary of an active session.
func (r *Recorder) UpdateSession(ctx context.Context, id string, patch SessionPatch) (*graph.OperationSession, error) {
	sess, err := r.activeSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.UserGoal != nil {
		sess.UserGoal = patch.UserGoal
	}
	if patch.Summary != nil {
		if !json.Valid(patch.Summary) {
			return nil, graph.BadRequest("session summary must be valid JSON")
		}
		sess.Summary = patch.Summary
	}
	if err := r.store.UpdateSession(ctx, sess); err != nil {
		return nil, notFoundOr(err, "OperationSession", id)
	}
	return sess, nil
}

// EndSession marks an active session completed with an optional summary.
func (r *Recorder) EndSession(ctx context.Context, id string, summary json.RawMessage) (*graph.OperationSession, error) {
	if summary != nil && !json.Valid(summary) {
		return nil, graph.BadRequest("session summary must be valid JSON")
	}
	return r.finish(ctx, id, graph.SessionCompleted, summary)
}

// AbandonSession marks an active session abandoned.
func (r *Recorder) AbandonSession(ctx context.Context, id string) (*graph.OperationSession, error) {
	return r.finish(ctx, id, graph.SessionAbandoned, nil)
}

func (r *Recorder) finish(ctx context.Context, id string, status graph.SessionStatus, summary json.RawMessage) (*graph.OperationSession, error) {
	sess, err := r.activeSession(ctx, id)
	if err != nil {
		return nil, err
	}
	end := r.now()
	sess.Status = status
	sess.EndTime = &end
	if summary != nil {
		sess.Summary = summary
	}
	if err := r.store.UpdateSession(ctx, sess); err != nil {
		return nil, notFoundOr(err, "OperationSession", id)
	}
	recorderLogger.Infof("session %s %s with %d transitions", sess.ID, status, sess.TransitionCount)
	return sess, nil
}

func (r *Recorder) RemoveSession(ctx context.Context, id string) error {
	if _, err := r.GetSession(ctx, id); err != nil {
		return err
	}
	return notFoundOr(r.store.DeleteSession(ctx, id), "OperationSession", id)
}

// RecordTransition stores one step after checking that the session, project
// and referenced UI states exist and all belong to the session's project.
func (r *Recorder) RecordTransition(ctx context.Context, in TransitionInput) (*graph.UIStateTransition, error) {
	sess, err := r.GetSession(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if _, err := r.store.GetProject(ctx, in.ProjectID); err != nil {
		return nil, notFoundOr(err, "Project", in.ProjectID)
	}
	if sess.ProjectID != in.ProjectID {
		return nil, graph.BadRequest("session %s belongs to project %s, not %s", sess.ID, sess.ProjectID, in.ProjectID)
	}
	if err := r.checkState(ctx, in.ToUIStateID, sess.ProjectID); err != nil {
		return nil, err
	}
	if in.FromUIStateID != nil {
		if err := r.checkState(ctx, *in.FromUIStateID, sess.ProjectID); err != nil {
			return nil, err
		}
	}

	t := r.newTransition(in)
	if err := r.store.CreateTransition(ctx, t); err != nil {
		if errors.Is(err, store.ErrConstraint) {
			return nil, graph.BadRequest("transition already recorded for session %s at %d", in.SessionID, in.TriggerAction.Timestamp)
		}
		return nil, fmt.Errorf("failed to record transition: %w", err)
	}
	return t, nil
}

func (r *Recorder) checkState(ctx context.Context, id, projectID string) error {
	st, err := r.store.GetUiState(ctx, id)
	if err != nil {
		return notFoundOr(err, "UiState", id)
	}
	if st.ProjectID != projectID {
		return graph.BadRequest("ui state %s belongs to another project", id)
	}
	return nil
}

// RecordBatch stores many steps relying on store constraints only. Steps that
// duplicate an already recorded one are skipped; the number inserted is
// returned.
func (r *Recorder) RecordBatch(ctx context.Context, batch []TransitionInput) (int, error) {
	rows := make([]*graph.UIStateTransition, 0, len(batch))
	for _, in := range batch {
		rows = append(rows, r.newTransition(in))
	}
	n, err := r.store.CreateTransitions(ctx, rows)
	if err != nil {
		if errors.Is(err, store.ErrConstraint) {
			return 0, graph.BadRequest("transition batch references unknown session, project or ui state: %v", err)
		}
		return 0, fmt.Errorf("failed to record transition batch: %w", err)
	}
	if skipped := len(batch) - n; skipped > 0 {
		recorderLogger.Debugf("batch of %d transitions: %d duplicates skipped", len(batch), skipped)
	}
	return n, nil
}

func (r *Recorder) ListTransitionsBySession(ctx context.Context, sessionID string) ([]*graph.UIStateTransition, error) {
	return r.store.ListTransitionsBySession(ctx, sessionID)
}

func (r *Recorder) ListTransitionsByProject(ctx context.Context, projectID string) ([]*graph.UIStateTransition, error) {
	return r.store.ListTransitionsByProject(ctx, projectID)
}

// ListTransitionsWithStates returns a session's steps with endpoint titles.
func (r *Recorder) ListTransitionsWithStates(ctx context.Context, sessionID string) ([]*graph.TransitionWithStates, error) {
	return r.store.ListTransitionsWithStates(ctx, sessionID)
}

func (r *Recorder) RemoveTransition(ctx context.Context, id string) error {
	if _, err := r.store.GetTransition(ctx, id); err != nil {
		return notFoundOr(err, "UIStateTransition", id)
	}
	return notFoundOr(r.store.DeleteTransition(ctx, id), "UIStateTransition", id)
}

func (r *Recorder) activeSession(ctx context.Context, id string) (*graph.OperationSession, error) {
	sess, err := r.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Status != graph.SessionActive {
		return nil, graph.BadRequest("session %s is %s", id, sess.Status)
	}
	return sess, nil
}

func (r *Recorder) newTransition(in TransitionInput) *graph.UIStateTransition {
	return &graph.UIStateTransition{
		ID:            uuid.NewString(),
		SessionID:     in.SessionID,
		ProjectID:     in.ProjectID,
		FromUIStateID: in.FromUIStateID,
		ToUIStateID:   in.ToUIStateID,
		TriggerAction: in.TriggerAction,
		BeforeState:   in.BeforeState,
		AfterState:    in.AfterState,
		Metadata:      in.Metadata,
		CreatedAt:     r.now(),
	}
}

func notFoundOr(err error, entity, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return graph.NotFound(entity, id)
	}
	return err
}
