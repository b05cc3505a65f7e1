package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/service"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

type fixture struct {
	rec       *Recorder
	svc       *service.Services
	projectID string
	login     *graph.UiState
	dashboard *graph.UiState
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := service.New(st)
	p, err := svc.Projects.Create(ctx, "", "https://example.com")
	require.NoError(t, err)

	mk := func(url, title string) *graph.UiState {
		_, err := svc.Pages.Upsert(ctx, p.ID, url, "")
		require.NoError(t, err)
		s, err := svc.UiStates.Create(ctx, service.CreateUiStateInput{ProjectID: p.ID, PageURL: url, Title: title, IsDefault: true})
		require.NoError(t, err)
		return s
	}
	return &fixture{
		rec:       New(st),
		svc:       svc,
		projectID: p.ID,
		login:     mk("/login", "LoginForm"),
		dashboard: mk("/dashboard", "Dashboard"),
	}
}

func (f *fixture) step(sessionID string, ts int64) TransitionInput {
	return TransitionInput{
		SessionID:     sessionID,
		ProjectID:     f.projectID,
		FromUIStateID: &f.login.ID,
		ToUIStateID:   f.dashboard.ID,
		TriggerAction: graph.RecordedAction{
			Type:      "click",
			Element:   graph.ElementDescriptor{TagName: "button", Text: "Sign in"},
			Selector:  "button[type=submit]",
			Timestamp: ts,
		},
		BeforeState: graph.DOMSnapshot{VisibleElements: []string{"#login"}, FormValues: map[string]string{"#user": "alice"}},
		AfterState:  graph.DOMSnapshot{VisibleElements: []string{"#dashboard"}, Diffs: &graph.DOMDiff{Added: []string{"#dashboard"}}},
	}
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goal := "log in"
	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID, UserGoal: &goal})
	require.NoError(t, err)
	assert.Equal(t, graph.SessionActive, sess.Status)
	assert.Equal(t, 0, sess.TransitionCount)
	assert.Nil(t, sess.EndTime)

	newGoal := "log in and open settings"
	updated, err := f.rec.UpdateSession(ctx, sess.ID, SessionPatch{UserGoal: &newGoal})
	require.NoError(t, err)
	assert.Equal(t, newGoal, *updated.UserGoal)

	ended, err := f.rec.EndSession(ctx, sess.ID, json.RawMessage(`{"steps":1}`))
	require.NoError(t, err)
	assert.Equal(t, graph.SessionCompleted, ended.Status)
	require.NotNil(t, ended.EndTime)

	got, err := f.rec.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":1}`, string(got.Summary))

	_, err = f.rec.UpdateSession(ctx, sess.ID, SessionPatch{UserGoal: &goal})
	assert.True(t, errors.Is(err, graph.ErrBadRequest), "finished sessions are read-only")

	_, err = f.rec.AbandonSession(ctx, sess.ID)
	assert.True(t, errors.Is(err, graph.ErrBadRequest))
}

func TestAbandonSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID})
	require.NoError(t, err)

	abandoned, err := f.rec.AbandonSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, graph.SessionAbandoned, abandoned.Status)
	assert.NotNil(t, abandoned.EndTime)
}

func TestCreateSession_UnknownProject(t *testing.T) {
	f := newFixture(t)
	_, err := f.rec.CreateSession(context.Background(), CreateSessionInput{ProjectID: "missing"})
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestEndSession_InvalidSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID})
	require.NoError(t, err)

	_, err = f.rec.EndSession(ctx, sess.ID, json.RawMessage(`{oops`))
	assert.True(t, errors.Is(err, graph.ErrBadRequest))
}

func TestRecordTransition_Preconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID})
	require.NoError(t, err)

	missing := "missing"
	tests := []struct {
		name   string
		mutate func(*TransitionInput)
	}{
		{"unknown session", func(in *TransitionInput) { in.SessionID = missing }},
		{"unknown project", func(in *TransitionInput) { in.ProjectID = missing }},
		{"unknown to state", func(in *TransitionInput) { in.ToUIStateID = missing }},
		{"unknown from state", func(in *TransitionInput) { in.FromUIStateID = &missing }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.step(sess.ID, 100)
			tt.mutate(&in)
			_, err := f.rec.RecordTransition(ctx, in)
			assert.True(t, errors.Is(err, graph.ErrNotFound), "got %v", err)
		})
	}

	tr, err := f.rec.RecordTransition(ctx, f.step(sess.ID, 100))
	require.NoError(t, err)

	got, err := f.rec.ListTransitionsBySession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tr.ID, got[0].ID)
	assert.Equal(t, "Sign in", got[0].TriggerAction.Element.Text)
	assert.Equal(t, "alice", got[0].BeforeState.FormValues["#user"])
	assert.Equal(t, []string{"#dashboard"}, got[0].AfterState.Diffs.Added)

	_, err = f.rec.RecordTransition(ctx, f.step(sess.ID, 100))
	assert.True(t, errors.Is(err, graph.ErrBadRequest), "same step twice")
}

func TestRecordTransition_ProjectMismatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID})
	require.NoError(t, err)

	other, err := f.svc.Projects.Create(ctx, "", "https://other.example.com")
	require.NoError(t, err)
	_, err = f.svc.Pages.Upsert(ctx, other.ID, "/", "")
	require.NoError(t, err)
	foreign, err := f.svc.UiStates.Create(ctx, service.CreateUiStateInput{ProjectID: other.ID, PageURL: "/", Title: "Home", IsDefault: true})
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*TransitionInput)
	}{
		{"project differs from session", func(in *TransitionInput) { in.ProjectID = other.ID }},
		{"to state in other project", func(in *TransitionInput) { in.ToUIStateID = foreign.ID }},
		{"from state in other project", func(in *TransitionInput) { in.FromUIStateID = &foreign.ID }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.step(sess.ID, 200)
			tt.mutate(&in)
			_, err := f.rec.RecordTransition(ctx, in)
			assert.True(t, errors.Is(err, graph.ErrBadRequest), "got %v", err)
		})
	}

	got, err := f.rec.ListTransitionsByProject(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
	sess, err = f.rec.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Zero(t, sess.TransitionCount)
}

func TestTransitionCount_AfterBatchWithDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID})
	require.NoError(t, err)

	_, err = f.rec.RecordTransition(ctx, f.step(sess.ID, 1))
	require.NoError(t, err)

	n, err := f.rec.RecordBatch(ctx, []TransitionInput{
		f.step(sess.ID, 1),
		f.step(sess.ID, 2),
		f.step(sess.ID, 2),
		f.step(sess.ID, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := f.rec.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	rows, err := f.rec.ListTransitionsBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, len(rows), got.TransitionCount)
	assert.Equal(t, 3, got.TransitionCount)

	require.NoError(t, f.rec.RemoveTransition(ctx, rows[0].ID))
	got, err = f.rec.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TransitionCount)

	byProject, err := f.rec.ListTransitionsByProject(ctx, f.projectID)
	require.NoError(t, err)
	assert.Len(t, byProject, 2)

	joined, err := f.rec.ListTransitionsWithStates(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, joined, 2)
	assert.Equal(t, "Dashboard", joined[0].ToUIStateTitle)
}

func TestRemoveSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.rec.CreateSession(ctx, CreateSessionInput{ProjectID: f.projectID})
	require.NoError(t, err)
	_, err = f.rec.RecordBatch(ctx, []TransitionInput{f.step(sess.ID, 1)})
	require.NoError(t, err)

	require.NoError(t, f.rec.RemoveSession(ctx, sess.ID))
	_, err = f.rec.GetSession(ctx, sess.ID)
	assert.True(t, errors.Is(err, graph.ErrNotFound))

	rows, err := f.rec.ListTransitionsByProject(ctx, f.projectID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.True(t, errors.Is(f.rec.RemoveSession(ctx, sess.ID), graph.ErrNotFound))
}
