package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/store"
)

func newTestServices(t *testing.T) *Services {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func newProject(t *testing.T, svc *Services, url string) *graph.Project {
	t.Helper()
	p, err := svc.Projects.Create(context.Background(), "", url)
	require.NoError(t, err)
	return p
}

func newState(t *testing.T, svc *Services, projectID, pageURL, title string, isDefault bool) *graph.UiState {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Pages.Upsert(ctx, projectID, pageURL, "")
	require.NoError(t, err)
	st, err := svc.UiStates.Create(ctx, CreateUiStateInput{
		ProjectID: projectID, PageURL: pageURL, Title: title, IsDefault: isDefault,
	})
	require.NoError(t, err)
	return st
}

func TestProjectCreate_DefaultsNameToHost(t *testing.T) {
	svc := newTestServices(t)
	p := newProject(t, svc, "https://example.com/app?x=1")
	assert.Equal(t, "example.com", p.Name)

	_, err := svc.Projects.Create(context.Background(), "", "  ")
	assert.True(t, errors.Is(err, graph.ErrBadRequest))
}

func TestPageUpsert(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")

	tests := []struct {
		name      string
		title     string
		wantTitle string
	}{
		{"first save", "Login", "Login"},
		{"resave without title keeps title", "", "Login"},
		{"resave with title backfills", "Sign in", "Sign in"},
	}
	var firstID string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Pages.Upsert(ctx, p.ID, "/login", tt.title)
			require.NoError(t, err)
			if firstID == "" {
				firstID = page.ID
			}
			assert.Equal(t, firstID, page.ID)
			assert.Equal(t, tt.wantTitle, page.Title)
		})
	}

	pages, err := svc.Pages.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, pages, 1)

	_, err = svc.Pages.Upsert(ctx, "missing", "/login", "")
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestLoginScenario(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	p := newProject(t, svc, "https://example.com")
	_, err := svc.Pages.Upsert(ctx, p.ID, "/login", "Login")
	require.NoError(t, err)

	loginForm, err := svc.UiStates.Create(ctx, CreateUiStateInput{
		ProjectID: p.ID, PageURL: "/login", Title: "LoginForm", IsDefault: true,
	})
	require.NoError(t, err)

	_, err = svc.UiStates.Create(ctx, CreateUiStateInput{
		ProjectID: p.ID, PageURL: "/login", Title: "LoginFormAlt", IsDefault: true,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrBadRequest))

	def, err := svc.UiStates.GetDefault(ctx, p.ID, "/login")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, loginForm.ID, def.ID)
	assert.Equal(t, "LoginForm", def.Title)

	dashboard := newState(t, svc, p.ID, "/dashboard", "Dashboard", false)

	edge, err := svc.Edges.Create(ctx, CreateEdgeInput{
		ProjectID: p.ID, FromUIStateID: loginForm.ID, ToUIStateID: dashboard.ID,
		Description: "submit credentials",
	})
	require.NoError(t, err)

	_, err = svc.Edges.Create(ctx, CreateEdgeInput{
		ProjectID: p.ID, FromUIStateID: loginForm.ID, ToUIStateID: dashboard.ID,
		Description: "submit credentials",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrBadRequest))

	edges, err := svc.Edges.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, edge.ID, edges[0].ID)
}

func TestUiStateCreate_Preconditions(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")

	tests := []struct {
		name    string
		in      CreateUiStateInput
		wantErr error
	}{
		{"missing project", CreateUiStateInput{ProjectID: "nope", PageURL: "/", Title: "x"}, graph.ErrNotFound},
		{"missing page", CreateUiStateInput{ProjectID: p.ID, PageURL: "/unknown", Title: "x"}, graph.ErrNotFound},
		{"missing title", CreateUiStateInput{ProjectID: p.ID, PageURL: "/", Title: ""}, graph.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UiStates.Create(ctx, tt.in)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestUiStateUpdate_DefaultRule(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")

	first := newState(t, svc, p.ID, "/login", "LoginForm", true)
	second := newState(t, svc, p.ID, "/login", "LoginError", false)

	yes := true
	_, err := svc.UiStates.Update(ctx, second.ID, UiStatePatch{IsDefault: &yes})
	assert.True(t, errors.Is(err, graph.ErrBadRequest))

	// Re-asserting its own default flag is not a conflict.
	title := "Login form"
	updated, err := svc.UiStates.Update(ctx, first.ID, UiStatePatch{IsDefault: &yes, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Login form", updated.Title)

	other := "/signup"
	_, err = svc.UiStates.Update(ctx, second.ID, UiStatePatch{PageURL: &other})
	assert.True(t, errors.Is(err, graph.ErrNotFound))

	_, err = svc.Pages.Upsert(ctx, p.ID, other, "Signup")
	require.NoError(t, err)
	moved, err := svc.UiStates.Update(ctx, second.ID, UiStatePatch{PageURL: &other, IsDefault: &yes})
	require.NoError(t, err)
	assert.Equal(t, other, moved.PageURL)
	assert.True(t, moved.IsDefault)

	_, err = svc.UiStates.Update(ctx, "missing", UiStatePatch{})
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestGetDefault_Absent(t *testing.T) {
	svc := newTestServices(t)
	p := newProject(t, svc, "https://example.com")
	st, err := svc.UiStates.GetDefault(context.Background(), p.ID, "/nothing")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestEdgeCreate_CrossProjectRejected(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p1 := newProject(t, svc, "https://one.example.com")
	p2 := newProject(t, svc, "https://two.example.com")

	a := newState(t, svc, p1.ID, "/", "Home", true)
	b := newState(t, svc, p2.ID, "/", "Home", true)

	tests := []struct {
		name    string
		in      CreateEdgeInput
		wantErr error
	}{
		{"to in other project", CreateEdgeInput{ProjectID: p1.ID, FromUIStateID: a.ID, ToUIStateID: b.ID}, graph.ErrBadRequest},
		{"from in other project", CreateEdgeInput{ProjectID: p1.ID, FromUIStateID: b.ID, ToUIStateID: a.ID}, graph.ErrBadRequest},
		{"missing endpoint", CreateEdgeInput{ProjectID: p1.ID, FromUIStateID: a.ID, ToUIStateID: "nope"}, graph.ErrNotFound},
		{"missing project", CreateEdgeInput{ProjectID: "nope", FromUIStateID: a.ID, ToUIStateID: a.ID}, graph.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Edges.Create(ctx, tt.in)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	edges, err := svc.Edges.ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestFindEdgesByUIState_Partition(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")

	a := newState(t, svc, p.ID, "/a", "A", true)
	b := newState(t, svc, p.ID, "/b", "B", true)
	c := newState(t, svc, p.ID, "/c", "C", true)

	mk := func(from, to *graph.UiState) *graph.Edge {
		e, err := svc.Edges.Create(ctx, CreateEdgeInput{ProjectID: p.ID, FromUIStateID: from.ID, ToUIStateID: to.ID})
		require.NoError(t, err)
		return e
	}
	ab := mk(a, b)
	ca := mk(c, a)
	aa := mk(a, a)
	mk(b, c)

	set, err := svc.Edges.FindByUIState(ctx, a.ID)
	require.NoError(t, err)

	ids := func(edges []*graph.Edge) []string {
		var out []string
		for _, e := range edges {
			out = append(out, e.ID)
		}
		return out
	}
	assert.ElementsMatch(t, []string{ab.ID, aa.ID}, ids(set.Outgoing))
	assert.ElementsMatch(t, []string{ca.ID, aa.ID}, ids(set.Incoming))
}

func TestEdgeUpdate(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")
	other := newProject(t, svc, "https://other.example.com")

	a := newState(t, svc, p.ID, "/a", "A", true)
	b := newState(t, svc, p.ID, "/b", "B", true)
	c := newState(t, svc, p.ID, "/c", "C", true)
	foreign := newState(t, svc, other.ID, "/x", "X", true)

	ab, err := svc.Edges.Create(ctx, CreateEdgeInput{ProjectID: p.ID, FromUIStateID: a.ID, ToUIStateID: b.ID})
	require.NoError(t, err)
	ac, err := svc.Edges.Create(ctx, CreateEdgeInput{ProjectID: p.ID, FromUIStateID: a.ID, ToUIStateID: c.ID})
	require.NoError(t, err)

	_, err = svc.Edges.Update(ctx, ac.ID, EdgePatch{ToUIStateID: &b.ID})
	assert.True(t, errors.Is(err, graph.ErrBadRequest), "duplicate pair")

	_, err = svc.Edges.Update(ctx, ac.ID, EdgePatch{ToUIStateID: &foreign.ID})
	assert.True(t, errors.Is(err, graph.ErrBadRequest), "cross project")

	missing := "missing"
	_, err = svc.Edges.Update(ctx, ac.ID, EdgePatch{FromUIStateID: &missing})
	assert.True(t, errors.Is(err, graph.ErrNotFound))

	desc := "open details"
	updated, err := svc.Edges.Update(ctx, ab.ID, EdgePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "open details", updated.Description)

	_, err = svc.Edges.Update(ctx, "nope", EdgePatch{})
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestLabels(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")
	st := newState(t, svc, p.ID, "https://example.com/search", "Results", true)

	actions := []graph.TriggerAction{{Type: "fill", Selector: "#q", Value: "shoes"}, {Type: "click", Selector: "#go"}}
	l, err := svc.Labels.Create(ctx, CreateLabelInput{
		ProjectID: p.ID, Name: "first result", Selector: ".result:first-child",
		URL: "https://example.com/search?q=shoes#top", UIStateID: &st.ID, TriggerActions: actions,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/search", l.URL)
	require.NotNil(t, l.QueryParams)
	assert.Equal(t, "q=shoes", *l.QueryParams)

	got, err := svc.Labels.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, actions, got.TriggerActions)

	byURL, err := svc.Labels.ListByURL(ctx, p.ID, "https://example.com/search?q=boots")
	require.NoError(t, err)
	require.Len(t, byURL, 1)
	assert.Equal(t, l.ID, byURL[0].ID)

	byState, err := svc.Labels.ListByUIState(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, byState, 1)

	_, err = svc.Labels.Create(ctx, CreateLabelInput{ProjectID: "missing", Name: "x", Selector: "#x", URL: "/"})
	assert.True(t, errors.Is(err, graph.ErrNotFound))
}

func TestRemove_NotFound(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		remove func(context.Context, string) error
	}{
		{"project", svc.Projects.Remove},
		{"page", svc.Pages.Remove},
		{"ui state", svc.UiStates.Remove},
		{"edge", svc.Edges.Remove},
		{"label", svc.Labels.Remove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.remove(ctx, "missing")
			var nf *graph.NotFoundError
			assert.True(t, errors.As(err, &nf), "got %v", err)
		})
	}
}

func TestListOrder_NewestFirst(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	p := newProject(t, svc, "https://example.com")

	for _, u := range []string{"/one", "/two", "/three"} {
		_, err := svc.Pages.Upsert(ctx, p.ID, u, "")
		require.NoError(t, err)
	}
	pages, err := svc.Pages.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, "/three", pages[0].URL)
	assert.Equal(t, "/one", pages[2].URL)
}

// countOutcomes runs fn concurrently n times and tallies successes, bad
// requests and anything else.
func countOutcomes(n int, fn func() error) (ok, badRequest, other int) {
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := fn()
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, graph.ErrBadRequest):
				badRequest++
			default:
				other++
			}
		}()
	}
	wg.Wait()
	return ok, badRequest, other
}

func TestConcurrentWritersKeepInvariants(t *testing.T) {
	const writers = 20

	t.Run("single default state per page", func(t *testing.T) {
		svc := newTestServices(t)
		ctx := context.Background()
		p := newProject(t, svc, "https://example.com")
		_, err := svc.Pages.Upsert(ctx, p.ID, "/", "Home")
		require.NoError(t, err)

		ok, badRequest, other := countOutcomes(writers, func() error {
			_, err := svc.UiStates.Create(ctx, CreateUiStateInput{
				ProjectID: p.ID, PageURL: "/", Title: "Home", IsDefault: true,
			})
			return err
		})
		assert.Equal(t, 1, ok)
		assert.Equal(t, writers-1, badRequest)
		assert.Zero(t, other)

		states, err := svc.UiStates.ListByPage(ctx, p.ID, "/")
		require.NoError(t, err)
		require.Len(t, states, 1)
		assert.True(t, states[0].IsDefault)
	})

	t.Run("no duplicate edges", func(t *testing.T) {
		svc := newTestServices(t)
		ctx := context.Background()
		p := newProject(t, svc, "https://example.com")
		home := newState(t, svc, p.ID, "/", "Home", true)
		modal := newState(t, svc, p.ID, "/", "Login modal", false)

		ok, badRequest, other := countOutcomes(writers, func() error {
			_, err := svc.Edges.Create(ctx, CreateEdgeInput{
				ProjectID: p.ID, FromUIStateID: home.ID, ToUIStateID: modal.ID, Description: "click Log in",
			})
			return err
		})
		assert.Equal(t, 1, ok)
		assert.Equal(t, writers-1, badRequest)
		assert.Zero(t, other)

		edges, err := svc.Edges.ListByProject(ctx, p.ID)
		require.NoError(t, err)
		assert.Len(t, edges, 1)
	})
}
