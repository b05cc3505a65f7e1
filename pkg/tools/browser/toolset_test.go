package browser

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

const (
	homeURL  = "https://shop.example.com/"
	loginURL = "https://shop.example.com/login"
)

var fakePages = map[string]string{
	homeURL: `<html><head><title>Shop</title></head><body>
		<h1>Welcome</h1><a id="login-link" href="/login">Log in</a>
		<a id="partner" href="https://partner.test/">Partner</a>
		<p>Fresh shoes every day. Shoes on sale.</p></body></html>`,
	loginURL: `<html><head><title>Login</title></head><body>
		<form><input type="email" name="email"><button id="submit">Sign in</button></form></body></html>`,
	"https://partner.test/": `<html><head><title>Partner</title></head><body>elsewhere</body></html>`,
}

func newTestToolset(t *testing.T) (*Toolset, *fakeDriver, map[string]tools.Tool) {
	t.Helper()
	driver := newFakeDriver(fakePages, map[string]string{
		"#login-link": loginURL,
		"#partner":    "https://partner.test/",
		"#submit":     "",
	})
	manager := NewSessionManager(false)
	_, err := manager.AttachSession("explore", driver, SessionOptions{Headless: true, Timeout: 500})
	require.NoError(t, err)

	scope, err := ScopeForOrigin(homeURL)
	require.NoError(t, err)
	set := NewToolset(manager, "explore", SessionOptions{Headless: true}, scope)

	list, err := set.Tools(context.Background())
	require.NoError(t, err)
	byName := make(map[string]tools.Tool, len(list))
	for _, tool := range list {
		byName[tool.Name()] = tool
	}
	return set, driver, byName
}

func runTool(t *testing.T, tool tools.Tool, args string) (string, error) {
	t.Helper()
	return tool.Execute(context.Background(), json.RawMessage(args))
}

func TestToolsetToolNames(t *testing.T) {
	_, _, byName := newTestToolset(t)

	for _, name := range []string{
		"browser_navigate", "browser_click", "browser_fill", "browser_wait",
		"browser_extract_content", "browser_search", "browser_snapshot", "browser_evaluate",
	} {
		tool, ok := byName[name]
		require.True(t, ok, name)
		assert.NotEmpty(t, tool.Description())
		assert.Equal(t, "object", tool.Schema()["type"])
	}
}

func TestNavigate(t *testing.T) {
	_, driver, byName := newTestToolset(t)

	out, err := runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url": "https://shop.example.com/", "title": "Shop"}`, out)

	_, err = runTool(t, byName["browser_navigate"], `{"url": "https://partner.test/"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outside the exploration scope")
	assert.Equal(t, homeURL, driver.URL())

	_, err = runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/", "wait_until": "soon"}`)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)

	_, err = runTool(t, byName["browser_navigate"], `{"href": "https://shop.example.com/"}`)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)
}

func TestClickStaysInScope(t *testing.T) {
	_, driver, byName := newTestToolset(t)
	_, err := runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/"}`)
	require.NoError(t, err)

	out, err := runTool(t, byName["browser_click"], `{"selector": "#login-link"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"url": "https://shop.example.com/login", "title": "Login"}`, out)

	require.NoError(t, driver.GoBack())
	_, err = runTool(t, byName["browser_click"], `{"selector": "#partner"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://partner.test/ is outside the exploration scope")
	assert.Contains(t, err.Error(), "returned to "+homeURL)
	assert.Equal(t, homeURL, driver.URL())

	_, err = runTool(t, byName["browser_click"], `{"selector": "#missing"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "click on #missing failed")
}

func TestFillAndWait(t *testing.T) {
	_, driver, byName := newTestToolset(t)
	_, err := runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/login"}`)
	require.NoError(t, err)

	out, err := runTool(t, byName["browser_fill"], `{"selector": "input[name=\"email\"]", "value": "a@b.c"}`)
	require.NoError(t, err)
	assert.Contains(t, out, "5 characters")
	assert.Equal(t, "a@b.c", driver.filled[`input[name="email"]`])

	_, err = runTool(t, byName["browser_wait"], `{"selector": "submit"}`)
	assert.NoError(t, err)

	_, err = runTool(t, byName["browser_wait"], `{"selector": "submit", "state": "gone"}`)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)

	_, err = runTool(t, byName["browser_wait"], `{"selector": ".spinner", "timeout": 10}`)
	assert.Error(t, err)
}

func TestExtractAndSearch(t *testing.T) {
	_, _, byName := newTestToolset(t)
	_, err := runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/"}`)
	require.NoError(t, err)

	out, err := runTool(t, byName["browser_extract_content"], `{}`)
	require.NoError(t, err)
	assert.Contains(t, out, "# Shop")
	assert.Contains(t, out, "Fresh shoes every day.")

	out, err = runTool(t, byName["browser_extract_content"], `{"format": "structured"}`)
	require.NoError(t, err)
	var structured StructuredContent
	require.NoError(t, json.Unmarshal([]byte(out), &structured))
	assert.Equal(t, homeURL, structured.URL)
	assert.Equal(t, []string{"Welcome"}, structured.Headings)
	assert.Len(t, structured.Links, 2)

	_, err = runTool(t, byName["browser_extract_content"], `{"format": "pdf"}`)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)

	out, err = runTool(t, byName["browser_search"], `{"pattern": "SHOES", "max_results": 5}`)
	require.NoError(t, err)
	var found struct {
		Count   int            `json:"count"`
		Matches []SearchResult `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	assert.Equal(t, 2, found.Count)
	assert.Equal(t, "shoes", found.Matches[0].Text)
	assert.Equal(t, "Shoes", found.Matches[1].Text)
}

func TestSnapshot(t *testing.T) {
	_, _, byName := newTestToolset(t)
	_, err := runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/login"}`)
	require.NoError(t, err)

	out, err := runTool(t, byName["browser_snapshot"], `{}`)
	require.NoError(t, err)

	var snap CleanedHTML
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, loginURL, snap.URL)
	assert.Equal(t, "Login", snap.Title)
	assert.Contains(t, snap.HTML, `<input type="email" name="email">`)
	assert.Equal(t, []Element{
		{Tag: "input", Type: "email", Selector: `input[name="email"]`},
		{Tag: "button", Text: "Sign in", Selector: "#submit"},
	}, snap.Elements)
}

func TestEvaluate(t *testing.T) {
	_, driver, byName := newTestToolset(t)
	driver.evalOut = map[string]interface{}{"count": 3}

	out, err := runTool(t, byName["browser_evaluate"], `{"code": "({count: 3})"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count": 3}`, out)

	_, err = runTool(t, byName["browser_evaluate"], `{"code": "throw"}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JavaScript execution failed")

	_, err = runTool(t, byName["browser_evaluate"], `{}`)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)
}

func TestToolsetClose(t *testing.T) {
	set, driver, byName := newTestToolset(t)
	_, err := runTool(t, byName["browser_navigate"], `{"url": "https://shop.example.com/"}`)
	require.NoError(t, err)

	require.NoError(t, set.Close())
	assert.True(t, driver.closed)
	assert.Empty(t, set.manager.ListSessions())
	assert.NoError(t, set.Close())
}
