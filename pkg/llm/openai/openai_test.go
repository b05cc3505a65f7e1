package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

func newTestServer(t *testing.T, status int, body string, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req map[string]any
		require.NoError(t, json.Unmarshal(raw, &req))
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func TestNewProvider(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := NewProvider("")
		require.Error(t, err)
	})

	t.Run("reads env fallbacks", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "env-key")
		t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/v1/")
		p, err := NewProvider("")
		require.NoError(t, err)
		assert.Equal(t, "env-key", p.apiKey)
		assert.Equal(t, "http://localhost:8080/v1", p.GetBaseURL())
		assert.Equal(t, DefaultModel, p.GetModel())
	})

	t.Run("option overrides env", func(t *testing.T) {
		t.Setenv("OPENAI_BASE_URL", "http://env/v1")
		p, err := NewProvider("k", WithBaseURL("http://opt/v1"), WithModel("gpt-4o-mini"))
		require.NoError(t, err)
		assert.Equal(t, "http://opt/v1", p.GetBaseURL())
		assert.Equal(t, "gpt-4o-mini", p.GetModel())
	})
}

func TestChatNativeToolCalls(t *testing.T) {
	body := `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1694268190,
		"model": "gpt-4o",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "<thinking>start with the page</thinking>Saving the page.",
				"tool_calls": [{
					"id": "call_abc",
					"type": "function",
					"function": {"name": "save_page", "arguments": "{\"title\":\"Login\",\"url\":\"https://example.com/login\"}"}
				}]
			}
		}],
		"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
	}`

	var captured map[string]any
	server := newTestServer(t, http.StatusOK, body, func(req map[string]any) { captured = req })
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transcript := []*types.Message{
		types.NewSystemMessage("You explore web applications."),
		types.NewUserMessage("Explore https://example.com"),
		types.NewAssistantMessage("", types.ToolCall{ID: "call_0", Name: "get_pages", Arguments: json.RawMessage(`{}`)}),
		types.NewToolResultMessage("call_0", "get_pages", "[]"),
	}
	defs := []types.ToolDefinition{{
		Name:        "save_page",
		Description: "Save a page",
		Parameters:  map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
	}}

	resp, err := p.Chat(ctx, transcript, defs)
	require.NoError(t, err)

	assert.Equal(t, "Saving the page.", resp.Message.Content)
	assert.Equal(t, "start with the page", resp.Thinking)
	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "call_abc", resp.Message.ToolCalls[0].ID)
	assert.Equal(t, "save_page", resp.Message.ToolCalls[0].Name)
	assert.JSONEq(t, `{"title":"Login","url":"https://example.com/login"}`, string(resp.Message.ToolCalls[0].Arguments))
	assert.Equal(t, 150, resp.Usage.TotalTokens)

	require.NotNil(t, captured)
	assert.Equal(t, "gpt-4o", captured["model"])
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 4)
	assistant := msgs[2].(map[string]any)
	assert.Equal(t, "assistant", assistant["role"])
	assert.Len(t, assistant["tool_calls"], 1)
	toolMsg := msgs[3].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_0", toolMsg["tool_call_id"])
	toolsParam, ok := captured["tools"].([]any)
	require.True(t, ok)
	assert.Len(t, toolsParam, 1)
}

func TestChatKeepsTurnToolResultsTogether(t *testing.T) {
	body := `{
		"id": "chatcmpl-2",
		"object": "chat.completion",
		"created": 1694268190,
		"model": "gpt-4o",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "retrying"}}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 2, "total_tokens": 12}
	}`

	var captured map[string]any
	server := newTestServer(t, http.StatusOK, body, func(req map[string]any) { captured = req })
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL))
	require.NoError(t, err)

	transcript := []*types.Message{
		types.NewSystemMessage("You explore web applications."),
		types.NewUserMessage("Explore https://example.com"),
		types.NewAssistantMessage("",
			types.ToolCall{ID: "c1", Name: "save_edge", Arguments: json.RawMessage(`{}`)},
			types.ToolCall{ID: "c2", Name: "save_page", Arguments: json.RawMessage(`{}`)},
		),
		types.NewToolErrorMessage("c1", "save_edge", errors.New(`UiState "home" not found`)),
		types.NewToolResultMessage("c2", "save_page", `{"id":"p1"}`),
		types.NewUserMessage("The last call to save_edge failed. Do not repeat the same mistake."),
	}

	_, err = p.Chat(context.Background(), transcript, nil)
	require.NoError(t, err)

	require.NotNil(t, captured)
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 6)

	var roles []string
	for _, m := range msgs {
		roles = append(roles, m.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"system", "user", "assistant", "tool", "tool", "user"}, roles)
	assert.Equal(t, "c1", msgs[3].(map[string]any)["tool_call_id"])
	assert.Equal(t, "c2", msgs[4].(map[string]any)["tool_call_id"])
}

func TestChatXMLFallback(t *testing.T) {
	content := "Next I save the state.\n<tool><tool_name>save_ui_state</tool_name><arguments><title>Default</title><page_url>https://example.com/login</page_url><is_default>true</is_default></arguments></tool>"
	payload, err := json.Marshal(map[string]any{
		"id":      "chatcmpl-2",
		"object":  "chat.completion",
		"created": 1694268190,
		"model":   "local-model",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	require.NoError(t, err)

	server := newTestServer(t, http.StatusOK, string(payload), nil)
	defer server.Close()

	p, err := NewProvider("test-key", WithBaseURL(server.URL), WithModel("local-model"))
	require.NoError(t, err)

	resp, err := p.Chat(context.Background(), []*types.Message{types.NewUserMessage("go")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Next I save the state.", resp.Message.Content)
	require.Len(t, resp.Message.ToolCalls, 1)
	call := resp.Message.ToolCalls[0]
	assert.Equal(t, "save_ui_state", call.Name)
	assert.Equal(t, "chatcmpl-2_xml_0", call.ID)
	assert.JSONEq(t, `{"title":"Default","page_url":"https://example.com/login","is_default":true}`, string(call.Arguments))
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`},
		{"no choices", http.StatusOK, `{"id":"x","choices":[]}`},
		{"malformed body", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.status, tt.body, nil)
			defer server.Close()

			p, err := NewProvider("test-key", WithBaseURL(server.URL))
			require.NoError(t, err)

			_, err = p.Chat(context.Background(), []*types.Message{types.NewUserMessage("go")}, nil)
			assert.Error(t, err)
		})
	}
}
