package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
)

type stubTool struct{}

func (stubTool) Name() string        { return "save_page" }
func (stubTool) Description() string { return "Save a page of the application" }
func (stubTool) Schema() map[string]interface{} {
	return tools.BaseToolSchema(map[string]interface{}{
		"url":   tools.StringProperty("Absolute page URL"),
		"title": tools.StringProperty("Page title"),
		"html":  tools.StringProperty("Optional markup"),
	}, []string{"url", "title"})
}
func (stubTool) Execute(context.Context, json.RawMessage) (string, error) { return "", nil }

func TestBuild(t *testing.T) {
	t.Run("native tools", func(t *testing.T) {
		prompt := NewPromptBuilder("You explore web applications.").
			WithSection("target", "https://example.com").
			WithSection("empty", "  ").
			Build()

		assert.True(t, strings.HasPrefix(prompt, "You explore web applications."))
		assert.Contains(t, prompt, "<target>\nhttps://example.com\n</target>")
		assert.NotContains(t, prompt, "<empty>")
		assert.Contains(t, prompt, "<agent_loop>")
		assert.Contains(t, prompt, "<tool_use_rules>")
		assert.NotContains(t, prompt, "<tool_calling>")
	})

	t.Run("xml tools and custom instructions", func(t *testing.T) {
		prompt := NewPromptBuilder("role").
			WithXMLTools([]tools.Tool{stubTool{}}).
			WithCustomInstructions("Stay on example.com").
			Build()

		assert.True(t, strings.HasPrefix(prompt, "<custom_instructions>\nStay on example.com"))
		assert.Contains(t, prompt, "<tool_calling>")
		assert.Contains(t, prompt, "## save_page")
		assert.Contains(t, prompt, "- url (string, required): Absolute page URL")
		assert.Contains(t, prompt, "- html (string, optional): Optional markup")
	})
}

func TestGenerateXMLExample(t *testing.T) {
	example := GenerateXMLExample(stubTool{}.Schema(), "save_page")

	assert.Equal(t, "<tool>\n<tool_name>save_page</tool_name>\n<arguments>\n  <title>value</title>\n  <url>value</url>\n</arguments>\n</tool>", example)
}

func TestBuildErrorRecoveryMessage(t *testing.T) {
	tests := []struct {
		name     string
		ctx      ErrorRecoveryContext
		contains []string
	}{
		{
			name: "execution failure",
			ctx: ErrorRecoveryContext{
				Type:     ErrorTypeToolExecution,
				ToolName: "save_edge",
				Error:    errors.New(`UiState "a" not found`),
			},
			contains: []string{"save_edge failed", `UiState "a" not found`, "Retry with corrected arguments", "Do not repeat the same mistake"},
		},
		{
			name: "unknown tool",
			ctx: ErrorRecoveryContext{
				Type:           ErrorTypeUnknownTool,
				ToolName:       "save_pgae",
				AvailableTools: []string{"save_page", "get_pages"},
			},
			contains: []string{`no tool named "save_pgae"`, "save_page, get_pages"},
		},
		{
			name: "invalid arguments",
			ctx: ErrorRecoveryContext{
				Type:     ErrorTypeInvalidArguments,
				ToolName: "save_page",
				Error:    errors.New("unknown field \"name\""),
			},
			contains: []string{"arguments were invalid", "unknown field", "tool schema"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := BuildErrorRecoveryMessage(tt.ctx)
			for _, want := range tt.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}
