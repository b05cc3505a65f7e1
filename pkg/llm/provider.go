// Package llm abstracts the chat model that drives the agent loop.
//
// Example usage:
//
//	provider, err := openai.NewProvider(os.Getenv("OPENAI_API_KEY"), openai.WithModel("gpt-4o"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	resp, err := provider.Chat(ctx, []*types.Message{
//	    types.NewSystemMessage("You explore web applications."),
//	    types.NewUserMessage("Start at https://example.com"),
//	}, tools.Definitions(toolList))
package llm

import (
	"context"

	"github.com/tsurutan/e2e-generator-sub000/pkg/types"
)

// Response is one assistant turn.
type Response struct {
	// Message is the assistant message, including any tool calls.
	Message *types.Message

	// Thinking holds reasoning the model wrapped in <thinking> tags, removed
	// from Message.Content.
	Thinking string

	// Usage is the token accounting reported by the API, zero when absent.
	Usage types.TokenUsage
}

// Provider defines the interface for LLM integrations.
//
// A provider is constructed once from configuration and shared by every run;
// it must be safe for concurrent use.
type Provider interface {
	// Chat sends the transcript and the available tools and returns the next
	// assistant turn.
	Chat(ctx context.Context, messages []*types.Message, tools []types.ToolDefinition) (*Response, error)

	// GetModel returns the model name being used.
	GetModel() string
}
