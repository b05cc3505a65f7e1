// Package mcpbridge discovers tools from an MCP server and offers them to the
// agent loop, typically a browser-automation server started over stdio.
package mcpbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsurutan/e2e-generator-sub000/pkg/agent/tools"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
)

const clientName = "uigraph"

var bridgeLogger *logging.Logger

func init() {
	bridgeLogger, _ = logging.NewLogger("mcpbridge")
}

// Client is a connected MCP session whose tools are exposed as a
// tools.Toolset.
type Client struct {
	session *mcp.ClientSession
	allow   map[string]bool

	mu    sync.Mutex
	cache []tools.Tool
}

// Option configures a Client.
type Option func(*Client)

// WithAllowedTools limits the toolset to the named tools.
func WithAllowedTools(names ...string) Option {
	return func(c *Client) {
		if len(names) == 0 {
			return
		}
		c.allow = make(map[string]bool, len(names))
		for _, n := range names {
			c.allow[n] = true
		}
	}
}

// Connect starts an MCP session over transport.
func Connect(ctx context.Context, transport mcp.Transport, version string, opts ...Option) (*Client, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: clientName, Version: version}, nil)
	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
	}
	c := &Client{session: session}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Dial launches command line and connects to it over stdio, e.g.
// "npx @playwright/mcp@latest --headless".
func Dial(ctx context.Context, commandLine, version string, opts ...Option) (*Client, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("MCP command is empty")
	}
	bridgeLogger.Infof("Starting MCP server: %s", commandLine)
	cmd := exec.Command(fields[0], fields[1:]...)
	return Connect(ctx, &mcp.CommandTransport{Command: cmd}, version, opts...)
}

// Tools lists the server's tools once and caches them.
func (c *Client) Tools(ctx context.Context) ([]tools.Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil {
		return c.cache, nil
	}

	var out []tools.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := c.session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list MCP tools: %w", err)
		}
		for _, t := range res.Tools {
			if c.allow != nil && !c.allow[t.Name] {
				continue
			}
			out = append(out, &remoteTool{client: c, def: t})
		}
		if res.NextCursor == "" {
			break
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}

	bridgeLogger.Debugf("Discovered %d MCP tools", len(out))
	c.cache = out
	return out, nil
}

// Close ends the session and stops the server process.
func (c *Client) Close() error {
	return c.session.Close()
}

// RemoteError is a tool failure reported by the MCP server.
type RemoteError struct {
	Tool    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Tool, e.Message)
}

// remoteTool forwards calls to one server tool.
type remoteTool struct {
	client *Client
	def    *mcp.Tool
}

func (t *remoteTool) Name() string        { return t.def.Name }
func (t *remoteTool) Description() string { return t.def.Description }

func (t *remoteTool) Schema() map[string]interface{} {
	if m, ok := t.def.InputSchema.(map[string]interface{}); ok {
		return m
	}
	return tools.BaseToolSchema(map[string]interface{}{}, nil)
}

func (t *remoteTool) Execute(ctx context.Context, arguments json.RawMessage) (string, error) {
	var args map[string]interface{}
	if err := tools.DecodeArgs(arguments, &args); err != nil {
		return "", err
	}

	res, err := t.client.session.CallTool(ctx, &mcp.CallToolParams{Name: t.def.Name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("MCP call %s: %w", t.def.Name, err)
	}
	text := contentText(res.Content)
	if res.IsError {
		return "", &RemoteError{Tool: t.def.Name, Message: text}
	}
	return text, nil
}

// contentText joins the text parts of a result. Non-text parts are noted by
// type so the model knows something was returned.
func contentText(content []mcp.Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		switch v := c.(type) {
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image %s, %d bytes]", v.MIMEType, len(v.Data)))
		default:
			parts = append(parts, fmt.Sprintf("[%T content]", c))
		}
	}
	return strings.Join(parts, "\n")
}
