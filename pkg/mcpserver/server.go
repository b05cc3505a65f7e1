// Package mcpserver serves the graph tools of one project over the Model
// Context Protocol, so external agents can read and build the graph.
package mcpserver

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tsurutan/e2e-generator-sub000/pkg/graph"
	"github.com/tsurutan/e2e-generator-sub000/pkg/logging"
	"github.com/tsurutan/e2e-generator-sub000/pkg/tools/graphtools"
)

const serverName = "uigraph"

var serverLogger *logging.Logger

func init() {
	serverLogger, _ = logging.NewLogger("mcpserver")
}

// New creates an MCP server with every tool of registry registered.
func New(registry *graphtools.Registry, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: version,
	}, nil)

	for _, tool := range registry.ToolList() {
		name := tool.Name()
		srv.AddTool(&mcp.Tool{
			Name:        name,
			Description: tool.Description(),
			InputSchema: tool.Schema(),
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handle(ctx, registry, name, req)
		})
	}
	return srv
}

// Serve runs the server over stdio until ctx is done or the client leaves.
func Serve(ctx context.Context, registry *graphtools.Registry, version string) error {
	serverLogger.Infof("Serving graph tools for project %s over stdio", registry.ProjectID())
	return New(registry, version).Run(ctx, &mcp.StdioTransport{})
}

// handle dispatches one call. Domain errors become tool errors the client
// can read; they are not protocol failures.
func handle(ctx context.Context, registry *graphtools.Registry, name string, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := registry.Dispatch(ctx, name, req.Params.Arguments)
	if err != nil {
		var unknown *graphtools.UnknownToolError
		switch {
		case errors.As(err, &unknown):
			serverLogger.Warnf("Unknown tool %s requested", name)
		case errors.Is(err, graph.ErrNotFound), errors.Is(err, graph.ErrBadRequest):
			serverLogger.Debugf("Tool %s rejected: %v", name, err)
		default:
			serverLogger.Errorf("Tool %s failed: %v", name, err)
		}
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: out}},
	}, nil
}
