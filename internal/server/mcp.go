// Package server exposes the registry tools over MCP. Every registered tool
// advertises its declared argument schema verbatim, and every response is a
// single textual JSON content block — no streaming, no partial responses.
package server

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/clinreg/registry-mcp/internal/dispatch"
	"github.com/clinreg/registry-mcp/internal/registry"
)

const serverVersion = "0.2.0"

// NewMCPServer builds an MCP server with all registry tools registered
// against the dispatcher.
func NewMCPServer(reg *registry.Registry, d *dispatch.Dispatcher, logger *zap.Logger) *server.MCPServer {
	srv := server.NewMCPServer(
		"registry-mcp",
		serverVersion,
		server.WithToolCapabilities(true),
	)

	for _, td := range reg.List() {
		tool := mcp.NewToolWithRawSchema(td.Name, td.Description, td.SchemaJSON())
		srv.AddTool(tool, handler(td.Name, d, logger))
	}

	return srv
}

// ServeStdio runs the MCP server over stdio until the client disconnects.
func ServeStdio(srv *server.MCPServer) error {
	return server.ServeStdio(srv)
}

func handler(name string, d *dispatch.Dispatcher, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := d.Call(ctx, name, req.GetArguments())
		if err != nil {
			logger.Warn("tool call failed",
				zap.String("tool", name),
				zap.Error(err),
			)
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.Marshal(result)
		if err != nil {
			logger.Error("response serialization failed",
				zap.String("tool", name),
				zap.Error(err),
			)
			return mcp.NewToolResultError("response serialization failed: " + err.Error()), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
