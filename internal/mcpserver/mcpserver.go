// Package mcpserver exposes the booking tools to MCP clients over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/jarvis-booking/internal/logger"
	"github.com/comigor/jarvis-booking/pkg/tools"
)

const serverName = "jarvis-booking"

// New creates an MCP server with every dispatcher tool registered.
func New(dispatcher *tools.Dispatcher, version string) *server.MCPServer {
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(true),
	)
	Register(s, dispatcher)
	return s
}

// Register adds the dispatcher's tools to s. Schemas are passed through as-is.
func Register(s *server.MCPServer, dispatcher *tools.Dispatcher) {
	for _, t := range dispatcher.List() {
		tool := mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.Parameters())
		s.AddTool(tool, handler(dispatcher, t.Name()))
		logger.L.Debug("registered MCP tool", logger.Tool(t.Name()))
	}
}

// handler routes an MCP tool call through the dispatcher so errors, logging
// and metrics match the agent path.
func handler(dispatcher *tools.Dispatcher, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := dispatcher.Call(ctx, name, request.GetArguments())
		if res.IsError() {
			return mcp.NewToolResultError(res.Content), nil
		}
		return mcp.NewToolResultText(res.Content), nil
	}
}

// ServeStdio blocks serving s on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	// stdout carries protocol frames.
	logger.UseStderr()
	logger.L.Info("starting MCP stdio server")
	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
