// Package mcpserver exposes the assistant's tool registry as a Model Context
// Protocol server over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
)

const ServerName = "enchanted-assistant"

type Server struct {
	registry tools.ToolRegistry
	logger   *log.Logger
	mcp      *server.MCPServer
}

// New registers every tool of registry on a fresh MCP server.
func New(registry tools.ToolRegistry, logger *log.Logger, version string) (*Server, error) {
	s := &Server{
		registry: registry,
		logger:   logger,
		mcp: server.NewMCPServer(
			ServerName,
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	serverTools, err := s.serverTools()
	if err != nil {
		return nil, err
	}
	s.mcp.AddTools(serverTools...)
	logger.Debug("MCP tools registered", "count", len(serverTools))
	return s, nil
}

func (s *Server) serverTools() ([]server.ServerTool, error) {
	defs := s.registry.Definitions()
	out := make([]server.ServerTool, 0, len(defs))
	for _, def := range defs {
		schema, err := json.Marshal(def.Function.Parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal schema of %s: %w", def.Function.Name, err)
		}
		out = append(out, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(def.Function.Name, def.Function.Description.Value, schema),
			Handler: s.handler(def.Function.Name),
		})
	}
	return out, nil
}

// handler runs the named registry tool. Failures are reported inside the
// result so the client reads them as tool output.
func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		callID := uuid.NewString()
		s.logger.Debug("MCP tool call", "tool", name, "call_id", callID)

		result, err := s.registry.Execute(ctx, name, args)
		if err != nil {
			s.logger.Warn("MCP tool call failed", "tool", name, "call_id", callID, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if result.Error() != "" {
			return mcp.NewToolResultError(result.Error()), nil
		}
		return mcp.NewToolResultText(result.Content()), nil
	}
}

// HandleMessage processes one JSON-RPC message.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcp.HandleMessage(ctx, message)
}

// Serve speaks MCP over in/out until ctx is cancelled or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}))

	s.logger.Info("MCP server listening on stdio", "tools", len(s.registry.List()))
	return stdio.Listen(ctx, in, out)
}
