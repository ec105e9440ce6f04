package fx

import (
	"context"
	"errors"
	"io"
	"os"

	"go.uber.org/fx"

	"github.com/EternisAI/enchanted-assistant/pkg/agent/tools"
	"github.com/EternisAI/enchanted-assistant/pkg/logging"
	"github.com/EternisAI/enchanted-assistant/pkg/mcpserver"
)

// ServerModule runs the MCP server over stdio for the lifetime of the app.
// The app shuts down when the client closes stdin.
var ServerModule = fx.Module("server",
	fx.Provide(
		ProvideMCPServer,
	),
	fx.Invoke(
		StartMCPServer,
	),
)

// Version is reported to MCP clients.
var Version = "dev"

func ProvideMCPServer(registry *tools.ToolMapRegistry, loggers *logging.Factory) (*mcpserver.Server, error) {
	return mcpserver.New(registry, loggers.ForServer("mcp.server"), Version)
}

// MCPServerParams holds parameters for starting the MCP server.
type MCPServerParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Server     *mcpserver.Server
	Loggers    *logging.Factory
}

func StartMCPServer(params MCPServerParams) {
	logger := params.Loggers.ForServer("mcp.server")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				err := params.Server.Serve(ctx, os.Stdin, os.Stdout)
				exitCode := 0
				if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
					logger.Error("MCP server stopped", "error", err)
					exitCode = 1
				}
				if err := params.Shutdowner.Shutdown(fx.ExitCode(exitCode)); err != nil {
					logger.Debug("Shutdown already in progress", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			return nil
		},
	})
}
