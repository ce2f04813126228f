package mcp

import (
	"log/slog"

	"github.com/guillermoBallester/querylog/internal/core/port"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

// NewServer creates an MCPServer with the querylog tools and call hooks.
func NewServer(version string, deps Deps, logger *slog.Logger, tracer trace.Tracer, inst port.Instrumentation) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		version,
		server.WithToolCapabilities(false),
		server.WithHooks(ToolCallHooks(logger, tracer, inst)),
	)

	RegisterTools(s, deps, logger)

	return s
}
