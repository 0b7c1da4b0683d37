package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/imagegate"
	"github.com/spetersoncode/imagegate/internal/log"
	"github.com/spetersoncode/imagegate/registry"
)

// Generator is the part of the gateway client the MCP tools use.
// *client.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, hint imagegate.ProviderName, opts ...imagegate.ImageOption) (*imagegate.Result, error)
	Providers() []registry.ProviderStatus
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	logger  *slog.Logger
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithLogger sets the logger placed in every tool call context.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = logger
	}
}

// NewServer creates an MCP server exposing the generate_image and
// list_providers tools backed by gen.
//
// Example:
//
//	c, _ := client.New(client.Config{APIKeys: keys})
//	s := mcp.NewServer(c, mcp.WithName("imagegate"))
//	server.ServeStdio(s)
func NewServer(gen Generator, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "imagegate-mcp-server",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
	)

	t := &tools{gen: gen, logger: cfg.logger}
	s.AddTool(generateImageTool(), t.withLogger(t.generateImage))
	s.AddTool(listProvidersTool(), t.withLogger(t.listProviders))
	return s
}

func (t *tools) withLogger(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	if t.logger == nil {
		return next
	}
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		logger := t.logger.With("tool", req.Params.Name)
		return next(log.NewContext(ctx, logger), req)
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(gen Generator, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(gen, opts...))
}
