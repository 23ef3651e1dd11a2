package mcp

import (
	"context"
	"errors"
	"io"
	stdlog "log"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/roivaz/binance-mcp-server/internal/mcp/tools"
)

const (
	ServerName    = "binance-mcp-server"
	ServerVersion = "0.1.0"

	// unlistedTool receives calls for names the dispatcher does not serve, so
	// they are answered with a tool result rather than a JSON-RPC error.
	unlistedTool  = "_unknown_tool"
	requestedTool = "requestedTool"
)

type ToolAdapter interface {
	ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Serves(name string) bool
}

type Server struct {
	MCP        *server.MCPServer
	HTTP       *server.StreamableHTTPServer
	Handler    http.Handler
	Dispatcher *tools.Dispatcher
	errorLog   *stdlog.Logger
}

func New(cfg Config) *Server {
	dispatcher := tools.NewDispatcher(tools.DispatcherConfig{
		ToolSet:     cfg.ToolSet,
		LoadConfig:  cfg.LoadConfig,
		NewExchange: cfg.NewExchange,
		Logger:      cfg.Logger,
	})

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(routeUnknownTools(dispatcher)),
		server.WithToolFilter(hideUnlisted),
		server.WithToolFilter(tools.OrderTools),
	)
	register(mcpServer, dispatcher.Tools(), dispatcher)

	httpServer := server.NewStreamableHTTPServer(mcpServer, cfg.Options...)

	return &Server{
		MCP:        mcpServer,
		HTTP:       httpServer,
		Handler:    httpServer,
		Dispatcher: dispatcher,
		errorLog:   cfg.ErrorLog,
	}
}

func register(s *server.MCPServer, toolList []mcp.Tool, adapter ToolAdapter) {
	for _, tool := range toolList {
		s.AddTool(tool, adapter.ToolAdapter)
	}
	s.AddTool(mcp.NewTool(unlistedTool, mcp.WithDescription("Reports calls to unknown tools")),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var name string
			if req.Params.Meta != nil {
				name, _ = req.Params.Meta.AdditionalFields[requestedTool].(string)
			}
			req.Params.Name = name
			return adapter.ToolAdapter(ctx, req)
		})
}

// routeUnknownTools renames calls for unserved tools to unlistedTool before
// mcp-go looks the name up. The requested name travels in _meta.
func routeUnknownTools(adapter ToolAdapter) *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(func(_ context.Context, _ any, req *mcp.CallToolRequest) {
		if adapter.Serves(req.Params.Name) {
			return
		}
		if req.Params.Meta == nil {
			req.Params.Meta = &mcp.Meta{}
		}
		if req.Params.Meta.AdditionalFields == nil {
			req.Params.Meta.AdditionalFields = map[string]any{}
		}
		req.Params.Meta.AdditionalFields[requestedTool] = req.Params.Name
		req.Params.Name = unlistedTool
	})
	return hooks
}

func hideUnlisted(_ context.Context, toolList []mcp.Tool) []mcp.Tool {
	out := make([]mcp.Tool, 0, len(toolList))
	for _, tool := range toolList {
		if tool.Name != unlistedTool {
			out = append(out, tool)
		}
	}
	return out
}

// ServeStdio runs the stdio transport until in is exhausted or ctx is
// cancelled. Cancellation is a clean shutdown and returns nil.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.MCP)
	if s.errorLog != nil {
		stdio.SetErrorLogger(s.errorLog)
	}
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
