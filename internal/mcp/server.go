package mcp

import (
	"context"
	"fmt"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/toggle"
	"github.com/1broseidon/xwintoggle/internal/visibility"
)

const (
	ServerName    = "xwintoggle"
	ServerVersion = "0.1.0"
)

// Service is the window functionality exposed as MCP tools.
type Service interface {
	Config() *config.Config
	Toggle(key string) (toggle.Outcome, error)
	FindWindows(pattern string, mode ownership.MatchMode) ([]toggle.WindowInfo, error)
	Visibility(w platform.WindowID, threshold float64) (visibility.Report, error)
}

// Server is the MCP server for window queries and toggling.
type Server struct {
	mcpServer *mcpsdk.Server
	service   Service
	logger    *slog.Logger
}

// NewServer creates a new MCP server over svc.
func NewServer(svc Service, logger *slog.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("MCP server needs a service")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{service: svc, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "find_windows",
		Description: "List X11 windows owned by processes matching a pattern. exact_path compares the canonical executable path; cmdline matches a substring of the full command line. Each window reports its pid, executable, class, title and WM_STATE.",
	}, s.handleFindWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "window_visibility",
		Description: "Report whether a window is mapped and what fraction of its area is not covered by windows stacked above it. The window counts as visible when that fraction reaches the threshold.",
	}, s.handleWindowVisibility)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "toggle_binding",
		Description: "Toggle the program of a configured binding: launch it when no window exists, raise it when hidden or covered, otherwise iconify it.",
	}, s.handleToggleBinding)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_bindings",
		Description: "List the configured bindings with their key, program and match settings.",
	}, s.handleListBindings)
}
