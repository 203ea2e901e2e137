package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/toggle"
	"github.com/1broseidon/xwintoggle/internal/visibility"
)

func (s *Server) handleFindWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args FindWindowsInput) (*mcpsdk.CallToolResult, FindWindowsOutput, error) {
	if args.Pattern == "" {
		return nil, FindWindowsOutput{}, fmt.Errorf("pattern is required")
	}
	mode, err := ownership.ParseMatchMode(args.MatchMode)
	if err != nil {
		return nil, FindWindowsOutput{}, err
	}

	windows, err := s.service.FindWindows(args.Pattern, mode)
	if err != nil {
		s.logger.Warn("find_windows failed", "pattern", args.Pattern, "error", err)
		return nil, FindWindowsOutput{}, fmt.Errorf("failed to find windows for %q: %w", args.Pattern, err)
	}
	if windows == nil {
		windows = []toggle.WindowInfo{}
	}
	return nil, FindWindowsOutput{Windows: windows}, nil
}

func (s *Server) handleWindowVisibility(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowVisibilityInput) (*mcpsdk.CallToolResult, visibility.Report, error) {
	if args.Window == 0 {
		return nil, visibility.Report{}, fmt.Errorf("window is required")
	}

	threshold := -1.0
	if args.Threshold != nil {
		if *args.Threshold < 0 {
			return nil, visibility.Report{}, visibility.ErrInvalidThreshold
		}
		threshold = *args.Threshold
	}

	report, err := s.service.Visibility(platform.WindowID(args.Window), threshold)
	if err != nil {
		return nil, visibility.Report{}, fmt.Errorf("failed to compute visibility of 0x%x: %w", args.Window, err)
	}
	return nil, report, nil
}

func (s *Server) handleToggleBinding(_ context.Context, _ *mcpsdk.CallToolRequest, args ToggleBindingInput) (*mcpsdk.CallToolResult, toggle.Outcome, error) {
	if args.Key == "" {
		return nil, toggle.Outcome{}, fmt.Errorf("key is required")
	}

	out, err := s.service.Toggle(args.Key)
	if err != nil {
		return nil, toggle.Outcome{}, fmt.Errorf("failed to toggle %s: %w", args.Key, err)
	}
	s.logger.Info("toggled binding", "key", args.Key, "action", out.Action, "windows", len(out.Windows))

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: fmt.Sprintf("%s: %s (%d windows)", args.Key, out.Action, len(out.Windows))},
		},
	}, out, nil
}

func (s *Server) handleListBindings(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListBindingsInput) (*mcpsdk.CallToolResult, ListBindingsOutput, error) {
	bindings := []config.Binding{}
	if cfg := s.service.Config(); cfg != nil {
		bindings = append(bindings, cfg.Bindings...)
	}
	return nil, ListBindingsOutput{Bindings: bindings}, nil
}
