package mcp

import (
	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/toggle"
)

// FindWindowsInput is the input for the find_windows tool.
type FindWindowsInput struct {
	Pattern   string `json:"pattern" jsonschema:"Executable path to match, or a substring of the command line when match_mode is cmdline"`
	MatchMode string `json:"match_mode,omitempty" jsonschema:"exact_path (default) or cmdline"`
}

// FindWindowsOutput is the output for the find_windows tool.
type FindWindowsOutput struct {
	Windows []toggle.WindowInfo `json:"windows"`
}

// WindowVisibilityInput is the input for the window_visibility tool.
type WindowVisibilityInput struct {
	Window    uint32   `json:"window" jsonschema:"X11 window id"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"Minimum unoccluded fraction in [0,1] (default: visibility_threshold from config)"`
}

// ToggleBindingInput is the input for the toggle_binding tool.
type ToggleBindingInput struct {
	Key string `json:"key" jsonschema:"Hotkey of a configured binding, e.g. Mod4-t"`
}

// ListBindingsInput is the input for the list_bindings tool.
type ListBindingsInput struct{}

// ListBindingsOutput is the output for the list_bindings tool.
type ListBindingsOutput struct {
	Bindings []config.Binding `json:"bindings"`
}
