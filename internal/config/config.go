package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/1broseidon/xwintoggle/internal/ownership"
)

// Binding ties a key sequence to a program.
type Binding struct {
	// Key is an xgbutil keybind sequence such as "Mod4-t".
	Key string `yaml:"key" json:"key"`
	// BinPath is the program to launch when no window of it exists.
	BinPath string   `yaml:"bin_path" json:"bin_path"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	// ToggleBinPath is the pattern windows are matched against. Empty means
	// BinPath.
	ToggleBinPath string              `yaml:"toggle_bin_path,omitempty" json:"toggle_bin_path,omitempty"`
	MatchMode     ownership.MatchMode `yaml:"match_mode" json:"match_mode"`
	// Threshold overrides Config.VisibilityThreshold when set.
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
}

// Pattern returns what windows of this binding are matched against.
func (b Binding) Pattern() string {
	if strings.TrimSpace(b.ToggleBinPath) != "" {
		return b.ToggleBinPath
	}
	return b.BinPath
}

type Config struct {
	Display             string    `yaml:"display,omitempty"`
	LogLevel            string    `yaml:"log_level"`
	VisibilityThreshold float64   `yaml:"visibility_threshold"`
	ExcludeSubwindows   bool      `yaml:"exclude_subwindows"`
	WatchConfig         bool      `yaml:"watch_config"`
	Bindings            []Binding `yaml:"bindings"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel:            "info",
		VisibilityThreshold: 0.9,
		WatchConfig:         true,
	}
}

// ThresholdFor returns the visibility threshold that applies to b.
func (c *Config) ThresholdFor(b Binding) float64 {
	if b.Threshold != nil {
		return *b.Threshold
	}
	return c.VisibilityThreshold
}

// Binding looks up a binding by key.
func (c *Config) Binding(key string) (Binding, bool) {
	for _, b := range c.Bindings {
		if b.Key == key {
			return b, true
		}
	}
	return Binding{}, false
}

// SlogLevel maps log_level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// validate checks a configuration; the daemon additionally needs at least
// one binding.
func (c *Config) validate(requireBindings bool) error {
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.VisibilityThreshold < 0 || c.VisibilityThreshold > 1 {
		return &ValidationError{Path: "visibility_threshold", Err: fmt.Errorf("visibility_threshold must be within [0, 1]")}
	}
	if requireBindings && len(c.Bindings) == 0 {
		return &ValidationError{Path: "bindings", Err: fmt.Errorf("at least one binding is required")}
	}

	seen := make(map[string]int, len(c.Bindings))
	for i, b := range c.Bindings {
		path := bindingPath(i, b.Key)
		if strings.TrimSpace(b.Key) == "" {
			return &ValidationError{Path: path + ".key", Err: fmt.Errorf("key is required")}
		}
		if prev, ok := seen[b.Key]; ok {
			return &ValidationError{Path: path + ".key", Err: fmt.Errorf("key %q bound more than once (first at position %d)", b.Key, prev)}
		}
		seen[b.Key] = i
		if strings.TrimSpace(b.BinPath) == "" {
			return &ValidationError{Path: path + ".bin_path", Err: fmt.Errorf("bin_path is required")}
		}
		if _, err := ownership.ParseMatchMode(string(b.MatchMode)); err != nil {
			return &ValidationError{Path: path + ".match_mode", Err: err}
		}
		if b.Threshold != nil && (*b.Threshold < 0 || *b.Threshold > 1) {
			return &ValidationError{Path: path + ".threshold", Err: fmt.Errorf("threshold must be within [0, 1]")}
		}
	}
	return nil
}
