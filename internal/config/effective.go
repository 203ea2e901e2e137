package config

import (
	"fmt"
	"strings"

	"github.com/1broseidon/xwintoggle/internal/ownership"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// bindingPath names a binding the way collectSources does: by key when it
// has one, by position otherwise.
func bindingPath(i int, key string) string {
	if strings.TrimSpace(key) != "" {
		return "bindings[" + key + "]"
	}
	return fmt.Sprintf("bindings.%d", i)
}

// BuildEffectiveConfig applies raw on top of DefaultConfig.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Display != nil {
		cfg.Display = *raw.Display
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(*raw.LogLevel))
	}
	if raw.VisibilityThreshold != nil {
		cfg.VisibilityThreshold = *raw.VisibilityThreshold
	}
	if raw.ExcludeSubwindows != nil {
		cfg.ExcludeSubwindows = *raw.ExcludeSubwindows
	}
	if raw.WatchConfig != nil {
		cfg.WatchConfig = *raw.WatchConfig
	}

	cfg.Bindings = make([]Binding, 0, len(raw.Bindings))
	for i, rb := range raw.Bindings {
		b := Binding{Key: strings.TrimSpace(rb.Key)}
		if rb.BinPath != nil {
			b.BinPath = expandHome(strings.TrimSpace(*rb.BinPath))
		}
		if rb.Args != nil {
			b.Args = append([]string(nil), (*rb.Args)...)
		}
		if rb.ToggleBinPath != nil {
			b.ToggleBinPath = expandHome(strings.TrimSpace(*rb.ToggleBinPath))
		}
		mode := ""
		if rb.MatchMode != nil {
			mode = *rb.MatchMode
		}
		m, err := ownership.ParseMatchMode(mode)
		if err != nil {
			return nil, &ValidationError{Path: bindingPath(i, b.Key) + ".match_mode", Err: err}
		}
		b.MatchMode = m
		if rb.Threshold != nil {
			t := *rb.Threshold
			b.Threshold = &t
		}
		cfg.Bindings = append(cfg.Bindings, b)
	}

	return cfg, nil
}
