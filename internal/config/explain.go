package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths:
//
//	display
//	log_level
//	visibility_threshold
//	exclude_subwindows
//	watch_config
//	bindings
//	bindings[<key>]
//	bindings[<key>].bin_path
//	bindings[<key>].args
//	bindings[<key>].toggle_bin_path
//	bindings[<key>].match_mode
//	bindings[<key>].threshold
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	switch path {
	case "display":
		return cfg.Display, nil
	case "log_level":
		return cfg.LogLevel, nil
	case "visibility_threshold":
		return cfg.VisibilityThreshold, nil
	case "exclude_subwindows":
		return cfg.ExcludeSubwindows, nil
	case "watch_config":
		return cfg.WatchConfig, nil
	case "bindings":
		return cfg.Bindings, nil
	}

	if !strings.HasPrefix(path, "bindings[") {
		return nil, fmt.Errorf("unsupported path %q", path)
	}
	end := strings.Index(path, "]")
	if end < 0 {
		return nil, fmt.Errorf("unterminated binding key in %q", path)
	}
	key := path[len("bindings["):end]
	b, ok := cfg.Binding(key)
	if !ok {
		return nil, fmt.Errorf("no binding for key %q", key)
	}

	field := strings.TrimPrefix(path[end+1:], ".")
	switch field {
	case "":
		return b, nil
	case "bin_path":
		return b.BinPath, nil
	case "args":
		return b.Args, nil
	case "toggle_bin_path":
		return b.Pattern(), nil
	case "match_mode":
		return b.MatchMode, nil
	case "threshold":
		return cfg.ThresholdFor(b), nil
	default:
		return nil, fmt.Errorf("unsupported binding field %q", field)
	}
}
