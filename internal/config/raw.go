package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawBinding is a binding as written in a file. Unset fields stay nil so
// a later file can override single fields of a binding with the same key.
type RawBinding struct {
	Key           string    `yaml:"key"`
	BinPath       *string   `yaml:"bin_path"`
	Args          *[]string `yaml:"args"`
	ToggleBinPath *string   `yaml:"toggle_bin_path"`
	MatchMode     *string   `yaml:"match_mode"`
	Threshold     *float64  `yaml:"threshold"`
}

// RawConfig mirrors the file format with every field optional.
type RawConfig struct {
	Include             IncludeList  `yaml:"include"`
	Display             *string      `yaml:"display"`
	LogLevel            *string      `yaml:"log_level"`
	VisibilityThreshold *float64     `yaml:"visibility_threshold"`
	ExcludeSubwindows   *bool        `yaml:"exclude_subwindows"`
	WatchConfig         *bool        `yaml:"watch_config"`
	Bindings            []RawBinding `yaml:"bindings"`
}

// merge layers overlay on top of r. Bindings are matched by key: fields set
// in overlay replace the base binding's, new keys are appended in order.
func (r RawConfig) merge(overlay RawConfig) RawConfig {
	out := r
	out.Include = nil
	if overlay.Display != nil {
		out.Display = overlay.Display
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.VisibilityThreshold != nil {
		out.VisibilityThreshold = overlay.VisibilityThreshold
	}
	if overlay.ExcludeSubwindows != nil {
		out.ExcludeSubwindows = overlay.ExcludeSubwindows
	}
	if overlay.WatchConfig != nil {
		out.WatchConfig = overlay.WatchConfig
	}

	out.Bindings = append([]RawBinding(nil), r.Bindings...)
	for _, b := range overlay.Bindings {
		idx := -1
		for i := range out.Bindings {
			if b.Key != "" && out.Bindings[i].Key == b.Key {
				idx = i
				break
			}
		}
		if idx < 0 {
			out.Bindings = append(out.Bindings, b)
			continue
		}
		out.Bindings[idx] = mergeRawBinding(out.Bindings[idx], b)
	}
	return out
}

func mergeRawBinding(base RawBinding, overlay RawBinding) RawBinding {
	out := base
	if overlay.BinPath != nil {
		out.BinPath = overlay.BinPath
	}
	if overlay.Args != nil {
		out.Args = overlay.Args
	}
	if overlay.ToggleBinPath != nil {
		out.ToggleBinPath = overlay.ToggleBinPath
	}
	if overlay.MatchMode != nil {
		out.MatchMode = overlay.MatchMode
	}
	if overlay.Threshold != nil {
		out.Threshold = overlay.Threshold
	}
	return out
}
