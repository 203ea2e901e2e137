// Package toggle shows, hides or launches the program behind a binding.
package toggle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/procinfo"
	"github.com/1broseidon/xwintoggle/internal/visibility"
)

// ErrUnknownBinding is returned by Toggle for a key without a binding.
var ErrUnknownBinding = errors.New("no binding for key")

// Launcher starts a program without waiting for it.
type Launcher interface {
	Launch(path string, args []string) (int, error)
}

// Action is what a toggle did.
type Action string

const (
	ActionLaunched Action = "launched"
	ActionShown    Action = "shown"
	ActionHidden   Action = "hidden"
)

// Outcome describes the result of one toggle.
type Outcome struct {
	Key     string              `json:"key"`
	Action  Action              `json:"action"`
	Windows []platform.WindowID `json:"windows,omitempty"`
	PID     int                 `json:"pid,omitempty"`
}

// WindowInfo describes a window owned by a matching process.
type WindowInfo struct {
	ID          platform.WindowID `json:"id"`
	PID         int32             `json:"pid"`
	Executable  string            `json:"executable,omitempty"`
	CommandLine string            `json:"command_line,omitempty"`
	Class       string            `json:"class,omitempty"`
	Title       string            `json:"title,omitempty"`
	Mapped      bool              `json:"mapped"`
	State       string            `json:"state,omitempty"`
}

// Service runs window queries and toggles one at a time. Hotkeys, IPC and
// MCP all go through it.
type Service struct {
	mu       sync.Mutex
	backend  platform.Backend
	procs    procinfo.Resolver
	launcher Launcher
	logger   *slog.Logger
	cfg      *config.Config
}

// NewService creates a service. A nil logger uses slog.Default().
func NewService(backend platform.Backend, procs procinfo.Resolver, launcher Launcher, cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Service{
		backend:  backend,
		procs:    procs,
		launcher: launcher,
		logger:   logger,
		cfg:      cfg,
	}
}

// Config returns the active configuration.
func (s *Service) Config() *config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig swaps the active configuration.
func (s *Service) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// Toggle toggles the binding registered for key.
func (s *Service) Toggle(key string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.cfg.Binding(key)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownBinding, key)
	}
	return s.toggle(b)
}

// ToggleBinding toggles b using the active configuration's defaults.
func (s *Service) ToggleBinding(b config.Binding) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggle(b)
}

// client is a matched window that the window manager manages.
type client struct {
	id    platform.WindowID
	state platform.WMState
}

func (s *Service) toggle(b config.Binding) (Outcome, error) {
	out := Outcome{Key: b.Key}
	threshold := s.cfg.ThresholdFor(b)

	owned, err := s.resolver().FindOwned(s.backend.Root(), b.Pattern(), b.MatchMode)
	if err != nil {
		return out, fmt.Errorf("find windows for %q: %w", b.Key, err)
	}

	clients, err := s.clients(owned)
	if err != nil {
		return out, err
	}

	if len(clients) == 0 {
		pid, err := s.launcher.Launch(b.BinPath, b.Args)
		if err != nil {
			return out, err
		}
		out.Action = ActionLaunched
		out.PID = pid
		return out, nil
	}

	show, err := s.needsShow(clients, threshold)
	if err != nil {
		return out, err
	}

	if show {
		out.Action = ActionShown
		out.Windows, err = s.show(clients)
	} else {
		out.Action = ActionHidden
		out.Windows, err = s.hide(clients)
	}
	if err != nil {
		return out, err
	}
	s.logger.Debug("toggled binding", "key", b.Key, "action", out.Action, "windows", len(out.Windows))
	return out, nil
}

// clients keeps the windows carrying WM_STATE. Windows without it (group
// leaders, override-redirect helpers) are never managed by the window
// manager and cannot be shown or hidden.
func (s *Service) clients(owned []platform.WindowID) ([]client, error) {
	var out []client
	for _, w := range owned {
		prop, err := s.backend.Property(w, platform.WMStateProperty)
		if err != nil {
			if isMiss(err) {
				continue
			}
			return nil, err
		}
		state, err := platform.DecodeWMState(prop)
		if err != nil {
			s.logger.Debug("skipping window", "window", hex(w), "error", err)
			continue
		}
		out = append(out, client{id: w, state: state})
	}
	return out, nil
}

// needsShow reports whether any client is minimized, withdrawn or mostly
// covered.
func (s *Service) needsShow(clients []client, threshold float64) (bool, error) {
	engine := s.engine()
	for _, c := range clients {
		if c.state != platform.WMStateNormal {
			return true, nil
		}
		visible, err := engine.IsVisible(c.id, threshold)
		if err != nil {
			return false, err
		}
		if !visible {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) show(clients []client) ([]platform.WindowID, error) {
	var shown []platform.WindowID
	for _, c := range clients {
		if c.state != platform.WMStateNormal {
			// Withdrawing first moves an iconified window to the current
			// desktop when it is mapped again.
			if err := s.backend.Withdraw(c.id); err != nil {
				if isMiss(err) {
					continue
				}
				return shown, err
			}
		}
		if err := s.backend.MapRaised(c.id); err != nil {
			if isMiss(err) {
				continue
			}
			return shown, err
		}
		shown = append(shown, c.id)
	}

	if len(shown) > 0 {
		last := shown[len(shown)-1]
		if err := s.backend.Activate(last); err != nil && !isMiss(err) {
			return shown, err
		}
	}
	return shown, nil
}

func (s *Service) hide(clients []client) ([]platform.WindowID, error) {
	var hidden []platform.WindowID
	for _, c := range clients {
		if err := s.backend.Iconify(c.id); err != nil {
			if isMiss(err) {
				continue
			}
			return hidden, err
		}
		hidden = append(hidden, c.id)
	}
	return hidden, nil
}

// FindWindows lists the windows whose process matches pattern.
func (s *Service) FindWindows(pattern string, mode ownership.MatchMode) ([]WindowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.resolver().FindMatches(s.backend.Root(), pattern, mode)
	if err != nil {
		return nil, err
	}

	engine := s.engine()
	describer, _ := s.backend.(platform.Describer)

	infos := make([]WindowInfo, 0, len(matches))
	for _, m := range matches {
		info := WindowInfo{
			ID:          m.Window,
			PID:         m.Identity.PID,
			Executable:  m.Identity.Executable,
			CommandLine: m.Identity.CommandLine,
		}
		info.Mapped, err = engine.IsMapped(m.Window)
		if err != nil {
			return nil, err
		}
		if prop, err := s.backend.Property(m.Window, platform.WMStateProperty); err == nil {
			if state, err := platform.DecodeWMState(prop); err == nil {
				info.State = state.String()
			}
		}
		if describer != nil {
			info.Class, info.Title = describer.Describe(m.Window)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Visibility reports how much of w is visible. A negative threshold uses
// the configured visibility_threshold.
func (s *Service) Visibility(w platform.WindowID, threshold float64) (visibility.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threshold < 0 {
		threshold = s.cfg.VisibilityThreshold
	}
	return s.engine().Inspect(w, threshold)
}

func (s *Service) resolver() *ownership.Resolver {
	return ownership.NewResolver(s.backend, s.procs, s.logger)
}

func (s *Service) engine() *visibility.Engine {
	return visibility.NewEngine(s.backend, visibility.Options{ExcludeSubwindows: s.cfg.ExcludeSubwindows})
}

func isMiss(err error) bool {
	return errors.Is(err, platform.ErrWindowGone) || errors.Is(err, platform.ErrPropertyMissing)
}

func hex(w platform.WindowID) string {
	return fmt.Sprintf("0x%x", uint32(w))
}
