// Package ownership finds the windows that belong to a given program.
package ownership

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/procinfo"
	"github.com/1broseidon/xwintoggle/internal/wintree"
)

// MatchMode selects how a window's process is compared with a pattern.
type MatchMode string

const (
	// MatchExactPath compares the canonical executable path for equality.
	MatchExactPath MatchMode = "exact_path"
	// MatchCmdline checks whether the command line, arguments joined by
	// single spaces, contains the pattern.
	MatchCmdline MatchMode = "cmdline"
)

// ParseMatchMode validates a match mode string. Empty selects MatchExactPath.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.TrimSpace(s)) {
	case "", MatchExactPath:
		return MatchExactPath, nil
	case MatchCmdline:
		return MatchCmdline, nil
	default:
		return "", fmt.Errorf("unknown match mode %q (want %s or %s)", s, MatchExactPath, MatchCmdline)
	}
}

// Match is a window owned by a matching process.
type Match struct {
	Window   platform.WindowID
	Identity procinfo.Identity
}

// Resolver matches windows to processes.
type Resolver struct {
	q      platform.Querier
	walker *wintree.Walker
	procs  procinfo.Resolver
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger uses slog.Default().
func NewResolver(q platform.Querier, procs procinfo.Resolver, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		q:      q,
		walker: wintree.NewWalker(q),
		procs:  procs,
		logger: logger,
	}
}

// FindOwned returns the windows below root whose owning process matches
// pattern, in traversal order.
func (r *Resolver) FindOwned(root platform.WindowID, pattern string, mode MatchMode) ([]platform.WindowID, error) {
	matches, err := r.FindMatches(root, pattern, mode)
	if err != nil {
		return nil, err
	}
	ids := make([]platform.WindowID, len(matches))
	for i, m := range matches {
		ids[i] = m.Window
	}
	return ids, nil
}

// FindMatches is FindOwned with the resolved process identity of each window.
func (r *Resolver) FindMatches(root platform.WindowID, pattern string, mode MatchMode) ([]Match, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty match pattern")
	}
	if mode == MatchExactPath {
		pattern = procinfo.Canonical(pattern)
	}

	nodes, err := r.walker.Walk(root)
	if err != nil {
		return nil, err
	}

	// Several windows of one client share a PID; resolve each once per call.
	seen := make(map[int32]*procinfo.Identity)

	var matches []Match
	for _, n := range nodes {
		pid, err := r.windowPID(n.ID)
		if err != nil {
			if isMiss(err) {
				continue
			}
			return nil, err
		}

		ident, ok := seen[pid]
		if !ok {
			ident = r.identify(pid, mode)
			seen[pid] = ident
		}
		if ident == nil || !matchesPattern(*ident, pattern, mode) {
			continue
		}

		r.logger.Debug("found window", "pid", pid, "window", fmt.Sprintf("0x%x", uint32(n.ID)))
		matches = append(matches, Match{Window: n.ID, Identity: *ident})
	}
	return matches, nil
}

// windowPID reads and decodes _NET_WM_PID.
func (r *Resolver) windowPID(w platform.WindowID) (int32, error) {
	prop, err := r.q.Property(w, platform.PIDProperty)
	if err != nil {
		return 0, err
	}
	pid, err := platform.DecodeCardinal(prop)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", platform.ErrPropertyMissing, err)
	}
	return int32(pid), nil
}

// identify resolves what mode needs about pid, or nil when the process
// cannot be inspected.
func (r *Resolver) identify(pid int32, mode MatchMode) *procinfo.Identity {
	ident := &procinfo.Identity{PID: pid}

	var err error
	switch mode {
	case MatchCmdline:
		ident.CommandLine, err = r.procs.CommandLine(pid)
	default:
		ident.Executable, err = r.procs.ExecutablePath(pid)
	}
	if err != nil {
		r.logger.Debug("skipping process", "pid", pid, "error", err)
		return nil
	}
	return ident
}

func matchesPattern(ident procinfo.Identity, pattern string, mode MatchMode) bool {
	switch mode {
	case MatchCmdline:
		return strings.Contains(ident.CommandLine, pattern)
	default:
		return ident.Executable == pattern
	}
}

// isMiss reports errors that only affect a single window.
func isMiss(err error) bool {
	return errors.Is(err, platform.ErrWindowGone) ||
		errors.Is(err, platform.ErrPropertyMissing)
}
