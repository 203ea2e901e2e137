// Package procinfo resolves process identifiers to executables and command
// lines.
package procinfo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrProcessGone reports a process that exited before it could be inspected.
var ErrProcessGone = errors.New("process no longer exists")

// Identity describes the process owning a window.
type Identity struct {
	PID int32
	// Executable is the canonical path of the process image, symlinks
	// resolved. Empty unless requested.
	Executable string
	// CommandLine is the process arguments joined by spaces. Empty unless
	// requested.
	CommandLine string
}

// Resolver looks up process details by PID.
type Resolver interface {
	ExecutablePath(pid int32) (string, error)
	CommandLine(pid int32) (string, error)
}

// System resolves processes from the running system.
type System struct{}

var _ Resolver = System{}

// ExecutablePath returns the canonical executable path for pid.
func (System) ExecutablePath(pid int32) (string, error) {
	p, err := open(pid)
	if err != nil {
		return "", err
	}

	exe, err := p.Exe()
	if err != nil {
		return "", gone(pid, err)
	}
	return Canonical(exe), nil
}

// CommandLine returns the full command line of pid with its arguments
// joined by single spaces. Argument boundaries are not preserved, so a
// pattern can span two arguments and an argument containing a space cannot
// be told apart from two.
func (System) CommandLine(pid int32) (string, error) {
	p, err := open(pid)
	if err != nil {
		return "", err
	}

	cmdline, err := p.Cmdline()
	if err != nil {
		return "", gone(pid, err)
	}
	return cmdline, nil
}

// Canonical resolves path to an absolute, symlink-free path. Paths that do
// not exist are returned cleaned but otherwise unchanged.
func Canonical(path string) string {
	if path == "" {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs
	}
	return real
}

func open(pid int32) (*process.Process, error) {
	if pid <= 0 {
		return nil, fmt.Errorf("invalid pid %d", pid)
	}
	p, err := process.NewProcess(pid)
	if err != nil {
		return nil, gone(pid, err)
	}
	return p, nil
}

// gone maps the ways an exited process shows up (missing /proc entry,
// gopsutil's not-running error) to ErrProcessGone.
func gone(pid int32, err error) error {
	if errors.Is(err, process.ErrorProcessNotRunning) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("pid %d: %w", pid, ErrProcessGone)
	}
	return fmt.Errorf("pid %d: %w", pid, err)
}
