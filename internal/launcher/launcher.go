//go:build unix

// Package launcher starts bound programs detached from the daemon.
package launcher

import (
	"fmt"
	"log/slog"
	"os/exec"
	"syscall"
)

// Launcher starts programs in their own session so they outlive the daemon
// and do not receive its terminal signals.
type Launcher struct {
	logger *slog.Logger
}

// New creates a launcher. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{logger: logger}
}

// Launch starts path with args and returns its pid without waiting for it.
// The child is reaped in the background.
func (l *Launcher) Launch(path string, args []string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("empty program path")
	}

	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to launch %q: %w", path, err)
	}

	pid := cmd.Process.Pid
	l.logger.Info("launched program", "path", path, "pid", pid)

	go func() {
		err := cmd.Wait()
		l.logger.Debug("program exited", "path", path, "pid", pid, "error", err)
	}()
	return pid, nil
}
