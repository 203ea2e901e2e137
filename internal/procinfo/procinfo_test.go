package procinfo

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestSystem_ExecutablePathOfSelf(t *testing.T) {
	self, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable: %v", err)
	}

	got, err := System{}.ExecutablePath(int32(os.Getpid()))
	if err != nil {
		t.Fatalf("ExecutablePath() error: %v", err)
	}
	if want := Canonical(self); got != want {
		t.Fatalf("ExecutablePath() = %q, want %q", got, want)
	}
}

func TestSystem_CommandLineOfSelf(t *testing.T) {
	got, err := System{}.CommandLine(int32(os.Getpid()))
	if err != nil {
		t.Fatalf("CommandLine() error: %v", err)
	}
	if !strings.Contains(got, filepath.Base(os.Args[0])) {
		t.Fatalf("CommandLine() = %q, want it to contain %q", got, filepath.Base(os.Args[0]))
	}
}

func TestSystem_CommandLineJoinsArgsWithSpaces(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Skipf("cannot start sleep: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	got, err := System{}.CommandLine(int32(cmd.Process.Pid))
	if err != nil {
		t.Fatalf("CommandLine() error: %v", err)
	}
	if !strings.HasSuffix(got, "sleep 30") {
		t.Fatalf("CommandLine() = %q, want it to end with %q", got, "sleep 30")
	}
}

func TestSystem_ExitedProcessIsGone(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Run(); err != nil {
		t.Skipf("cannot run true: %v", err)
	}
	pid := int32(cmd.Process.Pid)

	if _, err := (System{}).ExecutablePath(pid); !errors.Is(err, ErrProcessGone) {
		t.Fatalf("ExecutablePath(exited) error = %v, want ErrProcessGone", err)
	}
	if _, err := (System{}).CommandLine(pid); !errors.Is(err, ErrProcessGone) {
		t.Fatalf("CommandLine(exited) error = %v, want ErrProcessGone", err)
	}
}

func TestCanonical_FollowsSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real-bin")
	if err := os.WriteFile(target, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("write: %v", err)
	}
	link := filepath.Join(dir, "link-bin")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	want, err := filepath.EvalSymlinks(target)
	if err != nil {
		t.Fatalf("EvalSymlinks: %v", err)
	}
	if got := Canonical(link); got != want {
		t.Fatalf("Canonical(link) = %q, want %q", got, want)
	}
	if got := Canonical(filepath.Join(dir, "missing")); got != filepath.Join(dir, "missing") {
		t.Fatalf("Canonical(missing) = %q", got)
	}
	if got := Canonical(""); got != "" {
		t.Fatalf("Canonical(\"\") = %q, want empty", got)
	}
}
