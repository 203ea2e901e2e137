package toggle

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/platform/platformtest"
	"github.com/1broseidon/xwintoggle/internal/procinfo"
)

const (
	root platform.WindowID = 0x100
	term                   = "/usr/bin/alacritty"
)

type procs map[int32]string

func (p procs) ExecutablePath(pid int32) (string, error) {
	exe, ok := p[pid]
	if !ok {
		return "", fmt.Errorf("pid %d: %w", pid, procinfo.ErrProcessGone)
	}
	return exe, nil
}

func (p procs) CommandLine(pid int32) (string, error) {
	exe, err := p.ExecutablePath(pid)
	return exe + " --flag", err
}

type fakeLauncher struct {
	calls [][]string
	err   error
}

func (l *fakeLauncher) Launch(path string, args []string) (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.calls = append(l.calls, append([]string{path}, args...))
	return 4242, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bindings = []config.Binding{{
		Key:       "Mod4-t",
		BinPath:   term,
		Args:      []string{"--class", "scratch"},
		MatchMode: ownership.MatchExactPath,
	}}
	return cfg
}

// terminalDesktop holds a reparented terminal client 0x11 inside frame 0x1
// and an unrelated window 0x2 off to the side.
func terminalDesktop() *platformtest.Backend {
	b := platformtest.New(root)
	b.Add(root, 0x1, 100, 100, 800, 600)
	client := b.Add(0x1, 0x11, 0, 20, 800, 580)
	client.SetPID(10)
	client.SetWMState(platform.WMStateNormal)
	client.Class = "Alacritty"
	client.Title = "scratch"
	b.Add(root, 0x2, 1000, 0, 400, 400)
	return b
}

func newService(b *platformtest.Backend, l *fakeLauncher) *Service {
	return NewService(b, procs{10: term, 20: "/usr/bin/firefox"}, l, testConfig(), nil)
}

func TestToggle_LaunchesWhenNoWindow(t *testing.T) {
	b := platformtest.New(root)
	l := &fakeLauncher{}

	out, err := newService(b, l).Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if out.Action != ActionLaunched || out.PID != 4242 {
		t.Fatalf("Toggle() = %+v, want launched pid 4242", out)
	}
	want := [][]string{{term, "--class", "scratch"}}
	if !reflect.DeepEqual(l.calls, want) {
		t.Fatalf("launch calls = %v, want %v", l.calls, want)
	}
}

func TestToggle_HidesVisibleWindows(t *testing.T) {
	b := terminalDesktop()
	l := &fakeLauncher{}

	out, err := newService(b, l).Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if out.Action != ActionHidden {
		t.Fatalf("Toggle() action = %s, want hidden", out.Action)
	}
	if want := []string{"Iconify:0x11"}; !reflect.DeepEqual(b.Calls, want) {
		t.Fatalf("calls = %v, want %v", b.Calls, want)
	}
	if len(l.calls) != 0 {
		t.Fatalf("unexpected launch: %v", l.calls)
	}
}

func TestToggle_ShowsIconifiedWindows(t *testing.T) {
	b := terminalDesktop()
	w := b.Window(0x11)
	w.SetWMState(platform.WMStateIconic)
	w.Attrs.MapState = platform.MapUnmapped

	out, err := newService(b, &fakeLauncher{}).Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if out.Action != ActionShown {
		t.Fatalf("Toggle() action = %s, want shown", out.Action)
	}
	want := []string{"Withdraw:0x11", "MapRaised:0x11", "Activate:0x11"}
	if !reflect.DeepEqual(b.Calls, want) {
		t.Fatalf("calls = %v, want %v", b.Calls, want)
	}
}

func TestToggle_RaisesCoveredWindow(t *testing.T) {
	b := terminalDesktop()
	// A window stacked on top covering the whole terminal frame.
	b.Add(root, 0x3, 0, 0, 1920, 1080)

	out, err := newService(b, &fakeLauncher{}).Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if out.Action != ActionShown {
		t.Fatalf("Toggle() action = %s, want shown", out.Action)
	}
	want := []string{"MapRaised:0x11", "Activate:0x11"}
	if !reflect.DeepEqual(b.Calls, want) {
		t.Fatalf("calls = %v, want %v", b.Calls, want)
	}
}

func TestToggle_BindingThresholdOverride(t *testing.T) {
	b := terminalDesktop()
	// Covers the left half of the client (client spans x 100..900).
	b.Add(root, 0x3, 100, 100, 400, 600)

	svc := newService(b, &fakeLauncher{})
	cfg := testConfig()
	low := 0.4
	cfg.Bindings[0].Threshold = &low
	svc.SetConfig(cfg)

	out, err := svc.Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if out.Action != ActionHidden {
		t.Fatalf("with threshold 0.4 a half-covered window counts as visible, got %s", out.Action)
	}
}

func TestToggle_RoundTrip(t *testing.T) {
	b := terminalDesktop()
	svc := newService(b, &fakeLauncher{})

	var actions []Action
	for i := 0; i < 3; i++ {
		out, err := svc.Toggle("Mod4-t")
		if err != nil {
			t.Fatalf("Toggle() #%d error: %v", i, err)
		}
		actions = append(actions, out.Action)
	}
	want := []Action{ActionHidden, ActionShown, ActionHidden}
	if !reflect.DeepEqual(actions, want) {
		t.Fatalf("actions = %v, want %v", actions, want)
	}
}

func TestToggle_IgnoresUnmanagedWindows(t *testing.T) {
	b := platformtest.New(root)
	// A group leader: has a pid but no WM_STATE.
	b.Add(root, 0x5, 0, 0, 10, 10).SetPID(10)
	l := &fakeLauncher{}

	out, err := newService(b, l).Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle() error: %v", err)
	}
	if out.Action != ActionLaunched || len(b.Calls) != 0 {
		t.Fatalf("Toggle() = %+v with calls %v, want launch only", out, b.Calls)
	}
}

func TestToggle_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := newService(terminalDesktop(), &fakeLauncher{}).Toggle("F13")
		if !errors.Is(err, ErrUnknownBinding) {
			t.Fatalf("Toggle() error = %v, want ErrUnknownBinding", err)
		}
	})

	t.Run("disconnected", func(t *testing.T) {
		b := terminalDesktop()
		b.Disconnected = true
		_, err := newService(b, &fakeLauncher{}).Toggle("Mod4-t")
		if !errors.Is(err, platform.ErrDisconnected) {
			t.Fatalf("Toggle() error = %v, want ErrDisconnected", err)
		}
	})

	t.Run("launch failure", func(t *testing.T) {
		launchErr := errors.New("exec format error")
		_, err := newService(platformtest.New(root), &fakeLauncher{err: launchErr}).Toggle("Mod4-t")
		if !errors.Is(err, launchErr) {
			t.Fatalf("Toggle() error = %v, want launch error", err)
		}
	})
}

func TestFindWindows(t *testing.T) {
	b := terminalDesktop()
	b.Window(0x2).SetPID(20)

	infos, err := newService(b, &fakeLauncher{}).FindWindows("alacritty", ownership.MatchCmdline)
	if err != nil {
		t.Fatalf("FindWindows() error: %v", err)
	}
	want := []WindowInfo{{
		ID:          0x11,
		PID:         10,
		CommandLine: term + " --flag",
		Class:       "Alacritty",
		Title:       "scratch",
		Mapped:      true,
		State:       "normal",
	}}
	if !reflect.DeepEqual(infos, want) {
		t.Fatalf("FindWindows() = %+v, want %+v", infos, want)
	}
}

func TestVisibility_DefaultThreshold(t *testing.T) {
	b := terminalDesktop()
	b.Add(root, 0x3, 100, 100, 400, 600)
	svc := newService(b, &fakeLauncher{})

	r, err := svc.Visibility(0x11, -1)
	if err != nil {
		t.Fatalf("Visibility() error: %v", err)
	}
	if r.Threshold != 0.9 || r.Visible {
		t.Fatalf("Visibility() = %+v, want hidden at threshold 0.9", r)
	}

	r, err = svc.Visibility(0x11, 0.5)
	if err != nil {
		t.Fatalf("Visibility() error: %v", err)
	}
	if !r.Visible {
		t.Fatalf("Visibility(0.5) = %+v, want visible", r)
	}
}
