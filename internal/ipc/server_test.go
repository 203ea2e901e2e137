package ipc

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/toggle"
	"github.com/1broseidon/xwintoggle/internal/visibility"
)

// stubService is called from server goroutines.
type stubService struct {
	mu  sync.Mutex
	cfg *config.Config

	toggled   []string
	findMode  ownership.MatchMode
	threshold float64
}

func (s *stubService) Config() *config.Config { return s.cfg }

func (s *stubService) seen() (toggled []string, mode ownership.MatchMode, threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.toggled...), s.findMode, s.threshold
}

func (s *stubService) Toggle(key string) (toggle.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if key == "F13" {
		return toggle.Outcome{}, toggle.ErrUnknownBinding
	}
	s.toggled = append(s.toggled, key)
	return toggle.Outcome{Key: key, Action: toggle.ActionShown, Windows: []platform.WindowID{0x11}}, nil
}

func (s *stubService) FindWindows(pattern string, mode ownership.MatchMode) ([]toggle.WindowInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findMode = mode
	if pattern == "none" {
		return nil, nil
	}
	return []toggle.WindowInfo{{ID: 0x11, PID: 10, Class: "Alacritty", Mapped: true}}, nil
}

func (s *stubService) Visibility(w platform.WindowID, threshold float64) (visibility.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = threshold
	return visibility.Report{Window: w, Mapped: true, Fraction: 0.5001, Threshold: threshold, Visible: threshold <= 0.5}, nil
}

func startServer(t *testing.T, svc *stubService, reload func() error) (*Server, *Client) {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "x.sock")
	srv, err := NewServer(ServerOptions{
		SocketPath: socket,
		Service:    svc,
		Reload:     reload,
		Keys:       func() []string { return []string{"Mod4-t"} },
		ConfigPath: "/etc/xwintoggle.yaml",
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv, NewClientAt(socket)
}

func newStub() *stubService {
	cfg := config.DefaultConfig()
	cfg.Display = ":7"
	return &stubService{cfg: cfg}
}

func TestServer_SocketPermissions(t *testing.T) {
	srv, _ := startServer(t, newStub(), nil)
	info, err := os.Stat(srv.SocketPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("socket mode = %o, want 600", perm)
	}
}

func TestServer_GetStatus(t *testing.T) {
	_, c := startServer(t, newStub(), nil)

	status, err := c.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.DaemonRunning || status.Display != ":7" || status.ConfigPath != "/etc/xwintoggle.yaml" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if !reflect.DeepEqual(status.Bindings, []string{"Mod4-t"}) {
		t.Fatalf("bindings = %v", status.Bindings)
	}
	if err := c.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestServer_Toggle(t *testing.T) {
	svc := newStub()
	_, c := startServer(t, svc, nil)

	out, err := c.Toggle("Mod4-t")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if out.Action != toggle.ActionShown || !reflect.DeepEqual(out.Windows, []platform.WindowID{0x11}) {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if toggled, _, _ := svc.seen(); !reflect.DeepEqual(toggled, []string{"Mod4-t"}) {
		t.Fatalf("service toggled %v", toggled)
	}

	if _, err := c.Toggle("F13"); err == nil || !strings.Contains(err.Error(), "no binding") {
		t.Fatalf("expected unknown binding error, got %v", err)
	}
	if _, err := c.Toggle(""); err == nil || !strings.Contains(err.Error(), "key is required") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestServer_FindWindows(t *testing.T) {
	svc := newStub()
	_, c := startServer(t, svc, nil)

	windows, err := c.FindWindows("alacritty", "cmdline")
	if err != nil {
		t.Fatalf("FindWindows: %v", err)
	}
	if len(windows) != 1 || windows[0].ID != 0x11 || windows[0].Class != "Alacritty" {
		t.Fatalf("unexpected windows: %+v", windows)
	}
	if _, mode, _ := svc.seen(); mode != ownership.MatchCmdline {
		t.Fatalf("match mode = %q, want cmdline", mode)
	}

	windows, err = c.FindWindows("none", "")
	if err != nil {
		t.Fatalf("FindWindows: %v", err)
	}
	if windows == nil || len(windows) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", windows)
	}
	if _, mode, _ := svc.seen(); mode != ownership.MatchExactPath {
		t.Fatalf("default match mode = %q, want exact_path", mode)
	}

	if _, err := c.FindWindows("x", "regex"); err == nil {
		t.Fatal("expected invalid match mode error")
	}
}

func TestServer_WindowVisibility(t *testing.T) {
	svc := newStub()
	_, c := startServer(t, svc, nil)

	half := 0.5
	report, err := c.WindowVisibility(0x11, &half)
	if err != nil {
		t.Fatalf("WindowVisibility: %v", err)
	}
	if _, _, th := svc.seen(); !report.Visible || report.Window != 0x11 || th != 0.5 {
		t.Fatalf("unexpected report %+v (threshold %v)", report, th)
	}

	if _, err := c.WindowVisibility(0x11, nil); err != nil {
		t.Fatalf("WindowVisibility: %v", err)
	}
	if _, _, th := svc.seen(); th != -1 {
		t.Fatalf("nil threshold passed as %v, want -1 (configured default)", th)
	}

	neg := -0.5
	if _, err := c.WindowVisibility(0x11, &neg); err == nil {
		t.Fatal("expected negative threshold error")
	}
	if _, err := c.WindowVisibility(0, nil); err == nil {
		t.Fatal("expected missing window error")
	}
}

func TestServer_Reload(t *testing.T) {
	var (
		mu        sync.Mutex
		calls     int
		reloadErr error
	)
	_, c := startServer(t, newStub(), func() error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return reloadErr
	})

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	mu.Lock()
	reloadErr = errors.New("bad yaml")
	mu.Unlock()
	if err := c.Reload(); err == nil || !strings.Contains(err.Error(), "bad yaml") {
		t.Fatalf("expected reload error, got %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("reload called %d times, want 2", calls)
	}
}

func TestServer_UnknownCommand(t *testing.T) {
	_, c := startServer(t, newStub(), nil)
	if err := c.call(CommandType("UNDO"), nil, nil); err == nil || !strings.Contains(err.Error(), "Unknown command") {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestServer_StopRemovesSocket(t *testing.T) {
	srv, c := startServer(t, newStub(), nil)
	srv.Stop()

	if _, err := os.Stat(srv.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("socket still present after Stop: %v", err)
	}
	if err := c.Ping(); err == nil {
		t.Fatal("Ping after Stop expected error")
	}
}
