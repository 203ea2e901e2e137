package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ipc"
	"github.com/1broseidon/xwintoggle/internal/launcher"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/procinfo"
	"github.com/1broseidon/xwintoggle/internal/toggle"
	"github.com/1broseidon/xwintoggle/internal/visibility"
)

// exitNotVisible is the exit status of `visible` for a hidden window.
const exitNotVisible = 3

// localService opens a private X connection for commands that run without
// the daemon. Call the returned close func when done.
func localService(cfg *config.Config, logger *slog.Logger) (*toggle.Service, *platform.LinuxBackend, func(), error) {
	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := toggle.NewService(backend, procinfo.System{}, launcher.New(logger), cfg, logger)
	return svc, backend, backend.Disconnect, nil
}

func cliLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

func wantJSON(flagJSON bool) bool {
	return flagJSON || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runWindows(args []string) int {
	fs := newFlagSet("windows", "windows [--cmdline] [--json] [--daemon] [--config PATH] <pattern>",
		"List windows owned by processes matching <pattern>.\n"+
			"By default <pattern> is compared with the canonical executable path;\n"+
			"--cmdline matches it as a substring of the full command line.")
	cmdline := fs.Bool("cmdline", false, "Match a substring of the command line")
	asJSON := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	viaDaemon := fs.Bool("daemon", false, "Ask the running daemon instead of connecting to X")
	path := fs.String("config", "", "Config file path (default: ~/.config/xwintoggle/config.yaml)")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "windows requires exactly one <pattern>")
		fs.Usage()
		return 2
	}
	pattern := fs.Arg(0)

	mode := ownership.MatchExactPath
	if *cmdline {
		mode = ownership.MatchCmdline
	}

	res, err := config.LoadSettings(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var windows []toggle.WindowInfo
	if *viaDaemon {
		windows, err = ipc.NewClient(res.Config.Display).FindWindows(pattern, string(mode))
	} else {
		svc, _, closeFn, connErr := localService(res.Config, cliLogger(res.Config))
		if connErr != nil {
			fmt.Fprintln(os.Stderr, connErr)
			return 1
		}
		defer closeFn()
		windows, err = svc.FindWindows(pattern, mode)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if windows == nil {
		windows = []toggle.WindowInfo{}
	}

	if wantJSON(*asJSON) {
		return printJSON(ipc.WindowsData{Windows: windows})
	}
	fmt.Println(renderWindows(windows))
	return 0
}

func runVisible(args []string) int {
	fs := newFlagSet("visible", "visible [--threshold F] [--json] [--daemon] [--config PATH] [window-id]",
		"Report whether a window is mapped and not covered by the windows above it.\n"+
			"The window defaults to the active window. Exit status is 0 when visible,\n"+
			"3 when not visible and 1 on error.")
	threshold := fs.Float64("threshold", -1, "Minimum unoccluded fraction in [0,1] (default: visibility_threshold)")
	asJSON := fs.Bool("json", false, "Print JSON (default when stdout is not a terminal)")
	viaDaemon := fs.Bool("daemon", false, "Ask the running daemon instead of connecting to X")
	path := fs.String("config", "", "Config file path (default: ~/.config/xwintoggle/config.yaml)")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "visible takes at most one window id")
		fs.Usage()
		return 2
	}
	if *threshold != -1 && (*threshold < 0 || *threshold > 1) {
		fmt.Fprintln(os.Stderr, visibility.ErrInvalidThreshold)
		return 2
	}

	var window platform.WindowID
	if fs.NArg() == 1 {
		id, err := parseWindowID(fs.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		window = id
	}

	res, err := config.LoadSettings(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	var report visibility.Report
	if *viaDaemon {
		if window == 0 {
			fmt.Fprintln(os.Stderr, "a window id is required with --daemon")
			return 2
		}
		var th *float64
		if *threshold != -1 {
			th = threshold
		}
		r, err := ipc.NewClient(res.Config.Display).WindowVisibility(uint32(window), th)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		report = *r
	} else {
		svc, backend, closeFn, err := localService(res.Config, cliLogger(res.Config))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer closeFn()

		if window == 0 {
			if window, err = backend.ActiveWindow(); err != nil || window == 0 {
				fmt.Fprintf(os.Stderr, "no window id given and no active window (%v)\n", err)
				return 1
			}
		}
		if report, err = svc.Visibility(window, *threshold); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	code := 0
	if !report.Visible {
		code = exitNotVisible
	}
	if wantJSON(*asJSON) {
		if c := printJSON(report); c != 0 {
			return c
		}
		return code
	}
	fmt.Print(formatReport(report))
	return code
}

// parseWindowID accepts decimal or 0x-prefixed hexadecimal ids.
func parseWindowID(s string) (platform.WindowID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return platform.WindowID(v), nil
}

func formatReport(r visibility.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "window:    0x%x\n", uint32(r.Window))
	fmt.Fprintf(&b, "mapped:    %v\n", r.Mapped)
	if r.Mapped {
		fmt.Fprintf(&b, "geometry:  %dx%d+%d+%d\n", r.Rect.Width, r.Rect.Height, r.Rect.X, r.Rect.Y)
		fmt.Fprintf(&b, "occluders: %d\n", r.Occluders)
		fmt.Fprintf(&b, "fraction:  %.4f\n", r.Fraction)
	}
	fmt.Fprintf(&b, "threshold: %.2f\n", r.Threshold)
	fmt.Fprintf(&b, "visible:   %v\n", r.Visible)
	return b.String()
}
