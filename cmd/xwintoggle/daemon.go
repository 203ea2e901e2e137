package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/daemon"
	"github.com/1broseidon/xwintoggle/internal/hotkeys"
	"github.com/1broseidon/xwintoggle/internal/ipc"
	"github.com/1broseidon/xwintoggle/internal/launcher"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/procinfo"
	"github.com/1broseidon/xwintoggle/internal/runtimepath"
	"github.com/1broseidon/xwintoggle/internal/toggle"
)

func runDaemon(args []string) int {
	fs := newFlagSet("daemon", "daemon [config]",
		"Register a hotkey per binding and toggle the bound program on each press.\nThe config path defaults to ~/.config/xwintoggle/config.yaml.")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "daemon takes at most one config path")
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	res, err := config.LoadFromPath(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config
	configPath := path
	if len(res.Files) > 0 {
		configPath = res.Files[0]
	}
	log.Printf("Configuration loaded (%d bindings, visibility threshold %.2f)", len(cfg.Bindings), cfg.VisibilityThreshold)

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	svc := toggle.NewService(backend, procinfo.System{}, launcher.New(logger), cfg, logger)

	hotkeyHandler := hotkeys.NewHandler(backend, svc)
	if keys := hotkeyHandler.Bind(cfg.Bindings); len(keys) == 0 {
		log.Printf("Warning: no hotkey could be registered; toggles are only reachable over IPC")
	}

	var (
		reloadMu sync.Mutex
		watcher  *daemon.ConfigWatcher
	)
	reload := func() error {
		reloadMu.Lock()
		defer reloadMu.Unlock()

		res, err := config.LoadFromPath(path)
		if err != nil {
			return err
		}
		newCfg := res.Config
		if newCfg.Display != cfg.Display {
			log.Printf("Warning: display changed to %q; restart the daemon to apply it", newCfg.Display)
		}

		level.Set(newCfg.SlogLevel())
		svc.SetConfig(newCfg)
		hotkeyHandler.Bind(newCfg.Bindings)
		if watcher != nil {
			watcher.SetFiles(res.Files)
		}
		log.Printf("Config reloaded successfully (%d bindings)", len(newCfg.Bindings))
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchConfig && len(res.Files) > 0 {
		watcher = daemon.NewConfigWatcher(daemon.WatcherConfig{
			Files:  res.Files,
			Logger: logger,
		}, func() {
			log.Println("Config file changed, reloading...")
			if err := reload(); err != nil {
				log.Printf("Config reload failed: %v", err)
			}
		})
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Printf("Config watcher failed: %v", err)
			}
		}()
	}

	socketPath, err := runtimepath.SocketPath(cfg.Display)
	if err != nil {
		log.Fatalf("Failed to resolve IPC socket path: %v", err)
	}
	ipcServer, err := ipc.NewServer(ipc.ServerOptions{
		SocketPath: socketPath,
		Service:    svc,
		Reload:     reload,
		Keys:       hotkeyHandler.Keys,
		ConfigPath: configPath,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				log.Println("Received SIGHUP, reloading config...")
				if err := reload(); err != nil {
					log.Printf("Config reload failed: %v", err)
				}

			case os.Interrupt, syscall.SIGTERM:
				log.Println("Shutting down xwintoggle daemon...")
				cancel()
				ipcServer.Stop()
				backend.Disconnect()
				os.Exit(0)
			}
		}
	}()

	log.Println("xwintoggle daemon started, entering event loop...")
	backend.EventLoop()
	return 0
}
