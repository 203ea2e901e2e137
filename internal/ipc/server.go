package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/ownership"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/toggle"
	"github.com/1broseidon/xwintoggle/internal/visibility"
)

// Service is the daemon functionality exposed over IPC.
type Service interface {
	Config() *config.Config
	Toggle(key string) (toggle.Outcome, error)
	FindWindows(pattern string, mode ownership.MatchMode) ([]toggle.WindowInfo, error)
	Visibility(w platform.WindowID, threshold float64) (visibility.Report, error)
}

// ServerOptions configures a Server.
type ServerOptions struct {
	SocketPath string
	Service    Service
	// Reload reloads the configuration and applies it to the daemon.
	Reload func() error
	// Keys returns the currently registered hotkeys.
	Keys       func() []string
	ConfigPath string
	Logger     *slog.Logger
}

// Server handles IPC requests from clients
type Server struct {
	opts         ServerOptions
	logger       *slog.Logger
	listener     net.Listener
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.SocketPath == "" {
		return nil, fmt.Errorf("IPC socket path is empty")
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("IPC server needs a service")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Remove a stale socket left by a crashed daemon.
	os.Remove(opts.SocketPath)

	return &Server{
		opts:      opts,
		logger:    logger,
		startTime: time.Now(),
	}, nil
}

// SocketPath returns where the server listens.
func (s *Server) SocketPath() string {
	return s.opts.SocketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.opts.SocketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.opts.SocketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.opts.SocketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) stopping() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection serves one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(30 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal IPC response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	s.logger.Debug("IPC request", "command", req.Command)
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandToggle:
		return s.handleToggle(req.Payload)
	case CommandFindWindows:
		return s.handleFindWindows(req.Payload)
	case CommandWindowVisibility:
		return s.handleWindowVisibility(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	if s.opts.Reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.opts.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	return ok(nil)
}

func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		Display:       s.opts.Service.Config().Display,
		ConfigPath:    s.opts.ConfigPath,
		Bindings:      []string{},
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	}
	if s.opts.Keys != nil {
		status.Bindings = append(status.Bindings, s.opts.Keys()...)
	}
	return ok(status)
}

func (s *Server) handleToggle(payload json.RawMessage) *Response {
	var req TogglePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid toggle payload: %v", err))
	}
	if req.Key == "" {
		return NewErrorResponse("key is required")
	}

	out, err := s.opts.Service.Toggle(req.Key)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to toggle %s: %v", req.Key, err))
	}
	return ok(out)
}

func (s *Server) handleFindWindows(payload json.RawMessage) *Response {
	var req FindWindowsPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid find payload: %v", err))
	}
	if req.Pattern == "" {
		return NewErrorResponse("pattern is required")
	}
	mode, err := ownership.ParseMatchMode(req.MatchMode)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	windows, err := s.opts.Service.FindWindows(req.Pattern, mode)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to find windows: %v", err))
	}
	if windows == nil {
		windows = []toggle.WindowInfo{}
	}
	return ok(WindowsData{Windows: windows})
}

func (s *Server) handleWindowVisibility(payload json.RawMessage) *Response {
	var req WindowVisibilityPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid visibility payload: %v", err))
	}
	if req.Window == 0 {
		return NewErrorResponse("window is required")
	}

	threshold := -1.0
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			return NewErrorResponse(visibility.ErrInvalidThreshold.Error())
		}
		threshold = *req.Threshold
	}
	report, err := s.opts.Service.Visibility(platform.WindowID(req.Window), threshold)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to compute visibility: %v", err))
	}
	return ok(report)
}

func ok(data interface{}) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.opts.SocketPath)
}
