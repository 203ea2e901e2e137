package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/xwintoggle/internal/toggle"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandReload           CommandType = "RELOAD"
	CommandGetStatus        CommandType = "GET_STATUS"
	CommandToggle           CommandType = "TOGGLE"
	CommandFindWindows      CommandType = "FIND_WINDOWS"
	CommandWindowVisibility CommandType = "WINDOW_VISIBILITY"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Display       string   `json:"display,omitempty"`
	ConfigPath    string   `json:"config_path,omitempty"`
	Bindings      []string `json:"bindings"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	DaemonRunning bool     `json:"daemon_running"`
}

// TogglePayload selects the binding for TOGGLE.
type TogglePayload struct {
	Key string `json:"key"`
}

// FindWindowsPayload is the payload for FIND_WINDOWS. An empty match mode
// means exact_path.
type FindWindowsPayload struct {
	Pattern   string `json:"pattern"`
	MatchMode string `json:"match_mode,omitempty"`
}

// WindowsData represents the data returned by FIND_WINDOWS
type WindowsData struct {
	Windows []toggle.WindowInfo `json:"windows"`
}

// WindowVisibilityPayload is the payload for WINDOW_VISIBILITY. A nil
// threshold uses the daemon's visibility_threshold.
type WindowVisibilityPayload struct {
	Window    uint32   `json:"window"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
