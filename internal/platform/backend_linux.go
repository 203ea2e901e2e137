//go:build linux

package platform

import (
	"errors"
	"fmt"

	"github.com/1broseidon/xwintoggle/internal/x11"
	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection to display ("" for $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Root returns the root window of the default screen.
func (b *LinuxBackend) Root() WindowID {
	return WindowID(b.RootWindow())
}

// Children returns the children of w, bottom-most first.
func (b *LinuxBackend) Children(w WindowID) ([]WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	children, err := conn.Children(xproto.Window(w))
	if err != nil {
		return nil, classify(err)
	}

	ids := make([]WindowID, len(children))
	for i, child := range children {
		ids[i] = WindowID(child)
	}
	return ids, nil
}

// Attributes returns geometry, map state and class for w.
func (b *LinuxBackend) Attributes(w WindowID) (Attributes, error) {
	conn, err := b.connection()
	if err != nil {
		return Attributes{}, err
	}

	info, err := conn.WindowInfo(xproto.Window(w))
	if err != nil {
		return Attributes{}, classify(err)
	}

	attrs := Attributes{
		X:           info.X,
		Y:           info.Y,
		Width:       info.Width,
		Height:      info.Height,
		BorderWidth: info.BorderWidth,
	}
	switch info.MapState {
	case xproto.MapStateViewable:
		attrs.MapState = MapViewable
	case xproto.MapStateUnviewable:
		attrs.MapState = MapUnviewable
	default:
		attrs.MapState = MapUnmapped
	}
	switch info.Class {
	case xproto.WindowClassInputOnly:
		attrs.Class = ClassInputOnly
	case xproto.WindowClassInputOutput:
		attrs.Class = ClassInputOutput
	default:
		attrs.Class = ClassCopyFromParent
	}
	return attrs, nil
}

// Property fetches the raw value of the named property on w.
func (b *LinuxBackend) Property(w WindowID, name string) (Property, error) {
	conn, err := b.connection()
	if err != nil {
		return Property{}, err
	}

	reply, err := conn.GetProperty(xproto.Window(w), name)
	if err != nil {
		return Property{}, classify(err)
	}
	if reply == nil {
		return Property{}, ErrPropertyMissing
	}

	value := make([]byte, len(reply.Value))
	copy(value, reply.Value)
	return Property{
		Type:   conn.AtomName(reply.Type),
		Format: reply.Format,
		Value:  value,
	}, nil
}

// Withdraw unmaps w and tells the window manager to stop managing it.
func (b *LinuxBackend) Withdraw(w WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return classify(conn.WithdrawWindow(xproto.Window(w)))
}

// MapRaised maps w and stacks it on top.
func (b *LinuxBackend) MapRaised(w WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return classify(conn.MapRaised(xproto.Window(w)))
}

// Iconify minimizes w via WM_CHANGE_STATE.
func (b *LinuxBackend) Iconify(w WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return classify(conn.IconifyWindow(xproto.Window(w)))
}

// Activate focuses w via _NET_ACTIVE_WINDOW.
func (b *LinuxBackend) Activate(w WindowID) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return classify(conn.FocusWindow(xproto.Window(w)))
}

// ActiveWindow returns the currently focused window.
func (b *LinuxBackend) ActiveWindow() (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	wid, err := conn.GetActiveWindow()
	if err != nil {
		return 0, err
	}
	return WindowID(wid), nil
}

// Describe returns the WM_CLASS class and title of w for display purposes.
func (b *LinuxBackend) Describe(w WindowID) (class, title string) {
	if b == nil || b.conn == nil {
		return "", ""
	}
	return b.conn.WindowClassName(xproto.Window(w)), b.conn.WindowTitle(xproto.Window(w))
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil: %w", ErrDisconnected)
	}
	return b.conn, nil
}

// classify maps X protocol errors (BadWindow, BadDrawable, BadMatch...) to
// ErrWindowGone and everything else, such as a closed connection, to
// ErrDisconnected.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var xerr xgb.Error
	if errors.As(err, &xerr) {
		return fmt.Errorf("%w: %v", ErrWindowGone, err)
	}
	return fmt.Errorf("%w: %v", ErrDisconnected, err)
}
