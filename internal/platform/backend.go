package platform

import (
	"errors"

	"github.com/1broseidon/xwintoggle/internal/geometry"
)

// WindowID is a window-system resource identifier. It is borrowed from the
// window system for the duration of a query.
type WindowID uint32

var (
	// ErrWindowGone reports a window that was destroyed or became invalid
	// while it was being queried. Callers treat it as a per-window miss.
	ErrWindowGone = errors.New("window no longer exists")
	// ErrPropertyMissing reports that a window does not carry a property.
	ErrPropertyMissing = errors.New("property not set")
	// ErrDisconnected reports that the window system cannot be reached.
	// It aborts the whole query.
	ErrDisconnected = errors.New("window system unreachable")
)

// MapState mirrors the X11 map state of a window.
type MapState uint8

const (
	MapUnmapped MapState = iota
	MapUnviewable
	MapViewable
)

func (s MapState) String() string {
	switch s {
	case MapUnmapped:
		return "unmapped"
	case MapUnviewable:
		return "unviewable"
	case MapViewable:
		return "viewable"
	default:
		return "unknown"
	}
}

// WindowClass mirrors the X11 window class.
type WindowClass uint8

const (
	ClassCopyFromParent WindowClass = iota
	ClassInputOutput
	ClassInputOnly
)

// Attributes holds the geometry and state of a single window. X and Y are
// relative to the parent's inner origin.
type Attributes struct {
	X           int
	Y           int
	Width       int
	Height      int
	BorderWidth int
	MapState    MapState
	Class       WindowClass
}

// Absolute returns the window rectangle in root coordinates, given the root
// position of the parent's inner origin.
func (a Attributes) Absolute(originX, originY int) geometry.Rect {
	return geometry.Rect{X: originX + a.X, Y: originY + a.Y, Width: a.Width, Height: a.Height}
}

// Querier is the read side of the window system.
type Querier interface {
	// Root returns the root window of the default screen.
	Root() WindowID
	// Children returns the direct children of w, bottom-most first.
	Children(w WindowID) ([]WindowID, error)
	// Attributes returns geometry, map state and class for w.
	Attributes(w WindowID) (Attributes, error)
	// Property fetches the raw value of the named property on w.
	Property(w WindowID, name string) (Property, error)
}

// Controller changes window state on behalf of the toggle logic.
type Controller interface {
	// Withdraw removes w from the screen and from the window manager's
	// management until it is mapped again.
	Withdraw(w WindowID) error
	// MapRaised maps w and stacks it above its siblings.
	MapRaised(w WindowID) error
	// Iconify asks the window manager to minimize w.
	Iconify(w WindowID) error
	// Activate asks the window manager to focus w.
	Activate(w WindowID) error
}

// Backend is the full window-system capability.
type Backend interface {
	Querier
	Controller
}

// Describer is implemented by backends that can name windows for listings.
type Describer interface {
	// Describe returns the WM_CLASS class and the title of w, empty when
	// unknown.
	Describe(w WindowID) (class, title string)
}
