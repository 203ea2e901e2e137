package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
)

// WindowInfo is the raw geometry and state of a window as reported by the
// server. X and Y are relative to the parent.
type WindowInfo struct {
	X           int
	Y           int
	Width       int
	Height      int
	BorderWidth int
	MapState    byte
	Class       uint16
}

// Children returns the children of windowID in stacking order, bottom-most
// first.
func (c *Connection) Children(windowID xproto.Window) ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), windowID).Reply()
	if err != nil {
		return nil, err
	}
	return tree.Children, nil
}

// WindowInfo fetches geometry and attributes in a single round trip.
func (c *Connection) WindowInfo(windowID xproto.Window) (WindowInfo, error) {
	geomCookie := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID))
	attrCookie := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID)

	geom, err := geomCookie.Reply()
	if err != nil {
		// Drain the paired request so its reply does not linger.
		attrCookie.Reply()
		return WindowInfo{}, err
	}
	attrs, err := attrCookie.Reply()
	if err != nil {
		return WindowInfo{}, err
	}

	return WindowInfo{
		X:           int(geom.X),
		Y:           int(geom.Y),
		Width:       int(geom.Width),
		Height:      int(geom.Height),
		BorderWidth: int(geom.BorderWidth),
		MapState:    attrs.MapState,
		Class:       attrs.Class,
	}, nil
}

// GetProperty reads the full value of the named property. A nil reply with a
// nil error means the property is not set on the window.
func (c *Connection) GetProperty(windowID xproto.Window, name string) (*xproto.GetPropertyReply, error) {
	atom, err := xprop.Atm(c.XUtil, name)
	if err != nil {
		return nil, fmt.Errorf("failed to intern %s: %w", name, err)
	}

	reply, err := xproto.GetProperty(c.XUtil.Conn(), false, windowID, atom,
		xproto.GetPropertyTypeAny, 0, (1<<32)-1).Reply()
	if err != nil {
		return nil, err
	}
	if reply.Format == 0 {
		return nil, nil
	}
	return reply, nil
}

// AtomName resolves an atom to its name, returning "" if it cannot.
func (c *Connection) AtomName(atom xproto.Atom) string {
	if atom == 0 {
		return ""
	}
	name, err := xprop.AtomName(c.XUtil, atom)
	if err != nil {
		return ""
	}
	return name
}

// WindowClassName returns the WM_CLASS class of a window, or "".
func (c *Connection) WindowClassName(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowTitle returns _NET_WM_NAME, falling back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	return ""
}
