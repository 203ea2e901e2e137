package platform

import (
	"fmt"

	"github.com/BurntSushi/xgb"
)

// Property names read by the core.
const (
	// PIDProperty carries the process id of the client owning a window.
	PIDProperty = "_NET_WM_PID"
	// WMStateProperty is set by the window manager on managed clients.
	WMStateProperty = "WM_STATE"
)

// Property is the raw value of a window property as returned by the window
// system. Value is owned by the caller; decoders never retain it.
type Property struct {
	Type   string
	Format uint8
	Value  []byte
}

// WMState is the ICCCM WM_STATE state field.
type WMState uint32

const (
	WMStateWithdrawn WMState = 0
	WMStateNormal    WMState = 1
	WMStateIconic    WMState = 3
)

func (s WMState) String() string {
	switch s {
	case WMStateWithdrawn:
		return "withdrawn"
	case WMStateNormal:
		return "normal"
	case WMStateIconic:
		return "iconic"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// DecodeCardinal returns the first 32-bit value of p, as used by
// _NET_WM_PID.
func DecodeCardinal(p Property) (uint32, error) {
	if p.Format == 0 && len(p.Value) == 0 {
		return 0, ErrPropertyMissing
	}
	if p.Format != 32 {
		return 0, fmt.Errorf("expected format 32, got %d", p.Format)
	}
	if len(p.Value) < 4 {
		return 0, fmt.Errorf("property value too short: %d bytes", len(p.Value))
	}
	return xgb.Get32(p.Value), nil
}

// DecodeWMState returns the state field of a WM_STATE property.
func DecodeWMState(p Property) (WMState, error) {
	v, err := DecodeCardinal(p)
	if err != nil {
		return 0, fmt.Errorf("WM_STATE: %w", err)
	}
	return WMState(v), nil
}
