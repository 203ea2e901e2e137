// Package platformtest provides an in-memory window system for tests.
package platformtest

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/1broseidon/xwintoggle/internal/platform"
)

// Window describes one fake window.
type Window struct {
	Attrs      platform.Attributes
	Children   []platform.WindowID
	Properties map[string]platform.Property
	// Gone makes every query on the window fail with ErrWindowGone.
	Gone bool
	// Class and Title are returned by Describe.
	Class string
	Title string
}

// Backend is a platform.Backend over an in-memory window tree.
type Backend struct {
	mu      sync.Mutex
	root    platform.WindowID
	windows map[platform.WindowID]*Window
	// Disconnected makes every call fail with ErrDisconnected.
	Disconnected bool
	// Calls records Controller calls as "Op:0x<id>".
	Calls []string
}

var (
	_ platform.Backend   = (*Backend)(nil)
	_ platform.Describer = (*Backend)(nil)
)

// New creates a fake with a viewable 1920x1080 root window.
func New(root platform.WindowID) *Backend {
	b := &Backend{
		root:    root,
		windows: make(map[platform.WindowID]*Window),
	}
	b.windows[root] = &Window{
		Attrs: platform.Attributes{
			Width:    1920,
			Height:   1080,
			MapState: platform.MapViewable,
			Class:    platform.ClassInputOutput,
		},
	}
	return b
}

// Add creates a viewable InputOutput window under parent, stacked on top of
// its existing siblings.
func (b *Backend) Add(parent, id platform.WindowID, x, y, w, h int) *Window {
	win := &Window{
		Attrs: platform.Attributes{
			X:        x,
			Y:        y,
			Width:    w,
			Height:   h,
			MapState: platform.MapViewable,
			Class:    platform.ClassInputOutput,
		},
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows[id] = win
	p, ok := b.windows[parent]
	if !ok {
		panic(fmt.Sprintf("platformtest: unknown parent 0x%x", uint32(parent)))
	}
	p.Children = append(p.Children, id)
	return win
}

// Window returns the fake window for id, or nil.
func (b *Backend) Window(id platform.WindowID) *Window {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.windows[id]
}

// SetCardinal stores a 32-bit CARDINAL property.
func (w *Window) SetCardinal(name string, values ...uint32) {
	if w.Properties == nil {
		w.Properties = make(map[string]platform.Property)
	}
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	w.Properties[name] = platform.Property{Type: "CARDINAL", Format: 32, Value: buf}
}

// SetPID sets _NET_WM_PID.
func (w *Window) SetPID(pid uint32) {
	w.SetCardinal(platform.PIDProperty, pid)
}

// SetWMState sets WM_STATE with no icon window.
func (w *Window) SetWMState(state platform.WMState) {
	w.SetCardinal(platform.WMStateProperty, uint32(state), 0)
}

func (b *Backend) Root() platform.WindowID {
	return b.root
}

func (b *Backend) lookup(id platform.WindowID) (*Window, error) {
	if b.Disconnected {
		return nil, fmt.Errorf("fake: %w", platform.ErrDisconnected)
	}
	win, ok := b.windows[id]
	if !ok || win.Gone {
		return nil, fmt.Errorf("fake 0x%x: %w", uint32(id), platform.ErrWindowGone)
	}
	return win, nil
}

func (b *Backend) Children(id platform.WindowID) ([]platform.WindowID, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, err := b.lookup(id)
	if err != nil {
		return nil, err
	}
	return append([]platform.WindowID(nil), win.Children...), nil
}

func (b *Backend) Attributes(id platform.WindowID) (platform.Attributes, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, err := b.lookup(id)
	if err != nil {
		return platform.Attributes{}, err
	}
	return win.Attrs, nil
}

func (b *Backend) Property(id platform.WindowID, name string) (platform.Property, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, err := b.lookup(id)
	if err != nil {
		return platform.Property{}, err
	}
	prop, ok := win.Properties[name]
	if !ok {
		return platform.Property{}, platform.ErrPropertyMissing
	}
	prop.Value = append([]byte(nil), prop.Value...)
	return prop, nil
}

func (b *Backend) Describe(id platform.WindowID) (class, title string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, err := b.lookup(id)
	if err != nil {
		return "", ""
	}
	return win.Class, win.Title
}

func (b *Backend) record(op string, id platform.WindowID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	win, err := b.lookup(id)
	if err != nil {
		return err
	}
	b.Calls = append(b.Calls, fmt.Sprintf("%s:0x%x", op, uint32(id)))

	switch op {
	case "Withdraw":
		win.Attrs.MapState = platform.MapUnmapped
		if _, ok := win.Properties[platform.WMStateProperty]; ok {
			win.SetWMState(platform.WMStateWithdrawn)
		}
	case "MapRaised":
		win.Attrs.MapState = platform.MapViewable
		if _, ok := win.Properties[platform.WMStateProperty]; ok {
			win.SetWMState(platform.WMStateNormal)
		}
	case "Iconify":
		win.Attrs.MapState = platform.MapUnmapped
		if _, ok := win.Properties[platform.WMStateProperty]; ok {
			win.SetWMState(platform.WMStateIconic)
		}
	}
	return nil
}

func (b *Backend) Withdraw(id platform.WindowID) error  { return b.record("Withdraw", id) }
func (b *Backend) MapRaised(id platform.WindowID) error { return b.record("MapRaised", id) }
func (b *Backend) Iconify(id platform.WindowID) error   { return b.record("Iconify", id) }
func (b *Backend) Activate(id platform.WindowID) error  { return b.record("Activate", id) }
