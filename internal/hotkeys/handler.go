package hotkeys

import (
	"fmt"
	"log"
	"sync"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/toggle"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Toggler runs the toggle for a bound key.
type Toggler interface {
	Toggle(key string) (toggle.Outcome, error)
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu      *xgbutil.XUtil
	root    xproto.Window
	toggler Toggler

	// register and unregister talk to the X server; tests replace them.
	register   func(keySequence string, callback func()) error
	unregister func(keySequences []string)

	mu   sync.Mutex
	keys []string
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler.
func NewHandler(backend platform.Backend, toggler Toggler) *Handler {
	h := &Handler{toggler: toggler}
	if accessor, ok := backend.(x11Accessor); ok {
		h.xu = accessor.XUtil()
		h.root = accessor.RootWindow()
	}

	if h.xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(h.xu)
		})
	}

	h.register = h.RegisterFunc
	h.unregister = h.ungrab
	return h
}

// Bind registers one hotkey per binding, replacing any earlier
// registrations. A key that cannot be grabbed is logged and skipped so the
// remaining bindings still work. It returns the keys that were registered.
func (h *Handler) Bind(bindings []config.Binding) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.keys) > 0 {
		h.unregister(h.keys)
		h.keys = nil
	}

	for _, b := range bindings {
		key := b.Key
		err := h.register(key, func() {
			h.trigger(key)
		})
		if err != nil {
			log.Printf("Failed to register hotkey %q: %v (ungrab this key or choose another)", key, err)
			continue
		}
		log.Printf("Hotkey registered: %s -> %s", key, b.BinPath)
		h.keys = append(h.keys, key)
	}
	return append([]string(nil), h.keys...)
}

// Keys returns the currently registered key sequences.
func (h *Handler) Keys() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.keys...)
}

func (h *Handler) trigger(key string) {
	out, err := h.toggler.Toggle(key)
	if err != nil {
		log.Printf("Toggle %s failed: %v", key, err)
		return
	}
	switch out.Action {
	case toggle.ActionLaunched:
		log.Printf("Toggle %s: launched pid %d", key, out.PID)
	default:
		log.Printf("Toggle %s: %s %d window(s)", key, out.Action, len(out.Windows))
	}
}

// ungrab releases the server-side grabs of keySequences and drops every
// callback on the root window. Detach alone leaves the grabs in place.
func (h *Handler) ungrab(keySequences []string) {
	if h.xu == nil {
		return
	}
	for _, key := range keySequences {
		mods, codes, err := keybind.ParseString(h.xu, key)
		if err != nil {
			log.Printf("Failed to parse hotkey %q for ungrab: %v", key, err)
			continue
		}
		for _, code := range codes {
			keybind.Ungrab(h.xu, h.root, mods, code)
		}
	}
	keybind.Detach(h.xu, h.root)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	if h.xu == nil {
		return fmt.Errorf("hotkeys need an X11 backend")
	}
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	xevent.IgnoreMods = ignoreMasks(base)
}

// ignoreMasks returns 0 plus the OR of every non-empty subset of base,
// without duplicates.
func ignoreMasks(base []uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}
	ignore := []uint16{0}
	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		if _, ok := unique[mask]; ok {
			continue
		}
		unique[mask] = struct{}{}
		ignore = append(ignore, mask)
	}
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
