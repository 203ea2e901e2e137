package hotkeys

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/1broseidon/xwintoggle/internal/config"
	"github.com/1broseidon/xwintoggle/internal/toggle"
)

type recordingToggler struct {
	keys []string
}

func (r *recordingToggler) Toggle(key string) (toggle.Outcome, error) {
	r.keys = append(r.keys, key)
	return toggle.Outcome{Key: key, Action: toggle.ActionHidden}, nil
}

// fakeGrabs stands in for the X server's key grabs.
type fakeGrabs struct {
	callbacks map[string]func()
	taken     map[string]bool
	released  []string
	detaches  int
}

func newTestHandler(t *testing.T, toggler Toggler) (*Handler, *fakeGrabs) {
	t.Helper()
	g := &fakeGrabs{callbacks: map[string]func(){}, taken: map[string]bool{}}
	h := &Handler{toggler: toggler}
	h.register = func(key string, cb func()) error {
		if g.taken[key] {
			return errors.New("BadAccess")
		}
		g.callbacks[key] = cb
		return nil
	}
	h.unregister = func(keys []string) {
		g.released = append(g.released, keys...)
		g.detaches++
		g.callbacks = map[string]func(){}
	}
	return h, g
}

func TestBind_RegistersAndTriggers(t *testing.T) {
	tog := &recordingToggler{}
	h, g := newTestHandler(t, tog)

	got := h.Bind([]config.Binding{
		{Key: "Mod4-t", BinPath: "/usr/bin/alacritty"},
		{Key: "Mod4-f", BinPath: "/usr/bin/firefox"},
	})
	if want := []string{"Mod4-t", "Mod4-f"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Bind() = %v, want %v", got, want)
	}

	g.callbacks["Mod4-f"]()
	g.callbacks["Mod4-t"]()
	if want := []string{"Mod4-f", "Mod4-t"}; !reflect.DeepEqual(tog.keys, want) {
		t.Fatalf("toggled keys = %v, want %v", tog.keys, want)
	}
}

func TestBind_SkipsKeysThatCannotBeGrabbed(t *testing.T) {
	h, g := newTestHandler(t, &recordingToggler{})
	g.taken["Mod4-t"] = true

	got := h.Bind([]config.Binding{
		{Key: "Mod4-t", BinPath: "/usr/bin/alacritty"},
		{Key: "Mod4-f", BinPath: "/usr/bin/firefox"},
	})
	if want := []string{"Mod4-f"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Bind() = %v, want %v", got, want)
	}
}

func TestBind_ReplacesPreviousRegistrations(t *testing.T) {
	h, g := newTestHandler(t, &recordingToggler{})

	h.Bind([]config.Binding{{Key: "Mod4-t"}})
	h.Bind([]config.Binding{{Key: "Mod4-e"}})

	if g.detaches != 1 {
		t.Fatalf("detaches = %d, want 1", g.detaches)
	}
	if _, ok := g.callbacks["Mod4-t"]; ok {
		t.Fatal("old key still registered after rebind")
	}
	if got := h.Keys(); !reflect.DeepEqual(got, []string{"Mod4-e"}) {
		t.Fatalf("Keys() = %v, want [Mod4-e]", got)
	}
}

func TestBind_RebindReleasesDroppedGrabs(t *testing.T) {
	h, g := newTestHandler(t, &recordingToggler{})
	g.taken["Mod4-x"] = true

	h.Bind([]config.Binding{{Key: "Mod4-t"}, {Key: "Mod4-x"}, {Key: "Mod4-f"}})
	if len(g.released) != 0 {
		t.Fatalf("first bind released %v", g.released)
	}

	h.Bind([]config.Binding{{Key: "Mod4-e"}})
	if want := []string{"Mod4-t", "Mod4-f"}; !reflect.DeepEqual(g.released, want) {
		t.Fatalf("released = %v, want %v", g.released, want)
	}
}

func TestUngrab_WithoutX11IsNoop(t *testing.T) {
	h := NewHandler(nil, &recordingToggler{})
	h.ungrab([]string{"Mod4-t"})
}

func TestRegisterFunc_RequiresX11(t *testing.T) {
	h := NewHandler(nil, &recordingToggler{})
	if err := h.RegisterFunc("Mod4-t", func() {}); err == nil {
		t.Fatal("RegisterFunc() without X11 expected error")
	}
	if got := h.Bind([]config.Binding{{Key: "Mod4-t"}}); len(got) != 0 {
		t.Fatalf("Bind() without X11 = %v, want none", got)
	}
}

func TestIgnoreMasks(t *testing.T) {
	const (
		caps   uint16 = 1 << 1
		num    uint16 = 1 << 4
		scroll uint16 = 1 << 7
	)
	tests := []struct {
		name string
		base []uint16
		want []uint16
	}{
		{"caps only", []uint16{caps}, []uint16{0, caps}},
		{"caps and numlock", []uint16{caps, num}, []uint16{0, caps, num, caps | num}},
		{
			"all three",
			[]uint16{caps, num, scroll},
			[]uint16{0, caps, num, scroll, caps | num, caps | scroll, num | scroll, caps | num | scroll},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ignoreMasks(tt.base)
			sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
			want := append([]uint16(nil), tt.want...)
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("ignoreMasks(%v) = %v, want %v", tt.base, got, want)
			}
		})
	}
}
