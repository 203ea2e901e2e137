package visibility

import (
	"errors"
	"testing"

	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/platform/platformtest"
)

const (
	root   platform.WindowID = 0x100
	target platform.WindowID = 0x10
)

// withTarget returns a fake holding a 10x10 target at the origin.
func withTarget() *platformtest.Backend {
	b := platformtest.New(root)
	b.Add(root, target, 0, 0, 10, 10)
	return b
}

func TestIsVisible(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(b *platformtest.Backend)
		threshold float64
		want      bool
	}{
		{
			name:      "no occluders",
			setup:     func(b *platformtest.Backend) {},
			threshold: 1,
			want:      true,
		},
		{
			name: "non-overlapping occluder",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 10, 0, 10, 10)
				b.Add(root, 0x21, 0, 50, 100, 100)
			},
			threshold: 1,
			want:      true,
		},
		{
			name: "half covered at 0.5",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 0, 0, 5, 10)
			},
			threshold: 0.5,
			want:      true,
		},
		{
			name: "half covered at 0.51",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 0, 0, 5, 10)
			},
			threshold: 0.51,
			want:      false,
		},
		{
			name: "exactly covered",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 0, 0, 10, 10)
			},
			threshold: 0.001,
			want:      false,
		},
		{
			name: "two overlapping occluders cover the target",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 0, 0, 6, 10)
				b.Add(root, 0x21, 4, 0, 10, 10)
			},
			threshold: 0.5,
			want:      false,
		},
		{
			name: "unmapped occluder ignored",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 0, 0, 10, 10).Attrs.MapState = platform.MapUnmapped
			},
			threshold: 1,
			want:      true,
		},
		{
			name: "input-only occluder ignored",
			setup: func(b *platformtest.Backend) {
				b.Add(root, 0x20, 0, 0, 10, 10).Attrs.Class = platform.ClassInputOnly
			},
			threshold: 1,
			want:      true,
		},
		{
			name: "unmapped target",
			setup: func(b *platformtest.Backend) {
				b.Window(target).Attrs.MapState = platform.MapUnmapped
			},
			threshold: 0,
			want:      false,
		},
		{
			name: "zero-area target",
			setup: func(b *platformtest.Backend) {
				b.Window(target).Attrs.Width = 0
			},
			threshold: 0,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := withTarget()
			tt.setup(b)

			got, err := NewEngine(b, Options{}).IsVisible(target, tt.threshold)
			if err != nil {
				t.Fatalf("IsVisible() error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsVisible(%g) = %v, want %v", tt.threshold, got, tt.want)
			}
		})
	}
}

func TestIsVisible_WindowsBelowDoNotOcclude(t *testing.T) {
	b := platformtest.New(root)
	b.Add(root, 0x20, 0, 0, 100, 100)
	b.Add(root, target, 0, 0, 10, 10)

	got, err := NewEngine(b, Options{}).IsVisible(target, 1)
	if err != nil {
		t.Fatalf("IsVisible() error: %v", err)
	}
	if !got {
		t.Fatal("window stacked below the target counted as an occluder")
	}
}

func TestIsVisible_NestedOccluderUsesAbsoluteCoordinates(t *testing.T) {
	b := withTarget()
	// Frame at (100,100) whose child sits at (-100,-100) relative to it,
	// landing exactly on the target.
	b.Add(root, 0x20, 100, 100, 300, 300)
	b.Add(0x20, 0x21, -100, -100, 10, 10)

	r, err := NewEngine(b, Options{}).Inspect(target, 0.5)
	if err != nil {
		t.Fatalf("Inspect() error: %v", err)
	}
	if r.Visible || r.Occluders != 2 {
		t.Fatalf("Inspect() = %+v, want hidden with 2 occluders", r)
	}
}

func TestIsVisible_ExcludeSubwindows(t *testing.T) {
	b := withTarget()
	b.Add(target, 0x11, 0, 0, 10, 10)

	hidden, err := NewEngine(b, Options{}).IsVisible(target, 0.5)
	if err != nil {
		t.Fatalf("IsVisible() error: %v", err)
	}
	if hidden {
		t.Fatal("child window should occlude its parent by default")
	}

	visible, err := NewEngine(b, Options{ExcludeSubwindows: true}).IsVisible(target, 0.5)
	if err != nil {
		t.Fatalf("IsVisible() error: %v", err)
	}
	if !visible {
		t.Fatal("ExcludeSubwindows should ignore the target's own children")
	}
}

func TestIsVisible_InvalidThreshold(t *testing.T) {
	e := NewEngine(withTarget(), Options{})
	for _, th := range []float64{-0.1, 1.5} {
		if _, err := e.IsVisible(target, th); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("IsVisible(%g) error = %v, want ErrInvalidThreshold", th, err)
		}
	}
}

func TestIsVisible_Disconnected(t *testing.T) {
	b := withTarget()
	b.Disconnected = true
	if _, err := NewEngine(b, Options{}).IsVisible(target, 0.5); !errors.Is(err, platform.ErrDisconnected) {
		t.Fatalf("IsVisible() error = %v, want ErrDisconnected", err)
	}
}

func TestIsMapped(t *testing.T) {
	b := withTarget()
	b.Add(root, 0x20, 0, 0, 1, 1).Attrs.MapState = platform.MapUnviewable
	b.Add(root, 0x21, 0, 0, 1, 1).Gone = true

	e := NewEngine(b, Options{})
	tests := []struct {
		id   platform.WindowID
		want bool
	}{
		{target, true},
		{0x20, false},
		{0x21, false},
		{0xdead, false},
	}
	for _, tt := range tests {
		got, err := e.IsMapped(tt.id)
		if err != nil {
			t.Fatalf("IsMapped(0x%x) error: %v", uint32(tt.id), err)
		}
		if got != tt.want {
			t.Errorf("IsMapped(0x%x) = %v, want %v", uint32(tt.id), got, tt.want)
		}
	}
}
