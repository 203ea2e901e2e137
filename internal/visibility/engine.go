// Package visibility decides whether a window is effectively visible on
// screen, taking the windows stacked above it into account.
package visibility

import (
	"errors"
	"fmt"

	"github.com/1broseidon/xwintoggle/internal/geometry"
	"github.com/1broseidon/xwintoggle/internal/platform"
	"github.com/1broseidon/xwintoggle/internal/wintree"
)

// ErrInvalidThreshold is returned for thresholds outside [0, 1].
var ErrInvalidThreshold = errors.New("visibility threshold must be within [0, 1]")

// Options tune an Engine.
type Options struct {
	// ExcludeSubwindows stops the target's own descendants from counting as
	// occluders.
	ExcludeSubwindows bool
}

// Report is the full result of a visibility query.
type Report struct {
	Window    platform.WindowID `json:"window"`
	Mapped    bool              `json:"mapped"`
	Rect      geometry.Rect     `json:"rect"`
	Occluders int               `json:"occluders"`
	// Fraction is the unoccluded share of the window area, epsilon included.
	Fraction  float64 `json:"fraction"`
	Threshold float64 `json:"threshold"`
	Visible   bool    `json:"visible"`
}

// Engine answers visibility queries against live window state.
type Engine struct {
	q      platform.Querier
	walker *wintree.Walker
	opts   Options
}

// NewEngine creates an engine over q.
func NewEngine(q platform.Querier, opts Options) *Engine {
	return &Engine{q: q, walker: wintree.NewWalker(q), opts: opts}
}

// IsMapped reports whether w is viewable.
func (e *Engine) IsMapped(w platform.WindowID) (bool, error) {
	attrs, err := e.q.Attributes(w)
	if err != nil {
		if errors.Is(err, platform.ErrWindowGone) {
			return false, nil
		}
		return false, err
	}
	return attrs.MapState == platform.MapViewable, nil
}

// IsVisible reports whether at least threshold of w's area is not covered
// by windows stacked above it.
func (e *Engine) IsVisible(w platform.WindowID, threshold float64) (bool, error) {
	r, err := e.Inspect(w, threshold)
	if err != nil {
		return false, err
	}
	return r.Visible, nil
}

// Inspect is IsVisible returning the intermediate values as well.
func (e *Engine) Inspect(w platform.WindowID, threshold float64) (Report, error) {
	if threshold < 0 || threshold > 1 {
		return Report{}, fmt.Errorf("%w: got %g", ErrInvalidThreshold, threshold)
	}
	report := Report{Window: w, Threshold: threshold}

	mapped, err := e.IsMapped(w)
	if err != nil || !mapped {
		return report, err
	}
	report.Mapped = true

	stack, err := e.walker.Above(e.q.Root(), w)
	if err != nil {
		// A mapped window that the walk cannot reach was destroyed in between.
		if errors.Is(err, wintree.ErrTargetNotFound) {
			report.Mapped = false
			return report, nil
		}
		return report, err
	}
	report.Rect = stack.Target.Rect

	if stack.Target.Rect.Empty() {
		return report, nil
	}

	occluders := e.occluders(stack)
	report.Occluders = len(occluders)
	if len(occluders) == 0 {
		report.Fraction = 1 + geometry.Epsilon
		report.Visible = true
		return report, nil
	}

	report.Fraction = geometry.UnoccludedFraction(stack.Target.Rect, occluders)
	report.Visible = report.Fraction >= threshold
	return report, nil
}

func (e *Engine) occluders(s wintree.Stack) []geometry.Rect {
	if !e.opts.ExcludeSubwindows {
		return s.Rects()
	}
	rects := make([]geometry.Rect, 0, len(s.Above))
	for _, n := range s.Above {
		if s.Target.Contains(n) {
			continue
		}
		rects = append(rects, n.Rect)
	}
	return rects
}
