// Package geometry computes overlap areas of axis-aligned screen rectangles.
package geometry

// Epsilon absorbs floating point error when an unoccluded fraction is
// compared against a threshold, so a fully covered window does not read as
// barely visible.
const Epsilon = 1e-4

// Rect describes a rectangular region in root window coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the rectangle's area, or 0 for degenerate rectangles.
func (r Rect) Area() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return float64(r.Width) * float64(r.Height)
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Intersect returns the common region of r and o. The result is Empty when
// they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x1 := max(r.X, o.X)
	y1 := max(r.Y, o.Y)
	x2 := min(r.X+r.Width, o.X+o.Width)
	y2 := min(r.Y+r.Height, o.Y+o.Height)

	if x2 <= x1 || y2 <= y1 {
		return Rect{X: x1, Y: y1}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// Contains reports whether o lies entirely inside r. An empty o is never
// contained.
func (r Rect) Contains(o Rect) bool {
	if o.Empty() || r.Empty() {
		return false
	}
	return o.X >= r.X && o.Y >= r.Y &&
		o.X+o.Width <= r.X+r.Width && o.Y+o.Height <= r.Y+r.Height
}

// Overlaps reports whether r and o share a non-empty region.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).Empty()
}

// IntersectionArea returns the area common to every rectangle:
// max(0, min(right) - max(left)) * max(0, min(bottom) - max(top)).
// It is 0 for an empty set.
func IntersectionArea(rects ...Rect) float64 {
	if len(rects) == 0 {
		return 0
	}
	common := rects[0]
	for _, r := range rects[1:] {
		common = common.Intersect(r)
		if common.Empty() {
			return 0
		}
	}
	return common.Area()
}
