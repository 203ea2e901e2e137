package geometry

import "sort"

// maxInclusionExclusion is the largest occluder count enumerated subset by
// subset. Above it OccludedArea sweeps vertical strips instead.
const maxInclusionExclusion = 16

// OccludedArea returns how much of target is covered by the union of
// occluders, using inclusion-exclusion:
//
//	sum over k=1..n of (-1)^(k+1) * sum over k-subsets S of area(target ∩ S)
//
// Subsets are enumerated as bitmasks over the occluders that actually touch
// target; occluders outside target contribute nothing to any term and are
// dropped first, as are occluders contained in another one (nested child
// windows collapse this way). A subset whose running intersection is already
// empty is skipped.
//
// The cost is O(2^n * n) in the number of remaining occluders. Beyond
// maxInclusionExclusion of them the union is measured with a strip sweep
// over the compressed x coordinates instead, which is exact and O(n^2 log n).
func OccludedArea(target Rect, occluders []Rect) float64 {
	clipped := make([]Rect, 0, len(occluders))
	for _, o := range occluders {
		if c := target.Intersect(o); !c.Empty() {
			clipped = append(clipped, c)
		}
	}

	clipped = dropContained(clipped)

	n := len(clipped)
	if n == 0 {
		return 0
	}
	if n > maxInclusionExclusion {
		return unionArea(clipped)
	}

	var area float64
	for mask := uint64(1); mask < uint64(1)<<n; mask++ {
		common := target
		bits := 0
		for i := 0; i < n; i++ {
			if mask&(uint64(1)<<i) == 0 {
				continue
			}
			bits++
			common = common.Intersect(clipped[i])
			if common.Empty() {
				break
			}
		}
		if common.Empty() {
			continue
		}
		if bits%2 == 1 {
			area += common.Area()
		} else {
			area -= common.Area()
		}
	}

	if area < 0 {
		return 0
	}
	if total := target.Area(); area > total {
		return total
	}
	return area
}

// dropContained removes rectangles lying inside another rectangle of rects.
// Of identical rectangles only the first is kept.
func dropContained(rects []Rect) []Rect {
	kept := make([]Rect, 0, len(rects))
	for i, r := range rects {
		covered := false
		for j, o := range rects {
			if i == j || !o.Contains(r) {
				continue
			}
			if r == o && j > i {
				continue
			}
			covered = true
			break
		}
		if !covered {
			kept = append(kept, r)
		}
	}
	return kept
}

// unionArea sweeps the vertical strips between consecutive distinct x edges
// and sums the merged y coverage of each strip.
func unionArea(rects []Rect) float64 {
	xs := make([]int, 0, 2*len(rects))
	for _, r := range rects {
		xs = append(xs, r.X, r.X+r.Width)
	}
	sort.Ints(xs)

	type span struct{ lo, hi int }
	var area float64
	spans := make([]span, 0, len(rects))
	for i := 1; i < len(xs); i++ {
		x0, x1 := xs[i-1], xs[i]
		if x0 == x1 {
			continue
		}
		spans = spans[:0]
		for _, r := range rects {
			if r.X <= x0 && r.X+r.Width >= x1 {
				spans = append(spans, span{r.Y, r.Y + r.Height})
			}
		}
		if len(spans) == 0 {
			continue
		}
		sort.Slice(spans, func(a, b int) bool { return spans[a].lo < spans[b].lo })

		covered := 0
		cur := spans[0]
		for _, sp := range spans[1:] {
			if sp.lo > cur.hi {
				covered += cur.hi - cur.lo
				cur = sp
				continue
			}
			cur.hi = max(cur.hi, sp.hi)
		}
		covered += cur.hi - cur.lo
		area += float64(x1-x0) * float64(covered)
	}
	return area
}

// UnoccludedFraction returns the share of target left uncovered by
// occluders, plus Epsilon. A zero-area target yields 0.
func UnoccludedFraction(target Rect, occluders []Rect) float64 {
	total := target.Area()
	if total == 0 {
		return 0
	}
	return 1 - OccludedArea(target, occluders)/total + Epsilon
}
