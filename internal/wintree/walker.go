// Package wintree walks the window hierarchy in stacking order.
//
// Windows are visited pre-order depth-first with children in the order the
// window system reports them (bottom-most first), so a window visited later
// is drawn above every window visited earlier. Each node carries its
// visitation index; "above" is a comparison of indices.
package wintree

import (
	"errors"
	"fmt"

	"github.com/1broseidon/xwintoggle/internal/geometry"
	"github.com/1broseidon/xwintoggle/internal/platform"
)

// ErrTargetNotFound is returned by Above when the target window is not part
// of the tree. It is distinct from a target with nothing above it.
var ErrTargetNotFound = errors.New("target window not found in tree")

// Node is one visited window. It is only valid for the walk that produced it.
type Node struct {
	ID platform.WindowID
	// Rect is in root coordinates.
	Rect     geometry.Rect
	MapState platform.MapState
	Class    platform.WindowClass
	// Index is the pre-order visitation index, starting at 0.
	Index int
	// Parent is the Index of the parent node, or -1 for children of the root.
	Parent int
	Depth  int
	// LastDescendant is the largest Index inside this node's subtree
	// (equal to Index for leaves).
	LastDescendant int
}

// Viewable reports whether the node is mapped and all of its ancestors are.
func (n Node) Viewable() bool {
	return n.MapState == platform.MapViewable
}

// Paintable reports whether the node can obscure what is below it.
func (n Node) Paintable() bool {
	return n.Class != platform.ClassInputOnly
}

// Occludes reports whether the node counts as an occluder.
func (n Node) Occludes() bool {
	return n.Viewable() && n.Paintable()
}

// Contains reports whether other lies inside n's subtree (n excluded).
func (n Node) Contains(other Node) bool {
	return other.Index > n.Index && other.Index <= n.LastDescendant
}

// Stack is the target window together with the occluders above it, ordered
// bottom to top.
type Stack struct {
	Target Node
	Above  []Node
}

// Rects returns the occluder rectangles of s.
func (s Stack) Rects() []geometry.Rect {
	rects := make([]geometry.Rect, len(s.Above))
	for i, n := range s.Above {
		rects[i] = n.Rect
	}
	return rects
}

// Walker enumerates windows through a platform.Querier.
type Walker struct {
	q platform.Querier
}

// NewWalker creates a walker over q.
func NewWalker(q platform.Querier) *Walker {
	return &Walker{q: q}
}

type frame struct {
	id     platform.WindowID
	parent int
	depth  int
	// originX/originY is the parent's inner origin in root coordinates.
	originX int
	originY int
}

// Walk visits every window below root (root excluded) in pre-order.
// Windows destroyed during the walk are skipped together with their
// subtrees. A lost connection aborts the walk with platform.ErrDisconnected.
func (w *Walker) Walk(root platform.WindowID) ([]Node, error) {
	rootChildren, err := w.children(root)
	if err != nil {
		return nil, err
	}

	var nodes []Node
	stack := make([]frame, 0, len(rootChildren))
	stack = pushChildren(stack, rootChildren, -1, 0, 0, 0)

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		attrs, err := w.q.Attributes(top.id)
		if err != nil {
			if errors.Is(err, platform.ErrWindowGone) {
				continue
			}
			return nil, fmt.Errorf("attributes of 0x%x: %w", uint32(top.id), err)
		}

		node := Node{
			ID:             top.id,
			Rect:           attrs.Absolute(top.originX, top.originY),
			MapState:       attrs.MapState,
			Class:          attrs.Class,
			Index:          len(nodes),
			Parent:         top.parent,
			Depth:          top.depth,
			LastDescendant: len(nodes),
		}
		nodes = append(nodes, node)

		children, err := w.children(top.id)
		if err != nil {
			return nil, err
		}
		stack = pushChildren(stack, children, node.Index, node.Depth+1,
			node.Rect.X+attrs.BorderWidth, node.Rect.Y+attrs.BorderWidth)
	}

	// Children always follow their parent, so a reverse pass settles every
	// subtree bound before the parent reads it.
	for i := len(nodes) - 1; i >= 0; i-- {
		if p := nodes[i].Parent; p >= 0 && nodes[i].LastDescendant > nodes[p].LastDescendant {
			nodes[p].LastDescendant = nodes[i].LastDescendant
		}
	}

	return nodes, nil
}

// Above returns target and every occluding window visited after it.
func (w *Walker) Above(root, target platform.WindowID) (Stack, error) {
	nodes, err := w.Walk(root)
	if err != nil {
		return Stack{}, err
	}
	return AboveIn(nodes, target)
}

// AboveIn selects target and its occluders from an existing walk.
func AboveIn(nodes []Node, target platform.WindowID) (Stack, error) {
	idx := -1
	for i := range nodes {
		if nodes[i].ID == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Stack{}, fmt.Errorf("0x%x: %w", uint32(target), ErrTargetNotFound)
	}

	s := Stack{Target: nodes[idx]}
	for _, n := range nodes[idx+1:] {
		if n.Occludes() {
			s.Above = append(s.Above, n)
		}
	}
	return s, nil
}

// children lists the children of id, mapping a destroyed window to an empty
// child set.
func (w *Walker) children(id platform.WindowID) ([]platform.WindowID, error) {
	children, err := w.q.Children(id)
	if err != nil {
		if errors.Is(err, platform.ErrWindowGone) {
			return nil, nil
		}
		return nil, fmt.Errorf("children of 0x%x: %w", uint32(id), err)
	}
	return children, nil
}

// pushChildren pushes children so the bottom-most one is popped first.
func pushChildren(stack []frame, children []platform.WindowID, parent, depth, originX, originY int) []frame {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{
			id:      children[i],
			parent:  parent,
			depth:   depth,
			originX: originX,
			originY: originY,
		})
	}
	return stack
}
