// Package bvh implements a static bounding-volume hierarchy over a fixed
// set of leaves. A tree over N >= 2 leaves has exactly N-1 internal nodes
// laid out in one slice; it is built once and never modified.
package bvh

import (
	"math/bits"
	"runtime"

	"github.com/chazu/hybridcsg/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	"golang.org/x/sync/errgroup"
)

// Bounded is anything with an axis-aligned bounding box.
type Bounded interface {
	BoundingBox() sdf.Box3
}

type item[L Bounded] struct {
	leaf L
	box  sdf.Box3
}

// Tree is a BVH over leaves of type L.
//
// The leaves of every subtree occupy a contiguous range of items. For a
// node at index i covering n leaves:
//   - n == 2: both children are leaves
//   - n == 3: the left child is a leaf, the right child is node i+1
//   - n > 3: the left child is node i+1 covering n/2 leaves, the right
//     child is node i+n/2
type Tree[L Bounded] struct {
	items []item[L]
	nodes []sdf.Box3
}

// New builds a tree over leaves. The input slice is not retained.
func New[L Bounded](leaves []L) *Tree[L] {
	t := &Tree[L]{items: make([]item[L], len(leaves))}
	for i, l := range leaves {
		t.items[i] = item[L]{leaf: l, box: l.BoundingBox()}
	}
	if len(leaves) < 2 {
		return t
	}
	t.nodes = make([]sdf.Box3, len(leaves)-1)
	depth := parallelDepth(runtime.GOMAXPROCS(0))
	t.build(0, t.items, 0, depth)
	kernel.Logger().Debug("bvh: built", "leaves", len(leaves), "nodes", len(t.nodes), "parallelDepth", depth)
	return t
}

// parallelDepth returns floor(log2(procs)): the recursion depth up to
// which sibling subtrees are built concurrently.
func parallelDepth(procs int) int {
	if procs < 1 {
		return 0
	}
	return bits.Len(uint(procs)) - 1
}

func (t *Tree[L]) build(node int, items []item[L], depth, maxDepth int) {
	box := items[0].box
	for _, it := range items[1:] {
		box = Union(box, it.box)
	}
	t.nodes[node] = box

	n := len(items)
	axis := longestAxis(box)
	switch n {
	case 2:
		return
	case 3:
		// Peel off the extremal leaf; the other two form node+1.
		for i := 1; i < 3; i++ {
			for j := i; j > 0 && center(items[j].box, axis) < center(items[j-1].box, axis); j-- {
				items[j], items[j-1] = items[j-1], items[j]
			}
		}
		t.build(node+1, items[1:], depth+1, maxDepth)
		return
	}

	half := n / 2
	selectNth(items, half, axis)
	left, right := items[:half], items[half:]
	if depth < maxDepth {
		var g errgroup.Group
		g.Go(func() error {
			t.build(node+1, left, depth+1, maxDepth)
			return nil
		})
		g.Go(func() error {
			t.build(node+half, right, depth+1, maxDepth)
			return nil
		})
		_ = g.Wait()
		return
	}
	t.build(node+1, left, depth+1, maxDepth)
	t.build(node+half, right, depth+1, maxDepth)
}

// selectNth partially orders items so that items[k] holds the element
// that a full sort on the axis midpoint would put there, with no larger
// element before it and no smaller one after it.
func selectNth[L Bounded](items []item[L], k, axis int) {
	lo, hi := 0, len(items)-1
	for lo < hi {
		pivot := center(items[(lo+hi)/2].box, axis)
		i, j := lo, hi
		for i <= j {
			for center(items[i].box, axis) < pivot {
				i++
			}
			for center(items[j].box, axis) > pivot {
				j--
			}
			if i <= j {
				items[i], items[j] = items[j], items[i]
				i++
				j--
			}
		}
		switch {
		case k <= j:
			hi = j
		case k >= i:
			lo = i
		default:
			return
		}
	}
}

// Len returns the number of leaves.
func (t *Tree[L]) Len() int {
	return len(t.items)
}

// NumNodes returns the number of internal nodes.
func (t *Tree[L]) NumNodes() int {
	return len(t.nodes)
}

// Search returns every leaf whose box satisfies pred. Subtrees whose box
// fails pred are pruned, so pred must hold for a box whenever it holds
// for any box contained in it.
func (t *Tree[L]) Search(pred func(sdf.Box3) bool) []L {
	var out []L
	switch len(t.items) {
	case 0:
		return nil
	case 1:
		if pred(t.items[0].box) {
			out = append(out, t.items[0].leaf)
		}
		return out
	}
	if pred(t.nodes[0]) {
		t.visit(0, t.items, pred, &out)
	}
	return out
}

func (t *Tree[L]) visit(node int, items []item[L], pred func(sdf.Box3) bool, out *[]L) {
	leaf := func(it item[L]) {
		if pred(it.box) {
			*out = append(*out, it.leaf)
		}
	}
	child := func(n int, sub []item[L]) {
		if pred(t.nodes[n]) {
			t.visit(n, sub, pred, out)
		}
	}
	switch len(items) {
	case 2:
		leaf(items[0])
		leaf(items[1])
	case 3:
		leaf(items[0])
		child(node+1, items[1:])
	default:
		half := len(items) / 2
		child(node+1, items[:half])
		child(node+half, items[half:])
	}
}

// Query returns the leaves whose box intersects q according to
// intersects.
func Query[L Bounded, Q any](t *Tree[L], q Q, intersects func(sdf.Box3, Q) bool) []L {
	return t.Search(func(b sdf.Box3) bool { return intersects(b, q) })
}

// Intersecting returns the leaves whose box overlaps box.
func (t *Tree[L]) Intersecting(box sdf.Box3) []L {
	return Query(t, box, Overlaps)
}

// Overlaps reports whether two closed boxes share a point.
func Overlaps(a, b sdf.Box3) bool {
	return a.Min.X <= b.Max.X && b.Min.X <= a.Max.X &&
		a.Min.Y <= b.Max.Y && b.Min.Y <= a.Max.Y &&
		a.Min.Z <= b.Max.Z && b.Min.Z <= a.Max.Z
}

// Union returns the smallest box containing a and b.
func Union(a, b sdf.Box3) sdf.Box3 {
	a.Min.X, a.Max.X = min(a.Min.X, b.Min.X), max(a.Max.X, b.Max.X)
	a.Min.Y, a.Max.Y = min(a.Min.Y, b.Min.Y), max(a.Max.Y, b.Max.Y)
	a.Min.Z, a.Max.Z = min(a.Min.Z, b.Min.Z), max(a.Max.Z, b.Max.Z)
	return a
}

func longestAxis(b sdf.Box3) int {
	dx, dy, dz := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y, b.Max.Z-b.Min.Z
	switch {
	case dx >= dy && dx >= dz:
		return 0
	case dy >= dz:
		return 1
	}
	return 2
}

func center(b sdf.Box3, axis int) float64 {
	switch axis {
	case 0:
		return b.Min.X + b.Max.X
	case 1:
		return b.Min.Y + b.Max.Y
	}
	return b.Min.Z + b.Max.Z
}
