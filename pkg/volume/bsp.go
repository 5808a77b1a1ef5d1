package volume

import (
	"github.com/chazu/hybridcsg/pkg/exact"
)

// node is a solid BSP tree node. Space behind a node without a back
// child is inside the solid; space in front of a node without a front
// child is outside.
type node struct {
	plane    *exact.Plane
	front    *node
	back     *node
	polygons []Polygon
}

func newNode(polys []Polygon) *node {
	n := &node{}
	n.build(polys)
	return n
}

// invert swaps solid and empty space.
func (n *node) invert() {
	for i, p := range n.polygons {
		n.polygons[i] = p.Flip()
	}
	if n.plane != nil {
		f := n.plane.Flip()
		n.plane = &f
	}
	if n.front != nil {
		n.front.invert()
	}
	if n.back != nil {
		n.back.invert()
	}
	n.front, n.back = n.back, n.front
}

// clipPolygons removes the parts of polys inside this tree's solid.
func (n *node) clipPolygons(polys []Polygon) []Polygon {
	if n.plane == nil {
		return append([]Polygon(nil), polys...)
	}
	var front, back []Polygon
	for _, p := range polys {
		splitPolygon(*n.plane, p, &front, &back, &front, &back)
	}
	if n.front != nil {
		front = n.front.clipPolygons(front)
	}
	if n.back != nil {
		back = n.back.clipPolygons(back)
	} else {
		back = nil
	}
	return append(front, back...)
}

// clipTo removes the parts of this tree's polygons inside o.
func (n *node) clipTo(o *node) {
	n.polygons = o.clipPolygons(n.polygons)
	if n.front != nil {
		n.front.clipTo(o)
	}
	if n.back != nil {
		n.back.clipTo(o)
	}
}

func (n *node) allPolygons() []Polygon {
	out := append([]Polygon(nil), n.polygons...)
	if n.front != nil {
		out = append(out, n.front.allPolygons()...)
	}
	if n.back != nil {
		out = append(out, n.back.allPolygons()...)
	}
	return out
}

func (n *node) build(polys []Polygon) {
	if len(polys) == 0 {
		return
	}
	if n.plane == nil {
		pl := polys[0].Plane
		n.plane = &pl
	}
	var front, back []Polygon
	for _, p := range polys {
		splitPolygon(*n.plane, p, &n.polygons, &n.polygons, &front, &back)
	}
	if len(front) > 0 {
		if n.front == nil {
			n.front = &node{}
		}
		n.front.build(front)
	}
	if len(back) > 0 {
		if n.back == nil {
			n.back = &node{}
		}
		n.back.build(back)
	}
}

const (
	coplanar = 0
	inFront  = 1
	behind   = 2
	spanning = 3
)

// splitPolygon sorts p against pl. Coplanar polygons go to coFront or
// coBack by facing; others are cut exactly along pl.
func splitPolygon(pl exact.Plane, p Polygon, coFront, coBack, front, back *[]Polygon) {
	kind := coplanar
	types := make([]int, len(p.Vertices))
	for i, v := range p.Vertices {
		switch pl.Side(v) {
		case 1:
			types[i] = inFront
		case -1:
			types[i] = behind
		}
		kind |= types[i]
	}
	switch kind {
	case coplanar:
		if pl.Normal.Dot(p.Plane.Normal).Sign() > 0 {
			*coFront = append(*coFront, p)
		} else {
			*coBack = append(*coBack, p)
		}
	case inFront:
		*front = append(*front, p)
	case behind:
		*back = append(*back, p)
	default:
		var f, b []exact.Vec3
		for i, vi := range p.Vertices {
			j := (i + 1) % len(p.Vertices)
			ti, tj := types[i], types[j]
			if ti != behind {
				f = append(f, vi)
			}
			if ti != inFront {
				b = append(b, vi)
			}
			if ti|tj == spanning {
				x := pl.IntersectSegment(vi, p.Vertices[j])
				f = append(f, x)
				b = append(b, x)
			}
		}
		if len(f) >= 3 {
			*front = append(*front, Polygon{Vertices: f, Plane: p.Plane})
		}
		if len(b) >= 3 {
			*back = append(*back, Polygon{Vertices: b, Plane: p.Plane})
		}
	}
}

// Union returns the volume covered by a or b.
func Union(a, b *Volume) *Volume {
	if a.IsEmpty() {
		return b.Clone()
	}
	if b.IsEmpty() {
		return a.Clone()
	}
	ta, tb := newNode(a.polygons), newNode(b.polygons)
	ta.clipTo(tb)
	tb.clipTo(ta)
	tb.invert()
	tb.clipTo(ta)
	tb.invert()
	ta.build(tb.allPolygons())
	return New(ta.allPolygons()...)
}

// Intersection returns the volume covered by both a and b.
func Intersection(a, b *Volume) *Volume {
	if a.IsEmpty() || b.IsEmpty() {
		return New()
	}
	ta, tb := newNode(a.polygons), newNode(b.polygons)
	ta.invert()
	tb.clipTo(ta)
	tb.invert()
	ta.clipTo(tb)
	tb.clipTo(ta)
	ta.build(tb.allPolygons())
	ta.invert()
	return New(ta.allPolygons()...)
}

// Difference returns the volume covered by a but not b.
func Difference(a, b *Volume) *Volume {
	if a.IsEmpty() {
		return New()
	}
	if b.IsEmpty() {
		return a.Clone()
	}
	ta, tb := newNode(a.polygons), newNode(b.polygons)
	ta.invert()
	ta.clipTo(tb)
	tb.clipTo(ta)
	tb.invert()
	tb.clipTo(ta)
	tb.invert()
	ta.build(tb.allPolygons())
	ta.invert()
	return New(ta.allPolygons()...)
}
