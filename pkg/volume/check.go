package volume

import (
	"sort"

	"github.com/chazu/hybridcsg/pkg/bvh"
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/deadsy/sdfx/sdf"
)

type polyRef struct {
	i   int
	box sdf.Box3
}

func (r polyRef) BoundingBox() sdf.Box3 { return r.box }

// ConformingContours returns each polygon's contour with every vertex of
// the volume that lies inside one of its edges inserted in order. After
// this, neighbouring polygons share whole edges.
func (v *Volume) ConformingContours() [][]exact.Vec3 {
	refs := make([]polyRef, len(v.polygons))
	for i, p := range v.polygons {
		refs[i] = polyRef{i: i, box: exact.BoxOf(p.Vertices...).Float()}
	}
	tree := bvh.New(refs)

	out := make([][]exact.Vec3, len(v.polygons))
	for i, p := range v.polygons {
		var contour []exact.Vec3
		for k, a := range p.Vertices {
			b := p.Vertices[(k+1)%len(p.Vertices)]
			contour = append(contour, a)
			seen := make(map[string]bool)
			var mids []exact.Vec3
			for _, ref := range tree.Intersecting(exact.BoxOf(a, b).Float()) {
				for _, q := range v.polygons[ref.i].Vertices {
					if !seen[q.Key()] && exact.OnSegment(a, b, q) {
						seen[q.Key()] = true
						mids = append(mids, q)
					}
				}
			}
			sort.Slice(mids, func(x, y int) bool {
				return exact.SegmentParam(a, b, mids[x]).Cmp(exact.SegmentParam(a, b, mids[y])) < 0
			})
			contour = append(contour, mids...)
		}
		out[i] = contour
	}
	return out
}

// edgeUse counts directed edges of the conforming contours.
func (v *Volume) edgeUse() map[[2]string]int {
	use := make(map[[2]string]int)
	for _, c := range v.ConformingContours() {
		for k, a := range c {
			b := c[(k+1)%len(c)]
			use[[2]string{a.Key(), b.Key()}]++
		}
	}
	return use
}

// IsValid reports whether every polygon is planar with a well-defined
// plane and the boundary is closed.
func (v *Volume) IsValid() bool {
	for _, p := range v.polygons {
		if len(p.Vertices) < 3 || p.Plane.Normal.IsZero() {
			return false
		}
		for _, q := range p.Vertices {
			if p.Plane.Side(q) != 0 {
				return false
			}
		}
		n := exact.NewellNormal(p.Vertices)
		if n.IsZero() || n.Dot(p.Plane.Normal).Sign() <= 0 {
			return false
		}
	}
	use := v.edgeUse()
	for e, n := range use {
		if e[0] == e[1] || use[[2]string{e[1], e[0]}] != n {
			return false
		}
	}
	return true
}

// IsSimple reports whether the volume is valid and bounded by a
// 2-manifold surface: every edge joins exactly two polygons.
func (v *Volume) IsSimple() bool {
	if !v.IsValid() {
		return false
	}
	for _, n := range v.edgeUse() {
		if n != 1 {
			return false
		}
	}
	return true
}

// IsConvex reports whether the volume is non-empty and lies behind every
// one of its polygon planes.
func (v *Volume) IsConvex() bool {
	if v.IsEmpty() {
		return false
	}
	verts := v.Vertices()
	for _, p := range v.polygons {
		for _, q := range verts {
			if p.Plane.Side(q) > 0 {
				return false
			}
		}
	}
	return true
}
