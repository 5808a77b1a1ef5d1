package mesh

import (
	"github.com/chazu/hybridcsg/pkg/exact"
)

// SelfIntersections returns pairs of faces that meet anywhere other than
// along a shared edge or at a shared vertex.
func (m *Mesh) SelfIntersections() [][2]int {
	if len(m.Faces) < 2 {
		return nil
	}
	tree := m.faceTree()
	var pairs [][2]int
	for f := range m.Faces {
		for _, ref := range tree.Intersecting(m.faceBox(f).Float()) {
			if ref.f <= f {
				continue
			}
			if facesCollide(m.Triangle(f), m.Triangle(ref.f)) {
				pairs = append(pairs, [2]int{f, ref.f})
			}
		}
	}
	return pairs
}

// facesCollide reports whether two faces of one mesh intersect
// improperly. Shared corners are matched by position.
func facesCollide(t, u [3]exact.Vec3) bool {
	var ti, ui []int
	for i := range t {
		for j := range u {
			if t[i].Equal(u[j]) {
				ti = append(ti, i)
				ui = append(ui, j)
			}
		}
	}
	switch len(ti) {
	case 0:
		return trianglesIntersect(t, u)
	case 1:
		s, i, j := t[ti[0]], ti[0], ui[0]
		ta, tb := t[(i+1)%3], t[(i+2)%3]
		ua, ub := u[(j+1)%3], u[(j+2)%3]
		if segmentTriangle(ta, tb, u) || segmentTriangle(ua, ub, t) {
			return true
		}
		if coplanar(t, u) {
			// Overlapping fans around the shared corner.
			for _, p := range []exact.Vec3{ta, tb} {
				if pointInTriangle(exact.Centroid(s, p), u) {
					return true
				}
			}
			for _, p := range []exact.Vec3{ua, ub} {
				if pointInTriangle(exact.Centroid(s, p), t) {
					return true
				}
			}
		}
		return false
	case 2:
		// Faces sharing an edge only collide when folded onto each other.
		if !coplanar(t, u) {
			return false
		}
		a, b := t[ti[0]], t[ti[1]]
		c := t[3-ti[0]-ti[1]]
		d := u[3-ui[0]-ui[1]]
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		return sideOfEdge(n, a, b, c) == sideOfEdge(n, a, b, d)
	default:
		return true
	}
}

func coplanar(t, u [3]exact.Vec3) bool {
	for _, p := range u {
		if exact.Orient3D(t[0], t[1], t[2], p) != 0 {
			return false
		}
	}
	return true
}

// sideOfEdge returns the side of p relative to line ab within the plane
// with normal n.
func sideOfEdge(n, a, b, p exact.Vec3) int {
	return b.Sub(a).Cross(p.Sub(a)).Dot(n).Sign()
}

// pointInTriangle reports whether p lies in the closed triangle t. p
// must be coplanar with t.
func pointInTriangle(p exact.Vec3, t [3]exact.Vec3) bool {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
	if n.IsZero() {
		return false
	}
	for k := 0; k < 3; k++ {
		if sideOfEdge(n, t[k], t[(k+1)%3], p) < 0 {
			return false
		}
	}
	return true
}

// segmentsTouch reports whether closed segments ab and cd, lying in the
// plane with normal n, share a point.
func segmentsTouch(n, a, b, c, d exact.Vec3) bool {
	o1 := sideOfEdge(n, a, b, c)
	o2 := sideOfEdge(n, a, b, d)
	o3 := sideOfEdge(n, c, d, a)
	o4 := sideOfEdge(n, c, d, b)
	if o1 == 0 && o2 == 0 {
		// Collinear: compare extents along the line.
		k := exact.DominantAxis(b.Sub(a))
		if b.Sub(a).IsZero() {
			k = exact.DominantAxis(d.Sub(c))
		}
		lo1, hi1 := exact.Min(a.Coord(k), b.Coord(k)), exact.Max(a.Coord(k), b.Coord(k))
		lo2, hi2 := exact.Min(c.Coord(k), d.Coord(k)), exact.Max(c.Coord(k), d.Coord(k))
		return lo1.Cmp(hi2) <= 0 && lo2.Cmp(hi1) <= 0
	}
	return o1*o2 <= 0 && o3*o4 <= 0
}

// segmentTriangle reports whether closed segment pq meets closed
// triangle t.
func segmentTriangle(p, q exact.Vec3, t [3]exact.Vec3) bool {
	sp := exact.Orient3D(t[0], t[1], t[2], p)
	sq := exact.Orient3D(t[0], t[1], t[2], q)
	if sp*sq > 0 {
		return false
	}
	if sp == 0 && sq == 0 {
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		if pointInTriangle(p, t) || pointInTriangle(q, t) {
			return true
		}
		for k := 0; k < 3; k++ {
			if segmentsTouch(n, p, q, t[k], t[(k+1)%3]) {
				return true
			}
		}
		return false
	}
	o1 := exact.Orient3D(p, q, t[0], t[1])
	o2 := exact.Orient3D(p, q, t[1], t[2])
	o3 := exact.Orient3D(p, q, t[2], t[0])
	return (o1 >= 0 && o2 >= 0 && o3 >= 0) || (o1 <= 0 && o2 <= 0 && o3 <= 0)
}

// trianglesIntersect reports whether closed triangles t and u share a
// point.
func trianglesIntersect(t, u [3]exact.Vec3) bool {
	su := sides(t, u)
	if allSame(su) {
		return false
	}
	st := sides(u, t)
	if allSame(st) {
		return false
	}
	if su == [3]int{} {
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		for i := 0; i < 3; i++ {
			if pointInTriangle(t[i], u) || pointInTriangle(u[i], t) {
				return true
			}
			for j := 0; j < 3; j++ {
				if segmentsTouch(n, t[i], t[(i+1)%3], u[j], u[(j+1)%3]) {
					return true
				}
			}
		}
		return false
	}
	pl, _ := exact.PlaneFromPoints(t[0], t[1], t[2])
	ql, _ := exact.PlaneFromPoints(u[0], u[1], u[2])
	k := exact.DominantAxis(pl.Normal.Cross(ql.Normal))
	t0, t1 := planeSection(u, su, pl, k)
	u0, u1 := planeSection(t, st, ql, k)
	return t0.Coord(k).Cmp(u1.Coord(k)) <= 0 && u0.Coord(k).Cmp(t1.Coord(k)) <= 0
}

// sides classifies the corners of u against the plane of t.
func sides(t, u [3]exact.Vec3) [3]int {
	return [3]int{
		exact.Orient3D(t[0], t[1], t[2], u[0]),
		exact.Orient3D(t[0], t[1], t[2], u[1]),
		exact.Orient3D(t[0], t[1], t[2], u[2]),
	}
}

func allSame(s [3]int) bool {
	return (s[0] > 0 && s[1] > 0 && s[2] > 0) || (s[0] < 0 && s[1] < 0 && s[2] < 0)
}

// planeSection returns the ends of the segment where triangle t meets
// plane pl, ordered along axis k. s holds t's corner sides against pl
// and must not all agree.
func planeSection(t [3]exact.Vec3, s [3]int, pl exact.Plane, k int) (lo, hi exact.Vec3) {
	var pts []exact.Vec3
	for i := 0; i < 3; i++ {
		j := (i + 1) % 3
		if s[i] == 0 {
			pts = append(pts, t[i])
		}
		if s[i]*s[j] < 0 {
			pts = append(pts, pl.IntersectSegment(t[i], t[j]))
		}
	}
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.Coord(k).Cmp(lo.Coord(k)) < 0 {
			lo = p
		}
		if p.Coord(k).Cmp(hi.Coord(k)) > 0 {
			hi = p
		}
	}
	return lo, hi
}
