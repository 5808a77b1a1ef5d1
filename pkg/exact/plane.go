package exact

import "math/big"

// Plane is the oriented plane Normal·x = W. The normal need not be unit
// length; only its direction matters.
type Plane struct {
	Normal Vec3
	W      *big.Rat
}

// PlaneFromPoints returns the plane through a, b and c oriented so that
// abc is counter-clockwise seen from the front. ok is false when the
// points are collinear.
func PlaneFromPoints(a, b, c Vec3) (pl Plane, ok bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	if n.IsZero() {
		return Plane{}, false
	}
	return Plane{Normal: n, W: n.Dot(a)}, true
}

// NewellNormal sums the edge cross products of a closed contour. For a
// planar contour the result is twice its area times the unit normal.
func NewellNormal(pts []Vec3) Vec3 {
	nx, ny, nz := new(big.Rat), new(big.Rat), new(big.Rat)
	for i := range pts {
		c := pts[i]
		n := pts[(i+1)%len(pts)]
		nx.Add(nx, mul(sub(c.Y, n.Y), add(c.Z, n.Z)))
		ny.Add(ny, mul(sub(c.Z, n.Z), add(c.X, n.X)))
		nz.Add(nz, mul(sub(c.X, n.X), add(c.Y, n.Y)))
	}
	return Vec3{nx, ny, nz}
}

// PlaneFromPolygon returns the supporting plane of a planar contour.
func PlaneFromPolygon(pts []Vec3) (pl Plane, ok bool) {
	if len(pts) < 3 {
		return Plane{}, false
	}
	n := NewellNormal(pts)
	if n.IsZero() {
		return Plane{}, false
	}
	return Plane{Normal: n, W: n.Dot(pts[0])}, true
}

// Eval returns Normal·x - W.
func (p Plane) Eval(x Vec3) *big.Rat {
	return sub(p.Normal.Dot(x), p.W)
}

// Side returns +1 in front of the plane, -1 behind and 0 on it.
func (p Plane) Side(x Vec3) int {
	return p.Normal.Dot(x).Cmp(p.W)
}

// Flip returns the plane with opposite orientation.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Neg(), W: neg(p.W)}
}

// IntersectSegment returns the point where segment ab meets the plane.
// a and b must lie on strictly different sides.
func (p Plane) IntersectSegment(a, b Vec3) Vec3 {
	da := p.Eval(a)
	db := p.Eval(b)
	t := quo(da, sub(da, db))
	return a.Add(b.Sub(a).Scale(t))
}

// Coincident reports whether p and q describe the same point set,
// regardless of orientation.
func (p Plane) Coincident(q Plane) bool {
	if !p.Normal.Cross(q.Normal).IsZero() {
		return false
	}
	// p.W/|p.n| must equal q.W/|q.n| along the shared direction.
	k := p.Normal.Dot(q.Normal)
	return mul(p.W, q.Normal.Dot(q.Normal)).Cmp(mul(q.W, k)) == 0
}

// IntersectPlanes returns the single point common to three planes.
// ok is false when the planes do not meet in exactly one point.
func IntersectPlanes(p, q, r Plane) (pt Vec3, ok bool) {
	det := p.Normal.Dot(q.Normal.Cross(r.Normal))
	if det.Sign() == 0 {
		return Vec3{}, false
	}
	// Cramer's rule in vector form.
	v := q.Normal.Cross(r.Normal).Scale(p.W)
	v = v.Add(r.Normal.Cross(p.Normal).Scale(q.W))
	v = v.Add(p.Normal.Cross(q.Normal).Scale(r.W))
	return v.Scale(new(big.Rat).Inv(det)), true
}
