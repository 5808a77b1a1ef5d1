package exact

import "math/big"

// Orient3D returns the sign of the signed volume of tetrahedron abcd:
// positive when d lies on the side of plane abc that (b-a)x(c-a) points to.
func Orient3D(a, b, c, d Vec3) int {
	return b.Sub(a).Cross(c.Sub(a)).Dot(d.Sub(a)).Sign()
}

// Collinear reports whether a, b and c lie on one line.
func Collinear(a, b, c Vec3) bool {
	return b.Sub(a).Cross(c.Sub(a)).IsZero()
}

// OnSegment reports whether p lies strictly between a and b.
func OnSegment(a, b, p Vec3) bool {
	if !Collinear(a, b, p) {
		return false
	}
	ab := b.Sub(a)
	t := p.Sub(a).Dot(ab)
	return t.Sign() > 0 && t.Cmp(ab.Dot(ab)) < 0
}

// SegmentParam returns the position of p along a->b measured on the
// dominant axis of b-a. It orders collinear points without division.
func SegmentParam(a, b, p Vec3) *big.Rat {
	d := b.Sub(a)
	k := DominantAxis(d)
	t := sub(p.Coord(k), a.Coord(k))
	if d.Coord(k).Sign() < 0 {
		t.Neg(t)
	}
	return t
}

// Vec2 is a rational point in a projection plane.
type Vec2 struct {
	X, Y *big.Rat
}

func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{sub(a.X, b.X), sub(a.Y, b.Y)}
}

func (a Vec2) Equal(b Vec2) bool {
	return a.X.Cmp(b.X) == 0 && a.Y.Cmp(b.Y) == 0
}

func (a Vec2) Key() string {
	return a.X.RatString() + "," + a.Y.RatString()
}

// Orient2D returns +1 if abc turns counter-clockwise, -1 if clockwise
// and 0 if collinear.
func Orient2D(a, b, c Vec2) int {
	l := mul(sub(b.X, a.X), sub(c.Y, a.Y))
	r := mul(sub(b.Y, a.Y), sub(c.X, a.X))
	return l.Cmp(r)
}

// InCircle returns +1 if d lies strictly inside the circumcircle of the
// counter-clockwise triangle abc, -1 outside and 0 on it.
func InCircle(a, b, c, d Vec2) int {
	ad, bd, cd := a.Sub(d), b.Sub(d), c.Sub(d)
	lift := func(p Vec2) *big.Rat { return add(mul(p.X, p.X), mul(p.Y, p.Y)) }
	det := mul(lift(ad), sub(mul(bd.X, cd.Y), mul(cd.X, bd.Y)))
	det.Add(det, mul(lift(bd), sub(mul(cd.X, ad.Y), mul(ad.X, cd.Y))))
	det.Add(det, mul(lift(cd), sub(mul(ad.X, bd.Y), mul(bd.X, ad.Y))))
	return det.Sign()
}

// SegmentsCross reports whether open segments ab and cd cross at a
// single point interior to both.
func SegmentsCross(a, b, c, d Vec2) bool {
	return Orient2D(a, b, c)*Orient2D(a, b, d) < 0 &&
		Orient2D(c, d, a)*Orient2D(c, d, b) < 0
}

// OnSegment2D reports whether p lies strictly between a and b.
func OnSegment2D(a, b, p Vec2) bool {
	if Orient2D(a, b, p) != 0 {
		return false
	}
	ab, ap := b.Sub(a), p.Sub(a)
	t := add(mul(ap.X, ab.X), mul(ap.Y, ab.Y))
	l := add(mul(ab.X, ab.X), mul(ab.Y, ab.Y))
	return t.Sign() > 0 && t.Cmp(l) < 0
}

// LineIntersection2D returns the intersection of lines ab and cd. The
// lines must not be parallel.
func LineIntersection2D(a, b, c, d Vec2) Vec2 {
	r := b.Sub(a)
	s := d.Sub(c)
	den := sub(mul(r.X, s.Y), mul(r.Y, s.X))
	ca := c.Sub(a)
	t := quo(sub(mul(ca.X, s.Y), mul(ca.Y, s.X)), den)
	return Vec2{add(a.X, mul(r.X, t)), add(a.Y, mul(r.Y, t))}
}
