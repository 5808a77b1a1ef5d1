package tessellate

import (
	"fmt"
	"math/big"

	"github.com/chazu/hybridcsg/pkg/exact"
)

// Projection maps points of a (near-)planar polygon onto the coordinate
// plane that foreshortens it least, and lifts 2-D points back onto the
// polygon's supporting plane.
type Projection struct {
	drop   int  // axis dropped by the projection
	flip   bool // swap the 2-D axes so winding is preserved
	normal exact.Vec3
	origin exact.Vec3 // a point on the supporting plane
}

// NewProjection builds the projection for the plane through origin with
// the given normal. The dropped axis is the normal's dominant component;
// a counter-clockwise contour seen from the normal's side stays
// counter-clockwise in 2-D.
func NewProjection(normal, origin exact.Vec3) Projection {
	drop := exact.DominantAxis(normal)
	return Projection{
		drop:   drop,
		flip:   normal.Coord(drop).Sign() < 0,
		normal: normal,
		origin: origin,
	}
}

// axes returns the kept axes in the order they appear in 2-D.
func (p Projection) axes() (int, int) {
	u, v := (p.drop+1)%3, (p.drop+2)%3
	if p.flip {
		return v, u
	}
	return u, v
}

// Project maps q into the projection plane.
func (p Projection) Project(q exact.Vec3) exact.Vec2 {
	u, v := p.axes()
	return exact.Vec2{X: q.Coord(u), Y: q.Coord(v)}
}

// Deproject intersects the line through q along the dropped axis with
// the supporting plane.
func (p Projection) Deproject(q exact.Vec2) (exact.Vec3, error) {
	u, v := p.axes()
	nd := p.normal.Coord(p.drop)
	if nd.Sign() == 0 {
		return exact.Vec3{}, fmt.Errorf("%w: line through %s is parallel to the plane", ErrDeprojection, q.Key())
	}
	// n_d*w = n·origin - n_u*q.X - n_v*q.Y
	w := p.normal.Dot(p.origin)
	w.Sub(w, new(big.Rat).Mul(p.normal.Coord(u), q.X))
	w.Sub(w, new(big.Rat).Mul(p.normal.Coord(v), q.Y))
	w.Quo(w, nd)

	var c [3]*big.Rat
	c[u], c[v], c[p.drop] = q.X, q.Y, w
	return exact.VR(c[0], c[1], c[2]), nil
}
