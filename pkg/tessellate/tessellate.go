// Package tessellate triangulates near-planar polygons with holes. The
// polygon is projected onto the coordinate plane that foreshortens it
// least, triangulated there with an exact constrained Delaunay
// triangulation, classified by nesting parity and lifted back to 3-D.
// Non-simple input (crossing or touching contours) never aborts a call:
// problems are reported through the returned error alongside whatever
// triangles could be produced.
package tessellate

import (
	"errors"

	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
)

var (
	// ErrSelfIntersecting reports constraints that cross each other.
	ErrSelfIntersecting = errors.New("tessellate: contours intersect")
	// ErrConstraint reports a constraint that could not be forced into
	// the triangulation.
	ErrConstraint = errors.New("tessellate: constraint insertion failed")
	// ErrDeprojection reports a 2-D point that could not be lifted back
	// onto the supporting plane.
	ErrDeprojection = errors.New("tessellate: deprojection failed")
	// ErrDegenerate reports input without any area.
	ErrDegenerate = errors.New("tessellate: polygon has no area")
)

// Triangle is a triangle of exact points.
type Triangle [3]exact.Vec3

// Polygon is an outer contour plus zero or more holes. Contours are
// closed implicitly; the last point connects back to the first.
type Polygon struct {
	Outer []exact.Vec3
	Holes [][]exact.Vec3
}

type options struct {
	normal        *exact.Vec3
	normalEpsilon float64
}

// Option configures Tessellate.
type Option func(*options)

// WithNormal supplies a precomputed normal instead of the Newell normal
// of the outer contour.
func WithNormal(n exact.Vec3) Option {
	return func(o *options) { o.normal = &n }
}

// WithNormalEpsilon sets the squared length below which a normal is
// reported as near-zero.
func WithNormalEpsilon(eps float64) Option {
	return func(o *options) { o.normalEpsilon = eps }
}

// Tessellate triangulates p. Triangles wind counter-clockwise around the
// normal. A returned error describes every problem met; the triangles
// returned with it cover as much of the region as could be resolved.
func Tessellate(p Polygon, opts ...Option) ([]Triangle, error) {
	o := options{normalEpsilon: 1e-12}
	for _, opt := range opts {
		opt(&o)
	}
	if len(p.Holes) == 0 && len(p.Outer) == 3 {
		return []Triangle{{p.Outer[0], p.Outer[1], p.Outer[2]}}, nil
	}
	if len(p.Outer) < 3 {
		return nil, ErrDegenerate
	}

	var normal exact.Vec3
	if o.normal != nil {
		normal = *o.normal
	} else {
		normal = exact.NewellNormal(p.Outer)
	}
	if exact.Float(normal.Dot(normal)) < o.normalEpsilon {
		// The projection is arbitrary for such input.
		kernel.Logger().Debug("tessellate: near-zero normal", "normal", normal.String())
		if normal.IsZero() {
			normal = cornerNormal(p.Outer)
		}
	}

	tr := NewTriangulator(NewProjection(normal, exact.Centroid(p.Outer...)))
	for _, c := range append([][]exact.Vec3{p.Outer}, p.Holes...) {
		for i := range c {
			tr.AddConstraint(c[i], c[(i+1)%len(c)], true)
		}
	}
	return tr.Triangulate()
}

// cornerNormal returns the normal of the first non-degenerate corner of
// a contour whose Newell normal vanishes, such as a figure-eight.
func cornerNormal(c []exact.Vec3) exact.Vec3 {
	for i := 2; i < len(c); i++ {
		if n := c[1].Sub(c[0]).Cross(c[i].Sub(c[0])); !n.IsZero() {
			return n
		}
	}
	return exact.V(0, 0, 1)
}

// Area returns the float area of a triangle, for diagnostics and tests.
func (t Triangle) Area() float64 {
	n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Float()
	return 0.5 * n.Length()
}
