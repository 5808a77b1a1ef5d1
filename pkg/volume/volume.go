// Package volume implements the exact polyhedral representation of a
// solid. Booleans are computed on binary space partitioning trees over
// rational planes, so they cannot fail numerically.
package volume

import (
	"errors"
	"math/big"
	"unsafe"

	"github.com/chazu/hybridcsg/pkg/exact"
)

// ErrDegeneratePolygon is returned for contours with no supporting plane.
var ErrDegeneratePolygon = errors.New("volume: degenerate polygon")

// Polygon is a planar convex or non-convex contour, counter-clockwise
// around Plane.Normal, which points out of the solid.
type Polygon struct {
	Vertices []exact.Vec3
	Plane    exact.Plane
}

// NewPolygon returns the polygon through vs.
func NewPolygon(vs ...exact.Vec3) (Polygon, error) {
	pl, ok := exact.PlaneFromPolygon(vs)
	if !ok {
		return Polygon{}, ErrDegeneratePolygon
	}
	return Polygon{Vertices: vs, Plane: pl}, nil
}

// Flip reverses the polygon.
func (p Polygon) Flip() Polygon {
	vs := make([]exact.Vec3, len(p.Vertices))
	for i, v := range p.Vertices {
		vs[len(vs)-1-i] = v
	}
	return Polygon{Vertices: vs, Plane: p.Plane.Flip()}
}

// Volume is a solid bounded by oriented polygons.
type Volume struct {
	polygons []Polygon
	// parts caches ConvexParts.
	parts []*Volume
}

// New returns the volume bounded by polys.
func New(polys ...Polygon) *Volume {
	return &Volume{polygons: polys}
}

// Polygons returns the boundary polygons. The slice must not be modified.
func (v *Volume) Polygons() []Polygon {
	return v.polygons
}

// IsEmpty reports whether the volume has no boundary.
func (v *Volume) IsEmpty() bool {
	return len(v.polygons) == 0
}

// Clone returns a copy sharing the immutable coordinates. Cached convex
// parts are not carried over.
func (v *Volume) Clone() *Volume {
	polys := make([]Polygon, len(v.polygons))
	for i, p := range v.polygons {
		polys[i] = Polygon{Vertices: append([]exact.Vec3(nil), p.Vertices...), Plane: p.Plane}
	}
	return &Volume{polygons: polys}
}

// NumFacets returns the polygon count.
func (v *Volume) NumFacets() int {
	return len(v.polygons)
}

// NumVertices returns the number of distinct vertex positions.
func (v *Volume) NumVertices() int {
	seen := make(map[string]struct{})
	for _, p := range v.polygons {
		for _, q := range p.Vertices {
			seen[q.Key()] = struct{}{}
		}
	}
	return len(seen)
}

// Vertices returns the distinct vertex positions in first-seen order.
func (v *Volume) Vertices() []exact.Vec3 {
	seen := make(map[string]struct{})
	var out []exact.Vec3
	for _, p := range v.polygons {
		for _, q := range p.Vertices {
			if _, ok := seen[q.Key()]; !ok {
				seen[q.Key()] = struct{}{}
				out = append(out, q)
			}
		}
	}
	return out
}

// BoundingBox returns the exact bounding box.
func (v *Volume) BoundingBox() exact.Box {
	var b exact.Box
	for _, p := range v.polygons {
		for _, q := range p.Vertices {
			b = b.Include(q)
		}
	}
	return b
}

// SignedVolume returns the enclosed volume.
func (v *Volume) SignedVolume() *big.Rat {
	sum := new(big.Rat)
	for _, p := range v.polygons {
		for i := 1; i+1 < len(p.Vertices); i++ {
			a, b, c := p.Vertices[0], p.Vertices[i], p.Vertices[i+1]
			sum.Add(sum, a.Dot(b.Cross(c)))
		}
	}
	return sum.Quo(sum, exact.Int(6))
}

// MemSize estimates the memory held by the volume in bytes.
func (v *Volume) MemSize() int {
	const ratSize = int(unsafe.Sizeof(big.Rat{}))
	n := int(unsafe.Sizeof(*v))
	for _, p := range v.polygons {
		n += int(unsafe.Sizeof(p)) + 4*ratSize + len(p.Vertices)*3*ratSize
	}
	return n
}

// Transform applies a to every vertex. Polygons are reversed when a
// mirrors space.
func (v *Volume) Transform(a exact.Affine) {
	mirror := a.Determinant().Sign() < 0
	for i, p := range v.polygons {
		vs := make([]exact.Vec3, len(p.Vertices))
		for j, q := range p.Vertices {
			vs[j] = a.Apply(q)
		}
		if mirror {
			for l, r := 0, len(vs)-1; l < r; l, r = l+1, r-1 {
				vs[l], vs[r] = vs[r], vs[l]
			}
		}
		pl, ok := exact.PlaneFromPolygon(vs)
		if !ok {
			// Only a singular map collapses a polygon.
			pl = exact.Plane{Normal: exact.Zero(), W: new(big.Rat)}
		}
		v.polygons[i] = Polygon{Vertices: vs, Plane: pl}
	}
	v.parts = nil
}
