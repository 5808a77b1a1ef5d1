package exact

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Box is an exact axis-aligned bounding box. The zero value is empty.
type Box struct {
	Min, Max Vec3
	ok       bool
}

// BoxOf returns the smallest box containing pts.
func BoxOf(pts ...Vec3) Box {
	var b Box
	for _, p := range pts {
		b = b.Include(p)
	}
	return b
}

// IsEmpty reports whether the box contains no points.
func (b Box) IsEmpty() bool {
	return !b.ok
}

// Include returns b extended to contain p.
func (b Box) Include(p Vec3) Box {
	if !b.ok {
		return Box{Min: p, Max: p, ok: true}
	}
	return Box{
		Min: Vec3{Min(b.Min.X, p.X), Min(b.Min.Y, p.Y), Min(b.Min.Z, p.Z)},
		Max: Vec3{Max(b.Max.X, p.X), Max(b.Max.Y, p.Y), Max(b.Max.Z, p.Z)},
		ok:  true,
	}
}

// Union returns the smallest box containing both boxes.
func (b Box) Union(o Box) Box {
	if !o.ok {
		return b
	}
	return b.Include(o.Min).Include(o.Max)
}

// Intersects reports whether the closed boxes share at least one point.
func (b Box) Intersects(o Box) bool {
	if !b.ok || !o.ok {
		return false
	}
	for i := 0; i < 3; i++ {
		if b.Max.Coord(i).Cmp(o.Min.Coord(i)) < 0 || o.Max.Coord(i).Cmp(b.Min.Coord(i)) < 0 {
			return false
		}
	}
	return true
}

// Contains reports whether p lies in the closed box.
func (b Box) Contains(p Vec3) bool {
	return b.Intersects(Box{Min: p, Max: p, ok: true})
}

// Corners returns the eight corners of a non-empty box.
func (b Box) Corners() [8]Vec3 {
	var c [8]Vec3
	for i := range c {
		x, y, z := b.Min.X, b.Min.Y, b.Min.Z
		if i&1 != 0 {
			x = b.Max.X
		}
		if i&2 != 0 {
			y = b.Max.Y
		}
		if i&4 != 0 {
			z = b.Max.Z
		}
		c[i] = Vec3{x, y, z}
	}
	return c
}

// Transform returns the bounding box of the transformed corners.
func (b Box) Transform(a Affine) Box {
	if !b.ok {
		return b
	}
	var out Box
	for _, c := range b.Corners() {
		out = out.Include(a.Apply(c))
	}
	return out
}

// Float returns a float box that contains the exact box. Bounds are
// rounded outward so float overlap tests never miss an exact overlap.
func (b Box) Float() sdf.Box3 {
	if !b.ok {
		return sdf.Box3{}
	}
	return sdf.Box3{
		Min: v3.Vec{X: FloatDown(b.Min.X), Y: FloatDown(b.Min.Y), Z: FloatDown(b.Min.Z)},
		Max: v3.Vec{X: FloatUp(b.Max.X), Y: FloatUp(b.Max.Y), Z: FloatUp(b.Max.Z)},
	}
}

func (b Box) String() string {
	if !b.ok {
		return "[empty]"
	}
	return fmt.Sprintf("[%v %v]", b.Min, b.Max)
}
