// Package csg implements the kernel.Kernel interface on top of the hybrid
// mesh/volume engine. Booleans run exact mesh corefinement where possible
// and fall back to exact volume booleans otherwise.
package csg

import (
	"fmt"
	"math"

	"github.com/chazu/hybridcsg/pkg/config"
	"github.com/chazu/hybridcsg/pkg/convert"
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/hybrid"
	"github.com/chazu/hybridcsg/pkg/kernel"
	"github.com/chazu/hybridcsg/pkg/mesh"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// defaultSegments is used for cylinders requested with fewer than three
// segments.
const defaultSegments = 32

// csgSolid wraps a hybrid.Solid to implement kernel.Solid.
type csgSolid struct {
	s *hybrid.Solid
}

// BoundingBox returns the axis-aligned bounding box.
func (s *csgSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox().Float()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// Kernel implements kernel.Kernel using a hybrid.Engine.
type Kernel struct {
	e *hybrid.Engine
}

// New returns a Kernel whose engine uses opts.
func New(opts config.Options) *Kernel {
	return &Kernel{e: hybrid.NewEngine(opts)}
}

// Engine returns the underlying engine.
func (k *Kernel) Engine() *hybrid.Engine {
	return k.e
}

// unwrap extracts a copy of the hybrid solid so operations never mutate
// their arguments.
func unwrap(s kernel.Solid) *hybrid.Solid {
	return s.(*csgSolid).s.Clone()
}

func wrap(s *hybrid.Solid) kernel.Solid {
	return &csgSolid{s: s}
}

// Box creates a box with its minimum corner at the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	if !(x > 0 && y > 0 && z > 0) || math.IsInf(x+y+z, 0) {
		panic(fmt.Sprintf("csg.Box: bad size (%v, %v, %v)", x, y, z))
	}
	return wrap(hybrid.FromMesh(mesh.Cuboid(exact.Zero(), exact.V(x, y, z))))
}

// Cylinder creates a prism with the given number of sides approximating
// a cylinder centered on the origin with its axis along Z.
func (k *Kernel) Cylinder(height, radius float64, segments int) kernel.Solid {
	if !(height > 0 && radius > 0) || math.IsInf(height+radius, 0) {
		panic(fmt.Sprintf("csg.Cylinder: bad size (%v, %v)", height, radius))
	}
	if segments < 3 {
		segments = defaultSegments
	}
	soup := convert.Soup{Points: make([]v3.Vec, 0, 2*segments)}
	for _, z := range []float64{-height / 2, height / 2} {
		for i := 0; i < segments; i++ {
			a := 2 * math.Pi * float64(i) / float64(segments)
			soup.Points = append(soup.Points, v3.Vec{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z})
		}
	}
	bottom := make([]int, segments)
	top := make([]int, segments)
	for i := range bottom {
		bottom[i] = segments - 1 - i
		top[i] = segments + i
	}
	soup.Faces = append(soup.Faces, bottom, top)
	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		soup.Faces = append(soup.Faces, []int{i, j, segments + j, segments + i})
	}
	s, err := k.e.FromSoup(soup)
	if err != nil {
		panic(fmt.Sprintf("csg.Cylinder: %v", err))
	}
	return wrap(s)
}

// Polyhedron creates a solid from points and counter-clockwise faces of
// any number of corners. A non-nil Solid returned with a non-nil error
// holds the faces that could be tessellated.
func (k *Kernel) Polyhedron(points [][3]float64, faces [][]int) (kernel.Solid, error) {
	soup := convert.Soup{
		Points: lo.Map(points, func(p [3]float64, _ int) v3.Vec { return v3.Vec{X: p[0], Y: p[1], Z: p[2]} }),
		Faces:  faces,
	}
	s, err := k.e.FromSoup(soup)
	if s == nil {
		return nil, fmt.Errorf("csg: polyhedron: %w", err)
	}
	if err != nil {
		return wrap(s), fmt.Errorf("csg: polyhedron: %w", err)
	}
	return wrap(s), nil
}

// FromSDF meshes an sdfx solid with marching cubes over the given
// number of cells along its longest side.
func (k *Kernel) FromSDF(s sdf.SDF3, cells int) (kernel.Solid, error) {
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))
	soup := convert.Soup{
		Points: make([]v3.Vec, 0, 3*len(triangles)),
		Faces:  make([][]int, 0, len(triangles)),
	}
	for i, tri := range triangles {
		soup.Points = append(soup.Points, tri[0], tri[1], tri[2])
		soup.Faces = append(soup.Faces, []int{3 * i, 3*i + 1, 3*i + 2})
	}
	m, err := convert.SoupToMesh(soup)
	if err != nil {
		return nil, fmt.Errorf("csg: sdf: %w", err)
	}
	m.Cleanup()
	return wrap(hybrid.FromMesh(m)), nil
}

func (k *Kernel) apply(op hybrid.Op, a, b kernel.Solid) kernel.Solid {
	s := unwrap(a)
	k.e.Apply(op, s, unwrap(b))
	return wrap(s)
}

// Union returns the union of two solids.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return k.apply(hybrid.Union, a, b)
}

// Difference returns the difference a - b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return k.apply(hybrid.Difference, a, b)
}

// Intersection returns the intersection of two solids.
func (k *Kernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return k.apply(hybrid.Intersection, a, b)
}

// Minkowski returns the Minkowski sum of two solids.
func (k *Kernel) Minkowski(a, b kernel.Solid) kernel.Solid {
	return k.apply(hybrid.Minkowski, a, b)
}

func (k *Kernel) transform(s kernel.Solid, a exact.Affine) kernel.Solid {
	out := unwrap(s)
	k.e.Transform(out, a)
	return wrap(out)
}

// Translate moves a solid by (x, y, z).
func (k *Kernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, exact.Translation(exact.V(x, y, z)))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
// Multiples of 90 degrees are exact.
func (k *Kernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, exact.RotationDegrees(x, y, z))
}

// Scale scales a solid along each axis. Negative factors mirror it and a
// zero factor collapses it to the empty solid.
func (k *Kernel) Scale(s kernel.Solid, x, y, z float64) kernel.Solid {
	return k.transform(s, exact.Scaling(exact.V(x, y, z)))
}

// ToMesh converts a solid to a flat-shaded render mesh.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	tris, err := s.(*csgSolid).s.Triangles()
	if err != nil {
		return nil, fmt.Errorf("csg: to mesh: %w", err)
	}
	return kernel.NewMesh(tris), nil
}
