// Package convert moves solids between the mesh and volume
// representations and to and from indexed polygon soups.
package convert

import (
	"errors"
	"fmt"

	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
	"github.com/chazu/hybridcsg/pkg/mesh"
	"github.com/chazu/hybridcsg/pkg/tessellate"
	"github.com/chazu/hybridcsg/pkg/volume"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/samber/lo"
)

var (
	// ErrBadIndex is returned for soup faces that point past the points.
	ErrBadIndex = errors.New("convert: face index out of range")
	// ErrInvalidVolume is returned when a volume cannot be meshed.
	ErrInvalidVolume = errors.New("convert: volume is not valid")
)

// Soup is an indexed polygon soup with float coordinates. Faces may have
// any number of corners and are counter-clockwise from outside.
type Soup struct {
	Points []v3.Vec
	Faces  [][]int
}

// SoupToMesh converts s to a mesh, merging coincident points and
// tessellating faces with more than three corners. Faces that cannot be
// tessellated cleanly are reported in the returned error, which does not
// invalidate the mesh.
func SoupToMesh(s Soup, opts ...tessellate.Option) (*mesh.Mesh, error) {
	pts := make([]exact.Vec3, len(s.Points))
	for i, p := range s.Points {
		v, err := exact.FromVec(p)
		if err != nil {
			return nil, fmt.Errorf("convert: point %d: %w", i, err)
		}
		pts[i] = v
	}

	b := mesh.NewBuilder()
	var errs []error
	for i, f := range s.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(pts) {
				return nil, fmt.Errorf("%w: face %d index %d", ErrBadIndex, i, idx)
			}
		}
		switch {
		case len(f) < 3:
			kernel.Logger().Debug("convert: skipping degenerate face", "face", i, "corners", len(f))
		case len(f) == 3:
			b.Triangle(pts[f[0]], pts[f[1]], pts[f[2]])
		default:
			contour := lo.Map(f, func(idx int, _ int) exact.Vec3 { return pts[idx] })
			tris, err := tessellate.Tessellate(tessellate.Polygon{Outer: contour}, opts...)
			if err != nil {
				errs = append(errs, fmt.Errorf("convert: face %d: %w", i, err))
			}
			for _, t := range tris {
				b.Triangle(t[0], t[1], t[2])
			}
		}
	}
	return b.Mesh(), errors.Join(errs...)
}

// MeshToSoup returns the mesh as a float soup of triangles.
func MeshToSoup(m *mesh.Mesh) Soup {
	return Soup{
		Points: lo.Map(m.Vertices, func(v exact.Vec3, _ int) v3.Vec { return v.Float() }),
		Faces:  lo.Map(m.Faces, func(f [3]int, _ int) []int { return []int{f[0], f[1], f[2]} }),
	}
}

// Triangles returns the mesh faces as sdfx triangles.
func Triangles(m *mesh.Mesh) []*sdf.Triangle3 {
	return lo.Map(m.Faces, func(f [3]int, _ int) *sdf.Triangle3 {
		return &sdf.Triangle3{m.Vertices[f[0]].Float(), m.Vertices[f[1]].Float(), m.Vertices[f[2]].Float()}
	})
}

// MeshToVolume converts any mesh, valid or not, into a volume with one
// polygon per face. Faces without area bound nothing and are dropped.
// A self-intersecting mesh is converted one edge-connected component at
// a time and the parts are united, so overlaps count once.
func MeshToVolume(m *mesh.Mesh) *volume.Volume {
	if len(m.SelfIntersections()) == 0 {
		return facesToVolume(m)
	}
	parts := m.Components()
	if len(parts) == 1 {
		kernel.Logger().Warn("convert: mesh intersects itself within one component")
		return facesToVolume(m)
	}
	kernel.Logger().Debug("convert: uniting self-intersecting components", "parts", len(parts))
	return volume.UnionAll(lo.Map(parts, func(p *mesh.Mesh, _ int) *volume.Volume {
		return facesToVolume(p)
	}))
}

func facesToVolume(m *mesh.Mesh) *volume.Volume {
	polys := make([]volume.Polygon, 0, len(m.Faces))
	for f := range m.Faces {
		t := m.Triangle(f)
		p, err := volume.NewPolygon(t[0], t[1], t[2])
		if err != nil {
			continue
		}
		polys = append(polys, p)
	}
	if n := len(m.Faces) - len(polys); n > 0 {
		kernel.Logger().Debug("convert: dropped faces without area", "n", n)
	}
	return volume.New(polys...)
}

// VolumeToMesh triangulates every polygon of v. Vertices lying on the
// edges of neighbouring polygons are inserted first so the mesh is
// conforming.
func VolumeToMesh(v *volume.Volume) (*mesh.Mesh, error) {
	if !v.IsValid() {
		return nil, ErrInvalidVolume
	}
	b := mesh.NewBuilder()
	for i, c := range v.ConformingContours() {
		if len(c) == 3 {
			b.Triangle(c[0], c[1], c[2])
			continue
		}
		tris, err := tessellate.Tessellate(tessellate.Polygon{Outer: c},
			tessellate.WithNormal(v.Polygons()[i].Plane.Normal))
		if err != nil {
			return nil, fmt.Errorf("convert: polygon %d: %w", i, err)
		}
		for _, t := range tris {
			b.Triangle(t[0], t[1], t[2])
		}
	}
	return b.Mesh(), nil
}
