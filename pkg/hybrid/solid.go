// Package hybrid holds solids in either the mesh or the volume
// representation and evaluates boolean operations on them, trying the
// fast mesh corefinement first and falling back to the exact volume
// booleans.
package hybrid

import (
	"errors"
	"math/big"
	"unsafe"

	"github.com/chazu/hybridcsg/pkg/bvh"
	"github.com/chazu/hybridcsg/pkg/convert"
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/mesh"
	"github.com/chazu/hybridcsg/pkg/volume"
	"github.com/deadsy/sdfx/sdf"
	"github.com/samber/lo"
)

// ErrBadState is the panic value for a solid holding neither
// representation.
var ErrBadState = errors.New("hybrid: bad state")

// Solid is a mesh or a volume plus the bounding boxes of its known
// disjoint parts. Exactly one of mesh and volume is set.
//
// Operators mutate their first operand in place and may convert, repair
// or decompose the second. A Solid must not be used from two goroutines
// at once.
type Solid struct {
	mesh   *mesh.Mesh
	volume *volume.Volume
	boxes  []exact.Box
}

// FromMesh wraps m. The solid takes ownership of m.
func FromMesh(m *mesh.Mesh) *Solid {
	s := &Solid{mesh: m}
	s.resetBoxes()
	return s
}

// FromVolume wraps v. The solid takes ownership of v.
func FromVolume(v *volume.Volume) *Solid {
	s := &Solid{volume: v}
	s.resetBoxes()
	return s
}

// Empty returns the empty solid.
func Empty() *Solid {
	return &Solid{mesh: &mesh.Mesh{}}
}

func (s *Solid) check() {
	if s.mesh == nil && s.volume == nil {
		panic(ErrBadState)
	}
}

func (s *Solid) resetBoxes() {
	s.boxes = nil
	if b := s.BoundingBox(); !b.IsEmpty() {
		s.boxes = []exact.Box{b}
	}
}

func (s *Solid) setMesh(m *mesh.Mesh) {
	s.mesh, s.volume = m, nil
}

func (s *Solid) setVolume(v *volume.Volume) {
	s.mesh, s.volume = nil, v
}

func (s *Solid) clear() {
	s.setMesh(&mesh.Mesh{})
	s.boxes = nil
}

// Clone returns a deep copy of the active representation.
func (s *Solid) Clone() *Solid {
	s.check()
	c := &Solid{boxes: append([]exact.Box(nil), s.boxes...)}
	if s.mesh != nil {
		c.mesh = s.mesh.Clone()
	} else {
		c.volume = s.volume.Clone()
	}
	return c
}

// IsMesh reports whether the mesh representation is active.
func (s *Solid) IsMesh() bool {
	s.check()
	return s.mesh != nil
}

// Mesh returns the mesh representation, or nil in the volume state.
func (s *Solid) Mesh() *mesh.Mesh {
	s.check()
	return s.mesh
}

// Volume returns the volume representation, or nil in the mesh state.
func (s *Solid) Volume() *volume.Volume {
	s.check()
	return s.volume
}

// Boxes returns the bounding boxes of the solid's disjoint parts.
func (s *Solid) Boxes() []exact.Box {
	return s.boxes
}

// toMesh switches s to the mesh representation.
func (s *Solid) toMesh() (*mesh.Mesh, error) {
	s.check()
	if s.mesh != nil {
		return s.mesh, nil
	}
	m, err := convert.VolumeToMesh(s.volume)
	if err != nil {
		return nil, err
	}
	s.setMesh(m)
	return m, nil
}

// asVolume returns s as a volume without changing its state.
func (s *Solid) asVolume() *volume.Volume {
	s.check()
	if s.volume != nil {
		return s.volume
	}
	return convert.MeshToVolume(s.mesh)
}

// IsEmpty reports whether the solid has no boundary.
func (s *Solid) IsEmpty() bool {
	s.check()
	if s.mesh != nil {
		return s.mesh.IsEmpty()
	}
	return s.volume.IsEmpty()
}

// NumFacets returns the number of triangles or polygons.
func (s *Solid) NumFacets() int {
	s.check()
	if s.mesh != nil {
		return s.mesh.NumFaces()
	}
	return s.volume.NumFacets()
}

// NumVertices returns the number of distinct vertices.
func (s *Solid) NumVertices() int {
	s.check()
	if s.mesh != nil {
		return s.mesh.NumVertices()
	}
	return s.volume.NumVertices()
}

// IsManifold reports whether the boundary is a closed 2-manifold.
func (s *Solid) IsManifold() bool {
	s.check()
	if s.mesh != nil {
		return s.mesh.IsClosed() && s.mesh.IsManifold()
	}
	return s.volume.IsSimple()
}

// IsValid reports whether the active representation is well formed.
func (s *Solid) IsValid() bool {
	s.check()
	if s.mesh != nil {
		return s.mesh.IsValid()
	}
	return s.volume.IsValid()
}

// MemSize estimates the memory held by the solid in bytes.
func (s *Solid) MemSize() int {
	s.check()
	n := int(unsafe.Sizeof(*s)) + len(s.boxes)*(int(unsafe.Sizeof(exact.Box{}))+6*int(unsafe.Sizeof(big.Rat{})))
	if s.mesh != nil {
		return n + s.mesh.MemSize()
	}
	return n + s.volume.MemSize()
}

// BoundingBox returns the exact bounding box of all vertices.
func (s *Solid) BoundingBox() exact.Box {
	s.check()
	if s.mesh != nil {
		return s.mesh.BoundingBox()
	}
	return s.volume.BoundingBox()
}

// SignedVolume returns the exact enclosed volume.
func (s *Solid) SignedVolume() *big.Rat {
	s.check()
	if s.mesh != nil {
		return s.mesh.SignedVolume()
	}
	return s.volume.SignedVolume()
}

// exportMesh returns a mesh for export without changing the state.
func (s *Solid) exportMesh() (*mesh.Mesh, error) {
	s.check()
	if s.mesh != nil {
		return s.mesh, nil
	}
	return convert.VolumeToMesh(s.volume)
}

// ToSoup returns the solid as a float triangle soup.
func (s *Solid) ToSoup() (convert.Soup, error) {
	m, err := s.exportMesh()
	if err != nil {
		return convert.Soup{}, err
	}
	return convert.MeshToSoup(m), nil
}

// Triangles returns the solid as sdfx triangles.
func (s *Solid) Triangles() ([]*sdf.Triangle3, error) {
	m, err := s.exportMesh()
	if err != nil {
		return nil, err
	}
	return convert.Triangles(m), nil
}

func (s *Solid) vertices() []exact.Vec3 {
	if s.mesh != nil {
		return s.mesh.Vertices
	}
	return s.volume.Vertices()
}

// SharesAnyVertexWith reports whether s and o have a vertex at the same
// position. The smaller vertex set is hashed.
func (s *Solid) SharesAnyVertexWith(o *Solid) bool {
	s.check()
	o.check()
	small, large := s.vertices(), o.vertices()
	if len(small) > len(large) {
		small, large = large, small
	}
	keys := make(map[string]struct{}, len(small))
	for _, v := range small {
		keys[v.Key()] = struct{}{}
	}
	return lo.SomeBy(large, func(v exact.Vec3) bool {
		_, ok := keys[v.Key()]
		return ok
	})
}

type boxRef struct {
	box exact.Box
	f   sdf.Box3
}

func (r boxRef) BoundingBox() sdf.Box3 { return r.f }

// boxesIntersect reports whether any box of s touches any box of o.
func (s *Solid) boxesIntersect(o *Solid) bool {
	if len(s.boxes) == 0 || len(o.boxes) == 0 {
		return false
	}
	tree := bvh.New(lo.Map(s.boxes, func(b exact.Box, _ int) boxRef {
		return boxRef{box: b, f: b.Float()}
	}))
	return lo.SomeBy(o.boxes, func(b exact.Box) bool {
		return lo.SomeBy(tree.Intersecting(b.Float()), func(r boxRef) bool {
			return r.box.Intersects(b)
		})
	})
}

// boxesTouching returns the boxes of s that touch a box of o.
func (s *Solid) boxesTouching(o *Solid) []exact.Box {
	return lo.Filter(s.boxes, func(b exact.Box, _ int) bool {
		return lo.SomeBy(o.boxes, func(ob exact.Box) bool { return b.Intersects(ob) })
	})
}
