// Package mesh implements the indexed triangle mesh representation of a
// solid: exact vertices, oriented faces, validity checks, repair and the
// corefinement boolean used as the fast path of the hybrid kernel.
package mesh

import (
	"fmt"
	"math/big"
	"unsafe"

	"github.com/chazu/hybridcsg/pkg/bvh"
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/deadsy/sdfx/sdf"
)

// Mesh is a triangle mesh with exact vertices. Faces list vertex indices
// counter-clockwise when seen from outside the solid.
type Mesh struct {
	Vertices []exact.Vec3
	Faces    [][3]int
}

// Builder assembles a mesh, merging vertices with identical coordinates.
type Builder struct {
	m     *Mesh
	index map[string]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{m: &Mesh{}, index: make(map[string]int)}
}

// Vertex returns the index of p, adding it if it is new.
func (b *Builder) Vertex(p exact.Vec3) int {
	k := p.Key()
	if i, ok := b.index[k]; ok {
		return i
	}
	b.index[k] = len(b.m.Vertices)
	b.m.Vertices = append(b.m.Vertices, p)
	return len(b.m.Vertices) - 1
}

// Triangle adds face pqr. Faces with a repeated vertex are skipped.
func (b *Builder) Triangle(p, q, r exact.Vec3) {
	i, j, k := b.Vertex(p), b.Vertex(q), b.Vertex(r)
	if i == j || j == k || k == i {
		return
	}
	b.m.Faces = append(b.m.Faces, [3]int{i, j, k})
}

// Mesh returns the assembled mesh.
func (b *Builder) Mesh() *Mesh {
	return b.m
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int {
	return len(m.Vertices)
}

// NumFaces returns the face count.
func (m *Mesh) NumFaces() int {
	return len(m.Faces)
}

// IsEmpty reports whether the mesh has no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.Faces) == 0
}

// Clone returns a deep copy. Coordinates are immutable and shared.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Vertices: append([]exact.Vec3(nil), m.Vertices...),
		Faces:    append([][3]int(nil), m.Faces...),
	}
}

// Triangle returns the corners of face f.
func (m *Mesh) Triangle(f int) [3]exact.Vec3 {
	face := m.Faces[f]
	return [3]exact.Vec3{m.Vertices[face[0]], m.Vertices[face[1]], m.Vertices[face[2]]}
}

// Append adds all of o's vertices and faces to m.
func (m *Mesh) Append(o *Mesh) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	for _, f := range o.Faces {
		m.Faces = append(m.Faces, [3]int{f[0] + base, f[1] + base, f[2] + base})
	}
}

// BoundingBox returns the exact bounding box of all vertices.
func (m *Mesh) BoundingBox() exact.Box {
	return exact.BoxOf(m.Vertices...)
}

// ReverseOrientation flips every face.
func (m *Mesh) ReverseOrientation() {
	for i, f := range m.Faces {
		m.Faces[i] = [3]int{f[0], f[2], f[1]}
	}
}

// Transform applies a to every vertex and reverses the faces when a
// mirrors space, so outward faces stay outward.
func (m *Mesh) Transform(a exact.Affine) {
	for i, v := range m.Vertices {
		m.Vertices[i] = a.Apply(v)
	}
	if a.Determinant().Sign() < 0 {
		m.ReverseOrientation()
	}
}

// SignedVolume returns the enclosed volume of a closed, outward oriented
// mesh. Inward orientation yields a negative value.
func (m *Mesh) SignedVolume() *big.Rat {
	v := new(big.Rat)
	for f := range m.Faces {
		t := m.Triangle(f)
		v.Add(v, t[0].Dot(t[1].Cross(t[2])))
	}
	return v.Quo(v, exact.Int(6))
}

// MemSize estimates the memory held by the mesh in bytes.
func (m *Mesh) MemSize() int {
	const ratSize = int(unsafe.Sizeof(big.Rat{}))
	return int(unsafe.Sizeof(*m)) +
		len(m.Faces)*3*int(unsafe.Sizeof(int(0))) +
		len(m.Vertices)*3*(ratSize+int(unsafe.Sizeof(uintptr(0))))
}

// Describe summarizes the mesh for debug logs.
func (m *Mesh) Describe() string {
	s := ""
	if !m.IsValid() {
		s += "INVALID "
	}
	if !m.IsClosed() {
		s += "UNCLOSED "
	}
	return s + fmt.Sprintf("%d facets", len(m.Faces))
}

// faceRef is a BVH leaf for one face.
type faceRef struct {
	f   int
	box sdf.Box3
}

func (r faceRef) BoundingBox() sdf.Box3 { return r.box }

func (m *Mesh) faceBox(f int) exact.Box {
	t := m.Triangle(f)
	return exact.BoxOf(t[0], t[1], t[2])
}

func (m *Mesh) faceTree() *bvh.Tree[faceRef] {
	refs := make([]faceRef, len(m.Faces))
	for f := range m.Faces {
		refs[f] = faceRef{f: f, box: m.faceBox(f).Float()}
	}
	return bvh.New(refs)
}

// cuboidQuads lists the faces of a box over corners indexed x + 2y + 4z,
// counter-clockwise from outside.
var cuboidQuads = [6][4]int{
	{0, 4, 6, 2}, {1, 3, 7, 5},
	{0, 1, 5, 4}, {2, 6, 7, 3},
	{0, 2, 3, 1}, {4, 5, 7, 6},
}

// Cuboid returns the closed axis-aligned box spanning min and max as
// twelve triangles.
func Cuboid(min, max exact.Vec3) *Mesh {
	corners := exact.BoxOf(min, max).Corners()
	m := &Mesh{Vertices: corners[:]}
	for _, q := range cuboidQuads {
		m.Faces = append(m.Faces, [3]int{q[0], q[1], q[2]}, [3]int{q[0], q[2], q[3]})
	}
	return m
}
