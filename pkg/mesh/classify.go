package mesh

import (
	"math/big"

	"github.com/chazu/hybridcsg/pkg/bvh"
	"github.com/chazu/hybridcsg/pkg/exact"
)

// rayDirections are tried in turn until a ray misses every edge and
// vertex of the mesh. All have a positive x component.
var rayDirections = []exact.Vec3{
	exact.VR(exact.Int(1), exact.Frac(2, 7), exact.Frac(3, 11)),
	exact.VR(exact.Int(1), exact.Frac(-5, 13), exact.Frac(7, 17)),
	exact.VR(exact.Int(1), exact.Frac(3, 19), exact.Frac(-11, 23)),
	exact.VR(exact.Int(1), exact.Frac(-13, 29), exact.Frac(-2, 31)),
	exact.VR(exact.Int(1), exact.Frac(17, 37), exact.Frac(19, 41)),
	exact.VR(exact.Int(1), exact.Frac(-23, 43), exact.Frac(29, 47)),
	exact.VR(exact.Int(1), exact.Frac(31, 53), exact.Frac(-37, 59)),
	exact.VR(exact.Int(1), exact.Frac(-41, 61), exact.Frac(-43, 67)),
}

// classifier answers point containment queries against a closed mesh
// by counting ray crossings.
type classifier struct {
	m    *Mesh
	tree *bvh.Tree[faceRef]
	box  exact.Box
}

func newClassifier(m *Mesh) *classifier {
	return &classifier{m: m, tree: m.faceTree(), box: m.BoundingBox()}
}

type rayHit int

const (
	rayMiss rayHit = iota
	rayCross
	rayDegenerate
)

// inside reports whether p is strictly inside the mesh. ok is false when
// p lies on the surface or every ray direction grazes an edge.
func (c *classifier) inside(p exact.Vec3) (in, ok bool) {
	if c.box.IsEmpty() || !c.box.Contains(p) {
		return false, true
	}
next:
	for _, d := range rayDirections {
		// Extend the ray past the box; d.X is positive.
		t := new(big.Rat).Sub(c.box.Max.X, p.X)
		t.Add(t, exact.Int(1))
		t.Quo(t, d.X)
		q := p.Add(d.Scale(t))
		crossings := 0
		for _, ref := range c.tree.Intersecting(exact.BoxOf(p, q).Float()) {
			switch rayFace(p, q, c.m.Triangle(ref.f)) {
			case rayCross:
				crossings++
			case rayDegenerate:
				continue next
			}
		}
		return crossings%2 == 1, true
	}
	return false, false
}

// rayFace tests segment pq, whose end q is outside the mesh, against
// triangle t.
func rayFace(p, q exact.Vec3, t [3]exact.Vec3) rayHit {
	o := [3]int{
		exact.Orient3D(p, q, t[0], t[1]),
		exact.Orient3D(p, q, t[1], t[2]),
		exact.Orient3D(p, q, t[2], t[0]),
	}
	pos, neg, zero := 0, 0, 0
	for _, s := range o {
		switch {
		case s > 0:
			pos++
		case s < 0:
			neg++
		default:
			zero++
		}
	}
	if pos > 0 && neg > 0 {
		return rayMiss
	}
	sp := exact.Orient3D(t[0], t[1], t[2], p)
	sq := exact.Orient3D(t[0], t[1], t[2], q)
	if sp*sq > 0 {
		return rayMiss
	}
	if zero > 0 || sp == 0 {
		// Through an edge, a vertex or the surface point itself.
		return rayDegenerate
	}
	return rayCross
}
