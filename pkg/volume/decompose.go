package volume

import (
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
)

// ConvexParts returns convex volumes whose union is v. The parts are the
// solid cells of a BSP tree over v's polygons, clipped to a box around
// v. The result is cached on v until it is transformed.
func (v *Volume) ConvexParts() []*Volume {
	if v.parts != nil || v.IsEmpty() {
		return v.parts
	}
	if v.IsConvex() {
		v.parts = []*Volume{v}
		return v.parts
	}
	box := v.BoundingBox()
	lo := box.Min.Sub(exact.V(1, 1, 1))
	hi := box.Max.Add(exact.V(1, 1, 1))
	cell := []exact.Plane{
		{Normal: exact.V(1, 0, 0), W: hi.X},
		{Normal: exact.V(0, 1, 0), W: hi.Y},
		{Normal: exact.V(0, 0, 1), W: hi.Z},
		{Normal: exact.V(-1, 0, 0), W: lo.Neg().X},
		{Normal: exact.V(0, -1, 0), W: lo.Neg().Y},
		{Normal: exact.V(0, 0, -1), W: lo.Neg().Z},
	}
	var parts []*Volume
	solidCells(newNode(v.polygons), cell, &parts)
	kernel.Logger().Debug("volume: convex decomposition",
		"facets", len(v.polygons), "parts", len(parts))
	v.parts = parts
	return parts
}

// solidCells walks the tree, narrowing cell, a set of planes the region
// lies behind, and collects the cells behind leaves.
func solidCells(n *node, cell []exact.Plane, out *[]*Volume) {
	front := append(append([]exact.Plane(nil), cell...), n.plane.Flip())
	back := append(append([]exact.Plane(nil), cell...), *n.plane)
	if n.front != nil {
		solidCells(n.front, front, out)
	}
	if n.back != nil {
		solidCells(n.back, back, out)
		return
	}
	if p := polytope(back); !p.IsEmpty() {
		*out = append(*out, p)
	}
}

// polytope returns the convex region behind every plane of cell.
func polytope(cell []exact.Plane) *Volume {
	var pts []exact.Vec3
	for i := 0; i < len(cell); i++ {
		for j := i + 1; j < len(cell); j++ {
			for k := j + 1; k < len(cell); k++ {
				p, ok := exact.IntersectPlanes(cell[i], cell[j], cell[k])
				if ok && behindAll(cell, p) {
					pts = append(pts, p)
				}
			}
		}
	}
	return Hull(pts)
}

func behindAll(cell []exact.Plane, p exact.Vec3) bool {
	for _, pl := range cell {
		if pl.Side(p) > 0 {
			return false
		}
	}
	return true
}
