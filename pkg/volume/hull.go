package volume

import (
	"github.com/chazu/hybridcsg/pkg/exact"
)

// Hull returns the convex hull of pts. Point sets that span no volume
// give the empty volume.
func Hull(pts []exact.Vec3) *Volume {
	pts = distinct(pts)
	seed, ok := tetrahedron(pts)
	if !ok {
		return New()
	}
	a, b, c, d := seed[0], seed[1], seed[2], seed[3]
	if exact.Orient3D(pts[a], pts[b], pts[c], pts[d]) > 0 {
		b, c = c, b
	}
	// Faces are outward when the fourth corner lies behind them.
	faces := [][3]int{{a, b, c}, {a, d, b}, {b, d, c}, {c, d, a}}

	used := map[int]bool{a: true, b: true, c: true, d: true}
	for p := range pts {
		if used[p] {
			continue
		}
		visible := make([]bool, len(faces))
		seen := false
		for i, f := range faces {
			if exact.Orient3D(pts[f[0]], pts[f[1]], pts[f[2]], pts[p]) > 0 {
				visible[i] = true
				seen = true
			}
		}
		if !seen {
			continue
		}
		// The horizon is made of visible edges whose twin is hidden.
		hidden := make(map[[2]int]bool)
		for i, f := range faces {
			if !visible[i] {
				for k := 0; k < 3; k++ {
					hidden[[2]int{f[k], f[(k+1)%3]}] = true
				}
			}
		}
		var next [][3]int
		for i, f := range faces {
			if !visible[i] {
				next = append(next, f)
				continue
			}
			for k := 0; k < 3; k++ {
				u, w := f[k], f[(k+1)%3]
				if hidden[[2]int{w, u}] {
					next = append(next, [3]int{u, w, p})
				}
			}
		}
		faces = next
	}

	polys := make([]Polygon, 0, len(faces))
	for _, f := range faces {
		p, err := NewPolygon(pts[f[0]], pts[f[1]], pts[f[2]])
		if err == nil {
			polys = append(polys, p)
		}
	}
	return New(polys...)
}

func distinct(pts []exact.Vec3) []exact.Vec3 {
	seen := make(map[string]bool, len(pts))
	out := pts[:0:0]
	for _, p := range pts {
		if !seen[p.Key()] {
			seen[p.Key()] = true
			out = append(out, p)
		}
	}
	return out
}

// tetrahedron finds four points of pts that span a volume.
func tetrahedron(pts []exact.Vec3) ([4]int, bool) {
	var t [4]int
	if len(pts) < 4 {
		return t, false
	}
	t[0] = 0
	t[1] = 1
	found := false
	for i := 2; i < len(pts); i++ {
		if !exact.Collinear(pts[t[0]], pts[t[1]], pts[i]) {
			t[2] = i
			found = true
			break
		}
	}
	if !found {
		return t, false
	}
	for i := 2; i < len(pts); i++ {
		if exact.Orient3D(pts[t[0]], pts[t[1]], pts[t[2]], pts[i]) != 0 {
			t[3] = i
			return t, true
		}
	}
	return t, false
}
