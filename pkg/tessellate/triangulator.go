package tessellate

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
)

type vertex struct {
	p2     exact.Vec2
	p3     exact.Vec3
	lifted bool // p3 is known
}

type segment struct {
	a, b   int
	border bool
}

// Triangulator collects points and constraint segments of one planar
// region and triangulates them. Border constraints delimit the region:
// a face is kept when it is separated from the unbounded face by an odd
// number of them. Other constraints are only forced into the result.
//
// Constraints may cross; they are split at their exact intersection
// points, which are lifted back onto the plane through the projection.
type Triangulator struct {
	proj  Projection
	verts []vertex
	index map[string]int
	segs  []segment
	errs  []error
}

// NewTriangulator returns an empty triangulator for the given projection.
func NewTriangulator(p Projection) *Triangulator {
	return &Triangulator{proj: p, index: make(map[string]int)}
}

// AddPoint adds an isolated point and returns its vertex index. Points
// that project onto an existing vertex are merged into it.
func (t *Triangulator) AddPoint(p exact.Vec3) int {
	q := t.proj.Project(p)
	k := q.Key()
	if i, ok := t.index[k]; ok {
		if !t.verts[i].p3.Equal(p) {
			kernel.Logger().Debug("tessellate: distinct points share a projection", "point", p.String(), "kept", t.verts[i].p3.String())
		}
		return i
	}
	t.index[k] = len(t.verts)
	t.verts = append(t.verts, vertex{p2: q, p3: p, lifted: true})
	return len(t.verts) - 1
}

// AddConstraint adds segment ab. Zero-length segments are ignored.
func (t *Triangulator) AddConstraint(a, b exact.Vec3, border bool) {
	ia, ib := t.AddPoint(a), t.AddPoint(b)
	if ia == ib {
		return
	}
	t.segs = append(t.segs, segment{a: ia, b: ib, border: border})
}

func (t *Triangulator) addSteiner(q exact.Vec2) int {
	k := q.Key()
	if i, ok := t.index[k]; ok {
		return i
	}
	v := vertex{p2: q}
	p3, err := t.proj.Deproject(q)
	if err != nil {
		kernel.Logger().Warn("tessellate: deprojection failed", "point", k, "err", err)
		t.errs = append(t.errs, err)
	} else {
		v.p3, v.lifted = p3, true
	}
	t.index[k] = len(t.verts)
	t.verts = append(t.verts, v)
	return len(t.verts) - 1
}

// splitSegments splits every segment at the vertices lying on it and at
// its crossings with other segments, then merges duplicates.
func (t *Triangulator) splitSegments() []segment {
	cuts := make([][]int, len(t.segs))
	for i, s := range t.segs {
		a, b := t.verts[s.a].p2, t.verts[s.b].p2
		for v := range t.verts {
			if v != s.a && v != s.b && exact.OnSegment2D(a, b, t.verts[v].p2) {
				cuts[i] = append(cuts[i], v)
			}
		}
	}
	crossed := 0
	for i := range t.segs {
		for j := i + 1; j < len(t.segs); j++ {
			si, sj := t.segs[i], t.segs[j]
			a, b := t.verts[si.a].p2, t.verts[si.b].p2
			c, d := t.verts[sj.a].p2, t.verts[sj.b].p2
			if !exact.SegmentsCross(a, b, c, d) {
				continue
			}
			v := t.addSteiner(exact.LineIntersection2D(a, b, c, d))
			cuts[i] = append(cuts[i], v)
			cuts[j] = append(cuts[j], v)
			crossed++
		}
	}
	if crossed > 0 {
		kernel.Logger().Debug("tessellate: constraints intersect", "crossings", crossed)
		t.errs = append(t.errs, fmt.Errorf("%w: %d crossings", ErrSelfIntersecting, crossed))
	}

	seen := make(map[edgeKey]int)
	var out []segment
	for i, s := range t.segs {
		a, b := t.verts[s.a].p2, t.verts[s.b].p2
		dir := b.Sub(a)
		param := func(v int) *big.Rat {
			d := t.verts[v].p2.Sub(a)
			r := new(big.Rat).Mul(d.X, dir.X)
			return r.Add(r, new(big.Rat).Mul(d.Y, dir.Y))
		}
		pts := append([]int{s.a}, cuts[i]...)
		sort.SliceStable(pts[1:], func(x, y int) bool {
			return param(pts[1+x]).Cmp(param(pts[1+y])) < 0
		})
		pts = append(pts, s.b)
		for k := 0; k+1 < len(pts); k++ {
			u, v := pts[k], pts[k+1]
			if u == v {
				continue
			}
			key := undirected(u, v)
			if j, ok := seen[key]; ok {
				out[j].border = out[j].border || s.border
				continue
			}
			seen[key] = len(out)
			out = append(out, segment{a: u, b: v, border: s.border})
		}
	}
	return out
}

// Triangulate builds the constrained triangulation and returns the faces
// inside the region, counter-clockwise in the projection. The error
// joins every non-fatal problem met on the way; the triangles returned
// alongside it are still usable.
func (t *Triangulator) Triangulate() ([]Triangle, error) {
	segs := t.splitSegments()
	if !t.hasArea() {
		t.errs = append(t.errs, ErrDegenerate)
		return nil, errors.Join(t.errs...)
	}

	pts := make([]exact.Vec2, len(t.verts))
	for i, v := range t.verts {
		pts[i] = v.p2
	}
	tri := newCDT(pts)
	for _, s := range segs {
		if !tri.recover(s.a, s.b, s.border) {
			err := fmt.Errorf("%w: %s - %s", ErrConstraint, pts[s.a].Key(), pts[s.b].Key())
			kernel.Logger().Warn("tessellate: constraint insertion failed", "err", err)
			t.errs = append(t.errs, err)
		}
	}
	tri.legalize()
	level := tri.markDomains()

	var out []Triangle
	dropped := 0
	for i, f := range tri.faces {
		if !f.alive || level[i]%2 != 1 {
			continue
		}
		if tri.isSuper(f.v[0]) || tri.isSuper(f.v[1]) || tri.isSuper(f.v[2]) {
			continue
		}
		a, b, c := t.verts[f.v[0]], t.verts[f.v[1]], t.verts[f.v[2]]
		if !a.lifted || !b.lifted || !c.lifted {
			dropped++
			continue
		}
		out = append(out, Triangle{a.p3, b.p3, c.p3})
	}
	if dropped > 0 {
		kernel.Logger().Debug("tessellate: dropped faces with unlifted vertices", "count", dropped)
	}
	return out, errors.Join(t.errs...)
}

// hasArea reports whether the vertices span a 2-D region.
func (t *Triangulator) hasArea() bool {
	if len(t.verts) < 3 {
		return false
	}
	a, b := t.verts[0].p2, t.verts[1].p2
	for _, v := range t.verts[2:] {
		if exact.Orient2D(a, b, v.p2) != 0 {
			return true
		}
	}
	return false
}
