package tessellate

import (
	"math/big"

	"github.com/chazu/hybridcsg/pkg/exact"
)

type edgeKey [2]int

func undirected(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type face struct {
	v     [3]int
	alive bool
}

// cdt is a 2-D constrained Delaunay triangulation in exact arithmetic.
// The last three points form a super triangle enclosing everything else.
// Faces are never reused; dead ones stay in the slice.
type cdt struct {
	pts         []exact.Vec2
	faces       []face
	edges       map[edgeKey]int // directed edge -> face containing it
	constrained map[edgeKey]bool
	border      map[edgeKey]bool
	super       int // index of the first super vertex
}

func newCDT(pts []exact.Vec2) *cdt {
	minX, minY, maxX, maxY := pts[0].X, pts[0].Y, pts[0].X, pts[0].Y
	for _, p := range pts[1:] {
		minX, maxX = exact.Min(minX, p.X), exact.Max(maxX, p.X)
		minY, maxY = exact.Min(minY, p.Y), exact.Max(maxY, p.Y)
	}
	w := exact.Max(new(big.Rat).Sub(maxX, minX), new(big.Rat).Sub(maxY, minY))
	w = new(big.Rat).Add(w, exact.Int(1))
	off := func(base *big.Rat, k int64) *big.Rat {
		return new(big.Rat).Add(base, new(big.Rat).Mul(w, exact.Int(k)))
	}
	all := append([]exact.Vec2(nil), pts...)
	all = append(all,
		exact.Vec2{X: off(minX, -1), Y: off(minY, -1)},
		exact.Vec2{X: off(minX, 5), Y: off(minY, -1)},
		exact.Vec2{X: off(minX, -1), Y: off(minY, 5)},
	)
	t := &cdt{
		pts:         all,
		edges:       make(map[edgeKey]int),
		constrained: make(map[edgeKey]bool),
		border:      make(map[edgeKey]bool),
		super:       len(pts),
	}
	t.addFace(t.super, t.super+1, t.super+2)
	for i := range pts {
		t.insert(i)
	}
	return t
}

func (t *cdt) isSuper(v int) bool {
	return v >= t.super
}

func (t *cdt) addFace(a, b, c int) int {
	i := len(t.faces)
	t.faces = append(t.faces, face{v: [3]int{a, b, c}, alive: true})
	t.edges[edgeKey{a, b}] = i
	t.edges[edgeKey{b, c}] = i
	t.edges[edgeKey{c, a}] = i
	return i
}

func (t *cdt) removeFace(i int) {
	f := &t.faces[i]
	f.alive = false
	for k := 0; k < 3; k++ {
		e := edgeKey{f.v[k], f.v[(k+1)%3]}
		if t.edges[e] == i {
			delete(t.edges, e)
		}
	}
}

// third returns the vertex of face i that is neither a nor b.
func (t *cdt) third(i, a, b int) int {
	for _, v := range t.faces[i].v {
		if v != a && v != b {
			return v
		}
	}
	return -1
}

func (t *cdt) hasEdge(a, b int) bool {
	_, ok := t.edges[edgeKey{a, b}]
	if !ok {
		_, ok = t.edges[edgeKey{b, a}]
	}
	return ok
}

func (t *cdt) inCircle(i, p int) bool {
	v := t.faces[i].v
	return exact.InCircle(t.pts[v[0]], t.pts[v[1]], t.pts[v[2]], t.pts[p]) > 0
}

func (t *cdt) locate(p int) int {
	q := t.pts[p]
	for i, f := range t.faces {
		if !f.alive {
			continue
		}
		a, b, c := t.pts[f.v[0]], t.pts[f.v[1]], t.pts[f.v[2]]
		if exact.Orient2D(a, b, q) >= 0 && exact.Orient2D(b, c, q) >= 0 && exact.Orient2D(c, a, q) >= 0 {
			return i
		}
	}
	return -1
}

// insert adds point p with Bowyer-Watson: remove every face whose
// circumcircle strictly contains p and fan the cavity from p.
func (t *cdt) insert(p int) {
	start := t.locate(p)
	if start < 0 {
		return
	}
	bad := map[int]bool{start: true}
	queue := []int{start}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		v := t.faces[i].v
		for k := 0; k < 3; k++ {
			n, ok := t.edges[edgeKey{v[(k+1)%3], v[k]}]
			if ok && !bad[n] && t.inCircle(n, p) {
				bad[n] = true
				queue = append(queue, n)
			}
		}
	}
	var boundary []edgeKey
	for i := range bad {
		v := t.faces[i].v
		for k := 0; k < 3; k++ {
			a, b := v[k], v[(k+1)%3]
			if n, ok := t.edges[edgeKey{b, a}]; !ok || !bad[n] {
				boundary = append(boundary, edgeKey{a, b})
			}
		}
	}
	for i := range bad {
		t.removeFace(i)
	}
	for _, e := range boundary {
		t.addFace(e[0], e[1], p)
	}
}

// flip replaces edge uv, shared by faces (u,v,c) and (v,u,d), with cd.
// It reports false when the quadrilateral is not strictly convex.
func (t *cdt) flip(u, v int) bool {
	f1, ok1 := t.edges[edgeKey{u, v}]
	f2, ok2 := t.edges[edgeKey{v, u}]
	if !ok1 || !ok2 {
		return false
	}
	c := t.third(f1, u, v)
	d := t.third(f2, v, u)
	pc, pd := t.pts[c], t.pts[d]
	if exact.Orient2D(pc, pd, t.pts[u])*exact.Orient2D(pc, pd, t.pts[v]) >= 0 {
		return false
	}
	t.removeFace(f1)
	t.removeFace(f2)
	t.addFace(u, d, c)
	t.addFace(d, v, c)
	return true
}

// crosses reports whether edge uv properly crosses segment ab.
func (t *cdt) crosses(u, v, a, b int) bool {
	if u == a || u == b || v == a || v == b {
		return false
	}
	return exact.SegmentsCross(t.pts[a], t.pts[b], t.pts[u], t.pts[v])
}

// recover makes ab an edge of the triangulation by flipping the edges
// that cross it. No vertex may lie in the interior of ab and ab must not
// cross another constrained edge.
func (t *cdt) recover(a, b int, border bool) bool {
	mark := func() bool {
		k := undirected(a, b)
		t.constrained[k] = true
		t.border[k] = t.border[k] || border
		return true
	}
	if t.hasEdge(a, b) {
		return mark()
	}
	var queue []edgeKey
	for _, f := range t.faces {
		if !f.alive {
			continue
		}
		for k := 0; k < 3; k++ {
			u, v := f.v[k], f.v[(k+1)%3]
			if u < v && t.crosses(u, v, a, b) {
				queue = append(queue, edgeKey{u, v})
			}
		}
	}
	limit := 16 * (len(queue) + 1) * (len(queue) + 1)
	for steps := 0; len(queue) > 0; steps++ {
		if steps > limit {
			return false
		}
		e := queue[0]
		queue = queue[1:]
		u, v := e[0], e[1]
		if !t.hasEdge(u, v) {
			continue
		}
		if t.constrained[undirected(u, v)] {
			return false
		}
		f1, ok := t.edges[edgeKey{u, v}]
		if !ok {
			u, v = v, u
			f1 = t.edges[edgeKey{u, v}]
		}
		c := t.third(f1, u, v)
		d := t.third(t.edges[edgeKey{v, u}], v, u)
		if !t.flip(u, v) {
			queue = append(queue, e)
			continue
		}
		if t.crosses(c, d, a, b) {
			queue = append(queue, edgeKey{c, d})
		}
	}
	if !t.hasEdge(a, b) {
		return false
	}
	return mark()
}

// legalize restores the Delaunay property for unconstrained edges with
// Lawson flips.
func (t *cdt) legalize() {
	var stack []edgeKey
	for e := range t.edges {
		if e[0] < e[1] {
			stack = append(stack, e)
		}
	}
	limit := 64 * (len(t.edges) + 1)
	for steps := 0; len(stack) > 0 && steps < limit; steps++ {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		u, v := e[0], e[1]
		if t.constrained[undirected(u, v)] {
			continue
		}
		f1, ok1 := t.edges[edgeKey{u, v}]
		f2, ok2 := t.edges[edgeKey{v, u}]
		if !ok1 || !ok2 {
			continue
		}
		c := t.third(f1, u, v)
		d := t.third(f2, v, u)
		if !t.inCircle(f1, d) {
			continue
		}
		if t.flip(u, v) {
			stack = append(stack, edgeKey{u, d}, edgeKey{d, v}, edgeKey{v, c}, edgeKey{c, u})
		}
	}
}

// markDomains assigns every face its nesting level: faces reachable from
// the super triangle without crossing a border constraint have level 0,
// and each border crossing adds one.
func (t *cdt) markDomains() []int {
	level := make([]int, len(t.faces))
	for i := range level {
		level[i] = -1
	}
	start := -1
	for i, f := range t.faces {
		if f.alive && (t.isSuper(f.v[0]) || t.isSuper(f.v[1]) || t.isSuper(f.v[2])) {
			start = i
			break
		}
	}
	if start < 0 {
		return level
	}
	frontier := []int{start}
	for nesting := 0; len(frontier) > 0; nesting++ {
		var next []int
		queue := frontier
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			if level[i] >= 0 {
				continue
			}
			level[i] = nesting
			v := t.faces[i].v
			for k := 0; k < 3; k++ {
				a, b := v[k], v[(k+1)%3]
				n, ok := t.edges[edgeKey{b, a}]
				if !ok || level[n] >= 0 {
					continue
				}
				if t.border[undirected(a, b)] {
					next = append(next, n)
				} else {
					queue = append(queue, n)
				}
			}
		}
		frontier = next
	}
	return level
}
