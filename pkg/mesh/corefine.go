package mesh

import (
	"errors"
	"fmt"
	"sort"

	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
	"github.com/chazu/hybridcsg/pkg/tessellate"
)

// Op selects a boolean operation.
type Op int

const (
	Union Op = iota
	Intersection
	Difference
)

func (o Op) String() string {
	switch o {
	case Union:
		return "union"
	case Intersection:
		return "intersection"
	case Difference:
		return "difference"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Status is the result class of a corefinement.
type Status int

const (
	// Succeeded means Outcome.Mesh holds the result.
	Succeeded Status = iota
	// SoftFailure means the operands were unsuitable; repairing them
	// may help.
	SoftFailure
	// HardFailure means the configuration is outside what corefinement
	// handles. Retrying after a repair will not help.
	HardFailure
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case SoftFailure:
		return "soft failure"
	case HardFailure:
		return "hard failure"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

var (
	ErrNotClosed          = errors.New("mesh: operand is not a closed manifold")
	ErrSelfIntersecting   = errors.New("mesh: operand self-intersects")
	ErrDegenerateContact  = errors.New("mesh: operands touch in a degenerate configuration")
	ErrRetriangulation    = errors.New("mesh: cannot retriangulate a face")
	ErrClassification     = errors.New("mesh: cannot classify a face")
	ErrNonManifoldOutcome = errors.New("mesh: result is not a closed manifold")
)

// Outcome is the result of Corefine. Mesh is set only when Status is
// Succeeded; Err explains the failure otherwise.
type Outcome struct {
	Status Status
	Mesh   *Mesh
	Err    error
}

func soft(err error) Outcome { return Outcome{Status: SoftFailure, Err: err} }
func hard(err error) Outcome { return Outcome{Status: HardFailure, Err: err} }

// Corefine computes a op b for two closed, outward oriented meshes. The
// intersection curve is inserted into both surfaces, then each piece is
// kept or dropped by whether it lies inside the other operand. Neither
// input is modified.
//
// Contacts that are not transversal (touching vertices, coplanar faces,
// edges lying in the other surface) are reported as HardFailure.
func Corefine(a, b *Mesh, op Op) Outcome {
	for _, m := range []*Mesh{a, b} {
		if !m.IsClosed() || !m.IsManifold() {
			return soft(ErrNotClosed)
		}
		if pairs := m.SelfIntersections(); len(pairs) > 0 {
			return soft(fmt.Errorf("%w: faces %d and %d", ErrSelfIntersecting, pairs[0][0], pairs[0][1]))
		}
	}

	ra, rb := newRefinement(a), newRefinement(b)
	if !a.IsEmpty() && !b.IsEmpty() {
		treeB := b.faceTree()
		for fa := range a.Faces {
			for _, ref := range treeB.Intersecting(a.faceBox(fa).Float()) {
				x, err := crossFaces(a.Triangle(fa), b.Triangle(ref.f))
				if err != nil {
					return hard(fmt.Errorf("%w: faces %d and %d", err, fa, ref.f))
				}
				if x == nil {
					continue
				}
				ra.add(fa, x[0], x[1])
				rb.add(ref.f, x[0], x[1])
			}
		}
	}

	pa, err := ra.pieces()
	if err != nil {
		return soft(err)
	}
	pb, err := rb.pieces()
	if err != nil {
		return soft(err)
	}

	out := NewBuilder()
	inA, inB := newClassifier(a), newClassifier(b)
	keep := func(pieces []tessellate.Triangle, other *classifier, wantInside, reverse bool) error {
		for _, t := range pieces {
			in, ok := other.inside(exact.Centroid(t[0], t[1], t[2]))
			if !ok {
				return ErrClassification
			}
			if in != wantInside {
				continue
			}
			if reverse {
				out.Triangle(t[0], t[2], t[1])
			} else {
				out.Triangle(t[0], t[1], t[2])
			}
		}
		return nil
	}
	switch op {
	case Union:
		err = errors.Join(keep(pa, inB, false, false), keep(pb, inA, false, false))
	case Intersection:
		err = errors.Join(keep(pa, inB, true, false), keep(pb, inA, true, false))
	case Difference:
		err = errors.Join(keep(pa, inB, false, false), keep(pb, inA, true, true))
	default:
		return hard(fmt.Errorf("mesh: unknown operation %v", op))
	}
	if err != nil {
		return hard(err)
	}

	m := out.Mesh()
	m.Cleanup()
	if !m.IsClosed() || !m.IsManifold() {
		return soft(ErrNonManifoldOutcome)
	}
	kernel.Logger().Debug("mesh: corefined",
		"op", op.String(),
		"lhs_faces", len(a.Faces),
		"rhs_faces", len(b.Faces),
		"faces", len(m.Faces))
	return Outcome{Status: Succeeded, Mesh: m}
}

// crossFaces returns the segment shared by triangles t and u, nil when
// they are disjoint, or ErrDegenerateContact when they meet other than
// transversally through their interiors and edges.
func crossFaces(t, u [3]exact.Vec3) (*[2]exact.Vec3, error) {
	pl, okT := exact.PlaneFromPoints(t[0], t[1], t[2])
	ql, okU := exact.PlaneFromPoints(u[0], u[1], u[2])
	if !okT || !okU {
		return nil, ErrDegenerateContact
	}
	su := sides(t, u)
	st := sides(u, t)
	if allSame(su) || allSame(st) {
		return nil, nil
	}
	for k := 0; k < 3; k++ {
		if su[k] == 0 || st[k] == 0 {
			return nil, ErrDegenerateContact
		}
	}
	k := exact.DominantAxis(pl.Normal.Cross(ql.Normal))
	t0, t1 := planeSection(t, st, ql, k)
	u0, u1 := planeSection(u, su, pl, k)
	lo, hi := t0, t1
	if u0.Coord(k).Cmp(lo.Coord(k)) > 0 {
		lo = u0
	}
	if u1.Coord(k).Cmp(hi.Coord(k)) < 0 {
		hi = u1
	}
	switch lo.Coord(k).Cmp(hi.Coord(k)) {
	case 1:
		return nil, nil
	case 0:
		// The segments touch at an end, which is an edge against edge
		// contact.
		return nil, ErrDegenerateContact
	}
	if t0.Coord(k).Cmp(u0.Coord(k)) == 0 || t1.Coord(k).Cmp(u1.Coord(k)) == 0 {
		// Two edges cross each other.
		return nil, ErrDegenerateContact
	}
	return &[2]exact.Vec3{lo, hi}, nil
}

// refinement collects the intersection curve pieces landing on each face
// of one mesh. Points on an edge are shared by both faces of the edge so
// the retriangulated surface stays conforming.
type refinement struct {
	m      *Mesh
	points map[int]map[string]exact.Vec3
	segs   map[int][][2]exact.Vec3
	onEdge map[edge]map[string]exact.Vec3
}

func newRefinement(m *Mesh) *refinement {
	return &refinement{
		m:      m,
		points: make(map[int]map[string]exact.Vec3),
		segs:   make(map[int][][2]exact.Vec3),
		onEdge: make(map[edge]map[string]exact.Vec3),
	}
}

func (r *refinement) add(f int, p, q exact.Vec3) {
	r.addPoint(f, p)
	r.addPoint(f, q)
	r.segs[f] = append(r.segs[f], [2]exact.Vec3{p, q})
}

func (r *refinement) addPoint(f int, p exact.Vec3) {
	put := func(set map[string]exact.Vec3) map[string]exact.Vec3 {
		if set == nil {
			set = make(map[string]exact.Vec3)
		}
		set[p.Key()] = p
		return set
	}
	r.points[f] = put(r.points[f])
	face := r.m.Faces[f]
	for k := 0; k < 3; k++ {
		u, v := face[k], face[(k+1)%3]
		if exact.OnSegment(r.m.Vertices[u], r.m.Vertices[v], p) {
			e := undirected(u, v)
			r.onEdge[e] = put(r.onEdge[e])
		}
	}
}

// pieces returns the retriangulated surface: untouched faces as they
// are, refined faces split along the intersection curve.
func (r *refinement) pieces() ([]tessellate.Triangle, error) {
	var out []tessellate.Triangle
	for f, face := range r.m.Faces {
		t := r.m.Triangle(f)
		pts := make(map[string]exact.Vec3)
		for k, p := range r.points[f] {
			pts[k] = p
		}
		for k := 0; k < 3; k++ {
			for key, p := range r.onEdge[undirected(face[k], face[(k+1)%3])] {
				pts[key] = p
			}
		}
		if len(pts) == 0 {
			out = append(out, tessellate.Triangle(t))
			continue
		}
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		tr := tessellate.NewTriangulator(tessellate.NewProjection(n, t[0]))
		for k := 0; k < 3; k++ {
			tr.AddConstraint(t[k], t[(k+1)%3], true)
		}
		keys := make([]string, 0, len(pts))
		for k := range pts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tr.AddPoint(pts[k])
		}
		for _, s := range r.segs[f] {
			tr.AddConstraint(s[0], s[1], false)
		}
		tris, err := tr.Triangulate()
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrRetriangulation, f, err)
		}
		out = append(out, tris...)
	}
	return out, nil
}
