package hybrid

import (
	"fmt"

	"github.com/chazu/hybridcsg/pkg/config"
	"github.com/chazu/hybridcsg/pkg/convert"
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
	"github.com/chazu/hybridcsg/pkg/mesh"
	"github.com/chazu/hybridcsg/pkg/tessellate"
	"github.com/chazu/hybridcsg/pkg/volume"
)

// Op is a binary solid operation.
type Op int

const (
	Union Op = iota
	Intersection
	Difference
	Minkowski
)

func (o Op) String() string {
	switch o {
	case Union:
		return "union"
	case Intersection:
		return "intersection"
	case Difference:
		return "difference"
	case Minkowski:
		return "minkowski"
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Engine evaluates operations on solids. It is safe for concurrent use
// on disjoint solids.
type Engine struct {
	opts config.Options
	diag *Diagnostics
}

// NewEngine returns an engine using opts.
func NewEngine(opts config.Options) *Engine {
	return &Engine{opts: opts, diag: NewDiagnostics()}
}

// Diagnostics returns the engine's operation counters.
func (e *Engine) Diagnostics() *Diagnostics {
	return e.diag
}

// FromSoup builds a mesh solid from a soup using the engine's
// tessellation settings.
func (e *Engine) FromSoup(soup convert.Soup) (*Solid, error) {
	m, err := convert.SoupToMesh(soup, tessellate.WithNormalEpsilon(e.opts.Tessellation.NormalEpsilon))
	if m == nil {
		return nil, err
	}
	return FromMesh(m), err
}

// Apply performs s = s op o.
func (e *Engine) Apply(op Op, s, o *Solid) {
	switch op {
	case Union:
		e.Union(s, o)
	case Intersection:
		e.Intersection(s, o)
	case Difference:
		e.Difference(s, o)
	case Minkowski:
		e.Minkowski(s, o)
	default:
		panic(fmt.Sprintf("hybrid: unknown operation %v", op))
	}
}

// Union sets s to s ∪ o. o may be converted or repaired.
func (e *Engine) Union(s, o *Solid) {
	s.check()
	o.check()
	if !s.boxesIntersect(o) && s.IsMesh() && o.IsMesh() && s.IsManifold() && o.IsManifold() {
		// Disjoint closed meshes: concatenating them is the union.
		s.mesh.Append(o.mesh)
		s.boxes = append(s.boxes, o.boxes...)
		kernel.Logger().Debug("fast-csg: union of disjoint operands by concatenation",
			"facets", s.mesh.NumFaces())
		return
	}
	boxes := append(append([]exact.Box(nil), s.boxes...), o.boxes...)
	e.binary(Union, s, o)
	s.boxes = boxes
}

// Intersection sets s to s ∩ o. o may be converted or repaired.
func (e *Engine) Intersection(s, o *Solid) {
	s.check()
	o.check()
	if !s.boxesIntersect(o) {
		kernel.Logger().Warn("fast-csg: empty intersection", "op", Intersection.String())
		s.clear()
		return
	}
	boxes := s.boxesTouching(o)
	e.binary(Intersection, s, o)
	s.boxes = boxes
}

// Difference sets s to s − o. o may be converted or repaired.
func (e *Engine) Difference(s, o *Solid) {
	s.check()
	o.check()
	if !s.boxesIntersect(o) {
		kernel.Logger().Warn("fast-csg: difference with a disjoint operand leaves the solid unchanged",
			"op", Difference.String())
		return
	}
	boxes := s.boxes
	e.binary(Difference, s, o)
	s.boxes = boxes
}

// Minkowski sets s to the Minkowski sum of s and o, always in the volume
// representation. o is switched to its volume representation and keeps
// its convex decomposition cached.
func (e *Engine) Minkowski(s, o *Solid) {
	s.check()
	o.check()
	e.diag.next(Minkowski.String())
	ov := o.asVolume()
	o.setVolume(ov)
	s.setVolume(volume.Minkowski(s.asVolume(), ov))
	s.resetBoxes()
}

// Transform applies a to s. A singular map collapses s to the empty
// solid.
func (e *Engine) Transform(s *Solid, a exact.Affine) {
	s.check()
	if a.Determinant().Sign() == 0 {
		kernel.Logger().Warn("fast-csg: singular transform, solid becomes empty",
			"facets", s.NumFacets())
		s.clear()
		return
	}
	if s.mesh != nil {
		s.mesh.Transform(a)
		s.mesh.Cleanup()
	} else {
		s.volume.Transform(a)
	}
	for i, b := range s.boxes {
		s.boxes[i] = b.Transform(a)
	}
}

func meshOp(op Op) mesh.Op {
	switch op {
	case Intersection:
		return mesh.Intersection
	case Difference:
		return mesh.Difference
	}
	return mesh.Union
}

// binary runs a boolean on the fast path and falls back to the volume
// path when corefinement cannot produce a result.
func (e *Engine) binary(op Op, s, o *Solid) {
	n := e.diag.next(op.String())
	if e.corefine(op, n, s, o) {
		return
	}
	a, b := s.asVolume(), o.asVolume()
	var r *volume.Volume
	switch op {
	case Union:
		r = volume.Union(a, b)
	case Intersection:
		r = volume.Intersection(a, b)
	case Difference:
		r = volume.Difference(a, b)
	}
	s.setVolume(r)
}

// snapshot records a solid's representation for rollback. Meshes are
// copied because the fast path repairs them in place; volumes are never
// modified by it.
type snapshot struct {
	mesh   *mesh.Mesh
	volume *volume.Volume
}

func takeSnapshot(s *Solid) snapshot {
	if s.mesh != nil {
		return snapshot{mesh: s.mesh.Clone()}
	}
	return snapshot{volume: s.volume}
}

func (sn snapshot) restore(s *Solid) {
	s.mesh, s.volume = sn.mesh, sn.volume
}

// corefine attempts the fast path. It reports whether s now holds the
// result; when it does not, s and o are as they were on entry.
func (e *Engine) corefine(op Op, n int, s, o *Solid) bool {
	log := kernel.Logger().With("op", op.String(), "n", n)
	fallback := func(reason string) bool {
		log.Info("fast-csg: performing safer but slower volume operation instead of corefinement because "+reason,
			"reason", reason)
		return false
	}
	fc := e.opts.FastCSG
	if fc.CheckSharedVertices && s.SharesAnyVertexWith(o) {
		return fallback("operands share a vertex")
	}

	snapS, snapO := takeSnapshot(s), takeSnapshot(o)
	rollback := func() {
		snapS.restore(s)
		snapO.restore(o)
	}
	a, err := s.toMesh()
	if err != nil {
		rollback()
		return fallback("lhs has no mesh: " + err.Error())
	}
	b, err := o.toMesh()
	if err != nil {
		rollback()
		return fallback("rhs has no mesh: " + err.Error())
	}

	if fc.RepairBeforeBoolean {
		a.Repair()
		b.Repair()
	} else if !fc.TrustCorefinement {
		if !a.IsClosed() || !a.IsManifold() {
			rollback()
			return fallback("lhs is not a closed manifold")
		}
		if !b.IsClosed() || !b.IsManifold() {
			rollback()
			return fallback("rhs is not a closed manifold")
		}
	}

	var dumps []string
	if fc.Verbose {
		log.Debug("fast-csg: operands", "lhs", a.Describe(), "rhs", b.Describe())
		if dumps, err = e.diag.dump(fc.DumpDir, op.String(), n, a, b); err != nil {
			log.Warn("fast-csg: cannot dump operands", "err", err)
		}
	}

	out := mesh.Corefine(a, b, meshOp(op))
	if out.Status == mesh.SoftFailure && fc.RetryAfterRepair {
		log.Debug("fast-csg: retrying after repair", "err", out.Err)
		a.Repair()
		b.Repair()
		out = mesh.Corefine(a, b, meshOp(op))
	}
	if out.Status != mesh.Succeeded {
		rollback()
		if len(dumps) > 0 {
			log.Warn("fast-csg: corefinement failed, operands dumped",
				"lhs", dumps[0], "rhs", dumps[1])
		}
		return fallback(fmt.Sprintf("corefinement %s: %v", out.Status, out.Err))
	}

	out.Mesh.Cleanup()
	s.setMesh(out.Mesh)
	if err := removeDumps(dumps); err != nil {
		log.Warn("fast-csg: cannot remove operand dumps", "err", err)
	}
	log.Debug("fast-csg: corefinement succeeded", "facets", out.Mesh.NumFaces())
	return true
}
