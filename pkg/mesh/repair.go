package mesh

import (
	"sort"

	"github.com/chazu/hybridcsg/pkg/kernel"
)

// RepairReport counts what Repair changed.
type RepairReport struct {
	MergedVertices    int
	DroppedFaces      int
	FlippedFaces      int
	SelfIntersections int
}

// Cleanup merges coincident vertices, drops faces that collapse to an
// edge or a point and removes unreferenced vertices.
func (m *Mesh) Cleanup() {
	m.mergeVertices()
	m.dropDegenerateFaces()
	m.compact()
}

// Repair does what Cleanup does and also removes duplicated faces and
// orients every connected component consistently and outward.
// Self-intersections are counted but left in place.
func (m *Mesh) Repair() RepairReport {
	var r RepairReport
	r.MergedVertices = m.mergeVertices()
	r.DroppedFaces = m.dropDegenerateFaces() + m.dropDuplicateFaces()
	m.compact()
	r.FlippedFaces = m.orient()
	r.SelfIntersections = len(m.SelfIntersections())
	kernel.Logger().Debug("mesh: repaired",
		"merged", r.MergedVertices,
		"dropped", r.DroppedFaces,
		"flipped", r.FlippedFaces,
		"self_intersections", r.SelfIntersections)
	return r
}

// mergeVertices points every face at the first vertex with the same
// coordinates.
func (m *Mesh) mergeVertices() int {
	first := make(map[string]int, len(m.Vertices))
	remap := make([]int, len(m.Vertices))
	merged := 0
	for i, v := range m.Vertices {
		k := v.Key()
		if j, ok := first[k]; ok {
			remap[i] = j
			merged++
			continue
		}
		first[k] = i
		remap[i] = i
	}
	if merged == 0 {
		return 0
	}
	for i, f := range m.Faces {
		m.Faces[i] = [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
	}
	return merged
}

func (m *Mesh) dropDegenerateFaces() int {
	kept := m.Faces[:0]
	for _, f := range m.Faces {
		if f[0] != f[1] && f[1] != f[2] && f[2] != f[0] {
			kept = append(kept, f)
		}
	}
	n := len(m.Faces) - len(kept)
	m.Faces = kept
	return n
}

// dropDuplicateFaces cancels opposite copies of a face pairwise and
// keeps one copy of whichever orientation is left over.
func (m *Mesh) dropDuplicateFaces() int {
	type rec struct {
		count map[[3]int]int
		order []int
	}
	groups := make(map[[3]int]*rec)
	for i, f := range m.Faces {
		s := f
		sort.Ints(s[:])
		g, ok := groups[s]
		if !ok {
			g = &rec{count: make(map[[3]int]int)}
			groups[s] = g
		}
		g.count[canonical(f)]++
		g.order = append(g.order, i)
	}
	drop := make(map[int]bool)
	for _, g := range groups {
		if len(g.order) == 1 {
			continue
		}
		// A triangle has two windings; the one with more copies wins.
		var winner [3]int
		best, other := 0, 0
		for k, n := range g.count {
			if n > best {
				winner, best, other = k, n, best
			} else {
				other = n
			}
		}
		keep := -1
		if best > other {
			for _, i := range g.order {
				if canonical(m.Faces[i]) == winner {
					keep = i
					break
				}
			}
		}
		for _, i := range g.order {
			if i != keep {
				drop[i] = true
			}
		}
	}
	if len(drop) == 0 {
		return 0
	}
	kept := make([][3]int, 0, len(m.Faces)-len(drop))
	for i, f := range m.Faces {
		if !drop[i] {
			kept = append(kept, f)
		}
	}
	m.Faces = kept
	return len(drop)
}

// canonical rotates f so its smallest index comes first, keeping the
// winding.
func canonical(f [3]int) [3]int {
	for f[0] > f[1] || f[0] > f[2] {
		f = [3]int{f[1], f[2], f[0]}
	}
	return f
}

// compact removes vertices no face references.
func (m *Mesh) compact() {
	remap := make([]int, len(m.Vertices))
	for i := range remap {
		remap[i] = -1
	}
	var verts = m.Vertices[:0:0]
	for i, f := range m.Faces {
		for k, v := range f {
			if remap[v] < 0 {
				remap[v] = len(verts)
				verts = append(verts, m.Vertices[v])
			}
			m.Faces[i][k] = remap[v]
		}
	}
	m.Vertices = verts
}

// orient makes adjacent faces agree on their winding, then reverses any
// component whose enclosed volume is negative. It returns the number of
// faces flipped.
func (m *Mesh) orient() int {
	adj := make(map[edge][]int)
	for i, f := range m.Faces {
		for k := 0; k < 3; k++ {
			e := undirected(f[k], f[(k+1)%3])
			adj[e] = append(adj[e], i)
		}
	}
	hasDirected := func(f [3]int, a, b int) bool {
		for k := 0; k < 3; k++ {
			if f[k] == a && f[(k+1)%3] == b {
				return true
			}
		}
		return false
	}
	flip := func(i int) {
		f := m.Faces[i]
		m.Faces[i] = [3]int{f[0], f[2], f[1]}
	}

	flipped := 0
	seen := make([]bool, len(m.Faces))
	for start := range m.Faces {
		if seen[start] {
			continue
		}
		seen[start] = true
		component := []int{start}
		for q := 0; q < len(component); q++ {
			f := m.Faces[component[q]]
			for k := 0; k < 3; k++ {
				a, b := f[k], f[(k+1)%3]
				nb := adj[undirected(a, b)]
				// Orientation only propagates across manifold edges.
				if len(nb) != 2 {
					continue
				}
				for _, g := range nb {
					if seen[g] {
						continue
					}
					seen[g] = true
					if !hasDirected(m.Faces[g], b, a) {
						flip(g)
						flipped++
					}
					component = append(component, g)
				}
			}
		}
		part := &Mesh{Vertices: m.Vertices}
		for _, i := range component {
			part.Faces = append(part.Faces, m.Faces[i])
		}
		if part.SignedVolume().Sign() < 0 {
			for _, i := range component {
				flip(i)
			}
			flipped += len(component)
		}
	}
	return flipped
}
