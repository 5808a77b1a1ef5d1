package mesh

type edge [2]int

func undirected(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

// directedEdges counts every directed edge. ok is false when an index
// is out of range or a face repeats a vertex.
func (m *Mesh) directedEdges() (counts map[edge]int, ok bool) {
	counts = make(map[edge]int, 3*len(m.Faces))
	ok = true
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			if a < 0 || a >= len(m.Vertices) || a == b {
				ok = false
			}
			counts[edge{a, b}]++
		}
	}
	return counts, ok
}

// IsValid reports whether the mesh is structurally sound: indices are in
// range, no face repeats a vertex and no directed edge is used twice.
func (m *Mesh) IsValid() bool {
	counts, ok := m.directedEdges()
	if !ok {
		return false
	}
	for _, n := range counts {
		if n > 1 {
			return false
		}
	}
	return true
}

// IsClosed reports whether every directed edge is matched by its
// reverse, so the surface has no boundary.
func (m *Mesh) IsClosed() bool {
	counts, ok := m.directedEdges()
	if !ok {
		return false
	}
	for e, n := range counts {
		if counts[edge{e[1], e[0]}] != n {
			return false
		}
	}
	return true
}

// IsManifold reports whether the mesh is valid, every edge has at most
// two faces and the faces around every vertex form a single fan.
func (m *Mesh) IsManifold() bool {
	if !m.IsValid() {
		return false
	}
	// The link of a vertex joins the two other corners of each incident
	// face; it must be connected.
	links := make(map[int][]edge)
	for _, f := range m.Faces {
		for k := 0; k < 3; k++ {
			links[f[k]] = append(links[f[k]], edge{f[(k+1)%3], f[(k+2)%3]})
		}
	}
	for _, link := range links {
		if components(link) != 1 {
			return false
		}
	}
	return true
}

// components counts connected components of a small edge list.
func components(edges []edge) int {
	parent := make(map[int]int)
	var find func(int) int
	find = func(x int) int {
		p, ok := parent[x]
		if !ok {
			parent[x] = x
			return x
		}
		if p == x {
			return x
		}
		r := find(p)
		parent[x] = r
		return r
	}
	for _, e := range edges {
		a, b := find(e[0]), find(e[1])
		if a != b {
			parent[a] = b
		}
	}
	n := 0
	for x := range parent {
		if find(x) == x {
			n++
		}
	}
	return n
}

// Components splits m into parts whose faces are connected through
// shared edges. Each part has its own compacted vertex slice.
func (m *Mesh) Components() []*Mesh {
	parent := make([]int, len(m.Faces))
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	first := make(map[edge]int)
	for i, f := range m.Faces {
		for k := 0; k < 3; k++ {
			e := undirected(f[k], f[(k+1)%3])
			if j, ok := first[e]; ok {
				parent[find(i)] = find(j)
			} else {
				first[e] = i
			}
		}
	}
	index := make(map[int]int)
	var parts []*Mesh
	for i, f := range m.Faces {
		r := find(i)
		p, ok := index[r]
		if !ok {
			p = len(parts)
			index[r] = p
			parts = append(parts, &Mesh{Vertices: m.Vertices})
		}
		parts[p].Faces = append(parts[p].Faces, f)
	}
	for _, p := range parts {
		p.compact()
	}
	return parts
}
