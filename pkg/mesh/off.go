package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chazu/hybridcsg/pkg/exact"
)

// WriteOFF writes the mesh in Object File Format. Coordinates are
// written as the nearest float.
func (m *Mesh) WriteOFF(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "OFF\n%d %d 0\n", len(m.Vertices), len(m.Faces))
	for _, v := range m.Vertices {
		f := v.Float()
		fmt.Fprintf(bw, "%s %s %s\n", formatFloat(f.X), formatFloat(f.Y), formatFloat(f.Z))
	}
	for _, f := range m.Faces {
		fmt.Fprintf(bw, "3 %d %d %d\n", f[0], f[1], f[2])
	}
	return bw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ReadOFF parses a triangle mesh in Object File Format. Polygonal faces
// are fanned into triangles.
func ReadOFF(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	var tokens []string
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		tokens = append(tokens, strings.Fields(line)...)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("mesh: read off: %w", err)
	}
	if len(tokens) < 4 || tokens[0] != "OFF" {
		return nil, fmt.Errorf("mesh: read off: missing header")
	}
	pos := 1
	next := func() (string, error) {
		if pos >= len(tokens) {
			return "", io.ErrUnexpectedEOF
		}
		pos++
		return tokens[pos-1], nil
	}
	nextInt := func() (int, error) {
		s, err := next()
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(s)
	}
	nv, err := nextInt()
	if err != nil {
		return nil, fmt.Errorf("mesh: read off: vertex count: %w", err)
	}
	nf, err := nextInt()
	if err != nil {
		return nil, fmt.Errorf("mesh: read off: face count: %w", err)
	}
	if _, err := nextInt(); err != nil {
		return nil, fmt.Errorf("mesh: read off: edge count: %w", err)
	}
	m := &Mesh{Vertices: make([]exact.Vec3, 0, nv)}
	for i := 0; i < nv; i++ {
		var c [3]float64
		for k := range c {
			s, err := next()
			if err != nil {
				return nil, fmt.Errorf("mesh: read off: vertex %d: %w", i, err)
			}
			if c[k], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("mesh: read off: vertex %d: %w", i, err)
			}
		}
		v, err := exact.FromFloats(c[0], c[1], c[2])
		if err != nil {
			return nil, fmt.Errorf("mesh: read off: vertex %d: %w", i, err)
		}
		m.Vertices = append(m.Vertices, v)
	}
	for i := 0; i < nf; i++ {
		n, err := nextInt()
		if err != nil {
			return nil, fmt.Errorf("mesh: read off: face %d: %w", i, err)
		}
		idx := make([]int, n)
		for k := range idx {
			if idx[k], err = nextInt(); err != nil {
				return nil, fmt.Errorf("mesh: read off: face %d: %w", i, err)
			}
			if idx[k] < 0 || idx[k] >= nv {
				return nil, fmt.Errorf("mesh: read off: face %d: index %d out of range", i, idx[k])
			}
		}
		for k := 1; k+1 < n; k++ {
			m.Faces = append(m.Faces, [3]int{idx[0], idx[k], idx[k+1]})
		}
	}
	return m, nil
}
