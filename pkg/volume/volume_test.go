package volume

import (
	"testing"

	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x0, y0, z0, x1, y1, z1 float64) *Volume {
	c := exact.BoxOf(exact.V(x0, y0, z0), exact.V(x1, y1, z1)).Corners()
	quads := [6][4]int{
		{0, 4, 6, 2}, {1, 3, 7, 5},
		{0, 1, 5, 4}, {2, 6, 7, 3},
		{0, 2, 3, 1}, {4, 5, 7, 6},
	}
	var polys []Polygon
	for _, q := range quads {
		p, err := NewPolygon(c[q[0]], c[q[1]], c[q[2]], c[q[3]])
		if err != nil {
			panic(err)
		}
		polys = append(polys, p)
	}
	return New(polys...)
}

func vol(v *Volume) float64 {
	return exact.Float(v.SignedVolume())
}

func TestBoxChecks(t *testing.T) {
	b := box(0, 0, 0, 2, 2, 2)
	assert.True(t, b.IsValid())
	assert.True(t, b.IsSimple())
	assert.True(t, b.IsConvex())
	assert.Equal(t, 8.0, vol(b))
	assert.Equal(t, 6, b.NumFacets())
	assert.Equal(t, 8, b.NumVertices())
	assert.Positive(t, b.MemSize())

	open := New(b.Polygons()[1:]...)
	assert.False(t, open.IsValid())
	assert.False(t, open.IsSimple())

	_, err := NewPolygon(exact.V(0, 0, 0), exact.V(1, 1, 1), exact.V(2, 2, 2))
	assert.ErrorIs(t, err, ErrDegeneratePolygon)
}

func TestBooleans(t *testing.T) {
	tests := []struct {
		name               string
		a, b               *Volume
		union, inter, diff float64
	}{
		{"overlapping", box(0, 0, 0, 2, 2, 2), box(1, 1, 1, 3, 3, 3), 15, 1, 7},
		{"offset", box(0, 0, 0, 2, 2, 2), box(1, 0.5, 0.25, 3, 3, 3), 19.125, 2.625, 5.375},
		{"shared face", box(0, 0, 0, 1, 1, 1), box(1, 0, 0, 2, 1, 1), 2, 0, 1},
		{"identical", box(0, 0, 0, 1, 1, 1), box(0, 0, 0, 1, 1, 1), 1, 1, 0},
		{"nested", box(0, 0, 0, 3, 3, 3), box(1, 1, 1, 2, 2, 2), 27, 1, 26},
		{"disjoint", box(0, 0, 0, 1, 1, 1), box(5, 5, 5, 6, 6, 6), 2, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := Union(tt.a, tt.b)
			i := Intersection(tt.a, tt.b)
			d := Difference(tt.a, tt.b)
			assert.Equal(t, tt.union, vol(u), "union")
			assert.Equal(t, tt.inter, vol(i), "intersection")
			assert.Equal(t, tt.diff, vol(d), "difference")
			for _, r := range []*Volume{u, i, d} {
				assert.True(t, r.IsValid())
			}
		})
	}
}

func TestBooleansWithEmpty(t *testing.T) {
	b := box(0, 0, 0, 1, 1, 1)
	empty := New()
	assert.Equal(t, 1.0, vol(Union(b, empty)))
	assert.Equal(t, 1.0, vol(Union(empty, b)))
	assert.True(t, Intersection(b, empty).IsEmpty())
	assert.True(t, Difference(empty, b).IsEmpty())
	assert.Equal(t, 1.0, vol(Difference(b, empty)))
}

func lShape() *Volume {
	return Union(box(0, 0, 0, 2, 1, 1), box(0, 0, 0, 1, 2, 1))
}

func TestConvexParts(t *testing.T) {
	l := lShape()
	require.Equal(t, 3.0, vol(l))
	assert.False(t, l.IsConvex())

	parts := l.ConvexParts()
	require.NotEmpty(t, parts)
	sum := 0.0
	for _, p := range parts {
		assert.True(t, p.IsConvex())
		assert.True(t, p.IsValid())
		sum += vol(p)
	}
	assert.InDelta(t, 3.0, sum, 1e-12)

	again := l.ConvexParts()
	assert.Same(t, parts[0], again[0], "parts are cached")

	b := box(0, 0, 0, 1, 1, 1)
	assert.Same(t, b, b.ConvexParts()[0])
}

func TestHull(t *testing.T) {
	b := box(0, 0, 0, 2, 2, 2)
	pts := append(b.Vertices(), exact.V(1, 1, 1), exact.V(0.5, 0.5, 1.5), exact.V(1, 1, 0), exact.V(0, 0, 0))
	h := Hull(pts)
	assert.Equal(t, 8.0, vol(h))
	assert.True(t, h.IsConvex())
	assert.True(t, h.IsValid())

	flat := []exact.Vec3{exact.V(0, 0, 0), exact.V(1, 0, 0), exact.V(0, 1, 0), exact.V(1, 1, 0)}
	assert.True(t, Hull(flat).IsEmpty())
	assert.True(t, Hull(flat[:3]).IsEmpty())
}

func TestMinkowski(t *testing.T) {
	small := box(0, 0, 0, 1, 1, 1)

	sum := Minkowski(small, box(0, 0, 0, 2, 2, 2))
	assert.Equal(t, 27.0, vol(sum))
	assert.True(t, sum.IsValid())

	l := lShape()
	require.Nil(t, l.parts)
	grown := Minkowski(small, l)
	assert.Equal(t, 16.0, vol(grown))
	assert.NotNil(t, l.parts, "decomposing caches the parts on the operand")

	assert.True(t, Minkowski(small, New()).IsEmpty())
}

func TestTransform(t *testing.T) {
	b := box(0, 0, 0, 1, 2, 3)
	b.ConvexParts()
	b.Transform(exact.Scaling(exact.V(-1, 1, 1)))
	assert.Equal(t, 6.0, vol(b))
	assert.True(t, b.IsValid())
	assert.Nil(t, b.parts)

	m := b.BoundingBox()
	assert.True(t, m.Min.Equal(exact.V(-1, 0, 0)))
	assert.True(t, m.Max.Equal(exact.V(0, 2, 3)))
}

// splitTop returns a 2x1x1 box whose top face is split in two, leaving
// T-junctions on the long side faces.
func splitTop() *Volume {
	b := box(0, 0, 0, 2, 1, 1)
	left, _ := NewPolygon(exact.V(0, 0, 1), exact.V(1, 0, 1), exact.V(1, 1, 1), exact.V(0, 1, 1))
	right, _ := NewPolygon(exact.V(1, 0, 1), exact.V(2, 0, 1), exact.V(2, 1, 1), exact.V(1, 1, 1))
	return New(append(append([]Polygon(nil), b.Polygons()[:5]...), left, right)...)
}

func TestConformingContoursSplitTJunctions(t *testing.T) {
	v := splitTop()
	require.True(t, v.IsValid())
	assert.True(t, v.IsSimple())
	assert.Equal(t, 2.0, vol(v))

	contours := v.ConformingContours()
	inserted := 0
	for i, c := range contours {
		inserted += len(c) - len(v.Polygons()[i].Vertices)
	}
	assert.Equal(t, 2, inserted)
}
