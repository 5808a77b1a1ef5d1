package tessellate

import (
	"math"
	"testing"

	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalArea(tris []Triangle) float64 {
	sum := 0.0
	for _, t := range tris {
		sum += t.Area()
	}
	return sum
}

func regularPolygon(n int, r float64, lift func(x, y float64) exact.Vec3) []exact.Vec3 {
	pts := make([]exact.Vec3, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = lift(r*math.Cos(a), r*math.Sin(a))
	}
	return pts
}

func flat(x, y float64) exact.Vec3 { return exact.V(x, y, 0) }

func TestConvexPolygonYieldsNMinus2Triangles(t *testing.T) {
	tests := []struct {
		name string
		lift func(x, y float64) exact.Vec3
		// area scale factor of the lift relative to the xy-plane
		scale float64
	}{
		{"xy plane", flat, 1},
		{"tilted plane", func(x, y float64) exact.Vec3 {
			return exact.VR(exact.Rat(x), exact.Rat(y), exact.Rat(x).Add(exact.Rat(x), exact.Rat(y)))
		}, math.Sqrt(3)},
		{"vertical plane", func(x, y float64) exact.Vec3 { return exact.V(x, 5, y) }, 1},
	}
	for _, tt := range tests {
		for n := 3; n <= 12; n++ {
			poly := regularPolygon(n, 10, tt.lift)
			tris, err := Tessellate(Polygon{Outer: poly})
			require.NoError(t, err, "%s n=%d", tt.name, n)
			assert.Len(t, tris, n-2, "%s n=%d", tt.name, n)

			want := 0.5 * float64(n) * 100 * math.Sin(2*math.Pi/float64(n)) * tt.scale
			assert.InDelta(t, want, totalArea(tris), 1e-6*want, "%s n=%d", tt.name, n)
		}
	}
}

func TestSquareWithHole(t *testing.T) {
	outer := []exact.Vec3{flat(0, 0), flat(10, 0), flat(10, 10), flat(0, 10)}
	hole := []exact.Vec3{flat(3, 3), flat(3, 7), flat(7, 7), flat(7, 3)}
	tris, err := Tessellate(Polygon{Outer: outer, Holes: [][]exact.Vec3{hole}})
	require.NoError(t, err)
	assert.InDelta(t, 84.0, totalArea(tris), 1e-9)
	for _, tri := range tris {
		c := exact.Centroid(tri[0], tri[1], tri[2]).Float()
		inHole := c.X > 3 && c.X < 7 && c.Y > 3 && c.Y < 7
		assert.False(t, inHole, "triangle %v lies inside the hole", tri)
	}
}

func TestHoleWindingDoesNotMatter(t *testing.T) {
	outer := []exact.Vec3{flat(0, 0), flat(10, 0), flat(10, 10), flat(0, 10)}
	hole := []exact.Vec3{flat(3, 3), flat(7, 3), flat(7, 7), flat(3, 7)}
	tris, err := Tessellate(Polygon{Outer: outer, Holes: [][]exact.Vec3{hole}})
	require.NoError(t, err)
	assert.InDelta(t, 84.0, totalArea(tris), 1e-9)
}

func TestFigureEightReportsFailureWithTriangles(t *testing.T) {
	bowtie := []exact.Vec3{flat(0, 0), flat(2, 2), flat(2, 0), flat(0, 2)}
	var tris []Triangle
	var err error
	require.NotPanics(t, func() {
		tris, err = Tessellate(Polygon{Outer: bowtie})
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSelfIntersecting)
	assert.NotEmpty(t, tris)
	assert.InDelta(t, 2.0, totalArea(tris), 1e-9)
}

func TestThreePointShortcut(t *testing.T) {
	tri := []exact.Vec3{flat(0, 0), flat(1, 0), flat(0, 1)}
	got, err := Tessellate(Polygon{Outer: tri})
	require.NoError(t, err)
	require.Len(t, got, 1)
	for i := range tri {
		assert.True(t, got[0][i].Equal(tri[i]))
	}
}

func TestWindingFollowsNormal(t *testing.T) {
	ccw := []exact.Vec3{flat(0, 0), flat(4, 0), flat(4, 4), flat(2, 6), flat(0, 4)}
	cw := make([]exact.Vec3, len(ccw))
	for i := range ccw {
		cw[i] = ccw[len(ccw)-1-i]
	}
	tests := []struct {
		name  string
		poly  []exact.Vec3
		wantZ int
	}{
		{"counter-clockwise", ccw, 1},
		{"clockwise", cw, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris, err := Tessellate(Polygon{Outer: tt.poly})
			require.NoError(t, err)
			require.Len(t, tris, 3)
			for _, tri := range tris {
				n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
				assert.Equal(t, tt.wantZ, n.Z.Sign())
			}
		})
	}
}

func TestCollinearBoundaryPoints(t *testing.T) {
	square := []exact.Vec3{
		flat(0, 0), flat(1, 0), flat(2, 0), flat(2, 1),
		flat(2, 2), flat(1, 2), flat(0, 2), flat(0, 1),
	}
	tris, err := Tessellate(Polygon{Outer: square})
	require.NoError(t, err)
	assert.Len(t, tris, 6)
	assert.InDelta(t, 4.0, totalArea(tris), 1e-12)
}

func TestDegenerateInput(t *testing.T) {
	line := []exact.Vec3{flat(0, 0), flat(1, 1), flat(2, 2), flat(3, 3)}
	tris, err := Tessellate(Polygon{Outer: line})
	assert.ErrorIs(t, err, ErrDegenerate)
	assert.Empty(t, tris)
}

func TestWithNormal(t *testing.T) {
	square := []exact.Vec3{flat(0, 0), flat(1, 0), flat(1, 1), flat(0, 1)}
	tris, err := Tessellate(Polygon{Outer: square}, WithNormal(exact.V(0, 0, 1)))
	require.NoError(t, err)
	assert.Len(t, tris, 2)
}

func TestNearPlanarPolygonKeepsInputPoints(t *testing.T) {
	pts := []exact.Vec3{
		exact.V(0, 0, 0), exact.V(4, 0, 1e-9), exact.V(4, 4, 0), exact.V(0, 4, -1e-9), exact.V(-1, 2, 0),
	}
	tris, err := Tessellate(Polygon{Outer: pts})
	require.NoError(t, err)
	require.Len(t, tris, 3)
	keys := map[string]bool{}
	for _, p := range pts {
		keys[p.Key()] = true
	}
	for _, tri := range tris {
		for _, v := range tri {
			assert.True(t, keys[v.Key()], "vertex %v is not an input point", v)
		}
	}
}

func TestTriangulatorInteriorConstraint(t *testing.T) {
	a, b, c := flat(0, 0), flat(8, 0), flat(0, 8)
	p, q := flat(1, 1), flat(5, 1)
	tr := NewTriangulator(NewProjection(exact.V(0, 0, 1), a))
	tr.AddConstraint(a, b, true)
	tr.AddConstraint(b, c, true)
	tr.AddConstraint(c, a, true)
	tr.AddConstraint(p, q, false)
	tris, err := tr.Triangulate()
	require.NoError(t, err)
	assert.InDelta(t, 32.0, totalArea(tris), 1e-12)

	found := false
	for _, tri := range tris {
		for i := 0; i < 3; i++ {
			u, v := tri[i], tri[(i+1)%3]
			if (u.Equal(p) && v.Equal(q)) || (u.Equal(q) && v.Equal(p)) {
				found = true
			}
		}
	}
	assert.True(t, found, "interior constraint missing from the triangulation")
}

func TestTriangulatorSplitsEdgeAtPoint(t *testing.T) {
	a, b, c := flat(0, 0), flat(4, 0), flat(0, 4)
	mid := flat(2, 0)
	tr := NewTriangulator(NewProjection(exact.V(0, 0, 1), a))
	tr.AddConstraint(a, b, true)
	tr.AddConstraint(b, c, true)
	tr.AddConstraint(c, a, true)
	tr.AddPoint(mid)
	tris, err := tr.Triangulate()
	require.NoError(t, err)
	assert.Len(t, tris, 2)
	assert.InDelta(t, 8.0, totalArea(tris), 1e-12)
}

func TestProjectionRoundTrip(t *testing.T) {
	normals := []exact.Vec3{
		exact.V(0, 0, 1), exact.V(0, 0, -1), exact.V(1, 0, 0), exact.V(-1, 0, 0),
		exact.V(0, 1, 0), exact.V(0, -2, 0), exact.V(1, 2, 3), exact.V(-3, 1, -1),
	}
	origin := exact.V(1, 2, 3)
	for _, n := range normals {
		p := NewProjection(n, origin)
		// A point on the plane: origin plus a vector orthogonal to n.
		tangent := n.Cross(exact.V(0.5, 0.25, 1))
		if tangent.IsZero() {
			tangent = n.Cross(exact.V(1, 0, 0))
		}
		q := origin.Add(tangent)
		back, err := p.Deproject(p.Project(q))
		require.NoError(t, err)
		assert.True(t, back.Equal(q), "normal %v: %v != %v", n, back, q)
	}
}

func TestProjectionPreservesWinding(t *testing.T) {
	// Counter-clockwise around +x seen from the front.
	a, b, c := exact.V(0, 0, 0), exact.V(0, 1, 0), exact.V(0, 0, 1)
	for _, n := range []exact.Vec3{exact.V(1, 0, 0), exact.V(-1, 0, 0)} {
		if n.X.Sign() < 0 {
			b, c = c, b
		}
		p := NewProjection(n, a)
		assert.Equal(t, 1, exact.Orient2D(p.Project(a), p.Project(b), p.Project(c)), "normal %v", n)
	}
}
