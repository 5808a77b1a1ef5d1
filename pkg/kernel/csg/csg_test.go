package csg

import (
	"math"
	"testing"

	"github.com/chazu/hybridcsg/pkg/config"
	"github.com/chazu/hybridcsg/pkg/exact"
	"github.com/chazu/hybridcsg/pkg/kernel"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKernel() *Kernel {
	return New(config.Default())
}

func volumeOf(t *testing.T, k *Kernel, s kernel.Solid) float64 {
	t.Helper()
	m, err := k.ToMesh(s)
	require.NoError(t, err)
	return m.Volume()
}

func exactVolumeOf(s kernel.Solid) float64 {
	return exact.Float(s.(*csgSolid).s.SignedVolume())
}

func TestBox(t *testing.T) {
	k := newKernel()
	s := k.Box(1, 2, 3)
	min, max := s.BoundingBox()
	assert.Equal(t, [3]float64{0, 0, 0}, min)
	assert.Equal(t, [3]float64{1, 2, 3}, max)
	assert.InDelta(t, 6.0, volumeOf(t, k, s), 1e-9)

	m, err := k.ToMesh(s)
	require.NoError(t, err)
	assert.Equal(t, 12, m.TriangleCount())
	assert.Equal(t, 36, m.VertexCount())
}

func TestBadPrimitivesPanic(t *testing.T) {
	k := newKernel()
	assert.Panics(t, func() { k.Box(0, 1, 1) })
	assert.Panics(t, func() { k.Box(1, math.Inf(1), 1) })
	assert.Panics(t, func() { k.Cylinder(-1, 1, 8) })
}

func TestCylinder(t *testing.T) {
	k := newKernel()
	tests := []struct {
		name     string
		segments int
		sides    int
	}{
		{"hexagonal", 6, 6},
		{"default sides", 0, defaultSegments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := k.Cylinder(4, 2, tt.segments)
			n := float64(tt.sides)
			want := 0.5 * n * 4 * math.Sin(2*math.Pi/n) * 4
			assert.InDelta(t, want, exactVolumeOf(s), 1e-12)
			// The render mesh holds float32 coordinates.
			assert.InDelta(t, want, volumeOf(t, k, s), 1e-6*want)

			min, max := s.BoundingBox()
			assert.InDelta(t, -2.0, min[2], 1e-12)
			assert.InDelta(t, 2.0, max[2], 1e-12)
			assert.InDelta(t, 2.0, max[0], 1e-12)

			m, err := k.ToMesh(s)
			require.NoError(t, err)
			// Two caps of n-2 triangles and n side quads.
			assert.Equal(t, 2*(tt.sides-2)+2*tt.sides, m.TriangleCount())
		})
	}
}

func TestPolyhedron(t *testing.T) {
	k := newKernel()
	points := [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	faces := [][]int{{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3}}
	s, err := k.Polyhedron(points, faces)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/6, volumeOf(t, k, s), 1e-12)

	_, err = k.Polyhedron(points, [][]int{{0, 1, 7}})
	assert.Error(t, err)
}

func TestBooleans(t *testing.T) {
	k := newKernel()
	a := k.Box(2, 2, 2)
	b := k.Translate(k.Box(2, 2.5, 2.75), 1, 0.5, 0.25)
	tests := []struct {
		name string
		op   func(a, b kernel.Solid) kernel.Solid
		want float64
	}{
		{"union", k.Union, 19.125},
		{"intersection", k.Intersection, 2.625},
		{"difference", k.Difference, 5.375},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.op(a, b)
			assert.InDelta(t, tt.want, volumeOf(t, k, got), 1e-9)
		})
	}
	// Operands are left untouched.
	assert.InDelta(t, 8.0, volumeOf(t, k, a), 1e-9)
	assert.InDelta(t, 13.75, volumeOf(t, k, b), 1e-9)
	assert.Equal(t, 3, k.Engine().Diagnostics().Count("union")+
		k.Engine().Diagnostics().Count("intersection")+
		k.Engine().Diagnostics().Count("difference"))
}

func TestSharedFaceFallsBackToVolume(t *testing.T) {
	k := newKernel()
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(1, 1, 1), 1, 0, 0)
	// The boxes share four vertices, so corefinement is skipped.
	u := k.Union(a, b)
	assert.InDelta(t, 2.0, volumeOf(t, k, u), 1e-9)
	min, max := u.BoundingBox()
	assert.Equal(t, [3]float64{0, 0, 0}, min)
	assert.Equal(t, [3]float64{2, 1, 1}, max)
}

func TestMinkowski(t *testing.T) {
	k := newKernel()
	a := k.Box(1, 1, 1)
	b := k.Translate(k.Box(2, 2, 2), -1, -1, -1)
	got := k.Minkowski(a, b)
	assert.InDelta(t, 27.0, volumeOf(t, k, got), 1e-9)
	min, max := got.BoundingBox()
	assert.Equal(t, [3]float64{-1, -1, -1}, min)
	assert.Equal(t, [3]float64{2, 2, 2}, max)
}

func TestTransforms(t *testing.T) {
	k := newKernel()
	s := k.Box(1, 2, 3)
	tests := []struct {
		name    string
		got     kernel.Solid
		min     [3]float64
		max     [3]float64
		wantVol float64
	}{
		{"translate", k.Translate(s, 1, -1, 2), [3]float64{1, -1, 2}, [3]float64{2, 1, 5}, 6},
		{"rotate z", k.Rotate(s, 0, 0, 90), [3]float64{-2, 0, 0}, [3]float64{0, 1, 3}, 6},
		{"rotate x", k.Rotate(s, 90, 0, 0), [3]float64{0, -3, 0}, [3]float64{1, 0, 2}, 6},
		{"scale", k.Scale(s, 2, 1, 0.5), [3]float64{0, 0, 0}, [3]float64{2, 2, 1.5}, 6},
		{"mirror", k.Scale(s, -1, 1, 1), [3]float64{-1, 0, 0}, [3]float64{0, 2, 3}, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.got.BoundingBox()
			assert.Equal(t, tt.min, min)
			assert.Equal(t, tt.max, max)
			assert.InDelta(t, tt.wantVol, volumeOf(t, k, tt.got), 1e-9)
		})
	}
	min, max := s.BoundingBox()
	assert.Equal(t, [3]float64{0, 0, 0}, min)
	assert.Equal(t, [3]float64{1, 2, 3}, max)
}

func TestFlatScaleEmpties(t *testing.T) {
	k := newKernel()
	s := k.Scale(k.Box(1, 1, 1), 1, 0, 1)
	m, err := k.ToMesh(s)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestFromSDF(t *testing.T) {
	k := newKernel()
	box, err := sdf.Box3D(v3.Vec{X: 2, Y: 2, Z: 2}, 0)
	require.NoError(t, err)
	s, err := k.FromSDF(box, 20)
	require.NoError(t, err)
	got := volumeOf(t, k, s)
	assert.Greater(t, got, 6.0)
	assert.Less(t, got, 8.5)

	min, max := s.BoundingBox()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, -1.0, min[i], 0.25)
		assert.InDelta(t, 1.0, max[i], 0.25)
	}
}
