package bvh

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boxLeaf struct {
	id  int
	box sdf.Box3
}

func (b boxLeaf) BoundingBox() sdf.Box3 { return b.box }

func randomBox(r *rand.Rand) sdf.Box3 {
	x, y, z := r.Float64()*100, r.Float64()*100, r.Float64()*100
	return sdf.Box3{
		Min: v3.Vec{X: x, Y: y, Z: z},
		Max: v3.Vec{X: x + r.Float64()*15, Y: y + r.Float64()*15, Z: z + r.Float64()*15},
	}
}

func ids(leaves []boxLeaf) []int {
	out := make([]int, len(leaves))
	for i, l := range leaves {
		out[i] = l.id
	}
	return out
}

func TestQueryMatchesBruteForce(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for n := 0; n <= 50; n++ {
		leaves := make([]boxLeaf, n)
		for i := range leaves {
			leaves[i] = boxLeaf{id: i, box: randomBox(r)}
		}
		tree := New(leaves)
		for q := 0; q < 40; q++ {
			query := randomBox(r)
			var want []int
			for _, l := range leaves {
				if Overlaps(l.box, query) {
					want = append(want, l.id)
				}
			}
			got := ids(tree.Intersecting(query))
			require.ElementsMatch(t, want, got, "n=%d query=%v", n, query)
		}
	}
}

func TestNodeCount(t *testing.T) {
	tests := []struct {
		leaves int
		want   int
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 3}, {17, 16}, {1000, 999},
	}
	r := rand.New(rand.NewSource(1))
	for _, tt := range tests {
		leaves := make([]boxLeaf, tt.leaves)
		for i := range leaves {
			leaves[i] = boxLeaf{id: i, box: randomBox(r)}
		}
		tree := New(leaves)
		assert.Equal(t, tt.want, tree.NumNodes(), "leaves=%d", tt.leaves)
		assert.Equal(t, tt.leaves, tree.Len())
	}
}

func TestSingleLeafTestsOwnBox(t *testing.T) {
	leaf := boxLeaf{id: 1, box: sdf.Box3{Max: v3.Vec{X: 1, Y: 1, Z: 1}}}
	tree := New([]boxLeaf{leaf})
	assert.Len(t, tree.Intersecting(sdf.Box3{Min: v3.Vec{X: 0.5}, Max: v3.Vec{X: 2, Y: 2, Z: 2}}), 1)
	assert.Empty(t, tree.Intersecting(sdf.Box3{Min: v3.Vec{X: 3, Y: 3, Z: 3}, Max: v3.Vec{X: 4, Y: 4, Z: 4}}))
}

func TestQueryWithCustomPredicate(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	leaves := make([]boxLeaf, 30)
	for i := range leaves {
		leaves[i] = boxLeaf{id: i, box: randomBox(r)}
	}
	tree := New(leaves)
	// All leaves whose box reaches past x=50.
	got := Query(tree, 50.0, func(b sdf.Box3, x float64) bool { return b.Max.X >= x })
	var want []int
	for _, l := range leaves {
		if l.box.Max.X >= 50 {
			want = append(want, l.id)
		}
	}
	assert.ElementsMatch(t, want, ids(got))
}

func TestParallelDepth(t *testing.T) {
	tests := []struct{ procs, want int }{
		{0, 0}, {1, 0}, {2, 1}, {3, 1}, {4, 2}, {8, 3}, {12, 3}, {64, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parallelDepth(tt.procs), "procs=%d", tt.procs)
	}
}

func TestConcurrentBuildsAndQueries(t *testing.T) {
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			leaves := make([]boxLeaf, 500)
			for i := range leaves {
				leaves[i] = boxLeaf{id: i, box: randomBox(r)}
			}
			tree := New(leaves)
			all := tree.Intersecting(sdf.Box3{Max: v3.Vec{X: 200, Y: 200, Z: 200}})
			assert.Len(t, all, 500)
		}(int64(w))
	}
	wg.Wait()
}
