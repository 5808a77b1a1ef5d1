package volume

import (
	"github.com/chazu/hybridcsg/pkg/exact"
	"golang.org/x/sync/errgroup"
)

// Minkowski returns the Minkowski sum of a and b: the union, over every
// pair of convex parts, of the hull of their pairwise vertex sums.
// Computing the parts caches them on non-convex operands.
func Minkowski(a, b *Volume) *Volume {
	if a.IsEmpty() || b.IsEmpty() {
		return New()
	}
	var hulls []*Volume
	for _, pa := range a.ConvexParts() {
		va := pa.Vertices()
		for _, pb := range b.ConvexParts() {
			vb := pb.Vertices()
			sums := make([]exact.Vec3, 0, len(va)*len(vb))
			for _, p := range va {
				for _, q := range vb {
					sums = append(sums, p.Add(q))
				}
			}
			if h := Hull(sums); !h.IsEmpty() {
				hulls = append(hulls, h)
			}
		}
	}
	return UnionAll(hulls)
}

// UnionAll returns the union of vs, merging pairs concurrently.
func UnionAll(vs []*Volume) *Volume {
	if len(vs) == 0 {
		return New()
	}
	for len(vs) > 1 {
		next := make([]*Volume, (len(vs)+1)/2)
		var g errgroup.Group
		for i := range next {
			if 2*i+1 == len(vs) {
				next[i] = vs[2*i]
				continue
			}
			g.Go(func() error {
				next[i] = Union(vs[2*i], vs[2*i+1])
				return nil
			})
		}
		_ = g.Wait()
		vs = next
	}
	return vs[0]
}
