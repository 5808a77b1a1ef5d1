package exact

import (
	"fmt"
	"math/big"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vec3 is a point or direction with rational coordinates.
type Vec3 struct {
	X, Y, Z *big.Rat
}

// V builds a Vec3 from finite floats. It panics on NaN or infinity.
func V(x, y, z float64) Vec3 {
	return Vec3{Rat(x), Rat(y), Rat(z)}
}

// VR builds a Vec3 from rationals. The rationals must not be mutated later.
func VR(x, y, z *big.Rat) Vec3 {
	return Vec3{x, y, z}
}

// Zero returns the origin.
func Zero() Vec3 {
	return Vec3{new(big.Rat), new(big.Rat), new(big.Rat)}
}

// FromFloats converts three floats, rejecting non-finite values.
func FromFloats(x, y, z float64) (Vec3, error) {
	rx, err := RatErr(x)
	if err != nil {
		return Vec3{}, err
	}
	ry, err := RatErr(y)
	if err != nil {
		return Vec3{}, err
	}
	rz, err := RatErr(z)
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{rx, ry, rz}, nil
}

// FromVec converts an sdfx vector.
func FromVec(v v3.Vec) (Vec3, error) {
	return FromFloats(v.X, v.Y, v.Z)
}

// Coord returns the i'th coordinate (0=x, 1=y, 2=z).
func (a Vec3) Coord(i int) *big.Rat {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	case 2:
		return a.Z
	}
	panic(fmt.Sprintf("exact: bad axis %d", i))
}

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{add(a.X, b.X), add(a.Y, b.Y), add(a.Z, b.Z)}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{sub(a.X, b.X), sub(a.Y, b.Y), sub(a.Z, b.Z)}
}

func (a Vec3) Scale(k *big.Rat) Vec3 {
	return Vec3{mul(a.X, k), mul(a.Y, k), mul(a.Z, k)}
}

func (a Vec3) Neg() Vec3 {
	return Vec3{neg(a.X), neg(a.Y), neg(a.Z)}
}

func (a Vec3) Dot(b Vec3) *big.Rat {
	r := mul(a.X, b.X)
	r.Add(r, mul(a.Y, b.Y))
	return r.Add(r, mul(a.Z, b.Z))
}

func (a Vec3) Cross(b Vec3) Vec3 {
	return Vec3{
		sub(mul(a.Y, b.Z), mul(a.Z, b.Y)),
		sub(mul(a.Z, b.X), mul(a.X, b.Z)),
		sub(mul(a.X, b.Y), mul(a.Y, b.X)),
	}
}

// Equal reports exact coordinate equality.
func (a Vec3) Equal(b Vec3) bool {
	return a.X.Cmp(b.X) == 0 && a.Y.Cmp(b.Y) == 0 && a.Z.Cmp(b.Z) == 0
}

func (a Vec3) IsZero() bool {
	return a.X.Sign() == 0 && a.Y.Sign() == 0 && a.Z.Sign() == 0
}

// Key returns a canonical string usable as a map key. Equal points have
// equal keys because big.Rat keeps fractions normalized.
func (a Vec3) Key() string {
	return a.X.RatString() + "," + a.Y.RatString() + "," + a.Z.RatString()
}

// Float rounds to the nearest float vector.
func (a Vec3) Float() v3.Vec {
	return v3.Vec{X: Float(a.X), Y: Float(a.Y), Z: Float(a.Z)}
}

func (a Vec3) String() string {
	return fmt.Sprintf("(%s %s %s)", a.X.RatString(), a.Y.RatString(), a.Z.RatString())
}

// Centroid returns the average of the given points.
func Centroid(pts ...Vec3) Vec3 {
	c := Zero()
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Scale(Frac(1, int64(len(pts))))
}

// DominantAxis returns the axis with the largest absolute component.
// Ties prefer the later axis.
func DominantAxis(v Vec3) int {
	best := 2
	for _, i := range []int{1, 0} {
		if new(big.Rat).Abs(v.Coord(i)).Cmp(new(big.Rat).Abs(v.Coord(best))) > 0 {
			best = i
		}
	}
	return best
}
