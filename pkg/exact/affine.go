package exact

import (
	"fmt"
	"math"
	"math/big"
)

// Affine is a 3x4 affine map: the left 3x3 block is the linear part and
// the last column the translation.
type Affine struct {
	m [3][4]*big.Rat
}

// Identity returns the identity map.
func Identity() Affine {
	var a Affine
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				a.m[i][j] = Int(1)
			} else {
				a.m[i][j] = new(big.Rat)
			}
		}
	}
	return a
}

// NewAffine builds a map from rational rows.
func NewAffine(rows [3][4]*big.Rat) Affine {
	return Affine{m: rows}
}

// AffineFromRows builds a map from float rows, rejecting non-finite values.
func AffineFromRows(rows [3][4]float64) (Affine, error) {
	var a Affine
	for i := range rows {
		for j := range rows[i] {
			r, err := RatErr(rows[i][j])
			if err != nil {
				return Affine{}, fmt.Errorf("exact: affine[%d][%d]: %w", i, j, err)
			}
			a.m[i][j] = r
		}
	}
	return a, nil
}

// Translation returns the map p -> p+v.
func Translation(v Vec3) Affine {
	a := Identity()
	a.m[0][3], a.m[1][3], a.m[2][3] = v.X, v.Y, v.Z
	return a
}

// Scaling returns the axis-aligned scale by v.
func Scaling(v Vec3) Affine {
	a := Identity()
	a.m[0][0], a.m[1][1], a.m[2][2] = v.X, v.Y, v.Z
	return a
}

// RotationDegrees rotates around X, then Y, then Z by the given Euler
// angles. Multiples of 90 degrees are exact.
func RotationDegrees(x, y, z float64) Affine {
	rot := func(deg float64, axis int) Affine {
		s, c := sinCosDegrees(deg)
		a := Identity()
		i, j := (axis+1)%3, (axis+2)%3
		a.m[i][i], a.m[i][j] = c, neg(s)
		a.m[j][i], a.m[j][j] = s, c
		return a
	}
	return rot(z, 2).Mul(rot(y, 1)).Mul(rot(x, 0))
}

func sinCosDegrees(deg float64) (s, c *big.Rat) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return Int(0), Int(1)
	case 90:
		return Int(1), Int(0)
	case 180:
		return Int(0), Int(-1)
	case 270:
		return Int(-1), Int(0)
	}
	r := d * math.Pi / 180
	return Rat(math.Sin(r)), Rat(math.Cos(r))
}

// At returns entry (i, j).
func (a Affine) At(i, j int) *big.Rat {
	return a.m[i][j]
}

// Mul returns a∘b: b is applied first.
func (a Affine) Mul(b Affine) Affine {
	var out Affine
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			r := new(big.Rat)
			for k := 0; k < 3; k++ {
				r.Add(r, mul(a.m[i][k], b.m[k][j]))
			}
			if j == 3 {
				r.Add(r, a.m[i][3])
			}
			out.m[i][j] = r
		}
	}
	return out
}

// Determinant returns the determinant of the linear part.
func (a Affine) Determinant() *big.Rat {
	m := a.m
	r := mul(m[0][0], sub(mul(m[1][1], m[2][2]), mul(m[1][2], m[2][1])))
	r.Sub(r, mul(m[0][1], sub(mul(m[1][0], m[2][2]), mul(m[1][2], m[2][0]))))
	return r.Add(r, mul(m[0][2], sub(mul(m[1][0], m[2][1]), mul(m[1][1], m[2][0]))))
}

// Apply maps a point.
func (a Affine) Apply(p Vec3) Vec3 {
	row := func(i int) *big.Rat {
		r := mul(a.m[i][0], p.X)
		r.Add(r, mul(a.m[i][1], p.Y))
		r.Add(r, mul(a.m[i][2], p.Z))
		return r.Add(r, a.m[i][3])
	}
	return Vec3{row(0), row(1), row(2)}
}
