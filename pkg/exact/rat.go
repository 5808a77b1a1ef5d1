// Package exact provides rational coordinates and the exact geometric
// predicates every other part of the kernel is built on. All values are
// immutable once constructed: operations allocate their results and never
// write through a shared *big.Rat.
package exact

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// ErrNonFinite is returned when a NaN or infinite float is converted.
var ErrNonFinite = errors.New("exact: non-finite coordinate")

// Rat converts a finite float64 to a rational without rounding.
// It panics on NaN or infinity; use RatErr when the input is untrusted.
func Rat(f float64) *big.Rat {
	r, err := RatErr(f)
	if err != nil {
		panic(err)
	}
	return r
}

// RatErr converts a float64 to a rational, rejecting non-finite values.
func RatErr(f float64) (*big.Rat, error) {
	r := new(big.Rat).SetFloat64(f)
	if r == nil {
		return nil, fmt.Errorf("%w: %v", ErrNonFinite, f)
	}
	return r, nil
}

// Int returns n as a rational.
func Int(n int64) *big.Rat {
	return new(big.Rat).SetInt64(n)
}

// Frac returns a/b as a rational.
func Frac(a, b int64) *big.Rat {
	return big.NewRat(a, b)
}

func add(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
func sub(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func mul(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }
func quo(a, b *big.Rat) *big.Rat { return new(big.Rat).Quo(a, b) }
func neg(a *big.Rat) *big.Rat    { return new(big.Rat).Neg(a) }

// Min returns the smaller of a and b.
func Min(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b *big.Rat) *big.Rat {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// FloatDown returns the largest float64 not greater than r.
func FloatDown(r *big.Rat) float64 {
	f, exact := r.Float64()
	if exact || math.IsInf(f, 0) {
		return f
	}
	if new(big.Rat).SetFloat64(f).Cmp(r) > 0 {
		return math.Nextafter(f, math.Inf(-1))
	}
	return f
}

// FloatUp returns the smallest float64 not less than r.
func FloatUp(r *big.Rat) float64 {
	f, exact := r.Float64()
	if exact || math.IsInf(f, 0) {
		return f
	}
	if new(big.Rat).SetFloat64(f).Cmp(r) < 0 {
		return math.Nextafter(f, math.Inf(1))
	}
	return f
}

// Float returns the nearest float64 to r.
func Float(r *big.Rat) float64 {
	f, _ := r.Float64()
	return f
}
