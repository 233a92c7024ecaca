// Package fullmath implements the checked 256-bit fixed-point primitives
// every other package in this engine is built on: muldiv with a full
// 512-bit intermediate product and directional rounding, and unsigned
// division rounding up. These must be bit-exact with the reference
// contract's 512-bit muldiv; rounding direction is never a coin flip.
package fullmath

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when the exact quotient of a muldiv exceeds
	// the range of a 256-bit unsigned integer.
	ErrOverflow = errors.New("fullmath: result overflows uint256")
	// ErrDivByZero is returned when the divisor of a muldiv is zero.
	ErrDivByZero = errors.New("fullmath: division by zero")

	one = uint256.NewInt(1)

	maxUint256 = new(uint256.Int).Not(new(uint256.Int))
)

// MulDiv returns floor(a*b/d) computed over a 512-bit intermediate
// product, failing with ErrOverflow if the exact quotient does not fit in
// 256 bits or ErrDivByZero if d is zero.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// MulDivRoundingUp returns ceil(a*b/d) with the same failure modes as
// MulDiv.
func MulDivRoundingUp(a, b, d *uint256.Int) (*uint256.Int, error) {
	z, err := MulDiv(a, b, d)
	if err != nil {
		return nil, err
	}
	rem := new(uint256.Int).MulMod(a, b, d)
	if !rem.IsZero() {
		if z.Cmp(maxUint256) == 0 {
			return nil, ErrOverflow
		}
		z.Add(z, one)
	}
	return z, nil
}

// DivRoundingUp returns ceil(a/b). It panics if b is zero, matching the
// reference implementation's unchecked division.
func DivRoundingUp(a, b *uint256.Int) *uint256.Int {
	if b.IsZero() {
		panic("fullmath: division by zero")
	}
	q := new(uint256.Int).Div(a, b)
	r := new(uint256.Int).Mod(a, b)
	if !r.IsZero() {
		q.Add(q, one)
	}
	return q
}
