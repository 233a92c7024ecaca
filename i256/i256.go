// Package i256 provides the two's-complement reinterpretation helpers the
// engine needs for its handful of signed 256-bit quantities (the swap's
// signed amount-remaining/amount-calculated accumulators, per-tick signed
// liquidity net, and the tick<->price fixed-point log2 ladder).
//
// There is no separate signed 256-bit integer type here: a signed value is
// simply a *uint256.Int whose bit pattern is interpreted as two's
// complement, exactly as spec'd. uint256.Int's Add/Sub/Mul/Rsh/Lsh already
// wrap modulo 2^256, which is precisely what two's-complement arithmetic
// does too, so no extra bookkeeping is required for anything but sign
// inspection, negation, and arithmetic (sign-extending) right shift.
package i256

import "github.com/holiman/uint256"

// IsNeg reports whether x's bit pattern represents a negative two's
// complement value, i.e. whether its top bit (255) is set.
func IsNeg(x *uint256.Int) bool {
	return x.Bit(255) == 1
}

// Neg returns the two's-complement negation of x (0 - x), which wraps
// exactly the way signed negation does.
func Neg(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(new(uint256.Int), x)
}

// Abs returns the unsigned magnitude of x's two's-complement value.
func Abs(x *uint256.Int) *uint256.Int {
	if IsNeg(x) {
		return Neg(x)
	}
	return new(uint256.Int).Set(x)
}

// Sign returns -1, 0, or 1 according to the sign of x's two's-complement
// value.
func Sign(x *uint256.Int) int {
	if x.IsZero() {
		return 0
	}
	if IsNeg(x) {
		return -1
	}
	return 1
}

// FromInt64 builds the two's-complement bit pattern for a native signed
// 64-bit value.
func FromInt64(v int64) *uint256.Int {
	if v >= 0 {
		return uint256.NewInt(uint64(v))
	}
	return Neg(uint256.NewInt(uint64(-v)))
}

// allOnes returns the all-ones (== -1) 256-bit pattern.
func allOnes() *uint256.Int {
	return new(uint256.Int).Not(new(uint256.Int))
}

// SRsh performs an arithmetic (sign-extending) right shift of x by n bits,
// treating x's bit pattern as two's complement. uint256.Int.Rsh is a
// logical shift, which is wrong for negative values; this fills the
// vacated high bits with the sign bit instead of zero.
func SRsh(x *uint256.Int, n uint) *uint256.Int {
	if n == 0 {
		return new(uint256.Int).Set(x)
	}
	if n >= 256 {
		if IsNeg(x) {
			return allOnes()
		}
		return new(uint256.Int)
	}
	res := new(uint256.Int).Rsh(x, n)
	if IsNeg(x) {
		mask := new(uint256.Int).Lsh(allOnes(), 256-n)
		res.Or(res, mask)
	}
	return res
}

// ToInt32 reinterprets the low 32 bits of x's two's-complement bit pattern
// as a native signed int32, matching the reference implementation's
// truncating `low_i32()` conversion.
func ToInt32(x *uint256.Int) int32 {
	lo := uint32(x.Uint64())
	return int32(lo)
}
