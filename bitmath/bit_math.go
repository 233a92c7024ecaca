// Package bitmath finds the most- and least-significant set bit of a
// non-zero 256-bit integer. Both are total on the non-zero domain and
// fail identically on zero, mirroring the Solidity BitMath library this
// engine's tick bitmap traversal depends on.
package bitmath

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

// ErrZeroValue is returned when MostSignificantBit or LeastSignificantBit
// is called with zero, which has no set bits.
var ErrZeroValue = errors.New("bitmath: most/least significant bit of zero")

// MostSignificantBit returns floor(log2(x)), the index of the highest set
// bit, where the least significant bit is at index 0. It uses the same
// successive-halving binary search as the reference contract rather than
// a single BitLen call, so the traversal matches bit-for-bit.
func MostSignificantBit(x *uint256.Int) (uint8, error) {
	if x.IsZero() {
		return 0, ErrZeroValue
	}

	var r uint8
	v := new(uint256.Int).Set(x)

	if v.Cmp(threshold128) >= 0 {
		v.Rsh(v, 128)
		r += 128
	}
	if v.Cmp(threshold64) >= 0 {
		v.Rsh(v, 64)
		r += 64
	}
	if v.Cmp(threshold32) >= 0 {
		v.Rsh(v, 32)
		r += 32
	}
	if v.Cmp(threshold16) >= 0 {
		v.Rsh(v, 16)
		r += 16
	}
	if v.Cmp(threshold8) >= 0 {
		v.Rsh(v, 8)
		r += 8
	}
	if v.Cmp(threshold4) >= 0 {
		v.Rsh(v, 4)
		r += 4
	}
	if v.Cmp(threshold2) >= 0 {
		v.Rsh(v, 2)
		r += 2
	}
	if v.Cmp(threshold1) >= 0 {
		r += 1
	}
	return r, nil
}

// LeastSignificantBit returns the index of the lowest set bit of x.
func LeastSignificantBit(x *uint256.Int) (uint8, error) {
	if x.IsZero() {
		return 0, ErrZeroValue
	}
	for i := 0; i < 4; i++ {
		if x[i] != 0 {
			return uint8(i*64 + bits.TrailingZeros64(x[i])), nil
		}
	}
	// Unreachable: x is already known non-zero.
	return 0, ErrZeroValue
}

var (
	threshold128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	threshold64  = new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	threshold32  = new(uint256.Int).Lsh(uint256.NewInt(1), 32)
	threshold16  = new(uint256.Int).Lsh(uint256.NewInt(1), 16)
	threshold8   = new(uint256.Int).Lsh(uint256.NewInt(1), 8)
	threshold4   = new(uint256.Int).Lsh(uint256.NewInt(1), 4)
	threshold2   = new(uint256.Int).Lsh(uint256.NewInt(1), 2)
	threshold1   = new(uint256.Int).Lsh(uint256.NewInt(1), 1)
)
