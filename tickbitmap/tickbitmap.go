// Package tickbitmap locates the next initialized tick within a single
// 256-bit word of the tick bitmap, searching left (towards lower ticks)
// or right (towards higher ticks) of a given tick. It holds no state of
// its own — the caller supplies the relevant word, which package
// swapdriver fetches through a Provider.
package tickbitmap

import (
	"errors"

	"github.com/defistate/uniswapv3-math-engine/bitmath"
	"github.com/holiman/uint256"
)

// ErrBitPositionInvalid is returned if bitPos exceeds the 255 bits of a
// word, which can only happen from a caller-constructed bad input.
var ErrBitPositionInvalid = errors.New("tickbitmap: bit position out of range")

var one = uint256.NewInt(1)

// Position splits a tick-spacing-compressed tick into a word index and a
// bit position within that word: wordPos = compressed >> 8, bitPos =
// compressed mod 256. Both operations truncate the same way the
// reference contract's int16/uint8 casts do.
func Position(compressed int32) (int16, uint8) {
	wordPos := int16(compressed >> 8)
	bitPos := uint8(uint32(compressed) & 0xFF)
	return wordPos, bitPos
}

// NextInitializedTickWithinOneWord returns the next initialized tick
// contained in word, starting from bit bitPos. lte selects the search
// direction: true searches at-or-below compressed (towards negative
// infinity), with bitPos the bit position of compressed itself; false
// searches strictly above compressed, with bitPos the bit position of
// compressed+1, the first tick above it. If no initialized
// tick exists in the word, it returns the boundary tick of the word
// (still scaled by spacing) and initialized=false, so the caller knows
// to fetch the neighboring word.
func NextInitializedTickWithinOneWord(word *uint256.Int, compressed int32, bitPos uint8, spacing int32, lte bool) (int32, bool, error) {
	if lte {
		mask := new(uint256.Int).Sub(new(uint256.Int).Lsh(one, uint(bitPos)), one)
		mask.Add(mask, new(uint256.Int).Lsh(one, uint(bitPos)))

		masked := new(uint256.Int).And(word, mask)
		initialized := !masked.IsZero()

		if initialized {
			msb, err := bitmath.MostSignificantBit(masked)
			if err != nil {
				return 0, false, err
			}
			shift := int32(bitPos - msb)
			return (compressed - shift) * spacing, true, nil
		}
		return (compressed - int32(bitPos)) * spacing, false, nil
	}

	notMask := new(uint256.Int).Sub(new(uint256.Int).Lsh(one, uint(bitPos)), one)
	mask := new(uint256.Int).Not(notMask)

	masked := new(uint256.Int).And(word, mask)
	initialized := !masked.IsZero()

	if initialized {
		lsb, err := bitmath.LeastSignificantBit(masked)
		if err != nil {
			return 0, false, err
		}
		shift := int32(lsb - bitPos)
		return (compressed + 1 + shift) * spacing, true, nil
	}
	return (compressed + 1 + int32(0xFF-bitPos)) * spacing, false, nil
}
