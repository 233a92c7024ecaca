// Package liquiditymath applies a signed liquidity delta (added or
// removed by a position crossing a tick) to an unsigned running
// liquidity total, rejecting deltas that would push it out of uint128
// range.
package liquiditymath

import (
	"errors"

	"github.com/defistate/uniswapv3-math-engine/i256"
	"github.com/holiman/uint256"
)

var (
	// MaxUint128 is the maximum value a liquidity total may take.
	MaxUint128 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 128), uint256.NewInt(1))

	ErrLiquidityOverflow  = errors.New("liquiditymath: liquidity overflow")
	ErrLiquidityUnderflow = errors.New("liquiditymath: liquidity underflow")
)

// AddDelta adds a signed liquidity delta y (two's-complement bit
// pattern) to an unsigned liquidity total x, failing if the result
// would be negative or exceed MaxUint128.
func AddDelta(x, y *uint256.Int) (*uint256.Int, error) {
	var result *uint256.Int
	if i256.IsNeg(y) {
		mag := i256.Abs(y)
		if mag.Cmp(x) > 0 {
			return nil, ErrLiquidityUnderflow
		}
		result = new(uint256.Int).Sub(x, mag)
	} else {
		result = new(uint256.Int).Add(x, y)
		if result.Cmp(x) < 0 {
			return nil, ErrLiquidityOverflow
		}
	}

	if result.Cmp(MaxUint128) > 0 {
		return nil, ErrLiquidityOverflow
	}

	return result, nil
}
