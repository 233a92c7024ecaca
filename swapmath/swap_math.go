// Package swapmath computes a single swap step: how far price moves
// within one tick range, and the resulting input/output/fee amounts. A
// full swap (package swapdriver) is a loop over these steps, one per
// initialized-tick crossing.
package swapmath

import (
	"github.com/defistate/uniswapv3-math-engine/fullmath"
	"github.com/defistate/uniswapv3-math-engine/i256"
	"github.com/defistate/uniswapv3-math-engine/sqrtpricemath"
	"github.com/holiman/uint256"
)

// feeDenominator is the denominator fee pips are expressed over: 1e6 ppm
// equals 100%.
var feeDenominator = uint256.NewInt(1_000_000)

// Step is the result of one swap step: the price the step landed on, and
// the input/output/fee amounts consumed getting there.
type Step struct {
	SqrtRatioNextX96 *uint256.Int
	AmountIn         *uint256.Int
	AmountOut        *uint256.Int
	FeeAmount        *uint256.Int
}

// ComputeSwapStep computes the amounts exchanged within a single tick
// range, stopping at sqrtRatioTargetX96 if the full amountRemaining isn't
// consumed first. amountRemaining's bit pattern is two's complement:
// non-negative means exact-input, negative means exact-output (the
// magnitude of the desired output). feePips is the pool fee in
// hundredths of a basis point (e.g. 3000 == 0.3%).
func ComputeSwapStep(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining, feePips *uint256.Int) (*Step, error) {
	zeroForOne := sqrtRatioCurrentX96.Cmp(sqrtRatioTargetX96) >= 0
	exactIn := !i256.IsNeg(amountRemaining)

	result := &Step{
		AmountIn:  new(uint256.Int),
		AmountOut: new(uint256.Int),
		FeeAmount: new(uint256.Int),
	}

	var amountIn, amountOut *uint256.Int
	var err error

	if exactIn {
		feeComplement := new(uint256.Int).Sub(feeDenominator, feePips)
		amountRemainingLessFee, err := fullmath.MulDiv(amountRemaining, feeComplement, feeDenominator)
		if err != nil {
			return nil, err
		}

		if zeroForOne {
			amountIn, err = sqrtpricemath.GetAmount0Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true)
		} else {
			amountIn, err = sqrtpricemath.GetAmount1Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true)
		}
		if err != nil {
			return nil, err
		}

		var sqrtRatioNextX96 *uint256.Int
		if amountRemainingLessFee.Cmp(amountIn) >= 0 {
			sqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			sqrtRatioNextX96, err = sqrtpricemath.GetNextSqrtPriceFromInput(sqrtRatioCurrentX96, liquidity, amountRemainingLessFee, zeroForOne)
			if err != nil {
				return nil, err
			}
		}
		result.SqrtRatioNextX96 = sqrtRatioNextX96
	} else {
		amountRemainingAbs := i256.Abs(amountRemaining)

		if zeroForOne {
			amountOut, err = sqrtpricemath.GetAmount1Delta(sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false)
		} else {
			amountOut, err = sqrtpricemath.GetAmount0Delta(sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false)
		}
		if err != nil {
			return nil, err
		}

		var sqrtRatioNextX96 *uint256.Int
		if amountRemainingAbs.Cmp(amountOut) >= 0 {
			sqrtRatioNextX96 = new(uint256.Int).Set(sqrtRatioTargetX96)
		} else {
			sqrtRatioNextX96, err = sqrtpricemath.GetNextSqrtPriceFromOutput(sqrtRatioCurrentX96, liquidity, amountRemainingAbs, zeroForOne)
			if err != nil {
				return nil, err
			}
		}
		result.SqrtRatioNextX96 = sqrtRatioNextX96
	}

	max := sqrtRatioTargetX96.Cmp(result.SqrtRatioNextX96) == 0

	if zeroForOne {
		if !(max && exactIn) {
			amountIn, err = sqrtpricemath.GetAmount0Delta(result.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true)
			if err != nil {
				return nil, err
			}
		}
		if !(max && !exactIn) {
			amountOut, err = sqrtpricemath.GetAmount1Delta(result.SqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false)
			if err != nil {
				return nil, err
			}
		}
	} else {
		if !(max && exactIn) {
			amountIn, err = sqrtpricemath.GetAmount1Delta(sqrtRatioCurrentX96, result.SqrtRatioNextX96, liquidity, true)
			if err != nil {
				return nil, err
			}
		}
		if !(max && !exactIn) {
			amountOut, err = sqrtpricemath.GetAmount0Delta(sqrtRatioCurrentX96, result.SqrtRatioNextX96, liquidity, false)
			if err != nil {
				return nil, err
			}
		}
	}

	if amountIn != nil {
		result.AmountIn = amountIn
	}
	if amountOut != nil {
		result.AmountOut = amountOut
	}

	if !exactIn {
		amountRemainingAbs := i256.Abs(amountRemaining)
		if result.AmountOut.Cmp(amountRemainingAbs) > 0 {
			result.AmountOut = amountRemainingAbs
		}
	}

	if exactIn && result.SqrtRatioNextX96.Cmp(sqrtRatioTargetX96) != 0 {
		result.FeeAmount = new(uint256.Int).Sub(amountRemaining, result.AmountIn)
	} else {
		feeComplement := new(uint256.Int).Sub(feeDenominator, feePips)
		feeAmount, err := fullmath.MulDivRoundingUp(result.AmountIn, feePips, feeComplement)
		if err != nil {
			return nil, err
		}
		result.FeeAmount = feeAmount
	}

	return result, nil
}
