// Package sqrtpricemath computes the Q64.96 square-root price movement
// produced by adding or removing a delta of token0 or token1 against a
// given amount of liquidity, and the inverse: the token0/token1 amount
// between two prices at a given liquidity. Every entry point mirrors the
// reference contract's rounding direction exactly, since rounding the
// wrong way here is how a swap engine leaks value.
package sqrtpricemath

import (
	"errors"
	"sync"

	"github.com/defistate/uniswapv3-math-engine/fullmath"
	"github.com/defistate/uniswapv3-math-engine/i256"
	"github.com/holiman/uint256"
)

const Resolution = 96

var (
	// Q96 is the UQ64.96 fixed-point representation of 1.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution)
	// MaxU160 is the largest value representable in 160 bits, the width
	// of a Q64.96 price.
	MaxU160 = new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), 160), uint256.NewInt(1))

	ErrLiquidityZero        = errors.New("sqrtpricemath: liquidity must be greater than zero")
	ErrSqrtPriceZero        = errors.New("sqrtpricemath: sqrt price must be greater than zero")
	ErrProductDivAmount     = errors.New("sqrtpricemath: product/amount overflow")
	ErrSqrtPriceLteQuotient = errors.New("sqrtpricemath: sqrt price must exceed quotient")
	ErrSafeCastToU160       = errors.New("sqrtpricemath: result does not fit in uint160")
)

// scratch holds reusable scratch integers, the same pooling shape every
// calculator in this engine uses to stay allocation-free on the hot path.
type scratch struct {
	a, b, c, d *uint256.Int
}

var pool = sync.Pool{
	New: func() any {
		return &scratch{a: new(uint256.Int), b: new(uint256.Int), c: new(uint256.Int), d: new(uint256.Int)}
	},
}

// GetNextSqrtPriceFromInput returns the sqrt price after adding amountIn
// of the input token, zeroForOne selecting which token is being added.
func GetNextSqrtPriceFromInput(sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return nil, ErrLiquidityZero
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput returns the sqrt price after removing
// amountOut of the output token, zeroForOne selecting which token is
// leaving the pool.
func GetNextSqrtPriceFromOutput(sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) (*uint256.Int, error) {
	if sqrtPX96.IsZero() {
		return nil, ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return nil, ErrLiquidityZero
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amountOut, false)
}

// GetNextSqrtPriceFromAmount0RoundingUp returns the sqrt price after
// adding or removing amount of token0 against liquidity, always rounding
// the result up so a swap never credits the trader more than it should.
func GetNextSqrtPriceFromAmount0RoundingUp(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int).Set(sqrtPX96), nil
	}

	s := pool.Get().(*scratch)
	defer pool.Put(s)

	numerator1 := s.a.Lsh(liquidity, Resolution)

	if add {
		product := s.b.Mul(amount, sqrtPX96)
		quotient := s.c.Div(product, amount)
		if quotient.Cmp(sqrtPX96) == 0 {
			denominator := s.d.Add(numerator1, product)
			if denominator.Cmp(numerator1) >= 0 {
				return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
			}
		}
		denom := new(uint256.Int).Div(numerator1, sqrtPX96)
		denom.Add(denom, amount)
		return fullmath.DivRoundingUp(numerator1, denom), nil
	}

	product := s.b.Mul(amount, sqrtPX96)
	quotient := s.c.Div(product, amount)
	if quotient.Cmp(sqrtPX96) != 0 || numerator1.Cmp(product) <= 0 {
		return nil, ErrProductDivAmount
	}
	denominator := new(uint256.Int).Sub(numerator1, product)
	return fullmath.MulDivRoundingUp(numerator1, sqrtPX96, denominator)
}

// GetNextSqrtPriceFromAmount1RoundingDown returns the sqrt price after
// adding or removing amount of token1 against liquidity, always rounding
// the result down.
func GetNextSqrtPriceFromAmount1RoundingDown(sqrtPX96, liquidity, amount *uint256.Int, add bool) (*uint256.Int, error) {
	if add {
		var quotient *uint256.Int
		if amount.Cmp(MaxU160) <= 0 {
			shifted := new(uint256.Int).Lsh(amount, Resolution)
			quotient = new(uint256.Int).Div(shifted, liquidity)
		} else {
			var err error
			quotient, err = fullmath.MulDiv(amount, Q96, liquidity)
			if err != nil {
				return nil, err
			}
		}
		next := new(uint256.Int).Add(sqrtPX96, quotient)
		if next.Cmp(MaxU160) > 0 {
			return nil, ErrSafeCastToU160
		}
		return next, nil
	}

	var quotient *uint256.Int
	if amount.Cmp(MaxU160) <= 0 {
		shifted := new(uint256.Int).Lsh(amount, Resolution)
		quotient = fullmath.DivRoundingUp(shifted, liquidity)
	} else {
		var err error
		quotient, err = fullmath.MulDivRoundingUp(amount, Q96, liquidity)
		if err != nil {
			return nil, err
		}
	}
	if sqrtPX96.Cmp(quotient) <= 0 {
		return nil, ErrSqrtPriceLteQuotient
	}
	return new(uint256.Int).Sub(sqrtPX96, quotient), nil
}

// GetAmount0Delta returns the amount of token0 required to move the
// price from sqrtRatioAX96 to sqrtRatioBX96 at the given (unsigned)
// liquidity, in either direction.
func GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lo, hi := sqrtRatioAX96, sqrtRatioBX96
	if lo.Cmp(hi) > 0 {
		lo, hi = hi, lo
	}
	if lo.IsZero() {
		return nil, ErrSqrtPriceZero
	}

	numerator1 := new(uint256.Int).Lsh(liquidity, Resolution)
	numerator2 := new(uint256.Int).Sub(hi, lo)

	if roundUp {
		partial, err := fullmath.MulDivRoundingUp(numerator1, numerator2, hi)
		if err != nil {
			return nil, err
		}
		return fullmath.DivRoundingUp(partial, lo), nil
	}
	partial, err := fullmath.MulDiv(numerator1, numerator2, hi)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).Div(partial, lo), nil
}

// GetAmount1Delta returns the amount of token1 required to move the
// price from sqrtRatioAX96 to sqrtRatioBX96 at the given (unsigned)
// liquidity, in either direction.
func GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) (*uint256.Int, error) {
	lo, hi := sqrtRatioAX96, sqrtRatioBX96
	if lo.Cmp(hi) > 0 {
		lo, hi = hi, lo
	}
	diff := new(uint256.Int).Sub(hi, lo)

	if roundUp {
		return fullmath.MulDivRoundingUp(liquidity, diff, Q96)
	}
	return fullmath.MulDiv(liquidity, diff, Q96)
}

// Amount0DeltaSigned returns the signed amount0 delta for a signed
// liquidity change: positive liquidity rounds up (the pool is owed
// token0), negative liquidity rounds down and the result is negated (the
// pool owes token0 back). liquidity's bit pattern is interpreted as
// two's complement.
func Amount0DeltaSigned(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	if i256.IsNeg(liquidity) {
		mag := i256.Abs(liquidity)
		delta, err := GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, mag, false)
		if err != nil {
			return nil, err
		}
		return i256.Neg(delta), nil
	}
	return GetAmount0Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
}

// Amount1DeltaSigned returns the signed amount1 delta for a signed
// liquidity change, with the same sign convention as Amount0DeltaSigned.
func Amount1DeltaSigned(sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) (*uint256.Int, error) {
	if i256.IsNeg(liquidity) {
		mag := i256.Abs(liquidity)
		delta, err := GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, mag, false)
		if err != nil {
			return nil, err
		}
		return i256.Neg(delta), nil
	}
	return GetAmount1Delta(sqrtRatioAX96, sqrtRatioBX96, liquidity, true)
}
