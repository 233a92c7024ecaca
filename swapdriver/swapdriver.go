// Package swapdriver composes the tick bitmap, tick math, and swap math
// layers into a full swap simulation: starting from a pool's current
// state, it walks initialized ticks one at a time until the requested
// amount is filled or the price hits its hard limit, fetching bitmap
// words and per-tick liquidity deltas from an injected Provider.
package swapdriver

import (
	"context"
	"fmt"

	"github.com/defistate/uniswapv3-math-engine/i256"
	"github.com/defistate/uniswapv3-math-engine/liquiditymath"
	"github.com/defistate/uniswapv3-math-engine/swapmath"
	"github.com/defistate/uniswapv3-math-engine/tickbitmap"
	"github.com/defistate/uniswapv3-math-engine/tickmath"
	"github.com/holiman/uint256"
)

// Provider is the read-only collaborator the driver pulls chain state
// from. It owns no mutable state of its own; the driver never calls it
// concurrently, so implementations need not be goroutine-safe beyond
// whatever the caller's own backing store requires.
type Provider interface {
	// GetWordAtPosition returns the 256-bit tick bitmap word at wordPos.
	GetWordAtPosition(ctx context.Context, wordPos int16) (*uint256.Int, error)
	// GetLiquidityNetAtTick returns the signed (two's-complement)
	// liquidity-net value stored at tick.
	GetLiquidityNetAtTick(ctx context.Context, tick int32) (*uint256.Int, error)
}

// Pool is the subset of on-chain pool state a swap simulation needs.
type Pool struct {
	SqrtPriceX96 *uint256.Int
	Liquidity    *uint256.Int
	Tick         int32
	FeePips      *uint256.Int
	TickSpacing  int32
}

// currentState is the driver's transient mutable record for a single
// SimulateSwap call; it is discarded when the call returns.
type currentState struct {
	sqrtPriceX96     *uint256.Int
	amountCalculated *uint256.Int // signed, two's complement
	amountRemaining  *uint256.Int // signed, two's complement
	tick             int32
	liquidity        *uint256.Int
	wordPos          int16
}

// SimulateSwap simulates a swap against pool starting at its current
// state, returning the unsigned amount of the opposite token produced
// (exactInput) or required (!exactInput). zeroForOne selects the swap
// direction: true moves price down by supplying token0 for token1.
//
// The driver clamps to MIN_SQRT_RATIO+1 / MAX_SQRT_RATIO-1 internally;
// it does not accept a caller-supplied price limit.
func SimulateSwap(ctx context.Context, provider Provider, pool Pool, zeroForOne bool, amount *uint256.Int, exactInput bool) (*uint256.Int, error) {
	if amount.IsZero() {
		return new(uint256.Int), nil
	}

	limit := new(uint256.Int)
	if zeroForOne {
		limit.Add(tickmath.MinSqrtRatio, uint256.NewInt(1))
	} else {
		limit.Sub(tickmath.MaxSqrtRatio, uint256.NewInt(1))
	}

	var amountRemaining *uint256.Int
	if exactInput {
		amountRemaining = new(uint256.Int).Set(amount)
	} else {
		amountRemaining = i256.Neg(amount)
	}

	compressed0 := tickmath.Compressed(pool.Tick, pool.TickSpacing)
	wordPos0, _ := bitmapPosition(compressed0, zeroForOne)
	word, err := provider.GetWordAtPosition(ctx, wordPos0)
	if err != nil {
		return nil, fmt.Errorf("swapdriver: fetch initial bitmap word: %w", err)
	}

	state := &currentState{
		sqrtPriceX96:     new(uint256.Int).Set(pool.SqrtPriceX96),
		amountCalculated: new(uint256.Int),
		amountRemaining:  amountRemaining,
		tick:             pool.Tick,
		liquidity:        new(uint256.Int).Set(pool.Liquidity),
		wordPos:          wordPos0,
	}

	for !state.amountRemaining.IsZero() && state.sqrtPriceX96.Cmp(limit) != 0 {
		stepStartPrice := new(uint256.Int).Set(state.sqrtPriceX96)

		compressed := tickmath.Compressed(state.tick, pool.TickSpacing)
		wordPos, bitPos := bitmapPosition(compressed, zeroForOne)
		if wordPos != state.wordPos {
			// Open question resolved: fetch the word at the NEW position,
			// not the stale one state.wordPos still holds.
			word, err = provider.GetWordAtPosition(ctx, wordPos)
			if err != nil {
				return nil, fmt.Errorf("swapdriver: fetch bitmap word at %d: %w", wordPos, err)
			}
			state.wordPos = wordPos
		}

		tickNext, initialized, err := tickbitmap.NextInitializedTickWithinOneWord(word, compressed, bitPos, pool.TickSpacing, zeroForOne)
		if err != nil {
			return nil, fmt.Errorf("swapdriver: next initialized tick: %w", err)
		}

		if tickNext < tickmath.MinTick {
			tickNext = tickmath.MinTick
		} else if tickNext > tickmath.MaxTick {
			tickNext = tickmath.MaxTick
		}

		priceAtNextBoundary, err := tickmath.GetSqrtRatioAtTick(tickNext)
		if err != nil {
			return nil, fmt.Errorf("swapdriver: price at tick %d: %w", tickNext, err)
		}

		priceTarget := clampToLimit(priceAtNextBoundary, limit, zeroForOne)

		step, err := swapmath.ComputeSwapStep(state.sqrtPriceX96, priceTarget, state.liquidity, state.amountRemaining, pool.FeePips)
		if err != nil {
			return nil, fmt.Errorf("swapdriver: compute swap step: %w", err)
		}
		state.sqrtPriceX96 = step.SqrtRatioNextX96

		consumed := new(uint256.Int).Add(step.AmountIn, step.FeeAmount)
		if exactInput {
			state.amountRemaining = new(uint256.Int).Sub(state.amountRemaining, consumed)
			state.amountCalculated = new(uint256.Int).Sub(state.amountCalculated, step.AmountOut)
		} else {
			state.amountRemaining = new(uint256.Int).Add(state.amountRemaining, step.AmountOut)
			state.amountCalculated = new(uint256.Int).Add(state.amountCalculated, consumed)
		}

		if state.sqrtPriceX96.Cmp(priceAtNextBoundary) == 0 {
			if initialized {
				liquidityNet, err := provider.GetLiquidityNetAtTick(ctx, tickNext)
				if err != nil {
					return nil, fmt.Errorf("swapdriver: liquidity net at tick %d: %w", tickNext, err)
				}
				if zeroForOne {
					liquidityNet = i256.Neg(liquidityNet)
				}
				state.liquidity, err = liquiditymath.AddDelta(state.liquidity, liquidityNet)
				if err != nil {
					return nil, fmt.Errorf("swapdriver: apply liquidity delta at tick %d: %w", tickNext, err)
				}
			}
			if zeroForOne {
				state.tick = tickNext - 1
			} else {
				state.tick = tickNext
			}
		} else if state.sqrtPriceX96.Cmp(stepStartPrice) != 0 {
			state.tick, err = tickmath.GetTickAtSqrtRatio(state.sqrtPriceX96)
			if err != nil {
				return nil, fmt.Errorf("swapdriver: tick at price: %w", err)
			}
		}
	}

	return i256.Abs(state.amountCalculated), nil
}

// clampToLimit restricts priceAtNextBoundary so the step never crosses
// the driver's hard price limit: when zeroForOne price only falls, so
// the target is the larger of the boundary and the limit; otherwise
// price only rises, so the target is the smaller of the two.
func clampToLimit(priceAtNextBoundary, limit *uint256.Int, zeroForOne bool) *uint256.Int {
	if zeroForOne {
		if priceAtNextBoundary.Cmp(limit) < 0 {
			return limit
		}
		return priceAtNextBoundary
	}
	if priceAtNextBoundary.Cmp(limit) > 0 {
		return limit
	}
	return priceAtNextBoundary
}

// bitmapPosition resolves spec.md §9 Open Question #2: the word/bit
// position to query the bitmap at depends on search direction. Searching
// at-or-below (zeroForOne, lte=true) reads position(compressed), the
// current tick's own slot. Searching strictly above (!zeroForOne,
// lte=false) reads position(compressed+1), mirroring the reference
// contract's next_initialized_tick_within_one_word_from_provider — using
// position(compressed) there would scan the current tick's own bit
// instead of the word starting just past it, landing one tick-spacing
// unit off (or, at a word edge, fetching the wrong word entirely).
func bitmapPosition(compressed int32, zeroForOne bool) (int16, uint8) {
	if zeroForOne {
		return tickbitmap.Position(compressed)
	}
	return tickbitmap.Position(compressed + 1)
}
