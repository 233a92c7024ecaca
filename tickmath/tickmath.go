// Package tickmath converts between ticks and Q64.96 square-root prices.
// Both directions are bit-exact with the reference contract: the
// tick-to-price direction evaluates a piecewise magic-constant product,
// and the price-to-tick direction walks a fixed-point log2 ladder rather
// than searching, so that rounding matches exactly at every boundary.
package tickmath

import (
	"errors"
	"math/big"
	"sync"

	"github.com/defistate/uniswapv3-math-engine/i256"
	"github.com/holiman/uint256"
)

const (
	// MinTick is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MinTick int32 = -887272
	// MaxTick is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is the minimum value that can be returned from
	// GetSqrtRatioAtTick, equal to GetSqrtRatioAtTick(MinTick).
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is the maximum value that can be returned from
	// GetSqrtRatioAtTick, equal to GetSqrtRatioAtTick(MaxTick).
	MaxSqrtRatio = uint256.MustFromBig(mustParse("1461446703485210103287273052203988822378723970342"))

	// ErrTickOutOfBounds is returned when a tick falls outside
	// [MinTick, MaxTick].
	ErrTickOutOfBounds = errors.New("tickmath: tick out of bounds")
	// ErrSqrtPriceOutOfBounds is returned when a price falls outside
	// [MinSqrtRatio, MaxSqrtRatio).
	ErrSqrtPriceOutOfBounds = errors.New("tickmath: sqrt price out of bounds")

	one        = uint256.NewInt(1)
	maxUint256 = new(uint256.Int).Not(new(uint256.Int))

	logSqrt10001Multiplier = uint256.MustFromBig(mustParse("255738958999603826347141"))
	tickLowCorrection      = uint256.MustFromBig(mustParse("3402992956809132418596140100660247210"))
	tickHighCorrection     = uint256.MustFromBig(mustParse("291339464771989622907027621153398088495"))

	// ratioConstants are 1/sqrt(1.0001^2^i) in Q128.128 for i in 0..19, plus
	// the identity element (index 1, used when bit 0 is unset) and a mask
	// used by the final rounding step (index 21).
	ratioConstants = [22]*uint256.Int{
		uint256.MustFromBig(fromHex("0xfffcb933bd6fad37aa2d162d1a594001")),
		uint256.MustFromBig(fromHex("0x100000000000000000000000000000000")),
		uint256.MustFromBig(fromHex("0xfff97272373d413259a46990580e213a")),
		uint256.MustFromBig(fromHex("0xfff2e50f5f656932ef12357cf3c7fdcc")),
		uint256.MustFromBig(fromHex("0xffe5caca7e10e4e61c3624eaa0941cd0")),
		uint256.MustFromBig(fromHex("0xffcb9843d60f6159c9db58835c926644")),
		uint256.MustFromBig(fromHex("0xff973b41fa98c081472e6896dfb254c0")),
		uint256.MustFromBig(fromHex("0xff2ea16466c96a3843ec78b326b52861")),
		uint256.MustFromBig(fromHex("0xfe5dee046a99a2a811c461f1969c3053")),
		uint256.MustFromBig(fromHex("0xfcbe86c7900a88aedcffc83b479aa3a4")),
		uint256.MustFromBig(fromHex("0xf987a7253ac413176f2b074cf7815e54")),
		uint256.MustFromBig(fromHex("0xf3392b0822b70005940c7a398e4b70f3")),
		uint256.MustFromBig(fromHex("0xe7159475a2c29b7443b29c7fa6e889d9")),
		uint256.MustFromBig(fromHex("0xd097f3bdfd2022b8845ad8f792aa5825")),
		uint256.MustFromBig(fromHex("0xa9f746462d870fdf8a65dc1f90e061e5")),
		uint256.MustFromBig(fromHex("0x70d869a156d2a1b890bb3df62baf32f7")),
		uint256.MustFromBig(fromHex("0x31be135f97d08fd981231505542fcfa6")),
		uint256.MustFromBig(fromHex("0x9aa508b5b7a84e1c677de54f3e99bc9")),
		uint256.MustFromBig(fromHex("0x5d6af8dedb81196699c329225ee604")),
		uint256.MustFromBig(fromHex("0x2216e584f5fa1ea926041bedfe98")),
		uint256.MustFromBig(fromHex("0x48a170391f7dc42444e8fa2")),
		uint256.MustFromBig(fromHex("0xffffffff")),
	}
)

// tickMath holds reusable scratch integers to avoid allocations on the hot
// path, the same pooling shape the rest of this engine uses.
type tickMath struct {
	ratio *uint256.Int
	rem   *uint256.Int
	r     *uint256.Int
	tmp   *uint256.Int
}

var pool = sync.Pool{
	New: func() any {
		return &tickMath{
			ratio: new(uint256.Int),
			rem:   new(uint256.Int),
			r:     new(uint256.Int),
			tmp:   new(uint256.Int),
		}
	},
}

// GetSqrtRatioAtTick computes ceil(sqrt(1.0001^tick) * 2^96) as a Q64.96
// value.
func GetSqrtRatioAtTick(tick int32) (*uint256.Int, error) {
	if tick < MinTick || tick > MaxTick {
		return nil, ErrTickOutOfBounds
	}

	tm := pool.Get().(*tickMath)
	defer pool.Put(tm)

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	if (absTick & 0x1) != 0 {
		tm.ratio.Set(ratioConstants[0])
	} else {
		tm.ratio.Set(ratioConstants[1])
	}

	for i := 2; i < 21; i++ {
		if (absTick & (1 << uint(i-1))) != 0 {
			tm.ratio.Mul(tm.ratio, ratioConstants[i]).Rsh(tm.ratio, 128)
		}
	}

	if tick > 0 {
		tm.ratio.Div(maxUint256, tm.ratio)
	}

	tm.rem.And(tm.ratio, ratioConstants[21])
	tm.ratio.Rsh(tm.ratio, 32)
	if !tm.rem.IsZero() {
		tm.ratio.Add(tm.ratio, one)
	}

	return new(uint256.Int).Set(tm.ratio), nil
}

// GetTickAtSqrtRatio returns the greatest tick such that
// GetSqrtRatioAtTick(tick) <= sqrtPriceX96, computed via a fixed-point
// binary logarithm rather than a search over GetSqrtRatioAtTick.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Cmp(MinSqrtRatio) < 0 || sqrtPriceX96.Cmp(MaxSqrtRatio) >= 0 {
		return 0, ErrSqrtPriceOutOfBounds
	}

	ratio := new(uint256.Int).Lsh(sqrtPriceX96, 32)
	r := new(uint256.Int).Set(ratio)

	var msb uint
	threshold := [8]*uint256.Int{
		fromHexU256("0xFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF"),
		uint256.NewInt(0xFFFFFFFFFFFFFFFF),
		uint256.NewInt(0xFFFFFFFF),
		uint256.NewInt(0xFFFF),
		uint256.NewInt(0xFF),
		uint256.NewInt(0xF),
		uint256.NewInt(0x3),
		uint256.NewInt(0x1),
	}
	shifts := [8]uint{7, 6, 5, 4, 3, 2, 1, 0}

	for i, th := range threshold {
		if r.Cmp(th) > 0 {
			f := uint(1) << shifts[i]
			msb |= f
			r.Rsh(r, f)
		}
	}

	if msb >= 128 {
		r = new(uint256.Int).Rsh(ratio, msb-127)
	} else {
		r = new(uint256.Int).Lsh(ratio, 127-msb)
	}

	logSqrt10001 := i256.FromInt64(int64(msb) - 128)
	logSqrt10001 = new(uint256.Int).Lsh(logSqrt10001, 64)

	for bit := 63; bit >= 51; bit-- {
		r.Mul(r, r)
		r.Rsh(r, 127)
		f := new(uint256.Int).Rsh(r, 128)
		term := new(uint256.Int).Lsh(f, uint(bit))
		logSqrt10001.Or(logSqrt10001, term)
		r.Rsh(r, uint(f.Uint64()))
	}

	r.Mul(r, r)
	r.Rsh(r, 127)
	f := new(uint256.Int).Rsh(r, 128)
	term := new(uint256.Int).Lsh(f, 50)
	logSqrt10001.Or(logSqrt10001, term)

	logSqrt10001 = mulWrapping(logSqrt10001, logSqrt10001Multiplier)

	tickLowU := i256.SRsh(new(uint256.Int).Sub(logSqrt10001, tickLowCorrection), 128)
	tickHighU := i256.SRsh(new(uint256.Int).Add(logSqrt10001, tickHighCorrection), 128)

	tickLow := i256.ToInt32(tickLowU)
	tickHigh := i256.ToInt32(tickHighU)

	if tickLow == tickHigh {
		return tickLow, nil
	}

	sqrtAtHigh, err := GetSqrtRatioAtTick(tickHigh)
	if err != nil {
		return 0, err
	}
	if sqrtAtHigh.Cmp(sqrtPriceX96) <= 0 {
		return tickHigh, nil
	}
	return tickLow, nil
}

// Compressed divides tick by spacing, rounding towards negative infinity
// rather than towards zero, matching the reference implementation's
// treatment of negative ticks that don't fall exactly on a spacing
// boundary.
func Compressed(tick, spacing int32) int32 {
	if tick < 0 && tick%spacing != 0 {
		return tick/spacing - 1
	}
	return tick / spacing
}

func mulWrapping(a, b *uint256.Int) *uint256.Int {
	return new(uint256.Int).Mul(a, b)
}

func fromHex(s string) *big.Int {
	n, _ := new(big.Int).SetString(s[2:], 16)
	return n
}

func fromHexU256(s string) *uint256.Int {
	return uint256.MustFromBig(fromHex(s))
}

func mustParse(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("tickmath: invalid constant " + s)
	}
	return n
}
