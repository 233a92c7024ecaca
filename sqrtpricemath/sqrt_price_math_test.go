package sqrtpricemath

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustU256(s string) *uint256.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad constant " + s)
	}
	return uint256.MustFromBig(n)
}

func TestGetNextSqrtPriceFromInput_Seed(t *testing.T) {
	p := mustU256("79228162514264337593543950336")
	l := mustU256("1000000000000000000")
	amountIn := mustU256("100000000000000000")

	got, err := GetNextSqrtPriceFromInput(p, l, amountIn, true)
	require.NoError(t, err)
	assert.Equal(t, "72025602285694852357767227579", got.ToBig().String())
}

func TestGetNextSqrtPriceFromInput_ZeroPriceOrLiquidity(t *testing.T) {
	_, err := GetNextSqrtPriceFromInput(new(uint256.Int), uint256.NewInt(1), uint256.NewInt(1), true)
	assert.ErrorIs(t, err, ErrSqrtPriceZero)

	_, err = GetNextSqrtPriceFromInput(uint256.NewInt(1), new(uint256.Int), uint256.NewInt(1), true)
	assert.ErrorIs(t, err, ErrLiquidityZero)
}

func TestGetNextSqrtPriceFromAmount0RoundingUp_ZeroAmount(t *testing.T) {
	p := mustU256("79228162514264337593543950336")
	got, err := GetNextSqrtPriceFromAmount0RoundingUp(p, uint256.NewInt(1), new(uint256.Int), true)
	require.NoError(t, err)
	assert.Equal(t, p.Hex(), got.Hex())
}

func TestGetAmount0Delta_OrderIndependent(t *testing.T) {
	a := mustU256("79228162514264337593543950336")
	b := mustU256("79623317895830914510639640423")
	l := uint256.NewInt(2000000000000000000)

	d1, err := GetAmount0Delta(a, b, l, true)
	require.NoError(t, err)
	d2, err := GetAmount0Delta(b, a, l, true)
	require.NoError(t, err)
	assert.Equal(t, d1.Hex(), d2.Hex())
}

func TestGetAmount0Delta_RoundingUpVsDown(t *testing.T) {
	a := mustU256("79228162514264337593543950336")
	b := mustU256("79623317895830914510639640423")
	l := uint256.NewInt(2000000000000000000)

	down, err := GetAmount0Delta(a, b, l, false)
	require.NoError(t, err)
	up, err := GetAmount0Delta(a, b, l, true)
	require.NoError(t, err)

	assert.True(t, up.Cmp(down) >= 0)
}

func TestGetAmount1Delta_RoundingUpVsDown(t *testing.T) {
	a := mustU256("79228162514264337593543950336")
	b := mustU256("79623317895830914510639640423")
	l := uint256.NewInt(2000000000000000000)

	down, err := GetAmount1Delta(a, b, l, false)
	require.NoError(t, err)
	up, err := GetAmount1Delta(a, b, l, true)
	require.NoError(t, err)

	assert.True(t, up.Cmp(down) >= 0)
}

func TestAmount0DeltaSigned_NegatesForNegativeLiquidity(t *testing.T) {
	a := mustU256("79228162514264337593543950336")
	b := mustU256("79623317895830914510639640423")

	posL := uint256.NewInt(2000000000000000000)
	negL := new(uint256.Int).Sub(new(uint256.Int), posL) // two's complement -posL

	pos, err := Amount0DeltaSigned(a, b, posL)
	require.NoError(t, err)
	neg, err := Amount0DeltaSigned(a, b, negL)
	require.NoError(t, err)

	sum := new(uint256.Int).Add(pos, neg)
	// pos and neg should differ by at most the rounding step (one unit)
	// of the underlying unsigned delta, since one side rounds up and the
	// other rounds down.
	assert.True(t, sum.Cmp(uint256.NewInt(1)) <= 0 || sum.Cmp(new(uint256.Int).Sub(new(uint256.Int), uint256.NewInt(1))) >= 0)
}

func TestGetNextSqrtPriceFromAmount1RoundingDown_AddThenSubRoundTrips(t *testing.T) {
	p := mustU256("79228162514264337593543950336")
	l := uint256.NewInt(1000000000000000000)
	amount := uint256.NewInt(100000000000000000)

	up, err := GetNextSqrtPriceFromAmount1RoundingDown(p, l, amount, true)
	require.NoError(t, err)

	down, err := GetNextSqrtPriceFromAmount1RoundingDown(up, l, amount, false)
	require.NoError(t, err)

	// Both directions round the resulting price down (the subtraction
	// rounds its quotient up), so moving up then back down should land at
	// or below the start.
	assert.True(t, down.Cmp(p) <= 0)
}
