package fullmath

import (
	"crypto/rand"
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

func TestMulDiv(t *testing.T) {
	testCases := []struct {
		name     string
		a, b, d  *uint256.Int
		expected *uint256.Int
		err      error
	}{
		{
			name:     "simple division",
			a:        uint256.NewInt(100),
			b:        uint256.NewInt(3),
			d:        uint256.NewInt(5),
			expected: uint256.NewInt(60),
		},
		{
			name:     "rounds down",
			a:        uint256.NewInt(100),
			b:        uint256.NewInt(3),
			d:        uint256.NewInt(7),
			expected: uint256.NewInt(42),
		},
		{
			name: "full 512-bit intermediate product",
			a:    new(uint256.Int).Lsh(uint256.NewInt(1), 200),
			b:    new(uint256.Int).Lsh(uint256.NewInt(1), 200),
			d:    new(uint256.Int).Lsh(uint256.NewInt(1), 150),
			expected: new(uint256.Int).Lsh(uint256.NewInt(1), 250),
		},
		{
			name: "division by zero",
			a:    uint256.NewInt(1),
			b:    uint256.NewInt(1),
			d:    new(uint256.Int),
			err:  ErrDivByZero,
		},
		{
			name: "overflow",
			a:    new(uint256.Int).Not(new(uint256.Int)),
			b:    new(uint256.Int).Not(new(uint256.Int)),
			d:    uint256.NewInt(1),
			err:  ErrOverflow,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := MulDiv(tc.a, tc.b, tc.d)
			if tc.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected.Hex(), result.Hex())
		})
	}
}

func TestMulDivRoundingUp(t *testing.T) {
	testCases := []struct {
		name     string
		a, b, d  *uint256.Int
		expected *uint256.Int
	}{
		{"exact division", uint256.NewInt(100), uint256.NewInt(3), uint256.NewInt(5), uint256.NewInt(60)},
		{"rounds up", uint256.NewInt(100), uint256.NewInt(3), uint256.NewInt(7), uint256.NewInt(43)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := MulDivRoundingUp(tc.a, tc.b, tc.d)
			require.NoError(t, err)
			assert.Equal(t, tc.expected.Hex(), result.Hex())
		})
	}
}

// TestMulDivRoundingUp_OverflowOnCeilPush checks that rounding up a floor
// result that already sits at MaxUint256 fails with ErrOverflow instead
// of silently wrapping to 0. a, b, d are chosen so floor(a*b/d) ==
// MaxUint256 exactly, with a nonzero remainder that would otherwise push
// the result past the top of the range.
func TestMulDivRoundingUp_OverflowOnCeilPush(t *testing.T) {
	a := uint256.NewInt(23)
	b := mustU256("15103315987476025490030998044611466241730867565083551831233597914075625605209")
	d := uint256.NewInt(3)

	floor, err := MulDiv(a, b, d)
	require.NoError(t, err)
	assert.Equal(t, new(uint256.Int).Not(new(uint256.Int)).Hex(), floor.Hex())

	_, err = MulDivRoundingUp(a, b, d)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDivRoundingUp(t *testing.T) {
	assert.Equal(t, uint256.NewInt(20).Hex(), DivRoundingUp(uint256.NewInt(100), uint256.NewInt(5)).Hex())
	assert.Equal(t, uint256.NewInt(15).Hex(), DivRoundingUp(uint256.NewInt(100), uint256.NewInt(7)).Hex())

	assert.Panics(t, func() {
		DivRoundingUp(uint256.NewInt(1), new(uint256.Int))
	})
}

// TestMulDiv_Invariant checks that MulDiv(a,b,d) agrees with math/big for
// random operands small enough to avoid the full-precision overflow case.
func TestMulDiv_Invariant(t *testing.T) {
	max := new(big.Int).Lsh(big.NewInt(1), 128)
	for i := 0; i < 1000; i++ {
		a, err := rand.Int(rand.Reader, max)
		require.NoError(t, err)
		b, err := rand.Int(rand.Reader, max)
		require.NoError(t, err)
		d, err := rand.Int(rand.Reader, max)
		require.NoError(t, err)
		if d.Sign() == 0 {
			d.SetInt64(1)
		}

		want := new(big.Int).Div(new(big.Int).Mul(a, b), d)

		got, err := MulDiv(uint256.MustFromBig(a), uint256.MustFromBig(b), uint256.MustFromBig(d))
		require.NoError(t, err)
		assert.Equal(t, want.String(), got.ToBig().String())
	}
}

func TestMulDivRoundingUp_VsMulDiv(t *testing.T) {
	max := new(big.Int).Lsh(big.NewInt(1), 128)
	for i := 0; i < 1000; i++ {
		a, err := rand.Int(rand.Reader, max)
		require.NoError(t, err)
		b, err := rand.Int(rand.Reader, max)
		require.NoError(t, err)
		d, err := rand.Int(rand.Reader, max)
		require.NoError(t, err)
		if d.Sign() == 0 {
			d.SetInt64(1)
		}

		au, bu, du := uint256.MustFromBig(a), uint256.MustFromBig(b), uint256.MustFromBig(d)

		floor, err := MulDiv(au, bu, du)
		require.NoError(t, err)
		ceil, err := MulDivRoundingUp(au, bu, du)
		require.NoError(t, err)

		diff := new(uint256.Int).Sub(ceil, floor)
		assert.True(t, diff.Cmp(uint256.NewInt(1)) <= 0)
	}
}
