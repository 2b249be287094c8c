package bignum_test

import (
	"testing"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	x, err := bignum.Parse("ff", 16)
	require.NoError(t, err)
	require.Equal(t, "ff", x.String())

	y, err := bignum.Parse("255", 10)
	require.NoError(t, err)
	require.Equal(t, 0, x.Cmp(y))
}

func TestParseInvalid(t *testing.T) {
	_, err := bignum.Parse("not-a-number", 16)
	require.Error(t, err)
}

func TestBytesRoundTrip(t *testing.T) {
	x, err := bignum.Parse("deadbeef", 16)
	require.NoError(t, err)
	y := bignum.FromBytes(x.Bytes())
	require.Equal(t, 0, x.Cmp(y))
}

func TestArithmetic(t *testing.T) {
	a, _ := bignum.Parse("15", 10)
	b, _ := bignum.Parse("35", 10)
	five, _ := bignum.Parse("5", 10)

	require.Equal(t, 0, a.GCD(b).Cmp(five))
}

func TestMulModQuo(t *testing.T) {
	a, _ := bignum.Parse("7", 10)
	b, _ := bignum.Parse("13", 10)
	product := a.Mul(b)

	q, exact := product.QuoExact(a)
	require.True(t, exact)
	require.Equal(t, 0, q.Cmp(b))

	_, exact = a.Mul(b).QuoExact(bignum.FromBytes([]byte{5}))
	require.False(t, exact)

	m := product.Mod(a)
	require.True(t, m.IsZero())
}

func TestZeroAndOne(t *testing.T) {
	require.True(t, bignum.Zero().IsZero())
	one, _ := bignum.Parse("1", 10)
	require.True(t, one.IsOne())
	require.True(t, one.LessOrEqualOne())
	require.True(t, bignum.Zero().LessOrEqualOne())

	two, _ := bignum.Parse("2", 10)
	require.False(t, two.LessOrEqualOne())
}

func TestDivides(t *testing.T) {
	five, _ := bignum.Parse("5", 10)
	fifteen, _ := bignum.Parse("15", 10)
	require.True(t, five.Divides(fifteen))
	require.False(t, fifteen.Divides(five))
}

func TestModByZeroPanics(t *testing.T) {
	a, _ := bignum.Parse("10", 10)
	require.Panics(t, func() {
		a.Mod(bignum.Zero())
	})
}

func TestQuoByZeroPanics(t *testing.T) {
	a, _ := bignum.Parse("10", 10)
	require.Panics(t, func() {
		a.Quo(bignum.Zero())
	})
}
