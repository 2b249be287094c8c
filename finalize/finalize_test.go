package finalize_test

import (
	"testing"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/finalize"
	"github.com/fvial/rsabatchgcd/pool"
	"github.com/fvial/rsabatchgcd/store"
	"github.com/fvial/rsabatchgcd/tree"
	"github.com/stretchr/testify/require"
)

func mustInt(v int64) *bignum.Int {
	b := big8(v)
	return bignum.FromBytes(b)
}

func big8(v int64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	i := 0
	for i < len(b)-1 && b[i] == 0 {
		i++
	}
	return b[i:]
}

func runBatch(t *testing.T, values []int64) []*bignum.Int {
	t.Helper()
	ls := make([]*bignum.Int, len(values))
	for i, v := range values {
		ls[i] = mustInt(v)
	}
	dir := t.TempDir()
	st, err := store.Open(dir)
	require.NoError(t, err)
	productNS := st.Namespace("product")
	remainderNS := st.Namespace("remainder")
	pl := pool.New(3)

	height, err := tree.BuildProductTree(productNS, pl, ls)
	require.NoError(t, err)
	r, err := tree.DescendRemainderTree(productNS, remainderNS, pl, height, len(ls), 0)
	require.NoError(t, err)
	g, err := finalize.Finalize(productNS, pl, len(ls), r)
	require.NoError(t, err)
	return g
}

func TestFinalizeScenario1(t *testing.T) {
	g := runBatch(t, []int64{15, 35})
	require.Equal(t, 0, g[0].Cmp(mustInt(5)))
	require.Equal(t, 0, g[1].Cmp(mustInt(5)))
}

func TestFinalizeScenario2(t *testing.T) {
	g := runBatch(t, []int64{15, 22, 35})
	require.Equal(t, 0, g[0].Cmp(mustInt(5)))
	require.True(t, g[1].IsOne())
	require.Equal(t, 0, g[2].Cmp(mustInt(5)))
}

func TestFinalizeScenario3AllShareFactors(t *testing.T) {
	g := runBatch(t, []int64{6, 10, 15})
	require.Equal(t, 0, g[0].Cmp(mustInt(6)))
	require.Equal(t, 0, g[1].Cmp(mustInt(10)))
	require.Equal(t, 0, g[2].Cmp(mustInt(15)))
}

func TestFinalizeScenario4AllCoprime(t *testing.T) {
	g := runBatch(t, []int64{7, 11, 13, 17})
	for i, gi := range g {
		require.Truef(t, gi.IsOne(), "slot %d expected 1, got %s", i, gi)
	}
}

func TestFinalizeScenario6Duplicates(t *testing.T) {
	// N=35, duplicated, M=9 coprime to 35.
	g := runBatch(t, []int64{35, 35, 9})
	require.Equal(t, 0, g[0].Cmp(mustInt(35)))
	require.Equal(t, 0, g[1].Cmp(mustInt(35)))
	require.True(t, g[2].IsOne())
}

func TestFinalizeSingleInput(t *testing.T) {
	// With nothing else in the fleet, T_0 = R_{0,0}/N_0 = 1 and
	// G_0 = gcd(1, N_0) = 1. A lone modulus trivially shares no factor
	// with anything.
	g := runBatch(t, []int64{97})
	require.True(t, g[0].IsOne())
}

func TestFinalizePermutationInvariance(t *testing.T) {
	a := runBatch(t, []int64{15, 22, 35})
	b := runBatch(t, []int64{35, 15, 22}) // rotated: a[0]->b[1], a[1]->b[2], a[2]->b[0]

	require.Equal(t, 0, a[0].Cmp(b[1])) // 15
	require.Equal(t, 0, a[1].Cmp(b[2])) // 22
	require.Equal(t, 0, a[2].Cmp(b[0])) // 35
}
