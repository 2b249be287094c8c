// Package oracle is a naive O(n^2) pairwise-GCD reference used by
// tests to cross-check the batch engine's output on small inputs.
package oracle

import (
	"github.com/fvial/rsabatchgcd/bignum"
)

// NaiveGCD computes, for each i, gcd(N_i, product of N_j over every
// j != i) by direct multiplication. This is the same quantity the
// batch engine's product/remainder tree computes in quasi-linear time,
// done here the O(n^2) way for small inputs. A pairwise maximum of
// gcd(N_i, N_j) is not equivalent: it misses the case where N_i shares
// one prime with N_j and a different prime with N_k, which the full
// product against N_i catches but no single pairwise gcd does.
func NaiveGCD(moduli []*bignum.Int) []*bignum.Int {
	n := len(moduli)
	g := make([]*bignum.Int, n)
	for i := 0; i < n; i++ {
		product := bignum.FromBytes([]byte{1})
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			product = product.Mul(moduli[j])
		}
		g[i] = moduli[i].GCD(product)
	}
	return g
}
