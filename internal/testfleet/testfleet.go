// Package testfleet builds small synthetic modulus fleets for tests;
// the engine test suite uses it for its random RSA-like fixtures. It is
// the same construction cmd/mkmoduli uses at fleet scale, shrunk down
// for fast unit tests.
package testfleet

import (
	"crypto/rand"
	"math/big"

	"github.com/fvial/rsabatchgcd/bignum"
)

// RSAModulus builds N = p*q for two distinct random primes of the
// given total bit length.
func RSAModulus(bits int) (*bignum.Int, error) {
	p, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, err
	}
	q, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).Mul(p, q)
	return bignum.FromBytes(n.Bytes()), nil
}

// SharedFactor builds two moduli N0 = p*q, N1 = p*r sharing prime p,
// the minimal batch-GCD-positive fixture.
func SharedFactor(bits int) (n0, n1, p *bignum.Int, err error) {
	pBig, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, nil, nil, err
	}
	q, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, nil, nil, err
	}
	r, err := rand.Prime(rand.Reader, bits/2)
	if err != nil {
		return nil, nil, nil, err
	}
	N0 := new(big.Int).Mul(pBig, q)
	N1 := new(big.Int).Mul(pBig, r)
	return bignum.FromBytes(N0.Bytes()), bignum.FromBytes(N1.Bytes()), bignum.FromBytes(pBig.Bytes()), nil
}

// FromInt64 is a small convenience constructor for literal test
// fixtures ([15, 35], [7, 11, 13, 17], ...).
func FromInt64(v int64) *bignum.Int {
	return bignum.FromBytes(big.NewInt(v).Bytes())
}
