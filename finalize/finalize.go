// Package finalize performs the per-leaf division and gcd that turns
// the remainder tree's leaf vector into the batch-GCD result.
package finalize

import (
	"errors"
	"fmt"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/pool"
	"github.com/fvial/rsabatchgcd/store"
)

// ErrInvariantViolation marks a core-bug condition: R_{0,i} not
// divisible by N_i, or G_i zero or not dividing N_i. This must never
// happen in a correct run; it
// indicates a bug to investigate, not a data finding.
var ErrInvariantViolation = errors.New("finalize: core invariant violation")

// Finalize reloads level 0 of the product tree from ns (the caller's
// in-memory leaves were consumed building level 1) and computes, for
// each i, T_i = R_{0,i} / N_i and G_i = gcd(T_i, N_i), run in parallel
// across pl.
func Finalize(ns *store.Namespace, pl *pool.Pool, n int, r []*bignum.Int) ([]*bignum.Int, error) {
	if len(r) != n {
		return nil, fmt.Errorf("finalize: expected %d remainders, got %d", n, len(r))
	}

	leaves := make([]*bignum.Int, n)
	if err := pl.RunLevel(n, func(i int) error {
		v, err := ns.Get(0, i)
		if err != nil {
			return fmt.Errorf("part C: level 0 slot %d: %w", i, err)
		}
		leaves[i] = v
		return nil
	}); err != nil {
		return nil, err
	}

	g := make([]*bignum.Int, n)
	err := pl.RunLevel(n, func(i int) error {
		modulus := leaves[i]
		t, exact := r[i].QuoExact(modulus)
		if !exact {
			return fmt.Errorf("part C: slot %d: %w: N does not divide R", i, ErrInvariantViolation)
		}
		gi := t.GCD(modulus)
		if gi.IsZero() || !gi.Divides(modulus) {
			return fmt.Errorf("part C: slot %d: %w: gcd is zero or does not divide N", i, ErrInvariantViolation)
		}
		g[i] = gi
		return nil
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}
