// Package engine orchestrates the product-tree build, the
// remainder-tree descent, and the final per-leaf reduction into a
// single batch-GCD run over a caller-supplied modulus list.
package engine

import (
	"fmt"
	"os"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/finalize"
	"github.com/fvial/rsabatchgcd/pool"
	"github.com/fvial/rsabatchgcd/store"
	"github.com/fvial/rsabatchgcd/tree"
)

// Phase names a stage of the engine, used in CoreError to tell the
// caller which stage failed.
type Phase string

const (
	PhaseA Phase = "A" // product-tree build
	PhaseB Phase = "B" // remainder-tree descent
	PhaseC Phase = "C" // final reduction
)

// CoreError wraps a phase failure with enough context to identify
// which phase failed.
type CoreError struct {
	Phase Phase
	Err   error
}

func (e *CoreError) Error() string {
	return fmt.Sprintf("phase %s: %v", e.Phase, e.Err)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// ErrInputShape marks an invalid input: n == 0, or some N_i <= 1.
type ErrInputShape struct {
	Reason string
}

func (e *ErrInputShape) Error() string {
	return "engine: input-shape error: " + e.Reason
}

// Config holds the operational knobs of one run.
type Config struct {
	// WorkDir is the writable directory the store uses for (level,
	// slot) entries. It must already exist; the engine neither cleans
	// stale entries from previous runs nor removes its own.
	WorkDir string

	// Workers is the fixed worker-pool size; <= 0 defaults to
	// runtime.NumCPU().
	Workers int

	// SpillBytes is the remainder-tree spill budget in bytes; <= 0
	// always spills. It is converted to a per-level slot count by
	// spillSlotsFor from the leaf size, so a level above the leaves is
	// kept in memory whenever its slot count fits, even though its
	// entries are larger than leaf-sized and may exceed the budget.
	SpillBytes int64
}

// Result is the output of a run: G in input order, plus enough
// context for a classifier to interpret it.
type Result struct {
	G []*bignum.Int
	// SingleInput is true when n == 1: there are no pairs to compare.
	// G_0 is 1 in this case (gcd(1, N_0) falls out of the same
	// arithmetic as every other run), so no special-casing is needed
	// downstream. This flag is informational only, for callers that
	// want to report "ran on a single modulus" distinctly from "ran on
	// a fleet where nothing collided".
	SingleInput bool
}

// Run validates moduli, then executes Part A, Part B, and Part C in
// sequence, returning G in input order.
func Run(cfg Config, moduli []*bignum.Int) (*Result, error) {
	n := len(moduli)
	if n == 0 {
		return nil, &ErrInputShape{Reason: "no moduli supplied"}
	}
	for i, m := range moduli {
		if m.LessOrEqualOne() {
			return nil, &ErrInputShape{Reason: fmt.Sprintf("modulus %d is <= 1", i)}
		}
	}

	if _, err := os.Stat(cfg.WorkDir); err != nil {
		return nil, fmt.Errorf("engine: work dir: %w", err)
	}

	st, err := store.Open(cfg.WorkDir)
	if err != nil {
		return nil, err
	}
	productNS := st.Namespace("product")
	remainderNS := st.Namespace("remainder")

	pl := pool.New(cfg.Workers)

	height, err := runRecovered(func() (int, error) {
		return tree.BuildProductTree(productNS, pl, moduli)
	})
	if err != nil {
		return nil, &CoreError{Phase: PhaseA, Err: err}
	}

	maxResidentSlots := spillSlotsFor(moduli[0], cfg.SpillBytes)

	r, err := runRecoveredSlice(func() ([]*bignum.Int, error) {
		return tree.DescendRemainderTree(productNS, remainderNS, pl, height, n, maxResidentSlots)
	})
	if err != nil {
		return nil, &CoreError{Phase: PhaseB, Err: err}
	}

	g, err := runRecoveredSlice(func() ([]*bignum.Int, error) {
		return finalize.Finalize(productNS, pl, n, r)
	})
	if err != nil {
		return nil, &CoreError{Phase: PhaseC, Err: err}
	}

	return &Result{G: g, SingleInput: n == 1}, nil
}

// spillSlotsFor translates an operator-facing byte budget into a slot
// count, estimating bytes-per-entry from the first leaf's magnitude:
// a leaf-level remainder is below the square of its leaf, so its
// serialized size is at most roughly twice the leaf's. Remainders at
// higher levels are reduced by larger squares and are bigger than this
// estimate.
func spillSlotsFor(sample *bignum.Int, budgetBytes int64) int {
	if budgetBytes <= 0 {
		return 0
	}
	perEntry := int64(len(sample.Bytes())) * 2
	if perEntry <= 0 {
		perEntry = 1
	}
	slots := budgetBytes / perEntry
	if slots <= 0 {
		return 0
	}
	if slots > int64(^uint(0)>>1) {
		return int(^uint(0) >> 1)
	}
	return int(slots)
}

// runRecovered turns an internal panic (used internally for
// conditions that must never happen, e.g. bignum's Mod/Quo by zero)
// into a returned error, since engine is a library and must not take
// down its caller's process.
func runRecovered(f func() (int, error)) (height int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return f()
}

func runRecoveredSlice(f func() ([]*bignum.Int, error)) (out []*bignum.Int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return f()
}
