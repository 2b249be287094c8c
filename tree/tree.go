// Package tree builds the product tree and descends the remainder
// tree of a batch-GCD run, over a disk-backed random-access
// (level, slot) store shared across both trees.
package tree

import (
	"fmt"

	"github.com/fvial/rsabatchgcd/bignum"
	"github.com/fvial/rsabatchgcd/pool"
	"github.com/fvial/rsabatchgcd/store"
)

// levelSize returns the slot count of level k given n leaves. Tree
// shape is fully determined by n, so it never needs to be persisted
// alongside the stored entries.
func levelSize(n, k int) int {
	for ; k > 0; k-- {
		n = (n + 1) / 2
	}
	return n
}

// Height returns h = ceil(log2(n)), the number of levels above the
// leaves. Height(1) is 0: a single leaf is already the root.
func Height(n int) int {
	h := 0
	for levelSize(n, h) > 1 {
		h++
	}
	return h
}

// BuildProductTree writes levels 0..height of the product tree to ns,
// where level k slot i = level_{k-1}[2i] * level_{k-1}[2i+1], and an
// odd tail at level k-1 is promoted to level k unchanged. It is never
// multiplied by 1.
//
// Level 0 is written from leaves directly. The in-memory copy of
// leaves may be discarded once level 0 is durable; later stages
// reload it from ns.
func BuildProductTree(ns *store.Namespace, pl *pool.Pool, leaves []*bignum.Int) (int, error) {
	n := len(leaves)
	if n == 0 {
		return 0, fmt.Errorf("tree: product tree of zero leaves")
	}

	if err := pl.RunLevel(n, func(i int) error {
		if err := ns.Put(0, i, leaves[i]); err != nil {
			return fmt.Errorf("part A: level 0 slot %d: %w", i, err)
		}
		return nil
	}); err != nil {
		return 0, err
	}

	height := Height(n)
	prevSize := n
	for k := 1; k <= height; k++ {
		size := levelSize(n, k)
		err := pl.RunLevel(size, func(i int) error {
			left := 2 * i
			right := left + 1
			if right >= prevSize {
				// Odd tail: promote unchanged, never multiply by one.
				if err := ns.Copy(k-1, left, k, i); err != nil {
					return fmt.Errorf("part A: level %d slot %d: %w", k, i, err)
				}
				return nil
			}
			a, err := ns.Get(k-1, left)
			if err != nil {
				return fmt.Errorf("part A: level %d slot %d: %w", k, i, err)
			}
			b, err := ns.Get(k-1, right)
			if err != nil {
				return fmt.Errorf("part A: level %d slot %d: %w", k, i, err)
			}
			if err := ns.Put(k, i, a.Mul(b)); err != nil {
				return fmt.Errorf("part A: level %d slot %d: %w", k, i, err)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		prevSize = size
	}

	return height, nil
}

// remainderLevel holds one level's worth of remainder-tree values,
// either fully resident or spilled to a Namespace once the level's
// slot count crosses the configured threshold.
type remainderLevel struct {
	spillNS *store.Namespace
	level   int // level index when spilled, for naming only
	mem     []*bignum.Int
}

func (r *remainderLevel) get(i int) (*bignum.Int, error) {
	if r.mem != nil {
		return r.mem[i], nil
	}
	return r.spillNS.Get(r.level, i)
}

func (r *remainderLevel) put(i int, v *bignum.Int) error {
	if r.mem != nil {
		r.mem[i] = v
		return nil
	}
	return r.spillNS.Put(r.level, i, v)
}

func (r *remainderLevel) drop(i int) {
	if r.spillNS != nil {
		r.spillNS.Drop(r.level, i)
	}
}

// DescendRemainderTree computes R_{0,0..n-1}, the final leaf
// remainder vector, by descending the remainder tree seeded at the
// root R_{h,0} = level_h[0]. For k from height down to 1, each child
// slot i at level k-1 computes
// R_{k-1,i} = R_{k,i/2} mod (level_{k-1}[i])^2. The square is applied
// to the child product-tree node, never to the parent remainder.
//
// maxResidentSlots bounds how many entries of one remainder level may
// be held in memory at once before DescendRemainderTree spills the
// level to remainderNS instead; a non-positive value always spills.
// Engine callers translate an operator-facing byte budget into this
// slot count using the input bitlength.
func DescendRemainderTree(productNS, remainderNS *store.Namespace, pl *pool.Pool, height, n int, maxResidentSlots int) ([]*bignum.Int, error) {
	if n <= 0 {
		return nil, fmt.Errorf("tree: remainder tree of zero leaves")
	}
	if height == 0 {
		root, err := productNS.Get(0, 0)
		if err != nil {
			return nil, fmt.Errorf("part B: level 0 slot 0: %w", err)
		}
		return []*bignum.Int{root}, nil
	}

	root, err := productNS.Get(height, 0)
	if err != nil {
		return nil, fmt.Errorf("part B: level %d slot 0: %w", height, err)
	}
	cur := &remainderLevel{mem: []*bignum.Int{root}}

	prevSize := 1
	for k := height; k >= 1; k-- {
		size := levelSize(n, k-1)
		next := newRemainderLevel(remainderNS, k-1, size, maxResidentSlots)

		err := pl.RunLevel(size, func(i int) error {
			x, err := productNS.Get(k-1, i)
			if err != nil {
				return fmt.Errorf("part B: level %d slot %d: %w", k-1, i, err)
			}
			p := i / 2
			if p >= prevSize {
				return fmt.Errorf("part B: level %d slot %d: parent slot %d out of range", k-1, i, p)
			}
			y, err := cur.get(p)
			if err != nil {
				return fmt.Errorf("part B: level %d slot %d: %w", k-1, i, err)
			}
			m := x.Mul(x)
			r := y.Mod(m)
			if err := next.put(i, r); err != nil {
				return fmt.Errorf("part B: level %d slot %d: %w", k-1, i, err)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}

		for i := 0; i < prevSize; i++ {
			cur.drop(i)
		}
		cur = next
		prevSize = size
	}

	out := make([]*bignum.Int, n)
	for i := 0; i < n; i++ {
		v, err := cur.get(i)
		if err != nil {
			return nil, fmt.Errorf("part B: leaf remainder %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func newRemainderLevel(ns *store.Namespace, level, size, maxResidentSlots int) *remainderLevel {
	if maxResidentSlots <= 0 || size > maxResidentSlots {
		return &remainderLevel{spillNS: ns, level: level}
	}
	return &remainderLevel{mem: make([]*bignum.Int, size)}
}
