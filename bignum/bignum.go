// Package bignum wraps the arbitrary-precision integer type used
// throughout the batch-GCD engine. It is a thin shim over *gmp.Int,
// adding the explicit-failure and serialization behaviour the core
// requires and that the raw gmp API leaves to the caller.
package bignum

import (
	"fmt"

	"github.com/ncw/gmp"
)

// Int is a non-negative arbitrary-precision integer. The zero value is
// not usable; construct with Zero, Parse, or FromBytes.
type Int struct {
	v *gmp.Int
}

// Zero returns a new Int with value 0.
func Zero() *Int {
	return &Int{v: gmp.NewInt(0)}
}

// Parse decodes s in the given base (10 or 16), returning an error on
// malformed input rather than exiting the process.
func Parse(s string, base int) (*Int, error) {
	v := new(gmp.Int)
	if _, ok := v.SetString(s, base); !ok {
		return nil, fmt.Errorf("bignum: invalid base-%d integer %q", base, s)
	}
	return &Int{v: v}, nil
}

// FromBytes decodes a big-endian magnitude, the inverse of Bytes.
func FromBytes(buf []byte) *Int {
	v := new(gmp.Int)
	v.SetBytes(buf)
	return &Int{v: v}
}

// Bytes returns the big-endian magnitude, with no leading zero bytes.
func (x *Int) Bytes() []byte {
	return x.v.Bytes()
}

// Cmp returns -1, 0, or +1 as x compares to y.
func (x *Int) Cmp(y *Int) int {
	return x.v.Cmp(y.v)
}

// IsZero reports whether x == 0.
func (x *Int) IsZero() bool {
	return x.v.Sign() == 0
}

// IsOne reports whether x == 1.
func (x *Int) IsOne() bool {
	return x.v.BitLen() == 1 && x.v.Sign() > 0
}

// LessOrEqualOne reports whether x <= 1. A modulus <= 1 is never
// valid input to the engine.
func (x *Int) LessOrEqualOne() bool {
	return x.v.BitLen() <= 1
}

// Mul returns a new Int equal to x * y.
func (x *Int) Mul(y *Int) *Int {
	z := new(gmp.Int)
	z.Mul(x.v, y.v)
	return &Int{v: z}
}

// Mod returns a new Int equal to x mod m. m must be non-zero; a zero m
// is a caller error, not a runtime condition to recover from.
func (x *Int) Mod(m *Int) *Int {
	if m.v.Sign() == 0 {
		panic("bignum: Mod by zero")
	}
	z := new(gmp.Int)
	z.Rem(x.v, m.v)
	return &Int{v: z}
}

// Quo returns a new Int equal to the quotient x / y, truncated toward
// zero if y does not evenly divide x. Callers that need to verify
// exactness use QuoExact instead.
func (x *Int) Quo(y *Int) *Int {
	if y.v.Sign() == 0 {
		panic("bignum: Quo by zero")
	}
	z := new(gmp.Int)
	z.Quo(x.v, y.v)
	return &Int{v: z}
}

// QuoExact divides x by y and reports whether the division was exact
// (y | x), returning the quotient in either case.
func (x *Int) QuoExact(y *Int) (*Int, bool) {
	if y.v.Sign() == 0 {
		panic("bignum: QuoExact by zero")
	}
	q := new(gmp.Int)
	r := new(gmp.Int)
	q.QuoRem(x.v, y.v, r)
	return &Int{v: q}, r.Sign() == 0
}

// GCD returns gcd(x, y). gcd(0, y) is y and gcd(x, 0) is x; gmp's GCD
// yields 0 when either operand is 0, so those cases are handled here.
func (x *Int) GCD(y *Int) *Int {
	z := new(gmp.Int)
	switch {
	case x.v.Sign() == 0:
		z.Set(y.v)
	case y.v.Sign() == 0:
		z.Set(x.v)
	default:
		z.GCD(nil, nil, x.v, y.v)
	}
	return &Int{v: z}
}

// Divides reports whether x divides y (x | y), used by the classifier
// and invariant checks.
func (x *Int) Divides(y *Int) bool {
	if x.v.Sign() == 0 {
		return y.v.Sign() == 0
	}
	r := new(gmp.Int)
	new(gmp.Int).QuoRem(y.v, x.v, r)
	return r.Sign() == 0
}

// String renders the value in hexadecimal.
func (x *Int) String() string {
	return fmt.Sprintf("%x", x.v)
}
