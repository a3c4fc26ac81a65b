//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package maxpool

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/sharing"
)

// ErrResultMismatch is returned when the revealed result differs
// from the expected result.
var ErrResultMismatch = errors.New("result mismatch")

// Case defines the inputs of one maxpool computation: the vector x,
// its additive shares xs and xc, and the mask r.
type Case struct {
	Q  uint64
	X  []uint64
	XS []uint64
	XC []uint64
	R  uint64
}

// NewCase creates the case x=[0,1,...,n-1] for the modulus q. The
// generator draws the mask r first and then the client shares.
func NewCase(n int, q uint64, g *sharing.Generator) (*Case, error) {
	r, err := g.Uint64n(q)
	if err != nil {
		return nil, err
	}
	x := make([]uint64, n)
	for i := range x {
		x[i] = uint64(i)
	}
	xs, xc, err := sharing.Split(x, q, g)
	if err != nil {
		return nil, err
	}
	return &Case{
		Q:  q,
		X:  x,
		XS: xs,
		XC: xc,
		R:  r,
	}, nil
}

// Expected returns the expected result (max(x mod q) + r) mod q.
func (c *Case) Expected() uint64 {
	return Expected(c.X, c.R, c.Q)
}

// Verify checks the result against the expected result. A mismatch
// is reported with ErrResultMismatch and the case values as error
// details.
func (c *Case) Verify(result uint64) error {
	expected := c.Expected()
	if result == expected {
		return nil
	}
	err := errors.Wrapf(ErrResultMismatch, "expected %d, got %d",
		expected, result)
	err = errors.WithDetailf(err, "x: %v", c.X)
	err = errors.WithDetailf(err, "xs: %v", c.XS)
	err = errors.WithDetailf(err, "xc: %v", c.XC)
	err = errors.WithDetailf(err, "r: %d", c.R)
	err = errors.WithDetailf(err, "expected: %d", expected)
	err = errors.WithDetailf(err, "output: %d", result)
	return err
}

// Expected returns (max(x mod q) + r) mod q. The elements are reduced
// before the max, so for x=[0..9] and q=8 the max is 7, not 9 mod 8.
// The vector x must not be empty.
func Expected(x []uint64, r, q uint64) uint64 {
	reduced := make([]uint64, len(x))
	for i, v := range x {
		reduced[i] = v % q
	}
	return sharing.AddMod(sharing.Max(reduced), r%q, q)
}
