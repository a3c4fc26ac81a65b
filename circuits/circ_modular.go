//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuits

import (
	"fmt"
)

// NewModAdder creates a modular adder circuit implementing
// z=(x+y) mod q for x, y in [0,q). The sum is computed on len(z)+1
// bits and q is subtracted if the sum is not below q.
func NewModAdder(cc *Compiler, x, y []*Wire, q uint64, z []*Wire) error {
	n := len(z)
	if n == 0 || len(x) > n || len(y) > n {
		return fmt.Errorf("invalid mod adder arguments: x=%d, y=%d, z=%d",
			len(x), len(y), len(z))
	}
	if q == 0 || (n < 64 && q > 1<<n) {
		return fmt.Errorf("invalid modulus %d for %d bits", q, n)
	}
	x = cc.pad(x, n)
	y = cc.pad(y, n)

	// s = x + y
	s := cc.Calloc.Wires(n + 1)
	if err := NewAdder(cc, x, y, s); err != nil {
		return err
	}

	// d = s - q, d[n+1] = borrow
	d := cc.Calloc.Wires(n + 2)
	if err := NewSubtractor(cc, s, cc.ConstWires(q, n+1), d); err != nil {
		return err
	}

	// z = s < q ? s : s - q
	return NewMUX(cc, d[n+1:n+2], s[:n], d[:n], z)
}

// NewModReducer creates a circuit implementing z=x mod q for x in
// [0,2q).
func NewModReducer(cc *Compiler, x []*Wire, q uint64, z []*Wire) error {
	n := len(z)
	if n == 0 || len(x) > n+1 {
		return fmt.Errorf("invalid mod reducer arguments: x=%d, z=%d",
			len(x), len(z))
	}
	if q == 0 || (n < 64 && q > 1<<n) {
		return fmt.Errorf("invalid modulus %d for %d bits", q, n)
	}
	x = cc.pad(x, n+1)

	d := cc.Calloc.Wires(n + 2)
	if err := NewSubtractor(cc, x, cc.ConstWires(q, n+1), d); err != nil {
		return err
	}
	return NewMUX(cc, d[n+1:n+2], x[:n], d[:n], z)
}

func (cc *Compiler) pad(x []*Wire, bits int) []*Wire {
	if len(x) >= bits {
		return x
	}
	result := make([]*Wire, bits)
	copy(result, x)
	for i := len(x); i < bits; i++ {
		result[i] = cc.ZeroWire()
	}
	return result
}
