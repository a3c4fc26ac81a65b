//
// circ_subtractor.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuits

import (
	"fmt"

	"github.com/markkurossi/maxpool/circuit"
)

// NewFullSubtractor creates a full subtractor circuit computing
// d=x-y-cin with borrow cout. The borrow is not computed if cout is
// nil.
func NewFullSubtractor(cc *Compiler, x, y, cin, d, cout *Wire) {
	// d = x^y^cin, cout = !(x^cin)&(y^cin) ^ cin.
	w1 := cc.Calloc.Wire()
	cc.AddGate(cc.Calloc.BinaryGate(circuit.XNOR, x, cin, w1))
	cc.AddGate(cc.Calloc.BinaryGate(circuit.XNOR, y, w1, d))

	if cout != nil {
		w2 := cc.Calloc.Wire()
		cc.AddGate(cc.Calloc.BinaryGate(circuit.XOR, y, cin, w2))

		w3 := cc.Calloc.Wire()
		cc.AddGate(cc.Calloc.BinaryGate(circuit.AND, w1, w2, w3))

		cc.AddGate(cc.Calloc.BinaryGate(circuit.XOR, w3, cin, cout))
	}
}

// NewSubtractor creates a new subtractor circuit implementing
// z=x-y. If z is wider than the inputs, the borrow is stored in
// z[max(len(x),len(y))] and the remaining bits are set to zero.
func NewSubtractor(cc *Compiler, x, y, z []*Wire) error {
	x, y = cc.ZeroPad(x, y)
	if len(x) == 0 || len(z) == 0 {
		return fmt.Errorf("invalid subtractor arguments: x=%d, y=%d, z=%d",
			len(x), len(y), len(z))
	}
	if len(x) > len(z) {
		x = x[0:len(z)]
		y = y[0:len(z)]
	}
	cin := cc.ZeroWire()

	for i := 0; i < len(x); i++ {
		var cout *Wire
		if i+1 >= len(x) {
			if i+1 >= len(z) {
				// N-N=N, overflow, drop borrow bit.
				cout = nil
			} else {
				cout = z[i+1]
			}
		} else {
			cout = cc.Calloc.Wire()
		}

		NewFullSubtractor(cc, x[i], y[i], cin, z[i], cout)

		cin = cout
	}
	for i := len(x) + 1; i < len(z); i++ {
		cc.Zero(z[i])
	}
	return nil
}
