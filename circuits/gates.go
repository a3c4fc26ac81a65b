//
// gates.go
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

// Gate implements a binary gate. The INV gates have a nil B input.
type Gate struct {
	Op   circuit.Operation
	A    *Wire
	B    *Wire
	O    *Wire
	dead bool
}

// NewBinary creates a new binary gate.
func NewBinary(op circuit.Operation, a, b, o *Wire) *Gate {
	gate := &Gate{
		Op: op,
		A:  a,
		B:  b,
		O:  o,
	}
	o.SetInput(gate)
	return gate
}

// NewINV creates a new INV gate.
func NewINV(i, o *Wire) *Gate {
	gate := &Gate{
		Op: circuit.INV,
		A:  i,
		O:  o,
	}
	o.SetInput(gate)
	return gate
}

func (g *Gate) String() string {
	if g.B == nil {
		return fmt.Sprintf("%s %x %x", g.Op, g.A.ID(), g.O.ID())
	}
	return fmt.Sprintf("%s %x %x %x", g.Op, g.A.ID(), g.B.ID(), g.O.ID())
}

// Dead tests if the gate output was resolved at compile time.
func (g *Gate) Dead() bool {
	return g.dead
}

// ShortCircuit replaces the gate's output with the wire w.
func (g *Gate) ShortCircuit(w *Wire) {
	g.O.alias = w
	g.dead = true
}

// SetConstant replaces the gate's output with the constant value.
func (g *Gate) SetConstant(v WireValue) {
	g.O.SetValue(v)
	g.dead = true
}
