//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package circuits implements a gate-level Boolean circuit builder
// and the arithmetic circuits of the maxpool computation.
package circuits

import (
	"fmt"
	"time"

	"github.com/markkurossi/maxpool/circuit"
)

// Params define the circuit compiler parameters.
type Params struct {
	Diagnostics bool
}

// Compiler implements binary circuit compiler.
type Compiler struct {
	Params      *Params
	Calloc      *Allocator
	Inputs      circuit.IO
	Outputs     circuit.IO
	InputWires  []*Wire
	OutputWires []*Wire
	Gates       []*Gate
	zeroWire    *Wire
	oneWire     *Wire
}

// NewCompiler creates a new circuit compiler.
func NewCompiler(params *Params) *Compiler {
	if params == nil {
		params = new(Params)
	}
	return &Compiler{
		Params: params,
		Calloc: NewAllocator(),
		Gates:  make([]*Gate, 0, 65536),
	}
}

// AddInput adds the input argument to the circuit and returns its
// input wires.
func (cc *Compiler) AddInput(arg circuit.IOArg) []*Wire {
	wires := cc.Calloc.Wires(arg.Size())
	cc.Inputs = append(cc.Inputs, arg)
	cc.InputWires = append(cc.InputWires, wires...)
	return wires
}

// AddOutput adds the output argument with its output wires to the
// circuit.
func (cc *Compiler) AddOutput(arg circuit.IOArg, wires []*Wire) error {
	if len(wires) != arg.Size() {
		return fmt.Errorf("invalid output %s: got %d wires, expected %d",
			arg.Name, len(wires), arg.Size())
	}
	if len(cc.InputWires) == 0 {
		return fmt.Errorf("no inputs defined")
	}
	// The output identity gates read the zero wire.
	cc.ZeroWire()

	cc.Outputs = append(cc.Outputs, arg)
	cc.OutputWires = append(cc.OutputWires, wires...)
	return nil
}

// ZeroWire returns a wire holding value 0.
func (cc *Compiler) ZeroWire() *Wire {
	if cc.zeroWire == nil {
		if len(cc.InputWires) == 0 {
			panic("ZeroWire: no inputs defined")
		}
		cc.zeroWire = cc.Calloc.Wire()
		cc.AddGate(cc.Calloc.BinaryGate(circuit.XOR, cc.InputWires[0],
			cc.InputWires[0], cc.zeroWire))
		cc.zeroWire.SetValue(Zero)
	}
	return cc.zeroWire
}

// OneWire returns a wire holding value 1.
func (cc *Compiler) OneWire() *Wire {
	if cc.oneWire == nil {
		if len(cc.InputWires) == 0 {
			panic("OneWire: no inputs defined")
		}
		cc.oneWire = cc.Calloc.Wire()
		cc.AddGate(cc.Calloc.BinaryGate(circuit.XNOR, cc.InputWires[0],
			cc.InputWires[0], cc.oneWire))
		cc.oneWire.SetValue(One)
	}
	return cc.oneWire
}

// ConstWires returns bits wires holding the constant value.
func (cc *Compiler) ConstWires(value uint64, bits int) []*Wire {
	result := make([]*Wire, bits)
	for i := 0; i < bits; i++ {
		if i < 64 && value&(1<<i) != 0 {
			result[i] = cc.OneWire()
		} else {
			result[i] = cc.ZeroWire()
		}
	}
	return result
}

// ZeroPad pads the argument wires x and y with zero values so that
// the resulting wires have the same number of bits.
func (cc *Compiler) ZeroPad(x, y []*Wire) ([]*Wire, []*Wire) {
	if len(x) == len(y) {
		return x, y
	}

	max := len(x)
	if len(y) > max {
		max = len(y)
	}

	rx := make([]*Wire, max)
	for i := 0; i < max; i++ {
		if i < len(x) {
			rx[i] = x[i]
		} else {
			rx[i] = cc.ZeroWire()
		}
	}

	ry := make([]*Wire, max)
	for i := 0; i < max; i++ {
		if i < len(y) {
			ry[i] = y[i]
		} else {
			ry[i] = cc.ZeroWire()
		}
	}

	return rx, ry
}

// INV creates an inverse wire inverting the input wire i's value to
// the output wire o.
func (cc *Compiler) INV(i, o *Wire) {
	cc.AddGate(cc.Calloc.INVGate(i, o))
}

// ID creates an identity wire passing the input wire i's value to the
// output wire o.
func (cc *Compiler) ID(i, o *Wire) {
	cc.AddGate(cc.Calloc.BinaryGate(circuit.XOR, i, cc.ZeroWire(), o))
}

// Zero sets the wire o to constant zero.
func (cc *Compiler) Zero(o *Wire) {
	cc.ID(cc.ZeroWire(), o)
}

// OR creates an OR gate computing o=a|b.
func (cc *Compiler) OR(a, b, o *Wire) {
	cc.AddGate(cc.Calloc.BinaryGate(circuit.OR, a, b, o))
}

// AddGate adds a get into the circuit.
func (cc *Compiler) AddGate(gate *Gate) {
	cc.Gates = append(cc.Gates, gate)
}

func (cc *Compiler) fixed(g *Gate) bool {
	return g.O == cc.zeroWire || g.O == cc.oneWire
}

// resolve returns the wire carrying w's value: the alias of a short
// circuited wire or the zero and one wires for constant values.
func (cc *Compiler) resolve(w *Wire) *Wire {
	w = w.Alias()
	switch w.Value() {
	case Zero:
		return cc.ZeroWire()
	case One:
		return cc.OneWire()
	}
	return w
}

// ConstPropagate propagates constant wire values in the circuit and
// short circuits gates if their output does not depend on the gate's
// logical operation.
func (cc *Compiler) ConstPropagate() {
	var stats circuit.Stats

	start := time.Now()

	for _, g := range cc.Gates {
		if cc.fixed(g) || g.dead {
			continue
		}
		g.A = cc.resolve(g.A)
		if g.B != nil {
			g.B = cc.resolve(g.B)
		}
		a := g.A.Value()
		var b WireValue
		if g.B != nil {
			b = g.B.Value()
		}

		switch g.Op {
		case circuit.XOR:
			if a != Unknown && b != Unknown {
				g.SetConstant(xorValue(a, b))
			} else if g.A == g.B {
				g.SetConstant(Zero)
			} else if a == Zero {
				g.ShortCircuit(g.B)
			} else if b == Zero {
				g.ShortCircuit(g.A)
			}

		case circuit.XNOR:
			if a != Unknown && b != Unknown {
				g.SetConstant(xorValue(xorValue(a, b), One))
			} else if g.A == g.B {
				g.SetConstant(One)
			} else if a == One {
				g.ShortCircuit(g.B)
			} else if b == One {
				g.ShortCircuit(g.A)
			}

		case circuit.AND:
			if a == Zero || b == Zero {
				g.SetConstant(Zero)
			} else if a == One {
				g.ShortCircuit(g.B)
			} else if b == One || g.A == g.B {
				g.ShortCircuit(g.A)
			}

		case circuit.OR:
			if a == One || b == One {
				g.SetConstant(One)
			} else if a == Zero {
				g.ShortCircuit(g.B)
			} else if b == Zero || g.A == g.B {
				g.ShortCircuit(g.A)
			}

		case circuit.INV:
			if a != Unknown {
				g.SetConstant(xorValue(a, One))
			}
		}
		if g.dead {
			stats[g.Op]++
		}
	}

	elapsed := time.Since(start)

	if cc.Params.Diagnostics && stats.Count() > 0 {
		fmt.Printf(" - ConstPropagate:      %12s: %d/%d (%.2f%%)\n",
			elapsed, stats.Count(), len(cc.Gates),
			float64(stats.Count())/float64(len(cc.Gates))*100)
	}
}

func xorValue(a, b WireValue) WireValue {
	if a == b {
		return Zero
	}
	return One
}

// Prune removes all gates whose output wires are not needed by the
// circuit outputs. The function returns the number of removed gates.
func (cc *Compiler) Prune() int {
	for _, w := range cc.OutputWires {
		cc.resolve(w).SetLive(true)
	}
	if len(cc.OutputWires) > 0 {
		cc.zeroWire.SetLive(true)
	}

	n := make([]*Gate, len(cc.Gates))
	nPos := len(n)

	for i := len(cc.Gates) - 1; i >= 0; i-- {
		g := cc.Gates[i]
		if g.dead || !g.O.Live() {
			continue
		}
		cc.resolve(g.A).SetLive(true)
		if g.B != nil {
			cc.resolve(g.B).SetLive(true)
		}
		nPos--
		n[nPos] = g
	}
	removed := len(cc.Gates) - (len(n) - nPos)
	cc.Gates = n[nPos:]

	if cc.Params.Diagnostics && removed > 0 {
		fmt.Printf(" - Prune:               %12s: %d/%d (%.2f%%)\n",
			"", removed, removed+len(cc.Gates),
			float64(removed)/float64(removed+len(cc.Gates))*100)
	}

	return removed
}

// Compile compiles the circuit. The circuit input wires get the IDs
// from 0 in the input argument order, the constant wires follow the
// inputs, and the output wires get the last IDs of the circuit.
func (cc *Compiler) Compile() (*circuit.Circuit, error) {
	if len(cc.InputWires) == 0 {
		return nil, fmt.Errorf("no inputs defined")
	}
	var nextID uint32
	for _, w := range cc.InputWires {
		w.SetID(nextID)
		nextID++
	}

	var order []*Gate
	for _, g := range cc.Gates {
		if cc.fixed(g) {
			order = append(order, g)
		}
	}
	for _, g := range cc.Gates {
		if !cc.fixed(g) && !g.dead {
			order = append(order, g)
		}
	}

	compiled := make([]circuit.Gate, 0, len(order)+len(cc.OutputWires))
	var stats circuit.Stats

	emit := func(op circuit.Operation, a, b, o *Wire) error {
		if !a.Assigned() || (b != nil && !b.Assigned()) {
			return fmt.Errorf("gate %s: unassigned input", op)
		}
		o.SetID(nextID)
		nextID++

		g := circuit.Gate{
			Input0: circuit.Wire(a.ID()),
			Output: circuit.Wire(o.ID()),
			Op:     op,
		}
		if b != nil {
			g.Input1 = circuit.Wire(b.ID())
		}
		compiled = append(compiled, g)
		stats[op]++
		return nil
	}

	for _, g := range cc.Gates {
		g.O.SetID(UnassignedID)
	}
	for _, g := range order {
		var b *Wire
		if g.B != nil {
			b = cc.resolve(g.B)
		}
		if err := emit(g.Op, cc.resolve(g.A), b, g.O); err != nil {
			return nil, err
		}
	}
	for _, w := range cc.OutputWires {
		if err := emit(circuit.XOR, cc.resolve(w), cc.zeroWire,
			cc.Calloc.Wire()); err != nil {
			return nil, err
		}
	}

	return &circuit.Circuit{
		NumGates: len(compiled),
		NumWires: int(nextID),
		Inputs:   cc.Inputs,
		Outputs:  cc.Outputs,
		Gates:    compiled,
		Stats:    stats,
	}, nil
}
