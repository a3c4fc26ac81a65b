//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package circuits

import (
	"fmt"

	"github.com/markkurossi/maxpool/circuit"
)

// Allocator implements circuit wire and gate allocation.
type Allocator struct {
	block    []Wire
	ofs      int
	numWire  uint64
	numWires uint64
	numGates uint64
}

// NewAllocator creates a new circuit allocator.
func NewAllocator() *Allocator {
	return new(Allocator)
}

// Wire allocates a new Wire.
func (alloc *Allocator) Wire() *Wire {
	alloc.numWire++
	return NewWire()
}

// Wires allocate an array of Wires.
func (alloc *Allocator) Wires(bits int) []*Wire {
	alloc.numWires += uint64(bits)
	result := make([]*Wire, bits)
	for i := 0; i < bits; i++ {
		if alloc.ofs == 0 {
			alloc.ofs = 8192
			alloc.block = make([]Wire, alloc.ofs)
		}
		alloc.ofs--
		w := &alloc.block[alloc.ofs]
		w.Reset(UnassignedID)

		result[i] = w
	}
	return result
}

// BinaryGate creates a new binary gate.
func (alloc *Allocator) BinaryGate(op circuit.Operation, a, b, o *Wire) *Gate {
	alloc.numGates++
	return NewBinary(op, a, b, o)
}

// INVGate creates a new INV gate.
func (alloc *Allocator) INVGate(i, o *Wire) *Gate {
	alloc.numGates++
	return NewINV(i, o)
}

// Debug print debugging information about the circuit allocator.
func (alloc *Allocator) Debug() {
	fmt.Printf("circuits.Allocator: #wire=%v, #wires=%v, #gates=%v\n",
		alloc.numWire, alloc.numWires, alloc.numGates)
}
