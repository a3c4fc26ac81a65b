//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package circuits

import (
	"fmt"
	"math"
)

const (
	// UnassignedID identifies an unassigned wire ID.
	UnassignedID uint32 = math.MaxUint32
	liveMask            = 0b10000000000000000000000000000000
	valueMask           = 0b01100000000000000000000000000000
	valueShift          = 29
)

// Wire implements a wire connecting binary gates.
type Wire struct {
	flags uint32
	id    uint32
	input *Gate
	alias *Wire
}

// WireValue defines wire values.
type WireValue uint8

// Possible wire values.
const (
	Unknown WireValue = iota
	Zero
	One
)

func (v WireValue) String() string {
	switch v {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "?"
	}
}

// NewWire creates an unassigned wire.
func NewWire() *Wire {
	w := new(Wire)
	w.Reset(UnassignedID)
	return w
}

// Reset resets the wire with the new ID.
func (w *Wire) Reset(id uint32) {
	w.flags = 0
	w.id = id
	w.input = nil
	w.alias = nil
}

// ID returns the wire ID.
func (w *Wire) ID() uint32 {
	return w.id
}

// SetID sets the wire ID.
func (w *Wire) SetID(id uint32) {
	w.id = id
}

// Assigned tests if the wire is assigned with an unique ID.
func (w *Wire) Assigned() bool {
	return w.id != UnassignedID
}

// Live tests if the wire value is needed by the circuit outputs.
func (w *Wire) Live() bool {
	return w.flags&liveMask != 0
}

// SetLive sets the wire live flag.
func (w *Wire) SetLive(live bool) {
	if live {
		w.flags |= liveMask
	} else {
		w.flags &^= liveMask
	}
}

// Value returns the wire value.
func (w *Wire) Value() WireValue {
	return WireValue((w.flags & valueMask) >> valueShift)
}

// SetValue sets the wire value.
func (w *Wire) SetValue(value WireValue) {
	w.flags &^= valueMask
	w.flags |= (uint32(value) << valueShift) & valueMask
}

// Input returns the wire's input gate.
func (w *Wire) Input() *Gate {
	return w.input
}

// SetInput sets the wire's input gate.
func (w *Wire) SetInput(gate *Gate) {
	if w.input != nil {
		panic("Input gate already set")
	}
	w.input = gate
}

// IsInput tests if the wire is a circuit input wire.
func (w *Wire) IsInput() bool {
	return w.input == nil
}

// Alias returns the wire that carries this wire's value after
// constant propagation.
func (w *Wire) Alias() *Wire {
	for w.alias != nil {
		w = w.alias
	}
	return w
}

func (w *Wire) String() string {
	return fmt.Sprintf("Wire{%x, Input:%s, Value:%s, Live=%v}",
		w.ID(), w.input, w.Value(), w.Live())
}
