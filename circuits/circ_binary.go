//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuits

import (
	"fmt"

	"github.com/markkurossi/maxpool/circuit"
)

func binaryArgs(cc *Compiler, x, y, r []*Wire) ([]*Wire, []*Wire, error) {
	x, y = cc.ZeroPad(x, y)
	if len(r) != len(x) {
		return nil, nil, fmt.Errorf("invalid binary arguments: x=%d, y=%d, r=%d",
			len(x), len(y), len(r))
	}
	return x, y, nil
}

// NewBinaryAND creates a new binary AND circuit implementing r=x&y
func NewBinaryAND(cc *Compiler, x, y, r []*Wire) error {
	x, y, err := binaryArgs(cc, x, y, r)
	if err != nil {
		return err
	}
	for i := 0; i < len(x); i++ {
		cc.AddGate(cc.Calloc.BinaryGate(circuit.AND, x[i], y[i], r[i]))
	}
	return nil
}

// NewBinaryOR creates a new binary OR circuit implementing r=x|y.
func NewBinaryOR(cc *Compiler, x, y, r []*Wire) error {
	x, y, err := binaryArgs(cc, x, y, r)
	if err != nil {
		return err
	}
	for i := 0; i < len(x); i++ {
		cc.OR(x[i], y[i], r[i])
	}
	return nil
}

// NewBinaryXOR creates a new binary XOR circuit implementing r=x^y.
func NewBinaryXOR(cc *Compiler, x, y, r []*Wire) error {
	x, y, err := binaryArgs(cc, x, y, r)
	if err != nil {
		return err
	}
	for i := 0; i < len(x); i++ {
		cc.AddGate(cc.Calloc.BinaryGate(circuit.XOR, x[i], y[i], r[i]))
	}
	return nil
}

// NewBinaryINV creates a new binary inverse circuit implementing
// r=^x.
func NewBinaryINV(cc *Compiler, x, r []*Wire) error {
	if len(x) != len(r) {
		return fmt.Errorf("invalid inv arguments: x=%d, r=%d", len(x), len(r))
	}
	for i := 0; i < len(x); i++ {
		cc.INV(x[i], r[i])
	}
	return nil
}
