//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package circuits

import (
	"fmt"
)

// NewMax creates a circuit implementing z=max(x,y) for unsigned x
// and y. The output z must be as wide as the wider input.
func NewMax(cc *Compiler, x, y, z []*Wire) error {
	gt := cc.Calloc.Wire()
	if err := NewGtComparator(cc, x, y, []*Wire{gt}); err != nil {
		return err
	}
	return NewMUX(cc, []*Wire{gt}, x, y, z)
}

// NewMaxTree creates a balanced pairwise maximum reduction of the
// argument values. The function returns the output wires of the
// maximum.
func NewMaxTree(cc *Compiler, values [][]*Wire) ([]*Wire, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("max of empty set")
	}
	for len(values) > 1 {
		var next [][]*Wire
		for i := 0; i < len(values); i += 2 {
			if i+1 >= len(values) {
				next = append(next, values[i])
				continue
			}
			z := cc.Calloc.Wires(width(values[i], values[i+1]))
			if err := NewMax(cc, values[i], values[i+1], z); err != nil {
				return nil, err
			}
			next = append(next, z)
		}
		values = next
	}
	return values[0], nil
}

// NewMaxChain creates a linear maximum reduction of the argument
// values. The function returns the output wires of the maximum.
func NewMaxChain(cc *Compiler, values [][]*Wire) ([]*Wire, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("max of empty set")
	}
	acc := values[0]
	for i := 1; i < len(values); i++ {
		z := cc.Calloc.Wires(width(acc, values[i]))
		if err := NewMax(cc, acc, values[i], z); err != nil {
			return nil, err
		}
		acc = z
	}
	return acc, nil
}

func width(x, y []*Wire) int {
	if len(x) > len(y) {
		return len(x)
	}
	return len(y)
}
