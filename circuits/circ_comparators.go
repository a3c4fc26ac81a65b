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

// The comparators are comparison trees. Each AND-depth level of the
// circuit costs a communication round in secret-shared evaluation so
// the comparators trade AND gates for a logarithmic AND-depth.

// cmpNode holds the comparison state of a run of bits: gt is 1 if
// the x bits are greater than the y bits, and eq is 1 if they are
// equal. The gt and eq can't be 1 at the same time.
type cmpNode struct {
	gt *Wire
	eq *Wire
}

func (cc *Compiler) binary(op circuit.Operation, a, b *Wire) *Wire {
	o := cc.Calloc.Wire()
	cc.AddGate(cc.Calloc.BinaryGate(op, a, b, o))
	return o
}

// greater sets r to x>y.
func greater(cc *Compiler, x, y []*Wire, r *Wire) error {
	x, y = cc.ZeroPad(x, y)
	if len(x) == 0 {
		return fmt.Errorf("invalid comparator arguments: x=%d", len(x))
	}

	// Leaves: gt = x&!y, eq = x XNOR y. The nodes are ordered from
	// the most significant bit down.
	nodes := make([]cmpNode, len(x))
	for i := range x {
		ny := cc.Calloc.Wire()
		cc.INV(y[i], ny)
		nodes[len(x)-1-i] = cmpNode{
			gt: cc.binary(circuit.AND, x[i], ny),
			eq: cc.binary(circuit.XNOR, x[i], y[i]),
		}
	}

	// Merge (hi, lo): gt = hi.gt ^ hi.eq&lo.gt, eq = hi.eq&lo.eq.
	for len(nodes) > 1 {
		var next []cmpNode
		for i := 0; i+1 < len(nodes); i += 2 {
			hi, lo := nodes[i], nodes[i+1]
			t := cc.binary(circuit.AND, hi.eq, lo.gt)
			next = append(next, cmpNode{
				gt: cc.binary(circuit.XOR, hi.gt, t),
				eq: cc.binary(circuit.AND, hi.eq, lo.eq),
			})
		}
		if len(nodes)%2 == 1 {
			next = append(next, nodes[len(nodes)-1])
		}
		nodes = next
	}
	cc.ID(nodes[0].gt, r)
	return nil
}

func result(r []*Wire, name string) error {
	if len(r) != 1 {
		return fmt.Errorf("invalid %s comparator arguments: r=%d",
			name, len(r))
	}
	return nil
}

// NewGtComparator tests if x>y.
func NewGtComparator(cc *Compiler, x, y, r []*Wire) error {
	if err := result(r, "gt"); err != nil {
		return err
	}
	return greater(cc, x, y, r[0])
}

// NewGeComparator tests if x>=y.
func NewGeComparator(cc *Compiler, x, y, r []*Wire) error {
	if err := result(r, "ge"); err != nil {
		return err
	}
	lt := cc.Calloc.Wire()
	if err := greater(cc, y, x, lt); err != nil {
		return err
	}
	cc.INV(lt, r[0])
	return nil
}

// NewLtComparator tests if x<y.
func NewLtComparator(cc *Compiler, x, y, r []*Wire) error {
	if err := result(r, "lt"); err != nil {
		return err
	}
	return greater(cc, y, x, r[0])
}

// NewLeComparator tests if x<=y.
func NewLeComparator(cc *Compiler, x, y, r []*Wire) error {
	if err := result(r, "le"); err != nil {
		return err
	}
	gt := cc.Calloc.Wire()
	if err := greater(cc, x, y, gt); err != nil {
		return err
	}
	cc.INV(gt, r[0])
	return nil
}

// NewNeqComparator tests if x!=y. The bit differences are combined
// with an OR tree.
func NewNeqComparator(cc *Compiler, x, y, r []*Wire) error {
	if err := result(r, "neq"); err != nil {
		return err
	}
	x, y = cc.ZeroPad(x, y)
	if len(x) == 0 {
		return fmt.Errorf("invalid neq comparator arguments: x=%d", len(x))
	}
	diff := make([]*Wire, len(x))
	for i := range x {
		diff[i] = cc.binary(circuit.XOR, x[i], y[i])
	}
	for len(diff) > 1 {
		var next []*Wire
		for i := 0; i+1 < len(diff); i += 2 {
			o := cc.Calloc.Wire()
			cc.OR(diff[i], diff[i+1], o)
			next = append(next, o)
		}
		if len(diff)%2 == 1 {
			next = append(next, diff[len(diff)-1])
		}
		diff = next
	}
	cc.ID(diff[0], r[0])
	return nil
}

// NewEqComparator tests if x==y.
func NewEqComparator(cc *Compiler, x, y, r []*Wire) error {
	if err := result(r, "eq"); err != nil {
		return err
	}
	neq := cc.Calloc.Wire()
	if err := NewNeqComparator(cc, x, y, []*Wire{neq}); err != nil {
		return err
	}
	cc.INV(neq, r[0])
	return nil
}
