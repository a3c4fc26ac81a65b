//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package maxpool

import (
	"fmt"

	"github.com/markkurossi/maxpool/party"
)

// Order specifies the shape of the maximum reduction network.
type Order int

// Reduction orders.
const (
	OrderTree Order = iota
	OrderChain
)

var orders = map[Order]string{
	OrderTree:  "tree",
	OrderChain: "chain",
}

func (o Order) String() string {
	name, ok := orders[o]
	if ok {
		return name
	}
	return fmt.Sprintf("{Order %d}", int(o))
}

// ParseOrder parses the reduction order name.
func ParseOrder(name string) (Order, error) {
	for o, n := range orders {
		if n == name {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown reduction order '%s'", name)
}

// Params define the maxpool computation parameters. Both parties
// must use the same parameters.
type Params struct {
	// N is the number of vector elements.
	N int

	// Modulus is the public modulus q of the additive shares.
	Modulus uint64

	// Bitlen is the wire width of the values.
	Bitlen int

	// MaskingRole is the party that injects the mask r. The result
	// is revealed to its peer.
	MaskingRole party.Role

	// Order selects the shape of the reduction network.
	Order Order
}

// DefaultBitlen defines the default wire width.
const DefaultBitlen = 64

// Validate checks the parameter values.
func (p Params) Validate() error {
	if p.N < 1 {
		return fmt.Errorf("invalid vector length %d", p.N)
	}
	if p.Modulus < 1 {
		return fmt.Errorf("invalid modulus %d", p.Modulus)
	}
	if p.Bitlen < 1 || p.Bitlen > 64 {
		return fmt.Errorf("invalid bitlen %d", p.Bitlen)
	}
	if p.Bitlen < 64 && p.Modulus > 1<<p.Bitlen {
		return fmt.Errorf("modulus %d does not fit in %d bits",
			p.Modulus, p.Bitlen)
	}
	if !p.MaskingRole.Valid() {
		return fmt.Errorf("invalid masking role %v", p.MaskingRole)
	}
	if _, ok := orders[p.Order]; !ok {
		return fmt.Errorf("invalid reduction order %v", p.Order)
	}
	return nil
}

// RevealRole returns the role of the party receiving the result.
func (p Params) RevealRole() party.Role {
	return p.MaskingRole.Peer()
}
