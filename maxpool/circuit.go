//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package maxpool implements the secure two-party maximum reduction
// over additive shares. The parties hold additive shares modulo q of
// a private vector x. They jointly compute (max(x) + r) mod q where
// the mask r is a private input of one party, and reveal the result
// only to the other party.
package maxpool

import (
	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/party"
)

func precondition(role party.Role, stage party.Stage, format string,
	a ...interface{}) error {

	return &party.StageError{
		Role:  role,
		Stage: stage,
		Err: errors.Mark(errors.Newf(format, a...),
			party.ErrPrecondition),
	}
}

// Elements returns the vector elements (a[i] + b[i]) mod q for the
// share vectors a and b.
func Elements(bc *party.BooleanCircuit, a, b *party.Share, q uint64) (
	*party.Share, error) {

	return bc.PutModADDGate(a, b, q)
}

// Reduce reduces the elements to their maximum. A single element is
// returned as-is. If several elements attain the maximum, the result
// is their common value.
func Reduce(bc *party.BooleanCircuit, elements *party.Share, order Order) (
	*party.Share, error) {

	if bc == nil {
		return nil, errors.Mark(errors.New("no circuit builder"),
			party.ErrPrecondition)
	}
	if elements == nil || elements.Count() == 0 {
		return nil, precondition(bc.Role(), party.StageBuild,
			"max of empty vector")
	}
	if elements.Count() == 1 {
		return bc.Element(elements, 0)
	}
	switch order {
	case OrderTree:
		return bc.PutMaxTreeGate(elements)
	case OrderChain:
		return bc.PutMaxChainGate(elements)
	default:
		return nil, precondition(bc.Role(), party.StageBuild,
			"invalid order %v", order)
	}
}

// Mask returns (m + r) mod q.
func Mask(bc *party.BooleanCircuit, m, r *party.Share, q uint64) (
	*party.Share, error) {

	return bc.PutModADDGate(m, r, q)
}

// Build builds the maxpool circuit for the party p. The shares are
// the party's additive shares in [0,q) and mask is the party's mask
// value. The mask must be 0 for the party receiving the result. The
// function returns the output share that is revealed to the
// non-masking party.
func Build(p *party.Party, params Params, shares []uint64, mask uint64) (
	*party.Share, error) {

	bc, err := p.BooleanCircuit(party.Boolean)
	if err != nil {
		return nil, err
	}
	return BuildCircuit(bc, params, shares, mask)
}

// Circuit compiles the maxpool circuit for the parameters. The
// circuit is identical for both parties.
func Circuit(params Params) (*circuit.Circuit, error) {
	if params.Bitlen == 0 {
		params.Bitlen = DefaultBitlen
	}
	bc := party.NewBooleanCircuit(params.MaskingRole, false)
	_, err := BuildCircuit(bc, params, make([]uint64, params.N), 0)
	if err != nil {
		return nil, err
	}
	return bc.Compile()
}

func validate(role party.Role, params Params, shares []uint64,
	mask uint64) error {

	if err := params.Validate(); err != nil {
		return precondition(role, party.StageBuild, "%v", err)
	}
	if len(shares) != params.N {
		return precondition(role, party.StageBuild,
			"share length mismatch: got %d, expected %d",
			len(shares), params.N)
	}
	q := params.Modulus
	for i, v := range shares {
		if v >= q {
			return precondition(role, party.StageBuild,
				"share %d out of range: %d >= %d", i, v, q)
		}
	}
	if mask >= q {
		return precondition(role, party.StageBuild,
			"mask out of range: %d >= %d", mask, q)
	}
	if role != params.MaskingRole && mask != 0 {
		return precondition(role, party.StageBuild,
			"mask set by non-masking party")
	}
	return nil
}

// BuildCircuit builds the maxpool circuit with the builder bc. The
// circuit inputs are the server's share vector, the client's share
// vector, and the mask. Each party provides its own inputs and
// placeholders for its peer's inputs so the parties build identical
// circuits.
func BuildCircuit(bc *party.BooleanCircuit, params Params, shares []uint64,
	mask uint64) (*party.Share, error) {

	role := bc.Role()
	if err := validate(role, params, shares, mask); err != nil {
		return nil, err
	}
	if bc.NumInputs() != 0 {
		return nil, precondition(role, party.StageBuild,
			"circuit already built")
	}

	var err error
	var inputs [2]*party.Share
	for _, owner := range []party.Role{party.Server, party.Client} {
		if owner == role {
			inputs[owner], err = bc.PutINGate(shares, params.Bitlen, owner)
		} else {
			inputs[owner], err = bc.PutDummyINGate(params.N, params.Bitlen)
		}
		if err != nil {
			return nil, err
		}
	}
	var r *party.Share
	if role == params.MaskingRole {
		r, err = bc.PutINGate([]uint64{mask}, params.Bitlen, role)
	} else {
		r, err = bc.PutDummyINGate(1, params.Bitlen)
	}
	if err != nil {
		return nil, err
	}

	elements, err := Elements(bc, inputs[party.Server], inputs[party.Client],
		params.Modulus)
	if err != nil {
		return nil, err
	}
	m, err := Reduce(bc, elements, params.Order)
	if err != nil {
		return nil, err
	}
	masked, err := Mask(bc, m, r, params.Modulus)
	if err != nil {
		return nil, err
	}
	return bc.PutOUTGate(masked, params.RevealRole())
}
