//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/circuits"
)

// SharingKind specifies the secret sharing scheme of a circuit.
type SharingKind int

// Sharing kinds.
const (
	Boolean SharingKind = iota
	Arithmetic
	Yao
)

var sharingKinds = map[SharingKind]string{
	Boolean:    "boolean",
	Arithmetic: "arithmetic",
	Yao:        "yao",
}

func (k SharingKind) String() string {
	name, ok := sharingKinds[k]
	if ok {
		return name
	}
	return fmt.Sprintf("{SharingKind %d}", int(k))
}

// ParseSharingKind parses the sharing kind name.
func ParseSharingKind(name string) (SharingKind, error) {
	for k, n := range sharingKinds {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown sharing kind '%s'", name)
}

// Builder defines the circuit construction operations that are
// common to all sharing kinds.
type Builder interface {
	// Kind returns the builder's sharing kind.
	Kind() SharingKind

	// PutINGate adds an input owned by the party owner.
	PutINGate(values []uint64, bitlen int, owner Role) (*Share, error)

	// PutSharedINGate adds an input that both parties contribute as
	// XOR shares.
	PutSharedINGate(values []uint64, bitlen int) (*Share, error)

	// PutDummyINGate adds a placeholder for an input owned by the
	// peer.
	PutDummyINGate(count, bitlen int) (*Share, error)

	// PutCONSGate adds a public constant.
	PutCONSGate(value uint64, bitlen int) (*Share, error)

	// PutOUTGate marks the share as an output revealed to the
	// receiver.
	PutOUTGate(s *Share, receiver Role) (*Share, error)
}

var (
	_ Builder = &BooleanCircuit{}
)

// BooleanCircuit builds a Boolean circuit over XOR-shared wires. The
// two parties must build structurally identical circuits: each input
// owned by a party is added with PutINGate by the owner and with
// PutDummyINGate by its peer.
type BooleanCircuit struct {
	role     Role
	cc       *circuits.Compiler
	inputs   []*big.Int
	outputs  []*Share
	compiled *circuit.Circuit
	executed bool
}

// NewBooleanCircuit creates a detached circuit builder for the
// role. A detached builder compiles circuits but it cannot execute
// them; use Party.BooleanCircuit for executable circuits.
func NewBooleanCircuit(role Role, verbose bool) *BooleanCircuit {
	return &BooleanCircuit{
		role: role,
		cc: circuits.NewCompiler(&circuits.Params{
			Diagnostics: verbose,
		}),
	}
}

// Role returns the role of the party building the circuit.
func (bc *BooleanCircuit) Role() Role {
	return bc.role
}

// Share is a vector of Count values of Bitlen wires each. The share
// of an output gate holds the revealed values after execution.
type Share struct {
	bc       *BooleanCircuit
	wires    []*circuits.Wire
	bitlen   int
	count    int
	output   int
	receiver Role
	values   []uint64
}

// Bitlen returns the bit width of the share values.
func (s *Share) Bitlen() int {
	return s.bitlen
}

// Count returns the number of values in the share.
func (s *Share) Count() int {
	return s.count
}

func (s *Share) element(i int) []*circuits.Wire {
	return s.wires[i*s.bitlen : (i+1)*s.bitlen]
}

// RevealClearValues returns the clear values of an output share
// after the circuit has been executed. Only the output receiver can
// reveal the values.
func (s *Share) RevealClearValues() (values []uint64, bitlen, count int,
	err error) {

	bc := s.bc
	if s.output < 0 {
		return nil, 0, 0, precondition(bc.role, StageReveal,
			"share is not an output")
	}
	if s.receiver != bc.role {
		return nil, 0, 0, stageError(bc.role, StageReveal,
			errors.Wrapf(ErrRevealAuthorization,
				"output %d is revealed to P%s", s.output,
				s.receiver.IDString()))
	}
	if !bc.executed {
		return nil, 0, 0, precondition(bc.role, StageReveal,
			"circuit not executed")
	}
	result := make([]uint64, len(s.values))
	copy(result, s.values)
	return result, s.bitlen, s.count, nil
}

// Kind returns the builder's sharing kind.
func (bc *BooleanCircuit) Kind() SharingKind {
	return Boolean
}

// NumInputs returns the number of input arguments of the circuit.
func (bc *BooleanCircuit) NumInputs() int {
	return len(bc.cc.Inputs)
}

func (bc *BooleanCircuit) precondition(format string,
	a ...interface{}) error {
	return precondition(bc.role, StageBuild, format, a...)
}

func (bc *BooleanCircuit) check(shares ...*Share) error {
	if bc.compiled != nil {
		return bc.precondition("circuit already compiled")
	}
	for _, s := range shares {
		if s == nil {
			return bc.precondition("nil share")
		}
		if s.bc != bc {
			return bc.precondition("share from another circuit")
		}
	}
	return nil
}

func (bc *BooleanCircuit) newShare(count, bitlen int) *Share {
	return &Share{
		bc:     bc,
		wires:  bc.cc.Calloc.Wires(count * bitlen),
		bitlen: bitlen,
		count:  count,
		output: -1,
	}
}

func (bc *BooleanCircuit) checkBitlen(bitlen int) error {
	if bitlen < 1 || bitlen > 64 {
		return bc.precondition("invalid bitlen %d", bitlen)
	}
	return nil
}

func (bc *BooleanCircuit) addInput(party, count, bitlen int,
	value *big.Int) *Share {

	arg := circuit.IOArg{
		Name:  fmt.Sprintf("in%d", len(bc.cc.Inputs)),
		Party: party,
		Bits:  bitlen,
		Count: count,
	}
	wires := bc.cc.AddInput(arg)
	bc.inputs = append(bc.inputs, value)

	return &Share{
		bc:     bc,
		wires:  wires,
		bitlen: bitlen,
		count:  count,
		output: -1,
	}
}

func (bc *BooleanCircuit) pack(values []uint64, bitlen int) (*big.Int, error) {
	if err := bc.checkBitlen(bitlen); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, bc.precondition("no input values")
	}
	arg := circuit.IOArg{
		Bits:  bitlen,
		Count: len(values),
	}
	v, err := arg.Pack(values)
	if err != nil {
		return nil, bc.precondition("%v", err)
	}
	return v, nil
}

// PutINGate adds an input owned by the party owner. The owner must
// be this party; the peer adds the matching input with
// PutDummyINGate.
func (bc *BooleanCircuit) PutINGate(values []uint64, bitlen int,
	owner Role) (*Share, error) {

	if err := bc.check(); err != nil {
		return nil, err
	}
	if owner != bc.role {
		return nil, bc.precondition("input owned by P%s: use PutDummyINGate",
			owner.IDString())
	}
	v, err := bc.pack(values, bitlen)
	if err != nil {
		return nil, err
	}
	return bc.addInput(int(owner), len(values), bitlen, v), nil
}

// PutSharedINGate adds an input that both parties contribute as XOR
// shares. Both parties call PutSharedINGate with their shares.
func (bc *BooleanCircuit) PutSharedINGate(values []uint64, bitlen int) (
	*Share, error) {

	if err := bc.check(); err != nil {
		return nil, err
	}
	v, err := bc.pack(values, bitlen)
	if err != nil {
		return nil, err
	}
	return bc.addInput(circuit.Shared, len(values), bitlen, v), nil
}

// PutDummyINGate adds a placeholder for count values of an input
// owned by the peer.
func (bc *BooleanCircuit) PutDummyINGate(count, bitlen int) (*Share, error) {
	if err := bc.check(); err != nil {
		return nil, err
	}
	if err := bc.checkBitlen(bitlen); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, bc.precondition("invalid count %d", count)
	}
	return bc.addInput(int(bc.role.Peer()), count, bitlen, nil), nil
}

// PutCONSGate adds a public constant. The constant gates are derived
// from the input wires so the circuit must have at least one input.
func (bc *BooleanCircuit) PutCONSGate(value uint64, bitlen int) (
	*Share, error) {

	if err := bc.check(); err != nil {
		return nil, err
	}
	if err := bc.checkBitlen(bitlen); err != nil {
		return nil, err
	}
	if bitlen < 64 && value>>bitlen != 0 {
		return nil, bc.precondition("constant %d does not fit in %d bits",
			value, bitlen)
	}
	if len(bc.cc.InputWires) == 0 {
		return nil, bc.precondition("constant before inputs")
	}
	return &Share{
		bc:     bc,
		wires:  bc.cc.ConstWires(value, bitlen),
		bitlen: bitlen,
		count:  1,
		output: -1,
	}, nil
}

// Element returns the element i of the share.
func (bc *BooleanCircuit) Element(s *Share, i int) (*Share, error) {
	if err := bc.check(s); err != nil {
		return nil, err
	}
	if i < 0 || i >= s.count {
		return nil, bc.precondition("element %d out of range [0,%d)",
			i, s.count)
	}
	return &Share{
		bc:     bc,
		wires:  s.element(i),
		bitlen: s.bitlen,
		count:  1,
		output: -1,
	}, nil
}

type gateFunc func(cc *circuits.Compiler, x, y, z []*circuits.Wire) error

// elementwise applies the gate function to the elements of a and b.
func (bc *BooleanCircuit) elementwise(name string, a, b *Share, bitlen int,
	gate gateFunc) (*Share, error) {

	if err := bc.check(a, b); err != nil {
		return nil, err
	}
	if a.count != b.count {
		return nil, bc.precondition("%s: count mismatch: %d != %d",
			name, a.count, b.count)
	}
	if a.bitlen != b.bitlen {
		return nil, bc.precondition("%s: bitlen mismatch: %d != %d",
			name, a.bitlen, b.bitlen)
	}
	if bitlen == 0 {
		bitlen = a.bitlen
	}
	result := bc.newShare(a.count, bitlen)
	for i := 0; i < a.count; i++ {
		err := gate(bc.cc, a.element(i), b.element(i), result.element(i))
		if err != nil {
			return nil, bc.precondition("%s: %v", name, err)
		}
	}
	return result, nil
}

// PutADDGate adds a+b mod 2^bitlen.
func (bc *BooleanCircuit) PutADDGate(a, b *Share) (*Share, error) {
	return bc.elementwise("ADD", a, b, 0, circuits.NewAdder)
}

// PutSUBGate adds a-b mod 2^bitlen.
func (bc *BooleanCircuit) PutSUBGate(a, b *Share) (*Share, error) {
	return bc.elementwise("SUB", a, b, 0, circuits.NewSubtractor)
}

// PutGTGate adds the unsigned comparison a>b. The result values are
// 1 bit wide.
func (bc *BooleanCircuit) PutGTGate(a, b *Share) (*Share, error) {
	return bc.elementwise("GT", a, b, 1, circuits.NewGtComparator)
}

// PutEQGate adds the comparison a==b. The result values are 1 bit
// wide.
func (bc *BooleanCircuit) PutEQGate(a, b *Share) (*Share, error) {
	return bc.elementwise("EQ", a, b, 1, circuits.NewEqComparator)
}

// PutXORGate adds the bitwise a^b.
func (bc *BooleanCircuit) PutXORGate(a, b *Share) (*Share, error) {
	return bc.elementwise("XOR", a, b, 0, circuits.NewBinaryXOR)
}

// PutANDGate adds the bitwise a&b.
func (bc *BooleanCircuit) PutANDGate(a, b *Share) (*Share, error) {
	return bc.elementwise("AND", a, b, 0, circuits.NewBinaryAND)
}

// PutORGate adds the bitwise a|b.
func (bc *BooleanCircuit) PutORGate(a, b *Share) (*Share, error) {
	return bc.elementwise("OR", a, b, 0, circuits.NewBinaryOR)
}

// PutINVGate adds the bitwise ^a.
func (bc *BooleanCircuit) PutINVGate(a *Share) (*Share, error) {
	if err := bc.check(a); err != nil {
		return nil, err
	}
	result := bc.newShare(a.count, a.bitlen)
	if err := circuits.NewBinaryINV(bc.cc, a.wires, result.wires); err != nil {
		return nil, bc.precondition("INV: %v", err)
	}
	return result, nil
}

// PutMaxGate adds the unsigned max(a,b). On ties the result is b.
func (bc *BooleanCircuit) PutMaxGate(a, b *Share) (*Share, error) {
	return bc.elementwise("MAX", a, b, 0, circuits.NewMax)
}

// PutModADDGate adds (a+b) mod q for a and b in [0,q).
func (bc *BooleanCircuit) PutModADDGate(a, b *Share, q uint64) (
	*Share, error) {

	if q == 0 || (a != nil && a.bitlen < 64 && q > 1<<a.bitlen) {
		return nil, bc.precondition("invalid modulus %d", q)
	}
	return bc.elementwise("MODADD", a, b, 0,
		func(cc *circuits.Compiler, x, y, z []*circuits.Wire) error {
			return circuits.NewModAdder(cc, x, y, q, z)
		})
}

// PutMUXGate adds sel ? t : f. The selector values are 1 bit wide
// and sel has one value for each element or a single value for all
// elements.
func (bc *BooleanCircuit) PutMUXGate(sel, t, f *Share) (*Share, error) {
	if err := bc.check(sel, t, f); err != nil {
		return nil, err
	}
	if sel.bitlen != 1 {
		return nil, bc.precondition("MUX: invalid selector bitlen %d",
			sel.bitlen)
	}
	if t.count != f.count || t.bitlen != f.bitlen {
		return nil, bc.precondition("MUX: argument mismatch: %dx%d != %dx%d",
			t.count, t.bitlen, f.count, f.bitlen)
	}
	if sel.count != 1 && sel.count != t.count {
		return nil, bc.precondition("MUX: selector count mismatch: %d != %d",
			sel.count, t.count)
	}
	result := bc.newShare(t.count, t.bitlen)
	for i := 0; i < t.count; i++ {
		s := sel.wires[0:1]
		if sel.count > 1 {
			s = sel.element(i)
		}
		err := circuits.NewMUX(bc.cc, s, t.element(i), f.element(i),
			result.element(i))
		if err != nil {
			return nil, bc.precondition("MUX: %v", err)
		}
	}
	return result, nil
}

// PutMaxTreeGate reduces the share's elements to their maximum with
// a balanced tree of comparators.
func (bc *BooleanCircuit) PutMaxTreeGate(s *Share) (*Share, error) {
	return bc.reduce("MAXTREE", s, circuits.NewMaxTree)
}

// PutMaxChainGate reduces the share's elements to their maximum with
// a linear chain of comparators.
func (bc *BooleanCircuit) PutMaxChainGate(s *Share) (*Share, error) {
	return bc.reduce("MAXCHAIN", s, circuits.NewMaxChain)
}

func (bc *BooleanCircuit) reduce(name string, s *Share,
	fn func(cc *circuits.Compiler, values [][]*circuits.Wire) (
		[]*circuits.Wire, error)) (*Share, error) {

	if err := bc.check(s); err != nil {
		return nil, err
	}
	values := make([][]*circuits.Wire, s.count)
	for i := range values {
		values[i] = s.element(i)
	}
	wires, err := fn(bc.cc, values)
	if err != nil {
		return nil, bc.precondition("%s: %v", name, err)
	}
	return &Share{
		bc:     bc,
		wires:  wires,
		bitlen: s.bitlen,
		count:  1,
		output: -1,
	}, nil
}

// Concat concatenates the elements of the shares into one share.
func (bc *BooleanCircuit) Concat(shares ...*Share) (*Share, error) {
	if err := bc.check(shares...); err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return nil, bc.precondition("no shares")
	}
	result := &Share{
		bc:     bc,
		bitlen: shares[0].bitlen,
		output: -1,
	}
	for _, s := range shares {
		if s.bitlen != result.bitlen {
			return nil, bc.precondition("bitlen mismatch: %d != %d",
				s.bitlen, result.bitlen)
		}
		result.wires = append(result.wires, s.wires...)
		result.count += s.count
	}
	return result, nil
}

// PutOUTGate marks the share as an output revealed only to the
// receiver. The function returns the output share.
func (bc *BooleanCircuit) PutOUTGate(s *Share, receiver Role) (
	*Share, error) {

	if err := bc.check(s); err != nil {
		return nil, err
	}
	if !receiver.Valid() {
		return nil, bc.precondition("invalid receiver %v", receiver)
	}
	arg := circuit.IOArg{
		Name:  fmt.Sprintf("out%d", len(bc.outputs)),
		Party: int(receiver),
		Bits:  s.bitlen,
		Count: s.count,
	}
	if err := bc.cc.AddOutput(arg, s.wires); err != nil {
		return nil, bc.precondition("%v", err)
	}
	out := &Share{
		bc:       bc,
		wires:    s.wires,
		bitlen:   s.bitlen,
		count:    s.count,
		output:   len(bc.outputs),
		receiver: receiver,
	}
	bc.outputs = append(bc.outputs, out)
	return out, nil
}

// Compile optimizes and compiles the circuit. The circuit can't be
// modified after it has been compiled.
func (bc *BooleanCircuit) Compile() (*circuit.Circuit, error) {
	if bc.compiled != nil {
		return bc.compiled, nil
	}
	if len(bc.outputs) == 0 {
		return nil, bc.precondition("no outputs")
	}
	bc.cc.ConstPropagate()
	bc.cc.Prune()
	circ, err := bc.cc.Compile()
	if err != nil {
		return nil, bc.precondition("%v", err)
	}
	bc.compiled = circ
	return circ, nil
}

// setResult stores the output values revealed to this party.
func (bc *BooleanCircuit) setResult(values []*big.Int) {
	for idx, out := range bc.outputs {
		if values[idx] == nil {
			continue
		}
		out.values = bc.compiled.Outputs[idx].Unpack(values[idx])
	}
	bc.executed = true
}
