//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

const (
	// MAGIC is a magic number for the circuit format version 1.
	MAGIC = 0x63726301 // crc1

	maxIOArgs = 1 << 16
)

var (
	bo = binary.BigEndian
)

// MarshalFormat marshals circuit in the specified format.
func (c *Circuit) MarshalFormat(out io.Writer, format string) error {
	switch format {
	case "mpclc":
		return c.Marshal(out)
	case "bristol":
		return c.MarshalBristol(out)
	case "dot":
		c.Dot(out)
		return nil
	default:
		return fmt.Errorf("unsupported circuit format: %s", format)
	}
}

// Marshal marshals circuit in the binary circuit format.
func (c *Circuit) Marshal(out io.Writer) error {
	var data = []interface{}{
		uint32(MAGIC),
		uint32(c.NumGates),
		uint32(c.NumWires),
		uint32(len(c.Inputs)),
		uint32(len(c.Outputs)),
	}
	for _, v := range data {
		if err := binary.Write(out, bo, v); err != nil {
			return err
		}
	}
	for _, input := range c.Inputs {
		if err := marshalIOArg(out, input); err != nil {
			return err
		}
	}
	for _, output := range c.Outputs {
		if err := marshalIOArg(out, output); err != nil {
			return err
		}
	}

	for _, g := range c.Gates {
		switch g.Op {
		case XOR, XNOR, AND, OR:
			data = []interface{}{
				byte(g.Op),
				uint32(g.Input0), uint32(g.Input1), uint32(g.Output),
			}

		case INV:
			data = []interface{}{
				byte(g.Op),
				uint32(g.Input0), uint32(g.Output),
			}
		default:
			return fmt.Errorf("unsupported gate type %s", g.Op)
		}
		for _, v := range data {
			if err := binary.Write(out, bo, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func marshalIOArg(out io.Writer, arg IOArg) error {
	if err := marshalString(out, arg.Name); err != nil {
		return err
	}
	var data = []interface{}{
		int32(arg.Party),
		uint32(arg.Bits),
		uint32(arg.Count),
	}
	for _, v := range data {
		if err := binary.Write(out, bo, v); err != nil {
			return err
		}
	}
	return nil
}

func marshalString(out io.Writer, val string) error {
	bytes := []byte(val)
	if err := binary.Write(out, bo, uint32(len(bytes))); err != nil {
		return err
	}
	_, err := out.Write(bytes)
	return err
}

// Digest returns the BLAKE2b-256 digest of the marshaled circuit.
func (c *Circuit) Digest() ([]byte, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(h)
	if err := c.Marshal(w); err != nil {
		return nil, err
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// Parse parses a circuit from the binary circuit format.
func Parse(in io.Reader) (*Circuit, error) {
	r := bufio.NewReader(in)

	var header [5]uint32
	if err := binary.Read(r, bo, header[:]); err != nil {
		return nil, err
	}
	if header[0] != MAGIC {
		return nil, fmt.Errorf("invalid magic number 0x%x", header[0])
	}
	if header[3] > maxIOArgs || header[4] > maxIOArgs {
		return nil, fmt.Errorf("invalid number of arguments: %d/%d",
			header[3], header[4])
	}
	c := &Circuit{
		NumGates: int(header[1]),
		NumWires: int(header[2]),
	}
	for i := 0; i < int(header[3]); i++ {
		arg, err := parseIOArg(r)
		if err != nil {
			return nil, err
		}
		c.Inputs = append(c.Inputs, arg)
	}
	for i := 0; i < int(header[4]); i++ {
		arg, err := parseIOArg(r)
		if err != nil {
			return nil, err
		}
		c.Outputs = append(c.Outputs, arg)
	}

	for i := 0; i < c.NumGates; i++ {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		var g Gate
		g.Op = Operation(op)

		switch g.Op {
		case XOR, XNOR, AND, OR:
			var w [3]uint32
			if err := binary.Read(r, bo, w[:]); err != nil {
				return nil, err
			}
			g.Input0 = Wire(w[0])
			g.Input1 = Wire(w[1])
			g.Output = Wire(w[2])

		case INV:
			var w [2]uint32
			if err := binary.Read(r, bo, w[:]); err != nil {
				return nil, err
			}
			g.Input0 = Wire(w[0])
			g.Output = Wire(w[1])

		default:
			return nil, fmt.Errorf("unsupported gate type %s", g.Op)
		}
		c.Gates = append(c.Gates, g)
		c.Stats[g.Op]++
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseIOArg(r io.Reader) (IOArg, error) {
	var arg IOArg

	var l uint32
	if err := binary.Read(r, bo, &l); err != nil {
		return arg, err
	}
	if l > 1024 {
		return arg, fmt.Errorf("argument name too long: %d", l)
	}
	name := make([]byte, l)
	if _, err := io.ReadFull(r, name); err != nil {
		return arg, err
	}
	var party int32
	if err := binary.Read(r, bo, &party); err != nil {
		return arg, err
	}
	var sizes [2]uint32
	if err := binary.Read(r, bo, sizes[:]); err != nil {
		return arg, err
	}
	arg.Name = string(name)
	arg.Party = int(party)
	arg.Bits = int(sizes[0])
	arg.Count = int(sizes[1])

	return arg, nil
}

// MarshalBristol marshals the circuit in the Bristol format.
func (c *Circuit) MarshalBristol(out io.Writer) error {
	fmt.Fprintf(out, "%d %d\n", c.NumGates, c.NumWires)
	fmt.Fprintf(out, "%d", len(c.Inputs))
	for _, input := range c.Inputs {
		fmt.Fprintf(out, " %d", input.Size())
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d", len(c.Outputs))
	for _, ret := range c.Outputs {
		fmt.Fprintf(out, " %d", ret.Size())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	for _, g := range c.Gates {
		fmt.Fprintf(out, "%d 1", len(g.Inputs()))
		for _, w := range g.Inputs() {
			fmt.Fprintf(out, " %d", w)
		}
		fmt.Fprintf(out, " %d", g.Output)
		fmt.Fprintf(out, " %s\n", g.Op)
	}

	return nil
}

// Bytes returns the circuit in the binary circuit format.
func (c *Circuit) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Marshal(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
