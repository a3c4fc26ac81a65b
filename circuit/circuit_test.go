//
// Copyright (c) 2022-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

import (
	"bytes"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/markkurossi/maxpool/p2p"
)

// fullAdder returns a circuit computing s=a+b+c for 1-bit inputs
// a, b, and c. The output is the 2-bit sum.
func fullAdder() *Circuit {
	c := &Circuit{
		Inputs: IO{
			{Name: "a", Party: 0, Bits: 1, Count: 1},
			{Name: "b", Party: 1, Bits: 1, Count: 1},
			{Name: "c", Party: Shared, Bits: 1, Count: 1},
		},
		Outputs: IO{
			{Name: "s", Party: 1, Bits: 2, Count: 1},
		},
		Gates: []Gate{
			{Input0: 1, Input1: 2, Output: 3, Op: XOR},
			{Input0: 0, Input1: 2, Output: 4, Op: XOR},
			{Input0: 3, Input1: 4, Output: 5, Op: AND},
			{Input0: 0, Input1: 3, Output: 6, Op: XOR},
			{Input0: 2, Input1: 5, Output: 7, Op: XOR},
		},
	}
	c.NumGates = len(c.Gates)
	c.NumWires = 8
	for _, g := range c.Gates {
		c.Stats[g.Op]++
	}
	return c
}

func TestCompute(t *testing.T) {
	c := fullAdder()
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	for a := int64(0); a < 2; a++ {
		for b := int64(0); b < 2; b++ {
			for cin := int64(0); cin < 2; cin++ {
				out, err := c.Compute([]*big.Int{
					big.NewInt(a), big.NewInt(b), big.NewInt(cin),
				})
				if err != nil {
					t.Fatalf("Compute: %v", err)
				}
				if out[0].Int64() != a+b+cin {
					t.Errorf("%d+%d+%d: got %v", a, b, cin, out[0])
				}
			}
		}
	}
	_, err := c.Compute([]*big.Int{big.NewInt(0)})
	if err == nil {
		t.Errorf("Compute accepted too few inputs")
	}
}

func TestComputeGates(t *testing.T) {
	tests := []struct {
		op     Operation
		expect [4]int64
	}{
		{XOR, [4]int64{0, 1, 1, 0}},
		{XNOR, [4]int64{1, 0, 0, 1}},
		{AND, [4]int64{0, 0, 0, 1}},
		{OR, [4]int64{0, 1, 1, 1}},
		{INV, [4]int64{1, 0, 1, 0}},
	}
	for _, test := range tests {
		c := &Circuit{
			NumGates: 1,
			NumWires: 3,
			Inputs: IO{
				{Name: "x", Bits: 1, Count: 1},
				{Name: "y", Party: 1, Bits: 1, Count: 1},
			},
			Outputs: IO{
				{Name: "z", Bits: 1, Count: 1},
			},
			Gates: []Gate{
				{Input0: 1, Input1: 0, Output: 2, Op: test.op},
			},
		}
		c.Stats[test.op]++
		if test.op == INV {
			c.Gates[0].Input0 = 0
		}
		for i := int64(0); i < 4; i++ {
			out, err := c.Compute([]*big.Int{
				big.NewInt(i & 1), big.NewInt(i >> 1),
			})
			if err != nil {
				t.Fatalf("%s: %v", test.op, err)
			}
			if out[0].Int64() != test.expect[i] {
				t.Errorf("%s(%d,%d): got %v, expected %v",
					test.op, i&1, i>>1, out[0], test.expect[i])
			}
		}
	}
}

func TestValidate(t *testing.T) {
	c := fullAdder()
	c.Gates[0].Input0 = 7
	if err := c.Validate(); err == nil {
		t.Errorf("Validate accepted unassigned input wire")
	}

	c = fullAdder()
	c.Gates[1].Output = 3
	if err := c.Validate(); err == nil {
		t.Errorf("Validate accepted reassigned output wire")
	}

	c = fullAdder()
	c.Stats[OR]++
	if err := c.Validate(); err == nil {
		t.Errorf("Validate accepted invalid stats")
	}
}

func TestLevels(t *testing.T) {
	c := fullAdder()
	levels := c.Levels()
	if len(levels) != 2 {
		t.Fatalf("got %d levels, expected 2", len(levels))
	}
	if len(levels[0].NonLinear) != 0 || len(levels[0].Linear) != 3 {
		t.Errorf("level 0: %v", levels[0])
	}
	if len(levels[1].NonLinear) != 1 || levels[1].NonLinear[0] != 2 {
		t.Errorf("level 1 non-linear: %v", levels[1].NonLinear)
	}
	if len(levels[1].Linear) != 1 || levels[1].Linear[0] != 4 {
		t.Errorf("level 1 linear: %v", levels[1].Linear)
	}
	if c.Depth() != 1 {
		t.Errorf("Depth: got %d, expected 1", c.Depth())
	}
}

func TestMarshal(t *testing.T) {
	c := fullAdder()

	data, err := c.Bytes()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.String() != c.String() {
		t.Errorf("Parse: got %v, expected %v", parsed, c)
	}
	if parsed.Inputs.String() != c.Inputs.String() {
		t.Errorf("Parse inputs: got %v, expected %v",
			parsed.Inputs, c.Inputs)
	}
	for idx, g := range parsed.Gates {
		if g != c.Gates[idx] {
			t.Errorf("gate %d: got %v, expected %v", idx, g, c.Gates[idx])
		}
	}

	d0, err := c.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	d1, err := parsed.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if !bytes.Equal(d0, d1) {
		t.Errorf("digest mismatch: %x != %x", d0, d1)
	}
	parsed.Outputs[0].Party = 0
	d1, err = parsed.Digest()
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if bytes.Equal(d0, d1) {
		t.Errorf("digest does not depend on output party")
	}

	data[0] ^= 0xff
	if _, err := Parse(bytes.NewReader(data)); err == nil {
		t.Errorf("Parse accepted invalid magic")
	}
}

func TestMarshalFormats(t *testing.T) {
	c := fullAdder()
	for _, format := range []string{"mpclc", "bristol", "dot"} {
		var buf bytes.Buffer
		if err := c.MarshalFormat(&buf, format); err != nil {
			t.Errorf("%s: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("%s: empty output", format)
		}
	}
	if err := c.MarshalFormat(&bytes.Buffer{}, "json"); err == nil {
		t.Errorf("unsupported format accepted")
	}
}

func TestIOArgPack(t *testing.T) {
	arg := IOArg{Name: "x", Bits: 4, Count: 3}
	v, err := arg.Pack([]uint64{1, 15, 8})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if v.Uint64() != 0x8f1 {
		t.Errorf("Pack: got %x, expected 8f1", v)
	}
	values := arg.Unpack(v)
	if values[0] != 1 || values[1] != 15 || values[2] != 8 {
		t.Errorf("Unpack: got %v", values)
	}
	if _, err := arg.Pack([]uint64{16, 0, 0}); err == nil {
		t.Errorf("Pack accepted overflowing value")
	}
	if _, err := arg.Pack([]uint64{1}); err == nil {
		t.Errorf("Pack accepted invalid count")
	}

	wide := IOArg{Name: "w", Bits: 64, Count: 2}
	v, err = wide.Pack([]uint64{1 << 63, 1})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	values = wide.Unpack(v)
	if values[0] != 1<<63 || values[1] != 1 {
		t.Errorf("Unpack: got %v", values)
	}
}

func TestTiming(t *testing.T) {
	stats := p2p.NewIOStats()
	stats.Sent.Add(500)

	timing := NewTiming(stats)
	stats.Sent.Add(1500)
	stats.Flushed.Add(2)
	sample := timing.Sample("Init")
	sample.AbsSubSample("Base OT", time.Millisecond)

	stats.Sent.Add(2 * 1000 * 1000)
	stats.Recvd.Add(1000)
	timing.Sample("Eval")

	if got := timing.Samples[0].Xfer; got != 1500 {
		t.Errorf("Init xfer: got %d, expected 1500", got)
	}
	if got := timing.Samples[0].Flushes; got != 2 {
		t.Errorf("Init flushes: got %d, expected 2", got)
	}
	if got := timing.Samples[1].Xfer; got != 2001000 {
		t.Errorf("Eval xfer: got %d, expected 2001000", got)
	}

	var buf bytes.Buffer
	timing.Fprint(&buf)
	out := buf.String()
	for _, s := range []string{"Init", "Base OT", "Eval", "Total", "2MB", "1kB"} {
		if !strings.Contains(out, s) {
			t.Errorf("report does not contain %q:\n%s", s, out)
		}
	}
}

func TestFileSize(t *testing.T) {
	tests := []struct {
		size     FileSize
		expected string
	}{
		{0, "0B"},
		{1000, "1000B"},
		{1001, "1kB"},
		{2500000, "2MB"},
		{3 * 1000 * 1000 * 1000 * 1000 * 1000, "3000TB"},
	}
	for _, test := range tests {
		if got := test.size.String(); got != test.expected {
			t.Errorf("FileSize(%d): got %s, expected %s",
				uint64(test.size), got, test.expected)
		}
	}
}
