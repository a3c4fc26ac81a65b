//
// label_test.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"testing"
)

func TestLabelBits(t *testing.T) {
	var label Label

	for i := 0; i < 128; i++ {
		if label.Bit(i) != 0 {
			t.Fatalf("bit %d set in zero label", i)
		}
		label.SetBit(i, 1)
		if label.Bit(i) != 1 {
			t.Fatalf("SetBit(%d, 1) failed: %v", i, label)
		}
	}
	if label.D0 != 0xffffffffffffffff || label.D1 != 0xffffffffffffffff {
		t.Fatalf("unexpected all-ones label: %v", label)
	}
	label.SetBit(0, 0)
	label.SetBit(127, 0)
	if label.D1 != 0xfffffffffffffffe {
		t.Errorf("SetBit(0, 0) failed: %x", label.D1)
	}
	if label.D0 != 0x7fffffffffffffff {
		t.Errorf("SetBit(127, 0) failed: %x", label.D0)
	}
}

func TestLabelData(t *testing.T) {
	l, err := NewLabel(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	var ld LabelData
	var l2 Label
	l2.SetBytes(l.Bytes(&ld))
	if !l.Equal(l2) {
		t.Errorf("SetBytes(Bytes()) mismatch: %v != %v", l, l2)
	}

	var short Label
	short.SetBytes([]byte{0x01, 0x02})
	if short.D0 != 0 || short.D1 != 0x0102 {
		t.Errorf("SetBytes short: got %v", short)
	}

	a := Label{D0: 0xff00ff00ff00ff00, D1: 0x0f0f0f0f0f0f0f0f}
	b := Label{D0: 0xffffffff00000000, D1: 0x00000000ffffffff}
	x := a
	x.Xor(b)
	if x.D0 != 0x00ff00ffff00ff00 || x.D1 != 0x0f0f0f0ff0f0f0f0 {
		t.Errorf("Xor: got %v", x)
	}
	a.And(b)
	if a.D0 != 0xff00ff0000000000 || a.D1 != 0x000000000f0f0f0f {
		t.Errorf("And: got %v", a)
	}
}
