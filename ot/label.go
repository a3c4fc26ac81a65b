//
// label.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Wire implements a wire with 0 and 1 labels.
type Wire struct {
	L0 Label
	L1 Label
}

func (w Wire) String() string {
	return fmt.Sprintf("%s/%s", w.L0, w.L1)
}

// Label implements a 128 bit wire label. Bits 0-63 are stored in D1
// and bits 64-127 in D0.
type Label struct {
	D0 uint64
	D1 uint64
}

// LabelData contains lable data as byte array.
type LabelData [16]byte

func (l Label) String() string {
	return fmt.Sprintf("%016x%016x", l.D0, l.D1)
}

// Equal test if the labels are equal.
func (l Label) Equal(o Label) bool {
	return l.D0 == o.D0 && l.D1 == o.D1
}

// NewLabel creates a new random label.
func NewLabel(rand io.Reader) (Label, error) {
	var buf LabelData
	var label Label

	if _, err := io.ReadFull(rand, buf[:]); err != nil {
		return label, err
	}
	label.SetData(&buf)
	return label, nil
}

// Bit returns the label's bit i.
func (l Label) Bit(i int) uint {
	if i < 64 {
		return uint((l.D1 >> i) & 1)
	}
	return uint((l.D0 >> (i - 64)) & 1)
}

// SetBit sets the label's bit i to the value v.
func (l *Label) SetBit(i int, v uint) {
	if i < 64 {
		l.D1 &^= 1 << i
		l.D1 |= uint64(v&1) << i
	} else {
		l.D0 &^= 1 << (i - 64)
		l.D0 |= uint64(v&1) << (i - 64)
	}
}

// Xor xors the label with the argument label.
func (l *Label) Xor(o Label) {
	l.D0 ^= o.D0
	l.D1 ^= o.D1
}

// And ands the label with the argument label.
func (l *Label) And(o Label) {
	l.D0 &= o.D0
	l.D1 &= o.D1
}

// GetData gets the labels as label data.
func (l Label) GetData(buf *LabelData) {
	binary.BigEndian.PutUint64(buf[0:8], l.D0)
	binary.BigEndian.PutUint64(buf[8:16], l.D1)
}

// SetData sets the labels from label data.
func (l *Label) SetData(data *LabelData) {
	l.D0 = binary.BigEndian.Uint64((*data)[0:8])
	l.D1 = binary.BigEndian.Uint64((*data)[8:16])
}

// Bytes returns the label data as bytes.
func (l Label) Bytes(buf *LabelData) []byte {
	l.GetData(buf)
	return buf[:]
}

// SetBytes sets the label data from bytes. Data shorter than 16 bytes
// is treated as a big-endian number.
func (l *Label) SetBytes(data []byte) {
	var buf LabelData
	if len(data) > len(buf) {
		data = data[len(data)-len(buf):]
	}
	copy(buf[len(buf)-len(data):], data)
	l.SetData(&buf)
}
