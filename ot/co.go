//
// co.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//
// Chou Orlandi OT - The Simplest Protocol for Oblivious Transfer.
//  - https://eprint.iacr.org/2015/267.pdf

/*

This implementation is derived from the EMP Toolkit's co.h
(https://github.com/emp-toolkit/emp-ot/blob/master/emp-ot/co.h)
with original license as follows:

MIT License

Copyright (c) 2018 Xiao Wang (wangxiao1254@gmail.com)

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.

Enquiries about further applications and development opportunities are welcome.

*/

package ot

import (
	"crypto/elliptic"
	"fmt"
	"io"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

var (
	_ OT = &CO{}
)

// CO implements CO OT as the OT interface.
type CO struct {
	curve elliptic.Curve
	size  int
	rand  io.Reader
	io    IO
}

// NewCO creates a new CO OT over the P-256 curve.
func NewCO(r io.Reader) *CO {
	return NewCOWithCurve(r, elliptic.P256())
}

// NewCOWithCurve creates a new CO OT over the argument curve.
func NewCOWithCurve(r io.Reader, curve elliptic.Curve) *CO {
	return &CO{
		curve: curve,
		size:  (curve.Params().BitSize + 7) / 8,
		rand:  r,
	}
}

// point is an affine curve point.
type point struct {
	x, y *big.Int
}

// neg returns the inverse of the point: {x, -y}.
func (co *CO) neg(p point) point {
	return point{
		x: new(big.Int).Set(p.x),
		y: new(big.Int).Sub(co.curve.Params().P, p.y),
	}
}

func (co *CO) mul(p point, k []byte) point {
	x, y := co.curve.ScalarMult(p.x, p.y, k)
	return point{x, y}
}

func (co *CO) add(a, b point) point {
	x, y := co.curve.Add(a.x, a.y, b.x, b.y)
	return point{x, y}
}

// sendPoint sends the point as fixed width x and y coordinates in
// one frame.
func (co *CO) sendPoint(p point) error {
	buf := make([]byte, 2*co.size)
	p.x.FillBytes(buf[:co.size])
	p.y.FillBytes(buf[co.size:])
	return co.io.SendData(buf)
}

// receivePoint receives a point and verifies it is on the curve.
func (co *CO) receivePoint() (point, error) {
	buf, err := co.io.ReceiveData()
	if err != nil {
		return point{}, err
	}
	if len(buf) != 2*co.size {
		return point{}, fmt.Errorf("CO: invalid point length %d", len(buf))
	}
	p := point{
		x: new(big.Int).SetBytes(buf[:co.size]),
		y: new(big.Int).SetBytes(buf[co.size:]),
	}
	if !co.curve.IsOnCurve(p.x, p.y) {
		return point{}, fmt.Errorf("CO: point not on curve")
	}
	return p, nil
}

// pad derives the one-time pad of the OT id from the shared point.
func (co *CO) pad(p point, id int) [blake2b.Size256]byte {
	buf := make([]byte, 2*co.size+8)
	p.x.FillBytes(buf[:co.size])
	p.y.FillBytes(buf[co.size : 2*co.size])
	bo.PutUint64(buf[2*co.size:], uint64(id))
	return blake2b.Sum256(buf)
}

// InitSender initializes the OT sender.
func (co *CO) InitSender(io IO) error {
	co.io = io
	if err := SendString(io, co.curve.Params().Name); err != nil {
		return err
	}
	return io.Flush()
}

// InitReceiver initializes the OT receiver.
func (co *CO) InitReceiver(io IO) error {
	co.io = io

	name, err := ReceiveString(io)
	if err != nil {
		return err
	}
	if name != co.curve.Params().Name {
		return fmt.Errorf("invalid curve %s, expected %s",
			name, co.curve.Params().Name)
	}
	return nil
}

// Send sends the wire labels with OT. The receiver's point for OT i
// is B=G^b for the choice 0 and A*G^b for the choice 1. The sender
// derives the pads of L0 and L1 from B^a and (B/A)^a.
func (co *CO) Send(wires []Wire) error {
	a, err := randScalar(co.rand, co.curve.Params().N)
	if err != nil {
		return err
	}
	aBytes := a.Bytes()

	var A point
	A.x, A.y = co.curve.ScalarBaseMult(aBytes)
	if err := co.sendPoint(A); err != nil {
		return err
	}
	if err := co.io.Flush(); err != nil {
		return err
	}
	AaInv := co.neg(co.mul(A, aBytes))

	pads := make([][2][blake2b.Size256]byte, len(wires))
	for i := range wires {
		B, err := co.receivePoint()
		if err != nil {
			return fmt.Errorf("OT %d: %w", i, err)
		}
		Ba := co.mul(B, aBytes)
		pads[i][0] = co.pad(Ba, i)
		pads[i][1] = co.pad(co.add(Ba, AaInv), i)
	}

	var ld LabelData
	var e [2 * len(ld)]byte
	for i, w := range wires {
		w.L0.GetData(&ld)
		copy(e[:len(ld)], xor(pads[i][0][:], ld[:]))
		w.L1.GetData(&ld)
		copy(e[len(ld):], xor(pads[i][1][:], ld[:]))
		if err := co.io.SendData(e[:]); err != nil {
			return err
		}
	}
	return co.io.Flush()
}

// Receive receives the wire labels with OT based on the flag values.
func (co *CO) Receive(flags []bool, result []Label) error {
	A, err := co.receivePoint()
	if err != nil {
		return err
	}

	bs := make([][]byte, len(flags))
	for i, flag := range flags {
		b, err := randScalar(co.rand, co.curve.Params().N)
		if err != nil {
			return err
		}
		bs[i] = b.Bytes()

		var B point
		B.x, B.y = co.curve.ScalarBaseMult(bs[i])
		if flag {
			B = co.add(B, A)
		}
		if err := co.sendPoint(B); err != nil {
			return err
		}
	}
	if err := co.io.Flush(); err != nil {
		return err
	}

	var ld LabelData
	for i, flag := range flags {
		e, err := co.io.ReceiveData()
		if err != nil {
			return err
		}
		if len(e) != 2*len(ld) {
			return fmt.Errorf("CO: invalid ciphertext length %d", len(e))
		}
		if flag {
			e = e[len(ld):]
		} else {
			e = e[:len(ld)]
		}
		pad := co.pad(co.mul(A, bs[i]), i)
		result[i].SetBytes(xor(pad[:], e))
	}
	return nil
}

// randScalar returns a random scalar from [1...n[.
func randScalar(r io.Reader, n *big.Int) (*big.Int, error) {
	buf := make([]byte, (n.BitLen()+7)/8+8)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		k := new(big.Int).SetBytes(buf)
		k.Mod(k, n)
		if k.Sign() > 0 {
			return k, nil
		}
	}
}
