//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//
// IKNP OT Extension:
//
// Extending oblivious transfers efficiently
//  - https://www.iacr.org/archive/crypto2003/27290145/27290145.pdf
//
// More Efficient Oblivious Transfer and Extensions for Faster Secure
// Computation
//  - https://eprint.iacr.org/2013/552.pdf

/*

This implementation is derived from the EMP Toolkit's ikmp.h and cot.h
(https://github.com/emp-toolkit/emp-ot/blob/master/emp-ot/{ikmp,cot}.h)
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
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/blake2b"
)

const (
	// K defines the IKNP security parameter; the number of IKNP base
	// OTs.
	K = 128

	// Chunk size. Must be multiple of 16 (K-bits).
	chunkSize = 16 * 1024

	// The maximum number of byte-rows in a chunk.
	chunkByteRows = chunkSize / K

	// The number of label rows in a chunk.
	chunkRows = chunkByteRows * 8

	// Minimum number of OTs to hash per worker goroutine.
	minHashBatch = 1024
)

// IKNPSender implements the random correlated OT sender. The sender
// is the receiver of the K base OTs.
type IKNPSender struct {
	// Delta defines the correlation delta: b1 = b0 ⊕ Δ
	Delta Label
	io    IO
	cols  [K]cipher.Stream
	tweak uint64
}

// NewIKNPSender creates a new sender. The d is an optional delta. If
// unset, the function creates a random delta.
func NewIKNPSender(base OT, io IO, r io.Reader, d *Label) (*IKNPSender, error) {
	s := &IKNPSender{
		io: io,
	}
	if d != nil {
		s.Delta = *d
	} else {
		delta, err := NewLabel(r)
		if err != nil {
			return nil, err
		}
		s.Delta = delta
	}

	// The base OT choices are the bits of Δ.
	var choices [K]bool
	for i := range choices {
		choices[i] = s.Delta.Bit(i) == 1
	}
	var seeds [K]Label
	if err := base.Receive(choices[:], seeds[:]); err != nil {
		return nil, err
	}
	for i, seed := range seeds {
		stream, err := newPrg(seed)
		if err != nil {
			return nil, err
		}
		s.cols[i] = stream
	}
	return s, nil
}

// Send sends n labels. The function returns the b0 labels. The b1
// labels are b0[i] ⊕ s.Delta.
func (s *IKNPSender) Send(n int) ([]Label, error) {
	result := make([]Label, n)
	var q [chunkSize]byte

	for ofs := 0; ofs < n; {
		// The receiver sends the u columns of one chunk.
		u, err := s.io.ReceiveData()
		if err != nil {
			return nil, err
		}
		if len(u) == 0 || len(u)%K != 0 || len(u) > chunkSize {
			return nil, fmt.Errorf("invalid chunk size: %v", len(u))
		}
		w := len(u) / K

		for i := 0; i < K; i++ {
			col := q[i*w : (i+1)*w]
			prg(s.cols[i], col)
			if s.Delta.Bit(i) == 1 {
				xor(col, u[i*w:(i+1)*w])
			}
		}
		transpose(result[ofs:], q[:K*w], w)
		ofs += w * 8
	}
	return result, nil
}

// SendBits runs n random bit OTs. It returns the random messages m0
// and m1 of each OT. The messages are hashed from the correlated
// labels b0 and b0 ⊕ Δ with a running tweak. The workers argument
// bounds the number of hashing goroutines.
func (s *IKNPSender) SendBits(n, workers int) (m0, m1 []byte, err error) {
	labels, err := s.Send(n)
	if err != nil {
		return nil, nil, err
	}
	tweak := s.tweak
	s.tweak += uint64(n)

	m0 = make([]byte, n)
	m1 = make([]byte, n)
	forRange(n, workers, func(from, to int) {
		var h bitHasher
		for i := from; i < to; i++ {
			l := labels[i]
			m0[i] = h.bit(l, tweak+uint64(i))
			l.Xor(s.Delta)
			m1[i] = h.bit(l, tweak+uint64(i))
		}
	})
	return m0, m1, nil
}

// IKNPReceiver implements the random correlated OT receiver. The
// receiver is the sender of the K base OTs.
type IKNPReceiver struct {
	io    IO
	rand  io.Reader
	cols0 [K]cipher.Stream
	cols1 [K]cipher.Stream
	tweak uint64
}

// NewIKNPReceiver creates a new receiver.
func NewIKNPReceiver(base OT, io IO, rand io.Reader) (*IKNPReceiver, error) {
	var seeds [K]Wire
	for i := range seeds {
		l0, err := NewLabel(rand)
		if err != nil {
			return nil, err
		}
		l1, err := NewLabel(rand)
		if err != nil {
			return nil, err
		}
		seeds[i].L0 = l0
		seeds[i].L1 = l1
	}
	if err := base.Send(seeds[:]); err != nil {
		return nil, err
	}

	r := &IKNPReceiver{
		io:   io,
		rand: rand,
	}
	for i, seed := range seeds {
		var err error
		r.cols0[i], err = newPrg(seed.L0)
		if err != nil {
			return nil, err
		}
		r.cols1[i], err = newPrg(seed.L1)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Receive labels based on the selection flags b. The returned labels
// implement the correlation: br[i] = b0[i] ⊕ b[i]*s.Delta. The
// function panics if b and result have different lengths.
func (r *IKNPReceiver) Receive(b []bool, result []Label) error {
	if len(b) != len(result) {
		panic("len(b) != len(result)")
	}
	choices := packBits(b)

	var t, u [chunkSize]byte
	var col1 [chunkByteRows]byte

	for ofs := 0; ofs < len(b); {
		rows := len(b) - ofs
		if rows > chunkRows {
			rows = chunkRows
		}
		w := (rows + 7) / 8
		r0 := choices[ofs/8 : ofs/8+w]

		// u_i = G(k0_i) ⊕ G(k1_i) ⊕ r
		for i := 0; i < K; i++ {
			t0 := t[i*w : (i+1)*w]
			prg(r.cols0[i], t0)
			prg(r.cols1[i], col1[:w])

			ui := u[i*w : (i+1)*w]
			copy(ui, col1[:w])
			xor(ui, t0)
			xor(ui, r0)
		}
		if err := r.io.SendData(u[:K*w]); err != nil {
			return err
		}
		transpose(result[ofs:], t[:K*w], w)
		ofs += rows
	}
	return r.io.Flush()
}

// ReceiveBits runs random bit OTs with the choice bits c and returns
// the chosen random message of each OT. The workers argument bounds
// the number of hashing goroutines.
func (r *IKNPReceiver) ReceiveBits(c []bool, workers int) ([]byte, error) {
	labels := make([]Label, len(c))
	if err := r.Receive(c, labels); err != nil {
		return nil, err
	}
	tweak := r.tweak
	r.tweak += uint64(len(c))

	result := make([]byte, len(c))
	forRange(len(c), workers, func(from, to int) {
		var h bitHasher
		for i := from; i < to; i++ {
			result[i] = h.bit(labels[i], tweak+uint64(i))
		}
	})
	return result, nil
}

func newPrg(key Label) (cipher.Stream, error) {
	var ld LabelData
	block, err := aes.NewCipher(key.Bytes(&ld))
	if err != nil {
		return nil, err
	}
	var iv [16]byte
	return cipher.NewCTR(block, iv[:]), nil
}

// prg fills buf with the next len(buf) bytes of the key stream.
func prg(c cipher.Stream, buf []byte) {
	clear(buf)
	c.XORKeyStream(buf, buf)
}

// transpose converts the K columns of w bytes into labels. Label i
// takes bit i%8 of byte i/8 of each column.
func transpose(l []Label, cols []byte, w int) {
	n := w * 8
	if n > len(l) {
		n = len(l)
	}
	for i := 0; i < n; i++ {
		var label Label
		row, shift := i/8, uint(i%8)
		for j := 0; j < K; j++ {
			label.SetBit(j, uint(cols[j*w+row]>>shift)&1)
		}
		l[i] = label
	}
}

// packBits packs the bits little-endian into bytes.
func packBits(b []bool) []byte {
	result := make([]byte, (len(b)+7)/8)
	for i, v := range b {
		if v {
			result[i/8] |= 1 << (i % 8)
		}
	}
	return result
}

// bitHasher hashes labels into random bits.
type bitHasher struct {
	data [24]byte
	ld   LabelData
}

func (h *bitHasher) bit(l Label, tweak uint64) byte {
	l.GetData(&h.ld)
	copy(h.data[:16], h.ld[:])
	binary.BigEndian.PutUint64(h.data[16:], tweak)
	sum := blake2b.Sum256(h.data[:])
	return sum[0] & 1
}

// forRange runs fn over [0,n) split between at most workers
// goroutines.
func forRange(n, workers int, fn func(from, to int)) {
	if workers <= 1 || n < 2*minHashBatch {
		fn(0, n)
		return
	}
	per := (n + workers - 1) / workers
	if per < minHashBatch {
		per = minHashBatch
	}
	var wg sync.WaitGroup
	for from := 0; from < n; from += per {
		to := min(from+per, n)
		wg.Add(1)
		go func(from, to int) {
			defer wg.Done()
			fn(from, to)
		}(from, to)
	}
	wg.Wait()
}
