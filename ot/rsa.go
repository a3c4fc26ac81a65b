//
// rsa.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//
// Even-Goldreich-Lempel OT with RSA trapdoor permutation:
//  - https://dl.acm.org/doi/10.1145/3812.3818

package ot

import (
	"crypto/rsa"
	"fmt"
	"io"
	"math/big"
)

var (
	_ OT = &RSA{}
)

// RSA implements the RSA-based OT as the OT interface. The sender
// owns the RSA private key and the receiver blinds its choice with
// the public exponent.
type RSA struct {
	bits int
	rand io.Reader
	io   IO
	key  *rsa.PrivateKey
	pub  *rsa.PublicKey
}

// NewRSA creates a new RSA OT with keyBits sized RSA keys.
func NewRSA(r io.Reader, keyBits int) *RSA {
	return &RSA{
		bits: keyBits,
		rand: r,
	}
}

// InitSender initializes the OT sender. The sender creates a fresh
// RSA key and sends its public part to the receiver.
func (o *RSA) InitSender(io IO) error {
	key, err := rsa.GenerateKey(o.rand, o.bits)
	if err != nil {
		return err
	}
	key.Precompute()

	o.io = io
	o.key = key

	if err := SendBigInt(io, key.N); err != nil {
		return err
	}
	if err := io.SendUint32(key.E); err != nil {
		return err
	}
	return io.Flush()
}

// InitReceiver initializes the OT receiver.
func (o *RSA) InitReceiver(io IO) error {
	o.io = io

	n, err := ReceiveBigInt(io)
	if err != nil {
		return err
	}
	e, err := io.ReceiveUint32()
	if err != nil {
		return err
	}
	if n.BitLen() < o.bits {
		return fmt.Errorf("RSA: modulus too small: %d < %d", n.BitLen(), o.bits)
	}
	o.pub = &rsa.PublicKey{
		N: n,
		E: e,
	}
	return nil
}

// Send sends the wire labels with OT.
func (o *RSA) Send(wires []Wire) error {
	if o.key == nil {
		return fmt.Errorf("RSA: not initialized as sender")
	}
	n := o.key.N

	x0s := make([]*big.Int, len(wires))
	x1s := make([]*big.Int, len(wires))
	for i := 0; i < len(wires); i++ {
		var err error
		x0s[i], err = randScalar(o.rand, n)
		if err != nil {
			return err
		}
		x1s[i], err = randScalar(o.rand, n)
		if err != nil {
			return err
		}
		if err := SendBigInt(o.io, x0s[i]); err != nil {
			return err
		}
		if err := SendBigInt(o.io, x1s[i]); err != nil {
			return err
		}
	}
	if err := o.io.Flush(); err != nil {
		return err
	}

	vs := make([]*big.Int, len(wires))
	for i := 0; i < len(wires); i++ {
		v, err := ReceiveBigInt(o.io)
		if err != nil {
			return err
		}
		if v.Cmp(n) >= 0 {
			return fmt.Errorf("RSA: invalid blinded value %d", i)
		}
		vs[i] = v
	}

	var ld LabelData
	for i := 0; i < len(wires); i++ {
		k0 := o.decrypt(new(big.Int).Sub(vs[i], x0s[i]))
		k1 := o.decrypt(new(big.Int).Sub(vs[i], x1s[i]))

		m0 := new(big.Int).SetBytes(wires[i].L0.Bytes(&ld))
		m0.Add(m0, k0).Mod(m0, n)
		m1 := new(big.Int).SetBytes(wires[i].L1.Bytes(&ld))
		m1.Add(m1, k1).Mod(m1, n)

		if err := SendBigInt(o.io, m0); err != nil {
			return err
		}
		if err := SendBigInt(o.io, m1); err != nil {
			return err
		}
	}
	return o.io.Flush()
}

// Receive receives the wire labels with OT based on the flag values.
func (o *RSA) Receive(flags []bool, result []Label) error {
	if o.pub == nil {
		return fmt.Errorf("RSA: not initialized as receiver")
	}
	n := o.pub.N
	e := big.NewInt(int64(o.pub.E))

	xs := make([]*big.Int, len(flags))
	for i := 0; i < len(flags); i++ {
		x0, err := ReceiveBigInt(o.io)
		if err != nil {
			return err
		}
		x1, err := ReceiveBigInt(o.io)
		if err != nil {
			return err
		}
		if flags[i] {
			xs[i] = x1
		} else {
			xs[i] = x0
		}
	}

	ks := make([]*big.Int, len(flags))
	for i := 0; i < len(flags); i++ {
		k, err := randScalar(o.rand, n)
		if err != nil {
			return err
		}
		ks[i] = k

		// v = (x + k^e) mod n
		v := new(big.Int).Exp(k, e, n)
		v.Add(v, xs[i]).Mod(v, n)
		if err := SendBigInt(o.io, v); err != nil {
			return err
		}
	}
	if err := o.io.Flush(); err != nil {
		return err
	}

	for i := 0; i < len(flags); i++ {
		m0, err := ReceiveBigInt(o.io)
		if err != nil {
			return err
		}
		m1, err := ReceiveBigInt(o.io)
		if err != nil {
			return err
		}
		m := m0
		if flags[i] {
			m = m1
		}
		m.Sub(m, ks[i]).Mod(m, n)
		if m.BitLen() > 128 {
			return fmt.Errorf("RSA: invalid label %d", i)
		}
		result[i].SetBytes(m.Bytes())
	}
	return nil
}

// decrypt computes c^d mod n with the CRT values of the key.
func (o *RSA) decrypt(c *big.Int) *big.Int {
	key := o.key
	c.Mod(c, key.N)

	p := key.Primes[0]
	q := key.Primes[1]

	m1 := new(big.Int).Exp(c, key.Precomputed.Dp, p)
	m2 := new(big.Int).Exp(c, key.Precomputed.Dq, q)

	// h = qInv * (m1 - m2) mod p
	h := m1.Sub(m1, m2)
	h.Mul(h, key.Precomputed.Qinv).Mod(h, p)

	// m = m2 + h*q
	h.Mul(h, q)
	return h.Add(h, m2)
}
