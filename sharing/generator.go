//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sharing

import (
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// Generator implements a deterministic random stream keyed by a
// seed. Two generators with the same seed produce the same stream.
// The generator is not safe for concurrent use.
type Generator struct {
	seed uint64
	xof  blake2b.XOF
	buf  [8]byte
}

var (
	_ io.Reader = &Generator{}
)

// NewGenerator creates a new generator for the seed.
func NewGenerator(seed uint64) (*Generator, error) {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seed)

	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, key[:])
	if err != nil {
		return nil, err
	}
	return &Generator{
		seed: seed,
		xof:  xof,
	}, nil
}

// Seed returns the generator seed.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// Read reads random bytes from the generator.
func (g *Generator) Read(p []byte) (int, error) {
	return g.xof.Read(p)
}

// Reset resets the generator to the beginning of its stream.
func (g *Generator) Reset() {
	g.xof.Reset()
}

// Uint64 returns a random 64-bit value.
func (g *Generator) Uint64() (uint64, error) {
	if _, err := io.ReadFull(g.xof, g.buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(g.buf[:]), nil
}

// Uint64n returns a uniformly random value from [0,bound).
func (g *Generator) Uint64n(bound uint64) (uint64, error) {
	if bound == 0 {
		return 0, fmt.Errorf("invalid bound 0")
	}
	if bound&(bound-1) == 0 {
		v, err := g.Uint64()
		return v & (bound - 1), err
	}
	// Values below threshold would bias the result.
	threshold := -bound % bound
	for {
		v, err := g.Uint64()
		if err != nil {
			return 0, err
		}
		if v >= threshold {
			return v % bound, nil
		}
	}
}

// Int64n returns a uniformly random value from [lo,hi].
func (g *Generator) Int64n(lo, hi int64) (int64, error) {
	if hi < lo {
		return 0, fmt.Errorf("invalid range [%d,%d]", lo, hi)
	}
	span := uint64(hi - lo)
	if span == ^uint64(0) {
		v, err := g.Uint64()
		return int64(v), err
	}
	v, err := g.Uint64n(span + 1)
	if err != nil {
		return 0, err
	}
	return lo + int64(v), nil
}
