//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package sharing implements the conversion between signed values
// and their residues modulo q, and the additive two-party sharing of
// value vectors.
package sharing

import (
	"math/bits"
)

// ToUnsigned returns the residue of v modulo q in [0,q). The modulus
// q must be positive.
func ToUnsigned(v int64, q uint64) uint64 {
	if v >= 0 {
		return uint64(v) % q
	}
	// -v as uint64 is correct also for math.MinInt64.
	r := (-uint64(v)) % q
	if r == 0 {
		return 0
	}
	return q - r
}

// ToSigned returns the representative of u modulo q in the range
// (-q/2, q/2].
func ToSigned(u, q uint64) int64 {
	u %= q
	if u > q/2 {
		return -int64(q - u)
	}
	return int64(u)
}

// ToUnsignedVector converts the values to their residues modulo q.
func ToUnsignedVector(values []int64, q uint64) []uint64 {
	result := make([]uint64, len(values))
	for i, v := range values {
		result[i] = ToUnsigned(v, q)
	}
	return result
}

// ToSignedVector converts the residues modulo q to signed values.
func ToSignedVector(values []uint64, q uint64) []int64 {
	result := make([]int64, len(values))
	for i, v := range values {
		result[i] = ToSigned(v, q)
	}
	return result
}

// AddMod returns (a+b) mod q for a, b in [0,q).
func AddMod(a, b, q uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 || sum >= q {
		sum -= q
	}
	return sum
}

// SubMod returns (a-b) mod q for a, b in [0,q).
func SubMod(a, b, q uint64) uint64 {
	if a >= b {
		return a - b
	}
	return a + (q - b)
}
