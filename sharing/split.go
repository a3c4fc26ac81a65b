//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sharing

import (
	"fmt"
)

// Split splits the values x into additive shares modulo q. The
// client shares xc are drawn uniformly from [0,q) and the server
// shares are xs[i] = (x[i] mod q - xc[i]) mod q.
func Split(x []uint64, q uint64, g *Generator) (xs, xc []uint64, err error) {
	xs = make([]uint64, len(x))
	xc = make([]uint64, len(x))
	for i, v := range x {
		xc[i], err = g.Uint64n(q)
		if err != nil {
			return nil, nil, err
		}
		xs[i] = SubMod(v%q, xc[i], q)
	}
	return xs, xc, nil
}

// Combine combines the additive shares xs and xc into values modulo
// q.
func Combine(xs, xc []uint64, q uint64) ([]uint64, error) {
	if len(xs) != len(xc) {
		return nil, fmt.Errorf("share length mismatch: %d != %d",
			len(xs), len(xc))
	}
	result := make([]uint64, len(xs))
	for i := range xs {
		result[i] = AddMod(xs[i]%q, xc[i]%q, q)
	}
	return result, nil
}

// Max returns the maximum of the values. The values must not be
// empty.
func Max(values []uint64) uint64 {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
