//
// Copyright (c) 2021-2026 Markku Rossi
//
// All rights reserved.
//

package circuit

// Level contains the gates of one AND-depth level of the circuit.
// The non-linear gates of the level depend only on wires of the
// earlier levels so they can be evaluated together. The linear gates
// are evaluated after the non-linear gates, in circuit order.
type Level struct {
	NonLinear []int
	Linear    []int
}

// Levels splits the circuit gates into AND-depth levels. The level 0
// contains only linear gates.
func (c *Circuit) Levels() []Level {
	depth := make([]int, c.NumWires)
	var result []Level

	for idx, g := range c.Gates {
		var d int
		for _, w := range g.Inputs() {
			if depth[w] > d {
				d = depth[w]
			}
		}
		if g.NonLinear() {
			d++
		}
		depth[g.Output] = d

		for len(result) <= d {
			result = append(result, Level{})
		}
		if g.NonLinear() {
			result[d].NonLinear = append(result[d].NonLinear, idx)
		} else {
			result[d].Linear = append(result[d].Linear, idx)
		}
	}
	return result
}

// Depth returns the AND-depth of the circuit.
func (c *Circuit) Depth() int {
	levels := c.Levels()
	if len(levels) == 0 {
		return 0
	}
	return len(levels) - 1
}
