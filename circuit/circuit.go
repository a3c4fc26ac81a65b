//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements Boolean circuits: gates, wires, input
// and output arguments, plaintext evaluation, and the binary circuit
// format.
package circuit

import (
	"fmt"
)

// Operation specifies gate function.
type Operation byte

// Gate functions.
const (
	XOR Operation = iota
	XNOR
	AND
	OR
	INV
)

// Stats holds statistics about circuit operations.
type Stats [INV + 1]int

// Add adds the argument statistics to this statistics object.
func (stats *Stats) Add(o Stats) {
	for idx, v := range o {
		stats[idx] += v
	}
}

// Count returns the number of gates in the statistics.
func (stats Stats) Count() int {
	var result int
	for _, v := range stats {
		result += v
	}
	return result
}

// NonLinear returns the number of non-linear (AND and OR) gates.
func (stats Stats) NonLinear() int {
	return stats[AND] + stats[OR]
}

func (stats Stats) String() string {
	var result string

	for k := XOR; k <= INV; k++ {
		if len(result) > 0 {
			result += " "
		}
		result += fmt.Sprintf("%s=%d", k, stats[k])
	}
	return result
}

func (op Operation) String() string {
	switch op {
	case XOR:
		return "XOR"
	case XNOR:
		return "XNOR"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case INV:
		return "INV"
	default:
		return fmt.Sprintf("{Operation %d}", op)
	}
}

// Circuit specifies a boolean circuit. The circuit input wires are
// numbered from 0 in the order of the Inputs arguments and the
// output wires are the last Outputs.Size() wires of the circuit. The
// gates are in topological order.
type Circuit struct {
	NumGates int
	NumWires int
	Inputs   IO
	Outputs  IO
	Gates    []Gate
	Stats    Stats
}

func (c *Circuit) String() string {
	return fmt.Sprintf("#gates=%d (%s) #w=%d", c.NumGates, c.Stats, c.NumWires)
}

// Cost computes the relative computational cost of the circuit.
func (c *Circuit) Cost() int {
	return c.Stats.NonLinear()*4 + c.Stats[INV]
}

// Dump prints a debug dump of the circuit.
func (c *Circuit) Dump() {
	fmt.Printf("circuit %s\n", c)
	for id, gate := range c.Gates {
		fmt.Printf("%04d\t%s\n", id, gate)
	}
}

// Validate checks the circuit wiring. It verifies that every gate
// reads only wires assigned before it and that every wire is
// assigned exactly once.
func (c *Circuit) Validate() error {
	if c.NumGates != len(c.Gates) {
		return fmt.Errorf("circuit: #gates=%d, got %d gates",
			c.NumGates, len(c.Gates))
	}
	numInputs := c.Inputs.Size()
	if numInputs+c.NumGates != c.NumWires {
		return fmt.Errorf("circuit: #w=%d, expected %d",
			c.NumWires, numInputs+c.NumGates)
	}
	if c.Outputs.Size() > c.NumWires {
		return fmt.Errorf("circuit: outputs %d > #w=%d",
			c.Outputs.Size(), c.NumWires)
	}
	assigned := make([]bool, c.NumWires)
	for i := 0; i < numInputs; i++ {
		assigned[i] = true
	}
	var stats Stats
	for idx, g := range c.Gates {
		for _, w := range g.Inputs() {
			if int(w) >= c.NumWires || !assigned[w] {
				return fmt.Errorf("circuit: gate %d: unassigned input %s",
					idx, w)
			}
		}
		if int(g.Output) >= c.NumWires || assigned[g.Output] {
			return fmt.Errorf("circuit: gate %d: invalid output %s",
				idx, g.Output)
		}
		assigned[g.Output] = true
		stats[g.Op]++
	}
	if stats != c.Stats {
		return fmt.Errorf("circuit: stats mismatch: got %s, expected %s",
			stats, c.Stats)
	}
	return nil
}

// Gate specifies a boolean gate.
type Gate struct {
	Input0 Wire
	Input1 Wire
	Output Wire
	Op     Operation
}

func (g Gate) String() string {
	return fmt.Sprintf("%v %v %v", g.Inputs(), g.Op, g.Output)
}

// Inputs returns gate input wires.
func (g Gate) Inputs() []Wire {
	switch g.Op {
	case XOR, XNOR, AND, OR:
		return []Wire{g.Input0, g.Input1}
	case INV:
		return []Wire{g.Input0}
	default:
		panic(fmt.Sprintf("unsupported gate type %s", g.Op))
	}
}

// NonLinear tests if the gate is non-linear in GF(2). The non-linear
// gates require interaction between the parties.
func (g Gate) NonLinear() bool {
	return g.Op == AND || g.Op == OR
}

// Wire specifies a wire ID.
type Wire uint32

// ID returns the wire ID as integer.
func (w Wire) ID() int {
	return int(w)
}

func (w Wire) String() string {
	return fmt.Sprintf("w%d", w)
}
