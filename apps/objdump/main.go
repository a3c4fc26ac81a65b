//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/tabulate"
)

func main() {
	levels := flag.Bool("levels", false, "print AND-depth levels")
	flag.Parse()

	log.SetFlags(0)

	if len(flag.Args()) == 0 {
		fmt.Printf("no files specified\n")
		os.Exit(1)
	}
	if err := dumpObjects(flag.Args(), *levels); err != nil {
		log.Fatal(err)
	}
}

func dumpObjects(files []string, levels bool) error {
	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("File").SetAlign(tabulate.ML)
	tab.Header("XOR").SetAlign(tabulate.MR)
	tab.Header("XNOR").SetAlign(tabulate.MR)
	tab.Header("AND").SetAlign(tabulate.MR)
	tab.Header("OR").SetAlign(tabulate.MR)
	tab.Header("INV").SetAlign(tabulate.MR)
	tab.Header("Gates").SetAlign(tabulate.MR)
	tab.Header("Wires").SetAlign(tabulate.MR)
	tab.Header("Depth").SetAlign(tabulate.MR)

	var circs []*circuit.Circuit
	for _, file := range files {
		circ, err := parseFile(file)
		if err != nil {
			return fmt.Errorf("%s: %v", file, err)
		}
		circs = append(circs, circ)

		row := tab.Row()
		row.Column(file)
		for _, op := range []circuit.Operation{
			circuit.XOR, circuit.XNOR, circuit.AND, circuit.OR, circuit.INV,
		} {
			row.Column(fmt.Sprintf("%d", circ.Stats[op]))
		}
		row.Column(fmt.Sprintf("%d", circ.NumGates))
		row.Column(fmt.Sprintf("%d", circ.NumWires))
		row.Column(fmt.Sprintf("%d", circ.Depth()))
	}
	tab.Print(os.Stdout)

	if !levels {
		return nil
	}
	for idx, circ := range circs {
		fmt.Printf("%s:\n", files[idx])
		lt := tabulate.New(tabulate.UnicodeLight)
		lt.Header("Level").SetAlign(tabulate.MR)
		lt.Header("Non-linear").SetAlign(tabulate.MR)
		lt.Header("Linear").SetAlign(tabulate.MR)
		for l, level := range circ.Levels() {
			row := lt.Row()
			row.Column(fmt.Sprintf("%d", l))
			row.Column(fmt.Sprintf("%d", len(level.NonLinear)))
			row.Column(fmt.Sprintf("%d", len(level.Linear)))
		}
		lt.Print(os.Stdout)
	}
	return nil
}

func parseFile(file string) (*circuit.Circuit, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	circ, err := circuit.Parse(f)
	if err != nil {
		return nil, err
	}
	return circ, circ.Validate()
}
