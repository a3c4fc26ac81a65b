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
	"github.com/markkurossi/maxpool/maxpool"
	"github.com/markkurossi/maxpool/party"
)

func main() {
	fN := flag.Int("n", 10, "vector length")
	fQ := flag.Uint64("q", 8, "modulus")
	fBitlen := flag.Int("bitlen", maxpool.DefaultBitlen, "value bit width")
	fMask := flag.String("mask", "server", "masking party: server or client")
	fOrder := flag.String("order", "tree", "reduction order: tree or chain")
	fFormat := flag.String("format", "", "output format: mpclc, bristol, or dot")
	fOut := flag.String("o", "", "output file")
	fStats := flag.Bool("stats", false, "print circuit statistics")
	flag.Parse()

	log.SetFlags(0)

	maskingRole, err := party.ParseRole(*fMask)
	if err != nil {
		log.Fatal(err)
	}
	order, err := maxpool.ParseOrder(*fOrder)
	if err != nil {
		log.Fatal(err)
	}

	circ, err := maxpool.Circuit(maxpool.Params{
		N:           *fN,
		Modulus:     *fQ,
		Bitlen:      *fBitlen,
		MaskingRole: maskingRole,
		Order:       order,
	})
	if err != nil {
		log.Fatal(err)
	}

	if *fStats || len(*fFormat) == 0 {
		printStats(circ)
	}
	if len(*fFormat) == 0 {
		return
	}

	out := os.Stdout
	if len(*fOut) > 0 {
		f, err := os.Create(*fOut)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}
	if err := circ.MarshalFormat(out, *fFormat); err != nil {
		log.Fatal(err)
	}
}

func printStats(circ *circuit.Circuit) {
	fmt.Fprintf(os.Stderr, "circuit: %v\n", circ)
	fmt.Fprintf(os.Stderr, " - depth: %d\n", circ.Depth())
	fmt.Fprintf(os.Stderr, " - cost : %d\n", circ.Cost())
	for idx, arg := range circ.Inputs {
		fmt.Fprintf(os.Stderr, " - In%d  : %s\n", idx, arg)
	}
	fmt.Fprintf(os.Stderr, " - Out  : %s\n", circ.Outputs)
}
