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
	"log"
	"os"
	"runtime/pprof"
	"time"
)

var (
	addr    = "localhost:7766"
	verbose = false
)

func main() {
	receiver := flag.Bool("r", false, "receiver / sender mode")
	fAddr := flag.String("addr", addr, "peer address")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to `file`")
	size := flag.Int64("size", 100*1024*1024, "number of bytes to transfer")
	timeout := flag.Duration("timeout", time.Minute, "connection timeout")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.Parse()

	log.SetFlags(0)
	addr = *fAddr

	if len(*cpuprofile) > 0 {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	var err error
	if *receiver {
		err = receiverTestIO(*timeout)
	} else {
		err = senderTestIO(*size, *timeout)
	}
	if err != nil {
		log.Fatal(err)
	}
}
