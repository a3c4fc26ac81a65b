//
// main.go
//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/ot"
	"github.com/markkurossi/maxpool/p2p"
	"github.com/markkurossi/maxpool/party"
	"github.com/montanaflynn/stats"
)

func main() {
	proto := flag.String("ot", party.OTProtocolCO, "base OT protocol: co or rsa")
	sec := flag.Int("sec", party.DefaultSecurityLevel, "security level")
	n := flag.Int("n", 100000, "number of extended OTs")
	runs := flag.Int("runs", 5, "number of runs")
	flag.Parse()

	log.SetFlags(0)

	cfg := party.Config{
		SecurityLevel: *sec,
		OTProtocol:    *proto,
	}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	var durations []float64
	for i := 0; i < *runs; i++ {
		start := time.Now()
		ios, err := extend(cfg, *n)
		if err != nil {
			log.Fatal(err)
		}
		d := time.Since(start)
		durations = append(durations, float64(d)/float64(time.Millisecond))
		fmt.Printf("run %d: %d OTs in %v, %s\n", i, *n, d,
			circuit.FileSize(ios.Sum()))
	}
	median, _ := stats.Median(durations)
	mean, _ := stats.Mean(durations)
	stddev, _ := stats.StandardDeviation(durations)
	fmt.Printf("%s-%d: median=%.2fms, mean=%.2fms, stddev=%.2fms\n",
		cfg.OTProtocol, cfg.SecurityLevel, median, mean, stddev)
}

// extend runs the base OT and n IKNP extended OTs over an in-memory
// connection, and verifies the received labels.
func extend(cfg party.Config, n int) (p2p.IOStats, error) {
	c0, c1 := p2p.Pipe()
	defer c0.Close()
	defer c1.Close()

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return p2p.IOStats{}, err
	}
	flags := make([]bool, n)
	for i := range flags {
		flags[i] = buf[i]&1 == 1
	}
	received := make([]ot.Label, n)

	done := make(chan error, 1)
	go func() {
		base := cfg.BaseOT(rand.Reader)()
		if err := base.InitSender(c1); err != nil {
			done <- err
			return
		}
		r, err := ot.NewIKNPReceiver(base, c1, rand.Reader)
		if err != nil {
			done <- err
			return
		}
		done <- r.Receive(flags, received)
	}()

	base := cfg.BaseOT(rand.Reader)()
	if err := base.InitReceiver(c0); err != nil {
		return p2p.IOStats{}, err
	}
	s, err := ot.NewIKNPSender(base, c0, rand.Reader, nil)
	if err != nil {
		return p2p.IOStats{}, err
	}
	sent, err := s.Send(n)
	if err != nil {
		return p2p.IOStats{}, err
	}
	if err := <-done; err != nil {
		return p2p.IOStats{}, err
	}

	for i, l := range sent {
		if flags[i] {
			l.Xor(s.Delta)
		}
		if !l.Equal(received[i]) {
			return p2p.IOStats{}, fmt.Errorf("OT %d: label mismatch", i)
		}
	}
	return c0.Stats.Add(c1.Stats), nil
}
