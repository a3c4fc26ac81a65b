//
// main.go
//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/markkurossi/maxpool/maxpool"
	"github.com/markkurossi/maxpool/party"
	"github.com/markkurossi/maxpool/sharing"
	"github.com/montanaflynn/stats"
)

var (
	verbose bool
	timing  bool
)

type scenario struct {
	n int
	q uint64
}

func main() {
	fRole := flag.String("role", "both", "party role: server, client, or both")
	fAddr := flag.String("addr", party.DefaultAddress, "server address")
	fPort := flag.Int("port", party.DefaultPort, "server port")
	fN := flag.String("n", "10,100", "comma-separated vector lengths")
	fQ := flag.String("q", "8,9", "comma-separated moduli")
	fBitlen := flag.Int("bitlen", maxpool.DefaultBitlen, "value bit width")
	fMask := flag.String("mask", "server", "masking party: server or client")
	fOrder := flag.String("order", "tree", "reduction order: tree or chain")
	fSeed := flag.Uint64("seed", 0, "input generator seed")
	fSec := flag.Int("sec", party.DefaultSecurityLevel, "security level")
	fOT := flag.String("ot", party.OTProtocolCO, "base OT protocol: co or rsa")
	fOTBuf := flag.Int("otbuf", 100000, "OT extension buffer size")
	fThreads := flag.Int("threads", 0, "number of OT extension threads")
	fTimeout := flag.Duration("timeout", time.Minute, "execution timeout")
	fConnect := flag.Duration("connect", party.DefaultConnectTimeout,
		"client connect timeout")
	fRuns := flag.Int("runs", 1, "number of runs for each scenario")
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.BoolVar(&timing, "timing", false, "print execution timing")
	flag.Parse()

	log.SetFlags(0)

	scenarios, err := parseScenarios(*fN, *fQ)
	if err != nil {
		log.Fatal(err)
	}
	maskingRole, err := party.ParseRole(*fMask)
	if err != nil {
		log.Fatal(err)
	}
	order, err := maxpool.ParseOrder(*fOrder)
	if err != nil {
		log.Fatal(err)
	}

	cfg := party.Config{
		Address:        *fAddr,
		Port:           *fPort,
		SecurityLevel:  *fSec,
		NumThreads:     *fThreads,
		OTProtocol:     *fOT,
		OTBufferSize:   *fOTBuf,
		ConnectTimeout: *fConnect,
		Verbose:        verbose,
	}
	params := maxpool.Params{
		Bitlen:      *fBitlen,
		MaskingRole: maskingRole,
		Order:       order,
	}

	g, err := sharing.NewGenerator(*fSeed)
	if err != nil {
		log.Fatal(err)
	}

	var failed int
	switch *fRole {
	case "both":
		failed, err = runBoth(cfg, params, scenarios, g, *fRuns, *fTimeout)
	case "server", "client":
		cfg.Role, _ = party.ParseRole(*fRole)
		failed, err = runParty(cfg, params, scenarios, g, *fRuns, *fTimeout)
	default:
		err = fmt.Errorf("invalid role '%s'", *fRole)
	}
	if err != nil {
		log.Fatal(err)
	}
	if failed > 0 {
		fmt.Printf("%d executions failed\n", failed)
		os.Exit(1)
	}
}

func parseScenarios(ns, qs string) ([]scenario, error) {
	var result []scenario
	for _, nv := range strings.Split(ns, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(nv))
		if err != nil {
			return nil, fmt.Errorf("invalid vector length '%s': %v", nv, err)
		}
		for _, qv := range strings.Split(qs, ",") {
			q, err := strconv.ParseUint(strings.TrimSpace(qv), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid modulus '%s': %v", qv, err)
			}
			result = append(result, scenario{
				n: n,
				q: q,
			})
		}
	}
	return result, nil
}

func runBoth(cfg party.Config, params maxpool.Params, scenarios []scenario,
	g *sharing.Generator, runs int, timeout time.Duration) (int, error) {

	serverCfg := cfg
	clientCfg := cfg
	serverCfg.Port = 0
	clientCfg.Port = 0

	var failed int
	for _, s := range scenarios {
		params.N = s.n
		params.Modulus = s.q

		var durations []float64
		for run := 0; run < runs; run++ {
			c, err := maxpool.NewCase(s.n, s.q, g)
			if err != nil {
				return failed, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			start := time.Now()
			result, err := maxpool.RunPair(ctx, serverCfg, clientCfg, params,
				c.XS, c.XC, c.R)
			cancel()
			if err != nil {
				return failed, err
			}
			durations = append(durations, msec(time.Since(start)))
			if !report(s, c, result) {
				failed++
			}
		}
		summary(s, durations)
	}
	return failed, nil
}

func runParty(cfg party.Config, params maxpool.Params, scenarios []scenario,
	g *sharing.Generator, runs int, timeout time.Duration) (int, error) {

	if len(scenarios) == 0 {
		return 0, nil
	}
	params.N = scenarios[0].n
	params.Modulus = scenarios[0].q

	o, err := maxpool.NewOrchestrator(cfg, params)
	if err != nil {
		return 0, err
	}
	defer o.Close()

	fmt.Printf("semi-honest secure GMW maxpool\n")
	fmt.Printf(" - party : %v\n", cfg.Role)
	fmt.Printf(" - addr  : %v\n", o.Party().Addr())
	fmt.Printf(" - mask  : %v\n", params.MaskingRole)
	fmt.Printf(" - order : %v\n", params.Order)

	ctx, cancel := context.WithTimeout(context.Background(),
		cfg.ConnectTimeout+timeout)
	err = o.WaitUntilReady(ctx)
	cancel()
	if err != nil {
		return 0, err
	}

	var failed int
	for _, s := range scenarios {
		params.N = s.n
		params.Modulus = s.q
		if err := o.SetParams(params); err != nil {
			return failed, err
		}

		var durations []float64
		for run := 0; run < runs; run++ {
			// Both parties draw the same case from the shared seed.
			c, err := maxpool.NewCase(s.n, s.q, g)
			if err != nil {
				return failed, err
			}
			shares := c.XS
			if cfg.Role == party.Client {
				shares = c.XC
			}
			var mask uint64
			if cfg.Role == params.MaskingRole {
				mask = c.R
			}
			if err := o.BuildUnsigned(shares, mask); err != nil {
				return failed, err
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			start := time.Now()
			err = o.Execute(ctx)
			cancel()
			if err != nil {
				return failed, err
			}
			durations = append(durations, msec(time.Since(start)))

			if cfg.Role == params.RevealRole() {
				result, err := o.Result()
				if err != nil {
					return failed, err
				}
				if !report(s, c, result) {
					failed++
				}
			}
			if timing {
				o.Timing().Print()
			}
			if err := o.Reset(); err != nil {
				return failed, err
			}
		}
		summary(s, durations)
	}
	return failed, nil
}

func report(s scenario, c *maxpool.Case, result uint64) bool {
	err := c.Verify(result)
	if err != nil {
		fmt.Printf("n=%d, q=%d: %+v\n", s.n, s.q, err)
		return false
	}
	if verbose {
		fmt.Printf("n=%d, q=%d: result=%d\n", s.n, s.q, result)
	}
	return true
}

func summary(s scenario, durations []float64) {
	if len(durations) == 0 {
		return
	}
	median, _ := stats.Median(durations)
	mean, _ := stats.Mean(durations)
	stddev, _ := stats.StandardDeviation(durations)

	fmt.Printf("n=%d, q=%d: runs=%d, median=%.2fms, mean=%.2fms, stddev=%.2fms\n",
		s.n, s.q, len(durations), median, mean, stddev)
}

func msec(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
