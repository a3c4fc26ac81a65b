//
// iotest.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/ot"
	"github.com/markkurossi/maxpool/p2p"
)

func receiverTestIO(timeout time.Duration) error {
	l, err := p2p.Listen(addr, verbose)
	if err != nil {
		return err
	}
	defer l.Close()
	fmt.Printf("Listening for connections at %s\n", l.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	conn, err := l.Accept(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	start := time.Now()
	for {
		var label ot.Label
		var labelData ot.LabelData
		err = conn.ReceiveLabel(&label, &labelData)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return err
		}
	}
	report("Received", conn.Stats.Sum(), time.Since(start))
	return nil
}

func senderTestIO(size int64, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	conn, err := p2p.Dial(ctx, addr, verbose)
	cancel()
	if err != nil {
		return err
	}

	start := time.Now()
	var sent int64
	var label ot.Label
	var labelData ot.LabelData

	for sent < size {
		err = conn.SendLabel(label, &labelData)
		if err != nil {
			conn.Close()
			return err
		}
		sent += int64(len(labelData))
	}
	if err := conn.Flush(); err != nil {
		conn.Close()
		return err
	}
	report("Sent", conn.Stats.Sum(), time.Since(start))
	return conn.Close()
}

func report(what string, bytes uint64, d time.Duration) {
	rate := float64(bytes) / d.Seconds()
	fmt.Printf("%s: %v in %v, %v/s\n", what, circuit.FileSize(bytes), d,
		circuit.FileSize(uint64(rate)))
}
