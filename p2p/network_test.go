//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNetworkConnect(t *testing.T) {
	l, err := Listen("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error)
	go func() {
		conn, err := Dial(ctx, l.Addr().String(), false)
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		if err := conn.SendString("ping"); err != nil {
			done <- err
			return
		}
		done <- conn.Flush()
	}()

	conn, err := l.Accept(ctx)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	defer conn.Close()

	msg, err := conn.ReceiveString()
	if err != nil {
		t.Fatalf("ReceiveString: %v", err)
	}
	if msg != "ping" {
		t.Errorf("got %q, expected %q", msg, "ping")
	}
	if err := <-done; err != nil {
		t.Errorf("client: %v", err)
	}
}

func TestNetworkDialTimeout(t *testing.T) {
	l, err := Listen("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		300*time.Millisecond)
	defer cancel()

	_, err = Dial(ctx, addr, false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Dial: got %v, expected %v", err, context.DeadlineExceeded)
	}
}

func TestNetworkAcceptCancel(t *testing.T) {
	l, err := Listen("127.0.0.1:0", false)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		100*time.Millisecond)
	defer cancel()

	_, err = l.Accept(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Accept: got %v, expected %v", err, context.DeadlineExceeded)
	}
}
