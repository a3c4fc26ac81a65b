//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

// RetryDelay defines the delay between client connection attempts.
var RetryDelay = 100 * time.Millisecond

// Listener accepts the peer connection of a two-party computation.
type Listener struct {
	listener net.Listener
	verbose  bool
}

// Listen creates a new listener for the TCP address addr.
func Listen(addr string, verbose bool) (*Listener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Printf("NW: listening at %s\n", listener.Addr())
	}
	return &Listener{
		listener: listener,
		verbose:  verbose,
	}, nil
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Close closes the listener.
func (l *Listener) Close() error {
	return l.listener.Close()
}

// Accept waits for the next peer connection. The function returns
// when a peer connects or when the context is done.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	tl, ok := l.listener.(*net.TCPListener)
	if ok {
		if deadline, ok := ctx.Deadline(); ok {
			tl.SetDeadline(deadline)
		}
		stop := context.AfterFunc(ctx, func() {
			tl.SetDeadline(time.Unix(1, 0))
		})
		defer func() {
			stop()
			tl.SetDeadline(time.Time{})
		}()
	}
	nc, err := l.listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("accept: %w", ctx.Err())
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("accept: %w", context.DeadlineExceeded)
		}
		return nil, err
	}
	if l.verbose {
		log.Printf("NW: accepted connection from %s\n", nc.RemoteAddr())
	}
	return NewConn(nc), nil
}

// Dial connects to the peer at addr. The function retries failed
// connection attempts until the context is done.
func Dial(ctx context.Context, addr string, verbose bool) (*Conn, error) {
	var dialer net.Dialer
	for {
		if verbose {
			log.Printf("NW: connecting to %s...\n", addr)
		}
		nc, err := dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			if verbose {
				log.Printf("NW: connected to %s\n", addr)
			}
			return NewConn(nc), nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("connect %s: %w: %v", addr, ctx.Err(), err)
		}
		if verbose {
			log.Printf("NW: connect to %s failed, retrying in %s\n",
				addr, RetryDelay)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect %s: %w: %v", addr, ctx.Err(), err)
		case <-time.After(RetryDelay):
		}
	}
}
