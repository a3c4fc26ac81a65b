//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
)

// Pipe creates a connected pair of in-memory connections. Anything
// sent to the first endpoint can be received from the second and vice
// versa. The endpoints support deadlines like TCP connections.
func Pipe() (*Conn, *Conn) {
	c0, c1 := net.Pipe()
	return NewConn(c0), NewConn(c1)
}
