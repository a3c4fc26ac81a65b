//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

// Package p2p implements the framed peer connection and the two-party
// network setup used by the protocol engine.
package p2p

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/markkurossi/maxpool/ot"
)

var (
	_ ot.IO = &Conn{}
)

var bo = binary.BigEndian

const (
	numBuffers   = 3
	writeBufSize = 64 * 1024
	readBufSize  = 1024 * 1024
)

// MaxDataSize is the largest data frame the connection sends or
// accepts.
const MaxDataSize = 256 * 1024 * 1024

// Conn implements a protocol connection.
type Conn struct {
	conn      io.ReadWriter
	WriteBuf  []byte
	WritePos  int
	ReadBuf   []byte
	ReadStart int
	ReadEnd   int
	Stats     IOStats

	fromWriter chan []byte
	toWriter   chan []byte
	writerErr  error
	closed     bool
}

// IOStats implements I/O statistics.
type IOStats struct {
	Sent    *atomic.Uint64
	Recvd   *atomic.Uint64
	Flushed *atomic.Uint64
}

// NewIOStats creates a new I/O statistics object.
func NewIOStats() IOStats {
	return IOStats{
		Sent:    new(atomic.Uint64),
		Recvd:   new(atomic.Uint64),
		Flushed: new(atomic.Uint64),
	}
}

// Add adds the argument stats to this IOStats and returns the sum.
func (stats IOStats) Add(o IOStats) IOStats {
	sent := new(atomic.Uint64)
	sent.Store(stats.Sent.Load() + o.Sent.Load())

	recvd := new(atomic.Uint64)
	recvd.Store(stats.Recvd.Load() + o.Recvd.Load())

	flushed := new(atomic.Uint64)
	flushed.Store(stats.Flushed.Load() + o.Flushed.Load())

	return IOStats{
		Sent:    sent,
		Recvd:   recvd,
		Flushed: flushed,
	}
}

// Sum returns sum of sent and received bytes.
func (stats IOStats) Sum() uint64 {
	return stats.Sent.Load() + stats.Recvd.Load()
}

// NewConn creates a new connection around the argument connection.
func NewConn(conn io.ReadWriter) *Conn {
	c := &Conn{
		conn:       conn,
		ReadBuf:    make([]byte, readBufSize),
		fromWriter: make(chan []byte, numBuffers),
		toWriter:   make(chan []byte, numBuffers),
		Stats:      NewIOStats(),
	}

	go c.writer()

	c.WriteBuf = <-c.fromWriter

	return c
}

func (c *Conn) writer() {
	for i := 0; i < numBuffers; i++ {
		c.fromWriter <- make([]byte, writeBufSize)
	}

	for buf := range c.toWriter {
		_, err := c.conn.Write(buf)
		if err != nil {
			c.writerErr = err
		}
		c.fromWriter <- buf[0:cap(buf)]
	}
	close(c.fromWriter)
}

// Flush flushed any pending data in the connection.
func (c *Conn) Flush() error {
	if c.closed {
		return net.ErrClosed
	}
	if c.WritePos > 0 {
		c.Stats.Sent.Add(uint64(c.WritePos))
		c.toWriter <- c.WriteBuf[0:c.WritePos]

		next := <-c.fromWriter
		if c.writerErr != nil {
			return c.writerErr
		}

		c.WriteBuf = next
		c.WritePos = 0
		c.Stats.Flushed.Add(1)
	}
	return nil
}

// Fill fills the input buffer from the connection. Any unused data in
// the buffer is moved to the beginning of the buffer.
func (c *Conn) Fill(n int) error {
	if c.ReadStart < c.ReadEnd {
		copy(c.ReadBuf[0:], c.ReadBuf[c.ReadStart:c.ReadEnd])
		c.ReadEnd -= c.ReadStart
		c.ReadStart = 0
	} else {
		c.ReadStart = 0
		c.ReadEnd = 0
	}
	for c.ReadStart+n > c.ReadEnd {
		got, err := c.conn.Read(c.ReadBuf[c.ReadEnd:])
		if err != nil {
			return err
		}
		c.Stats.Recvd.Add(uint64(got))
		c.ReadEnd += got
	}
	return nil
}

// Close flushes any pending data and closes the connection.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	flushErr := c.Flush()
	c.closed = true

	// Wait that the writer completes.
	close(c.toWriter)
	for range c.fromWriter {
	}

	var err error
	closer, ok := c.conn.(io.Closer)
	if ok {
		err = closer.Close()
	}
	if flushErr != nil {
		return flushErr
	}
	if c.writerErr != nil {
		return c.writerErr
	}
	return err
}

// SetDeadline sets the read and write deadline of the underlying
// connection. The zero time clears the deadline. Connections without
// deadline support ignore the call.
func (c *Conn) SetDeadline(t time.Time) error {
	dl, ok := c.conn.(interface {
		SetDeadline(t time.Time) error
	})
	if !ok {
		return nil
	}
	return dl.SetDeadline(t)
}

// reserve returns the next n bytes of the write buffer, flushing
// the buffer if it does not have space for them.
func (c *Conn) reserve(n int) ([]byte, error) {
	if c.WritePos+n > len(c.WriteBuf) {
		if err := c.Flush(); err != nil {
			return nil, err
		}
	}
	buf := c.WriteBuf[c.WritePos : c.WritePos+n]
	c.WritePos += n
	return buf, nil
}

// take returns the next n bytes of the read buffer, filling the
// buffer from the connection if needed. The returned slice is valid
// until the next receive call.
func (c *Conn) take(n int) ([]byte, error) {
	if c.ReadStart+n > c.ReadEnd {
		if err := c.Fill(n); err != nil {
			return nil, err
		}
	}
	buf := c.ReadBuf[c.ReadStart : c.ReadStart+n]
	c.ReadStart += n
	return buf, nil
}

// SendByte sends a byte value.
func (c *Conn) SendByte(val byte) error {
	buf, err := c.reserve(1)
	if err != nil {
		return err
	}
	buf[0] = val
	return nil
}

// SendUint16 sends an uint16 value.
func (c *Conn) SendUint16(val int) error {
	buf, err := c.reserve(2)
	if err != nil {
		return err
	}
	bo.PutUint16(buf, uint16(val))
	return nil
}

// SendUint32 sends an uint32 value.
func (c *Conn) SendUint32(val int) error {
	buf, err := c.reserve(4)
	if err != nil {
		return err
	}
	bo.PutUint32(buf, uint32(val))
	return nil
}

// SendUint64 sends an uint64 value.
func (c *Conn) SendUint64(val uint64) error {
	buf, err := c.reserve(8)
	if err != nil {
		return err
	}
	bo.PutUint64(buf, val)
	return nil
}

// SendData sends a length prefixed binary frame. Frames larger than
// the write buffer are streamed in buffer sized pieces.
func (c *Conn) SendData(val []byte) error {
	if len(val) > MaxDataSize {
		return fmt.Errorf("p2p: data too large: %d > %d",
			len(val), MaxDataSize)
	}
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	for len(val) > 0 {
		if c.WritePos >= len(c.WriteBuf) {
			if err := c.Flush(); err != nil {
				return err
			}
		}
		n := copy(c.WriteBuf[c.WritePos:], val)
		c.WritePos += n
		val = val[n:]
	}
	return nil
}

// SendLabel sends an OT label.
func (c *Conn) SendLabel(val ot.Label, data *ot.LabelData) error {
	buf, err := c.reserve(len(data))
	if err != nil {
		return err
	}
	copy(buf, val.Bytes(data))
	return nil
}

// SendString sends a string value.
func (c *Conn) SendString(val string) error {
	return c.SendData([]byte(val))
}

// ReceiveByte receives a byte value.
func (c *Conn) ReceiveByte() (byte, error) {
	buf, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReceiveUint16 receives an uint16 value.
func (c *Conn) ReceiveUint16() (int, error) {
	buf, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return int(bo.Uint16(buf)), nil
}

// ReceiveUint32 receives an uint32 value.
func (c *Conn) ReceiveUint32() (int, error) {
	buf, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return int(bo.Uint32(buf)), nil
}

// ReceiveUint64 receives an uint64 value.
func (c *Conn) ReceiveUint64() (uint64, error) {
	buf, err := c.take(8)
	if err != nil {
		return 0, err
	}
	return bo.Uint64(buf), nil
}

// ReceiveData receives a length prefixed binary frame. Frames larger
// than MaxDataSize are rejected before their payload is read.
func (c *Conn) ReceiveData() ([]byte, error) {
	l, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if l > MaxDataSize {
		return nil, fmt.Errorf("p2p: frame too large: %d > %d",
			l, MaxDataSize)
	}
	if l > len(c.ReadBuf) {
		return c.receiveLarge(l)
	}
	buf, err := c.take(l)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), buf...), nil
}

func (c *Conn) receiveLarge(l int) ([]byte, error) {
	result := make([]byte, l)
	n := copy(result, c.ReadBuf[c.ReadStart:c.ReadEnd])
	c.ReadStart += n

	got, err := io.ReadFull(c.conn, result[n:])
	c.Stats.Recvd.Add(uint64(got))
	if err != nil {
		return nil, fmt.Errorf("p2p: short data: %w", err)
	}
	return result, nil
}

// ReceiveLabel receives an OT label.
func (c *Conn) ReceiveLabel(val *ot.Label, data *ot.LabelData) error {
	buf, err := c.take(len(data))
	if err != nil {
		return err
	}
	copy(data[:], buf)
	val.SetData(data)
	return nil
}

// ReceiveString receives a string value.
func (c *Conn) ReceiveString() (string, error) {
	data, err := c.ReceiveData()
	if err != nil {
		return "", err
	}
	return string(data), nil
}
