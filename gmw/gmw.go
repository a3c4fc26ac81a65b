//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package gmw implements the two-party GMW protocol over XOR-shared
// Boolean circuits. The AND and OR gates consume Boolean
// multiplication triples that the parties create with the IKNP OT
// extension. The linear gates are evaluated locally.
package gmw

import (
	"bytes"
	"fmt"
	"io"
	"math/big"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/env"
	"github.com/markkurossi/maxpool/ot"
	"github.com/markkurossi/maxpool/p2p"
)

const (
	handshakeMagic   = 0x6d617870
	handshakeVersion = 1

	// DefaultBufferSize defines the default number of triples created
	// in one OT extension round.
	DefaultBufferSize = 64 * 1024
)

// Handshake status codes.
const (
	statusOK byte = iota
	statusVersion
	statusRole
	statusDigest
)

var statusNames = map[byte]string{
	statusOK:      "ok",
	statusVersion: "protocol version mismatch",
	statusRole:    "role mismatch",
	statusDigest:  "circuit mismatch",
}

// ErrSync is returned when the parties disagree about the protocol
// state: their roles, protocol versions, or circuits differ.
var ErrSync = errors.New("gmw: protocol out of sync")

// Config defines the session parameters.
type Config struct {
	Role Role
	Env  *env.Config

	// BaseOT creates the base OT instances for the IKNP OT
	// extension. If unset, the session uses the CO OT.
	BaseOT func() ot.OT

	// NumThreads bounds the number of goroutines hashing OT output.
	NumThreads int

	// BufferSize defines the number of triples created in one OT
	// extension round.
	BufferSize int

	Verbose bool
}

// Session implements one party of the two-party protocol over a
// peer connection. The OT extension is set up once for the session
// and the session can evaluate any number of circuits.
type Session struct {
	Verbose    bool
	role       Role
	conn       *p2p.Conn
	rand       io.Reader
	baseOT     func() ot.OT
	numThreads int
	bufSize    int
	sender     *ot.IKNPSender
	receiver   *ot.IKNPReceiver
	timing     *circuit.Timing
}

// NewSession creates a new protocol session over the connection.
func NewSession(conn *p2p.Conn, cfg Config) (*Session, error) {
	if !cfg.Role.Valid() {
		return nil, fmt.Errorf("invalid role %v", cfg.Role)
	}
	s := &Session{
		Verbose:    cfg.Verbose,
		role:       cfg.Role,
		conn:       conn,
		rand:       cfg.Env.GetRandom(),
		baseOT:     cfg.BaseOT,
		numThreads: cfg.NumThreads,
		bufSize:    cfg.BufferSize,
	}
	if s.baseOT == nil {
		s.baseOT = func() ot.OT {
			return ot.NewCO(s.rand)
		}
	}
	if s.numThreads <= 0 {
		s.numThreads = 1
	}
	if s.bufSize <= 0 {
		s.bufSize = DefaultBufferSize
	}
	return s, nil
}

// Debugf prints debugging message if Verbose debugging is enabled for
// this Session.
func (s *Session) Debugf(format string, a ...interface{}) {
	if !s.Verbose {
		return
	}
	fmt.Printf("P%s: %s", s.role.IDString(), fmt.Sprintf(format, a...))
}

// Role returns the session role.
func (s *Session) Role() Role {
	return s.role
}

// Conn returns the session's peer connection.
func (s *Session) Conn() *p2p.Conn {
	return s.conn
}

// Timing returns the timing samples of the latest evaluation.
func (s *Session) Timing() *circuit.Timing {
	return s.timing
}

// Handshake verifies that the peer runs the opposite role with the
// same circuit. The digest identifies the circuit. A mismatch fails
// on both parties with ErrSync.
func (s *Session) Handshake(digest []byte) error {
	if s.role == Client {
		if err := s.conn.SendUint32(handshakeMagic); err != nil {
			return err
		}
		if err := s.conn.SendUint32(handshakeVersion); err != nil {
			return err
		}
		if err := s.conn.SendByte(byte(s.role)); err != nil {
			return err
		}
		if err := s.conn.SendData(digest); err != nil {
			return err
		}
		if err := s.conn.Flush(); err != nil {
			return err
		}
		status, err := s.conn.ReceiveByte()
		if err != nil {
			return err
		}
		if status != statusOK {
			return errors.Wrapf(ErrSync, "handshake rejected: %s",
				statusNames[status])
		}
		return nil
	}

	magic, err := s.conn.ReceiveUint32()
	if err != nil {
		return err
	}
	if magic != handshakeMagic {
		return errors.Wrapf(ErrSync, "invalid handshake magic 0x%x", magic)
	}
	version, err := s.conn.ReceiveUint32()
	if err != nil {
		return err
	}
	role, err := s.conn.ReceiveByte()
	if err != nil {
		return err
	}
	peerDigest, err := s.conn.ReceiveData()
	if err != nil {
		return err
	}

	status := statusOK
	if version != handshakeVersion {
		status = statusVersion
	} else if Role(role) != s.role.Peer() {
		status = statusRole
	} else if !bytes.Equal(digest, peerDigest) {
		status = statusDigest
	}
	if err := s.conn.SendByte(status); err != nil {
		return err
	}
	if err := s.conn.Flush(); err != nil {
		return err
	}
	if status != statusOK {
		return errors.Wrapf(ErrSync, "handshake failed: %s",
			statusNames[status])
	}
	return nil
}

// setup initializes the OT extension in both directions. The server
// is the OT extension sender in the first direction.
func (s *Session) setup() error {
	if s.sender != nil {
		return nil
	}
	if s.role == Server {
		if err := s.setupSender(); err != nil {
			return err
		}
		return s.setupReceiver()
	}
	if err := s.setupReceiver(); err != nil {
		return err
	}
	return s.setupSender()
}

func (s *Session) setupSender() error {
	base := s.baseOT()
	if err := base.InitReceiver(s.conn); err != nil {
		return err
	}
	sender, err := ot.NewIKNPSender(base, s.conn, s.rand, nil)
	if err != nil {
		return err
	}
	s.sender = sender
	return nil
}

func (s *Session) setupReceiver() error {
	base := s.baseOT()
	if err := base.InitSender(s.conn); err != nil {
		return err
	}
	receiver, err := ot.NewIKNPReceiver(base, s.conn, s.rand)
	if err != nil {
		return err
	}
	s.receiver = receiver
	return nil
}

// Run evaluates the circuit with the peer. The inputs contain one
// value for each circuit input argument: the party's input for its
// own arguments, its XOR share for shared arguments, and nil for the
// peer's arguments. The function returns one value for each output
// argument; the values of the arguments revealed to the peer are nil.
func (s *Session) Run(circ *circuit.Circuit, inputs []*big.Int) (
	[]*big.Int, error) {

	if len(inputs) != len(circ.Inputs) {
		return nil, fmt.Errorf("invalid number of inputs: got %d, expected %d",
			len(inputs), len(circ.Inputs))
	}
	for idx, arg := range circ.Outputs {
		if !Role(arg.Party).Valid() {
			return nil, fmt.Errorf("output %d: invalid receiver %d",
				idx, arg.Party)
		}
	}
	timing := circuit.NewTiming(s.conn.Stats)
	s.timing = timing

	if err := s.setup(); err != nil {
		return nil, errors.Wrap(err, "OT setup")
	}
	timing.Sample("Setup")

	triples, err := s.triples(circ.Stats.NonLinear())
	if err != nil {
		return nil, errors.Wrap(err, "triples")
	}
	timing.Sample("Triples")

	wires := make([]byte, circ.NumWires)
	if err := s.shareInputs(circ, inputs, wires); err != nil {
		return nil, errors.Wrap(err, "inputs")
	}
	timing.Sample("Inputs")

	if err := s.eval(circ, triples, wires); err != nil {
		return nil, errors.Wrap(err, "eval")
	}
	timing.Sample("Eval")

	result, err := s.reveal(circ, wires)
	if err != nil {
		return nil, errors.Wrap(err, "result")
	}
	timing.Sample("Result")

	return result, nil
}

// shareInputs shares the input values. The owner of an input masks
// its value with random bits and sends the mask to the peer. The
// server sends its masks first.
func (s *Session) shareInputs(circ *circuit.Circuit, inputs []*big.Int,
	wires []byte) error {

	send := func() error {
		for idx, arg := range circ.Inputs {
			if arg.Party != int(s.role) {
				continue
			}
			if inputs[idx] == nil {
				return fmt.Errorf("input %s: value not set", arg.Name)
			}
			mask := make([]byte, (arg.Size()+7)/8)
			if _, err := io.ReadFull(s.rand, mask); err != nil {
				return err
			}
			clearPadding(mask, arg.Size())

			ofs := circ.Inputs.Offset(idx)
			for i := 0; i < arg.Size(); i++ {
				wires[ofs+i] = byte(inputs[idx].Bit(i)) ^ getBit(mask, i)
			}
			if err := s.conn.SendData(mask); err != nil {
				return err
			}
		}
		return s.conn.Flush()
	}
	receive := func() error {
		for idx, arg := range circ.Inputs {
			if arg.Party != int(s.role.Peer()) {
				continue
			}
			mask, err := s.conn.ReceiveData()
			if err != nil {
				return err
			}
			if len(mask) != (arg.Size()+7)/8 {
				return errors.Wrapf(ErrSync,
					"input %s: got %d bytes, expected %d",
					arg.Name, len(mask), (arg.Size()+7)/8)
			}
			ofs := circ.Inputs.Offset(idx)
			for i := 0; i < arg.Size(); i++ {
				wires[ofs+i] = getBit(mask, i)
			}
		}
		return nil
	}

	for idx, arg := range circ.Inputs {
		if arg.Party != circuit.Shared {
			continue
		}
		if inputs[idx] == nil {
			return fmt.Errorf("input %s: share not set", arg.Name)
		}
		ofs := circ.Inputs.Offset(idx)
		for i := 0; i < arg.Size(); i++ {
			wires[ofs+i] = byte(inputs[idx].Bit(i))
		}
	}

	if s.role == Server {
		if err := send(); err != nil {
			return err
		}
		return receive()
	}
	if err := receive(); err != nil {
		return err
	}
	return send()
}

// eval evaluates the circuit level by level. The non-linear gates of
// a level are opened with one message exchange.
func (s *Session) eval(circ *circuit.Circuit, triples *Triples,
	wires []byte) error {

	var server byte
	if s.role == Server {
		server = 1
	}
	var tidx int

	levels := circ.Levels()
	for _, level := range levels {
		if len(level.NonLinear) > 0 {
			n := len(level.NonLinear)
			if tidx+n > triples.Len() {
				return fmt.Errorf("out of triples: %d > %d",
					tidx+n, triples.Len())
			}
			de := make([]byte, (2*n+7)/8)
			for i, gi := range level.NonLinear {
				g := &circ.Gates[gi]
				setBit(de, 2*i, wires[g.Input0]^triples.A[tidx+i])
				setBit(de, 2*i+1, wires[g.Input1]^triples.B[tidx+i])
			}
			if err := s.conn.SendData(de); err != nil {
				return err
			}
			if err := s.conn.Flush(); err != nil {
				return err
			}
			peer, err := s.conn.ReceiveData()
			if err != nil {
				return err
			}
			if len(peer) != len(de) {
				return errors.Wrapf(ErrSync, "eval: got %d bytes, expected %d",
					len(peer), len(de))
			}
			for i, gi := range level.NonLinear {
				g := &circ.Gates[gi]
				d := getBit(de, 2*i) ^ getBit(peer, 2*i)
				e := getBit(de, 2*i+1) ^ getBit(peer, 2*i+1)

				t := tidx + i
				z := triples.C[t] ^ (d & triples.B[t]) ^ (e & triples.A[t]) ^
					(d & e & server)
				if g.Op == circuit.OR {
					z ^= wires[g.Input0] ^ wires[g.Input1]
				}
				wires[g.Output] = z
			}
			tidx += n
		}
		for _, gi := range level.Linear {
			g := &circ.Gates[gi]
			switch g.Op {
			case circuit.XOR:
				wires[g.Output] = wires[g.Input0] ^ wires[g.Input1]
			case circuit.XNOR:
				wires[g.Output] = wires[g.Input0] ^ wires[g.Input1] ^ server
			case circuit.INV:
				wires[g.Output] = wires[g.Input0] ^ server
			default:
				return fmt.Errorf("gate %v not supported", g.Op)
			}
		}
	}
	s.Debugf("eval: levels=%d, triples=%d\n", len(levels), tidx)
	return nil
}

// reveal sends the output shares to their receivers. The server
// sends its shares first.
func (s *Session) reveal(circ *circuit.Circuit, wires []byte) (
	[]*big.Int, error) {

	result := make([]*big.Int, len(circ.Outputs))
	base := circ.NumWires - circ.Outputs.Size()

	send := func() error {
		for idx, arg := range circ.Outputs {
			if arg.Party == int(s.role) {
				continue
			}
			ofs := base + circ.Outputs.Offset(idx)
			data := make([]byte, (arg.Size()+7)/8)
			for i := 0; i < arg.Size(); i++ {
				setBit(data, i, wires[ofs+i])
			}
			if err := s.conn.SendData(data); err != nil {
				return err
			}
		}
		return s.conn.Flush()
	}
	receive := func() error {
		for idx, arg := range circ.Outputs {
			if arg.Party != int(s.role) {
				continue
			}
			data, err := s.conn.ReceiveData()
			if err != nil {
				return err
			}
			if len(data) != (arg.Size()+7)/8 {
				return errors.Wrapf(ErrSync,
					"output %s: got %d bytes, expected %d",
					arg.Name, len(data), (arg.Size()+7)/8)
			}
			ofs := base + circ.Outputs.Offset(idx)
			v := new(big.Int)
			for i := 0; i < arg.Size(); i++ {
				v.SetBit(v, i, uint(wires[ofs+i]^getBit(data, i)))
			}
			result[idx] = v
		}
		return nil
	}

	if s.role == Server {
		if err := send(); err != nil {
			return nil, err
		}
		if err := receive(); err != nil {
			return nil, err
		}
	} else {
		if err := receive(); err != nil {
			return nil, err
		}
		if err := send(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Close closes the session's peer connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

func getBit(data []byte, i int) byte {
	return (data[i/8] >> (i % 8)) & 1
}

func setBit(data []byte, i int, v byte) {
	if v&1 != 0 {
		data[i/8] |= 1 << (i % 8)
	} else {
		data[i/8] &^= 1 << (i % 8)
	}
}

func clearPadding(data []byte, bits int) {
	if bits%8 != 0 {
		data[len(data)-1] &= byte(1<<(bits%8)) - 1
	}
}
