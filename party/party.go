//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package party implements a two-party secure computation party. A
// party builds a Boolean circuit over XOR-shared wires, executes it
// jointly with its peer, and reveals the outputs designated to it.
//
// The server party listens for the peer connection and the client
// party connects to the server. One connection serves any number of
// sequential executions; the party is reset between executions.
package party

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/gmw"
	"github.com/markkurossi/maxpool/p2p"
)

// Party implements one party of the two-party computation.
type Party struct {
	cfg   Config
	ready chan struct{}

	m          sync.Mutex
	listener   *p2p.Listener
	conn       *p2p.Conn
	session    *gmw.Session
	cancelDial context.CancelFunc
	readyErr   error
	bc         *BooleanCircuit
	executing  bool
	failed     error
	closed     bool
	timing     *circuit.Timing
}

// New creates a new party. The server party starts listening at the
// configured endpoint and the client party starts connecting to it.
// The client retries the connection until ConnectTimeout.
func New(cfg Config) (*Party, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, stageError(cfg.Role, StageConfig,
			errors.Mark(err, ErrPrecondition))
	}
	p := &Party{
		cfg:   cfg,
		ready: make(chan struct{}),
	}
	if cfg.Role == Server {
		l, err := p2p.Listen(cfg.Endpoint(), cfg.Verbose)
		if err != nil {
			return nil, stageError(cfg.Role, StageConnect,
				errors.Mark(err, ErrProtocolSync))
		}
		p.listener = l
		close(p.ready)
	} else {
		ctx, cancel := context.WithTimeout(context.Background(),
			cfg.ConnectTimeout)
		p.cancelDial = cancel
		go p.dial(ctx)
	}
	return p, nil
}

func (p *Party) dial(ctx context.Context) {
	defer close(p.ready)
	defer p.cancelDial()

	conn, err := p2p.Dial(ctx, p.cfg.Endpoint(), p.cfg.Verbose)

	p.m.Lock()
	defer p.m.Unlock()

	if err != nil {
		p.readyErr = stageError(p.cfg.Role, StageConnect,
			errors.Mark(err, ErrProtocolSync))
		return
	}
	if p.closed {
		conn.Close()
		p.readyErr = stageError(p.cfg.Role, StageConnect,
			errors.Mark(errors.New("party closed"), ErrProtocolSync))
		return
	}
	p.conn = conn
}

// Debugf prints debugging message if Verbose debugging is enabled for
// this Party.
func (p *Party) Debugf(format string, a ...interface{}) {
	if !p.cfg.Verbose {
		return
	}
	fmt.Printf("P%s: %s", p.cfg.Role.IDString(), fmt.Sprintf(format, a...))
}

// Role returns the party role.
func (p *Party) Role() Role {
	return p.cfg.Role
}

// Config returns the party configuration.
func (p *Party) Config() Config {
	return p.cfg
}

// Addr returns the listening address of the server party. For the
// client party, the function returns the server endpoint.
func (p *Party) Addr() string {
	if p.listener != nil {
		return p.listener.Addr().String()
	}
	return p.cfg.Endpoint()
}

// Ready returns a channel that is closed when the party is ready for
// execution. The server is ready when it is listening for the peer
// and the client is ready when its connection attempt has completed.
func (p *Party) Ready() <-chan struct{} {
	return p.ready
}

// WaitUntilReady blocks until the party is ready or the context is
// done. For the client, it returns the error of the connection
// attempt.
func (p *Party) WaitUntilReady(ctx context.Context) error {
	select {
	case <-p.ready:
		p.m.Lock()
		defer p.m.Unlock()
		return p.readyErr

	case <-ctx.Done():
		return stageError(p.cfg.Role, StageConnect,
			errors.Mark(errors.Wrap(ctx.Err(), "waiting for ready"),
				ErrProtocolSync))
	}
}

// Sharing returns the circuit builder for the sharing kind.
func (p *Party) Sharing(kind SharingKind) (Builder, error) {
	return p.BooleanCircuit(kind)
}

// BooleanCircuit returns the Boolean circuit builder of the current
// execution. The kind must be Boolean.
func (p *Party) BooleanCircuit(kind SharingKind) (*BooleanCircuit, error) {
	if kind != Boolean {
		return nil, precondition(p.cfg.Role, StageBuild,
			"sharing kind %s has no Boolean circuit builder", kind)
	}
	p.m.Lock()
	defer p.m.Unlock()

	if err := p.usable(StageBuild); err != nil {
		return nil, err
	}
	if p.bc == nil {
		p.bc = NewBooleanCircuit(p.cfg.Role, p.cfg.Verbose)
	}
	return p.bc, nil
}

func (p *Party) usable(stage Stage) error {
	if p.closed {
		return precondition(p.cfg.Role, stage, "party closed")
	}
	if p.failed != nil {
		return stageError(p.cfg.Role, stage,
			errors.Mark(errors.Wrap(p.failed, "party failed"),
				ErrProtocolSync))
	}
	return nil
}

// Execute evaluates the circuit jointly with the peer. The function
// blocks until the peer has also called Execute and the evaluation
// has completed. The context deadline and cancellation apply to the
// whole execution. If the execution fails with a protocol error, the
// party must be discarded.
func (p *Party) Execute(ctx context.Context) error {
	p.m.Lock()
	if err := p.usable(StageExecute); err != nil {
		p.m.Unlock()
		return err
	}
	if p.executing {
		p.m.Unlock()
		return precondition(p.cfg.Role, StageExecute, "already executing")
	}
	bc := p.bc
	if bc == nil {
		p.m.Unlock()
		return precondition(p.cfg.Role, StageExecute, "no circuit")
	}
	if bc.executed {
		p.m.Unlock()
		return precondition(p.cfg.Role, StageExecute,
			"circuit already executed")
	}
	p.executing = true
	p.m.Unlock()

	err := p.execute(ctx, bc)

	p.m.Lock()
	defer p.m.Unlock()

	p.executing = false
	if err != nil && !errors.Is(err, ErrPrecondition) {
		p.failed = err
	}
	if (p.failed != nil || p.closed) && p.session != nil {
		p.session.Close()
	}
	return err
}

func (p *Party) execute(ctx context.Context, bc *BooleanCircuit) error {
	role := p.cfg.Role

	circ, err := bc.Compile()
	if err != nil {
		return err
	}
	digest, err := circ.Digest()
	if err != nil {
		return stageError(role, StageBuild, err)
	}
	p.Debugf("circuit: %v, depth=%d\n", circ, circ.Depth())

	session, err := p.connect(ctx)
	if err != nil {
		return err
	}

	conn := session.Conn()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Unix(1, 0))
	})
	defer func() {
		stop()
		conn.SetDeadline(time.Time{})
	}()

	if err := session.Handshake(digest); err != nil {
		return p.protocolError(ctx, StageHandshake, err)
	}
	result, err := session.Run(circ, bc.inputs)
	if err != nil {
		return p.protocolError(ctx, StageExecute, err)
	}

	p.m.Lock()
	bc.setResult(result)
	p.timing = session.Timing()
	p.m.Unlock()

	return nil
}

func (p *Party) protocolError(ctx context.Context, stage Stage,
	err error) error {

	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Wrapf(ctxErr, "%v", err)
	} else if d, ok := ctx.Deadline(); ok && !time.Now().Before(d) {
		err = errors.Wrapf(context.DeadlineExceeded, "%v", err)
	}
	return stageError(p.cfg.Role, stage, errors.Mark(err, ErrProtocolSync))
}

// connect returns the protocol session. The server accepts the peer
// connection on its first execution.
func (p *Party) connect(ctx context.Context) (*gmw.Session, error) {
	p.m.Lock()
	session := p.session
	p.m.Unlock()
	if session != nil {
		return session, nil
	}

	var conn *p2p.Conn
	if p.cfg.Role == Server {
		c, err := p.listener.Accept(ctx)
		if err != nil {
			return nil, stageError(p.cfg.Role, StageConnect,
				errors.Mark(err, ErrProtocolSync))
		}
		conn = c
	} else {
		if err := p.WaitUntilReady(ctx); err != nil {
			return nil, err
		}
		p.m.Lock()
		conn = p.conn
		p.m.Unlock()
	}

	session, err := gmw.NewSession(conn, gmw.Config{
		Role:       p.cfg.Role,
		Env:        p.cfg.Env,
		BaseOT:     p.cfg.BaseOT(p.cfg.Env.GetRandom()),
		NumThreads: p.cfg.NumThreads,
		BufferSize: p.cfg.OTBufferSize,
		Verbose:    p.cfg.Verbose,
	})
	if err != nil {
		conn.Close()
		return nil, stageError(p.cfg.Role, StageConnect, err)
	}

	p.m.Lock()
	defer p.m.Unlock()

	if p.closed {
		conn.Close()
		return nil, precondition(p.cfg.Role, StageConnect, "party closed")
	}
	p.session = session
	return session, nil
}

// Reset clears the circuit of the previous execution so that the
// party can build and execute a new circuit over the same peer
// connection. Reset fails while an execution is in progress and after
// a failed execution.
func (p *Party) Reset() error {
	p.m.Lock()
	defer p.m.Unlock()

	if err := p.usable(StageReset); err != nil {
		return err
	}
	if p.executing {
		return precondition(p.cfg.Role, StageReset,
			"reset while executing")
	}
	p.bc = nil
	return nil
}

// Timing returns the timing samples of the latest execution.
func (p *Party) Timing() *circuit.Timing {
	p.m.Lock()
	defer p.m.Unlock()
	return p.timing
}

// Stats returns the I/O statistics of the peer connection.
func (p *Party) Stats() p2p.IOStats {
	p.m.Lock()
	defer p.m.Unlock()

	if p.session == nil {
		return p2p.NewIOStats()
	}
	return p.session.Conn().Stats
}

// Close closes the party and its peer connection. Closing the party
// aborts any execution in progress.
func (p *Party) Close() error {
	p.m.Lock()
	defer p.m.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var result error
	if p.cancelDial != nil {
		p.cancelDial()
	}
	if p.listener != nil {
		if err := p.listener.Close(); err != nil {
			result = err
		}
	}
	if p.session != nil {
		if p.executing {
			// Execute closes the session when its I/O fails.
			p.session.Conn().SetDeadline(time.Unix(1, 0))
		} else if err := p.session.Close(); err != nil && result == nil {
			result = err
		}
	} else if p.conn != nil {
		if err := p.conn.Close(); err != nil && result == nil {
			result = err
		}
	}
	return result
}
