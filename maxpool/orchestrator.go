//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package maxpool

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/circuit"
	"github.com/markkurossi/maxpool/p2p"
	"github.com/markkurossi/maxpool/party"
	"github.com/markkurossi/maxpool/sharing"
)

// State specifies the orchestrator state.
type State int

// Orchestrator states.
const (
	Initialized State = iota
	CircuitBuilt
	Executing
	Completed
	Failed
)

var states = map[State]string{
	Initialized:  "initialized",
	CircuitBuilt: "circuit-built",
	Executing:    "executing",
	Completed:    "completed",
	Failed:       "failed",
}

func (s State) String() string {
	name, ok := states[s]
	if ok {
		return name
	}
	return fmt.Sprintf("{State %d}", int(s))
}

// Orchestrator drives one party of the maxpool computation through
// its states: Initialized, CircuitBuilt, Executing, and Completed. A
// failed execution moves the orchestrator to the Failed state and
// the orchestrator must be discarded.
type Orchestrator struct {
	params Params
	party  *party.Party

	m     sync.Mutex
	state State
	out   *party.Share
}

// NewOrchestrator creates a new orchestrator for the party
// configuration. The server starts listening for its peer and the
// client starts connecting to the server.
func NewOrchestrator(cfg party.Config, params Params) (*Orchestrator, error) {
	if params.Bitlen == 0 {
		params.Bitlen = DefaultBitlen
	}
	if err := params.Validate(); err != nil {
		return nil, precondition(cfg.Role, party.StageConfig, "%v", err)
	}
	cfg.Bitlen = params.Bitlen

	p, err := party.New(cfg)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		params: params,
		party:  p,
		state:  Initialized,
	}, nil
}

// Role returns the orchestrator's party role.
func (o *Orchestrator) Role() party.Role {
	return o.party.Role()
}

// Params returns the computation parameters.
func (o *Orchestrator) Params() Params {
	return o.params
}

// SetParams sets the computation parameters for the next execution.
// The parameters can be changed only in the Initialized state and
// the peer must set the same parameters.
func (o *Orchestrator) SetParams(params Params) error {
	o.m.Lock()
	defer o.m.Unlock()

	if o.state != Initialized {
		return precondition(o.Role(), party.StageConfig,
			"set params in state %s", o.state)
	}
	if params.Bitlen == 0 {
		params.Bitlen = DefaultBitlen
	}
	if err := params.Validate(); err != nil {
		return precondition(o.Role(), party.StageConfig, "%v", err)
	}
	o.params = params
	return nil
}

// Party returns the orchestrator's party.
func (o *Orchestrator) Party() *party.Party {
	return o.party
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.m.Lock()
	defer o.m.Unlock()
	return o.state
}

// Ready returns a channel that is closed when the party is ready.
func (o *Orchestrator) Ready() <-chan struct{} {
	return o.party.Ready()
}

// WaitUntilReady blocks until the party is ready. The server is
// ready when it listens for the client and the client is ready when
// it has connected to the server.
func (o *Orchestrator) WaitUntilReady(ctx context.Context) error {
	return o.party.WaitUntilReady(ctx)
}

// Build builds the circuit from the party's signed shares and mask.
// The shares are mapped to their residues modulo q. The mask must be
// in [0,q) for the masking party and 0 for its peer.
func (o *Orchestrator) Build(shares []int64, mask uint64) error {
	return o.BuildUnsigned(
		sharing.ToUnsignedVector(shares, o.params.Modulus), mask)
}

// BuildUnsigned builds the circuit from the party's shares in [0,q)
// and mask.
func (o *Orchestrator) BuildUnsigned(shares []uint64, mask uint64) error {
	o.m.Lock()
	defer o.m.Unlock()

	if o.state != Initialized {
		return precondition(o.Role(), party.StageBuild,
			"build in state %s", o.state)
	}
	out, err := Build(o.party, o.params, shares, mask)
	if err != nil {
		if errors.Is(err, party.ErrProtocolSync) {
			o.state = Failed
		} else {
			// Drop the partially built circuit.
			if rerr := o.party.Reset(); rerr != nil {
				err = errors.CombineErrors(err, rerr)
			}
		}
		return err
	}
	o.out = out
	o.state = CircuitBuilt
	return nil
}

// Execute executes the circuit jointly with the peer. The function
// blocks until both parties have completed the execution or the
// context is done.
func (o *Orchestrator) Execute(ctx context.Context) error {
	o.m.Lock()
	if o.state != CircuitBuilt {
		state := o.state
		o.m.Unlock()
		return precondition(o.Role(), party.StageExecute,
			"execute in state %s", state)
	}
	o.state = Executing
	o.m.Unlock()

	err := o.party.Execute(ctx)

	o.m.Lock()
	defer o.m.Unlock()

	if err != nil {
		o.state = Failed
		return err
	}
	o.state = Completed
	return nil
}

// Result returns the revealed result (max(x) + r) mod q. Only the
// non-masking party can reveal the result.
func (o *Orchestrator) Result() (uint64, error) {
	o.m.Lock()
	defer o.m.Unlock()

	if o.state != Completed {
		return 0, precondition(o.Role(), party.StageReveal,
			"result in state %s", o.state)
	}
	values, _, count, err := o.out.RevealClearValues()
	if err != nil {
		return 0, err
	}
	if count != 1 {
		return 0, errors.Newf("unexpected result count %d", count)
	}
	return values[0], nil
}

// Reset returns the orchestrator to the Initialized state for a new
// execution over the same peer connection. Reset fails while
// executing and after a failed execution.
func (o *Orchestrator) Reset() error {
	o.m.Lock()
	defer o.m.Unlock()

	switch o.state {
	case Executing:
		return precondition(o.Role(), party.StageReset, "reset while executing")
	case Failed:
		return &party.StageError{
			Role:  o.Role(),
			Stage: party.StageReset,
			Err: errors.Mark(errors.New("failed instance must be discarded"),
				party.ErrProtocolSync),
		}
	}
	if err := o.party.Reset(); err != nil {
		return err
	}
	o.out = nil
	o.state = Initialized
	return nil
}

// Timing returns the timing samples of the latest execution.
func (o *Orchestrator) Timing() *circuit.Timing {
	return o.party.Timing()
}

// Stats returns the I/O statistics of the peer connection.
func (o *Orchestrator) Stats() p2p.IOStats {
	return o.party.Stats()
}

// Close closes the orchestrator and its party.
func (o *Orchestrator) Close() error {
	return o.party.Close()
}

// RunPair runs both parties of the computation in this process. The
// xs and xc are the server's and the client's shares and r is the
// mask of the masking party. If the client port is 0, the client
// connects to the server's listening port. The function returns the
// result revealed to the non-masking party.
func RunPair(ctx context.Context, serverCfg, clientCfg party.Config,
	params Params, xs, xc []uint64, r uint64) (uint64, error) {

	serverCfg.Role = party.Server
	clientCfg.Role = party.Client

	server, err := NewOrchestrator(serverCfg, params)
	if err != nil {
		return 0, err
	}
	defer server.Close()

	if err := server.WaitUntilReady(ctx); err != nil {
		return 0, err
	}
	if clientCfg.Port == 0 {
		_, port, err := net.SplitHostPort(server.Party().Addr())
		if err != nil {
			return 0, err
		}
		clientCfg.Port, err = strconv.Atoi(port)
		if err != nil {
			return 0, err
		}
	}
	client, err := NewOrchestrator(clientCfg, params)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	var rs, rc uint64
	if params.MaskingRole == party.Server {
		rs = r
	} else {
		rc = r
	}
	if err := server.BuildUnsigned(xs, rs); err != nil {
		return 0, err
	}
	if err := client.BuildUnsigned(xc, rc); err != nil {
		return 0, err
	}

	done := make(chan error)
	go func() {
		done <- server.Execute(ctx)
	}()
	errc := client.Execute(ctx)
	errs := <-done
	if errs != nil {
		return 0, errs
	}
	if errc != nil {
		return 0, errc
	}

	receiver := client
	if params.RevealRole() == party.Server {
		receiver = server
	}
	result, err := receiver.Result()
	if err != nil {
		return 0, err
	}
	if err := server.Reset(); err != nil {
		return 0, err
	}
	if err := client.Reset(); err != nil {
		return 0, err
	}
	return result, nil
}
