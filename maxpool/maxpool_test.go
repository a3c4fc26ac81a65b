//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package maxpool

import (
	"context"
	"fmt"
	"math/big"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/markkurossi/maxpool/party"
	"github.com/markkurossi/maxpool/sharing"
	"github.com/stretchr/testify/require"
)

var (
	serverCfg = party.Config{
		Address:       "127.0.0.1",
		SecurityLevel: 80,
		NumThreads:    2,
	}
	clientCfg = party.Config{
		Address:        "127.0.0.1",
		SecurityLevel:  80,
		NumThreads:     2,
		ConnectTimeout: 5 * time.Second,
	}
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}

func newPair(t *testing.T, params Params) (*Orchestrator, *Orchestrator) {
	ctx := testContext(t)

	scfg := serverCfg
	scfg.Role = party.Server
	server, err := NewOrchestrator(scfg, params)
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })
	require.NoError(t, server.WaitUntilReady(ctx))

	_, port, err := net.SplitHostPort(server.Party().Addr())
	require.NoError(t, err)

	ccfg := clientCfg
	ccfg.Role = party.Client
	ccfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)

	client, err := NewOrchestrator(ccfg, params)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.WaitUntilReady(ctx))

	return server, client
}

func executePair(ctx context.Context, server, client *Orchestrator) (
	error, error) {

	done := make(chan error)
	go func() {
		done <- server.Execute(ctx)
	}()
	errc := client.Execute(ctx)
	return <-done, errc
}

func TestParams(t *testing.T) {
	valid := Params{
		N:       10,
		Modulus: 9,
		Bitlen:  4,
	}
	require.NoError(t, valid.Validate())
	require.Equal(t, party.Client, valid.RevealRole())

	invalid := []Params{
		{N: 0, Modulus: 9, Bitlen: 64},
		{N: 1, Modulus: 0, Bitlen: 64},
		{N: 1, Modulus: 9, Bitlen: 0},
		{N: 1, Modulus: 9, Bitlen: 65},
		{N: 1, Modulus: 17, Bitlen: 4},
		{N: 1, Modulus: 9, Bitlen: 64, MaskingRole: party.Role(2)},
		{N: 1, Modulus: 9, Bitlen: 64, Order: Order(5)},
	}
	for idx, p := range invalid {
		require.Error(t, p.Validate(), "params %d", idx)
	}

	_, err := NewOrchestrator(party.Config{Role: party.Server},
		Params{N: 0, Modulus: 8})
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	o, err := ParseOrder("chain")
	require.NoError(t, err)
	require.Equal(t, OrderChain, o)
	require.Equal(t, "tree", OrderTree.String())
	_, err = ParseOrder("heap")
	require.Error(t, err)
}

func TestExpected(t *testing.T) {
	require.Equal(t, uint64(7), Expected([]uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		0, 8))
	require.Equal(t, uint64(2), Expected([]uint64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		3, 8))
	require.Equal(t, uint64(8), Expected([]uint64{8, 17, 26}, 0, 9))
	require.Equal(t, uint64(0), Expected([]uint64{5}, 0, 1))
}

func TestCase(t *testing.T) {
	g, err := sharing.NewGenerator(0)
	require.NoError(t, err)

	c, err := NewCase(10, 8, g)
	require.NoError(t, err)
	require.Less(t, c.R, uint64(8))

	x, err := sharing.Combine(c.XS, c.XC, c.Q)
	require.NoError(t, err)
	for i := range x {
		require.Equal(t, c.X[i]%c.Q, x[i])
	}
	require.Equal(t, (7+c.R)%8, c.Expected())
	require.NoError(t, c.Verify(c.Expected()))

	err = c.Verify((c.Expected() + 1) % 8)
	require.True(t, errors.Is(err, ErrResultMismatch), "%v", err)
	details := strings.Join(errors.GetAllDetails(err), "\n")
	require.Contains(t, details, fmt.Sprintf("r: %d", c.R))
	require.Contains(t, details, fmt.Sprintf("xc: %v", c.XC))
	require.Contains(t, details, fmt.Sprintf("expected: %d", c.Expected()))
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		n int
		q uint64
	}{
		{10, 8},
		{100, 9},
		{10, 9},
		{100, 8},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d_q%d", test.n, test.q), func(t *testing.T) {
			g, err := sharing.NewGenerator(0)
			require.NoError(t, err)
			c, err := NewCase(test.n, test.q, g)
			require.NoError(t, err)

			params := Params{
				N:       test.n,
				Modulus: test.q,
				Bitlen:  64,
			}
			result, err := RunPair(testContext(t), serverCfg, clientCfg,
				params, c.XS, c.XC, c.R)
			require.NoError(t, err)
			require.NoError(t, c.Verify(result))
		})
	}
}

func TestBoundaries(t *testing.T) {
	tests := []struct {
		name string
		x    []uint64
		q    uint64
		r    uint64
	}{
		{"single", []uint64{6}, 9, 5},
		{"all-equal", []uint64{4, 4, 4, 4, 4}, 9, 8},
		{"zero-mask", []uint64{1, 7, 3}, 8, 0},
		{"max-at-first", []uint64{250, 1, 2, 3, 249}, 251, 250},
		{"modulus-one", []uint64{0, 0}, 1, 0},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g, err := sharing.NewGenerator(1)
			require.NoError(t, err)
			xs, xc, err := sharing.Split(test.x, test.q, g)
			require.NoError(t, err)

			params := Params{
				N:       len(test.x),
				Modulus: test.q,
				Bitlen:  8,
			}
			result, err := RunPair(testContext(t), serverCfg, clientCfg,
				params, xs, xc, test.r)
			require.NoError(t, err)
			require.Equal(t, Expected(test.x, test.r, test.q), result)
		})
	}
}

func TestOrderInvariance(t *testing.T) {
	const q = 1<<32 - 5

	g, err := sharing.NewGenerator(2)
	require.NoError(t, err)

	x := make([]uint64, 13)
	for i := range x {
		x[i], err = g.Uint64n(q)
		require.NoError(t, err)
	}
	xs, xc, err := sharing.Split(x, q, g)
	require.NoError(t, err)
	r, err := g.Uint64n(q)
	require.NoError(t, err)

	var results []uint64
	for _, order := range []Order{OrderTree, OrderChain} {
		params := Params{
			N:       len(x),
			Modulus: q,
			Bitlen:  32,
			Order:   order,
		}
		result, err := RunPair(testContext(t), serverCfg, clientCfg,
			params, xs, xc, r)
		require.NoError(t, err)
		results = append(results, result)
	}
	require.Equal(t, Expected(x, r, q), results[0])
	require.Equal(t, results[0], results[1])
}

func TestClientMasking(t *testing.T) {
	params := Params{
		N:           4,
		Modulus:     1000,
		Bitlen:      10,
		MaskingRole: party.Client,
	}
	x := []uint64{999, 17, 500, 3}
	g, err := sharing.NewGenerator(3)
	require.NoError(t, err)
	xs, xc, err := sharing.Split(x, params.Modulus, g)
	require.NoError(t, err)

	result, err := RunPair(testContext(t), serverCfg, clientCfg, params,
		xs, xc, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result)
}

func TestSignedShares(t *testing.T) {
	params := Params{
		N:       3,
		Modulus: 9,
		Bitlen:  64,
	}
	server, client := newPair(t, params)

	// x = [1, 8, 4]
	require.NoError(t, server.Build([]int64{-3, 4, -1}, 2))
	require.NoError(t, client.Build([]int64{4, 4, 5}, 0))

	errs, errc := executePair(testContext(t), server, client)
	require.NoError(t, errs)
	require.NoError(t, errc)

	result, err := client.Result()
	require.NoError(t, err)
	require.Equal(t, uint64(1), result)
	require.Equal(t, int64(1), sharing.ToSigned(result, params.Modulus))
}

func TestMaskingPartyReveal(t *testing.T) {
	params := Params{
		N:       2,
		Modulus: 8,
		Bitlen:  64,
	}
	server, client := newPair(t, params)

	require.NoError(t, server.BuildUnsigned([]uint64{1, 2}, 3))
	require.NoError(t, client.BuildUnsigned([]uint64{4, 5}, 0))
	require.Equal(t, CircuitBuilt, server.State())

	errs, errc := executePair(testContext(t), server, client)
	require.NoError(t, errs)
	require.NoError(t, errc)
	require.Equal(t, Completed, server.State())

	result, err := server.Result()
	require.True(t, errors.Is(err, party.ErrRevealAuthorization), "%v", err)
	require.Zero(t, result)

	var se *party.StageError
	require.True(t, errors.As(err, &se))
	require.Equal(t, party.Server, se.Role)
	require.Equal(t, party.StageReveal, se.Stage)

	result, err = client.Result()
	require.NoError(t, err)
	require.Equal(t, uint64((7+3)%8), result)
}

func TestClientTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	l.Close()

	cfg := clientCfg
	cfg.Role = party.Client
	cfg.Port, err = strconv.Atoi(port)
	require.NoError(t, err)
	cfg.ConnectTimeout = 300 * time.Millisecond

	start := time.Now()
	client, err := NewOrchestrator(cfg, Params{N: 1, Modulus: 8})
	require.NoError(t, err)
	defer client.Close()

	err = client.WaitUntilReady(testContext(t))
	require.True(t, errors.Is(err, party.ErrProtocolSync), "%v", err)
	require.Less(t, time.Since(start), 5*time.Second)

	require.NoError(t, client.BuildUnsigned([]uint64{1}, 0))
	err = client.Execute(testContext(t))
	require.True(t, errors.Is(err, party.ErrProtocolSync), "%v", err)
	require.Equal(t, Failed, client.State())

	err = client.Reset()
	require.True(t, errors.Is(err, party.ErrProtocolSync), "%v", err)
}

func TestResetWhileExecuting(t *testing.T) {
	params := Params{
		N:       3,
		Modulus: 9,
		Bitlen:  8,
	}
	server, client := newPair(t, params)
	ctx := testContext(t)

	require.NoError(t, server.BuildUnsigned([]uint64{1, 2, 3}, 4))
	require.NoError(t, client.BuildUnsigned([]uint64{0, 0, 0}, 0))

	done := make(chan error)
	go func() {
		done <- server.Execute(ctx)
	}()
	require.Eventually(t, func() bool {
		return server.State() == Executing
	}, 5*time.Second, time.Millisecond)

	err := server.Reset()
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)
	err = server.Execute(ctx)
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	require.NoError(t, client.Execute(ctx))
	require.NoError(t, <-done)

	result, err := client.Result()
	require.NoError(t, err)
	require.Equal(t, uint64(7), result)
}

func TestSequentialExecutions(t *testing.T) {
	params := Params{
		N:       5,
		Modulus: 9,
		Bitlen:  64,
	}
	server, client := newPair(t, params)
	ctx := testContext(t)

	g, err := sharing.NewGenerator(4)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c, err := NewCase(params.N, params.Modulus, g)
		require.NoError(t, err)

		require.NoError(t, server.BuildUnsigned(c.XS, c.R))
		require.NoError(t, client.BuildUnsigned(c.XC, 0))

		errs, errc := executePair(ctx, server, client)
		require.NoError(t, errs)
		require.NoError(t, errc)

		result, err := client.Result()
		require.NoError(t, err)
		require.NoError(t, c.Verify(result))

		// A completed instance must be reset before the next build.
		err = server.BuildUnsigned(c.XS, c.R)
		require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

		require.NoError(t, server.Reset())
		require.NoError(t, client.Reset())
		require.Equal(t, Initialized, client.State())
	}
	require.NotNil(t, client.Timing())
	require.NotZero(t, client.Stats().Sum())

	// Change the vector length over the same connection.
	params.N = 2
	params.Order = OrderChain
	require.NoError(t, server.SetParams(params))
	require.NoError(t, client.SetParams(params))
	require.Equal(t, 2, client.Params().N)

	require.NoError(t, server.BuildUnsigned([]uint64{3, 7}, 5))
	require.NoError(t, client.BuildUnsigned([]uint64{3, 1}, 0))
	err = client.SetParams(params)
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	errs, errc := executePair(ctx, server, client)
	require.NoError(t, errs)
	require.NoError(t, errc)

	result, err := client.Result()
	require.NoError(t, err)
	require.Equal(t, uint64((8+5)%9), result)

	err = server.SetParams(Params{N: 0, Modulus: 9})
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)
}

func TestBuildPreconditions(t *testing.T) {
	params := Params{
		N:       3,
		Modulus: 9,
		Bitlen:  8,
	}
	server, client := newPair(t, params)

	tests := []struct {
		o      *Orchestrator
		shares []uint64
		mask   uint64
	}{
		{server, []uint64{1, 9, 2}, 0},
		{server, []uint64{1, 2}, 0},
		{server, []uint64{1, 2, 3}, 9},
		{client, []uint64{1, 2, 3}, 1},
	}
	for idx, test := range tests {
		err := test.o.BuildUnsigned(test.shares, test.mask)
		require.True(t, errors.Is(err, party.ErrPrecondition),
			"test %d: %v", idx, err)
		require.Equal(t, Initialized, test.o.State())
	}

	err := server.Execute(testContext(t))
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)
	_, err = client.Result()
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	// A valid build still succeeds after rejected builds.
	require.NoError(t, server.BuildUnsigned([]uint64{8, 0, 1}, 1))
	require.NoError(t, client.BuildUnsigned([]uint64{0, 0, 0}, 0))

	errs, errc := executePair(testContext(t), server, client)
	require.NoError(t, errs)
	require.NoError(t, errc)

	result, err := client.Result()
	require.NoError(t, err)
	require.Equal(t, uint64(0), result)
}

func TestReduceEmpty(t *testing.T) {
	_, err := Reduce(nil, nil, OrderTree)
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	bc := party.NewBooleanCircuit(party.Client, false)
	_, err = Reduce(bc, nil, OrderTree)
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	var se *party.StageError
	require.True(t, errors.As(err, &se), "%v", err)
	require.Equal(t, party.Client, se.Role)
	require.Equal(t, party.StageBuild, se.Stage)
}

func TestReduceInvalidOrder(t *testing.T) {
	bc := party.NewBooleanCircuit(party.Server, false)
	elements, err := bc.PutINGate([]uint64{3, 5}, 8, party.Server)
	require.NoError(t, err)

	_, err = Reduce(bc, elements, Order(42))
	require.True(t, errors.Is(err, party.ErrPrecondition), "%v", err)

	var se *party.StageError
	require.True(t, errors.As(err, &se), "%v", err)
	require.Equal(t, party.Server, se.Role)
	require.Equal(t, party.StageBuild, se.Stage)
}

func TestCircuit(t *testing.T) {
	params := Params{
		N:       6,
		Modulus: 9,
		Bitlen:  8,
	}
	circ, err := Circuit(params)
	require.NoError(t, err)
	require.Len(t, circ.Inputs, 3)
	require.Len(t, circ.Outputs, 1)
	require.Equal(t, int(party.Client), circ.Outputs[0].Party)
	require.NoError(t, circ.Validate())

	// Both parties build the same circuit.
	var digests [][]byte
	for _, role := range []party.Role{party.Server, party.Client} {
		bc := party.NewBooleanCircuit(role, false)
		var mask uint64
		if role == params.MaskingRole {
			mask = 4
		}
		_, err := BuildCircuit(bc, params, []uint64{1, 2, 3, 4, 5, 6}, mask)
		require.NoError(t, err)
		c, err := bc.Compile()
		require.NoError(t, err)
		digest, err := c.Digest()
		require.NoError(t, err)
		digests = append(digests, digest)
	}
	require.Equal(t, digests[0], digests[1])

	xs := []uint64{8, 0, 3, 7, 2, 5}
	xc := []uint64{1, 4, 3, 1, 2, 0}
	var inputs []*big.Int
	for i, values := range [][]uint64{xs, xc, {6}} {
		v, err := circ.Inputs[i].Pack(values)
		require.NoError(t, err)
		inputs = append(inputs, v)
	}
	outputs, err := circ.Compute(inputs)
	require.NoError(t, err)
	result := circ.Outputs[0].Unpack(outputs[0])

	x, err := sharing.Combine(xs, xc, params.Modulus)
	require.NoError(t, err)
	require.Equal(t, []uint64{Expected(x, 6, params.Modulus)}, result)
}
