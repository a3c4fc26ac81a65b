//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sharing

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestToUnsigned(t *testing.T) {
	tests := []struct {
		v        int64
		q        uint64
		expected uint64
	}{
		{0, 7, 0},
		{5, 7, 5},
		{7, 7, 0},
		{-1, 7, 6},
		{-7, 7, 0},
		{-8, 7, 6},
		{-1, 1 << 32, 1<<32 - 1},
		{math.MinInt64, 1 << 63, 0},
		{math.MinInt64, 10, 2},
		{math.MaxInt64, math.MaxUint64, math.MaxInt64},
		{-1, math.MaxUint64, math.MaxUint64 - 1},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, ToUnsigned(test.v, test.q),
			"ToUnsigned(%d, %d)", test.v, test.q)
	}
}

func TestToSigned(t *testing.T) {
	tests := []struct {
		u        uint64
		q        uint64
		expected int64
	}{
		{0, 7, 0},
		{3, 7, 3},
		{4, 7, -3},
		{6, 7, -1},
		{4, 8, 4},
		{5, 8, -3},
		{1<<32 - 1, 1 << 32, -1},
	}
	for _, test := range tests {
		require.Equal(t, test.expected, ToSigned(test.u, test.q),
			"ToSigned(%d, %d)", test.u, test.q)
	}
}

func TestSignedRoundTrip(t *testing.T) {
	for _, q := range []uint64{7, 8, 256, 1 << 32} {
		half := int64(q / 2)
		for v := -half + 1; v <= half && v < -half+600; v++ {
			require.Equal(t, v, ToSigned(ToUnsigned(v, q), q), "q=%d", q)
		}
	}
	values := []int64{-3, -2, -1, 0, 1, 2, 3}
	require.Empty(t, cmp.Diff(values,
		ToSignedVector(ToUnsignedVector(values, 7), 7)))
}

func TestModArithmetic(t *testing.T) {
	const q = math.MaxUint64
	require.Equal(t, uint64(q-3), AddMod(q-1, q-2, q))
	require.Equal(t, uint64(0), AddMod(1, q-1, q))
	require.Equal(t, uint64(4), AddMod(2, 2, 5))
	require.Equal(t, uint64(1), AddMod(3, 3, 5))
	require.Equal(t, uint64(q-1), SubMod(0, 1, q))
	require.Equal(t, uint64(3), SubMod(1, 3, 5))
}

func TestGenerator(t *testing.T) {
	g1, err := NewGenerator(42)
	require.NoError(t, err)
	g2, err := NewGenerator(42)
	require.NoError(t, err)
	g3, err := NewGenerator(43)
	require.NoError(t, err)

	var a, b, c [64]byte
	_, err = g1.Read(a[:])
	require.NoError(t, err)
	_, err = g2.Read(b[:])
	require.NoError(t, err)
	_, err = g3.Read(c[:])
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)

	g1.Reset()
	_, err = g1.Read(c[:])
	require.NoError(t, err)
	require.Equal(t, a, c)
	require.Equal(t, uint64(42), g1.Seed())
}

func TestGeneratorBounds(t *testing.T) {
	g, err := NewGenerator(1)
	require.NoError(t, err)

	_, err = g.Uint64n(0)
	require.Error(t, err)

	seen := make(map[uint64]bool)
	for i := 0; i < 1000; i++ {
		v, err := g.Uint64n(7)
		require.NoError(t, err)
		require.Less(t, v, uint64(7))
		seen[v] = true

		v, err = g.Uint64n(256)
		require.NoError(t, err)
		require.Less(t, v, uint64(256))

		s, err := g.Int64n(-5, 5)
		require.NoError(t, err)
		require.GreaterOrEqual(t, s, int64(-5))
		require.LessOrEqual(t, s, int64(5))
	}
	require.Len(t, seen, 7)

	_, err = g.Int64n(1, 0)
	require.Error(t, err)
	_, err = g.Int64n(math.MinInt64, math.MaxInt64)
	require.NoError(t, err)
}

func TestSplitCombine(t *testing.T) {
	g, err := NewGenerator(7)
	require.NoError(t, err)

	for _, q := range []uint64{2, 7, 256, 1 << 32, math.MaxUint64} {
		x := make([]uint64, 50)
		for i := range x {
			x[i], err = g.Uint64n(q)
			require.NoError(t, err)
		}
		xs, xc, err := Split(x, q, g)
		require.NoError(t, err)
		require.Len(t, xs, len(x))
		require.Len(t, xc, len(x))
		for i := range x {
			require.Less(t, xs[i], q)
			require.Less(t, xc[i], q)
		}
		result, err := Combine(xs, xc, q)
		require.NoError(t, err)
		if diff := cmp.Diff(x, result); diff != "" {
			t.Errorf("q=%d: Combine mismatch (-want +got):\n%s", q, diff)
		}
	}

	_, err = Combine([]uint64{1}, []uint64{1, 2}, 7)
	require.Error(t, err)
}

func TestSplitReduces(t *testing.T) {
	g, err := NewGenerator(9)
	require.NoError(t, err)

	xs, xc, err := Split([]uint64{10, 14}, 7, g)
	require.NoError(t, err)
	result, err := Combine(xs, xc, 7)
	require.NoError(t, err)
	require.Equal(t, []uint64{3, 0}, result)
	require.Equal(t, uint64(3), Max(result))
}
