package fixmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulDiv(t *testing.T) {
	testCases := []struct {
		name    string
		a, b, c int64
		expect  int64
	}{
		{name: "small", a: 6, b: 7, c: 2, expect: 21},
		{name: "truncate positive", a: 7, b: 1, c: 2, expect: 3},
		{name: "truncate negative", a: -7, b: 1, c: 2, expect: -3},
		{name: "negative divisor", a: 10, b: 3, c: -4, expect: -7},
		{name: "wide intermediate", a: 1 << 40, b: 1 << 40, c: 1 << 30, expect: 1 << 50},
		{name: "wide negative", a: -(1 << 40), b: 1 << 40, c: 1 << 30, expect: -(1 << 50)},
		{name: "saturate", a: math.MaxInt64, b: 4, c: 2, expect: math.MaxInt64},
		{name: "saturate negative", a: math.MaxInt64, b: -4, c: 2, expect: math.MinInt64},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, MulDiv(tc.a, tc.b, tc.c))
		})
	}
}

func TestMulDivRound(t *testing.T) {
	require.Equal(t, int64(4), MulDivRound(7, 1, 2))
	require.Equal(t, int64(-4), MulDivRound(-7, 1, 2))
	require.Equal(t, int64(3), MulDivRound(10, 1, 3))
	require.Equal(t, int64(-3), MulDivRound(10, -1, 3))
	require.Equal(t, int64(7), MulDivRound(20, 1, 3))
}

func TestDivRound(t *testing.T) {
	require.Equal(t, int64(2), DivRound(5, 3))
	require.Equal(t, int64(-2), DivRound(-5, 3))
	require.Equal(t, int64(1), DivRound(4, 3))
	require.Equal(t, int64(3), DivRound(5, 2))
}

func TestSqrt(t *testing.T) {
	testCases := []struct {
		x, expect int64
	}{
		{0, 0}, {-4, 0}, {1, 1}, {3, 1}, {4, 2}, {99, 9}, {100, 10},
		{1 << 62, 1 << 31},
		{math.MaxInt64, 3037000499},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, Sqrt(tc.x), "sqrt(%d)", tc.x)
	}
}

func TestClamp(t *testing.T) {
	require.Equal(t, int64(10), Clamp(12, 10))
	require.Equal(t, int64(-10), Clamp(-12, 10))
	require.Equal(t, int64(3), Clamp(3, 10))
	require.Equal(t, int64(5), Bound(1, 5, 9))
	require.Equal(t, int64(9), Bound(10, 5, 9))
	require.Equal(t, int64(-1), Sign(-8))
	require.Equal(t, int64(0), Sign(0))
	require.Equal(t, int64(8), Abs(-8))
}
