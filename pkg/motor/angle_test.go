package motor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAngleNormalize(t *testing.T) {
	testCases := []struct {
		name   string
		angle  Angle
		expect Angle
	}{
		{
			name:   "already normalized",
			angle:  Angle{Rotations: 1, Millidegrees: 90000},
			expect: Angle{Rotations: 1, Millidegrees: 90000},
		},
		{
			name:   "millidegrees overflow",
			angle:  Angle{Rotations: 1, Millidegrees: 450000},
			expect: Angle{Rotations: 2, Millidegrees: 90000},
		},
		{
			name:   "mixed signs",
			angle:  Angle{Rotations: 1, Millidegrees: -90000},
			expect: Angle{Rotations: 0, Millidegrees: 270000},
		},
		{
			name:   "negative",
			angle:  Angle{Rotations: 0, Millidegrees: -450000},
			expect: Angle{Rotations: -1, Millidegrees: -90000},
		},
		{
			name:   "loose extreme",
			angle:  Angle{Rotations: 0, Millidegrees: math.MaxInt32},
			expect: Angle{Rotations: 5965, Millidegrees: 83647},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.angle.Normalize())
			require.Equal(t, tc.angle.Total(), tc.angle.Normalize().Total())
		})
	}
}

func TestAngleArithmetic(t *testing.T) {
	a := Angle{Rotations: 3, Millidegrees: 350000}
	b := Angle{Rotations: -1, Millidegrees: 20000}
	require.Equal(t, Angle{Rotations: 3, Millidegrees: 10000}, a.Add(b))
	require.Equal(t, int64(4*360000+330000), a.Sub(b))
	require.Equal(t, -a.Sub(b), b.Sub(a))
	require.Equal(t, Angle{Rotations: 4, Millidegrees: 10000}, a.AddMillidegrees(20000))

	// loose millidegrees on both sides do not overflow int32.
	c := Angle{Millidegrees: math.MaxInt32}
	d := Angle{Millidegrees: math.MinInt32}
	require.Equal(t, int64(math.MaxInt32)-int64(math.MinInt32), c.Sub(d))
	require.Equal(t, int64(-1), c.Add(d).Total())
}

func TestAngleSaturates(t *testing.T) {
	a := AngleFromMillidegrees(math.MaxInt64)
	require.Equal(t, int32(math.MaxInt32), a.Rotations)
	a = AngleFromMillidegrees(math.MinInt64)
	require.Equal(t, int32(math.MinInt32), a.Rotations)
}

func TestAngleString(t *testing.T) {
	require.Equal(t, "90.500°", AngleFromMillidegrees(90500).String())
	require.Equal(t, "-0.250°", AngleFromMillidegrees(-250).String())
	require.Equal(t, int64(-720), AngleFromDegrees(-720).Degrees())
}
