package battery

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
)

type voltageFunc func() (int32, error)

func (f voltageFunc) Voltage() (int32, error) {
	return f()
}

func TestUpdate(t *testing.T) {
	b := New(8000)
	require.Equal(t, int32(8000), b.Voltage())

	b.Update(8000)
	require.Equal(t, int32(8000), b.Voltage())

	b.Update(8128)
	require.Equal(t, int32(8001), b.Voltage())

	for n := 0; n < 2000; n++ {
		b.Update(7000)
	}
	require.InDelta(t, 7000, b.Voltage(), 1)
}

func TestSample(t *testing.T) {
	b := New(NominalVoltage)
	require.NoError(t, b.Sample(voltageFunc(func() (int32, error) { return 9128, nil })))
	require.Equal(t, int32(9001), b.Voltage())

	err := b.Sample(voltageFunc(func() (int32, error) { return 0, motor.ErrIO }))
	require.Equal(t, motor.ErrIO, errors.Cause(err))
	require.Equal(t, int32(9001), b.Voltage())
}

func TestConversions(t *testing.T) {
	b := New(8000)
	testCases := []struct {
		voltage int32
		duty    int32
	}{
		{0, 0},
		{4000, 5000},
		{-2000, -2500},
		{8000, 10000},
		{12000, 10000},
		{-9000, -10000},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.duty, b.DutyFromVoltage(tc.voltage), "voltage %d", tc.voltage)
	}
	require.Equal(t, int32(8000), b.VoltageFromDuty(10000))
	require.Equal(t, int32(8000), b.VoltageFromDuty(20000))
	require.Equal(t, int32(-4000), b.VoltageFromDuty(-5000))
}

func TestRoundTrip(t *testing.T) {
	for _, supply := range []int32{6500, 7400, 8300, 9000} {
		b := New(supply)
		// one duty step
		step := float64(supply) / motor.MaxDuty
		for v := -supply; v <= supply; v += 37 {
			require.InDelta(t, v, b.VoltageFromDuty(b.DutyFromVoltage(v)), step+1, "supply %d voltage %d", supply, v)
		}
	}
}

func TestEmptyBattery(t *testing.T) {
	b := New(0)
	require.Equal(t, int32(motor.MaxDuty), b.DutyFromVoltage(500000))
	require.Equal(t, int32(5000), b.DutyFromVoltage(500))
	require.Equal(t, int32(MinVoltage), b.VoltageFromDuty(motor.MaxDuty))
}
