package hbridge

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
)

type call struct {
	coast bool
	duty  int32
}

type fakeDriver struct {
	calls []call
	err   error
}

func (d *fakeDriver) SetDutyCycle(port motor.Port, duty int32) error {
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, call{duty: duty})
	return nil
}

func (d *fakeDriver) Coast(port motor.Port) error {
	if d.err != nil {
		return d.err
	}
	d.calls = append(d.calls, call{coast: true})
	return nil
}

func (d *fakeDriver) last() call {
	return d.calls[len(d.calls)-1]
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name string
		conf Config
		ok   bool
	}{
		{"default", DefaultConfig(), true},
		{"offset", Config{DutyOffset: 1000, MaxDuty: 8000}, true},
		{"zero max", Config{}, false},
		{"max too large", Config{MaxDuty: motor.MaxDuty + 1}, false},
		{"negative offset", Config{DutyOffset: -1, MaxDuty: 1000}, false},
		{"offset too large", Config{DutyOffset: 1000, MaxDuty: 1000}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := New(&fakeDriver{}, motor.PortA, tc.conf)
			if tc.ok {
				require.NoError(t, err)
				require.Equal(t, StateCoast, h.State())
				return
			}
			require.Equal(t, motor.ErrInvalidArgument, errors.Cause(err))
		})
	}
}

func TestSetDutyCycle(t *testing.T) {
	testCases := []struct {
		name      string
		direction motor.Direction
		offset    int32
		max       int32
		duty      int32
		out       int32
		applied   int32
	}{
		{name: "plain", max: 10000, duty: 4000, out: 4000, applied: 4000},
		{name: "clamped", max: 8000, duty: 9000, out: 8000, applied: 8000},
		{name: "clamped negative", max: 8000, duty: -20000, out: -8000, applied: -8000},
		{name: "offset", offset: 1000, max: 10000, duty: 1, out: 1000, applied: 1},
		{name: "offset scaled", offset: 1000, max: 10000, duty: 5000, out: 5500, applied: 5000},
		{name: "offset negative", offset: 1000, max: 10000, duty: -5000, out: -5500, applied: -5000},
		{name: "offset full", offset: 2000, max: 10000, duty: 10000, out: 10000, applied: 10000},
		{name: "reversed", direction: motor.Counterclockwise, max: 10000, duty: 3000, out: -3000, applied: 3000},
		{name: "reversed offset", direction: motor.Counterclockwise, offset: 500, max: 10000, duty: -2000, out: 2400, applied: -2000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDriver{}
			h, err := New(d, motor.PortC, Config{Direction: tc.direction, DutyOffset: tc.offset, MaxDuty: tc.max})
			require.NoError(t, err)
			require.NoError(t, h.SetDutyCycle(tc.duty))
			require.Equal(t, call{duty: tc.out}, d.last())
			require.Equal(t, StateDutyActive, h.State())
			require.Equal(t, tc.applied, h.Duty())

			require.NoError(t, h.SetDutyCyclePassive(tc.duty))
			require.Equal(t, call{duty: tc.out}, d.last())
			require.Equal(t, StateDutyPassive, h.State())
		})
	}
}

func TestZeroDutyBrakes(t *testing.T) {
	prepare := map[string]func(h *HBridge) error{
		"coast":   func(h *HBridge) error { return h.Coast() },
		"brake":   func(h *HBridge) error { return h.Brake() },
		"active":  func(h *HBridge) error { return h.SetDutyCycle(-3000) },
		"passive": func(h *HBridge) error { return h.SetDutyCyclePassive(7000) },
	}
	for name, fn := range prepare {
		t.Run(name, func(t *testing.T) {
			d := &fakeDriver{}
			h, err := New(d, motor.PortB, Config{DutyOffset: 1500, MaxDuty: 10000})
			require.NoError(t, err)
			require.NoError(t, fn(h))
			require.NoError(t, h.SetDutyCycle(0))
			require.Equal(t, StateBrake, h.State())
			require.Equal(t, call{}, d.last())
			require.Zero(t, h.Duty())
		})
	}
}

func TestCoast(t *testing.T) {
	d := &fakeDriver{}
	h, err := New(d, motor.PortD, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, h.SetDutyCycle(2000))
	require.NoError(t, h.Coast())
	require.Equal(t, call{coast: true}, d.last())
	require.Equal(t, StateCoast, h.State())
	require.Zero(t, h.Duty())
}

func TestDriverError(t *testing.T) {
	d := &fakeDriver{}
	h, err := New(d, motor.PortE, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, h.SetDutyCycle(2000))

	d.err = motor.ErrIO
	require.Equal(t, motor.ErrIO, h.SetDutyCycle(-1000))
	require.Equal(t, motor.ErrIO, h.Brake())
	require.Equal(t, motor.ErrIO, h.Coast())
	require.Equal(t, StateDutyActive, h.State())
	require.Equal(t, int32(2000), h.Duty())
}
