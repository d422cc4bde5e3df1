package differentiator

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
)

func feed(d *Differentiator, from motor.Angle, step int64, n int) (motor.Angle, int32) {
	var speed int32
	angle := from
	for i := 0; i < n; i++ {
		angle = angle.AddMillidegrees(step)
		speed = d.Update(angle)
	}
	return angle, speed
}

func TestUpdate(t *testing.T) {
	testCases := []struct {
		name  string
		from  motor.Angle
		step  int64
		count int
		speed int32
	}{
		{name: "standstill", from: motor.AngleFromDegrees(30), step: 0, count: 10, speed: 0},
		{name: "forward", step: 500, count: Window + 1, speed: 100000},
		{name: "backward", step: -1250, count: 10, speed: -250000},
		{name: "partial window", step: 500, count: 2, speed: 50000},
		{name: "across rotations", from: motor.Angle{Rotations: 3, Millidegrees: 359000}, step: 400, count: 8, speed: 80000},
		{name: "loose millidegrees", from: motor.Angle{Rotations: -1, Millidegrees: 500000}, step: 100, count: 8, speed: 20000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := New(tc.from)
			_, speed := feed(d, tc.from, tc.step, tc.count)
			require.Equal(t, tc.speed, speed)
		})
	}
}

func TestSpeed(t *testing.T) {
	d := New(motor.Angle{})
	feed(d, motor.Angle{}, 500, Capacity+5)

	testCases := []struct {
		windowMs int32
		speed    int32
		err      bool
	}{
		{windowMs: 5, speed: 100000},
		{windowMs: 3, speed: 100000},
		{windowMs: 20, speed: 100000},
		{windowMs: 100, speed: 100000},
		{windowMs: 102, speed: 100000},
		{windowMs: 0, err: true},
		{windowMs: 2, err: true},
		{windowMs: 103, err: true},
		{windowMs: 200, err: true},
		{windowMs: -5, err: true},
	}
	for _, tc := range testCases {
		speed, err := d.Speed(tc.windowMs)
		if tc.err {
			require.Error(t, err, "window %d", tc.windowMs)
			require.Equal(t, motor.ErrInvalidArgument, errors.Cause(err))
			continue
		}
		require.NoError(t, err, "window %d", tc.windowMs)
		require.Equal(t, tc.speed, speed, "window %d", tc.windowMs)
	}
}

func TestSpeedAfterAcceleration(t *testing.T) {
	d := New(motor.Angle{})
	angle, _ := feed(d, motor.Angle{}, 100, 10)
	_, speed := feed(d, angle, 300, Window)
	require.Equal(t, int32(60000), speed)

	long, err := d.Speed(40)
	require.NoError(t, err)
	require.Equal(t, int32((4*300+4*100)*1000/40), long)
}

func TestReset(t *testing.T) {
	d := New(motor.Angle{})
	angle, speed := feed(d, motor.Angle{}, 500, 10)
	require.NotZero(t, speed)

	d.Reset(angle)
	for _, windowMs := range []int32{5, 20, 100} {
		speed, err := d.Speed(windowMs)
		require.NoError(t, err)
		require.Zero(t, speed)
	}
	require.Equal(t, int32(25000), d.Update(angle.AddMillidegrees(500)))
}
