package servo

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/battery"
	"github.com/robotalks/servo.go/pkg/motor/control"
	"github.com/robotalks/servo.go/pkg/motor/hbridge"
	simhub "github.com/robotalks/servo.go/pkg/sim/bots/hub"
)

type rig struct {
	t     *testing.T
	hub   *simhub.Hub
	port  *simhub.Port
	servo *Servo
	now   motor.Ticks
}

func newRig(t *testing.T, direction motor.Direction) *rig {
	hub := simhub.New("test")
	port, err := hub.Attach(motor.PortA, motor.KindEV3Large)
	require.NoError(t, err)
	bridge := hbridge.DefaultConfig()
	bridge.Direction = direction
	s, err := New(Config{Port: motor.PortA, Kind: motor.KindEV3Large, Bridge: bridge},
		Devices{Driver: hub, Angles: hub}, battery.New(8300))
	require.NoError(t, err)
	return &rig{t: t, hub: hub, port: port, servo: s}
}

// step runs n loop periods.
func (r *rig) step(n int) {
	for ; n > 0; n-- {
		r.hub.Advance(motor.LoopPeriodMs * time.Millisecond)
		r.now = r.now.Add(motor.LoopPeriod)
		require.NoError(r.t, r.servo.Update(r.now))
	}
}

// until runs loop periods until cond holds, failing after max periods.
func (r *rig) until(max int, cond func() bool) {
	for n := 0; n < max; n++ {
		if cond() {
			return
		}
		r.step(1)
	}
	require.True(r.t, cond(), "condition not met after %d periods", max)
}

func (r *rig) degrees() float64 {
	a, _ := r.port.Rotation()
	return a
}

func near(t *testing.T, expected, actual, delta int64) {
	require.InDelta(t, float64(expected), float64(actual), float64(delta))
}

func TestNew(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.Equal(t, motor.PortA, r.servo.Port())
	require.Equal(t, motor.KindEV3Large, r.servo.Kind())
	require.True(t, r.servo.Done())
	require.Equal(t, int32(1600000), r.servo.Settings().MaxSpeed)

	hub := simhub.New("test")
	_, err := New(Config{Port: motor.PortB, Kind: motor.KindEV3Large, Bridge: hbridge.DefaultConfig()},
		Devices{Driver: hub, Angles: hub}, battery.New(8300))
	require.Equal(t, motor.ErrNoDevice, errors.Cause(err))

	_, err = New(Config{Port: motor.PortA, Kind: motor.KindNone, Bridge: hbridge.DefaultConfig()},
		Devices{Driver: hub, Angles: hub}, battery.New(8300))
	require.Equal(t, motor.ErrNotSupported, errors.Cause(err))
}

func TestRunTarget(t *testing.T) {
	testCases := []struct {
		name      string
		direction motor.Direction
		speed     int32
		target    int64
	}{
		{"forward", motor.Clockwise, 500000, 360000},
		{"backward", motor.Clockwise, 500000, -360000},
		{"counterclockwise", motor.Counterclockwise, 500000, 360000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t, tc.direction)
			require.NoError(t, r.servo.RunTarget(r.now, tc.speed, motor.AngleFromMillidegrees(tc.target), motor.ThenHold))
			require.False(t, r.servo.Done())
			require.Equal(t, control.ActionRunTarget, r.servo.State(r.now).Action)

			r.step(100)
			st := r.servo.State(r.now)
			require.False(t, st.Done)
			near(t, 500000, int64(fixAbs(st.Speed)), 60000)

			r.until(200, r.servo.Done)
			r.step(200)
			st = r.servo.State(r.now)
			require.True(t, st.Done)
			require.False(t, st.Stalled)
			require.Equal(t, control.ActionTrack, st.Action)
			near(t, tc.target, st.Angle.Total(), 2000)

			deg := r.degrees()
			if tc.direction == motor.Counterclockwise {
				deg = -deg
			}
			require.InDelta(t, float64(tc.target)/1000, deg, 2)
		})
	}
}

func TestRunAngle(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.NoError(t, r.servo.RunAngle(r.now, -500000, 90000, motor.ThenBrake))
	r.until(200, r.servo.Done)
	st := r.servo.State(r.now)
	require.Equal(t, control.ActionNone, st.Action)
	near(t, -90000, st.Angle.Total(), 10000)
	require.Equal(t, hbridge.StateBrake, r.servo.bridge.State())
}

func fixAbs(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRunTime(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.NoError(t, r.servo.RunTime(r.now, 500000, 1000, motor.ThenCoast))
	r.step(100)
	require.False(t, r.servo.Done())
	r.step(100)
	require.True(t, r.servo.Done())
	r.step(100)
	st := r.servo.State(r.now)
	require.Equal(t, control.ActionNone, st.Action)
	require.Equal(t, hbridge.StateCoast, r.servo.bridge.State())
	// 1s at 500°/s less the 156ms ramps.
	near(t, 422000, st.Angle.Total(), 5000)

	require.Error(t, r.servo.RunTime(r.now, 500000, -1, motor.ThenCoast))
}

func TestRun(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.NoError(t, r.servo.Run(r.now, 300000))
	r.step(200)
	st := r.servo.State(r.now)
	require.False(t, st.Done)
	require.Equal(t, control.ActionRun, st.Action)
	near(t, 300000, int64(st.Speed), 20000)
	require.True(t, st.Duty > 0)

	require.NoError(t, r.servo.Stop(r.now, motor.ThenHold))
	r.step(100)
	st = r.servo.State(r.now)
	require.Equal(t, control.ActionTrack, st.Action)
	near(t, 0, int64(st.Speed), 10000)

	require.NoError(t, r.servo.Stop(r.now, motor.ThenCoast))
	require.Equal(t, control.ActionNone, r.servo.State(r.now).Action)
	require.Equal(t, motor.ErrInvalidArgument, errors.Cause(r.servo.Stop(r.now, motor.ThenContinue)))
}

func TestStall(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	r.port.Plant.Blocked = true
	require.NoError(t, r.servo.RunTarget(r.now, 500000, motor.AngleFromDegrees(360), motor.ThenHold))
	r.until(200, func() bool { return r.servo.Stalled(r.now) })
	st := r.servo.State(r.now)
	require.False(t, st.Done)
	require.Equal(t, int32(motor.MaxDuty), st.Duty)
	require.Equal(t, r.servo.Settings().MaxTorque, st.Load)

	// The reference stops advancing while stalled.
	ref := r.servo.control.Trajectory().Evaluate(r.servo.control.RefTime(r.now))
	r.step(20)
	require.Equal(t, ref, r.servo.control.Trajectory().Evaluate(r.servo.control.RefTime(r.now)))

	r.port.Plant.Blocked = false
	r.until(400, r.servo.Done)
	near(t, 360000, r.servo.State(r.now).Angle.Total(), 10000)
}

func TestRunUntilStalled(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.Equal(t, motor.ErrInvalidArgument,
		errors.Cause(r.servo.RunUntilStalled(r.now, 200000, motor.ThenContinue)))

	require.NoError(t, r.servo.RunUntilStalled(r.now, 200000, motor.ThenCoast))
	r.until(300, func() bool {
		if r.servo.State(r.now).Angle.Degrees() >= 90 {
			r.port.Plant.Blocked = true
		}
		return r.servo.Done()
	})
	st := r.servo.State(r.now)
	require.True(t, st.Stalled)
	require.Equal(t, control.ActionNone, st.Action)
	near(t, 90000, st.Angle.Total(), 2000)
	require.Equal(t, hbridge.StateCoast, r.servo.bridge.State())
}

func TestDc(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.Equal(t, motor.ErrInvalidArgument, errors.Cause(r.servo.Dc(motor.MaxDuty+1)))

	require.NoError(t, r.servo.Dc(5000))
	r.step(200)
	st := r.servo.State(r.now)
	require.True(t, st.Done)
	require.False(t, st.Stalled)
	require.Equal(t, int32(5000), st.Duty)
	require.Equal(t, control.ActionNone, st.Action)
	require.True(t, st.Speed > 300000)

	r.port.Plant.Blocked = true
	r.step(200)
	require.True(t, r.servo.Stalled(r.now))

	require.NoError(t, r.servo.Dc(0))
	require.Equal(t, hbridge.StateBrake, r.servo.bridge.State())
}

func TestResetAngle(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.NoError(t, r.servo.RunTarget(r.now, 500000, motor.AngleFromDegrees(90), motor.ThenHold))
	r.until(200, r.servo.Done)
	r.step(50)

	require.NoError(t, r.servo.ResetAngle(r.now, motor.AngleFromDegrees(0)))
	require.Equal(t, control.ActionTrack, r.servo.State(r.now).Action)
	r.step(100)
	st := r.servo.State(r.now)
	near(t, 0, st.Angle.Total(), 2000)
	require.InDelta(t, 90, r.degrees(), 2)

	require.NoError(t, r.servo.Run(r.now, 300000))
	r.step(10)
	require.NoError(t, r.servo.ResetAngle(r.now, motor.AngleFromDegrees(1000)))
	require.Equal(t, control.ActionNone, r.servo.State(r.now).Action)
	require.Equal(t, int64(1000), r.servo.State(r.now).Angle.Degrees())
}

func TestSetSettings(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	settings := r.servo.Settings()
	settings.MaxSpeed = 800000
	require.NoError(t, r.servo.SetSettings(settings))
	require.Equal(t, int32(800000), r.servo.Settings().MaxSpeed)

	require.NoError(t, r.servo.Run(r.now, 300000))
	require.Equal(t, motor.ErrAgain, errors.Cause(r.servo.SetSettings(settings)))
}

func TestDriverFailure(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	require.NoError(t, r.servo.Run(r.now, 300000))
	r.step(20)
	r.port.Fail = true
	r.hub.Advance(motor.LoopPeriodMs * time.Millisecond)
	err := r.servo.Update(r.now.Add(motor.LoopPeriod))
	require.Equal(t, motor.ErrIO, errors.Cause(err))
	require.True(t, r.servo.Done())
	require.Equal(t, control.ActionNone, r.servo.State(r.now).Action)
	require.Equal(t, motor.ActuationCoast, r.servo.actuation)
	require.Equal(t, int32(0), r.servo.voltage)

	// the coast that failed along with the sensor does not block recovery.
	r.port.Fail = false
	r.now = r.now.Add(motor.LoopPeriod)
	require.NoError(t, r.servo.Run(r.now, 300000))
	r.step(200)
	near(t, 300000, int64(r.servo.State(r.now).Speed), 20000)
}

func TestRecorder(t *testing.T) {
	r := newRig(t, motor.Clockwise)
	rec := NewRecorder(50)
	r.servo.Record(rec)
	require.NoError(t, r.servo.Run(r.now, 300000))
	r.step(30)
	require.Equal(t, 30, rec.Len())
	r.step(30)
	require.Equal(t, 50, rec.Len())

	rows := rec.Rows()
	require.Equal(t, r.now, rows[len(rows)-1].Time)
	for n := 1; n < len(rows); n++ {
		require.Equal(t, motor.LoopPeriod, int(rows[n].Time.Sub(rows[n-1].Time)))
	}
	last := rows[len(rows)-1]
	require.Equal(t, control.ActionRun, last.Action)
	require.Equal(t, motor.ActuationVoltage, last.Actuation)
	require.True(t, last.RefSpeed > 0)
	require.True(t, last.Torque > 0)

	rec.Reset()
	require.Zero(t, rec.Len())
	r.servo.Record(nil)
	r.step(1)
	require.Zero(t, rec.Len())
}
