package drivebase

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/servo"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
	simhub "github.com/robotalks/servo.go/pkg/sim/bots/hub"
)

// 56mm wheels 112mm apart: a quarter turn of the robot is half a turn of
// each wheel.
var testGeometry = Geometry{WheelDiameter: 56000, AxleTrack: 112000}

type eventRecorder struct {
	events []fx.Message
}

func (r *eventRecorder) SendEvent(ctx context.Context, msg fx.Message) error {
	r.events = append(r.events, msg)
	return nil
}

type rig struct {
	t      *testing.T
	sim    *simhub.Hub
	hub    *servo.Hub
	host   *Host
	events *eventRecorder
	time   time.Time
}

func newRig(t *testing.T) *rig {
	sim := simhub.New("test")
	for _, port := range []motor.Port{motor.PortA, motor.PortB, motor.PortC} {
		_, err := sim.Attach(port, motor.KindEV3Large)
		require.NoError(t, err)
	}
	hub, err := servo.NewHub(servo.Devices{Driver: sim, Angles: sim}, sim, sim)
	require.NoError(t, err)
	events := &eventRecorder{}
	r := &rig{
		t:      t,
		sim:    sim,
		hub:    hub,
		host:   &Host{Hub: hub, Events: events},
		events: events,
		time:   time.Unix(1000, 0),
	}
	hub.Tick(r.time)
	for _, port := range []motor.Port{motor.PortA, motor.PortB} {
		_, err = hub.Setup(port, servo.Options{ResetAngle: true})
		require.NoError(t, err)
	}
	r.requireOK(&msgs.DriveBaseSetup{DriveBaseSetup: pb.DriveBaseSetup{
		Left:          0,
		Right:         1,
		WheelDiameter: testGeometry.WheelDiameter,
		AxleTrack:     testGeometry.AxleTrack,
	}})
	return r
}

func (r *rig) step(n int) {
	for ; n > 0; n-- {
		r.sim.Advance(motor.LoopPeriodMs * time.Millisecond)
		r.time = r.time.Add(motor.LoopPeriodMs * time.Millisecond)
		r.hub.Tick(r.time)
		require.NoError(r.t, r.hub.Update())
		require.NoError(r.t, r.host.Update())
		require.NoError(r.t, r.host.NotifyDone(context.Background()))
	}
}

// until steps until a done event arrives, failing after max periods.
func (r *rig) until(max int) {
	count := len(r.events.events)
	for n := 0; n < max && len(r.events.events) == count; n++ {
		r.step(1)
	}
	require.Len(r.t, r.events.events, count+1, "no done event after %d periods", max)
	require.IsType(r.t, &msgs.DriveBaseDoneEvent{}, r.events.events[count])
}

func (r *rig) do(msg fx.Message) fx.Message {
	reply, handled := r.host.Do(msg)
	require.True(r.t, handled)
	return reply
}

func (r *rig) requireOK(msg fx.Message) {
	reply := r.do(msg)
	if cmdErr, ok := reply.(*msgs.CommandErr); ok {
		require.FailNow(r.t, cmdErr.Message)
	}
	require.IsType(r.t, &msgs.CommandOK{}, reply)
}

func (r *rig) requireErr(expected error, msg fx.Message) {
	reply := r.do(msg)
	require.IsType(r.t, &msgs.CommandErr{}, reply)
	require.Equal(r.t, expected, errors.Cause(reply.(*msgs.CommandErr).Err()))
}

func (r *rig) state() *msgs.DriveBaseState {
	reply := r.do(&msgs.DriveBaseStateQuery{})
	require.IsType(r.t, &msgs.DriveBaseState{}, reply)
	return reply.(*msgs.DriveBaseState)
}

func (r *rig) wheels() (int64, int64) {
	l, err := r.hub.Get(motor.PortA)
	require.NoError(r.t, err)
	rt, err := r.hub.Get(motor.PortB)
	require.NoError(r.t, err)
	return l.State(r.hub.Now()).Angle.Total(), rt.State(r.hub.Now()).Angle.Total()
}

func TestGeometry(t *testing.T) {
	require.Error(t, Geometry{}.Validate())
	require.Equal(t, motor.ErrInvalidArgument, errors.Cause(Geometry{WheelDiameter: 56000}.Validate()))
	require.NoError(t, testGeometry.Validate())

	for _, mm := range []int64{0, 1, 176, -500, 12345} {
		require.Equal(t, mm, testGeometry.axisToMm(testGeometry.mmToAxis(mm)))
	}
	// one wheel rotation
	require.Equal(t, int64(176), testGeometry.axisToMm(motor.MillidegreesPerRotation))
	require.Equal(t, int64(180000), testGeometry.headingToAxis(90000))
	require.Equal(t, int64(-45000), testGeometry.axisToHeading(-90000))
}

func TestSetup(t *testing.T) {
	r := newRig(t)
	db, err := r.host.Get()
	require.NoError(t, err)
	require.Equal(t, testGeometry, db.Geometry())
	require.True(t, db.Done())
	require.False(t, db.Active())

	testCases := []struct {
		name     string
		msg      pb.DriveBaseSetup
		expected error
	}{
		{"same port", pb.DriveBaseSetup{Left: 0, Right: 0, WheelDiameter: 56000, AxleTrack: 112000}, motor.ErrInvalidArgument},
		{"not set up", pb.DriveBaseSetup{Left: 0, Right: 2, WheelDiameter: 56000, AxleTrack: 112000}, motor.ErrNoDevice},
		{"invalid port", pb.DriveBaseSetup{Left: 0, Right: 9, WheelDiameter: 56000, AxleTrack: 112000}, motor.ErrInvalidPort},
		{"no geometry", pb.DriveBaseSetup{Left: 0, Right: 1}, motor.ErrInvalidArgument},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r.requireErr(tc.expected, &msgs.DriveBaseSetup{DriveBaseSetup: tc.msg})
		})
	}
	// failed setups keep the drive base
	got, err := r.host.Get()
	require.NoError(t, err)
	require.True(t, got == db)

	_, err = r.hub.Setup(motor.PortB, servo.Options{})
	require.NoError(t, err)
	_, err = r.host.Get()
	require.Equal(t, motor.ErrNoDevice, errors.Cause(err))
	r.requireErr(motor.ErrNoDevice, &msgs.DriveBaseStateQuery{})

	_, handled := r.host.Do(&msgs.MotorRun{})
	require.False(t, handled)
}

func TestStraight(t *testing.T) {
	r := newRig(t)
	r.requireErr(motor.ErrInvalidArgument, &msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: 200, Then: 7}})
	r.requireOK(&msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: 200, Then: int32(motor.ThenHold)}})
	r.step(20)
	st := r.state()
	require.False(t, st.Done)
	require.True(t, st.DriveSpeed > 0)

	r.until(600)
	ev := r.events.events[0].(*msgs.DriveBaseDoneEvent)
	require.InDelta(t, 200, float64(ev.Distance), 6)
	require.InDelta(t, 0, float64(ev.Angle), 6000)
	require.False(t, ev.Stalled)

	// holding converges on the target and stays done
	r.step(100)
	require.Len(t, r.events.events, 1)
	st = r.state()
	require.True(t, st.Done)
	require.InDelta(t, 200, float64(st.Distance), 5)
	l, rt := r.wheels()
	// 200mm on 56mm wheels is 409 degrees
	require.InDelta(t, 409000, float64(l), 8000)
	require.InDelta(t, 409000, float64(rt), 8000)

	r.requireOK(&msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: -100, Then: int32(motor.ThenBrake)}})
	r.until(600)
	require.InDelta(t, 100, float64(r.state().Distance), 6)
}

func TestTurn(t *testing.T) {
	r := newRig(t)
	r.requireOK(&msgs.DriveBaseTurn{DriveBaseTurn: pb.DriveBaseTurn{Angle: 90000, Then: int32(motor.ThenHold)}})
	r.until(600)
	r.step(100)
	st := r.state()
	require.InDelta(t, 90000, float64(st.Angle), 5000)
	require.InDelta(t, 0, float64(st.Distance), 5)
	l, rt := r.wheels()
	require.InDelta(t, 180000, float64(l), 6000)
	require.InDelta(t, -180000, float64(rt), 6000)
}

func TestCurve(t *testing.T) {
	r := newRig(t)
	r.requireOK(&msgs.DriveBaseCurve{DriveBaseCurve: pb.DriveBaseCurve{Radius: 100, Angle: 90000, Then: int32(motor.ThenHold)}})
	r.until(800)
	r.step(100)
	st := r.state()
	// a quarter of a 100mm circle
	require.InDelta(t, 157, float64(st.Distance), 6)
	require.InDelta(t, 90000, float64(st.Angle), 5000)
}

func TestDriveAndStop(t *testing.T) {
	r := newRig(t)
	r.requireOK(&msgs.DriveBaseDrive{DriveBaseDrive: pb.DriveBaseDrive{Speed: 100, TurnRate: -20000}})
	r.step(200)
	st := r.state()
	require.False(t, st.Done)
	require.InDelta(t, 100, float64(st.DriveSpeed), 10)
	require.InDelta(t, -20000, float64(st.TurnRate), 6000)
	require.Empty(t, r.events.events)

	r.requireErr(motor.ErrInvalidArgument, &msgs.DriveBaseStop{DriveBaseStop: pb.DriveBaseStop{Then: int32(motor.ThenContinue)}})
	r.requireOK(&msgs.DriveBaseStop{DriveBaseStop: pb.DriveBaseStop{Then: int32(motor.ThenCoast)}})
	r.until(1)
	db, err := r.host.Get()
	require.NoError(t, err)
	require.False(t, db.Active())

	r.step(200)
	r.requireOK(&msgs.DriveBaseResetState{})
	st = r.state()
	require.Equal(t, int32(0), st.Distance)
	require.Equal(t, int64(0), st.Angle)
	require.True(t, st.Done)
}

func TestTakeOver(t *testing.T) {
	r := newRig(t)
	r.requireOK(&msgs.DriveBaseDrive{DriveBaseDrive: pb.DriveBaseDrive{Speed: 100}})
	r.step(50)

	reply, handled := r.hub.Do(&msgs.MotorRun{MotorRun: pb.MotorRun{Port: 0, Speed: -200000}})
	require.True(t, handled)
	require.IsType(t, &msgs.CommandOK{}, reply)
	r.step(1)
	db, err := r.host.Get()
	require.NoError(t, err)
	require.False(t, db.Active())
	require.Len(t, r.events.events, 1)
	require.IsType(t, &msgs.DriveBaseDoneEvent{}, r.events.events[0])
	right, err := r.hub.Get(motor.PortB)
	require.NoError(t, err)
	require.Equal(t, int32(0), right.State(r.hub.Now()).Duty)

	// the servo keeps its own maneuver
	r.step(100)
	left, err := r.hub.Get(motor.PortA)
	require.NoError(t, err)
	require.InDelta(t, -200000, float64(left.State(r.hub.Now()).Speed), 20000)

	// driving again claims it back
	r.requireOK(&msgs.DriveBaseDrive{DriveBaseDrive: pb.DriveBaseDrive{Speed: 100}})
	require.False(t, left.Active())
	r.step(200)
	require.InDelta(t, 100, float64(r.state().DriveSpeed), 10)
}

func TestSettings(t *testing.T) {
	r := newRig(t)
	reply := r.do(&msgs.DriveBaseSettingsQuery{})
	require.IsType(t, &msgs.DriveBaseSettings{}, reply)
	defaults := reply.(*msgs.DriveBaseSettings)
	// 40% of 1600 deg/s on 56mm wheels
	require.InDelta(t, 313, float64(defaults.StraightSpeed), 1)
	require.InDelta(t, 320000, float64(defaults.TurnRate), 1000)

	r.requireOK(&msgs.DriveBaseSettings{DriveBaseSettings: pb.DriveBaseSettings{StraightSpeed: 150, TurnAcceleration: 200000}})
	db, err := r.host.Get()
	require.NoError(t, err)
	settings := db.Settings()
	require.Equal(t, int32(150), settings.StraightSpeed)
	require.Equal(t, int32(200000), settings.TurnAcceleration)
	require.Equal(t, defaults.StraightAcceleration, settings.StraightAcceleration)
	require.Equal(t, defaults.TurnRate, settings.TurnRate)

	r.requireErr(motor.ErrInvalidArgument, &msgs.DriveBaseSettings{DriveBaseSettings: pb.DriveBaseSettings{TurnRate: -1}})

	r.requireOK(&msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: 1000}})
	r.step(100)
	require.InDelta(t, 150, float64(r.state().DriveSpeed), 10)
	r.requireErr(motor.ErrAgain, &msgs.DriveBaseSettings{DriveBaseSettings: pb.DriveBaseSettings{StraightSpeed: 300}})
}

func TestLoop(t *testing.T) {
	r := newRig(t)
	l := fx.NewLoop()
	l.Add(r.sim, r.hub, r.host)
	r.requireOK(&msgs.DriveBaseStraight{DriveBaseStraight: pb.DriveBaseStraight{Distance: 50, Then: int32(motor.ThenBrake)}})
	for n := 1; n <= 400 && len(r.events.events) == 0; n++ {
		l.Step(context.Background(), r.time.Add(time.Duration(n)*motor.LoopPeriodMs*time.Millisecond))
	}
	require.Len(t, r.events.events, 1)
	require.InDelta(t, 50, float64(r.events.events[0].(*msgs.DriveBaseDoneEvent).Distance), 6)
}
