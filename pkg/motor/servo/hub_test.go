package servo

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/control"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
	simhub "github.com/robotalks/servo.go/pkg/sim/bots/hub"
)

type eventRecorder struct {
	events []fx.Message
}

func (r *eventRecorder) SendEvent(ctx context.Context, msg fx.Message) error {
	r.events = append(r.events, msg)
	return nil
}

type hubRig struct {
	t      *testing.T
	sim    *simhub.Hub
	hub    *Hub
	events *eventRecorder
	time   time.Time
}

func newHubRig(t *testing.T) *hubRig {
	sim := simhub.New("test")
	_, err := sim.Attach(motor.PortA, motor.KindEV3Large)
	require.NoError(t, err)
	_, err = sim.Attach(motor.PortB, motor.KindEV3Medium)
	require.NoError(t, err)
	h, err := NewHub(Devices{Driver: sim, Angles: sim}, sim, sim)
	require.NoError(t, err)
	events := &eventRecorder{}
	h.Events = events
	r := &hubRig{t: t, sim: sim, hub: h, events: events, time: time.Unix(1000, 0)}
	r.hub.Tick(r.time)
	return r
}

func (r *hubRig) step(n int) {
	for ; n > 0; n-- {
		r.sim.Advance(motor.LoopPeriodMs * time.Millisecond)
		r.time = r.time.Add(motor.LoopPeriodMs * time.Millisecond)
		r.hub.Tick(r.time)
		require.NoError(r.t, r.hub.Update())
		require.NoError(r.t, r.hub.NotifyDone(context.Background()))
	}
}

func (r *hubRig) do(msg fx.Message) fx.Message {
	reply, handled := r.hub.Do(msg)
	require.True(r.t, handled)
	return reply
}

func (r *hubRig) requireOK(msg fx.Message) {
	reply := r.do(msg)
	if cmdErr, ok := reply.(*msgs.CommandErr); ok {
		require.FailNow(r.t, cmdErr.Message)
	}
	require.IsType(r.t, &msgs.CommandOK{}, reply)
}

func (r *hubRig) requireErr(expected error, msg fx.Message) {
	reply := r.do(msg)
	require.IsType(r.t, &msgs.CommandErr{}, reply)
	require.Equal(r.t, expected, errors.Cause(reply.(*msgs.CommandErr).Err()))
}

func TestHubSetup(t *testing.T) {
	r := newHubRig(t)
	require.Equal(t, int32(8300), r.hub.Battery().Voltage())

	s, err := r.hub.Setup(motor.PortB, Options{Direction: motor.Counterclockwise})
	require.NoError(t, err)
	require.Equal(t, motor.KindEV3Medium, s.Kind())
	got, err := r.hub.Get(motor.PortB)
	require.NoError(t, err)
	require.True(t, got == s)
	require.Len(t, r.hub.Servos(), 1)

	_, err = r.hub.Get(motor.PortA)
	require.Equal(t, motor.ErrNoDevice, errors.Cause(err))
	_, err = r.hub.Get(motor.Port(motor.NumPorts))
	require.Equal(t, motor.ErrInvalidPort, errors.Cause(err))
	_, err = r.hub.Setup(motor.PortC, Options{})
	require.Equal(t, motor.ErrNoDevice, errors.Cause(err))
	_, err = r.hub.Setup(motor.PortA, Options{MaxDuty: motor.MaxDuty + 1})
	require.Equal(t, motor.ErrInvalidArgument, errors.Cause(err))

	r.sim.Port(motor.PortA).Identify = 2
	for n := 0; n < 2; n++ {
		_, err = r.hub.Setup(motor.PortA, Options{})
		require.True(t, motor.IsAgain(err))
	}
	_, err = r.hub.Setup(motor.PortA, Options{})
	require.NoError(t, err)
}

func TestHubSettingsFile(t *testing.T) {
	r := newHubRig(t)
	f, err := control.ParseSettingsFile([]byte("ev3-large:\n  max_speed: 800\n"))
	require.NoError(t, err)
	r.hub.Settings = f
	s, err := r.hub.Setup(motor.PortA, Options{})
	require.NoError(t, err)
	require.Equal(t, int32(800000), s.Settings().MaxSpeed)
}

func TestHubCommands(t *testing.T) {
	r := newHubRig(t)
	r.requireErr(motor.ErrNoDevice, &msgs.MotorRun{MotorRun: pb.MotorRun{Port: 0, Speed: 100000}})
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0, ResetAngle: true}})

	testCases := []struct {
		name     string
		msg      fx.Message
		expected error
	}{
		{"run", &msgs.MotorRun{MotorRun: pb.MotorRun{Port: 0, Speed: 100000}}, nil},
		{"invalid port", &msgs.MotorRun{MotorRun: pb.MotorRun{Port: 9}}, motor.ErrInvalidPort},
		{"runtime", &msgs.MotorRunTime{MotorRunTime: pb.MotorRunTime{Port: 0, Speed: 100000, Duration: 500}}, nil},
		{"runtime negative", &msgs.MotorRunTime{MotorRunTime: pb.MotorRunTime{Port: 0, Speed: 100000, Duration: -1}}, motor.ErrInvalidArgument},
		{"invalid then", &msgs.MotorRunTime{MotorRunTime: pb.MotorRunTime{Port: 0, Speed: 100000, Duration: 500, Then: 7}}, motor.ErrInvalidArgument},
		{"angle", &msgs.MotorRunAngle{MotorRunAngle: pb.MotorRunAngle{Port: 0, Speed: 100000, Angle: 90000, Then: 2}}, nil},
		{"target", &msgs.MotorRunTarget{MotorRunTarget: pb.MotorRunTarget{Port: 0, Speed: 100000, Target: 0, Then: 1}}, nil},
		{"target no speed", &msgs.MotorRunTarget{MotorRunTarget: pb.MotorRunTarget{Port: 0, Target: 90000}}, motor.ErrInvalidArgument},
		{"stalled continue", &msgs.MotorRunUntilStalled{MotorRunUntilStalled: pb.MotorRunUntilStalled{Port: 0, Speed: 100000, Then: 3}}, motor.ErrInvalidArgument},
		{"stalled", &msgs.MotorRunUntilStalled{MotorRunUntilStalled: pb.MotorRunUntilStalled{Port: 0, Speed: 100000}}, nil},
		{"track", &msgs.MotorTrackTarget{MotorTrackTarget: pb.MotorTrackTarget{Port: 0, Target: 45000}}, nil},
		{"stop continue", &msgs.MotorStop{MotorStop: pb.MotorStop{Port: 0, Then: 3}}, motor.ErrInvalidArgument},
		{"stop", &msgs.MotorStop{MotorStop: pb.MotorStop{Port: 0, Then: 0}}, nil},
		{"dc", &msgs.MotorDc{MotorDc: pb.MotorDc{Port: 0, Duty: -3000}}, nil},
		{"dc range", &msgs.MotorDc{MotorDc: pb.MotorDc{Port: 0, Duty: 20000}}, motor.ErrInvalidArgument},
		{"reset", &msgs.MotorResetAngle{MotorResetAngle: pb.MotorResetAngle{Port: 0, Angle: 1000}}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.expected == nil {
				r.requireOK(tc.msg)
			} else {
				r.requireErr(tc.expected, tc.msg)
			}
			r.step(2)
		})
	}

	_, handled := r.hub.Do(&msgs.CommandOK{})
	require.False(t, handled)
}

func TestHubStateQuery(t *testing.T) {
	r := newHubRig(t)
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0}})
	r.requireOK(&msgs.MotorRun{MotorRun: pb.MotorRun{Port: 0, Speed: 300000}})
	r.step(200)

	reply := r.do(&msgs.MotorStateQuery{MotorStateQuery: pb.MotorStateQuery{Port: 0}})
	require.IsType(t, &msgs.MotorState{}, reply)
	st := reply.(*msgs.MotorState)
	require.Equal(t, uint32(0), st.Port)
	require.Equal(t, "run", st.Action)
	require.False(t, st.Done)
	require.InDelta(t, 300000, float64(st.Speed), 20000)
	require.True(t, st.Angle > 200000)

	r.requireErr(motor.ErrNoDevice, &msgs.MotorStateQuery{MotorStateQuery: pb.MotorStateQuery{Port: 1}})
}

func TestHubDoneEvent(t *testing.T) {
	r := newHubRig(t)
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0}})
	r.step(10)
	require.Empty(t, r.events.events)

	r.requireOK(&msgs.MotorRunAngle{MotorRunAngle: pb.MotorRunAngle{Port: 0, Speed: 500000, Angle: 180000, Then: int32(motor.ThenHold)}})
	r.step(300)
	require.Len(t, r.events.events, 1)
	ev, ok := r.events.events[0].(*msgs.MotorDoneEvent)
	require.True(t, ok)
	require.Equal(t, uint32(0), ev.Port)
	require.False(t, ev.Stalled)
	require.InDelta(t, 180000, float64(ev.Angle), 10000)

	// holding stays done
	r.step(50)
	require.Len(t, r.events.events, 1)
}

func TestHubDoneEventImmediate(t *testing.T) {
	testCases := []struct {
		name string
		msg  func(angle int64) fx.Message
	}{
		{"target at current angle", func(angle int64) fx.Message {
			return &msgs.MotorRunTarget{MotorRunTarget: pb.MotorRunTarget{Port: 0, Speed: 300000, Target: angle, Then: int32(motor.ThenHold)}}
		}},
		{"zero duration", func(angle int64) fx.Message {
			return &msgs.MotorRunTime{MotorRunTime: pb.MotorRunTime{Port: 0, Speed: 300000, Duration: 0, Then: int32(motor.ThenCoast)}}
		}},
		{"stop", func(angle int64) fx.Message {
			return &msgs.MotorStop{MotorStop: pb.MotorStop{Port: 0, Then: int32(motor.ThenBrake)}}
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := newHubRig(t)
			r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0}})
			r.step(10)
			require.Empty(t, r.events.events)
			s, err := r.hub.Get(motor.PortA)
			require.NoError(t, err)
			r.requireOK(tc.msg(s.State(r.hub.Now()).Angle.Total()))
			r.step(50)
			require.Len(t, r.events.events, 1)
			require.IsType(t, &msgs.MotorDoneEvent{}, r.events.events[0])
		})
	}
}

func TestHubSettings(t *testing.T) {
	r := newHubRig(t)
	r.requireErr(motor.ErrNoDevice, &msgs.MotorSettingsQuery{MotorSettingsQuery: pb.MotorSettingsQuery{Port: 0}})
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0}})

	reply := r.do(&msgs.MotorSettingsQuery{MotorSettingsQuery: pb.MotorSettingsQuery{Port: 0}})
	require.IsType(t, &msgs.MotorSettings{}, reply)
	settings := reply.(*msgs.MotorSettings)
	require.Equal(t, uint32(0), settings.Port)
	require.Equal(t, int32(1600000), settings.MaxSpeed)
	require.Equal(t, int32(200), settings.StallTime)

	testCases := []struct {
		name     string
		msg      pb.MotorSettings
		expected error
	}{
		{"limits", pb.MotorSettings{MaxSpeed: 900000, Acceleration: 2000000}, nil},
		{"stall", pb.MotorSettings{StallSpeed: 40000, StallTime: 500}, nil},
		{"gains", pb.MotorSettings{Kp: 20000, Kd: 300}, nil},
		{"negative", pb.MotorSettings{PositionTolerance: -1}, motor.ErrInvalidArgument},
		{"invalid port", pb.MotorSettings{Port: 9}, motor.ErrInvalidPort},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := &msgs.MotorSettings{MotorSettings: tc.msg}
			if tc.expected != nil {
				r.requireErr(tc.expected, msg)
				return
			}
			r.requireOK(msg)
		})
	}

	s, err := r.hub.Get(motor.PortA)
	require.NoError(t, err)
	got := s.Settings()
	require.Equal(t, int32(900000), got.MaxSpeed)
	require.Equal(t, int32(2000000), got.Acceleration)
	require.Equal(t, int32(40000), got.StallSpeed)
	require.Equal(t, int32(500*motor.TicksPerMs), got.StallTime)
	require.Equal(t, int32(20000), got.Kp)
	require.Equal(t, int32(300), got.Kd)
	require.Equal(t, int32(10000), got.PositionTolerance)

	r.requireOK(&msgs.MotorRun{MotorRun: pb.MotorRun{Port: 0, Speed: 100000}})
	r.requireErr(motor.ErrAgain, &msgs.MotorSettings{MotorSettings: pb.MotorSettings{MaxSpeed: 500000}})
}

func TestHubGearing(t *testing.T) {
	r := newHubRig(t)
	r.requireErr(motor.ErrInvalidArgument, &msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0, GearMotor: 12}})
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0, ResetAngle: true, GearMotor: 12, GearOutput: 36}})
	s, err := r.hub.Get(motor.PortA)
	require.NoError(t, err)
	require.Equal(t, Gearing{Motor: 12, Output: 36}, s.Gearing())
	require.Equal(t, int32(1600000/3), s.Settings().MaxSpeed)

	start, _ := r.sim.Port(motor.PortA).Rotation()
	r.requireOK(&msgs.MotorRunTarget{MotorRunTarget: pb.MotorRunTarget{Port: 0, Speed: 200000, Target: 90000, Then: int32(motor.ThenHold)}})
	r.step(400)
	require.Len(t, r.events.events, 1)
	st := s.State(r.hub.Now())
	require.InDelta(t, 90000, float64(st.Angle.Total()), 5000)
	end, _ := r.sim.Port(motor.PortA).Rotation()
	require.InDelta(t, 270, end-start, 15)
}

func TestHubUpdateError(t *testing.T) {
	r := newHubRig(t)
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0}})
	r.requireOK(&msgs.MotorRun{MotorRun: pb.MotorRun{Port: 0, Speed: 100000}})
	r.step(5)
	r.sim.Port(motor.PortA).Fail = true
	r.sim.Advance(motor.LoopPeriodMs * time.Millisecond)
	r.hub.Tick(r.time.Add(motor.LoopPeriodMs * time.Millisecond))
	err := r.hub.Update()
	require.Error(t, err)
	agg, ok := err.(*fx.AggregatedError)
	require.True(t, ok)
	require.Len(t, agg.Errors, 1)
	require.Equal(t, motor.ErrIO, errors.Cause(agg.Errors[0]))
	require.Contains(t, agg.Errors[0].Error(), "port A")
}

type statePublisher struct {
	states []*msgs.MotorState
}

func (p *statePublisher) PublishState(ctx context.Context, state *msgs.MotorState) error {
	p.states = append(p.states, state)
	return nil
}

func TestTelemetry(t *testing.T) {
	r := newHubRig(t)
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 0}})
	r.requireOK(&msgs.MotorSetup{MotorSetup: pb.MotorSetup{Port: 1}})
	pub := &statePublisher{}
	tel := &Telemetry{Hub: r.hub, Publisher: pub, Every: 4}

	l := fx.NewLoop()
	l.Add(r.sim, r.hub, tel)
	for n := 1; n <= 10; n++ {
		l.Step(context.Background(), r.time.Add(time.Duration(n)*motor.LoopPeriodMs*time.Millisecond))
	}
	// iterations 4 and 8, two ports each.
	require.Len(t, pub.states, 4)
	require.Equal(t, uint32(0), pub.states[0].Port)
	require.Equal(t, uint32(1), pub.states[1].Port)
	require.Equal(t, "none", pub.states[3].Action)
}
