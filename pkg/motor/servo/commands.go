package servo

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/control"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// Do executes a motor command message and returns the reply. handled is
// false if msg is not a motor command.
func (h *Hub) Do(msg fx.Message) (reply fx.Message, handled bool) {
	var err error
	// started is the port of an accepted maneuver, whose next completion is
	// reported even if it completes within its first period.
	started := -1
	switch m := msg.(type) {
	case *msgs.MotorSetup:
		err = h.setup(m)
	case *msgs.MotorRun:
		started = int(m.Port)
		err = h.with(m.Port, func(s *Servo) error {
			return s.Run(h.now, m.Speed)
		})
	case *msgs.MotorRunTime:
		started = int(m.Port)
		err = h.withThen(m.Port, m.Then, func(s *Servo, then motor.Then) error {
			return s.RunTime(h.now, m.Speed, m.Duration, then)
		})
	case *msgs.MotorRunAngle:
		started = int(m.Port)
		err = h.withThen(m.Port, m.Then, func(s *Servo, then motor.Then) error {
			return s.RunAngle(h.now, m.Speed, m.Angle, then)
		})
	case *msgs.MotorRunTarget:
		started = int(m.Port)
		err = h.withThen(m.Port, m.Then, func(s *Servo, then motor.Then) error {
			return s.RunTarget(h.now, m.Speed, motor.AngleFromMillidegrees(m.Target), then)
		})
	case *msgs.MotorRunUntilStalled:
		started = int(m.Port)
		err = h.withThen(m.Port, m.Then, func(s *Servo, then motor.Then) error {
			return s.RunUntilStalled(h.now, m.Speed, then)
		})
	case *msgs.MotorTrackTarget:
		started = int(m.Port)
		err = h.with(m.Port, func(s *Servo) error {
			return s.TrackTarget(h.now, motor.AngleFromMillidegrees(m.Target))
		})
	case *msgs.MotorStop:
		started = int(m.Port)
		err = h.withThen(m.Port, m.Then, func(s *Servo, then motor.Then) error {
			return s.Stop(h.now, then)
		})
	case *msgs.MotorDc:
		started = int(m.Port)
		err = h.with(m.Port, func(s *Servo) error {
			return s.Dc(m.Duty)
		})
	case *msgs.MotorResetAngle:
		err = h.with(m.Port, func(s *Servo) error {
			return s.ResetAngle(h.now, motor.AngleFromMillidegrees(m.Angle))
		})
	case *msgs.MotorSettings:
		err = h.with(m.Port, func(s *Servo) error {
			return s.SetSettings(applySettings(s.Settings(), &m.MotorSettings))
		})
	case *msgs.MotorSettingsQuery:
		var settings *msgs.MotorSettings
		err = h.with(m.Port, func(s *Servo) error {
			settings = &msgs.MotorSettings{MotorSettings: pbSettings(s.Port(), s.Settings())}
			return nil
		})
		if err == nil {
			return settings, true
		}
	case *msgs.MotorStateQuery:
		var state *msgs.MotorState
		err = h.with(m.Port, func(s *Servo) error {
			state = &msgs.MotorState{MotorState: pbState(s.Port(), s.State(h.now))}
			return nil
		})
		if err == nil {
			return state, true
		}
	default:
		return nil, false
	}
	if glog.V(2) {
		glog.Infof("command %T: %v", msg, err)
	}
	if err != nil {
		return msgs.NewCommandErr(err), true
	}
	if started >= 0 {
		h.done[started] = false
	}
	return msgs.NewCommandOK(), true
}

func (h *Hub) setup(m *msgs.MotorSetup) error {
	port, err := portFrom(m.Port)
	if err != nil {
		return err
	}
	opts := Options{
		DutyOffset: m.DutyOffset,
		MaxDuty:    m.MaxDuty,
		ResetAngle: m.ResetAngle,
		Gearing:    Gearing{Motor: m.GearMotor, Output: m.GearOutput},
	}
	if m.Counterclockwise {
		opts.Direction = motor.Counterclockwise
	}
	_, err = h.Setup(port, opts)
	return err
}

func (h *Hub) with(port uint32, fn func(*Servo) error) error {
	p, err := portFrom(port)
	if err != nil {
		return err
	}
	s, err := h.Get(p)
	if err != nil {
		return err
	}
	return fn(s)
}

func (h *Hub) withThen(port uint32, then int32, fn func(*Servo, motor.Then) error) error {
	t, err := thenFrom(then)
	if err != nil {
		return err
	}
	return h.with(port, func(s *Servo) error { return fn(s, t) })
}

func portFrom(port uint32) (motor.Port, error) {
	if port >= uint32(motor.NumPorts) {
		return 0, errors.Wrapf(motor.ErrInvalidPort, "port %d", port)
	}
	return motor.Port(port), nil
}

func thenFrom(then int32) (motor.Then, error) {
	if then < int32(motor.ThenCoast) || then > int32(motor.ThenContinue) {
		return 0, errors.Wrapf(motor.ErrInvalidArgument, "stop policy %d", then)
	}
	return motor.Then(then), nil
}

func pbState(port motor.Port, st State) pb.MotorState {
	return pb.MotorState{
		Port:    uint32(port),
		Angle:   st.Angle.Total(),
		Speed:   st.Speed,
		Stalled: st.Stalled,
		Done:    st.Done,
		Duty:    st.Duty,
		Load:    st.Load,
		Action:  st.Action.String(),
	}
}

func pbSettings(port motor.Port, s control.Settings) pb.MotorSettings {
	return pb.MotorSettings{
		Port:              uint32(port),
		MaxSpeed:          s.MaxSpeed,
		Acceleration:      s.Acceleration,
		SpeedTolerance:    s.SpeedTolerance,
		PositionTolerance: s.PositionTolerance,
		StallSpeed:        s.StallSpeed,
		StallTime:         s.StallTime / motor.TicksPerMs,
		Kp:                s.Kp,
		Ki:                s.Ki,
		Kd:                s.Kd,
		IntegralRate:      s.IntegralRate,
		MaxTorque:         s.MaxTorque,
	}
}

// applySettings returns s with the non-zero fields of m.
func applySettings(s control.Settings, m *pb.MotorSettings) control.Settings {
	set := func(dst *int32, v int32) {
		if v != 0 {
			*dst = v
		}
	}
	set(&s.MaxSpeed, m.MaxSpeed)
	set(&s.Acceleration, m.Acceleration)
	set(&s.SpeedTolerance, m.SpeedTolerance)
	set(&s.PositionTolerance, m.PositionTolerance)
	set(&s.StallSpeed, m.StallSpeed)
	set(&s.StallTime, m.StallTime*motor.TicksPerMs)
	set(&s.Kp, m.Kp)
	set(&s.Ki, m.Ki)
	set(&s.Kd, m.Kd)
	set(&s.IntegralRate, m.IntegralRate)
	set(&s.MaxTorque, m.MaxTorque)
	return s
}

func pbDoneEvent(port motor.Port, st State) pb.MotorDoneEvent {
	return pb.MotorDoneEvent{
		Port:    uint32(port),
		Angle:   st.Angle.Total(),
		Stalled: st.Stalled,
	}
}
