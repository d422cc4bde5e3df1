package drivebase

import (
	"context"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/servo"
	pb "github.com/robotalks/servo.go/pkg/proto/l1/v1"
)

// Host runs the drive base built from two servos of a hub in the hub loop.
type Host struct {
	Hub *servo.Hub
	// Events receives DriveBaseDoneEvent when a maneuver completes.
	Events l1.Registrar

	base *DriveBase
	done bool
}

// Setup (re)creates the drive base on the servos of left and right, which
// must be set up on the hub.
func (h *Host) Setup(left, right motor.Port, geometry Geometry) (*DriveBase, error) {
	l, err := h.Hub.Get(left)
	if err != nil {
		return nil, err
	}
	r, err := h.Hub.Get(right)
	if err != nil {
		return nil, err
	}
	db, err := New(l, r, geometry)
	if err != nil {
		return nil, err
	}
	if h.base != nil && h.base.Active() {
		if err = h.base.Stop(h.Hub.Now(), motor.ThenCoast); err != nil {
			glog.Warningf("drive base: stop: %v", err)
		}
	}
	h.base, h.done = db, true
	glog.V(2).Infof("drive base %s+%s: wheel %dµm, track %dµm", left, right, geometry.WheelDiameter, geometry.AxleTrack)
	return db, nil
}

// Get returns the drive base. It fails with motor.ErrNoDevice when no drive
// base is set up or a servo of it was set up again.
func (h *Host) Get() (*DriveBase, error) {
	if h.base == nil {
		return nil, errors.Wrap(motor.ErrNoDevice, "drive base not set up")
	}
	for _, s := range []*servo.Servo{h.base.left, h.base.right} {
		if current, err := h.Hub.Get(s.Port()); err != nil || current != s {
			h.base = nil
			return nil, errors.Wrapf(motor.ErrNoDevice, "drive base port %s was set up again", s.Port())
		}
	}
	return h.base, nil
}

// Update runs one loop period of the drive base.
func (h *Host) Update() error {
	if h.base == nil {
		return nil
	}
	db, err := h.Get()
	if err != nil {
		glog.Warning(err)
		return nil
	}
	return errors.Wrap(db.Update(h.Hub.Now()), "drive base")
}

// NotifyDone sends a DriveBaseDoneEvent when a maneuver has just completed.
func (h *Host) NotifyDone(ctx context.Context) error {
	if h.base == nil {
		return nil
	}
	done := h.base.Done()
	defer func() { h.done = done }()
	if !done || h.done || h.Events == nil {
		return nil
	}
	st := h.base.State()
	return h.Events.SendEvent(ctx, &msgs.DriveBaseDoneEvent{
		DriveBaseDoneEvent: pb.DriveBaseDoneEvent{
			Distance: st.Distance,
			Angle:    st.Angle,
			Stalled:  st.Stalled,
		},
	})
}

// AddToLoop implements LoopAdder. The drive base actuates after the hub
// updated the servos.
func (h *Host) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, fx.ControlFunc(h.HandleCommands))
	l.AddController(fx.PrLvAcuate+1, fx.PeriodicOnly(fx.ControlFunc(h.execute)))
	l.AddController(fx.PrLvPostProc, fx.PeriodicOnly(fx.ControlFunc(h.notify)))
}

// HandleCommands executes the drive base commands received in this
// iteration.
func (h *Host) HandleCommands(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		if reply, handled := h.Do(cmdMsg.Command.Msg()); handled {
			mctx.MessageTaken()
			if err := cmdMsg.Command.Done(reply); err != nil {
				glog.Errorf("reply error: %v", err)
			}
		}
	}))
	return nil
}

func (h *Host) execute(cc fx.ControlContext) error {
	return h.Update()
}

func (h *Host) notify(cc fx.ControlContext) error {
	return h.NotifyDone(cc.Context())
}

// Do executes a drive base command message and returns the reply. handled
// is false if msg is not a drive base command.
func (h *Host) Do(msg fx.Message) (reply fx.Message, handled bool) {
	now := h.Hub.Now()
	var err error
	// started is set for maneuvers whose completion is reported.
	started := false
	switch m := msg.(type) {
	case *msgs.DriveBaseSetup:
		err = h.setup(m)
	case *msgs.DriveBaseStraight:
		started = true
		err = h.withThen(m.Then, func(db *DriveBase, then motor.Then) error {
			return db.Straight(now, m.Distance, then)
		})
	case *msgs.DriveBaseTurn:
		started = true
		err = h.withThen(m.Then, func(db *DriveBase, then motor.Then) error {
			return db.Turn(now, m.Angle, then)
		})
	case *msgs.DriveBaseCurve:
		started = true
		err = h.withThen(m.Then, func(db *DriveBase, then motor.Then) error {
			return db.Curve(now, m.Radius, m.Angle, then)
		})
	case *msgs.DriveBaseDrive:
		started = true
		err = h.with(func(db *DriveBase) error {
			return db.Drive(now, m.Speed, m.TurnRate)
		})
	case *msgs.DriveBaseStop:
		started = true
		err = h.withThen(m.Then, func(db *DriveBase, then motor.Then) error {
			return db.Stop(now, then)
		})
	case *msgs.DriveBaseResetState:
		err = h.with(func(db *DriveBase) error {
			return db.Reset(now)
		})
	case *msgs.DriveBaseSettings:
		err = h.with(func(db *DriveBase) error {
			return db.SetSettings(applySettings(db.Settings(), &m.DriveBaseSettings))
		})
	case *msgs.DriveBaseSettingsQuery:
		var settings *msgs.DriveBaseSettings
		err = h.with(func(db *DriveBase) error {
			settings = &msgs.DriveBaseSettings{DriveBaseSettings: pbSettings(db.Settings())}
			return nil
		})
		if err == nil {
			return settings, true
		}
	case *msgs.DriveBaseStateQuery:
		var state *msgs.DriveBaseState
		err = h.with(func(db *DriveBase) error {
			state = &msgs.DriveBaseState{DriveBaseState: pbState(db.State())}
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
	if started {
		h.done = false
	}
	return msgs.NewCommandOK(), true
}

func (h *Host) setup(m *msgs.DriveBaseSetup) error {
	left, err := portFrom(m.Left)
	if err != nil {
		return err
	}
	right, err := portFrom(m.Right)
	if err != nil {
		return err
	}
	_, err = h.Setup(left, right, Geometry{WheelDiameter: m.WheelDiameter, AxleTrack: m.AxleTrack})
	return err
}

func (h *Host) with(fn func(*DriveBase) error) error {
	db, err := h.Get()
	if err != nil {
		return err
	}
	return fn(db)
}

func (h *Host) withThen(then int32, fn func(*DriveBase, motor.Then) error) error {
	if then < int32(motor.ThenCoast) || then > int32(motor.ThenContinue) {
		return errors.Wrapf(motor.ErrInvalidArgument, "stop policy %d", then)
	}
	return h.with(func(db *DriveBase) error { return fn(db, motor.Then(then)) })
}

func portFrom(port uint32) (motor.Port, error) {
	if port >= uint32(motor.NumPorts) {
		return 0, errors.Wrapf(motor.ErrInvalidPort, "port %d", port)
	}
	return motor.Port(port), nil
}

func pbState(st State) pb.DriveBaseState {
	return pb.DriveBaseState{
		Distance:   st.Distance,
		DriveSpeed: st.DriveSpeed,
		Angle:      st.Angle,
		TurnRate:   st.TurnRate,
		Done:       st.Done,
		Stalled:    st.Stalled,
	}
}

func pbSettings(s Settings) pb.DriveBaseSettings {
	return pb.DriveBaseSettings{
		StraightSpeed:        s.StraightSpeed,
		StraightAcceleration: s.StraightAcceleration,
		TurnRate:             s.TurnRate,
		TurnAcceleration:     s.TurnAcceleration,
	}
}

// applySettings returns s with the non-zero fields of m.
func applySettings(s Settings, m *pb.DriveBaseSettings) Settings {
	set := func(dst *int32, v int32) {
		if v != 0 {
			*dst = v
		}
	}
	set(&s.StraightSpeed, m.StraightSpeed)
	set(&s.StraightAcceleration, m.StraightAcceleration)
	set(&s.TurnRate, m.TurnRate)
	set(&s.TurnAcceleration, m.TurnAcceleration)
	return s
}
