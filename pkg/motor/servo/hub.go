package servo

import (
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/l1"
	"github.com/robotalks/servo.go/pkg/l1/msgs"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/battery"
	"github.com/robotalks/servo.go/pkg/motor/control"
	"github.com/robotalks/servo.go/pkg/motor/hbridge"
	"github.com/robotalks/servo.go/pkg/motor/observer"
)

// Options configures a port in Setup.
type Options struct {
	Direction  motor.Direction
	DutyOffset int32
	// MaxDuty limits the duty cycle, 0 for motor.MaxDuty.
	MaxDuty int32
	// ResetAngle sets the current angle to 0.
	ResetAngle bool
	Gearing    Gearing
}

// Hub owns the servos of all ports and runs them in a loop.
type Hub struct {
	Devices Devices
	Models  motor.ModelLookup
	Supply  motor.VoltageSource
	// Settings overrides the default control settings per kind.
	Settings control.SettingsFile
	// Events receives MotorDoneEvent when a maneuver completes.
	Events l1.Registrar

	battery *battery.Battery
	clock   *motor.LoopClock
	now     motor.Ticks
	servos  [motor.NumPorts]*Servo
	done    [motor.NumPorts]bool
}

// NewHub creates a Hub with the battery average initialized from supply.
func NewHub(devices Devices, models motor.ModelLookup, supply motor.VoltageSource) (*Hub, error) {
	voltage, err := supply.Voltage()
	if err != nil {
		return nil, errors.Wrap(err, "read battery")
	}
	return &Hub{
		Devices: devices,
		Models:  models,
		Supply:  supply,
		battery: battery.New(voltage),
		clock:   motor.NewLoopClock(time.Time{}),
	}, nil
}

// Battery returns the battery compensator shared by all servos.
func (h *Hub) Battery() *battery.Battery {
	return h.battery
}

// Now returns the time of the current loop iteration.
func (h *Hub) Now() motor.Ticks {
	return h.now
}

// Setup (re)creates the servo of port. It fails with motor.ErrAgain while
// the attached device is still being identified.
func (h *Hub) Setup(port motor.Port, opts Options) (*Servo, error) {
	if !port.Valid() {
		return nil, errors.Wrapf(motor.ErrInvalidPort, "port %d", port)
	}
	kind, err := h.Models.Kind(port)
	if err != nil {
		return nil, err
	}
	if kind == motor.KindNone {
		return nil, errors.Wrapf(motor.ErrNoDevice, "port %s", port)
	}
	conf := Config{
		Port:    port,
		Kind:    kind,
		Gearing: opts.Gearing,
		Bridge: hbridge.Config{
			Direction:  opts.Direction,
			DutyOffset: opts.DutyOffset,
			MaxDuty:    opts.MaxDuty,
		},
	}
	if conf.Bridge.MaxDuty == 0 {
		conf.Bridge.MaxDuty = motor.MaxDuty
	}
	if h.Settings != nil {
		model, err := observer.ModelFor(kind)
		if err != nil {
			return nil, err
		}
		settings, err := h.Settings.Settings(kind, model)
		if err != nil {
			return nil, err
		}
		conf.Settings = &settings
	}
	s, err := New(conf, h.Devices, h.battery)
	if err != nil {
		return nil, err
	}
	if opts.ResetAngle {
		if err = s.ResetAngle(h.now, motor.Angle{}); err != nil {
			return nil, err
		}
	}
	if old := h.servos[port]; old != nil {
		old.Record(nil)
	}
	h.servos[port], h.done[port] = s, true
	glog.V(2).Infof("port %s: %s %s", port, kind, opts.Direction)
	return s, nil
}

// Get returns the servo of port.
func (h *Hub) Get(port motor.Port) (*Servo, error) {
	if !port.Valid() {
		return nil, errors.Wrapf(motor.ErrInvalidPort, "port %d", port)
	}
	if s := h.servos[port]; s != nil {
		return s, nil
	}
	return nil, errors.Wrapf(motor.ErrNoDevice, "port %s not set up", port)
}

// Servos returns the servos set up, in port order.
func (h *Hub) Servos() []*Servo {
	var servos []*Servo
	for _, s := range h.servos {
		if s != nil {
			servos = append(servos, s)
		}
	}
	return servos
}

// Tick advances the hub clock to t and samples the battery.
func (h *Hub) Tick(t time.Time) motor.Ticks {
	h.now = h.clock.Now(t)
	if err := h.battery.Sample(h.Supply); err != nil {
		glog.Warningf("battery: %v", err)
	}
	return h.now
}

// Update runs one loop period of every servo.
func (h *Hub) Update() error {
	var errs fx.AggregatedError
	for _, s := range h.servos {
		if s != nil {
			if err := s.Update(h.now); err != nil {
				errs.Add(errors.Wrapf(err, "port %s", s.Port()))
			}
		}
	}
	return errs.Aggregate()
}

// NotifyDone sends a MotorDoneEvent for every servo whose maneuver has
// just completed.
func (h *Hub) NotifyDone(ctx context.Context) error {
	var errs fx.AggregatedError
	for port, s := range h.servos {
		if s == nil {
			continue
		}
		done := s.Done()
		if done && !h.done[port] && h.Events != nil {
			st := s.State(h.now)
			errs.Add(h.Events.SendEvent(ctx, &msgs.MotorDoneEvent{
				MotorDoneEvent: pbDoneEvent(motor.Port(port), st),
			}))
		}
		h.done[port] = done
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder. Commands are handled in every iteration,
// the servos are only updated in periodic ones.
func (h *Hub) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, fx.PeriodicOnly(fx.ControlFunc(h.sense)))
	l.AddController(fx.PrLvControl, fx.ControlFunc(h.HandleCommands))
	l.AddController(fx.PrLvAcuate, fx.PeriodicOnly(fx.ControlFunc(h.execute)))
	l.AddController(fx.PrLvPostProc, fx.PeriodicOnly(fx.ControlFunc(h.notify)))
}

func (h *Hub) sense(cc fx.ControlContext) error {
	h.Tick(cc.Time())
	return nil
}

// HandleCommands executes the motor commands received in this iteration.
func (h *Hub) HandleCommands(cc fx.ControlContext) error {
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

func (h *Hub) execute(cc fx.ControlContext) error {
	return h.Update()
}

func (h *Hub) notify(cc fx.ControlContext) error {
	return h.NotifyDone(cc.Context())
}
