// Package hub simulates the motor ports and the battery of a hub. It
// implements the hardware boundaries consumed by the servos.
package hub

import (
	"math"
	"time"

	"github.com/pkg/errors"

	fx "github.com/robotalks/servo.go/pkg/framework"
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/sim"
	"github.com/robotalks/servo.go/pkg/sim/physics/dcmotor"
)

// Hub is the simulated hardware.
type Hub struct {
	// Name prefixes the names of the simulated objects.
	Name string
	// Battery is the supply voltage (V).
	Battery float64

	sim.ObjectsChangeCaster

	ports [motor.NumPorts]*Port
	last  time.Time
}

// Port is a motor attached to the hub.
type Port struct {
	Kind  motor.Kind
	Plant *dcmotor.Plant
	// Resolution of the rotation sensor in mdeg.
	Resolution int64
	// Identify is the number of kind lookups answered with ErrAgain while
	// the device is being identified.
	Identify int
	// Fail makes the driver and the sensor return ErrIO.
	Fail bool

	name string
}

// DefaultBattery is the voltage of a fresh battery pack under load.
const DefaultBattery = 8.3

// New creates a Hub without motors.
func New(name string) *Hub {
	return &Hub{Name: name, Battery: DefaultBattery}
}

// Attach connects a motor of kind to port.
func (h *Hub) Attach(port motor.Port, kind motor.Kind) (*Port, error) {
	if !port.Valid() {
		return nil, errors.Wrapf(motor.ErrInvalidPort, "port %d", port)
	}
	params, err := dcmotor.ParamsFor(kind)
	if err != nil {
		return nil, err
	}
	p := &Port{
		Kind:       kind,
		Plant:      dcmotor.New(params),
		Resolution: 1000,
		name:       h.Name + "/motor-" + port.String(),
	}
	h.ports[port] = p
	return p, nil
}

// Detach disconnects the motor from port.
func (h *Hub) Detach(port motor.Port) {
	if port.Valid() {
		h.ports[port] = nil
	}
}

// Port returns the motor attached to port, nil if none.
func (h *Hub) Port(port motor.Port) *Port {
	if !port.Valid() {
		return nil
	}
	return h.ports[port]
}

func (h *Hub) attached(port motor.Port) (*Port, error) {
	if !port.Valid() {
		return nil, errors.Wrapf(motor.ErrInvalidPort, "port %d", port)
	}
	p := h.ports[port]
	if p == nil {
		return nil, errors.Wrapf(motor.ErrNoDevice, "port %s", port)
	}
	if p.Fail {
		return nil, errors.Wrapf(motor.ErrIO, "port %s", port)
	}
	return p, nil
}

// Advance moves all motors forward by d.
func (h *Hub) Advance(d time.Duration) {
	for _, p := range h.ports {
		if p != nil {
			p.Plant.Advance(d)
		}
	}
}

// SetDutyCycle implements motor.Driver. Zero duty shorts the terminals.
func (h *Hub) SetDutyCycle(port motor.Port, duty int32) error {
	p, err := h.attached(port)
	if err != nil {
		return err
	}
	if duty > motor.MaxDuty || duty < -motor.MaxDuty {
		return errors.Wrapf(motor.ErrInvalidArgument, "duty %d", duty)
	}
	if duty == 0 {
		p.Plant.Short()
	} else {
		p.Plant.Drive(h.Battery * float64(duty) / motor.MaxDuty)
	}
	return nil
}

// Coast implements motor.Driver.
func (h *Hub) Coast(port motor.Port) error {
	p, err := h.attached(port)
	if err != nil {
		return err
	}
	p.Plant.Open()
	return nil
}

// Angle implements motor.AngleSource.
func (h *Hub) Angle(port motor.Port) (motor.Angle, error) {
	p, err := h.attached(port)
	if err != nil {
		return motor.Angle{}, err
	}
	return motor.AngleFromMillidegrees(p.sensorAngle()), nil
}

// Kind implements motor.ModelLookup.
func (h *Hub) Kind(port motor.Port) (motor.Kind, error) {
	p, err := h.attached(port)
	if err != nil {
		return motor.KindNone, err
	}
	if p.Identify > 0 {
		p.Identify--
		return motor.KindNone, errors.Wrapf(motor.ErrAgain, "identifying port %s", port)
	}
	return p.Kind, nil
}

// Voltage implements motor.VoltageSource.
func (h *Hub) Voltage() (int32, error) {
	return int32(math.Round(h.Battery * 1000)), nil
}

// AddToLoop implements LoopAdder.
func (h *Hub) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvTop, fx.ControlFunc(h.Simulate))
	l.AddController(fx.PrLvPostProc, fx.PeriodicOnly(fx.ControlFunc(h.NotifyChanges)))
}

// Simulate is a controller advancing the simulation to the iteration time.
func (h *Hub) Simulate(cc fx.ControlContext) error {
	now := cc.Time()
	if !h.last.IsZero() {
		h.Advance(now.Sub(h.last))
	}
	h.last = now
	return nil
}

// NotifyChanges notifies listeners of the motors in motion or powered.
func (h *Hub) NotifyChanges(cc fx.ControlContext) error {
	var changed []sim.Object
	for _, p := range h.ports {
		if p != nil && (p.Plant.Speed() != 0 || p.Plant.Terminals() == dcmotor.TerminalsDriven) {
			changed = append(changed, p)
		}
	}
	if len(changed) > 0 {
		h.ObjectsChanged(cc, changed...)
	}
	return nil
}

func (p *Port) sensorAngle() int64 {
	mdeg := p.Plant.Angle() * 180000 / math.Pi
	if p.Resolution > 1 {
		return int64(math.Floor(mdeg/float64(p.Resolution))) * p.Resolution
	}
	return int64(math.Round(mdeg))
}

// Name implements sim.Object.
func (p *Port) Name() string {
	return p.name
}

// Rotation implements sim.Rotor.
func (p *Port) Rotation() (float64, float64) {
	return p.Plant.Angle() * 180 / math.Pi, p.Plant.Speed() * 180 / math.Pi
}

// Power implements sim.Powered.
func (p *Port) Power() (float64, float64) {
	return p.Plant.Voltage(), p.Plant.Current()
}
