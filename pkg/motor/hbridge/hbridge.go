// Package hbridge scales, offsets and orients duty cycles before they reach
// the motor driver.
package hbridge

import (
	"github.com/pkg/errors"

	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// State is the drive state of the bridge.
type State int

// States.
const (
	StateCoast State = iota
	StateBrake
	// StateDutyPassive is an open loop duty cycle.
	StateDutyPassive
	// StateDutyActive is a duty cycle computed by the control loop.
	StateDutyActive
)

var stateNames = []string{"coast", "brake", "duty-passive", "duty-active"}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Config configures an HBridge.
type Config struct {
	Direction motor.Direction
	// DutyOffset is the duty added to any nonzero duty cycle to overcome
	// the dead band of the motor.
	DutyOffset int32
	// MaxDuty limits the output duty cycle.
	MaxDuty int32
}

// DefaultConfig returns a Config without offset at full power.
func DefaultConfig() Config {
	return Config{Direction: motor.Clockwise, MaxDuty: motor.MaxDuty}
}

// HBridge drives one motor port.
type HBridge struct {
	port   motor.Port
	driver motor.Driver
	conf   Config
	state  State
	duty   int32
}

// New creates an HBridge. The bridge starts coasting without touching the
// driver.
func New(driver motor.Driver, port motor.Port, conf Config) (*HBridge, error) {
	if conf.MaxDuty <= 0 || conf.MaxDuty > motor.MaxDuty {
		return nil, errors.Wrapf(motor.ErrInvalidArgument, "max duty %d", conf.MaxDuty)
	}
	if conf.DutyOffset < 0 || conf.DutyOffset >= conf.MaxDuty {
		return nil, errors.Wrapf(motor.ErrInvalidArgument, "duty offset %d", conf.DutyOffset)
	}
	return &HBridge{port: port, driver: driver, conf: conf}, nil
}

// Port returns the port driven by the bridge.
func (h *HBridge) Port() motor.Port {
	return h.port
}

// State returns the current drive state.
func (h *HBridge) State() State {
	return h.state
}

// Duty returns the last requested duty cycle after clamping, or 0 unless a
// duty cycle is applied.
func (h *HBridge) Duty() int32 {
	return h.duty
}

// Coast lets the motor float.
func (h *HBridge) Coast() error {
	if err := h.driver.Coast(h.port); err != nil {
		return err
	}
	h.state, h.duty = StateCoast, 0
	return nil
}

// Brake shorts the motor terminals.
func (h *HBridge) Brake() error {
	if err := h.driver.SetDutyCycle(h.port, 0); err != nil {
		return err
	}
	h.state, h.duty = StateBrake, 0
	return nil
}

// SetDutyCycle applies a duty cycle computed by the control loop.
func (h *HBridge) SetDutyCycle(duty int32) error {
	return h.setDuty(duty, StateDutyActive)
}

// SetDutyCyclePassive applies an open loop duty cycle.
func (h *HBridge) SetDutyCyclePassive(duty int32) error {
	return h.setDuty(duty, StateDutyPassive)
}

func (h *HBridge) setDuty(duty int32, state State) error {
	d := fixmath.Clamp(int64(duty), int64(h.conf.MaxDuty))
	if d == 0 {
		return h.Brake()
	}
	out := h.Output(int32(d))
	if err := h.driver.SetDutyCycle(h.port, out); err != nil {
		return err
	}
	h.state, h.duty = state, int32(d)
	return nil
}

// Output maps a clamped, nonzero duty cycle to the driver duty cycle: the
// offset is added and the remaining range is scaled so that MaxDuty still
// maps to MaxDuty.
func (h *HBridge) Output(duty int32) int32 {
	maxDuty, offset := int64(h.conf.MaxDuty), int64(h.conf.DutyOffset)
	d := int64(duty)
	out := fixmath.Sign(d)*offset + d*(maxDuty-offset)/maxDuty
	if h.conf.Direction == motor.Counterclockwise {
		out = -out
	}
	return int32(out)
}
