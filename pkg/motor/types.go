package motor

import (
	"strings"

	"github.com/pkg/errors"
)

// Port identifies a motor slot on the hub.
type Port uint8

// Ports.
const (
	PortA Port = iota
	PortB
	PortC
	PortD
	PortE
	PortF

	NumPorts = int(PortF) + 1
)

// ParsePort parses a port letter.
func ParsePort(s string) (Port, error) {
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && int(c-'A') < NumPorts {
			return Port(c - 'A'), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidPort, "port %q", s)
}

// Valid reports whether the port exists.
func (p Port) Valid() bool {
	return int(p) < NumPorts
}

// String implements fmt.Stringer.
func (p Port) String() string {
	if !p.Valid() {
		return "?"
	}
	return string(rune('A' + p))
}

// Direction is the positive rotation direction seen by the user.
type Direction int

// Directions.
const (
	Clockwise Direction = iota
	Counterclockwise
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Counterclockwise {
		return "counterclockwise"
	}
	return "clockwise"
}

// Kind identifies an actuator type. Each kind maps to a set of model
// constants and default control settings.
type Kind int

// Kinds.
const (
	KindNone Kind = iota
	KindInteractive
	KindTechnicMAngular
	KindTechnicLAngular
	KindEV3Medium
	KindEV3Large
)

var kindNames = map[Kind]string{
	KindNone:            "none",
	KindInteractive:     "interactive",
	KindTechnicMAngular: "technic-m-angular",
	KindTechnicLAngular: "technic-l-angular",
	KindEV3Medium:       "ev3-medium",
	KindEV3Large:        "ev3-large",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNone, errors.Wrapf(ErrNotSupported, "motor kind %q", s)
}

// Then is what a servo does once a maneuver completes.
type Then int

// Completion policies.
const (
	ThenCoast Then = iota
	ThenBrake
	ThenHold
	ThenContinue
)

var thenNames = []string{"coast", "brake", "hold", "continue"}

// String implements fmt.Stringer.
func (t Then) String() string {
	if t >= 0 && int(t) < len(thenNames) {
		return thenNames[t]
	}
	return "unknown"
}

// ParseThen parses a completion policy name.
func ParseThen(s string) (Then, error) {
	for n, name := range thenNames {
		if name == s {
			return Then(n), nil
		}
	}
	return ThenCoast, errors.Wrapf(ErrInvalidArgument, "stop policy %q", s)
}

// Actuation is how the motor terminals are driven during one tick.
type Actuation int

// Actuations.
const (
	// ActuationCoast leaves the terminals floating.
	ActuationCoast Actuation = iota
	// ActuationBrake shorts the terminals.
	ActuationBrake
	// ActuationVoltage applies a voltage.
	ActuationVoltage
)

// MaxDuty is the duty cycle at 100% power.
const MaxDuty = 10000

// Driver is the motor driver boundary. Duty cycles are within ±MaxDuty.
type Driver interface {
	SetDutyCycle(port Port, duty int32) error
	Coast(port Port) error
}

// AngleSource reads the shaft angle of a motor.
type AngleSource interface {
	Angle(port Port) (Angle, error)
}

// ModelLookup reports the kind of actuator attached to a port. It returns
// ErrAgain while the device is still being identified and ErrNoDevice if
// nothing is attached.
type ModelLookup interface {
	Kind(port Port) (Kind, error)
}

// VoltageSource reads the supply voltage in mV.
type VoltageSource interface {
	Voltage() (int32, error)
}
