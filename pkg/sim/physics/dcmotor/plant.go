// Package dcmotor simulates a geared DC motor driven through an H-bridge.
package dcmotor

import (
	"math"
	"time"
)

// Terminals is how the motor terminals are connected.
type Terminals int

// Terminal connections.
const (
	TerminalsOpen Terminals = iota
	TerminalsShorted
	TerminalsDriven
)

// Step is the integration step.
const Step = 100 * time.Microsecond

// Plant is the state of one simulated motor.
type Plant struct {
	Params Params
	// Load is an external torque (N·m) acting on the shaft.
	Load float64
	// Blocked holds the shaft still, as if it ran into an obstacle.
	Blocked bool

	terminals Terminals
	voltage   float64
	angle     float64 // rad
	speed     float64 // rad/s
	current   float64 // A
}

// New creates a Plant at rest with open terminals.
func New(p Params) *Plant {
	return &Plant{Params: p}
}

// Drive applies a voltage to the terminals.
func (p *Plant) Drive(voltage float64) {
	p.terminals, p.voltage = TerminalsDriven, voltage
}

// Short connects the terminals together.
func (p *Plant) Short() {
	p.terminals, p.voltage = TerminalsShorted, 0
}

// Open disconnects the terminals.
func (p *Plant) Open() {
	p.terminals, p.voltage = TerminalsOpen, 0
}

// Terminals returns the terminal connection.
func (p *Plant) Terminals() Terminals {
	return p.terminals
}

// Voltage returns the terminal voltage (V).
func (p *Plant) Voltage() float64 {
	return p.voltage
}

// Angle returns the shaft angle (rad).
func (p *Plant) Angle() float64 {
	return p.angle
}

// SetAngle moves the shaft without changing its speed.
func (p *Plant) SetAngle(angle float64) {
	p.angle = angle
}

// Speed returns the shaft speed (rad/s).
func (p *Plant) Speed() float64 {
	return p.speed
}

// Current returns the winding current (A).
func (p *Plant) Current() float64 {
	return p.current
}

// Advance integrates the motion over d.
func (p *Plant) Advance(d time.Duration) {
	for d > 0 {
		dt := Step
		if d < dt {
			dt = d
		}
		p.step(dt.Seconds())
		d -= dt
	}
}

func (p *Plant) step(dt float64) {
	m := &p.Params
	if p.terminals == TerminalsOpen {
		p.current = 0
	} else {
		p.current += (p.voltage - m.Resistance*p.current - m.BackEMF*p.speed) / m.Inductance * dt
	}
	if p.Blocked {
		p.speed = 0
		return
	}
	torque := m.BackEMF*p.current + p.Load
	if p.speed == 0 {
		// Static friction holds the shaft until it is overcome.
		if math.Abs(torque) <= m.Friction {
			return
		}
		p.speed = (torque - math.Copysign(m.Friction, torque)) / m.Inertia * dt
	} else {
		next := p.speed + (torque-math.Copysign(m.Friction, p.speed))/m.Inertia*dt
		if next*p.speed < 0 {
			next = 0
		}
		p.speed = next
	}
	p.angle += p.speed * dt
}
