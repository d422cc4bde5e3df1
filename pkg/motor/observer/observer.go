// Package observer estimates the state of a DC motor from its measured angle
// and the applied voltage using a discrete linear plant model, corrected by
// feedback proportional to the angle error.
package observer

import (
	"github.com/robotalks/servo.go/pkg/motor"
	"github.com/robotalks/servo.go/pkg/motor/fixmath"
)

// maxVoltage bounds the corrected input voltage so every product with a
// model coefficient fits in int64.
const maxVoltage = 1000000 // mV

// State is the estimated motor state.
type State struct {
	Angle   motor.Angle
	Speed   int32 // mdeg/s
	Current int32 // mA
}

// Observer is the state estimator of one motor.
type Observer struct {
	model Model
	state State

	stalling   bool
	stallStart motor.Ticks
}

// New creates an Observer with the model of the attached actuator.
func New(model Model, angle motor.Angle) *Observer {
	o := &Observer{model: model}
	o.Reset(angle)
	return o
}

// Model returns the plant model.
func (o *Observer) Model() Model {
	return o.model
}

// Reset restarts estimation at a measured angle with the motor at rest.
func (o *Observer) Reset(angle motor.Angle) {
	o.state = State{Angle: angle}
	o.stalling = false
}

// State returns the current estimate.
func (o *Observer) State() State {
	return o.state
}

// Update advances the estimate by one loop period. voltage is the voltage
// applied during the period that just ended.
func (o *Observer) Update(now motor.Ticks, measured motor.Angle, actuation motor.Actuation, voltage int32) {
	switch actuation {
	case motor.ActuationCoast:
		// Floating terminals carry no current and the model does not apply.
		o.state = State{Angle: measured}
		o.stalling = false
		return
	case motor.ActuationBrake:
		voltage = 0
	}

	m, s := &o.model, o.state
	feedback := int64(m.Gain) * measured.Sub(s.Angle) / 1000
	v := fixmath.Clamp(int64(voltage)+feedback, maxVoltage)
	friction := -fixmath.Sign(int64(s.Speed)) * int64(m.FrictionTorque)
	w, i := int64(s.Speed), int64(s.Current)

	dAngle := (m.DAngleDSpeed*w + m.DAngleDCurrent*i + m.DAngleDVoltage*v + m.DAngleDTorque*friction) / Scale
	speed := (m.DSpeedDSpeed*w + m.DSpeedDCurrent*i + m.DSpeedDVoltage*v + m.DSpeedDTorque*friction) / Scale
	current := (m.DCurrentDSpeed*w + m.DCurrentDCurrent*i + m.DCurrentDVoltage*v + m.DCurrentDTorque*friction) / Scale

	// Friction decelerates but never reverses the motor.
	if free := speed - m.DSpeedDTorque*friction/Scale; (speed < 0) != (free < 0) {
		speed = 0
	}

	o.state = State{
		Angle:   s.Angle.AddMillidegrees(dAngle),
		Speed:   int32(fixmath.Clamp(speed, 1<<31-1)),
		Current: int32(fixmath.Clamp(current, 1<<31-1)),
	}
	o.updateStall(now, voltage)
}

func (o *Observer) updateStall(now motor.Ticks, voltage int32) {
	driven := fixmath.Abs(int64(voltage)) >= int64(o.stallVoltage())
	if !driven || fixmath.Abs(int64(o.state.Speed)) >= int64(o.model.StallSpeed) {
		o.stalling = false
		return
	}
	if !o.stalling {
		o.stalling, o.stallStart = true, now
	}
}

// stallVoltage is the least voltage considered an attempt to move the motor.
func (o *Observer) stallVoltage() int32 {
	return o.TorqueToVoltage(2 * o.model.FrictionTorque)
}

// IsStalled reports whether the motor has been driven without turning for
// at least the stall time of the model, and for how long it has been so.
func (o *Observer) IsStalled(now motor.Ticks) (bool, int32) {
	if !o.stalling {
		return false, 0
	}
	d := now.Sub(o.stallStart)
	return d >= o.model.StallTime, d
}

// FeedforwardTorque returns the torque (µNm) needed to follow a reference
// with the given speed and acceleration.
func (o *Observer) FeedforwardTorque(speed, accel int32) int32 {
	m := &o.model
	friction := fixmath.Sign(int64(speed)) * int64(m.FrictionTorque)
	backEMF := m.BackEMF * int64(speed) / Scale
	inertia := m.Inertia * int64(accel) / Scale
	return int32(fixmath.Clamp(friction+backEMF+inertia, 1<<31-1))
}

// TorqueToVoltage converts a torque (µNm) into the voltage (mV) producing it
// at standstill.
func (o *Observer) TorqueToVoltage(torque int32) int32 {
	return int32(fixmath.Clamp(int64(torque)*o.model.VoltagePerTorque/Scale, 1<<31-1))
}

// VoltageToTorque is the inverse of TorqueToVoltage.
func (o *Observer) VoltageToTorque(voltage int32) int32 {
	return int32(fixmath.Clamp(fixmath.MulDiv(int64(voltage), Scale, o.model.VoltagePerTorque), 1<<31-1))
}
